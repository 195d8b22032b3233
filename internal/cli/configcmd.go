package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/neuromap/cli/config"
)

func init() {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Manage configuration",
	}
	configCmd.AddCommand(&cobra.Command{
		Use:   "init",
		Short: "Write a default config file to edit",
		Run:   runConfigInit,
	})
	RootCmd.AddCommand(configCmd)
}

func runConfigInit(cmd *cobra.Command, args []string) {
	path := config.Path()
	if _, err := os.Stat(path); err == nil {
		exitErr("config init", fmt.Errorf("%s already exists", path))
	}

	if err := config.Default().Save(); err != nil {
		exitErr("write config", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", path)
}
