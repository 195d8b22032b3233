package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/neuromap/cli/config"
	"github.com/neuromap/cli/internal/db"
)

func init() {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		Run:   runMigrate,
	}
	RootCmd.AddCommand(cmd)
}

func runMigrate(cmd *cobra.Command, args []string) {
	cfg, err := config.Load()
	if err != nil {
		exitErr("load config", err)
	}

	database, err := db.New(cfg.Database.ConnectionString)
	if err != nil {
		exitErr("connect database", err)
	}
	defer database.Close()

	if err := database.Migrate(cmd.Context()); err != nil {
		exitErr("migrate", err)
	}

	fmt.Fprintln(cmd.OutOrStdout(), "migrations applied")
}
