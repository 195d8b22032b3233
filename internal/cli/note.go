package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

func init() {
	noteCmd := &cobra.Command{
		Use:   "note",
		Short: "Capture notes into the knowledge base",
	}

	addCmd := &cobra.Command{
		Use:   "add [text]",
		Short: "Embed a note and add it to the knowledge base",
		Long:  "Embeds the note text (plus overlapping chunks for long notes) and stores the vectors for retrieval. Reads stdin when no text is given.",
		Run:   runNoteAdd,
	}

	noteCmd.AddCommand(addCmd)
	RootCmd.AddCommand(noteCmd)
}

func runNoteAdd(cmd *cobra.Command, args []string) {
	text := strings.TrimSpace(strings.Join(args, " "))
	if text == "" {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			exitErr("read stdin", err)
		}
		text = strings.TrimSpace(string(data))
	}

	a, err := newApp()
	if err != nil {
		exitErr("init", err)
	}
	defer a.close()

	ctx := a.userContext(cmd)
	userID, err := a.userID(cmd)
	if err != nil {
		exitErr("auth", err)
	}

	if err := a.retriever.Upsert(ctx, userID, text); err != nil {
		exitErr("add note", err)
	}

	fmt.Fprintln(cmd.OutOrStdout(), "note added")
}
