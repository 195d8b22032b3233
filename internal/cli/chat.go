package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/neuromap/cli/internal/chat"
	"github.com/neuromap/cli/internal/tui"
)

func init() {
	chatCmd := &cobra.Command{
		Use:   "chat",
		Short: "Chat over your notes",
		Long:  "With --message, answers once and exits; otherwise starts an interactive session. History is kept locally and replayed each turn.",
		Run:   runChat,
	}
	chatCmd.Flags().StringP("message", "m", "", "Send one message and print the reply")
	chatCmd.Flags().Bool("stream", false, "Emit the reply word by word (with --message)")

	clearCmd := &cobra.Command{
		Use:   "clear",
		Short: "Forget the saved conversation",
		Run:   runChatClear,
	}
	chatCmd.AddCommand(clearCmd)

	RootCmd.AddCommand(chatCmd)
}

func runChat(cmd *cobra.Command, args []string) {
	message, _ := cmd.Flags().GetString("message")
	stream, _ := cmd.Flags().GetBool("stream")

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

	if message == "" {
		session, err := tui.New(ctx, a.agent, a.history, userID)
		if err != nil {
			exitErr("start chat", err)
		}
		if err := session.Run(); err != nil {
			exitErr("chat", err)
		}
		return
	}

	history, err := a.history.Messages(ctx, userID)
	if err != nil {
		exitErr("load history", err)
	}

	out := cmd.OutOrStdout()
	var reply string
	if stream {
		var b strings.Builder
		err = a.agent.RespondStream(ctx, message, history, func(word string) {
			fmt.Fprint(out, word)
			b.WriteString(word)
		})
		fmt.Fprintln(out)
		reply = strings.TrimSpace(b.String())
	} else {
		reply, err = a.agent.Respond(ctx, message, history)
		if err == nil {
			fmt.Fprintln(out, reply)
		}
	}
	if err != nil {
		exitErr("chat", err)
	}

	if err := a.history.Append(ctx, userID, chat.RoleUser, message); err != nil {
		exitErr("save history", err)
	}
	if err := a.history.Append(ctx, userID, chat.RoleAssistant, reply); err != nil {
		exitErr("save history", err)
	}
}

func runChatClear(cmd *cobra.Command, args []string) {
	a, err := newApp()
	if err != nil {
		exitErr("init", err)
	}
	defer a.close()

	userID, err := a.userID(cmd)
	if err != nil {
		exitErr("auth", err)
	}

	if err := a.history.Clear(a.userContext(cmd), userID); err != nil {
		exitErr("clear history", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), "history cleared")
}
