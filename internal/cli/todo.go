package cli

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/neuromap/cli/internal/db"
)

func init() {
	todoCmd := &cobra.Command{
		Use:   "todo",
		Short: "Manage todos",
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List todos with their subtasks, highest priority first",
		Run:   runTodoList,
	}

	addCmd := &cobra.Command{
		Use:   "add <text>",
		Short: "Add a todo",
		Args:  cobra.MinimumNArgs(1),
		Run:   runTodoAdd,
	}
	addCmd.Flags().IntP("priority", "p", 0, "Priority 1 (high) to 3 (low); inferred from keywords when omitted")
	addCmd.Flags().String("parent", "", "Parent todo id; makes this a subtask")

	rmCmd := &cobra.Command{
		Use:   "rm <id>",
		Short: "Delete a todo and its subtasks",
		Args:  cobra.ExactArgs(1),
		Run:   runTodoRm,
	}

	extractCmd := &cobra.Command{
		Use:   "extract <text>",
		Short: "Extract todos from free text and save them",
		Args:  cobra.MinimumNArgs(1),
		Run:   runTodoExtract,
	}

	todoCmd.AddCommand(listCmd, addCmd, rmCmd, extractCmd)
	RootCmd.AddCommand(todoCmd)
}

func runTodoList(cmd *cobra.Command, args []string) {
	a, err := newApp()
	if err != nil {
		exitErr("init", err)
	}
	defer a.close()

	todos, err := a.todos.List(a.userContext(cmd))
	if err != nil {
		exitErr("list todos", err)
	}

	printTodos(cmd, todos)
}

func runTodoAdd(cmd *cobra.Command, args []string) {
	priority, _ := cmd.Flags().GetInt("priority")
	parentFlag, _ := cmd.Flags().GetString("parent")

	var parentID *uuid.UUID
	if parentFlag != "" {
		id, err := uuid.Parse(parentFlag)
		if err != nil {
			exitErr("parse parent id", err)
		}
		parentID = &id
	}

	a, err := newApp()
	if err != nil {
		exitErr("init", err)
	}
	defer a.close()

	todo, err := a.todos.Create(a.userContext(cmd), strings.Join(args, " "), priority, parentID)
	if err != nil {
		exitErr("add todo", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "%s  [P%d] %s\n", todo.ID, todo.Priority, todo.Text)
}

func runTodoRm(cmd *cobra.Command, args []string) {
	id, err := uuid.Parse(args[0])
	if err != nil {
		exitErr("parse id", err)
	}

	a, err := newApp()
	if err != nil {
		exitErr("init", err)
	}
	defer a.close()

	if err := a.todos.Delete(a.userContext(cmd), id); err != nil {
		exitErr("delete todo", err)
	}

	fmt.Fprintln(cmd.OutOrStdout(), "deleted")
}

func runTodoExtract(cmd *cobra.Command, args []string) {
	a, err := newApp()
	if err != nil {
		exitErr("init", err)
	}
	defer a.close()

	saved, err := a.todos.ExtractAndSave(a.userContext(cmd), strings.Join(args, " "))
	if err != nil {
		exitErr("extract todos", err)
	}

	if len(saved) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "no todos found")
		return
	}
	printTodos(cmd, saved)
}

func printTodos(cmd *cobra.Command, todos []*db.Todo) {
	out := cmd.OutOrStdout()
	if len(todos) == 0 {
		fmt.Fprintln(out, "no todos")
		return
	}
	for _, todo := range todos {
		fmt.Fprintf(out, "%s  [P%d] %s\n", todo.ID, todo.Priority, todo.Text)
		for _, sub := range todo.Subtasks {
			fmt.Fprintf(out, "    %s  [P%d] %s\n", sub.ID, sub.Priority, sub.Text)
		}
	}
}
