package db

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// ErrTodoNotFound is returned when a referenced todo row does not exist.
var ErrTodoNotFound = errors.New("todo not found")

// ErrInvalidParent is returned when a subtask's parent is itself a subtask.
// The hierarchy is two levels deep.
var ErrInvalidParent = errors.New("parent todo is not top-level")

const todoColumns = `id, user_id, text, priority, is_subtask, parent_id, created_at, updated_at`

// ListTopLevelTodos returns all top-level todos for a user, ordered by
// priority ascending, each with its subtasks attached in priority order.
// A user with no todos gets an empty slice.
func (db *DB) ListTopLevelTodos(ctx context.Context, userID string) ([]*Todo, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT `+todoColumns+`
		 FROM todos
		 WHERE user_id = $1 AND is_subtask = FALSE
		 ORDER BY priority ASC, created_at ASC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list todos: %w", err)
	}
	defer rows.Close()

	todos := []*Todo{}
	byID := map[uuid.UUID]*Todo{}
	for rows.Next() {
		todo, err := scanTodo(rows)
		if err != nil {
			return nil, err
		}
		todo.Subtasks = []*Todo{}
		todos = append(todos, todo)
		byID[todo.ID] = todo
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list todos: %w", err)
	}
	if len(todos) == 0 {
		return todos, nil
	}

	parentIDs := make([]uuid.UUID, 0, len(todos))
	for _, t := range todos {
		parentIDs = append(parentIDs, t.ID)
	}

	subRows, err := db.pool.Query(ctx,
		`SELECT `+todoColumns+`
		 FROM todos
		 WHERE parent_id = ANY($1) AND user_id = $2
		 ORDER BY priority ASC, created_at ASC`,
		parentIDs, userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list subtasks: %w", err)
	}
	defer subRows.Close()

	for subRows.Next() {
		sub, err := scanTodo(subRows)
		if err != nil {
			return nil, err
		}
		if parent, ok := byID[*sub.ParentID]; ok {
			parent.Subtasks = append(parent.Subtasks, sub)
		}
	}
	if err := subRows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list subtasks: %w", err)
	}

	return todos, nil
}

// CreateTodo inserts a todo row. A non-nil parentID marks the row as a
// subtask of that parent; the parent must be a top-level todo owned by the
// same user.
func (db *DB) CreateTodo(ctx context.Context, userID, text string, priority int, parentID *uuid.UUID) (*Todo, error) {
	if parentID != nil {
		var parentIsSubtask bool
		err := db.pool.QueryRow(ctx,
			`SELECT is_subtask FROM todos WHERE id = $1 AND user_id = $2`,
			parentID, userID,
		).Scan(&parentIsSubtask)
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrTodoNotFound
		}
		if err != nil {
			return nil, fmt.Errorf("failed to look up parent todo: %w", err)
		}
		if parentIsSubtask {
			return nil, ErrInvalidParent
		}
	}

	var todo Todo
	err := db.pool.QueryRow(ctx,
		`INSERT INTO todos (user_id, text, priority, is_subtask, parent_id)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING `+todoColumns,
		userID, text, priority, parentID != nil, parentID,
	).Scan(
		&todo.ID, &todo.UserID, &todo.Text, &todo.Priority,
		&todo.IsSubtask, &todo.ParentID, &todo.CreatedAt, &todo.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create todo: %w", err)
	}
	return &todo, nil
}

// DeleteTodo removes a todo row. Subtasks are removed with their parent via
// the ON DELETE CASCADE constraint.
func (db *DB) DeleteTodo(ctx context.Context, id uuid.UUID) error {
	tag, err := db.pool.Exec(ctx, `DELETE FROM todos WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete todo: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrTodoNotFound
	}
	return nil
}

// SubtaskInput describes a subtask to create under a new parent todo.
type SubtaskInput struct {
	Text     string
	Priority int
}

// CreateTodoTree inserts a top-level todo and its subtasks in one
// transaction, so a half-written item never persists. The returned parent
// carries its subtasks in priority order.
func (db *DB) CreateTodoTree(ctx context.Context, userID, text string, priority int, subtasks []SubtaskInput) (*Todo, error) {
	tx, err := db.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var parent Todo
	err = tx.QueryRow(ctx,
		`INSERT INTO todos (user_id, text, priority, is_subtask)
		 VALUES ($1, $2, $3, FALSE)
		 RETURNING `+todoColumns,
		userID, text, priority,
	).Scan(
		&parent.ID, &parent.UserID, &parent.Text, &parent.Priority,
		&parent.IsSubtask, &parent.ParentID, &parent.CreatedAt, &parent.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create todo: %w", err)
	}
	parent.Subtasks = []*Todo{}

	for _, sub := range subtasks {
		var child Todo
		err = tx.QueryRow(ctx,
			`INSERT INTO todos (user_id, text, priority, is_subtask, parent_id)
			 VALUES ($1, $2, $3, TRUE, $4)
			 RETURNING `+todoColumns,
			userID, sub.Text, sub.Priority, parent.ID,
		).Scan(
			&child.ID, &child.UserID, &child.Text, &child.Priority,
			&child.IsSubtask, &child.ParentID, &child.CreatedAt, &child.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to create subtask: %w", err)
		}
		parent.Subtasks = append(parent.Subtasks, &child)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit todo tree: %w", err)
	}

	sortByPriority(parent.Subtasks)
	return &parent, nil
}

func sortByPriority(todos []*Todo) {
	sort.SliceStable(todos, func(i, j int) bool {
		return todos[i].Priority < todos[j].Priority
	})
}

type todoScanner interface {
	Scan(dest ...any) error
}

func scanTodo(row todoScanner) (*Todo, error) {
	var todo Todo
	if err := row.Scan(
		&todo.ID, &todo.UserID, &todo.Text, &todo.Priority,
		&todo.IsSubtask, &todo.ParentID, &todo.CreatedAt, &todo.UpdatedAt,
	); err != nil {
		return nil, fmt.Errorf("failed to scan todo: %w", err)
	}
	return &todo, nil
}
