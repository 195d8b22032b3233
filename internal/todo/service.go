package todo

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/neuromap/cli/internal/auth"
	"github.com/neuromap/cli/internal/db"
)

// Store is the slice of the database the todo service needs.
type Store interface {
	ListTopLevelTodos(ctx context.Context, userID string) ([]*db.Todo, error)
	CreateTodo(ctx context.Context, userID, text string, priority int, parentID *uuid.UUID) (*db.Todo, error)
	CreateTodoTree(ctx context.Context, userID, text string, priority int, subtasks []db.SubtaskInput) (*db.Todo, error)
	DeleteTodo(ctx context.Context, id uuid.UUID) error
}

// Service exposes the todo operations. Every method resolves the
// authenticated user from the context.
type Service struct {
	store     Store
	extractor *Extractor
}

// NewService creates a new todo service.
func NewService(store Store, extractor *Extractor) *Service {
	return &Service{store: store, extractor: extractor}
}

// List returns the user's top-level todos with subtasks attached.
func (s *Service) List(ctx context.Context) ([]*db.Todo, error) {
	userID, err := auth.UserID(ctx)
	if err != nil {
		return nil, err
	}
	return s.store.ListTopLevelTodos(ctx, userID)
}

// Create adds a single todo. A non-nil parentID creates a subtask.
func (s *Service) Create(ctx context.Context, text string, priority int, parentID *uuid.UUID) (*db.Todo, error) {
	userID, err := auth.UserID(ctx)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyText
	}
	if priority < 1 || priority > 3 {
		priority = InferPriority(text)
	}
	return s.store.CreateTodo(ctx, userID, text, priority, parentID)
}

// Delete removes a todo and, through the store's cascade rule, its subtasks.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := auth.UserID(ctx); err != nil {
		return err
	}
	return s.store.DeleteTodo(ctx, id)
}

// ExtractAndSave runs the extractor over free text and persists the result.
func (s *Service) ExtractAndSave(ctx context.Context, text string) ([]*db.Todo, error) {
	userID, err := auth.UserID(ctx)
	if err != nil {
		return nil, err
	}
	items, err := s.extractor.Extract(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("extract and save: %w", err)
	}
	return s.SaveExtractedBatch(ctx, userID, items), nil
}

// SaveExtractedBatch persists extracted items, one transaction per
// top-level item. A malformed or failing item is logged and skipped so it
// never discards its siblings. Saved items keep the extractor's order;
// nesting below the first subtask level is dropped.
func (s *Service) SaveExtractedBatch(ctx context.Context, userID string, items []Item) []*db.Todo {
	saved := []*db.Todo{}

	for _, item := range items {
		if strings.TrimSpace(item.Text) == "" {
			slog.Warn("skipping extracted item with empty text", "user", userID)
			continue
		}

		var subtasks []db.SubtaskInput
		for _, sub := range item.Subtasks {
			if strings.TrimSpace(sub.Text) == "" {
				slog.Warn("skipping extracted subtask with empty text", "user", userID)
				continue
			}
			subtasks = append(subtasks, db.SubtaskInput{
				Text:     sub.Text,
				Priority: sub.Priority,
			})
		}

		todo, err := s.store.CreateTodoTree(ctx, userID, item.Text, item.Priority, subtasks)
		if err != nil {
			slog.Error("failed to save extracted todo, skipping",
				"user", userID, "text", item.Text, "err", err)
			continue
		}
		saved = append(saved, todo)
	}

	return saved
}
