package todo

import (
	"context"
	"errors"
	"sort"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/neuromap/cli/internal/auth"
	"github.com/neuromap/cli/internal/db"
)

// memStore is an in-memory Store that mirrors the persistence rules:
// two-level hierarchy, priority-ascending ordering, cascade delete.
type memStore struct {
	todos   map[uuid.UUID]*db.Todo
	order   []uuid.UUID
	failFor string // CreateTodoTree fails for items with this text
}

func newMemStore() *memStore {
	return &memStore{todos: map[uuid.UUID]*db.Todo{}}
}

func (m *memStore) insert(userID, text string, priority int, parentID *uuid.UUID) *db.Todo {
	todo := &db.Todo{
		ID:        uuid.New(),
		UserID:    userID,
		Text:      text,
		Priority:  priority,
		IsSubtask: parentID != nil,
		ParentID:  parentID,
	}
	m.todos[todo.ID] = todo
	m.order = append(m.order, todo.ID)
	return todo
}

func (m *memStore) ListTopLevelTodos(ctx context.Context, userID string) ([]*db.Todo, error) {
	result := []*db.Todo{}
	for _, id := range m.order {
		t := m.todos[id]
		if t.UserID != userID || t.IsSubtask {
			continue
		}
		top := *t
		top.Subtasks = []*db.Todo{}
		for _, subID := range m.order {
			sub := m.todos[subID]
			if sub.UserID == userID && sub.ParentID != nil && *sub.ParentID == t.ID {
				top.Subtasks = append(top.Subtasks, sub)
			}
		}
		sort.SliceStable(top.Subtasks, func(i, j int) bool {
			return top.Subtasks[i].Priority < top.Subtasks[j].Priority
		})
		result = append(result, &top)
	}
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].Priority < result[j].Priority
	})
	return result, nil
}

func (m *memStore) CreateTodo(ctx context.Context, userID, text string, priority int, parentID *uuid.UUID) (*db.Todo, error) {
	if parentID != nil {
		parent, ok := m.todos[*parentID]
		if !ok || parent.UserID != userID {
			return nil, db.ErrTodoNotFound
		}
		if parent.IsSubtask {
			return nil, db.ErrInvalidParent
		}
	}
	return m.insert(userID, text, priority, parentID), nil
}

func (m *memStore) CreateTodoTree(ctx context.Context, userID, text string, priority int, subtasks []db.SubtaskInput) (*db.Todo, error) {
	if m.failFor != "" && text == m.failFor {
		return nil, errors.New("constraint violation")
	}
	parent := m.insert(userID, text, priority, nil)
	parent.Subtasks = []*db.Todo{}
	for _, sub := range subtasks {
		parent.Subtasks = append(parent.Subtasks, m.insert(userID, sub.Text, sub.Priority, &parent.ID))
	}
	return parent, nil
}

func (m *memStore) DeleteTodo(ctx context.Context, id uuid.UUID) error {
	if _, ok := m.todos[id]; !ok {
		return db.ErrTodoNotFound
	}
	delete(m.todos, id)
	for subID, sub := range m.todos {
		if sub.ParentID != nil && *sub.ParentID == id {
			delete(m.todos, subID)
		}
	}
	return nil
}

func userCtx(t *testing.T) context.Context {
	t.Helper()
	return auth.WithUser(context.Background(), "user-1")
}

func TestService_ListEmpty(t *testing.T) {
	s := NewService(newMemStore(), NewExtractor(&fakeLLM{}))
	todos, err := s.List(userCtx(t))
	require.NoError(t, err)
	assert.Empty(t, todos)
	assert.NotNil(t, todos)
}

func TestService_Unauthorized(t *testing.T) {
	s := NewService(newMemStore(), NewExtractor(&fakeLLM{}))

	_, err := s.List(context.Background())
	assert.ErrorIs(t, err, auth.ErrUnauthorized)

	_, err = s.Create(context.Background(), "buy milk", 2, nil)
	assert.ErrorIs(t, err, auth.ErrUnauthorized)

	err = s.Delete(context.Background(), uuid.New())
	assert.ErrorIs(t, err, auth.ErrUnauthorized)
}

func TestService_CreateValidatesText(t *testing.T) {
	s := NewService(newMemStore(), NewExtractor(&fakeLLM{}))
	_, err := s.Create(userCtx(t), "  ", 2, nil)
	assert.ErrorIs(t, err, ErrEmptyText)
}

func TestService_CreateInfersPriority(t *testing.T) {
	s := NewService(newMemStore(), NewExtractor(&fakeLLM{}))
	todo, err := s.Create(userCtx(t), "urgent: fix the leak", 0, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, todo.Priority)
}

func TestService_SubtaskRoundTrip(t *testing.T) {
	s := NewService(newMemStore(), NewExtractor(&fakeLLM{}))
	ctx := userCtx(t)

	parent, err := s.Create(ctx, "plan trip", 2, nil)
	require.NoError(t, err)
	assert.False(t, parent.IsSubtask)

	sub, err := s.Create(ctx, "book flights", 1, &parent.ID)
	require.NoError(t, err)
	assert.True(t, sub.IsSubtask)

	todos, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, todos, 1)
	require.Len(t, todos[0].Subtasks, 1)
	assert.Equal(t, "book flights", todos[0].Subtasks[0].Text)
}

func TestService_RejectsSubtaskParent(t *testing.T) {
	s := NewService(newMemStore(), NewExtractor(&fakeLLM{}))
	ctx := userCtx(t)

	parent, err := s.Create(ctx, "plan trip", 2, nil)
	require.NoError(t, err)
	sub, err := s.Create(ctx, "book flights", 1, &parent.ID)
	require.NoError(t, err)

	// The hierarchy is two levels: a subtask cannot be a parent
	_, err = s.Create(ctx, "compare airlines", 2, &sub.ID)
	assert.ErrorIs(t, err, db.ErrInvalidParent)
}

func TestService_RejectsForeignParent(t *testing.T) {
	store := newMemStore()
	s := NewService(store, NewExtractor(&fakeLLM{}))

	theirs := store.insert("user-2", "their errands", 2, nil)

	_, err := s.Create(userCtx(t), "sneaky subtask", 2, &theirs.ID)
	assert.ErrorIs(t, err, db.ErrTodoNotFound)

	// Their listing stays untouched
	todos, err := s.store.ListTopLevelTodos(context.Background(), "user-2")
	require.NoError(t, err)
	require.Len(t, todos, 1)
	assert.Empty(t, todos[0].Subtasks)
}

func TestService_ListOrdersByPriority(t *testing.T) {
	s := NewService(newMemStore(), NewExtractor(&fakeLLM{}))
	ctx := userCtx(t)

	_, err := s.Create(ctx, "someday item", 3, nil)
	require.NoError(t, err)
	_, err = s.Create(ctx, "urgent item", 1, nil)
	require.NoError(t, err)

	todos, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, todos, 2)
	assert.Equal(t, "urgent item", todos[0].Text)
	assert.Equal(t, "someday item", todos[1].Text)
}

func TestService_DeleteNotFound(t *testing.T) {
	s := NewService(newMemStore(), NewExtractor(&fakeLLM{}))
	err := s.Delete(userCtx(t), uuid.New())
	assert.ErrorIs(t, err, db.ErrTodoNotFound)
}

func TestSaveExtractedBatch_SkipsMalformedItem(t *testing.T) {
	s := NewService(newMemStore(), NewExtractor(&fakeLLM{}))

	saved := s.SaveExtractedBatch(context.Background(), "user-1", []Item{
		{Text: "buy milk", Priority: 2},
		{Text: "   ", Priority: 2}, // malformed: no text
		{Text: "call mom", Priority: 1},
	})

	require.Len(t, saved, 2)
	assert.Equal(t, "buy milk", saved[0].Text)
	assert.Equal(t, "call mom", saved[1].Text)
}

func TestSaveExtractedBatch_IsolatesStoreFailure(t *testing.T) {
	store := newMemStore()
	store.failFor = "poison"
	s := NewService(store, NewExtractor(&fakeLLM{}))

	saved := s.SaveExtractedBatch(context.Background(), "user-1", []Item{
		{Text: "first", Priority: 2},
		{Text: "poison", Priority: 2},
		{Text: "last", Priority: 2},
	})

	require.Len(t, saved, 2)
	assert.Equal(t, "first", saved[0].Text)
	assert.Equal(t, "last", saved[1].Text)
}

func TestSaveExtractedBatch_SavesSubtasks(t *testing.T) {
	s := NewService(newMemStore(), NewExtractor(&fakeLLM{}))

	saved := s.SaveExtractedBatch(context.Background(), "user-1", []Item{
		{Text: "plan trip", Priority: 2, Subtasks: []Item{
			{Text: "book flights", Priority: 1},
			{Text: "", Priority: 2}, // skipped
		}},
	})

	require.Len(t, saved, 1)
	require.Len(t, saved[0].Subtasks, 1)
	assert.Equal(t, "book flights", saved[0].Subtasks[0].Text)
	assert.True(t, saved[0].Subtasks[0].IsSubtask)
}

func TestExtractAndSave(t *testing.T) {
	llm := &fakeLLM{response: `[{"text": "TODO: buy milk", "priority": 0}]`}
	s := NewService(newMemStore(), NewExtractor(llm))

	saved, err := s.ExtractAndSave(userCtx(t), "note: I need to buy milk")
	require.NoError(t, err)
	require.Len(t, saved, 1)
	assert.Equal(t, "buy milk", saved[0].Text)
	assert.Equal(t, 2, saved[0].Priority)
}
