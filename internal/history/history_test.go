package history

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/neuromap/cli/internal/chat"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "history.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestAppendAndMessages(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Append(ctx, "user-1", chat.RoleUser, "hello"))
	require.NoError(t, s.Append(ctx, "user-1", chat.RoleAssistant, "hi!"))
	require.NoError(t, s.Append(ctx, "user-2", chat.RoleUser, "other user"))

	msgs, err := s.Messages(ctx, "user-1")
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, chat.Message{Role: chat.RoleUser, Content: "hello"}, msgs[0])
	assert.Equal(t, chat.Message{Role: chat.RoleAssistant, Content: "hi!"}, msgs[1])
}

func TestMessages_EmptyUser(t *testing.T) {
	s := openTestStore(t)
	msgs, err := s.Messages(context.Background(), "nobody")
	require.NoError(t, err)
	assert.Empty(t, msgs)
}

func TestClear(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Append(ctx, "user-1", chat.RoleUser, "hello"))
	require.NoError(t, s.Clear(ctx, "user-1"))

	msgs, err := s.Messages(ctx, "user-1")
	require.NoError(t, err)
	assert.Empty(t, msgs)
}
