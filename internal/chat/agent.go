// Package chat implements the retrieval-augmented conversational agent.
// The agent holds no conversation state; the caller supplies the full
// history on every turn.
package chat

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/neuromap/cli/internal/auth"
	"github.com/neuromap/cli/internal/llm"
	"github.com/neuromap/cli/internal/rag"
)

// Message roles.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one turn of a conversation.
type Message struct {
	Role    string
	Content string
}

// Retriever finds relevant note context for a query.
type Retriever interface {
	Retrieve(ctx context.Context, userID, query string) (*rag.RetrievalResult, error)
}

// Agent combines retrieved note context with conversation history to
// produce replies.
type Agent struct {
	retriever Retriever
	llm       llm.Client
	builder   *rag.ContextBuilder
	wordDelay time.Duration
}

// NewAgent creates a new chat agent.
func NewAgent(retriever Retriever, client llm.Client, builder *rag.ContextBuilder) *Agent {
	return &Agent{
		retriever: retriever,
		llm:       client,
		builder:   builder,
		wordDelay: 50 * time.Millisecond,
	}
}

// Respond produces a reply to the message given the conversation so far.
// Retrieval that finds nothing still yields a reply from history and the
// message alone.
func (a *Agent) Respond(ctx context.Context, message string, history []Message) (string, error) {
	userID, err := auth.UserID(ctx)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(message) == "" {
		return "", rag.ErrEmptyText
	}

	result, err := a.retriever.Retrieve(ctx, userID, message)
	if err != nil {
		return "", fmt.Errorf("context retrieval failed: %w", err)
	}

	prompt := a.builder.BuildPrompt(
		a.builder.BuildContext(result),
		SerializeHistory(history),
		message,
	)

	reply, err := a.llm.Complete(ctx, prompt)
	if err != nil {
		return "", fmt.Errorf("chat completion failed: %w", err)
	}
	return reply, nil
}

// RespondStream produces the full reply in one upstream call and re-emits
// it word by word with a fixed delay. Emission stops as soon as the
// context is cancelled.
func (a *Agent) RespondStream(ctx context.Context, message string, history []Message, onWord func(word string)) error {
	reply, err := a.Respond(ctx, message, history)
	if err != nil {
		return err
	}

	for _, word := range strings.Split(reply, " ") {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(a.wordDelay):
		}
		onWord(word + " ")
	}
	return nil
}

// SerializeHistory renders a conversation as "role: content" lines,
// oldest first.
func SerializeHistory(history []Message) string {
	lines := make([]string, 0, len(history))
	for _, msg := range history {
		lines = append(lines, fmt.Sprintf("%s: %s", msg.Role, msg.Content))
	}
	return strings.Join(lines, "\n")
}
