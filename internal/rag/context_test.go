package rag

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/neuromap/cli/internal/db"
)

func TestBuildContext_Empty(t *testing.T) {
	cb := NewContextBuilder(2000)
	assert.Equal(t, "", cb.BuildContext(nil))
	assert.Equal(t, "", cb.BuildContext(&RetrievalResult{}))
}

func TestBuildContext_JoinsMatches(t *testing.T) {
	cb := NewContextBuilder(2000)
	result := &RetrievalResult{Matches: []*db.SearchResult{
		{Text: "first note", Score: 0.9},
		{Text: "second note", Score: 0.8},
	}}
	context := cb.BuildContext(result)
	assert.Equal(t, "first note\n\nsecond note", context)
}

func TestBuildContext_RespectsTokenBudget(t *testing.T) {
	cb := NewContextBuilder(10)
	long := strings.Repeat("many words fill the context window here ", 50)
	result := &RetrievalResult{Matches: []*db.SearchResult{
		{Text: long, Score: 0.9},
		{Text: long, Score: 0.8},
	}}
	context := cb.BuildContext(result)
	require.NotEmpty(t, context)
	assert.Less(t, len(context), len(long))
}

func TestBuildPrompt_WithContext(t *testing.T) {
	cb := NewContextBuilder(2000)
	prompt := cb.BuildPrompt("some retrieved text", "user: hi", "what's up?")

	assert.Contains(t, prompt, "Mindchat")
	assert.Contains(t, prompt, "some retrieved text")
	assert.Contains(t, prompt, "only when it is relevant")
	assert.Contains(t, prompt, "Chat History:\nuser: hi")
	assert.Contains(t, prompt, "User input: what's up?")
	assert.True(t, strings.HasSuffix(prompt, "Your Response:"))
}

func TestBuildPrompt_WithoutContext(t *testing.T) {
	cb := NewContextBuilder(2000)
	prompt := cb.BuildPrompt("", "", "hello")

	assert.NotContains(t, prompt, "Relevant context")
	assert.Contains(t, prompt, "User input: hello")
}
