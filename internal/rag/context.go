package rag

import (
	"strings"

	tiktoken "github.com/pkoukk/tiktoken-go"
)

const chatPreamble = `You are an AI assistant named Mindchat, designed to help users interact with their memories and notes. Your responses should be helpful, empathetic, and tailored to the user's context.`

// ContextBuilder formats retrieval results and assembles chat prompts,
// keeping the context block within a token budget.
type ContextBuilder struct {
	maxTokens int
	encoder   *tiktoken.Tiktoken
}

// NewContextBuilder creates a new context builder. When the tiktoken BPE
// tables are unavailable (offline), token counts fall back to a chars/4
// estimate.
func NewContextBuilder(maxTokens int) *ContextBuilder {
	if maxTokens <= 0 {
		maxTokens = 2000
	}
	cb := &ContextBuilder{maxTokens: maxTokens}
	if enc, err := tiktoken.GetEncoding("cl100k_base"); err == nil {
		cb.encoder = enc
	}
	return cb
}

// BuildContext joins retrieved note texts into one context block, truncated
// to the token budget. An empty result produces an empty string.
func (cb *ContextBuilder) BuildContext(result *RetrievalResult) string {
	if result == nil || len(result.Matches) == 0 {
		return ""
	}

	var parts []string
	total := 0
	for _, match := range result.Matches {
		tokens := cb.countTokens(match.Text)
		if total+tokens > cb.maxTokens && len(parts) > 0 {
			break
		}
		parts = append(parts, match.Text)
		total += tokens
	}

	context := strings.Join(parts, "\n\n")
	if cb.countTokens(context) > cb.maxTokens {
		context = cb.truncate(context)
	}
	return context
}

// BuildPrompt assembles the full chat prompt from the persona preamble, the
// retrieved context, the serialized history and the new message.
func (cb *ContextBuilder) BuildPrompt(context, history, message string) string {
	var parts []string

	parts = append(parts, chatPreamble)
	parts = append(parts, "")

	if context != "" {
		parts = append(parts, "Relevant context from the user's notes:")
		parts = append(parts, context)
		parts = append(parts, "Use this context only when it is relevant to the conversation. Do not mention its existence unless it is directly pertinent.")
		parts = append(parts, "")
	}

	parts = append(parts, "Chat History:")
	parts = append(parts, history)
	parts = append(parts, "")
	parts = append(parts, "User input: "+message)
	parts = append(parts, "")
	parts = append(parts, "Your Response:")

	return strings.Join(parts, "\n")
}

func (cb *ContextBuilder) countTokens(text string) int {
	if text == "" {
		return 0
	}
	if cb.encoder != nil {
		return len(cb.encoder.Encode(text, nil, nil))
	}
	// Rough estimate: ~4 characters per token
	return len(text) / 4
}

func (cb *ContextBuilder) truncate(text string) string {
	if cb.encoder != nil {
		tokens := cb.encoder.Encode(text, nil, nil)
		if len(tokens) <= cb.maxTokens {
			return text
		}
		return cb.encoder.Decode(tokens[:cb.maxTokens])
	}
	maxChars := cb.maxTokens * 4
	if len(text) <= maxChars {
		return text
	}
	return text[:maxChars]
}
