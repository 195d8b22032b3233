// Package llm abstracts the language model service behind a prompt-in,
// text-out interface.
package llm

import "context"

// Client completes a single instruction prompt.
type Client interface {
	Complete(ctx context.Context, prompt string) (string, error)
}
