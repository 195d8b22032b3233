// Package todo extracts a prioritized two-level task tree from free text
// using a language model and persists it.
package todo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/neuromap/cli/internal/llm"
)

// ErrEmptyText is returned when an extraction call carries no text.
var ErrEmptyText = errors.New("text is required")

// Item is the transient extractor output. The JSON shape is recursive;
// anything below the second level is flattened off at the persistence
// boundary.
type Item struct {
	Text     string `json:"text"`
	Priority int    `json:"priority"`
	Subtasks []Item `json:"subtasks"`
}

const extractorTemplate = `Analyze the following text and extract any tasks, action items, or things the user needs to do later or be reminded of. Consider various formats and implicit tasks. Format the output as a JSON array of objects, where each object has the following properties:
- text: The task description
- priority: A number from 1 to 3, where 1 is high priority and 3 is low priority
- subtasks: An array of subtasks, each following the same format as the main tasks

Look for:
1. Explicit todo items (e.g., "TODO:", "Task:", "Action item:")
2. Implicit tasks or future actions (e.g., "I need to", "Don't forget to", "Remember to")
3. Deadlines or time-sensitive items (e.g., "by Friday", "next week")
4. Questions or uncertainties that require follow-up
5. Commitments or promises made in the text

Text: %s

JSON Output:`

// Extractor prompts a language model for a structured task list.
type Extractor struct {
	llm llm.Client
}

// NewExtractor creates a new extractor.
func NewExtractor(client llm.Client) *Extractor {
	return &Extractor{llm: client}
}

// Extract asks the model for a JSON task list and normalizes the result.
// Unparseable model output is logged and yields an empty list rather than
// an error; an upstream model failure is surfaced.
func (e *Extractor) Extract(ctx context.Context, text string) ([]Item, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyText
	}

	raw, err := e.llm.Complete(ctx, fmt.Sprintf(extractorTemplate, text))
	if err != nil {
		return nil, fmt.Errorf("todo extraction failed: %w", err)
	}

	cleaned := stripCodeFence(raw)

	var items []Item
	if err := json.Unmarshal([]byte(cleaned), &items); err != nil {
		slog.Warn("todo extractor returned unparseable output", "err", err)
		return []Item{}, nil
	}

	return normalizeItems(items), nil
}

// stripCodeFence removes Markdown code fence delimiters the model may wrap
// its JSON in.
func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```") {
		if idx := strings.Index(s, "\n"); idx >= 0 {
			s = s[idx+1:]
		} else {
			s = strings.TrimPrefix(s, "```json")
			s = strings.TrimPrefix(s, "```")
		}
	}
	s = strings.TrimSpace(s)
	if strings.HasSuffix(s, "```") {
		s = strings.TrimSuffix(s, "```")
	}
	return strings.TrimSpace(s)
}

var labelPattern = regexp.MustCompile(`(?i)^(TODO|Task|Action item):\s*`)

var (
	highPriorityKeywords = []string{"urgent", "important", "asap", "critical"}
	lowPriorityKeywords  = []string{"maybe", "consider", "might", "could"}
)

// normalizeItems strips task labels, fills in missing priorities and
// defaults absent subtask lists, recursively.
func normalizeItems(items []Item) []Item {
	out := make([]Item, 0, len(items))
	for _, item := range items {
		item.Text = strings.TrimSpace(labelPattern.ReplaceAllString(item.Text, ""))
		if item.Priority == 0 {
			item.Priority = InferPriority(item.Text)
		}
		if item.Subtasks == nil {
			item.Subtasks = []Item{}
		} else {
			item.Subtasks = normalizeItems(item.Subtasks)
		}
		out = append(out, item)
	}
	return out
}

// InferPriority guesses a priority from keywords in the task text.
// High-priority keywords win when both kinds are present.
func InferPriority(text string) int {
	text = strings.ToLower(text)

	for _, keyword := range highPriorityKeywords {
		if strings.Contains(text, keyword) {
			return 1
		}
	}
	for _, keyword := range lowPriorityKeywords {
		if strings.Contains(text, keyword) {
			return 3
		}
	}
	return 2
}
