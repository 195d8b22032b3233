// Package chunker splits text into overlapping fixed-size segments for embedding.
package chunker

import "fmt"

const (
	// DefaultChunkSize is the window width in characters.
	DefaultChunkSize = 256
	// DefaultOverlap is how many characters consecutive chunks share.
	DefaultOverlap = 40
)

// Chunk splits text into chunks of at most size characters, with consecutive
// chunks sharing overlap characters. Text no longer than size is returned as
// a single chunk. The final chunk may be shorter than size and is not
// overlapped forward.
func Chunk(text string, size, overlap int) ([]string, error) {
	if size <= 0 {
		return nil, fmt.Errorf("chunk size must be positive, got %d", size)
	}
	if overlap < 0 || overlap >= size {
		return nil, fmt.Errorf("overlap %d must be in [0, %d)", overlap, size)
	}

	// Windows are measured in runes so a boundary never splits a
	// multi-byte character.
	runes := []rune(text)
	if len(runes) <= size {
		return []string{text}, nil
	}

	var chunks []string
	start := 0
	for start < len(runes) {
		// Emit the remaining tail as the last chunk
		if len(runes)-start <= size {
			chunks = append(chunks, string(runes[start:]))
			break
		}

		chunks = append(chunks, string(runes[start:start+size]))

		next := start + size - overlap
		// Never stall or move backwards
		if next <= start {
			next = start + 1
		}
		if next > len(runes) {
			next = len(runes)
		}
		start = next
	}

	return chunks, nil
}
