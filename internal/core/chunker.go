// ABOUTME: Chunker splits document text into overlapping fixed-size windows
// ABOUTME: Windows are measured in characters (runes) so multi-byte text never splits mid-character
package core

import (
	"fmt"

	"github.com/harper/recall/internal/models"
)

const (
	// DefaultChunkSize is the default number of characters per chunk
	DefaultChunkSize = 1000
	// DefaultChunkOverlap is the default number of characters shared by neighbouring chunks
	DefaultChunkOverlap = 200
)

// Chunker is a pure sliding-window splitter
type Chunker struct {
	size    int
	overlap int
}

// NewChunker validates the window. overlap >= size would never advance.
func NewChunker(size, overlap int) (*Chunker, error) {
	if size <= 0 {
		return nil, &models.ConfigurationError{
			Setting: "chunk_size",
			Err:     fmt.Errorf("%w: must be positive, got %d", models.ErrInvalidConfig, size),
		}
	}
	if overlap < 0 || overlap >= size {
		return nil, &models.ConfigurationError{
			Setting: "chunk_overlap",
			Err:     fmt.Errorf("%w: must be in [0, %d), got %d", models.ErrInvalidConfig, size, overlap),
		}
	}
	return &Chunker{size: size, overlap: overlap}, nil
}

// Size returns the window width
func (c *Chunker) Size() int { return c.size }

// Overlap returns the characters shared by consecutive windows
func (c *Chunker) Overlap() int { return c.overlap }

// Split returns windows of at most size characters, each starting size-overlap
// characters after the previous one, until the start reaches the end of text.
// Empty text yields no chunks.
func (c *Chunker) Split(text string) []string {
	runes := []rune(text)
	if len(runes) == 0 {
		return nil
	}

	step := c.size - c.overlap
	chunks := make([]string, 0, (len(runes)+step-1)/step)
	for start := 0; start < len(runes); start += step {
		end := min(start+c.size, len(runes))
		chunks = append(chunks, string(runes[start:end]))
	}
	return chunks
}

// Chunks splits text and assigns deterministic ids for source
func (c *Chunker) Chunks(source, text string) []models.Chunk {
	parts := c.Split(text)
	chunks := make([]models.Chunk, len(parts))
	for i, part := range parts {
		chunks[i] = models.NewChunk(source, i, part)
	}
	return chunks
}
