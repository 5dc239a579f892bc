// ABOUTME: Chunk represents a fixed-size window of an ingested document
// ABOUTME: Chunk IDs are deterministic so re-ingesting a source overwrites its chunks
package models

import (
	"fmt"

	"github.com/google/uuid"
)

// chunkNamespace scopes chunk IDs so they never collide with other name-based UUIDs
var chunkNamespace = uuid.NewMD5(uuid.NameSpaceURL, []byte("recall:chunk"))

// Chunk is a bounded, overlapping substring of a document
type Chunk struct {
	ID         string `json:"id"`
	Text       string `json:"text"`
	Source     string `json:"source"`
	ChunkIndex int    `json:"chunk_index"`
}

// ChunkMetadata is stored next to each chunk in the vector index
type ChunkMetadata struct {
	Source     string `json:"source"`
	ChunkIndex int    `json:"chunk_index"`
}

// ChunkID derives the stable ID for the chunk at index of source.
// The same (source, index) pair always yields the same ID.
func ChunkID(source string, index int) string {
	return uuid.NewMD5(chunkNamespace, []byte(fmt.Sprintf("%s_%d", source, index))).String()
}

// NewChunk builds a chunk with its deterministic ID
func NewChunk(source string, index int, text string) Chunk {
	return Chunk{
		ID:         ChunkID(source, index),
		Text:       text,
		Source:     source,
		ChunkIndex: index,
	}
}

// Metadata returns the index metadata for the chunk
func (c Chunk) Metadata() ChunkMetadata {
	return ChunkMetadata{Source: c.Source, ChunkIndex: c.ChunkIndex}
}

// Locator is the human-readable position used in citations
func (m ChunkMetadata) Locator() string {
	return fmt.Sprintf("chunk_%d", m.ChunkIndex)
}
