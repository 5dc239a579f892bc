// ABOUTME: Parallel-array upsert batch for the vector index
// ABOUTME: Validation rejects the whole batch before any backend writes
package models

import "fmt"

// UpsertBatch holds ids, documents, metadata, and vectors by position
type UpsertBatch struct {
	IDs       []string
	Documents []string
	Metadatas []ChunkMetadata
	Vectors   [][]float32
}

// BatchFromChunks builds a batch from chunks and their embeddings
func BatchFromChunks(chunks []Chunk, vectors [][]float32) UpsertBatch {
	b := UpsertBatch{
		IDs:       make([]string, len(chunks)),
		Documents: make([]string, len(chunks)),
		Metadatas: make([]ChunkMetadata, len(chunks)),
		Vectors:   vectors,
	}
	for i, c := range chunks {
		b.IDs[i] = c.ID
		b.Documents[i] = c.Text
		b.Metadatas[i] = c.Metadata()
	}
	return b
}

// Len is the number of entries
func (b UpsertBatch) Len() int {
	return len(b.IDs)
}

// Validate checks array lengths, ids, and that every vector has dimension dim.
// dim <= 0 means the collection has no fixed dimension yet; the first vector sets it.
// It returns the batch's dimension.
func (b UpsertBatch) Validate(dim int) (int, error) {
	n := len(b.IDs)
	if len(b.Documents) != n || len(b.Metadatas) != n || len(b.Vectors) != n {
		return 0, &IndexValidationError{Reason: fmt.Sprintf(
			"mismatched batch lengths: %d ids, %d documents, %d metadatas, %d vectors",
			n, len(b.Documents), len(b.Metadatas), len(b.Vectors))}
	}

	seen := make(map[string]struct{}, n)
	for i, id := range b.IDs {
		if id == "" {
			return 0, &IndexValidationError{Reason: fmt.Sprintf("empty id at position %d", i)}
		}
		if _, dup := seen[id]; dup {
			return 0, &IndexValidationError{Reason: fmt.Sprintf("duplicate id %s in batch", id)}
		}
		seen[id] = struct{}{}
	}

	for i, v := range b.Vectors {
		if len(v) == 0 {
			return 0, &IndexValidationError{Reason: fmt.Sprintf("empty vector at position %d", i)}
		}
		if dim <= 0 {
			dim = len(v)
		}
		if len(v) != dim {
			return 0, &IndexValidationError{Reason: fmt.Sprintf(
				"vector dimension %d at position %d does not match collection dimension %d", len(v), i, dim)}
		}
	}
	return dim, nil
}
