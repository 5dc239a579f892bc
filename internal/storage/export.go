// ABOUTME: Export of the document index and memory logs
// ABOUTME: Supports YAML and Markdown export formats
package storage

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/harper/recall/internal/models"
)

// ExportData represents the complete exportable data structure
type ExportData struct {
	Version        string           `yaml:"version" json:"version"`
	ExportedAt     string           `yaml:"exported_at" json:"exported_at"`
	Tool           string           `yaml:"tool" json:"tool"`
	Collection     string           `yaml:"collection" json:"collection"`
	EmbeddingModel string           `yaml:"embedding_model" json:"embedding_model"`
	Documents      []ExportDocument `yaml:"documents,omitempty" json:"documents,omitempty"`
	Memories       ExportMemories   `yaml:"memories" json:"memories"`
}

// ExportDocument groups one source's chunks in order
type ExportDocument struct {
	Source string        `yaml:"source" json:"source"`
	Chunks []ExportChunk `yaml:"chunks" json:"chunks"`
}

// ExportChunk represents a chunk for export
type ExportChunk struct {
	Index int    `yaml:"index" json:"index"`
	ID    string `yaml:"id" json:"id"`
	Text  string `yaml:"text" json:"text"`
}

// ExportMemories holds both memory logs
type ExportMemories struct {
	User    []string `yaml:"user" json:"user"`
	Company []string `yaml:"company" json:"company"`
}

// ExportSource names what is being exported
type ExportSource struct {
	Index          VectorIndex
	Memory         *MemoryLog
	Collection     string
	EmbeddingModel string
}

// Export collects every chunk and memory entry
func Export(ctx context.Context, src ExportSource) (*ExportData, error) {
	data := &ExportData{
		Version:        "1.0",
		ExportedAt:     time.Now().Format(time.RFC3339),
		Tool:           "recall",
		Collection:     src.Collection,
		EmbeddingModel: src.EmbeddingModel,
		Memories:       ExportMemories{User: []string{}, Company: []string{}},
	}

	if src.Index != nil {
		chunks, err := src.Index.Entries(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list chunks: %w", err)
		}
		for _, c := range chunks {
			if n := len(data.Documents); n == 0 || data.Documents[n-1].Source != c.Source {
				data.Documents = append(data.Documents, ExportDocument{Source: c.Source})
			}
			doc := &data.Documents[len(data.Documents)-1]
			doc.Chunks = append(doc.Chunks, ExportChunk{Index: c.ChunkIndex, ID: c.ID, Text: c.Text})
		}
	}

	if src.Memory != nil {
		for _, scope := range models.Scopes {
			entries, err := src.Memory.Entries(scope)
			if err != nil {
				return nil, fmt.Errorf("failed to read %s memories: %w", scope, err)
			}
			for _, e := range entries {
				switch scope {
				case models.ScopeUser:
					data.Memories.User = append(data.Memories.User, e.Text)
				case models.ScopeCompany:
					data.Memories.Company = append(data.Memories.Company, e.Text)
				}
			}
		}
	}

	return data, nil
}

// WriteYAML encodes data as YAML
func WriteYAML(w io.Writer, data *ExportData) error {
	encoder := yaml.NewEncoder(w)
	encoder.SetIndent(2)
	if err := encoder.Encode(data); err != nil {
		return fmt.Errorf("failed to encode YAML: %w", err)
	}
	return encoder.Close()
}

// WriteMarkdown renders data as a readable Markdown document
func WriteMarkdown(w io.Writer, data *ExportData) error {
	var b strings.Builder

	fmt.Fprintf(&b, "# Recall Export - %s\n\n", data.Collection)
	fmt.Fprintf(&b, "Generated: %s\n\n", data.ExportedAt)
	fmt.Fprintf(&b, "Embedding model: `%s`\n\n", data.EmbeddingModel)

	writeList := func(title string, items []string) {
		if len(items) == 0 {
			return
		}
		fmt.Fprintf(&b, "## %s\n\n", title)
		for _, item := range items {
			fmt.Fprintf(&b, "- %s\n", item)
		}
		b.WriteString("\n")
	}
	writeList("User Memory", data.Memories.User)
	writeList("Company Memory", data.Memories.Company)

	if len(data.Documents) > 0 {
		b.WriteString("## Documents\n\n")
		for _, doc := range data.Documents {
			fmt.Fprintf(&b, "### %s (%d chunks)\n\n", doc.Source, len(doc.Chunks))
			for _, c := range doc.Chunks {
				fmt.Fprintf(&b, "**chunk_%d**\n\n%s\n\n", c.Index, c.Text)
			}
			b.WriteString("---\n\n")
		}
	}

	_, err := io.WriteString(w, b.String())
	return err
}
