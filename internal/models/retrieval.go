// ABOUTME: Retrieval result structures returned by nearest-neighbor search
// ABOUTME: Hits are ordered by ascending distance; an empty result is not an error
package models

import "fmt"

// Hit is one retrieved chunk
type Hit struct {
	ID       string        `json:"id"`
	Text     string        `json:"text"`
	Metadata ChunkMetadata `json:"metadata"`
	Distance float64       `json:"distance"`
}

// RetrievalResult holds up to n_results hits, nearest first
type RetrievalResult struct {
	Hits []Hit `json:"hits"`
}

// Empty reports whether no grounding is available
func (r RetrievalResult) Empty() bool {
	return len(r.Hits) == 0
}

// Passages formats each hit as a "Source: X / Content: Y" grounding passage
func (r RetrievalResult) Passages() []string {
	passages := make([]string, 0, len(r.Hits))
	for _, h := range r.Hits {
		passages = append(passages, FormatPassage(h.Metadata.Source, h.Text))
	}
	return passages
}

// Citations converts hits into user-facing citations
func (r RetrievalResult) Citations() []Citation {
	citations := make([]Citation, 0, len(r.Hits))
	for _, h := range r.Hits {
		citations = append(citations, Citation{
			Source:  h.Metadata.Source,
			Locator: h.Metadata.Locator(),
			Snippet: h.Text,
		})
	}
	return citations
}

// Citation points an answer back at the chunk it was grounded on
type Citation struct {
	Source  string `json:"source"`
	Locator string `json:"locator"`
	Snippet string `json:"snippet"`
}

// FormatPassage renders one grounding passage for the answer prompt
func FormatPassage(source, content string) string {
	return fmt.Sprintf("Source: %s\nContent: %s", source, content)
}
