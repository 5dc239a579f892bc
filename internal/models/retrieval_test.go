// ABOUTME: Tests for retrieval results, passages, and citations
// ABOUTME: Verifies passage formatting used by the answer prompt
package models

import "testing"

func TestRetrievalResult_Empty(t *testing.T) {
	var result RetrievalResult
	if !result.Empty() {
		t.Error("zero RetrievalResult should be empty")
	}
	if got := result.Passages(); len(got) != 0 {
		t.Errorf("Passages() = %v, want none", got)
	}
}

func TestRetrievalResult_PassagesAndCitations(t *testing.T) {
	result := RetrievalResult{Hits: []Hit{
		{ID: "a", Text: "The code is BlueJay.", Metadata: ChunkMetadata{Source: "doc.txt", ChunkIndex: 0}},
		{ID: "b", Text: "Deadline is Friday.", Metadata: ChunkMetadata{Source: "plan.md", ChunkIndex: 2}},
	}}

	passages := result.Passages()
	if len(passages) != 2 {
		t.Fatalf("Passages() len = %d, want 2", len(passages))
	}
	want := "Source: doc.txt\nContent: The code is BlueJay."
	if passages[0] != want {
		t.Errorf("Passages()[0] = %q, want %q", passages[0], want)
	}

	citations := result.Citations()
	if citations[1].Source != "plan.md" || citations[1].Locator != "chunk_2" || citations[1].Snippet != "Deadline is Friday." {
		t.Errorf("Citations()[1] = %+v", citations[1])
	}
}
