// ABOUTME: Tests for memory extraction parsing and the extraction request
// ABOUTME: Malformed model output must yield empty memories rather than an error
package core

import (
	"context"
	"errors"
	"testing"

	"github.com/harper/recall/internal/llm"
	"github.com/harper/recall/internal/models"
)

func TestParseExtraction(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    models.ExtractedMemories
		wantErr bool
	}{
		{"both", `{"user_memory": "User is a PM", "company_memory": "Finance uses SAP"}`,
			models.ExtractedMemories{UserMemory: "User is a PM", CompanyMemory: "Finance uses SAP"}, false},
		{"empty strings", `{"user_memory": "", "company_memory": ""}`, models.ExtractedMemories{}, false},
		{"missing key", `{"user_memory": "likes tea"}`, models.ExtractedMemories{UserMemory: "likes tea"}, false},
		{"null value", `{"user_memory": null, "company_memory": "uses Go"}`, models.ExtractedMemories{CompanyMemory: "uses Go"}, false},
		{"fenced", "```json\n{\"user_memory\": \"X is a PM\"}\n```", models.ExtractedMemories{UserMemory: "X is a PM"}, false},
		{"not json", "Sure! Here are the memories.", models.ExtractedMemories{}, true},
		{"wrong type", `{"user_memory": ["a", "b"]}`, models.ExtractedMemories{}, true},
		{"array", `["user_memory"]`, models.ExtractedMemories{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseExtraction(tt.content)
			if tt.wantErr {
				if !errors.Is(err, models.ErrExtractionParse) {
					t.Fatalf("expected ErrExtractionParse, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestExtract_RequestsJSON(t *testing.T) {
	c := &scriptedCompleter{respond: func(req llm.CompletionRequest, call int) (string, error) {
		return `{"user_memory": "User is a Project Manager", "company_memory": ""}`, nil
	}}
	e := NewMemoryExtractor(c, fastPolicy)

	got, err := e.Extract(context.Background(), models.Interaction{Query: "I'm a PM, what's our budget tool?", Answer: "SAP."})
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}
	if got.UserMemory != "User is a Project Manager" || got.CompanyMemory != "" {
		t.Errorf("unexpected memories: %+v", got)
	}

	req := c.calls()[0]
	if !req.JSON {
		t.Error("extraction should request a JSON response")
	}
	if req.Prompt != "User: I'm a PM, what's our budget tool?\nAssistant: SAP." {
		t.Errorf("unexpected prompt: %q", req.Prompt)
	}
}

func TestExtract_MalformedIsEmpty(t *testing.T) {
	c := &scriptedCompleter{respond: func(req llm.CompletionRequest, call int) (string, error) {
		return "not json at all", nil
	}}
	e := NewMemoryExtractor(c, fastPolicy)

	got, err := e.Extract(context.Background(), models.Interaction{Query: "q", Answer: "a"})
	if err != nil {
		t.Fatalf("malformed output should not error: %v", err)
	}
	if len(got.Entries()) != 0 {
		t.Errorf("expected no memories, got %+v", got)
	}
	if len(c.calls()) != 1 {
		t.Errorf("parse failures are not retried, got %d calls", len(c.calls()))
	}
}

func TestExtract_RetriesTransient(t *testing.T) {
	c := &scriptedCompleter{respond: func(req llm.CompletionRequest, call int) (string, error) {
		if call == 1 {
			return "", rateLimited()
		}
		return `{"company_memory": "Project Finance uses tool X"}`, nil
	}}
	e := NewMemoryExtractor(c, fastPolicy)

	got, err := e.Extract(context.Background(), models.Interaction{Query: "q", Answer: "a"})
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}
	if got.CompanyMemory != "Project Finance uses tool X" {
		t.Errorf("unexpected memories: %+v", got)
	}
}

func TestExtract_ServiceFailure(t *testing.T) {
	c := &scriptedCompleter{respond: func(req llm.CompletionRequest, call int) (string, error) {
		return "", unauthorized()
	}}
	e := NewMemoryExtractor(c, fastPolicy)

	if _, err := e.Extract(context.Background(), models.Interaction{Query: "q", Answer: "a"}); err == nil {
		t.Fatal("expected service failure to be returned")
	}
}
