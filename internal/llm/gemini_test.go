// ABOUTME: Tests for the Gemini adapter against a local HTTP server
// ABOUTME: Verifies task types, batching, JSON mode, generation settings, and API error mapping
package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/harper/recall/internal/models"
)

func newTestGemini(t *testing.T, handler http.HandlerFunc) *GeminiClient {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := NewGeminiClient(context.Background(), GeminiConfig{
		APIKey:   "test-key",
		Endpoint: server.URL + "/",
	})
	if err != nil {
		t.Fatalf("NewGeminiClient failed: %v", err)
	}
	return client
}

type batchRequest struct {
	Requests []struct {
		Model    string `json:"model"`
		TaskType string `json:"taskType"`
		Content  struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
	} `json:"requests"`
}

func TestNewGeminiClient_RequiresKey(t *testing.T) {
	_, err := NewGeminiClient(context.Background(), GeminiConfig{})
	var cfgErr *models.ConfigurationError
	if !errors.As(err, &cfgErr) || cfgErr.Setting != "GOOGLE_API_KEY" {
		t.Errorf("expected ConfigurationError for GOOGLE_API_KEY, got %v", err)
	}
}

func TestGeminiClient_EmbedTaskTypes(t *testing.T) {
	var mu sync.Mutex
	var taskTypes []string

	client := newTestGemini(t, func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "models/gemini-embedding-001:batchEmbedContents") {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		var req batchRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		mu.Lock()
		for _, rr := range req.Requests {
			taskTypes = append(taskTypes, rr.TaskType)
		}
		mu.Unlock()

		w.Header().Set("Content-Type", "application/json")
		var b strings.Builder
		b.WriteString(`{"embeddings":[`)
		for i := range req.Requests {
			if i > 0 {
				b.WriteString(",")
			}
			fmt.Fprintf(&b, `{"values":[%d,0.5]}`, i)
		}
		b.WriteString(`]}`)
		_, _ = w.Write([]byte(b.String()))
	})

	docs, err := client.Embed(context.Background(), []string{"a", "b"}, ModeDocument)
	if err != nil {
		t.Fatalf("document Embed failed: %v", err)
	}
	if len(docs) != 2 || docs[1][0] != 1 {
		t.Errorf("unexpected document vectors %v", docs)
	}

	if _, err := client.Embed(context.Background(), []string{"q"}, ModeQuery); err != nil {
		t.Fatalf("query Embed failed: %v", err)
	}

	want := []string{"RETRIEVAL_DOCUMENT", "RETRIEVAL_DOCUMENT", "RETRIEVAL_QUERY"}
	if strings.Join(taskTypes, ",") != strings.Join(want, ",") {
		t.Errorf("task types = %v, want %v", taskTypes, want)
	}
}

func TestGeminiClient_EmbedBatchesOfHundred(t *testing.T) {
	var calls int
	client := newTestGemini(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		var req batchRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if len(req.Requests) > geminiMaxBatch {
			t.Errorf("batch of %d exceeds limit", len(req.Requests))
		}
		var b strings.Builder
		b.WriteString(`{"embeddings":[`)
		for i := range req.Requests {
			if i > 0 {
				b.WriteString(",")
			}
			b.WriteString(`{"values":[1]}`)
		}
		b.WriteString(`]}`)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(b.String()))
	})

	texts := make([]string, 250)
	for i := range texts {
		texts[i] = fmt.Sprintf("chunk %d", i)
	}
	vectors, err := client.Embed(context.Background(), texts, ModeDocument)
	if err != nil {
		t.Fatalf("Embed failed: %v", err)
	}
	if len(vectors) != 250 {
		t.Errorf("got %d vectors, want 250", len(vectors))
	}
	if calls != 3 {
		t.Errorf("made %d calls, want 3", calls)
	}
}

func TestGeminiClient_CompleteJSON(t *testing.T) {
	client := newTestGemini(t, func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, ":generateContent") {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		var req struct {
			GenerationConfig *struct {
				ResponseMimeType string   `json:"responseMimeType"`
				Temperature      *float32 `json:"temperature"`
				MaxOutputTokens  int      `json:"maxOutputTokens"`
			} `json:"generationConfig"`
			SystemInstruction *struct {
				Parts []struct {
					Text string `json:"text"`
				} `json:"parts"`
			} `json:"systemInstruction"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if req.GenerationConfig == nil || req.GenerationConfig.ResponseMimeType != "application/json" {
			t.Error("expected JSON response mime type")
		}
		if req.GenerationConfig != nil {
			if req.GenerationConfig.Temperature == nil || *req.GenerationConfig.Temperature != 0.2 {
				t.Errorf("temperature = %v, want 0.2", req.GenerationConfig.Temperature)
			}
			if req.GenerationConfig.MaxOutputTokens != 512 {
				t.Errorf("maxOutputTokens = %d, want 512", req.GenerationConfig.MaxOutputTokens)
			}
		}
		if req.SystemInstruction == nil || req.SystemInstruction.Parts[0].Text != "sys" {
			t.Error("expected system instruction")
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"candidates":[{"content":{"role":"model","parts":[{"text":"{\"user_memory\":"},{"text":"\"\"}"}]}}]}`))
	})

	out, err := client.Complete(context.Background(), CompletionRequest{
		System: "sys", Prompt: "analyze", JSON: true, Temperature: 0.2, MaxTokens: 512,
	})
	if err != nil {
		t.Fatalf("Complete failed: %v", err)
	}
	if out != `{"user_memory":""}` {
		t.Errorf("Complete = %q", out)
	}
}

func TestGeminiClient_NoCandidates(t *testing.T) {
	client := newTestGemini(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"candidates":[],"promptFeedback":{"blockReason":"SAFETY"}}`))
	})

	_, err := client.Complete(context.Background(), CompletionRequest{Prompt: "hi"})
	if err == nil || !strings.Contains(err.Error(), "SAFETY") {
		t.Errorf("expected blocked error, got %v", err)
	}
}

func TestGeminiClient_ErrorClassification(t *testing.T) {
	tests := []struct {
		status    int
		transient bool
	}{
		{http.StatusTooManyRequests, true},
		{http.StatusServiceUnavailable, true},
		{http.StatusForbidden, false},
		{http.StatusBadRequest, false},
	}

	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			client := newTestGemini(t, func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(tt.status)
				fmt.Fprintf(w, `{"error":{"code":%d,"message":"nope","status":"TEST"}}`, tt.status)
			})

			_, err := client.Embed(context.Background(), []string{"x"}, ModeQuery)
			var svcErr *models.ServiceError
			if !errors.As(err, &svcErr) {
				t.Fatalf("expected ServiceError, got %v", err)
			}
			if svcErr.StatusCode != tt.status {
				t.Errorf("StatusCode = %d, want %d", svcErr.StatusCode, tt.status)
			}
			if models.IsTransient(err) != tt.transient {
				t.Errorf("IsTransient = %v, want %v", models.IsTransient(err), tt.transient)
			}
		})
	}
}
