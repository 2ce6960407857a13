package ollama

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/mkorchagin/dishchat/internal/core/domain"
)

func TestEmbedQuery(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/embed" {
			t.Errorf("path = %s", r.URL.Path)
		}
		var req struct {
			Model string   `json:"model"`
			Input []string `json:"input"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if req.Model != "nomic-embed-text" {
			t.Errorf("model = %q", req.Model)
		}
		if len(req.Input) != 1 || req.Input[0] != "any pasta?" {
			t.Errorf("input = %v", req.Input)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"embeddings": [][]float32{{0.1, 0.2, 0.3}},
		})
	}))
	defer server.Close()

	embedder := NewEmbedder(New(server.URL, "llama3.1:8b", "nomic-embed-text", nil))
	vector, err := embedder.EmbedQuery(context.Background(), "any pasta?")
	if err != nil {
		t.Fatalf("embed: %v", err)
	}
	if len(vector) != 3 || vector[0] != 0.1 {
		t.Fatalf("vector = %v", vector)
	}
}

func TestEmbedQueryEmptyResult(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"embeddings": [][]float32{}})
	}))
	defer server.Close()

	embedder := NewEmbedder(New(server.URL, "llama3.1:8b", "nomic-embed-text", nil))
	if _, err := embedder.EmbedQuery(context.Background(), "q"); err == nil {
		t.Fatal("expected error on empty embedding result")
	}
}

func TestCompleteTrimsResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/generate" {
			t.Errorf("path = %s", r.URL.Path)
		}
		var req struct {
			Stream  bool `json:"stream"`
			Options struct {
				Temperature float64 `json:"temperature"`
			} `json:"options"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if req.Stream {
			t.Error("complete must not request a stream")
		}
		if req.Options.Temperature != 0.9 {
			t.Errorf("temperature = %v", req.Options.Temperature)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"response": "  Try the tiramisu.\n"})
	}))
	defer server.Close()

	chat := NewChat(New(server.URL, "llama3.1:8b", "nomic-embed-text", nil))
	answer, err := chat.Complete(context.Background(), "prompt", 0.9)
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if answer != "Try the tiramisu." {
		t.Fatalf("answer = %q", answer)
	}
}

func TestCompleteServerErrorIsTemporary(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "overloaded", http.StatusServiceUnavailable)
	}))
	defer server.Close()

	chat := NewChat(New(server.URL, "llama3.1:8b", "nomic-embed-text", nil))
	_, err := chat.Complete(context.Background(), "prompt", 0.3)
	if err == nil {
		t.Fatal("expected error")
	}
	if !domain.IsKind(err, domain.ErrTemporary) {
		t.Fatalf("err = %v, want ErrTemporary kind", err)
	}
}

func TestStreamCompleteForwardsFragments(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fragments := []string{
			`{"response":"Try ","done":false}`,
			`{"response":"the tiramisu.","done":false}`,
			`{"response":"","done":true}`,
		}
		for _, fragment := range fragments {
			fmt.Fprintln(w, fragment)
		}
	}))
	defer server.Close()

	chat := NewChat(New(server.URL, "llama3.1:8b", "nomic-embed-text", nil))
	chunks, err := chat.StreamComplete(context.Background(), "prompt", 0.3)
	if err != nil {
		t.Fatalf("stream: %v", err)
	}

	var parts []string
	for chunk := range chunks {
		if chunk.Err != nil {
			t.Fatalf("chunk error: %v", chunk.Err)
		}
		parts = append(parts, chunk.Content)
	}
	if got := strings.Join(parts, ""); got != "Try the tiramisu." {
		t.Fatalf("streamed text = %q", got)
	}
}

func TestStreamCompleteMalformedFragment(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprintln(w, `{"response":"ok","done":false}`)
		fmt.Fprintln(w, `{broken`)
	}))
	defer server.Close()

	chat := NewChat(New(server.URL, "llama3.1:8b", "nomic-embed-text", nil))
	chunks, err := chat.StreamComplete(context.Background(), "prompt", 0.3)
	if err != nil {
		t.Fatalf("stream: %v", err)
	}

	var sawContent, sawErr bool
	for chunk := range chunks {
		if chunk.Err != nil {
			sawErr = true
			continue
		}
		sawContent = true
	}
	if !sawContent || !sawErr {
		t.Fatalf("sawContent = %v, sawErr = %v", sawContent, sawErr)
	}
}
