package ollama

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/mkorchagin/dishchat/internal/core/domain"
	"github.com/mkorchagin/dishchat/internal/infrastructure/resilience"
)

type Client struct {
	baseURL    string
	chatModel  string
	embedModel string
	httpClient *http.Client
	executor   *resilience.Executor
}

func New(baseURL, chatModel, embedModel string, executor *resilience.Executor) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		chatModel:  chatModel,
		embedModel: embedModel,
		httpClient: &http.Client{Timeout: 120 * time.Second},
		executor:   executor,
	}
}

// Embedder builds vectors for query and item text.
type Embedder struct {
	client *Client
}

func NewEmbedder(client *Client) *Embedder {
	return &Embedder{client: client}
}

func (e *Embedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	request := map[string]any{
		"model": e.client.embedModel,
		"input": []string{text},
	}

	var response struct {
		Embeddings [][]float32 `json:"embeddings"`
	}
	err := e.client.execute(ctx, "ollama.embed", func(callCtx context.Context) error {
		return e.client.postJSON(callCtx, "/api/embed", request, &response, "embed")
	})
	if err != nil {
		return nil, wrapTemporaryIfNeeded("ollama.embed", err)
	}
	if len(response.Embeddings) == 0 {
		return nil, fmt.Errorf("empty embedding result")
	}
	return response.Embeddings[0], nil
}

// Chat generates answer text, either materialized or streamed.
type Chat struct {
	client *Client
}

func NewChat(client *Client) *Chat {
	return &Chat{client: client}
}

func (c *Chat) Complete(ctx context.Context, prompt string, temperature float64) (string, error) {
	request := map[string]any{
		"model":  c.client.chatModel,
		"prompt": prompt,
		"stream": false,
		"options": map[string]any{
			"temperature": temperature,
		},
	}

	var response struct {
		Response string `json:"response"`
	}
	err := c.client.execute(ctx, "ollama.generate", func(callCtx context.Context) error {
		return c.client.postJSON(callCtx, "/api/generate", request, &response, "generate")
	})
	if err != nil {
		return "", wrapTemporaryIfNeeded("ollama.generate", err)
	}
	return strings.TrimSpace(response.Response), nil
}

// StreamComplete issues a streaming generate call and forwards each
// provider fragment as-is. The returned channel is closed after the final
// fragment; a read failure arrives as one terminal chunk with Err set.
// Streamed requests are not retried: fragments may already be delivered.
func (c *Chat) StreamComplete(ctx context.Context, prompt string, temperature float64) (<-chan domain.GenerationChunk, error) {
	request := map[string]any{
		"model":  c.client.chatModel,
		"prompt": prompt,
		"stream": true,
		"options": map[string]any{
			"temperature": temperature,
		},
	}

	resp, err := c.client.postStream(ctx, "/api/generate", request, "generate stream")
	if err != nil {
		return nil, wrapTemporaryIfNeeded("ollama.generate_stream", err)
	}

	chunks := make(chan domain.GenerationChunk)
	go func() {
		defer close(chunks)
		defer resp.Body.Close()

		scanner := bufio.NewScanner(resp.Body)
		scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
		for scanner.Scan() {
			line := strings.TrimSpace(scanner.Text())
			if line == "" {
				continue
			}

			var fragment struct {
				Response string `json:"response"`
				Done     bool   `json:"done"`
			}
			if err := json.Unmarshal([]byte(line), &fragment); err != nil {
				sendChunk(ctx, chunks, domain.GenerationChunk{Err: fmt.Errorf("decode stream fragment: %w", err)})
				return
			}
			if fragment.Response != "" {
				if !sendChunk(ctx, chunks, domain.GenerationChunk{Content: fragment.Response}) {
					return
				}
			}
			if fragment.Done {
				return
			}
		}
		if err := scanner.Err(); err != nil {
			sendChunk(ctx, chunks, domain.GenerationChunk{Err: fmt.Errorf("read stream: %w", err)})
		}
	}()

	return chunks, nil
}

func sendChunk(ctx context.Context, chunks chan<- domain.GenerationChunk, chunk domain.GenerationChunk) bool {
	select {
	case chunks <- chunk:
		return true
	case <-ctx.Done():
		return false
	}
}

func (c *Client) execute(ctx context.Context, operation string, fn func(context.Context) error) error {
	if c.executor == nil {
		return fn(ctx)
	}
	return c.executor.Execute(ctx, operation, fn, classifyOllamaError)
}
