package qdrant

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mkorchagin/dishchat/internal/core/domain"
)

// Client talks to the qdrant HTTP API. One collection holds the whole
// corpus; full-text retrieval runs over the textContent payload field, so
// the collection also carries a text payload index.
type Client struct {
	baseURL    string
	collection string
	httpClient *http.Client

	ensureMu          sync.Mutex
	ensuredCollection bool
	ensuredVectorSize int
}

func New(baseURL, collection string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		collection: collection,
		httpClient: &http.Client{Timeout: 60 * time.Second},
	}
}

func (c *Client) IndexItem(ctx context.Context, item domain.FoodItem, vector []float32) error {
	if len(vector) == 0 {
		return fmt.Errorf("empty item vector")
	}
	if err := c.ensureCollection(ctx, len(vector)); err != nil {
		return err
	}

	content, err := item.PayloadJSON()
	if err != nil {
		return fmt.Errorf("render item payload: %w", err)
	}

	reqBody := map[string]any{
		"points": []map[string]any{{
			"id":     uuid.NewString(),
			"vector": vector,
			"payload": map[string]any{
				"textContent": content,
				"source":      item.Source,
				"name":        item.Name,
				"category":    item.Category,
			},
		}},
	}

	url := fmt.Sprintf("%s/collections/%s/points?wait=true", c.baseURL, c.collection)
	return c.do(ctx, http.MethodPut, url, reqBody, nil, "upsert")
}

func (c *Client) SimilaritySearch(ctx context.Context, queryVector []float32, limit int, scoreThreshold float64) ([]domain.Document, error) {
	reqBody := map[string]any{
		"vector":          queryVector,
		"limit":           limit,
		"with_payload":    true,
		"score_threshold": scoreThreshold,
	}

	var searchResp struct {
		Result []struct {
			Score   float64        `json:"score"`
			Payload map[string]any `json:"payload"`
		} `json:"result"`
	}
	url := fmt.Sprintf("%s/collections/%s/points/search", c.baseURL, c.collection)
	if err := c.do(ctx, http.MethodPost, url, reqBody, &searchResp, "search"); err != nil {
		return nil, err
	}

	out := make([]domain.Document, 0, len(searchResp.Result))
	for _, r := range searchResp.Result {
		out = append(out, documentFromPayload(r.Payload, r.Score))
	}
	return out, nil
}

// FullTextSearch scrolls points whose textContent matches the query text.
// Order is the store's scroll order; scores are not produced.
func (c *Client) FullTextSearch(ctx context.Context, query string, limit int) ([]domain.Document, error) {
	reqBody := map[string]any{
		"filter": map[string]any{
			"must": []map[string]any{{
				"key":   "textContent",
				"match": map[string]any{"text": query},
			}},
		},
		"limit":        limit,
		"with_payload": true,
	}

	var scrollResp struct {
		Result struct {
			Points []struct {
				Payload map[string]any `json:"payload"`
			} `json:"points"`
		} `json:"result"`
	}
	url := fmt.Sprintf("%s/collections/%s/points/scroll", c.baseURL, c.collection)
	if err := c.do(ctx, http.MethodPost, url, reqBody, &scrollResp, "scroll"); err != nil {
		return nil, err
	}

	out := make([]domain.Document, 0, len(scrollResp.Result.Points))
	for _, p := range scrollResp.Result.Points {
		out = append(out, documentFromPayload(p.Payload, 0))
	}
	return out, nil
}

func documentFromPayload(payload map[string]any, score float64) domain.Document {
	return domain.Document{
		Content: getStringPayload(payload, "textContent"),
		Metadata: domain.DocumentMetadata{
			Source: getStringPayload(payload, "source"),
		},
		Score: score,
	}
}

func getStringPayload(payload map[string]any, key string) string {
	v, ok := payload[key]
	if !ok {
		return ""
	}
	s, ok := v.(string)
	if ok {
		return s
	}
	return fmt.Sprintf("%v", v)
}
