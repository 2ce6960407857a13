package httpadapter

import (
	"strings"

	"github.com/mkorchagin/dishchat/internal/core/domain"
)

const (
	defaultRetrievalMode  = domain.ModeVector
	defaultTemperature    = 0.3
	defaultTop            = 3
	defaultScoreThreshold = 0.5
)

type messagePayload struct {
	Content *string `json:"content"`
	Role    string  `json:"role"`
}

type overridesPayload struct {
	RetrievalMode  *string  `json:"retrieval_mode"`
	Temperature    *float64 `json:"temperature"`
	Top            *int     `json:"top"`
	ScoreThreshold *float64 `json:"score_threshold"`
}

type chatRequest struct {
	Messages     []messagePayload `json:"messages"`
	SessionState *string          `json:"sessionState"`
	Context      struct {
		Overrides overridesPayload `json:"overrides"`
	} `json:"context"`
}

func (req chatRequest) retrievalMode() string {
	if req.Context.Overrides.RetrievalMode == nil {
		return defaultRetrievalMode
	}
	return strings.TrimSpace(*req.Context.Overrides.RetrievalMode)
}

func (req chatRequest) domainMessages() []domain.Message {
	out := make([]domain.Message, 0, len(req.Messages))
	for _, m := range req.Messages {
		out = append(out, domain.Message{Content: m.Content, Role: m.Role})
	}
	return out
}

func (req chatRequest) chatOptions() domain.ChatOptions {
	opts := domain.ChatOptions{
		Temperature:    defaultTemperature,
		Limit:          defaultTop,
		ScoreThreshold: defaultScoreThreshold,
	}
	if req.SessionState != nil {
		opts.SessionState = *req.SessionState
	}
	if req.Context.Overrides.Temperature != nil {
		opts.Temperature = *req.Context.Overrides.Temperature
	}
	if req.Context.Overrides.Top != nil && *req.Context.Overrides.Top > 0 {
		opts.Limit = *req.Context.Overrides.Top
	}
	if req.Context.Overrides.ScoreThreshold != nil {
		opts.ScoreThreshold = *req.Context.Overrides.ScoreThreshold
	}
	return opts
}
