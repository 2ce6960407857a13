package usecase

import (
	"encoding/json"

	"github.com/mkorchagin/dishchat/internal/core/domain"
)

// itemPayload mirrors the JSON shape FoodItem.PayloadJSON stores per
// document. Absent keys stay nil so data points keep their null fields.
type itemPayload struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	Price       *string `json:"price"`
	Category    *string `json:"category"`
}

// ContextBuilder converts retrieved documents into a canonical Context.
// Collection is the configured collection name stamped onto every data
// point; it is injected, never derived per document.
type ContextBuilder struct {
	collection string
}

func NewContextBuilder(collection string) *ContextBuilder {
	return &ContextBuilder{collection: collection}
}

// Build parses each document payload into a data point and records the
// provenance of the first document as a thought. Callers must pass a
// non-empty document list; the orchestrator substitutes the placeholder
// context for empty retrievals. A parse failure propagates as
// domain.ErrMalformedDocument: broken stored content is a data defect.
func (b *ContextBuilder) Build(documents []domain.Document) (domain.Context, error) {
	dataPoints := make([]domain.DataPoint, 0, len(documents))
	for _, doc := range documents {
		payload, err := parseItemPayload(doc.Content)
		if err != nil {
			return domain.Context{}, err
		}
		collection := b.collection
		dataPoints = append(dataPoints, domain.DataPoint{
			Name:        payload.Name,
			Description: payload.Description,
			Price:       payload.Price,
			Category:    payload.Category,
			Collection:  &collection,
		})
	}

	title := "Source"
	source := documents[0].Metadata.Source
	thoughts := []domain.Thought{{Title: &title, Description: &source}}

	return domain.Context{DataPoints: dataPoints, Thoughts: thoughts}, nil
}

func parseItemPayload(content string) (itemPayload, error) {
	var payload itemPayload
	if err := json.Unmarshal([]byte(content), &payload); err != nil {
		return itemPayload{}, domain.WrapError(domain.ErrMalformedDocument, "parse document payload", err)
	}
	return payload, nil
}
