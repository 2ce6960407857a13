package domain

import "encoding/json"

// DocumentMetadata carries provenance of a stored document.
type DocumentMetadata struct {
	Source string `json:"source"`
}

// Document is one ranked search hit from the document store. Content holds
// the item payload as a JSON string, the shape FoodItem.PayloadJSON writes.
type Document struct {
	Content  string           `json:"content"`
	Metadata DocumentMetadata `json:"metadata"`
	Score    float64          `json:"score,omitempty"`
}

// FoodItem is one entry of the ingested menu corpus. Source records the
// file the item was loaded from.
type FoodItem struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Price       string `json:"price"`
	Category    string `json:"category"`
	Source      string `json:"source,omitempty"`
}

// PayloadJSON renders the searchable text content of the item. Both the
// indexer and the embedder derive their input from this form so stored
// vectors always match stored text.
func (i FoodItem) PayloadJSON() (string, error) {
	payload := struct {
		Name        string `json:"name"`
		Description string `json:"description"`
		Price       string `json:"price"`
		Category    string `json:"category"`
	}{i.Name, i.Description, i.Price, i.Category}

	raw, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}
