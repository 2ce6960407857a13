package httpadapter

import (
	"encoding/json"
	"net/http"

	"github.com/mkorchagin/dishchat/internal/core/domain"
)

// writeNDJSONStream drains the event channel onto the wire, one JSON
// line per delta, flushing after every line so clients see fragments
// as they arrive. The stream either ends cleanly or with exactly one
// terminal {"error": ...} line. Returns the number of delta lines
// written.
func writeNDJSONStream(w http.ResponseWriter, events <-chan domain.StreamEvent) int {
	w.Header().Set("Content-Type", "application/x-ndjson")
	w.WriteHeader(http.StatusOK)

	flusher, _ := w.(http.Flusher)
	encoder := json.NewEncoder(w)

	written := 0
	for event := range events {
		if event.Err != nil {
			_ = encoder.Encode(map[string]string{"error": event.Err.Error()})
			if flusher != nil {
				flusher.Flush()
			}
			return written
		}
		if event.Delta == nil {
			continue
		}
		if err := encoder.Encode(event.Delta); err != nil {
			// Client is gone; the orchestrator notices via context
			// cancellation and stops producing.
			return written
		}
		written++
		if flusher != nil {
			flusher.Flush()
		}
	}
	return written
}
