package httpadapter

import (
	"encoding/json"
	"mime"
	"net/http"
	"strings"
	"time"

	"github.com/mkorchagin/dishchat/internal/core/domain"
	"github.com/mkorchagin/dishchat/internal/core/ports"
	"github.com/mkorchagin/dishchat/internal/observability/metrics"
)

const notImplementedMessage = "Not Implemented!"

type Router struct {
	chat      ports.ChatService
	metrics   *metrics.HTTPServerMetrics
	service   string
	staticDir string
}

func NewRouter(chat ports.ChatService, m *metrics.HTTPServerMetrics, service, staticDir string) *Router {
	return &Router{
		chat:      chat,
		metrics:   m,
		service:   service,
		staticDir: staticDir,
	}
}

func (rt *Router) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", rt.healthz)
	mux.HandleFunc("/hello", rt.hello)
	mux.HandleFunc("/chat", rt.chatTurn)
	mux.HandleFunc("/chat/stream", rt.chatStream)
	if rt.metrics != nil {
		mux.Handle("/metrics", rt.metrics.Handler())
	}
	rt.registerStatic(mux)

	var handler http.Handler = mux
	if rt.metrics != nil {
		handler = rt.metrics.Middleware(rt.service, handler)
	}
	return requestIDMiddleware(accessLogMiddleware(handler))
}

func (rt *Router) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (rt *Router) hello(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"answer": "Hello, World!"})
}

func (rt *Router) chatTurn(w http.ResponseWriter, r *http.Request) {
	req, ok := rt.decodeChatRequest(w, r)
	if !ok {
		return
	}

	start := time.Now()
	mode := req.retrievalMode()
	messages := req.domainMessages()
	opts := req.chatOptions()

	var (
		response *domain.RetrievalResponse
		err      error
	)
	switch mode {
	case domain.ModeVector:
		response, err = rt.chat.RunVector(r.Context(), messages, opts)
	case domain.ModeKeyword:
		response, err = rt.chat.RunKeyword(r.Context(), messages, opts)
	case domain.ModeRAG:
		response, err = rt.chat.RunRAG(r.Context(), messages, opts)
	default:
		writeJSON(w, http.StatusNotImplemented, map[string]string{"error": notImplementedMessage})
		return
	}
	if err != nil {
		writeJSON(w, mapErrorToHTTPStatus(err), map[string]string{"error": err.Error()})
		return
	}

	if rt.metrics != nil {
		rt.metrics.RecordChatTurn(rt.service, "/chat", mode, len(response.Context.DataPoints), time.Since(start))
	}
	writeJSON(w, http.StatusOK, response)
}

func (rt *Router) chatStream(w http.ResponseWriter, r *http.Request) {
	req, ok := rt.decodeChatRequest(w, r)
	if !ok {
		return
	}

	if mode := req.retrievalMode(); mode != domain.ModeRAG {
		writeJSON(w, http.StatusNotImplemented, map[string]string{"error": notImplementedMessage})
		return
	}

	events, err := rt.chat.RunRAGStream(r.Context(), req.domainMessages(), req.chatOptions())
	if err != nil {
		writeJSON(w, mapErrorToHTTPStatus(err), map[string]string{"error": err.Error()})
		return
	}

	deltas := writeNDJSONStream(w, events)
	if rt.metrics != nil {
		rt.metrics.RecordStreamDeltas(rt.service, deltas)
	}
}

// decodeChatRequest enforces the shared request contract for both chat
// endpoints: POST only, a JSON content type, a decodable body and at
// least one message.
func (rt *Router) decodeChatRequest(w http.ResponseWriter, r *http.Request) (chatRequest, bool) {
	var req chatRequest

	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return req, false
	}
	if !hasJSONContentType(r) {
		writeJSON(w, http.StatusUnsupportedMediaType, map[string]string{"error": "request must be json"})
		return req, false
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return req, false
	}
	if len(req.Messages) == 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "messages are required"})
		return req, false
	}
	return req, true
}

func hasJSONContentType(r *http.Request) bool {
	contentType := r.Header.Get("Content-Type")
	if contentType == "" {
		return false
	}
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}
	return strings.EqualFold(mediaType, "application/json")
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
