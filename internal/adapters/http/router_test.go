package httpadapter

import (
	"bufio"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/mkorchagin/dishchat/internal/core/domain"
)

type fakeChatService struct {
	lastMode string
	lastOpts domain.ChatOptions

	response *domain.RetrievalResponse
	err      error

	streamEvents []domain.StreamEvent
	streamErr    error
}

func (f *fakeChatService) RunVector(_ context.Context, _ []domain.Message, opts domain.ChatOptions) (*domain.RetrievalResponse, error) {
	f.lastMode = domain.ModeVector
	f.lastOpts = opts
	return f.response, f.err
}

func (f *fakeChatService) RunKeyword(_ context.Context, _ []domain.Message, opts domain.ChatOptions) (*domain.RetrievalResponse, error) {
	f.lastMode = domain.ModeKeyword
	f.lastOpts = opts
	return f.response, f.err
}

func (f *fakeChatService) RunRAG(_ context.Context, _ []domain.Message, opts domain.ChatOptions) (*domain.RetrievalResponse, error) {
	f.lastMode = domain.ModeRAG
	f.lastOpts = opts
	return f.response, f.err
}

func (f *fakeChatService) RunRAGStream(_ context.Context, _ []domain.Message, opts domain.ChatOptions) (<-chan domain.StreamEvent, error) {
	f.lastMode = domain.ModeRAG
	f.lastOpts = opts
	if f.streamErr != nil {
		return nil, f.streamErr
	}
	events := make(chan domain.StreamEvent, len(f.streamEvents))
	for _, event := range f.streamEvents {
		events <- event
	}
	close(events)
	return events, nil
}

func testResponse() *domain.RetrievalResponse {
	return &domain.RetrievalResponse{
		Context:      domain.PlaceholderContext(),
		Message:      domain.NewMessage("hi there", domain.RoleAssistant),
		SessionState: "session-1",
	}
}

func postChat(t *testing.T, handler http.Handler, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestChatDefaultsToVectorMode(t *testing.T) {
	svc := &fakeChatService{response: testResponse()}
	handler := NewRouter(svc, nil, "api", "").Handler()

	rec := postChat(t, handler, "/chat", `{"messages":[{"content":"what desserts do you have?","role":"user"}]}`)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	if svc.lastMode != domain.ModeVector {
		t.Fatalf("mode = %q, want vector", svc.lastMode)
	}
	if svc.lastOpts.Temperature != 0.3 || svc.lastOpts.Limit != 3 || svc.lastOpts.ScoreThreshold != 0.5 {
		t.Fatalf("default options = %+v", svc.lastOpts)
	}

	var payload struct {
		SessionState string `json:"session_state"`
		Message      struct {
			Content *string `json:"content"`
			Role    string  `json:"role"`
		} `json:"message"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if payload.SessionState != "session-1" {
		t.Fatalf("session_state = %q", payload.SessionState)
	}
	if payload.Message.Content == nil || *payload.Message.Content != "hi there" {
		t.Fatalf("message = %+v", payload.Message)
	}
}

func TestChatHonorsOverrides(t *testing.T) {
	svc := &fakeChatService{response: testResponse()}
	handler := NewRouter(svc, nil, "api", "").Handler()

	body := `{
		"messages":[{"content":"spicy mains","role":"user"}],
		"sessionState":"existing",
		"context":{"overrides":{"retrieval_mode":"rag","temperature":0.9,"top":5,"score_threshold":0.2}}
	}`
	rec := postChat(t, handler, "/chat", body)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	if svc.lastMode != domain.ModeRAG {
		t.Fatalf("mode = %q, want rag", svc.lastMode)
	}
	want := domain.ChatOptions{SessionState: "existing", Temperature: 0.9, Limit: 5, ScoreThreshold: 0.2}
	if svc.lastOpts != want {
		t.Fatalf("options = %+v, want %+v", svc.lastOpts, want)
	}
}

func TestChatUnknownModeNotImplemented(t *testing.T) {
	svc := &fakeChatService{response: testResponse()}
	handler := NewRouter(svc, nil, "api", "").Handler()

	body := `{"messages":[{"content":"hi","role":"user"}],"context":{"overrides":{"retrieval_mode":"graph"}}}`
	rec := postChat(t, handler, "/chat", body)

	if rec.Code != http.StatusNotImplemented {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "Not Implemented!") {
		t.Fatalf("body = %s", rec.Body.String())
	}
}

func TestChatRejectsNonJSONContentType(t *testing.T) {
	svc := &fakeChatService{response: testResponse()}
	handler := NewRouter(svc, nil, "api", "").Handler()

	req := httptest.NewRequest(http.MethodPost, "/chat", strings.NewReader("messages=hi"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnsupportedMediaType {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestChatRejectsEmptyMessages(t *testing.T) {
	svc := &fakeChatService{response: testResponse()}
	handler := NewRouter(svc, nil, "api", "").Handler()

	rec := postChat(t, handler, "/chat", `{"messages":[]}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestChatMapsDomainErrors(t *testing.T) {
	svc := &fakeChatService{err: domain.WrapError(domain.ErrEmptyConversation, "run vector", domain.ErrEmptyConversation)}
	handler := NewRouter(svc, nil, "api", "").Handler()

	rec := postChat(t, handler, "/chat", `{"messages":[{"content":"hi","role":"user"}]}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestChatStreamRequiresRAGMode(t *testing.T) {
	svc := &fakeChatService{}
	handler := NewRouter(svc, nil, "api", "").Handler()

	rec := postChat(t, handler, "/chat/stream", `{"messages":[{"content":"hi","role":"user"}]}`)
	if rec.Code != http.StatusNotImplemented {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "Not Implemented!") {
		t.Fatalf("body = %s", rec.Body.String())
	}
}

func TestChatStreamWritesNDJSONLines(t *testing.T) {
	ctx := domain.PlaceholderContext()
	session := "session-1"
	first := "Our "
	second := "best dish"

	svc := &fakeChatService{streamEvents: []domain.StreamEvent{
		{Delta: &domain.RetrievalResponseDelta{Context: &ctx, SessionState: &session}},
		{Delta: &domain.RetrievalResponseDelta{Delta: &domain.Message{Content: &first, Role: domain.RoleAssistant}}},
		{Delta: &domain.RetrievalResponseDelta{Delta: &domain.Message{Content: &second, Role: domain.RoleAssistant}}},
	}}
	handler := NewRouter(svc, nil, "api", "").Handler()

	body := `{"messages":[{"content":"hi","role":"user"}],"context":{"overrides":{"retrieval_mode":"rag"}}}`
	rec := postChat(t, handler, "/chat/stream", body)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	if got := rec.Header().Get("Content-Type"); got != "application/x-ndjson" {
		t.Fatalf("content type = %q", got)
	}

	scanner := bufio.NewScanner(rec.Body)
	var lines []string
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	if len(lines) != 3 {
		t.Fatalf("lines = %d: %v", len(lines), lines)
	}

	var head struct {
		SessionState *string `json:"session_state"`
	}
	if err := json.Unmarshal([]byte(lines[0]), &head); err != nil {
		t.Fatalf("decode first line: %v", err)
	}
	if head.SessionState == nil || *head.SessionState != "session-1" {
		t.Fatalf("first line session_state = %v", head.SessionState)
	}
}

func TestChatStreamTerminalErrorLine(t *testing.T) {
	first := "partial"
	svc := &fakeChatService{streamEvents: []domain.StreamEvent{
		{Delta: &domain.RetrievalResponseDelta{Delta: &domain.Message{Content: &first, Role: domain.RoleAssistant}}},
		{Err: domain.WrapError(domain.ErrTemporary, "generate", context.DeadlineExceeded)},
	}}
	handler := NewRouter(svc, nil, "api", "").Handler()

	body := `{"messages":[{"content":"hi","role":"user"}],"context":{"overrides":{"retrieval_mode":"rag"}}}`
	rec := postChat(t, handler, "/chat/stream", body)

	scanner := bufio.NewScanner(rec.Body)
	var lines []string
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	if len(lines) != 2 {
		t.Fatalf("lines = %d: %v", len(lines), lines)
	}

	var last struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal([]byte(lines[1]), &last); err != nil {
		t.Fatalf("decode terminal line: %v", err)
	}
	if last.Error == "" {
		t.Fatal("terminal line has no error")
	}
}

func TestHelloEndpoint(t *testing.T) {
	handler := NewRouter(&fakeChatService{}, nil, "api", "").Handler()

	req := httptest.NewRequest(http.MethodGet, "/hello", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "Hello, World!") {
		t.Fatalf("body = %s", rec.Body.String())
	}
}
