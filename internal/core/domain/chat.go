package domain

// Roles carried by chat messages.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleSystem    = "system"
)

// Retrieval modes selectable per request.
const (
	ModeVector  = "vector"
	ModeKeyword = "keyword"
	ModeRAG     = "rag"
)

// Message is one turn of a conversation. Content is nullable on the wire.
type Message struct {
	Content *string `json:"content"`
	Role    string  `json:"role"`
}

func NewMessage(content, role string) Message {
	return Message{Content: &content, Role: role}
}

// Text returns the message content, empty when content is null.
func (m Message) Text() string {
	if m.Content == nil {
		return ""
	}
	return *m.Content
}

// DataPoint is a flattened, display-ready projection of one retrieved
// document. Collection records which backing collection it came from.
type DataPoint struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	Price       *string `json:"price"`
	Category    *string `json:"category"`
	Collection  *string `json:"collection"`
}

// Thought is a diagnostic trace entry exposed for pipeline observability.
type Thought struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
}

// Context aggregates retrieval evidence and diagnostics for one response.
// Thoughts are ordered most-recently-added first.
type Context struct {
	DataPoints []DataPoint `json:"data_points"`
	Thoughts   []Thought   `json:"thoughts"`
}

// PushThought prepends a thought so the newest diagnostic appears on top.
func (c *Context) PushThought(title, description string) {
	c.Thoughts = append([]Thought{{Title: &title, Description: &description}}, c.Thoughts...)
}

// PlaceholderContext is returned when retrieval produced no documents:
// exactly one all-null data point and one all-null thought.
func PlaceholderContext() Context {
	return Context{
		DataPoints: []DataPoint{{}},
		Thoughts:   []Thought{{}},
	}
}

// RetrievalResponse is the canonical single-shot response envelope.
// SessionState is always non-empty.
type RetrievalResponse struct {
	Context      Context `json:"context"`
	Message      Message `json:"message"`
	SessionState string  `json:"session_state"`
}

// RetrievalResponseDelta is one fragment of a streamed response. The first
// fragment of a stream carries Context and SessionState; every subsequent
// fragment carries only Delta.
type RetrievalResponseDelta struct {
	Context      *Context `json:"context"`
	Delta        *Message `json:"delta"`
	SessionState *string  `json:"session_state"`
}

// StreamEvent is one item produced by a streaming chat run. Err is terminal:
// no further events follow it.
type StreamEvent struct {
	Delta *RetrievalResponseDelta
	Err   error
}

// GenerationChunk is one incremental fragment of model-generated text.
// A chunk with Err set terminates the stream.
type GenerationChunk struct {
	Content string
	Err     error
}

// ChatOptions are the per-request retrieval knobs resolved at the boundary.
type ChatOptions struct {
	SessionState   string
	Temperature    float64
	Limit          int
	ScoreThreshold float64
}
