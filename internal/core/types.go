package core

import "fmt"

// Provider names accepted in a ChatRequest.
const (
	ProviderLocal  = "local"
	ProviderRemote = "remote"
)

// Message roles.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Temperature bounds and default applied during validation.
const (
	MinTemperature     = 0.0
	MaxTemperature     = 2.0
	DefaultTemperature = 0.7
)

// ChatRequest represents the incoming chat request. It is constructed once per
// inbound call by the HTTP layer and not mutated afterwards.
type ChatRequest struct {
	Message      string     `json:"message"`
	Provider     string     `json:"provider,omitempty"`
	Model        string     `json:"model,omitempty"`
	SystemPrompt string     `json:"systemPrompt,omitempty"`
	Conversation []ChatTurn `json:"conversation,omitempty"`
	Temperature  *float64   `json:"temperature,omitempty"`
}

// ChatTurn is a single prior exchange entry in the request's conversation history.
type ChatTurn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Normalize fills in defaults for optional fields. It must be called before
// Validate so that defaulted values are covered by the same checks.
func (r *ChatRequest) Normalize() {
	if r.Provider == "" {
		r.Provider = ProviderLocal
	}
	if r.Temperature == nil {
		t := DefaultTemperature
		r.Temperature = &t
	}
}

// Validate checks the request against the schema constraints. It returns a
// GatewayError of type invalid_request so the HTTP layer can reject the call
// before any provider is contacted.
func (r *ChatRequest) Validate() error {
	if r.Message == "" {
		return NewValidationError("message is required", nil)
	}
	if r.Provider != ProviderLocal && r.Provider != ProviderRemote {
		return NewValidationError(`provider must be "local" or "remote"`, nil)
	}
	if t := *r.Temperature; t < MinTemperature || t > MaxTemperature {
		return NewValidationError("temperature must be between 0 and 2", nil)
	}
	for i, turn := range r.Conversation {
		if turn.Role != RoleUser && turn.Role != RoleAssistant {
			return NewValidationError(fmt.Sprintf("conversation entry %d has invalid role %q", i, turn.Role), nil)
		}
	}
	return nil
}

// Message is the canonical unit sent to a provider. Ordering is significant:
// system message first, bounded history, then the new user message last.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatResponse is the single-shot completion result returned to callers.
type ChatResponse struct {
	ID       string `json:"id"`
	Response string `json:"response"`
}

// Stream chunk kinds.
const (
	ChunkToken = "token"
	ChunkError = "error"
	ChunkDone  = "done"
)

// StreamChunk is one element of a streaming response. A stream carries any
// number of token chunks followed by either a terminal done chunk or a single
// error chunk, never both.
type StreamChunk struct {
	Type    string `json:"type"`
	Content string `json:"content,omitempty"`
}

// TokenChunk builds a token chunk carrying a text delta.
func TokenChunk(content string) StreamChunk {
	return StreamChunk{Type: ChunkToken, Content: content}
}

// ErrorChunk builds the terminal error chunk for a failed stream.
func ErrorChunk(message string) StreamChunk {
	return StreamChunk{Type: ChunkError, Content: message}
}

// DoneChunk builds the terminal done marker chunk.
func DoneChunk() StreamChunk {
	return StreamChunk{Type: ChunkDone}
}

// ModelInfo describes one catalog entry. Rebuilt fresh on every catalog
// query, never persisted.
type ModelInfo struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	Provider      string `json:"provider"`
	Description   string `json:"description,omitempty"`
	ContextLength int    `json:"contextLength,omitempty"`
	Uncensored    bool   `json:"uncensored"`
}
