package core

import "context"

// Provider defines the capability interface implemented by every chat
// completion backend. The dispatcher depends only on this interface, so new
// backends can be added without touching dispatch logic.
type Provider interface {
	// Name returns the provider's short identifier ("local", "remote").
	Name() string

	// Complete executes a single-shot chat completion. The model may be
	// empty, in which case the provider resolves its own default.
	Complete(ctx context.Context, messages []Message, model string, temperature float64) (*ChatResponse, error)

	// Stream executes a streaming chat completion. The returned channel is a
	// lazy, finite, non-restartable sequence of chunks closed by the
	// producer; the consumer cancels by cancelling ctx and stopping
	// iteration. A stream ends with either a done chunk, channel closure, or
	// a single error chunk.
	Stream(ctx context.Context, messages []Message, model string, temperature float64) <-chan StreamChunk
}

// TokenVerifier is the boundary to the external credential system. The
// gateway never validates credentials itself; it hands the opaque token to a
// verifier and receives a user identity or a rejection.
type TokenVerifier interface {
	// Verify returns the user ID associated with the token, or an
	// authentication error if the token is rejected.
	Verify(ctx context.Context, token string) (string, error)
}
