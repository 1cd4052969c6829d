// Package openrouter provides the hosted-API adapter. It speaks the
// OpenAI-compatible chat completions endpoint and requires a bearer
// credential.
package openrouter

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"chatgate/internal/core"
	"chatgate/internal/llmclient"
)

const (
	defaultBaseURL = "https://openrouter.ai/api/v1"

	// defaultModel differs from the local adapter's default; the two model
	// identifier namespaces are unrelated.
	defaultModel = "meta-llama/llama-3.1-8b-instruct:free"

	// maxTokens caps completion length on the hosted API.
	maxTokens = 1024

	// tokenPacing is the inter-token delay used when emulating streaming
	// from a complete response.
	tokenPacing = 30 * time.Millisecond
)

// Provider implements the core.Provider interface for the hosted API.
type Provider struct {
	client *llmclient.Client
	apiKey string
}

// Config holds the adapter configuration.
type Config struct {
	// APIKey is the bearer credential. An empty key makes every call fail
	// with a configuration error before any network I/O.
	APIKey string

	// BaseURL overrides the hosted endpoint, mainly for tests.
	BaseURL string

	// HTTPClient overrides the pooled default, mainly for tests.
	HTTPClient *http.Client
}

// New creates the remote adapter.
func New(cfg Config) *Provider {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	p := &Provider{apiKey: cfg.APIKey}
	p.client = llmclient.NewWithHTTPClient(cfg.HTTPClient, llmclient.Config{
		ProviderName: core.ProviderRemote,
		BaseURL:      baseURL,
	}, p.setHeaders)
	return p
}

// Name returns the provider identifier used in requests and cache keys.
func (p *Provider) Name() string {
	return core.ProviderRemote
}

func (p *Provider) setHeaders(req *http.Request) {
	req.Header.Set("Authorization", "Bearer "+p.apiKey)
	if requestID := core.GetRequestID(req.Context()); requestID != "" {
		req.Header.Set("X-Request-ID", requestID)
	}
}

type chatRequest struct {
	Model       string         `json:"model"`
	Messages    []core.Message `json:"messages"`
	Temperature float64        `json:"temperature"`
	MaxTokens   int            `json:"max_tokens"`
}

type chatResponse struct {
	ID      string `json:"id"`
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

func resolveModel(model string) string {
	if model != "" {
		return model
	}
	return defaultModel
}

// Complete sends a single-shot chat completion to the hosted API. A missing
// credential is a configuration error, not a retryable failure; transport and
// non-success-status failures surface to the caller without retry.
func (p *Provider) Complete(ctx context.Context, messages []core.Message, model string, temperature float64) (*core.ChatResponse, error) {
	if p.apiKey == "" {
		return nil, core.NewConfigurationError(core.ProviderRemote, "remote provider credential is not configured")
	}

	var resp chatResponse
	err := p.client.Do(ctx, llmclient.Request{
		Method:   http.MethodPost,
		Endpoint: "/chat/completions",
		Body: chatRequest{
			Model:       resolveModel(model),
			Messages:    messages,
			Temperature: temperature,
			MaxTokens:   maxTokens,
		},
	}, &resp)
	if err != nil {
		return nil, err
	}

	if len(resp.Choices) == 0 {
		return nil, core.NewProviderError(core.ProviderRemote, http.StatusBadGateway, "response contained no choices", nil)
	}

	id := resp.ID
	if id == "" {
		id = uuid.NewString()
	}
	return &core.ChatResponse{
		ID:       id,
		Response: resp.Choices[0].Message.Content,
	}, nil
}

// Stream emulates incremental delivery: it performs one full completion, then
// re-segments the text into whitespace-delimited tokens emitted with a small
// fixed pacing delay, terminated by an explicit done chunk. A failed
// completion emits a single error chunk instead.
func (p *Provider) Stream(ctx context.Context, messages []core.Message, model string, temperature float64) <-chan core.StreamChunk {
	out := make(chan core.StreamChunk)

	go func() {
		defer close(out)

		resp, err := p.Complete(ctx, messages, model, temperature)
		if err != nil {
			emit(ctx, out, core.ErrorChunk(err.Error()))
			return
		}

		words := strings.Fields(resp.Response)
		for i, word := range words {
			token := word
			if i < len(words)-1 {
				token += " "
			}
			if !emit(ctx, out, core.TokenChunk(token)) {
				return
			}
			select {
			case <-time.After(tokenPacing):
			case <-ctx.Done():
				return
			}
		}
		emit(ctx, out, core.DoneChunk())
	}()

	return out
}

func emit(ctx context.Context, out chan<- core.StreamChunk, chunk core.StreamChunk) bool {
	select {
	case out <- chunk:
		return true
	case <-ctx.Done():
		return false
	}
}
