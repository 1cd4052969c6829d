// Package ollama provides the local inference adapter, backed by an Ollama
// server's native chat API.
package ollama

import (
	"bufio"
	"context"
	"net/http"

	"github.com/google/uuid"
	"github.com/tidwall/gjson"

	"chatgate/internal/core"
	"chatgate/internal/llmclient"
)

const (
	defaultBaseURL = "http://localhost:11434"

	// fallbackModel is used when neither the request nor configuration names
	// a model.
	fallbackModel = "llama3"

	// Fixed generation parameters sent alongside the caller's temperature.
	numCtx        = 4096
	repeatPenalty = 1.1
	topK          = 40
	topP          = 0.9
)

// Provider implements the core.Provider interface for a local Ollama server.
type Provider struct {
	client       *llmclient.Client
	defaultModel string
}

// Config holds the adapter configuration.
type Config struct {
	// BaseURL of the local server (default http://localhost:11434)
	BaseURL string

	// DefaultModel resolves requests that carry no model. Empty falls back
	// to a hard-coded identifier.
	DefaultModel string

	// HTTPClient overrides the pooled default, mainly for tests.
	HTTPClient *http.Client
}

// New creates the local adapter.
func New(cfg Config) *Provider {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	p := &Provider{defaultModel: cfg.DefaultModel}
	p.client = llmclient.NewWithHTTPClient(cfg.HTTPClient, llmclient.Config{
		ProviderName: core.ProviderLocal,
		BaseURL:      baseURL,
	}, setHeaders)
	return p
}

// Name returns the provider identifier used in requests and cache keys.
func (p *Provider) Name() string {
	return core.ProviderLocal
}

// setHeaders forwards the request ID when present. Ollama needs no
// authentication.
func setHeaders(req *http.Request) {
	if requestID := core.GetRequestID(req.Context()); requestID != "" {
		req.Header.Set("X-Request-ID", requestID)
	}
}

// resolveModel picks the model: caller value, configured default, then the
// hard-coded fallback.
func (p *Provider) resolveModel(model string) string {
	if model != "" {
		return model
	}
	if p.defaultModel != "" {
		return p.defaultModel
	}
	return fallbackModel
}

// chatRequest is the native /api/chat payload.
type chatRequest struct {
	Model    string         `json:"model"`
	Messages []core.Message `json:"messages"`
	Stream   bool           `json:"stream"`
	Options  chatOptions    `json:"options"`
}

type chatOptions struct {
	Temperature   float64 `json:"temperature"`
	NumCtx        int     `json:"num_ctx"`
	RepeatPenalty float64 `json:"repeat_penalty"`
	TopK          int     `json:"top_k"`
	TopP          float64 `json:"top_p"`
}

type chatResponse struct {
	Message struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	} `json:"message"`
	Done bool `json:"done"`
}

func (p *Provider) buildRequest(messages []core.Message, model string, temperature float64, stream bool) chatRequest {
	return chatRequest{
		Model:    p.resolveModel(model),
		Messages: messages,
		Stream:   stream,
		Options: chatOptions{
			Temperature:   temperature,
			NumCtx:        numCtx,
			RepeatPenalty: repeatPenalty,
			TopK:          topK,
			TopP:          topP,
		},
	}
}

// Complete sends a single-shot chat completion to the local server.
func (p *Provider) Complete(ctx context.Context, messages []core.Message, model string, temperature float64) (*core.ChatResponse, error) {
	var resp chatResponse
	err := p.client.Do(ctx, llmclient.Request{
		Method:   http.MethodPost,
		Endpoint: "/api/chat",
		Body:     p.buildRequest(messages, model, temperature, false),
	}, &resp)
	if err != nil {
		return nil, err
	}
	return &core.ChatResponse{
		ID:       uuid.NewString(),
		Response: resp.Message.Content,
	}, nil
}

// Stream sends the same call in incremental mode and emits one token chunk
// per parsed NDJSON fragment. Malformed fragments are skipped without
// surfacing an error, tolerating partial or interleaved network reads. A
// network-level failure emits a single error chunk. The terminal done marker
// is implicit in channel closure.
func (p *Provider) Stream(ctx context.Context, messages []core.Message, model string, temperature float64) <-chan core.StreamChunk {
	out := make(chan core.StreamChunk)

	go func() {
		defer close(out)

		body, err := p.client.DoStream(ctx, llmclient.Request{
			Method:   http.MethodPost,
			Endpoint: "/api/chat",
			Body:     p.buildRequest(messages, model, temperature, true),
			Headers:  map[string]string{"Accept": "application/x-ndjson"},
		})
		if err != nil {
			emit(ctx, out, core.ErrorChunk(err.Error()))
			return
		}
		defer func() {
			_ = body.Close()
		}()

		scanner := bufio.NewScanner(body)
		scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
		for scanner.Scan() {
			line := scanner.Bytes()
			if len(line) == 0 || !gjson.ValidBytes(line) {
				continue
			}
			if content := gjson.GetBytes(line, "message.content"); content.Exists() && content.String() != "" {
				if !emit(ctx, out, core.TokenChunk(content.String())) {
					return
				}
			}
			if gjson.GetBytes(line, "done").Bool() {
				return
			}
		}
		if err := scanner.Err(); err != nil {
			emit(ctx, out, core.ErrorChunk("stream interrupted: "+err.Error()))
		}
	}()

	return out
}

// emit delivers a chunk unless the consumer has gone away.
func emit(ctx context.Context, out chan<- core.StreamChunk, chunk core.StreamChunk) bool {
	select {
	case out <- chunk:
		return true
	case <-ctx.Done():
		return false
	}
}

// modelsResponse is the native /api/tags payload.
type modelsResponse struct {
	Models []InstalledModel `json:"models"`
}

// InstalledModel is one locally installed model as reported by /api/tags.
type InstalledModel struct {
	Name string `json:"name"`
	Size int64  `json:"size"`
	Details struct {
		Family        string `json:"family"`
		ParameterSize string `json:"parameter_size"`
	} `json:"details"`
}

// ListInstalled enumerates models installed on the local server.
func (p *Provider) ListInstalled(ctx context.Context) ([]InstalledModel, error) {
	var resp modelsResponse
	err := p.client.Do(ctx, llmclient.Request{
		Method:   http.MethodGet,
		Endpoint: "/api/tags",
	}, &resp)
	if err != nil {
		return nil, err
	}
	return resp.Models, nil
}
