// Package dispatch contains the orchestrator that turns a validated chat
// request into a response: message assembly, cache probe, provider selection,
// cross-provider fallback, and streaming relay.
package dispatch

import (
	"context"
	"log/slog"

	"chatgate/internal/cache"
	"chatgate/internal/core"
	"chatgate/internal/observability"
	"chatgate/internal/prompt"
	"chatgate/internal/providers"
)

// Delivery mode labels used in metrics.
const (
	modeSingle = "single"
	modeStream = "stream"
)

// Dispatcher owns the response cache and the provider registry. It is the
// explicit context object constructed once at process start; there is no
// ambient global state.
type Dispatcher struct {
	registry *providers.Registry
	cache    cache.Cache
	metrics  *observability.Metrics
}

// New creates a dispatcher. metrics may be nil.
func New(registry *providers.Registry, responseCache cache.Cache, metrics *observability.Metrics) *Dispatcher {
	return &Dispatcher{
		registry: registry,
		cache:    responseCache,
		metrics:  metrics,
	}
}

// Chat handles a single-shot request: build messages, probe the cache,
// dispatch to the matching provider, fall back from local to remote on
// failure, and fill the cache under the original key so a later identical
// local request is served the remote-derived answer.
func (d *Dispatcher) Chat(ctx context.Context, req *core.ChatRequest) (*core.ChatResponse, error) {
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}

	temperature := *req.Temperature
	d.metrics.Request(req.Provider, modeSingle)

	key := cache.Key(req.Provider, req.Model, req.Message, temperature)
	if entry, err := d.cache.Get(ctx, key); err != nil {
		// A broken cache backend degrades to a miss; the request still runs.
		slog.Warn("cache lookup failed", "error", err)
	} else if entry != nil {
		d.metrics.CacheHit()
		return &core.ChatResponse{ID: entry.ID, Response: entry.Response}, nil
	}

	messages := prompt.Build(req.Message, req.SystemPrompt, req.Conversation)

	provider := d.registry.Get(req.Provider)
	if provider == nil {
		return nil, core.NewValidationError("unknown provider: "+req.Provider, nil)
	}

	resp, err := provider.Complete(ctx, messages, req.Model, temperature)
	if err != nil && req.Provider == core.ProviderLocal {
		resp, err = d.fallbackToRemote(ctx, messages, req, temperature, err)
	}
	if err != nil {
		d.metrics.ProviderError(req.Provider)
		return nil, err
	}

	if putErr := d.cache.Put(ctx, key, &cache.Entry{ID: resp.ID, Response: resp.Response}); putErr != nil {
		slog.Warn("cache store failed", "error", putErr)
	}
	return resp, nil
}

// fallbackToRemote retries a failed local single-shot call against the remote
// provider. Model identifier namespaces differ between providers, so the
// local model hint is not forwarded; the remote adapter resolves its own
// default.
func (d *Dispatcher) fallbackToRemote(ctx context.Context, messages []core.Message, req *core.ChatRequest, temperature float64, localErr error) (*core.ChatResponse, error) {
	remote := d.registry.Get(core.ProviderRemote)
	if remote == nil {
		return nil, localErr
	}

	slog.Warn("local provider failed, falling back to remote",
		"error", localErr,
		"dropped_model_hint", req.Model,
		"request_id", core.GetRequestID(ctx),
	)
	d.metrics.Fallback()

	resp, err := remote.Complete(ctx, messages, "", temperature)
	if err != nil {
		// Both providers failed; surface the remote error.
		return nil, err
	}
	return resp, nil
}

// ChatStream handles a streaming request. The cache is never consulted or
// populated, and no cross-provider fallback occurs: streaming callers always
// receive freshly generated content from the provider they named.
func (d *Dispatcher) ChatStream(ctx context.Context, req *core.ChatRequest) <-chan core.StreamChunk {
	req.Normalize()
	if err := req.Validate(); err != nil {
		return errorStream(err)
	}

	d.metrics.Request(req.Provider, modeStream)

	provider := d.registry.Get(req.Provider)
	if provider == nil {
		return errorStream(core.NewValidationError("unknown provider: "+req.Provider, nil))
	}

	messages := prompt.Build(req.Message, req.SystemPrompt, req.Conversation)
	return provider.Stream(ctx, messages, req.Model, *req.Temperature)
}

// errorStream returns an already-terminated stream carrying one error chunk.
func errorStream(err error) <-chan core.StreamChunk {
	out := make(chan core.StreamChunk, 1)
	out <- core.ErrorChunk(err.Error())
	close(out)
	return out
}
