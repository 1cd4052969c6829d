package ollama

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chatgate/internal/core"
)

func testMessages() []core.Message {
	return []core.Message{
		{Role: core.RoleSystem, Content: "You are helpful."},
		{Role: core.RoleUser, Content: "hi"},
	}
}

// collect drains a chunk channel into a slice.
func collect(ch <-chan core.StreamChunk) []core.StreamChunk {
	var chunks []core.StreamChunk
	for chunk := range ch {
		chunks = append(chunks, chunk)
	}
	return chunks
}

func TestComplete(t *testing.T) {
	t.Run("SendsPayloadAndParsesResponse", func(t *testing.T) {
		var got chatRequest
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/api/chat", r.URL.Path)
			require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
			_, _ = w.Write([]byte(`{"message":{"role":"assistant","content":"hello there"},"done":true}`))
		}))
		defer srv.Close()

		p := New(Config{BaseURL: srv.URL})
		resp, err := p.Complete(context.Background(), testMessages(), "llama3:8b", 0.7)
		require.NoError(t, err)

		assert.NotEmpty(t, resp.ID)
		assert.Equal(t, "hello there", resp.Response)

		assert.Equal(t, "llama3:8b", got.Model)
		assert.False(t, got.Stream)
		assert.Equal(t, 0.7, got.Options.Temperature)
		assert.Equal(t, numCtx, got.Options.NumCtx)
		assert.Equal(t, repeatPenalty, got.Options.RepeatPenalty)
		assert.Equal(t, topK, got.Options.TopK)
		assert.Equal(t, topP, got.Options.TopP)
	})

	t.Run("UpstreamErrorSurfaces", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
			_, _ = w.Write([]byte("model load failed"))
		}))
		defer srv.Close()

		p := New(Config{BaseURL: srv.URL})
		_, err := p.Complete(context.Background(), testMessages(), "", 0.7)

		var gerr *core.GatewayError
		require.ErrorAs(t, err, &gerr)
		assert.Equal(t, core.ErrorTypeProvider, gerr.Type)
		assert.Equal(t, core.ProviderLocal, gerr.Provider)
	})
}

func TestResolveModel(t *testing.T) {
	t.Run("CallerValueWins", func(t *testing.T) {
		p := New(Config{DefaultModel: "configured"})
		assert.Equal(t, "mistral", p.resolveModel("mistral"))
	})

	t.Run("ConfiguredDefault", func(t *testing.T) {
		p := New(Config{DefaultModel: "configured"})
		assert.Equal(t, "configured", p.resolveModel(""))
	})

	t.Run("HardcodedFallback", func(t *testing.T) {
		p := New(Config{})
		assert.Equal(t, fallbackModel, p.resolveModel(""))
	})
}

func TestStream(t *testing.T) {
	t.Run("EmitsTokensInOrder", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var got chatRequest
			require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
			assert.True(t, got.Stream)

			_, _ = w.Write([]byte(`{"message":{"role":"assistant","content":"Hel"},"done":false}` + "\n"))
			_, _ = w.Write([]byte(`{"message":{"role":"assistant","content":"lo"},"done":false}` + "\n"))
			_, _ = w.Write([]byte(`{"message":{"role":"assistant","content":""},"done":true}` + "\n"))
		}))
		defer srv.Close()

		p := New(Config{BaseURL: srv.URL})
		chunks := collect(p.Stream(context.Background(), testMessages(), "", 0.7))

		require.Len(t, chunks, 2)
		assert.Equal(t, core.TokenChunk("Hel"), chunks[0])
		assert.Equal(t, core.TokenChunk("lo"), chunks[1])
	})

	t.Run("MalformedFragmentsSkippedSilently", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"message":{"content":"ok"},"done":false}` + "\n"))
			_, _ = w.Write([]byte(`{"message":{"content` + "\n")) // truncated fragment
			_, _ = w.Write([]byte(`not json at all` + "\n"))
			_, _ = w.Write([]byte(`{"message":{"content":"fine"},"done":true}` + "\n"))
		}))
		defer srv.Close()

		p := New(Config{BaseURL: srv.URL})
		chunks := collect(p.Stream(context.Background(), testMessages(), "", 0.7))

		require.Len(t, chunks, 2)
		assert.Equal(t, "ok", chunks[0].Content)
		assert.Equal(t, "fine", chunks[1].Content)
		for _, chunk := range chunks {
			assert.Equal(t, core.ChunkToken, chunk.Type)
		}
	})

	t.Run("NetworkFailureEmitsSingleErrorChunk", func(t *testing.T) {
		p := New(Config{BaseURL: "http://127.0.0.1:1"})
		chunks := collect(p.Stream(context.Background(), testMessages(), "", 0.7))

		require.Len(t, chunks, 1)
		assert.Equal(t, core.ChunkError, chunks[0].Type)
		assert.NotEmpty(t, chunks[0].Content)
	})

	t.Run("ConsumerCancellationStopsEmission", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			flusher := w.(http.Flusher)
			for i := 0; i < 1000; i++ {
				if _, err := w.Write([]byte(`{"message":{"content":"tok"},"done":false}` + "\n")); err != nil {
					return
				}
				flusher.Flush()
			}
		}))
		defer srv.Close()

		ctx, cancel := context.WithCancel(context.Background())
		p := New(Config{BaseURL: srv.URL})
		ch := p.Stream(ctx, testMessages(), "", 0.7)

		// Read one chunk then walk away.
		<-ch
		cancel()

		// The producer must close the channel rather than block forever.
		for range ch {
		}
	})
}

func TestListInstalled(t *testing.T) {
	t.Run("ParsesTags", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/api/tags", r.URL.Path)
			_, _ = w.Write([]byte(`{"models":[{"name":"llama3:8b","size":4661224676,"details":{"family":"llama","parameter_size":"8B"}}]}`))
		}))
		defer srv.Close()

		p := New(Config{BaseURL: srv.URL})
		models, err := p.ListInstalled(context.Background())
		require.NoError(t, err)
		require.Len(t, models, 1)
		assert.Equal(t, "llama3:8b", models[0].Name)
		assert.Equal(t, "llama", models[0].Details.Family)
	})

	t.Run("ErrorWhenOffline", func(t *testing.T) {
		p := New(Config{BaseURL: "http://127.0.0.1:1"})
		_, err := p.ListInstalled(context.Background())
		require.Error(t, err)
	})
}
