//go:build e2e

package e2e

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"

	"github.com/tidwall/gjson"
)

// mockOllama fakes the local inference server's native chat API. Setting
// failing makes every chat call return 500 until cleared, which is how the
// fallback path is exercised end to end.
type mockOllama struct {
	server   *httptest.Server
	failing  atomic.Bool
	chatHits atomic.Int64
}

func newMockOllama() *mockOllama {
	m := &mockOllama{}
	mux := http.NewServeMux()

	mux.HandleFunc("/api/chat", func(w http.ResponseWriter, r *http.Request) {
		m.chatHits.Add(1)
		if m.failing.Load() {
			w.WriteHeader(http.StatusInternalServerError)
			fmt.Fprint(w, `{"error":"model runner crashed"}`)
			return
		}

		var body struct {
			Model    string `json:"model"`
			Stream   bool   `json:"stream"`
			Messages []struct {
				Role    string `json:"role"`
				Content string `json:"content"`
			} `json:"messages"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		last := body.Messages[len(body.Messages)-1].Content

		if body.Stream {
			w.Header().Set("Content-Type", "application/x-ndjson")
			for _, token := range []string{"local ", "echo: ", last} {
				fmt.Fprintf(w, `{"message":{"role":"assistant","content":%q},"done":false}`+"\n", token)
			}
			fmt.Fprint(w, `{"message":{"role":"assistant","content":""},"done":true}`+"\n")
			return
		}

		resp := map[string]any{
			"message": map[string]string{"role": "assistant", "content": "local echo: " + last},
			"done":    true,
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp)
	})

	mux.HandleFunc("/api/tags", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"models":[{"name":"llama3:latest","size":4661224676,"details":{"family":"llama","parameter_size":"8B"}}]}`)
	})

	m.server = httptest.NewServer(mux)
	return m
}

func (m *mockOllama) URL() string { return m.server.URL }
func (m *mockOllama) Close()      { m.server.Close() }

// mockOpenRouter fakes the hosted OpenAI-compatible completions endpoint.
type mockOpenRouter struct {
	server   *httptest.Server
	apiKey   string
	chatHits atomic.Int64
}

func newMockOpenRouter(apiKey string) *mockOpenRouter {
	m := &mockOpenRouter{apiKey: apiKey}
	mux := http.NewServeMux()

	mux.HandleFunc("/chat/completions", func(w http.ResponseWriter, r *http.Request) {
		m.chatHits.Add(1)
		if r.Header.Get("Authorization") != "Bearer "+m.apiKey {
			w.WriteHeader(http.StatusUnauthorized)
			fmt.Fprint(w, `{"error":{"message":"invalid api key"}}`)
			return
		}

		body, err := io.ReadAll(r.Body)
		if err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		messages := gjson.GetBytes(body, "messages").Array()
		last := messages[len(messages)-1].Get("content").String()

		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"id":"gen-e2e-1","choices":[{"message":{"role":"assistant","content":%q}}]}`,
			"remote echo: "+last)
	})

	m.server = httptest.NewServer(mux)
	return m
}

func (m *mockOpenRouter) URL() string { return m.server.URL }
func (m *mockOpenRouter) Close()      { m.server.Close() }
