package providers

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"chatgate/internal/core"
)

type stubProvider struct {
	name string
}

func (s *stubProvider) Name() string { return s.name }

func (s *stubProvider) Complete(context.Context, []core.Message, string, float64) (*core.ChatResponse, error) {
	return &core.ChatResponse{ID: s.name}, nil
}

func (s *stubProvider) Stream(context.Context, []core.Message, string, float64) <-chan core.StreamChunk {
	ch := make(chan core.StreamChunk)
	close(ch)
	return ch
}

func TestRegistry(t *testing.T) {
	t.Run("RegisterAndGet", func(t *testing.T) {
		r := NewRegistry()
		local := &stubProvider{name: core.ProviderLocal}
		r.Register(local)

		assert.Same(t, core.Provider(local), r.Get(core.ProviderLocal))
		assert.Nil(t, r.Get(core.ProviderRemote))
	})

	t.Run("DuplicateOverwrites", func(t *testing.T) {
		r := NewRegistry()
		first := &stubProvider{name: core.ProviderLocal}
		second := &stubProvider{name: core.ProviderLocal}
		r.Register(first)
		r.Register(second)

		assert.Same(t, core.Provider(second), r.Get(core.ProviderLocal))
	})

	t.Run("NamesSorted", func(t *testing.T) {
		r := NewRegistry()
		r.Register(&stubProvider{name: core.ProviderRemote})
		r.Register(&stubProvider{name: core.ProviderLocal})

		assert.Equal(t, []string{core.ProviderLocal, core.ProviderRemote}, r.Names())
	})
}
