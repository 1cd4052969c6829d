// Package catalog builds the model listing exposed to clients: locally
// installed models merged with a fixed set of known hosted models.
package catalog

import (
	"context"
	"log/slog"
	"strings"

	"chatgate/internal/core"
	"chatgate/internal/providers/ollama"
)

// InstalledLister enumerates models installed on the local inference server.
// *ollama.Provider satisfies this.
type InstalledLister interface {
	ListInstalled(ctx context.Context) ([]ollama.InstalledModel, error)
}

// remoteModels is the hard-coded set of known hosted models, free tiers
// first, each pre-annotated with content-restriction metadata. Declaration
// order is presentation order.
var remoteModels = []core.ModelInfo{
	{
		ID:            "meta-llama/llama-3.1-8b-instruct:free",
		Name:          "Llama 3.1 8B (free)",
		Provider:      core.ProviderRemote,
		Description:   "Meta's fast general-purpose model, free tier",
		ContextLength: 131072,
		Uncensored:    false,
	},
	{
		ID:            "mistralai/mistral-7b-instruct:free",
		Name:          "Mistral 7B (free)",
		Provider:      core.ProviderRemote,
		Description:   "Compact instruction-following model, free tier",
		ContextLength: 32768,
		Uncensored:    false,
	},
	{
		ID:            "cognitivecomputations/dolphin-mixtral-8x7b",
		Name:          "Dolphin Mixtral 8x7B",
		Provider:      core.ProviderRemote,
		Description:   "Mixtral fine-tune with safety filtering removed",
		ContextLength: 32768,
		Uncensored:    true,
	},
	{
		ID:            "anthropic/claude-3-haiku",
		Name:          "Claude 3 Haiku",
		Provider:      core.ProviderRemote,
		Description:   "Fast hosted model, paid tier",
		ContextLength: 200000,
		Uncensored:    false,
	},
	{
		ID:            "openai/gpt-4o-mini",
		Name:          "GPT-4o mini",
		Provider:      core.ProviderRemote,
		Description:   "Cost-efficient hosted model, paid tier",
		ContextLength: 128000,
		Uncensored:    false,
	},
}

// Catalog answers model listing queries. Results are rebuilt on every call;
// nothing is persisted.
type Catalog struct {
	local InstalledLister
}

// New creates a catalog backed by the given local model lister.
func New(local InstalledLister) *Catalog {
	return &Catalog{local: local}
}

// ListModels returns locally installed models as discovered, followed by the
// fixed remote list in declaration order. A local enumeration failure is
// non-fatal: the local server may legitimately be offline, so it simply
// contributes nothing.
func (c *Catalog) ListModels(ctx context.Context) []core.ModelInfo {
	var models []core.ModelInfo

	if c.local != nil {
		installed, err := c.local.ListInstalled(ctx)
		if err != nil {
			slog.Debug("local model enumeration failed", "error", err)
		} else {
			for _, m := range installed {
				models = append(models, localModelInfo(m))
			}
		}
	}

	return append(models, remoteModels...)
}

func localModelInfo(m ollama.InstalledModel) core.ModelInfo {
	desc := "Locally installed model"
	if m.Details.ParameterSize != "" {
		desc += " (" + m.Details.ParameterSize + ")"
	}
	return core.ModelInfo{
		ID:          m.Name,
		Name:        m.Name,
		Provider:    core.ProviderLocal,
		Description: desc,
		Uncensored:  isUncensoredName(m.Name),
	}
}

// isUncensoredName flags local models whose names advertise removed safety
// filtering. Local installs carry no registry metadata, so the name is the
// only signal available.
func isUncensoredName(name string) bool {
	lower := strings.ToLower(name)
	return strings.Contains(lower, "uncensored") ||
		strings.Contains(lower, "dolphin") ||
		strings.Contains(lower, "abliterated")
}
