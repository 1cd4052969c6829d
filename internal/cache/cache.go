// Package cache provides the response cache for single-shot chat completions.
// Supports both in-memory and Redis backends for multi-instance deployments.
package cache

import (
	"context"
	"strconv"
	"strings"
	"time"
)

// DefaultTTL is the uniform time-to-live applied to every entry at insertion.
// There is no per-entry override.
const DefaultTTL = 5 * time.Minute

// DefaultModelSentinel is used in cache keys when the request carries no
// explicit model, so that "no model" hashes identically across requests.
const DefaultModelSentinel = "default"

// Entry is a cached single-shot response. Entries are immutable once stored.
type Entry struct {
	ID       string `json:"id"`
	Response string `json:"response"`
}

// Cache defines the response cache contract. Implementations must be safe for
// concurrent use; a duplicate Put for the same key simply overwrites
// (last-write-wins). Get on an expired entry behaves identically to a miss.
type Cache interface {
	// Get retrieves the entry for key. Returns nil, nil on a miss.
	Get(ctx context.Context, key string) (*Entry, error)

	// Put stores entry under key with the cache's fixed TTL.
	Put(ctx context.Context, key string, entry *Entry) error

	// Close releases any resources held by the cache.
	Close() error
}

// Key derives the deterministic fingerprint for a request. Two requests with
// identical provider, model, message, and temperature map to the same key
// regardless of arrival order.
func Key(provider, model, message string, temperature float64) string {
	if model == "" {
		model = DefaultModelSentinel
	}
	return strings.Join([]string{
		provider,
		model,
		message,
		strconv.FormatFloat(temperature, 'g', -1, 64),
	}, ":")
}
