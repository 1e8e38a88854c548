package core

import (
	"context"

	"github.com/mikey/url-guard/internal/preprocess"
)

// Oracle is the pre-trained scoring model.
// Implementations must be safe to call from multiple goroutines.
type Oracle interface {
	// Score returns the maliciousness probability for one encoded domain
	Score(seq *preprocess.EncodedSequence, features *preprocess.FeatureVector) (float64, error)
}

// AllowList is the exact-match trusted domain set
type AllowList interface {
	Contains(domain string) bool
}

// Prefilter is the probabilistic known-bad domain set
type Prefilter interface {
	MightContain(domain string) bool
}

// CacheRepository defines the interface for caching verdicts by host
type CacheRepository interface {
	// Get retrieves a cached verdict for a host
	Get(ctx context.Context, host string) (*CacheEntry, error)

	// Set stores a cache entry
	Set(ctx context.Context, entry *CacheEntry) error

	// Delete removes a cache entry
	Delete(ctx context.Context, host string) error

	// Cleanup removes expired entries
	Cleanup(ctx context.Context) error
}
