package ports

import (
	"context"

	"github.com/mikey/url-guard/internal/core"
)

// Classifier is the verdict engine as seen by the front-end filters
type Classifier interface {
	// Classify returns the verdict for one URL
	Classify(ctx context.Context, url string) (*core.Verdict, error)

	// ClassifyAll classifies a batch, keeping input order
	ClassifyAll(ctx context.Context, urls []string) []core.BatchResult
}

// URLFilter defines the interface for the front-end filters
type URLFilter interface {
	// ProcessURL classifies a single URL
	ProcessURL(ctx context.Context, url string) (*core.Verdict, error)

	// Start starts the filter service
	Start() error

	// Stop stops the filter service
	Stop() error
}
