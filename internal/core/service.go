package core

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/mikey/url-guard/internal/preprocess"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

var (
	// ErrScoring is returned when the oracle could not produce a score
	ErrScoring = errors.New("url scoring failed")
	// ErrInvalidThreshold is returned for a threshold outside [0,1]
	ErrInvalidThreshold = errors.New("invalid decision threshold")
	// ErrMissingDependency is returned when the engine is built without an artifact
	ErrMissingDependency = errors.New("missing engine dependency")
)

// EngineDeps are the loaded artifacts the engine is built from
type EngineDeps struct {
	AllowList AllowList
	Prefilter Prefilter
	Scaler    *preprocess.Scaler
	Threshold float64
	Oracle    Oracle

	// Cache is optional
	Cache    CacheRepository
	CacheTTL time.Duration
}

// Engine classifies URLs. All state is loaded once and read-only afterwards,
// so a single Engine may be shared by any number of goroutines.
type Engine struct {
	allowList    AllowList
	prefilter    Prefilter
	scaler       *preprocess.Scaler
	threshold    float64
	oracle       Oracle
	cache        CacheRepository
	cacheEnabled bool
	cacheTTL     time.Duration
	flight       singleflight.Group
	logger       *zap.Logger
}

// NewEngine validates the artifacts and creates a ready engine
func NewEngine(deps EngineDeps, logger *zap.Logger) (*Engine, error) {
	switch {
	case deps.AllowList == nil:
		return nil, fmt.Errorf("%w: allow-list", ErrMissingDependency)
	case deps.Prefilter == nil:
		return nil, fmt.Errorf("%w: known-bad prefilter", ErrMissingDependency)
	case deps.Scaler == nil:
		return nil, fmt.Errorf("%w: scaler", ErrMissingDependency)
	case deps.Oracle == nil:
		return nil, fmt.Errorf("%w: oracle", ErrMissingDependency)
	}
	if err := validateThreshold(deps.Threshold); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Engine{
		allowList:    deps.AllowList,
		prefilter:    deps.Prefilter,
		scaler:       deps.Scaler,
		threshold:    deps.Threshold,
		oracle:       deps.Oracle,
		cache:        deps.Cache,
		cacheEnabled: deps.Cache != nil && deps.CacheTTL > 0,
		cacheTTL:     deps.CacheTTL,
		logger:       logger,
	}, nil
}

// Threshold returns the decision boundary on the oracle score
func (e *Engine) Threshold() float64 {
	return e.threshold
}

// Close releases the oracle when it holds native resources
func (e *Engine) Close() error {
	if closer, ok := e.oracle.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}

// Classify returns the verdict for a URL.
// Only the allow-list skips scoring; every other path consults the oracle.
func (e *Engine) Classify(ctx context.Context, rawURL string) (*Verdict, error) {
	target := preprocess.Extract(rawURL)

	if e.allowList.Contains(target.Domain) {
		e.logger.Debug("Skipping scoring for allow-listed domain",
			zap.String("domain", target.Domain),
			zap.String("action", "allow_list_bypass"))
		return newVerdict(rawURL, target, Benign, AllowListed, nil), nil
	}

	if e.cacheEnabled {
		if entry, err := e.cache.Get(ctx, target.Host); err == nil {
			e.logger.Debug("Cache hit for host", zap.String("host", target.Host))
			return newVerdict(rawURL, target, entry.Label, entry.Reason, entry.Score), nil
		}
	}

	score, err := e.score(target)
	if err != nil {
		e.logger.Error("Failed to score URL",
			zap.String("domain", target.Domain),
			zap.Error(err))
		return nil, err
	}

	label, reason := e.decide(target.Domain, score)
	verdict := newVerdict(rawURL, target, label, reason, &score)

	if e.cacheEnabled {
		now := time.Now()
		entry := &CacheEntry{
			Host:      target.Host,
			Domain:    target.Domain,
			Label:     label,
			Reason:    reason,
			Score:     verdict.Score,
			LastSeen:  now,
			ExpiresAt: now.Add(e.cacheTTL),
		}
		if err := e.cache.Set(ctx, entry); err != nil {
			e.logger.Error("Failed to update cache", zap.Error(err))
		}
	}

	e.logger.Debug("Classified URL",
		zap.String("domain", target.Domain),
		zap.String("label", string(label)),
		zap.String("reason", string(reason)),
		zap.Float64("score", score))

	return verdict, nil
}

// ClassifyAll classifies every URL, keeping input order.
// A failure for one URL does not stop the others.
func (e *Engine) ClassifyAll(ctx context.Context, urls []string) []BatchResult {
	results := make([]BatchResult, len(urls))
	for i, u := range urls {
		v, err := e.Classify(ctx, u)
		results[i] = BatchResult{URL: u, Verdict: v, Err: err}
	}
	return results
}

// decide combines the prefilter signal with the score. The comparison is
// inclusive: a score equal to the threshold is malicious.
func (e *Engine) decide(domain string, score float64) (Label, Reason) {
	if e.prefilter.MightContain(domain) {
		if score < e.threshold {
			return Benign, BloomFeedFalsePositive
		}
		return Malicious, BloomFeedConfirmed
	}

	if score >= e.threshold {
		return Malicious, ModelScore
	}
	return Benign, ModelScore
}

// score runs preprocessing and the oracle. Concurrent calls for the same
// host share one oracle invocation.
func (e *Engine) score(target preprocess.Target) (float64, error) {
	v, err, _ := e.flight.Do(target.Host, func() (interface{}, error) {
		features := e.scaler.Transform(preprocess.Features(target))
		seq := preprocess.Encode(target.Domain)

		p, err := e.oracle.Score(&seq, &features)
		if err != nil {
			return 0.0, fmt.Errorf("%w: %v", ErrScoring, err)
		}
		return p, nil
	})
	if err != nil {
		return 0, err
	}
	return v.(float64), nil
}

func newVerdict(rawURL string, target preprocess.Target, label Label, reason Reason, score *float64) *Verdict {
	v := &Verdict{
		URL:          rawURL,
		Host:         target.Host,
		Domain:       target.Domain,
		Label:        label,
		Reason:       reason,
		ClassifiedAt: time.Now(),
	}
	if score != nil {
		s := *score
		v.Score = &s
	}
	return v
}
