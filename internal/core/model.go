package core

import (
	"time"
)

// Label is the binary outcome of a classification
type Label string

const (
	Benign    Label = "benign"
	Malicious Label = "malicious"
)

// Reason names the signal that decided a verdict
type Reason string

const (
	// AllowListed means the registrable domain is trusted; no score was computed
	AllowListed Reason = "allow_listed"
	// BloomFeedConfirmed means the feed flagged the domain and the model agreed
	BloomFeedConfirmed Reason = "bloom_feed_confirmed"
	// BloomFeedFalsePositive means the feed flagged the domain but the model scored it below threshold
	BloomFeedFalsePositive Reason = "bloom_feed_false_positive"
	// ModelScore means the domain is in no list and the model score decided
	ModelScore Reason = "model_score"
)

// Verdict is the result of classifying one URL
type Verdict struct {
	URL          string    `json:"url"`
	Host         string    `json:"host"`
	Domain       string    `json:"domain"`
	Label        Label     `json:"label"`
	Reason       Reason    `json:"reason"`
	Score        *float64  `json:"score,omitempty"`
	ClassifiedAt time.Time `json:"classified_at"`
}

// IsMalicious reports whether the page load should be blocked
func (v *Verdict) IsMalicious() bool {
	return v.Label == Malicious
}

// HasScore reports whether the oracle was consulted
func (v *Verdict) HasScore() bool {
	return v.Score != nil
}

// ScoreValue returns the oracle score, or 0 for allow-listed verdicts
func (v *Verdict) ScoreValue() float64 {
	if v.Score == nil {
		return 0
	}
	return *v.Score
}

// BatchResult pairs a URL with its verdict or classification error
type BatchResult struct {
	URL     string
	Verdict *Verdict
	Err     error
}

// CacheEntry is a cached verdict for a host
type CacheEntry struct {
	Host      string
	Domain    string
	Label     Label
	Reason    Reason
	Score     *float64
	LastSeen  time.Time
	ExpiresAt time.Time
}
