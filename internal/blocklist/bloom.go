// Package blocklist holds the probabilistic known-bad domain prefilter.
package blocklist

import (
	"fmt"

	"github.com/bits-and-blooms/bloom/v3"
	"github.com/mikey/url-guard/internal/utils"
	"go.uber.org/zap"
)

const (
	// DefaultExpectedItems is the feed cardinality the filter is sized for
	DefaultExpectedItems = 200000
	// DefaultFalsePositiveRate is the target false positive rate
	DefaultFalsePositiveRate = 0.01
)

// Prefilter answers "is this domain probably in the known-bad feed".
// A false result is definitive; a true result must be confirmed elsewhere.
// It is never modified after construction.
type Prefilter struct {
	filter *bloom.BloomFilter
}

// NewPrefilter sizes a bloom filter for the feed and inserts every domain.
// The filter is sized for max(expectedItems, len(domains)) so an oversized
// feed does not degrade the false positive rate.
func NewPrefilter(domains []string, expectedItems uint, falsePositiveRate float64) (*Prefilter, error) {
	if falsePositiveRate <= 0 || falsePositiveRate >= 1 {
		return nil, fmt.Errorf("false positive rate must be in (0,1), got %v", falsePositiveRate)
	}

	n := max(expectedItems, uint(len(domains)), 1)
	filter := bloom.NewWithEstimates(n, falsePositiveRate)
	for _, domain := range domains {
		filter.AddString(domain)
	}

	return &Prefilter{filter: filter}, nil
}

// LoadPrefilter reads the newline-delimited known-bad feed and builds the filter
func LoadPrefilter(path string, expectedItems uint, falsePositiveRate float64, logger *zap.Logger) (*Prefilter, error) {
	domains, err := utils.ReadDomainList(path)
	if err != nil {
		return nil, err
	}

	p, err := NewPrefilter(domains, expectedItems, falsePositiveRate)
	if err != nil {
		return nil, err
	}

	logger.Info("Built known-bad prefilter",
		zap.String("feed", path),
		zap.Int("entries", len(domains)),
		zap.Uint("bits", p.filter.Cap()),
		zap.Uint("hashes", p.filter.K()),
		zap.Float64("target_fp_rate", falsePositiveRate))

	return p, nil
}

// MightContain reports whether the domain may be in the feed
func (p *Prefilter) MightContain(domain string) bool {
	return p.filter.TestString(domain)
}
