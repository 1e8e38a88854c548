package whitelist

import (
	"strings"

	"github.com/mikey/url-guard/internal/preprocess"
	"github.com/mikey/url-guard/internal/utils"
	"go.uber.org/zap"
)

// Checker is an exact-match set of trusted registrable domains
type Checker struct {
	domains map[string]struct{}
	logger  *zap.Logger
}

// NewChecker creates a new allow-list checker
func NewChecker(domains []string, logger *zap.Logger) *Checker {
	set := make(map[string]struct{}, len(domains))
	for _, domain := range domains {
		normalized := preprocess.Normalize(strings.TrimSpace(domain))
		if normalized == "" {
			continue
		}
		set[normalized] = struct{}{}
	}

	if logger != nil {
		logger.Info("Initialized allow-list checker", zap.Int("domains", len(set)))
	}

	return &Checker{
		domains: set,
		logger:  logger,
	}
}

// LoadChecker reads a newline-delimited allow-list file
func LoadChecker(path string, logger *zap.Logger) (*Checker, error) {
	domains, err := utils.ReadDomainList(path)
	if err != nil {
		return nil, err
	}
	return NewChecker(domains, logger), nil
}

// Contains reports whether the registrable domain is allow-listed
func (c *Checker) Contains(domain string) bool {
	if len(c.domains) == 0 {
		return false
	}

	_, ok := c.domains[domain]
	if ok && c.logger != nil {
		c.logger.Debug("Domain is allow-listed", zap.String("domain", domain))
	}
	return ok
}

// Len returns the number of distinct trusted domains
func (c *Checker) Len() int {
	return len(c.domains)
}
