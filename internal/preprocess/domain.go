package preprocess

import (
	"net/url"
	"strings"

	"golang.org/x/net/publicsuffix"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Target is the normalized form of a URL that every downstream stage consumes
type Target struct {
	// Host is the full hostname, without port
	Host string
	// Domain is the registrable domain (public suffix plus one label), or Host
	// when the suffix is unknown
	Domain string
}

// Extract normalizes a raw URL into its host and registrable domain.
// It never fails: when the input cannot be parsed the raw string is used for both.
func Extract(rawURL string) Target {
	raw := strings.TrimSpace(rawURL)

	withScheme := raw
	if !hasScheme(withScheme) {
		withScheme = "http://" + withScheme
	}

	parsed, err := url.Parse(withScheme)
	if err != nil {
		return fallback(raw)
	}

	host := strings.TrimSuffix(parsed.Hostname(), ".")
	if host == "" {
		return fallback(raw)
	}
	host = Normalize(host)

	return Target{Host: host, Domain: registrableDomain(host)}
}

// Normalize applies the case folding used for every domain comparison
func Normalize(s string) string {
	return cases.Lower(language.Und).String(s)
}

// hasScheme reports whether s starts with "scheme://". A "://" later in the
// input, such as a redirect target in the query, does not count.
func hasScheme(s string) bool {
	i := strings.Index(s, "://")
	if i <= 0 {
		return false
	}
	for j, r := range s[:i] {
		switch {
		case 'a' <= r && r <= 'z', 'A' <= r && r <= 'Z':
		case j > 0 && ('0' <= r && r <= '9' || r == '+' || r == '-' || r == '.'):
		default:
			return false
		}
	}
	return true
}

func fallback(raw string) Target {
	n := Normalize(raw)
	return Target{Host: n, Domain: n}
}

// registrableDomain returns eTLD+1, or the host itself when its suffix only
// matched the implicit "*" rule (unknown TLD, bare IP, single label).
func registrableDomain(host string) string {
	suffix, icann := publicsuffix.PublicSuffix(host)
	if !icann && !strings.Contains(suffix, ".") {
		return host
	}

	domain, err := publicsuffix.EffectiveTLDPlusOne(host)
	if err != nil {
		return host
	}
	return domain
}
