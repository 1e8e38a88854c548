package utils

import (
	"bufio"
	"fmt"
	"io"
	"net/netip"
	"os"
	"strings"

	"github.com/mikey/url-guard/internal/preprocess"
)

// ReadDomainList reads a newline-delimited domain list from disk
func ReadDomainList(path string) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open domain list: %w", err)
	}
	defer file.Close()

	domains, err := ParseDomainList(file)
	if err != nil {
		return nil, fmt.Errorf("failed to read domain list %s: %w", path, err)
	}
	return domains, nil
}

// ParseDomainList parses one domain per line. Blank lines and '#' comments are
// skipped, and hosts-file entries ("0.0.0.0 domain") contribute their name.
// Entries are case folded the same way classified domains are.
func ParseDomainList(r io.Reader) ([]string, error) {
	var domains []string

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		if i := strings.IndexByte(line, '#'); i >= 0 {
			line = line[:i]
		}

		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}

		entry := fields[0]
		if len(fields) > 1 {
			if _, err := netip.ParseAddr(fields[0]); err == nil {
				entry = fields[1]
			}
		}

		entry = strings.TrimSuffix(entry, ".")
		if entry == "" {
			continue
		}
		domains = append(domains, preprocess.Normalize(entry))
	}

	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return domains, nil
}
