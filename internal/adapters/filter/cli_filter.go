package filter

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/mikey/url-guard/internal/core"
	"github.com/mikey/url-guard/internal/ports"
	"go.uber.org/zap"
)

// CliFilter implements a command-line interface for URL classification
type CliFilter struct {
	service    ports.Classifier
	logger     *zap.Logger
	out        io.Writer
	verbose    bool
	jsonOutput bool
}

// NewCliFilter creates a new CLI filter writing its report to out
func NewCliFilter(service ports.Classifier, logger *zap.Logger, out io.Writer, verbose, jsonOutput bool) (*CliFilter, error) {
	return &CliFilter{
		service:    service,
		logger:     logger,
		out:        out,
		verbose:    verbose,
		jsonOutput: jsonOutput,
	}, nil
}

// ProcessURL classifies a URL and prints the verdict
func (f *CliFilter) ProcessURL(ctx context.Context, url string) (*core.Verdict, error) {
	f.logger.Debug("Processing URL", zap.String("url", url))

	startTime := time.Now()
	verdict, err := f.service.Classify(ctx, url)
	if err != nil {
		f.logger.Error("Failed to classify URL", zap.String("url", url), zap.Error(err))
		f.print(url, nil, err, 0)
		return nil, err
	}

	f.print(url, verdict, nil, time.Since(startTime))
	return verdict, nil
}

// ProcessReader classifies every non-empty line of r. It returns the number
// of malicious verdicts and the number of failures.
func (f *CliFilter) ProcessReader(ctx context.Context, r io.Reader) (malicious, failed int, err error) {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		v, err := f.ProcessURL(ctx, line)
		switch {
		case err != nil:
			failed++
		case v.IsMalicious():
			malicious++
		}
	}
	return malicious, failed, scanner.Err()
}

func (f *CliFilter) print(url string, v *core.Verdict, err error, took time.Duration) {
	if f.jsonOutput {
		record := classifyResult{URL: url, Verdict: v}
		if err != nil {
			record.Error = err.Error()
		}
		line, _ := json.Marshal(record)
		fmt.Fprintf(f.out, "%s\n", line)
		return
	}

	if err != nil {
		fmt.Fprintf(f.out, "%s\terror\t%v\n", url, err)
		return
	}

	score := "-"
	if v.HasScore() {
		score = fmt.Sprintf("%.4f", v.ScoreValue())
	}
	fmt.Fprintf(f.out, "%s\t%s\t%s\t%s\n", url, v.Label, score, v.Reason)

	if f.verbose {
		fmt.Fprintf(f.out, "  host: %s\n  domain: %s\n  time: %v\n", v.Host, v.Domain, took)
	}
}

// Start is a no-op for the CLI filter
func (f *CliFilter) Start() error {
	return nil
}

// Stop is a no-op for the CLI filter
func (f *CliFilter) Stop() error {
	return nil
}
