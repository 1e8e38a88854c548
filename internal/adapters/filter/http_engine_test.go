package filter

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/mikey/url-guard/internal/adapters/cache"
	"github.com/mikey/url-guard/internal/core"
	"github.com/mikey/url-guard/internal/preprocess"
	"github.com/mikey/url-guard/internal/utils"
	"go.uber.org/zap/zaptest"
)

type domainSet map[string]bool

func (s domainSet) Contains(domain string) bool     { return s[domain] }
func (s domainSet) MightContain(domain string) bool { return s[domain] }

// prefixOracle scores domains starting with "evil" as malicious
type prefixOracle struct {
	calls atomic.Int32
}

func (o *prefixOracle) Score(seq *preprocess.EncodedSequence, _ *preprocess.FeatureVector) (float64, error) {
	o.calls.Add(1)
	var b strings.Builder
	for _, code := range seq {
		if code == preprocess.PadCode {
			break
		}
		b.WriteRune(rune(code - 2 + 32))
	}
	if strings.HasPrefix(b.String(), "evil") {
		return 0.95, nil
	}
	return 0.05, nil
}

func TestHTTPClassifyWithCachedEngine(t *testing.T) {
	logger := zaptest.NewLogger(t)
	verdicts := cache.NewMemoryCache(logger, 0)
	defer verdicts.Stop()

	oracle := &prefixOracle{}
	scaler, err := preprocess.NewScaler(make([]float64, preprocess.FeatureCount), []float64{1, 1, 1, 1, 1, 1, 1, 1})
	if err != nil {
		t.Fatalf("NewScaler: %v", err)
	}
	engine, err := core.NewEngine(core.EngineDeps{
		AllowList: domainSet{},
		Prefilter: domainSet{"evilbank.example": true},
		Scaler:    scaler,
		Threshold: 0.5,
		Oracle:    oracle,
		Cache:     verdicts,
		CacheTTL:  time.Hour,
	}, logger)
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}

	f := NewHTTPFilter(engine, logger, utils.NewTextProcessor(logger), "127.0.0.1:0", 3, time.Second)

	tests := []struct {
		url    string
		label  core.Label
		reason core.Reason
	}{
		{"http://goodsite.example/", core.Benign, core.ModelScore},
		{"http://evilbank.example/", core.Malicious, core.BloomFeedConfirmed},
		{"http://evilsite.example/", core.Malicious, core.ModelScore},
		{"http://goodsite.example/again", core.Benign, core.ModelScore},
		{"http://evilbank.example/again", core.Malicious, core.BloomFeedConfirmed},
	}

	for _, tt := range tests {
		resp, err := f.App().Test(httptest.NewRequest("GET", "/v1/classify?url="+tt.url, nil))
		if err != nil {
			t.Fatalf("GET %s: %v", tt.url, err)
		}
		var v core.Verdict
		if err := json.NewDecoder(resp.Body).Decode(&v); err != nil {
			t.Fatalf("decode %s: %v", tt.url, err)
		}
		if v.Label != tt.label || v.Reason != tt.reason {
			t.Errorf("GET %s = %s/%s, want %s/%s", tt.url, v.Label, v.Reason, tt.label, tt.reason)
		}
	}

	if got := oracle.calls.Load(); got != 3 {
		t.Errorf("oracle called %d times, want 3", got)
	}
	if got := verdicts.Len(); got != 3 {
		t.Errorf("cache holds %d entries, want 3", got)
	}
	for _, host := range []string{"goodsite.example", "evilbank.example", "evilsite.example"} {
		if _, err := verdicts.Get(context.Background(), host); err != nil {
			t.Errorf("cache lookup %s: %v", host, err)
		}
	}
}
