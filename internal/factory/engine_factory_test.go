package factory

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mikey/url-guard/internal/config"
	"github.com/mikey/url-guard/internal/core"
	"github.com/mikey/url-guard/internal/preprocess"
	"go.uber.org/zap/zaptest"
)

type constOracle struct {
	score  float64
	closed bool
}

func (o *constOracle) Score(*preprocess.EncodedSequence, *preprocess.FeatureVector) (float64, error) {
	return o.score, nil
}

func (o *constOracle) Close() error {
	o.closed = true
	return nil
}

func writeArtifacts(t *testing.T, threshold string) *config.Config {
	t.Helper()
	dir := t.TempDir()

	files := map[string]string{
		"allow.txt":      "# trusted\ngoogle.com\nexample.org\n",
		"bad.txt":        "evil-bank.xyz\n0.0.0.0 phish-example.net\n",
		"scaler.json":    `{"mean":[0,0,0,0,0,0,0,0],"scale":[1,1,1,1,1,1,1,1]}`,
		"threshold.json": threshold,
	}
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}

	cfg := config.NewFromViper(config.NewEmptyViper())
	cfg.Set("artifacts.allow_list", filepath.Join(dir, "allow.txt"))
	cfg.Set("artifacts.bad_feed", filepath.Join(dir, "bad.txt"))
	cfg.Set("artifacts.scaler", filepath.Join(dir, "scaler.json"))
	cfg.Set("artifacts.threshold", filepath.Join(dir, "threshold.json"))
	cfg.Set("bloom.expected_items", 1000)
	return cfg
}

func TestCreateEngine(t *testing.T) {
	cfg := writeArtifacts(t, `{"threshold": 0.5}`)
	logger := zaptest.NewLogger(t)
	f := NewEngineFactory(cfg, logger, NewOracleFactory(cfg, logger), nil)

	oracle := &constOracle{score: 0.9}
	engine, err := f.createEngine(context.Background(), func() (core.Oracle, error) { return oracle, nil })
	if err != nil {
		t.Fatalf("createEngine: %v", err)
	}

	if got := engine.Threshold(); got != 0.5 {
		t.Errorf("Threshold() = %v, want 0.5", got)
	}

	tests := []struct {
		url    string
		label  core.Label
		reason core.Reason
	}{
		{"https://mail.google.com/inbox", core.Benign, core.AllowListed},
		{"http://login.evil-bank.xyz/verify", core.Malicious, core.BloomFeedConfirmed},
		{"https://login.phish-example.net", core.Malicious, core.BloomFeedConfirmed},
	}
	for _, tt := range tests {
		v, err := engine.Classify(context.Background(), tt.url)
		if err != nil {
			t.Fatalf("Classify(%q): %v", tt.url, err)
		}
		if v.Label != tt.label || v.Reason != tt.reason {
			t.Errorf("Classify(%q) = %s/%s, want %s/%s", tt.url, v.Label, v.Reason, tt.label, tt.reason)
		}
	}

	if err := engine.Close(); err != nil || !oracle.closed {
		t.Errorf("Close did not release the oracle: %v", err)
	}
}

func TestCreateEngineFailsOnBadArtifact(t *testing.T) {
	cfg := writeArtifacts(t, `{"threshold": 2}`)
	logger := zaptest.NewLogger(t)
	f := NewEngineFactory(cfg, logger, NewOracleFactory(cfg, logger), nil)

	oracle := &constOracle{}
	_, err := f.createEngine(context.Background(), func() (core.Oracle, error) { return oracle, nil })
	if !errors.Is(err, core.ErrInvalidThreshold) {
		t.Fatalf("createEngine error = %v, want ErrInvalidThreshold", err)
	}
	if !oracle.closed {
		t.Error("oracle was not released after a failed start")
	}
}

func TestCreateEngineMissingFeed(t *testing.T) {
	cfg := writeArtifacts(t, `{"threshold": 0.5}`)
	cfg.Set("artifacts.bad_feed", filepath.Join(t.TempDir(), "missing.txt"))
	logger := zaptest.NewLogger(t)
	f := NewEngineFactory(cfg, logger, NewOracleFactory(cfg, logger), nil)

	_, err := f.createEngine(context.Background(), func() (core.Oracle, error) { return &constOracle{}, nil })
	if err == nil || !strings.Contains(err.Error(), "known-bad feed") {
		t.Fatalf("createEngine error = %v", err)
	}
}

func TestOracleFactoryRejectsUnknownProvider(t *testing.T) {
	cfg := config.NewFromViper(config.NewEmptyViper())
	cfg.Set("oracle.provider", "remote")

	if _, err := NewOracleFactory(cfg, zaptest.NewLogger(t)).CreateOracle(); err == nil {
		t.Fatal("expected error for unknown provider")
	}
}

func TestCreateEngineCancelled(t *testing.T) {
	cfg := writeArtifacts(t, `{"threshold": 0.5}`)
	logger := zaptest.NewLogger(t)
	f := NewEngineFactory(cfg, logger, NewOracleFactory(cfg, logger), nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	called := false
	_, err := f.createEngine(ctx, func() (core.Oracle, error) {
		called = true
		return &constOracle{}, nil
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("createEngine error = %v, want context.Canceled", err)
	}
	if called {
		t.Error("oracle was created for a cancelled start-up")
	}
}
