package filter

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/mikey/url-guard/internal/core"
	"go.uber.org/zap/zaptest"
)

func TestCliProcessReader(t *testing.T) {
	var out bytes.Buffer
	f, _ := NewCliFilter(newStub(), zaptest.NewLogger(t), &out, false, false)

	input := "https://example.com\n\n# comment\nevil-bank.xyz\nbroken.test\n"
	malicious, failed, err := f.ProcessReader(context.Background(), strings.NewReader(input))
	if err != nil {
		t.Fatalf("ProcessReader: %v", err)
	}
	if malicious != 1 || failed != 1 {
		t.Errorf("malicious=%d failed=%d, want 1 and 1", malicious, failed)
	}

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	if len(lines) != 3 {
		t.Fatalf("got %d output lines:\n%s", len(lines), out.String())
	}
	if lines[1] != "evil-bank.xyz\tmalicious\t0.9000\tmodel_score" {
		t.Errorf("line = %q", lines[1])
	}
	if !strings.HasPrefix(lines[2], "broken.test\terror\t") {
		t.Errorf("line = %q", lines[2])
	}
}

func TestCliJSONOutput(t *testing.T) {
	var out bytes.Buffer
	f, _ := NewCliFilter(newStub(), zaptest.NewLogger(t), &out, false, true)

	if _, err := f.ProcessURL(context.Background(), "http://login.evil-bank.xyz"); err != nil {
		t.Fatalf("ProcessURL: %v", err)
	}

	var record classifyResult
	if err := json.Unmarshal(out.Bytes(), &record); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, out.String())
	}
	if record.Verdict == nil || record.Verdict.Label != core.Malicious {
		t.Errorf("record = %+v", record)
	}
}
