package config

import (
	"testing"
	"time"
)

func TestDefaults(t *testing.T) {
	cfg := NewFromViper(NewEmptyViper())

	bloom := cfg.GetBloom()
	if bloom.ExpectedItems != 200000 || bloom.FalsePositiveRate != 0.01 {
		t.Errorf("GetBloom() = %+v", bloom)
	}

	if got := cfg.GetOracle().Provider; got != "onnx" {
		t.Errorf("oracle provider = %q, want onnx", got)
	}

	server, err := cfg.GetServer()
	if err != nil {
		t.Fatalf("GetServer: %v", err)
	}
	if server.FilterType != "http" || server.ListenAddress != "127.0.0.1:8081" {
		t.Errorf("server = %+v", server)
	}
	if !server.BlockMalicious || server.MaxURLs != 50 || server.ReadTimeout != 10*time.Second {
		t.Errorf("server = %+v", server)
	}
	if server.Headers.Status != "X-URL-Guard-Status" {
		t.Errorf("status header = %q", server.Headers.Status)
	}

	cache, err := cfg.GetCache()
	if err != nil {
		t.Fatalf("GetCache: %v", err)
	}
	if !cache.Enabled || cache.TTL != time.Hour || cache.CleanupFrequency != 10*time.Minute {
		t.Errorf("cache = %+v", cache)
	}
}

func TestOverrides(t *testing.T) {
	cfg := NewFromViper(NewEmptyViper())
	cfg.Set("artifacts.model", "/models/url.onnx")
	cfg.Set("cache.ttl", "90s")
	cfg.Set("onnx.intra_op_threads", 4)

	if got := cfg.GetArtifacts().Model; got != "/models/url.onnx" {
		t.Errorf("model path = %q", got)
	}
	if got := cfg.GetONNX().IntraOpThreads; got != 4 {
		t.Errorf("intra-op threads = %d", got)
	}
	cache, err := cfg.GetCache()
	if err != nil || cache.TTL != 90*time.Second {
		t.Errorf("cache ttl = %v, %v", cache.TTL, err)
	}
}

func TestInvalidDuration(t *testing.T) {
	cfg := NewFromViper(NewEmptyViper())
	cfg.Set("server.read_timeout", "soon")
	if _, err := cfg.GetServer(); err == nil {
		t.Fatal("expected error for invalid read timeout")
	}
}
