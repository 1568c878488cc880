package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/limitr/limitr/pkg/limiter"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	if cfg.Server.Addr != ":8080" {
		t.Errorf("default addr = %q, want %q", cfg.Server.Addr, ":8080")
	}
	if cfg.Server.KeyTTL != 10*time.Minute {
		t.Errorf("default key TTL = %s, want 10m", cfg.Server.KeyTTL)
	}
	if cfg.Limiter.Algorithm != limiter.AlgorithmTokenBucket {
		t.Errorf("default algorithm = %q, want %q", cfg.Limiter.Algorithm, limiter.AlgorithmTokenBucket)
	}
	if cfg.Limiter.Rate != 10 {
		t.Errorf("default rate = %d, want 10", cfg.Limiter.Rate)
	}
}

func TestValidate_Valid(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should be valid, got %v", err)
	}
}

func TestValidate_AllAlgorithms(t *testing.T) {
	for _, algo := range []limiter.Algorithm{
		limiter.AlgorithmTokenBucket,
		limiter.AlgorithmLeakyBucket,
		limiter.AlgorithmSlidingWindow,
		limiter.AlgorithmFixedWindow,
	} {
		cfg := Default()
		cfg.Limiter.Algorithm = algo
		if err := cfg.Validate(); err != nil {
			t.Errorf("algorithm %q should be valid, got %v", algo, err)
		}
	}
}

func TestValidate_BadRate(t *testing.T) {
	cfg := Default()
	cfg.Limiter.Rate = 0
	if err := cfg.Validate(); err == nil {
		t.Error("rate=0 should be invalid")
	}

	cfg.Limiter.Rate = -1
	if err := cfg.Validate(); err == nil {
		t.Error("rate=-1 should be invalid")
	}
}

func TestValidate_BadWindow(t *testing.T) {
	cfg := Default()
	cfg.Limiter.Window = 0
	if err := cfg.Validate(); err == nil {
		t.Error("window=0 should be invalid")
	}

	cfg.Limiter.Window = -time.Second
	if err := cfg.Validate(); err == nil {
		t.Error("negative window should be invalid")
	}
}

func TestValidate_BadAlgorithm(t *testing.T) {
	cfg := Default()
	cfg.Limiter.Algorithm = "bogus"
	if err := cfg.Validate(); err == nil {
		t.Error("unknown algorithm should be invalid")
	}
}

func TestValidate_BadAddr(t *testing.T) {
	cfg := Default()
	cfg.Server.Addr = ""
	if err := cfg.Validate(); err == nil {
		t.Error("empty addr should be invalid")
	}
}

func TestValidate_NegativeKeyTTL(t *testing.T) {
	cfg := Default()
	cfg.Server.KeyTTL = -time.Minute
	if err := cfg.Validate(); err == nil {
		t.Error("negative key TTL should be invalid")
	}
}

func TestLoadFile_MergesWithDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	data := `{"limiter": {"algorithm": "sliding_window", "rate": 50}}`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatal(err)
	}

	if cfg.Limiter.Algorithm != limiter.AlgorithmSlidingWindow {
		t.Errorf("algorithm = %q, want sliding_window", cfg.Limiter.Algorithm)
	}
	if cfg.Limiter.Rate != 50 {
		t.Errorf("rate = %d, want 50", cfg.Limiter.Rate)
	}
	// Unspecified fields keep defaults.
	if cfg.Server.Addr != ":8080" {
		t.Errorf("addr = %q, want default :8080", cfg.Server.Addr)
	}
	if cfg.Limiter.Window != time.Minute {
		t.Errorf("window = %s, want default 1m", cfg.Limiter.Window)
	}
}

func TestLoadFile_ParsesDurations(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	data := `{"server": {"key_ttl": "30s"}, "limiter": {"window": "5m"}}`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Server.KeyTTL != 30*time.Second {
		t.Errorf("key TTL = %s, want 30s", cfg.Server.KeyTTL)
	}
	if cfg.Limiter.Window != 5*time.Minute {
		t.Errorf("window = %s, want 5m", cfg.Limiter.Window)
	}
}

func TestLoadFile_BadDuration(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	data := `{"limiter": {"window": "not-a-duration"}}`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := LoadFile(path); err == nil {
		t.Error("expected error for bad duration")
	}
}

func TestLoadFile_BadJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte("{nope"), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := LoadFile(path); err == nil {
		t.Error("expected error for malformed JSON")
	}
}

func TestLoadFile_Missing(t *testing.T) {
	if _, err := LoadFile(filepath.Join(t.TempDir(), "absent.json")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestWriteExample_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "example.json")
	if err := WriteExample(path); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("example config should validate, got %v", err)
	}
}
