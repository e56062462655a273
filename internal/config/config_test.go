package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.SegmentSize != 384*1024*1024 {
		t.Errorf("SegmentSize = %d, want 384MiB", cfg.SegmentSize)
	}
	if cfg.FetchTimeout != 120*time.Second {
		t.Errorf("FetchTimeout = %s, want 2m", cfg.FetchTimeout)
	}
	if cfg.RefreshMargin != 300*time.Second {
		t.Errorf("RefreshMargin = %s, want 5m", cfg.RefreshMargin)
	}
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "s3mi.yaml")
	data := []byte(`
segment_size: 256MiB
concurrency: 12
max_buffered: 24
fetch_timeout: 90s
quiet: true
log_level: debug
`)
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFromFile(path)
	if err != nil {
		t.Fatalf("LoadFromFile: %v", err)
	}

	if cfg.SegmentSize != 256*1024*1024 {
		t.Errorf("SegmentSize = %d, want 256MiB", cfg.SegmentSize)
	}
	if cfg.Concurrency != 12 {
		t.Errorf("Concurrency = %d, want 12", cfg.Concurrency)
	}
	if cfg.MaxBuffered != 24 {
		t.Errorf("MaxBuffered = %d, want 24", cfg.MaxBuffered)
	}
	if cfg.FetchTimeout != 90*time.Second {
		t.Errorf("FetchTimeout = %s, want 90s", cfg.FetchTimeout)
	}
	if !cfg.Quiet {
		t.Error("Quiet should be true")
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("LogLevel = %q, want debug", cfg.LogLevel)
	}
	// Unset fields keep their defaults.
	if cfg.RefreshMargin != 300*time.Second {
		t.Errorf("RefreshMargin = %s, want default 5m", cfg.RefreshMargin)
	}
}

func TestLoadFromFile_BadSize(t *testing.T) {
	path := filepath.Join(t.TempDir(), "s3mi.yaml")
	if err := os.WriteFile(path, []byte("segment_size: huge\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadFromFile(path); err == nil {
		t.Error("LoadFromFile should reject an unparseable size")
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("S3MI_SEGMENT_SIZE", "64MiB")
	t.Setenv("S3MI_CONCURRENCY", "9")
	t.Setenv("S3MI_FETCH_TIMEOUT", "45s")
	t.Setenv("S3MI_QUIET", "1")

	cfg := Default()
	if err := cfg.LoadFromEnv(); err != nil {
		t.Fatalf("LoadFromEnv: %v", err)
	}

	if cfg.SegmentSize != 64*1024*1024 {
		t.Errorf("SegmentSize = %d, want 64MiB", cfg.SegmentSize)
	}
	if cfg.Concurrency != 9 {
		t.Errorf("Concurrency = %d, want 9", cfg.Concurrency)
	}
	if cfg.FetchTimeout != 45*time.Second {
		t.Errorf("FetchTimeout = %s, want 45s", cfg.FetchTimeout)
	}
	if !cfg.Quiet {
		t.Error("Quiet should be true")
	}
}

func TestValidate(t *testing.T) {
	cfg := Default()
	cfg.Concurrency = 4
	cfg.MaxBuffered = 8
	if err := cfg.Validate(); err != nil {
		t.Errorf("valid config rejected: %v", err)
	}

	bad := cfg
	bad.SegmentSize = 0
	if err := bad.Validate(); err == nil {
		t.Error("zero segment size accepted")
	}

	bad = cfg
	bad.Concurrency = -1
	if err := bad.Validate(); err == nil {
		t.Error("negative concurrency accepted")
	}
}

func TestMerge(t *testing.T) {
	base := Default()
	merged := base.Merge(Config{Concurrency: 5, LogLevel: "warn"})

	if merged.Concurrency != 5 {
		t.Errorf("Concurrency = %d, want 5", merged.Concurrency)
	}
	if merged.LogLevel != "warn" {
		t.Errorf("LogLevel = %q, want warn", merged.LogLevel)
	}
	if merged.SegmentSize != base.SegmentSize {
		t.Error("zero override should not clobber segment size")
	}
}

func TestTierFor(t *testing.T) {
	const gib = uint64(1) << 30

	cases := []struct {
		total                    uint64
		concurrency, maxBuffered int
	}{
		{0, 3, 6},
		{64 * gib, 7, 16},
		{128 * gib, 7, 16},
		{256 * gib, 15, 32},
		{384 * gib, 15, 32},
		{512 * gib, 36, 72},
	}

	for _, tc := range cases {
		c, m := tierFor(tc.total)
		if c != tc.concurrency || m != tc.maxBuffered {
			t.Errorf("tierFor(%d) = (%d, %d), want (%d, %d)",
				tc.total, c, m, tc.concurrency, tc.maxBuffered)
		}
	}
}

func TestAutoTune_KeepsExplicitValues(t *testing.T) {
	cfg := Default()
	cfg.Concurrency = 2
	cfg.MaxBuffered = 3
	cfg.AutoTune()

	if cfg.Concurrency != 2 || cfg.MaxBuffered != 3 {
		t.Errorf("AutoTune clobbered explicit caps: %d/%d", cfg.Concurrency, cfg.MaxBuffered)
	}
}

func TestAutoTune_FillsZeroValues(t *testing.T) {
	cfg := Default()
	cfg.AutoTune()

	if cfg.Concurrency <= 0 || cfg.MaxBuffered <= 0 {
		t.Errorf("AutoTune left caps unset: %d/%d", cfg.Concurrency, cfg.MaxBuffered)
	}
}
