package config_test

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/mhersberg/pictor/internal/config"
)

func TestReadAppliesDefaults(t *testing.T) {
	cfg, err := config.Read(strings.NewReader(""), "/data")
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if cfg.ThumbCompression != 9 {
		t.Fatalf("expected default thumb_compression 9, got %d", cfg.ThumbCompression)
	}
	if cfg.ImageCompression != 5 {
		t.Fatalf("expected default image_compression 5, got %d", cfg.ImageCompression)
	}
	if cfg.DataDir != "/data" {
		t.Fatalf("expected data dir /data, got %q", cfg.DataDir)
	}
}

func TestReadOverrides(t *testing.T) {
	in := `
data_dir = "/tmp/pictor"
listen = "127.0.0.1:9000"
thumb_compression = 3
image_compression = 7
`
	cfg, err := config.Read(strings.NewReader(in), "/data")
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if cfg.DataDir != "/tmp/pictor" || cfg.Listen != "127.0.0.1:9000" {
		t.Fatalf("overrides not applied: %+v", cfg)
	}
	if cfg.ThumbCompression != 3 || cfg.ImageCompression != 7 {
		t.Fatalf("compression overrides not applied: %+v", cfg)
	}
}

func TestReadRejectsOutOfRange(t *testing.T) {
	_, err := config.Read(strings.NewReader("thumb_compression = 12"), "/data")
	if err == nil {
		t.Fatal("expected out-of-range thumb_compression to be rejected")
	}
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := config.Load(filepath.Join(t.TempDir(), "absent.toml"), "/data")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.ThumbCompression != 9 {
		t.Fatalf("expected defaults for missing file, got %+v", cfg)
	}
}

func TestStoreReplace(t *testing.T) {
	s := config.NewStore(config.Default("/data"))

	next := config.Default("/data")
	next.ThumbCompression = 1
	if err := s.Replace(next); err != nil {
		t.Fatalf("Replace: %v", err)
	}
	if got := s.Current().ThumbCompression; got != 1 {
		t.Fatalf("expected replaced value 1, got %d", got)
	}

	bad := config.Default("/data")
	bad.ImageCompression = -2
	if err := s.Replace(bad); err == nil {
		t.Fatal("expected invalid config to be rejected")
	}
}
