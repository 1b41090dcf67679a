// Package config loads pictor's TOML configuration and provides the
// live settings handle the rest of the application reads from.
package config

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync/atomic"

	"github.com/BurntSushi/toml"
)

// Config is the on-disk configuration for pictor.
type Config struct {
	// DataDir holds the catalog database and the images directory tree.
	DataDir string `toml:"data_dir"`
	// Listen is the local address the JSON API binds to.
	Listen string `toml:"listen"`
	// ThumbCompression is the 0-9 PNG compression level for thumbnails.
	ThumbCompression int `toml:"thumb_compression"`
	// ImageCompression is the 0-9 level used when an original has to be
	// re-encoded (clipboard bitmaps).
	ImageCompression int `toml:"image_compression"`
}

// Default returns a Config with the documented defaults, rooted at baseDir.
func Default(baseDir string) *Config {
	return &Config{
		DataDir:          baseDir,
		Listen:           "127.0.0.1:7878",
		ThumbCompression: 9,
		ImageCompression: 5,
	}
}

// DatabasePath is the catalog database file inside the data dir.
func (c *Config) DatabasePath() string {
	return filepath.Join(c.DataDir, "pictor.db")
}

// ImagesRoot is the directory all per-entry artifact directories live under.
func (c *Config) ImagesRoot() string {
	return filepath.Join(c.DataDir, "images")
}

// Validate checks field ranges, normalizing nothing.
func (c *Config) Validate() error {
	if c.DataDir == "" {
		return fmt.Errorf("data_dir must be set")
	}
	if c.ThumbCompression < 0 || c.ThumbCompression > 9 {
		return fmt.Errorf("thumb_compression must be between 0 and 9, got %d", c.ThumbCompression)
	}
	if c.ImageCompression < 0 || c.ImageCompression > 9 {
		return fmt.Errorf("image_compression must be between 0 and 9, got %d", c.ImageCompression)
	}
	return nil
}

// Read decodes a Config from the reader, applying defaults for absent keys.
func Read(r io.Reader, baseDir string) (*Config, error) {
	cfg := Default(baseDir)
	if _, err := toml.NewDecoder(r).Decode(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return cfg, nil
}

// Load reads the config file at path. A missing file yields the defaults,
// so a fresh install works with no setup.
func Load(path, baseDir string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Default(baseDir), nil
		}
		return nil, fmt.Errorf("open config: %w", err)
	}
	defer f.Close()
	return Read(f, baseDir)
}

// Write encodes the config as TOML.
func (c *Config) Write(w io.Writer) error {
	if err := toml.NewEncoder(w).Encode(c); err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	return nil
}

// Store holds the current Config and swaps it atomically on reload.
// Save operations read compression levels through Current at call time,
// so a mid-session settings change applies to the next save.
type Store struct {
	current atomic.Pointer[Config]
}

// NewStore creates a Store seeded with cfg.
func NewStore(cfg *Config) *Store {
	s := &Store{}
	s.current.Store(cfg)
	return s
}

// Current returns the live configuration.
func (s *Store) Current() *Config {
	return s.current.Load()
}

// Replace swaps in a new configuration after validating it.
func (s *Store) Replace(cfg *Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	s.current.Store(cfg)
	return nil
}
