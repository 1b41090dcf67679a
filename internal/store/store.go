// Package store owns the on-disk artifact layout under the images root:
// one directory per catalog entry holding originals, PNG thumbnails and,
// for folder entries, a metadata sidecar.
package store

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"strconv"

	"github.com/google/uuid"

	"github.com/mhersberg/pictor/internal/codec"
	"github.com/mhersberg/pictor/internal/domain"
)

const (
	thumbPrefix = "thumb_"
	metaName    = "meta.json"
)

// Settings are the compression levels in effect for one save call.
type Settings struct {
	ThumbCompression int
	ImageCompression int
}

// Store implements domain.ArtifactStore on the local filesystem.
// settings is consulted at each save so configuration changes apply to
// the next operation without restarting.
type Store struct {
	root     string // the images directory itself
	settings func() Settings
}

// New creates a Store rooted at the images directory.
func New(root string, settings func() Settings) *Store {
	return &Store{root: root, settings: settings}
}

var _ domain.ArtifactStore = (*Store)(nil)

// EntryDir returns the per-entry directory for a catalog id.
func (s *Store) EntryDir(id int64) string {
	return filepath.Join(s.root, strconv.FormatInt(id, 10))
}

// SaveImage writes the original and its thumbnail for a single-image
// entry. Raw bytes are written verbatim in their detected format; a
// decoded bitmap (clipboard) is encoded as PNG at the configured level.
// The thumbnail is written last, so a failure leaves the entry
// detectably unprepared.
func (s *Store) SaveImage(ctx context.Context, id int64, src domain.ImageSource) (string, string, error) {
	if err := ctx.Err(); err != nil {
		return "", "", err
	}

	dir := s.EntryDir(id)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", "", fmt.Errorf("create entry dir: %w", err)
	}

	cfg := s.settings()

	var (
		img    = src.Image
		format = codec.PNG
		raw    = src.Bytes
	)
	if len(raw) > 0 {
		var err error
		img, format, err = codec.Decode(raw)
		if err != nil {
			return "", "", err
		}
	} else if img == nil {
		return "", "", fmt.Errorf("%w: image source carries neither bytes nor a bitmap", domain.ErrInvalidInput)
	}

	imagePath := filepath.Join(dir, fmt.Sprintf("image_%d.%s", id, format.Ext()))
	if len(raw) > 0 {
		if err := writeFileAtomic(imagePath, raw); err != nil {
			return "", "", fmt.Errorf("write original: %w", err)
		}
	} else {
		data, err := encodeBytes(img, format, cfg.ImageCompression)
		if err != nil {
			return "", "", err
		}
		if err := writeFileAtomic(imagePath, data); err != nil {
			return "", "", fmt.Errorf("write original: %w", err)
		}
	}

	thumbPath := filepath.Join(dir, fmt.Sprintf("thumb_image_%d.png", id))
	thumb, err := codec.Thumbnail(img, cfg.ThumbCompression)
	if err != nil {
		return "", "", err
	}
	if err := writeFileAtomic(thumbPath, thumb); err != nil {
		return "", "", fmt.Errorf("write thumbnail: %w", err)
	}

	return imagePath, thumbPath, nil
}

func encodeBytes(img image.Image, format codec.Format, level int) ([]byte, error) {
	var buf bytes.Buffer
	if err := codec.Encode(&buf, img, format, level); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// writeFileAtomic writes data to a uniquely named temp file in the target
// directory and renames it into place, so readers never observe a
// half-written artifact.
func writeFileAtomic(path string, data []byte) error {
	tmp := path + "." + uuid.NewString() + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return err
	}
	return nil
}
