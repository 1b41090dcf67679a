package store

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/mhersberg/pictor/internal/codec"
	"github.com/mhersberg/pictor/internal/domain"
)

// Meta is the sidecar written into folder-entry directories. It lets
// child listings be rebuilt without re-sniffing formats.
type Meta struct {
	ImageCount  int    `json:"image_count"`
	NextIndex   int    `json:"next_index"`
	FolderThumb string `json:"folder_thumb"`
}

// ReadMeta loads the sidecar from a folder-entry directory.
func ReadMeta(dir string) (*Meta, error) {
	data, err := os.ReadFile(filepath.Join(dir, metaName))
	if err != nil {
		return nil, fmt.Errorf("read meta sidecar: %w", err)
	}
	var m Meta
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse meta sidecar: %w", err)
	}
	return &m, nil
}

func writeMeta(dir string, m Meta) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("encode meta sidecar: %w", err)
	}
	if err := writeFileAtomic(filepath.Join(dir, metaName), data); err != nil {
		return fmt.Errorf("write meta sidecar: %w", err)
	}
	return nil
}

// SaveFolder imports every image file directly inside srcDir into the
// per-entry directory: originals copied byte-for-byte under 0-based
// natural-sort indices, a PNG thumbnail per file, a folder-level
// thumbnail from the first file, and the meta sidecar. A folder with no
// qualifying files is an error, not an empty entry.
func (s *Store) SaveFolder(ctx context.Context, id int64, srcDir string) (domain.FolderArtifacts, error) {
	var out domain.FolderArtifacts

	names, err := listImageFiles(srcDir)
	if err != nil {
		return out, err
	}
	if len(names) == 0 {
		return out, fmt.Errorf("%w: %s", domain.ErrEmptyFolder, srcDir)
	}
	natSort(names)

	dir := s.EntryDir(id)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return out, fmt.Errorf("create entry dir: %w", err)
	}

	cfg := s.settings()

	// Folder thumbnail comes from the first file in natural order.
	folderThumb := filepath.Join(dir, "thumb_folder.png")
	firstBytes, err := os.ReadFile(filepath.Join(srcDir, names[0]))
	if err != nil {
		return out, fmt.Errorf("read first file: %w", err)
	}
	firstImg, _, err := codec.Decode(firstBytes)
	if err != nil {
		return out, err
	}
	thumb, err := codec.Thumbnail(firstImg, cfg.ThumbCompression)
	if err != nil {
		return out, err
	}
	if err := writeFileAtomic(folderThumb, thumb); err != nil {
		return out, fmt.Errorf("write folder thumbnail: %w", err)
	}
	slog.Info("created folder thumbnail", "path", folderThumb)

	// Indices are fixed by the natural-sort order before any work is
	// dispatched, so the parallel thumbnailing below cannot reorder them.
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for index, name := range names {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			return s.saveFolderFile(dir, srcDir, name, id, index, cfg)
		})
	}
	if err := g.Wait(); err != nil {
		return out, err
	}

	if err := writeMeta(dir, Meta{
		ImageCount:  len(names),
		NextIndex:   len(names),
		FolderThumb: folderThumb,
	}); err != nil {
		return out, err
	}

	out = domain.FolderArtifacts{Dir: dir, FolderThumb: folderThumb, Count: len(names)}
	return out, nil
}

func (s *Store) saveFolderFile(dir, srcDir, name string, id int64, index int, cfg Settings) error {
	raw, err := os.ReadFile(filepath.Join(srcDir, name))
	if err != nil {
		return fmt.Errorf("read %s: %w", name, err)
	}

	img, format, err := codec.Decode(raw)
	if err != nil {
		return fmt.Errorf("decode %s: %w", name, err)
	}

	imagePath := filepath.Join(dir, fmt.Sprintf("image_%d_%d.%s", id, index, format.Ext()))
	if err := writeFileAtomic(imagePath, raw); err != nil {
		return fmt.Errorf("write %s: %w", name, err)
	}

	thumb, err := codec.Thumbnail(img, cfg.ThumbCompression)
	if err != nil {
		return fmt.Errorf("thumbnail %s: %w", name, err)
	}
	thumbPath := filepath.Join(dir, fmt.Sprintf("thumb_image_%d_%d.png", id, index))
	if err := writeFileAtomic(thumbPath, thumb); err != nil {
		return fmt.Errorf("write thumbnail for %s: %w", name, err)
	}
	return nil
}

// ExpandFolder materializes one view record per image file inside a
// folder entry. Ids are the 0-based listing index; everything but paths
// is inherited from the parent. These are not catalog rows.
func (s *Store) ExpandFolder(img *domain.Image) ([]domain.Image, error) {
	names, err := listImageFiles(img.Path)
	if err != nil {
		return nil, err
	}
	natSort(names)

	children := make([]domain.Image, 0, len(names))
	for index, name := range names {
		stem := strings.TrimSuffix(name, filepath.Ext(name))
		children = append(children, domain.Image{
			ID:            int64(index),
			Path:          filepath.Join(img.Path, name),
			ThumbnailPath: filepath.Join(img.Path, thumbPrefix+stem+".png"),
			Description:   img.Description,
			Tags:          img.Tags,
			CreatedAt:     img.CreatedAt,
			IsFolder:      false,
			IsPrepared:    img.IsPrepared,
		})
	}
	return children, nil
}

// listImageFiles returns the names of qualifying image files directly
// inside dir: allow-listed extension, not a thumbnail, not the sidecar.
func listImageFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read folder: %w", err)
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if strings.HasPrefix(name, thumbPrefix) || name == metaName {
			continue
		}
		if !codec.IsImageExtension(filepath.Ext(name)) {
			continue
		}
		names = append(names, name)
	}
	return names, nil
}
