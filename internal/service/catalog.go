package service

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/mhersberg/pictor/internal/domain"
)

// Catalog orchestrates registration, search, update, and deletion of
// catalog entries across the row store and the artifact store.
//
// Registration is two-phase: a placeholder row is inserted first so its id
// can name the artifact directory, then the artifacts are written, then the
// row is completed and marked prepared. If the process dies between the
// phases the row stays unprepared; search never surfaces it and Sweep
// cleans it up later.
type Catalog struct {
	images domain.ImageRepository
	tags   domain.TagRepository
	files  domain.ArtifactStore
	logger *slog.Logger
}

// NewCatalog creates a new Catalog.
func NewCatalog(images domain.ImageRepository, tags domain.TagRepository, files domain.ArtifactStore, logger *slog.Logger) *Catalog {
	return &Catalog{images: images, tags: tags, files: files, logger: logger}
}

// RegisterImage stores a single image with its description and tags.
func (s *Catalog) RegisterImage(ctx context.Context, description string, tags []domain.Tag, src domain.ImageSource) (*domain.Image, error) {
	if len(src.Bytes) == 0 && src.Image == nil {
		return nil, fmt.Errorf("%w: image source is empty", domain.ErrInvalidInput)
	}

	id, err := s.images.Insert(ctx, description)
	if err != nil {
		return nil, fmt.Errorf("insert image record: %w", err)
	}

	imagePath, thumbPath, err := s.files.SaveImage(ctx, id, src)
	if err != nil {
		// The unprepared row stays behind for Sweep to collect.
		return nil, fmt.Errorf("save image artifacts: %w", err)
	}

	return s.finishRegistration(ctx, id, domain.ImageUpdate{
		Path:          imagePath,
		ThumbnailPath: thumbPath,
		IsPrepared:    true,
	}, tags)
}

// RegisterFolder stores every image file inside srcDir as one folder entry
// and returns it along with the number of files imported.
func (s *Catalog) RegisterFolder(ctx context.Context, description string, tags []domain.Tag, srcDir string) (*domain.Image, int, error) {
	if srcDir == "" {
		return nil, 0, fmt.Errorf("%w: folder path is empty", domain.ErrInvalidInput)
	}

	id, err := s.images.Insert(ctx, description)
	if err != nil {
		return nil, 0, fmt.Errorf("insert folder record: %w", err)
	}

	artifacts, err := s.files.SaveFolder(ctx, id, srcDir)
	if err != nil {
		return nil, 0, fmt.Errorf("save folder artifacts: %w", err)
	}

	img, err := s.finishRegistration(ctx, id, domain.ImageUpdate{
		Path:          artifacts.Dir,
		ThumbnailPath: artifacts.FolderThumb,
		IsFolder:      true,
		IsPrepared:    true,
	}, tags)
	if err != nil {
		return nil, 0, err
	}
	return img, artifacts.Count, nil
}

func (s *Catalog) finishRegistration(ctx context.Context, id int64, upd domain.ImageUpdate, tags []domain.Tag) (*domain.Image, error) {
	img, err := s.images.Update(ctx, id, upd)
	if err != nil {
		return nil, fmt.Errorf("finish registration: %w", err)
	}

	if len(tags) > 0 {
		if err := s.tags.SetForImage(ctx, id, tags); err != nil {
			return nil, fmt.Errorf("set tags: %w", err)
		}
	}

	return s.hydrate(ctx, img)
}

// Get returns one entry with its tags.
func (s *Catalog) Get(ctx context.Context, id int64) (*domain.Image, error) {
	img, err := s.images.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get image: %w", err)
	}
	return s.hydrate(ctx, img)
}

// Update applies a sparse patch. A non-nil tag slice replaces the entry's
// whole tag set; nil leaves the tags alone.
func (s *Catalog) Update(ctx context.Context, id int64, upd domain.ImageUpdate) (*domain.Image, error) {
	img, err := s.images.Update(ctx, id, upd)
	if err != nil {
		return nil, fmt.Errorf("update image: %w", err)
	}

	if upd.Tags != nil {
		if err := s.tags.SetForImage(ctx, id, upd.Tags); err != nil {
			return nil, fmt.Errorf("set tags: %w", err)
		}
	}

	return s.hydrate(ctx, img)
}

// Delete removes the catalog row, then the artifacts at path. The row
// removal commits first; a failed artifact cleanup is logged and reported
// but never resurrects the row.
func (s *Catalog) Delete(ctx context.Context, id int64, path string, kind domain.DeleteKind) error {
	// A folder-child delete only touches one file inside the entry's
	// directory; the catalog row stays until the directory empties out.
	if kind != domain.DeleteFolderChild {
		if err := s.images.Delete(ctx, id); err != nil {
			return fmt.Errorf("delete image record: %w", err)
		}
	}

	if err := s.files.Delete(path, kind); err != nil {
		s.logger.Error("delete artifacts", "id", id, "path", path, "error", err)
		return fmt.Errorf("delete artifacts: %w", err)
	}

	if kind == domain.DeleteFolderChild {
		if _, err := os.Stat(s.files.EntryDir(id)); os.IsNotExist(err) {
			if err := s.images.Delete(ctx, id); err != nil {
				return fmt.Errorf("delete emptied folder record: %w", err)
			}
		}
	}
	return nil
}

// Search runs the filtered catalog query and hydrates every hit with its
// tags in one batch.
func (s *Catalog) Search(ctx context.Context, filter domain.Filter, page, size int) (domain.Page[domain.Image], error) {
	result, err := s.images.FindAll(ctx, filter, page, size)
	if err != nil {
		return domain.Page[domain.Image]{}, fmt.Errorf("search images: %w", err)
	}

	if len(result.Content) == 0 {
		return result, nil
	}

	ids := make([]int64, len(result.Content))
	for i, img := range result.Content {
		ids[i] = img.ID
	}
	byImage, err := s.tags.ForImages(ctx, ids)
	if err != nil {
		return domain.Page[domain.Image]{}, fmt.Errorf("load tags: %w", err)
	}
	for i := range result.Content {
		result.Content[i].Tags = byImage[result.Content[i].ID]
	}

	return result, nil
}

// Children expands a folder entry into one view record per contained file.
// The records inherit the folder's description and tags and are not
// separate catalog rows.
func (s *Catalog) Children(ctx context.Context, id int64) ([]domain.Image, error) {
	img, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !img.IsFolder {
		return nil, fmt.Errorf("%w: entry %d is not a folder", domain.ErrInvalidInput, id)
	}

	children, err := s.files.ExpandFolder(img)
	if err != nil {
		return nil, fmt.Errorf("expand folder: %w", err)
	}
	return children, nil
}

// Sweep purges unprepared rows older than the cutoff together with
// whatever partial artifacts they left on disk. It returns the number of
// rows removed.
func (s *Catalog) Sweep(ctx context.Context, olderThan time.Time) (int, error) {
	stale, err := s.images.FindStale(ctx, olderThan)
	if err != nil {
		return 0, fmt.Errorf("find stale rows: %w", err)
	}

	removed := 0
	for _, img := range stale {
		if err := s.images.Delete(ctx, img.ID); err != nil {
			return removed, fmt.Errorf("delete stale row %d: %w", img.ID, err)
		}
		dir := s.files.EntryDir(img.ID)
		if err := s.files.Delete(dir, domain.DeleteFolder); err != nil {
			s.logger.Warn("delete stale artifacts", "id", img.ID, "dir", dir, "error", err)
		}
		removed++
	}
	return removed, nil
}

func (s *Catalog) hydrate(ctx context.Context, img *domain.Image) (*domain.Image, error) {
	byImage, err := s.tags.ForImages(ctx, []int64{img.ID})
	if err != nil {
		return nil, fmt.Errorf("load tags: %w", err)
	}
	img.Tags = byImage[img.ID]
	return img, nil
}
