package store

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/mhersberg/pictor/internal/domain"
)

// Delete removes on-disk artifacts according to the deletion context the
// caller supplies. Paths outside the images root are refused outright,
// whatever the kind; delete paths reach this layer from client requests.
// Missing files and directories are treated as already deleted;
// permission and I/O failures propagate.
func (s *Store) Delete(path string, kind domain.DeleteKind) error {
	path = filepath.Clean(path)
	if !strings.HasPrefix(path, s.root+string(filepath.Separator)) {
		return fmt.Errorf("%w: path %s is outside the images root", domain.ErrInvalidInput, path)
	}
	slog.Info("deleting artifacts", "path", path, "kind", kind)

	switch kind {
	case domain.DeleteFolderChild:
		if err := s.deleteFileWithThumb(path); err != nil {
			return err
		}
		parent := filepath.Dir(path)
		n, err := countImageFiles(parent)
		if err != nil {
			return err
		}
		if n == 0 {
			return s.deleteTree(parent)
		}
		return nil

	case domain.DeleteFile:
		if err := s.deleteFileWithThumb(path); err != nil {
			return err
		}
		// A single image lives alone in its per-entry directory; remove
		// the directory for symmetry with how it was created.
		return s.deleteTree(filepath.Dir(path))

	case domain.DeleteFolder:
		return s.deleteTree(path)

	default:
		return fmt.Errorf("%w: unknown delete kind %d", domain.ErrInvalidInput, kind)
	}
}

// deleteFileWithThumb removes one file and its matching thumbnail.
// Thumbnails of catalog files named image_* are thumb_<stem>.png; for
// anything else the thumb name is the file name with the prefix added.
func (s *Store) deleteFileWithThumb(path string) error {
	if err := os.Remove(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			slog.Debug("file already gone", "path", path)
			return nil
		}
		return fmt.Errorf("delete file: %w", err)
	}
	slog.Info("deleted file", "path", path)

	name := filepath.Base(path)
	var thumbName string
	if strings.HasPrefix(name, "image_") {
		thumbName = thumbPrefix + strings.TrimSuffix(name, filepath.Ext(name)) + ".png"
	} else {
		thumbName = thumbPrefix + name
	}
	thumbPath := filepath.Join(filepath.Dir(path), thumbName)
	if err := os.Remove(thumbPath); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("delete thumbnail: %w", err)
	}
	slog.Info("deleted thumbnail", "path", thumbPath)
	return nil
}

// deleteTree removes a directory recursively. The images root itself is
// never removed, checked by directory name before anything happens.
func (s *Store) deleteTree(dir string) error {
	if filepath.Base(dir) == filepath.Base(s.root) {
		return fmt.Errorf("refusing to delete images root %s", dir)
	}
	if _, err := os.Stat(dir); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			slog.Warn("folder already gone", "path", dir)
			return nil
		}
		return fmt.Errorf("stat folder: %w", err)
	}
	if err := os.RemoveAll(dir); err != nil {
		return fmt.Errorf("delete folder: %w", err)
	}
	slog.Info("deleted folder", "path", dir)
	return nil
}

// countImageFiles counts qualifying image files in dir, excluding
// thumbnails and the sidecar. A missing directory counts as empty.
func countImageFiles(dir string) (int, error) {
	names, err := listImageFiles(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return 0, nil
		}
		return 0, err
	}
	return len(names), nil
}
