package domain

import (
	"context"
	"image"
	"time"
)

// Image is one catalog entry: either a single image file or a folder of
// images registered as one unit. Folder entries point at the containing
// directory and carry the thumbnail of their first file (natural order).
type Image struct {
	ID            int64
	Path          string
	ThumbnailPath string
	Description   string
	Tags          []Tag
	CreatedAt     time.Time
	IsFolder      bool
	IsPrepared    bool // false while the row exists but artifacts are not yet on disk
}

// ImageUpdate is a sparse patch. String fields are only written when
// non-empty; Tags replaces the full association set when non-nil. The
// boolean flags are always written because "unset" and false are not
// distinguishable for them.
type ImageUpdate struct {
	Path          string
	ThumbnailPath string
	Description   string
	Tags          []Tag
	IsFolder      bool
	IsPrepared    bool
}

// SortOrder selects the creation-time ordering of search results.
type SortOrder string

const (
	SortCreatedAsc  SortOrder = "created_asc"
	SortCreatedDesc SortOrder = "created_desc"
)

// Filter narrows a catalog search. Tags require an image to carry every
// named tag (intersection, not union). Query matches the description by
// substring; terms separated by '+' are combined with OR.
type Filter struct {
	Query string
	Tags  []string
	Sort  SortOrder
}

// Page is one page of results plus the data a pager needs.
type Page[T any] struct {
	Content    []T
	TotalPages int
	PageNumber int
}

// ImageSource is one registerable input: encoded bytes read from a file or
// a clipboard path, or an already-decoded bitmap handed over by the
// clipboard. Bytes win when both are set so the original encoding survives
// on disk untouched.
type ImageSource struct {
	Bytes []byte
	Image image.Image
}

// FolderArtifacts describes what a folder import wrote to disk.
type FolderArtifacts struct {
	Dir         string // per-entry directory holding the copied originals
	FolderThumb string // thumbnail of the first file in natural order
	Count       int    // number of image files imported
}

// DeleteKind tells the artifact store what the path being deleted
// represents. The caller always knows this from context; it is never
// inferred from the shape of the path.
type DeleteKind int

const (
	// DeleteFile removes a top-level single image and its per-entry directory.
	DeleteFile DeleteKind = iota
	// DeleteFolder removes a top-level folder entry's whole directory tree.
	DeleteFolder
	// DeleteFolderChild removes one file inside an expanded folder view,
	// plus the folder itself once no image files remain.
	DeleteFolderChild
)

// ImageRepository handles catalog row persistence.
type ImageRepository interface {
	// Insert creates a placeholder row with empty paths and IsPrepared
	// false, returning the new id so the caller can name the artifact
	// directory before the second-phase update.
	Insert(ctx context.Context, description string) (int64, error)
	GetByID(ctx context.Context, id int64) (*Image, error)
	Update(ctx context.Context, id int64, upd ImageUpdate) (*Image, error)
	FindAll(ctx context.Context, filter Filter, page, size int) (Page[Image], error)
	// Delete is idempotent: deleting an id that no longer exists succeeds.
	Delete(ctx context.Context, id int64) error
	// FindStale lists unprepared rows created before the cutoff, i.e.
	// registrations that never finished writing their artifacts.
	FindStale(ctx context.Context, olderThan time.Time) ([]Image, error)
}

// ArtifactStore owns the on-disk layout under the images root.
type ArtifactStore interface {
	SaveImage(ctx context.Context, id int64, src ImageSource) (imagePath, thumbPath string, err error)
	SaveFolder(ctx context.Context, id int64, srcDir string) (FolderArtifacts, error)
	// ExpandFolder materializes one view record per file inside a folder
	// entry. The records inherit the parent's description, tags and
	// timestamps and are not separate catalog rows.
	ExpandFolder(img *Image) ([]Image, error)
	Delete(path string, kind DeleteKind) error
	// EntryDir returns the per-entry directory path for an id, whether or
	// not it exists yet.
	EntryDir(id int64) string
}
