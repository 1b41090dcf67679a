package domain

import "context"

// Tag is a named, colored label. Names are unique under lowercase
// comparison; the color is presentation-only.
type Tag struct {
	ID    int64
	Name  string
	Color TagColor
}

// TagUpdate is a sparse patch: an empty Name leaves the name alone, the
// color is always written.
type TagUpdate struct {
	Name  string
	Color TagColor
}

// TagRepository maintains tags and the image<->tag relation.
type TagRepository interface {
	// GetOrCreate resolves a tag by case-normalized name, inserting it
	// with the given color when absent. An existing tag's color is not
	// changed by this path.
	GetOrCreate(ctx context.Context, name string, color TagColor) (*Tag, error)
	// SetForImage replaces the image's full tag set: all existing
	// relations are deleted and one row per desired tag is re-inserted,
	// inside a single transaction.
	SetForImage(ctx context.Context, imageID int64, tags []Tag) error
	// ForImages returns the tag sets for a batch of image ids in one
	// join query, keyed by image id. Ids without tags are absent.
	ForImages(ctx context.Context, imageIDs []int64) (map[int64][]Tag, error)
	List(ctx context.Context) ([]Tag, error)
	Update(ctx context.Context, id int64, upd TagUpdate) (*Tag, error)
	Delete(ctx context.Context, id int64) error
}
