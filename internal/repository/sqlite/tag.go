package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/mhersberg/pictor/internal/domain"
)

// TagRepository implements domain.TagRepository using SQLite.
type TagRepository struct {
	db *sql.DB
}

// NewTagRepository creates a new SQLite-backed TagRepository.
func NewTagRepository(db *DB) *TagRepository {
	return &TagRepository{db: db.SqlDB}
}

// querier is satisfied by both *sql.DB and *sql.Tx so tag resolution can
// run standalone or inside the reconcile transaction.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// GetOrCreate resolves a tag by lowercase name, creating it with the
// given color when absent. A concurrent create losing the UNIQUE race is
// re-resolved by name instead of failing.
func (r *TagRepository) GetOrCreate(ctx context.Context, name string, color domain.TagColor) (*domain.Tag, error) {
	return getOrCreateTag(ctx, r.db, name, color)
}

func getOrCreateTag(ctx context.Context, q querier, name string, color domain.TagColor) (*domain.Tag, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return nil, fmt.Errorf("%w: tag name must not be empty", domain.ErrInvalidInput)
	}
	if _, ok := domain.ParseTagColor(string(color)); !ok {
		color = domain.DefaultTagColor
	}

	if tag, err := getTagByName(ctx, q, name); err == nil {
		return tag, nil
	} else if !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}

	result, err := q.ExecContext(ctx,
		"INSERT INTO tags (name, color) VALUES (?, ?)", name, string(color))
	if err != nil {
		if isUniqueConstraintError(err) {
			// Lost a race with a concurrent create; the tag exists now.
			return getTagByName(ctx, q, name)
		}
		return nil, fmt.Errorf("insert tag: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("get last insert id: %w", err)
	}
	return &domain.Tag{ID: id, Name: name, Color: color}, nil
}

func getTagByName(ctx context.Context, q querier, name string) (*domain.Tag, error) {
	tag := &domain.Tag{}
	var color string
	err := q.QueryRowContext(ctx,
		"SELECT id, name, color FROM tags WHERE name = ?", name,
	).Scan(&tag.ID, &tag.Name, &color)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get tag by name: %w", err)
	}
	tag.Color, _ = domain.ParseTagColor(color)
	return tag, nil
}

// SetForImage replaces the image's full tag set inside one transaction:
// delete every existing relation, then re-insert one row per desired tag,
// resolving or creating each by name. Duplicate names in the desired set
// collapse via INSERT OR IGNORE.
func (r *TagRepository) SetForImage(ctx context.Context, imageID int64, tags []domain.Tag) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM image_tags WHERE image_id = ?", imageID); err != nil {
		return fmt.Errorf("clear image tags: %w", err)
	}

	for _, t := range tags {
		if strings.TrimSpace(t.Name) == "" {
			continue
		}
		tag, err := getOrCreateTag(ctx, tx, t.Name, t.Color)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx,
			"INSERT OR IGNORE INTO image_tags (image_id, tag_id) VALUES (?, ?)",
			imageID, tag.ID); err != nil {
			return fmt.Errorf("link tag %s: %w", tag.Name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// ForImages returns the tag sets for a batch of image ids in one join
// query, keyed by image id.
func (r *TagRepository) ForImages(ctx context.Context, imageIDs []int64) (map[int64][]domain.Tag, error) {
	tagsByImage := make(map[int64][]domain.Tag)
	if len(imageIDs) == 0 {
		return tagsByImage, nil
	}

	ph := make([]string, len(imageIDs))
	args := make([]any, len(imageIDs))
	for i, id := range imageIDs {
		ph[i] = "?"
		args[i] = id
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT it.image_id, t.id, t.name, t.color
		 FROM image_tags it
		 JOIN tags t ON t.id = it.tag_id
		 WHERE it.image_id IN (`+strings.Join(ph, ", ")+`)
		 ORDER BY it.image_id, t.name`, args...)
	if err != nil {
		return nil, fmt.Errorf("query tags for images: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var imageID int64
		var tag domain.Tag
		var color string
		if err := rows.Scan(&imageID, &tag.ID, &tag.Name, &color); err != nil {
			return nil, fmt.Errorf("scan image tag: %w", err)
		}
		tag.Color, _ = domain.ParseTagColor(color)
		tagsByImage[imageID] = append(tagsByImage[imageID], tag)
	}
	return tagsByImage, rows.Err()
}

func (r *TagRepository) List(ctx context.Context) ([]domain.Tag, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT id, name, color FROM tags ORDER BY name")
	if err != nil {
		return nil, fmt.Errorf("list tags: %w", err)
	}
	defer rows.Close()

	var tags []domain.Tag
	for rows.Next() {
		var tag domain.Tag
		var color string
		if err := rows.Scan(&tag.ID, &tag.Name, &color); err != nil {
			return nil, fmt.Errorf("scan tag: %w", err)
		}
		tag.Color, _ = domain.ParseTagColor(color)
		tags = append(tags, tag)
	}
	return tags, rows.Err()
}

// Update applies a sparse patch: the name only when non-empty (lowercase
// normalized), the color always.
func (r *TagRepository) Update(ctx context.Context, id int64, upd domain.TagUpdate) (*domain.Tag, error) {
	tag := &domain.Tag{}
	var color string
	err := r.db.QueryRowContext(ctx,
		"SELECT id, name, color FROM tags WHERE id = ?", id,
	).Scan(&tag.ID, &tag.Name, &color)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get tag: %w", err)
	}

	if name := strings.ToLower(strings.TrimSpace(upd.Name)); name != "" {
		tag.Name = name
	}
	tag.Color = upd.Color
	if _, ok := domain.ParseTagColor(string(tag.Color)); !ok {
		tag.Color = domain.DefaultTagColor
	}

	if _, err := r.db.ExecContext(ctx,
		"UPDATE tags SET name = ?, color = ? WHERE id = ?",
		tag.Name, string(tag.Color), id); err != nil {
		if isUniqueConstraintError(err) {
			return nil, domain.ErrDuplicateTag
		}
		return nil, fmt.Errorf("update tag: %w", err)
	}
	return tag, nil
}

// Delete removes a tag; its image_tags rows cascade, images stay.
func (r *TagRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM tags WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete tag: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if rows == 0 {
		return domain.ErrNotFound
	}
	return nil
}
