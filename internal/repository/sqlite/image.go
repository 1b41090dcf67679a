package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mhersberg/pictor/internal/domain"
)

// ImageRepository implements domain.ImageRepository using SQLite.
type ImageRepository struct {
	db *sql.DB
}

// NewImageRepository creates a new SQLite-backed ImageRepository.
func NewImageRepository(db *DB) *ImageRepository {
	return &ImageRepository{db: db.SqlDB}
}

const imageColumns = "id, path, thumbnail_path, description, created_at, is_folder, is_prepared"

func (r *ImageRepository) Insert(ctx context.Context, description string) (int64, error) {
	now := time.Now().UTC()
	result, err := r.db.ExecContext(ctx,
		`INSERT INTO images (path, thumbnail_path, description, created_at, is_folder, is_prepared)
		 VALUES ('', '', ?, ?, 0, 0)`,
		description, now,
	)
	if err != nil {
		return 0, fmt.Errorf("insert image: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("get last insert id: %w", err)
	}
	return id, nil
}

func (r *ImageRepository) GetByID(ctx context.Context, id int64) (*domain.Image, error) {
	img := &domain.Image{}
	err := r.db.QueryRowContext(ctx,
		"SELECT "+imageColumns+" FROM images WHERE id = ?", id,
	).Scan(&img.ID, &img.Path, &img.ThumbnailPath, &img.Description,
		&img.CreatedAt, &img.IsFolder, &img.IsPrepared)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get image: %w", err)
	}
	return img, nil
}

// Update applies a sparse patch: string fields only when non-empty, the
// boolean flags always. Tag changes are the TagRepository's concern.
func (r *ImageRepository) Update(ctx context.Context, id int64, upd domain.ImageUpdate) (*domain.Image, error) {
	img, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if upd.Path != "" {
		img.Path = upd.Path
	}
	if upd.ThumbnailPath != "" {
		img.ThumbnailPath = upd.ThumbnailPath
	}
	if upd.Description != "" {
		img.Description = upd.Description
	}
	img.IsFolder = upd.IsFolder
	img.IsPrepared = upd.IsPrepared

	_, err = r.db.ExecContext(ctx,
		`UPDATE images SET path = ?, thumbnail_path = ?, description = ?, is_folder = ?, is_prepared = ?
		 WHERE id = ?`,
		img.Path, img.ThumbnailPath, img.Description, img.IsFolder, img.IsPrepared, id,
	)
	if err != nil {
		return nil, fmt.Errorf("update image: %w", err)
	}
	return img, nil
}

// FindAll runs the filtered, sorted, paginated catalog search. Pages are
// 0-based. Only prepared rows are surfaced; a placeholder mid-registration
// never shows up in results.
func (r *ImageRepository) FindAll(ctx context.Context, f domain.Filter, page, size int) (domain.Page[domain.Image], error) {
	var result domain.Page[domain.Image]
	if size <= 0 {
		return result, fmt.Errorf("%w: page size must be positive", domain.ErrInvalidInput)
	}
	if page < 0 {
		return result, fmt.Errorf("%w: page must not be negative", domain.ErrInvalidInput)
	}

	where := []string{"i.is_prepared = 1"}
	var args []any
	var joins, group string

	if len(f.Tags) > 0 {
		joins = ` JOIN image_tags it ON it.image_id = i.id
		 JOIN tags t ON t.id = it.tag_id`
		ph := make([]string, len(f.Tags))
		for i, name := range f.Tags {
			ph[i] = "?"
			args = append(args, strings.ToLower(name))
		}
		where = append(where, "t.name IN ("+strings.Join(ph, ", ")+")")
		// Intersection semantics: an image must carry every requested
		// tag, which after the IN filter means its group has one
		// distinct tag name per requested name.
		group = " GROUP BY i.id HAVING COUNT(DISTINCT t.name) = ?"
	}

	if terms := splitTerms(f.Query); len(terms) > 0 {
		ors := make([]string, len(terms))
		for i, term := range terms {
			ors[i] = `i.description LIKE ? ESCAPE '\'`
			args = append(args, "%"+escapeLike(term)+"%")
		}
		where = append(where, "("+strings.Join(ors, " OR ")+")")
	}

	base := " FROM images i" + joins + " WHERE " + strings.Join(where, " AND ")
	if group != "" {
		args = append(args, len(distinctLower(f.Tags)))
	}

	var total int
	countQuery := "SELECT COUNT(*) FROM (SELECT i.id" + base + group + ")"
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return result, fmt.Errorf("count images: %w", err)
	}

	order := " ORDER BY i.created_at ASC"
	if f.Sort != domain.SortCreatedAsc {
		order = " ORDER BY i.created_at DESC"
	}

	selectQuery := "SELECT i.id, i.path, i.thumbnail_path, i.description, i.created_at, i.is_folder, i.is_prepared" +
		base + group + order + " LIMIT ? OFFSET ?"
	args = append(args, size, page*size)

	rows, err := r.db.QueryContext(ctx, selectQuery, args...)
	if err != nil {
		return result, fmt.Errorf("query images: %w", err)
	}
	defer rows.Close()

	var images []domain.Image
	for rows.Next() {
		var img domain.Image
		if err := rows.Scan(&img.ID, &img.Path, &img.ThumbnailPath, &img.Description,
			&img.CreatedAt, &img.IsFolder, &img.IsPrepared); err != nil {
			return result, fmt.Errorf("scan image: %w", err)
		}
		images = append(images, img)
	}
	if err := rows.Err(); err != nil {
		return result, err
	}

	result.Content = images
	result.TotalPages = (total + size - 1) / size
	result.PageNumber = page
	return result, nil
}

// Delete removes the catalog row inside a transaction; image_tags rows
// cascade. Deleting an id that no longer exists is a success.
func (r *ImageRepository) Delete(ctx context.Context, id int64) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM images WHERE id = ?", id); err != nil {
		return fmt.Errorf("delete image: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// FindStale lists unprepared rows created before the cutoff: registrations
// whose artifact phase never completed.
func (r *ImageRepository) FindStale(ctx context.Context, olderThan time.Time) ([]domain.Image, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+imageColumns+" FROM images WHERE is_prepared = 0 AND created_at < ? ORDER BY created_at",
		olderThan.UTC(),
	)
	if err != nil {
		return nil, fmt.Errorf("find stale images: %w", err)
	}
	defer rows.Close()

	var images []domain.Image
	for rows.Next() {
		var img domain.Image
		if err := rows.Scan(&img.ID, &img.Path, &img.ThumbnailPath, &img.Description,
			&img.CreatedAt, &img.IsFolder, &img.IsPrepared); err != nil {
			return nil, fmt.Errorf("scan stale image: %w", err)
		}
		images = append(images, img)
	}
	return images, rows.Err()
}

// likeEscaper neutralizes LIKE wildcards in user terms so "100%" matches
// the literal characters, paired with an ESCAPE '\' clause.
var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(term string) string {
	return likeEscaper.Replace(term)
}

// splitTerms breaks a search query on '+' into trimmed OR-terms. A query
// without '+' is a single substring term.
func splitTerms(query string) []string {
	var terms []string
	for _, term := range strings.Split(query, "+") {
		if t := strings.TrimSpace(term); t != "" {
			terms = append(terms, t)
		}
	}
	return terms
}

func distinctLower(names []string) []string {
	seen := make(map[string]bool, len(names))
	var out []string
	for _, n := range names {
		l := strings.ToLower(n)
		if !seen[l] {
			seen[l] = true
			out = append(out, l)
		}
	}
	return out
}
