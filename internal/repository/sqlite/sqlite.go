package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	_ "modernc.org/sqlite"

	"github.com/mhersberg/pictor/internal/domain"
	"github.com/mhersberg/pictor/internal/repository/sqlite/migrations"
)

// DB wraps the SQLite handle and hands out the repositories bound to it.
type DB struct {
	SqlDB *sql.DB
}

// New opens the catalog database at the given path and configures it for
// use: WAL mode, foreign key enforcement and a single connection, since
// there is exactly one process talking to the file.
func New(dbPath string) (*DB, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable WAL mode: %w", err)
	}

	// image_tags relies on cascading deletes from both parents.
	if _, err := db.ExecContext(context.Background(), "PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}

	db.SetMaxOpenConns(1)

	if err := db.PingContext(context.Background()); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return &DB{SqlDB: db}, nil
}

// Migrate applies all unapplied schema migrations in order.
func (d *DB) Migrate(ctx context.Context) error {
	return migrations.Run(ctx, d.SqlDB)
}

// Close closes the underlying handle.
func (d *DB) Close() error {
	return d.SqlDB.Close()
}

// Images returns the catalog image repository.
func (d *DB) Images() domain.ImageRepository {
	return &ImageRepository{db: d.SqlDB}
}

// Tags returns the tag repository.
func (d *DB) Tags() domain.TagRepository {
	return &TagRepository{db: d.SqlDB}
}

var _ domain.Database = (*DB)(nil)

// isUniqueConstraintError checks if the error is a SQLite unique
// constraint violation.
func isUniqueConstraintError(err error) bool {
	if err == nil || errors.Is(err, sql.ErrNoRows) {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "unique constraint")
}
