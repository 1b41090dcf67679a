package domain

import "context"

// Database defines lifecycle operations for the catalog database. The
// SQLite implementation owns its own migration files and ordering; the
// rest of the application only sees this interface and the repositories.
type Database interface {
	Migrate(ctx context.Context) error
	Close() error
}
