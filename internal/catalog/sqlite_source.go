package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"

	"github.com/zjrosen/cachebox/internal/asset"
	"github.com/zjrosen/cachebox/internal/log"
)

// schema is the catalog table. A single read-mostly table, bootstrapped
// in place rather than through versioned migrations.
const schema = `
CREATE TABLE IF NOT EXISTS assets (
	path TEXT PRIMARY KEY,
	kind TEXT NOT NULL CHECK (kind IN ('object', 'class')),
	name TEXT NOT NULL,
	class TEXT NOT NULL DEFAULT '',
	parent TEXT NOT NULL DEFAULT '',
	payload BLOB
);
`

// SQLiteSource reads catalog entries from a SQLite database.
type SQLiteSource struct {
	db     *sql.DB
	dbPath string
}

// OpenSQLiteSource opens (creating if needed) the catalog database at path
// and ensures the schema exists.
func OpenSQLiteSource(path string) (*SQLiteSource, error) {
	log.Debug(log.CatCatalog, "Opening catalog database", "path", path)
	db, err := sql.Open("sqlite3", "file:"+path)
	if err != nil {
		return nil, fmt.Errorf("open catalog %s: %w", path, err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping catalog %s: %w", path, err)
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("bootstrap catalog schema: %w", err)
	}
	log.Info(log.CatCatalog, "Connected to catalog database", "path", path)
	return &SQLiteSource{db: db, dbPath: path}, nil
}

// Close closes the database connection.
func (s *SQLiteSource) Close() error {
	return s.db.Close()
}

// Put inserts or replaces an entry.
func (s *SQLiteSource) Put(ctx context.Context, e Entry) error {
	if err := e.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidEntry, err)
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO assets (path, kind, name, class, parent, payload)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		string(e.Path), string(e.Kind), e.Name, e.Class, e.Parent, e.Payload)
	if err != nil {
		return fmt.Errorf("put entry %s: %w", e.Path, err)
	}
	return nil
}

// Resolve returns the entry for the given path.
func (s *SQLiteSource) Resolve(ctx context.Context, path asset.Path) (Entry, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT path, kind, name, class, parent, payload FROM assets WHERE path = ?`,
		string(path))

	e, err := scanEntry(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return Entry{}, fmt.Errorf("%w: %s", ErrNotFound, path)
	}
	if err != nil {
		return Entry{}, fmt.Errorf("resolve %s: %w", path, err)
	}
	return e, nil
}

// List returns every entry, ordered by path.
func (s *SQLiteSource) List(ctx context.Context) ([]Entry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT path, kind, name, class, parent, payload FROM assets ORDER BY path`)
	if err != nil {
		return nil, fmt.Errorf("list entries: %w", err)
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		e, err := scanEntry(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scan entry: %w", err)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list entries: %w", err)
	}
	return out, nil
}

func scanEntry(scan func(dest ...any) error) (Entry, error) {
	var (
		e       Entry
		path    string
		kind    string
		payload []byte
	)
	if err := scan(&path, &kind, &e.Name, &e.Class, &e.Parent, &payload); err != nil {
		return Entry{}, err
	}
	e.Path = asset.Path(path)
	e.Kind = Kind(kind)
	e.Payload = payload
	return e, nil
}
