package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	_ "modernc.org/sqlite" // SQLite driver

	"geotext/internal/domain"
	"geotext/internal/logging"
	"geotext/internal/store"
	"geotext/internal/store/sqlite/migrations"
)

var errReadOnly = errors.New("write in read-only transaction")

// Store is a SQLite-backed location store.
type Store struct {
	db   *sql.DB
	path string
}

var _ domain.LocationStore = (*Store)(nil)

// NewStore opens (creating if needed) the database at path and applies migrations.
func NewStore(path string) (*Store, error) {
	if path == "" {
		return nil, fmt.Errorf("%w: empty database path", domain.ErrInvalidInput)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("connecting to database: %w", err)
	}

	s := &Store{db: db, path: path}
	if err := s.migrate(migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	var version string
	if err := db.QueryRow("SELECT sqlite_version()").Scan(&version); err == nil {
		logging.Debug("Connected to SQLite", "version", version, "path", path)
	}
	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// Update runs fn in a read-write transaction.
func (s *Store) Update(ctx context.Context, fn func(domain.LocationTx) error) error {
	return store.Scoped(ctx, s.begin, func(tx *sql.Tx) error {
		return fn(&txn{ctx: ctx, tx: tx, writable: true})
	})
}

// View runs fn in a transaction that refuses writes.
func (s *Store) View(ctx context.Context, fn func(domain.LocationTx) error) error {
	return store.Scoped(ctx, s.begin, func(tx *sql.Tx) error {
		return fn(&txn{ctx: ctx, tx: tx})
	})
}

func (s *Store) begin(ctx context.Context) (*sql.Tx, error) {
	return s.db.BeginTx(ctx, nil)
}

// migrate runs all pending up migrations and records their versions.
func (s *Store) migrate(fsys fs.FS) error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	var currentVersion int
	row := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}
	var upFiles []string
	for _, entry := range entries {
		if strings.HasSuffix(entry.Name(), ".up.sql") {
			upFiles = append(upFiles, entry.Name())
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue
		}
		if version <= currentVersion {
			continue
		}
		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}
		if _, err := s.db.Exec(string(content)); err != nil {
			return fmt.Errorf("executing migration %s: %w", name, err)
		}
		if _, err := s.db.Exec("INSERT INTO schema_migrations (version) VALUES (?)", version); err != nil {
			return fmt.Errorf("recording migration %s: %w", name, err)
		}
		logging.Debug("Applied migration", "name", name)
	}
	return nil
}

// txn implements domain.LocationTx over a *sql.Tx.
type txn struct {
	ctx      context.Context
	tx       *sql.Tx
	writable bool
}

var _ domain.LocationTx = (*txn)(nil)

func (t *txn) Location(name string) (domain.LocationRecord, bool, error) {
	row := t.tx.QueryRowContext(t.ctx, `
		SELECT name, lon, lat, class, type FROM locations WHERE name = ?
	`, name)
	var rec domain.LocationRecord
	if err := row.Scan(&rec.Name, &rec.Lon, &rec.Lat, &rec.Class, &rec.Type); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.LocationRecord{}, false, nil
		}
		return domain.LocationRecord{}, false, fmt.Errorf("scanning location: %w", err)
	}
	return rec, true, nil
}

func (t *txn) Locations() ([]domain.LocationRecord, error) {
	rows, err := t.tx.QueryContext(t.ctx, `
		SELECT name, lon, lat, class, type FROM locations ORDER BY name
	`)
	if err != nil {
		return nil, fmt.Errorf("querying locations: %w", err)
	}
	defer rows.Close()

	var out []domain.LocationRecord
	for rows.Next() {
		var rec domain.LocationRecord
		if err := rows.Scan(&rec.Name, &rec.Lon, &rec.Lat, &rec.Class, &rec.Type); err != nil {
			return nil, fmt.Errorf("scanning location: %w", err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (t *txn) PutLocation(rec domain.LocationRecord) error {
	if !t.writable {
		return errReadOnly
	}
	_, err := t.tx.ExecContext(t.ctx, `
		INSERT INTO locations (name, lon, lat, class, type)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET
			lon = excluded.lon,
			lat = excluded.lat,
			class = excluded.class,
			type = excluded.type
	`, rec.Name, rec.Lon, rec.Lat, rec.Class, rec.Type)
	if err != nil {
		return fmt.Errorf("saving location: %w", err)
	}
	if _, err := t.tx.ExecContext(t.ctx, "DELETE FROM unknown_locations WHERE name = ?", rec.Name); err != nil {
		return fmt.Errorf("clearing unknown location: %w", err)
	}
	return nil
}

func (t *txn) DeleteLocation(name string) error {
	if !t.writable {
		return errReadOnly
	}
	if _, err := t.tx.ExecContext(t.ctx, "DELETE FROM locations WHERE name = ?", name); err != nil {
		return fmt.Errorf("deleting location: %w", err)
	}
	return nil
}

func (t *txn) IsUnknown(name string) (bool, error) {
	var n int
	err := t.tx.QueryRowContext(t.ctx, "SELECT COUNT(*) FROM unknown_locations WHERE name = ?", name).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("checking unknown location: %w", err)
	}
	return n > 0, nil
}

func (t *txn) UnknownNames() ([]string, error) {
	rows, err := t.tx.QueryContext(t.ctx, "SELECT name FROM unknown_locations ORDER BY name")
	if err != nil {
		return nil, fmt.Errorf("querying unknown locations: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scanning unknown location: %w", err)
		}
		out = append(out, name)
	}
	return out, rows.Err()
}

func (t *txn) PutUnknown(name string) (bool, error) {
	if !t.writable {
		return false, errReadOnly
	}
	_, known, err := t.Location(name)
	if err != nil {
		return false, err
	}
	if known {
		return false, domain.ErrAlreadyKnown
	}
	res, err := t.tx.ExecContext(t.ctx, `
		INSERT INTO unknown_locations (name) VALUES (?)
		ON CONFLICT(name) DO NOTHING
	`, name)
	if err != nil {
		return false, fmt.Errorf("saving unknown location: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("saving unknown location: %w", err)
	}
	return n > 0, nil
}

func (t *txn) DeleteUnknown(name string) error {
	if !t.writable {
		return errReadOnly
	}
	if _, err := t.tx.ExecContext(t.ctx, "DELETE FROM unknown_locations WHERE name = ?", name); err != nil {
		return fmt.Errorf("deleting unknown location: %w", err)
	}
	return nil
}
