package cache

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteStore keeps the cache in a single roasts table. The database is
// opened on first use so an unreadable file surfaces as a Load error.
type SQLiteStore struct {
	path    string
	readDB  *sql.DB
	writeDB *sql.DB
	// unreadable is set when the file opened but its rows could not be read.
	unreadable bool
}

func NewSQLiteStore(path string) *SQLiteStore {
	return &SQLiteStore{path: path}
}

func (s *SQLiteStore) Path() string { return s.path }

func (s *SQLiteStore) open(ctx context.Context) error {
	if s.writeDB != nil {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("creating cache dir: %w", err)
	}

	writeDB, err := sql.Open("sqlite", s.path)
	if err != nil {
		return fmt.Errorf("opening write db: %w", err)
	}
	writeDB.SetMaxOpenConns(1)

	if err := initSchema(ctx, writeDB); err != nil {
		writeDB.Close()
		return err
	}

	readDB, err := sql.Open("sqlite", s.path+"?mode=ro")
	if err != nil {
		writeDB.Close()
		return fmt.Errorf("opening read db: %w", err)
	}

	s.readDB = readDB
	s.writeDB = writeDB
	return nil
}

func initSchema(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS roasts (
			id            TEXT PRIMARY KEY,
			title         TEXT NOT NULL,
			link          TEXT NOT NULL DEFAULT '',
			pub_date      TEXT NOT NULL DEFAULT '',
			roast         TEXT NOT NULL,
			original_feed TEXT NOT NULL DEFAULT '',
			persona_name  TEXT NOT NULL DEFAULT '',
			persona_role  TEXT NOT NULL DEFAULT '',
			slug          TEXT NOT NULL,
			created_at    DATETIME NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_roasts_slug ON roasts(slug);
	`)
	if err != nil {
		return fmt.Errorf("initializing schema: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Load(ctx context.Context) (*Cache, error) {
	if err := s.open(ctx); err != nil {
		return New(), err
	}

	rows, err := s.readDB.QueryContext(ctx, `
		SELECT id, title, link, pub_date, roast, original_feed, persona_name, persona_role, slug
		FROM roasts ORDER BY created_at, rowid
	`)
	if err != nil {
		return New(), s.readFailed(ctx, fmt.Errorf("querying roasts: %w", err))
	}
	defer rows.Close()

	c := New()
	for rows.Next() {
		var (
			id string
			e  Entry
		)
		if err := rows.Scan(&id, &e.Title, &e.Link, &e.PubDate, &e.Roast, &e.OriginalFeed, &e.PersonaName, &e.PersonaRole, &e.Slug); err != nil {
			return New(), s.readFailed(ctx, fmt.Errorf("scanning roast: %w", err))
		}
		c.add(id, e)
	}
	if err := rows.Err(); err != nil {
		return New(), s.readFailed(ctx, fmt.Errorf("reading roasts: %w", err))
	}
	return c, nil
}

// readFailed marks the database for replacement unless the read was cut
// short by ctx.
func (s *SQLiteStore) readFailed(ctx context.Context, err error) error {
	if ctx.Err() == nil {
		s.unreadable = true
	}
	return err
}

// Save inserts every entry not yet stored. Stored rows are never updated.
// A database that cannot be opened, or whose rows could not be read by Load,
// is moved aside and replaced.
func (s *SQLiteStore) Save(ctx context.Context, c *Cache) error {
	if err := s.open(ctx); err != nil || s.unreadable {
		if rerr := s.recreate(ctx); rerr != nil {
			if err != nil {
				return err
			}
			return rerr
		}
	}

	tx, err := s.writeDB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO roasts (id, title, link, pub_date, roast, original_feed, persona_name, persona_role, slug, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	now := time.Now()
	for _, id := range c.Keys() {
		e, _ := c.Get(id)
		if _, err := stmt.ExecContext(ctx, id, e.Title, e.Link, e.PubDate, e.Roast, e.OriginalFeed, e.PersonaName, e.PersonaRole, e.Slug, now); err != nil {
			return fmt.Errorf("saving roast %s: %w", id, err)
		}
	}

	return tx.Commit()
}

func (s *SQLiteStore) recreate(ctx context.Context) error {
	if err := s.Close(); err != nil {
		return fmt.Errorf("closing %s: %w", s.path, err)
	}
	if err := s.quarantine(); err != nil {
		return err
	}
	s.unreadable = false
	return s.open(ctx)
}

func (s *SQLiteStore) quarantine() error {
	if _, err := os.Stat(s.path); err != nil {
		return err
	}
	aside := fmt.Sprintf("%s.corrupt-%d", s.path, time.Now().Unix())
	if err := os.Rename(s.path, aside); err != nil {
		return fmt.Errorf("moving aside %s: %w", s.path, err)
	}
	return nil
}

func (s *SQLiteStore) Stats(ctx context.Context) (Stats, error) {
	if err := s.open(ctx); err != nil {
		return Stats{}, err
	}
	var st Stats
	if err := s.readDB.QueryRowContext(ctx, "SELECT COUNT(*) FROM roasts").Scan(&st.Entries); err != nil {
		return Stats{}, fmt.Errorf("counting roasts: %w", err)
	}
	if info, err := os.Stat(s.path); err == nil {
		st.Size = info.Size()
	}
	return st, nil
}

func (s *SQLiteStore) Close() error {
	var errs []error
	if s.readDB != nil {
		errs = append(errs, s.readDB.Close())
	}
	if s.writeDB != nil {
		errs = append(errs, s.writeDB.Close())
	}
	s.readDB, s.writeDB = nil, nil
	for _, e := range errs {
		if e != nil {
			return e
		}
	}
	return nil
}
