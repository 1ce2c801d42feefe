package docstore

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/ZaguanLabs/blocktl"
	_ "github.com/mattn/go-sqlite3"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

var pageColumns = []string{"id", "title", "content", "source_id", "language", "created_at", "updated_at"}

// SQLiteStore is a Store backed by a SQLite database file.
type SQLiteStore struct {
	db *sql.DB
	sq sq.StatementBuilderType
}

// OpenSQLite opens the database at dbPath, creating its directory, and
// applies pending migrations.
func OpenSQLite(dbPath string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("make db dir: %w", err)
	}
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// One connection serializes writers and keeps the pragmas in effect.
	db.SetMaxOpenConns(1)
	pragmas := []string{
		"PRAGMA journal_mode = WAL;",
		"PRAGMA synchronous = NORMAL;",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("pragma %q: %w", p, err)
		}
	}
	if err := applyMigrations(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &SQLiteStore{db: db, sq: sq.StatementBuilder}, nil
}

func applyMigrations(db *sql.DB) error {
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS schema_migrations (
        id INTEGER PRIMARY KEY AUTOINCREMENT,
        name TEXT NOT NULL UNIQUE,
        applied_at TEXT NOT NULL
    )`); err != nil {
		return fmt.Errorf("create schema_migrations: %w", err)
	}
	entries, err := fs.ReadDir(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("read migrations: %w", err)
	}
	var files []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".sql") {
			files = append(files, e.Name())
		}
	}
	sort.Strings(files)
	for _, name := range files {
		var n int
		err := db.QueryRow(`SELECT 1 FROM schema_migrations WHERE name = ?`, name).Scan(&n)
		if err == nil {
			continue
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("check migration %s: %w", name, err)
		}
		b, err := migrationsFS.ReadFile(path.Join("migrations", name))
		if err != nil {
			return fmt.Errorf("read migration %s: %w", name, err)
		}
		if _, err := db.Exec(string(b)); err != nil {
			return fmt.Errorf("apply migration %s: %w", name, err)
		}
		if _, err := db.Exec(`INSERT INTO schema_migrations(name, applied_at) VALUES (?, ?)`, name, time.Now().UTC().Format(time.RFC3339)); err != nil {
			return fmt.Errorf("record migration %s: %w", name, err)
		}
	}
	return nil
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// DB returns the underlying handle so other stores can share the file.
func (s *SQLiteStore) DB() *sql.DB {
	return s.db
}

// Get implements Store.
func (s *SQLiteStore) Get(ctx context.Context, id string) (*blocktl.Document, error) {
	p, err := s.Page(ctx, id)
	if err != nil {
		return nil, err
	}
	return p.Document(), nil
}

// Page implements Store.
func (s *SQLiteStore) Page(ctx context.Context, id string) (*Page, error) {
	q := s.sq.Select(pageColumns...).From("documents").Where(sq.Eq{"id": id})
	sqlStr, args, _ := q.ToSql()
	p, err := scanPage(s.db.QueryRowContext(ctx, sqlStr, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, blocktl.ErrPostNotFound
	}
	if err != nil {
		return nil, blocktl.WrapError(blocktl.CodeStorage, "read document "+id, err)
	}
	return p, nil
}

// Save implements Store.
func (s *SQLiteStore) Save(ctx context.Context, p *Page) (bool, error) {
	var created bool
	err := withTx(ctx, s.db, func(tx *sql.Tx) error {
		now := time.Now().UTC()
		var createdAt string
		q := s.sq.Select("created_at").From("documents").Where(sq.Eq{"id": p.ID})
		sqlStr, args, _ := q.ToSql()
		err := tx.QueryRowContext(ctx, sqlStr, args...).Scan(&createdAt)
		switch {
		case errors.Is(err, sql.ErrNoRows):
			created = true
			p.CreatedAt = now
			ins := s.sq.Insert("documents").Columns(pageColumns...).
				Values(p.ID, p.Title, p.Content, p.SourceID, p.Language, now.Format(time.RFC3339), now.Format(time.RFC3339))
			sqlStr, args, _ = ins.ToSql()
		case err != nil:
			return err
		default:
			p.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
			upd := s.sq.Update("documents").
				Set("title", p.Title).
				Set("content", p.Content).
				Set("source_id", p.SourceID).
				Set("language", p.Language).
				Set("updated_at", now.Format(time.RFC3339)).
				Where(sq.Eq{"id": p.ID})
			sqlStr, args, _ = upd.ToSql()
		}
		if _, err := tx.ExecContext(ctx, sqlStr, args...); err != nil {
			return err
		}
		p.UpdatedAt = now
		return nil
	})
	if err != nil {
		return false, blocktl.WrapError(blocktl.CodeStorage, "save document "+p.ID, err)
	}
	return created, nil
}

// Localized implements Store.
func (s *SQLiteStore) Localized(ctx context.Context, sourceID string) ([]*Page, error) {
	q := s.sq.Select(pageColumns...).From("documents").Where(sq.Eq{"source_id": sourceID}).OrderBy("language")
	sqlStr, args, _ := q.ToSql()
	rows, err := s.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, blocktl.WrapError(blocktl.CodeStorage, "list localized pages", err)
	}
	defer rows.Close()

	var out []*Page
	for rows.Next() {
		p, err := scanPage(rows)
		if err != nil {
			return nil, blocktl.WrapError(blocktl.CodeStorage, "list localized pages", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanPage(row scanner) (*Page, error) {
	var p Page
	var created, updated string
	if err := row.Scan(&p.ID, &p.Title, &p.Content, &p.SourceID, &p.Language, &created, &updated); err != nil {
		return nil, err
	}
	p.CreatedAt, _ = time.Parse(time.RFC3339, created)
	p.UpdatedAt, _ = time.Parse(time.RFC3339, updated)
	return &p, nil
}

func withTx(ctx context.Context, db *sql.DB, fn func(*sql.Tx) error) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

// Verify SQLiteStore implements Store
var _ Store = (*SQLiteStore)(nil)
