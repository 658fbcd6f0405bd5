package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"
	"entgo.io/ent/dialect/sql/schema"
	"entgo.io/ent/schema/field"

	// Pure Go SQLite driver (no CGO).
	_ "modernc.org/sqlite"
)

const (
	kvTableName  = "kv_records"
	colKey       = "record_key"
	colValue     = "record_value"
	colUpdatedAt = "updated_at"
)

var (
	kvColumns = []*schema.Column{
		{Name: colKey, Type: field.TypeString, Unique: true},
		{Name: colValue, Type: field.TypeBytes},
		{Name: colUpdatedAt, Type: field.TypeInt64},
	}
	kvTable = &schema.Table{
		Name:       kvTableName,
		Columns:    kvColumns,
		PrimaryKey: []*schema.Column{kvColumns[0]},
	}
)

// SQLite is a KV backed by a single SQLite table.
type SQLite struct {
	db  *sql.DB
	drv *entsql.Driver

	// mu serializes read-modify-write cycles within this process.
	mu sync.Mutex
}

// OpenSQLite connects to the SQLite database at dsn.
// It applies recommended pragmas and runs auto-migration.
func OpenSQLite(dsn string) (*SQLite, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// Pragmas are per connection.
	db.SetMaxOpenConns(1)

	if err := applyPragmas(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply pragmas: %w", err)
	}

	drv := entsql.OpenDB(dialect.SQLite, db)
	m, err := schema.NewMigrate(drv)
	if err != nil {
		drv.Close()
		return nil, fmt.Errorf("auto-migrate: %w", err)
	}
	if err := m.Create(context.Background(), kvTable); err != nil {
		drv.Close()
		return nil, fmt.Errorf("auto-migrate: %w", err)
	}

	return &SQLite{db: db, drv: drv}, nil
}

// DB returns the underlying *sql.DB for raw queries.
func (s *SQLite) DB() *sql.DB {
	return s.db
}

// Close closes the database connection.
func (s *SQLite) Close() error {
	return s.drv.Close()
}

type querier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func builder() *entsql.DialectBuilder {
	return entsql.Dialect(dialect.SQLite)
}

func getValue(ctx context.Context, q querier, key string) ([]byte, error) {
	query, args := builder().
		Select(colValue).
		From(entsql.Table(kvTableName)).
		Where(entsql.EQ(colKey, key)).
		Query()
	var v []byte
	err := q.QueryRowContext(ctx, query, args...).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", key, err)
	}
	return v, nil
}

func putValue(ctx context.Context, q querier, key string, value []byte) error {
	query, args := builder().
		Insert(kvTableName).
		Columns(colKey, colValue, colUpdatedAt).
		Values(key, value, time.Now().UnixMilli()).
		OnConflict(
			entsql.ConflictColumns(colKey),
			entsql.ResolveWithNewValues(),
		).
		Query()
	if _, err := q.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("put %s: %w", key, err)
	}
	return nil
}

func (s *SQLite) Get(ctx context.Context, key string) ([]byte, error) {
	return getValue(ctx, s.db, key)
}

func (s *SQLite) Put(ctx context.Context, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return putValue(ctx, s.db, key, value)
}

func (s *SQLite) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	query, args := builder().
		Delete(kvTableName).
		Where(entsql.EQ(colKey, key)).
		Query()
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("delete %s: %w", key, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete %s: %w", key, err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SQLite) Update(ctx context.Context, key string, fn UpdateFunc) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	old, err := getValue(ctx, tx, key)
	found := err == nil
	if err != nil && !errors.Is(err, ErrNotFound) {
		return err
	}

	value, write, err := fn(old, found)
	if err != nil {
		return err
	}
	if !write {
		return nil
	}
	if err := putValue(ctx, tx, key, value); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *SQLite) Scan(ctx context.Context, prefix string, fn func(string, []byte) error) error {
	query, args := builder().
		Select(colKey, colValue).
		From(entsql.Table(kvTableName)).
		Where(entsql.HasPrefix(colKey, prefix)).
		OrderBy(colKey).
		Query()
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("scan %s: %w", prefix, err)
	}
	defer rows.Close()

	type kv struct {
		key   string
		value []byte
	}
	var records []kv
	for rows.Next() {
		var r kv
		if err := rows.Scan(&r.key, &r.value); err != nil {
			return fmt.Errorf("scan %s: %w", prefix, err)
		}
		// LIKE treats '_' as a wildcard.
		if strings.HasPrefix(r.key, prefix) {
			records = append(records, r)
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("scan %s: %w", prefix, err)
	}
	// The single connection must be released before fn can touch the store.
	rows.Close()

	for _, r := range records {
		if err := fn(r.key, r.value); err != nil {
			return err
		}
	}
	return nil
}

// applyPragmas configures SQLite for optimal single-user performance.
func applyPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
		"PRAGMA synchronous = NORMAL",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return fmt.Errorf("%s: %w", p, err)
		}
	}
	return nil
}

// DefaultDBPath resolves the database file path in priority order:
// 1. LESSONPLAYER_DB environment variable
// 2. $XDG_DATA_HOME/lessonplayer/lessonplayer.db
// 3. ~/.local/share/lessonplayer/lessonplayer.db
func DefaultDBPath() (string, error) {
	if p := os.Getenv("LESSONPLAYER_DB"); p != "" {
		return p, EnsureDir(p)
	}

	dataHome := os.Getenv("XDG_DATA_HOME")
	if dataHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		dataHome = filepath.Join(home, ".local", "share")
	}

	p := filepath.Join(dataHome, "lessonplayer", "lessonplayer.db")
	return p, EnsureDir(p)
}

// EnsureDir creates the parent directory of path if it doesn't exist.
func EnsureDir(path string) error {
	dir := filepath.Dir(path)
	return os.MkdirAll(dir, 0o755)
}
