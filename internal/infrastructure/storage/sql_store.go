package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"

	"SignalsDigest/internal/domain"
	"SignalsDigest/internal/ports"
)

const (
	seenTable    = "seen_urls"
	insertChunk  = 500
	createSchema = `CREATE TABLE IF NOT EXISTS seen_urls (
    url        TEXT PRIMARY KEY,
    first_seen TIMESTAMP NOT NULL
)`
)

// Dialect selects the driver and placeholder style.
type Dialect string

const (
	DialectSQLite   Dialect = "sqlite3"
	DialectPostgres Dialect = "postgres"
)

// SQLStore persists seen URLs in a seen_urls table.
type SQLStore struct {
	db      *sql.DB
	builder sq.StatementBuilderType
	now     func() time.Time
}

var _ ports.SeenStore = (*SQLStore)(nil)

// NewSQLStore wires an open database; queries use ? for SQLite and $n for Postgres.
func NewSQLStore(db *sql.DB, dialect Dialect) *SQLStore {
	var format sq.PlaceholderFormat = sq.Question
	if dialect == DialectPostgres {
		format = sq.Dollar
	}
	return &SQLStore{
		db:      db,
		builder: sq.StatementBuilder.PlaceholderFormat(format),
		now:     time.Now,
	}
}

// OpenSQLStore opens dsn with the dialect's driver and ensures the schema.
func OpenSQLStore(ctx context.Context, dialect Dialect, dsn string) (*SQLStore, error) {
	if dsn == "" {
		return nil, fmt.Errorf("%s store: empty dsn", dialect)
	}
	db, err := sql.Open(string(dialect), dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", dialect, err)
	}
	if dialect == DialectSQLite {
		db.SetMaxOpenConns(1)
	}

	store := NewSQLStore(db, dialect)
	if err := store.EnsureSchema(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// EnsureSchema creates the seen_urls table when missing.
func (s *SQLStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, createSchema); err != nil {
		return fmt.Errorf("create %s: %w", seenTable, err)
	}
	return nil
}

// Load returns every stored URL.
func (s *SQLStore) Load(ctx context.Context) (domain.SeenSet, error) {
	query, args, err := s.builder.Select("url").From(seenTable).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query seen: %w", err)
	}

	seen := domain.NewSeenSet()
	for rows.Next() {
		var url string
		if err := rows.Scan(&url); err != nil {
			_ = rows.Close()
			return nil, fmt.Errorf("scan url: %w", err)
		}
		seen.Add(url)
	}

	if rowsErr := rows.Err(); rowsErr != nil {
		_ = rows.Close()
		return nil, fmt.Errorf("rows iteration: %w", rowsErr)
	}

	if closeErr := rows.Close(); closeErr != nil {
		return nil, fmt.Errorf("close rows: %w", closeErr)
	}

	return seen, nil
}

// Add inserts urls in one transaction, ignoring ones already stored.
func (s *SQLStore) Add(ctx context.Context, urls []string) error {
	urls = compact(urls)
	if len(urls) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}

	now := s.now().UTC()
	for start := 0; start < len(urls); start += insertChunk {
		end := min(start+insertChunk, len(urls))

		insert := s.builder.Insert(seenTable).Columns("url", "first_seen")
		for _, u := range urls[start:end] {
			insert = insert.Values(u, now)
		}
		query, args, err := insert.Suffix("ON CONFLICT (url) DO NOTHING").ToSql()
		if err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("build insert: %w", err)
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("insert seen: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// Close releases the database handle.
func (s *SQLStore) Close() error {
	return s.db.Close()
}

// compact drops empty and repeated URLs, keeping order.
func compact(urls []string) []string {
	seen := make(map[string]struct{}, len(urls))
	out := make([]string, 0, len(urls))
	for _, u := range urls {
		if u == "" {
			continue
		}
		if _, ok := seen[u]; ok {
			continue
		}
		seen[u] = struct{}{}
		out = append(out, u)
	}
	return out
}
