package storage

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"SignalsDigest/internal/config"
	"SignalsDigest/internal/domain"
	"SignalsDigest/internal/usecase"
)

func TestFileStoreRoundTrip(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "state", "seen_urls.json")
	store := NewFileStore(path)

	seen, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, seen, "missing file is an empty set")

	require.NoError(t, store.Add(ctx, []string{"https://b.example/2", "https://a.example/1", ""}))
	require.NoError(t, store.Add(ctx, []string{"https://a.example/1", "https://c.example/3"}))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.JSONEq(t, `{"seen":["https://a.example/1","https://b.example/2","https://c.example/3"]}`, string(raw))

	seen, err = store.Load(ctx)
	require.NoError(t, err)
	assert.Len(t, seen, 3)
	assert.True(t, seen.Has("https://c.example/3"))
	require.NoError(t, store.Close())
}

func TestFileStoreReadsLegacyState(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "seen_urls.json")
	require.NoError(t, os.WriteFile(path, []byte("{\n  \"seen\": [\"https://x.example/a\"]\n}"), 0o644))

	seen, err := NewFileStore(path).Load(context.Background())
	require.NoError(t, err)
	assert.True(t, seen.Has("https://x.example/a"))
}

func TestFileStoreMatchesDigestState(t *testing.T) {
	t.Parallel()

	url := "https://example.com/news/wind-farm-approved"
	path := filepath.Join(t.TempDir(), "seen_urls.json")
	state := `{"seen": ["` + domain.LegacyKey(url) + `"]}`
	require.NoError(t, os.WriteFile(path, []byte(state), 0o644))

	seen, err := NewFileStore(path).Load(context.Background())
	require.NoError(t, err)

	fresh, drops := usecase.Dedup([]domain.Item{
		{URL: "https://www.example.com/news/wind-farm-approved#top", Title: "Wind farm approved"},
		{URL: "https://example.com/news/battery-tender", Title: "Battery tender"},
	}, seen)
	require.Len(t, fresh, 1)
	assert.Equal(t, "https://example.com/news/battery-tender", fresh[0].URL)
	require.Len(t, drops, 1)
	assert.Equal(t, domain.DropSeen, drops[0].Reason)
}

func TestFileStoreRejectsCorruptState(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "seen_urls.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	_, err := NewFileStore(path).Load(context.Background())
	assert.Error(t, err)
}

func newPostgresMock(t *testing.T) (*SQLStore, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	return NewSQLStore(db, DialectPostgres), mock
}

func TestSQLStoreAddUsesQuestionPlaceholdersForSQLite(t *testing.T) {
	t.Parallel()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	store := NewSQLStore(db, DialectSQLite)
	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO seen_urls .*VALUES \(\?,\?\) ON CONFLICT \(url\) DO NOTHING`).
		WithArgs("https://a.example/1", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, store.Add(context.Background(), []string{"https://a.example/1"}))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLStoreLoad(t *testing.T) {
	t.Parallel()

	store, mock := newPostgresMock(t)
	mock.ExpectQuery(`SELECT url FROM seen_urls`).
		WillReturnRows(sqlmock.NewRows([]string{"url"}).
			AddRow("https://a.example/1").
			AddRow("https://b.example/2"))

	seen, err := store.Load(context.Background())
	require.NoError(t, err)
	assert.Len(t, seen, 2)
	assert.True(t, seen.Has("https://b.example/2"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLStoreAddUsesDollarPlaceholders(t *testing.T) {
	t.Parallel()

	store, mock := newPostgresMock(t)
	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO seen_urls .*VALUES \(\$1,\$2\),\(\$3,\$4\) ON CONFLICT \(url\) DO NOTHING`).
		WithArgs("https://a.example/1", sqlmock.AnyArg(), "https://b.example/2", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectCommit()

	err := store.Add(context.Background(), []string{"https://a.example/1", "https://b.example/2", "https://a.example/1", ""})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLStoreAddRollsBackOnError(t *testing.T) {
	t.Parallel()

	store, mock := newPostgresMock(t)
	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO seen_urls`).WillReturnError(errors.New("disk full"))
	mock.ExpectRollback()

	err := store.Add(context.Background(), []string{"https://a.example/1"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLStoreAddNothing(t *testing.T) {
	t.Parallel()

	store, mock := newPostgresMock(t)
	require.NoError(t, store.Add(context.Background(), nil))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLiteStore(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	dsn := filepath.Join(t.TempDir(), "seen.db")
	store, err := OpenSQLStore(ctx, DialectSQLite, dsn)
	if err != nil && strings.Contains(err.Error(), "CGO_ENABLED=0") {
		t.Skip("sqlite driver requires cgo")
	}
	require.NoError(t, err)
	defer store.Close()

	require.NoError(t, store.Add(ctx, []string{"https://a.example/1", "https://b.example/2"}))
	require.NoError(t, store.Add(ctx, []string{"https://b.example/2", "https://c.example/3"}))

	seen, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"https://a.example/1", "https://b.example/2", "https://c.example/3"}, seen.Sorted())
}

func TestRedisStore(t *testing.T) {
	t.Parallel()

	mr := miniredis.RunT(t)
	ctx := context.Background()

	store, err := OpenRedisStore(ctx, "redis://"+mr.Addr()+"/0", "signals-digest:seen")
	require.NoError(t, err)
	defer store.Close()

	require.NoError(t, store.Add(ctx, []string{"https://a.example/1", "https://b.example/2", "https://a.example/1"}))

	seen, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"https://a.example/1", "https://b.example/2"}, seen.Sorted())

	members, err := mr.SMembers("signals-digest:seen")
	require.NoError(t, err)
	assert.Len(t, members, 2)
}

func TestRedisStoreWithClient(t *testing.T) {
	t.Parallel()

	mr := miniredis.RunT(t)
	store := NewRedisStore(redis.NewClient(&redis.Options{Addr: mr.Addr()}), "k")
	defer store.Close()

	seen, err := store.Load(context.Background())
	require.NoError(t, err)
	assert.Empty(t, seen)
}

func TestOpenSelectsBackend(t *testing.T) {
	t.Parallel()

	store, err := Open(context.Background(), config.StateConfig{Backend: config.BackendFile, Path: filepath.Join(t.TempDir(), "s.json")})
	require.NoError(t, err)
	assert.IsType(t, &FileStore{}, store)

	_, err = Open(context.Background(), config.StateConfig{Backend: "etcd"})
	assert.Error(t, err)

	_, err = Open(context.Background(), config.StateConfig{Backend: config.BackendPostgres})
	assert.Error(t, err, "postgres requires a dsn")
}
