package history

import (
	"bytes"
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/raysh454/crumb/internal/model"
	"github.com/raysh454/crumb/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type storeFactory func(t *testing.T, capacity int) Store

func newMemory(t *testing.T, capacity int) Store {
	t.Helper()
	return NewMemoryStore(capacity, &testutil.DummyLogger{})
}

func newSQLiteMemory(t *testing.T, capacity int) Store {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := sql.Open("sqlite", fmt.Sprintf("file:%s?mode=memory&cache=shared", name))
	require.NoError(t, err)
	s, err := NewSQLiteStoreFromDB(db, capacity, &testutil.DummyLogger{})
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func newPostgres(t *testing.T, capacity int) Store {
	t.Helper()
	dsn := os.Getenv("CRUMB_TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("CRUMB_TEST_POSTGRES_DSN not set")
	}
	s, err := NewPostgresStore(context.Background(), dsn, capacity, &testutil.DummyLogger{})
	require.NoError(t, err)
	require.NoError(t, s.Clear(context.Background()))
	t.Cleanup(func() { _ = s.Close() })
	return s
}

var factories = map[string]storeFactory{
	"memory":   newMemory,
	"sqlite":   newSQLiteMemory,
	"postgres": newPostgres,
}

func fullSnapshot(ts int64) *model.ScanSnapshot {
	return &model.ScanSnapshot{
		Timestamp:       ts,
		Score:           87,
		TotalCookies:    42,
		TrackingCookies: 12,
		UniqueDomains:   9,
		StorageSizeMB:   1.375,
		Categories:      map[model.Category]int{model.CategoryAnalytics: 7, model.CategoryAdvertising: 5},
		Inventory:       []string{".example.com\t_ga", "example.com\tsid"},
		Analysis: &model.PrivacyAnalysis{
			Score:           87,
			Breakdown:       map[model.Category]int{model.CategoryAnalytics: 7},
			Recommendations: []model.Recommendation{{Action: "Block advertising cookies", Description: "d", Impact: 8}},
			HighRiskItems:   []model.HighRiskItem{{Severity: model.RiskCritical, Title: "t", Cookies: []string{"fp"}}},
			Deductions:      []model.Deduction{{Type: "tracking", Count: 7, Points: 5}},
		},
	}
}

func TestStores(t *testing.T) {
	for name, factory := range factories {
		factory := factory
		t.Run(name, func(t *testing.T) {
			t.Run("RoundTrip", func(t *testing.T) { testRoundTrip(t, factory) })
			t.Run("EmptyLatest", func(t *testing.T) { testEmptyLatest(t, factory) })
			t.Run("Eviction", func(t *testing.T) { testEviction(t, factory) })
			t.Run("OrderingWithTies", func(t *testing.T) { testOrderingWithTies(t, factory) })
			t.Run("Clear", func(t *testing.T) { testClear(t, factory) })
			t.Run("Closed", func(t *testing.T) { testClosed(t, factory) })
			t.Run("DuplicateID", func(t *testing.T) { testDuplicateID(t, factory) })
			t.Run("RestoreOwnArchive", func(t *testing.T) { testRestoreOwnArchive(t, factory) })
		})
	}
}

func testRoundTrip(t *testing.T, factory storeFactory) {
	ctx := context.Background()
	s := factory(t, DefaultCap)

	snap := fullSnapshot(1_700_000_000_000)
	require.NoError(t, s.Save(ctx, snap))
	require.NotEmpty(t, snap.ID)

	got, err := s.GetLatest(ctx)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, snap, got)

	bare := &model.ScanSnapshot{Timestamp: 1_700_000_000_001}
	require.NoError(t, s.Save(ctx, bare))
	got, err = s.GetLatest(ctx)
	require.NoError(t, err)
	assert.Equal(t, bare, got)
}

func testEmptyLatest(t *testing.T, factory storeFactory) {
	ctx := context.Background()
	s := factory(t, DefaultCap)

	got, err := s.GetLatest(ctx)
	require.NoError(t, err)
	assert.Nil(t, got)

	all, err := s.GetAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
}

func testEviction(t *testing.T, factory storeFactory) {
	ctx := context.Background()
	s := factory(t, DefaultCap)

	// saved out of order: the oldest by timestamp is evicted, not the first saved
	require.NoError(t, s.Save(ctx, &model.ScanSnapshot{Timestamp: 5000, Score: 5}))
	require.NoError(t, s.Save(ctx, &model.ScanSnapshot{Timestamp: 1000, Score: 1}))
	for i := 0; i < 28; i++ {
		require.NoError(t, s.Save(ctx, &model.ScanSnapshot{Timestamp: int64(10_000 + i), Score: 50}))
	}
	all, err := s.GetAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 30)

	require.NoError(t, s.Save(ctx, &model.ScanSnapshot{Timestamp: 20_000, Score: 99}))

	all, err = s.GetAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 30)
	assert.Equal(t, int64(5000), all[0].Timestamp)
	assert.Equal(t, 99, all[len(all)-1].Score)
	for i := 1; i < len(all); i++ {
		assert.LessOrEqual(t, all[i-1].Timestamp, all[i].Timestamp)
	}
}

func testOrderingWithTies(t *testing.T, factory storeFactory) {
	ctx := context.Background()
	s := factory(t, 3)

	a := &model.ScanSnapshot{Timestamp: 100, Score: 1}
	b := &model.ScanSnapshot{Timestamp: 100, Score: 2}
	c := &model.ScanSnapshot{Timestamp: 100, Score: 3}
	d := &model.ScanSnapshot{Timestamp: 100, Score: 4}
	for _, snap := range []*model.ScanSnapshot{a, b, c, d} {
		require.NoError(t, s.Save(ctx, snap))
	}
	assert.NotEqual(t, a.ID, b.ID)

	all, err := s.GetAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, []int{2, 3, 4}, []int{all[0].Score, all[1].Score, all[2].Score})

	latest, err := s.GetLatest(ctx)
	require.NoError(t, err)
	assert.Equal(t, d.ID, latest.ID)
}

func testClear(t *testing.T, factory storeFactory) {
	ctx := context.Background()
	s := factory(t, DefaultCap)

	require.NoError(t, s.Save(ctx, &model.ScanSnapshot{Timestamp: 1}))
	require.NoError(t, s.Clear(ctx))

	all, err := s.GetAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)

	require.NoError(t, s.Save(ctx, &model.ScanSnapshot{Timestamp: 2}))
	latest, err := s.GetLatest(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), latest.Timestamp)
}

func testClosed(t *testing.T, factory storeFactory) {
	ctx := context.Background()
	s := factory(t, DefaultCap)
	require.NoError(t, s.Close())

	assert.ErrorIs(t, s.Save(ctx, &model.ScanSnapshot{}), ErrClosed)
	_, err := s.GetLatest(ctx)
	assert.ErrorIs(t, err, ErrClosed)
	_, err = s.GetAll(ctx)
	assert.ErrorIs(t, err, ErrClosed)
	assert.ErrorIs(t, s.Clear(ctx), ErrClosed)
}

func testDuplicateID(t *testing.T, factory storeFactory) {
	ctx := context.Background()
	s := factory(t, DefaultCap)

	first := fullSnapshot(1000)
	first.ID = "dup"
	require.NoError(t, s.Save(ctx, first))

	second := fullSnapshot(2000)
	second.ID = "dup"
	second.Score = 10
	require.NoError(t, s.Save(ctx, second))

	all, err := s.GetAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, 87, all[0].Score)
	assert.Equal(t, int64(1000), all[0].Timestamp)
}

func testRestoreOwnArchive(t *testing.T, factory storeFactory) {
	ctx := context.Background()
	s := factory(t, DefaultCap)
	require.NoError(t, s.Save(ctx, fullSnapshot(1000)))
	require.NoError(t, s.Save(ctx, fullSnapshot(2000)))

	path := filepath.Join(t.TempDir(), "history.parquet")
	_, err := ExportParquet(ctx, s, path)
	require.NoError(t, err)
	snaps, err := ImportParquet(path)
	require.NoError(t, err)

	restored, err := Restore(ctx, s, snaps)
	require.NoError(t, err)
	assert.Zero(t, restored)

	require.NoError(t, s.Save(ctx, fullSnapshot(3000)))
	restored, err = Restore(ctx, s, snaps)
	require.NoError(t, err)
	assert.Zero(t, restored)

	all, err := s.GetAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestMemoryStore_IsolatesCallers(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore(0, &testutil.DummyLogger{})

	snap := fullSnapshot(10)
	require.NoError(t, s.Save(ctx, snap))
	snap.Categories[model.CategorySocial] = 99
	snap.Analysis.Recommendations[0].Impact = 0

	got, err := s.GetLatest(ctx)
	require.NoError(t, err)
	assert.NotContains(t, got.Categories, model.CategorySocial)
	assert.Equal(t, 8, got.Analysis.Recommendations[0].Impact)
}

func TestSQLiteStore_File(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "history.db")

	s, err := NewSQLiteStore(path, 5, &testutil.DummyLogger{})
	require.NoError(t, err)
	require.NoError(t, s.Save(ctx, fullSnapshot(1)))
	require.NoError(t, s.Close())
	require.NoError(t, s.Close())

	reopened, err := NewSQLiteStore(path, 5, &testutil.DummyLogger{})
	require.NoError(t, err)
	defer reopened.Close()

	all, err := reopened.GetAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestOpen(t *testing.T) {
	ctx := context.Background()
	logger := &testutil.DummyLogger{}

	s, err := Open(ctx, Config{Driver: "memory"}, logger)
	require.NoError(t, err)
	assert.IsType(t, &MemoryStore{}, s)

	s, err = Open(ctx, Config{Driver: "sqlite", Path: filepath.Join(t.TempDir(), "h.db")}, logger)
	require.NoError(t, err)
	assert.IsType(t, &SQLiteStore{}, s)
	require.NoError(t, s.Close())

	_, err = Open(ctx, Config{Driver: "redis"}, logger)
	assert.Error(t, err)
}

func TestArchiveRoundTrip(t *testing.T) {
	snaps := []*model.ScanSnapshot{fullSnapshot(1), {ID: "bare", Timestamp: 2}}
	snaps[0].ID = "full"

	var buf bytes.Buffer
	n, err := WriteArchive(&buf, snaps)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	got, err := ReadArchive(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	assert.Equal(t, snaps, got)
}

func TestExportImportParquet(t *testing.T) {
	ctx := context.Background()
	src := NewMemoryStore(0, &testutil.DummyLogger{})
	for i := 1; i <= 3; i++ {
		require.NoError(t, src.Save(ctx, fullSnapshot(int64(i*1000))))
	}

	path := filepath.Join(t.TempDir(), "out", "history.parquet")
	n, err := ExportParquet(ctx, src, path)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	snaps, err := ImportParquet(path)
	require.NoError(t, err)
	want, err := src.GetAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, want, snaps)

	dst := NewMemoryStore(2, &testutil.DummyLogger{})
	restored, err := Restore(ctx, dst, snaps)
	require.NoError(t, err)
	assert.Equal(t, 3, restored)
	all, err := dst.GetAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, int64(2000), all[0].Timestamp)
}
