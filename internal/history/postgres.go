package history

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"github.com/raysh454/crumb/internal/logging"
	"github.com/raysh454/crumb/internal/model"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// goose keeps its dialect and filesystem in package globals.
var migrateMu sync.Mutex

// PostgresStore persists snapshots in Postgres through a pgx pool.
type PostgresStore struct {
	mu     sync.Mutex
	pool   *pgxpool.Pool
	cap    int
	closed bool
	logger logging.Logger
}

// NewPostgresStore connects to dsn, runs pending migrations and returns a store.
func NewPostgresStore(ctx context.Context, dsn string, capacity int, logger logging.Logger) (*PostgresStore, error) {
	if logger == nil {
		return nil, errors.New("history: nil logger provided")
	}
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to parse postgres dsn: %w", err)
	}
	cfg.MaxConns = 10
	cfg.HealthCheckPeriod = 30 * time.Second

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping postgres: %w", err)
	}
	if err := migrate(ctx, pool); err != nil {
		pool.Close()
		return nil, err
	}

	logger.Info("Postgres history opened")
	return &PostgresStore{
		pool:   pool,
		cap:    effectiveCap(capacity),
		logger: logger.With(logging.Field{Key: "component", Value: "postgres_store"}),
	}, nil
}

func migrate(ctx context.Context, pool *pgxpool.Pool) error {
	migrateMu.Lock()
	defer migrateMu.Unlock()

	db := stdlib.OpenDBFromPool(pool)
	defer db.Close()

	goose.SetBaseFS(migrationsFS)
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("failed to set migration dialect: %w", err)
	}
	if err := goose.UpContext(ctx, db, "migrations"); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	return nil
}

func (s *PostgresStore) Save(ctx context.Context, snap *model.ScanSnapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}

	prepare(snap)
	enc, err := encodeSnapshot(snap)
	if err != nil {
		return err
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if rbErr := tx.Rollback(ctx); rbErr != nil && !errors.Is(rbErr, pgx.ErrTxClosed) {
			s.logger.Warn("Failed to rollback transaction", logging.Field{Key: "error", Value: rbErr.Error()})
		}
	}()

	_, err = tx.Exec(ctx, `
		INSERT INTO snapshots (id, ts, score, total_cookies, tracking_cookies, unique_domains,
		                       storage_size_mb, categories, inventory, analysis)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (id) DO NOTHING
	`, snap.ID, snap.Timestamp, snap.Score, snap.TotalCookies, snap.TrackingCookies, snap.UniqueDomains,
		snap.StorageSizeMB, enc.Categories, enc.Inventory, enc.Analysis)
	if err != nil {
		return fmt.Errorf("failed to insert snapshot: %w", err)
	}

	tag, err := tx.Exec(ctx, `
		DELETE FROM snapshots WHERE seq IN (
			SELECT seq FROM snapshots ORDER BY ts DESC, seq DESC OFFSET $1
		)
	`, s.cap)
	if err != nil {
		return fmt.Errorf("failed to evict snapshots: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	if n := tag.RowsAffected(); n > 0 {
		s.logger.Debug("evicted snapshots", logging.Field{Key: "count", Value: n})
	}
	return nil
}

const selectSnapshotPG = `
	SELECT id, ts, score, total_cookies, tracking_cookies, unique_domains,
	       storage_size_mb, categories, inventory, analysis
	FROM snapshots`

func scanSnapshotPG(row pgx.Row) (*model.ScanSnapshot, error) {
	var snap model.ScanSnapshot
	var enc encodedSnapshot
	if err := row.Scan(&snap.ID, &snap.Timestamp, &snap.Score, &snap.TotalCookies, &snap.TrackingCookies,
		&snap.UniqueDomains, &snap.StorageSizeMB, &enc.Categories, &enc.Inventory, &enc.Analysis); err != nil {
		return nil, err
	}
	if err := decodeInto(&snap, enc); err != nil {
		return nil, fmt.Errorf("snapshot %s: %w", snap.ID, err)
	}
	return &snap, nil
}

func (s *PostgresStore) GetLatest(ctx context.Context) (*model.ScanSnapshot, error) {
	if s.isClosed() {
		return nil, ErrClosed
	}
	snap, err := scanSnapshotPG(s.pool.QueryRow(ctx, selectSnapshotPG+` ORDER BY ts DESC, seq DESC LIMIT 1`))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query latest snapshot: %w", err)
	}
	return snap, nil
}

func (s *PostgresStore) GetAll(ctx context.Context) ([]*model.ScanSnapshot, error) {
	if s.isClosed() {
		return nil, ErrClosed
	}
	rows, err := s.pool.Query(ctx, selectSnapshotPG+` ORDER BY ts ASC, seq ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query snapshots: %w", err)
	}
	defer rows.Close()

	out := make([]*model.ScanSnapshot, 0)
	for rows.Next() {
		snap, err := scanSnapshotPG(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan snapshot: %w", err)
		}
		out = append(out, snap)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate snapshots: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	if _, err := s.pool.Exec(ctx, `DELETE FROM snapshots`); err != nil {
		return fmt.Errorf("failed to clear snapshots: %w", err)
	}
	return nil
}

func (s *PostgresStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.closed {
		s.closed = true
		s.pool.Close()
	}
	return nil
}

func (s *PostgresStore) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}
