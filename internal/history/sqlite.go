package history

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/raysh454/crumb/internal/logging"
	"github.com/raysh454/crumb/internal/model"
	_ "modernc.org/sqlite" // SQLite driver
)

//go:embed schema.sql
var schemaFS embed.FS

// applySchema sets pragmas and creates the snapshots table.
func applySchema(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
		"PRAGMA busy_timeout=5000",
		"PRAGMA temp_store=MEMORY",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("failed to set pragma %q: %w", pragma, err)
		}
	}

	schemaSQL, err := schemaFS.ReadFile("schema.sql")
	if err != nil {
		return fmt.Errorf("failed to read schema.sql: %w", err)
	}
	if _, err := db.Exec(string(schemaSQL)); err != nil {
		return fmt.Errorf("failed to execute schema: %w", err)
	}
	return nil
}

// SQLiteStore persists snapshots in a SQLite database.
type SQLiteStore struct {
	mu     sync.Mutex
	db     *sql.DB
	cap    int
	closed bool
	logger logging.Logger
}

// NewSQLiteStore opens (creating if needed) the database at path.
func NewSQLiteStore(path string, capacity int, logger logging.Logger) (*SQLiteStore, error) {
	if logger == nil {
		return nil, errors.New("history: nil logger provided")
	}
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create history directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	s, err := NewSQLiteStoreFromDB(db, capacity, logger)
	if err != nil {
		db.Close()
		return nil, err
	}
	logger.Info("SQLite history opened", logging.Field{Key: "path", Value: path})
	return s, nil
}

// NewSQLiteStoreFromDB wraps an already open database and applies the schema.
// The store takes ownership of db.
func NewSQLiteStoreFromDB(db *sql.DB, capacity int, logger logging.Logger) (*SQLiteStore, error) {
	db.SetMaxOpenConns(1)
	if err := applySchema(db); err != nil {
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}
	return &SQLiteStore{
		db:     db,
		cap:    effectiveCap(capacity),
		logger: logger.With(logging.Field{Key: "component", Value: "sqlite_store"}),
	}, nil
}

func (s *SQLiteStore) Save(ctx context.Context, snap *model.ScanSnapshot) error {
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

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if rbErr := tx.Rollback(); rbErr != nil && rbErr != sql.ErrTxDone {
			s.logger.Warn("Failed to rollback transaction", logging.Field{Key: "error", Value: rbErr.Error()})
		}
	}()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO snapshots (id, timestamp, score, total_cookies, tracking_cookies, unique_domains,
		                       storage_size_mb, categories, inventory, analysis)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO NOTHING
	`, snap.ID, snap.Timestamp, snap.Score, snap.TotalCookies, snap.TrackingCookies, snap.UniqueDomains,
		snap.StorageSizeMB, string(enc.Categories), string(enc.Inventory), string(enc.Analysis))
	if err != nil {
		return fmt.Errorf("failed to insert snapshot: %w", err)
	}

	res, err := tx.ExecContext(ctx, `
		DELETE FROM snapshots WHERE seq IN (
			SELECT seq FROM snapshots ORDER BY timestamp DESC, seq DESC LIMIT -1 OFFSET ?
		)
	`, s.cap)
	if err != nil {
		return fmt.Errorf("failed to evict snapshots: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	if n, _ := res.RowsAffected(); n > 0 {
		s.logger.Debug("evicted snapshots", logging.Field{Key: "count", Value: n})
	}
	return nil
}

const selectSnapshot = `
	SELECT id, timestamp, score, total_cookies, tracking_cookies, unique_domains,
	       storage_size_mb, categories, inventory, analysis
	FROM snapshots`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSnapshot(row rowScanner) (*model.ScanSnapshot, error) {
	var snap model.ScanSnapshot
	var categories, inventory, analysis string
	if err := row.Scan(&snap.ID, &snap.Timestamp, &snap.Score, &snap.TotalCookies, &snap.TrackingCookies,
		&snap.UniqueDomains, &snap.StorageSizeMB, &categories, &inventory, &analysis); err != nil {
		return nil, err
	}
	err := decodeInto(&snap, encodedSnapshot{
		Categories: []byte(categories),
		Inventory:  []byte(inventory),
		Analysis:   []byte(analysis),
	})
	if err != nil {
		return nil, fmt.Errorf("snapshot %s: %w", snap.ID, err)
	}
	return &snap, nil
}

func (s *SQLiteStore) GetLatest(ctx context.Context) (*model.ScanSnapshot, error) {
	if s.isClosed() {
		return nil, ErrClosed
	}
	row := s.db.QueryRowContext(ctx, selectSnapshot+` ORDER BY timestamp DESC, seq DESC LIMIT 1`)
	snap, err := scanSnapshot(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query latest snapshot: %w", err)
	}
	return snap, nil
}

func (s *SQLiteStore) GetAll(ctx context.Context) ([]*model.ScanSnapshot, error) {
	if s.isClosed() {
		return nil, ErrClosed
	}
	rows, err := s.db.QueryContext(ctx, selectSnapshot+` ORDER BY timestamp ASC, seq ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query snapshots: %w", err)
	}
	defer rows.Close()

	out := make([]*model.ScanSnapshot, 0)
	for rows.Next() {
		snap, err := scanSnapshot(rows)
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

func (s *SQLiteStore) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	if _, err := s.db.ExecContext(ctx, `DELETE FROM snapshots`); err != nil {
		return fmt.Errorf("failed to clear snapshots: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	return s.db.Close()
}

func (s *SQLiteStore) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}
