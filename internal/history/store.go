// Package history persists ScanSnapshots with a fixed retention cap.
//
// Every Store is single-writer: Save serializes on a mutex and evicts the
// oldest snapshots beyond the cap in the same transaction, so readers never
// observe more than Cap entries. Snapshots are ordered by timestamp, with
// insertion order breaking ties between equal timestamps.
package history

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/raysh454/crumb/internal/model"
)

// DefaultCap is the number of snapshots retained when no cap is configured.
const DefaultCap = 30

// ErrClosed is returned by operations on a closed store.
var ErrClosed = errors.New("history: store closed")

// Store is the snapshot history collaborator.
type Store interface {
	// Save assigns an ID (if empty) and timestamp (if zero), appends the
	// snapshot and evicts the oldest entries beyond the cap. Saving an ID
	// that is already stored leaves the store unchanged.
	Save(ctx context.Context, snap *model.ScanSnapshot) error

	// GetLatest returns the newest snapshot, or nil when the history is empty.
	GetLatest(ctx context.Context) (*model.ScanSnapshot, error)

	// GetAll returns every retained snapshot, oldest first.
	GetAll(ctx context.Context) ([]*model.ScanSnapshot, error)

	// Clear removes every snapshot.
	Clear(ctx context.Context) error

	Close() error
}

// Config selects and configures a store backend.
type Config struct {
	// Driver is one of "sqlite", "postgres" or "memory".
	Driver string `json:"driver" yaml:"driver" validate:"oneof=sqlite postgres memory"`

	// Path is the SQLite database file.
	Path string `json:"path,omitempty" yaml:"path,omitempty" validate:"required_if=Driver sqlite"`

	// DSN is the Postgres connection string.
	DSN string `json:"dsn,omitempty" yaml:"dsn,omitempty" validate:"required_if=Driver postgres"`

	// Cap is the retention limit; values <= 0 use DefaultCap.
	Cap int `json:"cap" yaml:"cap" validate:"min=0"`
}

// DefaultConfig returns a SQLite store under ./.crumb.
func DefaultConfig() Config {
	return Config{
		Driver: "sqlite",
		Path:   ".crumb/history.db",
		Cap:    DefaultCap,
	}
}

func effectiveCap(n int) int {
	if n <= 0 {
		return DefaultCap
	}
	return n
}

// prepare fills the store-assigned fields of snap.
func prepare(snap *model.ScanSnapshot) {
	if snap.ID == "" {
		snap.ID = uuid.New().String()
	}
	if snap.Timestamp == 0 {
		snap.Timestamp = time.Now().UnixMilli()
	}
}
