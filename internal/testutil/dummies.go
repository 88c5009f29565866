// Package testutil provides shared test doubles for use across package tests.
// All dummies implement the corresponding interfaces from the production code,
// allowing injection into components under test without real I/O or side effects.
package testutil

import (
	"context"
	"sync"
	"time"

	"github.com/raysh454/crumb/internal/logging"
	"github.com/raysh454/crumb/internal/model"
)

// ─── Logger ────────────────────────────────────────────────────────────

// DummyLogger implements logging.Logger with in-memory recording.
type DummyLogger struct {
	mu     sync.Mutex
	Errors []string
	Infos  []string
	Debugs []string
	Warns  []string
}

func (l *DummyLogger) Debug(msg string, fields ...logging.Field) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.Debugs = append(l.Debugs, msg)
}

func (l *DummyLogger) Info(msg string, fields ...logging.Field) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.Infos = append(l.Infos, msg)
}

func (l *DummyLogger) Warn(msg string, fields ...logging.Field) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.Warns = append(l.Warns, msg)
}

func (l *DummyLogger) Error(msg string, fields ...logging.Field) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.Errors = append(l.Errors, msg)
}

func (l *DummyLogger) With(_ ...logging.Field) logging.Logger { return l }

// ErrorCount returns the number of recorded errors.
func (l *DummyLogger) ErrorCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.Errors)
}

// ─── Source ────────────────────────────────────────────────────────────

// DummySource implements scan.Source with a preconfigured scan.
// Delay simulates a slow browser and honours ctx.
type DummySource struct {
	mu    sync.Mutex
	Scan  model.RawScan
	Err   error
	Delay time.Duration
	Calls int
}

func (d *DummySource) Acquire(ctx context.Context) (*model.RawScan, error) {
	if d.Delay > 0 {
		select {
		case <-time.After(d.Delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.Calls++
	if d.Err != nil {
		return nil, d.Err
	}
	raw := d.Scan
	return &raw, nil
}

// ─── Deleter ───────────────────────────────────────────────────────────

// DummyDeleter implements auditor.Deleter, recording every batch it is asked
// to delete.
type DummyDeleter struct {
	mu      sync.Mutex
	Batches [][]model.Cookie
	Err     error
}

func (d *DummyDeleter) Delete(_ context.Context, cookies []model.Cookie) (int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.Err != nil {
		return 0, d.Err
	}
	d.Batches = append(d.Batches, append([]model.Cookie(nil), cookies...))
	return len(cookies), nil
}

// Deleted returns every cookie deleted so far, in call order.
func (d *DummyDeleter) Deleted() []model.Cookie {
	d.mu.Lock()
	defer d.mu.Unlock()
	var out []model.Cookie
	for _, b := range d.Batches {
		out = append(out, b...)
	}
	return out
}
