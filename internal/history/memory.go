package history

import (
	"context"
	"sort"
	"sync"

	"github.com/raysh454/crumb/internal/logging"
	"github.com/raysh454/crumb/internal/model"
)

type memoryEntry struct {
	seq  int64
	snap *model.ScanSnapshot
}

// MemoryStore keeps snapshots in process memory. It is used for tests and
// one-shot CLI runs that should leave nothing on disk.
type MemoryStore struct {
	mu      sync.Mutex
	entries []memoryEntry
	seq     int64
	cap     int
	closed  bool
	logger  logging.Logger
}

// NewMemoryStore returns an empty store retaining at most capacity snapshots.
func NewMemoryStore(capacity int, logger logging.Logger) *MemoryStore {
	return &MemoryStore{
		cap:    effectiveCap(capacity),
		logger: logger.With(logging.Field{Key: "component", Value: "memory_store"}),
	}
}

func (m *MemoryStore) Save(ctx context.Context, snap *model.ScanSnapshot) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrClosed
	}

	prepare(snap)
	for _, e := range m.entries {
		if e.snap.ID == snap.ID {
			return nil
		}
	}
	m.seq++
	m.entries = append(m.entries, memoryEntry{seq: m.seq, snap: cloneSnapshot(snap)})
	sort.SliceStable(m.entries, func(i, j int) bool {
		a, b := m.entries[i], m.entries[j]
		if a.snap.Timestamp != b.snap.Timestamp {
			return a.snap.Timestamp < b.snap.Timestamp
		}
		return a.seq < b.seq
	})

	if over := len(m.entries) - m.cap; over > 0 {
		m.entries = append([]memoryEntry(nil), m.entries[over:]...)
		m.logger.Debug("evicted snapshots", logging.Field{Key: "count", Value: over})
	}
	return nil
}

func (m *MemoryStore) GetLatest(ctx context.Context) (*model.ScanSnapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return nil, ErrClosed
	}
	if len(m.entries) == 0 {
		return nil, nil
	}
	return cloneSnapshot(m.entries[len(m.entries)-1].snap), nil
}

func (m *MemoryStore) GetAll(ctx context.Context) ([]*model.ScanSnapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return nil, ErrClosed
	}
	out := make([]*model.ScanSnapshot, 0, len(m.entries))
	for _, e := range m.entries {
		out = append(out, cloneSnapshot(e.snap))
	}
	return out, nil
}

func (m *MemoryStore) Clear(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrClosed
	}
	m.entries = nil
	return nil
}

func (m *MemoryStore) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	m.entries = nil
	return nil
}
