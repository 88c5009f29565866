package scan

import (
	"context"
	"fmt"
	"os"

	"github.com/raysh454/crumb/internal/model"
)

// Source produces one raw inventory of browser storage per call. Calls may
// block, fail or time out; implementations honour ctx.
type Source interface {
	Acquire(ctx context.Context) (*model.RawScan, error)
}

// StaticSource returns the same scan on every call.
type StaticSource struct {
	Scan model.RawScan
}

// NewStaticSource wraps raw.
func NewStaticSource(raw model.RawScan) *StaticSource {
	return &StaticSource{Scan: raw}
}

func (s *StaticSource) Acquire(ctx context.Context) (*model.RawScan, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	raw := s.Scan
	return &raw, nil
}

// FileSource decodes a raw scan export from disk on every call.
type FileSource struct {
	Path string
}

// NewFileSource returns a FileSource reading path.
func NewFileSource(path string) *FileSource {
	return &FileSource{Path: path}
}

func (s *FileSource) Acquire(ctx context.Context) (*model.RawScan, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f, err := os.Open(s.Path)
	if err != nil {
		return nil, fmt.Errorf("open scan file: %w", err)
	}
	defer f.Close()

	raw, err := DecodeRaw(f)
	if err != nil {
		return nil, fmt.Errorf("scan file %s: %w", s.Path, err)
	}
	return &raw, nil
}
