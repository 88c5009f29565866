package history

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/parquet-go/parquet-go"
	"github.com/raysh454/crumb/internal/model"
)

// archiveRow is the Parquet layout of one snapshot. The nested fields are
// kept as JSON so nil and empty values survive the round trip.
type archiveRow struct {
	ID              string  `parquet:"id,zstd"`
	Timestamp       int64   `parquet:"timestamp,zstd"`
	Score           int64   `parquet:"score,zstd"`
	TotalCookies    int64   `parquet:"total_cookies,zstd"`
	TrackingCookies int64   `parquet:"tracking_cookies,zstd"`
	UniqueDomains   int64   `parquet:"unique_domains,zstd"`
	StorageSizeMB   float64 `parquet:"storage_size_mb,zstd"`
	Categories      string  `parquet:"categories,zstd"`
	Inventory       string  `parquet:"inventory,zstd"`
	Analysis        string  `parquet:"analysis,zstd"`
}

const archiveBatch = 100

// WriteArchive writes snapshots to w as a zstd-compressed Parquet file.
func WriteArchive(w io.Writer, snapshots []*model.ScanSnapshot) (int, error) {
	rows := make([]archiveRow, 0, len(snapshots))
	for _, s := range snapshots {
		if s == nil {
			continue
		}
		enc, err := encodeSnapshot(s)
		if err != nil {
			return 0, err
		}
		rows = append(rows, archiveRow{
			ID:              s.ID,
			Timestamp:       s.Timestamp,
			Score:           int64(s.Score),
			TotalCookies:    int64(s.TotalCookies),
			TrackingCookies: int64(s.TrackingCookies),
			UniqueDomains:   int64(s.UniqueDomains),
			StorageSizeMB:   s.StorageSizeMB,
			Categories:      string(enc.Categories),
			Inventory:       string(enc.Inventory),
			Analysis:        string(enc.Analysis),
		})
	}

	writer := parquet.NewGenericWriter[archiveRow](w, parquet.Compression(&parquet.Zstd))
	n, err := writer.Write(rows)
	if err != nil {
		_ = writer.Close()
		return n, fmt.Errorf("failed to write archive rows: %w", err)
	}
	if err := writer.Close(); err != nil {
		return n, fmt.Errorf("failed to close archive writer: %w", err)
	}
	return n, nil
}

// ReadArchive decodes every snapshot of a Parquet archive.
func ReadArchive(r io.ReaderAt) ([]*model.ScanSnapshot, error) {
	reader := parquet.NewGenericReader[archiveRow](r)
	defer reader.Close()

	out := make([]*model.ScanSnapshot, 0, reader.NumRows())
	batch := make([]archiveRow, archiveBatch)
	for {
		n, err := reader.Read(batch)
		for _, row := range batch[:n] {
			snap := &model.ScanSnapshot{
				ID:              row.ID,
				Timestamp:       row.Timestamp,
				Score:           int(row.Score),
				TotalCookies:    int(row.TotalCookies),
				TrackingCookies: int(row.TrackingCookies),
				UniqueDomains:   int(row.UniqueDomains),
				StorageSizeMB:   row.StorageSizeMB,
			}
			if derr := decodeInto(snap, encodedSnapshot{
				Categories: []byte(row.Categories),
				Inventory:  []byte(row.Inventory),
				Analysis:   []byte(row.Analysis),
			}); derr != nil {
				return nil, fmt.Errorf("archive row %s: %w", row.ID, derr)
			}
			out = append(out, snap)
		}
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read archive rows: %w", err)
		}
		if n == 0 {
			break
		}
	}
	return out, nil
}

// ExportParquet writes the store's full history to path.
func ExportParquet(ctx context.Context, store Store, path string) (int, error) {
	snaps, err := store.GetAll(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to load history: %w", err)
	}
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return 0, fmt.Errorf("failed to create archive directory: %w", err)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return 0, fmt.Errorf("failed to create archive: %w", err)
	}
	n, err := WriteArchive(f, snaps)
	if cerr := f.Close(); err == nil && cerr != nil {
		err = fmt.Errorf("failed to close archive: %w", cerr)
	}
	return n, err
}

// ImportParquet reads an archive written by ExportParquet.
func ImportParquet(path string) ([]*model.ScanSnapshot, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open archive: %w", err)
	}
	defer f.Close()
	return ReadArchive(f)
}

// Restore saves every archived snapshot into store, oldest first, and returns
// how many were new. Snapshots whose ID the store already holds are skipped,
// so restoring the same archive twice is a no-op. The store's cap still applies.
func Restore(ctx context.Context, store Store, snaps []*model.ScanSnapshot) (int, error) {
	existing, err := store.GetAll(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to list snapshots: %w", err)
	}
	seen := make(map[string]struct{}, len(existing)+len(snaps))
	for _, s := range existing {
		seen[s.ID] = struct{}{}
	}

	restored := 0
	for _, s := range snaps {
		if s == nil {
			continue
		}
		if s.ID != "" {
			if _, ok := seen[s.ID]; ok {
				continue
			}
			seen[s.ID] = struct{}{}
		}
		if err := store.Save(ctx, cloneSnapshot(s)); err != nil {
			return restored, fmt.Errorf("failed to restore snapshot %s: %w", s.ID, err)
		}
		restored++
	}
	return restored, nil
}
