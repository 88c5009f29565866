package auditor

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/raysh454/crumb/internal/model"
	"github.com/raysh454/crumb/internal/report"
	"github.com/raysh454/crumb/internal/scan"
)

// ErrUnknownCommand is returned for commands Dispatch does not recognize.
var ErrUnknownCommand = errors.New("auditor: unknown command")

// Command kinds as they appear on the wire.
const (
	KindRunScan       = "run_scan"
	KindIngestScan    = "ingest_scan"
	KindGetLatest     = "get_latest"
	KindGetHistory    = "get_history"
	KindGetTrend      = "get_trend"
	KindGetCompanies  = "get_companies"
	KindDeleteCookies = "delete_cookies"
	KindDiffLatest    = "diff_latest"
	KindClearHistory  = "clear_history"
)

// Command is a request to the auditor. The concrete types below are the only
// implementations.
type Command interface {
	Kind() string
}

type (
	RunScan       struct{}
	IngestScan    struct{ Scan model.RawScan }
	GetLatest     struct{}
	GetHistory    struct{ Range report.TimeRange }
	GetTrend      struct{ Range report.TimeRange }
	GetCompanies  struct{ Sort report.SortMode }
	DeleteCookies struct{ Selector report.Selector }
	DiffLatest    struct{}
	ClearHistory  struct{}
)

func (RunScan) Kind() string       { return KindRunScan }
func (IngestScan) Kind() string    { return KindIngestScan }
func (GetLatest) Kind() string     { return KindGetLatest }
func (GetHistory) Kind() string    { return KindGetHistory }
func (GetTrend) Kind() string      { return KindGetTrend }
func (GetCompanies) Kind() string  { return KindGetCompanies }
func (DeleteCookies) Kind() string { return KindDeleteCookies }
func (DiffLatest) Kind() string    { return KindDiffLatest }
func (ClearHistory) Kind() string  { return KindClearHistory }

// Response carries the result of one command. Only the field matching Kind
// is set.
type Response struct {
	Kind      string                     `json:"kind"`
	Scan      *ScanResult                `json:"scan,omitempty"`
	Snapshot  *model.ScanSnapshot        `json:"snapshot,omitempty"`
	History   []*model.ScanSnapshot      `json:"history,omitempty"`
	Trend     *report.TrendReport        `json:"trend,omitempty"`
	Companies []model.CompanyTrackerData `json:"companies,omitempty"`
	Deleted   *DeleteResult              `json:"deleted,omitempty"`
	Diff      *report.InventoryDiff      `json:"diff,omitempty"`
}

// Dispatch executes cmd. Pointers to the command types are accepted; a nil
// command or nil pointer is ErrUnknownCommand.
func (a *Auditor) Dispatch(ctx context.Context, cmd Command) (Response, error) {
	cmd, ok := deref(cmd)
	if !ok {
		return Response{}, fmt.Errorf("%w: nil command", ErrUnknownCommand)
	}
	resp := Response{Kind: cmd.Kind()}

	switch c := cmd.(type) {
	case RunScan:
		res, err := a.RunScan(ctx)
		resp.Scan = res
		return resp, err
	case IngestScan:
		res, err := a.Ingest(ctx, c.Scan)
		resp.Scan = res
		return resp, err
	case GetLatest:
		snap, err := a.Latest(ctx)
		resp.Snapshot = snap
		return resp, err
	case GetHistory:
		snaps, err := a.History(ctx, c.Range)
		if snaps == nil && err == nil {
			snaps = []*model.ScanSnapshot{}
		}
		resp.History = snaps
		return resp, err
	case GetTrend:
		tr, err := a.Trend(ctx, c.Range)
		if err != nil {
			return resp, err
		}
		resp.Trend = &tr
		return resp, nil
	case GetCompanies:
		resp.Companies = a.Companies(c.Sort)
		return resp, nil
	case DeleteCookies:
		res, err := a.DeleteCookies(ctx, c.Selector)
		resp.Deleted = res
		return resp, err
	case DiffLatest:
		d, err := a.DiffLatest(ctx)
		if err != nil {
			return resp, err
		}
		resp.Diff = &d
		return resp, nil
	case ClearHistory:
		return resp, a.ClearHistory(ctx)
	default:
		return Response{}, fmt.Errorf("%w: %T", ErrUnknownCommand, cmd)
	}
}

// deref converts a pointer command to its value form. It reports false for a
// nil interface or a nil pointer.
func deref(cmd Command) (Command, bool) {
	switch c := cmd.(type) {
	case nil:
		return nil, false
	case *RunScan:
		if c == nil {
			return nil, false
		}
		return *c, true
	case *IngestScan:
		if c == nil {
			return nil, false
		}
		return *c, true
	case *GetLatest:
		if c == nil {
			return nil, false
		}
		return *c, true
	case *GetHistory:
		if c == nil {
			return nil, false
		}
		return *c, true
	case *GetTrend:
		if c == nil {
			return nil, false
		}
		return *c, true
	case *GetCompanies:
		if c == nil {
			return nil, false
		}
		return *c, true
	case *DeleteCookies:
		if c == nil {
			return nil, false
		}
		return *c, true
	case *DiffLatest:
		if c == nil {
			return nil, false
		}
		return *c, true
	case *ClearHistory:
		if c == nil {
			return nil, false
		}
		return *c, true
	default:
		return cmd, true
	}
}

// envelope is the JSON form of a Command: {"kind": "...", ...arguments}.
type envelope struct {
	Kind     string          `json:"kind"`
	Scan     json.RawMessage `json:"scan,omitempty"`
	Range    string          `json:"range,omitempty"`
	Sort     string          `json:"sort,omitempty"`
	Company  string          `json:"company,omitempty"`
	Category string          `json:"category,omitempty"`
}

// DecodeCommand parses a kind-tagged JSON command. Arguments are validated;
// an embedded scan is decoded leniently.
func DecodeCommand(data []byte) (Command, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("decode command: %w", err)
	}

	switch env.Kind {
	case KindRunScan:
		return RunScan{}, nil
	case KindIngestScan:
		raw, err := scan.DecodeRaw(bytes.NewReader(env.Scan))
		if err != nil {
			return nil, err
		}
		return IngestScan{Scan: raw}, nil
	case KindGetLatest:
		return GetLatest{}, nil
	case KindGetHistory:
		r, err := report.ParseTimeRange(env.Range)
		if err != nil {
			return nil, err
		}
		return GetHistory{Range: r}, nil
	case KindGetTrend:
		r, err := report.ParseTimeRange(env.Range)
		if err != nil {
			return nil, err
		}
		return GetTrend{Range: r}, nil
	case KindGetCompanies:
		m, err := report.ParseSortMode(env.Sort)
		if err != nil {
			return nil, err
		}
		return GetCompanies{Sort: m}, nil
	case KindDeleteCookies:
		sel, err := report.ParseSelector(env.Company, env.Category)
		if err != nil {
			return nil, err
		}
		return DeleteCookies{Selector: sel}, nil
	case KindDiffLatest:
		return DiffLatest{}, nil
	case KindClearHistory:
		return ClearHistory{}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownCommand, env.Kind)
	}
}
