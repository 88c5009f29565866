// Package auditor ties scan acquisition, attribution, scoring, aggregation
// and history together behind a single command interface used by both the
// CLI and the API server.
package auditor

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/raysh454/crumb/internal/attribution"
	"github.com/raysh454/crumb/internal/history"
	"github.com/raysh454/crumb/internal/logging"
	"github.com/raysh454/crumb/internal/model"
	"github.com/raysh454/crumb/internal/report"
	"github.com/raysh454/crumb/internal/scan"
	"github.com/raysh454/crumb/internal/scoring"
)

var (
	// ErrNoSource is returned by RunScan when no scan source is configured.
	ErrNoSource = errors.New("auditor: no scan source configured")

	// ErrNoDeleter is returned by DeleteCookies when no deleter is configured.
	ErrNoDeleter = errors.New("auditor: no cookie deleter configured")
)

// Deleter removes cookies from the browser. The auditor only decides which
// cookies qualify; the Deleter performs the side effect.
type Deleter interface {
	Delete(ctx context.Context, cookies []model.Cookie) (int, error)
}

// ScanResult is everything one scan produces.
type ScanResult struct {
	Snapshot          *model.ScanSnapshot        `json:"snapshot"`
	Analysis          model.PrivacyAnalysis      `json:"analysis"`
	Grade             string                     `json:"grade"`
	Companies         []model.CompanyTrackerData `json:"companies"`
	Cookies           []model.CategorizedCookie  `json:"cookies"`
	ThirdPartyScripts []string                   `json:"thirdPartyScripts,omitempty"`

	// Saved is false when the history store rejected the snapshot.
	Saved bool `json:"saved"`
}

// DeleteResult reports a deletion request.
type DeleteResult struct {
	Selector report.Selector `json:"selector"`
	Selected int             `json:"selected"`
	Deleted  int             `json:"deleted"`
	Cookies  []model.Cookie  `json:"cookies"`
}

// Options carries the optional collaborators of an Auditor.
type Options struct {
	Engine  *attribution.Engine
	Scorer  *scoring.Scorer
	Source  scan.Source
	Deleter Deleter

	// Now overrides the clock, for tests.
	Now func() time.Time
}

// Auditor runs scans and answers questions about their history.
type Auditor struct {
	engine  *attribution.Engine
	scorer  *scoring.Scorer
	store   history.Store
	source  scan.Source
	deleter Deleter
	logger  logging.Logger
	now     func() time.Time

	latestMu sync.RWMutex
	latest   *ScanResult

	jobsMu     sync.Mutex
	jobs       map[string]*Job
	jobCancels map[string]context.CancelFunc
}

// New returns an Auditor persisting to store. Nil options fall back to the
// built-in company database, default weights and the wall clock.
func New(store history.Store, logger logging.Logger, opts Options) *Auditor {
	a := &Auditor{
		engine:     opts.Engine,
		scorer:     opts.Scorer,
		store:      store,
		source:     opts.Source,
		deleter:    opts.Deleter,
		logger:     logger.With(logging.Field{Key: "component", Value: "auditor"}),
		now:        opts.Now,
		jobs:       make(map[string]*Job),
		jobCancels: make(map[string]context.CancelFunc),
	}
	if a.engine == nil {
		a.engine = attribution.Default()
	}
	if a.scorer == nil {
		a.scorer = scoring.New(scoring.DefaultWeights())
	}
	if a.now == nil {
		a.now = time.Now
	}
	return a
}

// progressFunc reports pipeline stages to scan jobs.
type progressFunc func(stage string, done, total int)

const pipelineStages = 3

// RunScan acquires a scan from the configured source and ingests it.
func (a *Auditor) RunScan(ctx context.Context) (*ScanResult, error) {
	return a.runScan(ctx, nil, nil)
}

// Ingest runs the pipeline over an already acquired scan.
func (a *Auditor) Ingest(ctx context.Context, raw model.RawScan) (*ScanResult, error) {
	return a.ingest(ctx, raw, nil)
}

func (a *Auditor) runScan(ctx context.Context, raw *model.RawScan, progress progressFunc) (*ScanResult, error) {
	if raw == nil {
		if a.source == nil {
			return nil, ErrNoSource
		}
		acquired, err := a.source.Acquire(ctx)
		if err != nil {
			a.logger.Error("scan acquisition failed", logging.Field{Key: "error", Value: err})
			return nil, fmt.Errorf("acquire scan: %w", err)
		}
		raw = acquired
	}
	if progress != nil {
		progress("acquired", 1, pipelineStages)
	}
	return a.ingest(ctx, *raw, progress)
}

func (a *Auditor) ingest(ctx context.Context, raw model.RawScan, progress progressFunc) (*ScanResult, error) {
	now := a.now()
	norm := scan.Normalize(raw, now)

	cookies := a.engine.CategorizeAll(norm.Cookies)
	analysis := a.scorer.Score(scoring.Input{
		TotalCookies:      len(cookies),
		Cookies:           cookies,
		LocalStorageBytes: norm.LocalStorage.TotalSize,
		Now:               now,
	})
	companies := report.SortCompanies(report.GroupByCompany(a.engine, cookies), report.SortByCookieCount)
	if progress != nil {
		progress("analyzed", 2, pipelineStages)
	}

	snap := buildSnapshot(norm, cookies, analysis)
	result := &ScanResult{
		Snapshot:          snap,
		Analysis:          analysis,
		Grade:             scoring.Grade(analysis.Score),
		Companies:         companies,
		Cookies:           cookies,
		ThirdPartyScripts: norm.ThirdPartyScripts,
	}

	a.latestMu.Lock()
	a.latest = result
	a.latestMu.Unlock()

	if err := a.store.Save(ctx, snap); err != nil {
		a.logger.Error("failed to save snapshot", logging.Field{Key: "error", Value: err})
		return result, fmt.Errorf("save snapshot: %w", err)
	}
	result.Saved = true
	if progress != nil {
		progress("saved", 3, pipelineStages)
	}

	a.logger.Info("scan recorded",
		logging.Field{Key: "snapshot_id", Value: snap.ID},
		logging.Field{Key: "score", Value: analysis.Score},
		logging.Field{Key: "cookies", Value: len(cookies)})
	return result, nil
}

func buildSnapshot(raw model.RawScan, cookies []model.CategorizedCookie, analysis model.PrivacyAnalysis) *model.ScanSnapshot {
	domains := make(map[string]struct{})
	tracking := 0
	for _, c := range cookies {
		if c.IsTracking {
			tracking++
		}
		if d := strings.TrimPrefix(c.Domain, "."); d != "" {
			domains[d] = struct{}{}
		}
	}

	categories := make(map[model.Category]int, len(analysis.Breakdown))
	for k, v := range analysis.Breakdown {
		categories[k] = v
	}

	a := analysis
	return &model.ScanSnapshot{
		Timestamp:       raw.Metadata.Timestamp,
		Score:           analysis.Score,
		TotalCookies:    len(cookies),
		TrackingCookies: tracking,
		UniqueDomains:   len(domains),
		StorageSizeMB:   float64(raw.TotalStorageBytes()) / (1024 * 1024),
		Categories:      categories,
		Inventory:       report.InventoryKeys(raw.Cookies),
		Analysis:        &a,
	}
}

// Latest returns the newest stored snapshot, or nil when there is none.
func (a *Auditor) Latest(ctx context.Context) (*model.ScanSnapshot, error) {
	snap, err := a.store.GetLatest(ctx)
	if err != nil {
		return nil, fmt.Errorf("load latest snapshot: %w", err)
	}
	return snap, nil
}

// History returns the snapshots within r, oldest first.
func (a *Auditor) History(ctx context.Context, r report.TimeRange) ([]*model.ScanSnapshot, error) {
	all, err := a.store.GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("load history: %w", err)
	}
	return report.FilterByTimeRange(all, r, a.now()), nil
}

// Trend summarizes the history within r.
func (a *Auditor) Trend(ctx context.Context, r report.TimeRange) (report.TrendReport, error) {
	all, err := a.store.GetAll(ctx)
	if err != nil {
		return report.TrendReport{}, fmt.Errorf("load history: %w", err)
	}
	return report.Summarize(all, r, a.now()), nil
}

// LatestScan returns the most recent in-process scan result, if any.
func (a *Auditor) LatestScan() *ScanResult {
	a.latestMu.RLock()
	defer a.latestMu.RUnlock()
	return a.latest
}

// Companies returns the trackers of the latest in-process scan, sorted by mode.
func (a *Auditor) Companies(mode report.SortMode) []model.CompanyTrackerData {
	latest := a.LatestScan()
	if latest == nil {
		return []model.CompanyTrackerData{}
	}
	return report.SortCompanies(latest.Companies, mode)
}

// DeleteCookies deletes the latest scan's cookies matching sel.
func (a *Auditor) DeleteCookies(ctx context.Context, sel report.Selector) (*DeleteResult, error) {
	if a.deleter == nil {
		return nil, ErrNoDeleter
	}
	if err := sel.Validate(); err != nil {
		return nil, err
	}
	res := &DeleteResult{Selector: sel, Cookies: []model.Cookie{}}
	latest := a.LatestScan()
	if latest == nil || sel.Empty() {
		return res, nil
	}

	selected := report.SelectForDeletion(latest.Cookies, sel)
	res.Selected = len(selected)
	if len(selected) == 0 {
		return res, nil
	}
	res.Cookies = selected

	n, err := a.deleter.Delete(ctx, selected)
	res.Deleted = n
	if err != nil {
		a.logger.Error("cookie deletion failed",
			logging.Field{Key: "company", Value: sel.Company},
			logging.Field{Key: "category", Value: sel.Category},
			logging.Field{Key: "error", Value: err})
		return res, fmt.Errorf("delete cookies: %w", err)
	}
	a.logger.Info("cookies deleted",
		logging.Field{Key: "company", Value: sel.Company},
		logging.Field{Key: "category", Value: sel.Category},
		logging.Field{Key: "count", Value: n})
	return res, nil
}

// DiffLatest diffs the cookie inventories of the two newest snapshots.
func (a *Auditor) DiffLatest(ctx context.Context) (report.InventoryDiff, error) {
	all, err := a.store.GetAll(ctx)
	if err != nil {
		return report.InventoryDiff{}, fmt.Errorf("load history: %w", err)
	}
	switch len(all) {
	case 0:
		return report.DiffInventories(nil, nil), nil
	case 1:
		return report.DiffSnapshots(nil, all[0]), nil
	default:
		return report.DiffSnapshots(all[len(all)-2], all[len(all)-1]), nil
	}
}

// ClearHistory removes every stored snapshot.
func (a *Auditor) ClearHistory(ctx context.Context) error {
	if err := a.store.Clear(ctx); err != nil {
		return fmt.Errorf("clear history: %w", err)
	}
	a.logger.Info("history cleared")
	return nil
}
