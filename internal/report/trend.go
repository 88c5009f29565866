package report

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/raysh454/crumb/internal/model"
)

// TimeRange is a history window.
type TimeRange string

const (
	Range7Days  TimeRange = "7days"
	Range30Days TimeRange = "30days"
	RangeAll    TimeRange = "all"
)

// ParseTimeRange validates s. An empty string selects RangeAll.
func ParseTimeRange(s string) (TimeRange, error) {
	switch r := TimeRange(strings.ToLower(strings.TrimSpace(s))); r {
	case "":
		return RangeAll, nil
	case Range7Days, Range30Days, RangeAll:
		return r, nil
	default:
		return "", fmt.Errorf("unknown time range %q", s)
	}
}

// Window returns the range's length, or 0 for RangeAll.
func (r TimeRange) Window() time.Duration {
	switch r {
	case Range7Days:
		return 7 * 24 * time.Hour
	case Range30Days:
		return 30 * 24 * time.Hour
	default:
		return 0
	}
}

// Trend is the direction of the score over a window.
type Trend string

const (
	TrendImproving Trend = "improving"
	TrendDeclining Trend = "declining"
	TrendStable    Trend = "stable"
)

const trendThreshold = 5.0

// Change is the difference between the two most recent snapshots
// (current minus previous).
type Change struct {
	ScoreChange   int     `json:"scoreChange"`
	CookieChange  int     `json:"cookieChange"`
	StorageChange float64 `json:"storageChange"`
}

// TrendReport is the dashboard's view over a history window.
type TrendReport struct {
	Range  TimeRange             `json:"range"`
	Points []*model.ScanSnapshot `json:"points"`
	Trend  Trend                 `json:"trend"`

	// Change compares the two most recent snapshots regardless of range.
	Change Change `json:"change"`

	// CookiesCleared only counts decreases between consecutive scans, so it
	// cannot tell deletions apart from expiry.
	CookiesCleared int     `json:"cookiesCleared"`
	AverageScore   float64 `json:"averageScore"`
}

// FilterByTimeRange keeps snapshots with now - timestamp < window and returns
// them oldest first. The input is not modified.
func FilterByTimeRange(snapshots []*model.ScanSnapshot, r TimeRange, now time.Time) []*model.ScanSnapshot {
	window := r.Window().Milliseconds()
	nowMs := now.UnixMilli()

	out := make([]*model.ScanSnapshot, 0, len(snapshots))
	for _, s := range snapshots {
		if s == nil {
			continue
		}
		if window > 0 && nowMs-s.Timestamp >= window {
			continue
		}
		out = append(out, s)
	}
	sortChronological(out)
	return out
}

// ComputeTrend compares the average of the second half of scores with the
// first half. The split index is floor(n/2) with a minimum of 1, so an odd
// extra element lands in the second half.
func ComputeTrend(scores []int) Trend {
	if len(scores) < 2 {
		return TrendStable
	}
	mid := len(scores) / 2
	if mid < 1 {
		mid = 1
	}
	diff := average(scores[mid:]) - average(scores[:mid])
	switch {
	case diff > trendThreshold:
		return TrendImproving
	case diff < -trendThreshold:
		return TrendDeclining
	default:
		return TrendStable
	}
}

// ComputeChangeSinceLast diffs the two most recent snapshots by timestamp.
func ComputeChangeSinceLast(snapshots []*model.ScanSnapshot) Change {
	ordered := chronological(snapshots)
	if len(ordered) < 2 {
		return Change{}
	}
	cur, prev := ordered[len(ordered)-1], ordered[len(ordered)-2]
	return Change{
		ScoreChange:   cur.Score - prev.Score,
		CookieChange:  cur.TotalCookies - prev.TotalCookies,
		StorageChange: cur.StorageSizeMB - prev.StorageSizeMB,
	}
}

// EstimateCookiesCleared sums the decreases in TotalCookies between
// consecutive snapshots. Increases count as zero.
func EstimateCookiesCleared(snapshots []*model.ScanSnapshot) int {
	ordered := chronological(snapshots)
	cleared := 0
	for i := 1; i < len(ordered); i++ {
		if d := ordered[i-1].TotalCookies - ordered[i].TotalCookies; d > 0 {
			cleared += d
		}
	}
	return cleared
}

// Summarize builds the TrendReport for r.
func Summarize(snapshots []*model.ScanSnapshot, r TimeRange, now time.Time) TrendReport {
	points := FilterByTimeRange(snapshots, r, now)
	scores := make([]int, 0, len(points))
	for _, p := range points {
		scores = append(scores, p.Score)
	}
	return TrendReport{
		Range:          r,
		Points:         points,
		Trend:          ComputeTrend(scores),
		Change:         ComputeChangeSinceLast(snapshots),
		CookiesCleared: EstimateCookiesCleared(points),
		AverageScore:   average(scores),
	}
}

func average(xs []int) float64 {
	if len(xs) == 0 {
		return 0
	}
	sum := 0
	for _, x := range xs {
		sum += x
	}
	return float64(sum) / float64(len(xs))
}

func chronological(snapshots []*model.ScanSnapshot) []*model.ScanSnapshot {
	out := make([]*model.ScanSnapshot, 0, len(snapshots))
	for _, s := range snapshots {
		if s != nil {
			out = append(out, s)
		}
	}
	sortChronological(out)
	return out
}

func sortChronological(s []*model.ScanSnapshot) {
	sort.SliceStable(s, func(i, j int) bool {
		return s[i].Timestamp < s[j].Timestamp
	})
}
