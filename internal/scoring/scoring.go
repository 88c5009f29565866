// Package scoring turns categorized cookie and storage counts into a 0-100
// privacy score with itemized deductions, recommendations and high-risk findings.
//
// Scoring is a pure function of its Input; a Scorer holds only its weights and
// is safe for concurrent use.
package scoring

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/raysh454/crumb/internal/model"
)

const (
	maxSampleCookies       = 5
	advertisingFindingMin  = 20
	localStorageFindingMax = 1024 * 1024
	longLivedAdviceMin     = 5
	localStorageAdviceMin  = 5
)

// Input is what the scorer needs from a scan.
type Input struct {
	// TotalCookies is the denominator of the ratio terms. When zero it
	// defaults to len(Cookies). Scores only fall monotonically as penalized
	// cookies are added while this denominator stays fixed; when it grows
	// with each cookie, rounding can raise the score by a point.
	TotalCookies      int
	Cookies           []model.CategorizedCookie
	LocalStorageBytes int64

	// Now anchors the long-lived check; zero means time.Now().
	Now time.Time
}

// Scorer computes PrivacyAnalysis values with a fixed set of weights.
type Scorer struct {
	weights Weights
}

// New returns a Scorer using w.
func New(w Weights) *Scorer {
	return &Scorer{weights: w}
}

// Score scores in with DefaultWeights.
func Score(in Input) model.PrivacyAnalysis {
	return New(DefaultWeights()).Score(in)
}

// Weights returns the scorer's weights.
func (s *Scorer) Weights() Weights {
	return s.weights
}

// counts is the raw tally the deductions are computed from.
type counts struct {
	total             int
	breakdown         map[model.Category]int
	tracking          int
	advertising       int
	fingerprinting    int
	fingerprintNames  []string
	longLived         int
	insecureSensitive int
	storageUnits      int
	storageBytes      int64
}

// Score computes the analysis for in.
func (s *Scorer) Score(in Input) model.PrivacyAnalysis {
	c := s.tally(in)
	w := s.weights

	var deductions []model.Deduction
	add := func(typ string, count, points int) int {
		if points != 0 {
			deductions = append(deductions, model.Deduction{Type: typ, Count: count, Points: points})
		}
		return points
	}

	total := 0
	trackingPts := add(DeductionTracking, c.tracking, dimensionDeduction(c.tracking, c.total, w.Tracking))
	advertisingPts := add(DeductionAdvertising, c.advertising, dimensionDeduction(c.advertising, c.total, w.Advertising))
	fingerprintPts := add(DeductionFingerprinting, c.fingerprinting, dimensionDeduction(c.fingerprinting, c.total, w.Fingerprinting))
	longLivedPts := add(DeductionLongLived, c.longLived, c.longLived*w.LongLivedPoints)
	insecurePts := add(DeductionInsecureSensitive, c.insecureSensitive, c.insecureSensitive*w.InsecureSensitivePoints)
	storagePts := add(DeductionLocalStorage, c.storageUnits, c.storageUnits*w.LocalStorageUnitPoints)
	total = trackingPts + advertisingPts + fingerprintPts + longLivedPts + insecurePts + storagePts

	score := 100 - total
	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}

	var recs []model.Recommendation
	if advertisingPts > 0 {
		recs = append(recs, model.Recommendation{
			Action:      "Block advertising cookies",
			Description: fmt.Sprintf("%d advertising cookies follow you across sites for ad targeting. Block third-party cookies or use an ad blocker.", c.advertising),
			Impact:      advertisingPts,
		})
	}
	if fingerprintPts > 0 {
		recs = append(recs, model.Recommendation{
			Action:      "Remove fingerprinting trackers",
			Description: fmt.Sprintf("%d fingerprinting cookies identify your browser even after clearing cookies. Enable fingerprinting protection.", c.fingerprinting),
			Impact:      fingerprintPts,
		})
	}
	if trackingPts > 0 {
		recs = append(recs, model.Recommendation{
			Action:      "Limit analytics and social tracking",
			Description: fmt.Sprintf("%d analytics and social cookies record your activity. Clear them regularly or opt out in site settings.", c.tracking),
			Impact:      trackingPts,
		})
	}
	if longLivedPts > 0 && c.longLived > longLivedAdviceMin {
		recs = append(recs, model.Recommendation{
			Action:      "Clear long-lived cookies",
			Description: fmt.Sprintf("%d cookies expire more than a year from now. Clear cookies on browser exit.", c.longLived),
			Impact:      longLivedPts,
		})
	}
	if insecurePts > 0 {
		recs = append(recs, model.Recommendation{
			Action:      "Review insecure cookies on sensitive sites",
			Description: fmt.Sprintf("%d cookies on banking, payment or login domains lack the Secure flag and can leak over plain HTTP.", c.insecureSensitive),
			Impact:      insecurePts,
		})
	}
	if storagePts > 0 && c.storageUnits > localStorageAdviceMin {
		recs = append(recs, model.Recommendation{
			Action:      "Clear local storage",
			Description: fmt.Sprintf("Sites keep %s in localStorage, which survives cookie clearing.", formatBytes(c.storageBytes)),
			Impact:      storagePts,
		})
	}

	var items []model.HighRiskItem
	if c.fingerprinting > 0 {
		items = append(items, model.HighRiskItem{
			Severity:    model.RiskCritical,
			Title:       "Fingerprinting detected",
			Description: fmt.Sprintf("%d cookies are associated with browser fingerprinting.", c.fingerprinting),
			Cookies:     c.fingerprintNames,
		})
	}
	if c.insecureSensitive > 0 {
		items = append(items, model.HighRiskItem{
			Severity:    model.RiskHigh,
			Title:       "Insecure cookies on sensitive domains",
			Description: fmt.Sprintf("%d cookies on sensitive domains are sent without the Secure flag.", c.insecureSensitive),
		})
	}
	if c.advertising > advertisingFindingMin {
		items = append(items, model.HighRiskItem{
			Severity:    model.RiskMedium,
			Title:       "Heavy advertising tracking",
			Description: fmt.Sprintf("%d advertising cookies are present.", c.advertising),
		})
	}
	if c.storageBytes > localStorageFindingMax {
		items = append(items, model.HighRiskItem{
			Severity:    model.RiskMedium,
			Title:       "Large local storage usage",
			Description: fmt.Sprintf("Sites store %s in localStorage.", formatBytes(c.storageBytes)),
		})
	}

	return model.PrivacyAnalysis{
		Score:           score,
		Breakdown:       c.breakdown,
		Recommendations: recs,
		HighRiskItems:   items,
		Deductions:      deductions,
	}
}

func (s *Scorer) tally(in Input) counts {
	w := s.weights
	now := in.Now
	if now.IsZero() {
		now = time.Now()
	}
	longLivedCutoff := float64(now.Add(w.LongLivedAfter).Unix())

	c := counts{
		total:     in.TotalCookies,
		breakdown: make(map[model.Category]int, len(model.Categories)),
	}
	if c.total <= 0 {
		c.total = len(in.Cookies)
	}
	for _, cat := range model.Categories {
		c.breakdown[cat] = 0
	}

	for _, ck := range in.Cookies {
		cat := model.ParseCategory(string(ck.Category))
		c.breakdown[cat]++

		switch cat {
		case model.CategoryAnalytics, model.CategorySocial:
			c.tracking++
		case model.CategoryAdvertising:
			c.advertising++
		case model.CategoryFingerprinting:
			c.fingerprinting++
			if len(c.fingerprintNames) < maxSampleCookies {
				c.fingerprintNames = append(c.fingerprintNames, ck.Name)
			}
		}

		if !ck.Session && ck.ExpirationDate != nil && *ck.ExpirationDate > longLivedCutoff {
			c.longLived++
		}
		if !ck.Secure && isSensitiveDomain(ck.Domain, w.SensitiveKeywords) {
			c.insecureSensitive++
		}
	}

	if in.LocalStorageBytes > 0 {
		c.storageBytes = in.LocalStorageBytes
		unitKB := w.LocalStorageUnitKB
		if unitKB <= 0 {
			unitKB = 100
		}
		sizeKB := float64(in.LocalStorageBytes) / 1024
		c.storageUnits = int(math.Floor(sizeKB / float64(unitKB)))
	}

	return c
}

// dimensionDeduction guards total == 0 so the ratio term is 0, never NaN.
func dimensionDeduction(count, total int, d Dimension) int {
	if count <= 0 {
		return 0
	}
	var ratio float64
	if total > 0 {
		ratio = float64(count) / float64(total) * d.RatioWeight
	}
	var volume float64
	if d.Linear {
		volume = float64(count) * d.VolumeMultiplier
	} else {
		volume = math.Log10(float64(count)+1) * d.VolumeMultiplier
	}
	volume = math.Min(d.VolumeCap, volume)
	return int(math.Round(ratio + volume))
}

func isSensitiveDomain(domain string, keywords []string) bool {
	d := strings.ToLower(domain)
	for _, kw := range keywords {
		if kw != "" && strings.Contains(d, kw) {
			return true
		}
	}
	return false
}

func formatBytes(n int64) string {
	switch {
	case n >= 1024*1024:
		return fmt.Sprintf("%.1f MB", float64(n)/(1024*1024))
	case n >= 1024:
		return fmt.Sprintf("%.1f KB", float64(n)/1024)
	default:
		return fmt.Sprintf("%d B", n)
	}
}
