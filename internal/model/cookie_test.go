package model

import "testing"

func TestRiskLevel_Rank(t *testing.T) {
	cases := []struct {
		risk RiskLevel
		want int
	}{
		{RiskCritical, 0},
		{RiskHigh, 1},
		{RiskMedium, 2},
		{RiskLow, 3},
		{RiskLevel("bogus"), 4},
	}
	for _, tc := range cases {
		if got := tc.risk.Rank(); got != tc.want {
			t.Errorf("%q.Rank() = %d, want %d", tc.risk, got, tc.want)
		}
	}
}

func TestCategory_IsTracking(t *testing.T) {
	tracking := map[Category]bool{
		CategoryAnalytics:      true,
		CategoryAdvertising:    true,
		CategorySocial:         true,
		CategoryFingerprinting: true,
		CategoryEssential:      false,
		CategoryFunctional:     false,
		CategoryUnknown:        false,
	}
	for c, want := range tracking {
		if got := c.IsTracking(); got != want {
			t.Errorf("%q.IsTracking() = %v, want %v", c, got, want)
		}
	}
}

func TestParseCategory(t *testing.T) {
	if got := ParseCategory(" Advertising "); got != CategoryAdvertising {
		t.Errorf("ParseCategory = %q, want advertising", got)
	}
	if got := ParseCategory("marketing"); got != CategoryUnknown {
		t.Errorf("ParseCategory(marketing) = %q, want unknown", got)
	}
}

func TestParseSameSite(t *testing.T) {
	cases := map[string]SameSite{
		"None":           SameSiteNoRestriction,
		"no_restriction": SameSiteNoRestriction,
		"Lax":            SameSiteLax,
		"strict":         SameSiteStrict,
		"":               SameSiteUnspecified,
		"weird":          SameSiteUnspecified,
	}
	for in, want := range cases {
		if got := ParseSameSite(in); got != want {
			t.Errorf("ParseSameSite(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestRawScan_TotalStorageBytes(t *testing.T) {
	r := RawScan{
		LocalStorage:   StorageUsage{TotalSize: 100},
		SessionStorage: StorageUsage{TotalSize: 20},
		IndexedDB:      IndexedDBUsage{EstimatedSize: 3},
	}
	if got := r.TotalStorageBytes(); got != 123 {
		t.Errorf("TotalStorageBytes = %d, want 123", got)
	}
}
