package model

// Deduction is one itemized score reduction.
type Deduction struct {
	Type   string `json:"type"`
	Count  int    `json:"count"`
	Points int    `json:"points"`
}

// Recommendation is a remediation hint with the points it would recover.
type Recommendation struct {
	Action      string `json:"action"`
	Description string `json:"description"`
	Impact      int    `json:"impact"`
}

// HighRiskItem is a severity-tagged finding.
type HighRiskItem struct {
	Severity    RiskLevel `json:"severity"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Cookies     []string  `json:"cookies,omitempty"`
}

// PrivacyAnalysis is the scoring result for one scan. Never mutated after creation.
type PrivacyAnalysis struct {
	Score           int              `json:"score"`
	Breakdown       map[Category]int `json:"breakdown"`
	Recommendations []Recommendation `json:"recommendations"`
	HighRiskItems   []HighRiskItem   `json:"highRiskItems"`
	Deductions      []Deduction      `json:"deductions"`
}

// ScanSnapshot is one persisted point-in-time scan result.
type ScanSnapshot struct {
	// ID is assigned by the store on Save.
	ID string `json:"id"`

	// Timestamp is epoch milliseconds.
	Timestamp       int64            `json:"timestamp"`
	Score           int              `json:"score"`
	TotalCookies    int              `json:"totalCookies"`
	TrackingCookies int              `json:"trackingCookies"`
	UniqueDomains   int              `json:"uniqueDomains"`
	StorageSizeMB   float64          `json:"storageSizeMB"`
	Categories      map[Category]int `json:"categories"`

	// Inventory holds sorted Cookie.Key values, used for scan-to-scan diffs.
	Inventory []string `json:"inventory,omitempty"`

	Analysis *PrivacyAnalysis `json:"analysis,omitempty"`
}
