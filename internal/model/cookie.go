package model

import "strings"

// Category is a coarse purpose classification for a cookie or company.
type Category string

const (
	CategoryAnalytics      Category = "analytics"
	CategoryAdvertising    Category = "advertising"
	CategorySocial         Category = "social"
	CategoryFingerprinting Category = "fingerprinting"
	CategoryEssential      Category = "essential"
	CategoryFunctional     Category = "functional"
	CategoryUnknown        Category = "unknown"
)

// Categories lists every category in display order.
var Categories = []Category{
	CategoryAnalytics,
	CategoryAdvertising,
	CategorySocial,
	CategoryFingerprinting,
	CategoryEssential,
	CategoryFunctional,
	CategoryUnknown,
}

// IsTracking reports whether cookies of this category count as tracking.
func (c Category) IsTracking() bool {
	switch c {
	case CategoryAnalytics, CategoryAdvertising, CategorySocial, CategoryFingerprinting:
		return true
	default:
		return false
	}
}

// Valid reports whether c is one of the known categories.
func (c Category) Valid() bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

// ParseCategory returns the category named by s, or CategoryUnknown.
func ParseCategory(s string) Category {
	c := Category(strings.ToLower(strings.TrimSpace(s)))
	if c.Valid() {
		return c
	}
	return CategoryUnknown
}

// RiskLevel is a severity bucket.
type RiskLevel string

const (
	RiskLow      RiskLevel = "low"
	RiskMedium   RiskLevel = "medium"
	RiskHigh     RiskLevel = "high"
	RiskCritical RiskLevel = "critical"
)

// Rank orders risk levels from most to least severe (critical=0).
// Unknown levels sort last.
func (r RiskLevel) Rank() int {
	switch r {
	case RiskCritical:
		return 0
	case RiskHigh:
		return 1
	case RiskMedium:
		return 2
	case RiskLow:
		return 3
	default:
		return 4
	}
}

// SameSite mirrors the browser cookie store's sameSite values.
type SameSite string

const (
	SameSiteNoRestriction SameSite = "no_restriction"
	SameSiteLax           SameSite = "lax"
	SameSiteStrict        SameSite = "strict"
	SameSiteUnspecified   SameSite = "unspecified"
)

// ParseSameSite accepts both extension-style and DevTools-style spellings.
func ParseSameSite(s string) SameSite {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "no_restriction", "none":
		return SameSiteNoRestriction
	case "lax":
		return SameSiteLax
	case "strict":
		return SameSiteStrict
	default:
		return SameSiteUnspecified
	}
}

// Cookie is one entry from the browser cookie store. It is read-only input.
type Cookie struct {
	Name     string   `json:"name"`
	Value    string   `json:"value"`
	Domain   string   `json:"domain"`
	Path     string   `json:"path"`
	Secure   bool     `json:"secure"`
	HTTPOnly bool     `json:"httpOnly"`
	SameSite SameSite `json:"sameSite"`
	Session  bool     `json:"session"`

	// ExpirationDate is epoch seconds; nil for session cookies.
	ExpirationDate *float64 `json:"expirationDate,omitempty"`
}

// Key identifies a cookie within an inventory as "domain\tname".
func (c Cookie) Key() string {
	return c.Domain + "\t" + c.Name
}

// CategorizedCookie is a Cookie with its attribution result.
type CategorizedCookie struct {
	Cookie
	Category   Category  `json:"category"`
	Risk       RiskLevel `json:"risk"`
	IsTracking bool      `json:"isTracking"`

	// Company is empty when no known company owns the cookie.
	Company string `json:"company,omitempty"`
}

// CompanyRecord is a static reference entry of the company database.
type CompanyRecord struct {
	Name           string    `json:"name" yaml:"name" validate:"required"`
	Description    string    `json:"description" yaml:"description"`
	Category       Category  `json:"category" yaml:"category" validate:"required,oneof=analytics advertising social fingerprinting essential functional unknown"`
	Risk           RiskLevel `json:"risk" yaml:"risk" validate:"required,oneof=low medium high critical"`
	Domains        []string  `json:"domains" yaml:"domains" validate:"required_without=CookiePatterns,dive,required"`
	CookiePatterns []string  `json:"cookiePatterns" yaml:"cookie_patterns" validate:"required_without=Domains,dive,required"`
}

// CompanyTrackerData groups one company's cookies for display.
type CompanyTrackerData struct {
	Company     string              `json:"company"`
	Domains     []string            `json:"domains"`
	CookieCount int                 `json:"cookieCount"`
	Cookies     []CategorizedCookie `json:"cookies"`
	Category    Category            `json:"category"`
	Risk        RiskLevel           `json:"risk"`
	Description string              `json:"description"`

	// SiteCount is the number of distinct registrable domains observed.
	SiteCount int `json:"siteCount"`
}
