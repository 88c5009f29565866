package demosite

import "time"

// CookieDef defines a cookie the demo page sets.
type CookieDef struct {
	Name     string
	Value    string
	MaxAge   time.Duration // zero for a session cookie
	HttpOnly bool
	Secure   bool
	SameSite string // "Strict", "Lax", "None", or ""
}

// Stage is one step of the demo: each stage adds trackers to the previous.
type Stage struct {
	Number      int
	Title       string
	Description string
	Cookies     []CookieDef
	Scripts     []string

	// StorageKB is written to localStorage by the page.
	StorageKB int
}

const year = 365 * 24 * time.Hour

var (
	essentialCookies = []CookieDef{
		{Name: "sessionid", Value: "demo-session", HttpOnly: true, SameSite: "Lax"},
		{Name: "cookie_consent", Value: "granted", MaxAge: 180 * 24 * time.Hour, SameSite: "Lax"},
	}
	analyticsCookies = []CookieDef{
		{Name: "_ga", Value: "GA1.1.123456789.1700000000", MaxAge: 2 * year},
		{Name: "_gid", Value: "GA1.1.987654321.1700000000", MaxAge: 24 * time.Hour},
		{Name: "_hjSessionUser_42", Value: "eyJpZCI6ImRlbW8ifQ", MaxAge: year},
	}
	advertisingCookies = []CookieDef{
		{Name: "_fbp", Value: "fb.1.1700000000.1234567890", MaxAge: 90 * 24 * time.Hour},
		{Name: "_gcl_au", Value: "1.1.1234567890.1700000000", MaxAge: 90 * 24 * time.Hour},
		{Name: "IDE", Value: "AHWqTUm-demo", MaxAge: 2 * year, SameSite: "None", Secure: true},
		{Name: "_uetvid", Value: "0123456789abcdef", MaxAge: 2 * year},
	}
	fingerprintCookies = []CookieDef{
		{Name: "_iidt", Value: "fp-demo-visitor", MaxAge: 2 * year},
		{Name: "fpjs_visitorid", Value: "v1-demo", MaxAge: 2 * year},
	}
)

func join(parts ...[]CookieDef) []CookieDef {
	var out []CookieDef
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}

// stages are ordered by Number, starting at 1.
var stages = []Stage{
	{
		Number:      1,
		Title:       "Clean shop",
		Description: "Only a session cookie and a consent record.",
		Cookies:     essentialCookies,
		Scripts:     []string{"/static/app.js"},
		StorageKB:   4,
	},
	{
		Number:      2,
		Title:       "Analytics",
		Description: "Google Analytics and Hotjar measure every visit.",
		Cookies:     join(essentialCookies, analyticsCookies),
		Scripts: []string{
			"/static/app.js",
			"https://www.googletagmanager.com/gtag/js?id=G-DEMO",
			"https://static.hotjar.com/c/hotjar-42.js",
		},
		StorageKB: 64,
	},
	{
		Number:      3,
		Title:       "Advertising",
		Description: "Ad pixels from Meta, Google Ads and Microsoft join in.",
		Cookies:     join(essentialCookies, analyticsCookies, advertisingCookies),
		Scripts: []string{
			"/static/app.js",
			"https://www.googletagmanager.com/gtag/js?id=G-DEMO",
			"https://static.hotjar.com/c/hotjar-42.js",
			"https://connect.facebook.net/en_US/fbevents.js",
			"https://securepubads.g.doubleclick.net/tag/js/gpt.js",
			"https://bat.bing.com/bat.js",
		},
		StorageKB: 256,
	},
	{
		Number:      4,
		Title:       "Fingerprinting",
		Description: "A device fingerprinting vendor identifies returning visitors.",
		Cookies:     join(essentialCookies, analyticsCookies, advertisingCookies, fingerprintCookies),
		Scripts: []string{
			"/static/app.js",
			"https://www.googletagmanager.com/gtag/js?id=G-DEMO",
			"https://static.hotjar.com/c/hotjar-42.js",
			"https://connect.facebook.net/en_US/fbevents.js",
			"https://securepubads.g.doubleclick.net/tag/js/gpt.js",
			"https://bat.bing.com/bat.js",
			"https://fpjscdn.net/v3/demo-key",
		},
		StorageKB: 1536,
	},
}

// Stages returns every demo stage in order.
func Stages() []Stage {
	out := make([]Stage, len(stages))
	copy(out, stages)
	return out
}

// StageByNumber returns stage n.
func StageByNumber(n int) (Stage, bool) {
	if n < 1 || n > len(stages) {
		return Stage{}, false
	}
	return stages[n-1], true
}
