package attribution

import (
	"strings"

	"github.com/raysh454/crumb/internal/model"
)

// keywordRule maps substrings of "name domain" to a category.
type keywordRule struct {
	category model.Category
	keywords []string
}

// keywordRules are evaluated in order; the first list with a hit decides.
// The order is the precedence: essential > fingerprinting > advertising > social > analytics.
var keywordRules = []keywordRule{
	{
		category: model.CategoryEssential,
		keywords: []string{"csrf", "xsrf", "session", "sess", "auth", "token", "login", "consent", "cart", "checkout", "__host-", "__secure-"},
	},
	{
		category: model.CategoryFingerprinting,
		keywords: []string{"fingerprint", "fpjs", "deviceid", "device_id", "canvas", "visitorid", "_iidt"},
	},
	{
		category: model.CategoryAdvertising,
		keywords: []string{"ads", "adsystem", "adservice", "doubleclick", "_gcl", "criteo", "taboola", "outbrain", "adnxs", "adsrvr", "_fbp", "_uet", "retarget"},
	},
	{
		category: model.CategorySocial,
		keywords: []string{"facebook", "twitter", "linkedin", "pinterest", "instagram", "tiktok", "reddit", "sharethis", "addthis", "disqus"},
	},
	{
		category: model.CategoryAnalytics,
		keywords: []string{"_ga", "_gid", "_gat", "__utm", "utm_", "analytics", "_hj", "mixpanel", "amplitude", "segment", "_pk_", "matomo", "heap", "_clck", "_clsk", "statcounter", "metrics"},
	},
}

// CategoryForNameAndDomain classifies a cookie without company information.
// It never fails; unmatched input is CategoryUnknown.
func CategoryForNameAndDomain(name, domain string) model.Category {
	haystack := strings.ToLower(name + " " + domain)
	for _, rule := range keywordRules {
		for _, kw := range rule.keywords {
			if strings.Contains(haystack, kw) {
				return rule.category
			}
		}
	}
	return model.CategoryUnknown
}

// DefaultRisk is the risk assigned to an unattributed cookie of category c.
func DefaultRisk(c model.Category) model.RiskLevel {
	switch c {
	case model.CategoryFingerprinting:
		return model.RiskCritical
	case model.CategoryAdvertising:
		return model.RiskHigh
	case model.CategorySocial, model.CategoryAnalytics:
		return model.RiskMedium
	default:
		return model.RiskLow
	}
}
