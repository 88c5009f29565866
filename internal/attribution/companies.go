package attribution

import "github.com/raysh454/crumb/internal/model"

// builtinCompanies is the static company database. Order is significant:
// lookups scan it top to bottom and the first match wins.
var builtinCompanies = []model.CompanyRecord{
	{
		Name:           "Google",
		Description:    "Google Analytics and Tag Manager measurement of visits and behaviour",
		Category:       model.CategoryAnalytics,
		Risk:           model.RiskMedium,
		Domains:        []string{"google-analytics.com", "googletagmanager.com", "analytics.google.com"},
		CookiePatterns: []string{`^_ga($|_)`, `^_gid$`, `^_gat`, `^__utm[abcvz]$`},
	},
	{
		Name:           "Google Ads",
		Description:    "DoubleClick and AdSense ad delivery and conversion tracking",
		Category:       model.CategoryAdvertising,
		Risk:           model.RiskHigh,
		Domains:        []string{"doubleclick.net", "googlesyndication.com", "googleadservices.com", "googletagservices.com"},
		CookiePatterns: []string{`^_gcl_`, `^IDE$`, `^DSID$`, `^__gads$`, `^__gpi$`},
	},
	{
		Name:           "Meta",
		Description:    "Facebook and Instagram pixel, ads and social plugins",
		Category:       model.CategoryAdvertising,
		Risk:           model.RiskHigh,
		Domains:        []string{"facebook.com", "facebook.net", "fbcdn.net", "instagram.com"},
		CookiePatterns: []string{`^_fbp$`, `^_fbc$`, `^fr$`},
	},
	{
		Name:           "Microsoft",
		Description:    "Bing Ads conversion tracking and Clarity session recording",
		Category:       model.CategoryAdvertising,
		Risk:           model.RiskHigh,
		Domains:        []string{"bing.com", "clarity.ms", "bat.bing.com"},
		CookiePatterns: []string{`^_uet(sid|vid)$`, `^MUID$`, `^_clck$`, `^_clsk$`},
	},
	{
		Name:           "Amazon",
		Description:    "Amazon advertising and affiliate tracking",
		Category:       model.CategoryAdvertising,
		Risk:           model.RiskHigh,
		Domains:        []string{"amazon-adsystem.com"},
		CookiePatterns: []string{`^ad-id$`, `^ad-privacy$`},
	},
	{
		Name:           "Adobe",
		Description:    "Adobe Analytics and Audience Manager visitor identification",
		Category:       model.CategoryAnalytics,
		Risk:           model.RiskMedium,
		Domains:        []string{"omtrdc.net", "demdex.net", "everesttech.net", "2o7.net"},
		CookiePatterns: []string{`^AMCV_`, `^AMCVS_`, `^s_(cc|sq|vi|fid)$`, `^demdex$`},
	},
	{
		Name:           "Hotjar",
		Description:    "Heatmaps and session recordings",
		Category:       model.CategoryAnalytics,
		Risk:           model.RiskMedium,
		Domains:        []string{"hotjar.com", "hotjar.io"},
		CookiePatterns: []string{`^_hj`},
	},
	{
		Name:           "Mixpanel",
		Description:    "Product analytics event tracking",
		Category:       model.CategoryAnalytics,
		Risk:           model.RiskMedium,
		Domains:        []string{"mixpanel.com", "mxpnl.com"},
		CookiePatterns: []string{`^mp_`},
	},
	{
		Name:           "Segment",
		Description:    "Customer data platform forwarding events to many vendors",
		Category:       model.CategoryAnalytics,
		Risk:           model.RiskMedium,
		Domains:        []string{"segment.com", "segment.io"},
		CookiePatterns: []string{`^ajs_`},
	},
	{
		Name:           "Amplitude",
		Description:    "Product analytics event tracking",
		Category:       model.CategoryAnalytics,
		Risk:           model.RiskMedium,
		Domains:        []string{"amplitude.com"},
		CookiePatterns: []string{`^amp_`, `^AMP_`},
	},
	{
		Name:           "HubSpot",
		Description:    "Marketing automation visitor tracking",
		Category:       model.CategoryAnalytics,
		Risk:           model.RiskMedium,
		Domains:        []string{"hubspot.com", "hs-analytics.net", "hs-scripts.com", "hsforms.com"},
		CookiePatterns: []string{`^__hs`, `^hubspotutk$`},
	},
	{
		Name:           "Yandex",
		Description:    "Yandex Metrica analytics and session replay",
		Category:       model.CategoryAnalytics,
		Risk:           model.RiskMedium,
		Domains:        []string{"yandex.ru", "yandex.com", "mc.yandex.ru"},
		CookiePatterns: []string{`^_ym_`, `^yandexuid$`},
	},
	{
		Name:           "Quantcast",
		Description:    "Audience measurement and ad targeting",
		Category:       model.CategoryAdvertising,
		Risk:           model.RiskHigh,
		Domains:        []string{"quantserve.com", "quantcount.com", "quantcast.com"},
		CookiePatterns: []string{`^__qca$`},
	},
	{
		Name:           "Criteo",
		Description:    "Retargeting advertising",
		Category:       model.CategoryAdvertising,
		Risk:           model.RiskHigh,
		Domains:        []string{"criteo.com", "criteo.net"},
		CookiePatterns: []string{`^cto_`},
	},
	{
		Name:           "Xandr",
		Description:    "AppNexus programmatic ad exchange",
		Category:       model.CategoryAdvertising,
		Risk:           model.RiskHigh,
		Domains:        []string{"adnxs.com"},
		CookiePatterns: []string{`^uuid2$`, `^anj$`},
	},
	{
		Name:           "The Trade Desk",
		Description:    "Demand-side ad platform identity syncing",
		Category:       model.CategoryAdvertising,
		Risk:           model.RiskHigh,
		Domains:        []string{"adsrvr.org"},
		CookiePatterns: []string{`^TDID$`, `^TDCPM$`},
	},
	{
		Name:           "Taboola",
		Description:    "Sponsored content recommendations",
		Category:       model.CategoryAdvertising,
		Risk:           model.RiskHigh,
		Domains:        []string{"taboola.com"},
		CookiePatterns: []string{`^t_gid$`, `^taboola_`},
	},
	{
		Name:           "Outbrain",
		Description:    "Sponsored content recommendations",
		Category:       model.CategoryAdvertising,
		Risk:           model.RiskHigh,
		Domains:        []string{"outbrain.com"},
		CookiePatterns: []string{`^obuid$`, `^outbrain_`},
	},
	{
		Name:           "TikTok",
		Description:    "TikTok pixel conversion tracking",
		Category:       model.CategorySocial,
		Risk:           model.RiskHigh,
		Domains:        []string{"tiktok.com", "tiktokcdn.com"},
		CookiePatterns: []string{`^_ttp$`, `^_tt_`},
	},
	{
		Name:           "X",
		Description:    "Twitter/X widgets and ads conversion tracking",
		Category:       model.CategorySocial,
		Risk:           model.RiskMedium,
		Domains:        []string{"twitter.com", "x.com", "ads-twitter.com", "t.co"},
		CookiePatterns: []string{`^personalization_id$`, `^muc_ads$`, `^guest_id`},
	},
	{
		Name:           "LinkedIn",
		Description:    "LinkedIn Insight tag and share buttons",
		Category:       model.CategorySocial,
		Risk:           model.RiskMedium,
		Domains:        []string{"linkedin.com", "licdn.com"},
		CookiePatterns: []string{`^li_`, `^bcookie$`, `^lidc$`, `^UserMatchHistory$`, `^AnalyticsSyncHistory$`},
	},
	{
		Name:           "Pinterest",
		Description:    "Pinterest tag and save buttons",
		Category:       model.CategorySocial,
		Risk:           model.RiskMedium,
		Domains:        []string{"pinterest.com", "pinimg.com"},
		CookiePatterns: []string{`^_pin_unauth$`, `^_pinterest_`},
	},
	{
		Name:           "Reddit",
		Description:    "Reddit pixel conversion tracking",
		Category:       model.CategorySocial,
		Risk:           model.RiskMedium,
		Domains:        []string{"reddit.com", "redditstatic.com"},
		CookiePatterns: []string{`^_rdt_uuid$`},
	},
	{
		Name:           "Snap",
		Description:    "Snap pixel conversion tracking",
		Category:       model.CategorySocial,
		Risk:           model.RiskMedium,
		Domains:        []string{"snapchat.com", "sc-static.net"},
		CookiePatterns: []string{`^_scid`, `^sc_at$`},
	},
	{
		Name:           "FingerprintJS",
		Description:    "Browser fingerprinting for persistent visitor identification",
		Category:       model.CategoryFingerprinting,
		Risk:           model.RiskCritical,
		Domains:        []string{"fingerprint.com", "fpjs.io", "fpcdn.io", "fpnpmcdn.net"},
		CookiePatterns: []string{`^_vid_t$`, `^_iidt$`, `^fpjs`},
	},
	{
		Name:           "Cloudflare",
		Description:    "Bot management and load balancing",
		Category:       model.CategoryEssential,
		Risk:           model.RiskLow,
		Domains:        []string{"cloudflare.com"},
		CookiePatterns: []string{`^__cf_bm$`, `^cf_clearance$`, `^__cfruid$`},
	},
	{
		Name:           "Stripe",
		Description:    "Payment processing and fraud prevention",
		Category:       model.CategoryFunctional,
		Risk:           model.RiskLow,
		Domains:        []string{"stripe.com", "stripe.network"},
		CookiePatterns: []string{`^__stripe_(mid|sid)$`},
	},
}

// BuiltinCompanies returns a copy of the built-in company database in declaration order.
func BuiltinCompanies() []model.CompanyRecord {
	out := make([]model.CompanyRecord, len(builtinCompanies))
	copy(out, builtinCompanies)
	return out
}
