package attribution

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/raysh454/crumb/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuiltinDatabaseCompiles(t *testing.T) {
	e, err := New(BuiltinCompanies())
	require.NoError(t, err)
	assert.Len(t, e.Records(), len(builtinCompanies))
}

func TestCompanyForDomain(t *testing.T) {
	e := Default()
	cases := []struct {
		domain string
		want   string
		ok     bool
	}{
		{"sub.google-analytics.com", "Google", true},
		{".google-analytics.com", "Google", true},
		{"google-analytics.com", "Google", true},
		{"stats.g.doubleclick.net", "Google Ads", true},
		{".facebook.com", "Meta", true},
		{"unrelated.example.com", "", false},
		{"notgoogle-analytics.com", "", false},
		{"netflix.com", "", false},
		{"", "", false},
	}
	for _, tc := range cases {
		got, ok := e.CompanyForDomain(tc.domain)
		assert.Equal(t, tc.ok, ok, tc.domain)
		assert.Equal(t, tc.want, got, tc.domain)
	}
}

func TestCompanyForCookie_DomainBeforePatterns(t *testing.T) {
	e := Default()

	// _ga would match Google's patterns, but the domain belongs to Meta.
	got, ok := e.CompanyForCookie("_ga", ".facebook.com")
	require.True(t, ok)
	assert.Equal(t, "Meta", got)

	got, ok = e.CompanyForCookie("_ga_ABC123", "example.com")
	require.True(t, ok)
	assert.Equal(t, "Google", got)

	got, ok = e.CompanyForCookie("_hjSessionUser_1", "shop.example.com")
	require.True(t, ok)
	assert.Equal(t, "Hotjar", got)

	_, ok = e.CompanyForCookie("theme", "example.com")
	assert.False(t, ok)
}

func TestCompanyForCookie_FirstDeclaredWins(t *testing.T) {
	e, err := New([]model.CompanyRecord{
		{Name: "First", Category: model.CategoryAnalytics, Risk: model.RiskLow, CookiePatterns: []string{`^_x`}},
		{Name: "Second", Category: model.CategoryAdvertising, Risk: model.RiskHigh, CookiePatterns: []string{`^_x`}, Domains: []string{"shared.net"}},
		{Name: "Third", Category: model.CategoryAdvertising, Risk: model.RiskHigh, Domains: []string{"shared.net"}},
	})
	require.NoError(t, err)

	for i := 0; i < 20; i++ {
		got, _ := e.CompanyForCookie("_xyz", "example.com")
		assert.Equal(t, "First", got)
		got, _ = e.CompanyForDomain("a.shared.net")
		assert.Equal(t, "Second", got)
	}
}

func TestCategoryForNameAndDomain(t *testing.T) {
	cases := []struct {
		name, domain string
		want         model.Category
	}{
		{"_ga", "example.com", model.CategoryAnalytics},
		{"csrf_token", "example.com", model.CategoryEssential},
		{"pref", "ads.auth.example.com", model.CategoryEssential},
		{"fpjs_visitor", "ads.example.com", model.CategoryFingerprinting},
		{"track", "ads.example.com", model.CategoryAdvertising},
		{"widget", "platform.twitter.com", model.CategorySocial},
		{"theme", "example.com", model.CategoryUnknown},
		{"", "", model.CategoryUnknown},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, CategoryForNameAndDomain(tc.name, tc.domain), "%s %s", tc.name, tc.domain)
	}
}

func TestCategorize(t *testing.T) {
	e := Default()

	cc := e.Categorize(model.Cookie{Name: "_fbp", Domain: ".example.com"})
	assert.Equal(t, "Meta", cc.Company)
	assert.Equal(t, model.CategoryAdvertising, cc.Category)
	assert.Equal(t, model.RiskHigh, cc.Risk)
	assert.True(t, cc.IsTracking)

	cc = e.Categorize(model.Cookie{Name: "csrf_token", Domain: "example.com"})
	assert.Empty(t, cc.Company)
	assert.Equal(t, model.CategoryEssential, cc.Category)
	assert.Equal(t, model.RiskLow, cc.Risk)
	assert.False(t, cc.IsTracking)

	cc = e.Categorize(model.Cookie{Name: "__cf_bm", Domain: ".example.com"})
	assert.Equal(t, "Cloudflare", cc.Company)
	assert.False(t, cc.IsTracking)
}

func TestNew_RejectsInvalidRecords(t *testing.T) {
	cases := map[string]model.CompanyRecord{
		"missing name":  {Category: model.CategoryAnalytics, Risk: model.RiskLow, Domains: []string{"a.com"}},
		"bad category":  {Name: "A", Category: "marketing", Risk: model.RiskLow, Domains: []string{"a.com"}},
		"bad risk":      {Name: "A", Category: model.CategoryAnalytics, Risk: "extreme", Domains: []string{"a.com"}},
		"no matchers":   {Name: "A", Category: model.CategoryAnalytics, Risk: model.RiskLow},
		"broken regexp": {Name: "A", Category: model.CategoryAnalytics, Risk: model.RiskLow, CookiePatterns: []string{"(["}},
	}
	for name, rec := range cases {
		_, err := New([]model.CompanyRecord{rec})
		assert.True(t, errors.Is(err, ErrInvalidCompany), "%s: %v", name, err)
	}

	ok := model.CompanyRecord{Name: "A", Category: model.CategoryAnalytics, Risk: model.RiskLow, Domains: []string{"a.com"}}
	_, err := New([]model.CompanyRecord{ok, ok})
	assert.ErrorIs(t, err, ErrInvalidCompany)
}

func TestNewFromFile_AppendsAfterBuiltins(t *testing.T) {
	path := filepath.Join(t.TempDir(), "companies.yaml")
	yml := `companies:
  - name: Acme Metrics
    description: Example vendor
    category: Analytics
    risk: MEDIUM
    domains: [acme-metrics.io]
    cookie_patterns: ['^_acme_']
  - name: Shadow
    category: advertising
    risk: high
    domains: [google-analytics.com]
`
	require.NoError(t, os.WriteFile(path, []byte(yml), 0o644))

	e, err := NewFromFile(path)
	require.NoError(t, err)

	got, ok := e.CompanyForCookie("_acme_id", "example.com")
	require.True(t, ok)
	assert.Equal(t, "Acme Metrics", got)

	rec, ok := e.Company("Acme Metrics")
	require.True(t, ok)
	assert.Equal(t, model.CategoryAnalytics, rec.Category)

	// Built-ins keep precedence over later records for the same domain.
	got, _ = e.CompanyForDomain("www.google-analytics.com")
	assert.Equal(t, "Google", got)
}

func TestNewFromFile_EmptyPathIsDefault(t *testing.T) {
	e, err := NewFromFile("")
	require.NoError(t, err)
	assert.Same(t, Default(), e)
}

func TestRegistrableDomain(t *testing.T) {
	assert.Equal(t, "bbc.co.uk", RegistrableDomain("www.news.bbc.co.uk"))
	assert.Equal(t, "example.com", RegistrableDomain(".shop.example.com"))
	assert.Equal(t, "localhost", RegistrableDomain("localhost"))
	assert.Equal(t, "", RegistrableDomain(""))
}
