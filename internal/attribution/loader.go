package attribution

import (
	"fmt"
	"os"
	"strings"

	"github.com/raysh454/crumb/internal/model"
	"golang.org/x/net/publicsuffix"
	"gopkg.in/yaml.v3"
)

// companyFile is the on-disk shape of an extra company database.
//
//	companies:
//	  - name: Acme Metrics
//	    category: analytics
//	    risk: medium
//	    domains: [acme-metrics.io]
//	    cookie_patterns: ['^_acme_']
type companyFile struct {
	Companies []model.CompanyRecord `yaml:"companies"`
}

// LoadCompanies reads company records from a YAML file.
func LoadCompanies(path string) ([]model.CompanyRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read company file %s: %w", path, err)
	}
	return ParseCompanies(data)
}

// ParseCompanies decodes company records from YAML bytes.
func ParseCompanies(data []byte) ([]model.CompanyRecord, error) {
	var f companyFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("%w: decode yaml: %v", ErrInvalidCompany, err)
	}
	for i := range f.Companies {
		f.Companies[i].Category = model.Category(strings.ToLower(string(f.Companies[i].Category)))
		f.Companies[i].Risk = model.RiskLevel(strings.ToLower(string(f.Companies[i].Risk)))
	}
	return f.Companies, nil
}

// NewFromFile returns the default engine extended with the records in path.
// An empty path returns Default().
func NewFromFile(path string) (*Engine, error) {
	if path == "" {
		return Default(), nil
	}
	extra, err := LoadCompanies(path)
	if err != nil {
		return nil, err
	}
	return Default().With(extra...)
}

// RegistrableDomain returns the eTLD+1 of domain ("www.news.bbc.co.uk" ->
// "bbc.co.uk"). Hosts without a public suffix fall back to the normalized input.
func RegistrableDomain(domain string) string {
	d := normalizeDomain(domain)
	if d == "" {
		return ""
	}
	if etld1, err := publicsuffix.EffectiveTLDPlusOne(d); err == nil {
		return etld1
	}
	return d
}
