// Package attribution maps cookies and domains to known tracking companies
// and coarse purpose categories.
//
// Lookups scan the company database in declaration order and the first match
// wins, so results are reproducible for overlapping records. The database is
// read-only after construction and an Engine is safe for concurrent use.
package attribution

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/raysh454/crumb/internal/model"
)

// ErrInvalidCompany reports a company record that cannot be loaded.
var ErrInvalidCompany = errors.New("attribution: invalid company record")

type company struct {
	record   model.CompanyRecord
	domains  []string
	patterns []*regexp.Regexp
}

// Engine resolves cookies and domains against an ordered company database.
type Engine struct {
	companies []company
	byName    map[string]int
}

var (
	defaultOnce   sync.Once
	defaultEngine *Engine
)

// Default returns the engine over the built-in company database.
func Default() *Engine {
	defaultOnce.Do(func() {
		e, err := New(builtinCompanies)
		if err != nil {
			// The built-in table is covered by tests; a failure here is a programming error.
			panic(fmt.Sprintf("attribution: built-in company database: %v", err))
		}
		defaultEngine = e
	})
	return defaultEngine
}

// New validates records, compiles their cookie patterns and returns an Engine
// preserving the given order.
func New(records []model.CompanyRecord) (*Engine, error) {
	validate := validator.New()
	e := &Engine{
		companies: make([]company, 0, len(records)),
		byName:    make(map[string]int, len(records)),
	}

	for i, rec := range records {
		if err := validate.Struct(rec); err != nil {
			return nil, fmt.Errorf("%w: record %d (%q): %v", ErrInvalidCompany, i, rec.Name, err)
		}
		if len(rec.Domains) == 0 && len(rec.CookiePatterns) == 0 {
			return nil, fmt.Errorf("%w: record %d (%q): no domains or cookie patterns", ErrInvalidCompany, i, rec.Name)
		}
		if _, dup := e.byName[rec.Name]; dup {
			return nil, fmt.Errorf("%w: duplicate company %q", ErrInvalidCompany, rec.Name)
		}

		c := company{record: rec}
		for _, d := range rec.Domains {
			c.domains = append(c.domains, normalizeDomain(d))
		}
		for _, p := range rec.CookiePatterns {
			re, err := regexp.Compile(p)
			if err != nil {
				return nil, fmt.Errorf("%w: company %q pattern %q: %v", ErrInvalidCompany, rec.Name, p, err)
			}
			c.patterns = append(c.patterns, re)
		}

		e.byName[rec.Name] = len(e.companies)
		e.companies = append(e.companies, c)
	}

	return e, nil
}

// With returns a new Engine with extra records appended after the existing
// ones, so existing records keep precedence.
func (e *Engine) With(records ...model.CompanyRecord) (*Engine, error) {
	all := e.Records()
	all = append(all, records...)
	return New(all)
}

// Records returns the company database in declaration order.
func (e *Engine) Records() []model.CompanyRecord {
	out := make([]model.CompanyRecord, 0, len(e.companies))
	for _, c := range e.companies {
		out = append(out, c.record)
	}
	return out
}

// Company returns the record registered under name.
func (e *Engine) Company(name string) (model.CompanyRecord, bool) {
	i, ok := e.byName[name]
	if !ok {
		return model.CompanyRecord{}, false
	}
	return e.companies[i].record, true
}

// CompanyForDomain returns the company owning domain. A single leading dot
// (cookie-jar convention) is ignored.
func (e *Engine) CompanyForDomain(domain string) (string, bool) {
	d := normalizeDomain(domain)
	if d == "" {
		return "", false
	}
	for _, c := range e.companies {
		for _, suffix := range c.domains {
			if d == suffix || strings.HasSuffix(d, "."+suffix) {
				return c.record.Name, true
			}
		}
	}
	return "", false
}

// CompanyForCookie tries the domain first and then each company's cookie
// name patterns.
func (e *Engine) CompanyForCookie(name, domain string) (string, bool) {
	if company, ok := e.CompanyForDomain(domain); ok {
		return company, true
	}
	if name == "" {
		return "", false
	}
	for _, c := range e.companies {
		for _, re := range c.patterns {
			if re.MatchString(name) {
				return c.record.Name, true
			}
		}
	}
	return "", false
}

// Categorize attributes a single cookie. Company defaults win over keyword
// classification.
func (e *Engine) Categorize(c model.Cookie) model.CategorizedCookie {
	out := model.CategorizedCookie{Cookie: c}
	if name, ok := e.CompanyForCookie(c.Name, c.Domain); ok {
		rec := e.companies[e.byName[name]].record
		out.Company = name
		out.Category = rec.Category
		out.Risk = rec.Risk
	} else {
		out.Category = CategoryForNameAndDomain(c.Name, c.Domain)
		out.Risk = DefaultRisk(out.Category)
	}
	out.IsTracking = out.Category.IsTracking()
	return out
}

// CategorizeAll attributes every cookie, preserving input order.
func (e *Engine) CategorizeAll(cookies []model.Cookie) []model.CategorizedCookie {
	out := make([]model.CategorizedCookie, 0, len(cookies))
	for _, c := range cookies {
		out = append(out, e.Categorize(c))
	}
	return out
}

func normalizeDomain(domain string) string {
	d := strings.ToLower(strings.TrimSpace(domain))
	return strings.TrimPrefix(d, ".")
}
