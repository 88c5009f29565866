// Package report projects categorized cookies and snapshot history into the
// shapes a dashboard renders: per-company groups, time-filtered history,
// trend statistics and inventory diffs.
//
// Everything here is a pure function over its arguments.
package report

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/raysh454/crumb/internal/attribution"
	"github.com/raysh454/crumb/internal/model"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// SortMode selects the ordering of SortCompanies.
type SortMode string

const (
	SortByCookieCount  SortMode = "cookie-count"
	SortByRisk         SortMode = "risk"
	SortByAlphabetical SortMode = "alphabetical"
)

// ParseSortMode validates s. An empty string selects SortByCookieCount.
func ParseSortMode(s string) (SortMode, error) {
	switch m := SortMode(strings.ToLower(strings.TrimSpace(s))); m {
	case "":
		return SortByCookieCount, nil
	case SortByCookieCount, SortByRisk, SortByAlphabetical:
		return m, nil
	default:
		return "", fmt.Errorf("unknown sort mode %q", s)
	}
}

// GroupByCompany groups cookies by owning company. A cookie's own Company
// attribution is used when set; otherwise the engine resolves it. Cookies with
// no company are skipped. Groups appear in first-seen order.
func GroupByCompany(engine *attribution.Engine, cookies []model.CategorizedCookie) []model.CompanyTrackerData {
	type group struct {
		data    model.CompanyTrackerData
		domains map[string]struct{}
		sites   map[string]struct{}
	}

	var order []string
	groups := make(map[string]*group)

	for _, c := range cookies {
		name := c.Company
		if name == "" && engine != nil {
			name, _ = engine.CompanyForCookie(c.Name, c.Domain)
		}
		if name == "" {
			continue
		}

		g, ok := groups[name]
		if !ok {
			g = &group{
				data: model.CompanyTrackerData{
					Company:  name,
					Category: c.Category,
					Risk:     c.Risk,
				},
				domains: make(map[string]struct{}),
				sites:   make(map[string]struct{}),
			}
			if engine != nil {
				if rec, found := engine.Company(name); found {
					g.data.Category = rec.Category
					g.data.Risk = rec.Risk
					g.data.Description = rec.Description
				}
			}
			groups[name] = g
			order = append(order, name)
		}

		g.data.Cookies = append(g.data.Cookies, c)
		g.data.CookieCount++

		domain := strings.TrimPrefix(strings.ToLower(c.Domain), ".")
		if domain == "" {
			continue
		}
		if _, seen := g.domains[domain]; !seen {
			g.domains[domain] = struct{}{}
			g.data.Domains = append(g.data.Domains, domain)
		}
		g.sites[attribution.RegistrableDomain(domain)] = struct{}{}
	}

	out := make([]model.CompanyTrackerData, 0, len(order))
	for _, name := range order {
		g := groups[name]
		g.data.SiteCount = len(g.sites)
		out = append(out, g.data)
	}
	return out
}

// SortCompanies returns a sorted copy of list. The sort is stable, so ties keep
// their prior relative order. Unknown modes return an unsorted copy.
func SortCompanies(list []model.CompanyTrackerData, mode SortMode) []model.CompanyTrackerData {
	out := make([]model.CompanyTrackerData, len(list))
	copy(out, list)

	switch mode {
	case SortByCookieCount:
		sort.SliceStable(out, func(i, j int) bool {
			return out[i].CookieCount > out[j].CookieCount
		})
	case SortByRisk:
		sort.SliceStable(out, func(i, j int) bool {
			return out[i].Risk.Rank() < out[j].Risk.Rank()
		})
	case SortByAlphabetical:
		col := collate.New(language.English, collate.IgnoreCase)
		sort.SliceStable(out, func(i, j int) bool {
			return col.CompareString(out[i].Company, out[j].Company) < 0
		})
	}
	return out
}

// SelectForDeletion picks the cookies owned by sel.Company and/or in
// sel.Category. Both set means both must match. An empty selector selects
// nothing.
func SelectForDeletion(cookies []model.CategorizedCookie, sel Selector) []model.Cookie {
	if sel.Empty() {
		return nil
	}
	var out []model.Cookie
	for _, c := range cookies {
		if sel.Company != "" && !strings.EqualFold(c.Company, sel.Company) {
			continue
		}
		if sel.Category != "" && c.Category != sel.Category {
			continue
		}
		out = append(out, c.Cookie)
	}
	return out
}

// ErrInvalidSelector is returned for a deletion selector naming a category
// that does not exist.
var ErrInvalidSelector = errors.New("invalid deletion selector")

// Selector names the cookies a deletion request applies to.
type Selector struct {
	Company  string         `json:"company,omitempty"`
	Category model.Category `json:"category,omitempty"`
}

// ParseSelector builds a Selector from user input. Category names are matched
// case-insensitively and must be one of model.Categories.
func ParseSelector(company, category string) (Selector, error) {
	sel := Selector{
		Company:  strings.TrimSpace(company),
		Category: model.Category(strings.ToLower(strings.TrimSpace(category))),
	}
	if err := sel.Validate(); err != nil {
		return Selector{}, err
	}
	return sel, nil
}

// Empty reports whether the selector has no criteria.
func (s Selector) Empty() bool {
	return s.Company == "" && s.Category == ""
}

// Validate rejects a category outside model.Categories.
func (s Selector) Validate() error {
	if s.Category != "" && !s.Category.Valid() {
		return fmt.Errorf("%w: unknown category %q", ErrInvalidSelector, s.Category)
	}
	return nil
}
