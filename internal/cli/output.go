package cli

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/common-nighthawk/go-figure"
	"github.com/fatih/color"

	"github.com/raysh454/crumb/internal/auditor"
	"github.com/raysh454/crumb/internal/model"
	"github.com/raysh454/crumb/internal/report"
)

var (
	cyan   = color.New(color.FgCyan)
	green  = color.New(color.FgGreen)
	yellow = color.New(color.FgYellow)
	red    = color.New(color.FgRed)
	bold   = color.New(color.Bold)
	faint  = color.New(color.Faint)
)

const rule = "════════════════════════════════════════════════"

// PrintBanner writes the crumb banner.
func PrintBanner(w io.Writer) {
	fig := figure.NewFigure("crumb", "doom", true)
	_, _ = yellow.Fprint(w, fig.String())
	_, _ = cyan.Fprintln(w, rule)
	_, _ = green.Fprintln(w, "    Browser storage privacy audit")
	_, _ = cyan.Fprintln(w, rule)
}

// printer renders results either as indented JSON or as a colored report.
type printer struct {
	w    io.Writer
	json bool
}

func newPrinter(w io.Writer, jsonOut bool) *printer {
	return &printer{w: w, json: jsonOut}
}

func (p *printer) message(msg string) {
	if p.json {
		return
	}
	_, _ = faint.Fprintln(p.w, msg)
}

func scoreColor(score int) *color.Color {
	switch {
	case score >= 80:
		return green
	case score >= 60:
		return yellow
	default:
		return red
	}
}

func riskColor(r model.RiskLevel) *color.Color {
	switch r {
	case model.RiskCritical, model.RiskHigh:
		return red
	case model.RiskMedium:
		return yellow
	default:
		return green
	}
}

func (p *printer) scan(res *auditor.ScanResult, companies []model.CompanyTrackerData) error {
	if p.json {
		out := *res
		out.Companies = companies
		return writeJSON(p.w, out)
	}

	a := res.Analysis
	snap := res.Snapshot

	_, _ = bold.Fprint(p.w, "\nPrivacy score: ")
	_, _ = scoreColor(a.Score).Fprintf(p.w, "%d/100 (%s)\n", a.Score, res.Grade)
	fmt.Fprintf(p.w, "Cookies: %d total, %d tracking across %d domains; storage %.2f MB\n",
		snap.TotalCookies, snap.TrackingCookies, snap.UniqueDomains, snap.StorageSizeMB)
	if !res.Saved {
		_, _ = red.Fprintln(p.w, "Snapshot was not saved to history.")
	}

	_, _ = bold.Fprintln(p.w, "\nBreakdown")
	for _, c := range model.Categories {
		if n := a.Breakdown[c]; n > 0 {
			fmt.Fprintf(p.w, "  %-15s %d\n", c, n)
		}
	}

	if len(a.Deductions) > 0 {
		_, _ = bold.Fprintln(p.w, "\nDeductions")
		for _, d := range a.Deductions {
			fmt.Fprintf(p.w, "  %-20s -%d (%d)\n", d.Type, d.Points, d.Count)
		}
	}

	if len(a.HighRiskItems) > 0 {
		_, _ = bold.Fprintln(p.w, "\nHigh-risk findings")
		for _, item := range a.HighRiskItems {
			_, _ = riskColor(item.Severity).Fprintf(p.w, "  [%s] ", strings.ToUpper(string(item.Severity)))
			fmt.Fprintf(p.w, "%s: %s\n", item.Title, item.Description)
		}
	}

	if len(a.Recommendations) > 0 {
		_, _ = bold.Fprintln(p.w, "\nRecommendations")
		for _, r := range a.Recommendations {
			fmt.Fprintf(p.w, "  • %s (+%d): %s\n", r.Action, r.Impact, r.Description)
		}
	}

	if len(companies) > 0 {
		_, _ = bold.Fprintln(p.w, "\nTracking companies")
		for _, c := range companies {
			_, _ = riskColor(c.Risk).Fprintf(p.w, "  %-20s", c.Company)
			fmt.Fprintf(p.w, " %3d cookies  %-14s %s\n", c.CookieCount, c.Category, strings.Join(c.Domains, ", "))
		}
	}

	if len(res.ThirdPartyScripts) > 0 {
		_, _ = bold.Fprintln(p.w, "\nThird-party scripts")
		for _, h := range res.ThirdPartyScripts {
			fmt.Fprintf(p.w, "  %s\n", h)
		}
	}
	return nil
}

func (p *printer) trend(rep report.TrendReport) error {
	if p.json {
		return writeJSON(p.w, rep)
	}

	_, _ = bold.Fprintf(p.w, "\nHistory (%s): %d scans\n", rep.Range, len(rep.Points))
	if len(rep.Points) == 0 {
		_, _ = faint.Fprintln(p.w, "  no scans recorded in this window")
		return nil
	}
	for _, s := range rep.Points {
		ts := time.UnixMilli(s.Timestamp).Local().Format("2006-01-02 15:04")
		fmt.Fprintf(p.w, "  %s  ", ts)
		_, _ = scoreColor(s.Score).Fprintf(p.w, "%3d", s.Score)
		fmt.Fprintf(p.w, "  %4d cookies  %4d tracking\n", s.TotalCookies, s.TrackingCookies)
	}

	trendColor := yellow
	switch rep.Trend {
	case report.TrendImproving:
		trendColor = green
	case report.TrendDeclining:
		trendColor = red
	}
	fmt.Fprint(p.w, "Trend: ")
	_, _ = trendColor.Fprintln(p.w, rep.Trend)
	fmt.Fprintf(p.w, "Average score: %.1f\n", rep.AverageScore)
	fmt.Fprintf(p.w, "Since last scan: score %+d, cookies %+d, storage %+.2f MB\n",
		rep.Change.ScoreChange, rep.Change.CookieChange, rep.Change.StorageChange)
	fmt.Fprintf(p.w, "Cookies cleared: %d\n", rep.CookiesCleared)
	return nil
}

func (p *printer) diff(d report.InventoryDiff) error {
	if p.json {
		return writeJSON(p.w, d)
	}

	_, _ = bold.Fprintln(p.w, "\nCookie changes since previous scan")
	if len(d.Added) == 0 && len(d.Removed) == 0 {
		_, _ = faint.Fprintln(p.w, "  no changes")
		return nil
	}
	for _, k := range d.Added {
		_, _ = green.Fprintf(p.w, "  + %s\n", strings.Replace(k, "\t", "  ", 1))
	}
	for _, k := range d.Removed {
		_, _ = red.Fprintf(p.w, "  - %s\n", strings.Replace(k, "\t", "  ", 1))
	}
	return nil
}
