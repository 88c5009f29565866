// Package cli implements the crumb command line: argument parsing, wiring of
// configuration, history, scan sources and the auditor, and human or JSON
// output.
package cli

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/pflag"

	"github.com/raysh454/crumb/internal/report"
)

// ErrNothingToDo is returned when no action flag was given.
var ErrNothingToDo = errors.New("nothing to do: pass --input, --url, --history, --diff, --export, --import or --serve")

// Args are the command-line arguments of a single run.
type Args struct {
	// Config is an optional YAML or JSON configuration file.
	Config string

	// Input is a raw scan JSON file; URL scans a page in headless Chrome.
	Input string
	URL   string

	Serve   bool
	History bool
	Diff    bool
	Clear   bool

	Range report.TimeRange
	Sort  report.SortMode

	// Export writes the history to a Parquet archive; Import restores one.
	Export string
	Import string

	JSON     bool
	NoBanner bool

	// RawArgs is the original args slice (useful for debugging/tests).
	RawArgs []string
}

type flagValues struct {
	config, input, url   *string
	serve, history, diff *bool
	clear                *bool
	rangeName, sortName  *string
	export, importPath   *string
	json, noBanner       *bool
}

func newFlagSet() (*pflag.FlagSet, *flagValues) {
	fs := pflag.NewFlagSet("crumb", pflag.ContinueOnError)
	v := &flagValues{
		config:     fs.StringP("config", "c", "", "Configuration file (.yaml, .yml or .json)"),
		input:      fs.StringP("input", "i", "", "Raw scan JSON file to analyze"),
		url:        fs.StringP("url", "u", "", "Page to scan in headless Chrome"),
		serve:      fs.Bool("serve", false, "Start the dashboard API server"),
		history:    fs.Bool("history", false, "Print the score history and trend"),
		diff:       fs.Bool("diff", false, "Print cookies added and removed since the previous scan"),
		clear:      fs.Bool("clear", false, "Delete the stored history"),
		rangeName:  fs.StringP("range", "r", "all", "History window: 7days|30days|all"),
		sortName:   fs.StringP("sort", "s", "cookie-count", "Company order: cookie-count|risk|alphabetical"),
		export:     fs.String("export", "", "Write the history to a Parquet archive"),
		importPath: fs.String("import", "", "Restore history from a Parquet archive"),
		json:       fs.BoolP("json", "j", false, "Print JSON instead of the human report"),
		noBanner:   fs.Bool("no-banner", false, "Do not print the banner"),
	}
	return fs, v
}

// ParseArgs parses a slice of args and returns Args. Use in tests by passing
// arbitrary slices. The function is deterministic and does not read os.Args.
func ParseArgs(args []string) (*Args, error) {
	fs, v := newFlagSet()

	// Ensure Parse doesn't write to stdout/stderr in tests
	fs.SetOutput(io.Discard)

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if fs.NArg() > 0 {
		return nil, fmt.Errorf("unexpected arguments: %s", strings.Join(fs.Args(), " "))
	}
	if *v.input != "" && *v.url != "" {
		return nil, fmt.Errorf("--input and --url are mutually exclusive")
	}

	tr, err := report.ParseTimeRange(*v.rangeName)
	if err != nil {
		return nil, err
	}
	mode, err := report.ParseSortMode(*v.sortName)
	if err != nil {
		return nil, err
	}

	return &Args{
		Config:   *v.config,
		Input:    *v.input,
		URL:      *v.url,
		Serve:    *v.serve,
		History:  *v.history,
		Diff:     *v.diff,
		Clear:    *v.clear,
		Range:    tr,
		Sort:     mode,
		Export:   *v.export,
		Import:   *v.importPath,
		JSON:     *v.json,
		NoBanner: *v.noBanner,
		RawArgs:  args,
	}, nil
}

// Usage renders the flag help.
func Usage(w io.Writer) {
	fs, _ := newFlagSet()
	fmt.Fprintf(w, "Usage: crumb [options]\n\n")
	fmt.Fprintf(w, "crumb audits browser cookies and storage for tracking and privacy risk.\n\n")
	fmt.Fprintf(w, "Options:\n")
	fmt.Fprint(w, fs.FlagUsages())
	fmt.Fprintf(w, "\nExamples:\n")
	fmt.Fprintf(w, "  crumb --input scan.json          # Analyze an exported scan\n")
	fmt.Fprintf(w, "  crumb --url https://example.com  # Scan a page in headless Chrome\n")
	fmt.Fprintf(w, "  crumb --history --range 7days    # Show last week's trend\n")
	fmt.Fprintf(w, "  crumb --serve                    # Start the dashboard API\n")
}
