package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/raysh454/crumb/internal/attribution"
	"github.com/raysh454/crumb/internal/auditor"
	"github.com/raysh454/crumb/internal/config"
	"github.com/raysh454/crumb/internal/history"
	"github.com/raysh454/crumb/internal/logging"
	"github.com/raysh454/crumb/internal/scan"
	"github.com/raysh454/crumb/internal/scoring"
	"github.com/raysh454/crumb/internal/server"
)

// Run executes one invocation. Reports go to out; logs go to the configured
// logger. Run returns when the work is done or, with --serve, when ctx ends.
func Run(ctx context.Context, args *Args, out io.Writer) error {
	if !args.hasAction() {
		return ErrNothingToDo
	}

	cfg, err := config.Load(args.Config)
	if err != nil {
		return err
	}
	if args.URL != "" {
		cfg.Chrome.URL = args.URL
	}

	zl, err := logging.NewZerologLogger("crumb", cfg.Log)
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	defer zl.Close()
	var logger logging.Logger = zl

	if !args.NoBanner && !args.JSON {
		PrintBanner(out)
	}

	store, err := history.Open(ctx, cfg.History, logger)
	if err != nil {
		return err
	}
	defer store.Close()

	engine, err := attribution.NewFromFile(cfg.CompaniesFile)
	if err != nil {
		return err
	}

	source, err := buildSource(args, cfg, logger)
	if err != nil {
		return err
	}

	aud := auditor.New(store, logger, auditor.Options{
		Engine: engine,
		Scorer: scoring.New(cfg.Scoring),
		Source: source,
	})

	p := newPrinter(out, args.JSON)

	if args.Clear {
		if err := aud.ClearHistory(ctx); err != nil {
			return err
		}
		p.message("History cleared.")
	}

	if args.Import != "" {
		snaps, err := history.ImportParquet(args.Import)
		if err != nil {
			return err
		}
		n, err := history.Restore(ctx, store, snaps)
		if err != nil {
			return err
		}
		p.message(fmt.Sprintf("Restored %d snapshots from %s.", n, args.Import))
	}

	if source != nil && (args.Input != "" || args.URL != "") {
		res, err := aud.RunScan(ctx)
		if err != nil {
			return err
		}
		if err := p.scan(res, aud.Companies(args.Sort)); err != nil {
			return err
		}
	}

	if args.History {
		rep, err := aud.Trend(ctx, args.Range)
		if err != nil {
			return err
		}
		if err := p.trend(rep); err != nil {
			return err
		}
	}

	if args.Diff {
		d, err := aud.DiffLatest(ctx)
		if err != nil {
			return err
		}
		if err := p.diff(d); err != nil {
			return err
		}
	}

	if args.Export != "" {
		n, err := history.ExportParquet(ctx, store, args.Export)
		if err != nil {
			return err
		}
		p.message(fmt.Sprintf("Exported %d snapshots to %s.", n, args.Export))
	}

	if args.Serve {
		return serve(ctx, server.NewServer(cfg.Server, aud, logger), logger)
	}
	return nil
}

func (a *Args) hasAction() bool {
	return a.Input != "" || a.URL != "" || a.Serve || a.History || a.Diff ||
		a.Clear || a.Export != "" || a.Import != ""
}

// buildSource picks the scan source: --input, then --url or a URL from the
// configuration. A nil source is valid when only history is queried.
func buildSource(args *Args, cfg *config.Config, logger logging.Logger) (scan.Source, error) {
	if args.Input != "" {
		return scan.NewFileSource(args.Input), nil
	}
	if cfg.Chrome.URL == "" {
		return nil, nil
	}
	src, err := scan.NewChromeSource(cfg.Chrome, logger)
	if err != nil {
		return nil, err
	}
	return src, nil
}

func serve(ctx context.Context, s *server.Server, logger logging.Logger) error {
	srv := s.HTTPServer()
	errCh := make(chan error, 1)
	go func() {
		logger.Info("api server listening", logging.Field{Key: "addr", Value: srv.Addr})
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("api server: %w", err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown api server: %w", err)
		}
		logger.Info("api server stopped")
		return nil
	}
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
