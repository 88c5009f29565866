package scan

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"sync"
	"sync/atomic"
	"time"

	"github.com/chromedp/cdproto/browser"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/chromedp"
	"github.com/raysh454/crumb/internal/logging"
	"github.com/raysh454/crumb/internal/model"
)

// ChromeConfig configures a headless Chrome scan of one page.
type ChromeConfig struct {
	URL       string        `json:"url" yaml:"url" validate:"omitempty,url"`
	Timeout   time.Duration `json:"timeout" yaml:"timeout"`
	IdleAfter time.Duration `json:"idle_after" yaml:"idle_after"`
	Headless  bool          `json:"headless" yaml:"headless"`

	// ExecPath overrides the Chrome binary; empty uses chromedp's lookup.
	ExecPath string `json:"exec_path,omitempty" yaml:"exec_path,omitempty"`
}

// DefaultChromeConfig returns the settings used when none are configured.
func DefaultChromeConfig() ChromeConfig {
	return ChromeConfig{
		Timeout:   45 * time.Second,
		IdleAfter: 2 * time.Second,
		Headless:  true,
	}
}

const (
	storageSizeJS = `(() => {
	const size = s => {
		let n = 0;
		for (let i = 0; i < s.length; i++) {
			const k = s.key(i);
			n += (k.length + (s.getItem(k) || '').length) * 2;
		}
		return n;
	};
	let local = 0, session = 0;
	try { local = size(window.localStorage); } catch (e) {}
	try { session = size(window.sessionStorage); } catch (e) {}
	return {local, session};
})()`

	indexedDBJS = `(async () => {
	let usage = 0, databases = [];
	try { const e = await navigator.storage.estimate(); usage = e.usage || 0; } catch (e) {}
	try {
		if (indexedDB.databases) {
			databases = (await indexedDB.databases()).map(d => d.name).filter(Boolean);
		}
	} catch (e) {}
	return {usage, databases};
})()`
)

// ErrNoURL is returned when a ChromeSource has no page to scan.
var ErrNoURL = errors.New("scan: chrome source needs a url")

// ChromeSource scans a live page with headless Chrome: it navigates, waits
// for the network to go idle and then reads the page's cookies, storage
// sizes and third-party script hosts.
type ChromeSource struct {
	cfg    ChromeConfig
	logger logging.Logger
}

// NewChromeSource validates cfg and returns a ChromeSource.
func NewChromeSource(cfg ChromeConfig, logger logging.Logger) (*ChromeSource, error) {
	if cfg.URL == "" {
		return nil, ErrNoURL
	}
	if u, err := url.Parse(cfg.URL); err != nil || u.Host == "" {
		return nil, fmt.Errorf("scan: invalid url %q", cfg.URL)
	}
	if cfg.IdleAfter <= 0 {
		cfg.IdleAfter = DefaultChromeConfig().IdleAfter
	}
	return &ChromeSource{
		cfg:    cfg,
		logger: logger.With(logging.Field{Key: "component", Value: "chrome_source"}),
	}, nil
}

// waitNetworkIdle closes the returned channel once no requests have been in
// flight for idleAfter.
func waitNetworkIdle(ctx context.Context, idleAfter time.Duration) <-chan struct{} {
	idle := make(chan struct{})
	var active int32
	var mu sync.Mutex
	var timer *time.Timer
	var once sync.Once

	startTimer := func() {
		mu.Lock()
		defer mu.Unlock()
		if timer != nil {
			timer.Stop()
		}
		timer = time.AfterFunc(idleAfter, func() {
			if atomic.LoadInt32(&active) <= 0 {
				once.Do(func() { close(idle) })
			}
		})
	}

	chromedp.ListenTarget(ctx, func(ev any) {
		switch ev.(type) {
		case *network.EventRequestWillBeSent:
			atomic.AddInt32(&active, 1)
		case *network.EventLoadingFinished, *network.EventLoadingFailed:
			if atomic.AddInt32(&active, -1) <= 0 {
				startTimer()
			}
		}
	})

	return idle
}

type storageSizes struct {
	Local   int64 `json:"local"`
	Session int64 `json:"session"`
}

type indexedDBEstimate struct {
	Usage     int64    `json:"usage"`
	Databases []string `json:"databases"`
}

func (s *ChromeSource) Acquire(ctx context.Context) (*model.RawScan, error) {
	start := time.Now()
	if s.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.Timeout)
		defer cancel()
	}

	opts := append([]chromedp.ExecAllocatorOption{}, chromedp.DefaultExecAllocatorOptions[:]...)
	opts = append(opts, chromedp.Flag("headless", s.cfg.Headless))
	if s.cfg.ExecPath != "" {
		opts = append(opts, chromedp.ExecPath(s.cfg.ExecPath))
	}
	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, opts...)
	defer cancelAlloc()
	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx)
	defer cancelBrowser()

	idle := waitNetworkIdle(browserCtx, s.cfg.IdleAfter)

	s.logger.Info("navigating", logging.Field{Key: "url", Value: s.cfg.URL})
	if err := chromedp.Run(browserCtx, network.Enable(), chromedp.Navigate(s.cfg.URL)); err != nil {
		return nil, fmt.Errorf("navigate %s: %w", s.cfg.URL, err)
	}

	select {
	case <-idle:
	case <-time.After(5 * s.cfg.IdleAfter):
		s.logger.Warn("network never went idle, scanning anyway", logging.Field{Key: "url", Value: s.cfg.URL})
	case <-ctx.Done():
		return nil, fmt.Errorf("wait for network idle: %w", ctx.Err())
	}

	var (
		cookies  []*network.Cookie
		product  string
		sizes    storageSizes
		estimate indexedDBEstimate
		html     string
	)
	awaitPromise := func(p *runtime.EvaluateParams) *runtime.EvaluateParams {
		return p.WithAwaitPromise(true)
	}
	err := chromedp.Run(browserCtx,
		chromedp.ActionFunc(func(ctx context.Context) error {
			var err error
			cookies, err = network.GetCookies().Do(ctx)
			return err
		}),
		chromedp.ActionFunc(func(ctx context.Context) error {
			var err error
			_, product, _, _, _, err = browser.GetVersion().Do(ctx)
			return err
		}),
		chromedp.Evaluate(storageSizeJS, &sizes),
		chromedp.Evaluate(indexedDBJS, &estimate, awaitPromise),
		chromedp.OuterHTML("html", &html, chromedp.ByQuery),
	)
	if err != nil {
		return nil, fmt.Errorf("read page storage: %w", err)
	}

	host := ""
	if u, err := url.Parse(s.cfg.URL); err == nil {
		host = u.Hostname()
	}

	raw := &model.RawScan{
		Cookies:        make([]model.Cookie, 0, len(cookies)),
		LocalStorage:   model.StorageUsage{TotalSize: sizes.Local, ByDomain: map[string]int64{host: sizes.Local}},
		SessionStorage: model.StorageUsage{TotalSize: sizes.Session, ByDomain: map[string]int64{host: sizes.Session}},
		IndexedDB:      model.IndexedDBUsage{EstimatedSize: estimate.Usage, Databases: estimate.Databases},
		Metadata: model.ScanMetadata{
			Timestamp:  start.UnixMilli(),
			DurationMs: time.Since(start).Milliseconds(),
			Version:    product,
			URL:        s.cfg.URL,
		},
	}
	for _, c := range cookies {
		raw.Cookies = append(raw.Cookies, fromNetworkCookie(c))
	}

	if hosts, err := ThirdPartyScriptHosts(s.cfg.URL, html); err != nil {
		s.logger.Warn("script host extraction failed", logging.Field{Key: "error", Value: err})
	} else {
		raw.ThirdPartyScripts = hosts
	}

	s.logger.Info("scan acquired",
		logging.Field{Key: "cookies", Value: len(raw.Cookies)},
		logging.Field{Key: "duration_ms", Value: raw.Metadata.DurationMs})
	return raw, nil
}

func fromNetworkCookie(c *network.Cookie) model.Cookie {
	out := model.Cookie{
		Name:     c.Name,
		Value:    c.Value,
		Domain:   c.Domain,
		Path:     c.Path,
		Secure:   c.Secure,
		HTTPOnly: c.HTTPOnly,
		SameSite: model.ParseSameSite(string(c.SameSite)),
		Session:  c.Session,
	}
	if !c.Session && c.Expires > 0 {
		exp := c.Expires
		out.ExpirationDate = &exp
	}
	return out
}
