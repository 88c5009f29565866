// Package demosite serves a fake shop whose trackers grow stage by stage, for
// demonstrating scans, scores and trends against a real browser.
package demosite

import (
	"encoding/json"
	"fmt"
	"html/template"
	"net/http"
	"strconv"
	"sync"
)

// Site is the demo HTTP site.
type Site struct {
	cfg   Config
	mu    sync.RWMutex
	stage int
}

// New creates a demo site at cfg.InitialStage.
func New(cfg Config) *Site {
	s := &Site{cfg: cfg, stage: 1}
	if _, ok := StageByNumber(cfg.InitialStage); ok {
		s.stage = cfg.InitialStage
	}
	return s
}

// Stage returns the stage currently served.
func (s *Site) Stage() Stage {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st, _ := StageByNumber(s.stage)
	return st
}

// SetStage switches the served stage.
func (s *Site) SetStage(n int) error {
	if _, ok := StageByNumber(n); !ok {
		return fmt.Errorf("demosite: no stage %d (have 1-%d)", n, len(stages))
	}
	s.mu.Lock()
	s.stage = n
	s.mu.Unlock()
	return nil
}

// Handler returns the site's routes.
func (s *Site) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.pageHandler)
	mux.HandleFunc("/static/", s.staticHandler)

	// Control endpoints for stage switching
	mux.HandleFunc("/demo/stage", s.stageHandler)
	mux.HandleFunc("/demo/next", s.nextHandler)
	mux.HandleFunc("/demo/reset", s.resetHandler)
	return mux
}

// ListenAndServe starts the demo site.
func (s *Site) ListenAndServe() error {
	addr := fmt.Sprintf(":%d", s.cfg.Port)
	fmt.Printf("Demo site starting on http://localhost%s\n", addr)
	fmt.Printf("Stage control at http://localhost%s/demo/stage\n", addr)
	return http.ListenAndServe(addr, s.Handler())
}

var pageTemplate = template.Must(template.New("page").Parse(`<!DOCTYPE html>
<html>
<head>
    <title>Crumb Demo Shop - {{.Title}}</title>
{{- range .Scripts}}
    <script async src="{{.}}"></script>
{{- end}}
</head>
<body>
    <h1>Crumb Demo Shop</h1>
    <p><strong>Stage {{.Number}}: {{.Title}}.</strong> {{.Description}}</p>
    <script>
        try { localStorage.setItem("demo_payload", "x".repeat({{.StorageKB}} * 1024)); } catch (e) {}
    </script>
</body>
</html>
`))

func (s *Site) pageHandler(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	st := s.Stage()

	for _, c := range st.Cookies {
		cookie := &http.Cookie{
			Name:     c.Name,
			Value:    c.Value,
			Path:     "/",
			HttpOnly: c.HttpOnly,
			Secure:   c.Secure,
		}
		if c.MaxAge > 0 {
			cookie.MaxAge = int(c.MaxAge.Seconds())
		}
		switch c.SameSite {
		case "Strict":
			cookie.SameSite = http.SameSiteStrictMode
		case "Lax":
			cookie.SameSite = http.SameSiteLaxMode
		case "None":
			cookie.SameSite = http.SameSiteNoneMode
		}
		http.SetCookie(w, cookie)
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_ = pageTemplate.Execute(w, st)
}

// staticHandler serves placeholder first-party scripts.
func (s *Site) staticHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/javascript")
	_, _ = fmt.Fprintf(w, "// Demo static file: %s\n", r.URL.Path)
}

type stageInfo struct {
	Current   int     `json:"current"`
	Available []Stage `json:"available"`
}

// stageHandler reports stages on GET and switches on POST ?stage=N.
func (s *Site) stageHandler(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
	case http.MethodPost:
		n, err := strconv.Atoi(r.FormValue("stage"))
		if err != nil {
			http.Error(w, "Invalid stage number", http.StatusBadRequest)
			return
		}
		if err := s.SetStage(n); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	s.writeStage(w)
}

// nextHandler advances one stage, stopping at the last.
func (s *Site) nextHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	s.mu.Lock()
	if s.stage < len(stages) {
		s.stage++
	}
	s.mu.Unlock()
	s.writeStage(w)
}

// resetHandler returns to stage 1.
func (s *Site) resetHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	_ = s.SetStage(1)
	s.writeStage(w)
}

func (s *Site) writeStage(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(stageInfo{Current: s.Stage().Number, Available: Stages()})
}
