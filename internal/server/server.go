package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	httpSwagger "github.com/swaggo/http-swagger/v2"

	"github.com/raysh454/crumb/internal/auditor"
	"github.com/raysh454/crumb/internal/logging"
	"github.com/raysh454/crumb/internal/model"
	"github.com/raysh454/crumb/internal/report"
	"github.com/raysh454/crumb/internal/scan"
	_ "github.com/raysh454/crumb/internal/server/docs" // registers the OpenAPI document
)

// maxBodyBytes bounds request bodies; raw scans of large profiles stay well
// below it.
const maxBodyBytes = 32 << 20

// Server is the HTTP + WebSocket API surface of the dashboard backend.
type Server struct {
	cfg      Config
	auditor  *auditor.Auditor
	router   chi.Router
	upgrader websocket.Upgrader
	logger   logging.Logger
}

// NewServer wraps aud in the HTTP API.
func NewServer(cfg Config, aud *auditor.Auditor, logger logging.Logger) *Server {
	if logger == nil {
		logger = logging.NewStdoutLogger("server")
	}
	s := &Server{
		cfg:     cfg,
		auditor: aud,
		router:  chi.NewRouter(),
		logger:  logger.With(logging.Field{Key: "component", Value: "server"}),
	}
	s.upgrader = websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			return origin == "" || s.originAllowed(origin)
		},
	}
	s.routes()
	return s
}

// Auditor returns the underlying auditor for advanced use (tests, etc.).
func (s *Server) Auditor() *auditor.Auditor {
	return s.auditor
}

func (s *Server) routes() {
	r := s.router

	r.Use(s.corsMiddleware)

	// Scans
	r.Post("/scans", s.handleIngestScan)
	r.Post("/scans/run", s.handleRunScan)

	// History
	r.Get("/snapshots", s.handleListSnapshots)
	r.Get("/snapshots/latest", s.handleLatestSnapshot)
	r.Get("/snapshots/diff", s.handleDiffSnapshots)
	r.Delete("/snapshots", s.handleClearSnapshots)
	r.Get("/trend", s.handleTrend)

	// Latest scan views
	r.Get("/companies", s.handleCompanies)
	r.Post("/cookies/delete", s.handleDeleteCookies)

	// Generic command envelope
	r.Post("/commands", s.handleCommand)

	// Jobs over REST
	r.Post("/jobs/scan", s.handleStartScanJob)
	r.Get("/jobs", s.handleListJobs)
	r.Get("/jobs/{jobID}", s.handleGetJob)
	r.Delete("/jobs/{jobID}", s.handleCancelJob)

	// WebSocket for job progress
	r.Get("/ws/scan", s.handleScanWS)

	r.Get("/swagger/*", httpSwagger.Handler(httpSwagger.URL("/swagger/doc.json")))
}

// originAllowed matches the configured origins. With none configured only
// loopback origins are allowed.
func (s *Server) originAllowed(origin string) bool {
	if len(s.cfg.AllowedOrigins) == 0 {
		u, err := url.Parse(origin)
		if err != nil {
			return false
		}
		switch u.Hostname() {
		case "localhost", "127.0.0.1", "::1":
			return true
		}
		return false
	}
	for _, o := range s.cfg.AllowedOrigins {
		if o == "*" || strings.EqualFold(o, origin) {
			return true
		}
	}
	return false
}

func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if origin := r.Header.Get("Origin"); origin != "" && s.originAllowed(origin) {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Vary", "Origin")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
			w.Header().Set("Access-Control-Max-Age", "86400")
		}
		// CORS preflight
		if r.Method == http.MethodOptions {
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE")
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// ServeHTTP implements http.Handler. Request bodies carry cookie values and
// are never logged.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	fields := []logging.Field{
		{Key: "method", Value: r.Method},
		{Key: "path", Value: r.URL.Path},
	}
	if q := r.URL.Query(); len(q) > 0 {
		fields = append(fields, logging.Field{Key: "query", Value: q})
	}
	s.logger.Info("http_request", fields...)

	if r.Body != nil {
		r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	}
	s.router.ServeHTTP(w, r)
}

// HTTPServer creates an *http.Server ready to ListenAndServe.
func (s *Server) HTTPServer() *http.Server {
	return &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      0, // allow streaming
	}
}

// --- JSON helpers ---

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		_ = json.NewEncoder(w).Encode(v)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, ErrorResponse{Error: msg})
}

// statusFor maps auditor errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, auditor.ErrUnknownCommand), errors.Is(err, scan.ErrMalformed),
		errors.Is(err, report.ErrInvalidSelector):
		return http.StatusBadRequest
	case errors.Is(err, auditor.ErrJobNotFound):
		return http.StatusNotFound
	case errors.Is(err, auditor.ErrNoDeleter):
		return http.StatusNotImplemented
	case errors.Is(err, auditor.ErrNoSource):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) fail(w http.ResponseWriter, op string, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error(op, logging.Field{Key: "error", Value: err.Error()})
	} else {
		s.logger.Warn(op, logging.Field{Key: "error", Value: err.Error()})
	}
	writeError(w, status, err.Error())
}

// --- HTTP handlers ---

// Scans

// handleIngestScan godoc
// @Summary      Ingest a raw scan
// @Description  Accepts either a bare cookie array or the wrapped scan object and runs the full pipeline.
// @Tags         scans
// @Accept       json
// @Produce      json
// @Param        scan  body      model.RawScan  true  "Raw scan"
// @Success      201   {object}  auditor.ScanResult
// @Failure      400   {object}  ErrorResponse
// @Failure      500   {object}  ErrorResponse
// @Router       /scans [post]
func (s *Server) handleIngestScan(w http.ResponseWriter, r *http.Request) {
	raw, err := scan.DecodeRaw(r.Body)
	if err != nil {
		s.fail(w, "decoding raw scan", err)
		return
	}
	res, err := s.auditor.Ingest(r.Context(), raw)
	if err != nil {
		s.fail(w, "ingesting scan", err)
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

// handleRunScan godoc
// @Summary      Run a scan
// @Description  Acquires a scan from the configured source and runs the full pipeline.
// @Tags         scans
// @Produce      json
// @Success      201  {object}  auditor.ScanResult
// @Failure      503  {object}  ErrorResponse
// @Router       /scans/run [post]
func (s *Server) handleRunScan(w http.ResponseWriter, r *http.Request) {
	res, err := s.auditor.RunScan(r.Context())
	if err != nil {
		s.fail(w, "running scan", err)
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

// History

// handleListSnapshots godoc
// @Summary  List snapshots within a time range, oldest first
// @Tags     history
// @Produce  json
// @Param    range  query     string  false  "7days, 30days or all"
// @Success  200    {array}   model.ScanSnapshot
// @Failure  400    {object}  ErrorResponse
// @Router   /snapshots [get]
func (s *Server) handleListSnapshots(w http.ResponseWriter, r *http.Request) {
	tr, err := report.ParseTimeRange(r.URL.Query().Get("range"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	snaps, err := s.auditor.History(r.Context(), tr)
	if err != nil {
		s.fail(w, "listing snapshots", err)
		return
	}
	if snaps == nil {
		snaps = []*model.ScanSnapshot{}
	}
	writeJSON(w, http.StatusOK, snaps)
}

// handleLatestSnapshot godoc
// @Summary  Get the newest snapshot
// @Tags     history
// @Produce  json
// @Success  200  {object}  model.ScanSnapshot
// @Failure  404  {object}  ErrorResponse
// @Router   /snapshots/latest [get]
func (s *Server) handleLatestSnapshot(w http.ResponseWriter, r *http.Request) {
	snap, err := s.auditor.Latest(r.Context())
	if err != nil {
		s.fail(w, "getting latest snapshot", err)
		return
	}
	if snap == nil {
		writeError(w, http.StatusNotFound, "no snapshots recorded")
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

// handleDiffSnapshots godoc
// @Summary  Diff the cookie inventories of the two newest snapshots
// @Tags     history
// @Produce  json
// @Success  200  {object}  report.InventoryDiff
// @Router   /snapshots/diff [get]
func (s *Server) handleDiffSnapshots(w http.ResponseWriter, r *http.Request) {
	d, err := s.auditor.DiffLatest(r.Context())
	if err != nil {
		s.fail(w, "diffing snapshots", err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

// handleClearSnapshots godoc
// @Summary  Delete every stored snapshot
// @Tags     history
// @Success  204
// @Router   /snapshots [delete]
func (s *Server) handleClearSnapshots(w http.ResponseWriter, r *http.Request) {
	if err := s.auditor.ClearHistory(r.Context()); err != nil {
		s.fail(w, "clearing snapshots", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleTrend godoc
// @Summary  Summarize the score trend within a time range
// @Tags     history
// @Produce  json
// @Param    range  query     string  false  "7days, 30days or all"
// @Success  200    {object}  report.TrendReport
// @Failure  400    {object}  ErrorResponse
// @Router   /trend [get]
func (s *Server) handleTrend(w http.ResponseWriter, r *http.Request) {
	tr, err := report.ParseTimeRange(r.URL.Query().Get("range"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	rep, err := s.auditor.Trend(r.Context(), tr)
	if err != nil {
		s.fail(w, "computing trend", err)
		return
	}
	writeJSON(w, http.StatusOK, rep)
}

// Latest scan views

// handleCompanies godoc
// @Summary  List tracking companies of the latest scan
// @Tags     companies
// @Produce  json
// @Param    sort  query     string  false  "cookie-count, risk or alphabetical"
// @Success  200   {array}   model.CompanyTrackerData
// @Failure  400   {object}  ErrorResponse
// @Router   /companies [get]
func (s *Server) handleCompanies(w http.ResponseWriter, r *http.Request) {
	mode, err := report.ParseSortMode(r.URL.Query().Get("sort"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, s.auditor.Companies(mode))
}

// handleDeleteCookies godoc
// @Summary      Delete cookies of a company and/or category
// @Description  Applies to the cookies of the latest scan. At least one criterion is required.
// @Tags         companies
// @Accept       json
// @Produce      json
// @Param        selector  body      DeleteCookiesRequest  true  "Selection"
// @Success      200       {object}  auditor.DeleteResult
// @Failure      400       {object}  ErrorResponse
// @Failure      501       {object}  ErrorResponse
// @Router       /cookies/delete [post]
func (s *Server) handleDeleteCookies(w http.ResponseWriter, r *http.Request) {
	var body DeleteCookiesRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	sel, err := body.Selector()
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if sel.Empty() {
		writeError(w, http.StatusBadRequest, "company or category is required")
		return
	}
	res, err := s.auditor.DeleteCookies(r.Context(), sel)
	if err != nil {
		s.fail(w, "deleting cookies", err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// handleCommand godoc
// @Summary      Dispatch a kind-tagged command
// @Description  Body is {"kind": "...", ...arguments}; see auditor.DecodeCommand for kinds.
// @Tags         commands
// @Accept       json
// @Produce      json
// @Success      200  {object}  auditor.Response
// @Failure      400  {object}  ErrorResponse
// @Router       /commands [post]
func (s *Server) handleCommand(w http.ResponseWriter, r *http.Request) {
	data, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, http.StatusBadRequest, "reading body")
		return
	}
	cmd, err := auditor.DecodeCommand(data)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	resp, err := s.auditor.Dispatch(r.Context(), cmd)
	if err != nil {
		s.fail(w, "dispatching "+cmd.Kind(), err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// Jobs (REST)

// handleStartScanJob godoc
// @Summary      Start a background scan
// @Description  Scans the posted raw scan, or the configured source when the body is empty.
// @Tags         jobs
// @Accept       json
// @Produce      json
// @Success      202  {object}  auditor.Job
// @Failure      400  {object}  ErrorResponse
// @Failure      503  {object}  ErrorResponse
// @Router       /jobs/scan [post]
func (s *Server) handleStartScanJob(w http.ResponseWriter, r *http.Request) {
	data, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, http.StatusBadRequest, "reading body")
		return
	}
	var raw *model.RawScan
	if len(bytes.TrimSpace(data)) > 0 {
		decoded, err := scan.DecodeRaw(bytes.NewReader(data))
		if err != nil {
			s.fail(w, "decoding raw scan", err)
			return
		}
		raw = &decoded
	}

	job, err := s.auditor.StartScanJob(r.Context(), raw)
	if err != nil {
		s.fail(w, "starting scan job", err)
		return
	}
	s.logger.Info("started scan job", logging.Field{Key: "job_id", Value: job.ID})
	writeJSON(w, http.StatusAccepted, job)
}

// handleGetJob godoc
// @Summary  Get a job
// @Tags     jobs
// @Produce  json
// @Param    jobID  path      string  true  "Job ID"
// @Success  200    {object}  auditor.Job
// @Failure  404    {object}  ErrorResponse
// @Router   /jobs/{jobID} [get]
func (s *Server) handleGetJob(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "jobID")
	job, err := s.auditor.GetJob(jobID)
	if err != nil {
		s.fail(w, "getting job", err)
		return
	}
	writeJSON(w, http.StatusOK, job)
}

// handleCancelJob godoc
// @Summary  Cancel a job
// @Tags     jobs
// @Param    jobID  path  string  true  "Job ID"
// @Success  204
// @Failure  404  {object}  ErrorResponse
// @Router   /jobs/{jobID} [delete]
func (s *Server) handleCancelJob(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "jobID")
	if err := s.auditor.CancelJob(jobID); err != nil {
		s.fail(w, "canceling job", err)
		return
	}
	s.logger.Info("canceled job", logging.Field{Key: "job_id", Value: jobID})
	w.WriteHeader(http.StatusNoContent)
}

// handleListJobs godoc
// @Summary  List jobs
// @Tags     jobs
// @Produce  json
// @Success  200  {array}  auditor.Job
// @Router   /jobs [get]
func (s *Server) handleListJobs(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.auditor.ListJobs())
}

// WebSockets

// handleScanWS starts a scan job against the configured source and streams
// the job followed by its events. Closing the socket cancels the job.
func (s *Server) handleScanWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("upgrading to websocket", logging.Field{Key: "error", Value: err.Error()})
		return
	}
	defer conn.Close()

	job, err := s.auditor.StartScanJob(r.Context(), nil)
	if err != nil {
		s.logger.Warn("starting scan job", logging.Field{Key: "error", Value: err.Error()})
		_ = conn.WriteJSON(ErrorResponse{Error: err.Error()})
		return
	}

	s.logger.Info("started scan job", logging.Field{Key: "job_id", Value: job.ID})
	_ = conn.WriteJSON(job)

	for ev := range job.Events {
		if err := conn.WriteJSON(ev); err != nil {
			// client went away
			_ = s.auditor.CancelJob(job.ID)
			return
		}
	}
	_ = conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, "job finished"))
}
