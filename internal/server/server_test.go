package server_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/raysh454/crumb/internal/auditor"
	"github.com/raysh454/crumb/internal/history"
	"github.com/raysh454/crumb/internal/model"
	"github.com/raysh454/crumb/internal/server"
	"github.com/raysh454/crumb/internal/testutil"
)

const rawScanBody = `{
  "cookies": [
    {"name": "_ga", "domain": ".example.com", "value": "GA1.2"},
    {"name": "_fbp", "domain": ".example.com", "value": "fb.1"},
    {"name": "sessionid", "domain": "shop.example.com", "secure": true}
  ],
  "localStorage": {"totalSize": 2048},
  "metadata": {"timestamp": 1760000000000, "version": "1.0"}
}`

type testEnv struct {
	server  *server.Server
	source  *testutil.DummySource
	deleter *testutil.DummyDeleter
}

func newTestEnv(t *testing.T, cfg server.Config) *testEnv {
	t.Helper()

	logger := &testutil.DummyLogger{}
	env := &testEnv{
		source: &testutil.DummySource{Scan: model.RawScan{
			Cookies:  []model.Cookie{{Name: "IDE", Domain: ".doubleclick.net"}},
			Metadata: model.ScanMetadata{Timestamp: 1760000001000},
		}},
		deleter: &testutil.DummyDeleter{},
	}
	aud := auditor.New(history.NewMemoryStore(0, logger), logger, auditor.Options{
		Source:  env.source,
		Deleter: env.deleter,
	})
	env.server = server.NewServer(cfg, aud, logger)
	return env
}

func newTestServer(t *testing.T) *server.Server {
	t.Helper()
	return newTestEnv(t, server.DefaultConfig()).server
}

func doJSON(t *testing.T, s http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	return rec
}

func decodeJSON(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.NewDecoder(rec.Body).Decode(v); err != nil {
		t.Fatalf("decode JSON response: %v (body: %s)", err, rec.Body.String())
	}
}

func ingest(t *testing.T, s http.Handler) auditor.ScanResult {
	t.Helper()
	rec := doJSON(t, s, "POST", "/scans", rawScanBody)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	var res auditor.ScanResult
	decodeJSON(t, rec, &res)
	return res
}

// ─── CORS ──────────────────────────────────────────────────────────────

func TestServer_CORS_LoopbackByDefault(t *testing.T) {
	t.Parallel()
	s := newTestServer(t)

	req := httptest.NewRequest("GET", "/jobs", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:5173" {
		t.Errorf("expected loopback origin to be allowed, got %q", got)
	}

	req = httptest.NewRequest("GET", "/jobs", nil)
	req.Header.Set("Origin", "https://evil.example")
	rec = httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Errorf("expected foreign origin to be refused, got %q", got)
	}
}

func TestServer_CORS_ConfiguredOrigins(t *testing.T) {
	t.Parallel()
	cfg := server.DefaultConfig()
	cfg.AllowedOrigins = []string{"https://dash.example"}
	s := newTestEnv(t, cfg).server

	req := httptest.NewRequest("OPTIONS", "/scans", nil)
	req.Header.Set("Origin", "https://dash.example")
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "https://dash.example" {
		t.Errorf("expected configured origin, got %q", got)
	}
	if rec.Header().Get("Access-Control-Allow-Methods") == "" {
		t.Error("expected Access-Control-Allow-Methods on preflight")
	}
}

// ─── Scans ─────────────────────────────────────────────────────────────

func TestServer_IngestScan(t *testing.T) {
	t.Parallel()
	s := newTestServer(t)

	res := ingest(t, s)
	if !res.Saved {
		t.Error("expected snapshot to be saved")
	}
	if res.Snapshot.TotalCookies != 3 {
		t.Errorf("expected 3 cookies, got %d", res.Snapshot.TotalCookies)
	}
	if len(res.Companies) != 2 {
		t.Errorf("expected 2 companies, got %d", len(res.Companies))
	}
}

func TestServer_IngestScan_BareArray(t *testing.T) {
	t.Parallel()
	s := newTestServer(t)

	rec := doJSON(t, s, "POST", "/scans", `[{"name":"_ga","domain":".example.com"}]`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestServer_IngestScan_Malformed(t *testing.T) {
	t.Parallel()
	s := newTestServer(t)

	rec := doJSON(t, s, "POST", "/scans", `{invalid}`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}
}

func TestServer_RunScan(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t, server.DefaultConfig())

	rec := doJSON(t, env.server, "POST", "/scans/run", "")
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	if env.source.Calls != 1 {
		t.Errorf("expected one acquisition, got %d", env.source.Calls)
	}
}

func TestServer_RunScan_NoSource(t *testing.T) {
	t.Parallel()
	logger := &testutil.DummyLogger{}
	aud := auditor.New(history.NewMemoryStore(0, logger), logger, auditor.Options{})
	s := server.NewServer(server.DefaultConfig(), aud, logger)

	rec := doJSON(t, s, "POST", "/scans/run", "")
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("expected 503, got %d", rec.Code)
	}
}

// ─── History ───────────────────────────────────────────────────────────

func TestServer_Snapshots(t *testing.T) {
	t.Parallel()
	s := newTestServer(t)

	rec := doJSON(t, s, "GET", "/snapshots/latest", "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 before any scan, got %d", rec.Code)
	}

	res := ingest(t, s)

	rec = doJSON(t, s, "GET", "/snapshots/latest", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var latest model.ScanSnapshot
	decodeJSON(t, rec, &latest)
	if latest.ID != res.Snapshot.ID {
		t.Errorf("expected latest %s, got %s", res.Snapshot.ID, latest.ID)
	}

	rec = doJSON(t, s, "GET", "/snapshots?range=all", "")
	var all []model.ScanSnapshot
	decodeJSON(t, rec, &all)
	if len(all) != 1 {
		t.Errorf("expected 1 snapshot, got %d", len(all))
	}

	rec = doJSON(t, s, "GET", "/snapshots?range=fortnight", "")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for unknown range, got %d", rec.Code)
	}

	rec = doJSON(t, s, "DELETE", "/snapshots", "")
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}
	rec = doJSON(t, s, "GET", "/snapshots", "")
	decodeJSON(t, rec, &all)
	if len(all) != 0 {
		t.Errorf("expected empty history, got %d", len(all))
	}
}

func TestServer_TrendAndDiff(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t, server.DefaultConfig())
	s := env.server

	ingest(t, s)
	if rec := doJSON(t, s, "POST", "/scans/run", ""); rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}

	rec := doJSON(t, s, "GET", "/trend?range=all", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var tr struct {
		Points         []model.ScanSnapshot `json:"points"`
		CookiesCleared int                  `json:"cookiesCleared"`
	}
	decodeJSON(t, rec, &tr)
	if len(tr.Points) != 2 {
		t.Errorf("expected 2 points, got %d", len(tr.Points))
	}
	if tr.CookiesCleared != 2 {
		t.Errorf("expected 2 cookies cleared, got %d", tr.CookiesCleared)
	}

	rec = doJSON(t, s, "GET", "/snapshots/diff", "")
	var d struct {
		Added   []string `json:"added"`
		Removed []string `json:"removed"`
	}
	decodeJSON(t, rec, &d)
	if len(d.Added) != 1 || d.Added[0] != ".doubleclick.net\tIDE" {
		t.Errorf("unexpected added keys: %v", d.Added)
	}
	if len(d.Removed) != 3 {
		t.Errorf("expected 3 removed keys, got %v", d.Removed)
	}
}

// ─── Companies & deletion ──────────────────────────────────────────────

func TestServer_Companies(t *testing.T) {
	t.Parallel()
	s := newTestServer(t)
	ingest(t, s)

	rec := doJSON(t, s, "GET", "/companies?sort=alphabetical", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var companies []model.CompanyTrackerData
	decodeJSON(t, rec, &companies)
	if len(companies) != 2 || companies[0].Company != "Google" {
		t.Errorf("unexpected companies: %+v", companies)
	}

	rec = doJSON(t, s, "GET", "/companies?sort=size", "")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for unknown sort, got %d", rec.Code)
	}
}

func TestServer_DeleteCookies(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t, server.DefaultConfig())
	ingest(t, env.server)

	rec := doJSON(t, env.server, "POST", "/cookies/delete", `{}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for empty selector, got %d", rec.Code)
	}

	rec = doJSON(t, env.server, "POST", "/cookies/delete", `{"company":"Meta"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var res auditor.DeleteResult
	decodeJSON(t, rec, &res)
	if res.Deleted != 1 {
		t.Errorf("expected 1 deleted, got %d", res.Deleted)
	}
	if got := env.deleter.Deleted(); len(got) != 1 || got[0].Name != "_fbp" {
		t.Errorf("unexpected deleted cookies: %+v", got)
	}
}

func TestServer_DeleteCookies_UnknownCategory(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t, server.DefaultConfig())
	ingest(t, env.server)

	rec := doJSON(t, env.server, "POST", "/cookies/delete", `{"category":"advertsing"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown category, got %d: %s", rec.Code, rec.Body.String())
	}

	rec = doJSON(t, env.server, "POST", "/commands", `{"kind":"delete_cookies","category":"advertsing"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown category command, got %d: %s", rec.Code, rec.Body.String())
	}

	if got := env.deleter.Deleted(); len(got) != 0 {
		t.Errorf("expected no deletions, got %+v", got)
	}
}

// ─── Commands ──────────────────────────────────────────────────────────

func TestServer_Commands(t *testing.T) {
	t.Parallel()
	s := newTestServer(t)

	body := `{"kind":"ingest_scan","scan":` + rawScanBody + `}`
	rec := doJSON(t, s, "POST", "/commands", body)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	rec = doJSON(t, s, "POST", "/commands", `{"kind":"get_companies","sort":"risk"}`)
	var resp auditor.Response
	decodeJSON(t, rec, &resp)
	if resp.Kind != auditor.KindGetCompanies || len(resp.Companies) != 2 {
		t.Errorf("unexpected response: %+v", resp)
	}

	rec = doJSON(t, s, "POST", "/commands", `{"kind":"format_disk"}`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for unknown kind, got %d", rec.Code)
	}
}

// ─── Jobs ──────────────────────────────────────────────────────────────

func waitForJob(t *testing.T, s http.Handler, id string) auditor.Job {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		rec := doJSON(t, s, "GET", "/jobs/"+id, "")
		var job auditor.Job
		decodeJSON(t, rec, &job)
		if !job.EndedAt.IsZero() {
			return job
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("job %s did not finish", id)
	return auditor.Job{}
}

func TestServer_ScanJob(t *testing.T) {
	t.Parallel()
	s := newTestServer(t)

	rec := doJSON(t, s, "POST", "/jobs/scan", rawScanBody)
	if rec.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d: %s", rec.Code, rec.Body.String())
	}
	var job auditor.Job
	decodeJSON(t, rec, &job)

	done := waitForJob(t, s, job.ID)
	if done.Status != auditor.JobDone {
		t.Errorf("expected done, got %s (%s)", done.Status, done.Error)
	}
	if done.Result == nil || done.Result.Snapshot.TotalCookies != 3 {
		t.Errorf("expected result with 3 cookies, got %+v", done.Result)
	}

	rec = doJSON(t, s, "GET", "/jobs", "")
	var jobs []auditor.Job
	decodeJSON(t, rec, &jobs)
	if len(jobs) != 1 {
		t.Errorf("expected 1 job, got %d", len(jobs))
	}
}

func TestServer_Jobs_NotFound(t *testing.T) {
	t.Parallel()
	s := newTestServer(t)

	if rec := doJSON(t, s, "GET", "/jobs/nope", ""); rec.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", rec.Code)
	}
	if rec := doJSON(t, s, "DELETE", "/jobs/nope", ""); rec.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", rec.Code)
	}
}

func TestServer_ScanWS(t *testing.T) {
	t.Parallel()
	s := newTestServer(t)
	ts := httptest.NewServer(s)
	defer ts.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(ts.URL, "http")+"/ws/scan", nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))

	var job auditor.Job
	if err := conn.ReadJSON(&job); err != nil {
		t.Fatalf("read job: %v", err)
	}
	if job.ID == "" {
		t.Fatal("expected job id")
	}

	var last auditor.JobEvent
	sawResult := false
	for {
		var ev auditor.JobEvent
		if err := conn.ReadJSON(&ev); err != nil {
			break
		}
		if ev.Type == auditor.JobEventResult {
			sawResult = true
		}
		last = ev
	}
	if !sawResult {
		t.Error("expected a result event")
	}
	if last.Status != auditor.JobDone {
		t.Errorf("expected final status done, got %q", last.Status)
	}
}

func TestServer_Swagger(t *testing.T) {
	t.Parallel()
	s := newTestServer(t)

	rec := doJSON(t, s, "GET", "/swagger/doc.json", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "/snapshots/latest") {
		t.Error("expected document to describe /snapshots/latest")
	}
}
