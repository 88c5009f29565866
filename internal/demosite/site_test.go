package demosite

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/raysh454/crumb/internal/attribution"
	"github.com/raysh454/crumb/internal/model"
	"github.com/raysh454/crumb/internal/scan"
	"github.com/raysh454/crumb/internal/scoring"
)

func fetchPage(t *testing.T, srv *httptest.Server) ([]*http.Cookie, string) {
	t.Helper()
	resp, err := http.Get(srv.URL + "/")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.Cookies(), string(body)
}

func cookieNames(cookies []*http.Cookie) []string {
	names := make([]string, 0, len(cookies))
	for _, c := range cookies {
		names = append(names, c.Name)
	}
	return names
}

// toModel converts response cookies the way a browser would store them.
func toModel(t *testing.T, srv *httptest.Server, cookies []*http.Cookie, now time.Time) []model.Cookie {
	t.Helper()
	u, err := url.Parse(srv.URL)
	require.NoError(t, err)
	out := make([]model.Cookie, 0, len(cookies))
	for _, c := range cookies {
		mc := model.Cookie{
			Name:     c.Name,
			Value:    c.Value,
			Domain:   u.Hostname(),
			Path:     c.Path,
			Secure:   c.Secure,
			HTTPOnly: c.HttpOnly,
			Session:  c.MaxAge == 0,
		}
		if c.MaxAge > 0 {
			exp := float64(now.Add(time.Duration(c.MaxAge) * time.Second).Unix())
			mc.ExpirationDate = &exp
		}
		out = append(out, mc)
	}
	return out
}

func TestNew_InitialStage(t *testing.T) {
	assert.Equal(t, 1, New(DefaultConfig()).Stage().Number)
	assert.Equal(t, 3, New(Config{InitialStage: 3}).Stage().Number)
	assert.Equal(t, 1, New(Config{InitialStage: 42}).Stage().Number)
}

func TestStages_AreCumulative(t *testing.T) {
	all := Stages()
	require.Len(t, all, 4)
	for i := 1; i < len(all); i++ {
		assert.Equal(t, i+1, all[i].Number)
		assert.Greater(t, len(all[i].Cookies), len(all[i-1].Cookies))
		assert.Greater(t, len(all[i].Scripts), len(all[i-1].Scripts))
	}
	_, ok := StageByNumber(0)
	assert.False(t, ok)
}

func TestPage_SetsStageCookies(t *testing.T) {
	site := New(DefaultConfig())
	srv := httptest.NewServer(site.Handler())
	defer srv.Close()

	cookies, body := fetchPage(t, srv)
	assert.ElementsMatch(t, []string{"sessionid", "cookie_consent"}, cookieNames(cookies))
	assert.Contains(t, body, "Stage 1: Clean shop")

	hosts, err := scan.ThirdPartyScriptHosts(srv.URL, body)
	require.NoError(t, err)
	assert.Empty(t, hosts)

	require.NoError(t, site.SetStage(3))
	cookies, body = fetchPage(t, srv)
	assert.Contains(t, cookieNames(cookies), "_fbp")
	assert.Contains(t, cookieNames(cookies), "IDE")
	assert.NotContains(t, cookieNames(cookies), "fpjs_visitorid")

	hosts, err = scan.ThirdPartyScriptHosts(srv.URL, body)
	require.NoError(t, err)
	assert.Contains(t, hosts, "connect.facebook.net")
	assert.Contains(t, hosts, "securepubads.g.doubleclick.net")
}

func TestPage_UnknownPath(t *testing.T) {
	srv := httptest.NewServer(New(DefaultConfig()).Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/missing")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestStageControl(t *testing.T) {
	site := New(DefaultConfig())
	srv := httptest.NewServer(site.Handler())
	defer srv.Close()

	post := func(path string) (*http.Response, stageInfo) {
		resp, err := http.Post(srv.URL+path, "application/x-www-form-urlencoded", strings.NewReader(""))
		require.NoError(t, err)
		defer resp.Body.Close()
		var info stageInfo
		if resp.StatusCode == http.StatusOK {
			require.NoError(t, json.NewDecoder(resp.Body).Decode(&info))
		}
		return resp, info
	}

	resp, info := post("/demo/stage?stage=2")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 2, info.Current)
	assert.Len(t, info.Available, 4)

	_, info = post("/demo/next")
	assert.Equal(t, 3, info.Current)
	_, info = post("/demo/next")
	_, info = post("/demo/next")
	assert.Equal(t, 4, info.Current)

	resp, _ = post("/demo/stage?stage=9")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp, _ = post("/demo/stage?stage=two")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	_, info = post("/demo/reset")
	assert.Equal(t, 1, info.Current)
	assert.Equal(t, 1, site.Stage().Number)

	getResp, err := http.Get(srv.URL + "/demo/next")
	require.NoError(t, err)
	getResp.Body.Close()
	assert.Equal(t, http.StatusMethodNotAllowed, getResp.StatusCode)
}

func TestStages_ScoreDeclines(t *testing.T) {
	site := New(DefaultConfig())
	srv := httptest.NewServer(site.Handler())
	defer srv.Close()

	now := time.Date(2026, 10, 18, 12, 0, 0, 0, time.UTC)
	engine := attribution.Default()
	scores := make([]int, 0, len(stages))
	var last model.PrivacyAnalysis
	for _, st := range Stages() {
		require.NoError(t, site.SetStage(st.Number))
		cookies, _ := fetchPage(t, srv)
		categorized := engine.CategorizeAll(toModel(t, srv, cookies, now))
		last = scoring.Score(scoring.Input{Cookies: categorized, Now: now})
		scores = append(scores, last.Score)
	}

	assert.Equal(t, 100, scores[0])
	assert.Less(t, scores[3], scores[1])
	assert.Equal(t, 2, last.Breakdown[model.CategoryFingerprinting])
	assert.Positive(t, last.Breakdown[model.CategoryAdvertising])
}
