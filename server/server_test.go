package server

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	homepage "github.com/yini-lang/yini-homepage"
	"github.com/yini-lang/yini-homepage/config"
	"github.com/yini-lang/yini-homepage/site"
	"github.com/yini-lang/yini-homepage/store"
)

func newTestServer(t *testing.T) (*Server, *store.DB) {
	t.Helper()
	cfg := config.Default()
	cfg.Debounce = 10 * time.Millisecond
	handlers, err := homepage.CompileFenceHandlers(cfg)
	require.NoError(t, err)
	siteCfg := site.DefaultConfig()
	siteCfg.NavPlayground = true
	st, err := site.Load(filepath.Join("..", "content"), siteCfg, handlers)
	require.NoError(t, err)
	db, err := store.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return New(cfg, st, WithStore(db)), db
}

func do(s *Server, method, target string, body io.Reader, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, body)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	return rec
}

func cookie(rec *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, c := range rec.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

func TestHealth(t *testing.T) {
	s, _ := newTestServer(t)
	rec := do(s, "GET", "/healthz", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"ok"`)
}

func TestPages(t *testing.T) {
	s, _ := newTestServer(t)

	rec := do(s, "GET", "/", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Simple, Structured Config")
	assert.Contains(t, rec.Body.String(), `href="/playground"`)
	assert.Equal(t, themeHint, rec.Header().Get("Accept-CH"))
	session := cookie(rec, SessionCookie)
	require.NotNil(t, session, "no session cookie")

	rec = do(s, "GET", "/yini-faq", nil, session)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Nil(t, cookie(rec, SessionCookie), "session cookie reissued")

	rec = do(s, "GET", "/get-started", nil)
	assert.Contains(t, rec.Body.String(), `href="specification#table-of-contents"`)

	rec = do(s, "GET", "/css/site.css", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = do(s, "GET", "/no-such-page", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestThemeHint(t *testing.T) {
	s, _ := newTestServer(t)
	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set(themeHint, `"dark"`)
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	assert.Contains(t, rec.Body.String(), `<html lang="en" class="dark">`)
}

func TestThemeToggle(t *testing.T) {
	s, db := newTestServer(t)
	session := &http.Cookie{Name: SessionCookie, Value: "0b0b5c2e-8c39-4a4b-9c55-0a4c9a1d2e11"}
	form := func(ret string) io.Reader { return strings.NewReader(url.Values{"return": {ret}}.Encode()) }
	toggle := func(ret string, cookies ...*http.Cookie) *httptest.ResponseRecorder {
		req := httptest.NewRequest("POST", "/theme", form(ret))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		for _, c := range cookies {
			req.AddCookie(c)
		}
		rec := httptest.NewRecorder()
		s.ServeHTTP(rec, req)
		return rec
	}

	rec := toggle("/yini-faq", session)
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/yini-faq", rec.Header().Get("Location"))
	theme := cookie(rec, ThemeCookie)
	require.NotNil(t, theme)
	assert.Equal(t, "dark", theme.Value)
	saved, err := db.Bucket(session.Value).Get(homepage.ThemeKey)
	require.NoError(t, err)
	assert.Equal(t, "dark", saved)

	// The stored preference applies without the cookie.
	rec = do(s, "GET", "/", nil, session)
	assert.Contains(t, rec.Body.String(), `<html lang="en" class="dark">`)

	rec = toggle("//evil.example", session, theme)
	assert.Equal(t, "/", rec.Header().Get("Location"))
	assert.Equal(t, "light", cookie(rec, ThemeCookie).Value)
}

func TestPlaygroundPage(t *testing.T) {
	s, db := newTestServer(t)
	session := &http.Cookie{Name: SessionCookie, Value: "6f1c1d1e-2a3b-4c5d-8e9f-001122334455"}

	rec := do(s, "GET", "/playground", nil, session)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `<span class="hl-t">&#34;Database&#34;</span>`)

	rec = do(s, "GET", "/playground?code="+url.QueryEscape("answer = 42"), nil, session)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `<span class="hl-n">42</span>`)
	saved, err := db.Bucket(session.Value).Get(homepage.CodeKey)
	require.NoError(t, err)
	assert.Equal(t, "answer = 42", saved)

	rec = do(s, "GET", "/playground", nil, session)
	assert.Contains(t, rec.Body.String(), ">answer = 42</textarea>")

	rec = do(s, "GET", "/playground?mode=meta&code="+url.QueryEscape("^ `broken"), nil, session)
	assert.Contains(t, rec.Body.String(), `data-state="error"`)
	assert.Contains(t, rec.Body.String(), "unterminated section header")
	assert.Contains(t, rec.Body.String(), `value="json" checked>`, "meta mode selected without metadata")
	assert.Contains(t, rec.Body.String(), `value="meta" disabled>`)
	saved, _ = db.Bucket(session.Value).Get(homepage.CodeKey)
	assert.Equal(t, "answer = 42", saved, "failed evaluation overwrote the draft")
}

func postParse(t *testing.T, s *Server, body string) (int, map[string]any) {
	t.Helper()
	rec := do(s, "POST", "/api/parse", strings.NewReader(body))
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return rec.Code, out
}

func TestParseAPI(t *testing.T) {
	s, _ := newTestServer(t)

	code, out := postParse(t, s, `{"code": "^ App\nname = \"Demo\"\n"}`)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "result", out["state"])
	assert.Equal(t, "JSON", out["label"])
	assert.Equal(t, "", out["error"])
	assert.Contains(t, out["output"], `"name": "Demo"`)
	assert.NotEmpty(t, out["spans"])

	code, out = postParse(t, s, "{\"code\": \"^ `App\\n\"}")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "error", out["state"])
	assert.Equal(t, "", out["output"])
	assert.Equal(t, []any{}, out["spans"])

	_, out = postParse(t, s, `{"code": "a = 1", "mode": "meta", "options": {"includeMetadata": true, "failLevel": "errors"}}`)
	assert.Equal(t, "Meta", out["label"])
	assert.Contains(t, out["output"], `"parserVersion"`)

	code, out = postParse(t, s, `{"code": "a = 1", "mode": "xml"}`)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Contains(t, out["error"], "output mode")

	code, _ = postParse(t, s, `{"code": "a = 1", "options": {"failLevel": "never"}}`)
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = postParse(t, s, `{"code": `)
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestMetricsEndpoint(t *testing.T) {
	s, _ := newTestServer(t)
	postParse(t, s, `{"code": "a = 1"}`)
	do(s, "GET", "/", nil)

	rec := do(s, "GET", "/metrics", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `yini_homepage_evaluations_total{origin="api",state="result"} 1`)
	assert.Contains(t, body, `yini_homepage_http_requests_total{code="200",route="/api/parse"} 1`)
	assert.Contains(t, body, "yini_homepage_stored_visitors")
}

func TestMetricsDisabled(t *testing.T) {
	cfg := config.Default()
	cfg.Metrics = false
	st, err := site.Load(filepath.Join("..", "content"), site.DefaultConfig(), nil)
	require.NoError(t, err)
	s := New(cfg, st)
	rec := do(s, "GET", "/metrics", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestLocalPath(t *testing.T) {
	cases := map[string]string{
		"/":              "/",
		"/yini-faq":      "/yini-faq",
		"":               "/",
		"https://x.test": "/",
		"//x.test":       "/",
		`/\x.test`:       "/",
	}
	for in, want := range cases {
		assert.Equal(t, want, localPath(in), "localPath(%q)", in)
	}
}
