package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	homepage "github.com/yini-lang/yini-homepage"
	"github.com/yini-lang/yini-homepage/logger"
	"github.com/yini-lang/yini-homepage/site"
)

// urlQuery reads playground parameters from a request URL.
type urlQuery url.Values

// Param implements homepage.Query.
func (q urlQuery) Param(name string) (string, bool, error) {
	v, ok := q[name]
	if !ok || len(v) == 0 {
		return "", false, nil
	}
	return v[0], true, nil
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, map[string]any{
		"status": "ok",
		"pages":  len(s.Site().Pages),
	})
}

// theme returns the visitor's theme: cookie, then stored preference, then
// the colour-scheme hint.
func (s *Server) theme(r *http.Request) site.Theme {
	var saved string
	if c, err := r.Cookie(ThemeCookie); err == nil {
		saved = c.Value
	} else if st := s.storage(r.Context()); st != nil {
		saved, _ = st.Get(homepage.ThemeKey)
	}
	return site.InitialTheme(saved, r.Header.Get(themeHint))
}

func (s *Server) handleTheme(w http.ResponseWriter, r *http.Request) {
	next := s.theme(r).Toggle()
	http.SetCookie(w, &http.Cookie{
		Name:     ThemeCookie,
		Value:    string(next),
		Path:     "/",
		MaxAge:   365 * 24 * 60 * 60,
		SameSite: http.SameSiteLaxMode,
	})
	if st := s.storage(r.Context()); st != nil {
		if err := st.Set(homepage.ThemeKey, string(next)); err != nil {
			logger.L(r.Context()).Debug("persist theme", zap.Error(err))
		}
	}
	http.Redirect(w, r, localPath(r.FormValue("return")), http.StatusSeeOther)
}

// localPath returns p when it is a path on this site, else "/".
func localPath(p string) string {
	if !strings.HasPrefix(p, "/") || strings.HasPrefix(p, "//") || strings.HasPrefix(p, `/\`) {
		return "/"
	}
	return p
}

func (s *Server) handlePage(w http.ResponseWriter, r *http.Request) {
	st := s.Site()
	p, err := st.Page(r.URL.Path)
	if errors.Is(err, site.ErrNotFound) {
		http.FileServer(http.Dir(st.PublicDir())).ServeHTTP(w, r)
		return
	}
	if p.Kind == site.KindPlayground {
		s.handlePlayground(w, r)
		return
	}
	s.render(w, r, st, p, nil)
}

// handlePlayground renders the playground seeded from the code parameter,
// else the visitor's draft, else the sample, already evaluated.
func (s *Server) handlePlayground(w http.ResponseWriter, r *http.Request) {
	st := s.Site()
	p, err := st.Page("/playground")
	if err != nil {
		http.NotFound(w, r)
		return
	}
	q := urlQuery(r.URL.Query())
	storage := s.storage(r.Context())
	in := homepage.NewStore(homepage.InitialText(q, storage))
	if v, ok, _ := q.Param("mode"); ok {
		if m, err := homepage.ParseOutputMode(v); err == nil && homepage.ModeSelectable(in.Snapshot().Options, m) {
			in.SetOutputMode(m)
		}
	}
	ctrl := homepage.NewController(in, s.parser,
		homepage.WithStorage(storage),
		homepage.WithLogger(logger.L(r.Context())),
		homepage.WithObserver(s.metrics.observer("page")))
	res := ctrl.Evaluate()
	s.render(w, r, st, p, site.NewPlayground(in.Snapshot(), res))
}

func (s *Server) render(w http.ResponseWriter, r *http.Request, st *site.Site, p *site.Page, pg *site.Playground) {
	var buf bytes.Buffer
	if err := st.Render(&buf, p, s.theme(r), pg); err != nil {
		logger.L(r.Context()).Error("render page", zap.Error(err))
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Accept-CH", themeHint)
	w.Header().Add("Vary", themeHint)
	w.Write(buf.Bytes())
}

// parseRequest is the body of POST /api/parse.  Missing options and mode
// take the playground defaults.
type parseRequest struct {
	Code    string           `json:"code"`
	Options homepage.Options `json:"options"`
	Mode    string           `json:"mode"`
}

// parseResponse is the result of one evaluation with highlight spans for
// the output.
type parseResponse struct {
	homepage.Result
	Spans []homepage.Span `json:"spans"`
}

func (s *Server) handleParse(w http.ResponseWriter, r *http.Request) {
	req := parseRequest{Options: homepage.DefaultOptions(), Mode: string(homepage.ModeJSON)}
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxParseBody)).Decode(&req); err != nil {
		respondWithJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request: " + err.Error()})
		return
	}
	mode, err := homepage.ParseOutputMode(req.Mode)
	if err == nil {
		_, err = homepage.ParseFailLevel(string(req.Options.FailLevel))
	}
	if err != nil {
		respondWithJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	start := time.Now()
	res := homepage.Evaluate(s.parser, homepage.State{Text: req.Code, Options: req.Options, Mode: mode})
	s.metrics.observe("api", res, time.Since(start))
	respondWithJSON(w, http.StatusOK, newParseResponse(res))
}

func newParseResponse(res homepage.Result) parseResponse {
	spans := homepage.HighlightOutput(res.Output)
	if spans == nil {
		spans = []homepage.Span{}
	}
	return parseResponse{Result: res, Spans: spans}
}
