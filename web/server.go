// Package web serves the dashboard: HTML pages with tables and bar charts,
// a JSON API carrying the same views, and the refresh endpoint that clears a
// session's cached tables.
package web

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"html/template"
	"net/http"
	"net/url"
	"strings"
	"time"
	"unicode"

	"go.uber.org/zap"

	"github.com/nulllvoid/labordash"
)

//go:embed templates/*.html
var templateFS embed.FS

const sessionCookie = "labordash_session"

// StatsSource exposes fetch counters. *labordash.Counters implements it.
type StatsSource interface {
	Snapshot() labordash.StatsSnapshot
}

type Server struct {
	dash   *labordash.Dashboard
	stats  StatsSource
	logger *zap.Logger
	tmpl   *template.Template
	mux    *http.ServeMux
}

type Option func(*Server)

func WithLogger(logger *zap.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

func WithStats(stats StatsSource) Option {
	return func(s *Server) {
		s.stats = stats
	}
}

func NewServer(dash *labordash.Dashboard, opts ...Option) *Server {
	s := &Server{
		dash:   dash,
		logger: zap.NewNop(),
		tmpl:   template.Must(template.New("").Funcs(templateFuncs).ParseFS(templateFS, "templates/*.html")),
		mux:    http.NewServeMux(),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.mux.HandleFunc("GET /{$}", s.handleIndex)
	s.mux.HandleFunc("GET /occupation", s.handleOccupationQuery)
	s.mux.HandleFunc("GET /occupation/{soc}", s.handleOccupation)
	s.mux.HandleFunc("GET /industry", s.handleIndustry)
	s.mux.HandleFunc("POST /refresh", s.handleRefresh)
	s.mux.HandleFunc("GET /api/occupation/{soc}", s.handleOccupationAPI)
	s.mux.HandleFunc("GET /api/stats", s.handleStats)
	s.mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// ListenAndServe serves on addr until ctx is done, then shuts down.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("dashboard listening", zap.String("addr", addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.logger.Info("dashboard shutting down")
		return srv.Shutdown(shutdownCtx)
	}
}

// session returns the caller's session, setting the cookie when a new one
// was created.
func (s *Server) session(w http.ResponseWriter, r *http.Request) *labordash.Session {
	var id string
	if c, err := r.Cookie(sessionCookie); err == nil {
		id = c.Value
	}
	sess, created := s.dash.Session(id)
	if created {
		http.SetCookie(w, &http.Cookie{
			Name:     sessionCookie,
			Value:    sess.ID(),
			Path:     "/",
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
		})
	}
	return sess
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	sess := s.session(w, r)
	page, err := s.dash.Overview(r.Context(), sess)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.render(w, http.StatusOK, "index", newPageModel(page))
}

func (s *Server) handleOccupationQuery(w http.ResponseWriter, r *http.Request) {
	soc := labordash.CanonSOC(r.URL.Query().Get("soc"))
	target := "/occupation/" + soc
	if level := r.URL.Query().Get("level"); level != "" {
		target += "?level=" + template.URLQueryEscaper(level)
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}

func (s *Server) occupationPage(w http.ResponseWriter, r *http.Request) (*labordash.Page, error) {
	level, err := labordash.ParseGeoLevel(r.URL.Query().Get("level"))
	if err != nil {
		return nil, err
	}
	sess := s.session(w, r)
	return s.dash.Occupation(r.Context(), sess, labordash.ViewRequest{
		Occupation: r.PathValue("soc"),
		Level:      level,
	})
}

func (s *Server) handleOccupation(w http.ResponseWriter, r *http.Request) {
	page, err := s.occupationPage(w, r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.render(w, http.StatusOK, "occupation", newPageModel(page))
}

func (s *Server) handleOccupationAPI(w http.ResponseWriter, r *http.Request) {
	page, err := s.occupationPage(w, r)
	if err != nil {
		status := statusFor(err)
		writeJSON(w, status, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, newPageJSON(page))
}

func (s *Server) handleIndustry(w http.ResponseWriter, r *http.Request) {
	sess := s.session(w, r)
	page, err := s.dash.Industry(r.Context(), sess, labordash.ViewRequest{
		Industry: r.URL.Query().Get("name"),
	})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.render(w, http.StatusOK, "industry", newPageModel(page))
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	sess := s.session(w, r)
	sess.Refresh()
	s.logger.Info("session refreshed", zap.String("session", sess.ID()))

	http.Redirect(w, r, localPath(r.FormValue("return")), http.StatusSeeOther)
}

// localPath returns target when it names a path on this server, and "/"
// otherwise.
func localPath(target string) string {
	if target == "" || target[0] != '/' || strings.HasPrefix(target, "//") ||
		strings.ContainsRune(target, '\\') || strings.IndexFunc(target, unicode.IsControl) >= 0 {
		return "/"
	}
	u, err := url.Parse(target)
	if err != nil || u.Scheme != "" || u.Host != "" {
		return "/"
	}
	return target
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	if s.stats == nil {
		writeJSON(w, http.StatusOK, labordash.StatsSnapshot{})
		return
	}
	writeJSON(w, http.StatusOK, s.stats.Snapshot())
}

func (s *Server) render(w http.ResponseWriter, status int, name string, data any) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := s.tmpl.ExecuteTemplate(w, name, data); err != nil {
		s.logger.Error("render failed", zap.String("template", name), zap.Error(err))
	}
}

func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", zap.String("path", r.URL.Path), zap.Error(err))
	}
	s.render(w, status, "error", errorModel{Status: status, Message: err.Error()})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, labordash.ErrValidationFailed):
		return http.StatusBadRequest
	case errors.Is(err, labordash.ErrOccupationNotFound):
		return http.StatusNotFound
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
