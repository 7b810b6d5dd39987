package server

import (
	"bytes"
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"io/fs"
	"net"
	"net/http"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/yuin/goldmark"

	"github.com/TobiSchelling/healthcap/internal/charts"
	"github.com/TobiSchelling/healthcap/internal/config"
	"github.com/TobiSchelling/healthcap/internal/dashboard"
	"github.com/TobiSchelling/healthcap/internal/dataset"
	"github.com/TobiSchelling/healthcap/internal/logging"
	"github.com/TobiSchelling/healthcap/internal/observability"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static/*
var staticFS embed.FS

var md = goldmark.New()

// Server is the HTTP server for the dashboard. It only reads the dataset,
// so handlers share it without locking.
type Server struct {
	title       string
	description template.HTML
	ds          *dataset.Dataset
	renderer    *dashboard.Renderer
	drawer      *charts.Drawer
	metrics     *observability.Metrics
	pages       map[string]*template.Template
	fragment    *template.Template
	router      chi.Router
}

// New creates a new Server. A nil metrics gets a private registry.
func New(cfg *config.Config, ds *dataset.Dataset, metrics *observability.Metrics) (*Server, error) {
	if metrics == nil {
		metrics = observability.NewMetrics()
	}
	metrics.SetDataset(ds)

	funcMap := template.FuncMap{
		"count":   func(n int) string { return humanize.Comma(int64(n)) },
		"percent": func(v float64) string { return fmt.Sprintf("%.2f%%", v) },
		"since":   humanize.Time,
		"svg":     func(s string) template.HTML { return template.HTML(s) }, //nolint: gosec
	}

	// Parse base template first
	base, err := template.New("base.html").Funcs(funcMap).ParseFS(templateFS, "templates/base.html", "templates/charts.html")
	if err != nil {
		return nil, fmt.Errorf("parsing base template: %w", err)
	}

	// For each page template, clone the base and parse the page into the clone.
	pageNames := []string{"index.html"}
	pages := make(map[string]*template.Template, len(pageNames))
	for _, name := range pageNames {
		clone, err := base.Clone()
		if err != nil {
			return nil, fmt.Errorf("cloning base for %s: %w", name, err)
		}
		_, err = clone.ParseFS(templateFS, "templates/"+name)
		if err != nil {
			return nil, fmt.Errorf("parsing template %s: %w", name, err)
		}
		pages[name] = clone
	}

	sel := dashboard.NewSelection(ds.States(), cfg.Dashboard.DefaultState)
	if !sel.DefaultKnown() {
		logging.Warn().Str("state", sel.Default()).Msg("default state not in dataset; charts start blank")
	}

	s := &Server{
		title:       cfg.Dashboard.Title,
		description: renderMarkdown(cfg.Dashboard.Description),
		ds:          ds,
		renderer: dashboard.NewRenderer(ds, sel, dashboard.Options{
			SampleSize: cfg.Dashboard.SampleSize,
			Seed:       cfg.Dashboard.SampleSeed,
		}),
		drawer:   charts.NewDrawer(charts.DefaultSize, metrics),
		metrics:  metrics,
		pages:    pages,
		fragment: base,
	}
	s.routes()
	return s, nil
}

// Handler returns the HTTP handler for the server.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) routes() {
	r := chi.NewRouter()
	r.Use(requestID)
	r.Use(chimiddleware.Recoverer)
	r.Use(s.observe)

	staticSub, _ := fs.Sub(staticFS, "static")
	r.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.FS(staticSub))))

	r.Get("/", s.handleIndex)
	r.Get("/charts", s.handleCharts)
	r.Get("/ws", s.handleLive)
	r.Get("/healthz", s.handleHealth)
	r.Method(http.MethodGet, "/metrics", s.metrics.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Get("/summary", s.handleAPISummary)
		r.Get("/states", s.handleAPIStates)
		r.Get("/charts", s.handleAPICharts)
	})

	s.router = r
}

// draw renders and draws the charts for state. An empty state selects the
// default.
func (s *Server) draw(state, source string) (dashboard.Charts, charts.Set) {
	c := s.renderer.Render(state)
	s.metrics.ObserveSelection(source, c.Known)
	return c, s.drawer.Draw(c)
}

func (s *Server) render(w http.ResponseWriter, r *http.Request, name string, data any) {
	tmpl, ok := s.pages[name]
	if !ok {
		logging.Ctx(r.Context()).Error().Str("template", name).Msg("template not found")
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	s.execute(w, r, tmpl, "base.html", data)
}

// execute buffers the output so a failing template can still answer 500.
func (s *Server) execute(w http.ResponseWriter, r *http.Request, tmpl *template.Template, name string, data any) {
	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, name, data); err != nil {
		logging.Ctx(r.Context()).Error().Err(err).Str("template", name).Msg("rendering template")
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = buf.WriteTo(w)
}

func renderMarkdown(text string) template.HTML {
	var buf bytes.Buffer
	if err := md.Convert([]byte(text), &buf); err != nil {
		return template.HTML(template.HTMLEscapeString(text))
	}
	return template.HTML(buf.String()) //nolint: gosec
}

// Serve listens on the configured address until ctx is cancelled, then
// shuts down gracefully within the configured timeout.
func Serve(ctx context.Context, cfg *config.Config, ds *dataset.Dataset, metrics *observability.Metrics) error {
	srv, err := New(cfg, ds, metrics)
	if err != nil {
		return err
	}

	ln, err := net.Listen("tcp", cfg.Addr())
	if err != nil {
		return fmt.Errorf("listening on %s: %w", cfg.Addr(), err)
	}
	return srv.serve(ctx, ln, cfg.Server.ShutdownTimeout)
}

func (s *Server) serve(ctx context.Context, ln net.Listener, shutdownTimeout time.Duration) error {
	httpSrv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	errc := make(chan error, 1)
	go func() {
		logging.Info().Str("addr", "http://"+ln.Addr().String()).Msg("server listening")
		errc <- httpSrv.Serve(ln)
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serving: %w", err)
	case <-ctx.Done():
	}

	logging.Info().Dur("timeout", shutdownTimeout).Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down: %w", err)
	}
	return nil
}
