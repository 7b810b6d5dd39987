package server

import (
	"html/template"
	"net/http"
	"time"

	"github.com/goccy/go-json"

	"github.com/TobiSchelling/healthcap/internal/charts"
	"github.com/TobiSchelling/healthcap/internal/dataset"
	"github.com/TobiSchelling/healthcap/internal/logging"
)

// Selection sources, used as a metric label.
const (
	sourcePage     = "page"
	sourceFragment = "fragment"
	sourceAPI      = "api"
	sourceLive     = "live"
)

type pageData struct {
	Title       string
	Description template.HTML
	Summary     dataset.SummaryStats
	Join        dataset.JoinReport
	Rows        int
	LoadedAt    time.Time
	States      []string
	Selected    string
	Known       bool
	Charts      charts.Set
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	c, set := s.draw(r.URL.Query().Get("state"), sourcePage)

	s.render(w, r, "index.html", pageData{
		Title:       s.title,
		Description: s.description,
		Summary:     s.ds.Summary(),
		Join:        s.ds.Join(),
		Rows:        s.ds.Len(),
		LoadedAt:    s.ds.LoadedAt(),
		States:      s.renderer.Selection().Options(),
		Selected:    c.State,
		Known:       c.Known,
		Charts:      set,
	})
}

// handleCharts serves the three chart panels as an HTML fragment.
func (s *Server) handleCharts(w http.ResponseWriter, r *http.Request) {
	c, set := s.draw(r.URL.Query().Get("state"), sourceFragment)
	s.execute(w, r, s.fragment, "charts", pageData{Selected: c.State, Known: c.Known, Charts: set})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, map[string]any{
		"status": "ok",
		"rows":   s.ds.Len(),
	})
}

type summaryResponse struct {
	Summary  dataset.SummaryStats     `json:"summary"`
	Join     dataset.JoinReport       `json:"join"`
	Rows     int                      `json:"rows"`
	LoadedAt time.Time                `json:"loaded_at"`
	Monthly  []dataset.MonthlyAverage `json:"monthly"`
}

func (s *Server) handleAPISummary(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, summaryResponse{
		Summary:  s.ds.Summary(),
		Join:     s.ds.Join(),
		Rows:     s.ds.Len(),
		LoadedAt: s.ds.LoadedAt(),
		Monthly:  s.ds.Monthly(),
	})
}

type statesResponse struct {
	States  []string `json:"states"`
	Default string   `json:"default"`
}

func (s *Server) handleAPIStates(w http.ResponseWriter, r *http.Request) {
	sel := s.renderer.Selection()
	writeJSON(w, r, http.StatusOK, statesResponse{States: sel.Options(), Default: sel.Default()})
}

// handleAPICharts returns the chart data, not the drawings.
func (s *Server) handleAPICharts(w http.ResponseWriter, r *http.Request) {
	c := s.renderer.Render(r.URL.Query().Get("state"))
	s.metrics.ObserveSelection(sourceAPI, c.Known)
	writeJSON(w, r, http.StatusOK, c)
}

func writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	body, err := json.Marshal(v)
	if err != nil {
		logging.Ctx(r.Context()).Error().Err(err).Msg("encoding response")
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(body)
}
