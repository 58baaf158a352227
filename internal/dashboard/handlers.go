package dashboard

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/rdelaney/powerplay/internal/analysis"
	"github.com/rdelaney/powerplay/internal/charts"
	"github.com/rdelaney/powerplay/internal/dashboard/response"
	"github.com/rdelaney/powerplay/internal/model"
	"github.com/rdelaney/powerplay/internal/storage"
	"github.com/rdelaney/powerplay/internal/strategy"
)

// setupRoutes configures all dashboard routes.
func (s *Server) setupRoutes() {
	s.router.Get("/health", s.healthCheck)

	s.router.Route("/api/v1", func(r chi.Router) {
		r.Get("/draws", s.getDraws)
		r.Get("/draws/latest", s.getLatestDraw)
		r.Get("/frequencies", s.getFrequencies)
		r.Get("/patterns", s.getPatterns)
		r.Get("/overdue", s.getOverdue)
		r.Get("/picks", s.getPicks)
	})

	s.router.Route("/charts", func(r chi.Router) {
		r.Get("/frequency", s.chartFrequency)
		r.Get("/reds", s.chartReds)
		r.Get("/trends", s.chartTrends)
	})
}

// healthCheck returns server health status.
func (s *Server) healthCheck(w http.ResponseWriter, _ *http.Request) {
	response.JSON(w, http.StatusOK, map[string]any{
		"status":  "healthy",
		"service": "powerplay-dashboard",
	})
}

// getDraws returns stored draws, newest last. The limit query parameter
// keeps only the most recent N.
func (s *Server) getDraws(w http.ResponseWriter, r *http.Request) {
	records, ok := s.loadDraws(w, r)
	if !ok {
		return
	}

	if limit := intQuery(r, "limit", 0); limit > 0 && limit < len(records) {
		records = records[len(records)-limit:]
	}
	response.Success(w, records)
}

func (s *Server) getLatestDraw(w http.ResponseWriter, r *http.Request) {
	rec, err := s.repo.GetLatest(r.Context())
	if errors.Is(err, storage.ErrNoDraws) {
		response.NotFound(w, err)
		return
	}
	if err != nil {
		response.InternalError(w, err)
		return
	}
	response.Success(w, rec)
}

// getFrequencies returns white and red ball frequency tables. With
// weighted=true the counts are recency weighted by the decay query
// parameter (default from config).
func (s *Server) getFrequencies(w http.ResponseWriter, r *http.Request) {
	records, ok := s.loadDraws(w, r)
	if !ok {
		return
	}
	if len(records) == 0 {
		response.NotFound(w, model.ErrEmptyDataset)
		return
	}

	var whites, reds analysis.FrequencyTable
	if r.URL.Query().Get("weighted") == "true" {
		decay := floatQuery(r, "decay", s.decayBase)
		weights := analysis.DecayWeights(len(records), decay)
		var err error
		whites, reds, err = analysis.WeightedFrequencies(records, weights)
		if err != nil {
			response.InternalError(w, err)
			return
		}
	} else {
		whites, reds = analysis.Frequencies(records)
	}

	response.Success(w, map[string]any{
		"draws":  len(records),
		"whites": whites,
		"reds":   reds,
	})
}

func (s *Server) getPatterns(w http.ResponseWriter, r *http.Request) {
	records, ok := s.loadDraws(w, r)
	if !ok {
		return
	}

	report, err := analysis.Patterns(records)
	if errors.Is(err, model.ErrEmptyDataset) {
		response.NotFound(w, err)
		return
	}
	if err != nil {
		response.InternalError(w, err)
		return
	}
	response.Success(w, report)
}

// getOverdue returns white and red balls ranked by days since last seen.
func (s *Server) getOverdue(w http.ResponseWriter, r *http.Request) {
	records, ok := s.loadDraws(w, r)
	if !ok {
		return
	}
	if len(records) == 0 {
		response.NotFound(w, model.ErrEmptyDataset)
		return
	}

	lastSeen := analysis.TrackLastSeen(records)
	reference := records[len(records)-1].Date

	response.Success(w, map[string]any{
		"reference": reference.Format("2006-01-02"),
		"whites":    analysis.OverdueRanking(lastSeen.Whites, reference),
		"reds":      analysis.OverdueRanking(lastSeen.Reds, reference),
	})
}

// getPicks runs recommendation strategies over the stored history. The
// strategies query parameter is a comma separated list; empty means all.
func (s *Server) getPicks(w http.ResponseWriter, r *http.Request) {
	records, ok := s.loadDraws(w, r)
	if !ok {
		return
	}

	names := s.engineNames(r.URL.Query().Get("strategies"))
	for _, name := range names {
		if !knownStrategy(name) {
			response.BadRequest(w, fmt.Errorf("unknown strategy %q", name))
			return
		}
	}

	picks, err := s.engine.Run(records, names)
	if errors.Is(err, model.ErrEmptyDataset) {
		response.NotFound(w, err)
		return
	}
	if err != nil {
		response.InternalError(w, err)
		return
	}
	response.Success(w, picks)
}

func (s *Server) chartFrequency(w http.ResponseWriter, r *http.Request) {
	records, ok := s.loadDraws(w, r)
	if !ok {
		return
	}
	if len(records) == 0 {
		response.NotFound(w, model.ErrEmptyDataset)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := charts.FrequencyChart(w, records); err != nil {
		s.logger.Error("render frequency chart", "error", err)
	}
}

func (s *Server) chartReds(w http.ResponseWriter, r *http.Request) {
	records, ok := s.loadDraws(w, r)
	if !ok {
		return
	}
	if len(records) == 0 {
		response.NotFound(w, model.ErrEmptyDataset)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := charts.RedFrequencyChart(w, records); err != nil {
		s.logger.Error("render red frequency chart", "error", err)
	}
}

func (s *Server) chartTrends(w http.ResponseWriter, r *http.Request) {
	records, ok := s.loadDraws(w, r)
	if !ok {
		return
	}
	if len(records) == 0 {
		response.NotFound(w, model.ErrEmptyDataset)
		return
	}

	topN := intQuery(r, "top", s.trendTopN)
	window := intQuery(r, "window", s.trendWin)

	report, err := analysis.RollingTrends(records, topN, window)
	if err != nil {
		response.BadRequest(w, err)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := charts.TrendChart(w, report); err != nil {
		s.logger.Error("render trend chart", "error", err)
	}
}

// loadDraws reads the full history, writing an error response on failure.
func (s *Server) loadDraws(w http.ResponseWriter, r *http.Request) ([]model.DrawRecord, bool) {
	records, err := s.repo.GetAll(r.Context())
	if err != nil {
		response.InternalError(w, err)
		return nil, false
	}
	return records, true
}

func (s *Server) engineNames(raw string) []string {
	if raw == "" {
		return nil // engine default: all strategies
	}
	parts := strings.Split(raw, ",")
	names := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			names = append(names, p)
		}
	}
	return names
}

func knownStrategy(name string) bool {
	for _, n := range strategy.Names() {
		if n == name {
			return true
		}
	}
	return false
}

func intQuery(r *http.Request, key string, fallback int) int {
	if v := r.URL.Query().Get(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func floatQuery(r *http.Request, key string, fallback float64) float64 {
	if v := r.URL.Query().Get(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}
