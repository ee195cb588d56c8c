package server

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/aqualedger/aqualedger/pkg/log"
	"github.com/aqualedger/aqualedger/pkg/types"
)

const maxHistoryRange = 366 * 24 * time.Hour

type metricsResponse struct {
	Stats                 types.PeriodStats            `json:"stats"`
	Budget                float64                      `json:"budget"`
	MonthlyWaterLimit     float64                      `json:"monthlyWaterLimit"`
	LimitOverride         bool                         `json:"limitOverride"`
	Session               types.SessionState           `json:"session"`
	Cursor                int                          `json:"cursor"`
	SeriesLength          int                          `json:"seriesLength"`
	CycleHours            int                          `json:"cycleHours"`
	ManualEntries         map[string]types.ManualEntry `json:"manualEntries"`
	Recommendations       []string                     `json:"recommendations"`
	ManualRecommendations []string                     `json:"manualRecommendations"`
}

func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	target := s.engine.Target()
	writeJSON(w, metricsResponse{
		Stats:                 s.engine.Metrics(),
		Budget:                target.MonthlyBudget,
		MonthlyWaterLimit:     target.MonthlyWaterLimit,
		LimitOverride:         target.LimitOverride,
		Session:               s.engine.Session(),
		Cursor:                s.engine.Cursor(),
		SeriesLength:          s.engine.Len(),
		CycleHours:            s.engine.CycleHours(),
		ManualEntries:         s.engine.ManualEntries(),
		Recommendations:       s.engine.LatestReport(),
		ManualRecommendations: s.engine.ManualReport(),
	})
}

type recommendationsResponse struct {
	Recommendations       []string `json:"recommendations"`
	ManualRecommendations []string `json:"manualRecommendations"`
}

// handleRecommendations returns the latest system report, generating one if
// no cycle has completed yet.
func (s *Server) handleRecommendations(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	lines := s.engine.LatestReport()
	if lines == nil {
		lines = s.engine.RegenerateReport()
		s.saveReport(ctx, lines)
	}
	writeJSON(w, recommendationsResponse{
		Recommendations:       lines,
		ManualRecommendations: s.engine.ManualReport(),
	})
}

type tariffResponse struct {
	types.TariffConfig
	Periods []types.TariffPeriod `json:"periods"`
}

func (s *Server) handleTariff(w http.ResponseWriter, r *http.Request) {
	t := s.engine.Tariff()
	w.Header().Set("Cache-Control", "private, max-age=3600")
	writeJSON(w, tariffResponse{
		TariffConfig: t.Config(),
		Periods:      t.Periods(),
	})
}

func (s *Server) handleCycleHistory(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	start, end, err := parseTimeRange(r, s.now())
	if err != nil {
		writeJSONError(w, "invalid time range: "+err.Error(), http.StatusBadRequest)
		return
	}

	records, err := s.storage.GetCycleHistory(ctx, start, end)
	if err != nil {
		log.Ctx(ctx).ErrorContext(ctx, "failed to get cycle history", slog.Any("error", err))
		writeJSONError(w, "failed to get cycle history", http.StatusInternalServerError)
		return
	}
	if records == nil {
		records = []types.CycleRecord{}
	}
	writeJSON(w, records)
}

// parseTimeRange reads RFC3339 start and end query params. Without them the
// last 90 days ending at now are used.
func parseTimeRange(r *http.Request, now time.Time) (time.Time, time.Time, error) {
	startStr := r.URL.Query().Get("start")
	endStr := r.URL.Query().Get("end")

	if startStr == "" || endStr == "" {
		return now.Add(-90 * 24 * time.Hour), now, nil
	}

	start, err := time.Parse(time.RFC3339, startStr)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid start time: %w", err)
	}

	end, err := time.Parse(time.RFC3339, endStr)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid end time: %w", err)
	}

	if end.Before(start) {
		return time.Time{}, time.Time{}, fmt.Errorf("start time must be before end time")
	}

	if end.Sub(start) > maxHistoryRange {
		return time.Time{}, time.Time{}, fmt.Errorf("time range cannot exceed 366 days")
	}

	return start, end, nil
}
