package server

import (
	"net/http"
)

func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.Tick(r.Context()))
}

type skipResponse struct {
	Status          string `json:"status"`
	AdvancedHours   int    `json:"advancedHours"`
	PeriodCompleted bool   `json:"periodCompleted"`
}

// handleSkip jumps to the end of the current cycle and records it.
func (s *Server) handleSkip(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sum := s.engine.SkipCycle(ctx)
	if sum == nil {
		writeJSON(w, skipResponse{Status: "success"})
		return
	}
	s.completeCycle(ctx, sum)
	writeJSON(w, skipResponse{
		Status:          "success",
		AdvancedHours:   sum.HoursAdvanced,
		PeriodCompleted: true,
	})
}

// handleResume starts a new period: the session is zeroed and the report is
// replaced by a placeholder until the next cycle completes.
func (s *Server) handleResume(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	s.engine.StartNewPeriod(ctx)
	s.saveReport(ctx, s.engine.LatestReport())
	s.SaveState(ctx)
	writeJSON(w, statusResponse{Status: "success", Message: "New period started"})
}
