package server

import (
	"log/slog"
	"net/http"

	"github.com/aqualedger/aqualedger/pkg/ledger"
	"github.com/aqualedger/aqualedger/pkg/log"
	"github.com/aqualedger/aqualedger/pkg/types"
)

type manualEntryRequest struct {
	Date        string  `json:"date"`
	Amount      float64 `json:"amount"`
	NightAmount float64 `json:"night_amount"`
}

func (s *Server) handleAddManualEntry(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req manualEntryRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if err := s.engine.RecordManualEntry(ctx, req.Date, req.Amount, req.NightAmount); err != nil {
		writeEngineError(w, r, err)
		return
	}

	entry := types.ManualEntry{Total: req.Amount, Night: req.NightAmount}
	if err := s.storage.UpsertManualEntry(ctx, req.Date, entry); err != nil {
		log.Ctx(ctx).ErrorContext(ctx, "failed to save manual entry", slog.String("date", req.Date), slog.Any("error", err))
		s.metrics.StorageError("manual_entry")
	}
	s.metrics.SetManualEntries(len(s.engine.ManualEntries()))
	writeJSON(w, statusResponse{Status: "success", Message: "Manual entry added"})
}

func (s *Server) handleDeleteManualEntry(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	date := r.PathValue("date")
	if !s.engine.DeleteManualEntry(ctx, date) {
		writeJSONError(w, ledger.ErrEntryNotFound.Error(), http.StatusNotFound)
		return
	}

	if err := s.storage.DeleteManualEntry(ctx, date); err != nil {
		log.Ctx(ctx).ErrorContext(ctx, "failed to delete manual entry", slog.String("date", date), slog.Any("error", err))
		s.metrics.StorageError("manual_entry")
	}
	s.metrics.SetManualEntries(len(s.engine.ManualEntries()))
	writeJSON(w, statusResponse{Status: "success", Message: "Record deleted"})
}
