package server

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/aqualedger/aqualedger/pkg/log"
	"github.com/aqualedger/aqualedger/pkg/types"
)

// maxBodyBytes caps request bodies at 1MB.
const maxBodyBytes = 1 << 20

// decodeBody decodes a JSON request body into v and writes a 400 on failure.
func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			writeJSONError(w, "missing request body", http.StatusBadRequest)
			return false
		}
		log.Ctx(r.Context()).WarnContext(r.Context(), "failed to decode request body", slog.Any("error", err))
		writeJSONError(w, "invalid request body", http.StatusBadRequest)
		return false
	}
	return true
}

// writeEngineError maps validation errors to 400 and anything else to 500.
func writeEngineError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *types.ValidationError
	if errors.As(err, &verr) {
		writeJSONError(w, verr.Error(), http.StatusBadRequest)
		return
	}
	log.Ctx(r.Context()).ErrorContext(r.Context(), "engine operation failed", slog.Any("error", err))
	writeJSONError(w, "internal error", http.StatusInternalServerError)
}

type amountRequest struct {
	Amount float64 `json:"amount"`
}

type targetResponse struct {
	Status string             `json:"status"`
	Target types.BudgetTarget `json:"target"`
}

func (s *Server) handleSetBudget(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req amountRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if err := s.engine.SetBudget(ctx, req.Amount); err != nil {
		writeEngineError(w, r, err)
		return
	}
	log.Ctx(ctx).InfoContext(ctx, "budget updated", slog.String("by", getSubject(r)), slog.Float64("amount", req.Amount))
	s.SaveState(ctx)
	writeJSON(w, targetResponse{Status: "success", Target: s.engine.Target()})
}

func (s *Server) handleSetWaterLimit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req amountRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if err := s.engine.SetWaterLimit(ctx, req.Amount); err != nil {
		writeEngineError(w, r, err)
		return
	}
	log.Ctx(ctx).InfoContext(ctx, "water limit updated", slog.String("by", getSubject(r)), slog.Float64("amount", req.Amount))
	s.SaveState(ctx)
	writeJSON(w, targetResponse{Status: "success", Target: s.engine.Target()})
}
