package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/NYTimes/gziphandler"
	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/levenlabs/go-lflag"

	"github.com/aqualedger/aqualedger/pkg/common"
	"github.com/aqualedger/aqualedger/pkg/log"
	"github.com/aqualedger/aqualedger/pkg/observability"
	"github.com/aqualedger/aqualedger/pkg/simulation"
	"github.com/aqualedger/aqualedger/pkg/storage"
	"github.com/aqualedger/aqualedger/pkg/stream"
)

type contextKey string

const subjectContextKey contextKey = "subject"

// tokenVerifier validates an OIDC ID token.
type tokenVerifier func(ctx context.Context, rawIDToken string) (*oidc.IDToken, error)

// Server handles the HTTP API around a single household engine. Every
// mutation is applied in memory first and then written through to storage.
type Server struct {
	engine  *simulation.Engine
	storage storage.Database
	hub     *stream.Hub
	metrics *observability.Metrics

	listenAddr string
	httpServer *http.Server
	serverName string
	verifier   tokenVerifier
	now        func() time.Time
}

// Configured initializes the Server with dependencies.
// It uses lflag to register command-line flags for configuration.
func Configured(e *simulation.Engine, db storage.Database, hub *stream.Hub, m *observability.Metrics) *Server {
	srv := New(e, db, hub, m)
	revision := os.Getenv("K_REVISION")
	if revision != "" {
		srv.serverName = revision
	}

	// get the port from PORT when running in cloud run
	port := os.Getenv("PORT")
	if port == "" {
		// otherwise default to 8080
		port = "8080"
	}

	listenAddr := lflag.String("http-listen", ":"+port, "HTTP server listen address")
	oidcAudience := lflag.String("oidc-audience", "", "Audience to validate ID tokens against on mutating routes. Empty disables auth.")
	oidcIssuer := lflag.String("oidc-issuer", "https://accounts.google.com", "OIDC issuer used when oidc-audience is set")

	lflag.Do(func() {
		srv.listenAddr = *listenAddr
		if *oidcAudience != "" {
			ctx := oidc.ClientContext(context.Background(), common.HTTPClient(10*time.Second))
			provider, err := oidc.NewProvider(ctx, *oidcIssuer)
			if err != nil {
				log.Ctx(context.Background()).Error("failed to initialize OIDC provider", slog.String("issuer", *oidcIssuer), slog.Any("error", err))
				os.Exit(1)
			}
			srv.verifier = provider.Verifier(&oidc.Config{ClientID: *oidcAudience}).Verify
		}
	})

	return srv
}

// New returns a Server without any flag configuration. Auth is disabled.
func New(e *simulation.Engine, db storage.Database, hub *stream.Hub, m *observability.Metrics) *Server {
	if hub == nil {
		hub = stream.NewHub()
	}
	return &Server{
		engine:     e,
		storage:    db,
		hub:        hub,
		metrics:    m,
		serverName: "aqualedger",
		now:        time.Now,
	}
}

func (s *Server) setupHandler() http.Handler {
	apiMux := http.NewServeMux()
	s.handle(apiMux, "GET /api/metrics", http.HandlerFunc(s.handleMetrics))
	s.handle(apiMux, "GET /api/recommendations", http.HandlerFunc(s.handleRecommendations))
	s.handle(apiMux, "GET /api/tariff", http.HandlerFunc(s.handleTariff))
	s.handle(apiMux, "GET /api/history/cycles", http.HandlerFunc(s.handleCycleHistory))
	s.handle(apiMux, "GET /api/stream", s.authMiddleware(http.HandlerFunc(s.handleStream)))
	s.handle(apiMux, "POST /api/simulation/skip", s.authMiddleware(http.HandlerFunc(s.handleSkip)))
	s.handle(apiMux, "POST /api/simulation/resume", s.authMiddleware(http.HandlerFunc(s.handleResume)))
	s.handle(apiMux, "POST /api/budget", s.authMiddleware(http.HandlerFunc(s.handleSetBudget)))
	s.handle(apiMux, "POST /api/limit/water", s.authMiddleware(http.HandlerFunc(s.handleSetWaterLimit)))
	s.handle(apiMux, "POST /api/usage/manual", s.authMiddleware(http.HandlerFunc(s.handleAddManualEntry)))
	s.handle(apiMux, "DELETE /api/usage/manual/{date}", s.authMiddleware(http.HandlerFunc(s.handleDeleteManualEntry)))
	apiMux.HandleFunc("/healthz", s.handleHealthz)
	apiMux.Handle("GET /metrics", s.metrics.Handler())

	// the websocket route bypasses gzip since the upgrade hijacks the connection
	mux := http.NewServeMux()
	s.handle(mux, "GET /api/ws", stream.NewHandler(s.hub))
	mux.Handle("/", gziphandler.GzipHandler(apiMux))
	return s.revisionMiddleware(s.securityHeadersMiddleware(mux))
}

// handle registers h under pattern with request metrics labeled by pattern.
func (s *Server) handle(mux *http.ServeMux, pattern string, h http.Handler) {
	mux.Handle(pattern, s.metrics.WrapHandler(pattern, h))
}

// Handler returns the full HTTP handler chain.
func (s *Server) Handler() http.Handler {
	return s.setupHandler()
}

// Run starts the HTTP server and blocks until the context is canceled or an error occurs.
// It also handles graceful shutdown when the context is done.
func (s *Server) Run(ctx context.Context) error {
	s.httpServer = &http.Server{
		Addr:         s.listenAddr,
		Handler:      s.setupHandler(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  15 * time.Second,
	}

	// use a channel to capturing server errors
	errChan := make(chan error, 1)
	go func() {
		defer close(errChan)
		log.Ctx(ctx).InfoContext(ctx, "starting server", slog.String("addr", s.listenAddr))
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
	}()

	select {
	case <-ctx.Done():
		// Context canceled, shut down gracefully
		log.Ctx(ctx).InfoContext(ctx, "shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown failed: %w", err)
		}
		return nil
	case err := <-errChan:
		return fmt.Errorf("server error: %w", err)
	}
}

func writeJSONError(w http.ResponseWriter, msg string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(struct {
		Error string `json:"error"`
	}{Error: msg}); err != nil {
		slog.Warn("failed to write error response", slog.Any("error", err))
		panic(http.ErrAbortHandler)
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		panic(http.ErrAbortHandler)
	}
}

// statusResponse mirrors the {"status": "success", ...} envelope mutating
// routes return.
type statusResponse struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte("ok")); err != nil {
		panic(http.ErrAbortHandler)
	}
}
