package collector

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/poiesic/gurukul/core"
	"github.com/rs/cors"
)

const (
	msgMissingQuestion = "Missing 'question' in request body."
	msgInternal        = "An internal error occurred."
	msgUnavailable     = "Collector service is not available."

	// maxRequestBody bounds a /collect request body.
	maxRequestBody = 1 << 20

	requestIDHeader = "X-Request-Id"
)

// Service is what the HTTP surface needs from a Collector.
type Service interface {
	Collect(ctx context.Context, question, sessionID string) (*core.CollectedResult, error)
}

var _ Service = (*Collector)(nil)

// AssetStats reports the size of the loaded assets for the health endpoint.
type AssetStats struct {
	Synonyms int `json:"synonyms"`
	Tags     int `json:"tags"`
}

// Server is the HTTP surface of a Collector.
type Server struct {
	service Service
	stats   AssetStats
	router  *mux.Router
	handler http.Handler
	logger  *slog.Logger
}

// ServerOption configures a Server.
type ServerOption func(*Server)

// WithAssetStats sets the asset sizes reported by GET /healthz.
func WithAssetStats(stats AssetStats) ServerOption {
	return func(s *Server) {
		s.stats = stats
	}
}

// WithServerLogger sets a custom logger.
func WithServerLogger(logger *slog.Logger) ServerOption {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger.With("component", "collector-http")
		}
	}
}

type collectRequest struct {
	Question  string `json:"question"`
	SessionID string `json:"sessionId"`
}

type errorResponse struct {
	Error string `json:"error"`
}

type healthResponse struct {
	Status string `json:"status"`
	AssetStats
}

// NewServer creates the HTTP surface for service. A nil service yields a
// server that answers every collection with a 500.
func NewServer(service Service, opts ...ServerOption) *Server {
	s := &Server{
		service: service,
		router:  mux.NewRouter(),
		logger:  slog.Default().With("component", "collector-http"),
	}
	for _, opt := range opts {
		opt(s)
	}

	c := cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"*"},
		ExposedHeaders: []string{"Content-Length", "Content-Type", requestIDHeader},
	})
	s.router.Use(s.requestID)
	s.router.HandleFunc("/collect", s.handleCollect).Methods(http.MethodPost)
	s.router.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)
	s.handler = c.Handler(s.router)
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

// ListenAndServe serves on addr until ctx is done, then shuts down,
// waiting up to shutdownTimeout for in-flight requests.
func (s *Server) ListenAndServe(ctx context.Context, addr string, shutdownTimeout time.Duration) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

type requestIDKey struct{}

func (s *Server) requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(requestIDHeader, id)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), requestIDKey{}, id)))
	})
}

func (s *Server) requestLogger(r *http.Request) *slog.Logger {
	id, _ := r.Context().Value(requestIDKey{}).(string)
	return s.logger.With("request_id", id)
}

func (s *Server) handleCollect(w http.ResponseWriter, r *http.Request) {
	logger := s.requestLogger(r)

	if s.service == nil {
		logger.Error("collect called without a collector")
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: msgUnavailable})
		return
	}

	var req collectRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBody)).Decode(&req); err != nil {
		logger.Warn("invalid collect request body", "err", err)
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: msgMissingQuestion})
		return
	}
	if req.Question == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: msgMissingQuestion})
		return
	}
	if req.SessionID == "" {
		req.SessionID = DefaultSessionID
	}

	result, err := s.service.Collect(r.Context(), req.Question, req.SessionID)
	if err != nil {
		if errors.Is(err, core.ErrEmptyQuery) {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: msgMissingQuestion})
			return
		}
		logger.Error("collection failed", "session", req.SessionID, "err", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: msgInternal})
		return
	}

	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.service == nil {
		writeJSON(w, http.StatusServiceUnavailable, healthResponse{Status: "unavailable", AssetStats: s.stats})
		return
	}
	writeJSON(w, http.StatusOK, healthResponse{Status: "ok", AssetStats: s.stats})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		slog.Default().Warn("error writing response", "err", err)
	}
}
