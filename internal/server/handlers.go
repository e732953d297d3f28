package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/oapi-codegen/runtime"
	"go.uber.org/zap"

	"github.com/dgnsrekt/chainview/internal/snapshot"
)

// Snapshotter builds dashboard snapshots. *snapshot.Engine satisfies it.
type Snapshotter interface {
	Build(ctx context.Context, req snapshot.Request) (*snapshot.Response, error)
	Reset() snapshot.ResetResult
}

type Server struct {
	snap   Snapshotter
	logger *zap.Logger
}

func NewServer(snap Snapshotter, logger *zap.Logger) *Server {
	return &Server{
		snap:   snap,
		logger: logger,
	}
}

type errorResponse struct {
	Error string `json:"error"`
}

type resetResponse struct {
	Status  string               `json:"status"`
	Message string               `json:"message"`
	Cleared snapshot.ResetResult `json:"cleared"`
}

// GetSnapshot handles GET /api/snapshot.
func (s *Server) GetSnapshot(w http.ResponseWriter, r *http.Request) {
	req := snapshot.DefaultRequest()
	query := r.URL.Query()

	params := []struct {
		name string
		dest any
	}{
		{"symbol", &req.Symbol},
		{"expiry_mode", &req.ExpiryMode},
		{"dte", &req.DTE},
		{"mark_last_min", &req.MarkLastMin},
		{"strike_depth", &req.StrikeDepth},
	}
	for _, p := range params {
		if err := runtime.BindQueryParameter("form", true, false, p.name, query, p.dest); err != nil {
			writeError(w, http.StatusBadRequest, "invalid "+p.name+": "+err.Error())
			return
		}
	}

	resp, err := s.snap.Build(r.Context(), req)
	if err != nil {
		status := statusFor(err)
		if status >= http.StatusInternalServerError {
			s.logger.Warn("snapshot failed",
				zap.String("symbol", req.Symbol),
				zap.String("expiry_mode", req.ExpiryMode),
				zap.Int("dte", req.DTE),
				zap.Int("status", status),
				zap.Error(err),
			)
		}
		writeError(w, status, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// ResetCache handles POST /api/cache/reset.
func (s *Server) ResetCache(w http.ResponseWriter, r *http.Request) {
	cleared := s.snap.Reset()

	s.logger.Info("cache reset",
		zap.Int("quotes", cleared.Quotes),
		zap.Int("expirations", cleared.Expirations),
		zap.Int("chains", cleared.Chains),
		zap.Int("series", cleared.Series),
	)

	writeJSON(w, http.StatusOK, resetResponse{
		Status:  "success",
		Message: "All cached market data and snapshot history cleared",
		Cleared: cleared,
	})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, snapshot.ErrInvalidParameter):
		return http.StatusBadRequest
	case errors.Is(err, snapshot.ErrEmptyInput), errors.Is(err, snapshot.ErrUpstreamUnavailable):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}
