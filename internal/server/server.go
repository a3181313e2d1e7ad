// Package server exposes the Recommended page over HTTP and websocket.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"

	"markets-lab/internal/caip"
	"markets-lab/internal/domain"
	"markets-lab/internal/observability"
	"markets-lab/internal/query"
	"markets-lab/internal/recommended"
	"markets-lab/internal/refresher"
	"markets-lab/internal/state"
	"markets-lab/internal/storage"
	"markets-lab/internal/ui"
)

// MaxRowLimit caps the limit parameter of a row request.
const MaxRowLimit = 50

// StatusSource reports the refresh loop state.
type StatusSource interface {
	Status() refresher.Status
}

// Options configures a Server.
type Options struct {
	Page   *recommended.Page
	Store  *state.Store
	Hub    *Hub
	Status StatusSource // optional

	// History endpoints answer 503 while these are nil.
	Snapshots storage.SnapshotStore
	Metrics   storage.MetricsStore

	Now    func() time.Time
	Logger *zap.Logger
}

// Server serves the markets API.
type Server struct {
	page      *recommended.Page
	store     *state.Store
	hub       *Hub
	status    StatusSource
	snapshots storage.SnapshotStore
	metrics   storage.MetricsStore
	now       func() time.Time
	logger    *zap.Logger
}

// New creates a Server.
func New(opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	hub := opts.Hub
	if hub == nil {
		hub = NewHub(logger)
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Server{
		page:      opts.Page,
		store:     opts.Store,
		hub:       hub,
		status:    opts.Status,
		snapshots: opts.Snapshots,
		metrics:   opts.Metrics,
		now:       now,
		logger:    logger.Named("http"),
	}
}

// Hub returns the websocket hub.
func (s *Server) Hub() *Hub {
	return s.hub
}

// Handler returns the HTTP routes.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	mux.Handle("GET /metrics", observability.Handler())
	mux.HandleFunc("GET /status", s.handleStatus)

	mux.HandleFunc("GET /api/markets/recommended", s.handleRecommended)
	mux.HandleFunc("GET /api/markets/rows/{category}", s.handleRow)
	mux.HandleFunc("GET /api/markets/rows/{category}/history", s.handleRowHistory)
	mux.HandleFunc("GET /api/metrics/latest", s.handleMetricsLatest)
	mux.HandleFunc("GET /api/metrics/history", s.handleMetricsHistory)
	mux.HandleFunc("GET /api/chains/{chainId}/card", s.handleChainCard)
	mux.HandleFunc("GET /ws", s.hub.ServeWS)

	return mux
}

// ListenAndServe serves on addr until ctx is done, then shuts down
// gracefully and disconnects websocket clients.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("starting HTTP server", zap.String("addr", addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		s.hub.Close()
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	s.hub.Close()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("http server: %w", err)
	}
	return nil
}

type statusResponse struct {
	refresher.Status
	WSClients int `json:"ws_clients"`
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	resp := statusResponse{WSClients: s.hub.Clients()}
	if s.status != nil {
		resp.Status = s.status.Status()
	} else {
		resp.Status.Status = "running"
	}
	writeJSON(w, http.StatusOK, resp)
}

type recommendedResponse struct {
	Rows []recommended.RowView `json:"rows"`
}

func (s *Server) handleRecommended(w http.ResponseWriter, r *http.Request) {
	selector, err := parseSelector(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if err := s.page.Load(r.Context(), selector, query.Options{}); err != nil {
		s.logger.Warn("serving partial rows", zap.Error(err))
	}
	writeJSON(w, http.StatusOK, recommendedResponse{Rows: s.page.Views(selector)})
}

func (s *Server) handleRow(w http.ResponseWriter, r *http.Request) {
	cat := domain.Category(r.PathValue("category"))
	if !cat.IsValid() {
		writeError(w, http.StatusNotFound, fmt.Errorf("%w: %q", recommended.ErrUnknownCategory, cat))
		return
	}
	selector, err := parseSelector(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		limit, err = strconv.Atoi(v)
		if err != nil || limit <= 0 || limit > MaxRowLimit {
			writeError(w, http.StatusBadRequest, fmt.Errorf("invalid limit %q", v))
			return
		}
	}

	if err := s.page.LoadGrid(r.Context(), cat, selector, query.Options{}); err != nil {
		s.logger.Warn("serving partial row", zap.String("category", string(cat)), zap.Error(err))
	}
	view, err := s.page.View(cat, selector, limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

type chainCardResponse struct {
	ChainID    caip.ChainID `json:"chainId"`
	Label      string       `json:"label"`
	FeeAssetID caip.AssetID `json:"feeAssetId"`
	Symbol     string       `json:"symbol"`
	Color      string       `json:"color,omitempty"`
	Icon       string       `json:"icon,omitempty"`
}

func (s *Server) handleChainCard(w http.ResponseWriter, r *http.Request) {
	chainID := caip.ChainID(r.PathValue("chainId"))
	if _, err := caip.FromChainID(chainID); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	card, err := ui.NewChainCard(s.store, chainID)
	if err != nil {
		// a chain without fee asset metadata is a broken deployment
		s.logger.Error("chain card failed", zap.String("chain_id", string(chainID)), zap.Error(err))
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, chainCardResponse{
		ChainID:    card.ChainID,
		Label:      card.Label,
		FeeAssetID: card.Asset.AssetID,
		Symbol:     card.Asset.Symbol,
		Color:      card.Asset.Color,
		Icon:       card.Asset.Icon,
	})
}

func parseSelector(r *http.Request) (*caip.ChainID, error) {
	v := r.URL.Query().Get("chainId")
	if v == "" {
		return nil, nil
	}
	chainID := caip.ChainID(v)
	if _, err := caip.FromChainID(chainID); err != nil {
		return nil, err
	}
	return &chainID, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
