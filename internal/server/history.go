package server

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"markets-lab/internal/caip"
	"markets-lab/internal/domain"
	"markets-lab/internal/recommended"
)

// DefaultHistoryWindow is the range served when from is omitted.
const DefaultHistoryWindow = 24 * time.Hour

var errHistoryDisabled = errors.New("history storage not configured")

type snapshotView struct {
	SnapshotID string         `json:"snapshotId"`
	Category   string         `json:"category"`
	AssetIDs   []caip.AssetID `json:"assetIds"`
	FetchedAt  int64          `json:"fetchedAt"`
}

type metricsPointView struct {
	AssetID     caip.AssetID `json:"assetId"`
	Category    string       `json:"category"`
	TimestampMs int64        `json:"timestamp"`
	APY         float64      `json:"apy"`
	VolumeUSD1d float64      `json:"volumeUsd1d"`
}

func toMetricsPointView(p *domain.MetricsPoint) metricsPointView {
	return metricsPointView{
		AssetID:     p.AssetID,
		Category:    string(p.Category),
		TimestampMs: p.TimestampMs,
		APY:         p.APY,
		VolumeUSD1d: p.VolumeUSD1d,
	}
}

// parseRange reads from/to in unix milliseconds. to defaults to now and
// from to DefaultHistoryWindow before to.
func (s *Server) parseRange(r *http.Request) (int64, int64, error) {
	q := r.URL.Query()
	end := s.now().UnixMilli()
	if v := q.Get("to"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return 0, 0, fmt.Errorf("invalid to %q", v)
		}
		end = n
	}
	start := end - DefaultHistoryWindow.Milliseconds()
	if v := q.Get("from"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return 0, 0, fmt.Errorf("invalid from %q", v)
		}
		start = n
	}
	if start > end {
		return 0, 0, fmt.Errorf("from %d after to %d", start, end)
	}
	return start, end, nil
}

func (s *Server) handleRowHistory(w http.ResponseWriter, r *http.Request) {
	cat := domain.Category(r.PathValue("category"))
	if !cat.IsValid() {
		writeError(w, http.StatusNotFound, fmt.Errorf("%w: %q", recommended.ErrUnknownCategory, cat))
		return
	}
	if s.snapshots == nil {
		writeError(w, http.StatusServiceUnavailable, errHistoryDisabled)
		return
	}
	start, end, err := s.parseRange(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	snaps, err := s.snapshots.GetByTimeRange(r.Context(), cat, start, end)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	out := make([]snapshotView, len(snaps))
	for i, snap := range snaps {
		out[i] = snapshotView{
			SnapshotID: snap.SnapshotID,
			Category:   string(snap.Category),
			AssetIDs:   snap.AssetIDs,
			FetchedAt:  snap.FetchedAt,
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{"snapshots": out})
}

func (s *Server) handleMetricsLatest(w http.ResponseWriter, r *http.Request) {
	if s.metrics == nil {
		writeError(w, http.StatusServiceUnavailable, errHistoryDisabled)
		return
	}
	ids, err := parseAssetIDs(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	latest, err := s.metrics.Latest(r.Context(), ids)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	out := make(map[caip.AssetID]metricsPointView, len(latest))
	for id, p := range latest {
		out[id] = toMetricsPointView(p)
	}
	writeJSON(w, http.StatusOK, map[string]any{"metrics": out})
}

func (s *Server) handleMetricsHistory(w http.ResponseWriter, r *http.Request) {
	if s.metrics == nil {
		writeError(w, http.StatusServiceUnavailable, errHistoryDisabled)
		return
	}
	ids, err := parseAssetIDs(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if len(ids) != 1 {
		writeError(w, http.StatusBadRequest, errors.New("exactly one assetId required"))
		return
	}
	start, end, err := s.parseRange(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	points, err := s.metrics.GetByTimeRange(r.Context(), ids[0], start, end)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	out := make([]metricsPointView, len(points))
	for i, p := range points {
		out[i] = toMetricsPointView(p)
	}
	writeJSON(w, http.StatusOK, map[string]any{"points": out})
}

// parseAssetIDs reads the repeated assetId parameter.
func parseAssetIDs(r *http.Request) ([]caip.AssetID, error) {
	raw := r.URL.Query()["assetId"]
	if len(raw) == 0 {
		return nil, errors.New("assetId required")
	}
	ids := make([]caip.AssetID, len(raw))
	for i, v := range raw {
		id := caip.AssetID(v)
		if _, err := caip.FromAssetID(id); err != nil {
			return nil, err
		}
		ids[i] = id
	}
	return ids, nil
}
