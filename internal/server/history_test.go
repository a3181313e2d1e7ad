package server

import (
	"context"
	"net/http"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"markets-lab/internal/caip"
	"markets-lab/internal/domain"
	"markets-lab/internal/storage/memory"
)

func newHistoryServer(t *testing.T) string {
	t.Helper()
	ctx := context.Background()
	day := DefaultHistoryWindow.Milliseconds()
	now := time.UnixMilli(10 * day)

	snapshots := memory.NewSnapshotStore()
	for i, fetchedAt := range []int64{now.UnixMilli() - 2*day, now.UnixMilli() - 1000, now.UnixMilli()} {
		require.NoError(t, snapshots.Insert(ctx, &domain.CategorySnapshot{
			SnapshotID: string(rune('a' + i)),
			Category:   domain.CategoryMarketCap,
			AssetIDs:   []caip.AssetID{caip.BTCAssetID},
			FetchedAt:  fetchedAt,
		}))
	}
	metrics := memory.NewMetricsStore()
	require.NoError(t, metrics.InsertBulk(ctx, []*domain.MetricsPoint{
		{AssetID: caip.BTCAssetID, Category: domain.CategoryThorchainSavers, TimestampMs: 100, APY: 0.01},
		{AssetID: caip.BTCAssetID, Category: domain.CategoryThorchainSavers, TimestampMs: 200, APY: 0.02},
		{AssetID: caip.ETHAssetID, Category: domain.CategoryOneClickDefi, TimestampMs: 150, APY: 0.03, VolumeUSD1d: 9},
	}))

	_, ts := newTestServerWith(t, seededStore(), fakeMarkets{}, Options{
		Snapshots: snapshots,
		Metrics:   metrics,
		Now:       func() time.Time { return now },
	})
	return ts.URL
}

func TestRowHistory(t *testing.T) {
	base := newHistoryServer(t)

	var body struct {
		Snapshots []snapshotView `json:"snapshots"`
	}
	require.Equal(t, http.StatusOK, getJSON(t, base+"/api/markets/rows/MARKET_CAP/history", &body))
	require.Len(t, body.Snapshots, 2, "default window is the last 24h")
	assert.Equal(t, "b", body.Snapshots[0].SnapshotID)
	assert.Equal(t, []caip.AssetID{caip.BTCAssetID}, body.Snapshots[1].AssetIDs)

	require.Equal(t, http.StatusOK, getJSON(t, base+"/api/markets/rows/MARKET_CAP/history?from=0", &body))
	assert.Len(t, body.Snapshots, 3)

	require.Equal(t, http.StatusOK, getJSON(t, base+"/api/markets/rows/TRENDING/history", &body))
	assert.Empty(t, body.Snapshots)

	assert.Equal(t, http.StatusNotFound, getJSON(t, base+"/api/markets/rows/NOPE/history", nil))
	assert.Equal(t, http.StatusBadRequest, getJSON(t, base+"/api/markets/rows/MARKET_CAP/history?from=x", nil))
	assert.Equal(t, http.StatusBadRequest, getJSON(t, base+"/api/markets/rows/MARKET_CAP/history?from=5&to=1", nil))
}

func TestMetricsLatest(t *testing.T) {
	base := newHistoryServer(t)

	q := url.Values{"assetId": {string(caip.BTCAssetID), string(caip.ETHAssetID), string(caip.SOLAssetID)}}
	var body struct {
		Metrics map[caip.AssetID]metricsPointView `json:"metrics"`
	}
	require.Equal(t, http.StatusOK, getJSON(t, base+"/api/metrics/latest?"+q.Encode(), &body))
	require.Len(t, body.Metrics, 2)
	assert.Equal(t, 0.02, body.Metrics[caip.BTCAssetID].APY)
	assert.Equal(t, 9.0, body.Metrics[caip.ETHAssetID].VolumeUSD1d)

	assert.Equal(t, http.StatusBadRequest, getJSON(t, base+"/api/metrics/latest", nil))
	assert.Equal(t, http.StatusBadRequest, getJSON(t, base+"/api/metrics/latest?assetId=nope", nil))
}

func TestMetricsHistory(t *testing.T) {
	base := newHistoryServer(t)

	q := url.Values{"assetId": {string(caip.BTCAssetID)}, "from": {"0"}, "to": {"150"}}
	var body struct {
		Points []metricsPointView `json:"points"`
	}
	require.Equal(t, http.StatusOK, getJSON(t, base+"/api/metrics/history?"+q.Encode(), &body))
	require.Len(t, body.Points, 1)
	assert.EqualValues(t, 100, body.Points[0].TimestampMs)

	q.Set("to", "200")
	require.Equal(t, http.StatusOK, getJSON(t, base+"/api/metrics/history?"+q.Encode(), &body))
	assert.Len(t, body.Points, 2)

	q.Add("assetId", string(caip.ETHAssetID))
	assert.Equal(t, http.StatusBadRequest, getJSON(t, base+"/api/metrics/history?"+q.Encode(), nil))
}

func TestHistory_WithoutStores(t *testing.T) {
	_, ts := newTestServer(t, seededStore())

	assert.Equal(t, http.StatusServiceUnavailable, getJSON(t, ts.URL+"/api/markets/rows/MARKET_CAP/history", nil))
	assert.Equal(t, http.StatusServiceUnavailable, getJSON(t, ts.URL+"/api/metrics/latest?assetId="+url.QueryEscape(string(caip.BTCAssetID)), nil))
	assert.Equal(t, http.StatusServiceUnavailable, getJSON(t, ts.URL+"/api/metrics/history?assetId="+url.QueryEscape(string(caip.BTCAssetID)), nil))
}
