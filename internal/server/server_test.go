package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"markets-lab/internal/caip"
	"markets-lab/internal/domain"
	"markets-lab/internal/recommended"
	"markets-lab/internal/refresher"
	"markets-lab/internal/state"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type fakeMarkets struct {
	ids []caip.AssetID // nil serves a fixed four-asset listing
}

func (f fakeMarkets) list() (*domain.MarketList, error) {
	ids := f.ids
	if ids == nil {
		ids = []caip.AssetID{caip.BTCAssetID, caip.ETHAssetID, caip.SOLAssetID, caip.ArbitrumAssetID}
	}
	return &domain.MarketList{IDs: ids, ByID: map[caip.AssetID]domain.MarketData{}}, nil
}

func (f fakeMarkets) Markets(context.Context, domain.OrderBy) (*domain.MarketList, error) {
	return f.list()
}
func (f fakeMarkets) TopMovers(context.Context) (*domain.MarketList, error)     { return f.list() }
func (f fakeMarkets) Trending(context.Context) (*domain.MarketList, error)      { return f.list() }
func (f fakeMarkets) RecentlyAdded(context.Context) (*domain.MarketList, error) { return f.list() }

type fakePortals struct{}

func (fakePortals) Assets(context.Context, []caip.ChainID) (*domain.PortalsAssets, error) {
	return &domain.PortalsAssets{IDs: []caip.AssetID{}, ByID: map[caip.AssetID]domain.PortalsAsset{}, ChainIDs: []caip.ChainID{}}, nil
}

type fakeSavers struct{}

func (fakeSavers) SaversPools(context.Context) ([]caip.AssetID, error) {
	return []caip.AssetID{caip.BTCAssetID}, nil
}

func (fakeSavers) OpportunityIDs(context.Context, domain.OpportunityKey) ([]string, error) {
	return nil, nil
}

func (fakeSavers) OpportunitiesMetadata(context.Context, []domain.OpportunityKey) ([]domain.OpportunityMetadata, error) {
	return nil, nil
}

type fixedStatus struct{}

func (fixedStatus) Status() refresher.Status {
	return refresher.Status{Status: "running", Runs: 3, LastRunID: "run-3"}
}

func newTestServer(t *testing.T, store *state.Store) (*Server, *httptest.Server) {
	t.Helper()
	return newTestServerWith(t, store, fakeMarkets{}, Options{})
}

// newTestServerWith fills Page, Store and Status of opts.
func newTestServerWith(t *testing.T, store *state.Store, markets fakeMarkets, opts Options) (*Server, *httptest.Server) {
	t.Helper()
	sources := recommended.NewSources(recommended.SourcesOptions{
		Markets: markets,
		Portals: fakePortals{},
		Savers:  fakeSavers{},
	})
	opts.Page = recommended.NewPage(recommended.PageOptions{Sources: sources, Store: store})
	opts.Store = store
	opts.Status = fixedStatus{}
	s := New(opts)
	ts := httptest.NewServer(s.Handler())
	t.Cleanup(func() {
		s.Hub().Close()
		ts.Close()
	})
	return s, ts
}

func seededStore() *state.Store {
	s := state.New()
	s.UpsertAssets(state.FeeAssets()...)
	return s
}

func getJSON(t *testing.T, url string, out any) int {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	if out != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

func TestHealthAndMetrics(t *testing.T) {
	_, ts := newTestServer(t, seededStore())

	resp, err := http.Get(ts.URL + "/health")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = http.Get(ts.URL + "/metrics")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestStatus(t *testing.T) {
	_, ts := newTestServer(t, seededStore())

	var body map[string]any
	require.Equal(t, http.StatusOK, getJSON(t, ts.URL+"/status", &body))
	assert.Equal(t, "running", body["status"])
	assert.Equal(t, "run-3", body["last_run_id"])
	assert.EqualValues(t, 3, body["runs"])
	assert.EqualValues(t, 0, body["ws_clients"])
}

func TestRecommended(t *testing.T) {
	_, ts := newTestServer(t, seededStore())

	var body recommendedResponse
	require.Equal(t, http.StatusOK, getJSON(t, ts.URL+"/api/markets/recommended", &body))
	require.Len(t, body.Rows, len(domain.AllCategories))
	assert.Equal(t, domain.CategoryTradingVolume, body.Rows[0].Category)
	assert.Len(t, body.Rows[0].Cells, 4)

	require.Equal(t, http.StatusOK, getJSON(t, ts.URL+"/api/markets/recommended?chainId=eip155:42161", &body))
	require.Len(t, body.Rows[0].Cells, 1)
	assert.Equal(t, caip.ArbitrumAssetID, body.Rows[0].Cells[0].AssetID)
	assert.Equal(t, "sparkline", body.Rows[0].Cells[0].Kind)

	assert.Equal(t, http.StatusBadRequest, getJSON(t, ts.URL+"/api/markets/recommended?chainId=nope", nil))
}

func TestRow(t *testing.T) {
	_, ts := newTestServer(t, seededStore())

	var row recommended.RowView
	require.Equal(t, http.StatusOK, getJSON(t, ts.URL+"/api/markets/rows/MARKET_CAP?limit=2", &row))
	assert.Equal(t, domain.CategoryMarketCap, row.Category)
	assert.Equal(t, "Largest Market Cap", row.Title)
	assert.Len(t, row.Cells, 2)

	require.Equal(t, http.StatusOK, getJSON(t, ts.URL+"/api/markets/rows/THORCHAIN_SAVERS?chainId="+string(caip.BitcoinMainnet), &row))
	require.Len(t, row.Cells, 1)
	assert.Equal(t, "lp", row.Cells[0].Kind)

	assert.Equal(t, http.StatusNotFound, getJSON(t, ts.URL+"/api/markets/rows/NOPE", nil))
	assert.Equal(t, http.StatusBadRequest, getJSON(t, ts.URL+"/api/markets/rows/MARKET_CAP?limit=x", nil))
	assert.Equal(t, http.StatusBadRequest, getJSON(t, ts.URL+"/api/markets/rows/MARKET_CAP?limit=0", nil))
}

func TestRow_LimitReachesWindow(t *testing.T) {
	ids := make([]caip.AssetID, 11)
	for i := range ids {
		ids[i] = caip.MustAssetID(caip.EthereumMainnet, caip.AssetNamespaceERC20, fmt.Sprintf("0x%040x", i+1))
	}
	_, ts := newTestServerWith(t, seededStore(), fakeMarkets{ids: ids}, Options{})

	var row recommended.RowView
	require.Equal(t, http.StatusOK, getJSON(t, ts.URL+"/api/markets/rows/TRADING_VOLUME?limit=10", &row))
	require.Len(t, row.Cells, 10)
	for i, c := range row.Cells {
		assert.Equal(t, ids[i], c.AssetID)
	}

	require.Equal(t, http.StatusOK, getJSON(t, ts.URL+"/api/markets/rows/TRADING_VOLUME", &row))
	assert.Len(t, row.Cells, 7)

	require.Equal(t, http.StatusOK, getJSON(t, ts.URL+"/api/markets/rows/TRADING_VOLUME?limit=20", &row))
	assert.Len(t, row.Cells, 11)

	assert.Equal(t, http.StatusBadRequest, getJSON(t, ts.URL+"/api/markets/rows/TRADING_VOLUME?limit=51", nil))
}

func TestChainCard(t *testing.T) {
	_, ts := newTestServer(t, seededStore())

	var card chainCardResponse
	require.Equal(t, http.StatusOK, getJSON(t, ts.URL+"/api/chains/eip155:42161/card", &card))
	assert.Equal(t, "Arbitrum One", card.Label)
	assert.Equal(t, caip.ArbitrumAssetID, card.FeeAssetID)
	assert.Equal(t, "ETH", card.Symbol)

	assert.Equal(t, http.StatusBadRequest, getJSON(t, ts.URL+"/api/chains/bad/card", nil))
}

func TestChainCard_MissingFeeAsset(t *testing.T) {
	_, ts := newTestServer(t, state.New())

	var body map[string]string
	require.Equal(t, http.StatusInternalServerError, getJSON(t, ts.URL+"/api/chains/eip155:1/card", &body))
	assert.Contains(t, body["error"], "fee asset not found")
}

func TestWebsocketBroadcast(t *testing.T) {
	s, ts := newTestServer(t, seededStore())

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.Eventually(t, func() bool { return s.Hub().Clients() == 1 }, time.Second, 5*time.Millisecond)

	require.NoError(t, s.Hub().Broadcast(recommended.Update{Type: recommended.UpdateTypeRows, RunID: "r1"}))

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var u recommended.Update
	require.NoError(t, conn.ReadJSON(&u))
	assert.Equal(t, "r1", u.RunID)

	s.Hub().Close()
	assert.Zero(t, s.Hub().Clients())
	_, _, err = conn.ReadMessage()
	assert.Error(t, err)
}

func TestWebsocketClientDisconnect(t *testing.T) {
	s, ts := newTestServer(t, seededStore())

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	require.Eventually(t, func() bool { return s.Hub().Clients() == 1 }, time.Second, 5*time.Millisecond)

	conn.Close()
	require.Eventually(t, func() bool { return s.Hub().Clients() == 0 }, time.Second, 5*time.Millisecond)
}

func TestListenAndServe_Shutdown(t *testing.T) {
	store := seededStore()
	sources := recommended.NewSources(recommended.SourcesOptions{Markets: fakeMarkets{}, Portals: fakePortals{}, Savers: fakeSavers{}})
	s := New(Options{Page: recommended.NewPage(recommended.PageOptions{Sources: sources, Store: store}), Store: store})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.ListenAndServe(ctx, "127.0.0.1:0") }()

	time.Sleep(50 * time.Millisecond)
	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}
