package marketdata

import (
	"context"
	"fmt"
	"math"
	"net/url"
	"sort"
	"strconv"
	"sync"
	"time"

	"markets-lab/internal/caip"
	"markets-lab/internal/domain"
)

const (
	// DefaultMarketsPageSize is the number of coins requested per markets page.
	DefaultMarketsPageSize = 100

	coinListTTL = 24 * time.Hour
)

// CoinGeckoClient serves ranked listings from the CoinGecko API.
// Every listing is flattened to asset ids: one coin may appear on several
// chains and contributes one id per chain, in coin rank order.
type CoinGeckoClient struct {
	t        *transport
	pageSize int

	mu          sync.Mutex
	platforms   map[string]map[string]string
	platformsAt time.Time
	now         func() time.Time
}

// NewCoinGeckoClient creates a CoinGecko client against baseURL,
// e.g. https://api.coingecko.com/api/v3.
func NewCoinGeckoClient(baseURL string, opts ...Option) *CoinGeckoClient {
	return &CoinGeckoClient{
		t:        newTransport("coingecko", baseURL, opts),
		pageSize: DefaultMarketsPageSize,
		now:      time.Now,
	}
}

type cgMarket struct {
	ID                       string    `json:"id"`
	Symbol                   string    `json:"symbol"`
	CurrentPrice             flexFloat `json:"current_price"`
	MarketCap                flexFloat `json:"market_cap"`
	TotalVolume              flexFloat `json:"total_volume"`
	PriceChangePercentage24h flexFloat `json:"price_change_percentage_24h"`
	SparklineIn7d            *struct {
		Price []float64 `json:"price"`
	} `json:"sparkline_in_7d"`
}

type cgMover struct {
	ID           string    `json:"id"`
	USD          flexFloat `json:"usd"`
	USD24hVol    flexFloat `json:"usd_24h_vol"`
	USD24hChange flexFloat `json:"usd_24h_change"`
}

type cgMovers struct {
	TopGainers []cgMover `json:"top_gainers"`
	TopLosers  []cgMover `json:"top_losers"`
}

type cgTrending struct {
	Coins []struct {
		Item struct {
			ID   string `json:"id"`
			Data struct {
				Price                    flexFloat            `json:"price"`
				MarketCap                string               `json:"market_cap"`
				TotalVolume              string               `json:"total_volume"`
				PriceChangePercentage24h map[string]flexFloat `json:"price_change_percentage_24h"`
				Sparkline                string               `json:"sparkline"`
			} `json:"data"`
		} `json:"item"`
	} `json:"coins"`
}

type cgNewCoin struct {
	ID          string `json:"id"`
	ActivatedAt int64  `json:"activated_at"`
}

type cgCoin struct {
	ID        string            `json:"id"`
	Platforms map[string]string `json:"platforms"`
}

// Markets returns the first page of coins in the given order.
func (c *CoinGeckoClient) Markets(ctx context.Context, orderBy domain.OrderBy) (*domain.MarketList, error) {
	q := url.Values{}
	q.Set("vs_currency", "usd")
	q.Set("order", string(orderBy))
	q.Set("per_page", strconv.Itoa(c.pageSize))
	q.Set("page", "1")
	q.Set("sparkline", "true")

	var markets []cgMarket
	if err := c.t.getJSON(ctx, "markets", "/coins/markets", q, &markets); err != nil {
		return nil, fmt.Errorf("coingecko markets: %w", err)
	}

	platforms, err := c.coinPlatforms(ctx)
	if err != nil {
		return nil, err
	}

	list := newMarketList()
	for _, m := range markets {
		md := domain.MarketData{
			Price:             float64(m.CurrentPrice),
			MarketCap:         float64(m.MarketCap),
			Volume:            float64(m.TotalVolume),
			ChangePercent24Hr: float64(m.PriceChangePercentage24h),
		}
		if m.SparklineIn7d != nil {
			md.Sparkline = m.SparklineIn7d.Price
		}
		list.add(coinAssetIDs(m.ID, platforms[m.ID]), md)
	}
	return list.MarketList, nil
}

// TopMovers returns gainers and losers ordered by absolute 24h change.
func (c *CoinGeckoClient) TopMovers(ctx context.Context) (*domain.MarketList, error) {
	q := url.Values{}
	q.Set("vs_currency", "usd")

	var movers cgMovers
	if err := c.t.getJSON(ctx, "top_movers", "/coins/top_gainers_losers", q, &movers); err != nil {
		return nil, fmt.Errorf("coingecko top movers: %w", err)
	}

	platforms, err := c.coinPlatforms(ctx)
	if err != nil {
		return nil, err
	}

	all := append(append([]cgMover(nil), movers.TopGainers...), movers.TopLosers...)
	sort.SliceStable(all, func(i, j int) bool {
		return math.Abs(float64(all[i].USD24hChange)) > math.Abs(float64(all[j].USD24hChange))
	})

	list := newMarketList()
	for _, m := range all {
		list.add(coinAssetIDs(m.ID, platforms[m.ID]), domain.MarketData{
			Price:             float64(m.USD),
			Volume:            float64(m.USD24hVol),
			ChangePercent24Hr: float64(m.USD24hChange),
		})
	}
	return list.MarketList, nil
}

// Trending returns the search-trending coins in CoinGecko's order.
func (c *CoinGeckoClient) Trending(ctx context.Context) (*domain.MarketList, error) {
	var trending cgTrending
	if err := c.t.getJSON(ctx, "trending", "/search/trending", nil, &trending); err != nil {
		return nil, fmt.Errorf("coingecko trending: %w", err)
	}

	platforms, err := c.coinPlatforms(ctx)
	if err != nil {
		return nil, err
	}

	list := newMarketList()
	for _, coin := range trending.Coins {
		item := coin.Item
		list.add(coinAssetIDs(item.ID, platforms[item.ID]), domain.MarketData{
			Price:             float64(item.Data.Price),
			MarketCap:         parseUSD(item.Data.MarketCap),
			Volume:            parseUSD(item.Data.TotalVolume),
			ChangePercent24Hr: float64(item.Data.PriceChangePercentage24h["usd"]),
		})
	}
	return list.MarketList, nil
}

// RecentlyAdded returns newly listed coins, newest first.
func (c *CoinGeckoClient) RecentlyAdded(ctx context.Context) (*domain.MarketList, error) {
	var coins []cgNewCoin
	if err := c.t.getJSON(ctx, "recently_added", "/coins/list/new", nil, &coins); err != nil {
		return nil, fmt.Errorf("coingecko recently added: %w", err)
	}

	platforms, err := c.coinPlatforms(ctx)
	if err != nil {
		return nil, err
	}

	sort.SliceStable(coins, func(i, j int) bool {
		return coins[i].ActivatedAt > coins[j].ActivatedAt
	})

	list := newMarketList()
	for _, coin := range coins {
		list.add(coinAssetIDs(coin.ID, platforms[coin.ID]), domain.MarketData{})
	}
	return list.MarketList, nil
}

// coinPlatforms returns coin id -> platform -> contract address, refreshed daily.
// A failed refresh falls back to the previous list when there is one.
func (c *CoinGeckoClient) coinPlatforms(ctx context.Context) (map[string]map[string]string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.platforms != nil && c.now().Sub(c.platformsAt) < coinListTTL {
		return c.platforms, nil
	}

	q := url.Values{}
	q.Set("include_platform", "true")

	var coins []cgCoin
	if err := c.t.getJSON(ctx, "coins_list", "/coins/list", q, &coins); err != nil {
		if c.platforms != nil {
			return c.platforms, nil
		}
		return nil, fmt.Errorf("coingecko coin list: %w", err)
	}

	platforms := make(map[string]map[string]string, len(coins))
	for _, coin := range coins {
		if len(coin.Platforms) > 0 {
			platforms[coin.ID] = coin.Platforms
		}
	}
	c.platforms = platforms
	c.platformsAt = c.now()
	return platforms, nil
}

// parseUSD parses CoinGecko's "$1,234.56" display strings.
func parseUSD(s string) float64 {
	clean := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		if ch := s[i]; (ch >= '0' && ch <= '9') || ch == '.' {
			clean = append(clean, ch)
		}
	}
	v, err := strconv.ParseFloat(string(clean), 64)
	if err != nil {
		return 0
	}
	return v
}

type marketList struct {
	*domain.MarketList
}

func newMarketList() marketList {
	return marketList{&domain.MarketList{
		IDs:  []caip.AssetID{},
		ByID: map[caip.AssetID]domain.MarketData{},
	}}
}

// add appends ids not already listed; the first occurrence keeps its rank.
func (l marketList) add(ids []caip.AssetID, md domain.MarketData) {
	for _, id := range ids {
		if _, dup := l.ByID[id]; dup {
			continue
		}
		md.AssetID = id
		l.IDs = append(l.IDs, id)
		l.ByID[id] = md
	}
}
