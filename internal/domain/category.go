package domain

// Category names a ranked asset listing on the markets page.
type Category string

const (
	CategoryTradingVolume   Category = "TRADING_VOLUME"
	CategoryMarketCap       Category = "MARKET_CAP"
	CategoryTrending        Category = "TRENDING"
	CategoryTopMovers       Category = "TOP_MOVERS"
	CategoryRecentlyAdded   Category = "RECENTLY_ADDED"
	CategoryOneClickDefi    Category = "ONE_CLICK_DEFI"
	CategoryThorchainSavers Category = "THORCHAIN_SAVERS"
)

// AllCategories lists categories in markets page order.
var AllCategories = []Category{
	CategoryTradingVolume,
	CategoryMarketCap,
	CategoryTrending,
	CategoryTopMovers,
	CategoryRecentlyAdded,
	CategoryOneClickDefi,
	CategoryThorchainSavers,
}

// String returns the string representation of Category.
func (c Category) String() string {
	return string(c)
}

// IsValid checks if the category is a known value.
func (c Category) IsValid() bool {
	for _, known := range AllCategories {
		if c == known {
			return true
		}
	}
	return false
}

// IsDefi reports whether the category lists yield opportunities rather than spot assets.
func (c Category) IsDefi() bool {
	return c == CategoryOneClickDefi || c == CategoryThorchainSavers
}
