package views

import (
	"context"

	"github.com/stockpulse/tradedesk/internal/restclient"
	"github.com/stockpulse/tradedesk/pkg/tagcache"
)

// Queries is the read side shared by every grid: each accessor resolves
// through the server-state cache under its tag. On a fetch failure the
// last good payload is still returned alongside the error.
type Queries struct {
	cache  *tagcache.Cache
	client *restclient.Client
}

// NewQueries wires the read side.
func NewQueries(cache *tagcache.Cache, client *restclient.Client) *Queries {
	return &Queries{cache: cache, client: client}
}

// Stocks returns the stock listing.
func (queries *Queries) Stocks(ctx context.Context) ([]restclient.Stock, error) {
	snapshot, err := queries.cache.Query(ctx, TagStocks, func(ctx context.Context) (any, error) {
		return queries.client.GetStockPrices(ctx)
	})
	stocks, _ := snapshot.Payload.([]restclient.Stock)
	return stocks, err
}

// Portfolio returns the user's holdings.
func (queries *Queries) Portfolio(ctx context.Context) ([]restclient.PortfolioHolding, error) {
	snapshot, err := queries.cache.Query(ctx, TagPortfolio, func(ctx context.Context) (any, error) {
		return queries.client.GetStockPortfolio(ctx)
	})
	holdings, _ := snapshot.Payload.([]restclient.PortfolioHolding)
	return holdings, err
}

// WalletBalance returns the cash balance.
func (queries *Queries) WalletBalance(ctx context.Context) (restclient.WalletBalance, error) {
	snapshot, err := queries.cache.Query(ctx, TagWalletBalance, func(ctx context.Context) (any, error) {
		return queries.client.GetWalletBalance(ctx)
	})
	balance, _ := snapshot.Payload.(restclient.WalletBalance)
	return balance, err
}

// WalletTransactions returns the wallet debit/credit history.
func (queries *Queries) WalletTransactions(ctx context.Context) ([]restclient.WalletTransaction, error) {
	snapshot, err := queries.cache.Query(ctx, TagWalletTx, func(ctx context.Context) (any, error) {
		return queries.client.GetWalletTransactions(ctx)
	})
	transactions, _ := snapshot.Payload.([]restclient.WalletTransaction)
	return transactions, err
}

// StockTransactions returns the order history.
func (queries *Queries) StockTransactions(ctx context.Context) ([]restclient.StockTransaction, error) {
	snapshot, err := queries.cache.Query(ctx, TagStockTx, func(ctx context.Context) (any, error) {
		return queries.client.GetStockTransactions(ctx)
	})
	transactions, _ := snapshot.Payload.([]restclient.StockTransaction)
	return transactions, err
}

// BestPriceFor resolves the current best price for a stock from the cached
// listing; the order dialog submits it for market orders.
func (queries *Queries) BestPriceFor(ctx context.Context, stockID int64) (float64, bool, error) {
	stocks, err := queries.Stocks(ctx)
	for _, stock := range stocks {
		if stock.StockID == stockID {
			return stock.Price, true, err
		}
	}
	return 0, false, err
}
