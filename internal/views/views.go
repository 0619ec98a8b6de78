// Package views holds the form and grid controllers behind each screen.
// Every form-driven view follows the same protocol: validate locally,
// submit through the server-state cache, surface server errors as
// transient notices.
package views

import "github.com/stockpulse/tradedesk/pkg/tagcache"

// Semantic tags for every server-state query, and the invalidation sets
// mutations use.
const (
	TagStocks        tagcache.Tag = "stocks"
	TagPortfolio     tagcache.Tag = "portfolio"
	TagWalletBalance tagcache.Tag = "wallet_balance"
	TagWalletTx      tagcache.Tag = "wallet_tx"
	TagStockTx       tagcache.Tag = "stock_tx"
)

// Invalidation sets per mutation. Placing an order touches holdings, both
// transaction histories, and the listing prices; canceling touches only
// the order book view and holdings; a wallet top-up touches the balance.
var (
	placeOrderInvalidates  = []tagcache.Tag{TagPortfolio, TagWalletTx, TagStockTx, TagStocks}
	cancelOrderInvalidates = []tagcache.Tag{TagStockTx, TagPortfolio}
	addFundsInvalidates    = []tagcache.Tag{TagWalletBalance}
)

// Notifier shows a transient, auto-dismissing notification.
type Notifier interface {
	Notify(message string)
}

// NopNotifier discards notifications.
type NopNotifier struct{}

// Notify does nothing.
func (NopNotifier) Notify(message string) {}
