package restclient

import (
	"encoding/json"
	"time"
)

// OrderType selects between immediate and price-bounded execution.
type OrderType string

const (
	OrderTypeMarket OrderType = "MARKET"
	OrderTypeLimit  OrderType = "LIMIT"
)

// OrderStatus is the server-reported lifecycle of a stock transaction.
type OrderStatus string

const (
	OrderStatusInProgress        OrderStatus = "IN_PROGRESS"
	OrderStatusPartiallyComplete OrderStatus = "PARTIALLY_COMPLETE"
	OrderStatusCompleted         OrderStatus = "COMPLETED"
)

// Stock is one row of the stock listing.
type Stock struct {
	StockID   int64   `json:"stock_id"`
	StockName string  `json:"stock_name"`
	Price     float64 `json:"price"`
}

// UnmarshalJSON accepts the price under either "price" or "current_price";
// older backend revisions used the latter.
func (stock *Stock) UnmarshalJSON(data []byte) error {
	var raw struct {
		StockID      int64    `json:"stock_id"`
		StockName    string   `json:"stock_name"`
		Price        *float64 `json:"price"`
		CurrentPrice *float64 `json:"current_price"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	stock.StockID = raw.StockID
	stock.StockName = raw.StockName
	switch {
	case raw.Price != nil:
		stock.Price = *raw.Price
	case raw.CurrentPrice != nil:
		stock.Price = *raw.CurrentPrice
	}
	return nil
}

// PortfolioHolding is one owned position.
type PortfolioHolding struct {
	StockID       int64  `json:"stock_id"`
	StockName     string `json:"stock_name"`
	QuantityOwned int64  `json:"quantity_owned"`
}

// WalletBalance is the user's cash balance.
type WalletBalance struct {
	Balance float64 `json:"balance"`
}

// WalletTransaction is one debit or credit against the wallet, linked to
// the stock transaction that caused it.
type WalletTransaction struct {
	WalletTxID int64     `json:"wallet_tx_id"`
	IsDebit    bool      `json:"is_debit"`
	Amount     float64   `json:"amount"`
	TimeStamp  time.Time `json:"time_stamp"`
	StockTxID  int64     `json:"stock_tx_id"`
}

// StockTransaction is the server's authoritative view of an order. The
// client only displays it; parent_tx_id links a triggered fill back to
// its originating limit order and is backend-owned.
type StockTransaction struct {
	StockTxID   int64       `json:"stock_tx_id"`
	StockID     int64       `json:"stock_id"`
	WalletTxID  *int64      `json:"wallet_tx_id"`
	OrderStatus OrderStatus `json:"order_status"`
	IsBuy       bool        `json:"is_buy"`
	OrderType   OrderType   `json:"order_type"`
	StockPrice  float64     `json:"stock_price"`
	Quantity    int64       `json:"quantity"`
	ParentTxID  *int64      `json:"parent_tx_id"`
	TimeStamp   time.Time   `json:"time_stamp"`
	UserID      string      `json:"user_id"`
}

// AuthResult carries the bearer token minted on login or registration.
type AuthResult struct {
	Token string `json:"token"`
}

// LoginRequest is the credential pair for /authentication/login.
type LoginRequest struct {
	UserName string `json:"user_name"`
	Password string `json:"password"`
}

// RegisterRequest creates an account via /authentication/register.
type RegisterRequest struct {
	UserName string `json:"user_name"`
	Name     string `json:"name"`
	Password string `json:"password"`
}

// PlaceOrderRequest submits a buy or sell order to the matching engine.
type PlaceOrderRequest struct {
	StockID   int64     `json:"stock_id"`
	IsBuy     bool      `json:"is_buy"`
	OrderType OrderType `json:"order_type"`
	Quantity  int64     `json:"quantity"`
	Price     float64   `json:"price"`
}

type addMoneyRequest struct {
	Amount float64 `json:"amount"`
}

type cancelTransactionRequest struct {
	StockTxID int64 `json:"stock_tx_id"`
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
}
