package restclient

import (
	"context"
	"net/http"
)

// Backend REST paths.
const (
	pathLogin                  = "/authentication/login"
	pathRegister               = "/authentication/register"
	pathGetStockPrices         = "/transaction/getStockPrices"
	pathGetStockPortfolio      = "/transaction/getStockPortfolio"
	pathGetWalletBalance       = "/transaction/getWalletBalance"
	pathGetWalletTransactions  = "/transaction/getWalletTransactions"
	pathGetStockTransactions   = "/transaction/getStockTransactions"
	pathAddMoneyToWallet       = "/transaction/addMoneyToWallet"
	pathPlaceStockOrder        = "/engine/placeStockOrder"
	pathCancelStockTransaction = "/engine/cancelStockTransaction"
)

// Login exchanges a credential pair for a bearer token.
func (client *Client) Login(ctx context.Context, request LoginRequest) (AuthResult, error) {
	var result AuthResult
	if err := client.do(ctx, http.MethodPost, pathLogin, request, &result); err != nil {
		return AuthResult{}, err
	}
	return result, nil
}

// Register creates an account and returns a bearer token, so a fresh user
// is logged in immediately.
func (client *Client) Register(ctx context.Context, request RegisterRequest) (AuthResult, error) {
	var result AuthResult
	if err := client.do(ctx, http.MethodPost, pathRegister, request, &result); err != nil {
		return AuthResult{}, err
	}
	return result, nil
}

// GetStockPrices lists every stock with its current best price.
func (client *Client) GetStockPrices(ctx context.Context) ([]Stock, error) {
	var stocks []Stock
	if err := client.do(ctx, http.MethodGet, pathGetStockPrices, nil, &stocks); err != nil {
		return nil, err
	}
	return stocks, nil
}

// GetStockPortfolio lists the user's owned positions.
func (client *Client) GetStockPortfolio(ctx context.Context) ([]PortfolioHolding, error) {
	var holdings []PortfolioHolding
	if err := client.do(ctx, http.MethodGet, pathGetStockPortfolio, nil, &holdings); err != nil {
		return nil, err
	}
	return holdings, nil
}

// GetWalletBalance returns the user's cash balance.
func (client *Client) GetWalletBalance(ctx context.Context) (WalletBalance, error) {
	var balance WalletBalance
	if err := client.do(ctx, http.MethodGet, pathGetWalletBalance, nil, &balance); err != nil {
		return WalletBalance{}, err
	}
	return balance, nil
}

// GetWalletTransactions lists wallet debits and credits.
func (client *Client) GetWalletTransactions(ctx context.Context) ([]WalletTransaction, error) {
	var transactions []WalletTransaction
	if err := client.do(ctx, http.MethodGet, pathGetWalletTransactions, nil, &transactions); err != nil {
		return nil, err
	}
	return transactions, nil
}

// GetStockTransactions lists the user's orders as the server sees them.
func (client *Client) GetStockTransactions(ctx context.Context) ([]StockTransaction, error) {
	var transactions []StockTransaction
	if err := client.do(ctx, http.MethodGet, pathGetStockTransactions, nil, &transactions); err != nil {
		return nil, err
	}
	return transactions, nil
}

// AddMoneyToWallet tops up the wallet.
func (client *Client) AddMoneyToWallet(ctx context.Context, amount float64) error {
	return client.do(ctx, http.MethodPost, pathAddMoneyToWallet, addMoneyRequest{Amount: amount}, nil)
}

// PlaceStockOrder submits an order to the matching engine.
func (client *Client) PlaceStockOrder(ctx context.Context, request PlaceOrderRequest) error {
	return client.do(ctx, http.MethodPost, pathPlaceStockOrder, request, nil)
}

// CancelStockTransaction cancels an in-progress order.
func (client *Client) CancelStockTransaction(ctx context.Context, stockTxID int64) error {
	return client.do(ctx, http.MethodPost, pathCancelStockTransaction, cancelTransactionRequest{StockTxID: stockTxID}, nil)
}
