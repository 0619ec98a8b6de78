package stubapi

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

type handler struct {
	logger   *zap.Logger
	store    *Store
	config   Config
	nowFn    func() time.Time
	signKey  []byte
	tokenTTL time.Duration
}

func newHandler(logger *zap.Logger, store *Store, config Config) *handler {
	return &handler{
		logger:   logger,
		store:    store,
		config:   config,
		nowFn:    func() time.Time { return time.Now().UTC() },
		signKey:  []byte(config.SigningKey),
		tokenTTL: config.TokenTTL,
	}
}

type successEnvelope struct {
	Success bool `json:"success"`
	Data    any  `json:"data"`
}

func successBody(data any) successEnvelope {
	return successEnvelope{Success: true, Data: data}
}

func errorDetail(detail string) gin.H {
	return gin.H{"success": false, "detail": detail}
}

type registerPayload struct {
	UserName string `json:"user_name"`
	Name     string `json:"name"`
	Password string `json:"password"`
}

type loginPayload struct {
	UserName string `json:"user_name"`
	Password string `json:"password"`
}

type tokenData struct {
	Token string `json:"token"`
}

func (h *handler) register(ctx *gin.Context) {
	var payload registerPayload
	if err := ctx.ShouldBindJSON(&payload); err != nil {
		ctx.JSON(http.StatusBadRequest, errorDetail("Invalid request body"))
		return
	}
	if strings.TrimSpace(payload.UserName) == "" || strings.TrimSpace(payload.Name) == "" || payload.Password == "" {
		ctx.JSON(http.StatusBadRequest, errorDetail("All fields must be filled out"))
		return
	}
	passwordHash, err := bcrypt.GenerateFromPassword([]byte(payload.Password), bcrypt.DefaultCost)
	if err != nil {
		h.internalError(ctx, "hash password", err)
		return
	}
	created, err := h.store.CreateUser(ctx.Request.Context(), payload.UserName, payload.Name, string(passwordHash))
	if err != nil {
		if errors.Is(err, ErrDuplicateUserName) {
			ctx.JSON(http.StatusConflict, errorDetail("Username already exists"))
			return
		}
		h.internalError(ctx, "create user", err)
		return
	}
	token, err := mintToken(h.signKey, h.config.TokenIssuer, created, h.tokenTTL, h.nowFn())
	if err != nil {
		h.internalError(ctx, "mint token", err)
		return
	}
	ctx.JSON(http.StatusCreated, successBody(tokenData{Token: token}))
}

func (h *handler) login(ctx *gin.Context) {
	var payload loginPayload
	if err := ctx.ShouldBindJSON(&payload); err != nil {
		ctx.JSON(http.StatusBadRequest, errorDetail("Invalid request body"))
		return
	}
	user, err := h.store.GetUserByUserName(ctx.Request.Context(), payload.UserName)
	if err != nil {
		if errors.Is(err, ErrUnknownUser) {
			ctx.JSON(http.StatusNotFound, errorDetail("User not found"))
			return
		}
		h.internalError(ctx, "load user", err)
		return
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(payload.Password)) != nil {
		ctx.JSON(http.StatusBadRequest, errorDetail("Invalid username or password"))
		return
	}
	token, err := mintToken(h.signKey, h.config.TokenIssuer, user, h.tokenTTL, h.nowFn())
	if err != nil {
		h.internalError(ctx, "mint token", err)
		return
	}
	ctx.JSON(http.StatusOK, successBody(tokenData{Token: token}))
}

type stockData struct {
	StockID   int64   `json:"stock_id"`
	StockName string  `json:"stock_name"`
	Price     float64 `json:"price"`
}

func (h *handler) getStockPrices(ctx *gin.Context) {
	stocks, err := h.store.ListStocks(ctx.Request.Context())
	if err != nil {
		h.internalError(ctx, "list stocks", err)
		return
	}
	rows := make([]stockData, 0, len(stocks))
	for _, stock := range stocks {
		rows = append(rows, stockData{StockID: stock.StockID, StockName: stock.StockName, Price: stock.Price})
	}
	ctx.JSON(http.StatusOK, successBody(rows))
}

type portfolioData struct {
	StockID       int64  `json:"stock_id"`
	StockName     string `json:"stock_name"`
	QuantityOwned int64  `json:"quantity_owned"`
}

func (h *handler) getStockPortfolio(ctx *gin.Context) {
	claims := getClaims(ctx)
	holdings, err := h.store.ListHoldings(ctx.Request.Context(), claims.UserID)
	if err != nil {
		h.internalError(ctx, "list holdings", err)
		return
	}
	rows := make([]portfolioData, 0, len(holdings))
	for _, holding := range holdings {
		stock, err := h.store.GetStock(ctx.Request.Context(), holding.StockID)
		if err != nil {
			h.internalError(ctx, "load stock", err)
			return
		}
		rows = append(rows, portfolioData{StockID: holding.StockID, StockName: stock.StockName, QuantityOwned: holding.QuantityOwned})
	}
	ctx.JSON(http.StatusOK, successBody(rows))
}

type balanceData struct {
	Balance float64 `json:"balance"`
}

func (h *handler) getWalletBalance(ctx *gin.Context) {
	claims := getClaims(ctx)
	wallet, err := h.store.GetWallet(ctx.Request.Context(), claims.UserID)
	if err != nil {
		h.internalError(ctx, "load wallet", err)
		return
	}
	ctx.JSON(http.StatusOK, successBody(balanceData{Balance: wallet.Balance}))
}

type walletTransactionData struct {
	WalletTxID int64   `json:"wallet_tx_id"`
	StockTxID  int64   `json:"stock_tx_id"`
	IsDebit    bool    `json:"is_debit"`
	Amount     float64 `json:"amount"`
	TimeStamp  string  `json:"time_stamp"`
}

func (h *handler) getWalletTransactions(ctx *gin.Context) {
	claims := getClaims(ctx)
	records, err := h.store.ListWalletTransactions(ctx.Request.Context(), claims.UserID)
	if err != nil {
		h.internalError(ctx, "list wallet transactions", err)
		return
	}
	rows := make([]walletTransactionData, 0, len(records))
	for _, record := range records {
		rows = append(rows, walletTransactionData{
			WalletTxID: record.WalletTxID,
			StockTxID:  record.StockTxID,
			IsDebit:    record.IsDebit,
			Amount:     record.Amount,
			TimeStamp:  record.CreatedAt.UTC().Format(time.RFC3339),
		})
	}
	ctx.JSON(http.StatusOK, successBody(rows))
}

type stockTransactionData struct {
	StockTxID   int64   `json:"stock_tx_id"`
	ParentTxID  *int64  `json:"parent_tx_id"`
	StockID     int64   `json:"stock_id"`
	WalletTxID  *int64  `json:"wallet_tx_id"`
	OrderStatus string  `json:"order_status"`
	IsBuy       bool    `json:"is_buy"`
	OrderType   string  `json:"order_type"`
	StockPrice  float64 `json:"stock_price"`
	Quantity    int64   `json:"quantity"`
	TimeStamp   string  `json:"time_stamp"`
}

func (h *handler) getStockTransactions(ctx *gin.Context) {
	claims := getClaims(ctx)
	records, err := h.store.ListStockTransactions(ctx.Request.Context(), claims.UserID)
	if err != nil {
		h.internalError(ctx, "list stock transactions", err)
		return
	}
	rows := make([]stockTransactionData, 0, len(records))
	for _, record := range records {
		rows = append(rows, stockTransactionData{
			StockTxID:   record.StockTxID,
			ParentTxID:  record.ParentTxID,
			StockID:     record.StockID,
			WalletTxID:  record.WalletTxID,
			OrderStatus: record.OrderStatus,
			IsBuy:       record.IsBuy,
			OrderType:   record.OrderType,
			StockPrice:  record.StockPrice,
			Quantity:    record.Quantity,
			TimeStamp:   record.CreatedAt.UTC().Format(time.RFC3339),
		})
	}
	ctx.JSON(http.StatusOK, successBody(rows))
}

type addMoneyPayload struct {
	Amount float64 `json:"amount"`
}

func (h *handler) addMoneyToWallet(ctx *gin.Context) {
	var payload addMoneyPayload
	if err := ctx.ShouldBindJSON(&payload); err != nil {
		ctx.JSON(http.StatusBadRequest, errorDetail("Invalid request body"))
		return
	}
	if payload.Amount <= 0 {
		ctx.JSON(http.StatusBadRequest, errorDetail("Amount must be greater than 0"))
		return
	}
	claims := getClaims(ctx)
	if err := h.store.AdjustWallet(ctx.Request.Context(), claims.UserID, payload.Amount); err != nil {
		h.internalError(ctx, "credit wallet", err)
		return
	}
	ctx.JSON(http.StatusCreated, successBody(nil))
}

type placeOrderPayload struct {
	StockID   int64   `json:"stock_id"`
	IsBuy     bool    `json:"is_buy"`
	OrderType string  `json:"order_type"`
	Quantity  int64   `json:"quantity"`
	Price     float64 `json:"price"`
}

func (h *handler) placeStockOrder(ctx *gin.Context) {
	var payload placeOrderPayload
	if err := ctx.ShouldBindJSON(&payload); err != nil {
		ctx.JSON(http.StatusBadRequest, errorDetail("Invalid request body"))
		return
	}
	if payload.Quantity <= 0 {
		ctx.JSON(http.StatusBadRequest, errorDetail("Quantity must be greater than 0"))
		return
	}
	if payload.OrderType != orderTypeMarket && payload.OrderType != orderTypeLimit {
		ctx.JSON(http.StatusBadRequest, errorDetail("Unknown order type"))
		return
	}
	if payload.OrderType == orderTypeLimit && payload.Price <= 0 {
		ctx.JSON(http.StatusBadRequest, errorDetail("Price must be greater than 0"))
		return
	}
	claims := getClaims(ctx)
	stock, err := h.store.GetStock(ctx.Request.Context(), payload.StockID)
	if err != nil {
		if errors.Is(err, ErrUnknownStock) {
			ctx.JSON(http.StatusNotFound, errorDetail("Stock not found"))
			return
		}
		h.internalError(ctx, "load stock", err)
		return
	}
	txErr := h.store.WithTx(ctx.Request.Context(), func(txCtx context.Context, txStore *Store) error {
		if payload.OrderType == orderTypeMarket {
			return h.fillMarketOrder(txCtx, txStore, claims.UserID, stock, payload)
		}
		return h.restLimitOrder(txCtx, txStore, claims.UserID, stock, payload)
	})
	if txErr != nil {
		switch {
		case errors.Is(txErr, ErrInsufficientFunds):
			ctx.JSON(http.StatusBadRequest, errorDetail("Insufficient funds"))
		case errors.Is(txErr, ErrInsufficientShares):
			ctx.JSON(http.StatusBadRequest, errorDetail("Insufficient shares"))
		default:
			h.internalError(ctx, "place order", txErr)
		}
		return
	}
	ctx.JSON(http.StatusCreated, successBody(nil))
}

// fillMarketOrder settles a market order immediately at the current price:
// buys debit the wallet and grow the holding, sells shrink the holding and
// credit the wallet, and the order row is linked to the wallet row it caused.
func (h *handler) fillMarketOrder(ctx context.Context, txStore *Store, userID string, stock StockRecord, payload placeOrderPayload) error {
	fillPrice := stock.Price
	total := fillPrice * float64(payload.Quantity)
	if payload.IsBuy {
		if err := txStore.AdjustWallet(ctx, userID, -total); err != nil {
			return err
		}
		if err := txStore.AdjustHolding(ctx, userID, stock.StockID, payload.Quantity); err != nil {
			return err
		}
	} else {
		if err := txStore.AdjustHolding(ctx, userID, stock.StockID, -payload.Quantity); err != nil {
			return err
		}
		if err := txStore.AdjustWallet(ctx, userID, total); err != nil {
			return err
		}
	}
	stockTx := StockTransactionRecord{
		UserID:      userID,
		StockID:     stock.StockID,
		OrderStatus: orderStatusCompleted,
		IsBuy:       payload.IsBuy,
		OrderType:   orderTypeMarket,
		StockPrice:  fillPrice,
		Quantity:    payload.Quantity,
		CreatedAt:   h.nowFn(),
	}
	if err := txStore.InsertStockTransaction(ctx, &stockTx); err != nil {
		return err
	}
	walletTx := WalletTransactionRecord{
		UserID:    userID,
		StockTxID: stockTx.StockTxID,
		IsDebit:   payload.IsBuy,
		Amount:    total,
		CreatedAt: h.nowFn(),
	}
	if err := txStore.InsertWalletTransaction(ctx, &walletTx); err != nil {
		return err
	}
	return txStore.LinkWalletTransaction(ctx, stockTx.StockTxID, walletTx.WalletTxID)
}

// restLimitOrder records an open limit order. Sell limits escrow the shares
// up front so a later market sell cannot double-spend them.
func (h *handler) restLimitOrder(ctx context.Context, txStore *Store, userID string, stock StockRecord, payload placeOrderPayload) error {
	if !payload.IsBuy {
		if err := txStore.AdjustHolding(ctx, userID, stock.StockID, -payload.Quantity); err != nil {
			return err
		}
	}
	stockTx := StockTransactionRecord{
		UserID:      userID,
		StockID:     stock.StockID,
		OrderStatus: orderStatusInProgress,
		IsBuy:       payload.IsBuy,
		OrderType:   orderTypeLimit,
		StockPrice:  payload.Price,
		Quantity:    payload.Quantity,
		CreatedAt:   h.nowFn(),
	}
	return txStore.InsertStockTransaction(ctx, &stockTx)
}

type cancelPayload struct {
	StockTxID int64 `json:"stock_tx_id"`
}

func (h *handler) cancelStockTransaction(ctx *gin.Context) {
	var payload cancelPayload
	if err := ctx.ShouldBindJSON(&payload); err != nil {
		ctx.JSON(http.StatusBadRequest, errorDetail("Invalid request body"))
		return
	}
	claims := getClaims(ctx)
	record, err := h.store.GetStockTransaction(ctx.Request.Context(), claims.UserID, payload.StockTxID)
	if err != nil {
		if errors.Is(err, ErrUnknownOrder) {
			ctx.JSON(http.StatusNotFound, errorDetail("Stock transaction not found"))
			return
		}
		h.internalError(ctx, "load stock transaction", err)
		return
	}
	if record.OrderStatus != orderStatusInProgress {
		ctx.JSON(http.StatusBadRequest, errorDetail("Order is not in progress"))
		return
	}
	txErr := h.store.WithTx(ctx.Request.Context(), func(txCtx context.Context, txStore *Store) error {
		if !record.IsBuy {
			if err := txStore.AdjustHolding(txCtx, claims.UserID, record.StockID, record.Quantity); err != nil {
				return err
			}
		}
		return txStore.DeleteStockTransaction(txCtx, record.StockTxID)
	})
	if txErr != nil {
		h.internalError(ctx, "cancel stock transaction", txErr)
		return
	}
	ctx.JSON(http.StatusOK, successBody(nil))
}

type createStockPayload struct {
	StockName string  `json:"stock_name"`
	Price     float64 `json:"price"`
}

type createStockData struct {
	StockID int64 `json:"stock_id"`
}

func (h *handler) createStock(ctx *gin.Context) {
	var payload createStockPayload
	if err := ctx.ShouldBindJSON(&payload); err != nil {
		ctx.JSON(http.StatusBadRequest, errorDetail("Invalid request body"))
		return
	}
	if strings.TrimSpace(payload.StockName) == "" {
		ctx.JSON(http.StatusBadRequest, errorDetail("Stock name must not be empty"))
		return
	}
	if payload.Price <= 0 {
		ctx.JSON(http.StatusBadRequest, errorDetail("Price must be greater than 0"))
		return
	}
	created, err := h.store.CreateStock(ctx.Request.Context(), payload.StockName, payload.Price)
	if err != nil {
		if errors.Is(err, ErrDuplicateStockName) {
			ctx.JSON(http.StatusConflict, errorDetail("Stock already exists"))
			return
		}
		h.internalError(ctx, "create stock", err)
		return
	}
	ctx.JSON(http.StatusCreated, successBody(createStockData{StockID: created.StockID}))
}

type addStockPayload struct {
	StockID  int64 `json:"stock_id"`
	Quantity int64 `json:"quantity"`
}

func (h *handler) addStockToUser(ctx *gin.Context) {
	var payload addStockPayload
	if err := ctx.ShouldBindJSON(&payload); err != nil {
		ctx.JSON(http.StatusBadRequest, errorDetail("Invalid request body"))
		return
	}
	if payload.Quantity <= 0 {
		ctx.JSON(http.StatusBadRequest, errorDetail("Quantity must be greater than 0"))
		return
	}
	claims := getClaims(ctx)
	if _, err := h.store.GetStock(ctx.Request.Context(), payload.StockID); err != nil {
		if errors.Is(err, ErrUnknownStock) {
			ctx.JSON(http.StatusNotFound, errorDetail("Stock not found"))
			return
		}
		h.internalError(ctx, "load stock", err)
		return
	}
	if err := h.store.AdjustHolding(ctx.Request.Context(), claims.UserID, payload.StockID, payload.Quantity); err != nil {
		h.internalError(ctx, "grant shares", err)
		return
	}
	ctx.JSON(http.StatusCreated, successBody(nil))
}

func (h *handler) internalError(ctx *gin.Context, operation string, err error) {
	h.logger.Error("request failed", zap.String("operation", operation), zap.Error(err))
	ctx.JSON(http.StatusInternalServerError, errorDetail("Internal server error"))
}
