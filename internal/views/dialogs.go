package views

import (
	"context"
	"strconv"
	"strings"

	"github.com/stockpulse/tradedesk/internal/restclient"
	"github.com/stockpulse/tradedesk/pkg/forms"
	"github.com/stockpulse/tradedesk/pkg/tagcache"
)

const (
	messageQuantityPositive = "Must be greater than 0"
	messageQuantityWhole    = "Must be a whole number"
	messageAmountPositive   = "Amount must be greater than 0"
	messagePricePositive    = "Must be greater than 0"
)

// OrderDialog drives the buy/sell dialog, including the market/limit
// toggle that reveals the price field.
type OrderDialog struct {
	cache    *tagcache.Cache
	client   *restclient.Client
	notifier Notifier
}

// NewOrderDialog wires an OrderDialog.
func NewOrderDialog(cache *tagcache.Cache, client *restclient.Client, notifier Notifier) *OrderDialog {
	return &OrderDialog{cache: cache, client: client, notifier: notifier}
}

// OrderForm is the raw dialog input. Quantity and LimitPrice arrive as the
// user typed them; BestPrice is the server-provided current price submitted
// in place of a user price when the market kind is selected.
type OrderForm struct {
	StockID    int64
	IsBuy      bool
	Kind       restclient.OrderType
	Quantity   string
	LimitPrice string
	BestPrice  float64
}

// Submit validates the dialog and places the order. A successful order
// invalidates portfolio, both transaction histories, and the stock
// listing so every dependent grid refetches.
func (dialog *OrderDialog) Submit(ctx context.Context, form OrderForm) error {
	fields := []forms.Field{
		{Name: "quantity", Value: form.Quantity, Rules: []forms.Rule{
			forms.PositiveNumber(messageQuantityPositive),
		}},
	}
	if form.Kind == restclient.OrderTypeLimit {
		fields = append(fields, forms.Field{Name: "price", Value: form.LimitPrice, Rules: []forms.Rule{
			forms.PositiveNumber(messagePricePositive),
		}})
	}
	if err := forms.Validate(fields...); err != nil {
		return err
	}

	quantity, err := strconv.ParseInt(strings.TrimSpace(form.Quantity), 10, 64)
	if err != nil {
		return &forms.ValidationError{Fields: []forms.FieldError{{Field: "quantity", Message: messageQuantityWhole}}}
	}

	price := form.BestPrice
	if form.Kind == restclient.OrderTypeLimit {
		price, _ = strconv.ParseFloat(strings.TrimSpace(form.LimitPrice), 64)
	}

	mutationError := dialog.cache.Mutate(ctx, func(ctx context.Context) error {
		return dialog.client.PlaceStockOrder(ctx, restclient.PlaceOrderRequest{
			StockID:   form.StockID,
			IsBuy:     form.IsBuy,
			OrderType: form.Kind,
			Quantity:  quantity,
			Price:     price,
		})
	}, placeOrderInvalidates...)
	if mutationError != nil {
		dialog.notifier.Notify(restclient.UserMessage(mutationError))
	}
	return mutationError
}

// CancelOrderDialog confirms and cancels an in-progress order.
type CancelOrderDialog struct {
	cache    *tagcache.Cache
	client   *restclient.Client
	notifier Notifier
}

// NewCancelOrderDialog wires a CancelOrderDialog.
func NewCancelOrderDialog(cache *tagcache.Cache, client *restclient.Client, notifier Notifier) *CancelOrderDialog {
	return &CancelOrderDialog{cache: cache, client: client, notifier: notifier}
}

// Submit cancels the order. A successful cancel invalidates the stock
// transaction history and the portfolio, nothing else.
func (dialog *CancelOrderDialog) Submit(ctx context.Context, stockTxID int64) error {
	mutationError := dialog.cache.Mutate(ctx, func(ctx context.Context) error {
		return dialog.client.CancelStockTransaction(ctx, stockTxID)
	}, cancelOrderInvalidates...)
	if mutationError != nil {
		dialog.notifier.Notify(restclient.UserMessage(mutationError))
	}
	return mutationError
}

// WalletDialog drives the add-funds dialog.
type WalletDialog struct {
	cache    *tagcache.Cache
	client   *restclient.Client
	notifier Notifier
}

// NewWalletDialog wires a WalletDialog.
func NewWalletDialog(cache *tagcache.Cache, client *restclient.Client, notifier Notifier) *WalletDialog {
	return &WalletDialog{cache: cache, client: client, notifier: notifier}
}

// Submit validates the amount and tops up the wallet, invalidating the
// balance on success.
func (dialog *WalletDialog) Submit(ctx context.Context, amount string) error {
	if err := forms.Validate(forms.Field{Name: "amount", Value: amount, Rules: []forms.Rule{
		forms.PositiveNumber(messageAmountPositive),
	}}); err != nil {
		return err
	}
	parsedAmount, _ := strconv.ParseFloat(strings.TrimSpace(amount), 64)

	mutationError := dialog.cache.Mutate(ctx, func(ctx context.Context) error {
		return dialog.client.AddMoneyToWallet(ctx, parsedAmount)
	}, addFundsInvalidates...)
	if mutationError != nil {
		dialog.notifier.Notify(restclient.UserMessage(mutationError))
	}
	return mutationError
}
