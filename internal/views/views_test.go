package views

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stockpulse/tradedesk/internal/navigator"
	"github.com/stockpulse/tradedesk/internal/restclient"
	"github.com/stockpulse/tradedesk/internal/session"
	"github.com/stockpulse/tradedesk/pkg/forms"
	"github.com/stockpulse/tradedesk/pkg/tagcache"
)

type recordingNotifier struct {
	mu       sync.Mutex
	messages []string
}

func (notifier *recordingNotifier) Notify(message string) {
	notifier.mu.Lock()
	defer notifier.mu.Unlock()
	notifier.messages = append(notifier.messages, message)
}

func (notifier *recordingNotifier) Messages() []string {
	notifier.mu.Lock()
	defer notifier.mu.Unlock()
	recorded := make([]string, len(notifier.messages))
	copy(recorded, notifier.messages)
	return recorded
}

// stubBackend serves the REST contract with canned payloads and counts
// hits per path.
type stubBackend struct {
	mu        sync.Mutex
	hits      map[string]int
	lastOrder map[string]any
	failWith  map[string]int
}

func newStubBackend() *stubBackend {
	return &stubBackend{hits: map[string]int{}, failWith: map[string]int{}}
}

func (backend *stubBackend) Hits(path string) int {
	backend.mu.Lock()
	defer backend.mu.Unlock()
	return backend.hits[path]
}

func (backend *stubBackend) LastOrder() map[string]any {
	backend.mu.Lock()
	defer backend.mu.Unlock()
	return backend.lastOrder
}

func (backend *stubBackend) ServeHTTP(writer http.ResponseWriter, request *http.Request) {
	backend.mu.Lock()
	backend.hits[request.URL.Path]++
	failStatus := backend.failWith[request.URL.Path]
	if request.URL.Path == "/engine/placeStockOrder" {
		var order map[string]any
		_ = json.NewDecoder(request.Body).Decode(&order)
		backend.lastOrder = order
	}
	backend.mu.Unlock()

	if failStatus != 0 {
		writer.WriteHeader(failStatus)
		_, _ = writer.Write([]byte(`{"detail":"Insufficient funds"}`))
		return
	}

	switch request.URL.Path {
	case "/authentication/login", "/authentication/register":
		_, _ = writer.Write([]byte(`{"success":true,"data":{"token":"abc123"}}`))
	case "/transaction/getStockPrices":
		_, _ = writer.Write([]byte(`{"success":true,"data":[{"stock_id":1,"stock_name":"Google","price":42.5}]}`))
	case "/transaction/getStockPortfolio":
		_, _ = writer.Write([]byte(`{"success":true,"data":[{"stock_id":1,"stock_name":"Google","quantity_owned":5}]}`))
	case "/transaction/getWalletBalance":
		_, _ = writer.Write([]byte(`{"success":true,"data":{"balance":1000}}`))
	case "/transaction/getWalletTransactions", "/transaction/getStockTransactions":
		_, _ = writer.Write([]byte(`{"success":true,"data":[]}`))
	default:
		_, _ = writer.Write([]byte(`{"success":true,"data":null}`))
	}
}

type viewHarness struct {
	backend  *stubBackend
	cache    *tagcache.Cache
	client   *restclient.Client
	sessions *session.MemoryStore
	nav      *navigator.MemoryNavigator
	notifier *recordingNotifier
	queries  *Queries
}

func newViewHarness(test *testing.T) *viewHarness {
	test.Helper()
	backend := newStubBackend()
	server := httptest.NewServer(backend)
	test.Cleanup(server.Close)

	sessions := session.NewMemoryStore()
	client, err := restclient.NewClient(server.URL, sessions)
	if err != nil {
		test.Fatalf("new client: %v", err)
	}
	cache := tagcache.NewCache()
	return &viewHarness{
		backend:  backend,
		cache:    cache,
		client:   client,
		sessions: sessions,
		nav:      navigator.NewMemoryNavigator(navigator.PathLogin),
		notifier: &recordingNotifier{},
		queries:  NewQueries(cache, client),
	}
}

func (harness *viewHarness) seedAllQueries(test *testing.T) {
	test.Helper()
	ctx := context.Background()
	if _, err := harness.queries.Stocks(ctx); err != nil {
		test.Fatalf("seed stocks: %v", err)
	}
	if _, err := harness.queries.Portfolio(ctx); err != nil {
		test.Fatalf("seed portfolio: %v", err)
	}
	if _, err := harness.queries.WalletBalance(ctx); err != nil {
		test.Fatalf("seed wallet balance: %v", err)
	}
	if _, err := harness.queries.WalletTransactions(ctx); err != nil {
		test.Fatalf("seed wallet tx: %v", err)
	}
	if _, err := harness.queries.StockTransactions(ctx); err != nil {
		test.Fatalf("seed stock tx: %v", err)
	}
}

func (harness *viewHarness) requeryAll(test *testing.T) {
	harness.seedAllQueries(test)
}

func TestLoginStoresTokenAndNavigatesHome(test *testing.T) {
	test.Parallel()
	harness := newViewHarness(test)
	view := NewLoginView(harness.client, harness.sessions, harness.nav, harness.notifier)

	if err := view.Submit(context.Background(), "alice", "secret"); err != nil {
		test.Fatalf("submit: %v", err)
	}
	token, present := harness.sessions.Read(context.Background())
	if !present || token != "abc123" {
		test.Fatalf("expected stored token abc123, got %q present=%v", token, present)
	}
	if harness.nav.CurrentPath() != navigator.PathRoot {
		test.Fatalf("expected navigation to %s, got %s", navigator.PathRoot, harness.nav.CurrentPath())
	}
}

func TestLoginValidationFailureSendsNothing(test *testing.T) {
	test.Parallel()
	harness := newViewHarness(test)
	view := NewLoginView(harness.client, harness.sessions, harness.nav, harness.notifier)

	err := view.Submit(context.Background(), "al ice", "secret")
	if !errors.Is(err, forms.ErrValidation) {
		test.Fatalf("expected validation error, got %v", err)
	}
	if harness.backend.Hits("/authentication/login") != 0 {
		test.Fatal("validation failure must not reach the network")
	}
}

func TestRegisterRejectsMismatchedPasswords(test *testing.T) {
	test.Parallel()
	harness := newViewHarness(test)
	view := NewRegisterView(harness.client, harness.sessions, harness.nav, harness.notifier)

	err := view.Submit(context.Background(), RegisterForm{
		Username:        "alice",
		Name:            "Alice",
		Password:        "secret",
		ConfirmPassword: "different",
	})
	var validationError *forms.ValidationError
	if !errors.As(err, &validationError) {
		test.Fatalf("expected validation error, got %v", err)
	}
	if validationError.MessageFor("confirmPassword") != "Passwords do not match" {
		test.Fatalf("unexpected message %q", validationError.MessageFor("confirmPassword"))
	}
	if harness.backend.Hits("/authentication/register") != 0 {
		test.Fatal("mismatched passwords must not reach the network")
	}
}

func TestRegisterLogsNewUserIn(test *testing.T) {
	test.Parallel()
	harness := newViewHarness(test)
	view := NewRegisterView(harness.client, harness.sessions, harness.nav, harness.notifier)

	err := view.Submit(context.Background(), RegisterForm{
		Username:        "alice",
		Name:            "Alice",
		Password:        "secret",
		ConfirmPassword: "secret",
	})
	if err != nil {
		test.Fatalf("submit: %v", err)
	}
	if _, present := harness.sessions.Read(context.Background()); !present {
		test.Fatal("registration should store the returned token")
	}
	if harness.nav.CurrentPath() != navigator.PathRoot {
		test.Fatalf("expected navigation home, got %s", harness.nav.CurrentPath())
	}
}

func TestOrderDialogRejectsNonPositiveQuantity(test *testing.T) {
	test.Parallel()
	harness := newViewHarness(test)
	dialog := NewOrderDialog(harness.cache, harness.client, harness.notifier)

	for _, quantity := range []string{"0", "-3"} {
		err := dialog.Submit(context.Background(), OrderForm{
			StockID:  1,
			IsBuy:    true,
			Kind:     restclient.OrderTypeMarket,
			Quantity: quantity,
		})
		var validationError *forms.ValidationError
		if !errors.As(err, &validationError) {
			test.Fatalf("quantity %q: expected validation error, got %v", quantity, err)
		}
		if validationError.MessageFor("quantity") != "Must be greater than 0" {
			test.Fatalf("unexpected message %q", validationError.MessageFor("quantity"))
		}
	}
	if harness.backend.Hits("/engine/placeStockOrder") != 0 {
		test.Fatal("invalid quantity must not reach the network")
	}
}

func TestMarketOrderSubmitsBestPrice(test *testing.T) {
	test.Parallel()
	harness := newViewHarness(test)
	dialog := NewOrderDialog(harness.cache, harness.client, harness.notifier)

	err := dialog.Submit(context.Background(), OrderForm{
		StockID:   1,
		IsBuy:     true,
		Kind:      restclient.OrderTypeMarket,
		Quantity:  "3",
		BestPrice: 42.5,
	})
	if err != nil {
		test.Fatalf("submit: %v", err)
	}
	order := harness.backend.LastOrder()
	if order["price"] != 42.5 {
		test.Fatalf("market order should submit the best price, got %v", order["price"])
	}
	if order["order_type"] != "MARKET" {
		test.Fatalf("unexpected order type %v", order["order_type"])
	}
}

func TestLimitOrderRequiresPositivePrice(test *testing.T) {
	test.Parallel()
	harness := newViewHarness(test)
	dialog := NewOrderDialog(harness.cache, harness.client, harness.notifier)

	err := dialog.Submit(context.Background(), OrderForm{
		StockID:    1,
		IsBuy:      false,
		Kind:       restclient.OrderTypeLimit,
		Quantity:   "3",
		LimitPrice: "0",
	})
	var validationError *forms.ValidationError
	if !errors.As(err, &validationError) {
		test.Fatalf("expected validation error, got %v", err)
	}
	if harness.backend.Hits("/engine/placeStockOrder") != 0 {
		test.Fatal("invalid price must not reach the network")
	}
}

func TestPlaceOrderInvalidatesItsTagSet(test *testing.T) {
	test.Parallel()
	harness := newViewHarness(test)
	harness.seedAllQueries(test)
	dialog := NewOrderDialog(harness.cache, harness.client, harness.notifier)

	err := dialog.Submit(context.Background(), OrderForm{
		StockID:    1,
		IsBuy:      true,
		Kind:       restclient.OrderTypeLimit,
		Quantity:   "2",
		LimitPrice: "40",
	})
	if err != nil {
		test.Fatalf("submit: %v", err)
	}
	harness.requeryAll(test)

	for path, expected := range map[string]int{
		"/transaction/getStockPrices":        2,
		"/transaction/getStockPortfolio":     2,
		"/transaction/getWalletTransactions": 2,
		"/transaction/getStockTransactions":  2,
		"/transaction/getWalletBalance":      1,
	} {
		if hits := harness.backend.Hits(path); hits != expected {
			test.Fatalf("path %s: expected %d fetches, got %d", path, expected, hits)
		}
	}
}

func TestCancelOrderInvalidatesOnlyStockTxAndPortfolio(test *testing.T) {
	test.Parallel()
	harness := newViewHarness(test)
	harness.seedAllQueries(test)
	dialog := NewCancelOrderDialog(harness.cache, harness.client, harness.notifier)

	if err := dialog.Submit(context.Background(), 7); err != nil {
		test.Fatalf("submit: %v", err)
	}
	harness.requeryAll(test)

	for path, expected := range map[string]int{
		"/transaction/getStockTransactions":  2,
		"/transaction/getStockPortfolio":     2,
		"/transaction/getStockPrices":        1,
		"/transaction/getWalletTransactions": 1,
		"/transaction/getWalletBalance":      1,
	} {
		if hits := harness.backend.Hits(path); hits != expected {
			test.Fatalf("path %s: expected %d fetches, got %d", path, expected, hits)
		}
	}
}

func TestWalletDialogValidatesAmountAndInvalidatesBalance(test *testing.T) {
	test.Parallel()
	harness := newViewHarness(test)
	harness.seedAllQueries(test)
	dialog := NewWalletDialog(harness.cache, harness.client, harness.notifier)

	err := dialog.Submit(context.Background(), "-50")
	var validationError *forms.ValidationError
	if !errors.As(err, &validationError) {
		test.Fatalf("expected validation error, got %v", err)
	}
	if validationError.MessageFor("amount") != "Amount must be greater than 0" {
		test.Fatalf("unexpected message %q", validationError.MessageFor("amount"))
	}
	if harness.backend.Hits("/transaction/addMoneyToWallet") != 0 {
		test.Fatal("invalid amount must not reach the network")
	}

	if err := dialog.Submit(context.Background(), "250"); err != nil {
		test.Fatalf("top-up: %v", err)
	}
	harness.requeryAll(test)
	if hits := harness.backend.Hits("/transaction/getWalletBalance"); hits != 2 {
		test.Fatalf("expected balance refetch after top-up, got %d", hits)
	}
	if hits := harness.backend.Hits("/transaction/getStockPrices"); hits != 1 {
		test.Fatalf("top-up must not invalidate stocks, got %d fetches", hits)
	}
}

func TestOrderFailureSurfacesServerDetail(test *testing.T) {
	test.Parallel()
	harness := newViewHarness(test)
	harness.backend.failWith["/engine/placeStockOrder"] = http.StatusBadRequest
	dialog := NewOrderDialog(harness.cache, harness.client, harness.notifier)

	err := dialog.Submit(context.Background(), OrderForm{
		StockID:   1,
		IsBuy:     true,
		Kind:      restclient.OrderTypeMarket,
		Quantity:  "3",
		BestPrice: 42.5,
	})
	if err == nil {
		test.Fatal("expected failure")
	}
	messages := harness.notifier.Messages()
	if len(messages) != 1 || messages[0] != "Insufficient funds" {
		test.Fatalf("expected server detail notification, got %v", messages)
	}
}

func TestLogoutClearsCredentialAndReturnsToLogin(test *testing.T) {
	test.Parallel()
	harness := newViewHarness(test)
	if err := harness.sessions.Save(context.Background(), "abc123"); err != nil {
		test.Fatalf("save: %v", err)
	}
	if err := Logout(context.Background(), harness.sessions, harness.nav); err != nil {
		test.Fatalf("logout: %v", err)
	}
	if _, present := harness.sessions.Read(context.Background()); present {
		test.Fatal("credential should be cleared")
	}
	if harness.nav.CurrentPath() != navigator.PathLogin {
		test.Fatalf("expected login screen, got %s", harness.nav.CurrentPath())
	}
}
