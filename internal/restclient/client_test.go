package restclient

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stockpulse/tradedesk/internal/session"
)

func newClientForTest(test *testing.T, server *httptest.Server, sessions session.Store, options ...ClientOption) *Client {
	test.Helper()
	client, err := NewClient(server.URL, sessions, options...)
	if err != nil {
		test.Fatalf("new client: %v", err)
	}
	return client
}

func TestEveryRequestCarriesStoredCredential(test *testing.T) {
	test.Parallel()
	var mu sync.Mutex
	var seenHeaders []string
	server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		mu.Lock()
		seenHeaders = append(seenHeaders, request.Header.Get("Authorization"))
		mu.Unlock()
		writer.Header().Set("Content-Type", "application/json")
		_, _ = writer.Write([]byte(`{"success":true,"data":[]}`))
	}))
	defer server.Close()

	sessions := session.NewMemoryStore()
	if err := sessions.Save(context.Background(), "abc123"); err != nil {
		test.Fatalf("save: %v", err)
	}
	client := newClientForTest(test, server, sessions)

	if _, err := client.GetStockPrices(context.Background()); err != nil {
		test.Fatalf("stocks: %v", err)
	}
	if _, err := client.GetStockPortfolio(context.Background()); err != nil {
		test.Fatalf("portfolio: %v", err)
	}
	mu.Lock()
	defer mu.Unlock()
	if len(seenHeaders) != 2 {
		test.Fatalf("expected 2 requests, got %d", len(seenHeaders))
	}
	for _, header := range seenHeaders {
		if header != "Bearer abc123" {
			test.Fatalf("unexpected authorization header %q", header)
		}
	}
}

func TestMissingCredentialSendsUnauthenticatedRequest(test *testing.T) {
	test.Parallel()
	server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		if request.Header.Get("Authorization") != "" {
			test.Errorf("expected no authorization header, got %q", request.Header.Get("Authorization"))
		}
		_, _ = writer.Write([]byte(`{"success":true,"data":[]}`))
	}))
	defer server.Close()

	client := newClientForTest(test, server, session.NewMemoryStore())
	if _, err := client.GetStockPrices(context.Background()); err != nil {
		test.Fatalf("stocks: %v", err)
	}
}

func TestAuthFailureClearsCredentialBeforeRedirect(test *testing.T) {
	test.Parallel()
	server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		writer.WriteHeader(http.StatusUnauthorized)
		_, _ = writer.Write([]byte(`{"detail":"token expired"}`))
	}))
	defer server.Close()

	sessions := session.NewMemoryStore()
	if err := sessions.Save(context.Background(), "stale-token"); err != nil {
		test.Fatalf("save: %v", err)
	}

	var redirects atomic.Int32
	client := newClientForTest(test, server, sessions, WithAuthFailureHandler(func() {
		// The credential must already be gone when the redirect fires.
		if _, present := sessions.Read(context.Background()); present {
			test.Error("credential still present during redirect")
		}
		redirects.Add(1)
	}))

	_, err := client.GetStockPortfolio(context.Background())
	if !errors.Is(err, ErrUnauthorized) {
		test.Fatalf("expected ErrUnauthorized, got %v", err)
	}
	if redirects.Load() != 1 {
		test.Fatalf("expected exactly one redirect, got %d", redirects.Load())
	}
	if _, present := sessions.Read(context.Background()); present {
		test.Fatal("credential should be absent after handling")
	}
}

func TestLoginReturnsTokenFromEnvelope(test *testing.T) {
	test.Parallel()
	server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		if request.URL.Path != "/authentication/login" {
			test.Errorf("unexpected path %s", request.URL.Path)
		}
		var payload LoginRequest
		if err := json.NewDecoder(request.Body).Decode(&payload); err != nil {
			test.Errorf("decode: %v", err)
		}
		if payload.UserName != "alice" || payload.Password != "secret" {
			test.Errorf("unexpected payload %+v", payload)
		}
		_, _ = writer.Write([]byte(`{"success":true,"data":{"token":"abc123"}}`))
	}))
	defer server.Close()

	client := newClientForTest(test, server, session.NewMemoryStore())
	result, err := client.Login(context.Background(), LoginRequest{UserName: "alice", Password: "secret"})
	if err != nil {
		test.Fatalf("login: %v", err)
	}
	if result.Token != "abc123" {
		test.Fatalf("expected abc123, got %q", result.Token)
	}
}

func TestStockPriceDecodesEitherPriceField(test *testing.T) {
	test.Parallel()
	server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		_, _ = writer.Write([]byte(`{"success":true,"data":[
			{"stock_id":1,"stock_name":"Google","price":120.5},
			{"stock_id":2,"stock_name":"Apple","current_price":98.25}
		]}`))
	}))
	defer server.Close()

	client := newClientForTest(test, server, session.NewMemoryStore())
	stocks, err := client.GetStockPrices(context.Background())
	if err != nil {
		test.Fatalf("stocks: %v", err)
	}
	if len(stocks) != 2 {
		test.Fatalf("expected 2 stocks, got %d", len(stocks))
	}
	if stocks[0].Price != 120.5 {
		test.Fatalf("price field not decoded: %+v", stocks[0])
	}
	if stocks[1].Price != 98.25 {
		test.Fatalf("current_price field not decoded: %+v", stocks[1])
	}
}

func TestDomainErrorSurfacesServerDetail(test *testing.T) {
	test.Parallel()
	server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		writer.WriteHeader(http.StatusConflict)
		_, _ = writer.Write([]byte(`{"detail":"Username already exists"}`))
	}))
	defer server.Close()

	client := newClientForTest(test, server, session.NewMemoryStore())
	_, err := client.Register(context.Background(), RegisterRequest{UserName: "alice", Name: "Alice", Password: "pw"})
	var apiError *APIError
	if !errors.As(err, &apiError) {
		test.Fatalf("expected APIError, got %v", err)
	}
	if apiError.StatusCode != http.StatusConflict {
		test.Fatalf("unexpected status %d", apiError.StatusCode)
	}
	if UserMessage(err) != "Username already exists" {
		test.Fatalf("unexpected user message %q", UserMessage(err))
	}
}

func TestUnexpectedErrorFallsBackToGenericMessage(test *testing.T) {
	test.Parallel()
	server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		writer.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client := newClientForTest(test, server, session.NewMemoryStore())
	err := client.AddMoneyToWallet(context.Background(), 100)
	if err == nil {
		test.Fatal("expected failure")
	}
	if UserMessage(err) != GenericErrorMessage {
		test.Fatalf("expected generic fallback, got %q", UserMessage(err))
	}
}

func TestPlaceOrderSendsContractFields(test *testing.T) {
	test.Parallel()
	server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		if request.URL.Path != "/engine/placeStockOrder" {
			test.Errorf("unexpected path %s", request.URL.Path)
		}
		var payload map[string]any
		if err := json.NewDecoder(request.Body).Decode(&payload); err != nil {
			test.Errorf("decode: %v", err)
		}
		for _, key := range []string{"stock_id", "is_buy", "order_type", "quantity", "price"} {
			if _, ok := payload[key]; !ok {
				test.Errorf("missing field %q in %v", key, payload)
			}
		}
		_, _ = writer.Write([]byte(`{"success":true,"data":null}`))
	}))
	defer server.Close()

	client := newClientForTest(test, server, session.NewMemoryStore())
	err := client.PlaceStockOrder(context.Background(), PlaceOrderRequest{
		StockID:   1,
		IsBuy:     true,
		OrderType: OrderTypeLimit,
		Quantity:  10,
		Price:     80,
	})
	if err != nil {
		test.Fatalf("place order: %v", err)
	}
}
