package app

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stockpulse/tradedesk/internal/navigator"
	"github.com/stockpulse/tradedesk/internal/session"
)

func newTestApp(test *testing.T, handler http.Handler) *App {
	test.Helper()
	server := httptest.NewServer(handler)
	test.Cleanup(server.Close)
	application, err := New(Config{APIBaseURL: server.URL}, session.NewMemoryStore(), nil, nil)
	if err != nil {
		test.Fatalf("new app: %v", err)
	}
	return application
}

func TestNavigateWithoutCredentialLandsOnLogin(test *testing.T) {
	test.Parallel()
	application := newTestApp(test, http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))

	if landed := application.Navigate(navigator.PathTrade); landed != navigator.PathLogin {
		test.Fatalf("expected redirect to login, landed on %s", landed)
	}
	if landed := application.Navigate(navigator.PathRegister); landed != navigator.PathRegister {
		test.Fatalf("register should stay reachable, landed on %s", landed)
	}
}

func TestLoginFlowNavigatesHome(test *testing.T) {
	test.Parallel()
	application := newTestApp(test, http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		_, _ = writer.Write([]byte(`{"success":true,"data":{"token":"abc123"}}`))
	}))

	if err := application.Login.Submit(context.Background(), "alice", "secret"); err != nil {
		test.Fatalf("login: %v", err)
	}
	token, present := application.Sessions.Read(context.Background())
	if !present || token != "abc123" {
		test.Fatalf("expected stored token, got %q present=%v", token, present)
	}
	if application.Nav.CurrentPath() != navigator.PathRoot {
		test.Fatalf("expected home screen, got %s", application.Nav.CurrentPath())
	}
}

func TestAuthFailureReturnsAppToLogin(test *testing.T) {
	test.Parallel()
	application := newTestApp(test, http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		writer.WriteHeader(http.StatusUnauthorized)
	}))
	if err := application.Sessions.Save(context.Background(), "expired"); err != nil {
		test.Fatalf("save: %v", err)
	}
	application.Navigate(navigator.PathTrade)

	if _, err := application.Queries.Portfolio(context.Background()); err == nil {
		test.Fatal("expected failure")
	}
	if _, present := application.Sessions.Read(context.Background()); present {
		test.Fatal("credential should be cleared after 401")
	}
	if application.Nav.CurrentPath() != navigator.PathLogin {
		test.Fatalf("expected login screen, got %s", application.Nav.CurrentPath())
	}
}

func TestLogoutReturnsToLogin(test *testing.T) {
	test.Parallel()
	application := newTestApp(test, http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		_, _ = writer.Write([]byte(`{"success":true,"data":{"token":"abc123"}}`))
	}))
	if err := application.Login.Submit(context.Background(), "alice", "secret"); err != nil {
		test.Fatalf("login: %v", err)
	}
	if err := application.Logout(context.Background()); err != nil {
		test.Fatalf("logout: %v", err)
	}
	if _, present := application.Sessions.Read(context.Background()); present {
		test.Fatal("credential should be cleared")
	}
	if application.Nav.CurrentPath() != navigator.PathLogin {
		test.Fatalf("expected login screen, got %s", application.Nav.CurrentPath())
	}
}
