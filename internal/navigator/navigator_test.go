package navigator

import (
	"context"
	"testing"

	"github.com/stockpulse/tradedesk/internal/session"
)

func TestGuardRedirectsUnauthenticatedToLogin(test *testing.T) {
	test.Parallel()
	guard := NewGuard(session.NewMemoryStore())

	target, redirected := guard.Evaluate(context.Background(), PathTrade)
	if !redirected || target != PathLogin {
		test.Fatalf("expected redirect to %s, got %s redirected=%v", PathLogin, target, redirected)
	}
}

func TestGuardAllowsLoginAndRegisterWithoutCredential(test *testing.T) {
	test.Parallel()
	guard := NewGuard(session.NewMemoryStore())

	for _, path := range []string{PathLogin, PathRegister} {
		target, redirected := guard.Evaluate(context.Background(), path)
		if redirected || target != path {
			test.Fatalf("path %s should not redirect, got %s redirected=%v", path, target, redirected)
		}
	}
}

func TestGuardPassesAuthenticatedNavigation(test *testing.T) {
	test.Parallel()
	sessions := session.NewMemoryStore()
	if err := sessions.Save(context.Background(), "abc123"); err != nil {
		test.Fatalf("save: %v", err)
	}
	guard := NewGuard(sessions)

	for _, path := range []string{PathRoot, PathStocks, PathTrade, PathHistory, PathAccount} {
		target, redirected := guard.Evaluate(context.Background(), path)
		if redirected || target != path {
			test.Fatalf("path %s should pass, got %s redirected=%v", path, target, redirected)
		}
	}
}

func TestGuardReEvaluatesAfterCredentialCleared(test *testing.T) {
	test.Parallel()
	sessions := session.NewMemoryStore()
	if err := sessions.Save(context.Background(), "abc123"); err != nil {
		test.Fatalf("save: %v", err)
	}
	guard := NewGuard(sessions)

	if _, redirected := guard.Evaluate(context.Background(), PathTrade); redirected {
		test.Fatal("authenticated navigation should pass")
	}
	if err := sessions.Clear(context.Background()); err != nil {
		test.Fatalf("clear: %v", err)
	}
	if target, redirected := guard.Evaluate(context.Background(), PathTrade); !redirected || target != PathLogin {
		test.Fatal("cleared credential should redirect on the next navigation")
	}
}

func TestGuardedNavigatorRecordsRedirect(test *testing.T) {
	test.Parallel()
	inner := NewMemoryNavigator(PathRoot)
	guarded := NewGuardedNavigator(inner, NewGuard(session.NewMemoryStore()))

	guarded.Go(PathTrade)
	if guarded.CurrentPath() != PathLogin {
		test.Fatalf("expected to land on %s, got %s", PathLogin, guarded.CurrentPath())
	}

	guarded.Go(PathRegister)
	if guarded.CurrentPath() != PathRegister {
		test.Fatalf("register must stay reachable, got %s", guarded.CurrentPath())
	}
}
