// Package navigator models screen navigation and the auth gate that runs
// on every navigation event.
package navigator

import (
	"context"
	"sync"

	"github.com/stockpulse/tradedesk/internal/session"
)

// Screen paths.
const (
	PathRoot     = "/"
	PathLogin    = "/login"
	PathRegister = "/register"
	PathStocks   = "/stocks"
	PathTrade    = "/trade"
	PathAccount  = "/account"
	PathHistory  = "/history"
)

// Navigator tracks the current screen and performs redirects.
type Navigator interface {
	CurrentPath() string
	Go(path string)
}

// MemoryNavigator is the process-local Navigator used by the terminal app.
type MemoryNavigator struct {
	mu      sync.Mutex
	current string
	history []string
}

// NewMemoryNavigator starts at the given path.
func NewMemoryNavigator(startPath string) *MemoryNavigator {
	return &MemoryNavigator{current: startPath, history: []string{startPath}}
}

// CurrentPath returns the screen currently shown.
func (nav *MemoryNavigator) CurrentPath() string {
	nav.mu.Lock()
	defer nav.mu.Unlock()
	return nav.current
}

// Go moves to path and records it in the history.
func (nav *MemoryNavigator) Go(path string) {
	nav.mu.Lock()
	defer nav.mu.Unlock()
	nav.current = path
	nav.history = append(nav.history, path)
}

// History returns every path visited, oldest first.
func (nav *MemoryNavigator) History() []string {
	nav.mu.Lock()
	defer nav.mu.Unlock()
	visited := make([]string, len(nav.history))
	copy(visited, nav.history)
	return visited
}

// Guard decides, once per navigation, whether an unauthenticated user must
// be redirected to the login screen. It is not a substitute for
// server-side authorization.
type Guard struct {
	sessions session.Store
}

// NewGuard wires a Guard over the session store.
func NewGuard(sessions session.Store) *Guard {
	return &Guard{sessions: sessions}
}

// Evaluate returns the path the navigation should land on. The login and
// register screens are always reachable; everywhere else requires a
// stored credential.
func (guard *Guard) Evaluate(ctx context.Context, path string) (string, bool) {
	if path == PathLogin || path == PathRegister {
		return path, false
	}
	if _, present := guard.sessions.Read(ctx); present {
		return path, false
	}
	return PathLogin, true
}

// GuardedNavigator runs the Guard on every Go call before delegating.
type GuardedNavigator struct {
	inner Navigator
	guard *Guard
}

// NewGuardedNavigator wraps a Navigator with the auth gate.
func NewGuardedNavigator(inner Navigator, guard *Guard) *GuardedNavigator {
	return &GuardedNavigator{inner: inner, guard: guard}
}

// CurrentPath returns the wrapped navigator's current screen.
func (nav *GuardedNavigator) CurrentPath() string {
	return nav.inner.CurrentPath()
}

// Go evaluates the guard for the requested path and navigates to the
// resulting one.
func (nav *GuardedNavigator) Go(path string) {
	target, _ := nav.guard.Evaluate(context.Background(), path)
	nav.inner.Go(target)
}
