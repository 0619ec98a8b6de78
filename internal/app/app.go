// Package app assembles the client: one explicit context object holds the
// session store, the HTTP binding, the server-state cache, the route
// guard, and every view. Nothing hangs off ambient package state, so each
// test constructs a fresh App.
package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/stockpulse/tradedesk/internal/navigator"
	"github.com/stockpulse/tradedesk/internal/restclient"
	"github.com/stockpulse/tradedesk/internal/session"
	"github.com/stockpulse/tradedesk/internal/views"
	"github.com/stockpulse/tradedesk/pkg/tagcache"
	"go.uber.org/zap"
)

// Config aggregates runtime settings for the client.
type Config struct {
	APIBaseURL   string
	StaleWindow  time.Duration
	RetryQueries bool
}

// Validate ensures the configuration contains sane values.
func (cfg *Config) Validate() error {
	if strings.TrimSpace(cfg.APIBaseURL) == "" {
		return fmt.Errorf("api base url is required")
	}
	if cfg.StaleWindow <= 0 {
		cfg.StaleWindow = tagcache.DefaultStaleWindow
	}
	return nil
}

// App is the per-process context object every screen works through.
type App struct {
	Sessions session.Store
	Client   *restclient.Client
	Cache    *tagcache.Cache
	Nav      navigator.Navigator
	Guard    *navigator.Guard
	Queries  *views.Queries
	Login    *views.LoginView
	Register *views.RegisterView
	Order    *views.OrderDialog
	Cancel   *views.CancelOrderDialog
	Wallet   *views.WalletDialog

	logger *zap.Logger
}

// New wires an App. The navigator starts on the login screen; the HTTP
// binding clears the credential and navigates back there on any 401.
func New(cfg Config, sessions session.Store, notifier views.Notifier, logger *zap.Logger) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if sessions == nil {
		return nil, fmt.Errorf("session store dependency is nil")
	}
	if notifier == nil {
		notifier = views.NopNotifier{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	inner := navigator.NewMemoryNavigator(navigator.PathLogin)
	guard := navigator.NewGuard(sessions)
	nav := navigator.NewGuardedNavigator(inner, guard)

	client, err := restclient.NewClient(cfg.APIBaseURL, sessions,
		restclient.WithAuthFailureHandler(func() {
			nav.Go(navigator.PathLogin)
		}),
	)
	if err != nil {
		return nil, err
	}

	cache := tagcache.NewCache(
		tagcache.WithStaleWindow(cfg.StaleWindow),
		tagcache.WithRetry(cfg.RetryQueries),
		tagcache.WithOperationLogger(cacheLogger{logger: logger}),
	)

	return &App{
		Sessions: sessions,
		Client:   client,
		Cache:    cache,
		Nav:      nav,
		Guard:    guard,
		Queries:  views.NewQueries(cache, client),
		Login:    views.NewLoginView(client, sessions, nav, notifier),
		Register: views.NewRegisterView(client, sessions, nav, notifier),
		Order:    views.NewOrderDialog(cache, client, notifier),
		Cancel:   views.NewCancelOrderDialog(cache, client, notifier),
		Wallet:   views.NewWalletDialog(cache, client, notifier),
		logger:   logger,
	}, nil
}

// Navigate runs the route guard for path and reports where the app landed.
func (application *App) Navigate(path string) string {
	application.Nav.Go(path)
	return application.Nav.CurrentPath()
}

// Logout clears the credential and returns to the login screen.
func (application *App) Logout(ctx context.Context) error {
	return views.Logout(ctx, application.Sessions, application.Nav)
}

// cacheLogger forwards cache operations to zap.
type cacheLogger struct {
	logger *zap.Logger
}

func (adapter cacheLogger) LogOperation(ctx context.Context, entry tagcache.OperationLog) {
	fields := []zap.Field{
		zap.String("operation", entry.Operation),
		zap.String("status", entry.Status),
	}
	if entry.Tag != "" {
		fields = append(fields, zap.String("tag", entry.Tag.String()))
	}
	if len(entry.Tags) > 0 {
		tags := make([]string, 0, len(entry.Tags))
		for _, tag := range entry.Tags {
			tags = append(tags, tag.String())
		}
		fields = append(fields, zap.Strings("tags", tags))
	}
	if entry.Error != nil {
		adapter.logger.Warn("cache operation failed", append(fields, zap.Error(entry.Error))...)
		return
	}
	adapter.logger.Debug("cache operation", fields...)
}
