package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/glebarez/sqlite"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/stockpulse/tradedesk/internal/app"
	"github.com/stockpulse/tradedesk/internal/navigator"
	"github.com/stockpulse/tradedesk/internal/restclient"
	"github.com/stockpulse/tradedesk/internal/session"
	"github.com/stockpulse/tradedesk/internal/views"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	flagAPIURL      = "api-url"
	flagStateDB     = "state-db"
	flagStaleWindow = "stale-window"
	flagRetry       = "retry"
	flagVerbose     = "verbose"
	envPrefix       = "TRADEDESK"

	defaultAPIURL = "http://localhost:3001"
)

func main() {
	rootCmd := newRootCommand()
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "tradedesk: %v\n", err)
		os.Exit(1)
	}
}

// runtime is the per-invocation wiring shared by every subcommand.
type runtime struct {
	application *app.App
	cleanup     func() error
}

func newRootCommand() *cobra.Command {
	var rt *runtime
	cmd := &cobra.Command{
		Use:           "tradedesk",
		Short:         "Terminal client for the trading platform",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			built, err := buildRuntime(cmd)
			if err != nil {
				return err
			}
			rt = built
			return nil
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if rt != nil && rt.cleanup != nil {
				return rt.cleanup()
			}
			return nil
		},
	}

	cmd.PersistentFlags().String(flagAPIURL, "", "trading API base URL")
	cmd.PersistentFlags().String(flagStateDB, "", "path of the local state database")
	cmd.PersistentFlags().Duration(flagStaleWindow, 0, "how long cached server state stays fresh")
	cmd.PersistentFlags().Bool(flagRetry, false, "retry failed queries once")
	cmd.PersistentFlags().Bool(flagVerbose, false, "emit structured logs")

	access := func() *app.App { return rt.application }
	cmd.AddCommand(
		newLoginCommand(access),
		newRegisterCommand(access),
		newLogoutCommand(access),
		newStocksCommand(access),
		newPortfolioCommand(access),
		newWalletCommand(access),
		newOrderCommand(access),
		newCancelCommand(access),
		newHistoryCommand(access),
	)
	return cmd
}

func buildRuntime(cmd *cobra.Command) (*runtime, error) {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	for _, flagName := range []string{flagAPIURL, flagStateDB, flagStaleWindow, flagRetry, flagVerbose} {
		if err := v.BindPFlag(flagName, cmd.Flags().Lookup(flagName)); err != nil {
			return nil, err
		}
	}

	apiURL := strings.TrimSpace(v.GetString(flagAPIURL))
	if apiURL == "" {
		apiURL = defaultAPIURL
	}
	statePath := strings.TrimSpace(v.GetString(flagStateDB))
	if statePath == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("resolve home directory: %w", err)
		}
		statePath = filepath.Join(home, ".tradedesk", "state.db")
	}
	if err := os.MkdirAll(filepath.Dir(statePath), 0o700); err != nil {
		return nil, fmt.Errorf("prepare state directory: %w", err)
	}

	db, err := gorm.Open(sqlite.Open(statePath), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("open state database: %w", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sessions := session.NewGormStore(db)
	if err := sessions.Migrate(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("migrate state database: %w", err)
	}

	logger := zap.NewNop()
	if v.GetBool(flagVerbose) {
		logger, err = zap.NewProduction()
		if err != nil {
			_ = sqlDB.Close()
			return nil, fmt.Errorf("zap init: %w", err)
		}
	}

	application, err := app.New(app.Config{
		APIBaseURL:   apiURL,
		StaleWindow:  v.GetDuration(flagStaleWindow),
		RetryQueries: v.GetBool(flagRetry),
	}, sessions, stderrNotifier{}, logger)
	if err != nil {
		_ = sqlDB.Close()
		return nil, err
	}

	cleanup := func() error {
		_ = logger.Sync()
		return sqlDB.Close()
	}
	return &runtime{application: application, cleanup: cleanup}, nil
}

// stderrNotifier surfaces view notifications the way a toast would.
type stderrNotifier struct{}

func (stderrNotifier) Notify(message string) {
	fmt.Fprintln(os.Stderr, message)
}

// requireScreen routes through the guard and refuses to run the command
// when the guard bounced the navigation back to the login screen.
func requireScreen(application *app.App, path string) error {
	if landed := application.Navigate(path); landed != path {
		return fmt.Errorf("not logged in: run \"tradedesk login\" first")
	}
	return nil
}

func newLoginCommand(access func() *app.App) *cobra.Command {
	return &cobra.Command{
		Use:   "login <username> <password>",
		Short: "Authenticate and persist the session",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			application := access()
			if err := application.Login.Submit(cmd.Context(), args[0], args[1]); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Logged in.")
			return nil
		},
	}
}

func newRegisterCommand(access func() *app.App) *cobra.Command {
	var form views.RegisterForm
	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account and log in",
		RunE: func(cmd *cobra.Command, args []string) error {
			application := access()
			if err := application.Register.Submit(cmd.Context(), form); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Account created.")
			return nil
		},
	}
	cmd.Flags().StringVar(&form.Username, "username", "", "account username (letters and digits)")
	cmd.Flags().StringVar(&form.Name, "name", "", "display name")
	cmd.Flags().StringVar(&form.Password, "password", "", "password")
	cmd.Flags().StringVar(&form.ConfirmPassword, "confirm-password", "", "password again")
	return cmd
}

func newLogoutCommand(access func() *app.App) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := access().Logout(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Logged out.")
			return nil
		},
	}
}

func newStocksCommand(access func() *app.App) *cobra.Command {
	return &cobra.Command{
		Use:   "stocks",
		Short: "List stocks and current prices",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			application := access()
			if err := requireScreen(application, navigator.PathStocks); err != nil {
				return err
			}
			stocks, err := application.Queries.Stocks(cmd.Context())
			if err != nil {
				return err
			}
			return views.RenderStocks(cmd.OutOrStdout(), stocks)
		},
	}
}

func newPortfolioCommand(access func() *app.App) *cobra.Command {
	return &cobra.Command{
		Use:   "portfolio",
		Short: "Show owned stocks",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			application := access()
			if err := requireScreen(application, navigator.PathRoot); err != nil {
				return err
			}
			holdings, err := application.Queries.Portfolio(cmd.Context())
			if err != nil {
				return err
			}
			return views.RenderPortfolio(cmd.OutOrStdout(), holdings)
		},
	}
}

func newWalletCommand(access func() *app.App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "wallet",
		Short: "Show the wallet balance",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			application := access()
			if err := requireScreen(application, navigator.PathAccount); err != nil {
				return err
			}
			balance, err := application.Queries.WalletBalance(cmd.Context())
			if err != nil {
				return err
			}
			return views.RenderWalletBalance(cmd.OutOrStdout(), balance)
		},
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "add <amount>",
		Short: "Add funds to the wallet",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			application := access()
			if err := requireScreen(application, navigator.PathAccount); err != nil {
				return err
			}
			if err := application.Wallet.Submit(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Funds added.")
			return nil
		},
	})
	return cmd
}

func newOrderCommand(access func() *app.App) *cobra.Command {
	var (
		stockID    int64
		sell       bool
		kind       string
		quantity   string
		limitPrice string
	)
	cmd := &cobra.Command{
		Use:   "order",
		Short: "Place a buy or sell order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			application := access()
			if err := requireScreen(application, navigator.PathTrade); err != nil {
				return err
			}
			orderKind := restclient.OrderTypeMarket
			switch strings.ToLower(kind) {
			case "market":
			case "limit":
				orderKind = restclient.OrderTypeLimit
			default:
				return fmt.Errorf("unknown order type %q: use market or limit", kind)
			}
			form := views.OrderForm{
				StockID:    stockID,
				IsBuy:      !sell,
				Kind:       orderKind,
				Quantity:   quantity,
				LimitPrice: limitPrice,
			}
			if orderKind == restclient.OrderTypeMarket {
				bestPrice, known, err := application.Queries.BestPriceFor(cmd.Context(), stockID)
				if err != nil {
					return err
				}
				if !known {
					return fmt.Errorf("unknown stock id %d", stockID)
				}
				form.BestPrice = bestPrice
			}
			if err := application.Order.Submit(cmd.Context(), form); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Order placed.")
			return nil
		},
	}
	cmd.Flags().Int64Var(&stockID, "stock-id", 0, "stock to trade")
	cmd.Flags().BoolVar(&sell, "sell", false, "sell instead of buy")
	cmd.Flags().StringVar(&kind, "type", "market", "order type: market or limit")
	cmd.Flags().StringVar(&quantity, "quantity", "", "number of shares")
	cmd.Flags().StringVar(&limitPrice, "price", "", "limit price (limit orders only)")
	return cmd
}

func newCancelCommand(access func() *app.App) *cobra.Command {
	var stockTxID int64
	cmd := &cobra.Command{
		Use:   "cancel",
		Short: "Cancel an in-progress order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			application := access()
			if err := requireScreen(application, navigator.PathHistory); err != nil {
				return err
			}
			if err := application.Cancel.Submit(cmd.Context(), stockTxID); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Order cancelled.")
			return nil
		},
	}
	cmd.Flags().Int64Var(&stockTxID, "stock-tx-id", 0, "order to cancel")
	return cmd
}

func newHistoryCommand(access func() *app.App) *cobra.Command {
	return &cobra.Command{
		Use:   "history",
		Short: "Show stock and wallet transactions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			application := access()
			if err := requireScreen(application, navigator.PathHistory); err != nil {
				return err
			}
			stockTransactions, err := application.Queries.StockTransactions(cmd.Context())
			if err != nil {
				return err
			}
			if err := views.RenderStockTransactions(cmd.OutOrStdout(), stockTransactions); err != nil {
				return err
			}
			walletTransactions, err := application.Queries.WalletTransactions(cmd.Context())
			if err != nil {
				return err
			}
			return views.RenderWalletTransactions(cmd.OutOrStdout(), walletTransactions)
		},
	}
}
