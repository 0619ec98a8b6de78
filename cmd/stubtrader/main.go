package main

import (
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/stockpulse/tradedesk/internal/stubapi"
)

const (
	flagListenAddr     = "listen-addr"
	flagDatabaseURL    = "database-url"
	flagJWTSigningKey  = "jwt-signing-key"
	flagJWTIssuer      = "jwt-issuer"
	flagTokenTTL       = "token-ttl"
	flagAllowedOrigins = "allowed-origins"
	envPrefix          = "STUBTRADER"
)

func main() {
	rootCmd := newRootCommand()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "stubtrader: %v\n", err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	cfg := stubapi.Config{}
	cmd := &cobra.Command{
		Use:           "stubtrader",
		Short:         "Development trading backend for the tradedesk client",
		SilenceUsage:  true,
		SilenceErrors: true,
		PreRunE: func(cmd *cobra.Command, args []string) error {
			return loadConfig(cmd, &cfg)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return stubapi.Run(ctx, cfg)
		},
	}

	cmd.Flags().String(flagListenAddr, "", "HTTP listen address")
	cmd.Flags().String(flagDatabaseURL, "", "database DSN (sqlite://path or postgres://...)")
	cmd.Flags().String(flagJWTSigningKey, "", "JWT signing key (required)")
	cmd.Flags().String(flagJWTIssuer, "", "JWT issuer")
	cmd.Flags().Duration(flagTokenTTL, 0, "bearer token lifetime (e.g. 24h)")
	cmd.Flags().String(flagAllowedOrigins, "", "comma-separated list of allowed CORS origins")

	return cmd
}

func loadConfig(cmd *cobra.Command, cfg *stubapi.Config) error {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	for _, flagName := range []string{flagListenAddr, flagDatabaseURL, flagJWTSigningKey, flagJWTIssuer, flagTokenTTL, flagAllowedOrigins} {
		if err := v.BindPFlag(flagName, cmd.Flags().Lookup(flagName)); err != nil {
			return err
		}
	}

	if !v.IsSet(flagJWTSigningKey) || strings.TrimSpace(v.GetString(flagJWTSigningKey)) == "" {
		return fmt.Errorf("%s is required", flagJWTSigningKey)
	}

	cfg.ListenAddr = strings.TrimSpace(v.GetString(flagListenAddr))
	cfg.DatabaseURL = strings.TrimSpace(v.GetString(flagDatabaseURL))
	cfg.SigningKey = v.GetString(flagJWTSigningKey)
	cfg.TokenIssuer = strings.TrimSpace(v.GetString(flagJWTIssuer))
	cfg.TokenTTL = v.GetDuration(flagTokenTTL)
	cfg.AllowedOrigins = stubapi.ParseAllowedOrigins(v.GetString(flagAllowedOrigins))

	return cfg.Validate()
}
