package main

import (
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/distordia/walletcore/internal/stubnode"
)

const (
	flagListenAddr     = "listen-addr"
	flagSigningKey     = "signing-key"
	flagSessionTTL     = "session-ttl"
	flagAllowedOrigins = "allowed-origins"
	flagInitialBalance = "initial-balance"
	envPrefix          = "STUBNODE"
)

func main() {
	rootCmd := newRootCommand()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "stubnode: %v\n", err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	cfg := stubnode.Config{}
	cmd := &cobra.Command{
		Use:           "stubnode",
		Short:         "In-memory stand-in for a Nexus-style node API",
		SilenceUsage:  true,
		SilenceErrors: true,
		PreRunE: func(cmd *cobra.Command, args []string) error {
			return loadConfig(cmd, &cfg)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return stubnode.Run(ctx, cfg)
		},
	}

	cmd.Flags().String(flagListenAddr, "", "HTTP listen address (default :8336)")
	cmd.Flags().String(flagSigningKey, "", "session token signing key (required)")
	cmd.Flags().Duration(flagSessionTTL, 0, "session token lifetime (default 12h)")
	cmd.Flags().String(flagAllowedOrigins, "", "comma-separated list of allowed CORS origins")
	cmd.Flags().String(flagInitialBalance, "", "starting balance for new profiles (default 1000)")

	return cmd
}

func loadConfig(cmd *cobra.Command, cfg *stubnode.Config) error {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	for _, flagName := range []string{flagListenAddr, flagSigningKey, flagSessionTTL, flagAllowedOrigins, flagInitialBalance} {
		if err := v.BindPFlag(flagName, cmd.Flags().Lookup(flagName)); err != nil {
			return err
		}
	}

	if !v.IsSet(flagSigningKey) {
		return fmt.Errorf("%s is required", flagSigningKey)
	}

	cfg.ListenAddr = strings.TrimSpace(v.GetString(flagListenAddr))
	cfg.SigningKey = v.GetString(flagSigningKey)
	cfg.SessionTTL = v.GetDuration(flagSessionTTL)
	cfg.AllowedOrigins = stubnode.ParseAllowedOrigins(v.GetString(flagAllowedOrigins))
	if raw := strings.TrimSpace(v.GetString(flagInitialBalance)); raw != "" {
		balance, err := parseBalance(raw)
		if err != nil {
			return err
		}
		cfg.InitialBalance = balance
	}

	return cfg.Validate()
}

func parseBalance(raw string) (decimal.Decimal, error) {
	balance, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("%s: %w", flagInitialBalance, err)
	}
	if balance.Sign() < 0 {
		return decimal.Decimal{}, fmt.Errorf("%s must not be negative", flagInitialBalance)
	}
	return balance, nil
}
