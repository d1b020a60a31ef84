// walletcli drives the wallet core from the command line: one sqlite-backed
// state directory per user, every subcommand a single wallet operation.
package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/distordia/walletcore/internal/store/keystore"
	"github.com/distordia/walletcore/internal/store/kvstore"
	"github.com/distordia/walletcore/pkg/nexus"
	"github.com/distordia/walletcore/pkg/wallet"
)

const (
	flagDataDir    = "data-dir"
	flagPassphrase = "passphrase"
	flagVerbose    = "verbose"
	envPrefix      = "WALLET"

	databaseFileName      = "wallet.db"
	credentialsDirName    = "credentials"
	defaultDataDirSegment = ".walletcore"
)

func main() {
	rootCmd := newRootCommand()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "walletcli: %v\n", err)
		os.Exit(1)
	}
}

type runtime struct {
	manager *wallet.Manager
	store   *kvstore.Store
	logger  *zap.Logger
}

func (runtime *runtime) close() {
	if runtime.store != nil {
		_ = runtime.store.Close()
	}
	if runtime.logger != nil {
		_ = runtime.logger.Sync()
	}
}

func newRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "walletcli",
		Short:         "Command-line wallet against a Nexus-style node",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().String(flagDataDir, "", "state directory (default ~/"+defaultDataDirSegment+")")
	cmd.PersistentFlags().String(flagPassphrase, "", "passphrase protecting remembered credentials")
	cmd.PersistentFlags().Bool(flagVerbose, false, "log every wallet operation")

	cmd.AddCommand(
		newStatusCommand(),
		newRegisterCommand(),
		newLoginCommand(),
		newUnlockCommand(),
		newLockCommand(),
		newLogoutCommand(),
		newBalanceCommand(),
		newAccountsCommand(),
		newNewAccountCommand(),
		newAddressCommand(),
		newSendCommand(),
		newTransactionsCommand(),
		newEndpointCommand(),
		newForgetCommand(),
	)
	return cmd
}

// openRuntime wires the stores and the manager, and loads persisted state.
// Callers must close the returned runtime.
func openRuntime(cmd *cobra.Command) (*runtime, error) {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	for _, flagName := range []string{flagDataDir, flagPassphrase, flagVerbose} {
		if err := v.BindPFlag(flagName, cmd.Flags().Lookup(flagName)); err != nil {
			return nil, err
		}
	}

	dataDir := strings.TrimSpace(v.GetString(flagDataDir))
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("resolve home directory: %w", err)
		}
		dataDir = filepath.Join(home, defaultDataDirSegment)
	}
	if err := os.MkdirAll(dataDir, 0o700); err != nil {
		return nil, fmt.Errorf("create data directory: %w", err)
	}

	passphrase := v.GetString(flagPassphrase)
	if passphrase == "" {
		passphrase = "walletcli-default"
	}

	store, err := kvstore.Open(filepath.Join(dataDir, databaseFileName))
	if err != nil {
		return nil, err
	}
	secrets, err := keystore.New(filepath.Join(dataDir, credentialsDirName), []byte(passphrase))
	if err != nil {
		_ = store.Close()
		return nil, err
	}

	logger := zap.NewNop()
	if v.GetBool(flagVerbose) {
		logger, err = zap.NewProduction()
		if err != nil {
			_ = store.Close()
			return nil, fmt.Errorf("logger init: %w", err)
		}
	}

	manager, err := wallet.NewManager(store, secrets, dialNode,
		wallet.WithOperationLogger(&zapOperationLogger{logger: logger}))
	if err != nil {
		_ = store.Close()
		return nil, err
	}
	if _, err := manager.Initialize(cmd.Context()); err != nil {
		_ = store.Close()
		return nil, err
	}
	return &runtime{manager: manager, store: store, logger: logger}, nil
}

func dialNode(endpoint string) (wallet.NodeClient, error) {
	return nexus.NewClient(endpoint)
}

// zapOperationLogger forwards wallet operation callbacks to zap.
type zapOperationLogger struct {
	logger *zap.Logger
}

func (operationLogger *zapOperationLogger) LogOperation(_ context.Context, entry wallet.OperationLog) {
	fields := []zap.Field{
		zap.String("operation", entry.Operation),
		zap.String("status", entry.Status),
	}
	if entry.Username != "" {
		fields = append(fields, zap.String("username", entry.Username))
	}
	if entry.Account != "" {
		fields = append(fields, zap.String("account", entry.Account))
	}
	if !entry.Amount.IsZero() {
		fields = append(fields, zap.String("amount", entry.Amount.String()))
	}
	if entry.TxID != "" {
		fields = append(fields, zap.String("txid", entry.TxID))
	}
	if entry.Warning != nil {
		fields = append(fields, zap.NamedError("warning", entry.Warning))
	}
	if entry.Error != nil {
		fields = append(fields, zap.Error(entry.Error))
		operationLogger.logger.Warn("wallet operation failed", fields...)
		return
	}
	operationLogger.logger.Info("wallet operation", fields...)
}
