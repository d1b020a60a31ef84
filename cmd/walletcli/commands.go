package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/distordia/walletcore/pkg/wallet"
)

const (
	flagUsername  = "username"
	flagPassword  = "password"
	flagPIN       = "pin"
	flagRemember  = "remember"
	flagName      = "name"
	flagToken     = "token"
	flagFrom      = "from"
	flagTo        = "to"
	flagAmount    = "amount"
	flagReference = "reference"
	flagLimit     = "limit"
)

func newStatusCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show wallet and session state",
		RunE: func(cmd *cobra.Command, args []string) error {
			runtime, err := openRuntime(cmd)
			if err != nil {
				return err
			}
			defer runtime.close()

			initialized, err := runtime.manager.IsWalletInitialized(cmd.Context())
			if err != nil {
				return err
			}
			endpoint, err := runtime.manager.Endpoint(cmd.Context())
			if err != nil {
				return err
			}
			info := runtime.manager.Info()
			fmt.Printf("endpoint:    %s\n", endpoint)
			fmt.Printf("initialized: %t\n", initialized)
			fmt.Printf("logged in:   %t\n", info.LoggedIn)
			if info.LoggedIn {
				fmt.Printf("username:    %s\n", info.Username)
				fmt.Printf("genesis:     %s\n", info.Genesis)
				fmt.Printf("locked:      %t\n", info.Locked)
			}
			return nil
		},
	}
}

func credentialFlags(cmd *cobra.Command) {
	cmd.Flags().StringP(flagUsername, "u", "", "profile username")
	cmd.Flags().StringP(flagPassword, "p", "", "profile password")
	cmd.Flags().String(flagPIN, "", "profile PIN (4-8 digits)")
	cmd.Flags().Bool(flagRemember, false, "remember username and password in the encrypted keystore")
}

func readCredentials(cmd *cobra.Command, runtime *runtime, allowRecall bool) (wallet.Username, string, wallet.PIN, error) {
	rawUsername, _ := cmd.Flags().GetString(flagUsername)
	password, _ := cmd.Flags().GetString(flagPassword)
	rawPIN, _ := cmd.Flags().GetString(flagPIN)

	if allowRecall && (rawUsername == "" || password == "") {
		if recalled, present := runtime.manager.RecalledCredentials(cmd.Context()); present {
			if rawUsername == "" {
				rawUsername = recalled.Username
			}
			if password == "" {
				password = recalled.Secret
			}
		}
	}

	username, err := wallet.NewUsername(rawUsername)
	if err != nil {
		return wallet.Username{}, "", wallet.PIN{}, err
	}
	if password == "" {
		return wallet.Username{}, "", wallet.PIN{}, fmt.Errorf("--%s is required", flagPassword)
	}
	pin, err := wallet.NewPIN(rawPIN)
	if err != nil {
		return wallet.Username{}, "", wallet.PIN{}, err
	}
	return username, password, pin, nil
}

func rememberIfRequested(cmd *cobra.Command, runtime *runtime, username wallet.Username, password string) error {
	remember, _ := cmd.Flags().GetBool(flagRemember)
	if !remember {
		return nil
	}
	return runtime.manager.RememberCredentials(cmd.Context(), wallet.Credentials{
		Username: username.String(),
		Secret:   password,
	})
}

func newRegisterCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create a profile on the node and a local session",
		RunE: func(cmd *cobra.Command, args []string) error {
			runtime, err := openRuntime(cmd)
			if err != nil {
				return err
			}
			defer runtime.close()

			username, password, pin, err := readCredentials(cmd, runtime, false)
			if err != nil {
				return err
			}
			info, err := runtime.manager.Register(cmd.Context(), username, password, pin)
			if err != nil {
				return err
			}
			if err := rememberIfRequested(cmd, runtime, username, password); err != nil {
				return err
			}
			fmt.Printf("registered %s (genesis %s)\n", info.Username, info.Genesis)
			return nil
		},
	}
	credentialFlags(cmd)
	return cmd
}

func newLoginCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Create a session for an existing profile",
		Long:  "Create a session for an existing profile. Username and password fall back to remembered credentials when omitted.",
		RunE: func(cmd *cobra.Command, args []string) error {
			runtime, err := openRuntime(cmd)
			if err != nil {
				return err
			}
			defer runtime.close()

			username, password, pin, err := readCredentials(cmd, runtime, true)
			if err != nil {
				return err
			}
			info, err := runtime.manager.Login(cmd.Context(), username, password, pin)
			if err != nil {
				return err
			}
			if err := rememberIfRequested(cmd, runtime, username, password); err != nil {
				return err
			}
			fmt.Printf("logged in as %s (genesis %s)\n", info.Username, info.Genesis)
			return nil
		},
	}
	credentialFlags(cmd)
	return cmd
}

func pinCommand(use string, short string, run func(cmd *cobra.Command, runtime *runtime, pin wallet.PIN) error) *cobra.Command {
	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		RunE: func(cmd *cobra.Command, args []string) error {
			runtime, err := openRuntime(cmd)
			if err != nil {
				return err
			}
			defer runtime.close()

			rawPIN, _ := cmd.Flags().GetString(flagPIN)
			pin, err := wallet.NewPIN(rawPIN)
			if err != nil {
				return err
			}
			return run(cmd, runtime, pin)
		},
	}
	cmd.Flags().String(flagPIN, "", "profile PIN (4-8 digits)")
	return cmd
}

func newUnlockCommand() *cobra.Command {
	return pinCommand("unlock", "Unlock the session for transactions", func(cmd *cobra.Command, runtime *runtime, pin wallet.PIN) error {
		if err := runtime.manager.Unlock(cmd.Context(), pin); err != nil {
			return err
		}
		fmt.Println("session unlocked")
		return nil
	})
}

func newLockCommand() *cobra.Command {
	return pinCommand("lock", "Lock the session against transactions", func(cmd *cobra.Command, runtime *runtime, pin wallet.PIN) error {
		if err := runtime.manager.Lock(cmd.Context(), pin); err != nil {
			return err
		}
		fmt.Println("session locked")
		return nil
	})
}

func newLogoutCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Terminate the session and clear local state",
		RunE: func(cmd *cobra.Command, args []string) error {
			runtime, err := openRuntime(cmd)
			if err != nil {
				return err
			}
			defer runtime.close()

			report := runtime.manager.Logout(cmd.Context())
			if report.TerminateWarning != nil {
				fmt.Printf("warning: node terminate failed: %v\n", report.TerminateWarning)
			}
			if report.StorageWarning != nil {
				fmt.Printf("warning: local cleanup failed: %v\n", report.StorageWarning)
			}
			fmt.Println("logged out")
			return nil
		},
	}
}

func accountArgument(args []string) (wallet.AccountName, error) {
	if len(args) == 0 {
		return wallet.DefaultAccount(), nil
	}
	return wallet.NewAccountName(args[0])
}

func newBalanceCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "balance [account]",
		Short: "Show the live balance of an account",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			runtime, err := openRuntime(cmd)
			if err != nil {
				return err
			}
			defer runtime.close()

			account, err := accountArgument(args)
			if err != nil {
				return err
			}
			balance, err := runtime.manager.Balance(cmd.Context(), account)
			if err != nil {
				return err
			}
			fmt.Printf("%s %s (%s)\n", balance.Balance, balance.Token, balance.Name)
			return nil
		},
	}
}

func newAccountsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "accounts",
		Short: "List the profile's accounts",
		RunE: func(cmd *cobra.Command, args []string) error {
			runtime, err := openRuntime(cmd)
			if err != nil {
				return err
			}
			defer runtime.close()

			accounts, err := runtime.manager.Accounts(cmd.Context())
			if err != nil {
				return err
			}
			for _, account := range accounts {
				fmt.Printf("%-16s %12s %-6s %s\n", account.Name, account.Balance, account.Token, account.Address)
			}
			return nil
		},
	}
}

func newNewAccountCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "new-account",
		Short: "Create a token account (charges the flat service fee)",
		RunE: func(cmd *cobra.Command, args []string) error {
			runtime, err := openRuntime(cmd)
			if err != nil {
				return err
			}
			defer runtime.close()

			name, _ := cmd.Flags().GetString(flagName)
			token, _ := cmd.Flags().GetString(flagToken)
			rawPIN, _ := cmd.Flags().GetString(flagPIN)
			pin, err := wallet.NewPIN(rawPIN)
			if err != nil {
				return err
			}
			receipt, err := runtime.manager.CreateAccount(cmd.Context(), name, token, pin)
			if err != nil {
				return err
			}
			fmt.Printf("created account at %s (txid %s)\n", receipt.Address, receipt.TxID)
			if receipt.FeeWarning != nil {
				fmt.Printf("warning: fee collection failed: %v\n", receipt.FeeWarning)
			}
			return nil
		},
	}
	cmd.Flags().String(flagName, "", "local account name (node assigns one when empty)")
	cmd.Flags().String(flagToken, "", "token address, empty for the native token")
	cmd.Flags().String(flagPIN, "", "profile PIN (4-8 digits)")
	return cmd
}

func newAddressCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "address [account]",
		Short: "Show the receiving address of an account",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			runtime, err := openRuntime(cmd)
			if err != nil {
				return err
			}
			defer runtime.close()

			account, err := accountArgument(args)
			if err != nil {
				return err
			}
			address, err := runtime.manager.AccountAddress(cmd.Context(), account)
			if err != nil {
				return err
			}
			fmt.Println(address)
			return nil
		},
	}
}

func newSendCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "send",
		Short: "Send funds to an address (charges the service fee)",
		RunE: func(cmd *cobra.Command, args []string) error {
			runtime, err := openRuntime(cmd)
			if err != nil {
				return err
			}
			defer runtime.close()

			fromRaw, _ := cmd.Flags().GetString(flagFrom)
			from := wallet.DefaultAccount()
			if fromRaw != "" {
				from, err = wallet.NewAccountName(fromRaw)
				if err != nil {
					return err
				}
			}
			rawTo, _ := cmd.Flags().GetString(flagTo)
			to, err := wallet.NewAddress(rawTo)
			if err != nil {
				return err
			}
			rawAmount, _ := cmd.Flags().GetString(flagAmount)
			amount, err := wallet.NewAmountFromString(rawAmount)
			if err != nil {
				return err
			}
			rawPIN, _ := cmd.Flags().GetString(flagPIN)
			pin, err := wallet.NewPIN(rawPIN)
			if err != nil {
				return err
			}
			reference, _ := cmd.Flags().GetString(flagReference)

			receipt, err := runtime.manager.Send(cmd.Context(), from, amount, to, pin, reference)
			if err != nil {
				return err
			}
			fmt.Printf("sent %s (txid %s)\n", amount.Decimal(), receipt.TxID)
			if receipt.FeeWarning != nil {
				fmt.Printf("warning: fee collection failed: %v\n", receipt.FeeWarning)
			} else if receipt.FeeTxID != "" {
				fmt.Printf("service fee collected (txid %s)\n", receipt.FeeTxID)
			}
			return nil
		},
	}
	cmd.Flags().String(flagFrom, "", "source account name (default account when empty)")
	cmd.Flags().String(flagTo, "", "recipient address")
	cmd.Flags().String(flagAmount, "", "amount to send")
	cmd.Flags().String(flagPIN, "", "profile PIN (4-8 digits)")
	cmd.Flags().String(flagReference, "", "optional payment reference")
	return cmd
}

func newTransactionsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "transactions [account]",
		Short: "List recent transactions, newest first",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			runtime, err := openRuntime(cmd)
			if err != nil {
				return err
			}
			defer runtime.close()

			account, err := accountArgument(args)
			if err != nil {
				return err
			}
			limit, _ := cmd.Flags().GetInt(flagLimit)
			transactions, err := runtime.manager.Transactions(cmd.Context(), account, limit)
			if err != nil {
				return err
			}
			for _, transaction := range transactions {
				line := fmt.Sprintf("%s %-7s %12s", transaction.TxID, transaction.Type, transaction.Amount)
				if transaction.Reference != "" {
					line += "  " + transaction.Reference
				}
				fmt.Println(line)
			}
			return nil
		},
	}
	cmd.Flags().Int(flagLimit, 20, "maximum number of transactions")
	return cmd
}

func newEndpointCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "endpoint [url]",
		Short: "Show or change the node endpoint",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			runtime, err := openRuntime(cmd)
			if err != nil {
				return err
			}
			defer runtime.close()

			if len(args) == 0 {
				endpoint, err := runtime.manager.Endpoint(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Println(endpoint)
				return nil
			}
			if err := runtime.manager.UpdateEndpoint(cmd.Context(), args[0]); err != nil {
				return err
			}
			endpoint, err := runtime.manager.Endpoint(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Printf("endpoint set to %s\n", endpoint)
			return nil
		},
	}
}

func newForgetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "forget",
		Short: "Erase remembered credentials",
		RunE: func(cmd *cobra.Command, args []string) error {
			runtime, err := openRuntime(cmd)
			if err != nil {
				return err
			}
			defer runtime.close()

			if err := runtime.manager.ForgetCredentials(cmd.Context()); err != nil {
				return err
			}
			fmt.Println("credentials erased")
			return nil
		},
	}
}
