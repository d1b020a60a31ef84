package wallet

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/distordia/walletcore/pkg/nexus"
)

// Username identifies a profile. Immutable once registered.
type Username struct {
	value string
}

// NewUsername validates and normalizes a username.
func NewUsername(raw string) (Username, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return Username{}, fmt.Errorf("%w: empty value", ErrInvalidUsername)
	}
	return Username{value: trimmed}, nil
}

// String returns the normalized username.
func (username Username) String() string {
	return username.value
}

// PIN authorizes spending operations. The node re-validates it on every call;
// this type only enforces the accepted length policy.
type PIN struct {
	value string
}

// NewPIN validates a PIN of 4-8 digits.
func NewPIN(raw string) (PIN, error) {
	if len(raw) < pinMinDigits || len(raw) > pinMaxDigits {
		return PIN{}, fmt.Errorf("%w: must be %d-%d digits", ErrInvalidPIN, pinMinDigits, pinMaxDigits)
	}
	for _, character := range raw {
		if character < '0' || character > '9' {
			return PIN{}, fmt.Errorf("%w: must contain only digits", ErrInvalidPIN)
		}
	}
	return PIN{value: raw}, nil
}

// String returns the PIN digits.
func (pin PIN) String() string {
	return pin.value
}

// Amount is a strictly positive finite transfer amount.
type Amount struct {
	value decimal.Decimal
}

// NewAmount validates an amount is strictly positive.
func NewAmount(raw decimal.Decimal) (Amount, error) {
	if !raw.IsPositive() {
		return Amount{}, fmt.Errorf("%w: must be greater than zero", ErrInvalidAmount)
	}
	return Amount{value: raw}, nil
}

// NewAmountFromString parses and validates a decimal amount.
func NewAmountFromString(raw string) (Amount, error) {
	parsed, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil {
		return Amount{}, fmt.Errorf("%w: %v", ErrInvalidAmount, err)
	}
	return NewAmount(parsed)
}

// Decimal returns the amount value.
func (amount Amount) Decimal() decimal.Decimal {
	return amount.value
}

// AccountName is the local alias of a node-side account.
type AccountName struct {
	value string
}

// NewAccountName validates and normalizes an account name.
func NewAccountName(raw string) (AccountName, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return AccountName{}, fmt.Errorf("%w: empty value", ErrInvalidAccountName)
	}
	return AccountName{value: trimmed}, nil
}

// DefaultAccount returns the fee-paying default account name.
func DefaultAccount() AccountName {
	return AccountName{value: defaultAccountName}
}

// String returns the normalized account name.
func (accountName AccountName) String() string {
	return accountName.value
}

// Address is a node-assigned receiving address.
type Address struct {
	value string
}

// NewAddress validates and normalizes a receiving address.
func NewAddress(raw string) (Address, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return Address{}, fmt.Errorf("%w: empty value", ErrInvalidAddress)
	}
	return Address{value: trimmed}, nil
}

// String returns the normalized address.
func (address Address) String() string {
	return address.value
}

// Session is the persisted authorization state: the node-issued token plus
// the local lock flag. Exactly one session is active per manager instance.
type Session struct {
	Token    string `json:"session"`
	Genesis  string `json:"genesis"`
	Username string `json:"username"`
	Locked   bool   `json:"isLocked"`
}

// WalletConfig marks whether a wallet was ever created on this device,
// distinguishing "never registered" from "registered, session expired".
type WalletConfig struct {
	Initialized        bool   `json:"initialized"`
	Username           string `json:"username"`
	Genesis            string `json:"genesis"`
	CreatedAtUnixMilli int64  `json:"createdAt"`
}

// WalletInfo is the presentation-facing summary of the manager state.
type WalletInfo struct {
	Username string
	Genesis  string
	LoggedIn bool
	Locked   bool
}

// Receipt reports the outcome of a payment. The fee debit is best-effort: a
// failure there lands in FeeWarning and never fails the payment itself.
type Receipt struct {
	TxID       string
	FeeTxID    string
	FeeWarning error
}

// AccountReceipt reports the outcome of account creation, with the same
// best-effort fee semantics as Receipt.
type AccountReceipt struct {
	TxID       string
	Address    string
	FeeWarning error
}

// LogoutReport carries the best-effort outcomes of a logout. Logout itself
// never fails: local state is always cleared.
type LogoutReport struct {
	TerminateWarning error
	StorageWarning   error
}

// Credentials is the username/secret pair held by the secret tier.
type Credentials struct {
	Username string `json:"username"`
	Secret   string `json:"secret"`
}

// Store is the plain-tier persistence contract: JSON values under fixed
// logical keys. Load methods report absence via the bool, never as an error.
type Store interface {
	SaveSession(ctx context.Context, session Session) error
	LoadSession(ctx context.Context) (Session, bool, error)
	// ClearSession overwrites the stored value with an empty marker before
	// deleting the key.
	ClearSession(ctx context.Context) error
	SaveConfig(ctx context.Context, config WalletConfig) error
	LoadConfig(ctx context.Context) (WalletConfig, bool, error)
	SaveEndpoint(ctx context.Context, endpoint string) error
	LoadEndpoint(ctx context.Context) (string, bool, error)
	SaveTransactions(ctx context.Context, transactions []nexus.Transaction) error
	LoadTransactions(ctx context.Context) ([]nexus.Transaction, bool, error)
	SaveAccounts(ctx context.Context, accounts []nexus.Account) error
	LoadAccounts(ctx context.Context) ([]nexus.Account, bool, error)
}

// SecretStore is the secret-tier contract: an opaque credential store scoped
// by a service identifier. Load failures are surfaced as errors, not masked
// as absence; the manager decides how to degrade.
type SecretStore interface {
	SaveCredentials(ctx context.Context, service string, credentials Credentials) error
	LoadCredentials(ctx context.Context, service string) (Credentials, bool, error)
	EraseCredentials(ctx context.Context, service string) error
}

// NodeClient is the subset of the node API the manager drives. pkg/nexus
// provides the production implementation.
type NodeClient interface {
	CreateSession(ctx context.Context, username string, password string, pin string) (nexus.SessionResult, error)
	TerminateSession(ctx context.Context, session string) error
	UnlockSession(ctx context.Context, pin string, session string) error
	LockSession(ctx context.Context, pin string, session string) error
	CreateProfile(ctx context.Context, username string, password string, pin string) (nexus.ProfileResult, error)
	GetAccount(ctx context.Context, name string, session string) (nexus.Account, error)
	ListAccounts(ctx context.Context, session string) ([]nexus.Account, error)
	CreateAccount(ctx context.Context, name string, token string, pin string, session string) (nexus.CreateAccountResult, error)
	DebitAccount(ctx context.Context, from string, amount decimal.Decimal, to string, pin string, reference string, session string) (nexus.DebitResult, error)
	ListTransactions(ctx context.Context, name string, session string, limit int) ([]nexus.Transaction, error)
}

// DialFunc builds a NodeClient bound to an endpoint. It is expected to apply
// the transport-security policy and fail on endpoints that violate it.
type DialFunc func(endpoint string) (NodeClient, error)
