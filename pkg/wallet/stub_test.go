package wallet

import (
	"context"
	"fmt"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/distordia/walletcore/pkg/nexus"
)

type debitCall struct {
	from      string
	amount    decimal.Decimal
	to        string
	pin       string
	reference string
	session   string
}

// stubNode scripts node behavior per procedure and records every debit.
type stubNode struct {
	accounts map[string]nexus.Account

	failCreateProfile error
	failCreateSession error
	failTerminate     error
	failUnlock        error
	failLock          error
	failGetAccount    error
	failDebit         error
	failFeeDebit      error
	failTransactions  error

	transactions []nexus.Transaction

	debits          []debitCall
	createdSessions int
	createdProfiles int
	terminated      []string
	createdAccounts []string
}

func newStubNode() *stubNode {
	return &stubNode{
		accounts: map[string]nexus.Account{
			defaultAccountName: {Name: defaultAccountName, Address: "addr-default", Balance: decimal.RequireFromString("100"), Token: "NXS"},
		},
	}
}

func (node *stubNode) CreateSession(_ context.Context, username string, _ string, _ string) (nexus.SessionResult, error) {
	if node.failCreateSession != nil {
		return nexus.SessionResult{}, node.failCreateSession
	}
	node.createdSessions++
	return nexus.SessionResult{
		Session: fmt.Sprintf("session-%d", node.createdSessions),
		Genesis: "genesis-" + username,
	}, nil
}

func (node *stubNode) TerminateSession(_ context.Context, session string) error {
	if node.failTerminate != nil {
		return node.failTerminate
	}
	node.terminated = append(node.terminated, session)
	return nil
}

func (node *stubNode) UnlockSession(_ context.Context, _ string, _ string) error {
	return node.failUnlock
}

func (node *stubNode) LockSession(_ context.Context, _ string, _ string) error {
	return node.failLock
}

func (node *stubNode) CreateProfile(_ context.Context, username string, _ string, _ string) (nexus.ProfileResult, error) {
	if node.failCreateProfile != nil {
		return nexus.ProfileResult{}, node.failCreateProfile
	}
	node.createdProfiles++
	return nexus.ProfileResult{TxID: "profile-tx", Genesis: "genesis-" + username}, nil
}

func (node *stubNode) GetAccount(_ context.Context, name string, _ string) (nexus.Account, error) {
	if node.failGetAccount != nil {
		return nexus.Account{}, node.failGetAccount
	}
	account, present := node.accounts[name]
	if !present {
		return nexus.Account{}, &nexus.RemoteError{}
	}
	return account, nil
}

func (node *stubNode) ListAccounts(_ context.Context, _ string) ([]nexus.Account, error) {
	if node.failGetAccount != nil {
		return nil, node.failGetAccount
	}
	accounts := make([]nexus.Account, 0, len(node.accounts))
	for _, account := range node.accounts {
		accounts = append(accounts, account)
	}
	return accounts, nil
}

func (node *stubNode) CreateAccount(_ context.Context, name string, token string, _ string, _ string) (nexus.CreateAccountResult, error) {
	node.createdAccounts = append(node.createdAccounts, name+":"+token)
	return nexus.CreateAccountResult{TxID: "create-tx", Address: "addr-" + name}, nil
}

func (node *stubNode) DebitAccount(_ context.Context, from string, amount decimal.Decimal, to string, pin string, reference string, session string) (nexus.DebitResult, error) {
	isFeeDebit := from == defaultAccountName && to == feeCollectionAddress
	if isFeeDebit && node.failFeeDebit != nil {
		return nexus.DebitResult{}, node.failFeeDebit
	}
	if !isFeeDebit && node.failDebit != nil {
		return nexus.DebitResult{}, node.failDebit
	}
	node.debits = append(node.debits, debitCall{from: from, amount: amount, to: to, pin: pin, reference: reference, session: session})
	return nexus.DebitResult{TxID: fmt.Sprintf("tx-%d", len(node.debits))}, nil
}

func (node *stubNode) ListTransactions(_ context.Context, _ string, _ string, _ int) ([]nexus.Transaction, error) {
	if node.failTransactions != nil {
		return nil, node.failTransactions
	}
	return node.transactions, nil
}

// memoryStore is an in-memory plain-tier store with per-method failure taps.
type memoryStore struct {
	session         *Session
	config          *WalletConfig
	endpoint        *string
	transactions    []nexus.Transaction
	hasTransactions bool
	accounts        []nexus.Account
	hasAccounts     bool

	sessionClears int

	failSaveSession      error
	failClearSession     error
	failSaveConfig       error
	failSaveTransactions error
	failLoadTransactions error
}

func (store *memoryStore) SaveSession(_ context.Context, session Session) error {
	if store.failSaveSession != nil {
		return store.failSaveSession
	}
	store.session = &session
	return nil
}

func (store *memoryStore) LoadSession(_ context.Context) (Session, bool, error) {
	if store.session == nil {
		return Session{}, false, nil
	}
	return *store.session, true, nil
}

func (store *memoryStore) ClearSession(_ context.Context) error {
	store.sessionClears++
	if store.failClearSession != nil {
		return store.failClearSession
	}
	store.session = nil
	return nil
}

func (store *memoryStore) SaveConfig(_ context.Context, config WalletConfig) error {
	if store.failSaveConfig != nil {
		return store.failSaveConfig
	}
	store.config = &config
	return nil
}

func (store *memoryStore) LoadConfig(_ context.Context) (WalletConfig, bool, error) {
	if store.config == nil {
		return WalletConfig{}, false, nil
	}
	return *store.config, true, nil
}

func (store *memoryStore) SaveEndpoint(_ context.Context, endpoint string) error {
	store.endpoint = &endpoint
	return nil
}

func (store *memoryStore) LoadEndpoint(_ context.Context) (string, bool, error) {
	if store.endpoint == nil {
		return "", false, nil
	}
	return *store.endpoint, true, nil
}

func (store *memoryStore) SaveTransactions(_ context.Context, transactions []nexus.Transaction) error {
	if store.failSaveTransactions != nil {
		return store.failSaveTransactions
	}
	store.transactions = transactions
	store.hasTransactions = true
	return nil
}

func (store *memoryStore) LoadTransactions(_ context.Context) ([]nexus.Transaction, bool, error) {
	if store.failLoadTransactions != nil {
		return nil, false, store.failLoadTransactions
	}
	return store.transactions, store.hasTransactions, nil
}

func (store *memoryStore) SaveAccounts(_ context.Context, accounts []nexus.Account) error {
	store.accounts = accounts
	store.hasAccounts = true
	return nil
}

func (store *memoryStore) LoadAccounts(_ context.Context) ([]nexus.Account, bool, error) {
	return store.accounts, store.hasAccounts, nil
}

// memorySecrets is an in-memory secret tier with a load failure tap.
type memorySecrets struct {
	stored   map[string]Credentials
	failLoad error
}

func newMemorySecrets() *memorySecrets {
	return &memorySecrets{stored: map[string]Credentials{}}
}

func (secrets *memorySecrets) SaveCredentials(_ context.Context, service string, credentials Credentials) error {
	secrets.stored[service] = credentials
	return nil
}

func (secrets *memorySecrets) LoadCredentials(_ context.Context, service string) (Credentials, bool, error) {
	if secrets.failLoad != nil {
		return Credentials{}, false, secrets.failLoad
	}
	credentials, present := secrets.stored[service]
	return credentials, present, nil
}

func (secrets *memorySecrets) EraseCredentials(_ context.Context, service string) error {
	delete(secrets.stored, service)
	return nil
}

type recorderLogger struct {
	entries []OperationLog
}

func (logger *recorderLogger) LogOperation(_ context.Context, entry OperationLog) {
	logger.entries = append(logger.entries, entry)
}

func mustManager(test *testing.T, node *stubNode, store *memoryStore, options ...ManagerOption) *Manager {
	test.Helper()
	manager, err := NewManager(store, newMemorySecrets(), func(string) (NodeClient, error) { return node, nil }, options...)
	if err != nil {
		test.Fatalf("manager init: %v", err)
	}
	if _, err := manager.Initialize(context.Background()); err != nil {
		test.Fatalf("initialize: %v", err)
	}
	return manager
}

func mustLogin(test *testing.T, manager *Manager) {
	test.Helper()
	if _, err := manager.Login(context.Background(), mustUsername(test, "alice"), "password", mustPIN(test, "1234")); err != nil {
		test.Fatalf("login: %v", err)
	}
}

func mustUsername(test *testing.T, raw string) Username {
	test.Helper()
	username, err := NewUsername(raw)
	if err != nil {
		test.Fatalf("username %q: %v", raw, err)
	}
	return username
}

func mustPIN(test *testing.T, raw string) PIN {
	test.Helper()
	pin, err := NewPIN(raw)
	if err != nil {
		test.Fatalf("pin %q: %v", raw, err)
	}
	return pin
}

func mustAmount(test *testing.T, raw string) Amount {
	test.Helper()
	amount, err := NewAmountFromString(raw)
	if err != nil {
		test.Fatalf("amount %q: %v", raw, err)
	}
	return amount
}

func mustAccountName(test *testing.T, raw string) AccountName {
	test.Helper()
	accountName, err := NewAccountName(raw)
	if err != nil {
		test.Fatalf("account name %q: %v", raw, err)
	}
	return accountName
}

func mustAddress(test *testing.T, raw string) Address {
	test.Helper()
	address, err := NewAddress(raw)
	if err != nil {
		test.Fatalf("address %q: %v", raw, err)
	}
	return address
}
