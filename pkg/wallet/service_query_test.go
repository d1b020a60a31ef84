package wallet

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/distordia/walletcore/pkg/nexus"
)

func TestBalanceRequiresSessionAndReadsLive(test *testing.T) {
	test.Parallel()
	node := newStubNode()
	manager := mustManager(test, node, &memoryStore{})

	if _, err := manager.Balance(context.Background(), DefaultAccount()); !errors.Is(err, ErrNoActiveSession) {
		test.Fatalf("expected ErrNoActiveSession, got %v", err)
	}

	mustLogin(test, manager)
	account, err := manager.Balance(context.Background(), DefaultAccount())
	if err != nil {
		test.Fatalf("balance: %v", err)
	}
	if !account.Balance.Equal(decimal.RequireFromString("100")) {
		test.Fatalf("unexpected balance: %s", account.Balance)
	}

	node.accounts[defaultAccountName] = nexus.Account{Name: "default", Address: "addr-default", Balance: decimal.RequireFromString("75"), Token: "NXS"}
	account, err = manager.Balance(context.Background(), DefaultAccount())
	if err != nil {
		test.Fatalf("balance: %v", err)
	}
	if !account.Balance.Equal(decimal.RequireFromString("75")) {
		test.Fatalf("expected live read, got %s", account.Balance)
	}
}

func TestAccountAddress(test *testing.T) {
	test.Parallel()
	manager := mustManager(test, newStubNode(), &memoryStore{})
	mustLogin(test, manager)

	address, err := manager.AccountAddress(context.Background(), DefaultAccount())
	if err != nil {
		test.Fatalf("account address: %v", err)
	}
	if address != "addr-default" {
		test.Fatalf("unexpected address: %q", address)
	}
}

func TestAccountsCachesListing(test *testing.T) {
	test.Parallel()
	node := newStubNode()
	store := &memoryStore{}
	manager := mustManager(test, node, store)
	mustLogin(test, manager)

	accounts, err := manager.Accounts(context.Background())
	if err != nil {
		test.Fatalf("accounts: %v", err)
	}
	if len(accounts) != 1 {
		test.Fatalf("expected one account, got %d", len(accounts))
	}
	if !store.hasAccounts {
		test.Fatalf("expected accounts cached")
	}
}

func TestTransactionsReplaceCacheOnSuccess(test *testing.T) {
	test.Parallel()
	node := newStubNode()
	store := &memoryStore{}
	manager := mustManager(test, node, store)
	mustLogin(test, manager)

	node.transactions = []nexus.Transaction{{TxID: "tx-1", Type: "DEBIT", Timestamp: 10, Amount: decimal.RequireFromString("-5")}}
	first, err := manager.Transactions(context.Background(), DefaultAccount(), 100)
	if err != nil || len(first) != 1 {
		test.Fatalf("first fetch: %v %d", err, len(first))
	}

	node.transactions = []nexus.Transaction{{TxID: "tx-2", Type: "CREDIT", Timestamp: 20, Amount: decimal.RequireFromString("7")}}
	second, err := manager.Transactions(context.Background(), DefaultAccount(), 100)
	if err != nil {
		test.Fatalf("second fetch: %v", err)
	}
	if len(second) != 1 || second[0].TxID != "tx-2" {
		test.Fatalf("expected replaced list, got %+v", second)
	}
	if len(store.transactions) != 1 || store.transactions[0].TxID != "tx-2" {
		test.Fatalf("expected cache replaced, not merged: %+v", store.transactions)
	}
}

func TestTransactionsFallBackToCacheOnFetchFailure(test *testing.T) {
	test.Parallel()
	node := newStubNode()
	store := &memoryStore{}
	logger := &recorderLogger{}
	manager := mustManager(test, node, store, WithOperationLogger(logger))
	mustLogin(test, manager)

	node.transactions = []nexus.Transaction{{TxID: "tx-1", Type: "DEBIT", Timestamp: 10, Amount: decimal.RequireFromString("-5")}}
	if _, err := manager.Transactions(context.Background(), DefaultAccount(), 100); err != nil {
		test.Fatalf("first fetch: %v", err)
	}

	node.failTransactions = errors.New("node unreachable")
	cached, err := manager.Transactions(context.Background(), DefaultAccount(), 100)
	if err != nil {
		test.Fatalf("expected degraded read, got %v", err)
	}
	if len(cached) != 1 || cached[0].TxID != "tx-1" {
		test.Fatalf("expected previously cached list unchanged, got %+v", cached)
	}
	last := logger.entries[len(logger.entries)-1]
	if last.Warning == nil {
		test.Fatalf("expected fetch fault logged as warning, got %+v", last)
	}
}

func TestTransactionsWithoutCacheDegradeToEmptyList(test *testing.T) {
	test.Parallel()
	node := newStubNode()
	node.failTransactions = errors.New("node unreachable")
	manager := mustManager(test, node, &memoryStore{})
	mustLogin(test, manager)

	transactions, err := manager.Transactions(context.Background(), DefaultAccount(), 100)
	if err != nil {
		test.Fatalf("expected degraded read, got %v", err)
	}
	if transactions == nil || len(transactions) != 0 {
		test.Fatalf("expected empty list, got %+v", transactions)
	}
}
