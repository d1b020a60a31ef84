package wallet

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/distordia/walletcore/pkg/nexus"
)

func TestSendSubmitsPrimaryAndFeeDebits(test *testing.T) {
	test.Parallel()
	node := newStubNode()
	node.accounts["savings"] = nexus.Account{Name: "savings", Address: "addr-savings", Balance: decimal.RequireFromString("500"), Token: "NXS"}
	manager := mustManager(test, node, &memoryStore{})
	mustLogin(test, manager)

	receipt, err := manager.Send(context.Background(), mustAccountName(test, "savings"), mustAmount(test, "100"), mustAddress(test, "addr-recipient"), mustPIN(test, "1234"), "invoice 7")
	if err != nil {
		test.Fatalf("send: %v", err)
	}
	if receipt.TxID == "" || receipt.FeeTxID == "" || receipt.FeeWarning != nil {
		test.Fatalf("unexpected receipt: %+v", receipt)
	}
	if len(node.debits) != 2 {
		test.Fatalf("expected primary and fee debits, got %d", len(node.debits))
	}
	primary := node.debits[0]
	if primary.from != "savings" || primary.to != "addr-recipient" || primary.reference != "invoice 7" {
		test.Fatalf("unexpected primary debit: %+v", primary)
	}
	if !primary.amount.Equal(decimal.RequireFromString("100")) {
		test.Fatalf("unexpected primary amount: %s", primary.amount)
	}
	fee := node.debits[1]
	if fee.from != "default" || fee.to != feeCollectionAddress || fee.reference != "" {
		test.Fatalf("unexpected fee debit: %+v", fee)
	}
	// 100 NXS at the native rate, above the floor.
	if !fee.amount.Equal(decimal.RequireFromString("0.1")) {
		test.Fatalf("unexpected fee amount: %s", fee.amount)
	}
}

func TestSendChargesFlatFeeForNonNativeTokens(test *testing.T) {
	test.Parallel()
	node := newStubNode()
	node.accounts["tokens"] = nexus.Account{Name: "tokens", Address: "addr-tokens", Balance: decimal.RequireFromString("9000"), Token: "8DX3tokenid"}
	manager := mustManager(test, node, &memoryStore{})
	mustLogin(test, manager)

	if _, err := manager.Send(context.Background(), mustAccountName(test, "tokens"), mustAmount(test, "2500"), mustAddress(test, "addr-recipient"), mustPIN(test, "1234"), ""); err != nil {
		test.Fatalf("send: %v", err)
	}
	fee := node.debits[1]
	if !fee.amount.Equal(decimal.RequireFromString("0.01")) {
		test.Fatalf("expected flat fee, got %s", fee.amount)
	}
}

func TestSendRejectsInsufficientSourceBalanceBeforeAnyDebit(test *testing.T) {
	test.Parallel()
	node := newStubNode()
	node.accounts["savings"] = nexus.Account{Name: "savings", Address: "addr-savings", Balance: decimal.RequireFromString("50"), Token: "NXS"}
	manager := mustManager(test, node, &memoryStore{})
	mustLogin(test, manager)

	_, err := manager.Send(context.Background(), mustAccountName(test, "savings"), mustAmount(test, "100"), mustAddress(test, "addr-recipient"), mustPIN(test, "1234"), "")
	if !errors.Is(err, ErrInsufficientFunds) {
		test.Fatalf("expected ErrInsufficientFunds, got %v", err)
	}
	if len(node.debits) != 0 {
		test.Fatalf("expected no debits, got %d", len(node.debits))
	}
}

func TestSendRejectsWhenDefaultAccountCannotCoverFees(test *testing.T) {
	test.Parallel()
	node := newStubNode()
	node.accounts[defaultAccountName] = nexus.Account{Name: "default", Address: "addr-default", Balance: decimal.RequireFromString("0.005"), Token: "NXS"}
	node.accounts["savings"] = nexus.Account{Name: "savings", Address: "addr-savings", Balance: decimal.RequireFromString("500"), Token: "NXS"}
	manager := mustManager(test, node, &memoryStore{})
	mustLogin(test, manager)

	_, err := manager.Send(context.Background(), mustAccountName(test, "savings"), mustAmount(test, "100"), mustAddress(test, "addr-recipient"), mustPIN(test, "1234"), "")
	if !errors.Is(err, ErrInsufficientFeeFunds) {
		test.Fatalf("expected ErrInsufficientFeeFunds, got %v", err)
	}
	if errors.Is(err, ErrInsufficientFunds) {
		test.Fatalf("fee shortfall must be distinct from source shortfall")
	}
	if len(node.debits) != 0 {
		test.Fatalf("expected no primary debit, got %d", len(node.debits))
	}
}

func TestSendSwallowsFeeDebitFailure(test *testing.T) {
	test.Parallel()
	node := newStubNode()
	node.accounts["savings"] = nexus.Account{Name: "savings", Address: "addr-savings", Balance: decimal.RequireFromString("500"), Token: "NXS"}
	node.failFeeDebit = errors.New("fee debit rejected")
	logger := &recorderLogger{}
	manager := mustManager(test, node, &memoryStore{}, WithOperationLogger(logger))
	mustLogin(test, manager)

	receipt, err := manager.Send(context.Background(), mustAccountName(test, "savings"), mustAmount(test, "100"), mustAddress(test, "addr-recipient"), mustPIN(test, "1234"), "")
	if err != nil {
		test.Fatalf("expected send to succeed, got %v", err)
	}
	if receipt.TxID == "" {
		test.Fatalf("expected primary txid")
	}
	if receipt.FeeTxID != "" || receipt.FeeWarning == nil {
		test.Fatalf("expected fee warning, got %+v", receipt)
	}
	if len(node.debits) != 1 {
		test.Fatalf("expected only the primary debit recorded, got %d", len(node.debits))
	}
	last := logger.entries[len(logger.entries)-1]
	if last.Status != operationStatusOK || last.Warning == nil {
		test.Fatalf("expected fee failure logged as warning on a successful send, got %+v", last)
	}
}

func TestSendFailsWhenPrimaryDebitFails(test *testing.T) {
	test.Parallel()
	node := newStubNode()
	node.accounts["savings"] = nexus.Account{Name: "savings", Address: "addr-savings", Balance: decimal.RequireFromString("500"), Token: "NXS"}
	node.failDebit = errors.New("debit rejected")
	manager := mustManager(test, node, &memoryStore{})
	mustLogin(test, manager)

	if _, err := manager.Send(context.Background(), mustAccountName(test, "savings"), mustAmount(test, "100"), mustAddress(test, "addr-recipient"), mustPIN(test, "1234"), ""); err == nil {
		test.Fatalf("expected send failure")
	}
	if len(node.debits) != 0 {
		test.Fatalf("expected no fee debit after primary failure, got %d", len(node.debits))
	}
}

func TestSendRequiresSession(test *testing.T) {
	test.Parallel()
	manager := mustManager(test, newStubNode(), &memoryStore{})
	_, err := manager.Send(context.Background(), DefaultAccount(), mustAmount(test, "1"), mustAddress(test, "addr-recipient"), mustPIN(test, "1234"), "")
	if !errors.Is(err, ErrNoActiveSession) {
		test.Fatalf("expected ErrNoActiveSession, got %v", err)
	}
}

func TestCreateAccountChecksFeeCoverAndChargesServiceFee(test *testing.T) {
	test.Parallel()
	node := newStubNode()
	manager := mustManager(test, node, &memoryStore{})
	mustLogin(test, manager)

	receipt, err := manager.CreateAccount(context.Background(), "tokens", "8DX3tokenid", mustPIN(test, "1234"))
	if err != nil {
		test.Fatalf("create account: %v", err)
	}
	if receipt.TxID == "" || receipt.Address == "" || receipt.FeeWarning != nil {
		test.Fatalf("unexpected receipt: %+v", receipt)
	}
	if len(node.createdAccounts) != 1 || node.createdAccounts[0] != "tokens:8DX3tokenid" {
		test.Fatalf("unexpected account creation: %v", node.createdAccounts)
	}
	if len(node.debits) != 1 || node.debits[0].to != feeCollectionAddress {
		test.Fatalf("expected one fee debit, got %+v", node.debits)
	}
	if !node.debits[0].amount.Equal(decimal.RequireFromString("0.01")) {
		test.Fatalf("unexpected fee amount: %s", node.debits[0].amount)
	}
}

func TestCreateAccountRejectsWhenFeesNotCovered(test *testing.T) {
	test.Parallel()
	node := newStubNode()
	node.accounts[defaultAccountName] = nexus.Account{Name: "default", Address: "addr-default", Balance: decimal.RequireFromString("0.01"), Token: "NXS"}
	manager := mustManager(test, node, &memoryStore{})
	mustLogin(test, manager)

	_, err := manager.CreateAccount(context.Background(), "tokens", "8DX3tokenid", mustPIN(test, "1234"))
	if !errors.Is(err, ErrInsufficientFeeFunds) {
		test.Fatalf("expected ErrInsufficientFeeFunds, got %v", err)
	}
	if len(node.createdAccounts) != 0 {
		test.Fatalf("expected no account creation, got %v", node.createdAccounts)
	}
}

func TestCreateAccountSwallowsFeeDebitFailure(test *testing.T) {
	test.Parallel()
	node := newStubNode()
	node.failFeeDebit = errors.New("fee debit rejected")
	manager := mustManager(test, node, &memoryStore{})
	mustLogin(test, manager)

	receipt, err := manager.CreateAccount(context.Background(), "tokens", "8DX3tokenid", mustPIN(test, "1234"))
	if err != nil {
		test.Fatalf("expected creation to succeed, got %v", err)
	}
	if receipt.FeeWarning == nil {
		test.Fatalf("expected fee warning, got %+v", receipt)
	}
}
