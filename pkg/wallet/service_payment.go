package wallet

import (
	"context"
	"fmt"

	"github.com/distordia/walletcore/pkg/nexus"
)

// Balance fetches the live state of one account. Nothing is cached: balance
// reads always hit the node.
func (manager *Manager) Balance(ctx context.Context, account AccountName) (nexus.Account, error) {
	session, err := manager.requireSession(operationBalance)
	if err != nil {
		return nexus.Account{}, err
	}
	return manager.client.GetAccount(ctx, account.String(), session.Token)
}

// Accounts fetches every account owned by the profile and overwrites the
// local display cache with the result.
func (manager *Manager) Accounts(ctx context.Context) ([]nexus.Account, error) {
	session, err := manager.requireSession(operationAccounts)
	if err != nil {
		return nil, err
	}
	accounts, err := manager.client.ListAccounts(ctx, session.Token)
	if err != nil {
		return nil, err
	}
	if cacheErr := manager.store.SaveAccounts(ctx, accounts); cacheErr != nil {
		manager.logOperation(ctx, OperationLog{
			Operation: operationAccounts,
			Username:  session.Username,
			Warning:   WrapError(operationAccounts, "cache", "save", cacheErr),
		})
	}
	return accounts, nil
}

// AccountAddress fetches the receiving address of one account.
func (manager *Manager) AccountAddress(ctx context.Context, account AccountName) (string, error) {
	fetched, err := manager.Balance(ctx, account)
	if err != nil {
		return "", err
	}
	return fetched.Address, nil
}

// Transactions fetches the most recent transactions for an account and
// replaces the local cache with them. On any fetch failure it degrades to the
// previously cached list so history stays viewable offline; the fetch fault
// is reported through the operation log.
func (manager *Manager) Transactions(ctx context.Context, account AccountName, limit int) ([]nexus.Transaction, error) {
	session, err := manager.requireSession(operationTransactions)
	if err != nil {
		return nil, err
	}
	transactions, err := manager.client.ListTransactions(ctx, account.String(), session.Token, limit)
	if err != nil {
		cached, present, cacheErr := manager.store.LoadTransactions(ctx)
		manager.logOperation(ctx, OperationLog{
			Operation: operationTransactions,
			Username:  session.Username,
			Account:   account.String(),
			Warning:   err,
		})
		if cacheErr != nil || !present {
			return []nexus.Transaction{}, nil
		}
		return cached, nil
	}
	if cacheErr := manager.store.SaveTransactions(ctx, transactions); cacheErr != nil {
		manager.logOperation(ctx, OperationLog{
			Operation: operationTransactions,
			Username:  session.Username,
			Account:   account.String(),
			Warning:   WrapError(operationTransactions, "cache", "save", cacheErr),
		})
	}
	return transactions, nil
}

// Send submits a payment from the named account, then charges the service fee
// from the default account as a second, independent debit.
//
// The two debits are deliberately not atomic: once the primary transfer is
// submitted it is never rolled back, and a fee-debit failure is reported in
// the Receipt's FeeWarning without failing the call. The default account must
// cover the full ancillary fees (service fee plus network fee) up front, no
// matter which account funds the payment.
func (manager *Manager) Send(ctx context.Context, account AccountName, amount Amount, recipient Address, pin PIN, reference string) (Receipt, error) {
	session, err := manager.requireSession(operationSend)
	if err != nil {
		return Receipt{}, err
	}
	source, err := manager.client.GetAccount(ctx, account.String(), session.Token)
	if err != nil {
		manager.logSend(ctx, session, account, amount, OperationLog{Error: err})
		return Receipt{}, err
	}
	if amount.Decimal().GreaterThan(source.Balance) {
		err := WrapError(operationSend, "account", "balance", fmt.Errorf("%w: %s exceeds %s", ErrInsufficientFunds, amount.Decimal(), source.Balance))
		manager.logSend(ctx, session, account, amount, OperationLog{Error: err})
		return Receipt{}, err
	}

	quote := QuoteFees(amount.Decimal(), source.Token)
	feeSource, err := manager.client.GetAccount(ctx, defaultAccountName, session.Token)
	if err != nil {
		manager.logSend(ctx, session, account, amount, OperationLog{Error: err})
		return Receipt{}, err
	}
	if feeSource.Balance.LessThan(quote.Total()) {
		err := WrapError(operationSend, "fees", "balance", fmt.Errorf("%w: need %s", ErrInsufficientFeeFunds, quote.Total()))
		manager.logSend(ctx, session, account, amount, OperationLog{Error: err})
		return Receipt{}, err
	}

	primary, err := manager.client.DebitAccount(ctx, account.String(), amount.Decimal(), recipient.String(), pin.String(), reference, session.Token)
	if err != nil {
		manager.logSend(ctx, session, account, amount, OperationLog{Error: err})
		return Receipt{}, err
	}
	receipt := Receipt{TxID: primary.TxID}

	// Best-effort service fee collection. The user-visible payment already
	// succeeded; this debit must not undo or mask it.
	feeResult, feeErr := manager.client.DebitAccount(ctx, defaultAccountName, quote.ServiceFee, feeCollectionAddress, pin.String(), "", session.Token)
	if feeErr != nil {
		receipt.FeeWarning = feeErr
	} else {
		receipt.FeeTxID = feeResult.TxID
	}
	manager.logSend(ctx, session, account, amount, OperationLog{TxID: receipt.TxID, Warning: receipt.FeeWarning})
	return receipt, nil
}

// CreateAccount creates a new token account on the node, then charges the
// flat service fee from the default account with the same best-effort
// semantics as Send.
func (manager *Manager) CreateAccount(ctx context.Context, name string, token string, pin PIN) (AccountReceipt, error) {
	session, err := manager.requireSession(operationCreateAccount)
	if err != nil {
		return AccountReceipt{}, err
	}
	cover := serviceFeeFlat.Add(networkFee)
	feeSource, err := manager.client.GetAccount(ctx, defaultAccountName, session.Token)
	if err != nil {
		return AccountReceipt{}, err
	}
	if feeSource.Balance.LessThan(cover) {
		return AccountReceipt{}, WrapError(operationCreateAccount, "fees", "balance", fmt.Errorf("%w: need %s", ErrInsufficientFeeFunds, cover))
	}
	created, err := manager.client.CreateAccount(ctx, name, token, pin.String(), session.Token)
	if err != nil {
		manager.logOperation(ctx, OperationLog{Operation: operationCreateAccount, Username: session.Username, Error: err})
		return AccountReceipt{}, err
	}
	receipt := AccountReceipt{TxID: created.TxID, Address: created.Address}
	if _, feeErr := manager.client.DebitAccount(ctx, defaultAccountName, serviceFeeFlat, feeCollectionAddress, pin.String(), "", session.Token); feeErr != nil {
		receipt.FeeWarning = feeErr
	}
	manager.logOperation(ctx, OperationLog{Operation: operationCreateAccount, Username: session.Username, TxID: receipt.TxID, Warning: receipt.FeeWarning})
	return receipt, nil
}

func (manager *Manager) logSend(ctx context.Context, session *Session, account AccountName, amount Amount, entry OperationLog) {
	entry.Operation = operationSend
	entry.Username = session.Username
	entry.Account = account.String()
	entry.Amount = amount.Decimal()
	manager.logOperation(ctx, entry)
}
