package wallet

import (
	"context"

	"github.com/shopspring/decimal"
)

// ManagerOption configures a Manager instance.
type ManagerOption func(*Manager)

// OperationLogger records domain-level events emitted by Manager operations.
// Deliberately-swallowed failures (logout teardown, fee debits, credential
// reads) surface here as Warning so they stay observable.
type OperationLogger interface {
	LogOperation(ctx context.Context, entry OperationLog)
}

// OperationLog describes one wallet operation.
type OperationLog struct {
	Operation string
	Username  string
	Account   string
	Amount    decimal.Decimal
	TxID      string
	Status    string
	Error     error
	Warning   error
}

// WithOperationLogger wires a logger that receives callbacks for every
// operation.
func WithOperationLogger(logger OperationLogger) ManagerOption {
	return func(manager *Manager) {
		manager.logger = logger
	}
}

// WithClock overrides the wall clock used for config timestamps.
func WithClock(now func() int64) ManagerOption {
	return func(manager *Manager) {
		if now != nil {
			manager.nowUnixMilli = now
		}
	}
}
