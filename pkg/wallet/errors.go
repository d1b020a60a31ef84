package wallet

import (
	"errors"
	"fmt"
)

// Domain-level error values returned by the wallet manager.
var (
	ErrNoActiveSession      = errors.New("no active session")
	ErrNotInitialized       = errors.New("wallet manager not initialized")
	ErrInsufficientFunds    = errors.New("insufficient balance in source account")
	ErrInsufficientFeeFunds = errors.New("insufficient NXS in default account for fees")
	ErrInvalidUsername      = errors.New("invalid username")
	ErrInvalidPIN           = errors.New("invalid pin")
	ErrInvalidAmount        = errors.New("invalid amount")
	ErrInvalidAccountName   = errors.New("invalid account name")
	ErrInvalidAddress       = errors.New("invalid address")
	ErrInvalidManagerConfig = errors.New("invalid manager config")
)

// OperationError wraps a failure with a stable operation code.
type OperationError struct {
	operation string
	subject   string
	code      string
	err       error
}

// Error returns the formatted error message.
func (operationError OperationError) Error() string {
	return fmt.Sprintf("%s.%s.%s: %v", operationError.operation, operationError.subject, operationError.code, operationError.err)
}

// Unwrap returns the underlying error.
func (operationError OperationError) Unwrap() error {
	return operationError.err
}

// Operation returns the operation segment.
func (operationError OperationError) Operation() string {
	return operationError.operation
}

// Subject returns the subject segment.
func (operationError OperationError) Subject() string {
	return operationError.subject
}

// Code returns the stable error code segment.
func (operationError OperationError) Code() string {
	return operationError.code
}

// WrapError wraps an error with operation, subject, and code metadata.
func WrapError(operation string, subject string, code string, err error) error {
	if err == nil {
		return nil
	}
	return OperationError{
		operation: operation,
		subject:   subject,
		code:      code,
		err:       err,
	}
}
