package nexus

import (
	"errors"
	"fmt"
)

// Endpoint policy violations reported by ValidateEndpoint.
var (
	ErrInvalidEndpoint  = errors.New("invalid node endpoint")
	ErrInsecureEndpoint = errors.New("insecure node endpoint")
)

// RemoteError carries an error payload the node returned for a procedure call.
type RemoteError struct {
	procedure string
	message   string
}

// Error returns the formatted error message.
func (remoteError *RemoteError) Error() string {
	return fmt.Sprintf("node rejected %s: %s", remoteError.procedure, remoteError.message)
}

// Procedure returns the procedure the node rejected.
func (remoteError *RemoteError) Procedure() string {
	return remoteError.procedure
}

// Message returns the node-reported message verbatim.
func (remoteError *RemoteError) Message() string {
	return remoteError.message
}

// TransportError reports a network-level failure reaching the node.
type TransportError struct {
	procedure string
	timeout   bool
	err       error
}

// Error returns the formatted error message.
func (transportError *TransportError) Error() string {
	if transportError.timeout {
		return fmt.Sprintf("request %s timed out: %v", transportError.procedure, transportError.err)
	}
	return fmt.Sprintf("request %s failed: %v", transportError.procedure, transportError.err)
}

// Unwrap returns the underlying transport error.
func (transportError *TransportError) Unwrap() error {
	return transportError.err
}

// Timeout reports whether the failure was the bounded request timeout.
func (transportError *TransportError) Timeout() bool {
	return transportError.timeout
}

// Procedure returns the procedure whose transport failed.
func (transportError *TransportError) Procedure() string {
	return transportError.procedure
}
