// Package wallet holds the session-lifecycle state machine and the fee-aware
// payment protocol of the mobile wallet core. A Manager mediates between the
// locally persisted session state and a remote node reached through a
// NodeClient.
package wallet

import (
	"context"
	"fmt"
	"time"
)

// Manager owns the in-memory session state and orchestrates the wallet
// lifecycle against the node and the local stores.
//
// A Manager is not safe for concurrent use: operations are sequential
// request/response calls and overlapping balance checks on the same instance
// would race past each other. Callers must serialize.
type Manager struct {
	store        Store
	secrets      SecretStore
	dial         DialFunc
	client       NodeClient
	session      *Session
	logger       OperationLogger
	nowUnixMilli func() int64
}

// NewManager wires a Manager. Initialize must be called before any operation
// that reaches the node.
func NewManager(store Store, secrets SecretStore, dial DialFunc, options ...ManagerOption) (*Manager, error) {
	if store == nil {
		return nil, fmt.Errorf("%w: store dependency is nil", ErrInvalidManagerConfig)
	}
	if secrets == nil {
		return nil, fmt.Errorf("%w: secret store dependency is nil", ErrInvalidManagerConfig)
	}
	if dial == nil {
		return nil, fmt.Errorf("%w: dial dependency is nil", ErrInvalidManagerConfig)
	}
	manager := &Manager{
		store:        store,
		secrets:      secrets,
		dial:         dial,
		nowUnixMilli: func() int64 { return time.Now().UnixMilli() },
	}
	for _, option := range options {
		if option != nil {
			option(manager)
		}
	}
	return manager, nil
}

// Initialize binds a node client to the persisted endpoint (falling back to
// the default) and loads any persisted session into memory. It is idempotent
// and always rebinds the client to the currently configured endpoint. Returns
// whether a session is present afterward.
func (manager *Manager) Initialize(ctx context.Context) (bool, error) {
	endpoint, present, err := manager.store.LoadEndpoint(ctx)
	if err != nil {
		return false, WrapError(operationInitialize, "endpoint", "load", err)
	}
	if !present {
		endpoint = DefaultEndpoint
	}
	client, err := manager.dial(endpoint)
	if err != nil {
		return false, err
	}
	manager.client = client

	session, present, err := manager.store.LoadSession(ctx)
	if err != nil {
		return false, WrapError(operationInitialize, "session", "load", err)
	}
	if present {
		manager.session = &session
	}
	return manager.IsLoggedIn(), nil
}

// IsLoggedIn reports whether a session is held in memory.
func (manager *Manager) IsLoggedIn() bool {
	return manager.session != nil
}

// SessionInfo returns a copy of the active session, if any.
func (manager *Manager) SessionInfo() (Session, bool) {
	if manager.session == nil {
		return Session{}, false
	}
	return *manager.session, true
}

// Info summarizes the manager state for presentation.
func (manager *Manager) Info() WalletInfo {
	info := WalletInfo{LoggedIn: manager.IsLoggedIn(), Locked: true}
	if manager.session != nil {
		info.Username = manager.session.Username
		info.Genesis = manager.session.Genesis
		info.Locked = manager.session.Locked
	}
	return info
}

// IsWalletInitialized reports whether a wallet was ever registered on this
// device, regardless of session state.
func (manager *Manager) IsWalletInitialized(ctx context.Context) (bool, error) {
	config, present, err := manager.store.LoadConfig(ctx)
	if err != nil {
		return false, WrapError(operationInitialize, "config", "load", err)
	}
	return present && config.Initialized, nil
}

// Register creates a master profile on the node, marks the local config as
// initialized, then creates a session for the same credentials. The two
// remote calls are sequential and not atomic: when profile creation succeeds
// but session creation fails, the wallet stays initialized with no active
// session and the caller retries Login.
func (manager *Manager) Register(ctx context.Context, username Username, password string, pin PIN) (WalletInfo, error) {
	if err := manager.requireClient(); err != nil {
		return WalletInfo{}, err
	}
	profile, err := manager.client.CreateProfile(ctx, username.String(), password, pin.String())
	if err != nil {
		manager.logOperation(ctx, OperationLog{Operation: operationRegister, Username: username.String(), Error: err})
		return WalletInfo{}, err
	}
	config := WalletConfig{
		Initialized:        true,
		Username:           username.String(),
		Genesis:            profile.Genesis,
		CreatedAtUnixMilli: manager.nowUnixMilli(),
	}
	if err := manager.store.SaveConfig(ctx, config); err != nil {
		wrapped := WrapError(operationRegister, "config", "save", err)
		manager.logOperation(ctx, OperationLog{Operation: operationRegister, Username: username.String(), Error: wrapped})
		return WalletInfo{}, wrapped
	}
	info, err := manager.createSession(ctx, operationRegister, username, password, pin)
	if err != nil {
		return WalletInfo{}, err
	}
	return info, nil
}

// Login creates a session for existing credentials and persists it locked.
func (manager *Manager) Login(ctx context.Context, username Username, password string, pin PIN) (WalletInfo, error) {
	if err := manager.requireClient(); err != nil {
		return WalletInfo{}, err
	}
	return manager.createSession(ctx, operationLogin, username, password, pin)
}

func (manager *Manager) createSession(ctx context.Context, operation string, username Username, password string, pin PIN) (WalletInfo, error) {
	result, err := manager.client.CreateSession(ctx, username.String(), password, pin.String())
	if err != nil {
		manager.logOperation(ctx, OperationLog{Operation: operation, Username: username.String(), Error: err})
		return WalletInfo{}, err
	}
	session := Session{
		Token:    result.Session,
		Genesis:  result.Genesis,
		Username: username.String(),
		Locked:   true,
	}
	manager.session = &session
	if err := manager.store.SaveSession(ctx, session); err != nil {
		wrapped := WrapError(operation, "session", "save", err)
		manager.logOperation(ctx, OperationLog{Operation: operation, Username: username.String(), Error: wrapped})
		return WalletInfo{}, wrapped
	}
	manager.logOperation(ctx, OperationLog{Operation: operation, Username: username.String()})
	return manager.Info(), nil
}

// Unlock asks the node to unlock the session for transactions and, on
// success, persists the cleared lock flag. The node is the authority on PIN
// correctness.
func (manager *Manager) Unlock(ctx context.Context, pin PIN) error {
	if manager.session == nil {
		return WrapError(operationUnlock, "session", "precondition", ErrNoActiveSession)
	}
	if err := manager.requireClient(); err != nil {
		return err
	}
	if err := manager.client.UnlockSession(ctx, pin.String(), manager.session.Token); err != nil {
		manager.logOperation(ctx, OperationLog{Operation: operationUnlock, Username: manager.session.Username, Error: err})
		return err
	}
	manager.session.Locked = false
	if err := manager.store.SaveSession(ctx, *manager.session); err != nil {
		wrapped := WrapError(operationUnlock, "session", "save", err)
		manager.logOperation(ctx, OperationLog{Operation: operationUnlock, Username: manager.session.Username, Error: wrapped})
		return wrapped
	}
	manager.logOperation(ctx, OperationLog{Operation: operationUnlock, Username: manager.session.Username})
	return nil
}

// Lock locks the session on the node and persists the lock flag. With no
// session it is a no-op rather than a failure.
func (manager *Manager) Lock(ctx context.Context, pin PIN) error {
	if manager.session == nil {
		return nil
	}
	if err := manager.requireClient(); err != nil {
		return err
	}
	if err := manager.client.LockSession(ctx, pin.String(), manager.session.Token); err != nil {
		manager.logOperation(ctx, OperationLog{Operation: operationLock, Username: manager.session.Username, Error: err})
		return err
	}
	manager.session.Locked = true
	if err := manager.store.SaveSession(ctx, *manager.session); err != nil {
		wrapped := WrapError(operationLock, "session", "save", err)
		manager.logOperation(ctx, OperationLog{Operation: operationLock, Username: manager.session.Username, Error: wrapped})
		return wrapped
	}
	manager.logOperation(ctx, OperationLog{Operation: operationLock, Username: manager.session.Username})
	return nil
}

// Logout terminates the session on the node best-effort, then clears the
// in-memory and persisted session. Local state always clears; remote and
// storage faults are reported in the LogoutReport, never as a failure.
func (manager *Manager) Logout(ctx context.Context) LogoutReport {
	report := LogoutReport{}
	username := ""
	if manager.session != nil {
		username = manager.session.Username
		if manager.client != nil {
			if err := manager.client.TerminateSession(ctx, manager.session.Token); err != nil {
				report.TerminateWarning = err
			}
		}
	}
	manager.session = nil
	if err := manager.store.ClearSession(ctx); err != nil {
		report.StorageWarning = WrapError(operationLogout, "session", "clear", err)
	}
	warning := report.TerminateWarning
	if warning == nil {
		warning = report.StorageWarning
	}
	manager.logOperation(ctx, OperationLog{Operation: operationLogout, Username: username, Warning: warning})
	return report
}

// UpdateEndpoint validates a new node URL against the transport-security
// policy, persists it, and rebinds the client so it takes effect immediately.
func (manager *Manager) UpdateEndpoint(ctx context.Context, rawEndpoint string) error {
	client, err := manager.dial(rawEndpoint)
	if err != nil {
		manager.logOperation(ctx, OperationLog{Operation: operationEndpoint, Error: err})
		return err
	}
	if err := manager.store.SaveEndpoint(ctx, rawEndpoint); err != nil {
		wrapped := WrapError(operationEndpoint, "endpoint", "save", err)
		manager.logOperation(ctx, OperationLog{Operation: operationEndpoint, Error: wrapped})
		return wrapped
	}
	manager.client = client
	manager.logOperation(ctx, OperationLog{Operation: operationEndpoint})
	return nil
}

// Endpoint returns the persisted node URL, falling back to the default.
func (manager *Manager) Endpoint(ctx context.Context) (string, error) {
	endpoint, present, err := manager.store.LoadEndpoint(ctx)
	if err != nil {
		return "", WrapError(operationEndpoint, "endpoint", "load", err)
	}
	if !present {
		return DefaultEndpoint, nil
	}
	return endpoint, nil
}

// RememberCredentials stores the login pair in the secret tier.
func (manager *Manager) RememberCredentials(ctx context.Context, credentials Credentials) error {
	if err := manager.secrets.SaveCredentials(ctx, credentialScope, credentials); err != nil {
		return WrapError(operationCredentials, "secret", "save", err)
	}
	return nil
}

// RecalledCredentials returns the stored login pair. A secret-tier read fault
// degrades to absence but is reported through the operation log so it stays
// distinguishable from a genuinely empty store.
func (manager *Manager) RecalledCredentials(ctx context.Context) (Credentials, bool) {
	credentials, present, err := manager.secrets.LoadCredentials(ctx, credentialScope)
	if err != nil {
		manager.logOperation(ctx, OperationLog{Operation: operationCredentials, Warning: err})
		return Credentials{}, false
	}
	return credentials, present
}

// ForgetCredentials erases the stored login pair.
func (manager *Manager) ForgetCredentials(ctx context.Context) error {
	if err := manager.secrets.EraseCredentials(ctx, credentialScope); err != nil {
		return WrapError(operationCredentials, "secret", "erase", err)
	}
	return nil
}

func (manager *Manager) requireClient() error {
	if manager.client == nil {
		return ErrNotInitialized
	}
	return nil
}

func (manager *Manager) requireSession(operation string) (*Session, error) {
	if err := manager.requireClient(); err != nil {
		return nil, err
	}
	if manager.session == nil {
		return nil, WrapError(operation, "session", "precondition", ErrNoActiveSession)
	}
	return manager.session, nil
}

func (manager *Manager) logOperation(ctx context.Context, entry OperationLog) {
	if manager.logger == nil {
		return
	}
	if entry.Status == "" {
		if entry.Error != nil {
			entry.Status = operationStatusError
		} else {
			entry.Status = operationStatusOK
		}
	}
	manager.logger.LogOperation(ctx, entry)
}
