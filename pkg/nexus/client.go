// Package nexus is a stateless client for a Nexus-style node API: every
// procedure is a JSON body POSTed to {endpoint}/{procedure}, success payloads
// arrive in a "result" envelope and failures in an "error" object.
package nexus

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"
	"os"
	"time"

	"github.com/shopspring/decimal"
)

// RequestTimeout bounds every procedure call. A timeout surfaces as a
// TransportError with Timeout() true.
const RequestTimeout = 30 * time.Second

// Procedure names exposed by the node.
const (
	ProcedureCreateSession    = "sessions/create/local"
	ProcedureTerminateSession = "sessions/terminate/local"
	ProcedureUnlockSession    = "sessions/unlock/local"
	ProcedureLockSession      = "sessions/lock/local"
	ProcedureSessionStatus    = "sessions/status/local"
	ProcedureCreateProfile    = "profiles/create/master"
	ProcedureGetProfile       = "profiles/get/master"
	ProcedureGetAccount       = "finance/get/account"
	ProcedureListAccounts     = "finance/list/account"
	ProcedureGetBalances      = "finance/get/balances"
	ProcedureCreateAccount    = "finance/create/account"
	ProcedureDebitAccount     = "finance/debit/account"
	ProcedureCreditAccount    = "finance/credit/account"
	ProcedureTransactions     = "finance/transactions/account"
	ProcedureSystemInfo       = "system/get/info"
)

// Client issues procedure calls against one configured node endpoint. It is
// stateless beyond the bound endpoint; no retries are performed here.
type Client struct {
	endpoint   string
	httpClient *http.Client
}

// NewClient validates the endpoint per the transport-security policy and
// returns a client bound to it.
func NewClient(rawEndpoint string) (*Client, error) {
	endpoint, err := ValidateEndpoint(rawEndpoint)
	if err != nil {
		return nil, err
	}
	return &Client{
		endpoint:   endpoint,
		httpClient: &http.Client{Timeout: RequestTimeout},
	}, nil
}

// Endpoint returns the bound endpoint.
func (client *Client) Endpoint() string {
	return client.endpoint
}

type errorEnvelope struct {
	Result json.RawMessage `json:"result"`
	Error  *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// Invoke POSTs params as a JSON body to {endpoint}/{procedure}. A node-reported
// error object becomes a RemoteError, a network or timeout fault a
// TransportError. The "result" envelope is unwrapped when present, otherwise
// the raw body is returned.
func (client *Client) Invoke(ctx context.Context, procedure string, params any) (json.RawMessage, error) {
	if params == nil {
		params = struct{}{}
	}
	body, err := json.Marshal(params)
	if err != nil {
		return nil, &TransportError{procedure: procedure, err: err}
	}
	request, err := http.NewRequestWithContext(ctx, http.MethodPost, client.endpoint+"/"+procedure, bytes.NewReader(body))
	if err != nil {
		return nil, &TransportError{procedure: procedure, err: err}
	}
	request.Header.Set("Content-Type", "application/json")

	response, err := client.httpClient.Do(request)
	if err != nil {
		return nil, &TransportError{procedure: procedure, timeout: isTimeout(err), err: err}
	}
	defer func() { _ = response.Body.Close() }()

	payload, err := io.ReadAll(response.Body)
	if err != nil {
		return nil, &TransportError{procedure: procedure, timeout: isTimeout(err), err: err}
	}

	var envelope errorEnvelope
	if json.Unmarshal(payload, &envelope) == nil && envelope.Error != nil {
		return nil, &RemoteError{procedure: procedure, message: envelope.Error.Message}
	}
	if response.StatusCode < http.StatusOK || response.StatusCode >= http.StatusMultipleChoices {
		return nil, &TransportError{procedure: procedure, err: errors.New(response.Status)}
	}
	if len(envelope.Result) > 0 {
		return envelope.Result, nil
	}
	return payload, nil
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, os.ErrDeadlineExceeded) {
		return true
	}
	var urlError *url.Error
	return errors.As(err, &urlError) && urlError.Timeout()
}

func (client *Client) invokeInto(ctx context.Context, procedure string, params any, destination any) error {
	payload, err := client.Invoke(ctx, procedure, params)
	if err != nil {
		return err
	}
	if destination == nil {
		return nil
	}
	if err := json.Unmarshal(payload, destination); err != nil {
		return &TransportError{procedure: procedure, err: err}
	}
	return nil
}

// CreateSession authenticates the profile credentials and returns a session.
func (client *Client) CreateSession(ctx context.Context, username string, password string, pin string) (SessionResult, error) {
	var result SessionResult
	err := client.invokeInto(ctx, ProcedureCreateSession, map[string]any{
		"username": username,
		"password": password,
		"pin":      pin,
	}, &result)
	return result, err
}

// TerminateSession ends the session on the node.
func (client *Client) TerminateSession(ctx context.Context, session string) error {
	return client.invokeInto(ctx, ProcedureTerminateSession, map[string]any{"session": session}, nil)
}

// UnlockSession unlocks the session for transactions and notifications. The
// node, not this client, decides whether the PIN is correct.
func (client *Client) UnlockSession(ctx context.Context, pin string, session string) error {
	return client.invokeInto(ctx, ProcedureUnlockSession, map[string]any{
		"pin":           pin,
		"session":       session,
		"notifications": true,
		"transactions":  true,
	}, nil)
}

// LockSession locks the session against transactions and notifications.
func (client *Client) LockSession(ctx context.Context, pin string, session string) error {
	return client.invokeInto(ctx, ProcedureLockSession, map[string]any{
		"pin":           pin,
		"session":       session,
		"notifications": false,
		"transactions":  false,
	}, nil)
}

// SessionStatus fetches the node-side session state.
func (client *Client) SessionStatus(ctx context.Context, session string) (SessionStatus, error) {
	var status SessionStatus
	err := client.invokeInto(ctx, ProcedureSessionStatus, map[string]any{"session": session}, &status)
	return status, err
}

// CreateProfile registers a new master profile.
func (client *Client) CreateProfile(ctx context.Context, username string, password string, pin string) (ProfileResult, error) {
	var result ProfileResult
	err := client.invokeInto(ctx, ProcedureCreateProfile, map[string]any{
		"username": username,
		"password": password,
		"pin":      pin,
	}, &result)
	return result, err
}

// GetProfile fetches the master profile for the session.
func (client *Client) GetProfile(ctx context.Context, session string) (Profile, error) {
	var profile Profile
	err := client.invokeInto(ctx, ProcedureGetProfile, map[string]any{"session": session}, &profile)
	return profile, err
}

// GetAccount fetches one account by local name.
func (client *Client) GetAccount(ctx context.Context, name string, session string) (Account, error) {
	var account Account
	err := client.invokeInto(ctx, ProcedureGetAccount, map[string]any{
		"name":    name,
		"session": session,
	}, &account)
	return account, err
}

// ListAccounts fetches every account owned by the session's profile.
func (client *Client) ListAccounts(ctx context.Context, session string) ([]Account, error) {
	var accounts []Account
	err := client.invokeInto(ctx, ProcedureListAccounts, map[string]any{"session": session}, &accounts)
	return accounts, err
}

// GetBalances fetches per-token balance summaries.
func (client *Client) GetBalances(ctx context.Context, session string) ([]TokenBalance, error) {
	var balances []TokenBalance
	err := client.invokeInto(ctx, ProcedureGetBalances, map[string]any{"session": session}, &balances)
	return balances, err
}

// CreateAccount creates a new token account. Name is optional.
func (client *Client) CreateAccount(ctx context.Context, name string, token string, pin string, session string) (CreateAccountResult, error) {
	params := map[string]any{
		"token":   token,
		"session": session,
		"pin":     pin,
	}
	if name != "" {
		params["name"] = name
	}
	var result CreateAccountResult
	err := client.invokeInto(ctx, ProcedureCreateAccount, params, &result)
	return result, err
}

// DebitAccount submits a transfer from a named account to a receiving
// address. An empty reference is omitted from the request.
func (client *Client) DebitAccount(ctx context.Context, from string, amount decimal.Decimal, to string, pin string, reference string, session string) (DebitResult, error) {
	params := map[string]any{
		"pin":     pin,
		"session": session,
		"from":    from,
		// The node expects a bare JSON number, not decimal's quoted form.
		"amount": json.Number(amount.String()),
		"to":     to,
	}
	if reference != "" {
		params["reference"] = reference
	}
	var result DebitResult
	err := client.invokeInto(ctx, ProcedureDebitAccount, params, &result)
	return result, err
}

// CreditAccount claims an incoming debit by transaction id.
func (client *Client) CreditAccount(ctx context.Context, txid string, pin string, session string) (DebitResult, error) {
	var result DebitResult
	err := client.invokeInto(ctx, ProcedureCreditAccount, map[string]any{
		"pin":     pin,
		"session": session,
		"txid":    txid,
	}, &result)
	return result, err
}

// ListTransactions fetches the most recent transactions for an account,
// newest first.
func (client *Client) ListTransactions(ctx context.Context, name string, session string, limit int) ([]Transaction, error) {
	var transactions []Transaction
	err := client.invokeInto(ctx, ProcedureTransactions, map[string]any{
		"name":    name,
		"session": session,
		"limit":   limit,
		"sort":    "timestamp",
		"order":   "desc",
	}, &transactions)
	return transactions, err
}

// GetSystemInfo fetches node version and chain state. No session is required.
func (client *Client) GetSystemInfo(ctx context.Context) (SystemInfo, error) {
	var info SystemInfo
	err := client.invokeInto(ctx, ProcedureSystemInfo, nil, &info)
	return info, err
}
