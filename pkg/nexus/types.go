package nexus

import "github.com/shopspring/decimal"

// SessionResult is returned by session creation.
type SessionResult struct {
	Session string `json:"session"`
	Genesis string `json:"genesis"`
}

// SessionStatus mirrors the sessions/status/local payload.
type SessionStatus struct {
	Genesis  string `json:"genesis"`
	Accessed int64  `json:"accessed"`
	Unlocked struct {
		Transactions  bool `json:"transactions"`
		Notifications bool `json:"notifications"`
	} `json:"unlocked"`
}

// ProfileResult is returned by profile creation.
type ProfileResult struct {
	TxID    string `json:"txid"`
	Genesis string `json:"genesis"`
}

// Profile mirrors the profiles/get/master payload.
type Profile struct {
	Genesis   string `json:"genesis"`
	Owner     string `json:"owner"`
	Recovery  bool   `json:"recovery"`
	Crypto    bool   `json:"crypto"`
	CreatedAt int64  `json:"created"`
}

// Account is the node-side view of a wallet account. The client never mutates
// it, only fetches and caches it.
type Account struct {
	Name    string          `json:"name,omitempty"`
	Address string          `json:"address"`
	Balance decimal.Decimal `json:"balance"`
	Token   string          `json:"token"`
}

// TokenBalance mirrors one entry of the finance/get/balances payload.
type TokenBalance struct {
	Token     string          `json:"token"`
	Available decimal.Decimal `json:"available"`
	Pending   decimal.Decimal `json:"pending"`
	Unclaimed decimal.Decimal `json:"unclaimed"`
}

// Transaction is one immutable observed ledger movement. Amount is signed:
// positive incoming, negative outgoing.
type Transaction struct {
	TxID      string          `json:"txid"`
	Type      string          `json:"type"`
	Timestamp int64           `json:"timestamp"`
	Amount    decimal.Decimal `json:"amount"`
	From      string          `json:"from,omitempty"`
	To        string          `json:"to,omitempty"`
	Reference string          `json:"reference,omitempty"`
}

// DebitResult is returned by debit and credit submissions.
type DebitResult struct {
	TxID string `json:"txid"`
}

// CreateAccountResult is returned by account creation.
type CreateAccountResult struct {
	TxID    string `json:"txid"`
	Address string `json:"address"`
}

// SystemInfo mirrors the system/get/info payload.
type SystemInfo struct {
	Version     string `json:"version"`
	Blocks      int64  `json:"blocks"`
	Connections int    `json:"connections"`
	Testnet     bool   `json:"testnet"`
}
