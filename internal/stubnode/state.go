package stubnode

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/distordia/walletcore/pkg/nexus"
)

type profileState struct {
	username  string
	password  string
	pin       string
	genesis   string
	createdAt time.Time
	accounts  map[string]*accountState
	// transactions per account name, newest first.
	transactions map[string][]nexus.Transaction
}

type accountState struct {
	owner   *profileState
	name    string
	address string
	token   string
	balance decimal.Decimal
}

type sessionState struct {
	genesis  string
	username string
	unlocked bool
	accessed time.Time
}

func (profile *profileState) view(account *accountState) nexus.Account {
	return nexus.Account{
		Name:    account.name,
		Address: account.address,
		Balance: account.balance,
		Token:   account.token,
	}
}

func (profile *profileState) recordTransaction(accountName string, transaction nexus.Transaction) {
	profile.transactions[accountName] = append([]nexus.Transaction{transaction}, profile.transactions[accountName]...)
}

func newAddress() string {
	return "8" + uuid.NewString()
}

func newTxID() string {
	return "01" + uuid.NewString()
}
