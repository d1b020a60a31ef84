// Package kvstore implements the wallet's plain-tier persistence as JSON
// documents in a single-file sqlite database.
package kvstore

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"

	"github.com/distordia/walletcore/pkg/nexus"
	"github.com/distordia/walletcore/pkg/wallet"
)

// Logical keys. Values are JSON-encoded.
const (
	keySession      = "wallet_session"
	keyConfig       = "wallet_config"
	keyEndpoint     = "node_url"
	keyTransactions = "transactions"
	keyAccounts     = "account_data"
)

const (
	errorOperationStore = "store"
	errorCodeOpen       = "open"
	errorCodeMigrate    = "migrate"
	errorCodeGet        = "get"
	errorCodeSet        = "set"
	errorCodeRemove     = "remove"
	errorCodeDecode     = "decode"
	errorCodeEncode     = "encode"
)

// Store implements wallet.Store over gorm.
type Store struct {
	db *gorm.DB
}

// Open opens (creating if needed) the sqlite database at path and migrates
// the schema.
func Open(path string) (*Store, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, wrapStoreError("database", errorCodeOpen, err)
	}
	if err := db.AutoMigrate(&Record{}); err != nil {
		return nil, wrapStoreError("database", errorCodeMigrate, err)
	}
	return New(db), nil
}

// New returns a Store backed by gorm.DB.
func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

// Close releases the underlying database handle.
func (store *Store) Close() error {
	database, err := store.db.DB()
	if err != nil {
		return wrapStoreError("database", errorCodeOpen, err)
	}
	return database.Close()
}

func (store *Store) set(ctx context.Context, key string, value any) error {
	encoded, err := json.Marshal(value)
	if err != nil {
		return wrapStoreError(key, errorCodeEncode, err)
	}
	record := Record{Key: key, Value: encoded, UpdatedAt: time.Now().UTC()}
	err = store.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "key"}},
			UpdateAll: true,
		}).
		Create(&record).Error
	if err != nil {
		return wrapStoreError(key, errorCodeSet, err)
	}
	return nil
}

// get decodes the value under key into destination. Absence is reported via
// the bool, never as an error.
func (store *Store) get(ctx context.Context, key string, destination any) (bool, error) {
	var record Record
	err := store.db.WithContext(ctx).First(&record, "key = ?", key).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		return false, wrapStoreError(key, errorCodeGet, err)
	}
	if err := json.Unmarshal(record.Value, destination); err != nil {
		return false, wrapStoreError(key, errorCodeDecode, err)
	}
	return true, nil
}

func (store *Store) remove(ctx context.Context, key string) error {
	if err := store.db.WithContext(ctx).Delete(&Record{}, "key = ?", key).Error; err != nil {
		return wrapStoreError(key, errorCodeRemove, err)
	}
	return nil
}

// SaveSession persists the session record.
func (store *Store) SaveSession(ctx context.Context, session wallet.Session) error {
	return store.set(ctx, keySession, session)
}

// LoadSession returns the persisted session, if any.
func (store *Store) LoadSession(ctx context.Context) (wallet.Session, bool, error) {
	var session wallet.Session
	present, err := store.get(ctx, keySession, &session)
	return session, present, err
}

// ClearSession overwrites the stored session with an empty marker before
// deleting the key, a best-effort secure erase.
func (store *Store) ClearSession(ctx context.Context) error {
	if err := store.set(ctx, keySession, json.RawMessage("null")); err != nil {
		return err
	}
	return store.remove(ctx, keySession)
}

// SaveConfig persists the wallet config marker.
func (store *Store) SaveConfig(ctx context.Context, config wallet.WalletConfig) error {
	return store.set(ctx, keyConfig, config)
}

// LoadConfig returns the persisted wallet config, if any.
func (store *Store) LoadConfig(ctx context.Context) (wallet.WalletConfig, bool, error) {
	var config wallet.WalletConfig
	present, err := store.get(ctx, keyConfig, &config)
	return config, present, err
}

// SaveEndpoint persists the node URL.
func (store *Store) SaveEndpoint(ctx context.Context, endpoint string) error {
	return store.set(ctx, keyEndpoint, endpoint)
}

// LoadEndpoint returns the persisted node URL, if any.
func (store *Store) LoadEndpoint(ctx context.Context) (string, bool, error) {
	var endpoint string
	present, err := store.get(ctx, keyEndpoint, &endpoint)
	return endpoint, present, err
}

// SaveTransactions replaces the cached transaction list.
func (store *Store) SaveTransactions(ctx context.Context, transactions []nexus.Transaction) error {
	return store.set(ctx, keyTransactions, transactions)
}

// LoadTransactions returns the cached transaction list, if any.
func (store *Store) LoadTransactions(ctx context.Context) ([]nexus.Transaction, bool, error) {
	var transactions []nexus.Transaction
	present, err := store.get(ctx, keyTransactions, &transactions)
	return transactions, present, err
}

// SaveAccounts replaces the cached account listing.
func (store *Store) SaveAccounts(ctx context.Context, accounts []nexus.Account) error {
	return store.set(ctx, keyAccounts, accounts)
}

// LoadAccounts returns the cached account listing, if any.
func (store *Store) LoadAccounts(ctx context.Context) ([]nexus.Account, bool, error) {
	var accounts []nexus.Account
	present, err := store.get(ctx, keyAccounts, &accounts)
	return accounts, present, err
}

func wrapStoreError(subject string, code string, err error) error {
	return wallet.WrapError(errorOperationStore, subject, code, err)
}
