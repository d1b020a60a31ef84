// Package keystore implements the wallet's secret tier: one encrypted
// credentials file per service scope, sealed with AES-GCM under a
// scrypt-derived key.
package keystore

import (
	"context"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/crypto/scrypt"

	"github.com/distordia/walletcore/pkg/wallet"
)

// scrypt parameters sized for interactive use on mobile-class devices.
const (
	scryptN      = 1 << 15
	scryptR      = 8
	scryptP      = 1
	scryptKeyLen = 32
	saltLen      = 32
	nonceLen     = 12

	fileSuffix = ".cred"
	fileMode   = 0o600
	dirMode    = 0o700
)

var errCiphertextTooShort = errors.New("ciphertext too short")

// Store keeps encrypted credential files under a base directory.
type Store struct {
	baseDir    string
	passphrase []byte
}

// New prepares a Store rooted at baseDir. The passphrase seals and unseals
// every credential file.
func New(baseDir string, passphrase []byte) (*Store, error) {
	if len(passphrase) == 0 {
		return nil, wrapKeystoreError("passphrase", "empty", errors.New("passphrase is required"))
	}
	if err := os.MkdirAll(baseDir, dirMode); err != nil {
		return nil, wrapKeystoreError("directory", "create", err)
	}
	return &Store{baseDir: baseDir, passphrase: passphrase}, nil
}

// SaveCredentials seals the pair and writes it to the scope's file.
func (store *Store) SaveCredentials(_ context.Context, service string, credentials wallet.Credentials) error {
	plaintext, err := json.Marshal(credentials)
	if err != nil {
		return wrapKeystoreError(service, "encode", err)
	}
	sealed, err := store.seal(plaintext)
	if err != nil {
		return wrapKeystoreError(service, "seal", err)
	}
	if err := os.WriteFile(store.path(service), sealed, fileMode); err != nil {
		return wrapKeystoreError(service, "write", err)
	}
	return nil
}

// LoadCredentials unseals the scope's file. A missing file is absence; a
// read or decryption failure is an error, not absence. Callers decide how
// to degrade.
func (store *Store) LoadCredentials(_ context.Context, service string) (wallet.Credentials, bool, error) {
	sealed, err := os.ReadFile(store.path(service))
	if errors.Is(err, os.ErrNotExist) {
		return wallet.Credentials{}, false, nil
	}
	if err != nil {
		return wallet.Credentials{}, false, wrapKeystoreError(service, "read", err)
	}
	plaintext, err := store.unseal(sealed)
	if err != nil {
		return wallet.Credentials{}, false, wrapKeystoreError(service, "unseal", err)
	}
	var credentials wallet.Credentials
	if err := json.Unmarshal(plaintext, &credentials); err != nil {
		return wallet.Credentials{}, false, wrapKeystoreError(service, "decode", err)
	}
	return credentials, true, nil
}

// EraseCredentials overwrites the scope's file with zeros before removing
// it. Erasing an absent scope is not an error.
func (store *Store) EraseCredentials(_ context.Context, service string) error {
	path := store.path(service)
	info, err := os.Stat(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return wrapKeystoreError(service, "stat", err)
	}
	if err := os.WriteFile(path, make([]byte, info.Size()), fileMode); err != nil {
		return wrapKeystoreError(service, "overwrite", err)
	}
	if err := os.Remove(path); err != nil {
		return wrapKeystoreError(service, "remove", err)
	}
	return nil
}

// seal produces salt || nonce || ciphertext.
func (store *Store) seal(plaintext []byte) ([]byte, error) {
	salt := make([]byte, saltLen)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return nil, err
	}
	gcm, err := store.cipherFor(salt)
	if err != nil {
		return nil, err
	}
	nonce := make([]byte, nonceLen)
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, err
	}
	sealed := make([]byte, 0, saltLen+nonceLen+len(plaintext)+gcm.Overhead())
	sealed = append(sealed, salt...)
	sealed = append(sealed, nonce...)
	return gcm.Seal(sealed, nonce, plaintext, nil), nil
}

func (store *Store) unseal(sealed []byte) ([]byte, error) {
	if len(sealed) < saltLen+nonceLen {
		return nil, errCiphertextTooShort
	}
	gcm, err := store.cipherFor(sealed[:saltLen])
	if err != nil {
		return nil, err
	}
	nonce := sealed[saltLen : saltLen+nonceLen]
	return gcm.Open(nil, nonce, sealed[saltLen+nonceLen:], nil)
}

func (store *Store) cipherFor(salt []byte) (cipher.AEAD, error) {
	key, err := scrypt.Key(store.passphrase, salt, scryptN, scryptR, scryptP, scryptKeyLen)
	if err != nil {
		return nil, err
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}

func (store *Store) path(service string) string {
	sanitized := strings.Map(func(character rune) rune {
		switch {
		case character >= 'a' && character <= 'z',
			character >= 'A' && character <= 'Z',
			character >= '0' && character <= '9',
			character == '.', character == '-', character == '_':
			return character
		default:
			return '_'
		}
	}, service)
	return filepath.Join(store.baseDir, sanitized+fileSuffix)
}

func wrapKeystoreError(subject string, code string, err error) error {
	if err == nil {
		return nil
	}
	return wallet.WrapError("keystore", subject, code, fmt.Errorf("keystore: %w", err))
}
