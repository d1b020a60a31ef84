package keystore

import (
	"context"
	"os"
	"testing"

	"github.com/distordia/walletcore/pkg/wallet"
)

const testScope = "com.distordia.wallet.credentials"

func newTestStore(test *testing.T, passphrase string) *Store {
	test.Helper()
	store, err := New(test.TempDir(), []byte(passphrase))
	if err != nil {
		test.Fatalf("keystore init: %v", err)
	}
	return store
}

func TestCredentialsRoundTrip(test *testing.T) {
	test.Parallel()
	store := newTestStore(test, "correct horse")
	ctx := context.Background()

	if _, present, err := store.LoadCredentials(ctx, testScope); err != nil || present {
		test.Fatalf("expected absent credentials, got present=%v err=%v", present, err)
	}

	stored := wallet.Credentials{Username: "alice", Secret: "hunter2"}
	if err := store.SaveCredentials(ctx, testScope, stored); err != nil {
		test.Fatalf("save: %v", err)
	}
	loaded, present, err := store.LoadCredentials(ctx, testScope)
	if err != nil || !present {
		test.Fatalf("load: present=%v err=%v", present, err)
	}
	if loaded != stored {
		test.Fatalf("unexpected credentials: %+v", loaded)
	}
}

func TestWrongPassphraseIsAnErrorNotAbsence(test *testing.T) {
	test.Parallel()
	directory := test.TempDir()
	writer, err := New(directory, []byte("correct horse"))
	if err != nil {
		test.Fatalf("keystore init: %v", err)
	}
	ctx := context.Background()
	if err := writer.SaveCredentials(ctx, testScope, wallet.Credentials{Username: "alice", Secret: "hunter2"}); err != nil {
		test.Fatalf("save: %v", err)
	}

	reader, err := New(directory, []byte("battery staple"))
	if err != nil {
		test.Fatalf("keystore init: %v", err)
	}
	_, present, err := reader.LoadCredentials(ctx, testScope)
	if err == nil {
		test.Fatalf("expected unseal error")
	}
	if present {
		test.Fatalf("expected not-present on unseal failure")
	}
}

func TestEraseCredentialsRemovesFile(test *testing.T) {
	test.Parallel()
	store := newTestStore(test, "correct horse")
	ctx := context.Background()

	if err := store.SaveCredentials(ctx, testScope, wallet.Credentials{Username: "alice", Secret: "hunter2"}); err != nil {
		test.Fatalf("save: %v", err)
	}
	if err := store.EraseCredentials(ctx, testScope); err != nil {
		test.Fatalf("erase: %v", err)
	}
	if _, err := os.Stat(store.path(testScope)); !os.IsNotExist(err) {
		test.Fatalf("expected file removed, got %v", err)
	}
	// Erasing again is a no-op.
	if err := store.EraseCredentials(ctx, testScope); err != nil {
		test.Fatalf("second erase: %v", err)
	}
}

func TestCiphertextDiffersPerWrite(test *testing.T) {
	test.Parallel()
	store := newTestStore(test, "correct horse")
	ctx := context.Background()
	credentials := wallet.Credentials{Username: "alice", Secret: "hunter2"}

	if err := store.SaveCredentials(ctx, testScope, credentials); err != nil {
		test.Fatalf("save: %v", err)
	}
	first, err := os.ReadFile(store.path(testScope))
	if err != nil {
		test.Fatalf("read: %v", err)
	}
	if err := store.SaveCredentials(ctx, testScope, credentials); err != nil {
		test.Fatalf("second save: %v", err)
	}
	second, err := os.ReadFile(store.path(testScope))
	if err != nil {
		test.Fatalf("read: %v", err)
	}
	if string(first) == string(second) {
		test.Fatalf("expected fresh salt and nonce per write")
	}
}
