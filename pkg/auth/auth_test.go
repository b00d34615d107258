package auth

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memoryStore is an in-memory CredentialStore for exercising the manager
type memoryStore struct {
	accounts map[string]*Account
	failing  bool
}

func newMemoryStore() *memoryStore {
	return &memoryStore{accounts: make(map[string]*Account)}
}

func (m *memoryStore) Store(account *Account) error {
	if m.failing {
		return ErrStoreUnavailable
	}
	copy := *account
	m.accounts[account.Username] = &copy
	return nil
}

func (m *memoryStore) Retrieve(username string) (*Account, error) {
	if m.failing {
		return nil, ErrStoreUnavailable
	}
	account, ok := m.accounts[username]
	if !ok {
		return nil, ErrCredentialsNotFound
	}
	return account, nil
}

func (m *memoryStore) List() ([]*Account, error) {
	if m.failing {
		return nil, ErrStoreUnavailable
	}
	var out []*Account
	for _, a := range m.accounts {
		out = append(out, a)
	}
	return out, nil
}

func (m *memoryStore) Delete(username string) error {
	if m.failing {
		return ErrStoreUnavailable
	}
	if _, ok := m.accounts[username]; !ok {
		return ErrCredentialsNotFound
	}
	delete(m.accounts, username)
	return nil
}

func (m *memoryStore) Exists(username string) bool {
	_, ok := m.accounts[username]
	return ok
}

func TestManagerStoreAndRetrieve(t *testing.T) {
	store := newMemoryStore()
	m := NewManagerWithStores(store)

	account := &Account{Username: "alice", Cookie: "cookie-value"}
	require.NoError(t, m.Store(account))
	assert.False(t, account.LastModified.IsZero())

	got, err := m.Retrieve("alice")
	require.NoError(t, err)
	assert.Equal(t, "cookie-value", got.Cookie)
}

func TestManagerStoreValidation(t *testing.T) {
	m := NewManagerWithStores(newMemoryStore())

	assert.Error(t, m.Store(&Account{Cookie: "x"}))
	assert.Error(t, m.Store(&Account{Username: "alice"}))
}

func TestManagerFallsThroughFailingStore(t *testing.T) {
	broken := newMemoryStore()
	broken.failing = true
	working := newMemoryStore()

	m := NewManagerWithStores(broken, working)

	require.NoError(t, m.Store(&Account{Username: "alice", Cookie: "c"}))
	assert.True(t, working.Exists("alice"))

	got, err := m.Retrieve("alice")
	require.NoError(t, err)
	assert.Equal(t, "c", got.Cookie)
}

func TestManagerListPrefersNewest(t *testing.T) {
	older := newMemoryStore()
	older.accounts["alice"] = &Account{Username: "alice", Cookie: "old", LastModified: time.Now().Add(-time.Hour)}
	newer := newMemoryStore()
	newer.accounts["alice"] = &Account{Username: "alice", Cookie: "new", LastModified: time.Now()}

	m := NewManagerWithStores(older, newer)

	accounts, err := m.List()
	require.NoError(t, err)
	require.Len(t, accounts, 1)
	assert.Equal(t, "new", accounts[0].Cookie)
}

func TestManagerDelete(t *testing.T) {
	store := newMemoryStore()
	m := NewManagerWithStores(store)

	require.NoError(t, m.Store(&Account{Username: "alice", Cookie: "c"}))
	require.NoError(t, m.Delete("alice"))
	assert.Error(t, m.Delete("alice"))
}

func TestManagerRetrieveDefaultPrefersEnvironment(t *testing.T) {
	t.Setenv("FRIENDTRACK_COOKIE", "env-cookie")

	stored := newMemoryStore()
	stored.accounts["alice"] = &Account{Username: "alice", Cookie: "stored"}

	m := NewManagerWithStores(stored, NewEnvironmentStore())

	got, err := m.RetrieveDefault()
	require.NoError(t, err)
	assert.Equal(t, "env-cookie", got.Cookie)
}

func TestEnvironmentStore(t *testing.T) {
	t.Setenv("FRIENDTRACK_COOKIE", "env-cookie")
	t.Setenv("FRIENDTRACK_USER_AGENT", "custom-agent")

	store := NewEnvironmentStore()
	assert.True(t, store.Exists(""))

	account, err := store.Retrieve("")
	require.NoError(t, err)
	assert.Equal(t, "default", account.Username)
	assert.Equal(t, "env-cookie", account.Cookie)
	assert.Equal(t, "custom-agent", account.UserAgent)

	assert.ErrorIs(t, store.Store(account), ErrStoreUnavailable)
	assert.ErrorIs(t, store.Delete("default"), ErrStoreUnavailable)
}

func TestEnvironmentStoreEmpty(t *testing.T) {
	t.Setenv("FRIENDTRACK_COOKIE", "")

	store := NewEnvironmentStore()
	_, err := store.Retrieve("")
	assert.ErrorIs(t, err, ErrCredentialsNotFound)
	assert.False(t, store.Exists(""))
}

func TestCookieFileStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cookie")
	store := NewCookieFileStore(path)

	_, err := store.Retrieve("")
	assert.ErrorIs(t, err, ErrCredentialsNotFound)

	require.NoError(t, store.Store(&Account{Username: "alice", Cookie: "file-cookie\n"}))

	account, err := store.Retrieve("alice")
	require.NoError(t, err)
	// Retrieve trims whitespace so a trailing newline in the file is harmless
	assert.Equal(t, "file-cookie", account.Cookie)
	assert.Equal(t, "alice", account.Username)

	accounts, err := store.List()
	require.NoError(t, err)
	assert.Len(t, accounts, 1)

	require.NoError(t, store.Delete("alice"))
	assert.False(t, store.Exists("alice"))
}

func TestEncryptedFileStoreRoundTrip(t *testing.T) {
	t.Setenv("FRIENDTRACK_PASSPHRASE", "test-passphrase")

	path := filepath.Join(t.TempDir(), "credentials.enc")
	store, err := NewEncryptedFileStore(path)
	require.NoError(t, err)

	account := &Account{Username: "alice", Cookie: "secret-cookie", LastModified: time.Now()}
	require.NoError(t, store.Store(account))

	// A fresh store with the same passphrase can read it back
	store2, err := NewEncryptedFileStore(path)
	require.NoError(t, err)

	got, err := store2.Retrieve("alice")
	require.NoError(t, err)
	assert.Equal(t, "secret-cookie", got.Cookie)

	accounts, err := store2.List()
	require.NoError(t, err)
	assert.Len(t, accounts, 1)
}

func TestEncryptedFileStoreWrongPassphrase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "credentials.enc")

	t.Setenv("FRIENDTRACK_PASSPHRASE", "right")
	store, err := NewEncryptedFileStore(path)
	require.NoError(t, err)
	require.NoError(t, store.Store(&Account{Username: "alice", Cookie: "secret"}))

	t.Setenv("FRIENDTRACK_PASSPHRASE", "wrong")
	store2, err := NewEncryptedFileStore(path)
	require.NoError(t, err)

	_, err = store2.Retrieve("alice")
	assert.Error(t, err)
}

func TestEncryptedFileStoreDeleteLastRemovesFile(t *testing.T) {
	t.Setenv("FRIENDTRACK_PASSPHRASE", "p")

	path := filepath.Join(t.TempDir(), "credentials.enc")
	store, err := NewEncryptedFileStore(path)
	require.NoError(t, err)

	require.NoError(t, store.Store(&Account{Username: "alice", Cookie: "c"}))
	require.NoError(t, store.Delete("alice"))

	assert.NoFileExists(t, path)
}

func TestSanitizeAccount(t *testing.T) {
	account := &Account{Username: "alice", Cookie: "ABCDEFGHIJKLMNOPQRSTUVWXYZ"}

	sanitized := SanitizeAccount(account)
	assert.Equal(t, "ABCD...WXYZ", sanitized.Cookie)
	assert.Equal(t, "alice", sanitized.Username)
	// Original untouched
	assert.Equal(t, "ABCDEFGHIJKLMNOPQRSTUVWXYZ", account.Cookie)

	assert.Nil(t, SanitizeAccount(nil))
	assert.Equal(t, "********", SanitizeAccount(&Account{Username: "a", Cookie: "short"}).Cookie)
}
