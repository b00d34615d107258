// Package auth stores and retrieves Roblox session credentials. The Manager
// layers several backends: the system keychain when available, an encrypted
// file under the config directory, a plain cookie file kept for compatibility
// with older setups, and the FRIENDTRACK_COOKIE environment variable.
package auth

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"
)

// Account represents a Roblox account's session credentials
type Account struct {
	Username     string    `json:"username"`
	Cookie       string    `json:"cookie"`
	UserAgent    string    `json:"user_agent,omitempty"`
	LastModified time.Time `json:"last_modified"`
}

// CredentialStore is the interface for storing and retrieving credentials
type CredentialStore interface {
	// Store saves credentials for a given account
	Store(account *Account) error

	// Retrieve gets credentials for a specific username
	Retrieve(username string) (*Account, error)

	// List returns all stored accounts
	List() ([]*Account, error)

	// Delete removes credentials for a specific username
	Delete(username string) error

	// Exists checks if credentials exist for a username
	Exists(username string) bool
}

// Manager handles credential storage with fallback mechanisms
type Manager struct {
	stores []CredentialStore
}

// NewManager creates a credential manager with the available storage backends
func NewManager() (*Manager, error) {
	var stores []CredentialStore

	// Try keyring first (system keychain)
	keyringStore, err := NewKeyringStore()
	if err == nil {
		stores = append(stores, keyringStore)
	}

	// Always add encrypted file store as fallback
	configDir, err := getConfigDir()
	if err != nil {
		return nil, fmt.Errorf("failed to get config directory: %w", err)
	}

	encryptedStore, err := NewEncryptedFileStore(filepath.Join(configDir, "credentials.enc"))
	if err != nil {
		return nil, fmt.Errorf("failed to create encrypted store: %w", err)
	}
	stores = append(stores, encryptedStore)

	// Plain cookie file, read-compatible with older trackers
	stores = append(stores, NewCookieFileStore(filepath.Join(configDir, "cookie")))

	// Environment store as last resort
	stores = append(stores, NewEnvironmentStore())

	return &Manager{stores: stores}, nil
}

// NewManagerWithStores creates a manager over an explicit store chain
func NewManagerWithStores(stores ...CredentialStore) *Manager {
	return &Manager{stores: stores}
}

// Store saves credentials using the first store that accepts them
func (m *Manager) Store(account *Account) error {
	if account.Username == "" {
		return errors.New("username is required")
	}
	if account.Cookie == "" {
		return errors.New("session cookie is required")
	}

	account.LastModified = time.Now()

	var lastErr error
	for _, store := range m.stores {
		if err := store.Store(account); err == nil {
			return nil
		} else {
			lastErr = err
		}
	}

	if lastErr != nil {
		return fmt.Errorf("failed to store credentials: %w", lastErr)
	}
	return errors.New("no available credential stores")
}

// Retrieve gets credentials from the first store that has them
func (m *Manager) Retrieve(username string) (*Account, error) {
	for _, store := range m.stores {
		if account, err := store.Retrieve(username); err == nil && account != nil {
			return account, nil
		}
	}
	return nil, fmt.Errorf("credentials not found for user: %s", username)
}

// RetrieveDefault gets credentials for the first available account, with the
// environment variable taking precedence so one-off runs can override the
// stored session.
func (m *Manager) RetrieveDefault() (*Account, error) {
	for _, store := range m.stores {
		if envStore, ok := store.(*EnvironmentStore); ok {
			if account, err := envStore.Retrieve(""); err == nil && account != nil {
				return account, nil
			}
		}
	}

	accounts, err := m.List()
	if err == nil && len(accounts) > 0 {
		return accounts[0], nil
	}

	return nil, ErrCredentialsNotFound
}

// List returns all stored accounts from all stores
func (m *Manager) List() ([]*Account, error) {
	accountMap := make(map[string]*Account)

	for _, store := range m.stores {
		accounts, err := store.List()
		if err != nil {
			continue
		}
		for _, account := range accounts {
			// Use the most recently modified version
			if existing, ok := accountMap[account.Username]; !ok || account.LastModified.After(existing.LastModified) {
				accountMap[account.Username] = account
			}
		}
	}

	var result []*Account
	for _, account := range accountMap {
		result = append(result, account)
	}

	return result, nil
}

// Delete removes credentials from all stores
func (m *Manager) Delete(username string) error {
	var deleted bool
	var lastErr error

	for _, store := range m.stores {
		if err := store.Delete(username); err == nil {
			deleted = true
		} else {
			lastErr = err
		}
	}

	if !deleted && lastErr != nil {
		return fmt.Errorf("failed to delete credentials: %w", lastErr)
	}
	if !deleted {
		return fmt.Errorf("credentials not found for user: %s", username)
	}

	return nil
}

// DeleteAll removes all stored credentials
func (m *Manager) DeleteAll() error {
	accounts, err := m.List()
	if err != nil {
		return err
	}

	for _, account := range accounts {
		_ = m.Delete(account.Username)
	}

	return nil
}

// getConfigDir returns the configuration directory path
func getConfigDir() (string, error) {
	var configDir string

	switch runtime.GOOS {
	case "darwin":
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		configDir = filepath.Join(home, "Library", "Application Support", "friendtrack")
	case "windows":
		configDir = filepath.Join(os.Getenv("APPDATA"), "friendtrack")
	default: // Linux and others
		if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
			configDir = filepath.Join(xdgConfig, "friendtrack")
		} else {
			home, err := os.UserHomeDir()
			if err != nil {
				return "", err
			}
			configDir = filepath.Join(home, ".config", "friendtrack")
		}
	}

	if err := os.MkdirAll(configDir, 0700); err != nil {
		return "", fmt.Errorf("failed to create config directory: %w", err)
	}

	return configDir, nil
}

// SanitizeAccount creates a copy of the account with the cookie masked
func SanitizeAccount(account *Account) *Account {
	if account == nil {
		return nil
	}

	return &Account{
		Username:     account.Username,
		Cookie:       maskString(account.Cookie),
		UserAgent:    account.UserAgent,
		LastModified: account.LastModified,
	}
}

// maskString masks all but the first 4 and last 4 characters of a string
func maskString(s string) string {
	if len(s) <= 8 {
		return "********"
	}
	return s[:4] + "..." + s[len(s)-4:]
}

// Errors
var (
	ErrCredentialsNotFound = errors.New("credentials not found")
	ErrInvalidCredentials  = errors.New("invalid credentials")
	ErrStoreUnavailable    = errors.New("credential store unavailable")
)
