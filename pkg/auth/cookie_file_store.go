package auth

import (
	"fmt"
	"os"
	"strings"
	"time"
)

// CookieFileStore implements CredentialStore over a plain text cookie file,
// read-compatible with older trackers that kept the .ROBLOSECURITY value in a
// single file. The file holds one cookie and knows nothing about usernames,
// so Retrieve ignores the username argument.
type CookieFileStore struct {
	filepath string
}

// NewCookieFileStore creates a cookie-file credential store
func NewCookieFileStore(filePath string) *CookieFileStore {
	return &CookieFileStore{filepath: filePath}
}

// Store writes the cookie to the file. Callers must only reach this store
// after the user consented to an on-disk plain text copy.
func (c *CookieFileStore) Store(account *Account) error {
	if account == nil || account.Cookie == "" {
		return ErrInvalidCredentials
	}

	if err := os.WriteFile(c.filepath, []byte(account.Cookie), 0600); err != nil {
		return fmt.Errorf("failed to write cookie file: %w", err)
	}

	return nil
}

// Retrieve reads the cookie from the file
func (c *CookieFileStore) Retrieve(username string) (*Account, error) {
	content, err := os.ReadFile(c.filepath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrCredentialsNotFound
		}
		return nil, fmt.Errorf("failed to read cookie file: %w", err)
	}

	cookie := strings.TrimSpace(string(content))
	if cookie == "" {
		return nil, ErrCredentialsNotFound
	}

	if username == "" {
		username = "default"
	}

	info, _ := os.Stat(c.filepath)
	modified := time.Now()
	if info != nil {
		modified = info.ModTime()
	}

	return &Account{
		Username:     username,
		Cookie:       cookie,
		LastModified: modified,
	}, nil
}

// List returns the single account if the cookie file exists
func (c *CookieFileStore) List() ([]*Account, error) {
	account, err := c.Retrieve("")
	if err != nil {
		return []*Account{}, nil
	}
	return []*Account{account}, nil
}

// Delete removes the cookie file
func (c *CookieFileStore) Delete(username string) error {
	err := os.Remove(c.filepath)
	if os.IsNotExist(err) {
		return ErrCredentialsNotFound
	}
	return err
}

// Exists checks if the cookie file holds a cookie
func (c *CookieFileStore) Exists(username string) bool {
	account, err := c.Retrieve(username)
	return err == nil && account != nil
}
