package auth

import (
	"os"
	"time"
)

// Environment variables carrying a credential pair directly, for scripts
// and CI where the keychain and encrypted store are unavailable.
const (
	EnvAccessToken  = "JIKECLI_ACCESS_TOKEN"
	EnvRefreshToken = "JIKECLI_REFRESH_TOKEN"
)

// EnvironmentStore implements CredentialStore using environment variables
type EnvironmentStore struct{}

// NewEnvironmentStore creates a new environment-based credential store
func NewEnvironmentStore() *EnvironmentStore {
	return &EnvironmentStore{}
}

// Store is not supported for environment variables
func (e *EnvironmentStore) Store(account *Account) error {
	return ErrStoreUnavailable
}

// Retrieve gets credentials from environment variables
func (e *EnvironmentStore) Retrieve(alias string) (*Account, error) {
	accessToken := os.Getenv(EnvAccessToken)
	refreshToken := os.Getenv(EnvRefreshToken)

	if accessToken == "" || refreshToken == "" {
		return nil, ErrCredentialsNotFound
	}

	// Environment variables don't carry an alias, so we use "default" or the provided one
	if alias == "" {
		alias = "default"
	}

	return &Account{
		Alias: alias,
		Tokens: TokenPair{
			AccessToken:  accessToken,
			RefreshToken: refreshToken,
		},
		LastModified: time.Now(),
	}, nil
}

// List returns a single account if environment variables are set
func (e *EnvironmentStore) List() ([]*Account, error) {
	account, err := e.Retrieve("")
	if err != nil {
		return []*Account{}, nil
	}
	return []*Account{account}, nil
}

// Delete is not supported for environment variables
func (e *EnvironmentStore) Delete(alias string) error {
	return ErrStoreUnavailable
}

// Exists checks if environment credentials exist
func (e *EnvironmentStore) Exists(alias string) bool {
	return os.Getenv(EnvAccessToken) != "" && os.Getenv(EnvRefreshToken) != ""
}
