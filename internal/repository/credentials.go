package repository

import (
	"fmt"
	"strings"

	"github.com/zalando/go-keyring"
)

const (
	// Service name in the OS credential store.
	credentialService = "secrules"
	// Key under which the GitHub Personal Access Token is stored.
	githubTokenKey = "github_pat"
)

// CredentialManager stores the upstream Personal Access Token in the OS
// credential store (Keychain, Credential Manager, Secret Service). Tokens
// never touch the config file or the log.
type CredentialManager struct {
	service string
}

func NewCredentialManager() *CredentialManager {
	return &CredentialManager{service: credentialService}
}

// StoreToken validates and saves a Personal Access Token, replacing any
// previously stored one.
func (cm *CredentialManager) StoreToken(token string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return fmt.Errorf("token cannot be empty")
	}
	if err := validateTokenFormat(token); err != nil {
		return fmt.Errorf("invalid token format: %w", err)
	}
	if err := keyring.Set(cm.service, githubTokenKey, token); err != nil {
		return fmt.Errorf("cannot store token in credential store: %w", err)
	}
	return nil
}

// Token returns the stored Personal Access Token.
func (cm *CredentialManager) Token() (string, error) {
	token, err := keyring.Get(cm.service, githubTokenKey)
	if err != nil {
		if err == keyring.ErrNotFound {
			return "", fmt.Errorf("no token stored: run 'secrules token set' first")
		}
		return "", fmt.Errorf("cannot read token from credential store: %w", err)
	}
	if strings.TrimSpace(token) == "" {
		return "", fmt.Errorf("stored token is empty: run 'secrules token set' again")
	}
	return token, nil
}

// HasToken reports whether a token is stored, without returning it.
func (cm *CredentialManager) HasToken() bool {
	_, err := keyring.Get(cm.service, githubTokenKey)
	return err == nil
}

// DeleteToken removes the stored token. Deleting a token that does not
// exist is not an error.
func (cm *CredentialManager) DeleteToken() error {
	err := keyring.Delete(cm.service, githubTokenKey)
	if err != nil && err != keyring.ErrNotFound {
		return fmt.Errorf("cannot delete token from credential store: %w", err)
	}
	return nil
}

// MaskToken renders a token safe for display, keeping only the prefix and
// the last four characters.
func MaskToken(token string) string {
	token = strings.TrimSpace(token)
	if len(token) <= 8 {
		return strings.Repeat("*", len(token))
	}
	return token[:4] + strings.Repeat("*", len(token)-8) + token[len(token)-4:]
}

// validateTokenFormat checks the token against known GitHub PAT shapes:
// ghp_ (classic), github_pat_ (fine-grained), gho_/ghu_/ghs_ (OAuth and
// app tokens).
func validateTokenFormat(token string) error {
	if len(token) < 20 {
		return fmt.Errorf("token too short (minimum 20 characters)")
	}

	for _, prefix := range []string{"ghp_", "github_pat_", "gho_", "ghu_", "ghs_"} {
		if strings.HasPrefix(token, prefix) {
			return nil
		}
	}
	return fmt.Errorf("token does not look like a GitHub Personal Access Token (expected a ghp_ or github_pat_ prefix)")
}
