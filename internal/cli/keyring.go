package cli

import (
	"errors"

	"github.com/zalando/go-keyring"
)

const (
	defaultKeyringService = "lenderhub"
	sessionAccount        = "session"
)

var ErrNotLoggedIn = errors.New("not logged in")

// TokenStore keeps the session token in the OS keychain.
type TokenStore struct {
	service string
}

func NewTokenStore(service string) *TokenStore {
	if service == "" {
		service = defaultKeyringService
	}
	return &TokenStore{service: service}
}

func (s *TokenStore) Save(token string) error {
	return keyring.Set(s.service, sessionAccount, token)
}

func (s *TokenStore) Load() (string, error) {
	token, err := keyring.Get(s.service, sessionAccount)
	if errors.Is(err, keyring.ErrNotFound) {
		return "", ErrNotLoggedIn
	}
	return token, err
}

// Clear removes the stored token. Clearing an empty keychain is not an error.
func (s *TokenStore) Clear() error {
	err := keyring.Delete(s.service, sessionAccount)
	if errors.Is(err, keyring.ErrNotFound) {
		return nil
	}
	return err
}
