package keyring

import (
	"errors"
	"fmt"

	"github.com/99designs/keyring"
	"github.com/saransh1220/procurement-console/internal/modules/auth/domain"
)

const (
	serviceName = "procurement-console"
	tokenKey    = "bearer-token"
)

// CredentialStore keeps the bearer token in the system keyring.
type CredentialStore struct {
	ring keyring.Keyring
}

// Open configures a keyring, falling back to an encrypted file under
// ~/.config/procurement-console when no system backend is available.
func Open() (*CredentialStore, error) {
	ring, err := keyring.Open(keyring.Config{
		ServiceName: serviceName,
		AllowedBackends: []keyring.BackendType{
			keyring.KeychainBackend,
			keyring.SecretServiceBackend,
			keyring.WinCredBackend,
			keyring.PassBackend,
			keyring.FileBackend,
		},
		FileDir:                  "~/.config/procurement-console/credentials",
		FilePasswordFunc:         keyring.FixedStringPrompt("procurement-console-file-key"),
		KeychainTrustApplication: true,
	})
	if err != nil {
		return nil, fmt.Errorf("opening keyring: %w", err)
	}
	return NewCredentialStore(ring), nil
}

func NewCredentialStore(ring keyring.Keyring) *CredentialStore {
	return &CredentialStore{ring: ring}
}

func (s *CredentialStore) Get() (string, error) {
	item, err := s.ring.Get(tokenKey)
	if errors.Is(err, keyring.ErrKeyNotFound) {
		return "", domain.ErrCredentialNotFound
	}
	if err != nil {
		return "", fmt.Errorf("getting credential: %w", err)
	}
	return string(item.Data), nil
}

func (s *CredentialStore) Set(token string) error {
	err := s.ring.Set(keyring.Item{
		Key:   tokenKey,
		Data:  []byte(token),
		Label: "Procurement console bearer token",
	})
	if err != nil {
		return fmt.Errorf("setting credential: %w", err)
	}
	return nil
}

func (s *CredentialStore) Delete() error {
	err := s.ring.Remove(tokenKey)
	if errors.Is(err, keyring.ErrKeyNotFound) {
		return domain.ErrCredentialNotFound
	}
	if err != nil {
		return fmt.Errorf("deleting credential: %w", err)
	}
	return nil
}
