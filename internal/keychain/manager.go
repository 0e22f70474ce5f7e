// Copyright (c) 2025 SQLPilot
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package keychain provides centralized, thread-safe keychain operations for sqlpilot.
// It stores the model API key, and optionally a database URL used for schema
// extraction, in the OS credential store so neither has to live in a
// plain-text config file.
//
// Supported backends are macOS Keychain, Windows Credential Manager, the
// Secret Service API and KWallet on Linux, and pass as a fallback.
package keychain

import (
	"errors"
	"runtime"
	"sync"

	"github.com/99designs/keyring"
)

// Global keychain manager instance
var (
	globalManager *Manager
	globalError   error
	mu            sync.Mutex
)

// ErrNotFound is returned when a key has no stored value.
var ErrNotFound = errors.New("not found in keychain")

// Manager provides centralized, thread-safe operations for the OS keychain.
type Manager struct {
	mu   sync.RWMutex
	ring keyring.Keyring
}

// ServiceName identifies our keychain/credential store namespace.
const ServiceName = "sqlpilot"

// Keys used for storing secrets in the OS keychain.
const (
	KeyAPIKey = "api_key"
	KeyDBURL  = "db_url"
)

// NewManager creates a new keychain manager with the OS keyring initialized.
func NewManager() (*Manager, error) {
	ring, err := openRing()
	if err != nil {
		return nil, err
	}
	return &Manager{ring: ring}, nil
}

// NewManagerWithRing wraps an already opened keyring.
func NewManagerWithRing(ring keyring.Keyring) *Manager {
	return &Manager{ring: ring}
}

// GetManager returns the global keychain manager instance.
// If not initialized, it will be created on first call.
// If initialization fails, it will retry on subsequent calls.
func GetManager() (*Manager, error) {
	mu.Lock()
	defer mu.Unlock()

	if globalManager != nil {
		return globalManager, nil
	}

	globalManager, globalError = NewManager()
	if globalError != nil {
		return nil, globalError
	}

	return globalManager, nil
}

// openRing opens the OS keyring using native platform backends only.
// No encrypted-file fallback is offered.
func openRing() (keyring.Keyring, error) {
	var allowedBackends []keyring.BackendType
	switch runtime.GOOS {
	case "darwin":
		allowedBackends = []keyring.BackendType{keyring.KeychainBackend, keyring.PassBackend}
	case "windows":
		allowedBackends = []keyring.BackendType{keyring.WinCredBackend}
	case "linux", "freebsd", "openbsd":
		allowedBackends = []keyring.BackendType{
			keyring.SecretServiceBackend,
			keyring.KWalletBackend,
			keyring.PassBackend,
		}
	default:
		return nil, errors.New("secure storage not supported on this OS")
	}

	cfg := keyring.Config{
		ServiceName:              ServiceName,
		AllowedBackends:          allowedBackends,
		PassPrefix:               ServiceName,
		KeychainTrustApplication: true,
		LibSecretCollectionName:  ServiceName,
		KWalletAppID:             ServiceName,
		KWalletFolder:            ServiceName,
	}
	if runtime.GOOS == "windows" {
		cfg.WinCredPrefix = ServiceName
	}

	ring, err := keyring.Open(cfg)
	if err != nil {
		if runtime.GOOS == "linux" {
			return nil, errors.New("no keyring available; install gnome-keyring, KWallet or pass, or set SQLPILOT_API_KEY instead")
		}
		return nil, err
	}
	return ring, nil
}

// SaveAPIKey stores the model API key.
// This method is thread-safe.
func (m *Manager) SaveAPIKey(key string) error {
	return m.set(KeyAPIKey, key)
}

// LoadAPIKey retrieves the model API key.
// This method is thread-safe.
func (m *Manager) LoadAPIKey() (string, error) {
	return m.get(KeyAPIKey)
}

// ClearAPIKey removes the stored API key.
// This method is thread-safe.
func (m *Manager) ClearAPIKey() error {
	return m.remove(KeyAPIKey)
}

// SaveDBURL stores the database URL used by schema extraction.
// This method is thread-safe.
func (m *Manager) SaveDBURL(url string) error {
	return m.set(KeyDBURL, url)
}

// LoadDBURL retrieves the stored database URL.
// This method is thread-safe.
func (m *Manager) LoadDBURL() (string, error) {
	return m.get(KeyDBURL)
}

// ClearAll removes all secrets from the keychain.
// This method is thread-safe and should be used with caution.
func (m *Manager) ClearAll() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	_ = m.ring.Remove(KeyAPIKey)
	_ = m.ring.Remove(KeyDBURL)
	return nil
}

func (m *Manager) set(key, value string) error {
	if value == "" {
		return errors.New("refusing to store an empty value")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.ring.Set(keyring.Item{Key: key, Data: []byte(value), Label: ServiceName + " " + key})
}

func (m *Manager) get(key string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	it, err := m.ring.Get(key)
	if err != nil {
		if errors.Is(err, keyring.ErrKeyNotFound) {
			return "", ErrNotFound
		}
		return "", err
	}
	if len(it.Data) == 0 {
		return "", ErrNotFound
	}
	return string(it.Data), nil
}

func (m *Manager) remove(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.ring.Remove(key); err != nil && !errors.Is(err, keyring.ErrKeyNotFound) {
		return err
	}
	return nil
}
