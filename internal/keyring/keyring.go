// Package keyring stores registry credentials in the OS keychain. It wraps
// the zalando/go-keyring package with timeouts so a wedged keychain daemon
// cannot hang the CLI.
//
// Credentials are stored per registry host under one service name, as a
// small JSON record. Docker Hub entries use the "docker.io" key.
package keyring

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/zalando/go-keyring"
)

// serviceName is the keyring service identifier for all slipway entries.
const serviceName = "slipway"

// DefaultRegistryKey identifies Docker Hub entries when no registry host is
// given.
const DefaultRegistryKey = "docker.io"

var (
	// ErrNotFound is returned when no credential exists for the registry.
	ErrNotFound = errors.New("secret not found in keyring")

	// ErrInvalidSchema indicates the stored value could not be parsed into a
	// RegistryCredential (e.g. malformed JSON).
	ErrInvalidSchema = errors.New("credential data does not match expected schema")

	// ErrEmptyCredential indicates the keyring entry exists but is blank.
	ErrEmptyCredential = errors.New("credential is empty")
)

// TimeoutError is returned when a keyring operation exceeds the deadline.
type TimeoutError struct {
	message string
}

func (e *TimeoutError) Error() string {
	return e.message
}

// RegistryCredential is the JSON payload stored for one registry host.
type RegistryCredential struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// registryKey normalizes an empty registry to the Docker Hub key.
func registryKey(registry string) string {
	if registry == "" {
		return DefaultRegistryKey
	}
	return registry
}

// StoreRegistry saves credentials for a registry host.
func StoreRegistry(registry string, cred RegistryCredential) error {
	raw, err := json.Marshal(cred)
	if err != nil {
		return fmt.Errorf("encoding credential: %w", err)
	}
	return setSecret(serviceName, registryKey(registry), string(raw))
}

// LookupRegistry fetches the credentials stored for a registry host.
// Returns ErrNotFound when nothing is stored.
func LookupRegistry(registry string) (*RegistryCredential, error) {
	key := registryKey(registry)

	raw, err := getSecret(serviceName, key)
	if err != nil {
		return nil, err // ErrNotFound or *TimeoutError, pass through
	}

	if strings.TrimSpace(raw) == "" {
		return nil, fmt.Errorf("%w: registry %q", ErrEmptyCredential, key)
	}

	var cred RegistryCredential
	if err := json.Unmarshal([]byte(raw), &cred); err != nil {
		return nil, fmt.Errorf("%w: registry %q: %w", ErrInvalidSchema, key, err)
	}
	return &cred, nil
}

// EraseRegistry removes the credentials stored for a registry host.
func EraseRegistry(registry string) error {
	return deleteSecret(serviceName, registryKey(registry))
}

// setSecret stores a secret in the keyring for the given service and user.
func setSecret(service, user, secret string) error {
	ch := make(chan error, 1)
	go func() {
		defer close(ch)
		ch <- keyring.Set(service, user, secret)
	}()
	select {
	case err := <-ch:
		return err
	case <-time.After(3 * time.Second):
		return &TimeoutError{"timeout while trying to set secret in keyring"}
	}
}

// getSecret retrieves a secret from the keyring for the given service and user.
func getSecret(service, user string) (string, error) {
	ch := make(chan struct {
		val string
		err error
	}, 1)
	go func() {
		defer close(ch)
		val, err := keyring.Get(service, user)
		ch <- struct {
			val string
			err error
		}{val, err}
	}()
	select {
	case res := <-ch:
		if errors.Is(res.err, keyring.ErrNotFound) {
			return "", ErrNotFound
		}
		return res.val, res.err
	case <-time.After(3 * time.Second):
		return "", &TimeoutError{"timeout while trying to get secret from keyring"}
	}
}

// deleteSecret removes a secret from the keyring for the given service and user.
func deleteSecret(service, user string) error {
	ch := make(chan error, 1)
	go func() {
		defer close(ch)
		ch <- keyring.Delete(service, user)
	}()
	select {
	case err := <-ch:
		if errors.Is(err, keyring.ErrNotFound) {
			return ErrNotFound
		}
		return err
	case <-time.After(3 * time.Second):
		return &TimeoutError{"timeout while trying to delete secret from keyring"}
	}
}

// MockInit sets up an in-memory keyring backend for tests.
func MockInit() {
	keyring.MockInit()
}

// MockInitWithError sets up an in-memory keyring backend that returns err for every operation.
func MockInitWithError(err error) {
	keyring.MockInitWithError(err)
}
