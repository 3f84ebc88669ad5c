// Package credentials decides which registry identity a release uses and
// whether an explicit login must precede the push.
//
// Resolution is pure decision logic: no network calls, no session
// validation. The environment is injected as a lookup function so the
// decision is made once, from one snapshot of the inputs.
package credentials

import (
	"errors"
	"fmt"
	"os"

	"github.com/schmitthub/slipway/internal/keyring"
)

// Environment fallbacks consulted when the flags are absent.
const (
	EnvUsername = "DOCKER_USERNAME"
	EnvPassword = "DOCKER_PASSWORD"
)

// ErrIncompleteCredentials is returned when exactly one of username and
// password was supplied. Half an identity can neither log in nor fall back
// to the daemon session, so it fails before any build work starts.
var ErrIncompleteCredentials = errors.New("incomplete registry credentials")

// Credentials is the resolved registry identity for one release.
type Credentials struct {
	Username string
	Password string
	Registry string // empty means Docker Hub
}

// Options are the inputs merged by Resolve.
type Options struct {
	// Username and Password come from the CLI flags.
	Username string
	Password string

	// Registry is the target registry host, empty for Docker Hub.
	Registry string

	// UseKeychain injects values stored by "slipway auth login" at flag
	// precedence: explicit flags still win, the environment no longer does.
	UseKeychain bool

	// LookupEnv is the environment lookup. Defaults to os.LookupEnv.
	LookupEnv func(string) (string, bool)

	// LookupKeychain fetches the stored record for a registry. Defaults to
	// the OS keychain; tests inject a fake.
	LookupKeychain func(registry string) (*keyring.RegistryCredential, error)
}

// Resolve merges flag, environment, and keychain credentials into one
// identity and reports whether a login must precede the push.
//
// Both parts present: login required. Neither present: login skipped, the
// push rides on whatever session the Docker daemon already holds. Exactly
// one present: ErrIncompleteCredentials (wrapped with the missing part).
func Resolve(opts Options) (Credentials, bool, error) {
	lookupEnv := opts.LookupEnv
	if lookupEnv == nil {
		lookupEnv = os.LookupEnv
	}

	username := opts.Username
	password := opts.Password

	if opts.UseKeychain {
		lookupKeychain := opts.LookupKeychain
		if lookupKeychain == nil {
			lookupKeychain = keyring.LookupRegistry
		}

		stored, err := lookupKeychain(opts.Registry)
		if err != nil {
			return Credentials{}, false, fmt.Errorf("reading keychain credentials: %w", err)
		}
		if username == "" {
			username = stored.Username
		}
		if password == "" {
			password = stored.Password
		}
	}

	if username == "" {
		if v, ok := lookupEnv(EnvUsername); ok {
			username = v
		}
	}
	if password == "" {
		if v, ok := lookupEnv(EnvPassword); ok {
			password = v
		}
	}

	creds := Credentials{
		Username: username,
		Password: password,
		Registry: opts.Registry,
	}

	switch {
	case username != "" && password != "":
		return creds, true, nil
	case username == "" && password == "":
		return creds, false, nil
	case username == "":
		return Credentials{}, false, fmt.Errorf("%w: username is missing", ErrIncompleteCredentials)
	default:
		return Credentials{}, false, fmt.Errorf("%w: password is missing", ErrIncompleteCredentials)
	}
}
