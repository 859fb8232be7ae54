package jira

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/phuslu/log"
)

// ErrLoginFailed reports a credential rejected by the remote service. The
// stale session file has already been removed when this is returned.
var ErrLoginFailed = errors.New("login failed")

// sessionFileMode is the only permission mode a session file may carry.
// A file readable by anyone else is treated as absent.
const sessionFileMode fs.FileMode = 0o600

// Session acquires and caches the authentication credential across runs.
// The credential is base64("user:password"), stored verbatim in an
// owner-only file and validated once per run against the remote session
// endpoint.
type Session struct {
	client   *Client
	path     string
	user     string
	password string

	// PromptPassword reads a password interactively when none was
	// supplied. Injected so tests run without a terminal.
	PromptPassword func() (string, error)
}

// NewSession creates a session manager storing its credential at path.
func NewSession(client *Client, path, user, password string) *Session {
	return &Session{
		client:   client,
		path:     path,
		user:     user,
		password: password,
	}
}

// Ensure returns a validated credential, reusing the cached session file
// when possible. The credential is installed on the client, validated with
// a single session call, and rewritten to the cache file with owner-only
// permissions. A rejected credential deletes the cache file and returns
// ErrLoginFailed; there is no retry.
func (s *Session) Ensure(ctx context.Context) (string, error) {
	token, err := s.load()
	if err != nil {
		return "", err
	}
	if token == "" {
		token, err = s.derive()
		if err != nil {
			return "", err
		}
	}

	s.client.SetToken(token)
	if err := s.client.CheckSession(ctx); err != nil {
		if IsAuthError(err) {
			if rmErr := os.Remove(s.path); rmErr != nil && !os.IsNotExist(rmErr) {
				log.Warn().Err(rmErr).Str("path", s.path).Msg("could not remove session file")
			}
			return "", ErrLoginFailed
		}
		return "", err
	}

	if err := s.store(token); err != nil {
		return "", err
	}
	return token, nil
}

// load reads the cached credential, returning "" when no usable cache
// exists. A session file with loose permissions is deleted and ignored.
func (s *Session) load() (string, error) {
	info, err := os.Stat(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", fmt.Errorf("checking session file: %w", err)
	}

	if info.Mode().Perm() != sessionFileMode {
		log.Warn().Str("path", s.path).Stringer("mode", info.Mode().Perm()).
			Msg("session file is not mode 0600, forcing new session")
		if err := os.Remove(s.path); err != nil {
			return "", fmt.Errorf("removing insecure session file: %w", err)
		}
		return "", nil
	}

	data, err := os.ReadFile(s.path)
	if err != nil {
		return "", fmt.Errorf("reading session file: %w", err)
	}
	log.Debug().Str("path", s.path).Msg("read auth token")
	return string(data), nil
}

// derive builds a fresh credential from user and password, prompting for
// the password when it was not supplied.
func (s *Session) derive() (string, error) {
	if s.user == "" {
		return "", errors.New("a user is required to authenticate")
	}
	password := s.password
	if password == "" {
		if s.PromptPassword == nil {
			return "", errors.New("a password is required to authenticate")
		}
		var err error
		password, err = s.PromptPassword()
		if err != nil {
			return "", fmt.Errorf("reading password: %w", err)
		}
	}
	log.Debug().Str("user", s.user).Msg("make auth token")
	return base64.StdEncoding.EncodeToString([]byte(s.user + ":" + password)), nil
}

// store writes the credential and re-applies the restricted mode, even
// when the token came from the same file.
func (s *Session) store(token string) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("creating session dir: %w", err)
	}
	if err := os.WriteFile(s.path, []byte(token), sessionFileMode); err != nil {
		return fmt.Errorf("writing session file: %w", err)
	}
	// WriteFile keeps an existing file's mode, so re-apply it.
	if err := os.Chmod(s.path, sessionFileMode); err != nil {
		return fmt.Errorf("restricting session file: %w", err)
	}
	return nil
}
