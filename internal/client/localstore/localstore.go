/*
Package localstore is the client's persistent key/value store, the terminal counterpart of browser
local storage. It keeps the session token between runs.
*/
package localstore

import (
	"errors"
	"fmt"
	"os"

	"github.com/cockroachdb/pebble"
	"github.com/cockroachdb/pebble/vfs"

	"echospace/internal/pkg/logx"
)

// TokenKey is the key the session token is stored under.
const TokenKey = "echospace.token"

// ErrNotFound is returned by Get for a missing key.
var ErrNotFound = errors.New("key not found")

type Store struct {
	db *pebble.DB
}

// Open opens (creating if needed) the store in dir.
func Open(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	return open(dir, &pebble.Options{})
}

// OpenInMemory returns a store that lives only as long as the process.
func OpenInMemory() (*Store, error) {
	return open("", &pebble.Options{FS: vfs.NewMem()})
}

func open(dir string, opts *pebble.Options) (*Store, error) {
	opts.Logger = pebbleLogger{}

	db, err := pebble.Open(dir, opts)
	if err != nil {
		return nil, fmt.Errorf("open local store: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Store) Get(key string) (string, error) {
	v, closer, err := s.db.Get([]byte(key))
	if err != nil {
		if errors.Is(err, pebble.ErrNotFound) {
			return "", ErrNotFound
		}
		return "", err
	}
	defer closer.Close()

	// v is only valid until closer.Close.
	return string(v), nil
}

func (s *Store) Set(key, value string) error {
	return s.db.Set([]byte(key), []byte(value), pebble.Sync)
}

// Delete removes key. Deleting a missing key is not an error.
func (s *Store) Delete(key string) error {
	return s.db.Delete([]byte(key), pebble.Sync)
}

// Token returns the stored session token, or "" when none is stored.
func (s *Store) Token() (string, error) {
	token, err := s.Get(TokenKey)
	if errors.Is(err, ErrNotFound) {
		return "", nil
	}
	return token, err
}

func (s *Store) SetToken(token string) error {
	return s.Set(TokenKey, token)
}

func (s *Store) ClearToken() error {
	return s.Delete(TokenKey)
}

// pebbleLogger routes pebble output through logx, informational lines at debug level.
type pebbleLogger struct{}

func (pebbleLogger) Infof(format string, args ...interface{}) {
	logx.Logger().Debug().Str("component", "pebble").Msgf(format, args...)
}

func (pebbleLogger) Errorf(format string, args ...interface{}) {
	logx.Logger().Error().Str("component", "pebble").Msgf(format, args...)
}

func (pebbleLogger) Fatalf(format string, args ...interface{}) {
	logx.Logger().Fatal().Str("component", "pebble").Msgf(format, args...)
}
