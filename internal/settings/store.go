// Package settings persists the node's network and protocol settings as
// key/value pairs in one namespace.
package settings

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/pelletier/go-toml/v2"
)

// Keys in the lightnode namespace.
const (
	KeySSID     = "ssid"
	KeyPassword = "password"
	KeyAPSSID   = "ap_ssid"
	KeyUniverse = "universe"
	KeyNetMode  = "netmode"
)

// Namespace is the TOML table all keys live under.
const Namespace = "lightnode"

// ErrEmptyKey is returned by Put for an empty key.
var ErrEmptyKey = errors.New("settings: empty key")

// Store is a persistent string key/value store.
type Store interface {
	Get(key, fallback string) string
	Put(key, value string) error
}

// file is the on-disk layout.
type file struct {
	Values map[string]string `toml:"lightnode"`
}

// TOMLStore keeps values in a TOML file. All methods are safe for
// concurrent use; every Put rewrites the file.
type TOMLStore struct {
	path   string
	mu     sync.RWMutex
	values map[string]string
}

// NewTOML creates a store backed by path. Call Load before use.
func NewTOML(path string) *TOMLStore {
	if path == "" {
		path = "settings.toml"
	}
	return &TOMLStore{
		path:   path,
		values: make(map[string]string),
	}
}

// Path returns the backing file.
func (s *TOMLStore) Path() string {
	return s.path
}

// Load reads the file. A missing file leaves the store empty.
func (s *TOMLStore) Load() error {
	values, err := readFile(s.path)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.values = values
	s.mu.Unlock()
	return nil
}

// Reload is Load under the name used by the file watcher.
func (s *TOMLStore) Reload() error {
	return s.Load()
}

// Get returns the value for key or fallback when unset.
func (s *TOMLStore) Get(key, fallback string) string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if v, ok := s.values[key]; ok {
		return v
	}
	return fallback
}

// Put stores value under key and writes the file.
func (s *TOMLStore) Put(key, value string) error {
	if key == "" {
		return ErrEmptyKey
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	prev, had := s.values[key]
	s.values[key] = value
	if err := s.save(); err != nil {
		if had {
			s.values[key] = prev
		} else {
			delete(s.values, key)
		}
		return err
	}
	return nil
}

// Keys returns the stored keys in sorted order.
func (s *TOMLStore) Keys() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	keys := make([]string, 0, len(s.values))
	for k := range s.values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func (s *TOMLStore) save() error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create settings directory: %w", err)
	}

	data, err := toml.Marshal(file{Values: s.values})
	if err != nil {
		return fmt.Errorf("failed to marshal settings: %w", err)
	}

	// Write then rename so readers never see a truncated file.
	tmp := s.path + ".tmp"
	if writeErr := os.WriteFile(tmp, data, 0o600); writeErr != nil {
		return fmt.Errorf("failed to write settings: %w", writeErr)
	}
	if renameErr := os.Rename(tmp, s.path); renameErr != nil {
		return fmt.Errorf("failed to replace settings: %w", renameErr)
	}
	return nil
}

func readFile(path string) (map[string]string, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return make(map[string]string), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read settings: %w", err)
	}

	var f file
	if unmarshalErr := toml.Unmarshal(data, &f); unmarshalErr != nil {
		return nil, fmt.Errorf("failed to parse settings: %w", unmarshalErr)
	}
	if f.Values == nil {
		f.Values = make(map[string]string)
	}
	return f.Values, nil
}

// MemoryStore is an in-memory Store for tests and dry runs.
type MemoryStore struct {
	mu     sync.RWMutex
	values map[string]string
}

// NewMemory creates an empty in-memory store.
func NewMemory() *MemoryStore {
	return &MemoryStore{values: make(map[string]string)}
}

// Get returns the value for key or fallback when unset.
func (m *MemoryStore) Get(key, fallback string) string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if v, ok := m.values[key]; ok {
		return v
	}
	return fallback
}

// Put stores value under key.
func (m *MemoryStore) Put(key, value string) error {
	if key == "" {
		return ErrEmptyKey
	}
	m.mu.Lock()
	m.values[key] = value
	m.mu.Unlock()
	return nil
}
