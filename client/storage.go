package client

import (
	"encoding/json"
	"os"
	"sync"
)

// Storage keys used by the SDK.
const (
	KeyAccessToken    = "access_token"
	KeyRefreshToken   = "refresh_token"
	KeyUser           = "user"
	KeyOrganizationID = "organization_id"
	KeyQueryHistory   = "query_history"
	KeyTheme          = "theme"
	KeySettingsView   = "settings_view_mode"
)

// TokenStore is the injected persistence behind a session: tokens, the cached
// user and UI preferences. Implementations must be safe for concurrent use.
type TokenStore interface {
	Get(key string) (string, bool)
	Set(key, value string)
	Delete(key string)
}

// MemoryStore keeps session state in memory, gone when the process exits.
type MemoryStore struct {
	mu     sync.RWMutex
	values map[string]string
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{values: make(map[string]string)}
}

func (s *MemoryStore) Get(key string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.values[key]
	return v, ok
}

func (s *MemoryStore) Set(key, value string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = value
}

func (s *MemoryStore) Delete(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.values, key)
}

// FileStore persists session state as a JSON file, for CLI-style consumers
// that want sessions to survive restarts.
type FileStore struct {
	mu     sync.Mutex
	path   string
	values map[string]string
}

func NewFileStore(path string) (*FileStore, error) {
	s := &FileStore{path: path, values: make(map[string]string)}
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return s, nil
	}
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(data, &s.values); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *FileStore) Get(key string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.values[key]
	return v, ok
}

func (s *FileStore) Set(key, value string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = value
	s.flush()
}

func (s *FileStore) Delete(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.values, key)
	s.flush()
}

func (s *FileStore) flush() {
	data, err := json.MarshalIndent(s.values, "", "  ")
	if err != nil {
		return
	}
	_ = os.WriteFile(s.path, data, 0o600)
}
