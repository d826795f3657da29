package contestclient

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/Injamhossan/contest-arena/internal/domain"
)

// State is what survives a restart: the backend token and the last known
// profile. The profile is a cache and is refreshed by Client.Me.
type State struct {
	Token string      `json:"token"`
	User  User `json:"user"`
}

func (s State) Session() Session {
	if s.Token == "" {
		return Session{}
	}

	return domain.NewSession(s.User, s.Token)
}

type SessionStore interface {
	Load() (State, error)
	Save(State) error
	Clear() error
}

type MemoryStore struct {
	mu    sync.Mutex
	state State
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (m *MemoryStore) Load() (State, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.state, nil
}

func (m *MemoryStore) Save(s State) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.state = s

	return nil
}

func (m *MemoryStore) Clear() error {
	return m.Save(State{})
}

// FileStore keeps the state as JSON at Path, readable only by the owner.
type FileStore struct {
	Path string

	mu sync.Mutex
}

func NewFileStore(path string) *FileStore {
	return &FileStore{Path: path}
}

func (f *FileStore) Load() (State, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	b, err := os.ReadFile(f.Path)
	if errors.Is(err, os.ErrNotExist) {
		return State{}, nil
	}
	if err != nil {
		return State{}, fmt.Errorf("os.ReadFile -> %w", err)
	}

	var s State
	if err := json.Unmarshal(b, &s); err != nil {
		return State{}, fmt.Errorf("json.Unmarshal -> %w", err)
	}

	return s, nil
}

func (f *FileStore) Save(s State) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	b, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("json.Marshal -> %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(f.Path), 0o700); err != nil {
		return fmt.Errorf("os.MkdirAll -> %w", err)
	}

	tmp := f.Path + ".tmp"
	if err := os.WriteFile(tmp, b, 0o600); err != nil {
		return fmt.Errorf("os.WriteFile -> %w", err)
	}
	if err := os.Rename(tmp, f.Path); err != nil {
		return fmt.Errorf("os.Rename -> %w", err)
	}

	return nil
}

func (f *FileStore) Clear() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := os.Remove(f.Path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("os.Remove -> %w", err)
	}

	return nil
}
