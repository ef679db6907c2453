// Package prefs persists small per-user UI preferences shared between
// the REPL and the watch daemon: whether the chat panel is open and the
// newest message the user has seen. Both processes may touch the file,
// so writes are atomic and guarded by a file lock.
package prefs

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/gofrs/flock"
	"github.com/natefinch/atomic"
)

type state struct {
	PanelOpen         bool   `json:"panel_open"`
	LastSeenMessageID string `json:"last_seen_message_id,omitempty"`
}

type Store struct {
	path     string
	lock     *flock.Flock
	retry    time.Duration
	maxRetry int

	mu    sync.RWMutex
	state state
}

// Options tunes lock acquisition. Zero values use sensible defaults.
type Options struct {
	LockRetry    time.Duration
	LockMaxRetry int
}

const (
	defaultLockRetry    = 50 * time.Millisecond
	defaultLockMaxRetry = 10
)

func NewStore(path string, opts Options) (*Store, error) {
	if opts.LockRetry <= 0 {
		opts.LockRetry = defaultLockRetry
	}
	if opts.LockMaxRetry <= 0 {
		opts.LockMaxRetry = defaultLockMaxRetry
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create prefs dir: %w", err)
	}

	s := &Store{
		path:     path,
		lock:     flock.New(path + ".lock"),
		retry:    opts.LockRetry,
		maxRetry: opts.LockMaxRetry,
	}
	if err := s.load(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Store) load() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read prefs: %w", err)
	}
	if len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, &s.state); err != nil {
		return fmt.Errorf("parse prefs: %w", err)
	}
	return nil
}

// Reload re-reads the file, picking up writes from other processes.
func (s *Store) Reload() error {
	return s.load()
}

func (s *Store) PanelOpen() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.PanelOpen
}

func (s *Store) SetPanelOpen(open bool) error {
	s.mu.Lock()
	s.state.PanelOpen = open
	s.mu.Unlock()
	return s.save()
}

func (s *Store) LastSeenMessageID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.LastSeenMessageID
}

func (s *Store) SetLastSeenMessageID(id string) error {
	s.mu.Lock()
	s.state.LastSeenMessageID = id
	s.mu.Unlock()
	return s.save()
}

func (s *Store) save() error {
	if err := s.acquireLock(); err != nil {
		return err
	}
	defer s.lock.Unlock()

	s.mu.RLock()
	data, err := json.MarshalIndent(s.state, "", "  ")
	s.mu.RUnlock()
	if err != nil {
		return err
	}
	return atomic.WriteFile(s.path, bytes.NewReader(data))
}

func (s *Store) acquireLock() error {
	for i := 0; i < s.maxRetry; i++ {
		locked, err := s.lock.TryLock()
		if err != nil {
			return fmt.Errorf("lock prefs: %w", err)
		}
		if locked {
			return nil
		}
		if i < s.maxRetry-1 {
			time.Sleep(s.retry)
		}
	}
	return fmt.Errorf("prefs file %s is locked by another instance", s.path)
}
