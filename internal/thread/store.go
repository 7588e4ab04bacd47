package thread

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	altronErrors "github.com/TheAdaptoid/Altron-Core/internal/errors"

	"github.com/gofrs/flock"
	"github.com/natefinch/atomic"
	"github.com/oklog/ulid/v2"
)

const DefaultTitle = "New Thread"

// Store persists one JSON document per thread under a base directory.
//
// Writes are atomic (temp file + rename) and guarded by a cross-process
// file lock. The store gives no transactional guarantee across
// Load -> mutate -> Save; callers must serialize invocations per thread id,
// which Guard provides in-process.
type Store struct {
	dir      string
	lockCfg  LockConfig
	mu       sync.Mutex
	perID    map[string]*sync.Mutex
	fileLock *flock.Flock
}

type LockConfig struct {
	Timeout  time.Duration
	Retry    time.Duration
	MaxRetry int
}

func DefaultLockConfig() LockConfig {
	return LockConfig{
		Timeout:  30 * time.Second,
		Retry:    100 * time.Millisecond,
		MaxRetry: 300,
	}
}

func NewStore(dir string, lockCfg LockConfig) (*Store, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, altronErrors.InvalidInput("store directory is empty")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create store dir %s: %w", dir, altronErrors.ErrIO)
	}
	if lockCfg.Retry <= 0 || lockCfg.MaxRetry <= 0 {
		lockCfg = DefaultLockConfig()
	}

	return &Store{
		dir:      dir,
		lockCfg:  lockCfg,
		perID:    make(map[string]*sync.Mutex),
		fileLock: flock.New(filepath.Join(dir, "store.lock")),
	}, nil
}

// Guard locks a thread id for the duration of one invocation and returns
// the unlock function. Two concurrent invocations against the same id are
// undefined behavior without it.
func (s *Store) Guard(id string) func() {
	s.mu.Lock()
	m, ok := s.perID[id]
	if !ok {
		m = &sync.Mutex{}
		s.perID[id] = m
	}
	s.mu.Unlock()

	m.Lock()
	return m.Unlock
}

func (s *Store) path(id string) string {
	return filepath.Join(s.dir, id+".json")
}

func (s *Store) acquireFileLock() (func(), error) {
	for i := 0; i < s.lockCfg.MaxRetry; i++ {
		locked, err := s.fileLock.TryLock()
		if err != nil {
			return nil, fmt.Errorf("store lock: %v: %w", err, altronErrors.ErrIO)
		}
		if locked {
			return func() {
				if err := s.fileLock.Unlock(); err != nil {
					slog.Error("Failed to release store lock", "error", err)
				}
			}, nil
		}
		if i < s.lockCfg.MaxRetry-1 {
			time.Sleep(s.lockCfg.Retry)
		}
	}
	return nil, fmt.Errorf("store is locked by another process (timeout after %v): %w", s.lockCfg.Timeout, altronErrors.ErrIO)
}

// Create allocates a new thread with a fresh ULID. An id collision is
// astronomically rare but still reported, never papered over.
func (s *Store) Create(title string) (*Thread, error) {
	unlock, err := s.acquireFileLock()
	if err != nil {
		return nil, err
	}
	defer unlock()

	if strings.TrimSpace(title) == "" {
		title = DefaultTitle
	}

	now := time.Now()
	t := &Thread{
		ID:        ulid.Make().String(),
		Title:     title,
		Messages:  []Message{},
		CreatedAt: now,
		UpdatedAt: now,
	}

	if _, err := os.Stat(s.path(t.ID)); err == nil {
		return nil, altronErrors.AlreadyExists("thread " + t.ID)
	}

	if err := s.write(t); err != nil {
		return nil, err
	}

	slog.Debug("Thread created", "thread_id", t.ID, "title", t.Title)
	return t, nil
}

// Load reads a thread by id.
func (s *Store) Load(id string) (*Thread, error) {
	data, err := os.ReadFile(s.path(id))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, altronErrors.NotFound("thread " + id)
		}
		return nil, fmt.Errorf("read thread %s: %v: %w", id, err, altronErrors.ErrIO)
	}

	var t Thread
	if err := json.Unmarshal(data, &t); err != nil {
		return nil, altronErrors.Corrupt(fmt.Sprintf("thread %s: %v", id, err))
	}
	return &t, nil
}

// Save persists a thread, refreshing its updated_at stamp. The backing
// record must still exist; a vanished record is reported as not found.
func (s *Store) Save(t *Thread) error {
	unlock, err := s.acquireFileLock()
	if err != nil {
		return err
	}
	defer unlock()

	if _, err := os.Stat(s.path(t.ID)); err != nil {
		if os.IsNotExist(err) {
			return altronErrors.NotFound("thread " + t.ID)
		}
		return fmt.Errorf("stat thread %s: %v: %w", t.ID, err, altronErrors.ErrIO)
	}

	t.UpdatedAt = time.Now()
	return s.write(t)
}

func (s *Store) write(t *Thread) error {
	data, err := json.MarshalIndent(t, "", "  ")
	if err != nil {
		return fmt.Errorf("encode thread %s: %v: %w", t.ID, err, altronErrors.ErrIO)
	}
	if err := atomic.WriteFile(s.path(t.ID), bytes.NewReader(data)); err != nil {
		return fmt.Errorf("write thread %s: %v: %w", t.ID, err, altronErrors.ErrIO)
	}
	return nil
}

// Remove deletes a thread document.
func (s *Store) Remove(id string) error {
	unlock, err := s.acquireFileLock()
	if err != nil {
		return err
	}
	defer unlock()

	if err := os.Remove(s.path(id)); err != nil {
		if os.IsNotExist(err) {
			return altronErrors.NotFound("thread " + id)
		}
		return fmt.Errorf("remove thread %s: %v: %w", id, err, altronErrors.ErrIO)
	}
	return nil
}

// List returns all stored threads ordered by creation time. Undecodable
// documents are skipped with a warning rather than failing the listing.
func (s *Store) List() ([]*Thread, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("read store dir: %v: %w", err, altronErrors.ErrIO)
	}

	threads := make([]*Thread, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		id := strings.TrimSuffix(entry.Name(), ".json")
		t, err := s.Load(id)
		if err != nil {
			slog.Warn("Skipping unreadable thread", "thread_id", id, "error", err)
			continue
		}
		threads = append(threads, t)
	}

	sort.Slice(threads, func(i, j int) bool {
		return threads[i].CreatedAt.Before(threads[j].CreatedAt)
	})
	return threads, nil
}
