package speech

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	nanoid "github.com/jaevor/go-nanoid"
)

const (
	DefaultTTL  = 20 * time.Second
	StaticRoute = "/static"

	idAlphabet = "0123456789abcdefghijklmnopqrstuvwxyz"
	idLength   = 8
)

// Store keeps synthesized speech files in a directory served under
// StaticRoute. Every file is removed TTL after it was written, fetched or not.
type Store struct {
	dir     string
	baseURL string
	ttl     time.Duration
	newID   func() string
	now     func() time.Time

	mu     sync.Mutex
	timers map[string]*time.Timer
	closed bool
}

func NewStore(dir, baseURL string, ttl time.Duration) (*Store, error) {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create speech dir: %w", err)
	}
	newID, err := nanoid.CustomASCII(idAlphabet, idLength)
	if err != nil {
		return nil, fmt.Errorf("init id generator: %w", err)
	}
	return &Store{
		dir:     dir,
		baseURL: strings.TrimRight(baseURL, "/"),
		ttl:     ttl,
		newID:   newID,
		now:     time.Now,
		timers:  make(map[string]*time.Timer),
	}, nil
}

func (s *Store) Dir() string {
	return s.dir
}

// Save writes r to a new file and returns the public URL for it.
func (s *Store) Save(r io.Reader) (string, error) {
	name := fmt.Sprintf("response_%d_%s.mp3", s.now().UnixMilli(), s.newID())
	path := filepath.Join(s.dir, name)

	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create speech file: %w", err)
	}
	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		os.Remove(path)
		return "", fmt.Errorf("write speech file: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(path)
		return "", fmt.Errorf("close speech file: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		os.Remove(path)
		return "", fmt.Errorf("speech store closed")
	}
	s.timers[name] = time.AfterFunc(s.ttl, func() { s.expire(name) })

	slog.Debug("speech file saved", "file", name, "ttl", s.ttl)
	return s.URL(name), nil
}

func (s *Store) URL(name string) string {
	return s.baseURL + StaticRoute + "/" + name
}

func (s *Store) expire(name string) {
	s.mu.Lock()
	delete(s.timers, name)
	s.mu.Unlock()

	if err := os.Remove(filepath.Join(s.dir, name)); err != nil && !os.IsNotExist(err) {
		slog.Warn("failed to remove speech file", "file", name, "err", err)
		return
	}
	slog.Debug("speech file expired", "file", name)
}

// Pending reports how many files are waiting for deletion.
func (s *Store) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.timers)
}

// Close cancels pending deletions and removes the files right away.
func (s *Store) Close() error {
	s.mu.Lock()
	timers := s.timers
	s.timers = make(map[string]*time.Timer)
	s.closed = true
	s.mu.Unlock()

	var firstErr error
	for name, timer := range timers {
		timer.Stop()
		if err := os.Remove(filepath.Join(s.dir, name)); err != nil && !os.IsNotExist(err) && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
