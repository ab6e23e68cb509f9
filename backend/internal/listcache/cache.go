// Package listcache caches per-user letter listings between uploads.
package listcache

import (
	"context"
	"sync"
	"time"

	"github.com/jun/letterdrive/backend/internal/model"
)

// Cache holds the most recent listing of each user.
type Cache interface {
	// Get returns the cached listing. ok is false on a miss.
	Get(ctx context.Context, userID string) (letters []model.Letter, ok bool, err error)
	Set(ctx context.Context, userID string, letters []model.Letter) error
	Invalidate(ctx context.Context, userID string) error
}

type memoryEntry struct {
	letters []model.Letter
	expires time.Time
}

// Memory is an in-process Cache used when no Redis endpoint is configured.
type Memory struct {
	ttl     time.Duration
	now     func() time.Time
	mu      sync.Mutex
	entries map[string]memoryEntry
}

// NewMemory creates a Memory cache whose entries live for ttl.
func NewMemory(ttl time.Duration) *Memory {
	return &Memory{ttl: ttl, now: time.Now, entries: make(map[string]memoryEntry)}
}

func (m *Memory) Get(_ context.Context, userID string) ([]model.Letter, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[userID]
	if !ok {
		return nil, false, nil
	}
	if !m.now().Before(e.expires) {
		delete(m.entries, userID)
		return nil, false, nil
	}
	return clone(e.letters), true, nil
}

func (m *Memory) Set(_ context.Context, userID string, letters []model.Letter) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[userID] = memoryEntry{
		letters: clone(letters),
		expires: m.now().Add(m.ttl),
	}
	return nil
}

func (m *Memory) Invalidate(_ context.Context, userID string) error {
	m.mu.Lock()
	delete(m.entries, userID)
	m.mu.Unlock()
	return nil
}

func clone(letters []model.Letter) []model.Letter {
	out := make([]model.Letter, len(letters))
	copy(out, letters)
	return out
}
