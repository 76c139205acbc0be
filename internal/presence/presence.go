// Package presence derives online status from heartbeat timestamps.
package presence

import (
	"context"
	"sync"
	"time"
)

// Store keeps the most recent heartbeat per profile.
type Store interface {
	// Touch records a heartbeat. An older timestamp never replaces a newer one.
	Touch(ctx context.Context, profileID uint, at time.Time) error
	// LastSeen returns heartbeats for the profiles that have one.
	LastSeen(ctx context.Context, profileIDs []uint) (map[uint]time.Time, error)
}

type Tracker struct {
	store   Store
	timeout time.Duration
	now     func() time.Time
}

func NewTracker(store Store, timeout time.Duration) *Tracker {
	return &Tracker{store: store, timeout: timeout, now: time.Now}
}

// WithClock replaces the tracker's time source.
func (t *Tracker) WithClock(now func() time.Time) *Tracker {
	t.now = now
	return t
}

func (t *Tracker) Heartbeat(ctx context.Context, profileID uint) error {
	return t.store.Touch(ctx, profileID, t.now())
}

func (t *Tracker) IsOnline(ctx context.Context, profileID uint) (bool, error) {
	online, err := t.Online(ctx, []uint{profileID})
	if err != nil {
		return false, err
	}
	return online[profileID], nil
}

// Online reports the online flag for every requested profile. Profiles
// without a heartbeat are offline.
func (t *Tracker) Online(ctx context.Context, profileIDs []uint) (map[uint]bool, error) {
	result := make(map[uint]bool, len(profileIDs))
	if len(profileIDs) == 0 {
		return result, nil
	}

	seen, err := t.store.LastSeen(ctx, profileIDs)
	if err != nil {
		return nil, err
	}

	now := t.now()
	for _, id := range profileIDs {
		last, ok := seen[id]
		result[id] = ok && now.Sub(last) < t.timeout
	}
	return result, nil
}

type MemoryStore struct {
	mu       sync.RWMutex
	lastSeen map[uint]time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{lastSeen: make(map[uint]time.Time)}
}

func (s *MemoryStore) Touch(_ context.Context, profileID uint, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if current, ok := s.lastSeen[profileID]; !ok || at.After(current) {
		s.lastSeen[profileID] = at
	}
	return nil
}

func (s *MemoryStore) LastSeen(_ context.Context, profileIDs []uint) (map[uint]time.Time, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[uint]time.Time, len(profileIDs))
	for _, id := range profileIDs {
		if at, ok := s.lastSeen[id]; ok {
			out[id] = at
		}
	}
	return out, nil
}
