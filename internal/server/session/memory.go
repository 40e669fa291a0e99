package session

import (
	"context"
	"sync"
	"time"
)

// sweepInterval bounds how often Create scans for expired sessions.
const sweepInterval = time.Minute

type memEntry struct {
	userID  string
	flashes []Flash
	expires time.Time
}

// MemoryStore keeps sessions in process. Sessions are lost on restart and
// are not shared between instances. Expired sessions are dropped on lookup
// and by a sweep that Create runs at most once per sweepInterval.
type MemoryStore struct {
	mu        sync.Mutex
	ttl       time.Duration
	now       func() time.Time
	data      map[string]*memEntry
	nextSweep time.Time
}

func NewMemoryStore(ttl time.Duration) *MemoryStore {
	if ttl <= 0 {
		ttl = defaultTTL
	}
	return &MemoryStore{ttl: ttl, now: time.Now, data: map[string]*memEntry{}}
}

func (s *MemoryStore) Create(_ context.Context, userID string) (string, error) {
	id, err := newSessionID()
	if err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	s.sweep(now)
	s.data[id] = &memEntry{userID: userID, expires: now.Add(s.ttl)}
	return id, nil
}

// sweep removes expired entries. Callers hold mu.
func (s *MemoryStore) sweep(now time.Time) {
	if now.Before(s.nextSweep) {
		return
	}
	for id, e := range s.data {
		if now.After(e.expires) {
			delete(s.data, id)
		}
	}
	s.nextSweep = now.Add(sweepInterval)
}

// Len reports how many sessions are held, expired ones included.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.data)
}

// live returns the entry and extends it. Expired entries are removed.
// Callers hold mu.
func (s *MemoryStore) live(id string) (*memEntry, bool) {
	e, ok := s.data[id]
	if !ok {
		return nil, false
	}
	now := s.now()
	if now.After(e.expires) {
		delete(s.data, id)
		return nil, false
	}
	e.expires = now.Add(s.ttl)
	return e, true
}

func (s *MemoryStore) UserID(_ context.Context, id string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.live(id)
	if !ok {
		return "", ErrNotFound
	}
	return e.userID, nil
}

func (s *MemoryStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, id)
	return nil
}

func (s *MemoryStore) AddFlash(_ context.Context, id string, f Flash) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.live(id)
	if !ok {
		return ErrNotFound
	}
	e.flashes = append(e.flashes, f)
	return nil
}

func (s *MemoryStore) PopFlashes(_ context.Context, id string) ([]Flash, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.live(id)
	if !ok {
		return nil, ErrNotFound
	}
	out := e.flashes
	e.flashes = nil
	return out, nil
}
