package session

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

const (
	DefaultTTL         = 7 * 24 * time.Hour
	DefaultMaxSessions = 10000

	sweepInterval = time.Minute
)

// Store keeps session states in memory keyed by a random id. Requests for the
// same session are serialized through Acquire. Sessions idle for longer than
// the TTL are dropped, and once the store is full the least recently used
// session makes room for a new one.
type Store struct {
	mu        sync.Mutex
	sessions  map[string]*entry
	ttl       time.Duration
	max       int
	now       func() time.Time
	lastSweep time.Time
}

type entry struct {
	mu       sync.Mutex
	state    *State
	lastUsed time.Time
}

type Option func(*Store)

// WithTTL sets how long a session may stay idle. Zero or less keeps sessions
// until they are deleted or evicted.
func WithTTL(d time.Duration) Option {
	return func(s *Store) { s.ttl = d }
}

// WithMaxSessions caps the number of live sessions. Zero or less disables
// the cap.
func WithMaxSessions(n int) Option {
	return func(s *Store) { s.max = n }
}

func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

func NewStore(opts ...Option) *Store {
	s := &Store{
		sessions: make(map[string]*entry),
		ttl:      DefaultTTL,
		max:      DefaultMaxSessions,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create registers a fresh state under a new id.
func (s *Store) Create() *State {
	st := NewState(uuid.NewString())

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	s.sweep(now, false)
	if s.max > 0 && len(s.sessions) >= s.max {
		s.sweep(now, true)
		for len(s.sessions) >= s.max {
			s.evictOldest()
		}
	}
	s.sessions[st.ID] = &entry{state: st, lastUsed: now}

	return st
}

// Get returns the state for id, if any.
func (s *Store) Get(id string) (*State, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.sessions[id]
	if !ok || s.expired(e, s.now()) {
		return nil, false
	}
	return e.state, true
}

// Acquire returns the state for id locked for exclusive use, and a release
// function. ok is false when the id is unknown or has expired.
func (s *Store) Acquire(id string) (st *State, release func(), ok bool) {
	s.mu.Lock()
	now := s.now()
	s.sweep(now, false)
	e, ok := s.sessions[id]
	if ok && s.expired(e, now) {
		delete(s.sessions, id)
		ok = false
	}
	if ok {
		e.lastUsed = now
	}
	s.mu.Unlock()
	if !ok {
		return nil, nil, false
	}

	e.mu.Lock()
	return e.state, e.mu.Unlock, true
}

func (s *Store) Delete(id string) {
	s.mu.Lock()
	delete(s.sessions, id)
	s.mu.Unlock()
}

func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

func (s *Store) expired(e *entry, now time.Time) bool {
	return s.ttl > 0 && now.Sub(e.lastUsed) > s.ttl
}

// sweep drops expired sessions, at most once per sweepInterval unless
// forced. Callers hold s.mu.
func (s *Store) sweep(now time.Time, force bool) {
	if s.ttl <= 0 || (!force && now.Sub(s.lastSweep) < sweepInterval) {
		return
	}
	s.lastSweep = now
	for id, e := range s.sessions {
		if s.expired(e, now) {
			delete(s.sessions, id)
		}
	}
}

// evictOldest drops the least recently used session. Callers hold s.mu.
func (s *Store) evictOldest() {
	var (
		oldestID string
		oldest   time.Time
	)
	for id, e := range s.sessions {
		if oldestID == "" || e.lastUsed.Before(oldest) {
			oldestID, oldest = id, e.lastUsed
		}
	}
	delete(s.sessions, oldestID)
}
