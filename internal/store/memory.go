package store

import (
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/i474232898/weather-now/internal/observability"
	"github.com/i474232898/weather-now/internal/session"
)

// Factory builds the controller for a new session.
type Factory func() *session.Controller

// sessionEntry holds a session's controller and when it was last touched.
type sessionEntry struct {
	controller *session.Controller
	lastSeen   time.Time
}

// MemoryStore is a concurrency-safe in-memory registry of sessions.
type MemoryStore struct {
	mu sync.Mutex

	// key: session id
	data map[string]*sessionEntry

	newController Factory
	clock         clockwork.Clock
	metrics       *observability.Metrics

	// retention configuration
	maxSessions int           // 0 = unlimited
	maxIdle     time.Duration // 0 = never expire
}

// NewMemoryStore creates a new MemoryStore with optional limits.
// If maxSessions is <= 0, it is treated as unlimited.
func NewMemoryStore(factory Factory, maxSessions int, maxIdle time.Duration, clock clockwork.Clock, metrics *observability.Metrics) *MemoryStore {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &MemoryStore{
		data:          make(map[string]*sessionEntry),
		newController: factory,
		clock:         clock,
		metrics:       metrics,
		maxSessions:   maxSessions,
		maxIdle:       maxIdle,
	}
}

// Get returns the controller for id, creating it if needed, and marks the
// session as seen. created reports whether a new session was made.
func (s *MemoryStore) Get(id string) (c *session.Controller, created bool) {
	now := s.clock.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	if e, ok := s.data[id]; ok {
		e.lastSeen = now
		return e.controller, false
	}

	if s.maxSessions > 0 && len(s.data) >= s.maxSessions {
		s.evictOldestLocked()
	}

	e := &sessionEntry{controller: s.newController(), lastSeen: now}
	s.data[id] = e
	s.reportLocked()
	return e.controller, true
}

// Peek returns the controller for id without creating or touching it.
func (s *MemoryStore) Peek(id string) (*session.Controller, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.data[id]
	if !ok {
		return nil, false
	}
	return e.controller, true
}

// Sweep drops sessions idle for longer than the configured maximum and
// returns how many were removed. Sessions with a lookup in flight are kept.
func (s *MemoryStore) Sweep() int {
	if s.maxIdle <= 0 {
		return 0
	}
	cutoff := s.clock.Now().Add(-s.maxIdle)

	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for id, e := range s.data {
		if e.lastSeen.Before(cutoff) && !e.controller.State().Loading {
			delete(s.data, id)
			removed++
		}
	}
	if removed > 0 && s.metrics != nil {
		s.metrics.SessionsEvicted.Add(float64(removed))
	}
	s.reportLocked()
	return removed
}

// Len returns the number of live sessions.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.data)
}

func (s *MemoryStore) evictOldestLocked() {
	var (
		oldestID string
		oldest   time.Time
	)
	for id, e := range s.data {
		if oldestID == "" || e.lastSeen.Before(oldest) {
			oldestID, oldest = id, e.lastSeen
		}
	}
	if oldestID != "" {
		delete(s.data, oldestID)
		if s.metrics != nil {
			s.metrics.SessionsEvicted.Inc()
		}
	}
}

func (s *MemoryStore) reportLocked() {
	if s.metrics != nil {
		s.metrics.ActiveSessions.Set(float64(len(s.data)))
	}
}
