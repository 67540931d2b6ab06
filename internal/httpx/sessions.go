package httpx

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/ariefcatur/go-coffee-orders/internal/shop"
	"github.com/google/uuid"
)

const HeaderSessionID = "X-Session-ID"

// DefaultSessionIdleTTL is how long an unused session stays in memory.
const DefaultSessionIdleTTL = 30 * time.Minute

type sessionEntry struct {
	mu   sync.Mutex
	sess *shop.Session

	// guarded by Sessions.mu
	refs int
	seen time.Time
}

// Sessions keeps live storefront sessions in memory. Carts live only
// here; sign-in state is restored from the store on first use. Sessions
// idle for longer than the TTL are dropped and restored again on the next
// request.
type Sessions struct {
	engine *shop.Engine
	ttl    time.Duration
	now    func() time.Time

	mu        sync.Mutex
	byID      map[string]*sessionEntry
	lastSweep time.Time
}

func NewSessions(engine *shop.Engine, idleTTL time.Duration) *Sessions {
	if idleTTL <= 0 {
		idleTTL = DefaultSessionIdleTTL
	}
	return &Sessions{
		engine:    engine,
		ttl:       idleTTL,
		now:       time.Now,
		byID:      map[string]*sessionEntry{},
		lastSweep: time.Now(),
	}
}

// Do runs fn with the session locked.
func (s *Sessions) Do(ctx context.Context, id string, fn func(*shop.Session) error) error {
	e, err := s.acquire(ctx, id)
	if err != nil {
		return err
	}
	defer s.release(e)
	e.mu.Lock()
	defer e.mu.Unlock()
	return fn(e.sess)
}

// Len reports how many sessions are held in memory.
func (s *Sessions) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.byID)
}

func (s *Sessions) acquire(ctx context.Context, id string) (*sessionEntry, error) {
	if e := s.lookup(id); e != nil {
		return e, nil
	}
	// restore without holding the registry lock
	sess, err := s.engine.Restore(ctx, id)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.byID[id]
	if !ok {
		e = &sessionEntry{sess: sess}
		s.byID[id] = e
	}
	e.refs++
	e.seen = s.now()
	return e, nil
}

func (s *Sessions) lookup(id string) *sessionEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sweepLocked()
	e, ok := s.byID[id]
	if !ok {
		return nil
	}
	e.refs++
	e.seen = s.now()
	return e
}

func (s *Sessions) release(e *sessionEntry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e.refs--
	e.seen = s.now()
}

func (s *Sessions) sweepLocked() {
	now := s.now()
	if now.Sub(s.lastSweep) < s.ttl/2 {
		return
	}
	for id, e := range s.byID {
		if e.refs == 0 && now.Sub(e.seen) > s.ttl {
			delete(s.byID, id)
		}
	}
	s.lastSweep = now
}

// sessionID reads the session header, minting one when absent, and
// echoes it on the response.
func sessionID(w http.ResponseWriter, r *http.Request) string {
	id := r.Header.Get(HeaderSessionID)
	if id == "" {
		id = uuid.NewString()
	}
	w.Header().Set(HeaderSessionID, id)
	return id
}
