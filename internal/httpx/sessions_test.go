package httpx

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/ariefcatur/go-coffee-orders/internal/shop"
	"github.com/ariefcatur/go-coffee-orders/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newTestSessions(t *testing.T, ttl time.Duration) (*Sessions, *fakeClock) {
	t.Helper()
	repo := shop.NewRepo(storage.NewMemory())
	engine := shop.NewEngine(shop.DefaultCatalog(), shop.DefaultRewards(), repo, zap.NewNop())
	clock := &fakeClock{now: time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)}
	s := NewSessions(engine, ttl)
	s.now = clock.Now
	s.lastSweep = clock.Now()
	return s, clock
}

func TestSessions_EvictsIdleEntries(t *testing.T) {
	s, clock := newTestSessions(t, time.Minute)
	ctx := context.Background()

	for i := 0; i < 50; i++ {
		require.NoError(t, s.Do(ctx, fmt.Sprintf("s-%d", i), func(*shop.Session) error { return nil }))
	}
	assert.Equal(t, 50, s.Len())

	clock.Advance(2 * time.Minute)
	require.NoError(t, s.Do(ctx, "fresh", func(*shop.Session) error { return nil }))
	assert.Equal(t, 1, s.Len())
}

func TestSessions_KeepsCartWithinTTL(t *testing.T) {
	s, clock := newTestSessions(t, time.Minute)
	ctx := context.Background()

	require.NoError(t, s.Do(ctx, "s-1", func(sess *shop.Session) error {
		return sess.Cart.AddQuickItem(shop.DefaultCatalog(), 1, 1)
	}))
	for i := 0; i < 3; i++ {
		clock.Advance(40 * time.Second)
		require.NoError(t, s.Do(ctx, "s-1", func(sess *shop.Session) error {
			assert.Equal(t, 1, sess.Cart.Len())
			return nil
		}))
	}
}

func TestSessions_DoesNotEvictBusyEntry(t *testing.T) {
	s, clock := newTestSessions(t, time.Minute)
	ctx := context.Background()

	inside := make(chan struct{})
	done := make(chan struct{})
	go func() {
		_ = s.Do(ctx, "busy", func(*shop.Session) error {
			close(inside)
			<-done
			return nil
		})
	}()
	<-inside

	clock.Advance(5 * time.Minute)
	require.NoError(t, s.Do(ctx, "other", func(*shop.Session) error { return nil }))
	assert.Equal(t, 2, s.Len())
	close(done)
}
