package feed

import (
	"sync"
	"time"
)

// DefaultIdleTTL drops feeds not touched for this long when no TTL is configured
const DefaultIdleTTL = 24 * time.Hour

type entry struct {
	feed     *Feed
	lastUsed time.Time
}

// Registry keeps one feed per browser session. Feeds idle for longer than
// the idle TTL are swept on a later Get, so sessions that never log out
// (anonymous visitors, expired cookies) do not accumulate.
type Registry struct {
	newFeed func() *Feed
	idleTTL time.Duration
	now     func() time.Time

	mu        sync.Mutex
	feeds     map[string]*entry
	lastSweep time.Time
}

// NewRegistry creates a registry that builds feeds with newFeed and forgets
// them after idleTTL without use (DefaultIdleTTL when idleTTL <= 0)
func NewRegistry(newFeed func() *Feed, idleTTL time.Duration) *Registry {
	if idleTTL <= 0 {
		idleTTL = DefaultIdleTTL
	}
	return &Registry{
		newFeed: newFeed,
		idleTTL: idleTTL,
		now:     time.Now,
		feeds:   make(map[string]*entry),
	}
}

// Get returns the session's feed, creating it on first use
func (r *Registry) Get(sid string) *Feed {
	r.mu.Lock()
	now := r.now()
	var idle []*Feed
	if now.Sub(r.lastSweep) >= r.idleTTL/2 {
		idle = r.sweepLocked(now)
	}

	e, ok := r.feeds[sid]
	if !ok {
		e = &entry{feed: r.newFeed()}
		r.feeds[sid] = e
	}
	e.lastUsed = now
	r.mu.Unlock()

	for _, f := range idle {
		f.Reset()
	}
	return e.feed
}

// Sweep drops every feed idle for longer than the idle TTL and returns how
// many were dropped
func (r *Registry) Sweep() int {
	r.mu.Lock()
	idle := r.sweepLocked(r.now())
	r.mu.Unlock()

	for _, f := range idle {
		f.Reset()
	}
	return len(idle)
}

func (r *Registry) sweepLocked(now time.Time) []*Feed {
	r.lastSweep = now
	var idle []*Feed
	for sid, e := range r.feeds {
		if now.Sub(e.lastUsed) > r.idleTTL {
			idle = append(idle, e.feed)
			delete(r.feeds, sid)
		}
	}
	return idle
}

// Evict drops the session's feed. Any in-flight response for it is discarded
// because the evicted feed's generation is bumped.
func (r *Registry) Evict(sid string) {
	r.mu.Lock()
	e, ok := r.feeds[sid]
	delete(r.feeds, sid)
	r.mu.Unlock()
	if ok {
		e.feed.Reset()
	}
}

// Len returns the number of live feeds
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.feeds)
}
