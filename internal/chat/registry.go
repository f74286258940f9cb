package chat

import (
	"context"
	"sync"
	"time"
)

// Registry owns the live sessions, keyed by the client-supplied session ID.
// Sessions are created lazily on first contact and evicted after sitting
// idle longer than the configured TTL, so the map cannot grow without bound.
//
// Concurrency model: the registry lock only guards the map itself. Each
// session carries its own mutex, held by the engine for the full duration of
// an event step. Events for different sessions therefore run in parallel,
// while events for the same session are strictly serialized.
type Registry struct {
	ttl time.Duration

	mu       sync.Mutex
	sessions map[string]*Session
}

// NewRegistry creates an empty registry. A non-positive ttl disables
// eviction.
func NewRegistry(ttl time.Duration) *Registry {
	return &Registry{
		ttl:      ttl,
		sessions: make(map[string]*Session),
	}
}

// GetOrCreate returns the session for id, creating it in the welcome state
// on first reference, and marks it as recently used.
func (r *Registry) GetOrCreate(id string) *Session {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[id]
	if !ok {
		s = newSession(id)
		r.sessions[id] = s
	}
	s.lastSeen = time.Now()
	return s
}

// Len reports the number of live sessions.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// evictIdle removes sessions whose last activity is older than the TTL.
// An event already in flight on an evicted session still completes on its
// detached pointer; the next event for that ID simply starts a fresh
// session, which matches the "park indefinitely, recover via welcome"
// dialogue design.
func (r *Registry) evictIdle(now time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for id, s := range r.sessions {
		if now.Sub(s.lastSeen) >= r.ttl {
			delete(r.sessions, id)
		}
	}
}

// StartCleanup launches a background goroutine that periodically evicts idle
// sessions. It stops when ctx is cancelled. No-op when eviction is disabled.
func (r *Registry) StartCleanup(ctx context.Context) {
	if r.ttl <= 0 {
		return
	}
	interval := r.ttl / 2
	if interval < time.Minute {
		interval = time.Minute
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case now := <-ticker.C:
				r.evictIdle(now)
			}
		}
	}()
}
