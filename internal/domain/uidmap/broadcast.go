package uidmap

import "sync/atomic"

// Listener receives uid map change events. Callbacks run outside the
// tracker's main lock, so a listener may re-enter the tracker (including to
// unsubscribe itself). A listener can be invoked shortly after its
// subscription was revoked; implementations must treat that as a no-op.
type Listener interface {
	OnReplace(timestampNs int64)
	OnUpsert(timestampNs int64, packageName string, uid int32, versionCode int64)
	OnRemove(timestampNs int64, packageName string, uid int32)
}

// Subscription is a revocable listener handle. The tracker holds it
// non-owning: once Close marks it revoked, the next broadcast pass prunes it.
type Subscription struct {
	listener Listener
	closed   atomic.Bool
}

// Close revokes the subscription without touching the tracker. Events
// already in flight may still be delivered.
func (s *Subscription) Close() {
	s.closed.Store(true)
}

// Subscribe registers a listener and returns its revocable handle.
func (t *Tracker) Subscribe(l Listener) *Subscription {
	sub := &Subscription{listener: l}
	t.mu.Lock()
	t.subs[sub] = struct{}{}
	t.mu.Unlock()
	return sub
}

// Unsubscribe revokes the handle and removes it from the subscriber set.
func (t *Tracker) Unsubscribe(sub *Subscription) {
	sub.closed.Store(true)
	t.mu.Lock()
	delete(t.subs, sub)
	t.mu.Unlock()
}

// liveListenersLocked snapshots the live subscribers for invocation after
// the lock is released. Revoked handles are pruned here and nowhere else.
func (t *Tracker) liveListenersLocked() []Listener {
	live := make([]Listener, 0, len(t.subs))
	for sub := range t.subs {
		if sub.closed.Load() {
			delete(t.subs, sub)
			continue
		}
		live = append(live, sub.listener)
	}
	return live
}
