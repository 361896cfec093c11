// Package presence tracks which users currently hold live push
// connections. The registry is pure in-memory state: it records handle
// membership and reports presence transitions, leaving persistence and
// broadcasting to its callers.
package presence

import (
	"sync"

	"chitchat/protocol"
)

// Handle is one live push connection, borrowed from the transport layer.
// The registry never writes to a handle; it only tracks membership.
// Implementations must be usable as map keys.
type Handle interface {
	Send(e protocol.Event)
}

type Registry struct {
	mu       sync.RWMutex
	byUser   map[string]map[Handle]struct{}
	byHandle map[Handle]string
}

func NewRegistry() *Registry {
	return &Registry{
		byUser:   make(map[string]map[Handle]struct{}),
		byHandle: make(map[Handle]string),
	}
}

// Bind records h as a live connection of userID and reports whether this
// is the user's first handle, i.e. an offline-to-online transition. A
// handle already bound to any user is left untouched.
func (r *Registry) Bind(userID string, h Handle) (first bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, bound := r.byHandle[h]; bound {
		return false
	}

	set, ok := r.byUser[userID]
	if !ok {
		set = make(map[Handle]struct{})
		r.byUser[userID] = set
	}
	set[h] = struct{}{}
	r.byHandle[h] = userID
	return len(set) == 1
}

// Unbind removes exactly h, regardless of which user owns it. It reports
// the owning user and whether that was the user's last handle, i.e. an
// online-to-offline transition. Unbinding an unknown handle is a no-op.
// A stale handle from a replaced connection never evicts its successor.
func (r *Registry) Unbind(h Handle) (userID string, last bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	userID, ok := r.byHandle[h]
	if !ok {
		return "", false
	}
	delete(r.byHandle, h)

	set := r.byUser[userID]
	delete(set, h)
	if len(set) == 0 {
		// No empty-set entries persist.
		delete(r.byUser, userID)
		return userID, true
	}
	return userID, false
}

// HandlesFor returns a snapshot of userID's live handles. Offline users
// yield an empty slice; that is a normal state, not an error.
func (r *Registry) HandlesFor(userID string) []Handle {
	r.mu.RLock()
	defer r.mu.RUnlock()

	set, ok := r.byUser[userID]
	if !ok {
		return nil
	}
	handles := make([]Handle, 0, len(set))
	for h := range set {
		handles = append(handles, h)
	}
	return handles
}

func (r *Registry) IsOnline(userID string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.byUser[userID]
	return ok
}

// Online returns the ids of all users with at least one live handle.
func (r *Registry) Online() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	users := make([]string, 0, len(r.byUser))
	for userID := range r.byUser {
		users = append(users, userID)
	}
	return users
}

// Count returns the number of live handles across all users.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byHandle)
}
