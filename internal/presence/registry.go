// Package presence tracks which user is reachable on which live connection.
package presence

import "sync"

// Conn is a live connection handle. TrySend must never block.
type Conn interface {
	ID() string
	TrySend(frame []byte) bool
}

// Registry maps user ids to their current connection. A user has at most one
// handle; the most recent announcement wins. A handle may carry several users
// if the client announced more than one id on it.
type Registry struct {
	mu       sync.RWMutex
	byUser   map[string]Conn
	byHandle map[Conn]map[string]struct{}
}

func NewRegistry() *Registry {
	return &Registry{
		byUser:   make(map[string]Conn),
		byHandle: make(map[Conn]map[string]struct{}),
	}
}

// SetOnline binds userID to conn, replacing any previous handle.
// It reports whether a different handle was displaced.
func (r *Registry) SetOnline(userID string, conn Conn) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	prev, had := r.byUser[userID]
	if had && prev == conn {
		return false
	}
	if had {
		r.unindex(prev, userID)
	}
	r.byUser[userID] = conn
	users, ok := r.byHandle[conn]
	if !ok {
		users = make(map[string]struct{})
		r.byHandle[conn] = users
	}
	users[userID] = struct{}{}
	return had
}

// SetOffline removes userID only while it is still bound to conn, so a stale
// session cannot log out a newer one.
func (r *Registry) SetOffline(userID string, conn Conn) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	cur, ok := r.byUser[userID]
	if !ok || cur != conn {
		return false
	}
	delete(r.byUser, userID)
	r.unindex(conn, userID)
	return true
}

// Clear drops every user bound to conn and returns their ids.
func (r *Registry) Clear(conn Conn) []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	users := r.byHandle[conn]
	delete(r.byHandle, conn)
	out := make([]string, 0, len(users))
	for u := range users {
		if r.byUser[u] == conn {
			delete(r.byUser, u)
			out = append(out, u)
		}
	}
	return out
}

// Lookup returns the id of the handle currently bound to userID.
func (r *Registry) Lookup(userID string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	c, ok := r.byUser[userID]
	if !ok {
		return "", false
	}
	return c.ID(), true
}

// Deliver hands frame to userID's handle without blocking. It returns false
// when the user is offline or the handle refused the frame.
func (r *Registry) Deliver(userID string, frame []byte) bool {
	r.mu.RLock()
	c, ok := r.byUser[userID]
	r.mu.RUnlock()
	if !ok {
		return false
	}
	return c.TrySend(frame)
}

func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byUser)
}

// Users returns the ids bound to conn.
func (r *Registry) Users(conn Conn) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.byHandle[conn]))
	for u := range r.byHandle[conn] {
		out = append(out, u)
	}
	return out
}

// unindex must be called with mu held.
func (r *Registry) unindex(conn Conn, userID string) {
	users := r.byHandle[conn]
	delete(users, userID)
	if len(users) == 0 {
		delete(r.byHandle, conn)
	}
}
