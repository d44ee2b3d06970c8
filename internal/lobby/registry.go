package lobby

import (
	"sync"

	"github.com/mbrault/morpion/internal/core/client"
)

// ConnectionRegistry maps connection ids to live client connections. Register
// and Deregister are atomic with respect to concurrent lookups.
type ConnectionRegistry struct {
	mu      sync.RWMutex
	clients map[string]*client.Client
}

func NewConnectionRegistry() *ConnectionRegistry {
	return &ConnectionRegistry{clients: make(map[string]*client.Client)}
}

// Register records the connection under its id.
func (r *ConnectionRegistry) Register(c *client.Client) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.clients[c.ID] = c
}

// Deregister removes the connection and reports whether it was present,
// which lets disconnect cleanup run exactly once per connection.
func (r *ConnectionRegistry) Deregister(connectionID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.clients[connectionID]; !ok {
		return false
	}
	delete(r.clients, connectionID)
	return true
}

// Get returns the live connection for connectionID, if any.
func (r *ConnectionRegistry) Get(connectionID string) (*client.Client, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.clients[connectionID]
	return c, ok
}

// Len returns the number of registered connections.
func (r *ConnectionRegistry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.clients)
}

// SessionRegistry maps each participant's connection id to their active
// session, replacing any linear scan over active games with a keyed lookup.
type SessionRegistry struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

func NewSessionRegistry() *SessionRegistry {
	return &SessionRegistry{sessions: make(map[string]*Session)}
}

// Add registers the session under both participants' connection ids.
func (r *SessionRegistry) Add(s *Session) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, p := range s.Participants() {
		r.sessions[p.ConnectionID] = s
	}
}

// Lookup returns the active session for connectionID, if any.
func (r *SessionRegistry) Lookup(connectionID string) (*Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions[connectionID]
	return s, ok
}

// Remove tears down both participants' mappings for the session, reporting
// whether this call was the one that removed them. Concurrent teardowns of
// the same session observe false, keeping opponent notification exactly-once.
func (r *SessionRegistry) Remove(s *Session) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	removed := false
	for _, p := range s.Participants() {
		if r.sessions[p.ConnectionID] == s {
			delete(r.sessions, p.ConnectionID)
			removed = true
		}
	}
	return removed
}

// Len returns the number of participants currently mapped to a session.
func (r *SessionRegistry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}
