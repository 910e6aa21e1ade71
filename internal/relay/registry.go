package relay

import (
	"sync"
)

type lifecycle interface {
	Start()
	Stop()
}

// Registry owns the live sessions. The username index is last-writer-wins: when two sessions bind
// the same name, lookups resolve to the most recently authorized one.
type Registry struct {
	mu         sync.RWMutex
	sessions   map[string]*Session
	byUsername map[string]string

	// monitor runs while the registry is non-empty.
	monitor lifecycle
}

func NewRegistry(monitor lifecycle) *Registry {
	return &Registry{
		sessions:   make(map[string]*Session),
		byUsername: make(map[string]string),
		monitor:    monitor,
	}
}

// Register inserts a session and starts the monitor for the first one.
func (that *Registry) Register(session *Session) {
	that.mu.Lock()
	defer that.mu.Unlock()

	if _, ok := that.sessions[session.id]; ok {
		return
	}

	that.sessions[session.id] = session

	if len(that.sessions) == 1 && that.monitor != nil {
		that.monitor.Start()
	}
}

// Unregister removes a session and stops the monitor once the registry is empty.
func (that *Registry) Unregister(id string) bool {
	that.mu.Lock()
	defer that.mu.Unlock()

	session, ok := that.sessions[id]
	if !ok {
		return false
	}

	delete(that.sessions, id)

	if username, authorized := session.Username(); authorized {
		that.unindex(username, id)
	}

	if len(that.sessions) == 0 && that.monitor != nil {
		that.monitor.Stop()
	}

	return true
}

// Bind authorizes a registered session as username. It returns false when the session is no
// longer registered.
func (that *Registry) Bind(session *Session, username string) bool {
	that.mu.Lock()
	defer that.mu.Unlock()

	if _, ok := that.sessions[session.id]; !ok {
		return false
	}

	if previous := session.bind(username); previous != "" && previous != username {
		that.unindex(previous, session.id)
	}

	that.byUsername[username] = session.id

	return true
}

// FindByUsername returns the session bound to username.
func (that *Registry) FindByUsername(username string) (*Session, bool) {
	that.mu.RLock()
	defer that.mu.RUnlock()

	id, ok := that.byUsername[username]
	if !ok {
		return nil, false
	}

	session, ok := that.sessions[id]

	return session, ok
}

func (that *Registry) Get(id string) (*Session, bool) {
	that.mu.RLock()
	defer that.mu.RUnlock()

	session, ok := that.sessions[id]

	return session, ok
}

// Snapshot returns the current sessions for iteration outside the lock. Order is unspecified.
func (that *Registry) Snapshot() []*Session {
	that.mu.RLock()
	defer that.mu.RUnlock()

	sessions := make([]*Session, 0, len(that.sessions))
	for _, session := range that.sessions {
		sessions = append(sessions, session)
	}

	return sessions
}

func (that *Registry) Len() int {
	that.mu.RLock()
	defer that.mu.RUnlock()

	return len(that.sessions)
}

// Close drops every session and stops the monitor. The dropped sessions are returned.
func (that *Registry) Close() []*Session {
	that.mu.Lock()
	defer that.mu.Unlock()

	sessions := make([]*Session, 0, len(that.sessions))
	for _, session := range that.sessions {
		sessions = append(sessions, session)
	}

	that.sessions = make(map[string]*Session)
	that.byUsername = make(map[string]string)

	if that.monitor != nil {
		that.monitor.Stop()
	}

	return sessions
}

// unindex repoints username at another session still bound to it, or drops it. Callers hold mu.
func (that *Registry) unindex(username, id string) {
	if that.byUsername[username] != id {
		return
	}

	delete(that.byUsername, username)

	for otherID, other := range that.sessions {
		if name, ok := other.Username(); ok && name == username {
			that.byUsername[username] = otherID
			return
		}
	}
}
