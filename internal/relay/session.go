package relay

import (
	"context"
	"maps"
	"sync"
)

// Transport is the connection a session delivers messages through.
type Transport interface {
	Send(data []byte) error
	Ping() error
	Close() error
	IsOpen() bool
}

// identity exists only once a session is authorized, so activity entries cannot precede it.
type identity struct {
	username string
	// activity maps an opponent to the game this session's owner told them is active.
	activity map[string]string
}

// Session is one live connection and its authorization, liveness and activity state.
type Session struct {
	id        string
	transport Transport

	ctx    context.Context
	cancel context.CancelFunc

	mu       sync.Mutex
	alive    bool
	identity *identity
	closed   bool
}

func newSession(id string, transport Transport) *Session {
	ctx, cancel := context.WithCancel(context.Background())

	return &Session{
		id:        id,
		transport: transport,
		ctx:       ctx,
		cancel:    cancel,
		alive:     true,
	}
}

func (that *Session) ID() string {
	return that.id
}

// Username returns the bound username and whether the session is authorized.
func (that *Session) Username() (string, bool) {
	that.mu.Lock()
	defer that.mu.Unlock()

	if that.identity == nil {
		return "", false
	}
	return that.identity.username, true
}

func (that *Session) IsAuthorized() bool {
	_, ok := that.Username()
	return ok
}

// Context is cancelled when the session is torn down.
func (that *Session) Context() context.Context {
	return that.ctx
}

func (that *Session) markAlive() {
	that.mu.Lock()
	that.alive = true
	that.mu.Unlock()
}

// probe clears the liveness flag and reports whether it was set.
func (that *Session) probe() bool {
	that.mu.Lock()
	defer that.mu.Unlock()

	wasAlive := that.alive
	that.alive = false

	return wasAlive
}

// bind authorizes the session as username. Rebinding to the same name keeps the activity cache.
// It returns the previously bound name, if any.
func (that *Session) bind(username string) string {
	that.mu.Lock()
	defer that.mu.Unlock()

	previous := ""
	if that.identity != nil {
		previous = that.identity.username
		if previous == username {
			return previous
		}
	}

	that.identity = &identity{
		username: username,
		activity: make(map[string]string),
	}

	return previous
}

func (that *Session) setActivity(opponent, gameID string) bool {
	that.mu.Lock()
	defer that.mu.Unlock()

	if that.identity == nil || that.closed {
		return false
	}
	that.identity.activity[opponent] = gameID

	return true
}

func (that *Session) clearActivity(opponent string) {
	that.mu.Lock()
	defer that.mu.Unlock()

	if that.identity != nil {
		delete(that.identity.activity, opponent)
	}
}

// activityFor returns the game this session's owner has active against opponent.
func (that *Session) activityFor(opponent string) (string, bool) {
	that.mu.Lock()
	defer that.mu.Unlock()

	if that.identity == nil {
		return "", false
	}
	gameID, ok := that.identity.activity[opponent]

	return gameID, ok
}

func (that *Session) activitySnapshot() map[string]string {
	that.mu.Lock()
	defer that.mu.Unlock()

	if that.identity == nil {
		return nil
	}
	return maps.Clone(that.identity.activity)
}

// markClosed flags the session as torn down and cancels its context. Only the first call returns true.
func (that *Session) markClosed() bool {
	that.mu.Lock()
	defer that.mu.Unlock()

	if that.closed {
		return false
	}
	that.closed = true
	that.cancel()

	return true
}

func (that *Session) isClosed() bool {
	that.mu.Lock()
	defer that.mu.Unlock()

	return that.closed
}
