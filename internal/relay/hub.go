package relay

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

const defaultAuthTimeout = 10 * time.Second

type introspector interface {
	// Introspect returns the username a bearer token belongs to, or an error if it is not valid.
	Introspect(ctx context.Context, token string) (string, error)
}

type Options struct {
	HeartbeatInterval time.Duration
	AuthTimeout       time.Duration
}

// Hub is the realtime relay. Sessions stay inert until authorized; after that the hub fans out
// presence and game activity between users.
type Hub struct {
	logger       *slog.Logger
	introspector introspector

	registry   *Registry
	monitor    *HeartbeatMonitor
	dispatcher *Dispatcher
	replay     *ReplayEngine

	authTimeout time.Duration

	// stopping is guarded by mu together with pending.Add so Shutdown's Wait cannot race a new call.
	mu       sync.Mutex
	stopping bool
	pending  sync.WaitGroup
}

func New(logger *slog.Logger, introspector introspector, opts Options) *Hub {
	if opts.AuthTimeout <= 0 {
		opts.AuthTimeout = defaultAuthTimeout
	}

	log := logger.With("component", "relay")

	hub := &Hub{
		logger:       log,
		introspector: introspector,
		authTimeout:  opts.AuthTimeout,
	}

	hub.monitor = NewHeartbeatMonitor(log, opts.HeartbeatInterval, hub.Sweep)
	hub.registry = NewRegistry(hub.monitor)
	hub.dispatcher = NewDispatcher(log, hub.registry)
	hub.replay = NewReplayEngine(log, hub.registry, hub.dispatcher)

	return hub
}

// Connect registers a new unauthorized session for transport.
func (that *Hub) Connect(transport Transport) *Session {
	session := newSession(uuid.NewString(), transport)
	that.registry.Register(session)

	that.logger.Info("session connected", "session", session.id, "sessions", that.registry.Len())

	return session
}

// HandleMessage processes one inbound message. Until the session is authorized, everything but
// an authorization message is dropped without a reply.
func (that *Hub) HandleMessage(session *Session, data []byte) {
	log := that.logger.With("method", "HandleMessage", "session", session.id)

	if session.isClosed() {
		return
	}

	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		log.Debug("discarding malformed message", "error", err)
		return
	}

	if msg.Type == TypeAuthorization {
		that.authorize(session, msg.Token)
		return
	}

	if !session.IsAuthorized() {
		log.Debug("discarding message from unauthorized session", "type", msg.Type)
		return
	}

	log.Debug("ignoring unsupported message", "type", msg.Type)
}

// Pong records a probe response.
func (that *Hub) Pong(session *Session) {
	session.markAlive()
}

// Disconnect runs disconnect handling for a transport-initiated close.
func (that *Hub) Disconnect(session *Session) {
	that.disconnect(session, "closed")
}

// SignOut disconnects the session bound to username. It is a no-op if none is connected.
func (that *Hub) SignOut(username string) {
	session, ok := that.registry.FindByUsername(username)
	if !ok {
		that.logger.Debug("sign out for unknown user", "username", username)
		return
	}

	that.disconnect(session, "signed out")

	if err := session.transport.Close(); err != nil {
		that.logger.Debug("failed to close transport", "session", session.id, "error", err)
	}
}

// AnnounceOnline tells every other session that username is present.
func (that *Hub) AnnounceOnline(username string) {
	except, _ := that.registry.FindByUsername(username)
	that.dispatcher.Broadcast(PlayerOnlineMessage(username), except)
}

// SendToUser delivers a message from fromUser to toUser. See Dispatcher.SendToUser.
func (that *Hub) SendToUser(toUser, fromUser string, kind Kind, msg Message) {
	that.dispatcher.SendToUser(toUser, fromUser, kind, msg)
}

func (that *Hub) Broadcast(msg Message) {
	that.dispatcher.Broadcast(msg, nil)
}

// Sweep is one heartbeat pass: sessions that answered the last probe are probed again, the rest
// are terminated.
func (that *Hub) Sweep() {
	for _, session := range that.registry.Snapshot() {
		if session.probe() {
			if err := session.transport.Ping(); err != nil {
				that.logger.Debug("failed to ping session", "session", session.id, "error", err)
			}
			continue
		}

		that.logger.Info("terminating unresponsive session", "session", session.id)

		if err := session.transport.Close(); err != nil {
			that.logger.Debug("failed to close transport", "session", session.id, "error", err)
		}

		that.disconnect(session, "unresponsive")
	}
}

// Shutdown drops every session and stops the heartbeat without notifying anyone.
func (that *Hub) Shutdown() {
	that.mu.Lock()
	that.stopping = true
	that.mu.Unlock()

	for _, session := range that.registry.Close() {
		session.markClosed()

		if err := session.transport.Close(); err != nil {
			that.logger.Debug("failed to close transport", "session", session.id, "error", err)
		}
	}

	that.pending.Wait()

	that.logger.Info("relay stopped")
}

func (that *Hub) Sessions() int {
	return that.registry.Len()
}

func (that *Hub) authorize(session *Session, bearer string) {
	token := bearer
	if _, after, found := strings.Cut(bearer, " "); found {
		token = after
	}

	that.mu.Lock()
	if that.stopping {
		that.mu.Unlock()
		return
	}
	that.pending.Add(1)
	that.mu.Unlock()

	go func() {
		defer that.pending.Done()

		log := that.logger.With("method", "authorize", "session", session.id)

		ctx, cancel := context.WithTimeout(session.ctx, that.authTimeout)
		defer cancel()

		username, err := that.introspector.Introspect(ctx, token)

		if session.ctx.Err() != nil {
			log.Debug("discarding authorization result for closed session")
			return
		}

		if err != nil || username == "" {
			log.Info("authorization rejected", "error", err)
			that.dispatcher.SendToSession(session, AuthorizationMessage(false))
			return
		}

		previous, wasAuthorized := session.Username()
		activity := session.activitySnapshot()

		if !that.registry.Bind(session, username) {
			log.Debug("discarding authorization result for unregistered session")
			return
		}

		if wasAuthorized && previous != username {
			log.Info("session changed identity", "previous", previous)
			that.announceDeparture(session, previous, activity)
		}

		log.Info("session authorized", "username", username)

		that.dispatcher.SendToSession(session, AuthorizationMessage(true))
		that.replay.Replay(session)
	}()
}

func (that *Hub) disconnect(session *Session, reason string) {
	if !session.markClosed() {
		return
	}

	username, authorized := session.Username()

	if authorized {
		that.announceDeparture(session, username, session.activitySnapshot())
	}

	that.registry.Unregister(session.id)

	that.logger.Info("session disconnected",
		"session", session.id,
		"username", username,
		"reason", reason,
		"sessions", that.registry.Len(),
	)
}

// announceDeparture tells username's opponents their games went inactive and everyone else
// that username is gone.
func (that *Hub) announceDeparture(session *Session, username string, activity map[string]string) {
	for opponent, gameID := range activity {
		that.dispatcher.SendToUser(opponent, username, KindNotice, GameInactiveMessage(username, gameID))
	}

	that.dispatcher.Broadcast(PlayerOfflineMessage(username), session)
}
