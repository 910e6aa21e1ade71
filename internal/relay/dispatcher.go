package relay

import (
	"encoding/json"
	"log/slog"
)

// Dispatcher delivers messages best-effort: at most once, no retry, no acknowledgement.
type Dispatcher struct {
	logger   *slog.Logger
	registry *Registry
}

func NewDispatcher(logger *slog.Logger, registry *Registry) *Dispatcher {
	return &Dispatcher{
		logger:   logger.With("component", "dispatcher"),
		registry: registry,
	}
}

// SendToSession delivers msg if the session's transport is open and drops it otherwise.
func (that *Dispatcher) SendToSession(session *Session, msg Message) bool {
	data, err := json.Marshal(msg)
	if err != nil {
		that.logger.Error("failed to marshal message", "type", msg.Type, "error", err)
		return false
	}

	return that.deliver(session, data)
}

// SendToUser delivers msg to toUser's session. GameActive and GameInactive kinds update the
// activity cache of fromUser's session for toUser whether or not toUser is online.
func (that *Dispatcher) SendToUser(toUser, fromUser string, kind Kind, msg Message) {
	log := that.logger.With("method", "SendToUser", "to", toUser, "from", fromUser, "type", msg.Type)

	switch kind {
	case KindGameActive:
		if sender, ok := that.registry.FindByUsername(fromUser); ok {
			sender.setActivity(toUser, msg.ID)
		}
	case KindGameInactive:
		if sender, ok := that.registry.FindByUsername(fromUser); ok {
			sender.clearActivity(toUser)
		}
	case KindNotice:
	}

	recipient, ok := that.registry.FindByUsername(toUser)
	if !ok {
		log.Debug("recipient is not connected")
		return
	}

	that.SendToSession(recipient, msg)
}

// Broadcast delivers msg to every open authorized session except the given one, which may be nil.
func (that *Dispatcher) Broadcast(msg Message, except *Session) {
	data, err := json.Marshal(msg)
	if err != nil {
		that.logger.Error("failed to marshal message", "type", msg.Type, "error", err)
		return
	}

	for _, session := range that.registry.Snapshot() {
		if session == except || !session.IsAuthorized() {
			continue
		}
		that.deliver(session, data)
	}
}

func (that *Dispatcher) deliver(session *Session, data []byte) bool {
	if session.isClosed() || !session.transport.IsOpen() {
		that.logger.Debug("dropping message for closed transport", "session", session.id)
		return false
	}

	if err := session.transport.Send(data); err != nil {
		that.logger.Debug("failed to deliver message", "session", session.id, "error", err)
		return false
	}

	return true
}
