package relay

import "log/slog"

// ReplayEngine sends a newly authorized user the presence and game activity they missed.
type ReplayEngine struct {
	logger     *slog.Logger
	registry   *Registry
	dispatcher *Dispatcher
}

func NewReplayEngine(logger *slog.Logger, registry *Registry, dispatcher *Dispatcher) *ReplayEngine {
	return &ReplayEngine{
		logger:     logger.With("component", "replay"),
		registry:   registry,
		dispatcher: dispatcher,
	}
}

// Replay delivers to target only: presence of every other authorized session first, then every
// game other sessions have told target's user is active.
func (that *ReplayEngine) Replay(target *Session) {
	username, ok := target.Username()
	if !ok {
		return
	}

	sessions := that.registry.Snapshot()

	presence := 0
	for _, session := range sessions {
		if session == target {
			continue
		}
		if name, authorized := session.Username(); authorized && name != username {
			that.dispatcher.SendToSession(target, PlayerOnlineMessage(name))
			presence++
		}
	}

	activity := 0
	for _, session := range sessions {
		if session == target {
			continue
		}
		name, authorized := session.Username()
		if !authorized {
			continue
		}
		if gameID, found := session.activityFor(username); found {
			that.dispatcher.SendToSession(target, GameActiveMessage(name, gameID))
			activity++
		}
	}

	that.logger.Debug("replayed state", "username", username, "presence", presence, "activity", activity)
}
