package rest

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/ccooksey/bsi-server/internal/apperror"
)

type presenceRequest struct {
	Presence bool `json:"presence"`
}

func (that *server) listRoster(w http.ResponseWriter, r *http.Request) {
	entries, err := that.roster.List(r.Context())
	if err != nil {
		that.logger.Error("failed to list roster", "error", err)
		writeJSON(w, http.StatusNotFound, map[string]string{"rosterDatabaseError": "noRoster"})
		return
	}

	writeJSON(w, http.StatusOK, entries)
}

func (that *server) addToRoster(w http.ResponseWriter, r *http.Request) {
	added, err := that.roster.Add(r.Context(), usernameFrom(r))
	if err != nil {
		that.logger.Error("failed to add user", "error", err)
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Unable to add user"})
		return
	}

	msg := "User already in database"
	if added {
		msg = "User added to database"
	}

	writeJSON(w, http.StatusOK, map[string]string{"msg": msg})
}

func (that *server) removeFromRoster(w http.ResponseWriter, r *http.Request) {
	username := usernameFrom(r)

	if err := that.roster.Remove(r.Context(), username); err != nil {
		if errors.Is(err, apperror.ErrUserNotFound) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "No such user"})
			return
		}

		that.logger.Error("failed to remove user", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Unable to remove user"})
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"msg": "User " + username + " deleted from roster"})
}

func (that *server) postPresence(w http.ResponseWriter, r *http.Request) {
	var req presenceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid presence"})
		return
	}

	username := usernameFrom(r)
	that.roster.SetPresence(username, req.Presence)

	writeJSON(w, http.StatusOK, map[string]string{"msg": "Presence for " + username + " posted"})
}
