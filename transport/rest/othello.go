package rest

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/ccooksey/bsi-server/internal/apperror"
	"github.com/ccooksey/bsi-server/internal/entity"
)

// moveErrorCodes are the rejection codes clients switch on.
var moveErrorCodes = map[error]string{
	apperror.ErrNotYourTurn:               "othelloNotYourTurn",
	apperror.ErrCellNotEmpty:              "othelloCellNotEmpty",
	apperror.ErrOpponentCellNotAdjacent:   "othelloOpponentCellNotAdjacent",
	apperror.ErrTerminatingCellNotPresent: "othelloTerminatingCellNotPresent",
	apperror.ErrInvalidCell:               "othelloInvalidCell",
}

type createGameRequest struct {
	Opponent  string `json:"opponent"`
	UserColor string `json:"usercolor"`
}

type moveRequest struct {
	X *int `json:"x"`
	Y *int `json:"y"`
}

func (that *server) listGames(w http.ResponseWriter, r *http.Request) {
	games, err := that.othello.List(r.Context(), usernameFrom(r), gameFilterFrom(r))
	if err != nil {
		that.logger.Error("failed to list games", "error", err)
		writeJSON(w, http.StatusNotFound, map[string]string{"othelloDatabaseError": "noGames"})
		return
	}

	writeJSON(w, http.StatusOK, games)
}

// gameFilterFrom reads the optional next and winner query parameters. An empty value still
// filters, so winner= lists unfinished games.
func gameFilterFrom(r *http.Request) entity.GameFilter {
	query := r.URL.Query()

	var filter entity.GameFilter
	if query.Has("next") {
		next := query.Get("next")
		filter.Next = &next
	}
	if query.Has("winner") {
		winner := query.Get("winner")
		filter.Winner = &winner
	}

	return filter
}

func (that *server) createGame(w http.ResponseWriter, r *http.Request) {
	var req createGameRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"othelloDatabaseError": "unableToCreateGame"})
		return
	}

	game, err := that.othello.Create(r.Context(), usernameFrom(r), req.Opponent, entity.Cell(req.UserColor))
	if err != nil {
		that.logger.Info("failed to create game", "error", err)
		writeJSON(w, http.StatusBadRequest, map[string]string{"othelloDatabaseError": "unableToCreateGame"})
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"msg": "Othello game added successfully",
		"id":  game.ID,
	})
}

func (that *server) loadGame(w http.ResponseWriter, r *http.Request) {
	game, err := that.othello.Load(r.Context(), usernameFrom(r), mux.Vars(r)["id"])
	if err != nil {
		that.writeGameError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, game)
}

func (that *server) unloadGame(w http.ResponseWriter, r *http.Request) {
	if err := that.othello.Unload(r.Context(), usernameFrom(r), mux.Vars(r)["id"]); err != nil {
		that.writeGameError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"msg": "Othello game unloaded"})
}

func (that *server) moveGame(w http.ResponseWriter, r *http.Request) {
	var req moveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.X == nil || req.Y == nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"othelloMoveError": moveErrorCodes[apperror.ErrInvalidCell]})
		return
	}

	game, err := that.othello.Move(r.Context(), usernameFrom(r), mux.Vars(r)["id"], *req.X, *req.Y)
	if err != nil {
		if apperror.IsMoveRejection(err) {
			writeJSON(w, http.StatusBadRequest, map[string]string{"othelloMoveError": moveErrorCode(err)})
			return
		}

		that.writeGameError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, game)
}

func (that *server) deleteGame(w http.ResponseWriter, r *http.Request) {
	if err := that.othello.Delete(r.Context(), usernameFrom(r), mux.Vars(r)["id"]); err != nil {
		that.writeGameError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"msg": "Othello game deleted successfully"})
}

func moveErrorCode(err error) string {
	for target, code := range moveErrorCodes {
		if errors.Is(err, target) {
			return code
		}
	}

	return moveErrorCodes[apperror.ErrInvalidCell]
}

func (that *server) writeGameError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, apperror.ErrGameNotFound):
		writeJSON(w, http.StatusNotFound, map[string]string{"othelloDatabaseError": "noSuchGame"})
	case errors.Is(err, apperror.ErrNotAPlayer):
		writeJSON(w, http.StatusForbidden, map[string]string{"othelloDatabaseError": "notAPlayer"})
	default:
		that.logger.Error("game request failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"othelloDatabaseError": "gameUpdateError"})
	}
}
