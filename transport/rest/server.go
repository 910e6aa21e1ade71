package rest

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"

	"github.com/ccooksey/bsi-server/internal/entity"
)

type introspector interface {
	Introspect(ctx context.Context, token string) (string, error)
}

type othelloUseCase interface {
	Create(ctx context.Context, username, opponent string, userColor entity.Cell) (*entity.Game, error)
	List(ctx context.Context, username string, filter entity.GameFilter) ([]*entity.Game, error)
	Load(ctx context.Context, username, id string) (*entity.Game, error)
	Unload(ctx context.Context, username, id string) error
	Move(ctx context.Context, username, id string, x, y int) (*entity.Game, error)
	Delete(ctx context.Context, username, id string) error
}

type rosterUseCase interface {
	List(ctx context.Context) ([]*entity.RosterEntry, error)
	Add(ctx context.Context, username string) (bool, error)
	Remove(ctx context.Context, username string) error
	SetPresence(username string, online bool)
}

type Deps struct {
	Introspector   introspector
	Othello        othelloUseCase
	Roster         rosterUseCase
	Realtime       http.Handler
	AllowedOrigins []string
}

type server struct {
	logger  *slog.Logger
	othello othelloUseCase
	roster  rosterUseCase
}

// NewRouter wires every HTTP route. Everything under /api requires a bearer token.
func NewRouter(logger *slog.Logger, deps Deps) http.Handler {
	srv := &server{
		logger:  logger.With("component", "rest"),
		othello: deps.Othello,
		roster:  deps.Roster,
	}

	router := mux.NewRouter()

	router.HandleFunc("/ping", ping).Methods(http.MethodGet)
	if deps.Realtime != nil {
		router.Handle("/ws", deps.Realtime).Methods(http.MethodGet)
	}

	api := router.PathPrefix("/api").Subrouter()
	api.Use(authenticate(srv.logger, deps.Introspector))

	games := api.PathPrefix("/games/othello").Subrouter()
	games.HandleFunc("", srv.listGames).Methods(http.MethodGet)
	games.HandleFunc("", srv.createGame).Methods(http.MethodPost)
	games.HandleFunc("/{id}", srv.loadGame).Methods(http.MethodGet)
	games.HandleFunc("/{id}", srv.deleteGame).Methods(http.MethodDelete)
	games.HandleFunc("/{id}/move", srv.moveGame).Methods(http.MethodPost)
	games.HandleFunc("/{id}/unload", srv.unloadGame).Methods(http.MethodPost)

	api.HandleFunc("/roster", srv.listRoster).Methods(http.MethodGet)
	api.HandleFunc("/roster", srv.addToRoster).Methods(http.MethodPost)
	api.HandleFunc("/roster", srv.removeFromRoster).Methods(http.MethodDelete)
	api.HandleFunc("/roster/presence", srv.postPresence).Methods(http.MethodPost)

	return handlers.CORS(
		handlers.AllowedOrigins(deps.AllowedOrigins),
		handlers.AllowedMethods([]string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions}),
		handlers.AllowedHeaders([]string{"Authorization", "Content-Type"}),
	)(router)
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func ping(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	_, _ = w.Write([]byte("pong"))
}
