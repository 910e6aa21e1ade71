package rest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/ccooksey/bsi-server/internal/apperror"
	"github.com/ccooksey/bsi-server/internal/entity"
)

type staticIntrospector map[string]string

func (that staticIntrospector) Introspect(_ context.Context, token string) (string, error) {
	username, ok := that[token]
	if !ok {
		return "", apperror.ErrAuthRejected
	}
	return username, nil
}

type mockOthello struct {
	mock.Mock
}

func (that *mockOthello) Create(ctx context.Context, username, opponent string, userColor entity.Cell) (*entity.Game, error) {
	args := that.Called(ctx, username, opponent, userColor)
	game, _ := args.Get(0).(*entity.Game)
	return game, args.Error(1)
}

func (that *mockOthello) List(ctx context.Context, username string, filter entity.GameFilter) ([]*entity.Game, error) {
	args := that.Called(ctx, username, filter)
	games, _ := args.Get(0).([]*entity.Game)
	return games, args.Error(1)
}

func (that *mockOthello) Load(ctx context.Context, username, id string) (*entity.Game, error) {
	args := that.Called(ctx, username, id)
	game, _ := args.Get(0).(*entity.Game)
	return game, args.Error(1)
}

func (that *mockOthello) Unload(ctx context.Context, username, id string) error {
	return that.Called(ctx, username, id).Error(0)
}

func (that *mockOthello) Move(ctx context.Context, username, id string, x, y int) (*entity.Game, error) {
	args := that.Called(ctx, username, id, x, y)
	game, _ := args.Get(0).(*entity.Game)
	return game, args.Error(1)
}

func (that *mockOthello) Delete(ctx context.Context, username, id string) error {
	return that.Called(ctx, username, id).Error(0)
}

type mockRoster struct {
	mock.Mock
}

func (that *mockRoster) List(ctx context.Context) ([]*entity.RosterEntry, error) {
	args := that.Called(ctx)
	entries, _ := args.Get(0).([]*entity.RosterEntry)
	return entries, args.Error(1)
}

func (that *mockRoster) Add(ctx context.Context, username string) (bool, error) {
	args := that.Called(ctx, username)
	return args.Bool(0), args.Error(1)
}

func (that *mockRoster) Remove(ctx context.Context, username string) error {
	return that.Called(ctx, username).Error(0)
}

func (that *mockRoster) SetPresence(username string, online bool) {
	that.Called(username, online)
}

type fixture struct {
	handler http.Handler
	othello *mockOthello
	roster  *mockRoster
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	f := &fixture{
		othello: &mockOthello{},
		roster:  &mockRoster{},
	}

	f.handler = NewRouter(slog.New(slog.NewTextHandler(io.Discard, nil)), Deps{
		Introspector:   staticIntrospector{"alice-token": "alice"},
		Othello:        f.othello,
		Roster:         f.roster,
		AllowedOrigins: []string{"http://localhost:3000"},
	})

	t.Cleanup(func() {
		f.othello.AssertExpectations(t)
		f.roster.AssertExpectations(t)
	})

	return f
}

func (that *fixture) do(method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Authorization", "Bearer alice-token")

	rec := httptest.NewRecorder()
	that.handler.ServeHTTP(rec, req)

	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]string {
	t.Helper()

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))

	return body
}

func TestAuthentication(t *testing.T) {
	t.Run("Missing header is noToken", func(t *testing.T) {
		f := newFixture(t)

		rec := httptest.NewRecorder()
		f.handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/roster", nil))

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, map[string]string{"authorizationError": "noToken"}, decode(t, rec))
	})

	t.Run("Unknown token is unauthorized", func(t *testing.T) {
		f := newFixture(t)

		req := httptest.NewRequest(http.MethodGet, "/api/roster", nil)
		req.Header.Set("Authorization", "Bearer stolen")

		rec := httptest.NewRecorder()
		f.handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, map[string]string{"authorizationError": "unauthorized"}, decode(t, rec))
	})

	t.Run("Ping needs no token", func(t *testing.T) {
		f := newFixture(t)

		rec := httptest.NewRecorder()
		f.handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ping", nil))

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "pong", rec.Body.String())
	})
}

func TestOthelloRoutes(t *testing.T) {
	created := time.Date(2023, 5, 1, 12, 0, 0, 0, time.UTC)

	t.Run("Create replies with the new id", func(t *testing.T) {
		f := newFixture(t)

		f.othello.On("Create", mock.Anything, "alice", "bob", entity.White).
			Return(entity.NewGame("g1", "alice", "bob", entity.White, created), nil).
			Once()

		rec := f.do(http.MethodPost, "/api/games/othello", `{"opponent":"bob","usercolor":"W"}`)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "g1", decode(t, rec)["id"])
	})

	t.Run("List passes query filters through", func(t *testing.T) {
		f := newFixture(t)

		unfinished := ""
		f.othello.On("List", mock.Anything, "alice", entity.GameFilter{Winner: &unfinished}).
			Return([]*entity.Game{entity.NewGame("g1", "alice", "bob", entity.Black, created)}, nil).
			Once()
		f.othello.On("List", mock.Anything, "alice", entity.GameFilter{}).
			Return([]*entity.Game{}, nil).
			Once()

		filtered := f.do(http.MethodGet, "/api/games/othello?winner=", "")
		all := f.do(http.MethodGet, "/api/games/othello?color=red", "")

		require.Equal(t, http.StatusOK, filtered.Code)
		assert.Contains(t, filtered.Body.String(), `"_id":"g1"`)
		require.Equal(t, http.StatusOK, all.Code)
		assert.JSONEq(t, `[]`, all.Body.String())
	})

	t.Run("Load returns the game", func(t *testing.T) {
		f := newFixture(t)

		f.othello.On("Load", mock.Anything, "alice", "g1").
			Return(entity.NewGame("g1", "alice", "bob", entity.Black, created), nil).
			Once()

		rec := f.do(http.MethodGet, "/api/games/othello/g1", "")

		require.Equal(t, http.StatusOK, rec.Code)

		var game entity.Game
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &game))
		assert.Equal(t, "g1", game.ID)
		assert.Equal(t, entity.OpeningBoard(), game.State)
	})

	t.Run("Missing games are 404", func(t *testing.T) {
		f := newFixture(t)

		f.othello.On("Load", mock.Anything, "alice", "nope").
			Return(nil, fmt.Errorf("failed to get game: %w", apperror.ErrGameNotFound)).
			Once()

		rec := f.do(http.MethodGet, "/api/games/othello/nope", "")

		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Equal(t, "noSuchGame", decode(t, rec)["othelloDatabaseError"])
	})

	t.Run("Move rejections map to codes", func(t *testing.T) {
		invalidCell := fmt.Errorf("%w: (9, 9)", apperror.ErrInvalidCell)

		cases := map[error]string{
			apperror.ErrNotYourTurn:               "othelloNotYourTurn",
			apperror.ErrCellNotEmpty:              "othelloCellNotEmpty",
			apperror.ErrOpponentCellNotAdjacent:   "othelloOpponentCellNotAdjacent",
			apperror.ErrTerminatingCellNotPresent: "othelloTerminatingCellNotPresent",
			invalidCell:                           "othelloInvalidCell",
		}

		for rejection, code := range cases {
			t.Run(code, func(t *testing.T) {
				f := newFixture(t)

				f.othello.On("Move", mock.Anything, "alice", "g1", 3, 2).Return(nil, rejection).Once()

				rec := f.do(http.MethodPost, "/api/games/othello/g1/move", `{"x":3,"y":2}`)

				assert.Equal(t, http.StatusBadRequest, rec.Code)
				assert.Equal(t, map[string]string{"othelloMoveError": code}, decode(t, rec))
			})
		}
	})

	t.Run("Move without coordinates is rejected", func(t *testing.T) {
		f := newFixture(t)

		rec := f.do(http.MethodPost, "/api/games/othello/g1/move", `{"x":3}`)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("Storage failures on move are 500", func(t *testing.T) {
		f := newFixture(t)

		f.othello.On("Move", mock.Anything, "alice", "g1", 0, 0).Return(nil, errors.New("redis down")).Once()

		rec := f.do(http.MethodPost, "/api/games/othello/g1/move", `{"x":0,"y":0}`)

		assert.Equal(t, http.StatusInternalServerError, rec.Code)
	})

	t.Run("Unload and delete", func(t *testing.T) {
		f := newFixture(t)

		f.othello.On("Unload", mock.Anything, "alice", "g1").Return(nil).Once()
		f.othello.On("Delete", mock.Anything, "alice", "g1").Return(apperror.ErrNotAPlayer).Once()

		assert.Equal(t, http.StatusOK, f.do(http.MethodPost, "/api/games/othello/g1/unload", "").Code)
		assert.Equal(t, http.StatusForbidden, f.do(http.MethodDelete, "/api/games/othello/g1", "").Code)
	})
}

func TestRosterRoutes(t *testing.T) {
	t.Run("Add is success-shaped either way", func(t *testing.T) {
		f := newFixture(t)

		f.roster.On("Add", mock.Anything, "alice").Return(true, nil).Once()
		f.roster.On("Add", mock.Anything, "alice").Return(false, nil).Once()

		first := f.do(http.MethodPost, "/api/roster", "")
		second := f.do(http.MethodPost, "/api/roster", "")

		assert.Equal(t, http.StatusOK, first.Code)
		assert.Equal(t, "User added to database", decode(t, first)["msg"])
		assert.Equal(t, http.StatusOK, second.Code)
		assert.Equal(t, "User already in database", decode(t, second)["msg"])
	})

	t.Run("Presence is passed through", func(t *testing.T) {
		f := newFixture(t)

		f.roster.On("SetPresence", "alice", false).Once()

		rec := f.do(http.MethodPost, "/api/roster/presence", `{"presence":false}`)

		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("Lists visible entries", func(t *testing.T) {
		f := newFixture(t)

		f.roster.On("List", mock.Anything).
			Return([]*entity.RosterEntry{{Username: "alice", Visible: true}}, nil).
			Once()

		rec := f.do(http.MethodGet, "/api/roster", "")

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `"username":"alice"`)
	})

	t.Run("Removing an unknown user is 404", func(t *testing.T) {
		f := newFixture(t)

		f.roster.On("Remove", mock.Anything, "alice").Return(apperror.ErrUserNotFound).Once()

		rec := f.do(http.MethodDelete, "/api/roster", "")

		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}
