package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ccooksey/bsi-server/internal/apperror"
	"github.com/ccooksey/bsi-server/internal/entity"
	"github.com/ccooksey/bsi-server/internal/relay"
)

type gameRepo interface {
	CreateOrUpdate(ctx context.Context, game *entity.Game) error
	GetByID(ctx context.Context, id string) (*entity.Game, error)
	ListByPlayer(ctx context.Context, username string) ([]*entity.Game, error)
	DeleteByID(ctx context.Context, id string) error
}

type moveEngine interface {
	ApplyMove(game *entity.Game, username string, x, y int) (*entity.Game, error)
}

// notifier is the part of the relay use cases push notifications through.
type notifier interface {
	SendToUser(toUser, fromUser string, kind relay.Kind, msg relay.Message)
}

type OthelloManager struct {
	logger   *slog.Logger
	gameRepo gameRepo
	engine   moveEngine
	notifier notifier
	locks    *gameLocks

	now   func() time.Time
	newID func() string
}

func NewOthelloManager(logger *slog.Logger, gameRepo gameRepo, engine moveEngine, notifier notifier) *OthelloManager {
	return &OthelloManager{
		logger:   logger.With("component", "othello"),
		gameRepo: gameRepo,
		engine:   engine,
		notifier: notifier,
		locks:    newGameLocks(),
		now:      time.Now,
		newID:    uuid.NewString,
	}
}

// Create starts a game between username and opponent and tells the opponent about it.
// An unknown color falls back to black.
func (that *OthelloManager) Create(ctx context.Context, username, opponent string, userColor entity.Cell) (*entity.Game, error) {
	if opponent == "" {
		return nil, apperror.ErrInvalidPlayer
	}

	game := entity.NewGame(that.newID(), username, opponent, userColor, that.now().UTC())

	if err := that.gameRepo.CreateOrUpdate(ctx, game); err != nil {
		return nil, fmt.Errorf("failed to create game: %w", err)
	}

	that.notifier.SendToUser(opponent, username, relay.KindNotice, relay.GameCreatedMessage(username))

	that.logger.Info("game created", "id", game.ID, "players", game.Players)

	return game, nil
}

// List returns the games username plays in that match filter.
func (that *OthelloManager) List(ctx context.Context, username string, filter entity.GameFilter) ([]*entity.Game, error) {
	games, err := that.gameRepo.ListByPlayer(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("failed to list games: %w", err)
	}

	matched := make([]*entity.Game, 0, len(games))
	for _, game := range games {
		if filter.Matches(game) {
			matched = append(matched, game)
		}
	}

	return matched, nil
}

// Load returns a game and marks it as the one username is looking at, so the opponent can
// follow along now or when they next connect.
func (that *OthelloManager) Load(ctx context.Context, username, id string) (*entity.Game, error) {
	game, err := that.playerGame(ctx, username, id)
	if err != nil {
		return nil, err
	}

	opponent := game.Opponent(username)
	that.notifier.SendToUser(opponent, username, relay.KindGameActive, relay.GameActiveMessage(username, game.ID))

	return game, nil
}

// Unload tells the opponent username stopped looking at the game.
func (that *OthelloManager) Unload(ctx context.Context, username, id string) error {
	game, err := that.playerGame(ctx, username, id)
	if err != nil {
		return err
	}

	opponent := game.Opponent(username)
	that.notifier.SendToUser(opponent, username, relay.KindGameInactive, relay.GameInactiveMessage(username, game.ID))

	return nil
}

// Move applies a move by username and stores the result. Rule violations come back unwrapped
// so callers can map them to codes.
func (that *OthelloManager) Move(ctx context.Context, username, id string, x, y int) (*entity.Game, error) {
	log := that.logger.With("method", "Move", "id", id, "username", username)

	unlock := that.locks.lock(id)
	defer unlock()

	game, err := that.gameRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get game: %w", err)
	}

	next, err := that.engine.ApplyMove(game, username, x, y)
	if err != nil {
		log.Debug("move rejected", "x", x, "y", y, "error", err)
		return nil, err
	}

	if err = that.gameRepo.CreateOrUpdate(ctx, next); err != nil {
		return nil, fmt.Errorf("failed to update game: %w", err)
	}

	that.notifier.SendToUser(next.Opponent(username), username, relay.KindNotice, relay.GameUpdatedMessage())

	if next.IsFinished() {
		log.Info("game finished", "winner", next.Winner)
	}

	return next, nil
}

func (that *OthelloManager) Delete(ctx context.Context, username, id string) error {
	unlock := that.locks.lock(id)
	defer unlock()

	if _, err := that.playerGame(ctx, username, id); err != nil {
		return err
	}

	if err := that.gameRepo.DeleteByID(ctx, id); err != nil {
		return fmt.Errorf("failed to delete game: %w", err)
	}

	that.logger.Info("game deleted", "id", id, "username", username)

	return nil
}

func (that *OthelloManager) playerGame(ctx context.Context, username, id string) (*entity.Game, error) {
	game, err := that.gameRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get game: %w", err)
	}

	if !game.HasPlayer(username) {
		return nil, apperror.ErrNotAPlayer
	}

	return game, nil
}

// gameLocks serializes read-modify-write cycles per game id. Entries are dropped once no
// caller holds or waits on them.
type gameLocks struct {
	mu    sync.Mutex
	games map[string]*gameLock
}

type gameLock struct {
	mu      sync.Mutex
	waiters int
}

func newGameLocks() *gameLocks {
	return &gameLocks{games: make(map[string]*gameLock)}
}

func (that *gameLocks) lock(id string) func() {
	that.mu.Lock()
	entry, ok := that.games[id]
	if !ok {
		entry = &gameLock{}
		that.games[id] = entry
	}
	entry.waiters++
	that.mu.Unlock()

	entry.mu.Lock()

	return func() {
		entry.mu.Unlock()

		that.mu.Lock()
		entry.waiters--
		if entry.waiters == 0 {
			delete(that.games, id)
		}
		that.mu.Unlock()
	}
}

func (that *gameLocks) held() int {
	that.mu.Lock()
	defer that.mu.Unlock()

	return len(that.games)
}
