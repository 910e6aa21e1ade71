package usecase

import (
	"context"
	"sync"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/ccooksey/bsi-server/internal/apperror"
	"github.com/ccooksey/bsi-server/internal/entity"
	"github.com/ccooksey/bsi-server/internal/relay"
)

type mockGameRepo struct {
	mock.Mock
}

func (that *mockGameRepo) CreateOrUpdate(ctx context.Context, game *entity.Game) error {
	return that.Called(ctx, game).Error(0)
}

func (that *mockGameRepo) GetByID(ctx context.Context, id string) (*entity.Game, error) {
	args := that.Called(ctx, id)
	game, _ := args.Get(0).(*entity.Game)
	return game, args.Error(1)
}

func (that *mockGameRepo) ListByPlayer(ctx context.Context, username string) ([]*entity.Game, error) {
	args := that.Called(ctx, username)
	games, _ := args.Get(0).([]*entity.Game)
	return games, args.Error(1)
}

func (that *mockGameRepo) DeleteByID(ctx context.Context, id string) error {
	return that.Called(ctx, id).Error(0)
}

type mockNotifier struct {
	mock.Mock
}

func (that *mockNotifier) SendToUser(toUser, fromUser string, kind relay.Kind, msg relay.Message) {
	that.Called(toUser, fromUser, kind, msg)
}

type mockRosterRepo struct {
	mock.Mock
}

func (that *mockRosterRepo) Save(ctx context.Context, entry *entity.RosterEntry) error {
	return that.Called(ctx, entry).Error(0)
}

func (that *mockRosterRepo) Find(ctx context.Context, username string) (*entity.RosterEntry, error) {
	args := that.Called(ctx, username)
	entry, _ := args.Get(0).(*entity.RosterEntry)
	return entry, args.Error(1)
}

func (that *mockRosterRepo) ListVisible(ctx context.Context) ([]*entity.RosterEntry, error) {
	args := that.Called(ctx)
	entries, _ := args.Get(0).([]*entity.RosterEntry)
	return entries, args.Error(1)
}

func (that *mockRosterRepo) Delete(ctx context.Context, username string) error {
	return that.Called(ctx, username).Error(0)
}

type mockPresence struct {
	mock.Mock
}

func (that *mockPresence) AnnounceOnline(username string) {
	that.Called(username)
}

func (that *mockPresence) SignOut(username string) {
	that.Called(username)
}

// memGameRepo keeps games in memory. readDelay widens the window between a read and the
// write that follows it.
type memGameRepo struct {
	mu        sync.Mutex
	games     map[string]*entity.Game
	readDelay time.Duration
}

func newMemGameRepo(readDelay time.Duration, games ...*entity.Game) *memGameRepo {
	repo := &memGameRepo{games: make(map[string]*entity.Game), readDelay: readDelay}
	for _, game := range games {
		repo.games[game.ID] = game.Clone()
	}
	return repo
}

func (that *memGameRepo) CreateOrUpdate(_ context.Context, game *entity.Game) error {
	that.mu.Lock()
	defer that.mu.Unlock()

	that.games[game.ID] = game.Clone()
	return nil
}

func (that *memGameRepo) GetByID(_ context.Context, id string) (*entity.Game, error) {
	that.mu.Lock()
	game, ok := that.games[id]
	if ok {
		game = game.Clone()
	}
	that.mu.Unlock()

	time.Sleep(that.readDelay)

	if !ok {
		return nil, apperror.ErrGameNotFound
	}
	return game, nil
}

func (that *memGameRepo) ListByPlayer(_ context.Context, username string) ([]*entity.Game, error) {
	that.mu.Lock()
	defer that.mu.Unlock()

	var games []*entity.Game
	for _, game := range that.games {
		if game.HasPlayer(username) {
			games = append(games, game.Clone())
		}
	}
	return games, nil
}

func (that *memGameRepo) DeleteByID(_ context.Context, id string) error {
	that.mu.Lock()
	defer that.mu.Unlock()

	delete(that.games, id)
	return nil
}
