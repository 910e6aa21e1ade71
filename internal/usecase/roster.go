package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/ccooksey/bsi-server/internal/apperror"
	"github.com/ccooksey/bsi-server/internal/entity"
)

type rosterRepo interface {
	Save(ctx context.Context, entry *entity.RosterEntry) error
	Find(ctx context.Context, username string) (*entity.RosterEntry, error)
	ListVisible(ctx context.Context) ([]*entity.RosterEntry, error)
	Delete(ctx context.Context, username string) error
}

type presence interface {
	AnnounceOnline(username string)
	SignOut(username string)
}

type RosterManager struct {
	logger   *slog.Logger
	repo     rosterRepo
	presence presence

	// addMu covers the existence check and the insert in Add.
	addMu sync.Mutex
	now   func() time.Time
}

func NewRosterManager(logger *slog.Logger, repo rosterRepo, presence presence) *RosterManager {
	return &RosterManager{
		logger:   logger.With("component", "roster"),
		repo:     repo,
		presence: presence,
		now:      time.Now,
	}
}

func (that *RosterManager) List(ctx context.Context) ([]*entity.RosterEntry, error) {
	entries, err := that.repo.ListVisible(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list roster: %w", err)
	}

	return entries, nil
}

// Add puts username on the roster. It reports whether a new entry was created; an existing
// entry is not an error.
func (that *RosterManager) Add(ctx context.Context, username string) (bool, error) {
	that.addMu.Lock()
	defer that.addMu.Unlock()

	_, err := that.repo.Find(ctx, username)
	if err == nil {
		return false, nil
	}

	if !errors.Is(err, apperror.ErrUserNotFound) {
		return false, fmt.Errorf("failed to find user: %w", err)
	}

	entry := &entity.RosterEntry{
		Username: username,
		JoinDate: that.now().UTC(),
		Visible:  true,
	}

	if err = that.repo.Save(ctx, entry); err != nil {
		return false, fmt.Errorf("failed to save user: %w", err)
	}

	that.logger.Info("user added to roster", "username", username)

	return true, nil
}

func (that *RosterManager) Remove(ctx context.Context, username string) error {
	if err := that.repo.Delete(ctx, username); err != nil {
		return fmt.Errorf("failed to remove user: %w", err)
	}

	that.logger.Info("user removed from roster", "username", username)

	return nil
}

// SetPresence announces username to other sessions, or signs them out.
func (that *RosterManager) SetPresence(username string, online bool) {
	if online {
		that.presence.AnnounceOnline(username)
		return
	}

	that.presence.SignOut(username)
}
