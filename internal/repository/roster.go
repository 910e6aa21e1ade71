package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/ccooksey/bsi-server/internal/apperror"
	"github.com/ccooksey/bsi-server/internal/entity"
)

type RosterRepository struct {
	conn *sql.DB
}

func NewRosterRepository(conn *sql.DB) *RosterRepository {
	return &RosterRepository{
		conn: conn,
	}
}

func (that *RosterRepository) Save(ctx context.Context, entry *entity.RosterEntry) error {
	query := `INSERT INTO roster (username, joindate, visible) VALUES ($1, $2, $3)`

	_, err := that.conn.ExecContext(ctx, query, entry.Username, entry.JoinDate.UTC(), entry.Visible)
	if err != nil {
		return fmt.Errorf("can't save roster entry: %w", err)
	}

	return nil
}

func (that *RosterRepository) Find(ctx context.Context, username string) (*entity.RosterEntry, error) {
	query := `SELECT username, joindate, visible FROM roster WHERE username = $1`

	var entry entity.RosterEntry

	err := that.conn.QueryRowContext(ctx, query, username).Scan(&entry.Username, &entry.JoinDate, &entry.Visible)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperror.ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("can't find roster entry: %w", err)
	}

	return &entry, nil
}

// ListVisible returns the visible entries in join order.
func (that *RosterRepository) ListVisible(ctx context.Context) ([]*entity.RosterEntry, error) {
	query := `SELECT username, joindate, visible FROM roster WHERE visible = $1 ORDER BY joindate, username`

	rows, err := that.conn.QueryContext(ctx, query, true)
	if err != nil {
		return nil, fmt.Errorf("can't list roster: %w", err)
	}
	defer rows.Close()

	entries := []*entity.RosterEntry{}
	for rows.Next() {
		var entry entity.RosterEntry
		if err = rows.Scan(&entry.Username, &entry.JoinDate, &entry.Visible); err != nil {
			return nil, fmt.Errorf("can't scan roster entry: %w", err)
		}
		entries = append(entries, &entry)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("can't list roster: %w", err)
	}

	return entries, nil
}

func (that *RosterRepository) Delete(ctx context.Context, username string) error {
	query := `DELETE FROM roster WHERE username = $1`

	result, err := that.conn.ExecContext(ctx, query, username)
	if err != nil {
		return fmt.Errorf("can't delete roster entry: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("can't delete roster entry: %w", err)
	}

	if affected == 0 {
		return apperror.ErrUserNotFound
	}

	return nil
}
