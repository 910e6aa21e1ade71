package apperror

import "errors"

// move rejections returned by the othello engine.
var (
	ErrNotYourTurn               = errors.New("it's not your turn")
	ErrCellNotEmpty              = errors.New("cell is not empty")
	ErrOpponentCellNotAdjacent   = errors.New("no opponent cell is adjacent")
	ErrTerminatingCellNotPresent = errors.New("no terminating cell in any direction")
	ErrInvalidCell               = errors.New("invalid cell coordinates")
)

var (
	ErrAuthRejected  = errors.New("authorization rejected")
	ErrNoToken       = errors.New("authorization token is missing")
	ErrGameNotFound  = errors.New("game not found")
	ErrUserNotFound  = errors.New("user not found")
	ErrNotAPlayer    = errors.New("user is not a player of this game")
	ErrInvalidPlayer = errors.New("opponent is required")
)

// IsMoveRejection reports whether err is one of the engine's move rejections.
func IsMoveRejection(err error) bool {
	return errors.Is(err, ErrNotYourTurn) ||
		errors.Is(err, ErrCellNotEmpty) ||
		errors.Is(err, ErrOpponentCellNotAdjacent) ||
		errors.Is(err, ErrTerminatingCellNotPresent) ||
		errors.Is(err, ErrInvalidCell)
}
