package othello

import (
	"fmt"
	"time"

	"github.com/ccooksey/bsi-server/internal/apperror"
	"github.com/ccooksey/bsi-server/internal/entity"
)

// directions are the 8 compass steps as (dx, dy).
var directions = [8][2]int{
	{-1, -1}, {0, -1}, {1, -1},
	{-1, 0}, {1, 0},
	{-1, 1}, {0, 1}, {1, 1},
}

type Engine struct {
	now func() time.Time
}

// NewEngine creates an engine stamping history with clock. A nil clock uses time.Now.
func NewEngine(clock func() time.Time) *Engine {
	if clock == nil {
		clock = time.Now
	}
	return &Engine{now: clock}
}

// ApplyMove validates and applies a move by username at (x, y). The input game is never modified;
// on success a new game state is returned.
func (that *Engine) ApplyMove(game *entity.Game, username string, x, y int) (*entity.Game, error) {
	if !onBoard(x, y) {
		return nil, fmt.Errorf("%w: (%d, %d)", apperror.ErrInvalidCell, x, y)
	}

	if username != game.Next {
		return nil, apperror.ErrNotYourTurn
	}

	userColor, opponent, opponentColor := game.Sides(username)

	captures, err := scan(&game.State, userColor, x, y)
	if err != nil {
		return nil, err
	}

	next := game.Clone()

	next.State[y][x] = userColor
	for _, dir := range captures {
		flip(&next.State, userColor, x, y, dir)
	}

	next.History = append(next.History, entity.Event{
		Date:   that.now(),
		Player: username,
		Color:  userColor,
		X:      x,
		Y:      y,
	})

	userCanMove := LegalMoveExists(&next.State, userColor)
	opponentCanMove := LegalMoveExists(&next.State, opponentColor)

	switch {
	case opponentCanMove:
		next.Next = opponent
	case !userCanMove:
		next.Winner = Winner(next)
		next.Next = ""
	}

	// a user playing against themselves takes the other color for the next turn
	if username == opponent && next.Next != "" && opponentCanMove {
		next.Colors[0], next.Colors[1] = next.Colors[1], next.Colors[0]
	}

	return next, nil
}

// LegalMove reports why color could not play at (x, y), ignoring turn order. A nil error means legal.
func LegalMove(board *entity.Board, color entity.Cell, x, y int) error {
	if !onBoard(x, y) {
		return apperror.ErrInvalidCell
	}

	_, err := scan(board, color, x, y)

	return err
}

// LegalMoveExists reports whether color has at least one legal move on board.
func LegalMoveExists(board *entity.Board, color entity.Cell) bool {
	for y := range entity.BoardSize {
		for x := range entity.BoardSize {
			if _, err := scan(board, color, x, y); err == nil {
				return true
			}
		}
	}
	return false
}

// Winner returns the username holding strictly more cells, or entity.Tie.
func Winner(game *entity.Game) string {
	black, white := game.Count()

	switch {
	case black > white:
		return game.PlayerOf(entity.Black)
	case white > black:
		return game.PlayerOf(entity.White)
	default:
		return entity.Tie
	}
}

// scan returns the capturing directions for color at (x, y).
func scan(board *entity.Board, color entity.Cell, x, y int) ([][2]int, error) {
	if board[y][x] != entity.Empty {
		return nil, apperror.ErrCellNotEmpty
	}

	opponentColor := color.Opposite()
	adjacent := 0

	var captures [][2]int

	for _, dir := range directions {
		tx, ty := x+dir[0], y+dir[1]
		if !onBoard(tx, ty) || board[ty][tx] != opponentColor {
			continue
		}

		adjacent++

		for onBoard(tx, ty) && board[ty][tx] == opponentColor {
			tx, ty = tx+dir[0], ty+dir[1]
		}

		if onBoard(tx, ty) && board[ty][tx] == color {
			captures = append(captures, dir)
		}
	}

	if adjacent == 0 {
		return nil, apperror.ErrOpponentCellNotAdjacent
	}

	if len(captures) == 0 {
		return nil, apperror.ErrTerminatingCellNotPresent
	}

	return captures, nil
}

func flip(board *entity.Board, color entity.Cell, x, y int, dir [2]int) {
	for tx, ty := x+dir[0], y+dir[1]; board[ty][tx] != color; tx, ty = tx+dir[0], ty+dir[1] {
		board[ty][tx] = color
	}
}

func onBoard(x, y int) bool {
	return x >= 0 && x < entity.BoardSize && y >= 0 && y < entity.BoardSize
}
