package entity

import (
	"time"
)

// BoardSize is the fixed width and height of an othello board.
const BoardSize = 8

type Cell string

const (
	Black Cell = "B"
	White Cell = "W"
	Empty Cell = "E"
)

// Tie is stored in Game.Winner when both colors hold the same number of cells.
const Tie = "tie"

// Opposite returns the opposing color. Empty maps to itself.
func (that Cell) Opposite() Cell {
	switch that {
	case Black:
		return White
	case White:
		return Black
	default:
		return Empty
	}
}

func (that Cell) IsColor() bool {
	return that == Black || that == White
}

// Board is addressed as Board[y][x].
type Board [BoardSize][BoardSize]Cell

type Event struct {
	Date   time.Time `json:"date"`
	Player string    `json:"player"`
	Color  Cell      `json:"color"`
	X      int       `json:"x"`
	Y      int       `json:"y"`
}

type Game struct {
	ID      string    `json:"_id"`
	Created time.Time `json:"created"`
	Players [2]string `json:"players"`
	Colors  [2]Cell   `json:"colors"`
	State   Board     `json:"gameState"`
	Next    string    `json:"next"`
	Winner  string    `json:"winner"`
	History []Event   `json:"history"`
}

// OpeningBoard returns the standard othello starting position.
func OpeningBoard() Board {
	var board Board
	for y := range board {
		for x := range board[y] {
			board[y][x] = Empty
		}
	}

	board[3][3], board[3][4] = White, Black
	board[4][3], board[4][4] = Black, White

	return board
}

// NewGame creates a game between username and opponent. The black player moves first.
func NewGame(id, username, opponent string, userColor Cell, created time.Time) *Game {
	if !userColor.IsColor() {
		userColor = Black
	}

	next := opponent
	if userColor == Black {
		next = username
	}

	return &Game{
		ID:      id,
		Created: created,
		Players: [2]string{username, opponent},
		Colors:  [2]Cell{userColor, userColor.Opposite()},
		State:   OpeningBoard(),
		Next:    next,
		History: []Event{},
	}
}

func (that *Game) IsFinished() bool {
	return that.Next == ""
}

func (that *Game) HasPlayer(username string) bool {
	return that.Players[0] == username || that.Players[1] == username
}

// Sides resolves the acting user's color, the opponent's name and the opponent's color.
// The first slot wins when both slots name the same user.
func (that *Game) Sides(username string) (Cell, string, Cell) {
	if that.Players[0] == username {
		return that.Colors[0], that.Players[1], that.Colors[1]
	}
	return that.Colors[1], that.Players[0], that.Colors[0]
}

// Opponent returns the other player's name.
func (that *Game) Opponent(username string) string {
	_, opponent, _ := that.Sides(username)
	return opponent
}

// PlayerOf maps a color back to the username holding it.
func (that *Game) PlayerOf(color Cell) string {
	if that.Colors[0] == color {
		return that.Players[0]
	}
	return that.Players[1]
}

// Count returns the number of black and white cells on the board.
func (that *Game) Count() (int, int) {
	var black, white int
	for _, row := range that.State {
		for _, cell := range row {
			switch cell {
			case Black:
				black++
			case White:
				white++
			}
		}
	}
	return black, white
}

// Clone returns a deep copy so callers can mutate it without touching the original snapshot.
func (that *Game) Clone() *Game {
	clone := *that
	clone.History = make([]Event, len(that.History))
	copy(clone.History, that.History)
	return &clone
}

// GameFilter narrows a game listing. Nil fields match every game.
type GameFilter struct {
	Next   *string
	Winner *string
}

func (that GameFilter) Matches(game *Game) bool {
	if that.Next != nil && game.Next != *that.Next {
		return false
	}
	if that.Winner != nil && game.Winner != *that.Winner {
		return false
	}
	return true
}
