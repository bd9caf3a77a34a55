package game

import (
	"errors"
	"math/rand/v2"
)

// PlayerMark represents the mark of a player (X, O) or an empty cell.
type PlayerMark string

const (
	None    PlayerMark = ""
	PlayerX PlayerMark = "X"
	PlayerO PlayerMark = "O"
)

// Board size limits accepted by the server and the CLI.
const (
	MinSize = 3
	MaxSize = 10
)

var (
	ErrInvalidSize  = errors.New("invalid board size")
	ErrNotSquare    = errors.New("board is not square")
	ErrUnknownMark  = errors.New("unknown mark")
	ErrOutOfBounds  = errors.New("invalid move")
	ErrCellOccupied = errors.New("cell already occupied")
	ErrGameFinished = errors.New("game already finished")
	ErrNotYourTurn  = errors.New("not player's turn")
)

// Opponent returns the other player's mark. None has no opponent.
func (m PlayerMark) Opponent() PlayerMark {
	switch m {
	case PlayerX:
		return PlayerO
	case PlayerO:
		return PlayerX
	default:
		return None
	}
}

// Valid reports whether m is one of the known cell values.
func (m PlayerMark) Valid() bool {
	return m == None || m == PlayerX || m == PlayerO
}

// ParseMark converts a wire string into a mark.
func ParseMark(s string) (PlayerMark, error) {
	m := PlayerMark(s)
	if !m.Valid() {
		return None, ErrUnknownMark
	}
	return m, nil
}

func RandomlyChooseFirstPlayer() PlayerMark {
	if rand.IntN(2) == 0 {
		return PlayerX
	}
	return PlayerO
}
