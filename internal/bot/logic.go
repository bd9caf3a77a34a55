package bot

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"

	"ctchen222/BigTicTacToe/internal/engine"
	"ctchen222/BigTicTacToe/internal/game"
)

// Difficulty levels accepted by CalculateNextMove.
const (
	DifficultyEasy   = "easy"
	DifficultyMedium = "medium"
	DifficultyHard   = "hard"
)

var ErrNoMovesLeft = errors.New("no moves left")

// BotMoveCalculator implements the session.MoveCalculator interface.
type BotMoveCalculator struct {
	engines map[game.PlayerMark]*engine.Engine
}

// NewBotMoveCalculator builds one engine per mark; opts are passed to both.
func NewBotMoveCalculator(opts ...engine.Option) (*BotMoveCalculator, error) {
	engines := make(map[game.PlayerMark]*engine.Engine, 2)
	for _, mark := range []game.PlayerMark{game.PlayerX, game.PlayerO} {
		e, err := engine.New(mark, opts...)
		if err != nil {
			return nil, fmt.Errorf("failed to create engine for %s: %w", mark, err)
		}
		engines[mark] = e
	}
	return &BotMoveCalculator{engines: engines}, nil
}

// CalculateNextMove determines the bot's next move based on the specified difficulty.
// Unknown difficulties play like hard.
func (c *BotMoveCalculator) CalculateNextMove(ctx context.Context, board *game.Board, botMark game.PlayerMark, difficulty string) (game.Move, error) {
	e, ok := c.engines[botMark]
	if !ok {
		return game.Move{}, fmt.Errorf("%w: %q", engine.ErrComputerMark, botMark)
	}
	if len(board.EmptyCells()) == 0 {
		return game.Move{}, ErrNoMovesLeft
	}

	switch difficulty {
	case DifficultyEasy:
		return easyMove(board)
	case DifficultyMedium:
		return mediumMove(board, botMark)
	default:
		return e.BestMove(ctx, board)
	}
}

// Search exposes the hard engine's full result for callers that want scores.
func (c *BotMoveCalculator) Search(ctx context.Context, board *game.Board, botMark game.PlayerMark) (*engine.Result, error) {
	e, ok := c.engines[botMark]
	if !ok {
		return nil, fmt.Errorf("%w: %q", engine.ErrComputerMark, botMark)
	}
	return e.Search(ctx, board)
}

// easyMove makes a completely random move.
func easyMove(board *game.Board) (game.Move, error) {
	available := board.EmptyCells()
	if len(available) == 0 {
		return game.Move{}, ErrNoMovesLeft
	}
	return available[rand.IntN(len(available))], nil
}

// mediumMove will win if it can, block if it must, otherwise move randomly.
func mediumMove(board *game.Board, botMark game.PlayerMark) (game.Move, error) {
	if m, ok := findWinningMove(board, botMark); ok {
		return m, nil
	}
	if m, ok := findWinningMove(board, botMark.Opponent()); ok {
		return m, nil
	}
	return easyMove(board)
}

// findWinningMove returns the empty cell that completes a line for mark:
// a row, column or diagonal holding N-1 of mark and one empty cell.
// Rows are checked first, then columns, then both diagonals.
func findWinningMove(board *game.Board, mark game.PlayerMark) (game.Move, bool) {
	n := board.Size()
	lines := make([][]game.Move, 0, 2*n+2)
	for r := 0; r < n; r++ {
		line := make([]game.Move, n)
		for c := 0; c < n; c++ {
			line[c] = game.Move{Row: r, Col: c}
		}
		lines = append(lines, line)
	}
	for c := 0; c < n; c++ {
		line := make([]game.Move, n)
		for r := 0; r < n; r++ {
			line[r] = game.Move{Row: r, Col: c}
		}
		lines = append(lines, line)
	}
	diag := make([]game.Move, n)
	anti := make([]game.Move, n)
	for i := 0; i < n; i++ {
		diag[i] = game.Move{Row: i, Col: i}
		anti[i] = game.Move{Row: i, Col: n - 1 - i}
	}
	lines = append(lines, diag, anti)

	for _, line := range lines {
		if m, ok := completes(board, line, mark); ok {
			return m, true
		}
	}
	return game.Move{}, false
}

func completes(board *game.Board, line []game.Move, mark game.PlayerMark) (game.Move, bool) {
	var empty game.Move
	owned, free := 0, 0
	for _, m := range line {
		switch board.At(m.Row, m.Col) {
		case mark:
			owned++
		case game.None:
			free++
			empty = m
		}
	}
	if free == 1 && owned == len(line)-1 {
		return empty, true
	}
	return game.Move{}, false
}
