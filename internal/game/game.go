package game

import "fmt"

// Hash fields used to persist a game.
const (
	FieldBoard      = "board"
	FieldSize       = "size"
	FieldPlayer     = "player_id"
	FieldHumanMark  = "human_mark"
	FieldDifficulty = "difficulty"
	FieldNextTurn   = "next_turn"
	FieldWinner     = "winner"
	FieldStatus     = "status"
	FieldMoves      = "moves"
)

// Values stored under FieldStatus.
const (
	StatusInProgress = "in_progress"
	StatusFinished   = "finished"
)

type Game struct {
	Board       *Board
	CurrentTurn PlayerMark
	Winner      PlayerMark
	Draw        bool
	Moves       int
}

// NewGame starts a game on an empty size×size board with first to move.
func NewGame(size int, first PlayerMark) (*Game, error) {
	board, err := NewBoard(size)
	if err != nil {
		return nil, err
	}
	if first != PlayerX && first != PlayerO {
		return nil, fmt.Errorf("%w: %q cannot move first", ErrUnknownMark, first)
	}
	return &Game{
		Board:       board,
		CurrentTurn: first,
		Winner:      None,
	}, nil
}

// Move plays the current turn's mark at m.
func (g *Game) Move(m Move) error {
	if g.IsOver() {
		return ErrGameFinished
	}
	if err := g.Board.Apply(m, g.CurrentTurn); err != nil {
		return err
	}
	g.Moves++

	switch {
	case g.Board.HasLine(g.CurrentTurn):
		g.Winner = g.CurrentTurn
	case g.Board.IsFull():
		g.Draw = true
	}
	g.CurrentTurn = g.CurrentTurn.Opponent()
	return nil
}

// IsOver reports whether the game has a winner or ended in a draw.
func (g *Game) IsOver() bool {
	return g.Winner != None || g.Draw
}

// Status returns the persisted status value.
func (g *Game) Status() string {
	if g.IsOver() {
		return StatusFinished
	}
	return StatusInProgress
}

// GameStateDTO is the stored view of a session's game.
type GameStateDTO struct {
	Board       *Board
	CurrentTurn PlayerMark
	Winner      PlayerMark
	IsDraw      bool
	Moves       int
	PlayerID    string
	HumanMark   PlayerMark
	Difficulty  string
}

// Game rebuilds a playable game from the stored state.
func (d *GameStateDTO) Game() *Game {
	return &Game{
		Board:       d.Board.Clone(),
		CurrentTurn: d.CurrentTurn,
		Winner:      d.Winner,
		Draw:        d.IsDraw,
		Moves:       d.Moves,
	}
}

// IsOver reports whether the stored game has finished.
func (d *GameStateDTO) IsOver() bool {
	return d.Winner != None || d.IsDraw
}

// ComputerMark returns the mark played by the engine in this game.
func (d *GameStateDTO) ComputerMark() PlayerMark {
	return d.HumanMark.Opponent()
}
