package proto

import "ctchen222/BigTicTacToe/internal/game"

// Message types exchanged over the websocket.
const (
	TypeMove       = "move"
	TypeRestart    = "restart"
	TypeUpdate     = "update"
	TypeAssignment = "assignment"
	TypeError      = "error"
)

// ClientToServerMessage represents a message from the client to the server.
// Position is 1-based: [row, col].
type ClientToServerMessage struct {
	Type     string `json:"type" validate:"required,oneof=move restart"`
	Position []int  `json:"position,omitempty" validate:"required_if=Type move,omitempty,len=2,dive,min=1"`
}

// Move converts the 1-based position into a board move.
func (m *ClientToServerMessage) Move() game.Move {
	return game.MoveFromOneBased(m.Position[0], m.Position[1])
}

// ServerToClientMessage represents a message from the server to the client.
type ServerToClientMessage struct {
	Type     string              `json:"type" validate:"required"`
	Reason   string              `json:"reason,omitempty"`
	Board    [][]game.PlayerMark `json:"board,omitempty"`
	Next     game.PlayerMark     `json:"next,omitempty"`
	Winner   game.PlayerMark     `json:"winner,omitempty"`
	Draw     bool                `json:"draw,omitempty"`
	LastMove []int               `json:"lastMove,omitempty"`
}

// PlayerAssignmentMessage informs a player of their assigned mark.
type PlayerAssignmentMessage struct {
	Type       string          `json:"type"`
	PlayerID   string          `json:"playerId,omitempty"`
	SessionID  string          `json:"sessionId,omitempty"`
	Mark       game.PlayerMark `json:"mark"`
	Size       int             `json:"size"`
	Difficulty string          `json:"difficulty"`
}

// NewUpdate builds an update message from a stored game.
func NewUpdate(state *game.GameStateDTO, last *game.Move) *ServerToClientMessage {
	msg := &ServerToClientMessage{
		Type:   TypeUpdate,
		Board:  state.Board.Rows(),
		Next:   state.CurrentTurn,
		Winner: state.Winner,
		Draw:   state.IsDraw,
	}
	if state.IsOver() {
		msg.Next = game.None
	}
	if last != nil {
		row, col := last.OneBased()
		msg.LastMove = []int{row, col}
	}
	return msg
}

// NewError builds an error message carrying reason.
func NewError(reason string) *ServerToClientMessage {
	return &ServerToClientMessage{Type: TypeError, Reason: reason}
}
