package proto

import (
	"testing"

	"ctchen222/BigTicTacToe/internal/game"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClientMessageValidation(t *testing.T) {
	v := validator.New(validator.WithRequiredStructEnabled())

	tests := []struct {
		name    string
		msg     ClientToServerMessage
		wantErr bool
	}{
		{name: "move", msg: ClientToServerMessage{Type: TypeMove, Position: []int{1, 3}}},
		{name: "restart", msg: ClientToServerMessage{Type: TypeRestart}},
		{name: "missing type", msg: ClientToServerMessage{Position: []int{1, 1}}, wantErr: true},
		{name: "unknown type", msg: ClientToServerMessage{Type: "rematch"}, wantErr: true},
		{name: "move without position", msg: ClientToServerMessage{Type: TypeMove}, wantErr: true},
		{name: "position too short", msg: ClientToServerMessage{Type: TypeMove, Position: []int{1}}, wantErr: true},
		{name: "zero is not 1-based", msg: ClientToServerMessage{Type: TypeMove, Position: []int{0, 2}}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Struct(tt.msg)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestClientMessageMove(t *testing.T) {
	msg := ClientToServerMessage{Type: TypeMove, Position: []int{2, 3}}
	assert.Equal(t, game.Move{Row: 1, Col: 2}, msg.Move())
}

func TestNewUpdate(t *testing.T) {
	b, err := game.NewBoard(3)
	require.NoError(t, err)
	require.NoError(t, b.Apply(game.Move{Row: 0, Col: 0}, game.PlayerX))

	state := &game.GameStateDTO{Board: b, CurrentTurn: game.PlayerO}
	msg := NewUpdate(state, &game.Move{Row: 0, Col: 0})

	assert.Equal(t, TypeUpdate, msg.Type)
	assert.Equal(t, game.PlayerO, msg.Next)
	assert.Equal(t, []int{1, 1}, msg.LastMove)
	assert.Equal(t, game.PlayerX, msg.Board[0][0])

	state.Winner = game.PlayerX
	assert.Equal(t, game.None, NewUpdate(state, nil).Next)
}
