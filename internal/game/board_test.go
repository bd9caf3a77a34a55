package game

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// boardOf parses rows such as "XO." into a board; '.' is an empty cell.
func boardOf(t *testing.T, rows ...string) *Board {
	t.Helper()
	marks := make([][]PlayerMark, len(rows))
	for r, row := range rows {
		marks[r] = make([]PlayerMark, len(row))
		for c, ch := range row {
			if ch != '.' {
				marks[r][c] = PlayerMark(string(ch))
			}
		}
	}
	b, err := BoardFromRows(marks)
	require.NoError(t, err)
	return b
}

func TestNewBoard(t *testing.T) {
	b, err := NewBoard(4)
	require.NoError(t, err)
	assert.Equal(t, 4, b.Size())
	assert.Equal(t, 0, b.Occupied())
	assert.Len(t, b.EmptyCells(), 16)

	_, err = NewBoard(0)
	assert.ErrorIs(t, err, ErrInvalidSize)
}

func TestBoardFromRows_Errors(t *testing.T) {
	_, err := BoardFromRows([][]PlayerMark{{None, None}, {None}})
	assert.ErrorIs(t, err, ErrNotSquare)

	_, err = BoardFromRows([][]PlayerMark{{"Z"}})
	assert.ErrorIs(t, err, ErrUnknownMark)
}

func TestHasLine(t *testing.T) {
	tests := []struct {
		name string
		rows []string
		mark PlayerMark
		want bool
	}{
		{name: "empty 3x3", rows: []string{"...", "...", "..."}, mark: PlayerX, want: false},
		{name: "opponent mark only", rows: []string{"X..", "...", "..."}, mark: PlayerO, want: false},
		{name: "first row", rows: []string{"XXX", "OO.", "..."}, mark: PlayerX, want: true},
		{name: "last row", rows: []string{"X.X", "X..", "OOO"}, mark: PlayerO, want: true},
		{name: "second column", rows: []string{"XO.", "XO.", ".O."}, mark: PlayerO, want: true},
		{name: "main diagonal", rows: []string{"X..", ".X.", "..X"}, mark: PlayerX, want: true},
		{name: "anti-diagonal", rows: []string{"..O", ".O.", "O.."}, mark: PlayerO, want: true},
		{name: "broken row", rows: []string{"XOX", "...", "..."}, mark: PlayerX, want: false},
		{name: "4x4 column", rows: []string{"..O.", "..O.", "..O.", "..O."}, mark: PlayerO, want: true},
		{name: "4x4 three in a row is not a line", rows: []string{"XXX.", "....", "....", "...."}, mark: PlayerX, want: false},
		{name: "4x4 anti-diagonal", rows: []string{"...X", "..X.", ".X..", "X..."}, mark: PlayerX, want: true},
		{name: "5x5 main diagonal", rows: []string{"O....", ".O...", "..O..", "...O.", "....O"}, mark: PlayerO, want: true},
		{name: "1x1 occupied", rows: []string{"X"}, mark: PlayerX, want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := boardOf(t, tt.rows...)
			assert.Equal(t, tt.want, b.HasLine(tt.mark))
		})
	}
}

func TestHasLine_EmptyBoards(t *testing.T) {
	for size := 1; size <= 8; size++ {
		b, err := NewBoard(size)
		require.NoError(t, err)
		assert.False(t, b.HasLine(PlayerX), "size %d", size)
		assert.False(t, b.HasLine(PlayerO), "size %d", size)
	}
}

func TestIsFull(t *testing.T) {
	assert.False(t, boardOf(t, "...", "...", "...").IsFull())
	assert.False(t, boardOf(t, "XOX", "OXO", "OX.").IsFull())
	assert.True(t, boardOf(t, "XOX", "OXO", "OXO").IsFull())
}

func TestApply(t *testing.T) {
	b := boardOf(t, "X..", "...", "...")

	assert.ErrorIs(t, b.Apply(Move{Row: 0, Col: 0}, PlayerO), ErrCellOccupied)
	assert.ErrorIs(t, b.Apply(Move{Row: 3, Col: 0}, PlayerO), ErrOutOfBounds)
	assert.ErrorIs(t, b.Apply(Move{Row: 0, Col: -1}, PlayerO), ErrOutOfBounds)
	assert.Equal(t, 1, b.Occupied(), "failed applies must not mutate the board")

	require.NoError(t, b.Apply(Move{Row: 1, Col: 2}, PlayerO))
	assert.Equal(t, PlayerO, b.At(1, 2))
	assert.Equal(t, 2, b.Occupied())
}

func TestApplyUndoRoundTrip(t *testing.T) {
	b := boardOf(t, "X.O.", ".X..", "..O.", "....")
	before := b.Clone()

	for _, m := range before.EmptyCells() {
		for _, mark := range []PlayerMark{PlayerX, PlayerO} {
			require.NoError(t, b.Apply(m, mark))
			b.Undo(m)
			assert.Equal(t, before, b, "apply/undo at %v with %s", m, mark)
		}
	}
}

func TestEmptyCells_RowMajorOrder(t *testing.T) {
	b := boardOf(t, "X.O", ".X.", "O..")
	want := []Move{
		{Row: 0, Col: 1},
		{Row: 1, Col: 0},
		{Row: 1, Col: 2},
		{Row: 2, Col: 1},
		{Row: 2, Col: 2},
	}
	assert.Equal(t, want, b.EmptyCells())
	assert.Empty(t, boardOf(t, "XO", "OX").EmptyCells())
}

func TestMoveOneBased(t *testing.T) {
	m := MoveFromOneBased(2, 3)
	assert.Equal(t, Move{Row: 1, Col: 2}, m)
	row, col := m.OneBased()
	assert.Equal(t, 2, row)
	assert.Equal(t, 3, col)
	assert.Equal(t, "(2, 3)", m.String())
}

func TestBoardJSON(t *testing.T) {
	b := boardOf(t, "X.O", "...", "..X")
	data, err := json.Marshal(b)
	require.NoError(t, err)
	assert.JSONEq(t, `[["X","","O"],["","",""],["","","X"]]`, string(data))

	var decoded Board
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, b, &decoded)

	assert.Error(t, json.Unmarshal([]byte(`[["X",""]]`), &decoded))
}

func TestBoardString(t *testing.T) {
	assert.Equal(t, "X.O\n...\n..X", boardOf(t, "X.O", "...", "..X").String())
}
