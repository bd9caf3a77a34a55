package game

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Move is a board coordinate. Row and Col are 0-based.
type Move struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

// MoveFromOneBased builds a Move from the 1-based coordinates players type.
func MoveFromOneBased(row, col int) Move {
	return Move{Row: row - 1, Col: col - 1}
}

// OneBased returns the coordinates as shown to players.
func (m Move) OneBased() (row, col int) {
	return m.Row + 1, m.Col + 1
}

func (m Move) String() string {
	row, col := m.OneBased()
	return fmt.Sprintf("(%d, %d)", row, col)
}

// Board is an N×N grid of marks stored row-major.
//
// Apply and Undo mutate the board in place. Undo performs no checks, so
// callers must pair every successful Apply with exactly one Undo.
type Board struct {
	size  int
	cells []PlayerMark
}

// NewBoard returns an empty board with the given side length.
func NewBoard(size int) (*Board, error) {
	if size < 1 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidSize, size)
	}
	return &Board{
		size:  size,
		cells: make([]PlayerMark, size*size),
	}, nil
}

// BoardFromRows builds a board from a square matrix of marks.
func BoardFromRows(rows [][]PlayerMark) (*Board, error) {
	b, err := NewBoard(len(rows))
	if err != nil {
		return nil, err
	}
	for r, row := range rows {
		if len(row) != b.size {
			return nil, fmt.Errorf("%w: row %d has %d cells, want %d", ErrNotSquare, r, len(row), b.size)
		}
		for c, mark := range row {
			if !mark.Valid() {
				return nil, fmt.Errorf("%w: %q at (%d, %d)", ErrUnknownMark, mark, r+1, c+1)
			}
			b.cells[r*b.size+c] = mark
		}
	}
	return b, nil
}

// Size returns the side length N.
func (b *Board) Size() int {
	return b.size
}

// At returns the mark at row, col. The coordinates must be in bounds.
func (b *Board) At(row, col int) PlayerMark {
	return b.cells[row*b.size+col]
}

// InBounds reports whether m lies on the board.
func (b *Board) InBounds(m Move) bool {
	return m.Row >= 0 && m.Row < b.size && m.Col >= 0 && m.Col < b.size
}

// Apply places mark on the cell at m.
func (b *Board) Apply(m Move, mark PlayerMark) error {
	if !b.InBounds(m) {
		return ErrOutOfBounds
	}
	idx := m.Row*b.size + m.Col
	if b.cells[idx] != None {
		return ErrCellOccupied
	}
	b.cells[idx] = mark
	return nil
}

// Undo clears the cell at m.
func (b *Board) Undo(m Move) {
	b.cells[m.Row*b.size+m.Col] = None
}

// HasLine reports whether any row, column or diagonal consists entirely of mark.
func (b *Board) HasLine(mark PlayerMark) bool {
	n := b.size

	// Rows
	for r := 0; r < n; r++ {
		if b.lineOf(mark, r*n, 1) {
			return true
		}
	}

	// Columns
	for c := 0; c < n; c++ {
		if b.lineOf(mark, c, n) {
			return true
		}
	}

	// Diagonals
	if b.lineOf(mark, 0, n+1) {
		return true
	}
	return b.lineOf(mark, n-1, n-1)
}

// lineOf walks n cells from start with the given stride.
func (b *Board) lineOf(mark PlayerMark, start, stride int) bool {
	for i, idx := 0, start; i < b.size; i, idx = i+1, idx+stride {
		if b.cells[idx] != mark {
			return false
		}
	}
	return true
}

// IsFull reports whether no cell is empty.
func (b *Board) IsFull() bool {
	for _, cell := range b.cells {
		if cell == None {
			return false
		}
	}
	return true
}

// Occupied returns the number of non-empty cells.
func (b *Board) Occupied() int {
	count := 0
	for _, cell := range b.cells {
		if cell != None {
			count++
		}
	}
	return count
}

// Clone returns an independent copy of the board.
func (b *Board) Clone() *Board {
	cells := make([]PlayerMark, len(b.cells))
	copy(cells, b.cells)
	return &Board{size: b.size, cells: cells}
}

// Rows converts the board to a slice of rows, the shape used on the wire.
func (b *Board) Rows() [][]PlayerMark {
	rows := make([][]PlayerMark, b.size)
	for r := range rows {
		rows[r] = make([]PlayerMark, b.size)
		copy(rows[r], b.cells[r*b.size:(r+1)*b.size])
	}
	return rows
}

func (b *Board) MarshalJSON() ([]byte, error) {
	return json.Marshal(b.Rows())
}

func (b *Board) UnmarshalJSON(data []byte) error {
	var rows [][]PlayerMark
	if err := json.Unmarshal(data, &rows); err != nil {
		return err
	}
	parsed, err := BoardFromRows(rows)
	if err != nil {
		return err
	}
	*b = *parsed
	return nil
}

func (b *Board) String() string {
	var sb strings.Builder
	for r := 0; r < b.size; r++ {
		for c := 0; c < b.size; c++ {
			mark := b.At(r, c)
			if mark == None {
				mark = "."
			}
			sb.WriteString(string(mark))
		}
		if r < b.size-1 {
			sb.WriteByte('\n')
		}
	}
	return sb.String()
}
