package game

// EmptyCells lists every empty cell, scanning rows top to bottom and columns
// left to right. Search tie-breaking depends on this order.
func (b *Board) EmptyCells() []Move {
	moves := make([]Move, 0, len(b.cells))
	for idx, cell := range b.cells {
		if cell == None {
			moves = append(moves, Move{Row: idx / b.size, Col: idx % b.size})
		}
	}
	return moves
}
