package engine

import (
	"math"

	"ctchen222/BigTicTacToe/internal/game"
)

const (
	// cornerWeight is the share of percentOpen added per corner held.
	cornerWeight = 0.1
	// jitterSteps is the number of integer percent steps in [-5%, +5%].
	jitterSteps = 11
	// heuristicBound keeps a static estimate strictly below a proven win.
	heuristicBound = 0.999
)

// Evaluate estimates a non-terminal position for perspective p. The score
// grows with the share of lines the opponent has not blocked and with the
// corners p holds, plus up to ±5% jitter. Computer scores are positive,
// human scores are negated, and all results lie strictly inside (-1, 1).
func Evaluate(b *game.Board, p Perspective, computer game.PlayerMark, src Source) float64 {
	playerMark, opponentMark := computer.Opponent(), computer
	if p == Computer {
		playerMark, opponentMark = computer, computer.Opponent()
	}

	n := b.Size()
	worstCase := 2*n + 2
	blocked := linesBlocked(b, opponentMark)
	if blocked >= worstCase {
		blocked = worstCase - 1
	}

	percentOpen := float64(worstCase-blocked) / float64(worstCase)

	bonus := percentOpen * cornerWeight
	for _, corner := range [4][2]int{{0, 0}, {0, n - 1}, {n - 1, 0}, {n - 1, n - 1}} {
		if b.At(corner[0], corner[1]) == playerMark {
			percentOpen += bonus
		}
	}

	r := float64(src.IntN(jitterSteps)-jitterSteps/2) / 100
	evaluation := percentOpen + percentOpen*r
	evaluation = math.Min(evaluation, heuristicBound)

	if p == Human {
		return -evaluation
	}
	return evaluation
}

// linesBlocked counts rows, columns and diagonals holding at least one mark.
func linesBlocked(b *game.Board, mark game.PlayerMark) int {
	n := b.Size()
	rows := make([]bool, n)
	cols := make([]bool, n)
	diag, anti := false, false

	for r := 0; r < n; r++ {
		for c := 0; c < n; c++ {
			if b.At(r, c) != mark {
				continue
			}
			rows[r] = true
			cols[c] = true
			if r == c {
				diag = true
			}
			if r+c == n-1 {
				anti = true
			}
		}
	}

	count := 0
	for i := 0; i < n; i++ {
		if rows[i] {
			count++
		}
		if cols[i] {
			count++
		}
	}
	if diag {
		count++
	}
	if anti {
		count++
	}
	return count
}
