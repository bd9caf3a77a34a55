package engine

import (
	"fmt"
	"math"

	"ctchen222/BigTicTacToe/internal/game"
)

// Root bounds sit outside the (-1, 1) score range so they never cause a
// cutoff on their own.
const (
	rootAlpha = -2.0
	rootBeta  = 2.0
)

// DepthLimit returns the ply budget for boards of the given side length.
func DepthLimit(size int) int {
	if size < 6 {
		return 3
	}
	return 2
}

// IsLarge reports whether boards of this size use the depth limit at all.
// 3×3 and smaller are always searched to the end.
func IsLarge(size int) bool {
	return size > 3
}

// ScoredMove pairs a root move with its search value.
type ScoredMove struct {
	Move  game.Move `json:"move"`
	Score float64   `json:"score"`
}

// Stats describes the work done by one search.
type Stats struct {
	Nodes       int64 `json:"nodes"`
	Evaluations int64 `json:"evaluations"`
	Cutoffs     int64 `json:"cutoffs"`
	MaxDepth    int   `json:"max_depth"`
	DepthLimit  int   `json:"depth_limit"`
}

// searcher runs one search episode. It owns board exclusively and restores
// it with Undo after every Apply.
type searcher struct {
	board      *game.Board
	computer   game.PlayerMark
	human      game.PlayerMark
	depthLimit int
	large      bool
	pruning    bool
	source     Source
	stats      Stats
}

func newSearcher(b *game.Board, computer game.PlayerMark, depthLimit int, pruning bool, src Source) *searcher {
	return &searcher{
		board:      b,
		computer:   computer,
		human:      computer.Opponent(),
		depthLimit: depthLimit,
		large:      IsLarge(b.Size()),
		pruning:    pruning,
		source:     src,
		stats:      Stats{DepthLimit: depthLimit},
	}
}

// outcome checks the computer's lines first, then the human's, then fullness.
func (s *searcher) outcome() Outcome {
	switch {
	case s.board.HasLine(s.computer):
		return ComputerWon
	case s.board.HasLine(s.human):
		return PlayerWon
	case s.board.IsFull():
		return Draw
	default:
		return Ongoing
	}
}

func (s *searcher) terminal(side Perspective) (float64, bool) {
	switch o := s.outcome(); o {
	case Ongoing:
		return 0, false
	case Draw:
		return drawScore(s.source, side), true
	default:
		return o.Score(), true
	}
}

// cutoff reports whether the depth budget is spent. depth has already been
// incremented for the current node.
func (s *searcher) cutoff(depth int) bool {
	if depth > s.stats.MaxDepth {
		s.stats.MaxDepth = depth
	}
	return s.large && depth > s.depthLimit
}

func (s *searcher) evaluate(side Perspective) float64 {
	s.stats.Evaluations++
	return Evaluate(s.board, side, s.computer, s.source)
}

// place applies a move the searcher enumerated itself. A failure means the
// apply/undo pairing is broken.
func (s *searcher) place(m game.Move, mark game.PlayerMark) {
	if err := s.board.Apply(m, mark); err != nil {
		panic(fmt.Sprintf("engine: apply %v for %s during search: %v", m, mark, err))
	}
}

// minValue scores a position with the human to move.
func (s *searcher) minValue(depth int, alpha, beta float64) float64 {
	s.stats.Nodes++
	if score, done := s.terminal(Human); done {
		return score
	}

	depth++
	if s.cutoff(depth) {
		return s.evaluate(Human)
	}

	best := math.Inf(1)
	bound := beta
	for _, m := range s.board.EmptyCells() {
		s.place(m, s.human)
		v := s.maxValue(depth, alpha, bound)
		s.board.Undo(m)

		best = math.Min(best, v)
		if !s.pruning {
			continue
		}
		bound = math.Min(bound, best)
		if bound <= alpha {
			s.stats.Cutoffs++
			break
		}
	}
	return math.Min(beta, best)
}

// maxValue scores a position with the computer to move.
func (s *searcher) maxValue(depth int, alpha, beta float64) float64 {
	s.stats.Nodes++
	if score, done := s.terminal(Computer); done {
		return score
	}

	depth++
	if s.cutoff(depth) {
		return s.evaluate(Computer)
	}

	best := math.Inf(-1)
	bound := alpha
	for _, m := range s.board.EmptyCells() {
		s.place(m, s.computer)
		v := s.minValue(depth, bound, beta)
		s.board.Undo(m)

		best = math.Max(best, v)
		if !s.pruning {
			continue
		}
		bound = math.Max(bound, best)
		if bound >= beta {
			s.stats.Cutoffs++
			break
		}
	}
	return math.Max(alpha, best)
}

// bestAction scores every computer move with fresh root bounds and returns
// the first move holding the maximum.
func (s *searcher) bestAction() (ScoredMove, []ScoredMove) {
	moves := s.board.EmptyCells()
	scores := make([]ScoredMove, 0, len(moves))
	for _, m := range moves {
		s.place(m, s.computer)
		v := s.minValue(0, rootAlpha, rootBeta)
		s.board.Undo(m)
		scores = append(scores, ScoredMove{Move: m, Score: v})
	}

	best := scores[0]
	for _, sm := range scores[1:] {
		if sm.Score > best.Score {
			best = sm
		}
	}
	return best, scores
}
