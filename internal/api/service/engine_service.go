package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"ctchen222/BigTicTacToe/internal/api/models"
	"ctchen222/BigTicTacToe/internal/engine"
	"ctchen222/BigTicTacToe/internal/game"
)

// ErrInvalidPosition is returned for boards the engine cannot search.
var ErrInvalidPosition = errors.New("invalid position")

// Searcher runs a full engine search for mark.
type Searcher interface {
	Search(ctx context.Context, board *game.Board, mark game.PlayerMark) (*engine.Result, error)
}

// EngineService answers "what would the computer play here" for any position.
type EngineService interface {
	BestMove(ctx context.Context, req *models.EngineMoveRequest) (*models.EngineMoveResponse, error)
}

type engineService struct {
	searcher Searcher
	maxSize  int
}

// NewEngineService creates an EngineService accepting boards up to maxSize.
func NewEngineService(searcher Searcher, maxSize int) EngineService {
	return &engineService{searcher: searcher, maxSize: maxSize}
}

func (s *engineService) BestMove(ctx context.Context, req *models.EngineMoveRequest) (*models.EngineMoveResponse, error) {
	computer, err := game.ParseMark(req.Computer)
	if err != nil || computer == game.None {
		return nil, fmt.Errorf("%w: computer must be X or O", ErrInvalidPosition)
	}
	board, err := parseBoard(req.Board, s.maxSize)
	if err != nil {
		return nil, err
	}

	res, err := s.searcher.Search(ctx, board, computer)
	if err != nil {
		if errors.Is(err, engine.ErrGameOver) {
			return nil, fmt.Errorf("%w: %v", ErrInvalidPosition, err)
		}
		return nil, err
	}

	resp := &models.EngineMoveResponse{
		Score:      res.Score,
		Scores:     make([]models.ScoredMove, len(res.Scores)),
		DepthLimit: res.Stats.DepthLimit,
		MaxDepth:   res.Stats.MaxDepth,
		Nodes:      res.Stats.Nodes,
		Cutoffs:    res.Stats.Cutoffs,
	}
	resp.Row, resp.Col = res.Move.OneBased()
	for i, sm := range res.Scores {
		row, col := sm.Move.OneBased()
		resp.Scores[i] = models.ScoredMove{Row: row, Col: col, Score: sm.Score}
	}
	return resp, nil
}

func parseBoard(cells [][]string, maxSize int) (*game.Board, error) {
	if len(cells) < game.MinSize || len(cells) > maxSize {
		return nil, fmt.Errorf("%w: board size must be between %d and %d", ErrInvalidPosition, game.MinSize, maxSize)
	}
	rows := make([][]game.PlayerMark, len(cells))
	for r, row := range cells {
		rows[r] = make([]game.PlayerMark, len(row))
		for c, cell := range row {
			switch cell = strings.ToUpper(strings.TrimSpace(cell)); cell {
			case ".":
				rows[r][c] = game.None
			default:
				rows[r][c] = game.PlayerMark(cell)
			}
		}
	}
	board, err := game.BoardFromRows(rows)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPosition, err)
	}
	return board, nil
}
