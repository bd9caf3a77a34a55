package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"ctchen222/BigTicTacToe/internal/game"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

const instrumentationName = "ctchen222/BigTicTacToe/internal/engine"

var tracer = otel.Tracer(instrumentationName)

var (
	ErrGameOver     = errors.New("position is already decided")
	ErrComputerMark = errors.New("computer must play X or O")
)

// Result is the outcome of one search.
type Result struct {
	Move   game.Move    `json:"move"`
	Score  float64      `json:"score"`
	Scores []ScoredMove `json:"scores"`
	Stats  Stats        `json:"stats"`
}

// Engine chooses moves for the computer with a depth-limited alpha-beta search.
// An Engine is safe for concurrent use; every search works on its own copy
// of the board.
type Engine struct {
	computer   game.PlayerMark
	source     Source
	depthLimit int
	pruning    bool
	metrics    *searchMetrics
}

// Option configures an Engine.
type Option func(*Engine)

// WithSource injects the random source used for jitter. Engines built from
// the same option share one lock around src.
func WithSource(src Source) Option {
	locked := &lockedSource{src: src}
	return func(e *Engine) {
		e.source = locked
	}
}

// WithSeed makes jitter reproducible.
func WithSeed(seed uint64) Option {
	return func(e *Engine) {
		e.source = NewSeededSource(seed)
	}
}

// WithDepthLimit overrides DepthLimit. Zero or less keeps the size-based default.
func WithDepthLimit(limit int) Option {
	return func(e *Engine) {
		e.depthLimit = limit
	}
}

// WithoutPruning disables alpha-beta cutoffs. The chosen move is unchanged;
// only the number of visited nodes grows.
func WithoutPruning() Option {
	return func(e *Engine) {
		e.pruning = false
	}
}

// WithMeter records search metrics on m instead of the global meter provider.
func WithMeter(m metric.Meter) Option {
	return func(e *Engine) {
		e.metrics = newSearchMetrics(m)
	}
}

// New returns an engine playing computer; the human plays the opposite mark.
func New(computer game.PlayerMark, opts ...Option) (*Engine, error) {
	if computer != game.PlayerX && computer != game.PlayerO {
		return nil, fmt.Errorf("%w: got %q", ErrComputerMark, computer)
	}
	e := &Engine{
		computer: computer,
		source:   globalSource{},
		pruning:  true,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.metrics == nil {
		e.metrics = newSearchMetrics(otel.Meter(instrumentationName))
	}
	return e, nil
}

// Computer returns the mark the engine plays.
func (e *Engine) Computer() game.PlayerMark {
	return e.computer
}

// DepthLimitFor returns the depth limit used for boards of the given size.
func (e *Engine) DepthLimitFor(size int) int {
	if e.depthLimit > 0 {
		return e.depthLimit
	}
	return DepthLimit(size)
}

// BestMove returns the computer's move for board. The board is not modified.
func (e *Engine) BestMove(ctx context.Context, board *game.Board) (game.Move, error) {
	res, err := e.Search(ctx, board)
	if err != nil {
		return game.Move{}, err
	}
	return res.Move, nil
}

// Search scores every legal computer move and selects the best one, ties
// going to the earliest move in row-major order.
func (e *Engine) Search(ctx context.Context, board *game.Board) (*Result, error) {
	depthLimit := e.DepthLimitFor(board.Size())
	ctx, span := tracer.Start(ctx, "engine.Search", trace.WithAttributes(
		attribute.Int("board.size", board.Size()),
		attribute.Int("engine.depth_limit", depthLimit),
		attribute.String("engine.computer", string(e.computer)),
		attribute.Bool("engine.pruning", e.pruning),
	))
	defer span.End()

	s := newSearcher(board.Clone(), e.computer, depthLimit, e.pruning, e.source)
	if o := s.outcome(); o != Ongoing {
		err := fmt.Errorf("%w: %s", ErrGameOver, o)
		span.RecordError(err)
		span.SetStatus(codes.Error, "Search on a decided position")
		return nil, err
	}

	start := time.Now()
	best, scores := s.bestAction()
	elapsed := time.Since(start)

	e.metrics.record(ctx, board.Size(), s.stats, elapsed)
	row, col := best.Move.OneBased()
	span.SetAttributes(
		attribute.Int64("engine.nodes", s.stats.Nodes),
		attribute.Int64("engine.cutoffs", s.stats.Cutoffs),
		attribute.Int("move.row", row),
		attribute.Int("move.col", col),
		attribute.Float64("move.score", best.Score),
	)
	slog.DebugContext(ctx, "Engine search finished",
		"board.size", board.Size(),
		"move", best.Move.String(),
		"score", best.Score,
		"nodes", s.stats.Nodes,
		"cutoffs", s.stats.Cutoffs,
		"duration", elapsed,
	)

	return &Result{
		Move:   best.Move,
		Score:  best.Score,
		Scores: scores,
		Stats:  s.stats,
	}, nil
}
