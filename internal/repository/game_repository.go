package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"ctchen222/BigTicTacToe/internal/game"

	"github.com/go-redis/redis/v8"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("repository")

var ErrGameNotFound = errors.New("game not found")

// sessionTTL bounds how long an abandoned game stays in Redis.
const sessionTTL = 24 * time.Hour

//go:generate mockgen -destination=../mocks/mock_game_repository.go -package=mocks ctchen222/BigTicTacToe/internal/repository GameRepository

// GameRepository defines the interface for game data operations.
type GameRepository interface {
	Create(ctx context.Context, sessionID string, params CreateParams) (*game.GameStateDTO, error)
	FindByID(ctx context.Context, id string) (*game.GameStateDTO, error)
	Update(ctx context.Context, id string, mark game.PlayerMark, move game.Move) (*game.GameStateDTO, error)
	Delete(ctx context.Context, id string) error
}

// CreateParams describes a new game.
type CreateParams struct {
	PlayerID   string
	Size       int
	HumanMark  game.PlayerMark
	Difficulty string
	First      game.PlayerMark
}

type redisGameRepository struct {
	rdb *redis.Client
}

// NewGameRepository creates a new Redis-based GameRepository.
func NewGameRepository(rdb *redis.Client) GameRepository {
	return &redisGameRepository{rdb: rdb}
}

func sessionKey(id string) string {
	return fmt.Sprintf("session:%s", id)
}

// Create initializes a new game state in Redis, replacing any previous game
// stored under sessionID.
func (r *redisGameRepository) Create(ctx context.Context, sessionID string, params CreateParams) (*game.GameStateDTO, error) {
	ctx, span := tracer.Start(ctx, "GameRepository.Create", trace.WithAttributes(
		attribute.String("session.id", sessionID),
		attribute.Int("board.size", params.Size),
	))
	defer span.End()

	g, err := game.NewGame(params.Size, params.First)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Invalid game parameters")
		return nil, err
	}
	boardJSON, err := json.Marshal(g.Board)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal initial board: %w", err)
	}

	key := sessionKey(sessionID)
	pipe := r.rdb.TxPipeline()
	pipe.Del(ctx, key)
	pipe.HSet(ctx, key,
		game.FieldBoard, boardJSON,
		game.FieldSize, params.Size,
		game.FieldPlayer, params.PlayerID,
		game.FieldHumanMark, string(params.HumanMark),
		game.FieldDifficulty, params.Difficulty,
		game.FieldNextTurn, string(g.CurrentTurn),
		game.FieldWinner, "",
		game.FieldStatus, game.StatusInProgress,
		game.FieldMoves, 0,
	)
	pipe.Expire(ctx, key, sessionTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to create game in redis")
		return nil, fmt.Errorf("failed to create game in redis: %w", err)
	}

	return &game.GameStateDTO{
		Board:       g.Board,
		CurrentTurn: g.CurrentTurn,
		Winner:      game.None,
		PlayerID:    params.PlayerID,
		HumanMark:   params.HumanMark,
		Difficulty:  params.Difficulty,
	}, nil
}

// FindByID retrieves the current game state from Redis.
func (r *redisGameRepository) FindByID(ctx context.Context, id string) (*game.GameStateDTO, error) {
	ctx, span := tracer.Start(ctx, "GameRepository.FindByID", trace.WithAttributes(
		attribute.String("session.id", id),
	))
	defer span.End()

	data, err := r.rdb.HGetAll(ctx, sessionKey(id)).Result()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to read game state")
		return nil, fmt.Errorf("failed to get game state from redis: %w", err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrGameNotFound, id)
	}
	return decodeState(data)
}

func decodeState(data map[string]string) (*game.GameStateDTO, error) {
	var board game.Board
	if err := json.Unmarshal([]byte(data[game.FieldBoard]), &board); err != nil {
		return nil, fmt.Errorf("failed to unmarshal board: %w", err)
	}
	moves, err := strconv.Atoi(data[game.FieldMoves])
	if err != nil {
		return nil, fmt.Errorf("failed to parse move count: %w", err)
	}

	winner := game.PlayerMark(data[game.FieldWinner])
	return &game.GameStateDTO{
		Board:       &board,
		CurrentTurn: game.PlayerMark(data[game.FieldNextTurn]),
		Winner:      winner,
		IsDraw:      data[game.FieldStatus] == game.StatusFinished && winner == game.None,
		Moves:       moves,
		PlayerID:    data[game.FieldPlayer],
		HumanMark:   game.PlayerMark(data[game.FieldHumanMark]),
		Difficulty:  data[game.FieldDifficulty],
	}, nil
}

// Update applies a move for mark inside a WATCH transaction so concurrent
// writers cannot both play the same turn.
func (r *redisGameRepository) Update(ctx context.Context, id string, mark game.PlayerMark, move game.Move) (*game.GameStateDTO, error) {
	ctx, span := tracer.Start(ctx, "GameRepository.Update", trace.WithAttributes(
		attribute.String("session.id", id),
		attribute.String("move.mark", string(mark)),
		attribute.Int("move.row", move.Row),
		attribute.Int("move.col", move.Col),
	))
	defer span.End()

	key := sessionKey(id)
	var updated *game.GameStateDTO

	txf := func(tx *redis.Tx) error {
		data, err := tx.HGetAll(ctx, key).Result()
		if err != nil {
			return err
		}
		if len(data) == 0 {
			return fmt.Errorf("%w: %s", ErrGameNotFound, id)
		}
		state, err := decodeState(data)
		if err != nil {
			return err
		}
		if state.IsOver() {
			return game.ErrGameFinished
		}
		if state.CurrentTurn != mark {
			return game.ErrNotYourTurn
		}

		g := state.Game()
		if err := g.Move(move); err != nil {
			return err
		}
		boardJSON, err := json.Marshal(g.Board)
		if err != nil {
			return fmt.Errorf("failed to marshal updated board: %w", err)
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.HSet(ctx, key,
				game.FieldBoard, boardJSON,
				game.FieldNextTurn, string(g.CurrentTurn),
				game.FieldWinner, string(g.Winner),
				game.FieldStatus, g.Status(),
				game.FieldMoves, g.Moves,
			)
			return nil
		})
		if err != nil {
			return err
		}

		state.Board = g.Board
		state.CurrentTurn = g.CurrentTurn
		state.Winner = g.Winner
		state.IsDraw = g.Draw
		state.Moves = g.Moves
		updated = state
		return nil
	}

	if err := r.rdb.Watch(ctx, txf, key); err != nil {
		span.SetAttributes(attribute.Bool("move.valid", false))
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to apply move")
		return nil, err
	}
	span.SetAttributes(attribute.Bool("move.valid", true))
	return updated, nil
}

// Delete removes a game.
func (r *redisGameRepository) Delete(ctx context.Context, id string) error {
	ctx, span := tracer.Start(ctx, "GameRepository.Delete", trace.WithAttributes(
		attribute.String("session.id", id),
	))
	defer span.End()

	if err := r.rdb.Del(ctx, sessionKey(id)).Err(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to delete game")
		return fmt.Errorf("failed to delete game: %w", err)
	}
	return nil
}
