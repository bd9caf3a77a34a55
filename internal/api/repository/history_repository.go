package repository

import (
	"context"
	"fmt"

	"ctchen222/BigTicTacToe/internal/api/models"

	"github.com/jmoiron/sqlx"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// DefaultHistoryLimit is used when a caller asks for zero or fewer results.
const DefaultHistoryLimit = 20

//go:generate mockgen -destination=../../mocks/mock_history_repository.go -package=mocks ctchen222/BigTicTacToe/internal/api/repository HistoryRepository

// HistoryRepository stores finished games.
type HistoryRepository interface {
	Record(ctx context.Context, result *models.GameResult) error
	ListByPlayer(ctx context.Context, playerID string, limit int) ([]models.GameResult, error)
}

type sqliteHistoryRepository struct {
	db *sqlx.DB
}

// NewHistoryRepository creates a new SQLite-based HistoryRepository.
func NewHistoryRepository(db *sqlx.DB) HistoryRepository {
	return &sqliteHistoryRepository{db: db}
}

// Record inserts a finished game and sets result.ID.
func (r *sqliteHistoryRepository) Record(ctx context.Context, result *models.GameResult) error {
	ctx, span := tracer.Start(ctx, "HistoryRepository.Record", trace.WithAttributes(
		attribute.String("session.id", result.SessionID),
		attribute.String("player.id", result.PlayerID),
	))
	defer span.End()

	query := `INSERT INTO game_results
		(session_id, player_id, board_size, difficulty, human_mark, winner, is_draw, moves, finished_at)
		VALUES (:session_id, :player_id, :board_size, :difficulty, :human_mark, :winner, :is_draw, :moves, :finished_at)`
	res, err := r.db.NamedExecContext(ctx, query, result)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to record game result")
		return fmt.Errorf("failed to record game result: %w", err)
	}
	if id, err := res.LastInsertId(); err == nil {
		result.ID = id
	}
	return nil
}

// ListByPlayer returns the player's most recent games first.
func (r *sqliteHistoryRepository) ListByPlayer(ctx context.Context, playerID string, limit int) ([]models.GameResult, error) {
	ctx, span := tracer.Start(ctx, "HistoryRepository.ListByPlayer", trace.WithAttributes(
		attribute.String("player.id", playerID),
		attribute.Int("limit", limit),
	))
	defer span.End()

	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	results := []models.GameResult{}
	query := `SELECT id, session_id, player_id, board_size, difficulty, human_mark, winner, is_draw, moves, finished_at
		FROM game_results WHERE player_id = ? ORDER BY finished_at DESC, id DESC LIMIT ?`
	if err := r.db.SelectContext(ctx, &results, query, playerID, limit); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to list game results")
		return nil, fmt.Errorf("failed to list game results: %w", err)
	}
	return results, nil
}
