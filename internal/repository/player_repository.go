package repository

import (
	"context"
	"fmt"

	"ctchen222/BigTicTacToe/internal/player"

	"github.com/go-redis/redis/v8"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const (
	fieldSessionID        = "session_id"
	fieldConnectionStatus = "connection_status"
)

//go:generate mockgen -destination=../mocks/mock_player_repository.go -package=mocks ctchen222/BigTicTacToe/internal/repository PlayerRepository

// PlayerRepository defines the interface for player data operations.
type PlayerRepository interface {
	FindForReconnection(ctx context.Context, id string) (sessionID string, status player.PlayerStatus, err error)
	AssignSession(ctx context.Context, id, sessionID string) error
	UpdateConnectionStatus(ctx context.Context, id string, status player.PlayerStatus) error
	SetOffline(ctx context.Context, id string) error
}

type redisPlayerRepository struct {
	rdb *redis.Client
}

// NewPlayerRepository creates a new Redis-based PlayerRepository.
func NewPlayerRepository(rdb *redis.Client) PlayerRepository {
	return &redisPlayerRepository{
		rdb: rdb,
	}
}

func playerKey(id string) string {
	return fmt.Sprintf("player:%s", id)
}

// FindForReconnection returns the session a player last joined. An unknown
// player has an empty session id.
func (r *redisPlayerRepository) FindForReconnection(ctx context.Context, id string) (string, player.PlayerStatus, error) {
	ctx, span := tracer.Start(ctx, "PlayerRepository.FindForReconnection", trace.WithAttributes(
		attribute.String("player.id", id),
	))
	defer span.End()

	data, err := r.rdb.HGetAll(ctx, playerKey(id)).Result()
	if err != nil {
		return "", "", fmt.Errorf("failed to read player %s: %w", id, err)
	}
	return data[fieldSessionID], player.PlayerStatus(data[fieldConnectionStatus]), nil
}

// AssignSession records the player's current session and marks them connected.
func (r *redisPlayerRepository) AssignSession(ctx context.Context, id, sessionID string) error {
	ctx, span := tracer.Start(ctx, "PlayerRepository.AssignSession", trace.WithAttributes(
		attribute.String("player.id", id),
		attribute.String("session.id", sessionID),
	))
	defer span.End()

	key := playerKey(id)
	pipe := r.rdb.TxPipeline()
	pipe.HSet(ctx, key, fieldSessionID, sessionID, fieldConnectionStatus, string(player.StatusConnected))
	pipe.Expire(ctx, key, sessionTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to assign session to player %s: %w", id, err)
	}
	return nil
}

// UpdateConnectionStatus updates only the connection status of a player.
func (r *redisPlayerRepository) UpdateConnectionStatus(ctx context.Context, id string, status player.PlayerStatus) error {
	ctx, span := tracer.Start(ctx, "PlayerRepository.UpdateConnectionStatus", trace.WithAttributes(
		attribute.String("player.id", id),
		attribute.String("player.status", string(status)),
	))
	defer span.End()

	return r.rdb.HSet(ctx, playerKey(id), fieldConnectionStatus, string(status)).Err()
}

// SetOffline forgets the player's session, typically during unregistration.
func (r *redisPlayerRepository) SetOffline(ctx context.Context, id string) error {
	ctx, span := tracer.Start(ctx, "PlayerRepository.SetOffline", trace.WithAttributes(
		attribute.String("player.id", id),
	))
	defer span.End()

	return r.rdb.Del(ctx, playerKey(id)).Err()
}
