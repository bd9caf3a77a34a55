package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

// Pub/Sub channel constants
const (
	EventsChannel = "channel:events"
)

// Event types published on EventsChannel.
const (
	TypeGameFinished       = "game_finished"
	TypePlayerDisconnected = "player_disconnected"
)

// Event represents a global message published via Pub/Sub.
type Event struct {
	Type    string          `json:"event"`
	Payload json.RawMessage `json:"payload"`
}

// GameFinishedPayload is the payload for the "game_finished" event.
type GameFinishedPayload struct {
	SessionID  string    `json:"session_id"`
	PlayerID   string    `json:"player_id"`
	BoardSize  int       `json:"board_size"`
	Difficulty string    `json:"difficulty"`
	HumanMark  string    `json:"human_mark"`
	Winner     string    `json:"winner"`
	IsDraw     bool      `json:"is_draw"`
	Moves      int       `json:"moves"`
	FinishedAt time.Time `json:"finished_at"`
}

// PlayerDisconnectedPayload is the payload for the "player_disconnected" event.
type PlayerDisconnectedPayload struct {
	SessionID string `json:"session_id"`
	PlayerID  string `json:"player_id"`
}

// New wraps payload into an Event of the given type.
func New(eventType string, payload any) (*Event, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s payload: %w", eventType, err)
	}
	return &Event{Type: eventType, Payload: raw}, nil
}

//go:generate mockgen -destination=../mocks/mock_publisher.go -package=mocks ctchen222/BigTicTacToe/internal/events Publisher

// Publisher sends events to every server instance.
type Publisher interface {
	Publish(ctx context.Context, event *Event) error
}

type redisPublisher struct {
	rdb *redis.Client
}

// NewRedisPublisher publishes events on EventsChannel.
func NewRedisPublisher(rdb *redis.Client) Publisher {
	return &redisPublisher{rdb: rdb}
}

func (p *redisPublisher) Publish(ctx context.Context, event *Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}
	if err := p.rdb.Publish(ctx, EventsChannel, data).Err(); err != nil {
		return fmt.Errorf("failed to publish %s event: %w", event.Type, err)
	}
	return nil
}

// Decode parses a raw channel message into an event.
func Decode(data string) (*Event, error) {
	var event Event
	if err := json.Unmarshal([]byte(data), &event); err != nil {
		return nil, fmt.Errorf("could not unmarshal event: %w", err)
	}
	return &event, nil
}
