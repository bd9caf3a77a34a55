package hub

import (
	"context"
	"encoding/json"
	"log/slog"

	"ctchen222/BigTicTacToe/internal/api/models"
	"ctchen222/BigTicTacToe/internal/events"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// runEventSubscriber forwards events from Redis into the Run loop.
func (h *Hub) runEventSubscriber(ctx context.Context) {
	slog.InfoContext(ctx, "Event subscriber started", "channel", events.EventsChannel)
	pubsub := h.rdb.Subscribe(ctx, events.EventsChannel)
	defer pubsub.Close()

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			slog.InfoContext(ctx, "Event subscriber stopped")
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			select {
			case h.events <- msg.Payload:
			case <-h.stopped:
				return
			}
		}
	}
}

func (h *Hub) handleEvent(ctx context.Context, payload string) {
	ctx, span := tracer.Start(ctx, "hub.handleEvent", trace.WithAttributes(
		attribute.String("event.channel", events.EventsChannel),
	))
	defer span.End()

	event, err := events.Decode(payload)
	if err != nil {
		slog.ErrorContext(ctx, "Could not unmarshal global event", "error", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, "Could not unmarshal global event")
		return
	}
	span.SetAttributes(attribute.String("event.type", event.Type))

	switch event.Type {
	case events.TypeGameFinished:
		var payload events.GameFinishedPayload
		if err := json.Unmarshal(event.Payload, &payload); err != nil {
			slog.ErrorContext(ctx, "Could not unmarshal game_finished payload", "error", err)
			span.RecordError(err)
			span.SetStatus(codes.Error, "Could not unmarshal game_finished payload")
			return
		}
		h.handleGameFinished(ctx, &payload)

	case events.TypePlayerDisconnected:
		var payload events.PlayerDisconnectedPayload
		if err := json.Unmarshal(event.Payload, &payload); err != nil {
			slog.ErrorContext(ctx, "Could not unmarshal player_disconnected payload", "error", err)
			span.RecordError(err)
			span.SetStatus(codes.Error, "Could not unmarshal player_disconnected payload")
			return
		}
		slog.InfoContext(ctx, "Received player_disconnected event", "player.id", payload.PlayerID, "session.id", payload.SessionID)
	}
}

// handleGameFinished stores the result. Only the server hosting the session
// records it, so a result is written once however many servers subscribe.
func (h *Hub) handleGameFinished(ctx context.Context, payload *events.GameFinishedPayload) {
	ctx, span := tracer.Start(ctx, "hub.handleGameFinished", trace.WithAttributes(
		attribute.String("session.id", payload.SessionID),
		attribute.String("player.id", payload.PlayerID),
	))
	defer span.End()

	if _, ok := h.sessions[payload.SessionID]; !ok {
		return
	}
	if h.history == nil {
		return
	}

	result := &models.GameResult{
		SessionID:  payload.SessionID,
		PlayerID:   payload.PlayerID,
		BoardSize:  payload.BoardSize,
		Difficulty: payload.Difficulty,
		HumanMark:  payload.HumanMark,
		Winner:     payload.Winner,
		IsDraw:     payload.IsDraw,
		Moves:      payload.Moves,
		FinishedAt: payload.FinishedAt,
	}
	if err := h.history.Record(ctx, result); err != nil {
		slog.ErrorContext(ctx, "Failed to record game result", "session.id", payload.SessionID, "error", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to record game result")
		return
	}
	slog.InfoContext(ctx, "Game result recorded", "session.id", payload.SessionID, "result.id", result.ID)
}
