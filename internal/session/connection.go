package session

import (
	"context"
	"encoding/json"
	"log/slog"

	"ctchen222/BigTicTacToe/internal/events"
	"ctchen222/BigTicTacToe/internal/player"

	"github.com/gorilla/websocket"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Broadcast sends a message to the session's player if connected.
func (s *Session) Broadcast(ctx context.Context, message any) {
	if p := s.currentPlayer(); p != nil {
		s.send(ctx, p, message)
	}
}

func (s *Session) send(ctx context.Context, p *player.Player, message any) {
	ctx, span := tracer.Start(ctx, "session.send", trace.WithAttributes(
		attribute.String("session.id", s.ID),
		attribute.String("player.id", p.ID),
	))
	defer span.End()

	data, err := json.Marshal(message)
	if err != nil {
		slog.ErrorContext(ctx, "error marshalling message", "error", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, "Error marshalling message")
		return
	}
	if err := p.Send(websocket.TextMessage, data); err != nil {
		slog.ErrorContext(ctx, "error writing message to player", "player.id", p.ID, "error", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, "Error writing message to player")
	}
}

func (s *Session) ping(ctx context.Context) {
	p := s.currentPlayer()
	if p == nil {
		return
	}
	if err := p.Send(websocket.PingMessage, nil); err != nil {
		slog.WarnContext(ctx, "Failed to send ping to player, assuming disconnect", "player.id", p.ID, "error", err)
	}
}

// ReadPump pumps messages from the player's connection into the session loop.
func (s *Session) ReadPump(ctx context.Context, p *player.Player) {
	ctx, span := tracer.Start(ctx, "session.ReadPump", trace.WithAttributes(
		attribute.String("player.id", p.ID),
		attribute.String("session.id", s.ID),
	))
	defer span.End()

	defer s.handleDisconnect(ctx, p)

	for {
		_, msg, err := p.Conn.ReadMessage()
		if err != nil {
			slog.WarnContext(ctx, "Player connection error", "player.id", p.ID, "session.id", s.ID, "error", err)
			return
		}
		select {
		case s.incoming <- inbound{player: p, raw: msg}:
		case <-s.done:
			return
		}
	}
}

func (s *Session) handleDisconnect(ctx context.Context, p *player.Player) {
	_ = p.Conn.Close()
	select {
	case <-s.done:
		return
	default:
	}
	// A reconnect already replaced this connection.
	if s.currentPlayer() != p {
		return
	}

	ctx, span := tracer.Start(ctx, "session.handleDisconnect", trace.WithAttributes(
		attribute.String("player.id", p.ID),
		attribute.String("session.id", s.ID),
	))
	defer span.End()

	p.SetStatus(player.StatusDisconnected)
	if err := s.deps.PlayerRepo.UpdateConnectionStatus(ctx, p.ID, player.StatusDisconnected); err != nil {
		slog.ErrorContext(ctx, "Failed to set player status to disconnected", "player.id", p.ID, "error", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to set player status to disconnected")
	}

	event, err := events.New(events.TypePlayerDisconnected, events.PlayerDisconnectedPayload{
		SessionID: s.ID,
		PlayerID:  p.ID,
	})
	if err == nil {
		err = s.deps.Publisher.Publish(ctx, event)
	}
	if err != nil {
		slog.ErrorContext(ctx, "Failed to publish player_disconnected event", "player.id", p.ID, "error", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to publish player_disconnected event")
	}
	slog.InfoContext(ctx, "Player disconnected. Updated status and published event.", "player.id", p.ID)
}
