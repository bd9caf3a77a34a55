package session

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"ctchen222/BigTicTacToe/internal/game"
	"ctchen222/BigTicTacToe/internal/player"
	"ctchen222/BigTicTacToe/internal/validator"
	"ctchen222/BigTicTacToe/pkg/proto"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// HandleMessage handles a message from a player. It acts as a dispatcher.
func (s *Session) HandleMessage(ctx context.Context, p *player.Player, rawMessage []byte) {
	ctx, span := tracer.Start(ctx, "session.HandleMessage", trace.WithAttributes(
		attribute.String("player.id", p.ID),
		attribute.String("session.id", s.ID),
	))
	defer span.End()

	if p.Status() == player.StatusDisconnected {
		slog.WarnContext(ctx, "ignoring message from disconnected player", "player.id", p.ID)
		span.SetStatus(codes.Error, "Message from disconnected player")
		return
	}
	if p != s.currentPlayer() {
		slog.WarnContext(ctx, "ignoring message from replaced connection", "player.id", p.ID)
		span.SetStatus(codes.Error, "Message from replaced connection")
		return
	}

	var message proto.ClientToServerMessage
	if err := json.Unmarshal(rawMessage, &message); err != nil {
		slog.ErrorContext(ctx, "error unmarshalling message", "error", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, "Error unmarshalling message")
		s.send(ctx, p, proto.NewError("malformed message"))
		return
	}

	if err := validator.GetValidator().Struct(message); err != nil {
		slog.WarnContext(ctx, "invalid message from player", "player.id", p.ID, "error", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, "Invalid message format")
		s.send(ctx, p, proto.NewError("invalid message"))
		return
	}

	span.SetAttributes(attribute.String("message.type", message.Type))

	switch message.Type {
	case proto.TypeMove:
		s.handleMove(ctx, p, &message)
	case proto.TypeRestart:
		s.handleRestart(ctx, p)
	}
}

// handleMove applies the human move, then lets the computer answer.
func (s *Session) handleMove(ctx context.Context, p *player.Player, message *proto.ClientToServerMessage) {
	move := message.Move()
	ctx, span := tracer.Start(ctx, "session.handleMove", trace.WithAttributes(
		attribute.String("player.id", p.ID),
		attribute.String("session.id", s.ID),
		attribute.Int("move.row", message.Position[0]),
		attribute.Int("move.col", message.Position[1]),
	))
	defer span.End()

	state, err := s.deps.GameRepo.FindByID(ctx, s.ID)
	if err != nil {
		slog.ErrorContext(ctx, "handleMove could not find game state for session", "session.id", s.ID, "error", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, "Could not find game state")
		s.send(ctx, p, proto.NewError("game not found"))
		return
	}
	if p.ID != state.PlayerID {
		slog.WarnContext(ctx, "player is not part of session", "player.id", p.ID, "session.id", s.ID)
		span.SetStatus(codes.Error, "Player not part of session")
		return
	}

	state, err = s.deps.GameRepo.Update(ctx, s.ID, state.HumanMark, move)
	if err != nil {
		slog.WarnContext(ctx, "invalid move from player", "player.id", p.ID, "move", move.String(), "error", err)
		span.SetAttributes(attribute.Bool("move.valid", false))
		span.RecordError(err)
		span.SetStatus(codes.Error, "Invalid move")
		s.send(ctx, p, proto.NewError(rejectReason(err)))
		return
	}
	span.SetAttributes(attribute.Bool("move.valid", true))

	s.Broadcast(ctx, proto.NewUpdate(state, &move))
	if state.IsOver() {
		s.finish(ctx, state)
		return
	}
	s.playComputer(ctx, state)
}

// handleRestart starts a fresh game in the same session.
func (s *Session) handleRestart(ctx context.Context, p *player.Player) {
	ctx, span := tracer.Start(ctx, "session.handleRestart", trace.WithAttributes(
		attribute.String("player.id", p.ID),
		attribute.String("session.id", s.ID),
	))
	defer span.End()

	old, err := s.deps.GameRepo.FindByID(ctx, s.ID)
	if err != nil {
		slog.ErrorContext(ctx, "could not get game state for restart", "session.id", s.ID, "error", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, "Could not get game state for restart")
		s.send(ctx, p, proto.NewError("game not found"))
		return
	}

	if _, err := s.reset(ctx, old); err != nil {
		s.send(ctx, p, proto.NewError("restart failed"))
		return
	}
	slog.InfoContext(ctx, "Player restarted the game", "player.id", p.ID, "session.id", s.ID)
	s.sendState(ctx, p)
}

// rejectReason turns a move error into the text sent to the client.
func rejectReason(err error) string {
	switch {
	case errors.Is(err, game.ErrOutOfBounds):
		return "move is outside the board"
	case errors.Is(err, game.ErrCellOccupied):
		return "cell already occupied"
	case errors.Is(err, game.ErrNotYourTurn):
		return "not your turn"
	case errors.Is(err, game.ErrGameFinished):
		return "game already finished"
	default:
		return "move rejected"
	}
}
