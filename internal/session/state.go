package session

import (
	"context"
	"log/slog"
	"time"

	"ctchen222/BigTicTacToe/internal/events"
	"ctchen222/BigTicTacToe/internal/game"
	"ctchen222/BigTicTacToe/internal/player"
	"ctchen222/BigTicTacToe/internal/repository"
	"ctchen222/BigTicTacToe/pkg/proto"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

func (s *Session) handleJoin(ctx context.Context, p *player.Player) {
	ctx, span := tracer.Start(ctx, "session.handleJoin", trace.WithAttributes(
		attribute.String("player.id", p.ID),
		attribute.String("session.id", s.ID),
	))
	defer span.End()

	if old := s.attach(p); old != nil && old != p && old.Conn != nil {
		_ = old.Conn.Close()
	}
	p.SetStatus(player.StatusConnected)
	go s.ReadPump(ctx, p)

	s.sendState(ctx, p)
}

// sendState sends the mark assignment and the board, then lets the computer
// move if it is its turn.
func (s *Session) sendState(ctx context.Context, p *player.Player) {
	ctx, span := tracer.Start(ctx, "session.sendState", trace.WithAttributes(
		attribute.String("session.id", s.ID),
		attribute.String("player.id", p.ID),
	))
	defer span.End()

	state, err := s.deps.GameRepo.FindByID(ctx, s.ID)
	if err != nil {
		slog.ErrorContext(ctx, "Could not get game state", "session.id", s.ID, "error", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, "Could not get game state")
		return
	}

	s.send(ctx, p, &proto.PlayerAssignmentMessage{
		Type:       proto.TypeAssignment,
		PlayerID:   p.ID,
		SessionID:  s.ID,
		Mark:       state.HumanMark,
		Size:       state.Board.Size(),
		Difficulty: state.Difficulty,
	})
	s.send(ctx, p, proto.NewUpdate(state, nil))

	if !state.IsOver() && state.CurrentTurn == state.ComputerMark() {
		s.playComputer(ctx, state)
	}
}

// playComputer asks the move calculator for the computer's reply and stores it.
func (s *Session) playComputer(ctx context.Context, state *game.GameStateDTO) {
	computer := state.ComputerMark()
	ctx, span := tracer.Start(ctx, "session.playComputer", trace.WithAttributes(
		attribute.String("session.id", s.ID),
		attribute.String("bot.difficulty", state.Difficulty),
		attribute.Int("board.size", state.Board.Size()),
	))
	defer span.End()

	start := time.Now()
	move, err := s.deps.MoveCalculator.CalculateNextMove(ctx, state.Board, computer, state.Difficulty)
	if err != nil {
		slog.ErrorContext(ctx, "Computer could not choose a move", "session.id", s.ID, "error", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, "Computer could not choose a move")
		s.Broadcast(ctx, proto.NewError("computer could not move"))
		return
	}

	next, err := s.deps.GameRepo.Update(ctx, s.ID, computer, move)
	if err != nil {
		slog.ErrorContext(ctx, "Computer move was rejected", "session.id", s.ID, "move", move.String(), "error", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, "Computer move was rejected")
		s.Broadcast(ctx, proto.NewError("computer could not move"))
		return
	}

	slog.InfoContext(ctx, "Computer moved", "session.id", s.ID, "move", move.String(), "duration", time.Since(start))
	s.Broadcast(ctx, proto.NewUpdate(next, &move))
	if next.IsOver() {
		s.finish(ctx, next)
	}
}

// finish publishes the result of a completed game.
func (s *Session) finish(ctx context.Context, state *game.GameStateDTO) {
	ctx, span := tracer.Start(ctx, "session.finish", trace.WithAttributes(
		attribute.String("session.id", s.ID),
		attribute.String("game.winner", string(state.Winner)),
		attribute.Bool("game.draw", state.IsDraw),
	))
	defer span.End()

	event, err := events.New(events.TypeGameFinished, events.GameFinishedPayload{
		SessionID:  s.ID,
		PlayerID:   state.PlayerID,
		BoardSize:  state.Board.Size(),
		Difficulty: state.Difficulty,
		HumanMark:  string(state.HumanMark),
		Winner:     string(state.Winner),
		IsDraw:     state.IsDraw,
		Moves:      state.Moves,
		FinishedAt: time.Now().UTC(),
	})
	if err == nil {
		err = s.deps.Publisher.Publish(ctx, event)
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to publish game_finished event", "session.id", s.ID, "error", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to publish game_finished event")
		return
	}
	slog.InfoContext(ctx, "Game finished", "session.id", s.ID, "winner", state.Winner, "draw", state.IsDraw)
}

// reset stores a new game with the same player, size and difficulty.
func (s *Session) reset(ctx context.Context, old *game.GameStateDTO) (*game.GameStateDTO, error) {
	ctx, span := tracer.Start(ctx, "session.reset", trace.WithAttributes(
		attribute.String("session.id", s.ID),
	))
	defer span.End()

	state, err := s.deps.GameRepo.Create(ctx, s.ID, repository.CreateParams{
		PlayerID:   old.PlayerID,
		Size:       old.Board.Size(),
		HumanMark:  old.HumanMark,
		Difficulty: old.Difficulty,
		First:      s.chooseFirst(),
	})
	if err != nil {
		slog.ErrorContext(ctx, "failed to reset game", "session.id", s.ID, "error", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to reset game")
		return nil, err
	}
	return state, nil
}
