package hub

import (
	"context"
	"encoding/json"
	"log/slog"

	"ctchen222/BigTicTacToe/internal/bot"
	"ctchen222/BigTicTacToe/internal/player"
	"ctchen222/BigTicTacToe/internal/repository"
	"ctchen222/BigTicTacToe/internal/session"
	"ctchen222/BigTicTacToe/pkg/proto"

	"github.com/gorilla/websocket"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// handleRegistration puts the player back into their unfinished game, or
// starts a new one.
func (h *Hub) handleRegistration(ctx context.Context, req *RegistrationRequest) {
	p := req.Player
	ctx, span := tracer.Start(ctx, "hub.handleRegistration", trace.WithAttributes(
		attribute.String("player.id", p.ID),
		attribute.Int("board.size", req.Size),
		attribute.String("bot.difficulty", req.Difficulty),
	))
	defer span.End()

	sessionID, status, err := h.deps.PlayerRepo.FindForReconnection(ctx, p.ID)
	if err != nil {
		slog.WarnContext(ctx, "Could not look up previous session", "player.id", p.ID, "error", err)
	}
	if sessionID != "" && h.reconnect(ctx, req, sessionID) {
		span.SetAttributes(attribute.Bool("player.reconnected", true))
		slog.InfoContext(ctx, "Player reconnected", "player.id", p.ID, "session.id", sessionID, "player.previous_status", status)
		return
	}

	if err := h.registerNewGame(ctx, req); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to create game")
		sendError(p, "could not create game")
		_ = p.Conn.Close()
	}
}

// reconnect joins p to sessionID if its game is still being played.
func (h *Hub) reconnect(ctx context.Context, req *RegistrationRequest, sessionID string) bool {
	state, err := h.deps.GameRepo.FindByID(ctx, sessionID)
	if err != nil || state.PlayerID != req.Player.ID || state.IsOver() {
		return false
	}

	s, ok := h.sessions[sessionID]
	if ok {
		select {
		case <-s.Done():
			ok = false
		default:
		}
	}
	if !ok {
		// The game outlived the process that hosted it.
		s = h.startSession(ctx, sessionID, req.Player.ID)
	}
	if err := h.deps.PlayerRepo.UpdateConnectionStatus(ctx, req.Player.ID, req.Player.Status()); err != nil {
		slog.WarnContext(ctx, "Failed to update player status", "player.id", req.Player.ID, "error", err)
	}
	s.Join(req.Player)
	return true
}

func (h *Hub) registerNewGame(ctx context.Context, req *RegistrationRequest) error {
	p := req.Player
	sessionID := h.newSessionID()
	difficulty := bot.NormalizeDifficulty(req.Difficulty)

	if _, err := h.deps.GameRepo.Create(ctx, sessionID, repository.CreateParams{
		PlayerID:   p.ID,
		Size:       req.Size,
		HumanMark:  h.chooseMark(),
		Difficulty: difficulty,
		First:      h.chooseFirst(),
	}); err != nil {
		slog.ErrorContext(ctx, "Failed to create game", "session.id", sessionID, "player.id", p.ID, "error", err)
		return err
	}
	if err := h.deps.PlayerRepo.AssignSession(ctx, p.ID, sessionID); err != nil {
		slog.ErrorContext(ctx, "Failed to assign session to player", "session.id", sessionID, "player.id", p.ID, "error", err)
		return err
	}

	s := h.startSession(ctx, sessionID, p.ID)
	slog.InfoContext(ctx, "Session created", "session.id", sessionID, "player.id", p.ID, "board.size", req.Size, "bot.difficulty", difficulty)
	s.Join(p)
	return nil
}

func (h *Hub) startSession(ctx context.Context, id, playerID string) *session.Session {
	s := session.NewSession(id, h.deps, h.onSessionClosed)
	h.sessions[id] = s
	h.owners[id] = playerID
	go s.Start(ctx)
	return s
}

func sendError(p *player.Player, reason string) {
	data, err := json.Marshal(proto.NewError(reason))
	if err != nil {
		return
	}
	_ = p.Send(websocket.TextMessage, data)
}
