package session

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"ctchen222/BigTicTacToe/internal/events"
	"ctchen222/BigTicTacToe/internal/game"
	"ctchen222/BigTicTacToe/internal/player"
	"ctchen222/BigTicTacToe/internal/repository"

	"go.opentelemetry.io/otel"
)

const (
	heartbeatInterval = 10 * time.Second
	cleanupInterval   = 15 * time.Second
)

var reconnectionGracePeriod = 60 * time.Second
var tracer = otel.Tracer("session")

//go:generate mockgen -destination=../mocks/mock_move_calculator.go -package=mocks ctchen222/BigTicTacToe/internal/session MoveCalculator

// MoveCalculator defines an interface for an agent that can calculate a game move.
type MoveCalculator interface {
	CalculateNextMove(ctx context.Context, board *game.Board, mark game.PlayerMark, difficulty string) (game.Move, error)
}

// Dependencies are the collaborators shared by every session on a server.
type Dependencies struct {
	GameRepo       repository.GameRepository
	PlayerRepo     repository.PlayerRepository
	Publisher      events.Publisher
	MoveCalculator MoveCalculator
}

type inbound struct {
	player *player.Player
	raw    []byte
}

// Session is one human playing the computer. All game changes happen on the
// goroutine started by Start.
type Session struct {
	ID   string
	deps Dependencies

	mu     sync.Mutex
	player *player.Player

	joins       chan *player.Player
	incoming    chan inbound
	done        chan struct{}
	closeOnce   sync.Once
	onClose     func(s *Session)
	chooseFirst func() game.PlayerMark
}

// NewSession creates a session for a game already stored under id.
// onClose is called once when the session ends.
func NewSession(id string, deps Dependencies, onClose func(s *Session)) *Session {
	if onClose == nil {
		onClose = func(*Session) {}
	}
	return &Session{
		ID:          id,
		deps:        deps,
		joins:       make(chan *player.Player, 1),
		incoming:    make(chan inbound, 10),
		done:        make(chan struct{}),
		onClose:     onClose,
		chooseFirst: game.RandomlyChooseFirstPlayer,
	}
}

// Join hands a (re)connected player to the session.
func (s *Session) Join(p *player.Player) {
	select {
	case s.joins <- p:
	case <-s.done:
		_ = p.Conn.Close()
	}
}

// Done is closed when the session has ended.
func (s *Session) Done() <-chan struct{} {
	return s.done
}

// Start runs the session loop until ctx is cancelled or the session closes.
func (s *Session) Start(ctx context.Context) {
	pingTicker := time.NewTicker(heartbeatInterval)
	cleanupTicker := time.NewTicker(cleanupInterval)
	defer func() {
		pingTicker.Stop()
		cleanupTicker.Stop()
	}()

	for {
		select {
		case <-ctx.Done():
			s.Close()
			return

		case <-s.done:
			slog.Info("Session run goroutine stopping.", "session.id", s.ID)
			return

		case p := <-s.joins:
			s.handleJoin(ctx, p)

		case msg := <-s.incoming:
			s.HandleMessage(ctx, msg.player, msg.raw)

		case <-pingTicker.C:
			s.ping(ctx)

		case <-cleanupTicker.C:
			if s.expired(time.Now()) {
				slog.InfoContext(ctx, "Player exceeded reconnection grace period. Closing session.", "session.id", s.ID)
				s.Close()
				return
			}
		}
	}
}

// Close ends the session and drops the player's connection.
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		close(s.done)
		if p := s.currentPlayer(); p != nil && p.Conn != nil {
			_ = p.Conn.Close()
		}
		s.onClose(s)
	})
}

func (s *Session) currentPlayer() *player.Player {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.player
}

// attach makes p the session's player and returns the one it replaced.
func (s *Session) attach(p *player.Player) *player.Player {
	s.mu.Lock()
	defer s.mu.Unlock()
	old := s.player
	s.player = p
	return old
}

func (s *Session) expired(now time.Time) bool {
	p := s.currentPlayer()
	if p == nil {
		return false
	}
	return p.Status() == player.StatusDisconnected && now.Sub(p.LastSeen()) > reconnectionGracePeriod
}
