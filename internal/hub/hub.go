package hub

import (
	"context"
	"log/slog"

	apirepo "ctchen222/BigTicTacToe/internal/api/repository"
	"ctchen222/BigTicTacToe/internal/game"
	"ctchen222/BigTicTacToe/internal/player"
	"ctchen222/BigTicTacToe/internal/session"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
)

var tracer = otel.Tracer("hub")

// RegistrationRequest represents a request to register a player.
type RegistrationRequest struct {
	Player     *player.Player
	Size       int
	Difficulty string
}

// Hub manages all the sessions hosted by this server.
type Hub struct {
	// sessions and owners are only touched by the Run goroutine.
	sessions map[string]*session.Session
	owners   map[string]string

	register chan *RegistrationRequest
	closed   chan *session.Session
	events   chan string
	stopped  chan struct{}

	deps    session.Dependencies
	history apirepo.HistoryRepository
	rdb     *redis.Client

	newSessionID func() string
	chooseMark   func() game.PlayerMark
	chooseFirst  func() game.PlayerMark
}

// NewHub creates a new hub. rdb may be nil, in which case no events are
// consumed.
func NewHub(deps session.Dependencies, history apirepo.HistoryRepository, rdb *redis.Client) *Hub {
	return &Hub{
		sessions:     make(map[string]*session.Session),
		owners:       make(map[string]string),
		register:     make(chan *RegistrationRequest),
		closed:       make(chan *session.Session, 16),
		events:       make(chan string, 64),
		stopped:      make(chan struct{}),
		deps:         deps,
		history:      history,
		rdb:          rdb,
		newSessionID: func() string { return uuid.New().String() },
		chooseMark:   game.RandomlyChooseFirstPlayer,
		chooseFirst:  game.RandomlyChooseFirstPlayer,
	}
}

// Run starts the hub and blocks until ctx is cancelled.
func (h *Hub) Run(ctx context.Context) {
	if h.rdb != nil {
		go h.runEventSubscriber(ctx)
	}
	slog.InfoContext(ctx, "Hub started")

	for {
		select {
		case <-ctx.Done():
			close(h.stopped)
			for _, s := range h.sessions {
				s.Close()
			}
			slog.InfoContext(ctx, "Hub stopped", "sessions.count", len(h.sessions))
			return

		case req := <-h.register:
			h.handleRegistration(ctx, req)

		case s := <-h.closed:
			h.handleSessionClosed(ctx, s)

		case payload := <-h.events:
			h.handleEvent(ctx, payload)
		}
	}
}

// Register hands a freshly connected player to the hub.
func (h *Hub) Register(req *RegistrationRequest) {
	select {
	case h.register <- req:
	case <-h.stopped:
		_ = req.Player.Conn.Close()
	}
}

// onSessionClosed is passed to every session and may run on any goroutine.
func (h *Hub) onSessionClosed(s *session.Session) {
	select {
	case h.closed <- s:
	case <-h.stopped:
	}
}

// handleSessionClosed forgets s. A close from a session that a reconnect has
// already replaced under the same id is ignored.
func (h *Hub) handleSessionClosed(ctx context.Context, s *session.Session) {
	id := s.ID
	if h.sessions[id] != s {
		slog.DebugContext(ctx, "Ignoring close of a replaced session", "session.id", id)
		return
	}
	playerID := h.owners[id]
	delete(h.sessions, id)
	delete(h.owners, id)
	if playerID == "" {
		return
	}
	if err := h.deps.PlayerRepo.SetOffline(ctx, playerID); err != nil {
		slog.ErrorContext(ctx, "Failed to set player offline", "player.id", playerID, "error", err)
	}
	slog.InfoContext(ctx, "Session removed from hub", "session.id", id, "player.id", playerID)
}
