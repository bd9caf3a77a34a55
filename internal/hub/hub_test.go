package hub

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"ctchen222/BigTicTacToe/internal/api/models"
	"ctchen222/BigTicTacToe/internal/events"
	"ctchen222/BigTicTacToe/internal/game"
	"ctchen222/BigTicTacToe/internal/mocks"
	"ctchen222/BigTicTacToe/internal/player"
	"ctchen222/BigTicTacToe/internal/repository"
	"ctchen222/BigTicTacToe/internal/session"
	"ctchen222/BigTicTacToe/pkg/proto"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

type fakeConn struct {
	mu        sync.Mutex
	written   [][]byte
	closed    chan struct{}
	closeOnce sync.Once
}

func newFakeConn() *fakeConn {
	return &fakeConn{closed: make(chan struct{})}
}

func (c *fakeConn) WriteMessage(_ int, data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if data != nil {
		c.written = append(c.written, data)
	}
	return nil
}

func (c *fakeConn) ReadMessage() (int, []byte, error) {
	<-c.closed
	return 0, nil, errors.New("connection closed")
}

func (c *fakeConn) Close() error {
	c.closeOnce.Do(func() { close(c.closed) })
	return nil
}

func (c *fakeConn) types(t *testing.T) []string {
	t.Helper()
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, len(c.written))
	for i, data := range c.written {
		var msg proto.ServerToClientMessage
		require.NoError(t, json.Unmarshal(data, &msg))
		out[i] = msg.Type
	}
	return out
}

type fixture struct {
	hub        *Hub
	gameRepo   *mocks.MockGameRepository
	playerRepo *mocks.MockPlayerRepository
	history    *mocks.MockHistoryRepository
}

func newFixture(t *testing.T) *fixture {
	ctrl := gomock.NewController(t)
	f := &fixture{
		gameRepo:   mocks.NewMockGameRepository(ctrl),
		playerRepo: mocks.NewMockPlayerRepository(ctrl),
		history:    mocks.NewMockHistoryRepository(ctrl),
	}
	f.hub = NewHub(session.Dependencies{
		GameRepo:       f.gameRepo,
		PlayerRepo:     f.playerRepo,
		Publisher:      mocks.NewMockPublisher(ctrl),
		MoveCalculator: mocks.NewMockMoveCalculator(ctrl),
	}, f.history, nil)
	f.hub.newSessionID = func() string { return "s1" }
	f.hub.chooseMark = func() game.PlayerMark { return game.PlayerX }
	f.hub.chooseFirst = func() game.PlayerMark { return game.PlayerX }
	return f
}

func emptyState(t *testing.T, size int, playerID string) *game.GameStateDTO {
	t.Helper()
	b, err := game.NewBoard(size)
	require.NoError(t, err)
	return &game.GameStateDTO{
		Board:       b,
		CurrentTurn: game.PlayerX,
		PlayerID:    playerID,
		HumanMark:   game.PlayerX,
		Difficulty:  "hard",
	}
}

func TestHandleRegistration_NewGame(t *testing.T) {
	f := newFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	state := emptyState(t, 4, "p1")
	f.playerRepo.EXPECT().FindForReconnection(gomock.Any(), "p1").Return("", player.PlayerStatus(""), nil)
	f.gameRepo.EXPECT().Create(gomock.Any(), "s1", repository.CreateParams{
		PlayerID:   "p1",
		Size:       4,
		HumanMark:  game.PlayerX,
		Difficulty: "hard",
		First:      game.PlayerX,
	}).Return(state, nil)
	f.playerRepo.EXPECT().AssignSession(gomock.Any(), "p1", "s1").Return(nil)
	f.gameRepo.EXPECT().FindByID(gomock.Any(), "s1").Return(state, nil)

	conn := newFakeConn()
	f.hub.handleRegistration(ctx, &RegistrationRequest{Player: player.NewPlayer("p1", conn), Size: 4})

	require.Contains(t, f.hub.sessions, "s1")
	assert.Equal(t, "p1", f.hub.owners["s1"])
	require.Eventually(t, func() bool {
		return len(conn.types(t)) == 2
	}, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, []string{proto.TypeAssignment, proto.TypeUpdate}, conn.types(t))
}

func TestHandleRegistration_CreateFails(t *testing.T) {
	f := newFixture(t)

	f.playerRepo.EXPECT().FindForReconnection(gomock.Any(), "p1").Return("", player.PlayerStatus(""), nil)
	f.gameRepo.EXPECT().Create(gomock.Any(), "s1", gomock.Any()).Return(nil, errors.New("redis down"))

	conn := newFakeConn()
	f.hub.handleRegistration(context.Background(), &RegistrationRequest{Player: player.NewPlayer("p1", conn), Size: 3})

	assert.Empty(t, f.hub.sessions)
	assert.Equal(t, []string{proto.TypeError}, conn.types(t))
	select {
	case <-conn.closed:
	default:
		t.Fatal("connection should be closed")
	}
}

func TestHandleRegistration_Reconnect(t *testing.T) {
	tests := []struct {
		name  string
		local bool
	}{
		{name: "session hosted here", local: true},
		{name: "session restored from storage", local: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			ctx, cancel := context.WithCancel(context.Background())
			t.Cleanup(cancel)

			var existing *session.Session
			if tt.local {
				existing = f.hub.startSession(ctx, "old", "p1")
			}

			state := emptyState(t, 3, "p1")
			f.playerRepo.EXPECT().FindForReconnection(gomock.Any(), "p1").Return("old", player.StatusDisconnected, nil)
			f.gameRepo.EXPECT().FindByID(gomock.Any(), "old").Return(state, nil).Times(2)
			f.playerRepo.EXPECT().UpdateConnectionStatus(gomock.Any(), "p1", player.StatusConnected).Return(nil)

			conn := newFakeConn()
			f.hub.handleRegistration(ctx, &RegistrationRequest{Player: player.NewPlayer("p1", conn), Size: 5})

			require.Contains(t, f.hub.sessions, "old")
			assert.NotContains(t, f.hub.sessions, "s1")
			if tt.local {
				assert.Same(t, existing, f.hub.sessions["old"])
			}
			require.Eventually(t, func() bool {
				return len(conn.types(t)) == 2
			}, 2*time.Second, 10*time.Millisecond)
		})
	}
}

func TestHandleRegistration_FinishedGameStartsNewOne(t *testing.T) {
	f := newFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	finished := emptyState(t, 3, "p1")
	finished.Winner = game.PlayerO
	fresh := emptyState(t, 3, "p1")

	f.playerRepo.EXPECT().FindForReconnection(gomock.Any(), "p1").Return("old", player.StatusDisconnected, nil)
	f.gameRepo.EXPECT().FindByID(gomock.Any(), "old").Return(finished, nil)
	f.gameRepo.EXPECT().Create(gomock.Any(), "s1", gomock.Any()).Return(fresh, nil)
	f.playerRepo.EXPECT().AssignSession(gomock.Any(), "p1", "s1").Return(nil)
	f.gameRepo.EXPECT().FindByID(gomock.Any(), "s1").Return(fresh, nil)

	conn := newFakeConn()
	f.hub.handleRegistration(ctx, &RegistrationRequest{Player: player.NewPlayer("p1", conn), Size: 3, Difficulty: "easy"})

	assert.Contains(t, f.hub.sessions, "s1")
	require.Eventually(t, func() bool {
		return len(conn.types(t)) == 2
	}, 2*time.Second, 10*time.Millisecond)
}

func TestHandleSessionClosed(t *testing.T) {
	f := newFixture(t)
	s := session.NewSession("s1", f.hub.deps, nil)
	f.hub.sessions["s1"] = s
	f.hub.owners["s1"] = "p1"
	f.playerRepo.EXPECT().SetOffline(gomock.Any(), "p1").Return(nil)

	f.hub.handleSessionClosed(context.Background(), s)

	assert.Empty(t, f.hub.sessions)
	assert.Empty(t, f.hub.owners)
}

func TestHandleSessionClosed_AfterReconnectReplacedIt(t *testing.T) {
	f := newFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	old := f.hub.startSession(ctx, "old", "p1")
	old.Close()

	// The reconnect is handled before the expired session's close arrives.
	state := emptyState(t, 3, "p1")
	f.playerRepo.EXPECT().FindForReconnection(gomock.Any(), "p1").Return("old", player.StatusDisconnected, nil)
	f.gameRepo.EXPECT().FindByID(gomock.Any(), "old").Return(state, nil).Times(2)
	f.playerRepo.EXPECT().UpdateConnectionStatus(gomock.Any(), "p1", player.StatusConnected).Return(nil)

	conn := newFakeConn()
	f.hub.handleRegistration(ctx, &RegistrationRequest{Player: player.NewPlayer("p1", conn), Size: 3})

	replacement := f.hub.sessions["old"]
	require.NotNil(t, replacement)
	require.NotSame(t, old, replacement)

	f.hub.handleSessionClosed(ctx, <-f.hub.closed)

	assert.Same(t, replacement, f.hub.sessions["old"])
	assert.Equal(t, "p1", f.hub.owners["old"])
	require.Eventually(t, func() bool {
		return len(conn.types(t)) == 2
	}, 2*time.Second, 10*time.Millisecond)
}

func gameFinished(t *testing.T, sessionID string) string {
	t.Helper()
	event, err := events.New(events.TypeGameFinished, events.GameFinishedPayload{
		SessionID:  sessionID,
		PlayerID:   "p1",
		BoardSize:  5,
		Difficulty: "medium",
		HumanMark:  "O",
		Winner:     "O",
		Moves:      11,
		FinishedAt: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	data, err := json.Marshal(event)
	require.NoError(t, err)
	return string(data)
}

func TestHandleEvent(t *testing.T) {
	disconnected, err := events.New(events.TypePlayerDisconnected, events.PlayerDisconnectedPayload{SessionID: "s1", PlayerID: "p1"})
	require.NoError(t, err)
	disconnectedJSON, err := json.Marshal(disconnected)
	require.NoError(t, err)

	tests := []struct {
		name    string
		payload string
		setup   func(f *fixture)
	}{
		{
			name:    "records a local game",
			payload: gameFinished(t, "s1"),
			setup: func(f *fixture) {
				f.history.EXPECT().Record(gomock.Any(), &models.GameResult{
					SessionID:  "s1",
					PlayerID:   "p1",
					BoardSize:  5,
					Difficulty: "medium",
					HumanMark:  "O",
					Winner:     "O",
					Moves:      11,
					FinishedAt: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC),
				}).Return(nil)
			},
		},
		{
			name:    "record failure is logged",
			payload: gameFinished(t, "s1"),
			setup: func(f *fixture) {
				f.history.EXPECT().Record(gomock.Any(), gomock.Any()).Return(errors.New("disk full"))
			},
		},
		{
			name:    "ignores games hosted elsewhere",
			payload: gameFinished(t, "elsewhere"),
		},
		{
			name:    "player disconnected",
			payload: string(disconnectedJSON),
		},
		{
			name:    "malformed event",
			payload: "not json",
		},
		{
			name:    "malformed payload",
			payload: `{"event":"game_finished","payload":"oops"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			f.hub.sessions["s1"] = session.NewSession("s1", f.hub.deps, nil)
			if tt.setup != nil {
				tt.setup(f)
			}
			f.hub.handleEvent(context.Background(), tt.payload)
		})
	}
}

func TestRun_StopsSessionsOnCancel(t *testing.T) {
	f := newFixture(t)
	ctx, cancel := context.WithCancel(context.Background())

	state := emptyState(t, 3, "p1")
	f.playerRepo.EXPECT().FindForReconnection(gomock.Any(), "p1").Return("", player.PlayerStatus(""), nil)
	f.gameRepo.EXPECT().Create(gomock.Any(), "s1", gomock.Any()).Return(state, nil)
	f.playerRepo.EXPECT().AssignSession(gomock.Any(), "p1", "s1").Return(nil)
	f.gameRepo.EXPECT().FindByID(gomock.Any(), "s1").Return(state, nil)

	stopped := make(chan struct{})
	go func() {
		f.hub.Run(ctx)
		close(stopped)
	}()

	conn := newFakeConn()
	f.hub.Register(&RegistrationRequest{Player: player.NewPlayer("p1", conn), Size: 3})
	require.Eventually(t, func() bool {
		return len(conn.types(t)) == 2
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	<-stopped
	select {
	case <-conn.closed:
	case <-time.After(2 * time.Second):
		t.Fatal("session connection should be closed")
	}

	late := newFakeConn()
	f.hub.Register(&RegistrationRequest{Player: player.NewPlayer("p2", late), Size: 3})
	select {
	case <-late.closed:
	default:
		t.Fatal("registration after stop should close the connection")
	}
}
