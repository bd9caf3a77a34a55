package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"ctchen222/BigTicTacToe/internal/api/controller"
	"ctchen222/BigTicTacToe/internal/api/models"
	"ctchen222/BigTicTacToe/internal/api/service"
	"ctchen222/BigTicTacToe/internal/hub"
	"ctchen222/BigTicTacToe/internal/mocks"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	"golang.org/x/crypto/bcrypt"
)

const testSecret = "server-test-secret"

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeHub struct {
	requests chan *hub.RegistrationRequest
}

func (h *fakeHub) Register(req *hub.RegistrationRequest) {
	h.requests <- req
}

func newTestServer(t *testing.T, controllers Controllers) (*httptest.Server, *fakeHub) {
	t.Helper()
	h := &fakeHub{requests: make(chan *hub.RegistrationRequest, 1)}
	srv := NewServer(h, Options{DefaultSize: 3, MaxSize: 10, JWTSecret: testSecret}, controllers)
	ts := httptest.NewServer(srv.Engine())
	t.Cleanup(ts.Close)
	return ts, h
}

func wsURL(ts *httptest.Server, query string) string {
	return "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws" + query
}

func TestHandleWebSocket(t *testing.T) {
	tests := []struct {
		name           string
		query          string
		wantSize       int
		wantDifficulty string
		wantPlayerID   string
	}{
		{name: "defaults", query: "", wantSize: 3},
		{name: "explicit", query: "?playerId=p1&size=7&difficulty=medium", wantSize: 7, wantDifficulty: "medium", wantPlayerID: "p1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts, h := newTestServer(t, Controllers{})

			conn, _, err := websocket.DefaultDialer.Dial(wsURL(ts, tt.query), nil)
			require.NoError(t, err)
			t.Cleanup(func() { _ = conn.Close() })

			select {
			case req := <-h.requests:
				assert.Equal(t, tt.wantSize, req.Size)
				assert.Equal(t, tt.wantDifficulty, req.Difficulty)
				if tt.wantPlayerID != "" {
					assert.Equal(t, tt.wantPlayerID, req.Player.ID)
				} else {
					assert.Len(t, req.Player.ID, 36)
				}
				_ = req.Player.Conn.Close()
			case <-time.After(2 * time.Second):
				t.Fatal("no registration received")
			}
		})
	}
}

func TestHandleWebSocket_RejectsBadRequests(t *testing.T) {
	tests := []struct {
		name     string
		query    string
		wantCode int
	}{
		{name: "size too small", query: "?size=2", wantCode: http.StatusBadRequest},
		{name: "size too large", query: "?size=11", wantCode: http.StatusBadRequest},
		{name: "size not a number", query: "?size=big", wantCode: http.StatusBadRequest},
		{name: "bad token", query: "?token=garbage", wantCode: http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts, h := newTestServer(t, Controllers{})

			_, resp, err := websocket.DefaultDialer.Dial(wsURL(ts, tt.query), nil)
			require.Error(t, err)
			require.NotNil(t, resp)
			assert.Equal(t, tt.wantCode, resp.StatusCode)
			assert.Empty(t, h.requests)
		})
	}
}

func TestHandleWebSocket_TokenSetsPlayerID(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("secret1"), bcrypt.MinCost)
	require.NoError(t, err)
	repo := mocks.NewMockUserRepository(gomock.NewController(t))
	repo.EXPECT().GetUserByUsername(gomock.Any(), "alice").Return(&models.User{ID: 3, Username: "alice", PasswordHash: string(hash)}, nil)

	login, err := service.NewUserService(repo, testSecret).Login(context.Background(), &models.LoginRequest{Username: "alice", Password: "secret1"})
	require.NoError(t, err)

	ts, h := newTestServer(t, Controllers{})
	conn, _, err := websocket.DefaultDialer.Dial(wsURL(ts, "?playerId=spoofed&token="+login.Token), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	select {
	case req := <-h.requests:
		assert.Equal(t, "user-3", req.Player.ID)
		_ = req.Player.Conn.Close()
	case <-time.After(2 * time.Second):
		t.Fatal("no registration received")
	}
}

func TestRoutes(t *testing.T) {
	history := mocks.NewMockHistoryRepository(gomock.NewController(t))
	history.EXPECT().ListByPlayer(gomock.Any(), "p1", 0).Return([]models.GameResult{}, nil)

	ts, _ := newTestServer(t, Controllers{
		Users:   controller.NewUserController(service.NewUserService(nil, testSecret)),
		History: controller.NewHistoryController(history),
	})

	tests := []struct {
		method   string
		path     string
		wantCode int
	}{
		{method: http.MethodGet, path: "/healthz", wantCode: http.StatusOK},
		{method: http.MethodPost, path: "/api/v1/users/guest", wantCode: http.StatusOK},
		{method: http.MethodGet, path: "/api/v1/history/p1", wantCode: http.StatusOK},
		{method: http.MethodPost, path: "/api/v1/engine/move", wantCode: http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			req, err := http.NewRequest(tt.method, ts.URL+tt.path, nil)
			require.NoError(t, err)
			resp, err := http.DefaultClient.Do(req)
			require.NoError(t, err)
			defer resp.Body.Close()
			assert.Equal(t, tt.wantCode, resp.StatusCode)

			if tt.wantCode == http.StatusOK {
				var body struct {
					Success bool `json:"success"`
				}
				require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
				assert.True(t, body.Success)
			}
		})
	}
}
