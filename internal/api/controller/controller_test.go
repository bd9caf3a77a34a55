package controller

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"ctchen222/BigTicTacToe/internal/api/models"
	"ctchen222/BigTicTacToe/internal/api/service"
	"ctchen222/BigTicTacToe/internal/bot"
	"ctchen222/BigTicTacToe/internal/engine"
	"ctchen222/BigTicTacToe/internal/mocks"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type envelope struct {
	Success bool            `json:"success"`
	Code    int             `json:"code"`
	Extras  json.RawMessage `json:"extras"`
}

func do(t *testing.T, r *gin.Engine, method, path, body string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	return w, env
}

func TestUserController_Register(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		setup    func(repo *mocks.MockUserRepository)
		wantCode int
	}{
		{
			name: "created",
			body: `{"username":"alice","password":"secret1"}`,
			setup: func(repo *mocks.MockUserRepository) {
				repo.EXPECT().GetUserByUsername(gomock.Any(), "alice").Return(nil, nil)
				repo.EXPECT().CreateUser(gomock.Any(), gomock.Any(), "secret1").Return(nil)
			},
			wantCode: http.StatusOK,
		},
		{
			name:     "short password",
			body:     `{"username":"alice","password":"123"}`,
			wantCode: http.StatusBadRequest,
		},
		{
			name: "taken",
			body: `{"username":"alice","password":"secret1"}`,
			setup: func(repo *mocks.MockUserRepository) {
				repo.EXPECT().GetUserByUsername(gomock.Any(), "alice").Return(&models.User{ID: 1, Username: "alice"}, nil)
			},
			wantCode: http.StatusConflict,
		},
		{
			name: "storage failure",
			body: `{"username":"alice","password":"secret1"}`,
			setup: func(repo *mocks.MockUserRepository) {
				repo.EXPECT().GetUserByUsername(gomock.Any(), "alice").Return(nil, errors.New("db down"))
			},
			wantCode: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := mocks.NewMockUserRepository(gomock.NewController(t))
			if tt.setup != nil {
				tt.setup(repo)
			}
			r := gin.New()
			r.POST("/register", NewUserController(service.NewUserService(repo, "secret-key")).Register)

			w, env := do(t, r, http.MethodPost, "/register", tt.body)
			assert.Equal(t, tt.wantCode, w.Code)
			assert.Equal(t, tt.wantCode, env.Code)
			assert.Equal(t, tt.wantCode == http.StatusOK, env.Success)
		})
	}
}

func TestUserController_LoginAndGuest(t *testing.T) {
	repo := mocks.NewMockUserRepository(gomock.NewController(t))
	repo.EXPECT().GetUserByUsername(gomock.Any(), "bob").Return(nil, nil)

	uc := NewUserController(service.NewUserService(repo, "secret-key"))
	r := gin.New()
	r.POST("/login", uc.Login)
	r.POST("/guest", uc.GuestLogin)

	w, _ := do(t, r, http.MethodPost, "/login", `{"username":"bob","password":"secret1"}`)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w, _ = do(t, r, http.MethodPost, "/login", `{}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, env := do(t, r, http.MethodPost, "/guest", "")
	require.Equal(t, http.StatusOK, w.Code)
	var guest struct {
		PlayerID string `json:"player_id"`
	}
	require.NoError(t, json.Unmarshal(env.Extras, &guest))
	assert.NotEmpty(t, guest.PlayerID)
}

func TestEngineController_BestMove(t *testing.T) {
	calc, err := bot.NewBotMoveCalculator(engine.WithSeed(2))
	require.NoError(t, err)
	r := gin.New()
	r.POST("/move", NewEngineController(service.NewEngineService(calc, 10)).BestMove)

	tests := []struct {
		name     string
		body     string
		wantCode int
		wantRow  int
		wantCol  int
	}{
		{
			name:     "blocks the row",
			body:     `{"board":[["X","X",""],["","O",""],["","",""]],"computer":"O"}`,
			wantCode: http.StatusOK,
			wantRow:  1,
			wantCol:  3,
		},
		{
			name:     "missing computer",
			body:     `{"board":[["","",""],["","",""],["","",""]]}`,
			wantCode: http.StatusBadRequest,
		},
		{
			name:     "malformed json",
			body:     `{"board":`,
			wantCode: http.StatusBadRequest,
		},
		{
			name:     "not square",
			body:     `{"board":[["","",""],["",""],["","",""]],"computer":"X"}`,
			wantCode: http.StatusUnprocessableEntity,
		},
		{
			name:     "decided",
			body:     `{"board":[["O","O","O"],["X","X",""],["X","",""]],"computer":"X"}`,
			wantCode: http.StatusUnprocessableEntity,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, env := do(t, r, http.MethodPost, "/move", tt.body)
			require.Equal(t, tt.wantCode, w.Code, w.Body.String())
			if tt.wantCode != http.StatusOK {
				return
			}
			var resp models.EngineMoveResponse
			require.NoError(t, json.Unmarshal(env.Extras, &resp))
			assert.Equal(t, tt.wantRow, resp.Row)
			assert.Equal(t, tt.wantCol, resp.Col)
			assert.Len(t, resp.Scores, 6)
		})
	}
}

func TestHistoryController_List(t *testing.T) {
	finished := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name      string
		path      string
		setup     func(repo *mocks.MockHistoryRepository)
		wantCode  int
		wantCount int
	}{
		{
			name: "default limit",
			path: "/history/p1",
			setup: func(repo *mocks.MockHistoryRepository) {
				repo.EXPECT().ListByPlayer(gomock.Any(), "p1", 0).Return([]models.GameResult{
					{ID: 1, SessionID: "s1", PlayerID: "p1", BoardSize: 3, Winner: "X", HumanMark: "X", FinishedAt: finished},
				}, nil)
			},
			wantCode:  http.StatusOK,
			wantCount: 1,
		},
		{
			name: "explicit limit",
			path: "/history/p1?limit=5",
			setup: func(repo *mocks.MockHistoryRepository) {
				repo.EXPECT().ListByPlayer(gomock.Any(), "p1", 5).Return([]models.GameResult{}, nil)
			},
			wantCode: http.StatusOK,
		},
		{
			name:     "limit out of range",
			path:     "/history/p1?limit=1000",
			wantCode: http.StatusBadRequest,
		},
		{
			name: "storage failure",
			path: "/history/p1",
			setup: func(repo *mocks.MockHistoryRepository) {
				repo.EXPECT().ListByPlayer(gomock.Any(), "p1", 0).Return(nil, errors.New("db down"))
			},
			wantCode: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := mocks.NewMockHistoryRepository(gomock.NewController(t))
			if tt.setup != nil {
				tt.setup(repo)
			}
			r := gin.New()
			r.GET("/history/:playerId", NewHistoryController(repo).List)

			w, env := do(t, r, http.MethodGet, tt.path, "")
			require.Equal(t, tt.wantCode, w.Code)
			if tt.wantCode != http.StatusOK {
				return
			}
			var body struct {
				List  []models.GameResult `json:"list"`
				Count int                 `json:"count"`
			}
			require.NoError(t, json.Unmarshal(env.Extras, &body))
			assert.Equal(t, tt.wantCount, body.Count)
			assert.Len(t, body.List, tt.wantCount)
		})
	}
}
