package server

import (
	"log/slog"
	"net/http"
	"strconv"

	"ctchen222/BigTicTacToe/internal/api/controller"
	"ctchen222/BigTicTacToe/internal/api/response"
	"ctchen222/BigTicTacToe/internal/api/service"
	"ctchen222/BigTicTacToe/internal/game"
	"ctchen222/BigTicTacToe/internal/hub"
	"ctchen222/BigTicTacToe/internal/player"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("server")

// Registrar accepts new websocket players.
type Registrar interface {
	Register(req *hub.RegistrationRequest)
}

// Options are the request limits applied by the server.
type Options struct {
	DefaultSize int
	MaxSize     int
	JWTSecret   string
}

// Controllers groups the REST handlers mounted under /api/v1.
type Controllers struct {
	Users   *controller.UserController
	Engine  *controller.EngineController
	History *controller.HistoryController
}

type Server struct {
	hub      Registrar
	opts     Options
	upgrader websocket.Upgrader
	engine   *gin.Engine
}

func NewServer(h Registrar, opts Options, controllers Controllers) *Server {
	s := &Server{
		hub:  h,
		opts: opts,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
		engine: gin.New(),
	}
	s.engine.Use(gin.Recovery())
	s.registerHandlers(controllers)
	return s
}

// Engine returns the HTTP handler.
func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) registerHandlers(c Controllers) {
	s.engine.GET("/healthz", func(ctx *gin.Context) {
		response.SuccessResponse(ctx, gin.H{"status": "ok"})
	})
	s.engine.GET("/ws", s.handleWebSocket)

	v1 := s.engine.Group("/api/v1")
	if c.Users != nil {
		users := v1.Group("/users")
		users.POST("/register", c.Users.Register)
		users.POST("/login", c.Users.Login)
		users.POST("/guest", c.Users.GuestLogin)
	}
	if c.Engine != nil {
		v1.POST("/engine/move", c.Engine.BestMove)
	}
	if c.History != nil {
		v1.GET("/history/:playerId", c.History.List)
	}
}

// handleWebSocket validates the query, upgrades the connection and passes a
// registration request to the hub. It does not distinguish between new and
// reconnecting players.
func (s *Server) handleWebSocket(c *gin.Context) {
	r := c.Request
	ctx, span := tracer.Start(r.Context(), "server.handleWebSocket", trace.WithAttributes(
		attribute.String("http.url", r.URL.String()),
		attribute.String("http.method", r.Method),
	))
	defer span.End()

	size := s.opts.DefaultSize
	if raw := c.Query("size"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < game.MinSize || n > s.opts.MaxSize {
			span.SetStatus(codes.Error, "Invalid board size")
			response.ErrorResponse(c, http.StatusBadRequest, "size must be between "+strconv.Itoa(game.MinSize)+" and "+strconv.Itoa(s.opts.MaxSize))
			return
		}
		size = n
	}

	playerID := c.Query("playerId")
	if token := c.Query("token"); token != "" {
		id, err := service.ParseToken(token, s.opts.JWTSecret)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "Invalid token")
			response.ErrorResponse(c, http.StatusUnauthorized, "invalid token")
			return
		}
		playerID = id
	}
	if playerID == "" {
		playerID = uuid.New().String()
	}
	difficulty := c.Query("difficulty")
	span.SetAttributes(
		attribute.String("player.id", playerID),
		attribute.Int("board.size", size),
		attribute.String("bot.difficulty", difficulty),
	)

	conn, err := s.upgrader.Upgrade(c.Writer, r, nil)
	if err != nil {
		slog.ErrorContext(ctx, "Failed to upgrade connection", "error", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to upgrade connection")
		return
	}

	s.hub.Register(&hub.RegistrationRequest{
		Player:     player.NewPlayer(playerID, conn),
		Size:       size,
		Difficulty: difficulty,
	})
}
