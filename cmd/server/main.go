package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"ctchen222/BigTicTacToe/internal/api/controller"
	apirepository "ctchen222/BigTicTacToe/internal/api/repository"
	"ctchen222/BigTicTacToe/internal/api/service"
	"ctchen222/BigTicTacToe/internal/bot"
	"ctchen222/BigTicTacToe/internal/config"
	"ctchen222/BigTicTacToe/internal/db"
	"ctchen222/BigTicTacToe/internal/engine"
	"ctchen222/BigTicTacToe/internal/events"
	"ctchen222/BigTicTacToe/internal/hub"
	"ctchen222/BigTicTacToe/internal/logger"
	"ctchen222/BigTicTacToe/internal/repository"
	"ctchen222/BigTicTacToe/internal/server"
	"ctchen222/BigTicTacToe/internal/session"
	"ctchen222/BigTicTacToe/internal/telemetry"
)

func main() {
	if err := run(); err != nil {
		slog.Error("server exited with error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	// Initialize telemetry
	if cfg.OtelEnabled {
		shutdown, err := telemetry.InitOtel(ctx, cfg.OtelCollectorAddr)
		if err != nil {
			return err
		}
		defer func() {
			if err := shutdown(context.Background()); err != nil {
				slog.Error("Error shutting down telemetry", "error", err)
			}
		}()
	}
	logger.Init(cfg.OtelEnabled)

	// Initialize Redis
	rdb, err := db.NewRedisClient(ctx, cfg.RedisConnString)
	if err != nil {
		return err
	}
	defer rdb.Close()

	// Initialize SQLite DB
	sqlDB, err := db.Connect(cfg.SQLitePath)
	if err != nil {
		return err
	}
	defer sqlDB.Close()
	if err := db.InitializeDB(ctx, sqlDB); err != nil {
		return err
	}

	// Create repositories
	gameRepo := repository.NewGameRepository(rdb)
	playerRepo := repository.NewPlayerRepository(rdb)
	userRepo := apirepository.NewUserRepository(sqlDB)
	historyRepo := apirepository.NewHistoryRepository(sqlDB)

	engineOpts := []engine.Option{engine.WithDepthLimit(cfg.EngineDepthLimit)}
	if cfg.EngineSeed != 0 {
		engineOpts = append(engineOpts, engine.WithSeed(cfg.EngineSeed))
	}
	calculator, err := bot.NewBotMoveCalculator(engineOpts...)
	if err != nil {
		return err
	}

	// Create services and controllers
	userService := service.NewUserService(userRepo, cfg.JWTSecret)
	engineService := service.NewEngineService(calculator, cfg.BoardSizeMax)

	// Create hub
	h := hub.NewHub(session.Dependencies{
		GameRepo:       gameRepo,
		PlayerRepo:     playerRepo,
		Publisher:      events.NewRedisPublisher(rdb),
		MoveCalculator: calculator,
	}, historyRepo, rdb)
	hubDone := make(chan struct{})
	go func() {
		h.Run(ctx)
		close(hubDone)
	}()

	// Create the Gin-based server
	srv := server.NewServer(h, server.Options{
		DefaultSize: cfg.BoardSizeDefault,
		MaxSize:     cfg.BoardSizeMax,
		JWTSecret:   cfg.JWTSecret,
	}, server.Controllers{
		Users:   controller.NewUserController(userService),
		Engine:  controller.NewEngineController(engineService),
		History: controller.NewHistoryController(historyRepo),
	})

	httpServer := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           srv.Engine(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		slog.Info("http server started", "http.addr", cfg.HTTPAddr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			return err
		}
	case <-ctx.Done():
	}
	stop()

	slog.Info("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return err
	}
	<-hubDone

	slog.Info("Server exiting")
	return nil
}
