package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"ctchen222/Nexus-Tic-Tac-Toe/internal/api/controller"
	"ctchen222/Nexus-Tic-Tac-Toe/internal/api/service"
	"ctchen222/Nexus-Tic-Tac-Toe/internal/bot"
	"ctchen222/Nexus-Tic-Tac-Toe/internal/config"
	"ctchen222/Nexus-Tic-Tac-Toe/internal/db"
	"ctchen222/Nexus-Tic-Tac-Toe/internal/hub"
	"ctchen222/Nexus-Tic-Tac-Toe/internal/logger"
	"ctchen222/Nexus-Tic-Tac-Toe/internal/repository"
	"ctchen222/Nexus-Tic-Tac-Toe/internal/server"
	"ctchen222/Nexus-Tic-Tac-Toe/internal/session"
	"ctchen222/Nexus-Tic-Tac-Toe/internal/telemetry"

	"github.com/gin-gonic/gin"
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

	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config.yml"
	}
	cfg := config.MustLoad(configPath)

	// Initialize telemetry
	shutdown, err := telemetry.InitOtel(ctx, cfg.Telemetry)
	if err != nil {
		return err
	}
	defer func() {
		if err := shutdown(context.Background()); err != nil {
			slog.Error("Error shutting down telemetry", "error", err)
		}
	}()

	logger.Init(cfg.LogLevel)
	if cfg.LogLevel != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}

	metrics, err := telemetry.NewGameMetrics()
	if err != nil {
		return err
	}

	// Create repositories
	var repo repository.SessionRepository
	switch cfg.Session.Store {
	case config.StoreRedis:
		rdb, err := db.NewRedisClient(ctx, cfg.Redis)
		if err != nil {
			return err
		}
		defer rdb.Close()
		repo = repository.NewRedisSessionRepository(rdb, cfg.Session.IdleTimeout)
	default:
		repo = repository.NewMemorySessionRepository()
	}

	// Create hub
	opts := session.Options{
		AIDelay:      cfg.Session.AIDelay,
		LevelUpDelay: cfg.Session.LevelUpDelay,
		ConquerDelay: cfg.Session.ConquerDelay,
		Metrics:      metrics,
	}
	h := hub.NewHub(repo, bot.NewRandomPolicy(), opts, cfg.Session.IdleTimeout)
	hubDone := make(chan struct{})
	go func() {
		h.Run(ctx)
		close(hubDone)
	}()

	// Create services and controllers
	sessionService := service.NewSessionService(h, cfg.Auth.Secret, cfg.Auth.TokenTTL)
	sessionController := controller.NewSessionController(sessionService)

	// Create the Gin-based server
	srv := server.NewServer(h, sessionService, sessionController, cfg.HTTP.WebRoot)
	httpServer := &http.Server{
		Addr:    cfg.HTTP.Addr,
		Handler: srv.Engine(),
	}

	serveErr := make(chan error, 1)
	go func() {
		slog.Info("http server started", "http.addr", cfg.HTTP.Addr, "session.store", cfg.Session.Store)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case <-ctx.Done():
	case err := <-serveErr:
		if err != nil {
			stop()
			<-hubDone
			return err
		}
	}

	slog.Info("Shutting down server...")
	stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return err
	}
	<-hubDone

	slog.Info("Server exiting")
	return nil
}
