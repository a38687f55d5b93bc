package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"

	"ctchen222/Nexus-Tic-Tac-Toe/internal/api/controller"
	"ctchen222/Nexus-Tic-Tac-Toe/internal/api/response"
	"ctchen222/Nexus-Tic-Tac-Toe/internal/api/service"
	"ctchen222/Nexus-Tic-Tac-Toe/internal/hub"
	"ctchen222/Nexus-Tic-Tac-Toe/internal/player"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("server")

type Server struct {
	hub               *hub.Hub
	sessionService    service.SessionService
	sessionController *controller.SessionController
	webRoot           string
	upgrader          websocket.Upgrader
}

// NewServer creates the HTTP front of the game. Static assets are served
// from webRoot when that directory exists.
func NewServer(h *hub.Hub, sessionService service.SessionService, sessionController *controller.SessionController, webRoot string) *Server {
	return &Server{
		hub:               h,
		sessionService:    sessionService,
		sessionController: sessionController,
		webRoot:           webRoot,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
	}
}

// Engine builds the gin router with every route registered.
func (s *Server) Engine() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	r.GET("/healthz", func(c *gin.Context) {
		c.String(http.StatusOK, "pong")
	})
	r.GET("/ws", s.handleWebSocket)

	api := r.Group("/api")
	{
		api.POST("/sessions", s.sessionController.Create)

		sessions := api.Group("/sessions/:id", s.sessionController.RequireSession())
		sessions.GET("", s.sessionController.Get)
		sessions.POST("/moves", s.sessionController.Move)
		sessions.POST("/new-game", s.sessionController.NewGame)
	}

	if info, err := os.Stat(s.webRoot); err == nil && info.IsDir() {
		r.NoRoute(gin.WrapH(http.FileServer(http.Dir(s.webRoot))))
	}
	return r
}

// handleWebSocket checks the session token, upgrades the connection and
// attaches it to the session as a new player.
func (s *Server) handleWebSocket(c *gin.Context) {
	ctx, span := tracer.Start(c.Request.Context(), "server.handleWebSocket", trace.WithAttributes(
		attribute.String("http.url", c.Request.URL.String()),
		attribute.String("http.method", c.Request.Method),
	))
	defer span.End()

	sessionID := c.Query("session")
	span.SetAttributes(attribute.String("session.id", sessionID))

	authorized, err := s.sessionService.Authorize(c.Query("token"))
	if err == nil && authorized != sessionID {
		err = service.ErrUnauthorized
	}
	if err != nil {
		slog.WarnContext(ctx, "Rejected websocket connection", "session.id", sessionID, "error", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, "Unauthorized")
		response.AbortWithError(c, http.StatusUnauthorized, err.Error())
		return
	}

	conn, err := s.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		slog.ErrorContext(ctx, "Failed to upgrade connection", "error", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to upgrade connection")
		return
	}

	p := player.NewPlayer(uuid.New().String(), conn)
	span.SetAttributes(attribute.String("player.id", p.ID))

	if err := s.hub.Attach(ctx, sessionID, p); err != nil {
		slog.WarnContext(ctx, "Failed to attach player", "session.id", sessionID, "player.id", p.ID, "error", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to attach player")

		msg := websocket.FormatCloseMessage(websocket.ClosePolicyViolation, closeReason(err))
		_ = conn.WriteMessage(websocket.CloseMessage, msg)
		_ = conn.Close()
		return
	}
	slog.InfoContext(ctx, "Player attached", "session.id", sessionID, "player.id", p.ID)
}

func closeReason(err error) string {
	if errors.Is(err, context.Canceled) {
		return "request cancelled"
	}
	return "session unavailable"
}
