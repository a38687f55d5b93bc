package controller

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"ctchen222/Nexus-Tic-Tac-Toe/internal/api/models"
	"ctchen222/Nexus-Tic-Tac-Toe/internal/api/response"
	"ctchen222/Nexus-Tic-Tac-Toe/internal/api/service"
	"ctchen222/Nexus-Tic-Tac-Toe/internal/game"
	"ctchen222/Nexus-Tic-Tac-Toe/internal/repository"
	"ctchen222/Nexus-Tic-Tac-Toe/internal/session"
	"ctchen222/Nexus-Tic-Tac-Toe/pkg/proto"

	"github.com/gin-gonic/gin"
)

// SessionController handles session-related HTTP requests.
type SessionController struct {
	sessionService service.SessionService
}

// NewSessionController creates a new SessionController.
func NewSessionController(sessionService service.SessionService) *SessionController {
	return &SessionController{
		sessionService: sessionService,
	}
}

// RequireSession rejects requests whose bearer token does not grant access
// to the :id session.
func (sc *SessionController) RequireSession() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := strings.CutPrefix(c.GetHeader("Authorization"), "Bearer ")
		if !ok || token == "" {
			response.AbortWithError(c, http.StatusUnauthorized, "missing bearer token")
			return
		}

		sessionID, err := sc.sessionService.Authorize(token)
		if err != nil {
			response.AbortWithError(c, http.StatusUnauthorized, err.Error())
			return
		}
		if sessionID != c.Param("id") {
			response.AbortWithError(c, http.StatusForbidden, "token does not grant access to this session")
			return
		}
		c.Next()
	}
}

// Create handles the new session endpoint.
func (sc *SessionController) Create(c *gin.Context) {
	var req models.CreateSessionRequest
	if err := bindOptionalJSON(c, &req); err != nil {
		response.ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	resp, err := sc.sessionService.Create(c.Request.Context(), req.Level)
	if err != nil {
		writeError(c, err)
		return
	}

	response.Created(c, resp)
}

// Get returns the current state of a session.
func (sc *SessionController) Get(c *gin.Context) {
	sessionID := c.Param("id")
	state, err := sc.sessionService.State(c.Request.Context(), sessionID)
	if err != nil {
		writeError(c, err)
		return
	}

	response.SuccessResponse(c, proto.NewStateMessage(proto.TypeState, sessionID, state))
}

// Move handles the human's move.
func (sc *SessionController) Move(c *gin.Context) {
	var req models.MoveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	sessionID := c.Param("id")
	result, err := sc.sessionService.Move(c.Request.Context(), sessionID, *req.Row, *req.Col)
	if err != nil {
		writeError(c, err)
		return
	}

	response.SuccessResponse(c, models.MoveResponse{
		Accepted: result.Accepted,
		Winner:   string(result.Winner),
		State:    proto.NewStateMessage(proto.TypeUpdate, sessionID, result.Next),
	})
}

// NewGame abandons the current game and starts over.
func (sc *SessionController) NewGame(c *gin.Context) {
	var req models.NewGameRequest
	if err := bindOptionalJSON(c, &req); err != nil {
		response.ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	sessionID := c.Param("id")
	state, err := sc.sessionService.NewGame(c.Request.Context(), sessionID, req.Level)
	if err != nil {
		writeError(c, err)
		return
	}

	response.SuccessResponse(c, proto.NewStateMessage(proto.TypeState, sessionID, state))
}

// bindOptionalJSON binds the body when there is one.
func bindOptionalJSON(c *gin.Context, obj any) error {
	if err := c.ShouldBindJSON(obj); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// StatusFor maps a domain error to an HTTP status code.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, game.ErrInvalidMove):
		return http.StatusUnprocessableEntity
	case errors.Is(err, game.ErrInvalidState):
		return http.StatusConflict
	case errors.Is(err, game.ErrInvalidLevel):
		return http.StatusBadRequest
	case errors.Is(err, repository.ErrSessionNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, session.ErrClosed):
		return http.StatusGone
	default:
		return http.StatusInternalServerError
	}
}

func writeError(c *gin.Context, err error) {
	code := StatusFor(err)
	if code == http.StatusInternalServerError {
		slog.ErrorContext(c.Request.Context(), "request failed", "http.path", c.FullPath(), "error", err)
	}
	response.ErrorResponse(c, code, err.Error())
}
