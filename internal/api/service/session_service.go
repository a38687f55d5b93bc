package service

//go:generate mockgen -source=session_service.go -destination=mock/session_service_mock.go -package=mock

import (
	"context"
	"errors"
	"fmt"
	"time"

	"ctchen222/Nexus-Tic-Tac-Toe/internal/api/models"
	"ctchen222/Nexus-Tic-Tac-Toe/internal/game"
	"ctchen222/Nexus-Tic-Tac-Toe/internal/hub"
	"ctchen222/Nexus-Tic-Tac-Toe/pkg/proto"

	"github.com/golang-jwt/jwt/v5"
)

// ErrUnauthorized is returned for a missing, malformed or expired session token.
var ErrUnauthorized = errors.New("unauthorized")

// SessionService defines the interface for session-related business logic.
type SessionService interface {
	Create(ctx context.Context, level int) (*models.CreateSessionResponse, error)
	State(ctx context.Context, sessionID string) (game.State, error)
	Move(ctx context.Context, sessionID string, row, col int) (game.MoveResult, error)
	NewGame(ctx context.Context, sessionID string, level int) (game.State, error)
	// Authorize returns the session id carried by token.
	Authorize(token string) (string, error)
}

type sessionClaims struct {
	SessionID string `json:"sid"`
	jwt.RegisteredClaims
}

type sessionService struct {
	hub      *hub.Hub
	secret   []byte
	tokenTTL time.Duration
}

// NewSessionService creates a new SessionService signing tokens with secret.
func NewSessionService(h *hub.Hub, secret string, tokenTTL time.Duration) SessionService {
	return &sessionService{
		hub:      h,
		secret:   []byte(secret),
		tokenTTL: tokenTTL,
	}
}

// Create starts a session and issues its token.
func (s *sessionService) Create(ctx context.Context, level int) (*models.CreateSessionResponse, error) {
	sess, state, err := s.hub.Create(ctx, level)
	if err != nil {
		return nil, err
	}

	token, err := s.issue(sess.ID)
	if err != nil {
		_ = s.hub.Remove(ctx, sess.ID)
		return nil, err
	}

	return &models.CreateSessionResponse{
		SessionID: sess.ID,
		Token:     token,
		State:     proto.NewStateMessage(proto.TypeState, sess.ID, state),
	}, nil
}

func (s *sessionService) State(ctx context.Context, sessionID string) (game.State, error) {
	sess, err := s.hub.Get(ctx, sessionID)
	if err != nil {
		return game.State{}, err
	}
	return sess.Snapshot(ctx)
}

func (s *sessionService) Move(ctx context.Context, sessionID string, row, col int) (game.MoveResult, error) {
	sess, err := s.hub.Get(ctx, sessionID)
	if err != nil {
		return game.MoveResult{}, err
	}
	return sess.PlayerMove(ctx, row, col)
}

func (s *sessionService) NewGame(ctx context.Context, sessionID string, level int) (game.State, error) {
	sess, err := s.hub.Get(ctx, sessionID)
	if err != nil {
		return game.State{}, err
	}
	return sess.NewGame(ctx, level)
}

func (s *sessionService) Authorize(tokenString string) (string, error) {
	claims := &sessionClaims{}
	_, err := jwt.ParseWithClaims(tokenString, claims, func(*jwt.Token) (any, error) {
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnauthorized, err)
	}
	if claims.SessionID == "" {
		return "", fmt.Errorf("%w: token carries no session", ErrUnauthorized)
	}
	return claims.SessionID, nil
}

func (s *sessionService) issue(sessionID string) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, sessionClaims{
		SessionID: sessionID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   sessionID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.tokenTTL)),
		},
	})

	tokenString, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign session token: %w", err)
	}
	return tokenString, nil
}
