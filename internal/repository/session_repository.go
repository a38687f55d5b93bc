package repository

import (
	"context"
	"errors"

	"ctchen222/Nexus-Tic-Tac-Toe/internal/game"

	"go.opentelemetry.io/otel"
)

var tracer = otel.Tracer("repository.session")

var ErrSessionNotFound = errors.New("session not found")

// SessionRepository stores the game state of each live session.
type SessionRepository interface {
	Create(ctx context.Context, id string, state game.State) error
	FindByID(ctx context.Context, id string) (*game.State, error)
	Save(ctx context.Context, id string, state game.State) error
	Delete(ctx context.Context, id string) error
	// Touch keeps a live session from expiring. It returns
	// ErrSessionNotFound when the session is already gone.
	Touch(ctx context.Context, id string) error
}
