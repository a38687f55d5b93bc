package hub

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"ctchen222/Nexus-Tic-Tac-Toe/internal/game"
	"ctchen222/Nexus-Tic-Tac-Toe/internal/player"
	"ctchen222/Nexus-Tic-Tac-Toe/internal/repository"
	"ctchen222/Nexus-Tic-Tac-Toe/internal/session"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("hub")

// Hub manages all the live sessions of this process.
type Hub struct {
	mu       sync.Mutex
	sessions map[string]*session.Session

	repo        repository.SessionRepository
	selector    game.MoveSelector
	opts        session.Options
	idleTimeout time.Duration
}

// NewHub creates a new hub.
func NewHub(repo repository.SessionRepository, selector game.MoveSelector, opts session.Options, idleTimeout time.Duration) *Hub {
	return &Hub{
		sessions:    make(map[string]*session.Session),
		repo:        repo,
		selector:    selector,
		opts:        opts,
		idleTimeout: idleTimeout,
	}
}

// Create starts a new session at level. A zero level means the first level.
func (h *Hub) Create(ctx context.Context, level int) (*session.Session, game.State, error) {
	ctx, span := tracer.Start(ctx, "hub.Create", trace.WithAttributes(
		attribute.Int("game.level", level),
	))
	defer span.End()

	if level == 0 {
		level = game.MinLevel
	}
	state, err := game.NewGame(level)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Invalid level")
		return nil, game.State{}, err
	}

	id := uuid.New().String()
	span.SetAttributes(attribute.String("session.id", id))

	if err := h.repo.Create(ctx, id, state); err != nil {
		slog.ErrorContext(ctx, "Failed to store new session", "session.id", id, "error", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to store new session")
		return nil, game.State{}, fmt.Errorf("failed to create session: %w", err)
	}

	s := h.start(id, state)
	slog.InfoContext(ctx, "Session created", "session.id", id, "game.level", level)
	return s, state, nil
}

// Get returns the live session id. A session stored by an earlier process
// is resumed from the store.
func (h *Hub) Get(ctx context.Context, id string) (*session.Session, error) {
	ctx, span := tracer.Start(ctx, "hub.Get", trace.WithAttributes(
		attribute.String("session.id", id),
	))
	defer span.End()

	h.mu.Lock()
	s, ok := h.sessions[id]
	h.mu.Unlock()
	if ok {
		return s, nil
	}

	state, err := h.repo.FindByID(ctx, id)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Session not found")
		return nil, fmt.Errorf("failed to load session %s: %w", id, err)
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	// Another caller may have resumed it during the lookup.
	if s, ok := h.sessions[id]; ok {
		return s, nil
	}

	slog.InfoContext(ctx, "Resuming stored session", "session.id", id, "game.phase", state.Phase)
	s = session.New(id, h.repo, h.selector, h.opts)
	s.Start(*state)
	h.sessions[id] = s
	return s, nil
}

// Attach subscribes p to session id and starts reading its messages.
func (h *Hub) Attach(ctx context.Context, id string, p *player.Player) error {
	s, err := h.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.Subscribe(ctx, p); err != nil {
		return fmt.Errorf("failed to subscribe player %s: %w", p.ID, err)
	}
	go s.ReadPump(p)
	return nil
}

// Remove stops session id and deletes its stored state.
func (h *Hub) Remove(ctx context.Context, id string) error {
	h.mu.Lock()
	s, ok := h.sessions[id]
	delete(h.sessions, id)
	h.mu.Unlock()

	if ok {
		s.Close()
	}
	if err := h.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete session %s: %w", id, err)
	}
	return nil
}

// Len returns the number of live sessions.
func (h *Hub) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.sessions)
}

func (h *Hub) start(id string, state game.State) *session.Session {
	s := session.New(id, h.repo, h.selector, h.opts)
	s.Start(state)

	h.mu.Lock()
	h.sessions[id] = s
	h.mu.Unlock()
	return s
}
