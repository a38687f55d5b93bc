package repository

import (
	"context"
	"fmt"
	"sync"

	"ctchen222/Nexus-Tic-Tac-Toe/internal/game"
)

type memorySessionRepository struct {
	mu       sync.RWMutex
	sessions map[string]game.State
}

// NewMemorySessionRepository creates a SessionRepository that keeps state in
// process memory. States are copied in and out so callers never share boards.
func NewMemorySessionRepository() SessionRepository {
	return &memorySessionRepository{
		sessions: make(map[string]game.State),
	}
}

func (r *memorySessionRepository) Create(ctx context.Context, id string, state game.State) error {
	_, span := tracer.Start(ctx, "SessionRepository.Create")
	defer span.End()

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.sessions[id]; exists {
		return fmt.Errorf("session %s already exists", id)
	}
	r.sessions[id] = state.Clone()
	return nil
}

func (r *memorySessionRepository) FindByID(ctx context.Context, id string) (*game.State, error) {
	_, span := tracer.Start(ctx, "SessionRepository.FindByID")
	defer span.End()

	r.mu.RLock()
	defer r.mu.RUnlock()

	state, ok := r.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	clone := state.Clone()
	return &clone, nil
}

func (r *memorySessionRepository) Save(ctx context.Context, id string, state game.State) error {
	_, span := tracer.Start(ctx, "SessionRepository.Save")
	defer span.End()

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.sessions[id]; !ok {
		return ErrSessionNotFound
	}
	r.sessions[id] = state.Clone()
	return nil
}

func (r *memorySessionRepository) Delete(ctx context.Context, id string) error {
	_, span := tracer.Start(ctx, "SessionRepository.Delete")
	defer span.End()

	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.sessions, id)
	return nil
}

func (r *memorySessionRepository) Touch(ctx context.Context, id string) error {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if _, ok := r.sessions[id]; !ok {
		return ErrSessionNotFound
	}
	return nil
}
