package hub

import (
	"context"
	"log/slog"
	"time"
)

const minSweepInterval = time.Second

// Run evicts sessions that have been idle for longer than the idle timeout
// and have no subscriber. It blocks until ctx is done, then stops every
// live session.
func (h *Hub) Run(ctx context.Context) {
	interval := h.idleTimeout / 2
	if interval < minSweepInterval {
		interval = minSweepInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	slog.InfoContext(ctx, "Session janitor started", "session.idle_timeout", h.idleTimeout)
	for {
		select {
		case <-ctx.Done():
			h.closeAll()
			slog.Info("Session janitor stopped")
			return
		case <-ticker.C:
			h.sweep(ctx)
		}
	}
}

func (h *Hub) sweep(ctx context.Context) int {
	ctx, span := tracer.Start(ctx, "hub.sweep")
	defer span.End()

	h.mu.Lock()
	var idle []string
	for id, s := range h.sessions {
		if s.Subscribers() == 0 && s.IdleFor() > h.idleTimeout {
			idle = append(idle, id)
		}
	}
	h.mu.Unlock()

	for _, id := range idle {
		if err := h.Remove(ctx, id); err != nil {
			slog.ErrorContext(ctx, "Failed to evict idle session", "session.id", id, "error", err)
			span.RecordError(err)
			continue
		}
		slog.InfoContext(ctx, "Evicted idle session", "session.id", id)
	}
	return len(idle)
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for id, s := range h.sessions {
		s.Close()
		delete(h.sessions, id)
	}
}
