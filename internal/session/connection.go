package session

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"ctchen222/Nexus-Tic-Tac-Toe/internal/player"
	"ctchen222/Nexus-Tic-Tac-Toe/pkg/proto"

	"github.com/gorilla/websocket"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Broadcast sends a message to all players subscribed to the session.
func (s *Session) Broadcast(ctx context.Context, message *proto.ServerToClientMessage) {
	_, span := tracer.Start(ctx, "session.Broadcast", trace.WithAttributes(
		attribute.String("session.id", s.ID),
		attribute.String("message.type", message.Type),
	))
	defer span.End()

	data, err := json.Marshal(message)
	if err != nil {
		slog.ErrorContext(ctx, "error marshalling message", "error", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, "Error marshalling message")
		return
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, p := range s.players {
		if err := p.Send(websocket.TextMessage, data); err != nil {
			slog.ErrorContext(ctx, "error writing message to player", "session.id", s.ID, "player.id", p.ID, "error", err)
			span.RecordError(err)
			span.SetStatus(codes.Error, "Error writing message to player")
		}
	}
}

func (s *Session) sendTo(ctx context.Context, p *player.Player, message *proto.ServerToClientMessage) error {
	data, err := json.Marshal(message)
	if err != nil {
		return fmt.Errorf("error marshalling %s message: %w", message.Type, err)
	}
	if err := p.Send(websocket.TextMessage, data); err != nil {
		slog.WarnContext(ctx, "error writing message to player", "session.id", s.ID, "player.id", p.ID, "error", err)
		return fmt.Errorf("error writing message to player %s: %w", p.ID, err)
	}
	return nil
}

// ReadPump reads client messages from p until the connection fails or the
// session closes, then detaches p and closes its connection.
func (s *Session) ReadPump(p *player.Player) {
	ctx, span := tracer.Start(context.Background(), "session.ReadPump", trace.WithAttributes(
		attribute.String("player.id", p.ID),
		attribute.String("session.id", s.ID),
	))
	defer span.End()

	defer func() {
		s.Unsubscribe(p)
		_ = p.Conn.Close()
		slog.InfoContext(ctx, "Player disconnected.", "session.id", s.ID, "player.id", p.ID)
	}()

	for {
		_, msg, err := p.Conn.ReadMessage()
		if err != nil {
			select {
			case <-s.done:
			default:
				slog.WarnContext(ctx, "Player connection error", "player.id", p.ID, "session.id", s.ID, "error", err)
				span.RecordError(err)
				span.SetStatus(codes.Error, "Player connection error")
			}
			return
		}
		s.HandleMessage(ctx, p, msg)
	}
}
