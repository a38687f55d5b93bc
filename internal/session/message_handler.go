package session

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"ctchen222/Nexus-Tic-Tac-Toe/internal/player"
	"ctchen222/Nexus-Tic-Tac-Toe/internal/validator"
	"ctchen222/Nexus-Tic-Tac-Toe/pkg/proto"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var errMissingPosition = errors.New("move requires a [row, col] position")

// HandleMessage handles a message from a player. It acts as a dispatcher.
// Rejected messages are answered with an error message to p only.
func (s *Session) HandleMessage(ctx context.Context, p *player.Player, rawMessage []byte) {
	ctx, span := tracer.Start(ctx, "session.HandleMessage", trace.WithAttributes(
		attribute.String("player.id", p.ID),
		attribute.String("session.id", s.ID),
	))
	defer span.End()

	var message proto.ClientToServerMessage
	if err := json.Unmarshal(rawMessage, &message); err != nil {
		slog.ErrorContext(ctx, "error unmarshalling message", "error", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, "Error unmarshalling message")
		s.reject(ctx, p, err)
		return
	}

	if err := validator.GetValidator().Struct(message); err != nil {
		slog.WarnContext(ctx, "invalid message from player", "player.id", p.ID, "error", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, "Invalid message format")
		s.reject(ctx, p, errors.New(validator.Describe(err)))
		return
	}

	span.SetAttributes(attribute.String("message.type", message.Type))

	var err error
	switch message.Type {
	case proto.TypeMove:
		if len(message.Position) != 2 {
			err = errMissingPosition
			break
		}
		_, err = s.PlayerMove(ctx, message.Position[0], message.Position[1])
	case proto.TypeNewGame:
		_, err = s.NewGame(ctx, message.Level)
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Request rejected")
		s.reject(ctx, p, err)
	}
}

func (s *Session) reject(ctx context.Context, p *player.Player, err error) {
	if sendErr := s.sendTo(ctx, p, proto.NewErrorMessage(s.ID, err.Error())); sendErr != nil {
		slog.WarnContext(ctx, "failed to report error to player", "player.id", p.ID, "error", sendErr)
	}
}
