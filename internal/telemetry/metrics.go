package telemetry

import (
	"context"

	"ctchen222/Nexus-Tic-Tac-Toe/internal/game"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "ctchen222/Nexus-Tic-Tac-Toe/game"

// GameMetrics holds the game counters. The zero value is not usable; use
// NewGameMetrics.
type GameMetrics struct {
	moves         metric.Int64Counter
	finished      metric.Int64Counter
	levelsCleared metric.Int64Counter
}

// NewGameMetrics registers the counters against the global meter provider.
func NewGameMetrics() (*GameMetrics, error) {
	return NewGameMetricsWithMeter(otel.Meter(meterName))
}

func NewGameMetricsWithMeter(meter metric.Meter) (*GameMetrics, error) {
	moves, err := meter.Int64Counter("game.moves",
		metric.WithDescription("Moves accepted, by mark"),
		metric.WithUnit("{move}"))
	if err != nil {
		return nil, err
	}
	finished, err := meter.Int64Counter("game.finished",
		metric.WithDescription("Games finished, by result"),
		metric.WithUnit("{game}"))
	if err != nil {
		return nil, err
	}
	levels, err := meter.Int64Counter("game.levels_cleared",
		metric.WithDescription("Levels won by the player, by level"),
		metric.WithUnit("{level}"))
	if err != nil {
		return nil, err
	}
	return &GameMetrics{moves: moves, finished: finished, levelsCleared: levels}, nil
}

// RecordMove counts one accepted move and, when it ended the game, the result.
func (m *GameMetrics) RecordMove(ctx context.Context, result game.MoveResult, level int) {
	if m == nil || !result.Accepted {
		return
	}
	m.moves.Add(ctx, 1, metric.WithAttributes(attribute.String("game.mark", string(result.Mark))))

	if result.Winner == game.NoResult {
		return
	}
	m.finished.Add(ctx, 1, metric.WithAttributes(
		attribute.String("game.result", string(result.Winner)),
		attribute.Int("game.level", level),
	))
	if result.Winner == game.XWins {
		m.levelsCleared.Add(ctx, 1, metric.WithAttributes(attribute.Int("game.level", level)))
	}
}
