package telemetry

import (
	"context"
	"testing"

	"ctchen222/Nexus-Tic-Tac-Toe/internal/config"
	"ctchen222/Nexus-Tic-Tac-Toe/internal/game"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func collect(t *testing.T, reader *sdkmetric.ManualReader) map[string]int64 {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))

	totals := make(map[string]int64)
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			sum, ok := m.Data.(metricdata.Sum[int64])
			require.True(t, ok, "metric %s is not an int64 sum", m.Name)
			for _, dp := range sum.DataPoints {
				totals[m.Name] += dp.Value
			}
		}
	}
	return totals
}

func TestGameMetrics_RecordMove(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	metrics, err := NewGameMetricsWithMeter(provider.Meter("test"))
	require.NoError(t, err)
	ctx := context.Background()

	metrics.RecordMove(ctx, game.MoveResult{Accepted: true, Mark: game.PlayerX}, 1)
	metrics.RecordMove(ctx, game.MoveResult{Accepted: false, Mark: game.PlayerX}, 1)
	metrics.RecordMove(ctx, game.MoveResult{Accepted: true, Mark: game.PlayerX, Winner: game.XWins}, 2)
	metrics.RecordMove(ctx, game.MoveResult{Accepted: true, Mark: game.PlayerO, Winner: game.Draw}, 2)

	totals := collect(t, reader)
	assert.Equal(t, int64(3), totals["game.moves"])
	assert.Equal(t, int64(2), totals["game.finished"])
	assert.Equal(t, int64(1), totals["game.levels_cleared"])
}

func TestGameMetrics_NilIsNoop(t *testing.T) {
	var metrics *GameMetrics
	assert.NotPanics(t, func() {
		metrics.RecordMove(context.Background(), game.MoveResult{Accepted: true}, 1)
	})
}

func TestInitOtel_Disabled(t *testing.T) {
	shutdown, err := InitOtel(context.Background(), config.Telemetry{Enabled: false})
	require.NoError(t, err)
	assert.NoError(t, shutdown(context.Background()))
}
