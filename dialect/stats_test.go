package dialect_test

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syssam/ogm/dialect"
	"github.com/syssam/ogm/dialect/cypher"
	"github.com/syssam/ogm/dialect/memory"
)

var create = cypher.Build(&cypher.CreateNodes{Labels: []string{"Item"}, Rows: []cypher.NodeRow{{Ref: -1}}})

func TestStatsDriver(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	boom := errors.New("boom")
	mem := memory.New(memory.WithHook(func(_ context.Context, stmt cypher.Statement) error {
		if stmt.Spec == nil {
			return boom
		}
		return nil
	}))

	var slow []string
	drv := dialect.NewStatsDriver(mem,
		dialect.WithSlowThreshold(-1),
		dialect.WithSlowQueryHook(func(_ context.Context, stmt cypher.Statement, _ time.Duration) {
			slow = append(slow, stmt.Text)
		}),
	)
	assert.Equal(t, time.Duration(-1), drv.SlowThreshold())

	res, err := drv.Run(ctx, create)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Len())

	tx, err := drv.Tx(ctx)
	require.NoError(t, err)
	_, err = tx.Run(ctx, create)
	require.NoError(t, err)
	_, err = tx.Run(ctx, cypher.Raw("RETURN 1", nil))
	require.ErrorIs(t, err, boom)
	require.NoError(t, tx.Rollback(ctx))

	stats := drv.QueryStats().Stats()
	assert.Equal(t, int64(3), stats.Statements)
	assert.Equal(t, int64(1), stats.Transactions)
	assert.Equal(t, int64(1), stats.Errors)
	assert.Equal(t, int64(3), stats.SlowQueries)
	assert.Len(t, slow, 3)
	assert.Contains(t, stats.String(), "statements=3")

	drv.SetSlowThreshold(time.Hour)
	_, err = drv.Run(ctx, create)
	require.NoError(t, err)
	assert.Equal(t, int64(3), drv.QueryStats().Stats().SlowQueries)

	drv.QueryStats().Reset()
	assert.Equal(t, dialect.StatsSnapshot{}, drv.QueryStats().Stats())
	assert.Zero(t, dialect.StatsSnapshot{}.AvgDuration())
}

func TestSlowQueryLog(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	drv := dialect.NewStatsDriver(memory.New(), dialect.WithSlowThreshold(-1), dialect.WithSlowQueryLog(logger))
	_, err := drv.Run(context.Background(), create)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "slow statement detected")
}

func TestDebugDriver(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	drv := dialect.NewDebugDriver(memory.New(), dialect.DebugWithLogger(logger))

	_, err := drv.Run(ctx, create)
	require.NoError(t, err)
	tx, err := drv.Tx(ctx)
	require.NoError(t, err)
	_, err = tx.Run(ctx, create)
	require.NoError(t, err)
	require.NoError(t, tx.Commit(ctx))

	out := buf.String()
	for _, want := range []string{"msg=run", "begin transaction", "msg=\"tx run\"", "commit transaction"} {
		assert.Contains(t, out, want)
	}
	assert.Equal(t, dialect.Memory, drv.Dialect())
}

func TestResultIDs(t *testing.T) {
	t.Parallel()
	var nilResult *dialect.Result
	assert.Zero(t, nilResult.Len())
	assert.Empty(t, nilResult.IDs())

	res := &dialect.Result{Rows: []map[string]any{{"ref": int64(-1), "id": int64(7)}, {"other": 1}}}
	assert.Equal(t, map[int64]int64{-1: 7}, res.IDs())
}
