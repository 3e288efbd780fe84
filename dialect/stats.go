package dialect

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/syssam/ogm/dialect/cypher"
)

// QueryStats holds statement execution statistics.
type QueryStats struct {
	// Statements is the total number of statements run.
	Statements atomic.Int64
	// Transactions is the number of transactions started.
	Transactions atomic.Int64
	// TotalDuration is the total time spent running statements.
	TotalDuration atomic.Int64 // nanoseconds
	// SlowQueries is the count of statements exceeding the slow threshold.
	SlowQueries atomic.Int64
	// Errors is the count of failed statements.
	Errors atomic.Int64
}

// Stats returns a snapshot of the current statistics.
func (s *QueryStats) Stats() StatsSnapshot {
	return StatsSnapshot{
		Statements:    s.Statements.Load(),
		Transactions:  s.Transactions.Load(),
		TotalDuration: time.Duration(s.TotalDuration.Load()),
		SlowQueries:   s.SlowQueries.Load(),
		Errors:        s.Errors.Load(),
	}
}

// Reset resets all statistics to zero.
func (s *QueryStats) Reset() {
	s.Statements.Store(0)
	s.Transactions.Store(0)
	s.TotalDuration.Store(0)
	s.SlowQueries.Store(0)
	s.Errors.Store(0)
}

// StatsSnapshot is a point-in-time snapshot of statement statistics.
type StatsSnapshot struct {
	Statements    int64
	Transactions  int64
	TotalDuration time.Duration
	SlowQueries   int64
	Errors        int64
}

// AvgDuration returns the average statement duration.
func (s StatsSnapshot) AvgDuration() time.Duration {
	if s.Statements == 0 {
		return 0
	}
	return s.TotalDuration / time.Duration(s.Statements)
}

// String returns a human-readable summary of the statistics.
func (s StatsSnapshot) String() string {
	return fmt.Sprintf(
		"statements=%d transactions=%d duration=%s avg=%s slow=%d errors=%d",
		s.Statements, s.Transactions, s.TotalDuration, s.AvgDuration(),
		s.SlowQueries, s.Errors,
	)
}

// SlowQueryHook is called when a slow statement is detected.
type SlowQueryHook func(ctx context.Context, stmt cypher.Statement, duration time.Duration)

// StatsDriver wraps a Driver with statement statistics collection.
type StatsDriver struct {
	Driver
	stats         *QueryStats
	slowThreshold time.Duration
	slowHook      SlowQueryHook
	mu            sync.RWMutex
}

// StatsOption configures the StatsDriver.
type StatsOption func(*StatsDriver)

// WithSlowThreshold sets the threshold for slow statement detection.
// Default is 100ms.
func WithSlowThreshold(d time.Duration) StatsOption {
	return func(s *StatsDriver) {
		s.slowThreshold = d
	}
}

// WithSlowQueryHook sets a callback for slow statements.
func WithSlowQueryHook(hook SlowQueryHook) StatsOption {
	return func(s *StatsDriver) {
		s.slowHook = hook
	}
}

// WithSlowQueryLog logs slow statements to logger, or to the default
// logger when logger is nil.
func WithSlowQueryLog(logger *slog.Logger) StatsOption {
	if logger == nil {
		logger = slog.Default()
	}
	return WithSlowQueryHook(func(ctx context.Context, stmt cypher.Statement, duration time.Duration) {
		logger.WarnContext(ctx, "slow statement detected", "duration", duration, "statement", stmt.Text)
	})
}

// NewStatsDriver wraps drv with statistics collection.
func NewStatsDriver(drv Driver, opts ...StatsOption) *StatsDriver {
	s := &StatsDriver{
		Driver:        drv,
		stats:         &QueryStats{},
		slowThreshold: 100 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// QueryStats returns the underlying QueryStats for reading statistics.
func (d *StatsDriver) QueryStats() *QueryStats {
	return d.stats
}

// SlowThreshold returns the current slow statement threshold.
func (d *StatsDriver) SlowThreshold() time.Duration {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.slowThreshold
}

// SetSlowThreshold updates the slow statement threshold.
func (d *StatsDriver) SetSlowThreshold(threshold time.Duration) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.slowThreshold = threshold
}

// Run runs a statement and records statistics.
func (d *StatsDriver) Run(ctx context.Context, stmt cypher.Statement) (*Result, error) {
	start := time.Now()
	res, err := d.Driver.Run(ctx, stmt)
	d.record(ctx, stmt, start, err)
	return res, err
}

func (d *StatsDriver) record(ctx context.Context, stmt cypher.Statement, start time.Time, err error) {
	duration := time.Since(start)
	d.stats.Statements.Add(1)
	d.stats.TotalDuration.Add(int64(duration))
	if err != nil {
		d.stats.Errors.Add(1)
	}

	d.mu.RLock()
	threshold := d.slowThreshold
	hook := d.slowHook
	d.mu.RUnlock()

	if duration > threshold {
		d.stats.SlowQueries.Add(1)
		if hook != nil {
			hook(ctx, stmt, duration)
		}
	}
}

// Tx starts a transaction that also records statistics.
func (d *StatsDriver) Tx(ctx context.Context) (Tx, error) {
	tx, err := d.Driver.Tx(ctx)
	if err != nil {
		return nil, err
	}
	d.stats.Transactions.Add(1)
	return &StatsTx{Tx: tx, driver: d}, nil
}

// StatsTx wraps a transaction with statistics collection.
type StatsTx struct {
	Tx
	driver *StatsDriver
}

// Run runs a statement within the transaction and records statistics.
func (tx *StatsTx) Run(ctx context.Context, stmt cypher.Statement) (*Result, error) {
	start := time.Now()
	res, err := tx.Tx.Run(ctx, stmt)
	tx.driver.record(ctx, stmt, start, err)
	return res, err
}

// DebugDriver wraps a Driver with debug logging.
type DebugDriver struct {
	Driver
	logger *slog.Logger
}

// DebugOption configures the DebugDriver.
type DebugOption func(*DebugDriver)

// DebugWithLogger sets the logger. The default is slog.Default().
func DebugWithLogger(logger *slog.Logger) DebugOption {
	return func(d *DebugDriver) {
		d.logger = logger
	}
}

// NewDebugDriver wraps drv with debug logging.
//
//	drv := dialect.NewDebugDriver(bolt, dialect.DebugWithLogger(logger))
//	s := session.New(reg, drv)
func NewDebugDriver(drv Driver, opts ...DebugOption) *DebugDriver {
	d := &DebugDriver{Driver: drv, logger: slog.Default()}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Run logs and runs a statement.
func (d *DebugDriver) Run(ctx context.Context, stmt cypher.Statement) (*Result, error) {
	d.logger.DebugContext(ctx, "run", "statement", stmt.Text, "params", stmt.Params)
	return d.Driver.Run(ctx, stmt)
}

// Tx starts a transaction with debug logging.
func (d *DebugDriver) Tx(ctx context.Context) (Tx, error) {
	d.logger.DebugContext(ctx, "begin transaction")
	tx, err := d.Driver.Tx(ctx)
	if err != nil {
		return nil, err
	}
	return &DebugTx{Tx: tx, logger: d.logger}, nil
}

// DebugTx wraps a transaction with debug logging.
type DebugTx struct {
	Tx
	logger *slog.Logger
}

// Run logs and runs a statement within the transaction.
func (tx *DebugTx) Run(ctx context.Context, stmt cypher.Statement) (*Result, error) {
	tx.logger.DebugContext(ctx, "tx run", "statement", stmt.Text, "params", stmt.Params)
	return tx.Tx.Run(ctx, stmt)
}

// Commit commits the transaction and logs it.
func (tx *DebugTx) Commit(ctx context.Context) error {
	tx.logger.DebugContext(ctx, "commit transaction")
	return tx.Tx.Commit(ctx)
}

// Rollback rolls back the transaction and logs it.
func (tx *DebugTx) Rollback(ctx context.Context) error {
	tx.logger.DebugContext(ctx, "rollback transaction")
	return tx.Tx.Rollback(ctx)
}

// Ensure interfaces are implemented.
var (
	_ Driver = (*StatsDriver)(nil)
	_ Tx     = (*StatsTx)(nil)
	_ Driver = (*DebugDriver)(nil)
	_ Tx     = (*DebugTx)(nil)
)
