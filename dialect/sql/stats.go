package sql

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/smartstore/sqlbatch/dialect"
)

// QueryStats holds query execution statistics.
type QueryStats struct {
	// TotalQueries is the total number of queries executed.
	TotalQueries atomic.Int64
	// TotalExecs is the total number of exec statements executed.
	TotalExecs atomic.Int64
	// TotalDuration is the total time spent executing queries.
	TotalDuration atomic.Int64 // nanoseconds
	// RowsAffected is the total number of rows changed by exec statements.
	RowsAffected atomic.Int64
	// SlowQueries is the count of queries exceeding the slow threshold.
	SlowQueries atomic.Int64
	// Errors is the count of query errors.
	Errors atomic.Int64
}

// Stats returns a snapshot of the current statistics.
func (s *QueryStats) Stats() StatsSnapshot {
	return StatsSnapshot{
		TotalQueries:  s.TotalQueries.Load(),
		TotalExecs:    s.TotalExecs.Load(),
		TotalDuration: time.Duration(s.TotalDuration.Load()),
		RowsAffected:  s.RowsAffected.Load(),
		SlowQueries:   s.SlowQueries.Load(),
		Errors:        s.Errors.Load(),
	}
}

// Reset resets all statistics to zero.
func (s *QueryStats) Reset() {
	s.TotalQueries.Store(0)
	s.TotalExecs.Store(0)
	s.TotalDuration.Store(0)
	s.RowsAffected.Store(0)
	s.SlowQueries.Store(0)
	s.Errors.Store(0)
}

// StatsSnapshot is a point-in-time snapshot of query statistics.
type StatsSnapshot struct {
	TotalQueries  int64
	TotalExecs    int64
	TotalDuration time.Duration
	RowsAffected  int64
	SlowQueries   int64
	Errors        int64
}

// AvgQueryDuration returns the average query duration.
func (s StatsSnapshot) AvgQueryDuration() time.Duration {
	total := s.TotalQueries + s.TotalExecs
	if total == 0 {
		return 0
	}
	return s.TotalDuration / time.Duration(total)
}

// String returns a human-readable summary of the statistics.
func (s StatsSnapshot) String() string {
	return fmt.Sprintf(
		"queries=%d execs=%d rows=%d duration=%s avg=%s slow=%d errors=%d",
		s.TotalQueries, s.TotalExecs, s.RowsAffected, s.TotalDuration, s.AvgQueryDuration(),
		s.SlowQueries, s.Errors,
	)
}

// SlowQueryHook is a function called when a slow query is detected.
type SlowQueryHook func(ctx context.Context, query string, args []any, duration time.Duration)

// StatsDriver wraps a Driver with query statistics collection.
type StatsDriver struct {
	*Driver
	stats         *QueryStats
	slowThreshold time.Duration
	slowHook      SlowQueryHook
	mu            sync.RWMutex
}

// StatsOption configures the StatsDriver.
type StatsOption func(*StatsDriver)

// WithSlowThreshold sets the threshold for slow query detection.
// Queries taking longer than this duration will be counted as slow queries.
// Default is 100ms.
func WithSlowThreshold(d time.Duration) StatsOption {
	return func(s *StatsDriver) {
		s.slowThreshold = d
	}
}

// WithSlowQueryHook sets a callback function for slow queries.
// The hook is called whenever a query exceeds the slow threshold.
func WithSlowQueryHook(hook SlowQueryHook) StatsOption {
	return func(s *StatsDriver) {
		s.slowHook = hook
	}
}

// WithSlowQueryLog logs slow queries to the default logger.
// This is a convenience wrapper around WithSlowQueryHook.
func WithSlowQueryLog() StatsOption {
	return WithSlowQueryHook(func(_ context.Context, query string, args []any, duration time.Duration) {
		slog.Warn("slow query detected", "duration", duration, "query", query, "args", args)
	})
}

// NewStatsDriver wraps a Driver with statistics collection.
//
// Example:
//
//	drv, _ := sql.Open(dialect.Postgres, "pgx", dsn)
//	statsDriver := sql.NewStatsDriver(drv,
//	    sql.WithSlowThreshold(200*time.Millisecond),
//	    sql.WithSlowQueryLog(),
//	)
//	n, err := batch.Delete(ctx, statsDriver, q)
//
//	// Later, check statistics:
//	stats := statsDriver.QueryStats().Stats()
//	fmt.Println(stats)
func NewStatsDriver(drv *Driver, opts ...StatsOption) *StatsDriver {
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

// SlowThreshold returns the current slow query threshold.
func (d *StatsDriver) SlowThreshold() time.Duration {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.slowThreshold
}

// SetSlowThreshold updates the slow query threshold.
func (d *StatsDriver) SetSlowThreshold(threshold time.Duration) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.slowThreshold = threshold
}

// Query executes a query and records statistics.
func (d *StatsDriver) Query(ctx context.Context, query string, args, v any) error {
	start := time.Now()
	err := d.Driver.Query(ctx, query, args, v)
	d.record(ctx, query, args, start, err, true)
	return err
}

// Exec executes a statement and records statistics.
func (d *StatsDriver) Exec(ctx context.Context, query string, args, v any) error {
	start := time.Now()
	err := d.Driver.Exec(ctx, query, args, v)
	d.record(ctx, query, args, start, err, false)
	d.recordRows(v, err)
	return err
}

// recordRows adds the affected rows of a successful exec, when the caller asked for a result.
func (d *StatsDriver) recordRows(v any, err error) {
	res, ok := v.(*sql.Result)
	if err != nil || !ok || res == nil || *res == nil {
		return
	}
	if n, err := (*res).RowsAffected(); err == nil {
		d.stats.RowsAffected.Add(n)
	}
}

func (d *StatsDriver) record(ctx context.Context, query string, args any, start time.Time, err error, isQuery bool) {
	duration := time.Since(start)
	if isQuery {
		d.stats.TotalQueries.Add(1)
	} else {
		d.stats.TotalExecs.Add(1)
	}
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
			argsSlice, _ := args.([]any)
			hook(ctx, query, argsSlice, duration)
		}
	}
}

// Tx starts a transaction that also records statistics.
func (d *StatsDriver) Tx(ctx context.Context) (dialect.Tx, error) {
	tx, err := d.Driver.Tx(ctx)
	if err != nil {
		return nil, err
	}
	return &StatsTx{Tx: tx, driver: d}, nil
}

// StatsTx wraps a transaction with statistics collection.
type StatsTx struct {
	dialect.Tx
	driver *StatsDriver
}

// Query executes a query within the transaction and records statistics.
func (tx *StatsTx) Query(ctx context.Context, query string, args, v any) error {
	start := time.Now()
	err := tx.Tx.Query(ctx, query, args, v)
	tx.driver.record(ctx, query, args, start, err, true)
	return err
}

// Exec executes a statement within the transaction and records statistics.
func (tx *StatsTx) Exec(ctx context.Context, query string, args, v any) error {
	start := time.Now()
	err := tx.Tx.Exec(ctx, query, args, v)
	tx.driver.record(ctx, query, args, start, err, false)
	tx.driver.recordRows(v, err)
	return err
}

// LogFunc logs a message with key-value attributes. slog.DebugContext is a LogFunc.
type LogFunc func(ctx context.Context, msg string, args ...any)

// DebugDriver logs every statement run through a driver, along with its
// arguments, the number of affected rows and the error, if any.
type DebugDriver struct {
	dialect.Driver
	log LogFunc
}

// DebugOption configures the DebugDriver.
type DebugOption func(*DebugDriver)

// DebugWithLog sets the log function. The default is slog.DebugContext.
func DebugWithLog(fn LogFunc) DebugOption {
	return func(d *DebugDriver) {
		d.log = fn
	}
}

// NewDebugDriver wraps a driver with statement logging. It can wrap a
// StatsDriver, so that statements are both counted and logged.
//
// Example:
//
//	drv, _, _ := sql.OpenWithStats(dialect.Postgres, "pgx", dsn)
//	n, err := batch.Exec(ctx, sql.NewDebugDriver(drv), stmt, "Item", batch.OpDelete)
func NewDebugDriver(drv dialect.Driver, opts ...DebugOption) *DebugDriver {
	d := &DebugDriver{Driver: drv, log: slog.DebugContext}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Query runs a query and logs it.
func (d *DebugDriver) Query(ctx context.Context, query string, args, v any) error {
	err := d.Driver.Query(ctx, query, args, v)
	d.log(ctx, "query", statementAttrs(query, args, nil, err)...)
	return err
}

// Exec runs a statement and logs it.
func (d *DebugDriver) Exec(ctx context.Context, query string, args, v any) error {
	err := d.Driver.Exec(ctx, query, args, v)
	d.log(ctx, "exec", statementAttrs(query, args, v, err)...)
	return err
}

// Tx starts a transaction whose statements are logged.
func (d *DebugDriver) Tx(ctx context.Context) (dialect.Tx, error) {
	tx, err := d.Driver.Tx(ctx)
	if err != nil {
		d.log(ctx, "begin", "error", err)
		return nil, err
	}
	d.log(ctx, "begin")
	return &DebugTx{Tx: tx, ctx: ctx, log: d.log}, nil
}

// DebugTx is a transaction of a DebugDriver.
type DebugTx struct {
	dialect.Tx
	ctx context.Context
	log LogFunc
}

// Query runs a query within the transaction and logs it.
func (tx *DebugTx) Query(ctx context.Context, query string, args, v any) error {
	err := tx.Tx.Query(ctx, query, args, v)
	tx.log(ctx, "tx query", statementAttrs(query, args, nil, err)...)
	return err
}

// Exec runs a statement within the transaction and logs it.
func (tx *DebugTx) Exec(ctx context.Context, query string, args, v any) error {
	err := tx.Tx.Exec(ctx, query, args, v)
	tx.log(ctx, "tx exec", statementAttrs(query, args, v, err)...)
	return err
}

// Commit commits the transaction and logs it.
func (tx *DebugTx) Commit() error {
	err := tx.Tx.Commit()
	tx.log(tx.ctx, "commit", errorAttrs(err)...)
	return err
}

// Rollback rolls back the transaction and logs it.
func (tx *DebugTx) Rollback() error {
	err := tx.Tx.Rollback()
	tx.log(tx.ctx, "rollback", errorAttrs(err)...)
	return err
}

func statementAttrs(query string, args, v any, err error) []any {
	attrs := []any{"sql", query, "args", args}
	if res, ok := v.(*sql.Result); ok && err == nil && res != nil && *res != nil {
		if n, rerr := (*res).RowsAffected(); rerr == nil {
			attrs = append(attrs, "rows", n)
		}
	}
	return append(attrs, errorAttrs(err)...)
}

func errorAttrs(err error) []any {
	if err == nil {
		return nil
	}
	return []any{"error", err}
}

// Ensure interfaces are implemented.
var (
	_ dialect.Driver = (*StatsDriver)(nil)
	_ dialect.Tx     = (*StatsTx)(nil)
	_ dialect.Driver = (*DebugDriver)(nil)
	_ dialect.Tx     = (*DebugTx)(nil)
)

// OpenWithStats opens a database connection with statistics collection enabled.
//
// Example:
//
//	drv, stats, err := sql.OpenWithStats(dialect.MySQL, "mysql", dsn,
//	    sql.WithSlowThreshold(100*time.Millisecond),
//	    sql.WithSlowQueryLog(),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	prometheus.MustRegister(sql.NewCollector(stats))
func OpenWithStats(dialect, driverName, source string, opts ...StatsOption) (*StatsDriver, *QueryStats, error) {
	drv, err := Open(dialect, driverName, source)
	if err != nil {
		return nil, nil, err
	}
	statsDriver := NewStatsDriver(drv, opts...)
	return statsDriver, statsDriver.QueryStats(), nil
}
