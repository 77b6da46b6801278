package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	_ "modernc.org/sqlite"

	"github.com/smartstore/sqlbatch/batch"
	"github.com/smartstore/sqlbatch/dialect"
	"github.com/smartstore/sqlbatch/dialect/sql"
)

var (
	jobFile       string
	dialectName   string
	logLevel      string
	logFormat     string
	dsn           string
	driverName    string
	dryRun        bool
	maxRows       int64
	slowThreshold time.Duration
	metricsFile   string
)

var rootCmd = &cobra.Command{
	Use:   "sqlbatch",
	Short: "Compile and run set-based UPDATE and DELETE statements",
	Long: `sqlbatch turns a job file describing an entity, a filter and the new column
values into a single UPDATE or DELETE statement for SQL Server, PostgreSQL,
MySQL or SQLite, and optionally runs it.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := LoadLogConfig(logLevel, logFormat)
		if err != nil {
			return err
		}
		cfg.Configure(cmd.ErrOrStderr())
		return nil
	},
}

var compileCmd = &cobra.Command{
	Use:   "compile",
	Short: "Print the statement of a job",
	Args:  cobra.NoArgs,
	RunE:  runCompile,
}

var execCmd = &cobra.Command{
	Use:   "exec",
	Short: "Run the statement of a job and print the number of affected rows",
	Args:  cobra.NoArgs,
	RunE:  runExec,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&jobFile, "job", "j", "", "Job file (YAML)")
	rootCmd.PersistentFlags().StringVarP(&dialectName, "dialect", "d", "", "SQL dialect: sqlserver, postgres, mysql or sqlite3 (default: the job dialect)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn or error (env: SQLBATCH_LOG_LEVEL)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "", "Log format: text or json (env: SQLBATCH_LOG_FMT)")
	_ = rootCmd.MarkPersistentFlagRequired("job")

	execCmd.Flags().StringVar(&dsn, "dsn", os.Getenv("SQLBATCH_DSN"), "Data source name (env: SQLBATCH_DSN)")
	execCmd.Flags().StringVar(&driverName, "driver", "", "database/sql driver name (default: pgx, mysql or sqlite by dialect)")
	execCmd.Flags().BoolVar(&dryRun, "dry-run", false, "Print the statement without running it")
	execCmd.Flags().Int64Var(&maxRows, "max-rows", 0, "Roll back when more rows are affected (0: no limit)")
	execCmd.Flags().DurationVar(&slowThreshold, "slow-threshold", time.Second, "Log statements running longer")
	execCmd.Flags().StringVar(&metricsFile, "metrics-file", "", "Write driver metrics to this file in the Prometheus text format")

	rootCmd.AddCommand(compileCmd, execCmd)
}

func runCompile(cmd *cobra.Command, _ []string) error {
	job, d, err := loadJob()
	if err != nil {
		return err
	}
	stmt, err := job.Compile(d)
	if err != nil {
		return err
	}
	printStatement(cmd.OutOrStdout(), stmt)
	return nil
}

func runExec(cmd *cobra.Command, _ []string) error {
	job, d, err := loadJob()
	if err != nil {
		return err
	}
	stmt, err := job.Compile(d)
	if err != nil {
		return err
	}
	if dryRun {
		printStatement(cmd.OutOrStdout(), stmt)
		return nil
	}
	name, err := driverFor(d, driverName)
	if err != nil {
		return err
	}
	if dsn == "" {
		return errors.New("--dsn is required")
	}
	reg := prometheus.NewRegistry()
	n, err := execute(cmd.Context(), job, stmt, execOptions{
		Driver:        name,
		DSN:           dsn,
		MaxRows:       maxRows,
		SlowThreshold: slowThreshold,
	}, reg)
	if metricsFile != "" {
		if werr := prometheus.WriteToTextfile(metricsFile, reg); werr != nil {
			slog.Error("writing metrics", "file", metricsFile, "error", werr)
		}
	}
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%d rows affected\n", n)
	return nil
}

func loadJob() (*Job, string, error) {
	job, err := LoadJob(jobFile)
	if err != nil {
		return nil, "", err
	}
	d := dialectName
	if d == "" {
		d = job.Dialect
	}
	if d == "" {
		return nil, "", errors.New("no dialect: set it in the job or pass --dialect")
	}
	return job, d, nil
}

func printStatement(w io.Writer, stmt *batch.Statement) {
	fmt.Fprintln(w, stmt.SQL)
	for _, p := range stmt.Params {
		fmt.Fprintf(w, "-- %s\n", p)
	}
}

var drivers = map[string]string{
	dialect.Postgres: "pgx",
	dialect.MySQL:    "mysql",
	dialect.SQLite:   "sqlite",
}

// driverFor returns the database/sql driver of the dialect. SQL Server has
// no bundled driver.
func driverFor(d, override string) (string, error) {
	if d == dialect.SQLServer {
		return "", fmt.Errorf("no bundled driver for %s, use compile and run the statement with your own client", d)
	}
	if override != "" {
		return override, nil
	}
	name, ok := drivers[d]
	if !ok {
		return "", fmt.Errorf("unknown dialect %q", d)
	}
	return name, nil
}

type execOptions struct {
	Driver        string
	DSN           string
	MaxRows       int64
	SlowThreshold time.Duration
}

// txProvider runs batch statements in a transaction.
type txProvider struct {
	dialect.Tx
	dialect string
}

func (p txProvider) Dialect() string { return p.dialect }

// execute runs the compiled statement of the job. With a row limit, the
// statement runs in a transaction that is rolled back when the limit is
// exceeded. At the debug log level, every statement sent to the database
// is logged.
func execute(ctx context.Context, job *Job, stmt *batch.Statement, o execOptions, reg prometheus.Registerer) (int64, error) {
	drv, stats, err := sql.OpenWithStats(stmt.Dialect, o.Driver, o.DSN,
		sql.WithSlowThreshold(o.SlowThreshold),
		sql.WithSlowQueryLog(),
	)
	if err != nil {
		return 0, err
	}
	defer drv.Close()
	if reg != nil {
		if err := reg.Register(sql.NewCollector(stats, "entity", job.Entity.Name)); err != nil {
			return 0, err
		}
	}
	var conn dialect.Driver = drv
	if slog.Default().Enabled(ctx, slog.LevelDebug) {
		conn = sql.NewDebugDriver(drv, sql.DebugWithLog(slog.DebugContext))
	}
	defer func() {
		s := stats.Stats()
		slog.Debug("driver stats", "execs", s.TotalExecs, "rows", s.RowsAffected, "duration", s.TotalDuration, "errors", s.Errors)
	}()
	op := batch.OpUpdate
	if job.Delete {
		op = batch.OpDelete
	}
	slog.Info("running batch statement", "entity", job.Entity.Name, "op", op, "dialect", stmt.Dialect)
	slog.Debug("statement", "sql", stmt.SQL, "params", len(stmt.Params))
	if o.MaxRows <= 0 {
		return batch.Exec(ctx, conn, stmt, job.Entity.Name, op)
	}
	tx, err := conn.Tx(ctx)
	if err != nil {
		return 0, err
	}
	n, err := batch.Exec(ctx, txProvider{Tx: tx, dialect: conn.Dialect()}, stmt, job.Entity.Name, op)
	if err != nil {
		return 0, errors.Join(err, tx.Rollback())
	}
	if n > o.MaxRows {
		if err := tx.Rollback(); err != nil {
			return 0, err
		}
		return n, fmt.Errorf("%d rows affected, more than the limit of %d: rolled back", n, o.MaxRows)
	}
	return n, tx.Commit()
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
