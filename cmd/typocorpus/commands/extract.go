package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/Sumatoshi-tech/typocorpus/internal/batch"
	"github.com/Sumatoshi-tech/typocorpus/internal/config"
	"github.com/Sumatoshi-tech/typocorpus/internal/corpus"
	"github.com/Sumatoshi-tech/typocorpus/internal/ledger"
	"github.com/Sumatoshi-tech/typocorpus/internal/mining"
	"github.com/Sumatoshi-tech/typocorpus/internal/observability"
	"github.com/Sumatoshi-tech/typocorpus/internal/source"
	"github.com/Sumatoshi-tech/typocorpus/pkg/version"
)

const (
	flagConfig       = "config"
	flagInput        = "input"
	flagOutput       = "output"
	flagCompress     = "compress"
	flagWorkers      = "workers"
	flagWorkDir      = "work-dir"
	flagStateDB      = "state-db"
	flagTypoOnly     = "filter-non-typo-commits"
	flagSampleMod    = "filter-by-mod"
	flagSummary      = "summary"
	flagLogLevel     = "log-level"
	flagMetricsAddr  = "metrics-addr"
	typoMarker       = "typo"
	outputFilePerm   = 0o644
	outputDirPerm    = 0o750
	shutdownDeadline = 5 * time.Second
)

// ErrNoRepositories is returned when no repository URL was given.
var ErrNoRepositories = errors.New("no repositories to process")

type extractOptions struct {
	configPath  string
	input       string
	output      string
	compress    bool
	workers     int
	workDir     string
	stateDB     string
	typoOnly    bool
	sampleMod   uint64
	summary     string
	logLevel    string
	metricsAddr string
}

// NewExtractCommand creates the extract subcommand.
func NewExtractCommand() *cobra.Command {
	return buildExtractCommand(&extractOptions{})
}

func buildExtractCommand(opts *extractOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "extract [url...]",
		Short: "Mine typo-fix edit pairs from repositories",
		Long: `Clone each repository, walk its history and write one JSON line per
accepted commit.

Repository URLs come from the arguments or, when none are given, one per
line from --input (stdin by default). Local directories are read in place.

Examples:
  typocorpus extract https://github.com/org/repo.git -o corpus.jsonl
  typocorpus extract --filter-non-typo-commits --compress -i repos.txt -o corpus.jsonl.lz4`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExtract(cmd, opts, args)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&opts.configPath, flagConfig, "", "config file (default .typocorpus.yaml in CWD or $HOME)")
	flags.StringVarP(&opts.input, flagInput, "i", "", "file with one repository URL per line, - for stdin")
	flags.StringVarP(&opts.output, flagOutput, "o", config.DefaultOutputPath, "corpus output path, - for stdout")
	flags.BoolVar(&opts.compress, flagCompress, false, "write an LZ4 frame")
	flags.IntVarP(&opts.workers, flagWorkers, "w", config.DefaultBatchWorkers, "repositories processed concurrently")
	flags.StringVar(&opts.workDir, flagWorkDir, config.DefaultBatchWorkDir, "directory for temporary clones")
	flags.StringVar(&opts.stateDB, flagStateDB, "", "SQLite ledger used to resume interrupted runs")
	flags.BoolVar(&opts.typoOnly, flagTypoOnly, false, `keep only commits whose message contains "typo"`)
	flags.Uint64Var(&opts.sampleMod, flagSampleMod, 0, "keep only commits whose hash is divisible by N")
	flags.StringVar(&opts.summary, flagSummary, summaryTable, "run summary on stderr: table, yaml or none")
	flags.StringVar(&opts.logLevel, flagLogLevel, config.DefaultLogLevel, "log level: debug, info, warn or error")
	flags.StringVar(&opts.metricsAddr, flagMetricsAddr, "", "serve /metrics and /healthz on this address")

	return cmd
}

func runExtract(cmd *cobra.Command, opts *extractOptions, args []string) error {
	summaryErr := validateSummaryFormat(opts.summary)
	if summaryErr != nil {
		return summaryErr
	}

	cfg, err := loadExtractConfig(cmd, opts)
	if err != nil {
		return err
	}

	urls, err := readURLs(args, opts.input, cmd.InOrStdin())
	if err != nil {
		return err
	}

	if len(urls) == 0 {
		return ErrNoRepositories
	}

	runID := uuid.NewString()

	providers, err := observability.Init(cfg.TelemetryConfig(version.Version, runID))
	if err != nil {
		return fmt.Errorf("init observability: %w", err)
	}

	logger := providers.Logger

	defer func() {
		shutdownErr := providers.Shutdown(context.Background())
		if shutdownErr != nil {
			logger.Warn("observability shutdown failed", "error", shutdownErr)
		}
	}()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.Observability.MetricsAddr != "" {
		diag, diagErr := observability.NewDiagnosticsServer(ctx, cfg.Observability.MetricsAddr, providers.MetricsHandler, logger)
		if diagErr != nil {
			return diagErr
		}

		logger.Info("diagnostics server listening", "addr", diag.Addr())

		defer closeDiagnostics(diag, logger)
	}

	ctx, span := providers.Tracer.Start(ctx, "typocorpus.extract", trace.WithAttributes(
		attribute.Int("repositories", len(urls)),
		attribute.Int("workers", cfg.Batch.Workers),
	))
	defer span.End()

	stats, written, err := extract(ctx, cfg, providers, urls, cmd.OutOrStdout())
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}

	span.SetAttributes(attribute.Int("records", stats.Records), attribute.Int("commits", stats.Commits))

	logger.Info("run finished",
		"records", stats.Records,
		"commits", stats.Commits,
		"duration", stats.Duration,
	)

	renderErr := renderSummary(cmd.ErrOrStderr(), opts.summary, runID, stats, written)

	return errors.Join(err, renderErr)
}

// extract wires the pipeline and runs it. Stats are returned even when the
// run stops early.
func extract(
	ctx context.Context, cfg *config.Config, providers observability.Providers, urls []string, stdout io.Writer,
) (batch.Stats, uint64, error) {
	logger := providers.Logger

	workspaces, err := source.NewWorkspaces(cfg.Batch.WorkDir, cfg.Batch.CloneRate, cfg.Batch.CloneBurst, logger)
	if err != nil {
		return batch.Stats{}, 0, err
	}

	metrics, err := observability.NewMiningMetrics(providers.Meter)
	if err != nil {
		return batch.Stats{}, 0, fmt.Errorf("create mining metrics: %w", err)
	}

	out, closeOut, err := openOutput(cfg.Output.Path, stdout, cfg.Batch.StateDB != "")
	if err != nil {
		return batch.Stats{}, 0, err
	}

	counter := &countingWriter{w: out}
	writer := corpus.NewWriter(counter, cfg.Output.Compress)

	runnerOpts := batch.Options{
		Workspaces: workspaces,
		Processor:  mining.NewMiner(cfg.MinerConfig(), logger),
		Sink:       writer,
		Observer:   metrics,
		Logger:     logger,
		Workers:    cfg.Batch.Workers,
	}

	if cfg.Batch.StateDB != "" {
		led, openErr := ledger.Open(cfg.Batch.StateDB)
		if openErr != nil {
			return batch.Stats{}, 0, errors.Join(openErr, closeOut())
		}

		defer func() {
			closeErr := led.Close()
			if closeErr != nil {
				logger.Warn("close ledger failed", "error", closeErr)
			}
		}()

		runnerOpts.Ledger = led
	}

	runner, err := batch.NewRunner(runnerOpts)
	if err != nil {
		return batch.Stats{}, 0, errors.Join(err, closeOut())
	}

	stats, runErr := runner.Run(ctx, urls)
	closeErr := errors.Join(writer.Close(), closeOut())

	logger.Debug("corpus written", "path", cfg.Output.Path, "records", writer.Records(), "bytes", counter.n)

	return stats, counter.n, errors.Join(runErr, closeErr)
}

func loadExtractConfig(cmd *cobra.Command, opts *extractOptions) (*config.Config, error) {
	cfg, err := config.LoadConfig(opts.configPath)
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()

	if flags.Changed(flagOutput) {
		cfg.Output.Path = opts.output
	}

	if flags.Changed(flagCompress) {
		cfg.Output.Compress = opts.compress
	}

	if flags.Changed(flagWorkers) {
		cfg.Batch.Workers = opts.workers
	}

	if flags.Changed(flagWorkDir) {
		cfg.Batch.WorkDir = opts.workDir
	}

	if flags.Changed(flagStateDB) {
		cfg.Batch.StateDB = opts.stateDB
	}

	if flags.Changed(flagTypoOnly) {
		cfg.Mining.MessageMarker = ""
		if opts.typoOnly {
			cfg.Mining.MessageMarker = typoMarker
		}
	}

	if flags.Changed(flagSampleMod) {
		cfg.Mining.SampleModulus = opts.sampleMod
	}

	if flags.Changed(flagLogLevel) {
		cfg.Log.Level = opts.logLevel
	}

	if flags.Changed(flagMetricsAddr) {
		cfg.Observability.MetricsAddr = opts.metricsAddr
	}

	validateErr := cfg.Validate()
	if validateErr != nil {
		return nil, fmt.Errorf("invalid configuration: %w", validateErr)
	}

	return cfg, nil
}

// openOutput opens the corpus destination. A resumable run appends to an
// existing file. Stdout is never closed.
func openOutput(path string, stdout io.Writer, resume bool) (io.Writer, func() error, error) {
	if path == stdioPath {
		return stdout, func() error { return nil }, nil
	}

	dir := filepath.Dir(path)

	mkErr := os.MkdirAll(dir, outputDirPerm)
	if mkErr != nil {
		return nil, nil, fmt.Errorf("create output dir: %w", mkErr)
	}

	mode := os.O_CREATE | os.O_WRONLY | os.O_TRUNC
	if resume {
		mode = os.O_CREATE | os.O_WRONLY | os.O_APPEND
	}

	f, err := os.OpenFile(path, mode, outputFilePerm)
	if err != nil {
		return nil, nil, fmt.Errorf("create output: %w", err)
	}

	return f, f.Close, nil
}

func closeDiagnostics(diag *observability.DiagnosticsServer, logger *slog.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownDeadline)
	defer cancel()

	err := diag.Close(ctx)
	if err != nil {
		logger.Warn("diagnostics shutdown failed", "error", err)
	}
}

// countingWriter tracks the bytes written to the corpus destination.
type countingWriter struct {
	w io.Writer
	n uint64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += uint64(n) //nolint:gosec // n is never negative

	return n, err
}
