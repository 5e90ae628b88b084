package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"log-analyzer/internal/aggregator"
	"log-analyzer/internal/config"
	analyzererrors "log-analyzer/internal/errors"
	"log-analyzer/internal/ingestion"
	"log-analyzer/internal/logging"
	"log-analyzer/internal/models"
	"log-analyzer/internal/parser"
	"log-analyzer/internal/report"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const (
	// progressInterval is how many lines pass between progress events.
	progressInterval = 10000
	// lineBufferSize bounds the lines in flight between source and parser.
	lineBufferSize = 256
)

// analyzeFlagKeys maps config keys to the analyze command's flag names.
var analyzeFlagKeys = map[string]string{
	config.KeyTop:            "top",
	config.KeyErrorThreshold: "error-threshold",
	config.KeyJSONOutput:     "json-output",
	config.KeyQuiet:          "quiet",
	config.KeyFollow:         "follow",
	config.KeyPattern:        "pattern",
	config.KeyLogLevel:       "log-level",
	config.KeyLogFormat:      "log-format",
	config.KeyLogDir:         "log-dir",
}

// AnalyzeOptions holds options for the analyze command.
type AnalyzeOptions struct {
	// Path is a file, a directory, or "-" for stdin.
	Path    string
	Config  *config.Config
	Verbose bool
	// Stdout receives the report. Defaults to os.Stdout.
	Stdout io.Writer
	// Stdin is read when Path is "-". Defaults to os.Stdin.
	Stdin io.Reader
}

// DefaultAnalyzeOptions returns the default analyze options.
func DefaultAnalyzeOptions() *AnalyzeOptions {
	return &AnalyzeOptions{
		Path:   "-",
		Config: config.Default(),
		Stdout: os.Stdout,
		Stdin:  os.Stdin,
	}
}

// AnalyzeRunner drives one pass: source, parser, aggregator, report.
type AnalyzeRunner struct {
	options    *AnalyzeOptions
	config     *config.Config
	runID      string
	logger     *zap.Logger
	parser     *parser.LineParser
	aggregator *aggregator.Aggregator
}

// NewAnalyzeRunner validates the options and sets up logging for a run.
func NewAnalyzeRunner(opts *AnalyzeOptions) (*AnalyzeRunner, error) {
	if opts == nil {
		opts = DefaultAnalyzeOptions()
	}
	if opts.Config == nil {
		opts.Config = config.Default()
	}
	if opts.Stdout == nil {
		opts.Stdout = os.Stdout
	}
	if opts.Stdin == nil {
		opts.Stdin = os.Stdin
	}
	if err := opts.Config.Validate(); err != nil {
		return nil, err
	}

	logCfg := opts.Config.LoggingConfig()
	if opts.Verbose {
		logCfg.Level = "debug"
	}
	if err := logging.Setup(logCfg); err != nil {
		return nil, fmt.Errorf("failed to setup logging: %w", err)
	}

	runID := uuid.NewString()
	logger := logging.WithContext(runID, "analyze").With(logging.Path(opts.Path))

	return &AnalyzeRunner{
		options:    opts,
		config:     opts.Config,
		runID:      runID,
		logger:     logger,
		parser:     parser.NewLineParser(),
		aggregator: aggregator.New(),
	}, nil
}

// Run executes the pass and writes the report. The snapshot is returned
// even when no valid entries were found.
func (r *AnalyzeRunner) Run(ctx context.Context) (*models.Snapshot, error) {
	r.logger.Info("analysis_starting",
		zap.Int("top", r.config.TopN),
		zap.Int("error_threshold", r.config.ErrorThreshold),
		zap.Bool("follow", r.config.Follow),
		zap.Bool("quiet", r.config.Quiet),
	)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// Handle signals for graceful shutdown; the pass finalizes with what was read.
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		select {
		case sig := <-sigCh:
			r.logger.Info("received_signal", zap.String("signal", sig.String()))
			cancel()
		case <-ctx.Done():
		}
	}()

	source, err := r.createSource()
	if err != nil {
		r.logFailure("source_open_failed", err)
		return nil, err
	}
	defer func() { _ = source.Close() }()

	lineCh := make(chan models.RawLine, lineBufferSize)
	readErrCh := make(chan error, 1)
	go func() {
		readErrCh <- source.Read(ctx, lineCh)
		close(lineCh)
	}()

	startTime := time.Now()
	for raw := range lineCh {
		r.process(raw)

		if n := r.aggregator.Ingested(); n%progressInterval == 0 {
			r.logger.Info("analysis_progress",
				logging.Count(n),
				logging.Duration(time.Since(startTime)),
			)
		}
	}

	if err := <-readErrCh; err != nil && ctx.Err() == nil {
		r.logFailure("source_read_failed", err)
		return nil, err
	}

	snapshot := r.aggregator.Finalize(r.config.TopN, r.config.ErrorThreshold)
	r.logger.Info("analysis_complete",
		logging.Source(source.Name()),
		zap.Int("total_entries", snapshot.TotalEntries),
		zap.Int("malformed_entries", snapshot.MalformedEntries),
		zap.Int("flagged_ips", len(snapshot.FlaggedIPs)),
		logging.Duration(time.Since(startTime)),
	)

	if snapshot.TotalEntries == 0 {
		err := analyzererrors.NewIngestNoValidEntriesError(source.Name(), snapshot.MalformedEntries).
			WithContext("request_id", r.runID)
		r.logFailure("no_valid_entries", err)
		return &snapshot, err
	}

	renderer := report.NewTextRenderer(r.options.Stdout)
	if err := renderer.Render(&snapshot, r.sourceLabel()); err != nil {
		return &snapshot, analyzererrors.NewReportRenderError(err)
	}

	if path := r.config.JSONOutput; path != "" {
		if err := report.ExportJSON(&snapshot, path); err != nil {
			r.logFailure("report_export_failed", err)
			return &snapshot, err
		}
		r.logger.Info("report_exported", logging.Path(path))
		if err := renderer.ExportNotice(path); err != nil {
			return &snapshot, analyzererrors.NewReportRenderError(err)
		}
	}

	return &snapshot, nil
}

// process parses one line and feeds the outcome to the aggregator.
func (r *AnalyzeRunner) process(raw models.RawLine) {
	var outcome models.ParseOutcome
	if raw.Truncated {
		outcome = models.Malformed("", fmt.Sprintf("line exceeds %d bytes", ingestion.MaxLineSize), raw.Text)
	} else {
		outcome = r.parser.Parse(raw.Text)
	}

	switch {
	case !outcome.IsValid():
		if !r.config.Quiet {
			r.logger.Warn("malformed_line",
				logging.Source(raw.Source),
				logging.LineNumber(raw.Number),
				logging.Reason(outcome.Malformed.Reason),
				logging.Line(raw.Text),
				logging.ErrorCode(string(analyzererrors.ErrCodeIngestParseFailed)),
			)
		}
	case !outcome.Entry.Method.IsStandard():
		r.logger.Debug("nonstandard_method",
			logging.Source(raw.Source),
			logging.LineNumber(raw.Number),
			zap.String("method", outcome.Entry.Method.String()),
		)
	}
	r.aggregator.Ingest(outcome)
}

// sourceLabel names the input in the report header.
func (r *AnalyzeRunner) sourceLabel() string {
	if r.options.Path == "-" {
		return "stdin"
	}
	return r.options.Path
}

// createSource creates the appropriate line source based on the path.
func (r *AnalyzeRunner) createSource() (ingestion.Source, error) {
	path := r.options.Path

	if path == "-" {
		r.logger.Info("reading_from_stdin")
		if r.options.Stdin == os.Stdin {
			return ingestion.NewStdinSource(r.logger), nil
		}
		return ingestion.NewReaderSource(r.options.Stdin, r.logger), nil
	}

	info, err := ingestion.Stat(path)
	if err != nil {
		return nil, err
	}

	if info.IsDir() {
		return r.createDirectorySource(path)
	}

	r.logger.Info("reading_from_file",
		logging.Path(path),
		zap.Bool("follow", r.config.Follow),
	)
	return ingestion.NewFileSource(path, r.config.Follow, r.logger), nil
}

// createDirectorySource reads every file under dir matching the pattern.
func (r *AnalyzeRunner) createDirectorySource(dir string) (ingestion.Source, error) {
	matches, err := ingestion.ResolvePattern(dir, r.config.Pattern)
	if err != nil {
		return nil, err
	}

	if r.config.Follow {
		r.logger.Warn("follow_ignored_for_directory")
	}
	r.logger.Info("reading_from_directory",
		zap.String("directory", dir),
		zap.String("pattern", r.config.Pattern),
		logging.Count(len(matches)),
	)
	return ingestion.NewMultiFileSource(matches, r.logger), nil
}

func (r *AnalyzeRunner) logFailure(msg string, err error) {
	fields := []zap.Field{
		logging.ErrorCode(string(analyzererrors.GetErrorCode(err))),
		zap.Error(err),
	}
	var analyzerErr *analyzererrors.AnalyzerError
	if errors.As(err, &analyzerErr) {
		fields = append(fields, zap.Any("details", analyzerErr.ToMap()))
	}
	r.logger.Error(msg, fields...)
}

// Close releases resources.
func (r *AnalyzeRunner) Close() error {
	return logging.Close()
}

// RunAnalyzeCommand executes the analyze command with the given options.
func RunAnalyzeCommand(ctx context.Context, opts *AnalyzeOptions) error {
	runner, err := NewAnalyzeRunner(opts)
	if err != nil {
		return err
	}
	defer func() { _ = runner.Close() }()

	_, err = runner.Run(ctx)
	return err
}

// setupAnalyzeCmd configures the analyze command.
func setupAnalyzeCmd() *cobra.Command {
	defaults := config.Default()

	cmd := &cobra.Command{
		Use:   "analyze [path]",
		Short: "Analyze a log file, a directory of logs, or stdin",
		Long: `Analyze web server logs in a single streaming pass.

PATH may be a file, a directory (files selected with --pattern, "**" allowed)
or "-" for stdin. Malformed lines are counted and reported but never stop the
pass.

Examples:
  log-analyzer analyze /var/log/app/access.log
  log-analyzer analyze /var/log/app/access.log --top 5 --error-threshold 3
  log-analyzer analyze /var/log/app/ --pattern "**/*.log" -j report.json
  log-analyzer analyze /var/log/app/access.log --follow
  cat access.log | log-analyzer analyze -`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(config.NewViper(), cfgFile, cmd.Flags(), analyzeFlagKeys)
			if err != nil {
				return err
			}

			opts := DefaultAnalyzeOptions()
			if len(args) == 1 {
				opts.Path = args[0]
			}
			opts.Config = cfg
			opts.Verbose = verbose
			opts.Stdout = cmd.OutOrStdout()
			opts.Stdin = cmd.InOrStdin()
			return RunAnalyzeCommand(cmd.Context(), opts)
		},
	}

	cmd.Flags().IntP("top", "n", defaults.TopN, "number of IPs and endpoints to list")
	cmd.Flags().IntP("error-threshold", "e", defaults.ErrorThreshold, "flag IPs with more ERROR entries than this")
	cmd.Flags().StringP("json-output", "j", defaults.JSONOutput, "also write the report as JSON to this path")
	cmd.Flags().BoolP("quiet", "q", defaults.Quiet, "do not log individual malformed lines")
	cmd.Flags().BoolP("follow", "f", defaults.Follow, "keep reading the file as it grows (until Ctrl-C)")
	cmd.Flags().String("pattern", defaults.Pattern, "glob pattern for files in directory mode")
	cmd.Flags().String("log-level", defaults.Log.Level, "diagnostic log level (debug, info, warn, error)")
	cmd.Flags().String("log-format", defaults.Log.Format, "diagnostic log format (plain, json)")
	cmd.Flags().String("log-dir", defaults.Log.Dir, "also write rotating JSONL diagnostics to this directory")

	return cmd
}
