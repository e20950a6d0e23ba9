package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/pkg/errors"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/mudrockdev/mudrockdivergence/adapter"
	"github.com/mudrockdev/mudrockdivergence/config"
	"github.com/mudrockdev/mudrockdivergence/divergence"
	"github.com/mudrockdev/mudrockdivergence/logging"
	"github.com/mudrockdev/mudrockdivergence/report"
)

var (
	compareFormat     string
	compareOutputFile string
	compareEnvFile    string
	compareSequential bool
	compareProgress   bool
)

var compareCmd = &cobra.Command{
	Use:   "compare [config-file]",
	Short: "Compare source and destination schemas (default command)",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runCompare,
}

func init() {
	addCompareFlags(compareCmd)
}

func addCompareFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&compareFormat, "format", "text", "Report format: text, json")
	cmd.Flags().StringVar(&compareOutputFile, "output", "", "Report file path (default: stdout)")
	cmd.Flags().StringVar(&compareEnvFile, "env-file", ".env", "Environment file read before the configuration")
	cmd.Flags().BoolVar(&compareSequential, "sequential", false, "Query source and destination one after the other")
	cmd.Flags().BoolVar(&compareProgress, "progress", false, "Show table progress on stderr")
}

func runCompare(cmd *cobra.Command, args []string) error {
	fileName := config.DefaultFileName
	if len(args) > 0 {
		fileName = args[0]
	}

	cfg, err := config.Load(fileName, compareEnvFile)
	if err != nil {
		return couldNotRun(zap.NewNop(), err)
	}

	logger, closeLog, err := logging.New(logging.Config(cfg.Logger))
	if err != nil {
		return couldNotRun(zap.NewNop(), err)
	}
	defer closeLog()

	reporter, err := report.Get(compareFormat)
	if err != nil {
		return couldNotRun(logger, err)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	res, err := compare(ctx, cfg, logger)
	if err != nil {
		return couldNotRun(logger, err)
	}

	if err := writeReport(reporter, res, compareOutputFile); err != nil {
		return couldNotRun(logger, err)
	}

	if code := report.ExitCode(res, nil); code != report.ExitIdentical {
		return exitError(code)
	}
	return nil
}

func compare(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*divergence.Result, error) {
	source, sourceConn, err := adapter.Side(ctx, cfg.Source)
	if err != nil {
		return nil, errors.Wrap(err, "source")
	}
	defer sourceConn.Close()

	destination, destinationConn, err := adapter.Side(ctx, cfg.Destination)
	if err != nil {
		return nil, errors.Wrap(err, "destination")
	}
	defer destinationConn.Close()

	opts := []divergence.Option{divergence.WithLogger(logger)}
	if cfg.Tables.Active() {
		opts = append(opts, divergence.WithTableFilter(cfg.Tables.Keep))
	}
	if compareSequential {
		opts = append(opts, divergence.WithSequentialFetch())
	}
	if compareProgress {
		progress := newTableProgress(os.Stderr)
		defer progress.finish()
		opts = append(opts, divergence.WithProgress(progress.update))
	}

	return divergence.NewEngine(source, destination, opts...).Run(ctx)
}

func couldNotRun(logger *zap.Logger, err error) error {
	logger.Error("comparison could not run", zap.Error(err))
	fmt.Fprintf(os.Stderr, "comparison could not run: %v\n", err)
	return exitError(report.ExitFailed)
}

func writeReport(reporter report.Reporter, res *divergence.Result, fileName string) error {
	out, closeOut, err := openOutput(fileName)
	if err != nil {
		return err
	}
	if err := reporter.Report(out, res); err != nil {
		_ = closeOut()
		return errors.Wrap(err, "write report")
	}
	return errors.Wrap(closeOut(), "close report file")
}

var openOutput = func(fileName string) (io.Writer, func() error, error) {
	if fileName == "" {
		return os.Stdout, func() error { return nil }, nil
	}
	f, err := os.Create(fileName)
	if err != nil {
		return nil, nil, errors.Wrap(err, "create report file")
	}
	return f, f.Close, nil
}

// tableProgress draws a bar once the number of common tables is known.
type tableProgress struct {
	w   io.Writer
	bar *progressbar.ProgressBar
}

func newTableProgress(w io.Writer) *tableProgress {
	return &tableProgress{w: w}
}

func (p *tableProgress) update(done, total int) {
	if total == 0 {
		return
	}
	if p.bar == nil {
		p.bar = progressbar.NewOptions(total,
			progressbar.OptionSetWriter(p.w),
			progressbar.OptionSetDescription("comparing tables"),
			progressbar.OptionShowCount(),
			progressbar.OptionClearOnFinish(),
		)
	}
	_ = p.bar.Set(done)
}

func (p *tableProgress) finish() {
	if p.bar != nil {
		_ = p.bar.Finish()
	}
}
