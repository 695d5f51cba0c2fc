package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"go.uber.org/zap"

	"github.com/benny2744/capstone-status/internal/batch"
	"github.com/benny2744/capstone-status/internal/cache"
	"github.com/benny2744/capstone-status/internal/config"
	"github.com/benny2744/capstone-status/internal/logging"
	"github.com/benny2744/capstone-status/internal/mcp"
	"github.com/benny2744/capstone-status/internal/pdf/security"
	"github.com/benny2744/capstone-status/internal/report"
)

var (
	version   = "dev"     // This will be set by build flags
	buildTime = "unknown" // This will be set by build flags
	gitCommit = "unknown" // This will be set by build flags
)

// runBatchMode decodes the reports directory once and writes the output file
func runBatchMode(ctx context.Context, cfg *config.Config, proc *batch.Processor, logger *zap.Logger) error {
	summary, err := proc.ProcessDirectory(ctx, cfg.ReportDirectory, cfg.Pattern)
	if err != nil {
		return err
	}

	for _, f := range summary.Failures {
		logger.Error("report failed", zap.String("path", f.Path), zap.String("error", f.Error))
	}
	for _, path := range summary.Skipped {
		logger.Warn("report skipped, file name does not identify a student", zap.String("path", path))
	}

	store := report.NewStore(cfg.OutputFile)
	if err := store.Write(summary.Students); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	logger.Info("batch complete",
		zap.String("output", store.Path()),
		zap.Int("documents", summary.Documents),
		zap.Int("succeeded", summary.Succeeded),
		zap.Int("cached", summary.Cached),
		zap.Int("students", len(summary.Students)),
		zap.Int("courses", summary.Courses),
		zap.Int("defaulted_grades", summary.DefaultedGrades),
		zap.Int("skipped", len(summary.Skipped)),
		zap.Int("failed", len(summary.Failures)),
	)
	if summary.Cancelled {
		return fmt.Errorf("interrupted before every report was processed: %w", context.Cause(ctx))
	}
	return nil
}

// runStdioMode serves the decode tools until the client closes stdin
func runStdioMode(ctx context.Context, cfg *config.Config, proc *batch.Processor, logger *zap.Logger) error {
	paths, err := security.NewPathValidator(cfg.ReportDirectory)
	if err != nil {
		return err
	}
	server, err := mcp.NewServer(cfg, proc, paths, logger)
	if err != nil {
		return fmt.Errorf("failed to create MCP server: %w", err)
	}
	return server.Run(ctx)
}

func main() {
	// Check for version flag before parsing other flags
	for _, arg := range os.Args[1:] {
		if arg == "-version" || arg == "--version" || arg == "-v" {
			printVersion()
			return
		}
	}

	cfg, err := config.LoadFromFlags()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(2)
	}

	// Set version if it was provided during build
	if version != "dev" {
		cfg.Version = version
	}

	logger, err := logging.New(cfg.LogLevel, cfg.IsStdioMode())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		os.Exit(2)
	}
	code := run(cfg, logger)
	_ = logger.Sync()
	if code != 0 {
		os.Exit(code)
	}
}

// run wires the cache and processor and runs the configured mode. It
// returns the process exit code so deferred cleanup completes first.
func run(cfg *config.Config, logger *zap.Logger) int {
	logger.Debug("starting", zap.String("config", cfg.String()))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store := cache.Open(ctx, cfg.Redis, logger)
	defer func() { _ = store.Close() }()

	proc, err := batch.NewProcessor(cfg.DecoderParams(), batch.Options{
		Workers:      cfg.Workers,
		MaxFileSize:  cfg.MaxFileSize,
		DefaultGrade: cfg.DefaultGrade,
		Summaries:    cfg.Summaries,
	}, store, logger)
	if err != nil {
		logger.Error("invalid decoder configuration", zap.Error(err))
		return 2
	}

	if cfg.IsStdioMode() {
		err = runStdioMode(ctx, cfg, proc, logger)
	} else {
		err = runBatchMode(ctx, cfg, proc, logger)
	}
	if err != nil {
		logger.Error("run failed", zap.Error(err))
		return 1
	}
	return 0
}

// printVersion prints version information
func printVersion() {
	fmt.Printf("Grade Extract\n")
	fmt.Printf("Version: %s\n", version)
	fmt.Printf("Build Time: %s\n", buildTime)
	fmt.Printf("Git Commit: %s\n", gitCommit)
	fmt.Printf("Built with: %s\n", runtime.Version())
}
