package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/ligustah/widevine-fetch/internal/config"
	"github.com/ligustah/widevine-fetch/internal/downloader"
	"github.com/ligustah/widevine-fetch/internal/install"
	"github.com/ligustah/widevine-fetch/internal/logger"
	"github.com/ligustah/widevine-fetch/internal/staging"
)

// Exit codes
const (
	ExitSuccess            = 0
	ExitGeneralError       = 1
	ExitInvalidArgs        = 2
	ExitTransportError     = 3
	ExitMissingSize        = 4
	ExitIncompleteTransfer = 5
	ExitWriteError         = 6
	ExitInstallFailed      = 7
	ExitChromiumMissing    = 8
)

func main() {
	os.Exit(run(os.Args[1:]))
}

// env holds what run wires into the pipeline, so tests can replace it.
type env struct {
	stdout io.Writer
	stderr io.Writer
	runner install.Runner
}

func run(args []string) int {
	return runWith(args, env{
		stdout: os.Stdout,
		stderr: os.Stderr,
		runner: install.ExecRunner{},
	})
}

func runWith(args []string, e env) int {
	fs := flag.NewFlagSet("widevine-fetch", flag.ContinueOnError)
	fs.SetOutput(e.stderr)

	configPath := fs.String("config", "", "Path to YAML configuration file")
	url := fs.String("url", "", "Image URL (default: stable universal Chrome image)")
	stagingPath := fs.String("staging", "", "Where to stage the downloaded image (default: "+config.DefaultStagingPath+")")
	interval := fs.Duration("progress-interval", 0, "How often to print progress (default: 1s)")
	skipInstall := fs.Bool("skip-install", false, "Only download and stage the image")
	keep := fs.Bool("keep", false, "Keep the staged image after installing")
	logLevel := fs.String("log-level", "", "Log level: debug, info, warn, error")
	logFormat := fs.String("log-format", "", "Log format: console or json")

	fs.Usage = func() {
		fmt.Fprintln(e.stderr, `Usage: widevine-fetch [options]

Download the Google Chrome disk image, then copy its Widevine CDM into the
local Chromium install. A staged image of the right size is reused.

Options:`)
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return ExitSuccess
		}
		return ExitInvalidArgs
	}

	cfg := config.Default()
	if *configPath != "" {
		var err error
		cfg, err = config.LoadFromFile(*configPath)
		if err != nil {
			fmt.Fprintf(e.stderr, "Error: %v\n", err)
			return ExitInvalidArgs
		}
	}
	if err := cfg.LoadFromEnv(); err != nil {
		fmt.Fprintf(e.stderr, "Error: %v\n", err)
		return ExitInvalidArgs
	}
	cfg = cfg.Merge(config.Config{
		URL:              *url,
		StagingPath:      *stagingPath,
		ProgressInterval: *interval,
		SkipInstall:      *skipInstall,
		KeepImage:        *keep,
		Logging:          config.LoggingConfig{Level: *logLevel, Format: *logFormat},
	})
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(e.stderr, "Error: %v\n", err)
		return ExitInvalidArgs
	}

	log, err := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	if err != nil {
		fmt.Fprintf(e.stderr, "Error: %v\n", err)
		return ExitInvalidArgs
	}
	defer log.Sync()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		select {
		case <-sigCh:
			fmt.Fprintln(e.stderr, "\n[widevine-fetch] Received interrupt, shutting down...")
			cancel()
		case <-ctx.Done():
		}
	}()

	if err := execute(ctx, cfg, log, e); err != nil {
		fmt.Fprintf(e.stderr, "Error: %v\n", err)
		return exitCode(err)
	}
	return ExitSuccess
}

// execute runs the whole pipeline: check the target, download and stage the
// image, then install from it.
func execute(ctx context.Context, cfg config.Config, log *zap.Logger, e env) error {
	start := time.Now()

	if !cfg.SkipInstall {
		if err := install.CheckTarget(cfg.Install.LibrariesPath); err != nil {
			return err
		}
	}

	stage, err := staging.Open(cfg.StagingPath)
	if err != nil {
		return &downloader.WriteError{Path: cfg.StagingPath, Err: err}
	}
	defer stage.Close()

	res, err := downloader.Download(ctx, downloader.Options{
		URL:              cfg.URL,
		Stage:            stage,
		Output:           e.stdout,
		ProgressInterval: cfg.ProgressInterval,
		Logger:           log,
	})
	if err != nil {
		return err
	}

	if cfg.SkipInstall {
		log.Info("image staged, skipping install",
			zap.String("path", res.Path),
			zap.Uint64("size", res.Size),
			zap.Bool("reused", res.Reused))
		return nil
	}

	if err := install.Install(ctx, stage, install.Options{
		MountPoint: cfg.Install.MountPoint,
		SourcePath: cfg.Install.SourcePath,
		DestPath:   cfg.DestPath(),
		Runner:     e.runner,
		Output:     e.stdout,
		Logger:     log,
		KeepImage:  cfg.KeepImage,
	}); err != nil {
		return err
	}

	log.Info("widevine installed",
		zap.String("dest", cfg.DestPath()),
		zap.Duration("elapsed", time.Since(start)))
	return nil
}

// exitCode maps an error from execute to a process exit code.
func exitCode(err error) int {
	var (
		transport  *downloader.TransportError
		missing    *downloader.MissingSizeError
		incomplete *downloader.IncompleteTransferError
		writeErr   *downloader.WriteError
		stepErr    *install.StepError
	)

	switch {
	case errors.Is(err, install.ErrChromiumNotInstalled):
		return ExitChromiumMissing
	case errors.As(err, &missing):
		return ExitMissingSize
	case errors.As(err, &incomplete):
		return ExitIncompleteTransfer
	case errors.As(err, &transport):
		return ExitTransportError
	case errors.As(err, &writeErr):
		return ExitWriteError
	case errors.As(err, &stepErr):
		return ExitInstallFailed
	default:
		return ExitGeneralError
	}
}
