package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/zipwarden/zipwarden/internal/config"
	"github.com/zipwarden/zipwarden/internal/logging"
	"github.com/zipwarden/zipwarden/internal/logrotate"
	"github.com/zipwarden/zipwarden/internal/metrics"
	"github.com/zipwarden/zipwarden/internal/pipeline"
	"github.com/zipwarden/zipwarden/internal/watchdog"
)

// session is the per-command runtime: configuration, logging, watchdog and
// the wired components.
type session struct {
	cfg   *config.Config
	wd    *watchdog.Watchdog
	rec   *metrics.Recorder
	comps *pipeline.Components
	ctx   context.Context
	log   *slog.Logger
}

type sessionOptions struct {
	// logToFile rotates the active segment and appends to it.
	logToFile bool
	// watch arms the inactivity watchdog with IDLE_TIMEOUT.
	watch bool
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(config.LoadOptions{EnvFile: envFile})
	if err != nil {
		return nil, fmt.Errorf("loading configuration: %w", err)
	}
	return cfg, nil
}

func startSession(cmd *cobra.Command, opts sessionOptions) (*session, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	level := cfg.LogLevel
	if logLevel != "" {
		level = logLevel
	}

	rec := metrics.New()

	// Size rotation runs before the logger opens the active segment. When it
	// fails the run stops with the console as the only log sink.
	var rotated string
	var rotateErr error
	logFile := ""
	if opts.logToFile {
		rot := logrotate.New(cfg.LogDir, cfg.Profile.LogPrefix, cfg.MaxLogBytes, cfg.RetentionDays)
		rot.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
		rotated, rotateErr = rot.Rotate()
		if rotateErr == nil {
			logFile = rot.ActivePath()
		}
	}

	idle := time.Duration(0)
	if opts.watch {
		idle = cfg.IdleTimeout
	}
	wd := watchdog.Start(cmd.Context(), idle)

	if err := logging.Setup(logging.Config{Level: level, File: logFile, Activity: wd.Touch}); err != nil {
		wd.Stop()
		return nil, err
	}
	log := logging.Default()
	ctx := logging.WithContext(wd.Context(), log)

	if rotateErr != nil {
		pipeline.Report(ctx, rotateErr, pipeline.StepLogRotation)
		wd.Stop()
		_ = logging.Close()
		return nil, fmt.Errorf("%s: %w", pipeline.StepLogRotation, rotateErr)
	}
	if rotated != "" {
		rec.AddSegments("rotated", 1)
		log.Info("active log segment rotated", "component", "logrotate", "to", rotated)
	}
	if cfg.EnvFile != "" {
		log.Debug("configuration overrides loaded", "file", cfg.EnvFile)
	}

	return &session{
		cfg:   cfg,
		wd:    wd,
		rec:   rec,
		comps: pipeline.Build(cfg, wd.Touch, rec),
		ctx:   ctx,
		log:   log,
	}, nil
}

// close stops the watchdog, closes the log file and holds the console
// open for --hold.
func (s *session) close() {
	s.wd.Stop()
	if err := logging.Close(); err != nil {
		fmt.Fprintf(os.Stderr, "closing log file: %v\n", err)
	}
	hold(os.Stderr, holdFor, time.Sleep)
}

// hold counts down d in whole seconds.
func hold(w io.Writer, d time.Duration, sleep func(time.Duration)) {
	for left := int(d.Round(time.Second) / time.Second); left > 0; left-- {
		fmt.Fprintf(w, "\rClosing in %d s... ", left)
		sleep(time.Second)
	}
	if d >= time.Second {
		fmt.Fprintln(w)
	}
}
