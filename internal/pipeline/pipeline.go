package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/zipwarden/zipwarden/internal/logging"
	"github.com/zipwarden/zipwarden/internal/logrotate"
	"github.com/zipwarden/zipwarden/internal/metrics"
	"github.com/zipwarden/zipwarden/internal/platform"
	"github.com/zipwarden/zipwarden/internal/updater"
	"github.com/zipwarden/zipwarden/internal/watchdog"
)

// Step names, in run order.
const (
	StepPathCheck   = "PathCheck"
	StepLogRotation = "LogRotation"
	StepUpdateCheck = "UpdateCheck"
)

// PathChecker verifies PATH registration.
type PathChecker interface {
	Ensure(ctx context.Context) platform.PathReport
}

// LogCleaner applies log retention and compression.
type LogCleaner interface {
	Cleanup() (*logrotate.CleanupReport, error)
}

// UpdateRunner runs the version check and installs updates.
type UpdateRunner interface {
	CheckAndUpdate(ctx context.Context) (*updater.Outcome, error)
}

// Pipeline holds the collaborators of one run.
type Pipeline struct {
	// Executable is the installed tool whose presence gates the run.
	Executable string
	Path       PathChecker
	Logs       LogCleaner
	Updates    UpdateRunner
	// Metrics and MetricsFile are optional.
	Metrics     *metrics.Recorder
	MetricsFile string
	Now         func() time.Time
}

// StepResult is the outcome of one step.
type StepResult struct {
	Name     string
	Duration time.Duration
	Err      error
}

// Result summarizes a run.
type Result struct {
	Steps   []StepResult
	Path    platform.PathReport
	Logs    *logrotate.CleanupReport
	Outcome *updater.Outcome
	Elapsed time.Duration
}

func (p *Pipeline) now() time.Time {
	if p.Now != nil {
		return p.Now()
	}
	return time.Now()
}

// HealthCheck fails with ErrPrecondition when the installed tool is missing.
func (p *Pipeline) HealthCheck() error {
	info, err := os.Stat(p.Executable)
	if err != nil {
		return fmt.Errorf("%w: %s not found: %w", updater.ErrPrecondition, p.Executable, err)
	}
	if info.IsDir() {
		return fmt.Errorf("%w: %s is a directory", updater.ErrPrecondition, p.Executable)
	}
	return nil
}

// Run executes the health check and the three steps in order. The first
// failure is reported, stops the run and is returned; a nil error means
// every step completed, which includes an update check that found nothing
// to install or failed to download.
func (p *Pipeline) Run(ctx context.Context) (*Result, error) {
	start := p.now()
	log := logging.FromContext(ctx).With("component", "pipeline")
	res := &Result{}

	err := p.run(ctx, log, res)

	res.Elapsed = p.now().Sub(start)
	if err != nil {
		log.Error("run aborted", "elapsed", res.Elapsed.Round(time.Millisecond))
	} else {
		log.Info("run complete", "elapsed", res.Elapsed.Round(time.Millisecond))
	}
	p.writeMetrics(log, err == nil)
	return res, err
}

func (p *Pipeline) run(ctx context.Context, log *slog.Logger, res *Result) error {
	if err := p.HealthCheck(); err != nil {
		Report(ctx, err, "health check")
		return err
	}
	log.Info("health check passed", "executable", p.Executable)

	steps := []struct {
		name string
		fn   func(context.Context) error
	}{
		{StepPathCheck, func(ctx context.Context) error {
			res.Path = p.Path.Ensure(ctx)
			return nil
		}},
		{StepLogRotation, func(context.Context) error {
			rep, err := p.Logs.Cleanup()
			if err != nil {
				return err
			}
			res.Logs = rep
			if p.Metrics != nil {
				p.Metrics.AddSegments("compressed", len(rep.Compressed))
				p.Metrics.AddSegments("deleted", len(rep.Deleted))
			}
			log.Info("log cleanup done", "compressed", len(rep.Compressed), "deleted", len(rep.Deleted), "kept", rep.Kept)
			return nil
		}},
		{StepUpdateCheck, func(ctx context.Context) error {
			out, err := p.Updates.CheckAndUpdate(ctx)
			if err != nil {
				return err
			}
			res.Outcome = out
			p.recordOutcome(ctx, log, out)
			return nil
		}},
	}

	for _, s := range steps {
		if err := stepContextErr(ctx); err != nil {
			Report(ctx, err, s.name)
			return err
		}
		log.Info("step started", "step", s.name)
		t0 := p.now()
		err := s.fn(ctx)
		if err == nil {
			err = stepContextErr(ctx)
		}
		d := p.now().Sub(t0)
		res.Steps = append(res.Steps, StepResult{Name: s.name, Duration: d, Err: err})
		if p.Metrics != nil {
			p.Metrics.ObserveStep(s.name, d)
		}
		if err != nil {
			Report(ctx, err, s.name)
			return fmt.Errorf("%s: %w", s.name, err)
		}
		log.Info("step finished", "step", s.name, "duration", d.Round(time.Millisecond))
	}
	return nil
}

// stepContextErr returns the cancellation cause when ctx is done, so an idle
// timeout surfaces as watchdog.ErrIdle.
func stepContextErr(ctx context.Context) error {
	if ctx.Err() == nil {
		return nil
	}
	cause := context.Cause(ctx)
	if errors.Is(cause, watchdog.ErrIdle) {
		return fmt.Errorf("cancelled: %w", cause)
	}
	return ctx.Err()
}

func (p *Pipeline) recordOutcome(ctx context.Context, log *slog.Logger, out *updater.Outcome) {
	if out == nil {
		return
	}
	current := out.Installed
	if out.Action == updater.ActionUpdated {
		current = out.NewInstalled
	}
	if p.Metrics != nil {
		p.Metrics.SetInstalledVersion(current.String())
	}
	switch out.Action {
	case updater.ActionDownloadFailed, updater.ActionInstallFailed:
		// The next run retries; this run still counts as complete.
		Report(ctx, out.Err, string(out.Action))
	case updater.ActionNoInfo:
		log.Warn("no update information available", "error", out.Err)
	case updater.ActionUpdated:
		if out.Merge == nil {
			return
		}
		for _, f := range out.Merge.Failed {
			Report(ctx, f.Err, "merge "+f.Name)
		}
	}
}

func (p *Pipeline) writeMetrics(log *slog.Logger, success bool) {
	if p.Metrics == nil {
		return
	}
	p.Metrics.Finish(success, p.now())
	if p.MetricsFile == "" {
		return
	}
	if err := p.Metrics.WriteFile(p.MetricsFile); err != nil {
		log.Warn("could not write metrics file", "path", p.MetricsFile, "error", err)
	}
}
