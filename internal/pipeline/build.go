package pipeline

import (
	"github.com/zipwarden/zipwarden/internal/config"
	"github.com/zipwarden/zipwarden/internal/fetch"
	"github.com/zipwarden/zipwarden/internal/logging"
	"github.com/zipwarden/zipwarden/internal/logrotate"
	"github.com/zipwarden/zipwarden/internal/metrics"
	"github.com/zipwarden/zipwarden/internal/platform"
	"github.com/zipwarden/zipwarden/internal/updater"
)

// Components are the concrete collaborators built from a configuration.
type Components struct {
	Fetcher   *fetch.Client
	Oracle    *updater.Oracle
	Installer *updater.Installer
	Service   *updater.Service
	Rotator   *logrotate.Rotator
	Path      *platform.PathRegistrar
}

// Build wires every component from cfg. touch, when set, is called on
// download and extraction progress; rec, when set, counts fetch retries.
func Build(cfg *config.Config, touch func(), rec *metrics.Recorder) *Components {
	exe := cfg.Executable()
	prof := cfg.Profile

	f := fetch.New(prof.UserAgent, cfg.RequestTimeout, cfg.DownloadTimeout)
	f.Logger = logging.WithComponent("fetch")
	if rec != nil {
		f.OnRetry = rec.IncRetry
	}

	oracle := &updater.Oracle{
		Executable: exe,
		Profile:    prof,
		Fetcher:    f,
		Retry: fetch.RetryPolicy{
			MaxRetries:   cfg.MaxRetries,
			InitialDelay: cfg.RetryDelay,
			Timeout:      cfg.PageTimeout,
		},
		ProbeTimeout: cfg.ProbeTimeout,
		Logger:       logging.WithComponent("oracle"),
	}

	installLog := logging.WithComponent("installer")
	installer := &updater.Installer{
		Executable: exe,
		Profile:    prof,
		Progress:   progressLogger(installLog, "extracting", touch),
		Logger:     installLog,
	}

	svc := &updater.Service{
		Oracle:      oracle,
		Installer:   installer,
		Fetcher:     f,
		InstallDir:  cfg.InstallDir,
		DownloadDir: cfg.DownloadDir,
		StateDir:    cfg.StateDir,
		Progress:    progressLogger(f.Logger, "downloading", touch),
		Logger:      logging.WithComponent("updater"),
	}

	rot := logrotate.New(cfg.LogDir, prof.LogPrefix, cfg.MaxLogBytes, cfg.RetentionDays)
	rot.Logger = logging.WithComponent("logrotate")

	path := &platform.PathRegistrar{
		InstallDir: cfg.InstallDir,
		TagsDir:    cfg.TagsDir,
		Helper:     cfg.PathHelper,
		Shell:      cfg.PwshExe,
		Timeout:    cfg.PathHelperTimeout,
		Logger:     logging.WithComponent("path"),
	}

	return &Components{
		Fetcher:   f,
		Oracle:    oracle,
		Installer: installer,
		Service:   svc,
		Rotator:   rot,
		Path:      path,
	}
}

// Pipeline assembles the run pipeline from the components.
func (c *Components) Pipeline(cfg *config.Config, rec *metrics.Recorder) *Pipeline {
	return &Pipeline{
		Executable:  cfg.Executable(),
		Path:        c.Path,
		Logs:        c.Rotator,
		Updates:     c.Service,
		Metrics:     rec,
		MetricsFile: cfg.MetricsFile,
	}
}
