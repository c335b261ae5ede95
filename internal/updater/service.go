package updater

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"time"

	"github.com/zipwarden/zipwarden/internal/fetch"
)

// Action is what an update check decided.
type Action string

const (
	ActionUpToDate       Action = "up-to-date"
	ActionNoInfo         Action = "no-info"
	ActionUpdated        Action = "updated"
	ActionDownloadFailed Action = "download-failed"
	ActionInstallFailed  Action = "install-failed"
	ActionAvailable      Action = "update-available"
)

// Outcome describes one pass of the update pipeline.
type Outcome struct {
	Installed    Version
	Probe        ProbeStatus
	Latest       Version
	DownloadURL  string
	Action       Action
	NewInstalled Version
	Merge        *MergeReport
	// Err is the recoverable failure behind no-info, download-failed and
	// install-failed.
	Err error
}

// Service runs update checks against one install directory.
type Service struct {
	Oracle      *Oracle
	Installer   *Installer
	Fetcher     *fetch.Client
	InstallDir  string
	DownloadDir string
	// StateDir holds the check cache; empty disables it.
	StateDir string
	// Progress receives download percentages.
	Progress fetch.ProgressFunc
	Now      func() time.Time
	Logger   *slog.Logger
}

func (s *Service) log() *slog.Logger {
	if s.Logger != nil {
		return s.Logger
	}
	return slog.Default()
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// Check compares installed and latest without downloading. The returned
// error is non-nil only when ctx is done; recoverable failures are carried
// in the outcome.
func (s *Service) Check(ctx context.Context) (*Outcome, error) {
	probe := s.Oracle.ProbeInstalled(ctx)
	out := &Outcome{Installed: Unknown, Probe: probe.Status}
	if probe.Status == ProbeOK {
		out.Installed = probe.Version
	} else {
		s.log().Warn("installed version unknown", "status", probe.Status, "error", probe.Err)
	}
	s.log().Info("installed version", "version", out.Installed)

	rel, err := s.Oracle.LatestRelease(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return nil, err
		}
		s.log().Warn("could not determine latest version, skipping update", "error", err)
		out.Action = ActionNoInfo
		out.Err = err
		s.saveCache(out)
		return out, nil
	}
	out.Latest = rel.Version
	out.DownloadURL = rel.DownloadURL

	if IsUpdateAvailable(out.Installed, out.Latest) {
		out.Action = ActionAvailable
	} else {
		out.Action = ActionUpToDate
	}
	s.saveCache(out)
	return out, nil
}

// CheckAndUpdate runs Check and, when the latest version is newer (or the
// installed one is unknown), downloads and installs it. Download and install
// failures are recorded in the outcome, never returned; the install dir is
// left as it was when extraction fails.
func (s *Service) CheckAndUpdate(ctx context.Context) (*Outcome, error) {
	out, err := s.Check(ctx)
	if err != nil {
		return nil, err
	}
	if out.Action != ActionAvailable {
		if out.Action == ActionUpToDate {
			s.log().Info("already up to date", "installed", out.Installed, "latest", out.Latest)
		}
		return out, nil
	}

	if out.Installed.IsUnknown() {
		s.log().Info("installing latest version", "latest", out.Latest)
	} else {
		s.log().Info("update available", "installed", out.Installed, "latest", out.Latest)
	}

	archive, err := s.download(ctx, out.DownloadURL)
	if err != nil {
		if ctx.Err() != nil {
			return nil, err
		}
		s.log().Error("download failed", "url", out.DownloadURL, "error", err)
		out.Action = ActionDownloadFailed
		out.Err = err
		s.saveCache(out)
		return out, nil
	}
	defer s.removeArchive(archive)

	rep, err := s.Installer.Install(ctx, archive, s.InstallDir)
	if err != nil {
		if ctx.Err() != nil {
			return nil, err
		}
		s.log().Error("install failed", "archive", archive, "error", err)
		out.Action = ActionInstallFailed
		out.Err = err
		s.saveCache(out)
		return out, nil
	}
	out.Merge = rep

	out.NewInstalled = s.Oracle.InstalledVersion(ctx)
	out.Action = ActionUpdated
	s.log().Info("update installed", "from", out.Installed, "to", out.NewInstalled, "failed_entries", len(rep.Failed))
	if !out.NewInstalled.Equal(out.Latest) {
		s.log().Warn("installed version differs from the downloaded release", "expected", out.Latest, "found", out.NewInstalled)
	}
	s.saveCache(out)
	return out, nil
}

func (s *Service) download(ctx context.Context, rawURL string) (string, error) {
	if err := os.MkdirAll(s.DownloadDir, 0755); err != nil {
		return "", fmt.Errorf("%w: creating download directory: %w", ErrFileSystem, err)
	}
	name := path.Base(rawURL)
	if name == "." || name == "/" || name == "" {
		name = "update.archive"
	}
	dest := filepath.Join(s.DownloadDir, name)

	s.log().Info("downloading", "url", rawURL, "to", dest)
	if _, err := s.Fetcher.Download(ctx, rawURL, dest, s.Progress); err != nil {
		s.removeArchive(dest)
		return "", err
	}
	return dest, nil
}

func (s *Service) removeArchive(p string) {
	if err := os.Remove(p); err != nil && !errors.Is(err, os.ErrNotExist) {
		s.log().Warn("could not remove downloaded archive", "path", p, "error", err)
	}
}

func (s *Service) saveCache(out *Outcome) {
	if s.StateDir == "" {
		return
	}
	current := out.Installed
	if out.Action == ActionUpdated {
		current = out.NewInstalled
	}
	cache := &VersionCache{
		LatestVersion:   out.Latest.String(),
		CurrentVersion:  current.String(),
		CheckedAt:       s.now(),
		UpdateAvailable: IsUpdateAvailable(current, out.Latest),
		Action:          string(out.Action),
	}
	if out.Latest.IsUnknown() {
		cache.LatestVersion = ""
	}
	if err := SaveCache(s.StateDir, cache); err != nil {
		s.log().Warn("could not save version cache", "error", err)
	}
}
