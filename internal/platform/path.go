package platform

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"
)

// PathEntry reports whether one directory is registered on PATH.
type PathEntry struct {
	Label      string
	Dir        string
	Registered bool
}

// PathReport is the result of a PATH verification.
type PathReport struct {
	Entries       []PathEntry
	HelperInvoked bool
	HelperErr     error
}

// PathRegistrar verifies that the install directory is on PATH and, when it
// is not, runs an elevated helper script and waits for it.
type PathRegistrar struct {
	InstallDir string
	TagsDir    string
	Helper     string        // helper script; registration is skipped when missing
	Shell      string        // pwsh executable used on Windows
	Timeout    time.Duration // bound on the helper run

	// Lookup returns the PATH value to check. Defaults to CurrentPath.
	Lookup func() string
	Logger *slog.Logger
}

// CurrentPath returns the process PATH joined with the persistent machine and
// user PATH on Windows, so a directory registered after this terminal was
// opened still counts as registered.
func CurrentPath() string {
	return JoinPathLists(append([]string{os.Getenv("PATH")}, persistentPath()...)...)
}

// JoinPathLists joins PATH values with the list separator, skipping empty
// ones.
func JoinPathLists(values ...string) string {
	var parts []string
	for _, v := range values {
		if v = strings.Trim(v, string(os.PathListSeparator)); v != "" {
			parts = append(parts, v)
		}
	}
	return strings.Join(parts, string(os.PathListSeparator))
}

// Entries splits a PATH value into normalized directory entries.
func Entries(pathValue string) []string {
	var out []string
	for _, e := range strings.Split(pathValue, string(os.PathListSeparator)) {
		e = strings.TrimSpace(e)
		if e == "" {
			continue
		}
		out = append(out, normalizeDir(e))
	}
	return out
}

func normalizeDir(dir string) string {
	dir = strings.TrimRight(filepath.Clean(dir), `\/`)
	if IsWindows() {
		dir = strings.ToLower(dir)
	}
	return dir
}

// Contains reports whether dir is one of the PATH entries.
func Contains(entries []string, dir string) bool {
	want := normalizeDir(dir)
	for _, e := range entries {
		if e == want {
			return true
		}
	}
	return false
}

// Ensure checks PATH registration and invokes the helper when the install
// directory is missing. Helper problems are reported, never returned: PATH
// registration does not gate the rest of the run.
func (r *PathRegistrar) Ensure(ctx context.Context) PathReport {
	log := r.logger()
	lookup := r.Lookup
	if lookup == nil {
		lookup = CurrentPath
	}
	entries := Entries(lookup())

	report := PathReport{}
	if r.TagsDir != "" {
		report.Entries = append(report.Entries, PathEntry{Label: "tags", Dir: r.TagsDir, Registered: Contains(entries, r.TagsDir)})
	}
	installed := Contains(entries, r.InstallDir)
	report.Entries = append(report.Entries, PathEntry{Label: "install", Dir: r.InstallDir, Registered: installed})

	for _, e := range report.Entries {
		log.Info("path registration", "entry", e.Label, "dir", e.Dir, "registered", e.Registered)
	}
	if installed {
		return report
	}

	if r.Helper == "" {
		log.Warn("install dir not on PATH and no helper configured", "dir", r.InstallDir)
		return report
	}
	if _, err := os.Stat(r.Helper); err != nil {
		log.Warn("path helper not found, skipping registration", "helper", r.Helper)
		return report
	}

	log.Info("install dir missing from PATH, running helper", "helper", r.Helper)
	report.HelperInvoked = true
	report.HelperErr = r.runHelper(ctx)
	if report.HelperErr != nil {
		log.Warn("path helper failed", "helper", r.Helper, "error", report.HelperErr)
		return report
	}
	log.Info("PATH updated; restart the terminal to pick it up")
	return report
}

func (r *PathRegistrar) runHelper(ctx context.Context) error {
	timeout := r.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	argv := r.helperCommand()
	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	out, err := cmd.CombinedOutput()
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("helper timed out after %s", timeout)
	}
	if err != nil {
		return fmt.Errorf("helper: %w: %s", err, strings.TrimSpace(string(out)))
	}
	return nil
}

// helperCommand builds the argv used to run the helper. On Windows the
// helper is a PowerShell script started elevated through Start-Process.
func (r *PathRegistrar) helperCommand() []string {
	if !IsWindows() {
		return []string{r.Helper, "-AutoClose"}
	}
	shell := r.Shell
	if shell == "" {
		shell = "pwsh"
	} else if _, err := os.Stat(shell); err != nil {
		shell = "pwsh"
	}
	inner := fmt.Sprintf(`Start-Process '%s' -Verb RunAs -Wait -ArgumentList '-NoProfile -ExecutionPolicy Bypass -File "%s" -AutoClose'`, shell, r.Helper)
	return []string{shell, "-NoProfile", "-Command", inner}
}

func (r *PathRegistrar) logger() *slog.Logger {
	if r.Logger != nil {
		return r.Logger
	}
	return slog.Default()
}
