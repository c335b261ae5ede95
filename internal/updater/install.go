package updater

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/zipwarden/zipwarden/internal/platform"
	"github.com/zipwarden/zipwarden/internal/profile"
)

const stagingPrefix = "zipwarden_update_"

var percentToken = regexp.MustCompile(`(?:^|\s)(\d{1,3})%`)

// Installer extracts archives with the installed tool and merges the result
// into the install directory.
type Installer struct {
	// Executable is the installed tool used as the extractor.
	Executable string
	Profile    *profile.Profile
	// Progress receives the extraction percentage each time it changes.
	Progress func(percent int)
	Logger   *slog.Logger
}

// MergeFailure is one top-level entry that could not be copied.
type MergeFailure struct {
	Name string
	Err  error
}

// MergeReport lists the outcome of a merge.
type MergeReport struct {
	Copied []string
	Failed []MergeFailure
}

func (i *Installer) log() *slog.Logger {
	if i.Logger != nil {
		return i.Logger
	}
	return slog.Default()
}

// Install extracts archive into a fresh staging directory next to
// targetDir and, only if extraction succeeded, merges the staged entries
// into targetDir. The staging directory is removed on every path. Extraction
// never writes into targetDir directly: the running tool may be the file
// being replaced.
func (i *Installer) Install(ctx context.Context, archive, targetDir string) (*MergeReport, error) {
	parent := filepath.Dir(filepath.Clean(targetDir))
	if err := os.MkdirAll(parent, 0755); err != nil {
		return nil, fmt.Errorf("%w: preparing %s: %w", ErrFileSystem, parent, err)
	}
	staging, err := os.MkdirTemp(parent, stagingPrefix)
	if err != nil {
		return nil, fmt.Errorf("%w: creating staging directory: %w", ErrFileSystem, err)
	}
	defer i.removeStaging(staging)

	if err := i.Extract(ctx, archive, staging); err != nil {
		return nil, err
	}

	if err := os.MkdirAll(targetDir, 0755); err != nil {
		return nil, fmt.Errorf("%w: creating %s: %w", ErrFileSystem, targetDir, err)
	}
	rep, err := MergeStaged(staging, targetDir, i.log())
	if err != nil {
		return nil, err
	}
	return rep, nil
}

func (i *Installer) removeStaging(dir string) {
	if err := os.RemoveAll(dir); err != nil {
		i.log().Warn("could not remove staging directory", "dir", dir, "error", err)
		return
	}
	i.log().Debug("staging directory removed", "dir", dir)
}

// Extract runs the installed tool to unpack archive into dest, streaming
// its output for percentage progress. A non-zero exit yields an
// *ExtractionError.
func (i *Installer) Extract(ctx context.Context, archive, dest string) error {
	args := i.Profile.ExtractCommandArgs(archive, dest)
	cmd := exec.CommandContext(ctx, i.Executable, args...)
	out, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrExtraction, err)
	}
	cmd.Stderr = cmd.Stdout

	i.log().Info("extracting archive", "archive", archive, "staging", dest)
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("%w: starting %s: %w", ErrExtraction, i.Executable, err)
	}

	tail := i.scanOutput(out)

	if err := cmd.Wait(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return &ExtractionError{ExitCode: exitErr.ExitCode(), Output: tail}
		}
		return fmt.Errorf("%w: %w", ErrExtraction, err)
	}
	return nil
}

// scanOutput reads the extractor output to EOF, reporting progress and
// returning the last few non-progress lines.
func (i *Installer) scanOutput(r io.Reader) string {
	const keep = 5
	var lines []string
	last := -1

	sc := bufio.NewScanner(r)
	sc.Split(splitProgress)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		if m := percentToken.FindStringSubmatch(line); m != nil {
			if p, err := strconv.Atoi(m[1]); err == nil && p <= 100 && p != last {
				last = p
				if i.Progress != nil {
					i.Progress(p)
				}
			}
			continue
		}
		i.log().Debug("extractor output", "line", line)
		lines = append(lines, line)
		if len(lines) > keep {
			lines = lines[1:]
		}
	}
	// Drain whatever the scanner left so the child never blocks on write.
	_, _ = io.Copy(io.Discard, r)
	return strings.Join(lines, "; ")
}

// splitProgress splits on newlines, carriage returns and backspaces, which
// progress-printing tools use to redraw a line.
func splitProgress(data []byte, atEOF bool) (int, []byte, error) {
	if atEOF && len(data) == 0 {
		return 0, nil, nil
	}
	if i := bytes.IndexAny(data, "\r\n\b"); i >= 0 {
		return i + 1, data[:i], nil
	}
	if atEOF {
		return len(data), data, nil
	}
	return 0, nil, nil
}

// MergeStaged copies every top-level entry of staging into target. Files
// overwrite same-named files; directories replace same-named directories
// wholesale. A failing entry is logged and skipped. The returned error is
// non-nil only when staging itself cannot be read.
func MergeStaged(staging, target string, log *slog.Logger) (*MergeReport, error) {
	if log == nil {
		log = slog.Default()
	}
	entries, err := os.ReadDir(staging)
	if err != nil {
		return nil, fmt.Errorf("%w: reading staging directory: %w", ErrFileSystem, err)
	}

	rep := &MergeReport{}
	for _, e := range entries {
		src := filepath.Join(staging, e.Name())
		dst := filepath.Join(target, e.Name())

		var err error
		if e.IsDir() {
			err = replaceDir(src, dst)
		} else {
			err = copyFile(src, dst)
		}
		if err != nil {
			log.Warn("could not update entry, skipping", "entry", e.Name(), "error", err)
			rep.Failed = append(rep.Failed, MergeFailure{Name: e.Name(), Err: fmt.Errorf("%w: %w", ErrFileSystem, err)})
			continue
		}
		rep.Copied = append(rep.Copied, e.Name())
	}
	log.Info("staged files merged", "copied", len(rep.Copied), "failed", len(rep.Failed))
	return rep, nil
}

func replaceDir(src, dst string) error {
	if err := os.RemoveAll(dst); err != nil {
		return fmt.Errorf("removing %s: %w", dst, err)
	}
	return copyDir(src, dst)
}

// copyDir recursively copies src to dst.
func copyDir(src, dst string) error {
	srcInfo, err := os.Stat(src)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(dst, srcInfo.Mode().Perm()); err != nil {
		return err
	}

	entries, err := os.ReadDir(src)
	if err != nil {
		return err
	}
	for _, entry := range entries {
		srcPath := filepath.Join(src, entry.Name())
		dstPath := filepath.Join(dst, entry.Name())

		switch {
		case entry.IsDir():
			if err := copyDir(srcPath, dstPath); err != nil {
				return err
			}
		case entry.Type().IsRegular():
			if err := copyFile(srcPath, dstPath); err != nil {
				return err
			}
		}
		// Symlinks and special files are not part of release archives.
	}
	return nil
}

// copyFile copies src over dst, keeping the source mode and mtime.
func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return err
	}

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, info.Mode().Perm())
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	if err := out.Close(); err != nil {
		return err
	}

	if err := platform.Chmod(dst, info.Mode().Perm()); err != nil {
		return err
	}
	return os.Chtimes(dst, info.ModTime(), info.ModTime())
}
