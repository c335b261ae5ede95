package logrotate

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

const (
	// DefaultMaxBytes is the size above which the active segment rotates.
	DefaultMaxBytes int64 = 50 * 1024 * 1024
	// DefaultRetentionDays is how many days of segments are kept.
	DefaultRetentionDays = 7
)

// Rotator manages the segments of one prefix in one directory. It is the
// only writer of the log directory besides the logger appending to the
// active segment.
type Rotator struct {
	Dir           string
	MaxBytes      int64
	RetentionDays int

	// Now returns the current time; its calendar date is "today".
	Now func() time.Time
	// Compress writes src gzip-compressed to dst.
	Compress func(src, dst string) error
	Logger   *slog.Logger

	naming Naming
}

// New returns a rotator with the default clock and gzip compression.
func New(dir, prefix string, maxBytes int64, retentionDays int) *Rotator {
	return &Rotator{
		Dir:           dir,
		MaxBytes:      maxBytes,
		RetentionDays: retentionDays,
		Now:           time.Now,
		Compress:      gzipFile,
		naming:        NewNaming(prefix),
	}
}

func (r *Rotator) today() time.Time {
	now := time.Now
	if r.Now != nil {
		now = r.Now
	}
	return civilDate(now())
}

func (r *Rotator) log() *slog.Logger {
	if r.Logger != nil {
		return r.Logger
	}
	return slog.Default()
}

// ActivePath returns the path of today's active segment.
func (r *Rotator) ActivePath() string {
	return filepath.Join(r.Dir, r.naming.Name(r.today(), 0, false))
}

// Rotate renames the active segment to the next free part file when it is
// larger than MaxBytes. It returns the new part path, or "" when nothing was
// rotated. Call it before the logger opens the active segment.
func (r *Rotator) Rotate() (string, error) {
	if err := os.MkdirAll(r.Dir, 0755); err != nil {
		return "", fmt.Errorf("creating log directory: %w", err)
	}
	active := r.ActivePath()
	info, err := os.Stat(active)
	if errors.Is(err, fs.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("checking active segment: %w", err)
	}
	if info.Size() <= r.MaxBytes {
		return "", nil
	}

	today := r.today()
	part := 2
	for r.exists(today, part) {
		part++
	}
	dst := filepath.Join(r.Dir, r.naming.Name(today, part, false))
	if err := os.Rename(active, dst); err != nil {
		return "", fmt.Errorf("rotating %s: %w", filepath.Base(active), err)
	}
	r.log().Info("log segment rotated", "from", filepath.Base(active), "to", filepath.Base(dst), "size", info.Size())
	return dst, nil
}

// exists reports whether part index part is taken for date, in either form.
func (r *Rotator) exists(date time.Time, part int) bool {
	for _, compressed := range []bool{false, true} {
		if _, err := os.Lstat(filepath.Join(r.Dir, r.naming.Name(date, part, compressed))); err == nil {
			return true
		}
	}
	return false
}

// Segments lists the recognized segments in the directory, oldest first.
// A missing directory yields no segments.
func (r *Rotator) Segments() ([]Segment, error) {
	entries, err := os.ReadDir(r.Dir)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading log directory: %w", err)
	}

	var segs []Segment
	for _, e := range entries {
		if !e.Type().IsRegular() {
			continue
		}
		seg, ok := r.naming.Parse(e.Name())
		if !ok {
			continue
		}
		seg.Path = filepath.Join(r.Dir, e.Name())
		if info, err := e.Info(); err == nil {
			seg.Size = info.Size()
		}
		segs = append(segs, seg)
	}
	sort.Slice(segs, func(i, j int) bool {
		if !segs[i].Date.Equal(segs[j].Date) {
			return segs[i].Date.Before(segs[j].Date)
		}
		if segs[i].Part != segs[j].Part {
			return segs[i].Part < segs[j].Part
		}
		return !segs[i].Compressed && segs[j].Compressed
	})
	return segs, nil
}

// CleanupReport lists what one Cleanup pass did.
type CleanupReport struct {
	Compressed []string
	Deleted    []string
	Kept       int
	// Errors holds per-segment failures; they never abort the pass.
	Errors []error
}

// Cleanup applies retention and compression to every segment except
// today's active one:
//   - leftovers of an interrupted compression (*.log.gz.tmp) are deleted;
//   - any segment more than RetentionDays days old is deleted;
//   - an uncompressed part file from an earlier day is compressed, and the
//     original removed only once the compressed file is in place.
func (r *Rotator) Cleanup() (*CleanupReport, error) {
	segs, err := r.Segments()
	if err != nil {
		return nil, err
	}
	today := r.today()
	rep := &CleanupReport{}
	log := r.log()

	r.removeStaleTemps(rep)

	for _, seg := range segs {
		if r.isActive(seg, today) {
			rep.Kept++
			continue
		}
		age := ageDays(seg.Date, today)

		if age > r.RetentionDays {
			if err := os.Remove(seg.Path); err != nil && !errors.Is(err, fs.ErrNotExist) {
				log.Warn("failed to delete old log segment", "segment", seg.Name, "error", err)
				rep.Errors = append(rep.Errors, fmt.Errorf("deleting %s: %w", seg.Name, err))
				continue
			}
			log.Info("old log segment deleted", "segment", seg.Name, "age_days", age)
			rep.Deleted = append(rep.Deleted, seg.Name)
			continue
		}

		if seg.IsPart() && !seg.Compressed && age > 0 {
			if err := r.compress(seg); err != nil {
				log.Warn("failed to compress log segment, keeping original", "segment", seg.Name, "error", err)
				rep.Errors = append(rep.Errors, err)
				rep.Kept++
				continue
			}
			rep.Compressed = append(rep.Compressed, seg.Name)
			continue
		}
		rep.Kept++
	}
	return rep, nil
}

// removeStaleTemps deletes partial compression output left by a run that
// was killed mid-write. The source part file is still in place and gets
// compressed again.
func (r *Rotator) removeStaleTemps(rep *CleanupReport) {
	entries, err := os.ReadDir(r.Dir)
	if err != nil {
		return
	}
	for _, e := range entries {
		name := e.Name()
		if !e.Type().IsRegular() || !strings.HasSuffix(name, tmpSuffix) {
			continue
		}
		seg, ok := r.naming.Parse(strings.TrimSuffix(name, tmpSuffix))
		if !ok || !seg.Compressed {
			continue
		}
		if err := os.Remove(filepath.Join(r.Dir, name)); err != nil && !errors.Is(err, fs.ErrNotExist) {
			r.log().Warn("failed to delete partial compressed segment", "file", name, "error", err)
			rep.Errors = append(rep.Errors, fmt.Errorf("deleting %s: %w", name, err))
			continue
		}
		r.log().Info("partial compressed segment deleted", "file", name)
		rep.Deleted = append(rep.Deleted, name)
	}
}

func (r *Rotator) isActive(seg Segment, today time.Time) bool {
	return !seg.IsPart() && !seg.Compressed && seg.Date.Equal(today)
}

// compress replaces an uncompressed part file with its .gz companion. When
// the companion already exists, the segment was compressed by an earlier run
// that stopped before removing the original.
func (r *Rotator) compress(seg Segment) error {
	dst := seg.Path + ".gz"
	if _, err := os.Stat(dst); err == nil {
		if err := os.Remove(seg.Path); err != nil {
			return fmt.Errorf("removing %s: %w", seg.Name, err)
		}
		r.log().Debug("removed already-compressed original", "segment", seg.Name)
		return nil
	}

	compress := r.Compress
	if compress == nil {
		compress = gzipFile
	}
	if err := compress(seg.Path, dst); err != nil {
		return fmt.Errorf("compressing %s: %w", seg.Name, err)
	}
	if _, err := os.Stat(dst); err != nil {
		return fmt.Errorf("compressed file for %s missing: %w", seg.Name, err)
	}
	if err := os.Remove(seg.Path); err != nil {
		return fmt.Errorf("removing %s after compression: %w", seg.Name, err)
	}
	r.log().Info("log segment compressed", "segment", seg.Name, "to", filepath.Base(dst))
	return nil
}
