package logrotate

import (
	"compress/gzip"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2026, 10, 18, 9, 30, 0, 0, time.Local)

func newTestRotator(t *testing.T) *Rotator {
	t.Helper()
	r := New(t.TempDir(), "7zip", 16, DefaultRetentionDays)
	r.Now = func() time.Time { return fixedNow }
	return r
}

func daysAgo(n int) time.Time {
	return civilDate(fixedNow).AddDate(0, 0, -n)
}

func write(t *testing.T, r *Rotator, date time.Time, part int, compressed bool, content string) string {
	t.Helper()
	p := filepath.Join(r.Dir, r.naming.Name(date, part, compressed))
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	return p
}

func TestNaming(t *testing.T) {
	n := NewNaming("7zip")
	d := time.Date(2026, 10, 18, 0, 0, 0, 0, time.UTC)

	assert.Equal(t, "7zip_log_2026-10-18.log", n.Name(d, 0, false))
	assert.Equal(t, "7zip_log_2026-10-18_part3.log", n.Name(d, 3, false))
	assert.Equal(t, "7zip_log_2026-10-18_part3.log.gz", n.Name(d, 3, true))

	seg, ok := n.Parse("7zip_log_2026-10-18_part12.log.gz")
	require.True(t, ok)
	assert.Equal(t, 12, seg.Part)
	assert.True(t, seg.Compressed)
	assert.True(t, seg.Date.Equal(d))

	for _, name := range []string{
		"chrome_log_2026-10-18.log",
		"7zip_log_2026-13-40.log",
		"7zip_log_2026-10-18.log.gz.tmp",
		"7zip_log_2026-10-18_part.log",
		"notes.txt",
	} {
		_, ok := n.Parse(name)
		assert.False(t, ok, name)
	}
}

func TestRotate_RenamesOversizedActiveSegment(t *testing.T) {
	r := newTestRotator(t)
	content := strings.Repeat("x", 17)
	active := write(t, r, daysAgo(0), 0, false, content)
	require.Equal(t, active, r.ActivePath())

	dst, err := r.Rotate()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(r.Dir, "7zip_log_2026-10-18_part2.log"), dst)

	data, err := os.ReadFile(dst)
	require.NoError(t, err)
	assert.Equal(t, content, string(data))
	assert.NoFileExists(t, active)
}

func TestRotate_SkipsTakenPartIndexes(t *testing.T) {
	r := newTestRotator(t)
	write(t, r, daysAgo(0), 2, false, "old")
	write(t, r, daysAgo(0), 3, true, "old")
	write(t, r, daysAgo(0), 0, false, strings.Repeat("y", 100))

	dst, err := r.Rotate()
	require.NoError(t, err)
	assert.Equal(t, "7zip_log_2026-10-18_part4.log", filepath.Base(dst))
}

func TestRotate_AtThresholdDoesNothing(t *testing.T) {
	r := newTestRotator(t)
	active := write(t, r, daysAgo(0), 0, false, strings.Repeat("z", 16))

	dst, err := r.Rotate()
	require.NoError(t, err)
	assert.Empty(t, dst)
	assert.FileExists(t, active)
}

func TestRotate_NoActiveSegment(t *testing.T) {
	r := newTestRotator(t)
	r.Dir = filepath.Join(r.Dir, "not", "yet")

	dst, err := r.Rotate()
	require.NoError(t, err)
	assert.Empty(t, dst)
	assert.DirExists(t, r.Dir)
}

func TestCleanup_NeverTouchesActiveSegment(t *testing.T) {
	r := newTestRotator(t)
	r.RetentionDays = 0
	active := write(t, r, daysAgo(0), 0, false, strings.Repeat("a", 1024))

	rep, err := r.Cleanup()
	require.NoError(t, err)
	assert.Empty(t, rep.Deleted)
	assert.Empty(t, rep.Compressed)

	data, err := os.ReadFile(active)
	require.NoError(t, err)
	assert.Len(t, data, 1024)
}

func TestCleanup_Retention(t *testing.T) {
	r := newTestRotator(t)
	oldRegular := write(t, r, daysAgo(8), 0, false, "old")
	oldPart := write(t, r, daysAgo(8), 2, false, "old")
	oldGz := write(t, r, daysAgo(30), 2, true, "old")
	edge := write(t, r, daysAgo(7), 0, false, "keep")
	edgeGz := write(t, r, daysAgo(7), 3, true, "keep")

	rep, err := r.Cleanup()
	require.NoError(t, err)
	assert.Len(t, rep.Deleted, 3)
	assert.Empty(t, rep.Errors)

	assert.NoFileExists(t, oldRegular)
	assert.NoFileExists(t, oldPart)
	assert.NoFileExists(t, oldGz)
	assert.FileExists(t, edge)
	assert.FileExists(t, edgeGz)
}

func TestCleanup_CompressesPastParts(t *testing.T) {
	r := newTestRotator(t)
	content := strings.Repeat("line of log output\n", 50)
	part := write(t, r, daysAgo(1), 2, false, content)
	regular := write(t, r, daysAgo(1), 0, false, "regular")
	todayPart := write(t, r, daysAgo(0), 2, false, "today")

	rep, err := r.Cleanup()
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Base(part)}, rep.Compressed)

	assert.NoFileExists(t, part)
	assert.FileExists(t, regular)
	assert.FileExists(t, todayPart)
	assert.NoFileExists(t, part+".gz.tmp")

	f, err := os.Open(part + ".gz")
	require.NoError(t, err)
	defer f.Close()
	zr, err := gzip.NewReader(f)
	require.NoError(t, err)
	got, err := io.ReadAll(zr)
	require.NoError(t, err)
	assert.Equal(t, content, string(got))
}

func TestCleanup_CompressionFailureKeepsOriginal(t *testing.T) {
	r := newTestRotator(t)
	part := write(t, r, daysAgo(2), 2, false, "precious")
	r.Compress = func(src, dst string) error {
		// leave a half-written temp file behind, as an interrupted write would
		_ = os.WriteFile(dst+".tmp", []byte{0x1f}, 0o644)
		return errors.New("disk full")
	}

	rep, err := r.Cleanup()
	require.NoError(t, err)
	require.Len(t, rep.Errors, 1)
	assert.Contains(t, rep.Errors[0].Error(), "disk full")
	assert.Empty(t, rep.Compressed)

	data, err := os.ReadFile(part)
	require.NoError(t, err)
	assert.Equal(t, "precious", string(data))
	assert.NoFileExists(t, part+".gz")
}

func TestCleanup_CompressesOnlyOnce(t *testing.T) {
	r := newTestRotator(t)
	part := write(t, r, daysAgo(1), 2, false, "content")
	require.NoError(t, os.WriteFile(part+".gz", []byte("earlier"), 0o644))
	calls := 0
	r.Compress = func(src, dst string) error {
		calls++
		return gzipFile(src, dst)
	}

	_, err := r.Cleanup()
	require.NoError(t, err)
	assert.Zero(t, calls)
	assert.NoFileExists(t, part)

	data, err := os.ReadFile(part + ".gz")
	require.NoError(t, err)
	assert.Equal(t, "earlier", string(data))

	_, err = r.Cleanup()
	require.NoError(t, err)
	assert.Zero(t, calls)
}

func TestCleanup_RemovesInterruptedCompression(t *testing.T) {
	r := newTestRotator(t)
	part := write(t, r, daysAgo(1), 2, false, "content")
	stale := part + ".gz.tmp"
	require.NoError(t, os.WriteFile(stale, []byte{0x1f, 0x8b}, 0o644))
	// no source left to compress again
	orphan := filepath.Join(r.Dir, r.naming.Name(daysAgo(2), 3, true)+".tmp")
	require.NoError(t, os.WriteFile(orphan, []byte{0x1f}, 0o644))
	foreign := filepath.Join(r.Dir, "notes.txt.tmp")
	require.NoError(t, os.WriteFile(foreign, nil, 0o644))

	rep, err := r.Cleanup()
	require.NoError(t, err)
	assert.Contains(t, rep.Deleted, filepath.Base(stale))
	assert.Contains(t, rep.Deleted, filepath.Base(orphan))
	assert.NoFileExists(t, orphan)
	assert.Equal(t, []string{filepath.Base(part)}, rep.Compressed)
	assert.NoFileExists(t, stale)
	assert.NoFileExists(t, part)
	assert.FileExists(t, part+".gz")
	assert.FileExists(t, foreign)
}

func TestCleanup_IgnoresForeignFiles(t *testing.T) {
	r := newTestRotator(t)
	other := filepath.Join(r.Dir, "chrome_log_2020-01-01.log")
	require.NoError(t, os.WriteFile(other, nil, 0o644))

	rep, err := r.Cleanup()
	require.NoError(t, err)
	assert.Empty(t, rep.Deleted)
	assert.FileExists(t, other)
}

func TestSegmentsSorted(t *testing.T) {
	r := newTestRotator(t)
	write(t, r, daysAgo(0), 0, false, "")
	write(t, r, daysAgo(1), 3, true, "")
	write(t, r, daysAgo(1), 2, false, "")

	segs, err := r.Segments()
	require.NoError(t, err)
	require.Len(t, segs, 3)
	assert.Equal(t, 2, segs[0].Part)
	assert.Equal(t, 3, segs[1].Part)
	assert.Equal(t, 0, segs[2].Part)
}
