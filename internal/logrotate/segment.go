package logrotate

import (
	"fmt"
	"regexp"
	"strconv"
	"time"
)

const dateLayout = "2006-01-02"

// Segment is one log file in the log directory.
type Segment struct {
	Path       string
	Name       string
	Date       time.Time // calendar date, midnight UTC
	Part       int       // 0 for a regular (part-less) segment
	Compressed bool
	Size       int64
}

// IsPart reports whether the segment was produced by size rotation.
func (s Segment) IsPart() bool { return s.Part > 0 }

// Naming builds and parses segment file names for one prefix.
type Naming struct {
	Prefix string
	re     *regexp.Regexp
}

// NewNaming returns the naming scheme for prefix.
func NewNaming(prefix string) Naming {
	return Naming{
		Prefix: prefix,
		re:     regexp.MustCompile(`^` + regexp.QuoteMeta(prefix) + `_log_(\d{4}-\d{2}-\d{2})(?:_part(\d+))?\.log(\.gz)?$`),
	}
}

// Name returns the file name for a segment. part 0 means no part suffix.
func (n Naming) Name(date time.Time, part int, compressed bool) string {
	name := fmt.Sprintf("%s_log_%s", n.Prefix, date.Format(dateLayout))
	if part > 0 {
		name += fmt.Sprintf("_part%d", part)
	}
	name += ".log"
	if compressed {
		name += ".gz"
	}
	return name
}

// Parse recognizes a segment file name. Names that do not belong to this
// prefix, or carry an impossible date, report ok=false.
func (n Naming) Parse(name string) (seg Segment, ok bool) {
	m := n.re.FindStringSubmatch(name)
	if m == nil {
		return Segment{}, false
	}
	date, err := time.Parse(dateLayout, m[1])
	if err != nil {
		return Segment{}, false
	}
	seg = Segment{Name: name, Date: date, Compressed: m[3] != ""}
	if m[2] != "" {
		part, err := strconv.Atoi(m[2])
		if err != nil || part < 1 {
			return Segment{}, false
		}
		seg.Part = part
	}
	return seg, true
}

// civilDate returns t's calendar date in its own location as midnight UTC,
// so day arithmetic is exact across DST changes.
func civilDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ageDays is the number of whole calendar days from date to today.
func ageDays(date, today time.Time) int {
	return int(today.Sub(date) / (24 * time.Hour))
}
