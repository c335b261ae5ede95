package updater

import (
	"fmt"
	"strconv"
	"strings"
)

// Version is a dotted sequence of non-negative integers such as "26.00".
// The zero value is Unknown.
type Version struct {
	parts []int
	raw   string
}

// Unknown is the sentinel for a tool that is absent or unreadable. It sorts
// before every parsed version.
var Unknown = Version{}

// ParseVersion parses a dotted numeric version. The original text is kept
// for display, so "26.00" prints as "26.00" rather than "26.0".
func ParseVersion(s string) (Version, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Unknown, fmt.Errorf("%w: empty version", ErrParse)
	}
	fields := strings.Split(s, ".")
	parts := make([]int, len(fields))
	for i, f := range fields {
		if f == "" || strings.TrimLeft(f, "0123456789") != "" {
			return Unknown, fmt.Errorf("%w: invalid version %q", ErrParse, s)
		}
		n, err := strconv.Atoi(f)
		if err != nil {
			return Unknown, fmt.Errorf("%w: invalid version %q: %v", ErrParse, s, err)
		}
		parts[i] = n
	}
	return Version{parts: parts, raw: s}, nil
}

// MustParseVersion is ParseVersion for literals known to be valid.
func MustParseVersion(s string) Version {
	v, err := ParseVersion(s)
	if err != nil {
		panic(err)
	}
	return v
}

// IsUnknown reports whether v is the sentinel.
func (v Version) IsUnknown() bool { return len(v.parts) == 0 }

func (v Version) String() string {
	if v.IsUnknown() {
		return "unknown"
	}
	return v.raw
}

// Compare returns -1, 0 or 1 as v is older than, equal to or newer than w.
// Missing trailing components count as zero, so "26" equals "26.0".
func (v Version) Compare(w Version) int {
	switch {
	case v.IsUnknown() && w.IsUnknown():
		return 0
	case v.IsUnknown():
		return -1
	case w.IsUnknown():
		return 1
	}
	n := max(len(v.parts), len(w.parts))
	for i := 0; i < n; i++ {
		a, b := component(v.parts, i), component(w.parts, i)
		if a < b {
			return -1
		}
		if a > b {
			return 1
		}
	}
	return 0
}

func component(parts []int, i int) int {
	if i < len(parts) {
		return parts[i]
	}
	return 0
}

// Less reports whether v is older than w.
func (v Version) Less(w Version) bool { return v.Compare(w) < 0 }

// Equal reports whether v and w compare equal.
func (v Version) Equal(w Version) bool { return v.Compare(w) == 0 }

// IsUpdateAvailable reports whether latest should be installed over
// installed. An unknown installed version always takes the update.
func IsUpdateAvailable(installed, latest Version) bool {
	if latest.IsUnknown() {
		return false
	}
	return installed.IsUnknown() || installed.Less(latest)
}

// VersionCode maps a major.minor version to the four-digit code used in
// archive names: "26.00" becomes "2600", "9.20" becomes "0920".
func VersionCode(v Version) (string, error) {
	if len(v.parts) < 2 {
		return "", fmt.Errorf("%w: version %s has no minor component", ErrParse, v)
	}
	major, minor := v.parts[0], v.parts[1]
	if major > 99 || minor > 99 {
		return "", fmt.Errorf("%w: version %s does not fit a four-digit code", ErrParse, v)
	}
	return fmt.Sprintf("%02d%02d", major, minor), nil
}
