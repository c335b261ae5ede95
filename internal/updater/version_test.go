package updater

import (
	"errors"
	"testing"
)

func TestParseVersion(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"26.00", "26.00", false},
		{" 9.20 ", "9.20", false},
		{"24.09.1", "24.09.1", false},
		{"26", "26", false},
		{"", "", true},
		{"26.", "", true},
		{"v26.00", "", true},
		{"26.0a", "", true},
		{"-1.0", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			v, err := ParseVersion(tt.in)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("ParseVersion(%q) = %v, want error", tt.in, v)
				}
				if !errors.Is(err, ErrParse) {
					t.Errorf("error %v is not ErrParse", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if v.String() != tt.want {
				t.Errorf("String() = %q, want %q", v.String(), tt.want)
			}
		})
	}
}

func TestCompare(t *testing.T) {
	tests := []struct {
		name string
		a, b string
		want int
	}{
		{"older minor", "25.00", "26.00", -1},
		{"equal", "26.00", "26.00", 0},
		{"leading zeros ignored", "26.00", "26.0", 0},
		{"missing trailing component", "26", "26.00", 0},
		{"extra component newer", "26.00.1", "26.00", 1},
		{"numeric not lexical", "9.20", "10.00", -1},
		{"newer", "24.09", "23.01", 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, b := MustParseVersion(tt.a), MustParseVersion(tt.b)
			if got := a.Compare(b); got != tt.want {
				t.Errorf("Compare(%s, %s) = %d, want %d", tt.a, tt.b, got, tt.want)
			}
			if got := b.Compare(a); got != -tt.want {
				t.Errorf("Compare(%s, %s) = %d, want %d", tt.b, tt.a, got, -tt.want)
			}
		})
	}
}

var orderingSample = []string{"0", "0.0.1", "1.0", "9.20", "9.20.1", "10", "16.02", "23.01", "24.09", "26.00", "26.00.0.1", "100.5"}

func TestCompareIsAntisymmetricAndTransitive(t *testing.T) {
	vs := make([]Version, len(orderingSample))
	for i, s := range orderingSample {
		vs[i] = MustParseVersion(s)
	}
	for _, a := range vs {
		for _, b := range vs {
			if a.Compare(b) != -b.Compare(a) {
				t.Errorf("antisymmetry broken for %s, %s", a, b)
			}
			for _, c := range vs {
				if a.Compare(b) <= 0 && b.Compare(c) <= 0 && a.Compare(c) > 0 {
					t.Errorf("transitivity broken for %s <= %s <= %s", a, b, c)
				}
			}
		}
	}
	// the sample is listed in ascending order
	for i := 1; i < len(vs); i++ {
		if !vs[i-1].Less(vs[i]) {
			t.Errorf("%s should be older than %s", vs[i-1], vs[i])
		}
	}
}

func TestUnknownIsOldest(t *testing.T) {
	for _, s := range orderingSample {
		v := MustParseVersion(s)
		if !Unknown.Less(v) {
			t.Errorf("Unknown should be older than %s", s)
		}
		if v.Compare(Unknown) != 1 {
			t.Errorf("%s should be newer than Unknown", s)
		}
	}
	if Unknown.Compare(Unknown) != 0 {
		t.Error("Unknown should equal itself")
	}
	if Unknown.String() != "unknown" {
		t.Errorf("Unknown.String() = %q", Unknown.String())
	}
}

func TestIsUpdateAvailable(t *testing.T) {
	tests := []struct {
		name      string
		installed Version
		latest    Version
		expected  bool
	}{
		{"update available", MustParseVersion("25.00"), MustParseVersion("26.00"), true},
		{"on latest", MustParseVersion("26.00"), MustParseVersion("26.00"), false},
		{"ahead of latest", MustParseVersion("26.01"), MustParseVersion("26.00"), false},
		{"unknown installed", Unknown, MustParseVersion("1.0"), true},
		{"unknown latest", MustParseVersion("26.00"), Unknown, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsUpdateAvailable(tt.installed, tt.latest); got != tt.expected {
				t.Errorf("IsUpdateAvailable = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestVersionCode(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"26.00", "2600", false},
		{"9.20", "0920", false},
		{"24.09.1", "2409", false},
		{"26", "", true},
		{"126.00", "", true},
	}
	for _, tt := range tests {
		got, err := VersionCode(MustParseVersion(tt.in))
		if (err != nil) != tt.wantErr {
			t.Errorf("VersionCode(%s) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("VersionCode(%s) = %q, want %q", tt.in, got, tt.want)
		}
	}
	if _, err := VersionCode(Unknown); err == nil {
		t.Error("VersionCode(Unknown) should fail")
	}
}
