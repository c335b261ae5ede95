package platform

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

func TestChmod(t *testing.T) {
	tmp := t.TempDir()
	path := filepath.Join(tmp, "7za")
	if err := os.WriteFile(path, []byte("test"), 0644); err != nil {
		t.Fatal(err)
	}

	if err := Chmod(path, 0755); err != nil {
		t.Fatalf("Chmod failed: %v", err)
	}

	if runtime.GOOS != "windows" {
		info, err := os.Stat(path)
		if err != nil {
			t.Fatal(err)
		}
		if perm := info.Mode().Perm(); perm != 0755 {
			t.Errorf("permissions = %o, want %o", perm, 0755)
		}
	}
}

func TestExecutableName(t *testing.T) {
	got := ExecutableName("7za")
	want := "7za"
	if runtime.GOOS == "windows" {
		want = "7za.exe"
	}
	if got != want {
		t.Errorf("ExecutableName(7za) = %q, want %q", got, want)
	}
	if got := ExecutableName("7za.exe"); got != "7za.exe" {
		t.Errorf("ExecutableName(7za.exe) = %q", got)
	}
}
