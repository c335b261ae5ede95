package updater

import (
	"archive/tar"
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/zipwarden/zipwarden/internal/fetch"
	"github.com/zipwarden/zipwarden/internal/profile"
)

// fakeToolScript is a stand-in for 7za: without arguments it prints a
// banner, with "x <archive> -o<dest> ..." it unpacks a tar archive.
func fakeToolScript(version string) string {
	return fmt.Sprintf(`#!/bin/sh
if [ $# -eq 0 ]; then
  echo
  echo "7-Zip (a) %s (x64) : Copyright (c) 1999-2026 Igor Pavlov : 2026-01-10"
  exit 0
fi
archive="$2"
dest="${3#-o}"
printf '  0%%%%\r 42%%%% 1 - 7za\r100%%%%\n'
tar -xf "$archive" -C "$dest" 2>/dev/null || { echo "ERROR: $archive: Can not open the file as archive"; exit 2; }
echo "Everything is Ok"
`, version)
}

func requirePOSIX(t *testing.T) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("fake tool is a shell script")
	}
}

// installFakeTool writes a fake 7za reporting version into dir.
func installFakeTool(t *testing.T, dir, version string) string {
	t.Helper()
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatal(err)
	}
	exe := filepath.Join(dir, "7za")
	if err := os.WriteFile(exe, []byte(fakeToolScript(version)), 0755); err != nil {
		t.Fatal(err)
	}
	return exe
}

type tarEntry struct {
	name string
	body string
	mode int64
}

// writeTar builds an uncompressed tar at path. Entries ending in "/" are
// directories.
func writeTar(t *testing.T, path string, entries []tarEntry) {
	t.Helper()
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	tw := tar.NewWriter(f)
	for _, e := range entries {
		hdr := &tar.Header{Name: e.name, Mode: e.mode, ModTime: time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC)}
		if hdr.Mode == 0 {
			hdr.Mode = 0644
		}
		if e.name[len(e.name)-1] == '/' {
			hdr.Typeflag = tar.TypeDir
			hdr.Mode = 0755
		} else {
			hdr.Typeflag = tar.TypeReg
			hdr.Size = int64(len(e.body))
		}
		if err := tw.WriteHeader(hdr); err != nil {
			t.Fatal(err)
		}
		if hdr.Typeflag == tar.TypeReg {
			if _, err := tw.Write([]byte(e.body)); err != nil {
				t.Fatal(err)
			}
		}
	}
	if err := tw.Close(); err != nil {
		t.Fatal(err)
	}
}

const vendorPage = `<!DOCTYPE html>
<html><head><title>Download</title>
<script>var v = "Download 7-Zip 99.99";</script></head>
<body>
<p><b>Download 7-Zip %s</b> (2026-01-10):</p>
<table>
<tr><td><a href="a/7z%s-x64.exe">Download</a></td><td>64-bit Windows x64</td></tr>
<tr><td><a href="%s">Download</a></td><td>7-Zip Extra: standalone console version</td></tr>
</table>
</body></html>`

// vendorServer serves a download page for version and, at /a/, the archive
// built by archive(). An empty link omits the archive link from the page.
func vendorServer(t *testing.T, version, code, link string, archive func() []byte) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/download.html", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, vendorPage, version, code, link)
	})
	mux.HandleFunc("/a/", func(w http.ResponseWriter, r *http.Request) {
		if archive == nil {
			http.NotFound(w, r)
			return
		}
		w.Write(archive())
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func testProfile(t *testing.T, base string) *profile.Profile {
	t.Helper()
	p, err := profile.Default()
	if err != nil {
		t.Fatal(err)
	}
	if base != "" {
		p.PageURL = base + "/download.html"
		p.BaseURL = base + "/"
	}
	return p
}

func testFetcher() *fetch.Client {
	c := fetch.New("zipwarden-test", 5*time.Second, 30*time.Second)
	c.Sleep = func(_ context.Context, _ time.Duration) error { return nil }
	return c
}
