package logrotate

import (
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// tmpSuffix marks a compressed segment that is still being written.
const tmpSuffix = ".tmp"

// gzipFile writes src compressed to dst. The data goes to dst+tmpSuffix
// first and is synced before the rename, so dst only ever appears complete.
func gzipFile(src, dst string) (err error) {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	tmp := dst + tmpSuffix
	out, err := os.OpenFile(tmp, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			out.Close()
			os.Remove(tmp)
		}
	}()

	zw := gzip.NewWriter(out)
	zw.Name = filepath.Base(src)
	if _, err = io.Copy(zw, in); err != nil {
		return fmt.Errorf("compressing: %w", err)
	}
	if err = zw.Close(); err != nil {
		return fmt.Errorf("finishing gzip stream: %w", err)
	}
	if err = out.Sync(); err != nil {
		return err
	}
	if err = out.Close(); err != nil {
		return err
	}
	return os.Rename(tmp, dst)
}
