package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io/fs"

	"github.com/zipwarden/zipwarden/internal/logging"
	"github.com/zipwarden/zipwarden/internal/updater"
	"github.com/zipwarden/zipwarden/internal/watchdog"
)

// Classify names the error class of err and returns an operator hint for
// it. Unrecognized errors get an empty hint.
func Classify(err error) (kind, hint string) {
	switch {
	case errors.Is(err, watchdog.ErrIdle):
		return "IdleTimeout", "no activity within the idle timeout; raise IDLE_TIMEOUT or set it to 0"
	case errors.Is(err, updater.ErrPrecondition):
		return "PreconditionError", "install the tool into the install directory first"
	case errors.Is(err, updater.ErrExtraction):
		return "ExtractionError", "the downloaded archive may be corrupt; it is fetched again on the next run"
	case errors.Is(err, updater.ErrNetwork):
		return "NetworkError", "check the internet connection and proxy settings"
	case errors.Is(err, updater.ErrParse):
		return "ParseError", "the vendor page layout may have changed; check the profile patterns"
	case errors.Is(err, fs.ErrPermission):
		return "PermissionError", "run with elevated privileges (Run as administrator)"
	case errors.Is(err, fs.ErrNotExist):
		return "NotFoundError", "check that the file or directory exists"
	case errors.Is(err, updater.ErrFileSystem):
		return "FileSystemError", "check that no other program holds the files open"
	}
	return "Error", ""
}

// Report logs err at error level with its class, the context it happened
// in and, when the class is known, a hint.
func Report(ctx context.Context, err error, where string) {
	if err == nil {
		return
	}
	kind, hint := Classify(err)
	args := []any{"type", kind, "error", err.Error()}
	if hint != "" {
		args = append(args, "hint", hint)
	}
	logging.FromContext(ctx).Error(fmt.Sprintf("[%s]: %s", where, kind), args...)
}
