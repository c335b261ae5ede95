package updater

import (
	"errors"
	"fmt"

	"github.com/zipwarden/zipwarden/internal/fetch"
)

// Error classes. Callers match them with errors.Is.
var (
	// ErrNetwork covers request and timeout failures after retries.
	ErrNetwork = fetch.ErrNetwork
	// ErrParse means a version or link was not found in fetched content.
	ErrParse = errors.New("no update information")
	// ErrExtraction means the extractor failed; the install dir is untouched.
	ErrExtraction = errors.New("extraction failed")
	// ErrFileSystem covers per-entry copy and cleanup failures.
	ErrFileSystem = errors.New("file system error")
	// ErrPrecondition means the managed tool is not installed.
	ErrPrecondition = errors.New("precondition failed")
)

// ExtractionError reports a non-zero exit of the extractor.
type ExtractionError struct {
	ExitCode int
	// Output holds the last lines the extractor printed.
	Output string
}

func (e *ExtractionError) Error() string {
	msg := fmt.Sprintf("extractor exited with code %d", e.ExitCode)
	if e.Output != "" {
		msg += ": " + e.Output
	}
	return msg
}

func (e *ExtractionError) Unwrap() error { return ErrExtraction }
