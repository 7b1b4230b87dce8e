package downloader

import (
	"context"
	"errors"
	"fmt"

	"github.com/brogergvhs/mangarip/internal/output"
)

var (
	// ErrCancelled is the outcome of an operation whose scope was cancelled.
	// It is not a failure and is never logged as one.
	ErrCancelled = errors.New("cancelled")

	ErrFetchFailed   = errors.New("fetch failed")
	ErrPackaging     = errors.New("packaging failed")
	ErrNoImages      = errors.New("adapter returned no images")
	ErrDuplicateTask = errors.New("chapter already queued")
)

// FetchFailedError is returned once the retry budget for one image is spent
// or the failure is permanent.
type FetchFailedError struct {
	Location string
	Cause    error
}

func (e *FetchFailedError) Error() string {
	return fmt.Sprintf("fetch %s: %v", e.Location, e.Cause)
}

func (e *FetchFailedError) Unwrap() error { return e.Cause }

func (e *FetchFailedError) Is(target error) bool { return target == ErrFetchFailed }

// PackagingError wraps a packager failure for one output format.
type PackagingError struct {
	Format output.Kind
	Cause  error
}

func (e *PackagingError) Error() string {
	return fmt.Sprintf("create %s output: %v", e.Format, e.Cause)
}

func (e *PackagingError) Unwrap() error { return e.Cause }

func (e *PackagingError) Is(target error) bool { return target == ErrPackaging }

func cancelled(ctx context.Context, err error) bool {
	return errors.Is(err, ErrCancelled) ||
		errors.Is(err, context.Canceled) ||
		(err != nil && ctx.Err() != nil)
}
