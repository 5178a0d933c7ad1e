package downloader

import (
	"errors"
	"fmt"
)

// ErrMissingSize is matched by MissingSizeError through errors.Is.
var ErrMissingSize = errors.New("downloader: server did not declare a content length")

// ErrTooLarge is wrapped in a TransportError when the declared size is above
// the download limit.
var ErrTooLarge = errors.New("downloader: declared size exceeds limit")

// TransportError is returned when the request fails, the server answers with
// a non-success status, or the body cannot be read.
type TransportError struct {
	URL string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport: %s: %v", e.URL, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// MissingSizeError is returned when the response has no Content-Length. The
// body is never read in that case.
type MissingSizeError struct {
	URL string
}

func (e *MissingSizeError) Error() string {
	return fmt.Sprintf("missing size: %s: server did not declare a content length", e.URL)
}

func (e *MissingSizeError) Is(target error) bool { return target == ErrMissingSize }

// IncompleteTransferError is returned when the bytes received do not add up
// to the declared size. Received can be below Expected (the stream ended
// early) or above it (the stream carried more than declared).
type IncompleteTransferError struct {
	Expected uint64
	Received uint64
	Err      error // underlying read error, if any
}

func (e *IncompleteTransferError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("incomplete transfer: received %d of %d bytes: %v", e.Received, e.Expected, e.Err)
	}
	return fmt.Sprintf("incomplete transfer: received %d of %d bytes", e.Received, e.Expected)
}

func (e *IncompleteTransferError) Unwrap() error { return e.Err }

// WriteError is returned when the staged file cannot be written.
type WriteError struct {
	Path string
	Err  error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("write %s: %v", e.Path, e.Err)
}

func (e *WriteError) Unwrap() error { return e.Err }
