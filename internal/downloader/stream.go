package downloader

import (
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/ligustah/widevine-fetch/internal/progress"
)

// readSize bounds a single read; the transport decides how much of it is
// filled.
const readSize = 64 * 1024

// Stream reads body to EOF into a buffer with capacity expected, adding the
// size of every chunk to counter before appending it. After each chunk the
// buffer length equals counter.Load(), and neither ever exceeds expected.
func Stream(body io.Reader, expected uint64, counter *progress.Counter) ([]byte, error) {
	if expected > math.MaxInt {
		return nil, fmt.Errorf("%w: %d bytes cannot be buffered", ErrTooLarge, expected)
	}

	payload := make([]byte, 0, expected)
	chunk := make([]byte, readSize)

	for {
		n, err := body.Read(chunk)
		if n > 0 {
			received := uint64(len(payload)) + uint64(n)
			if received > expected {
				return nil, &IncompleteTransferError{Expected: expected, Received: received}
			}
			counter.Add(n)
			payload = append(payload, chunk[:n]...)
		}
		if err == io.EOF {
			break
		}
		if errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, &IncompleteTransferError{
				Expected: expected,
				Received: uint64(len(payload)),
				Err:      err,
			}
		}
		if err != nil {
			return nil, err
		}
	}

	if uint64(len(payload)) != expected {
		return nil, &IncompleteTransferError{Expected: expected, Received: uint64(len(payload))}
	}

	return payload, nil
}
