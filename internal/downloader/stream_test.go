package downloader

import (
	"bytes"
	"errors"
	"io"
	"math"
	"testing"

	"github.com/ligustah/widevine-fetch/internal/progress"
)

// chunkReader returns data in reads of exactly the given sizes.
type chunkReader struct {
	data   []byte
	sizes  []int
	onRead func(delivered int)
	pos    int
	err    error // returned instead of io.EOF when non-nil
}

func (r *chunkReader) Read(p []byte) (int, error) {
	if r.onRead != nil {
		r.onRead(r.pos)
	}
	if r.pos >= len(r.data) {
		if r.err != nil {
			return 0, r.err
		}
		return 0, io.EOF
	}
	size := len(r.data) - r.pos
	if len(r.sizes) > 0 {
		size = r.sizes[0]
		r.sizes = r.sizes[1:]
	}
	if size > len(p) {
		size = len(p)
	}
	if r.pos+size > len(r.data) {
		size = len(r.data) - r.pos
	}
	n := copy(p, r.data[r.pos:r.pos+size])
	r.pos += n
	return n, nil
}

func patternData(size int) []byte {
	data := make([]byte, size)
	for i := range data {
		data[i] = byte(i % 251)
	}
	return data
}

// irregularSizes returns chunk sizes that cycle through a fixed irregular
// pattern and sum to exactly total.
func irregularSizes(total int) []int {
	pattern := []int{16 * 1024, 64 * 1024, 1, 3000, 7, 40 * 1024}
	var sizes []int
	for sum, i := 0, 0; sum < total; i++ {
		n := pattern[i%len(pattern)]
		if sum+n > total {
			n = total - sum
		}
		sizes = append(sizes, n)
		sum += n
	}
	return sizes
}

func TestStreamChunkSequences(t *testing.T) {
	tests := []struct {
		name  string
		size  int
		sizes []int
	}{
		{"empty", 0, nil},
		{"single byte", 1, []int{1}},
		{"one read", 4096, []int{4096}},
		{"byte at a time", 300, func() []int {
			s := make([]int, 300)
			for i := range s {
				s[i] = 1
			}
			return s
		}()},
		{"irregular", 1000000, irregularSizes(1000000)},
		{"larger than read size", 3 * readSize, []int{3 * readSize}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := patternData(tt.size)
			var counter progress.Counter

			payload, err := Stream(&chunkReader{data: data, sizes: tt.sizes}, uint64(tt.size), &counter)
			if err != nil {
				t.Fatalf("Stream: %v", err)
			}
			if counter.Load() != uint64(tt.size) {
				t.Errorf("expected counter %d, got %d", tt.size, counter.Load())
			}
			if len(payload) != tt.size {
				t.Errorf("expected payload length %d, got %d", tt.size, len(payload))
			}
			if !bytes.Equal(payload, data) {
				t.Error("payload content mismatch")
			}
		})
	}
}

func TestStreamCounterTracksPayload(t *testing.T) {
	data := patternData(200000)
	var counter progress.Counter

	reader := &chunkReader{
		data:  data,
		sizes: irregularSizes(len(data)),
	}
	reader.onRead = func(delivered int) {
		if got := counter.Load(); got != uint64(delivered) {
			t.Fatalf("counter %d does not match %d bytes delivered", got, delivered)
		}
	}

	if _, err := Stream(reader, uint64(len(data)), &counter); err != nil {
		t.Fatalf("Stream: %v", err)
	}
}

func TestStreamShortBody(t *testing.T) {
	var counter progress.Counter

	_, err := Stream(&chunkReader{data: patternData(950)}, 1000, &counter)

	var incomplete *IncompleteTransferError
	if !errors.As(err, &incomplete) {
		t.Fatalf("expected IncompleteTransferError, got %v", err)
	}
	if incomplete.Expected != 1000 || incomplete.Received != 950 {
		t.Errorf("expected 950 of 1000, got %d of %d", incomplete.Received, incomplete.Expected)
	}
}

func TestStreamUnexpectedEOF(t *testing.T) {
	var counter progress.Counter

	_, err := Stream(&chunkReader{data: patternData(10), err: io.ErrUnexpectedEOF}, 20, &counter)

	var incomplete *IncompleteTransferError
	if !errors.As(err, &incomplete) {
		t.Fatalf("expected IncompleteTransferError, got %v", err)
	}
	if incomplete.Received != 10 {
		t.Errorf("expected 10 bytes received, got %d", incomplete.Received)
	}
	if !errors.Is(err, io.ErrUnexpectedEOF) {
		t.Error("expected error to wrap io.ErrUnexpectedEOF")
	}
}

func TestStreamLongBody(t *testing.T) {
	var counter progress.Counter

	_, err := Stream(&chunkReader{data: patternData(1001), sizes: []int{600, 401}}, 1000, &counter)

	var incomplete *IncompleteTransferError
	if !errors.As(err, &incomplete) {
		t.Fatalf("expected IncompleteTransferError, got %v", err)
	}
	if counter.Load() > 1000 {
		t.Errorf("counter exceeded expected size: %d", counter.Load())
	}
}

func TestStreamReadError(t *testing.T) {
	var counter progress.Counter
	boom := errors.New("connection reset")

	_, err := Stream(&chunkReader{data: patternData(10), err: boom}, 20, &counter)
	if !errors.Is(err, boom) {
		t.Fatalf("expected read error, got %v", err)
	}
	var incomplete *IncompleteTransferError
	if errors.As(err, &incomplete) {
		t.Error("read error should not be reported as an incomplete transfer")
	}
}

func TestStreamRejectsUnbufferableSize(t *testing.T) {
	var counter progress.Counter

	_, err := Stream(bytes.NewReader(nil), math.MaxUint64, &counter)
	if !errors.Is(err, ErrTooLarge) {
		t.Fatalf("expected ErrTooLarge, got %v", err)
	}
	if counter.Load() != 0 {
		t.Errorf("expected counter untouched, got %d", counter.Load())
	}
}
