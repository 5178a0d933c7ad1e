package progress

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/dustin/go-humanize"
)

// DefaultInterval is how often the reporter samples the counter.
const DefaultInterval = time.Second

// Prefix starts every line the reporter writes.
const Prefix = "[widevine-fetch]"

// Options configures the progress reporter.
type Options struct {
	// Total is the number of bytes the download is expected to deliver.
	Total uint64

	// Counter is the shared count of bytes received so far.
	Counter *Counter

	// Output is where to write progress output.
	// Default: os.Stdout
	Output io.Writer

	// Interval is how long to wait between samples.
	// Default: 1s
	Interval time.Duration
}

// Reporter polls a Counter and prints progress until the counter reaches
// the expected total.
type Reporter struct {
	opts Options
	done chan struct{}
}

// NewReporter creates a new progress reporter.
func NewReporter(opts Options) *Reporter {
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.Interval <= 0 {
		opts.Interval = DefaultInterval
	}
	if opts.Counter == nil {
		opts.Counter = new(Counter)
	}

	return &Reporter{
		opts: opts,
		done: make(chan struct{}),
	}
}

// Start runs the polling loop on its own goroutine. The loop ends on its own
// once the counter reaches the total; cancelling ctx abandons it early
// without printing the final line.
func (r *Reporter) Start(ctx context.Context) {
	go r.pollLoop(ctx)
}

// Wait blocks until the polling loop has returned.
func (r *Reporter) Wait() {
	<-r.done
}

// Done is closed when the polling loop has returned.
func (r *Reporter) Done() <-chan struct{} {
	return r.done
}

func (r *Reporter) pollLoop(ctx context.Context) {
	defer close(r.done)

	ticker := time.NewTicker(r.opts.Interval)
	defer ticker.Stop()

	for {
		fetched := r.opts.Counter.Load()
		if fetched >= r.opts.Total {
			r.printFinal(fetched)
			return
		}

		r.printProgress(fetched)

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (r *Reporter) printProgress(fetched uint64) {
	fmt.Fprintf(r.opts.Output, "%s Fetched %d bytes (%s) so far, %s%%\n",
		Prefix, fetched, humanize.IBytes(fetched), FormatPercent(fetched, r.opts.Total))
}

func (r *Reporter) printFinal(fetched uint64) {
	fmt.Fprintf(r.opts.Output, "%s Fetched %d bytes (%s), %s%%\n",
		Prefix, fetched, humanize.IBytes(fetched), FormatPercent(fetched, r.opts.Total))
}

// Percent returns fetched as a percentage of total. An empty total counts
// as complete.
func Percent(fetched, total uint64) float64 {
	if total == 0 {
		return 100
	}
	return float64(fetched) / float64(total) * 100
}

// FormatPercent formats the percentage with as many digits as needed to
// represent it exactly, without rounding to a fixed precision.
func FormatPercent(fetched, total uint64) string {
	return strconv.FormatFloat(Percent(fetched, total), 'f', -1, 64)
}

// FormatBytes formats bytes as a human-readable IEC string (e.g. "1.5 KiB").
func FormatBytes(b uint64) string {
	return humanize.IBytes(b)
}
