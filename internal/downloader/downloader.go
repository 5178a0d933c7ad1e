package downloader

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"go.uber.org/zap"

	fetchhttp "github.com/ligustah/widevine-fetch/internal/http"
	"github.com/ligustah/widevine-fetch/internal/progress"
	"github.com/ligustah/widevine-fetch/internal/staging"
)

// DefaultMaxSize is the largest declared size Download accepts when
// Options.MaxSize is zero. The whole payload is held in memory.
const DefaultMaxSize = 4 << 30

// Options configures the downloader.
type Options struct {
	// URL is the file to download.
	URL string

	// Stage is where the file is staged. Required.
	Stage *staging.Stage

	// Client performs the request.
	// Default: a client built from fetchhttp.DefaultOptions
	Client *fetchhttp.Client

	// Output receives the human-readable progress lines.
	// Default: os.Stdout
	Output io.Writer

	// ProgressInterval is how often progress is printed.
	// Default: 1s
	ProgressInterval time.Duration

	// MaxSize is the largest declared size accepted, in bytes.
	// Default: DefaultMaxSize
	MaxSize uint64

	// Logger receives diagnostic events.
	// Default: a no-op logger
	Logger *zap.Logger
}

// Result describes a finished download.
type Result struct {
	// Size is the declared and staged size in bytes.
	Size uint64

	// Path is the local path of the staged file.
	Path string

	// Reused is true when the staged file already had the right size and
	// no body was read.
	Reused bool
}

// Download fetches opts.URL into opts.Stage, skipping the transfer when the
// staged file already has the size the server declares.
func Download(ctx context.Context, opts Options) (*Result, error) {
	if opts.Stage == nil {
		return nil, errors.New("downloader: stage is required")
	}
	if opts.Client == nil {
		opts.Client = fetchhttp.NewClient(fetchhttp.DefaultOptions())
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.MaxSize == 0 {
		opts.MaxSize = DefaultMaxSize
	}
	log := opts.Logger.With(zap.String("url", opts.URL))

	log.Debug("requesting image")
	resp, err := opts.Client.Get(ctx, opts.URL)
	if err != nil {
		return nil, &TransportError{URL: opts.URL, Err: err}
	}
	defer resp.Body.Close()

	if resp.ContentLength < 0 {
		return nil, &MissingSizeError{URL: opts.URL}
	}
	expected := uint64(resp.ContentLength)
	if expected > opts.MaxSize {
		return nil, &TransportError{
			URL: opts.URL,
			Err: fmt.Errorf("%w: %d bytes declared, limit is %d", ErrTooLarge, expected, opts.MaxSize),
		}
	}

	log = log.With(responseFields(resp)...)

	result := &Result{Size: expected, Path: opts.Stage.Path()}

	if opts.Stage.Matches(ctx, expected) {
		log.Info("staged image matches declared size, skipping download",
			zap.String("path", opts.Stage.Path()),
			zap.Uint64("size", expected))
		fmt.Fprintf(opts.Output, "%s Same image found in %s\n", progress.Prefix, opts.Stage.Path())
		result.Reused = true
		return result, nil
	}

	fmt.Fprintf(opts.Output, "%s %d bytes (%s) are expected to be fetched\n",
		progress.Prefix, expected, progress.FormatBytes(expected))
	log.Info("downloading image", zap.Uint64("expected_size", expected))

	start := time.Now()
	payload, err := fetch(ctx, resp.Body, expected, opts)
	if err != nil {
		var incomplete *IncompleteTransferError
		if !errors.As(err, &incomplete) {
			err = &TransportError{URL: opts.URL, Err: err}
		}
		log.Error("download failed", zap.Error(err))
		return nil, err
	}
	elapsed := time.Since(start)

	fmt.Fprintf(opts.Output, "%s Fetched %d bytes in total\n", progress.Prefix, len(payload))
	log.Info("download complete",
		zap.Int("size", len(payload)),
		zap.Duration("elapsed", elapsed))

	if err := persist(ctx, opts.Stage, payload); err != nil {
		log.Error("staging failed", zap.String("path", opts.Stage.Path()), zap.Error(err))
		return nil, err
	}
	log.Info("image staged", zap.String("path", opts.Stage.Path()))

	return result, nil
}

// responseFields describes the validators the server sent along with the
// image, for correlating a cache decision with a server-side change.
func responseFields(resp *fetchhttp.Response) []zap.Field {
	var fields []zap.Field
	if resp.ETag != "" {
		fields = append(fields, zap.String("etag", resp.ETag))
	}
	if !resp.LastModified.IsZero() {
		fields = append(fields, zap.Time("last_modified", resp.LastModified))
	}
	if resp.ContentType != "" {
		fields = append(fields, zap.String("content_type", resp.ContentType))
	}
	return fields
}

// fetch runs Stream with a Reporter polling the counter, and returns only
// after the reporter has finished.
func fetch(ctx context.Context, body io.Reader, expected uint64, opts Options) ([]byte, error) {
	var fetched progress.Counter

	reportCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	reporter := progress.NewReporter(progress.Options{
		Total:    expected,
		Counter:  &fetched,
		Output:   opts.Output,
		Interval: opts.ProgressInterval,
	})
	reporter.Start(reportCtx)

	payload, err := Stream(body, expected, &fetched)
	if err != nil {
		cancel()
	}
	reporter.Wait()

	return payload, err
}

// persist commits payload to the stage on its own goroutine and waits for it.
func persist(ctx context.Context, stage *staging.Stage, payload []byte) error {
	done := make(chan error, 1)
	go func() {
		done <- stage.Commit(ctx, payload)
	}()

	if err := <-done; err != nil {
		return &WriteError{Path: stage.Path(), Err: err}
	}
	return nil
}
