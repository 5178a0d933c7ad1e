// Package progress provides progress reporting for a single streamed download.
//
// A Counter is shared between the goroutine receiving the body (sole writer)
// and a Reporter (sole reader). The Reporter polls the counter once per
// interval and writes human-readable lines until the expected total has been
// observed.
//
// # Usage
//
//	var fetched progress.Counter
//	reporter := progress.NewReporter(progress.Options{
//	    Total:   expected,
//	    Counter: &fetched,
//	    Output:  os.Stdout,
//	})
//
//	reporter.Start(ctx)
//	// ... fetched.Add(n) as chunks arrive ...
//	reporter.Wait()
//
// # Output Format
//
//	[widevine-fetch] Fetched 52428800 bytes (50 MiB) so far, 24.619140625%
//	[widevine-fetch] Fetched 212963328 bytes (203 MiB), 100%
package progress
