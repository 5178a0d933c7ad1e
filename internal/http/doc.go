// Package http provides the HTTP client used to stream a single large file.
//
// This package handles:
//   - One GET per download, with no retries
//   - Mapping non-success status codes to sentinel errors
//   - Reporting the declared Content-Length (or its absence)
//
// # Usage
//
//	client := http.NewClient(http.DefaultOptions())
//
//	resp, err := client.Get(ctx, url)
//	defer resp.Body.Close()
//	// resp.ContentLength is -1 when the server did not declare a size
package http
