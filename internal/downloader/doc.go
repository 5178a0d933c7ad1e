// Package downloader streams one large file over HTTP into a staged copy on
// disk while a progress reporter runs alongside.
//
// # Usage
//
// The main entry point is the Download function:
//
//	res, err := downloader.Download(ctx, downloader.Options{
//	    URL:    imageURL,
//	    Stage:  stage,
//	    Output: os.Stdout,
//	    Logger: log,
//	})
//
// # Flow
//
//   - GET the URL and read the declared Content-Length
//   - Reuse the staged file if it already has that size
//   - Otherwise stream the body into a buffer sized to Content-Length while
//     a Reporter polls the shared byte counter once per second
//   - Join the reporter, then write the buffer to the stage
//
// # Errors
//
// Every failure is fatal and returned as one of TransportError,
// MissingSizeError, IncompleteTransferError or WriteError. Use errors.As to
// tell them apart.
package downloader
