package staging

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gocloud.dev/blob"
	"gocloud.dev/blob/fileblob"
	"gocloud.dev/gcerrors"
)

// attrsSuffix is reserved by fileblob for its sidecar metadata files.
const attrsSuffix = ".attrs"

// Stage is the staged image: one key in a bucket, plus the local path of
// that key when the bucket is backed by the filesystem.
type Stage struct {
	bucket *blob.Bucket
	key    string
	path   string
	owned  bool
}

// Open opens a stage for the file at path, backed by a fileblob bucket on the
// file's directory. The directory is created if missing.
func Open(path string) (*Stage, error) {
	if path == "" || os.IsPathSeparator(path[len(path)-1]) {
		return nil, fmt.Errorf("staging path %q has no file name", path)
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve staging path: %w", err)
	}

	dir, key := filepath.Split(abs)
	if strings.HasSuffix(key, attrsSuffix) {
		return nil, fmt.Errorf("staging path %q: file names ending in %s are reserved", path, attrsSuffix)
	}

	bucket, err := fileblob.OpenBucket(dir, &fileblob.Options{
		CreateDir: true,
		NoTempDir: true, // temp file next to the target so the rename is atomic
		Metadata:  fileblob.MetadataDontWrite,
	})
	if err != nil {
		return nil, fmt.Errorf("open staging directory %s: %w", dir, err)
	}

	return &Stage{bucket: bucket, key: key, path: abs, owned: true}, nil
}

// New wraps an existing bucket. path may be empty when the bucket is not on
// the local filesystem. The caller keeps ownership of
// the bucket.
func New(bucket *blob.Bucket, key, path string) *Stage {
	return &Stage{bucket: bucket, key: key, path: path}
}

// Path returns the local path of the staged file, or its key when the stage
// is not on the local filesystem.
func (s *Stage) Path() string {
	if s.path == "" {
		return s.key
	}
	return s.path
}

// Matches reports whether a staged file exists and its size equals expected.
// Any failure to read its attributes counts as no match. Only the size is
// compared: a different file of the same size is reused.
func (s *Stage) Matches(ctx context.Context, expected uint64) bool {
	attrs, err := s.bucket.Attributes(ctx, s.key)
	if err != nil {
		return false
	}
	return attrs.Size >= 0 && uint64(attrs.Size) == expected
}

// Commit replaces the staged file with data in one write.
func (s *Stage) Commit(ctx context.Context, data []byte) error {
	return s.bucket.WriteAll(ctx, s.key, data, &blob.WriterOptions{
		ContentType: "application/octet-stream",
	})
}

// Remove deletes the staged file. A missing file is not an error.
func (s *Stage) Remove(ctx context.Context) error {
	err := s.bucket.Delete(ctx, s.key)
	if err != nil && gcerrors.Code(err) != gcerrors.NotFound {
		return err
	}
	return nil
}

// Close releases the bucket if the stage opened it.
func (s *Stage) Close() error {
	if !s.owned {
		return nil
	}
	return s.bucket.Close()
}
