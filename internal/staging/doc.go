// Package staging manages the single staged copy of the downloaded image.
//
// The staged file lives in a gocloud.dev bucket. In production the bucket is
// a fileblob bucket rooted at the staging directory, so the object is a plain
// file at a well-known path that the install step can hand to hdiutil. Tests
// use memblob.
//
// A Stage answers one question before a download (does the staged file
// already have the expected size?) and performs one write after it.
package staging
