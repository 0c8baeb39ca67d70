// Package snapshot stores rendered HTML snapshots by name.
//
// A FileStore keeps them in a local directory; an S3Store keeps them in an
// S3 bucket (or any S3 compatible endpoint). The CLI writes a snapshot after
// `vtree render --snapshot name`.
package snapshot

import (
	"context"
	stderrors "errors"
	"strings"

	"github.com/vango-dev/vtree/internal/errors"
)

// ErrNotFound is wrapped by Get when no snapshot has the requested name.
var ErrNotFound = stderrors.New("snapshot: not found")

// Store persists snapshots.
type Store interface {
	// Put stores data under name, replacing any previous snapshot.
	Put(ctx context.Context, name string, data []byte) error

	// Get returns the snapshot stored under name.
	Get(ctx context.Context, name string) ([]byte, error)
}

// Open returns an S3Store when s3cfg names a bucket and a FileStore rooted
// at dir otherwise.
func Open(dir string, s3cfg S3Config) (Store, error) {
	if s3cfg.Bucket != "" {
		return NewS3Store(NewS3Client(s3cfg), s3cfg.Bucket, s3cfg.Prefix), nil
	}
	return NewFileStore(dir)
}

// validName rejects names that would escape the store's namespace.
func validName(name string) error {
	switch {
	case name == "":
		return errors.New("S001").WithDetail("empty snapshot name")
	case strings.ContainsAny(name, `/\`), name == "." || name == "..":
		return errors.New("S001").WithDetailf("invalid snapshot name %q", name).
			WithSuggestion("Snapshot names cannot contain path separators")
	}
	return nil
}

// contentType guesses the MIME type from the name's extension.
func contentType(name string) string {
	switch {
	case strings.HasSuffix(name, ".html"), strings.HasSuffix(name, ".htm"):
		return "text/html; charset=utf-8"
	case strings.HasSuffix(name, ".json"):
		return "application/json"
	default:
		return "application/octet-stream"
	}
}
