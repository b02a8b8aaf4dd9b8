package artifact

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"cloud.google.com/go/storage"
)

// Source resolves artifact names to readers.
type Source interface {
	Open(ctx context.Context, name string) (io.ReadCloser, error)
	String() string
}

// DirSource reads artifacts from a local directory.
type DirSource struct {
	Dir string
}

func (s DirSource) Open(_ context.Context, name string) (io.ReadCloser, error) {
	f, err := os.Open(filepath.Join(s.Dir, name))
	if err != nil {
		return nil, fmt.Errorf("open artifact %s: %w", name, err)
	}
	return f, nil
}

func (s DirSource) String() string { return s.Dir }

// GCSSource reads artifacts from gs://bucket/prefix.
type GCSSource struct {
	client *storage.Client
	bucket string
	prefix string
}

// IsGCS reports whether location is a gs:// URI.
func IsGCS(location string) bool {
	return strings.HasPrefix(location, "gs://")
}

func NewGCSSource(client *storage.Client, uri string) (*GCSSource, error) {
	rest, ok := strings.CutPrefix(uri, "gs://")
	if !ok {
		return nil, fmt.Errorf("not a gs:// uri: %q", uri)
	}
	bucket, prefix, _ := strings.Cut(rest, "/")
	if bucket == "" {
		return nil, fmt.Errorf("missing bucket in %q", uri)
	}
	return &GCSSource{client: client, bucket: bucket, prefix: strings.Trim(prefix, "/")}, nil
}

func (s *GCSSource) Open(ctx context.Context, name string) (io.ReadCloser, error) {
	obj := path.Join(s.prefix, name)
	r, err := s.client.Bucket(s.bucket).Object(obj).NewReader(ctx)
	if err != nil {
		return nil, fmt.Errorf("open gs://%s/%s: %w", s.bucket, obj, err)
	}
	return r, nil
}

func (s *GCSSource) String() string {
	return "gs://" + path.Join(s.bucket, s.prefix)
}
