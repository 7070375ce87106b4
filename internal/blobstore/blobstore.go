// Package blobstore writes a tile tree to local disk and, optionally,
// mirrors it to an S3-compatible object store — the destination-side
// counterpart of the teacher's single-archive PMTiles output, generalized
// to spec.md §6's plain directory tree.
package blobstore

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/minio/minio-go/v7"
)

// Sink writes a tile's encoded bytes to its canonical relative path.
type Sink interface {
	Put(ctx context.Context, relPath string, data []byte) error
	Close() error
}

// LocalSink writes tiles under a root directory, creating parent
// directories as needed — following the teacher's plain os.MkdirAll +
// os.WriteFile tile-write idiom (internal/tile/generator.go), generalized
// from a single PMTiles archive file to a directory tree.
type LocalSink struct {
	Root string
}

// NewLocalSink returns a Sink rooted at root, creating it if necessary.
func NewLocalSink(root string) (*LocalSink, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("blobstore: create root %s: %w", root, err)
	}
	return &LocalSink{Root: root}, nil
}

func (s *LocalSink) Put(_ context.Context, relPath string, data []byte) error {
	full := filepath.Join(s.Root, filepath.FromSlash(relPath))
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return fmt.Errorf("blobstore: mkdir for %s: %w", relPath, err)
	}
	if err := os.WriteFile(full, data, 0o644); err != nil {
		return fmt.Errorf("blobstore: write %s: %w", relPath, err)
	}
	return nil
}

func (s *LocalSink) Close() error { return nil }

// s3Client is the subset of minio.Client this package uses, following the
// teacher-pack idiom (brawer-wikidata-qrank's S3 interface) of depending on
// a narrow interface rather than the concrete client, for testability.
type s3Client interface {
	PutObject(ctx context.Context, bucketName, objectName string, reader io.Reader, objectSize int64, opts minio.PutObjectOptions) (minio.UploadInfo, error)
}

// S3Sink mirrors tiles to an S3-compatible bucket via minio-go, in addition
// to (or instead of) a LocalSink.
type S3Sink struct {
	client s3Client
	bucket string
	prefix string
}

// NewS3Sink wraps an already-constructed minio.Client. Credentials/endpoint
// setup is the cmd/ entry point's job (spec.md's config is plain structs,
// no config-loader framework), matching how the teacher pack's qrank-builder
// constructs its S3 client in main().
func NewS3Sink(client *minio.Client, bucket, prefix string) *S3Sink {
	return &S3Sink{client: client, bucket: bucket, prefix: prefix}
}

func (s *S3Sink) Put(ctx context.Context, relPath string, data []byte) error {
	key := relPath
	if s.prefix != "" {
		key = s.prefix + "/" + relPath
	}
	_, err := s.client.PutObject(ctx, s.bucket, key, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: contentTypeForExt(filepath.Ext(relPath)),
	})
	if err != nil {
		return fmt.Errorf("blobstore: s3 put %s: %w", key, err)
	}
	return nil
}

func (s *S3Sink) Close() error { return nil }

func contentTypeForExt(ext string) string {
	switch ext {
	case ".png":
		return "image/png"
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".webp":
		return "image/webp"
	case ".json":
		return "application/json"
	case ".geojson":
		return "application/geo+json"
	case ".csv":
		return "text/csv"
	case ".txt":
		return "text/plain"
	default:
		return "application/octet-stream"
	}
}

// MultiSink fans a single Put out to every wrapped Sink, stopping at the
// first error (mirrors §7's general "fail fast" propagation policy).
type MultiSink struct {
	Sinks []Sink
}

func (m MultiSink) Put(ctx context.Context, relPath string, data []byte) error {
	for _, s := range m.Sinks {
		if err := s.Put(ctx, relPath, data); err != nil {
			return err
		}
	}
	return nil
}

func (m MultiSink) Close() error {
	var first error
	for _, s := range m.Sinks {
		if err := s.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}
