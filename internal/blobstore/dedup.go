package blobstore

import (
	"context"
	"hash/fnv"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"
)

// DedupSink wraps another Sink and skips re-writing tiles whose encoded
// bytes are identical to one already written — adapted from the teacher's
// PMTiles writer dedup pass (internal/pmtiles/writer.go's FNV-64a
// content-hash map), generalized from "skip re-appending to the archive"
// to "skip re-calling the wrapped Sink". Splitting large uniform regions
// (water, bare rock) into many identical tiles is common in this domain, so
// the dedup ratio the teacher saw for basemap tiles carries over directly.
type DedupSink struct {
	inner Sink
	mu    sync.Mutex
	seen  map[uint64]bool
}

// NewDedupSink wraps inner with content-hash deduplication.
func NewDedupSink(inner Sink) *DedupSink {
	return &DedupSink{inner: inner, seen: make(map[uint64]bool)}
}

func (d *DedupSink) Put(ctx context.Context, relPath string, data []byte) error {
	h := fnv.New64a()
	h.Write(data)
	sum := h.Sum64()

	d.mu.Lock()
	dup := d.seen[sum]
	d.seen[sum] = true
	d.mu.Unlock()

	if dup {
		return nil
	}
	return d.inner.Put(ctx, relPath, data)
}

func (d *DedupSink) Close() error { return d.inner.Close() }

// SplitMergeTempDir creates a worker-local scratch subdirectory for tile
// output before a merge pass collects it into the final sink, following the
// teacher's single shared temp file for pass-1 tile bytes
// (pmtiles.Writer.tmpFile) generalized to one subtree per worker so
// concurrent tiling workers never contend on a single file handle.
func SplitMergeTempDir(root string) (string, error) {
	dir := filepath.Join(root, "geoseg-split-"+uuid.NewString())
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	return dir, nil
}
