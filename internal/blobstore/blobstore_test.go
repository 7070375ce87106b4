package blobstore

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func TestLocalSink_WritesNestedPath(t *testing.T) {
	root := t.TempDir()
	sink, err := NewLocalSink(root)
	if err != nil {
		t.Fatalf("NewLocalSink: %v", err)
	}

	rel := "spherical_mercator_tiles/z_3/x_1/y_2.png"
	if err := sink.Put(context.Background(), rel, []byte("data")); err != nil {
		t.Fatalf("Put: %v", err)
	}

	got, err := os.ReadFile(filepath.Join(root, filepath.FromSlash(rel)))
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if string(got) != "data" {
		t.Errorf("content = %q, want %q", got, "data")
	}
}

type countingSink struct {
	puts int
}

func (c *countingSink) Put(context.Context, string, []byte) error {
	c.puts++
	return nil
}
func (c *countingSink) Close() error { return nil }

func TestDedupSink_SkipsIdenticalBytes(t *testing.T) {
	inner := &countingSink{}
	dedup := NewDedupSink(inner)

	ctx := context.Background()
	_ = dedup.Put(ctx, "a.png", []byte("same"))
	_ = dedup.Put(ctx, "b.png", []byte("same"))
	_ = dedup.Put(ctx, "c.png", []byte("different"))

	if inner.puts != 2 {
		t.Errorf("inner.puts = %d, want 2 (one dedup hit)", inner.puts)
	}
}

func TestMultiSink_FansOutToAll(t *testing.T) {
	a, b := &countingSink{}, &countingSink{}
	multi := MultiSink{Sinks: []Sink{a, b}}
	_ = multi.Put(context.Background(), "x.png", []byte("v"))
	if a.puts != 1 || b.puts != 1 {
		t.Errorf("expected both sinks to receive the put")
	}
}

func TestSplitMergeTempDir_CreatesUniqueDirs(t *testing.T) {
	root := t.TempDir()
	d1, err := SplitMergeTempDir(root)
	if err != nil {
		t.Fatalf("SplitMergeTempDir: %v", err)
	}
	d2, err := SplitMergeTempDir(root)
	if err != nil {
		t.Fatalf("SplitMergeTempDir: %v", err)
	}
	if d1 == d2 {
		t.Error("expected distinct temp dirs")
	}
}
