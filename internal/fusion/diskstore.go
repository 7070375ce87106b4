package fusion

import (
	"log"
	"os"
	"sync"
	"sync/atomic"

	"github.com/cartograph/geoseg/internal/encode"
	"github.com/cartograph/geoseg/internal/tiledata"
)

// diskEntry records the location of an encoded auxiliary tile on disk.
type diskEntry struct {
	offset int64
	length int32
}

// Estimated per-entry Go map overhead including bucket metadata, hash table
// load factor (~6.5 entries/bucket), and key/value storage. Conservative
// estimates to keep the memory limit honest.
const (
	mapOverheadUniform = 128 // map[string]*tiledata.TileData entry + TileData struct
	mapOverheadIndex   = 64  // map[string]diskEntry entry
)

// ioRequest is sent from Put() to the I/O goroutine for async disk writes.
type ioRequest struct {
	key      string
	encoded  []byte
	memBytes int64
}

// AuxTileStore is a concurrent-safe cache of auxiliary-tile pixel data keyed
// by tile path (spec.md §6 canonical path, e.g.
// "image_pixel_tiles/<raster>/width_height_256_256/width_offset_128/height_offset_0.png").
// FuseRaster does not use it: the substitution pass reads auxiliary pixels
// from RasterFusionInput.Pixels, which holds every tile decoded in memory.
//
// Tiles are kept in memory as encoded bytes rather than raw pixels, which
// reduces the footprint by 5-25x. When a memory limit is configured, a
// dedicated I/O goroutine spills encoded tiles to a temp file and evicts
// them from the in-memory map; Get() transparently falls back to the temp
// file via pread-style ReadAt, so readers never contend with the writer.
type AuxTileStore struct {
	mu       sync.RWMutex
	uniforms map[string]*tiledata.TileData
	encoded  map[string][]byte
	index    map[string]diskEntry
	tileSize int
	format   string // encoder format for decode path ("png", "jpeg", "webp")

	readFile atomic.Pointer[os.File]
	dir      string

	memBytes    atomic.Int64
	mapOverhead atomic.Int64
	memoryLimit int64
	spillMu     sync.Mutex
	memCond     *sync.Cond

	ioCh      chan ioRequest
	ioWg      sync.WaitGroup
	drainOnce sync.Once

	totalDiskTiles int64
	totalDiskBytes int64

	verbose bool
}

// AuxTileStoreConfig configures the disk-backed auxiliary tile cache.
type AuxTileStoreConfig struct {
	// InitialCapacity estimates the number of auxiliary tiles for map pre-allocation.
	InitialCapacity int
	// TileSize is the tile dimension in pixels.
	TileSize int
	// TempDir is the directory for spill files. Defaults to the OS temp dir.
	TempDir string
	// MemoryLimitBytes enables continuous disk spilling when > 0.
	MemoryLimitBytes int64
	// Format is the encoder format name ("png", "jpeg", "webp"), required
	// when MemoryLimitBytes > 0 so spilled tiles can be decoded on read-back.
	Format  string
	Verbose bool
}

// NewAuxTileStore creates a new disk-backed auxiliary tile cache.
func NewAuxTileStore(cfg AuxTileStoreConfig) *AuxTileStore {
	cap := cfg.InitialCapacity
	if cap < 64 {
		cap = 64
	}
	dir := cfg.TempDir
	if dir == "" {
		dir = os.TempDir()
	}

	encodedCap := cap
	uniformCap := cap / 4
	if cfg.MemoryLimitBytes > 0 {
		encodedCap = int(cfg.MemoryLimitBytes / (20 * 1024))
		if encodedCap > 1_000_000 {
			encodedCap = 1_000_000
		}
		if encodedCap < 1024 {
			encodedCap = 1024
		}
		uniformCap = 1024
	}

	s := &AuxTileStore{
		uniforms: make(map[string]*tiledata.TileData, uniformCap),
		encoded:  make(map[string][]byte, encodedCap),
		index:    make(map[string]diskEntry),
		tileSize: cfg.TileSize,
		format:   cfg.Format,
		dir:      dir,
		verbose:  cfg.Verbose,
	}

	if cfg.MemoryLimitBytes > 0 && cfg.Format != "" {
		s.memoryLimit = cfg.MemoryLimitBytes
		s.memCond = sync.NewCond(&s.spillMu)
		s.ioCh = make(chan ioRequest, 256)
		s.ioWg.Add(1)
		go s.ioLoop()
	}

	return s
}

// Put stores an auxiliary tile's pixel data under its canonical path key.
// encoded must contain the pre-encoded tile bytes for non-uniform tiles.
func (s *AuxTileStore) Put(path string, td *tiledata.TileData, encoded []byte) {
	if td.IsUniform() {
		s.mu.Lock()
		s.uniforms[path] = td
		s.mu.Unlock()
		s.mapOverhead.Add(mapOverheadUniform)
		return
	}

	mem := int64(len(encoded))
	s.mu.Lock()
	s.encoded[path] = encoded
	s.mu.Unlock()
	s.memBytes.Add(mem)

	if s.ioCh != nil && len(encoded) > 0 {
		s.ioCh <- ioRequest{key: path, encoded: encoded, memBytes: mem}
	}

	if s.memCond != nil {
		s.spillMu.Lock()
		for s.totalMemory() > s.memoryLimit {
			s.memCond.Wait()
		}
		s.spillMu.Unlock()
	}
}

// Get retrieves an auxiliary tile's pixel data by path, decoding from memory
// or disk as needed. Returns nil if the tile was never stored.
func (s *AuxTileStore) Get(path string) *tiledata.TileData {
	s.mu.RLock()
	td := s.uniforms[path]
	enc := s.encoded[path]
	de, onDisk := s.index[path]
	s.mu.RUnlock()

	if td != nil {
		return td
	}
	if enc != nil {
		return s.decodeEncoded(enc)
	}
	if !onDisk {
		return nil
	}

	f := s.readFile.Load()
	if f == nil {
		return nil
	}

	buf := make([]byte, de.length)
	if _, err := f.ReadAt(buf, de.offset); err != nil {
		return nil
	}
	return s.decodeEncoded(buf)
}

func (s *AuxTileStore) decodeEncoded(data []byte) *tiledata.TileData {
	img, err := encode.DecodeImage(data, s.format)
	if err != nil {
		return nil
	}
	return tiledata.FromImage(img, s.tileSize)
}

// ioLoop is the dedicated I/O goroutine that continuously writes encoded
// auxiliary tiles to the temp file and evicts them from memory. Only this
// goroutine writes to the file; readers use atomic load + ReadAt (pread),
// so file I/O never contends with the map mutex.
func (s *AuxTileStore) ioLoop() {
	defer s.ioWg.Done()

	var file *os.File
	var fileOff int64

	for req := range s.ioCh {
		if file == nil {
			f, err := os.CreateTemp(s.dir, "geoseg-fusion-auxcache-*.tmp")
			if err != nil {
				log.Printf("WARNING: fusion aux tile store: failed to create temp file: %v (tile stays in memory)", err)
				continue
			}
			file = f
			s.readFile.Store(f)
			if s.verbose {
				log.Printf("fusion aux tile store: created spill file %s", f.Name())
			}
		}

		n, err := file.Write(req.encoded)
		if err != nil {
			log.Printf("WARNING: fusion aux tile store: write error: %v (tile stays in memory)", err)
			continue
		}

		s.mu.Lock()
		s.index[req.key] = diskEntry{offset: fileOff, length: int32(n)}
		delete(s.encoded, req.key)
		s.mu.Unlock()

		fileOff += int64(n)
		s.memBytes.Add(-req.memBytes)
		s.mapOverhead.Add(mapOverheadIndex)
		s.totalDiskTiles++
		s.totalDiskBytes += int64(n)

		if s.memCond != nil {
			s.memCond.Broadcast()
		}
	}
}

// Drain blocks until all pending spill writes are complete. Call after all
// Put()s for a raster's auxiliary set are done and before substitution reads
// begin against tiles that may have been spilled.
func (s *AuxTileStore) Drain() {
	if s.ioCh == nil {
		return
	}
	s.drainOnce.Do(func() {
		close(s.ioCh)
		s.ioWg.Wait()
		if s.verbose {
			log.Printf("fusion aux tile store: drained (%d tiles, %.1f MB spilled)",
				s.totalDiskTiles, float64(s.totalDiskBytes)/(1024*1024))
		}
	})
}

// Len returns the total number of cached tiles (uniform + in-memory + on-disk).
func (s *AuxTileStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.uniforms) + len(s.encoded) + len(s.index)
}

func (s *AuxTileStore) totalMemory() int64 {
	return s.memBytes.Load() + s.mapOverhead.Load()
}

// MemoryBytes returns the estimated total in-memory usage.
func (s *AuxTileStore) MemoryBytes() int64 {
	return s.totalMemory()
}

// Close drains pending I/O and removes the temporary spill file.
func (s *AuxTileStore) Close() {
	s.Drain()
	if f := s.readFile.Swap(nil); f != nil {
		name := f.Name()
		f.Close()
		os.Remove(name)
	}
}
