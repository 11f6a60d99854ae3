// FileStore is the disk-backed Store implementation.
// One file per key under a data directory, written via temp file + rename so
// a crash mid-write never leaves a torn blob. Writes are debounced in a
// background goroutine; Close flushes whatever is still pending.
package store

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

const debounceInterval = 500 * time.Millisecond

// FileStore persists blobs as individual JSON files in a directory.
type FileStore struct {
	dir string

	mu      sync.RWMutex
	pending map[string][]byte // key → latest unflushed blob

	saveCh chan struct{}
	doneCh chan struct{}
	wg     sync.WaitGroup
}

// NewFileStore creates a FileStore rooted at dir. If dir is empty it defaults
// to ~/.aethergrid. The directory is created if missing.
func NewFileStore(dir string) (*FileStore, error) {
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, err
		}
		dir = filepath.Join(home, ".aethergrid")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}

	fs := &FileStore{
		dir:     dir,
		pending: make(map[string][]byte),
		saveCh:  make(chan struct{}, 1),
		doneCh:  make(chan struct{}),
	}
	fs.wg.Add(1)
	go fs.flushLoop()

	log.Info().Str("dir", dir).Msg("File store configured")
	return fs, nil
}

// Load reads the blob for key from disk. Pending (not yet flushed) writes are
// returned in preference to the on-disk copy so readers never go backwards.
func (fs *FileStore) Load(key string) ([]byte, bool, error) {
	fs.mu.RLock()
	if blob, ok := fs.pending[key]; ok {
		out := make([]byte, len(blob))
		copy(out, blob)
		fs.mu.RUnlock()
		return out, true, nil
	}
	fs.mu.RUnlock()

	data, err := os.ReadFile(fs.path(key))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return data, true, nil
}

// Save records the blob for key and schedules a debounced flush.
func (fs *FileStore) Save(key string, blob []byte) error {
	cp := make([]byte, len(blob))
	copy(cp, blob)

	fs.mu.Lock()
	fs.pending[key] = cp
	fs.mu.Unlock()

	select {
	case fs.saveCh <- struct{}{}:
	default:
		// Flush already pending
	}
	return nil
}

// Close stops the flush goroutine and writes out any pending blobs.
func (fs *FileStore) Close() error {
	select {
	case <-fs.doneCh:
		return nil // already closed
	default:
		close(fs.doneCh)
	}
	fs.wg.Wait()
	fs.flush()
	log.Info().Msg("File store closed")
	return nil
}

// flushLoop coalesces rapid Save calls into at most one disk write per
// debounce interval.
func (fs *FileStore) flushLoop() {
	defer fs.wg.Done()
	for {
		select {
		case <-fs.doneCh:
			return
		case <-fs.saveCh:
			time.Sleep(debounceInterval)
			fs.flush()
		}
	}
}

func (fs *FileStore) flush() {
	fs.mu.Lock()
	batch := fs.pending
	fs.pending = make(map[string][]byte)
	fs.mu.Unlock()

	for key, blob := range batch {
		path := fs.path(key)
		tmp := path + ".tmp"
		if err := os.WriteFile(tmp, blob, 0o644); err != nil {
			log.Error().Err(err).Str("key", key).Msg("Failed to write blob tmp")
			continue
		}
		if err := os.Rename(tmp, path); err != nil {
			log.Error().Err(err).Str("key", key).Msg("Failed to rename blob")
			continue
		}
		log.Debug().Str("key", key).Int("bytes", len(blob)).Msg("Blob flushed")
	}
}

// path maps a key to a file name, replacing separators that would escape dir.
func (fs *FileStore) path(key string) string {
	safe := strings.NewReplacer("/", "_", "\\", "_", "..", "_").Replace(key)
	return filepath.Join(fs.dir, safe+".json")
}

// Compile-time check that FileStore implements Store.
var _ Store = (*FileStore)(nil)
