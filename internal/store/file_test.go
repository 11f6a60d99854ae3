package store

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
)

func TestFileStoreSaveLoadBeforeFlush(t *testing.T) {
	fs, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore() error = %v", err)
	}
	defer fs.Close()

	blob := []byte(`[1,2,3]`)
	if err := fs.Save("window", blob); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	// The debounce means the file may not exist yet, but Load must still
	// return the pending write.
	got, found, err := fs.Load("window")
	if err != nil || !found {
		t.Fatalf("Load() = found %v, err %v, want pending blob", found, err)
	}
	if !bytes.Equal(got, blob) {
		t.Fatalf("Load() = %s, want %s", got, blob)
	}
}

func TestFileStoreCloseFlushesAndReopens(t *testing.T) {
	dir := t.TempDir()

	fs, err := NewFileStore(dir)
	if err != nil {
		t.Fatalf("NewFileStore() error = %v", err)
	}
	blob := []byte(`{"orders":[]}`)
	if err := fs.Save("orders", blob); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if err := fs.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	onDisk, err := os.ReadFile(filepath.Join(dir, "orders.json"))
	if err != nil {
		t.Fatalf("blob not flushed to disk: %v", err)
	}
	if !bytes.Equal(onDisk, blob) {
		t.Fatalf("flushed blob = %s, want %s", onDisk, blob)
	}

	reopened, err := NewFileStore(dir)
	if err != nil {
		t.Fatalf("NewFileStore() reopen error = %v", err)
	}
	defer reopened.Close()

	got, found, err := reopened.Load("orders")
	if err != nil || !found {
		t.Fatalf("Load() after reopen = found %v, err %v", found, err)
	}
	if !bytes.Equal(got, blob) {
		t.Fatalf("Load() after reopen = %s, want %s", got, blob)
	}
}

func TestFileStoreSanitizesKeys(t *testing.T) {
	dir := t.TempDir()
	fs, err := NewFileStore(dir)
	if err != nil {
		t.Fatalf("NewFileStore() error = %v", err)
	}
	if err := fs.Save("../escape/attempt", []byte("x")); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if err := fs.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("ReadDir() error = %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("got %d files in store dir, want 1", len(entries))
	}
}

func TestFileStoreCloseIdempotent(t *testing.T) {
	fs, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore() error = %v", err)
	}
	if err := fs.Close(); err != nil {
		t.Fatalf("first Close() error = %v", err)
	}
	if err := fs.Close(); err != nil {
		t.Fatalf("second Close() error = %v", err)
	}
}
