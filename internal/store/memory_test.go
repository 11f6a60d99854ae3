package store

import (
	"bytes"
	"testing"
)

func TestMemoryStoreRoundTrip(t *testing.T) {
	s := NewMemoryStore()

	if _, found, err := s.Load("missing"); err != nil || found {
		t.Fatalf("Load(missing) = found %v, err %v, want not found", found, err)
	}

	blob := []byte(`{"a":1}`)
	if err := s.Save("key", blob); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	got, found, err := s.Load("key")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if !found {
		t.Fatal("Load() found = false, want true")
	}
	if !bytes.Equal(got, blob) {
		t.Fatalf("Load() = %s, want %s", got, blob)
	}
}

func TestMemoryStoreCopiesBlobs(t *testing.T) {
	s := NewMemoryStore()

	blob := []byte("original")
	if err := s.Save("key", blob); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	blob[0] = 'X'

	got, _, _ := s.Load("key")
	if string(got) != "original" {
		t.Fatalf("stored blob mutated through caller slice: %s", got)
	}

	got[0] = 'Y'
	again, _, _ := s.Load("key")
	if string(again) != "original" {
		t.Fatalf("stored blob mutated through returned slice: %s", again)
	}
}
