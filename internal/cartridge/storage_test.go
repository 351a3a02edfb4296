package cartridge

import (
	"bytes"
	"encoding/gob"
	"os"
	"path/filepath"
	"testing"
)

func TestStorage_WrapsIndex(t *testing.T) {
	s := NewStorage(make([]uint8, 16))
	s.Write(17, 0xAB)
	if s.Read(1) != 0xAB {
		t.Errorf("Expected index to wrap, got %02X", s.Read(1))
	}
	if s.Persistent() {
		t.Error("New storage should be volatile")
	}
}

func TestStorage_MakePersistent_CreatesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "game.prgram")
	s := NewStorage([]uint8{1, 2, 3, 4})
	if err := s.MakePersistent(path); err != nil {
		t.Fatalf("MakePersistent: %v", err)
	}
	if s.Path() != path {
		t.Errorf("Expected path %s, got %s", path, s.Path())
	}
	s.Write(0, 9)
	if err := s.Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}

	onDisk, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(onDisk, []uint8{9, 2, 3, 4}) {
		t.Errorf("Expected flushed contents, got %v", onDisk)
	}

	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if s.Persistent() || s.Read(0) != 9 {
		t.Error("Expected a usable volatile copy after Close")
	}
}

func TestStorage_MakePersistent_LoadsExisting(t *testing.T) {
	path := filepath.Join(t.TempDir(), "game.prgram")
	if err := os.WriteFile(path, []uint8{7, 7, 7, 7}, 0o644); err != nil {
		t.Fatal(err)
	}
	s := NewStorage(make([]uint8, 4))
	if err := s.MakePersistent(path); err != nil {
		t.Fatal(err)
	}
	defer s.Close()
	if !bytes.Equal(s.Bytes(), []uint8{7, 7, 7, 7}) {
		t.Errorf("Expected existing contents, got %v", s.Bytes())
	}
}

func TestStorage_MakePersistent_IgnoresWrongSize(t *testing.T) {
	path := filepath.Join(t.TempDir(), "game.prgram")
	if err := os.WriteFile(path, []uint8{7, 7}, 0o644); err != nil {
		t.Fatal(err)
	}
	s := NewStorage([]uint8{1, 2, 3, 4})
	if err := s.MakePersistent(path); err != nil {
		t.Fatal(err)
	}
	defer s.Close()
	if !bytes.Equal(s.Bytes(), []uint8{1, 2, 3, 4}) {
		t.Errorf("Expected in-memory contents, got %v", s.Bytes())
	}
}

func TestStorage_EmptyCannotPersist(t *testing.T) {
	s := NewStorage(nil)
	if err := s.MakePersistent(filepath.Join(t.TempDir(), "x")); err == nil {
		t.Error("Expected error for empty storage")
	}
}

func TestStorage_GobRoundTrip(t *testing.T) {
	s := NewStorage([]uint8{5, 6, 7})
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(s); err != nil {
		t.Fatal(err)
	}
	var out Storage
	if err := gob.NewDecoder(&buf).Decode(&out); err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(out.Bytes(), s.Bytes()) || out.Persistent() {
		t.Errorf("Expected volatile copy of %v, got %v", s.Bytes(), out.Bytes())
	}
}
