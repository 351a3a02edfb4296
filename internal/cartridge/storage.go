package cartridge

import (
	"bytes"
	"encoding/gob"
	"errors"
	"fmt"
	"os"
)

// backing is where a persistent Storage keeps its bytes
type backing interface {
	Sync(data []uint8) error
	Release(data []uint8) error
}

// Storage is cartridge RAM that starts out in memory and can be upgraded to a
// file backed buffer once the game is known to use battery saves.
type Storage struct {
	data    []uint8
	backing backing
	path    string
}

// NewStorage wraps an in-memory buffer
func NewStorage(data []uint8) *Storage {
	return &Storage{data: data}
}

// Len returns the size in bytes
func (s *Storage) Len() int {
	return len(s.data)
}

// Bytes exposes the underlying buffer
func (s *Storage) Bytes() []uint8 {
	return s.data
}

// Read returns the byte at i modulo the storage size
func (s *Storage) Read(i int) uint8 {
	return s.data[i%len(s.data)]
}

// Write sets the byte at i modulo the storage size
func (s *Storage) Write(i int, v uint8) {
	s.data[i%len(s.data)] = v
}

// Persistent reports whether the storage is file backed
func (s *Storage) Persistent() bool {
	return s.backing != nil
}

// Path returns the backing file path, if any
func (s *Storage) Path() string {
	return s.path
}

// MakePersistent moves the storage into the file at path. An existing file of
// the right size supplies the contents, otherwise the file is created from the
// current contents.
func (s *Storage) MakePersistent(path string) error {
	if s.backing != nil {
		return nil
	}
	if len(s.data) == 0 {
		return errors.New("storage: nothing to persist")
	}

	initial := s.data
	if existing, err := os.ReadFile(path); err == nil && len(existing) == len(s.data) {
		initial = existing
	}

	data, b, err := openBacking(path, initial)
	if err != nil {
		return fmt.Errorf("storage: %w", err)
	}
	s.data = data
	s.backing = b
	s.path = path
	return nil
}

// Flush writes the contents to the backing file
func (s *Storage) Flush() error {
	if s.backing == nil {
		return nil
	}
	return s.backing.Sync(s.data)
}

// Close flushes and releases the backing file. The storage reverts to an
// in-memory copy so it stays usable.
func (s *Storage) Close() error {
	if s.backing == nil {
		return nil
	}
	keep := make([]uint8, len(s.data))
	copy(keep, s.data)
	err := s.backing.Release(s.data)
	s.data = keep
	s.backing = nil
	return err
}

// Restore copies b over the contents without changing the backing
func (s *Storage) Restore(b []uint8) {
	if len(b) != len(s.data) {
		if s.backing != nil {
			copy(s.data, b)
			return
		}
		s.data = make([]uint8, len(b))
	}
	copy(s.data, b)
}

// GobEncode stores the contents only, never the backing
func (s *Storage) GobEncode() ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(s.data); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// GobDecode restores the contents into a volatile buffer
func (s *Storage) GobDecode(b []byte) error {
	return gob.NewDecoder(bytes.NewReader(b)).Decode(&s.data)
}
