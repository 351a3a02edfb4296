package app

import (
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"nesemu/internal/bus"
)

// ErrNoState is returned when loading from an empty slot
var ErrNoState = errors.New("no save state in slot")

// StateManager keeps numbered save state slots per game as files in one
// directory
type StateManager struct {
	saveDirectory string
	maxSlots      int
	initialized   bool
}

// StateSlotInfo contains information about a save state slot
type StateSlotInfo struct {
	SlotNumber int       `json:"slot_number"`
	Used       bool      `json:"used"`
	Timestamp  time.Time `json:"timestamp"`
	FilePath   string    `json:"file_path"`
	FileSize   int64     `json:"file_size"`
}

// NewStateManager creates a new state manager
func NewStateManager(saveDirectory string, maxSlots int) *StateManager {
	if maxSlots <= 0 {
		maxSlots = 10
	}
	manager := &StateManager{
		saveDirectory: saveDirectory,
		maxSlots:      maxSlots,
	}

	if err := manager.initialize(); err != nil {
		log.Printf("[STATES] initialization failed: %v", err)
	}

	return manager
}

func (sm *StateManager) initialize() error {
	if err := os.MkdirAll(sm.saveDirectory, 0755); err != nil {
		return fmt.Errorf("failed to create save directory: %w", err)
	}
	sm.initialized = true
	return nil
}

func (sm *StateManager) checkSlot(slot int) error {
	if !sm.initialized {
		return fmt.Errorf("state manager not initialized")
	}
	if slot < 0 || slot >= sm.maxSlots {
		return fmt.Errorf("invalid save slot: %d (must be 0-%d)", slot, sm.maxSlots-1)
	}
	return nil
}

// SaveState writes the session to a slot. The previous contents of the
// slot survive a failed write.
func (sm *StateManager) SaveState(b *bus.Bus, slot int, game string) error {
	if err := sm.checkSlot(slot); err != nil {
		return err
	}
	return sm.writeFile(b, sm.getSlotFilePath(slot, game))
}

// LoadState replaces the session with the contents of a slot
func (sm *StateManager) LoadState(b *bus.Bus, slot int, game string) error {
	if err := sm.checkSlot(slot); err != nil {
		return err
	}
	path := sm.getSlotFilePath(slot, game)
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("%w %d", ErrNoState, slot)
	}
	return sm.readFile(b, path)
}

// ExportState writes the session to any file
func (sm *StateManager) ExportState(b *bus.Bus, path string) error {
	return sm.writeFile(b, path)
}

// ImportState loads a session from any file written by ExportState or a slot
func (sm *StateManager) ImportState(b *bus.Bus, path string) error {
	return sm.readFile(b, path)
}

func (sm *StateManager) writeFile(b *bus.Bus, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".state-*")
	if err != nil {
		return fmt.Errorf("failed to create state file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := b.SaveState(tmp); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write state file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to write state file: %w", err)
	}
	return nil
}

func (sm *StateManager) readFile(b *bus.Bus, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open state file: %w", err)
	}
	defer f.Close()
	if err := b.LoadState(f); err != nil {
		return fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	return nil
}

// getSlotFilePath generates the file path for a save slot
func (sm *StateManager) getSlotFilePath(slot int, game string) string {
	name := strings.TrimSuffix(filepath.Base(game), filepath.Ext(game))
	return filepath.Join(sm.saveDirectory, fmt.Sprintf("%s_slot_%d.state", name, slot))
}

// GetSlotInfo returns information about all save slots of a game
func (sm *StateManager) GetSlotInfo(game string) []StateSlotInfo {
	slots := make([]StateSlotInfo, sm.maxSlots)
	for i := range slots {
		slots[i].SlotNumber = i
		path := sm.getSlotFilePath(i, game)
		if stat, err := os.Stat(path); err == nil {
			slots[i].Used = true
			slots[i].FilePath = path
			slots[i].FileSize = stat.Size()
			slots[i].Timestamp = stat.ModTime()
		}
	}
	return slots
}

// DeleteState deletes a save state from a slot
func (sm *StateManager) DeleteState(slot int, game string) error {
	if err := sm.checkSlot(slot); err != nil {
		return err
	}
	err := os.Remove(sm.getSlotFilePath(slot, game))
	if errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("%w %d", ErrNoState, slot)
	}
	if err != nil {
		return fmt.Errorf("failed to delete save state: %w", err)
	}
	return nil
}

// HasSaveState checks if a save state exists in a slot
func (sm *StateManager) HasSaveState(slot int, game string) bool {
	if slot < 0 || slot >= sm.maxSlots {
		return false
	}
	_, err := os.Stat(sm.getSlotFilePath(slot, game))
	return err == nil
}

// GetMaxSlots returns the maximum number of save slots
func (sm *StateManager) GetMaxSlots() int {
	return sm.maxSlots
}

// GetSaveDirectory returns the save directory path
func (sm *StateManager) GetSaveDirectory() string {
	return sm.saveDirectory
}

// Cleanup cleans up state manager resources
func (sm *StateManager) Cleanup() error {
	sm.initialized = false
	return nil
}
