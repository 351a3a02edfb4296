// Package graphics presents emulator frames: in an ebitengine window, on a
// terminal, or nowhere at all for headless runs.
package graphics

import (
	"errors"
	"fmt"

	"nesemu/internal/input"
	"nesemu/internal/ppu"
)

// Frame is the PPU output, three bytes per pixel
type Frame = [ppu.Width * ppu.Height * 3]uint8

// ErrQuit is returned by an update function to end Run without error
var ErrQuit = errors.New("quit requested")

// Backend represents a graphics rendering backend
type Backend interface {
	// Initialize prepares the backend. It must be called once before
	// CreateWindow.
	Initialize(config Config) error

	CreateWindow(title string, width, height int) (Window, error)

	Cleanup() error

	// IsHeadless reports whether the backend shows nothing
	IsHeadless() bool

	GetName() string
}

// Window is where frames go. Run drives the emulator through the update
// function at the backend's pace.
type Window interface {
	SetTitle(title string)
	GetSize() (width, height int)
	ShouldClose() bool

	// PollEvents returns the input gathered since the last call
	PollEvents() []InputEvent

	// RenderFrame shows frame. The window keeps a copy.
	RenderFrame(frame *Frame) error

	// SetUpdateFunc sets the function Run calls once per displayed frame
	SetUpdateFunc(update func() error)

	// Run blocks until the window closes or the update function fails
	Run() error

	Cleanup() error
}

// Config contains configuration for graphics backends
type Config struct {
	WindowTitle string
	Scale       int
	Fullscreen  bool
	VSync       bool
	Filter      string // "nearest" or "linear"

	Brightness float32
	Contrast   float32
	Saturation float32

	// Bindings holds the keyboard bindings of both players. Player one
	// falls back to the default keys when unset.
	Bindings [2]input.Bindings

	// Overlay is drawn over the frame when ShowOverlay is set
	ShowOverlay bool
	Overlay     func() string
}

// InputEventType represents the type of input event
type InputEventType int

const (
	// InputEventTypeButtons carries the full button byte of one player
	InputEventTypeButtons InputEventType = iota
	InputEventTypeHotkey
	InputEventTypeQuit
)

// Hotkey is a frontend command bound to a key
type Hotkey int

const (
	HotkeyNone Hotkey = iota
	HotkeyReset
	HotkeyPowerCycle
	HotkeyPause
	HotkeySaveState
	HotkeyLoadState
	HotkeyNextSlot
	HotkeyPrevSlot
	HotkeyScreenshot
	HotkeyToggleOverlay
	HotkeyFastForward
)

var hotkeyNames = map[Hotkey]string{
	HotkeyNone:          "none",
	HotkeyReset:         "reset",
	HotkeyPowerCycle:    "power-cycle",
	HotkeyPause:         "pause",
	HotkeySaveState:     "save-state",
	HotkeyLoadState:     "load-state",
	HotkeyNextSlot:      "next-slot",
	HotkeyPrevSlot:      "prev-slot",
	HotkeyScreenshot:    "screenshot",
	HotkeyToggleOverlay: "toggle-overlay",
	HotkeyFastForward:   "fast-forward",
}

func (h Hotkey) String() string {
	if s, ok := hotkeyNames[h]; ok {
		return s
	}
	return fmt.Sprintf("Hotkey(%d)", int(h))
}

// InputEvent represents an input event from the window
type InputEvent struct {
	Type    InputEventType
	Player  int
	Buttons uint8
	Hotkey  Hotkey
	// Pressed is false for the release of a held hotkey
	Pressed bool
}

// BackendType represents different graphics backend types
type BackendType string

const (
	BackendEbitengine BackendType = "ebitengine"
	BackendHeadless   BackendType = "headless"
	BackendTerminal   BackendType = "terminal"
)

// CreateBackend creates a graphics backend of the specified type
func CreateBackend(backendType BackendType) (Backend, error) {
	switch backendType {
	case BackendEbitengine:
		return NewEbitengineBackend(), nil
	case BackendHeadless:
		return NewHeadlessBackend(), nil
	case BackendTerminal:
		return NewTerminalBackend(), nil
	}
	return nil, fmt.Errorf("unknown graphics backend %q", backendType)
}
