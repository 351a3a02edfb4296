package graphics

import (
	"errors"
	"fmt"
)

// HeadlessBackend implements the Backend interface for headless operation
type HeadlessBackend struct {
	initialized bool
	config      Config
}

// HeadlessWindow runs the update function as fast as it returns and keeps
// the last frame
type HeadlessWindow struct {
	title      string
	width      int
	height     int
	running    bool
	frameCount int
	maxFrames  int
	last       Frame
	update     func() error
	onFrame    func(n int, frame *Frame) error
}

// NewHeadlessBackend creates a new headless graphics backend
func NewHeadlessBackend() Backend {
	return &HeadlessBackend{}
}

// Initialize initializes the headless backend
func (b *HeadlessBackend) Initialize(config Config) error {
	if b.initialized {
		return fmt.Errorf("headless backend already initialized")
	}
	b.config = config
	b.initialized = true
	return nil
}

// CreateWindow creates a headless "window" (no actual window)
func (b *HeadlessBackend) CreateWindow(title string, width, height int) (Window, error) {
	if !b.initialized {
		return nil, fmt.Errorf("backend not initialized")
	}
	return &HeadlessWindow{
		title:   title,
		width:   width,
		height:  height,
		running: true,
	}, nil
}

// Cleanup releases all headless resources
func (b *HeadlessBackend) Cleanup() error {
	b.initialized = false
	return nil
}

// IsHeadless returns true (this is a headless backend)
func (b *HeadlessBackend) IsHeadless() bool {
	return true
}

// GetName returns the backend name
func (b *HeadlessBackend) GetName() string {
	return "Headless"
}

// SetTitle sets the window title (for logging purposes)
func (w *HeadlessWindow) SetTitle(title string) {
	w.title = title
}

// GetSize returns window dimensions
func (w *HeadlessWindow) GetSize() (width, height int) {
	return w.width, w.height
}

// ShouldClose returns true if window should close
func (w *HeadlessWindow) ShouldClose() bool {
	return !w.running
}

// PollEvents returns nothing, a headless window has no input
func (w *HeadlessWindow) PollEvents() []InputEvent {
	return nil
}

// RenderFrame keeps a copy of frame and passes it to the frame hook
func (w *HeadlessWindow) RenderFrame(frame *Frame) error {
	w.frameCount++
	w.last = *frame
	if w.onFrame != nil {
		if err := w.onFrame(w.frameCount, &w.last); err != nil {
			return err
		}
	}
	if w.maxFrames > 0 && w.frameCount >= w.maxFrames {
		w.running = false
	}
	return nil
}

// SetUpdateFunc sets the function Run calls in a loop
func (w *HeadlessWindow) SetUpdateFunc(update func() error) {
	w.update = update
}

// Run calls the update function until the window closes, the update
// function returns ErrQuit or it fails
func (w *HeadlessWindow) Run() error {
	if w.update == nil {
		return fmt.Errorf("no update function set")
	}
	for w.running {
		if err := w.update(); err != nil {
			w.running = false
			if errors.Is(err, ErrQuit) {
				return nil
			}
			return err
		}
	}
	return nil
}

// Cleanup releases window resources
func (w *HeadlessWindow) Cleanup() error {
	w.running = false
	return nil
}

// SetMaxFrames closes the window after n rendered frames. Zero runs
// until the update function stops.
func (w *HeadlessWindow) SetMaxFrames(n int) {
	w.maxFrames = n
}

// SetFrameHook calls hook for every rendered frame
func (w *HeadlessWindow) SetFrameHook(hook func(n int, frame *Frame) error) {
	w.onFrame = hook
}

// GetFrameCount returns the number of rendered frames
func (w *HeadlessWindow) GetFrameCount() int {
	return w.frameCount
}

// LastFrame returns the most recently rendered frame
func (w *HeadlessWindow) LastFrame() *Frame {
	return &w.last
}
