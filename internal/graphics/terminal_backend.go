package graphics

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"

	"nesemu/internal/ppu"
)

// TerminalBackend draws frames on a 24-bit color terminal using upper half
// block characters, two pixel rows per text row
type TerminalBackend struct {
	initialized bool
	config      Config
	out         io.Writer
}

// TerminalWindow implements the Window interface for terminal rendering
type TerminalWindow struct {
	title   string
	width   int
	height  int
	running bool
	out     io.Writer
	// step is the pixel stride; 4 gives a 64x30 character picture
	step      int
	every     int
	frames    int
	update    func() error
	processor *VideoProcessor
	rgba      []uint8
}

// NewTerminalBackend creates a new terminal graphics backend writing to
// stdout
func NewTerminalBackend() Backend {
	return &TerminalBackend{out: os.Stdout}
}

// NewTerminalBackendTo creates a terminal backend writing to w
func NewTerminalBackendTo(w io.Writer) Backend {
	return &TerminalBackend{out: w}
}

// Initialize initializes the terminal backend
func (b *TerminalBackend) Initialize(config Config) error {
	if b.initialized {
		return fmt.Errorf("terminal backend already initialized")
	}
	b.config = config
	b.initialized = true
	return nil
}

// CreateWindow creates a terminal "window"
func (b *TerminalBackend) CreateWindow(title string, width, height int) (Window, error) {
	if !b.initialized {
		return nil, fmt.Errorf("backend not initialized")
	}
	step := 4
	if b.config.Scale > 0 && b.config.Scale < 4 {
		step = 4 / b.config.Scale
	}
	return &TerminalWindow{
		title:     title,
		width:     width,
		height:    height,
		running:   true,
		out:       b.out,
		step:      step,
		every:     6,
		processor: NewVideoProcessor(b.config.Brightness, b.config.Contrast, b.config.Saturation),
		rgba:      make([]uint8, ppu.Width*ppu.Height*4),
	}, nil
}

// Cleanup releases all terminal resources
func (b *TerminalBackend) Cleanup() error {
	b.initialized = false
	return nil
}

// IsHeadless returns false (terminal has basic output)
func (b *TerminalBackend) IsHeadless() bool {
	return false
}

// GetName returns the backend name
func (b *TerminalBackend) GetName() string {
	return "Terminal"
}

// SetTitle sets the terminal title
func (w *TerminalWindow) SetTitle(title string) {
	w.title = title
	fmt.Fprintf(w.out, "\033]0;%s\007", title)
}

// GetSize returns window dimensions
func (w *TerminalWindow) GetSize() (width, height int) {
	return w.width, w.height
}

// ShouldClose returns true if window should close
func (w *TerminalWindow) ShouldClose() bool {
	return !w.running
}

// PollEvents returns nothing, the terminal is output only
func (w *TerminalWindow) PollEvents() []InputEvent {
	return nil
}

// RenderFrame draws every sixth frame, which is all a terminal keeps up
// with
func (w *TerminalWindow) RenderFrame(frame *Frame) error {
	w.frames++
	if (w.frames-1)%w.every != 0 {
		return nil
	}
	w.processor.Process(w.rgba, frame)

	bw := bufio.NewWriter(w.out)
	bw.WriteString("\033[H")
	for y := 0; y+w.step < ppu.Height; y += 2 * w.step {
		for x := 0; x < ppu.Width; x += w.step {
			top := (y*ppu.Width + x) * 4
			bottom := ((y+w.step)*ppu.Width + x) * 4
			fmt.Fprintf(bw, "\033[38;2;%d;%d;%dm\033[48;2;%d;%d;%dm▀",
				w.rgba[top], w.rgba[top+1], w.rgba[top+2],
				w.rgba[bottom], w.rgba[bottom+1], w.rgba[bottom+2])
		}
		bw.WriteString("\033[0m\n")
	}
	return bw.Flush()
}

// SetUpdateFunc sets the function Run calls in a loop
func (w *TerminalWindow) SetUpdateFunc(update func() error) {
	w.update = update
}

// Run clears the terminal and calls the update function until it stops
func (w *TerminalWindow) Run() error {
	if w.update == nil {
		return fmt.Errorf("no update function set")
	}
	fmt.Fprint(w.out, "\033[2J")
	defer fmt.Fprint(w.out, "\033[0m")
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
func (w *TerminalWindow) Cleanup() error {
	w.running = false
	return nil
}
