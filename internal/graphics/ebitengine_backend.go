//go:build !headless

package graphics

import (
	"errors"
	"fmt"
	"image/color"
	"log"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"

	"nesemu/internal/ppu"
)

// DefaultHotkeys binds the frontend commands
var DefaultHotkeys = map[ebiten.Key]Hotkey{
	ebiten.KeyF1:  HotkeyReset,
	ebiten.KeyF2:  HotkeyPowerCycle,
	ebiten.KeyP:   HotkeyPause,
	ebiten.KeyF5:  HotkeySaveState,
	ebiten.KeyF7:  HotkeyLoadState,
	ebiten.KeyF6:  HotkeyPrevSlot,
	ebiten.KeyF8:  HotkeyNextSlot,
	ebiten.KeyF12: HotkeyScreenshot,
	ebiten.KeyF3:  HotkeyToggleOverlay,
	ebiten.KeyTab: HotkeyFastForward,
}

// EbitengineBackend implements the Backend interface using Ebitengine
type EbitengineBackend struct {
	initialized bool
	config      Config
	keyMaps     [2]KeyMap
}

// EbitengineWindow implements the Window interface for Ebitengine
type EbitengineWindow struct {
	title   string
	width   int
	height  int
	game    *ebitengineGame
	running bool
	events  []InputEvent
	update  func() error
}

// ebitengineGame implements ebiten.Game
type ebitengineGame struct {
	window     *EbitengineWindow
	config     Config
	processor  *VideoProcessor
	frameImage *ebiten.Image
	pixels     []uint8
	keyMaps    [2]KeyMap
	buttons    [2]uint8
	overlay    bool
}

// NewEbitengineBackend creates a new Ebitengine graphics backend
func NewEbitengineBackend() Backend {
	return &EbitengineBackend{}
}

// Initialize initializes the Ebitengine backend
func (b *EbitengineBackend) Initialize(config Config) error {
	if b.initialized {
		return fmt.Errorf("ebitengine backend already initialized")
	}
	for player, bindings := range config.Bindings {
		if bindings == nil {
			continue
		}
		km, err := NewKeyMap(bindings)
		if err != nil {
			return fmt.Errorf("player %d keys: %w", player+1, err)
		}
		b.keyMaps[player] = km
	}
	if b.keyMaps[0] == nil {
		b.keyMaps[0] = DefaultKeyMap()
	}
	b.config = config
	b.initialized = true
	return nil
}

// CreateWindow creates an Ebitengine window
func (b *EbitengineBackend) CreateWindow(title string, width, height int) (Window, error) {
	if !b.initialized {
		return nil, fmt.Errorf("backend not initialized")
	}

	game := &ebitengineGame{
		config:     b.config,
		keyMaps:    b.keyMaps,
		processor:  NewVideoProcessor(b.config.Brightness, b.config.Contrast, b.config.Saturation),
		frameImage: ebiten.NewImage(ppu.Width, ppu.Height),
		pixels:     make([]uint8, ppu.Width*ppu.Height*4),
		overlay:    b.config.ShowOverlay,
	}
	window := &EbitengineWindow{
		title:   title,
		width:   width,
		height:  height,
		game:    game,
		running: true,
	}
	game.window = window

	ebiten.SetWindowTitle(title)
	ebiten.SetWindowSize(width, height)
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	ebiten.SetVsyncEnabled(b.config.VSync)
	ebiten.SetFullscreen(b.config.Fullscreen)
	// one emulated frame per tick
	ebiten.SetTPS(60)

	return window, nil
}

// Cleanup releases all Ebitengine resources
func (b *EbitengineBackend) Cleanup() error {
	b.initialized = false
	b.keyMaps = [2]KeyMap{}
	return nil
}

// IsHeadless returns false, ebitengine always opens a window
func (b *EbitengineBackend) IsHeadless() bool {
	return false
}

// GetName returns the backend name
func (b *EbitengineBackend) GetName() string {
	return "Ebitengine"
}

// SetTitle sets the window title
func (w *EbitengineWindow) SetTitle(title string) {
	w.title = title
	ebiten.SetWindowTitle(title)
}

// GetSize returns window dimensions
func (w *EbitengineWindow) GetSize() (width, height int) {
	return w.width, w.height
}

// ShouldClose returns true if window should close
func (w *EbitengineWindow) ShouldClose() bool {
	return !w.running
}

// PollEvents returns the input gathered since the last call
func (w *EbitengineWindow) PollEvents() []InputEvent {
	events := w.events
	w.events = nil
	return events
}

// RenderFrame uploads frame to the texture drawn on the next Draw
func (w *EbitengineWindow) RenderFrame(frame *Frame) error {
	if w.game == nil {
		return fmt.Errorf("game not initialized")
	}
	w.game.processor.Process(w.game.pixels, frame)
	w.game.frameImage.WritePixels(w.game.pixels)
	return nil
}

// SetUpdateFunc sets the function called once per tick
func (w *EbitengineWindow) SetUpdateFunc(update func() error) {
	w.update = update
}

// Run starts the Ebitengine game loop
func (w *EbitengineWindow) Run() error {
	if w.game == nil {
		return fmt.Errorf("game not initialized")
	}
	err := ebiten.RunGame(w.game)
	w.running = false
	if errors.Is(err, ebiten.Termination) {
		return nil
	}
	return err
}

// Cleanup releases window resources
func (w *EbitengineWindow) Cleanup() error {
	w.running = false
	return nil
}

// Update implements ebiten.Game
func (g *ebitengineGame) Update() error {
	if !g.window.running || ebiten.IsWindowBeingClosed() {
		return ebiten.Termination
	}
	g.window.events = append(g.window.events, g.pollInput(ebiten.IsKeyPressed, inpututil.IsKeyJustPressed, inpututil.IsKeyJustReleased)...)
	for _, e := range g.window.events {
		if e.Type == InputEventTypeHotkey && e.Hotkey == HotkeyToggleOverlay && e.Pressed {
			g.overlay = !g.overlay
		}
	}

	if g.window.update == nil {
		return nil
	}
	if err := g.window.update(); err != nil {
		if errors.Is(err, ErrQuit) {
			return ebiten.Termination
		}
		log.Printf("[GRAPHICS] update failed: %v", err)
		return err
	}
	return nil
}

// pollInput turns the keyboard state into events. Button events are sent
// only when a player's buttons change.
func (g *ebitengineGame) pollInput(pressed, justPressed, justReleased func(ebiten.Key) bool) []InputEvent {
	var events []InputEvent
	if justPressed(ebiten.KeyEscape) {
		events = append(events, InputEvent{Type: InputEventTypeQuit, Pressed: true})
	}
	for player, km := range g.keyMaps {
		if km == nil {
			continue
		}
		buttons := km.Poll(pressed)
		if buttons != g.buttons[player] {
			g.buttons[player] = buttons
			events = append(events, InputEvent{Type: InputEventTypeButtons, Player: player, Buttons: buttons})
		}
	}
	for key, hk := range DefaultHotkeys {
		switch {
		case justPressed(key):
			events = append(events, InputEvent{Type: InputEventTypeHotkey, Hotkey: hk, Pressed: true})
		case justReleased(key):
			events = append(events, InputEvent{Type: InputEventTypeHotkey, Hotkey: hk, Pressed: false})
		}
	}
	return events
}

// Draw implements ebiten.Game
func (g *ebitengineGame) Draw(screen *ebiten.Image) {
	screen.Fill(color.Black)

	sw, sh := screen.Bounds().Dx(), screen.Bounds().Dy()
	scale := float64(sw) / ppu.Width
	if s := float64(sh) / ppu.Height; s < scale {
		scale = s
	}
	op := &ebiten.DrawImageOptions{}
	op.GeoM.Scale(scale, scale)
	op.GeoM.Translate((float64(sw)-ppu.Width*scale)/2, (float64(sh)-ppu.Height*scale)/2)
	if g.config.Filter == "linear" {
		op.Filter = ebiten.FilterLinear
	}
	screen.DrawImage(g.frameImage, op)

	if g.overlay && g.config.Overlay != nil {
		ebitenutil.DebugPrint(screen, g.config.Overlay())
	}
}

// Layout implements ebiten.Game
func (g *ebitengineGame) Layout(outsideWidth, outsideHeight int) (int, int) {
	g.window.width = outsideWidth
	g.window.height = outsideHeight
	return outsideWidth, outsideHeight
}
