// Package app implements the NES emulator frontend: configuration, the
// windowed or headless run loop, hotkeys and save-state slots.
package app

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"nesemu/internal/audio"
	"nesemu/internal/bus"
	"nesemu/internal/cartridge"
	"nesemu/internal/cpu"
	"nesemu/internal/debug"
	"nesemu/internal/graphics"
	"nesemu/internal/logger"
)

// audioPlayer is a real-time consumer of the sample ring
type audioPlayer interface {
	Play()
	Pause()
	Underruns() uint64
	Close() error
}

// Application represents the main NES emulator application
type Application struct {
	// Core emulation components
	bus *bus.Bus

	// Graphics backend
	graphicsBackend graphics.Backend
	window          graphics.Window
	pacer           *framePacer

	// Audio output
	audioRing   *audio.RingBuffer
	recordRing  *audio.RingBuffer
	audioPlayer audioPlayer
	recorder    *audio.WavRecorder

	// Application state
	config   *Config
	emulator *Emulator
	states   *StateManager
	slot     int

	// Control flags
	running     bool
	paused      bool
	initialized bool
	headless    bool

	// Performance tracking
	frameCount          uint64
	startTime           time.Time
	lastFPSTime         time.Time
	frameCountAtLastFPS uint64
	currentFPS          float64

	// ROM management
	romPath   string
	cartridge *cartridge.Cartridge

	// Debug outputs
	trace     *bufio.Writer
	traceFile *os.File
	dumper    *debug.FrameDumper
	stopStats func()
}

// ApplicationError represents application-specific errors
type ApplicationError struct {
	Component string
	Operation string
	Err       error
}

func (e *ApplicationError) Error() string {
	return fmt.Sprintf("Application %s error during %s: %v", e.Component, e.Operation, e.Err)
}

func (e *ApplicationError) Unwrap() error {
	return e.Err
}

// NewApplication creates a new NES emulator application
func NewApplication(configPath string) (*Application, error) {
	return NewApplicationWithMode(configPath, false)
}

// NewApplicationWithMode creates a new NES emulator application with
// optional headless mode
func NewApplicationWithMode(configPath string, headless bool) (*Application, error) {
	config := NewConfig()
	if configPath != "" {
		if err := config.LoadFromFile(configPath); err != nil {
			log.Printf("[APP] could not load config from %s, using defaults: %v", configPath, err)
			config = NewConfig()
		}
	}
	return NewApplicationWithConfig(config, headless)
}

// NewApplicationWithConfig creates an application from a ready
// configuration. headless forces the headless backend.
func NewApplicationWithConfig(config *Config, headless bool) (*Application, error) {
	if headless {
		config.Video.Backend = string(graphics.BackendHeadless)
	}
	if err := config.validate(); err != nil {
		return nil, &ApplicationError{Component: "config", Operation: "validate", Err: err}
	}
	if err := config.Apply(); err != nil {
		return nil, &ApplicationError{Component: "config", Operation: "apply", Err: err}
	}

	app := &Application{
		config:      config,
		headless:    config.Video.Backend == string(graphics.BackendHeadless),
		startTime:   time.Now(),
		lastFPSTime: time.Now(),
	}

	if err := app.initializeComponents(); err != nil {
		app.Cleanup()
		return nil, &ApplicationError{
			Component: "initialization",
			Operation: "component setup",
			Err:       err,
		}
	}

	return app, nil
}

// initializeComponents initializes all application components
func (app *Application) initializeComponents() error {
	sampleRate := 0
	if app.config.Audio.Enabled {
		sampleRate = app.config.Audio.SampleRate
	}
	app.bus = bus.New(bus.Config{
		SampleRate: sampleRate,
		Seed:       app.config.Emulation.Seed,
		Randomize:  app.config.Emulation.Randomize,
	})

	if err := app.initializeGraphicsBackend(); err != nil {
		return fmt.Errorf("failed to initialize graphics backend: %w", err)
	}

	if err := app.initializeAudio(); err != nil {
		return fmt.Errorf("failed to initialize audio: %w", err)
	}

	app.emulator = NewEmulator(app.bus, app.config.Emulation.FrameRate)
	app.states = NewStateManager(app.config.Paths.SaveStates, app.config.Emulation.SaveStateSlots)

	app.initialized = true
	return nil
}

// initializeGraphicsBackend creates the backend and its window, falling
// back to headless when no display is available
func (app *Application) initializeGraphicsBackend() error {
	backendType := graphics.BackendType(app.config.Video.Backend)

	graphicsConfig, err := app.config.GraphicsConfig()
	if err != nil {
		return err
	}
	graphicsConfig.Overlay = app.overlayText

	app.graphicsBackend, err = graphics.CreateBackend(backendType)
	if err != nil {
		return err
	}
	if err := app.graphicsBackend.Initialize(graphicsConfig); err != nil {
		return err
	}

	width, height := app.config.GetWindowResolution()
	app.window, err = app.graphicsBackend.CreateWindow(graphicsConfig.WindowTitle, width, height)
	if err != nil && backendType == graphics.BackendEbitengine {
		log.Printf("[APP] ebitengine backend failed (%v), falling back to headless mode", err)
		app.graphicsBackend.Cleanup()
		app.graphicsBackend = graphics.NewHeadlessBackend()
		app.config.Video.Backend = string(graphics.BackendHeadless)
		app.headless = true
		if err := app.graphicsBackend.Initialize(graphicsConfig); err != nil {
			return err
		}
		app.window, err = app.graphicsBackend.CreateWindow(graphicsConfig.WindowTitle, width, height)
	}
	if err != nil {
		return fmt.Errorf("failed to create window: %w", err)
	}

	log.Printf("[APP] %s backend, %dx%d", app.graphicsBackend.GetName(), width, height)
	return nil
}

// initializeAudio connects the APU to the configured outputs. Every
// consumer gets its own ring since a ring has a single reader.
func (app *Application) initializeAudio() error {
	cfg := app.config.Audio
	if !cfg.Enabled {
		return nil
	}

	driver := cfg.Driver
	if driver == "auto" {
		switch graphics.BackendType(app.config.Video.Backend) {
		case graphics.BackendEbitengine:
			driver = "ebiten"
		case graphics.BackendTerminal:
			driver = "oto"
		default:
			driver = "none"
		}
	}

	latency := time.Duration(cfg.Latency) * time.Millisecond
	var sinks audio.MultiSink
	switch driver {
	case "ebiten", "oto":
		app.audioRing = audio.NewRingBuffer(cfg.BufferSize)
		var (
			player audioPlayer
			err    error
		)
		if driver == "ebiten" {
			player, err = audio.NewEbitenPlayer(app.audioRing, cfg.SampleRate, latency)
		} else {
			player, err = audio.NewOtoPlayer(app.audioRing, cfg.SampleRate, latency)
		}
		if err != nil {
			log.Printf("[APP] audio output unavailable, continuing without sound: %v", err)
			app.audioRing = nil
		} else {
			app.audioPlayer = player
			sinks = append(sinks, app.audioRing)
		}
	}

	if cfg.Record != "" {
		app.recordRing = audio.NewRingBuffer(cfg.BufferSize)
		rec, err := audio.NewWavRecorder(cfg.Record, cfg.SampleRate, app.recordRing)
		if err != nil {
			return err
		}
		app.recorder = rec
		sinks = append(sinks, app.recordRing)
	}

	switch len(sinks) {
	case 0:
	case 1:
		app.bus.SetAudioSink(sinks[0])
	default:
		app.bus.SetAudioSink(sinks)
	}

	// windows that do not pace themselves run at console speed when a
	// player consumes in real time
	switch graphics.BackendType(app.config.Video.Backend) {
	case graphics.BackendTerminal:
		app.pacer = newFramePacer(app.frameInterval())
	case graphics.BackendHeadless:
		if app.audioPlayer != nil {
			app.pacer = newFramePacer(app.frameInterval())
		}
	}
	return nil
}

func (app *Application) frameInterval() time.Duration {
	return time.Duration(float64(time.Second) / app.config.Emulation.FrameRate)
}

// LoadROM loads a ROM file into the emulator
func (app *Application) LoadROM(romPath string) error {
	if !app.initialized {
		return errors.New("application not initialized")
	}

	cart, err := cartridge.LoadFromFile(romPath, app.config.Paths.SaveData)
	if err != nil {
		return &ApplicationError{
			Component: "cartridge",
			Operation: "load ROM",
			Err:       err,
		}
	}
	app.insert(cart, romPath)
	return nil
}

// LoadCartridge inserts an already loaded cartridge
func (app *Application) LoadCartridge(cart *cartridge.Cartridge) error {
	if !app.initialized {
		return errors.New("application not initialized")
	}
	app.insert(cart, cart.Name())
	return nil
}

func (app *Application) insert(cart *cartridge.Cartridge, path string) {
	if app.cartridge != nil {
		if err := app.cartridge.Close(); err != nil {
			log.Printf("[APP] closing %s: %v", app.cartridge.Name(), err)
		}
	}

	app.cartridge = cart
	app.romPath = path
	app.bus.LoadCartridge(cart)
	app.ApplyDebugSettings()

	app.window.SetTitle(fmt.Sprintf("nesemu - %s", filepath.Base(path)))
	app.emulator.Reset()
	app.emulator.Start()
}

// Run runs until the window closes
func (app *Application) Run() error {
	return app.RunContext(context.Background())
}

// RunContext runs until the window closes or ctx is cancelled. The window
// loop stays on the calling goroutine, which ebitengine requires; the wav
// recorder drains its ring alongside it.
func (app *Application) RunContext(ctx context.Context) error {
	if !app.initialized {
		return errors.New("application not initialized")
	}

	app.running = true
	app.startTime = time.Now()
	app.lastFPSTime = app.startTime

	ctx, cancel := context.WithCancel(ctx)
	g, gctx := errgroup.WithContext(ctx)
	if app.recorder != nil {
		rec := app.recorder
		g.Go(func() error {
			return rec.Run(gctx, 20*time.Millisecond)
		})
	}

	if app.audioPlayer != nil {
		app.audioPlayer.Play()
	}

	app.window.SetUpdateFunc(func() error {
		if gctx.Err() != nil {
			return graphics.ErrQuit
		}
		return app.update()
	})
	log.Printf("[APP] starting emulator with %s backend", app.graphicsBackend.GetName())
	runErr := app.window.Run()
	app.running = false

	cancel()
	if err := g.Wait(); err != nil && runErr == nil {
		runErr = err
	}
	// the recorder closed its file when the context ended
	app.recorder = nil

	if app.config.Emulation.AutoSave && app.cartridge != nil {
		if err := app.SaveState(app.states.GetMaxSlots() - 1); err != nil {
			log.Printf("[APP] auto-save failed: %v", err)
		}
	}
	log.Printf("[APP] main loop ended after %d frames", app.frameCount)
	return runErr
}

// update is called once per displayed frame
func (app *Application) update() error {
	app.processInput()
	if !app.running {
		return graphics.ErrQuit
	}

	if app.cartridge != nil && !app.paused {
		if err := app.emulator.Update(); err != nil {
			return err
		}
		if app.dumper != nil {
			if path, err := app.dumper.DumpFrame(app.bus.FrameBuffer(), app.bus.FrameCount()); err != nil {
				log.Printf("[APP] frame dump: %v", err)
			} else if path != "" {
				log.Printf("[APP_DEBUG] dumped %s", path)
			}
		}
	}

	if err := app.window.RenderFrame(app.bus.FrameBuffer()); err != nil {
		return err
	}
	app.updatePerformanceMetrics()

	if app.pacer != nil && !app.emulator.IsFastForward() {
		app.pacer.Wait()
	}

	if app.window.ShouldClose() {
		app.Stop()
		return graphics.ErrQuit
	}
	return nil
}

// processInput applies the events gathered by the window
func (app *Application) processInput() {
	for _, event := range app.window.PollEvents() {
		app.handleEvent(event)
	}
}

func (app *Application) handleEvent(event graphics.InputEvent) {
	switch event.Type {
	case graphics.InputEventTypeQuit:
		app.Stop()

	case graphics.InputEventTypeButtons:
		app.bus.SetButtons(event.Player, event.Buttons)

	case graphics.InputEventTypeHotkey:
		if event.Hotkey == graphics.HotkeyFastForward {
			app.emulator.SetFastForward(event.Pressed)
			return
		}
		if event.Pressed {
			app.handleHotkey(event.Hotkey)
		}
	}
}

// handleHotkey runs a frontend command. Failures are logged; none of them
// stops the emulator.
func (app *Application) handleHotkey(hk graphics.Hotkey) {
	var err error
	switch hk {
	case graphics.HotkeyReset:
		app.Reset()
	case graphics.HotkeyPowerCycle:
		app.PowerCycle()
	case graphics.HotkeyPause:
		app.TogglePause()
	case graphics.HotkeySaveState:
		err = app.SaveState(app.slot)
	case graphics.HotkeyLoadState:
		err = app.LoadState(app.slot)
	case graphics.HotkeyNextSlot:
		app.SelectSlot(app.slot + 1)
	case graphics.HotkeyPrevSlot:
		app.SelectSlot(app.slot - 1)
	case graphics.HotkeyScreenshot:
		_, err = app.Screenshot()
	}
	if err != nil {
		log.Printf("[APP] %s: %v", hk, err)
	}
}

// updatePerformanceMetrics recomputes the FPS once a second
func (app *Application) updatePerformanceMetrics() {
	app.frameCount++
	now := time.Now()
	if elapsed := now.Sub(app.lastFPSTime); elapsed >= time.Second {
		app.currentFPS = float64(app.frameCount-app.frameCountAtLastFPS) / elapsed.Seconds()
		app.lastFPSTime = now
		app.frameCountAtLastFPS = app.frameCount
		if app.config.Debug.ShowFPS {
			stats := app.emulator.GetPerformanceStats()
			log.Printf("[FPS_DEBUG] %.1f FPS | emulation %.2fms (jitter %.2fms) | speed %.0f%%",
				app.currentFPS,
				float64(stats.AverageFrameTime.Microseconds())/1000,
				float64(stats.FrameJitter.Microseconds())/1000,
				stats.EmulationSpeed)
		}
	}
}

// overlayText is drawn over the frame by backends that support it
func (app *Application) overlayText() string {
	var s strings.Builder
	fmt.Fprintf(&s, "FPS %.1f  frame %d  slot %d", app.currentFPS, app.bus.FrameCount(), app.slot)
	switch {
	case app.paused:
		s.WriteString("  PAUSED")
	case app.emulator.IsFastForward():
		s.WriteString("  >>")
	}
	if app.audioPlayer != nil {
		fmt.Fprintf(&s, "  underruns %d", app.audioPlayer.Underruns())
	}
	s.WriteString("\n")
	logger.Tail(&s, 4)
	return s.String()
}

// Stop stops the application
func (app *Application) Stop() {
	app.running = false
}

// Pause pauses the emulator
func (app *Application) Pause() {
	app.paused = true
	if app.audioPlayer != nil {
		app.audioPlayer.Pause()
	}
}

// Resume resumes the emulator
func (app *Application) Resume() {
	app.paused = false
	if app.audioPlayer != nil {
		app.audioPlayer.Play()
	}
}

// TogglePause toggles pause state
func (app *Application) TogglePause() {
	if app.paused {
		app.Resume()
	} else {
		app.Pause()
	}
}

// SelectSlot makes slot the target of the save and load hotkeys. It wraps
// around at both ends.
func (app *Application) SelectSlot(slot int) {
	n := app.states.GetMaxSlots()
	app.slot = ((slot % n) + n) % n
	log.Printf("[APP] save slot %d", app.slot)
}

// Slot returns the selected save slot
func (app *Application) Slot() int {
	return app.slot
}

// SaveState saves the session to a slot
func (app *Application) SaveState(slot int) error {
	if app.cartridge == nil {
		return errors.New("no ROM loaded")
	}
	if err := app.states.SaveState(app.bus, slot, app.cartridge.SaveName()); err != nil {
		return err
	}
	log.Printf("[APP] saved state to slot %d", slot)
	return nil
}

// LoadState loads a session from a slot
func (app *Application) LoadState(slot int) error {
	if app.cartridge == nil {
		return errors.New("no ROM loaded")
	}
	if err := app.states.LoadState(app.bus, slot, app.cartridge.SaveName()); err != nil {
		return err
	}
	log.Printf("[APP] loaded state from slot %d", slot)
	return nil
}

// Screenshot writes the current frame to the screenshot directory and
// returns the file name
func (app *Application) Screenshot() (string, error) {
	name := "nesemu"
	if app.cartridge != nil {
		name = strings.TrimSuffix(app.cartridge.SaveName(), filepath.Ext(app.cartridge.SaveName()))
	}
	path := filepath.Join(app.config.Paths.Screenshots,
		fmt.Sprintf("%s_%s_%06d.png", name, time.Now().Format("20060102-150405"), app.bus.FrameCount()))
	if err := debug.SavePNG(path, app.bus.FrameBuffer()); err != nil {
		return "", err
	}
	log.Printf("[APP] screenshot %s", path)
	return path, nil
}

// Reset presses the console reset button
func (app *Application) Reset() {
	app.bus.Reset()
	log.Printf("[APP] reset")
}

// PowerCycle switches the console off and on again
func (app *Application) PowerCycle() {
	app.bus.PowerOn()
	app.emulator.Reset()
	log.Printf("[APP] power cycle")
}

// EnableFrameDump writes every interval-th frame to dir as PNG, up to max
// files. Zero max means no limit.
func (app *Application) EnableFrameDump(dir string, interval, max int) error {
	fd := debug.NewFrameDumper(dir)
	fd.SetDumpInterval(interval)
	fd.SetMaxDumps(max)
	if err := fd.Enable(); err != nil {
		return err
	}
	app.dumper = fd
	return nil
}

// SetMaxFrames ends a headless run after n frames
func (app *Application) SetMaxFrames(n int) error {
	hw, ok := app.window.(*graphics.HeadlessWindow)
	if !ok {
		return fmt.Errorf("frame limit needs the headless backend, have %s", app.graphicsBackend.GetName())
	}
	hw.SetMaxFrames(n)
	return nil
}

// stateGraph is the part of the session drawn by WriteStateGraph
type stateGraph struct {
	CPU       cpu.State
	PPU       bus.PPUState
	Mapper    cartridge.Mapper
	Registers []cartridge.Register
}

// WriteStateGraph writes a graphviz graph of the registers and mapper
func (app *Application) WriteStateGraph(path string) error {
	g := &stateGraph{CPU: app.bus.CPUState(), PPU: app.bus.PPUState()}
	if app.cartridge != nil {
		g.Mapper = app.cartridge.Mapper()
		g.Registers = app.cartridge.Registers()
	}
	return debug.SaveStateGraph(path, g)
}

// DumpState writes registers and memory in hex to w
func (app *Application) DumpState(w io.Writer) {
	debug.DumpState(w, app.bus)
}

// IsRunning returns whether the application is running
func (app *Application) IsRunning() bool {
	return app.running
}

// IsPaused returns whether the emulator is paused
func (app *Application) IsPaused() bool {
	return app.paused
}

// IsHeadless reports whether the session runs without a window, either
// because it was asked to or because no display was available
func (app *Application) IsHeadless() bool {
	return app.headless
}

// GetFPS returns the current FPS
func (app *Application) GetFPS() float64 {
	return app.currentFPS
}

// GetFrameCount returns the number of displayed frames
func (app *Application) GetFrameCount() uint64 {
	return app.frameCount
}

// GetUptime returns the application uptime
func (app *Application) GetUptime() time.Duration {
	return time.Since(app.startTime)
}

// GetROMPath returns the currently loaded ROM path
func (app *Application) GetROMPath() string {
	return app.romPath
}

// GetConfig returns the application configuration
func (app *Application) GetConfig() *Config {
	return app.config
}

// Bus returns the emulation session
func (app *Application) Bus() *bus.Bus {
	return app.bus
}

// Window returns the presentation window
func (app *Application) Window() graphics.Window {
	return app.window
}

// ApplyDebugSettings turns on the debug outputs named in the
// configuration
func (app *Application) ApplyDebugSettings() {
	dbg := app.config.Debug

	app.bus.EnableCPUDebug(dbg.CPUDebug)

	if len(dbg.Watchpoints) > 0 {
		for _, addr := range dbg.Watchpoints {
			app.bus.AddMemoryWatchpoint(addr)
		}
		app.bus.EnableWatchpointLogging(true)
		log.Printf("[APP_DEBUG] %d memory watchpoints", len(dbg.Watchpoints))
	}

	if dbg.TraceFile != "" && app.traceFile == nil {
		f, err := os.Create(dbg.TraceFile)
		if err != nil {
			log.Printf("[APP] cpu trace disabled: %v", err)
		} else {
			app.traceFile = f
			app.trace = bufio.NewWriterSize(f, 1<<16)
			app.bus.SetTrace(app.trace)
			log.Printf("[APP] tracing CPU to %s", dbg.TraceFile)
		}
	}

	if dbg.StatsView && app.stopStats == nil {
		app.stopStats = debug.LaunchStatsView(dbg.StatsAddress, os.Stdout)
	}
}

// Cleanup releases all resources and shuts down the application
func (app *Application) Cleanup() error {
	var errs []error

	if app.audioPlayer != nil {
		errs = append(errs, app.audioPlayer.Close())
		app.audioPlayer = nil
	}
	if app.recorder != nil {
		errs = append(errs, app.recorder.Close())
		app.recorder = nil
	}

	if app.trace != nil {
		app.bus.SetTrace(nil)
		errs = append(errs, app.trace.Flush(), app.traceFile.Close())
		app.trace, app.traceFile = nil, nil
	}

	if app.stopStats != nil {
		app.stopStats()
		app.stopStats = nil
	}

	if app.states != nil {
		errs = append(errs, app.states.Cleanup())
	}
	if app.emulator != nil {
		errs = append(errs, app.emulator.Cleanup())
	}
	if app.cartridge != nil {
		errs = append(errs, app.cartridge.Close())
		app.cartridge = nil
	}
	if app.window != nil {
		errs = append(errs, app.window.Cleanup())
	}
	if app.graphicsBackend != nil {
		errs = append(errs, app.graphicsBackend.Cleanup())
	}

	app.initialized = false
	err := errors.Join(errs...)
	if err != nil {
		log.Printf("[APP] cleanup: %v", err)
	}
	return err
}
