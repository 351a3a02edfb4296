// Package app provides configuration management for the NES emulator.
package app

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"nesemu/internal/graphics"
	"nesemu/internal/input"
	"nesemu/internal/logger"
)

// Config holds all application configuration
type Config struct {
	Window    WindowConfig    `json:"window"`
	Video     VideoConfig     `json:"video"`
	Audio     AudioConfig     `json:"audio"`
	Input     InputConfig     `json:"input"`
	Emulation EmulationConfig `json:"emulation"`
	Debug     DebugConfig     `json:"debug"`
	Paths     PathsConfig     `json:"paths"`

	// Internal state
	configPath string
	loaded     bool
}

// WindowConfig contains window-related configuration
type WindowConfig struct {
	Fullscreen bool `json:"fullscreen"`
	Scale      int  `json:"scale"` // NES resolution multiplier
}

// VideoConfig contains video rendering configuration
type VideoConfig struct {
	Backend     string  `json:"backend"` // "ebitengine", "headless", "terminal"
	VSync       bool    `json:"vsync"`
	Filter      string  `json:"filter"` // "nearest", "linear"
	Brightness  float32 `json:"brightness"`
	Contrast    float32 `json:"contrast"`
	Saturation  float32 `json:"saturation"`
	ShowOverlay bool    `json:"show_overlay"`
}

// AudioConfig contains audio configuration
type AudioConfig struct {
	Enabled    bool `json:"enabled"`
	SampleRate int  `json:"sample_rate"`
	Latency    int  `json:"latency"` // Target latency in milliseconds
	// BufferSize is the ring buffer capacity in samples
	BufferSize int `json:"buffer_size"`
	// Driver picks the output: "auto", "ebiten", "oto" or "none". Auto
	// uses ebiten in a window, oto on a terminal and nothing headless.
	Driver string `json:"driver"`
	// Record names a wav file receiving a copy of the output
	Record string `json:"record"`
}

// InputConfig contains input configuration
type InputConfig struct {
	Player1Keys KeyMapping `json:"player1_keys"`
	Player2Keys KeyMapping `json:"player2_keys"`
}

// KeyMapping names the keyboard key of every controller button. Key names
// are ebitengine's ("ArrowUp", "Enter", "X").
type KeyMapping struct {
	Up     string `json:"up"`
	Down   string `json:"down"`
	Left   string `json:"left"`
	Right  string `json:"right"`
	A      string `json:"a"`
	B      string `json:"b"`
	Start  string `json:"start"`
	Select string `json:"select"`
}

// EmulationConfig contains emulation-specific settings
type EmulationConfig struct {
	FrameRate      float64 `json:"frame_rate"`       // Target frame rate
	SaveStateSlots int     `json:"save_state_slots"` // Number of save state slots
	AutoSave       bool    `json:"auto_save"`        // Save to the last slot on exit
	// Randomize starts RAM and clock phases from seeded garbage
	Randomize bool   `json:"randomize"`
	Seed      uint64 `json:"seed"`
}

// DebugConfig contains debugging and development options
type DebugConfig struct {
	ShowFPS      bool     `json:"show_fps"`
	LogLevel     string   `json:"log_level"` // "DEBUG", "INFO", "WARN", "ERROR"
	LogEcho      bool     `json:"log_echo"`
	TraceFile    string   `json:"trace_file"`
	CPUDebug     bool     `json:"cpu_debug"`
	Watchpoints  []uint16 `json:"watchpoints"`
	StatsView    bool     `json:"stats_view"`
	StatsAddress string   `json:"stats_address"`
}

// PathsConfig contains file and directory paths
type PathsConfig struct {
	ROMs        string `json:"roms"`
	SaveData    string `json:"save_data"`
	SaveStates  string `json:"save_states"`
	Screenshots string `json:"screenshots"`
	Logs        string `json:"logs"`
}

// NewConfig creates a new configuration with default values
func NewConfig() *Config {
	return &Config{
		Window: WindowConfig{
			Fullscreen: false,
			Scale:      3,
		},
		Video: VideoConfig{
			Backend:    "ebitengine",
			VSync:      true,
			Filter:     "nearest",
			Brightness: 1.0,
			Contrast:   1.0,
			Saturation: 1.0,
		},
		Audio: AudioConfig{
			Enabled:    true,
			SampleRate: 44100,
			Latency:    50,
			BufferSize: 8192,
			Driver:     "auto",
		},
		Input: InputConfig{
			Player1Keys: KeyMapping{
				Up:     "ArrowUp",
				Down:   "ArrowDown",
				Left:   "ArrowLeft",
				Right:  "ArrowRight",
				A:      "X",
				B:      "Z",
				Start:  "Enter",
				Select: "ShiftRight",
			},
			Player2Keys: KeyMapping{
				Up:     "I",
				Down:   "K",
				Left:   "J",
				Right:  "L",
				A:      "O",
				B:      "U",
				Start:  "H",
				Select: "Y",
			},
		},
		Emulation: EmulationConfig{
			FrameRate:      60.0988,
			SaveStateSlots: 10,
			AutoSave:       false,
			Randomize:      false,
		},
		Debug: DebugConfig{
			LogLevel:     "INFO",
			LogEcho:      true,
			StatsAddress: "localhost:12600",
		},
		Paths: PathsConfig{
			ROMs:        "./roms",
			SaveData:    "./saves",
			SaveStates:  "./states",
			Screenshots: "./screenshots",
			Logs:        "./logs",
		},
	}
}

// LoadFromFile loads configuration from a JSON file. A missing file is
// created with the current values.
func (c *Config) LoadFromFile(path string) error {
	c.configPath = path

	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return c.SaveToFile(path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := json.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := c.validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	c.loaded = true
	return nil
}

// SaveToFile saves configuration to a JSON file
func (c *Config) SaveToFile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	c.configPath = path
	return nil
}

// Save saves the configuration to the current config file
func (c *Config) Save() error {
	if c.configPath == "" {
		return fmt.Errorf("no config file path set")
	}
	return c.SaveToFile(c.configPath)
}

// validate rejects values the emulator cannot run with and clamps the
// ones it can recover from
func (c *Config) validate() error {
	switch graphics.BackendType(c.Video.Backend) {
	case graphics.BackendEbitengine, graphics.BackendHeadless, graphics.BackendTerminal:
	default:
		return &ConfigError{Field: "video.backend", Value: c.Video.Backend, Err: errors.New("unknown backend")}
	}

	if _, err := logger.ParseLevel(c.Debug.LogLevel); err != nil {
		return &ConfigError{Field: "debug.log_level", Value: c.Debug.LogLevel, Err: err}
	}

	for name, km := range map[string]KeyMapping{"input.player1_keys": c.Input.Player1Keys, "input.player2_keys": c.Input.Player2Keys} {
		b, err := km.KeyMap()
		if err == nil {
			err = graphics.ValidateBindings(b)
		}
		if err != nil {
			return &ConfigError{Field: name, Value: km, Err: err}
		}
	}

	if c.Window.Scale <= 0 {
		c.Window.Scale = 1
	}

	if c.Video.Filter != "nearest" && c.Video.Filter != "linear" {
		c.Video.Filter = "nearest"
	}

	if c.Video.Brightness < 0.1 || c.Video.Brightness > 3.0 {
		c.Video.Brightness = 1.0
	}

	if c.Video.Contrast < 0.1 || c.Video.Contrast > 3.0 {
		c.Video.Contrast = 1.0
	}

	if c.Video.Saturation < 0.0 || c.Video.Saturation > 3.0 {
		c.Video.Saturation = 1.0
	}

	if c.Audio.SampleRate < 8000 || c.Audio.SampleRate > 192000 {
		c.Audio.SampleRate = 44100
	}

	if c.Audio.Latency <= 0 {
		c.Audio.Latency = 50
	}

	if c.Audio.BufferSize < 1024 {
		c.Audio.BufferSize = 8192
	}

	switch c.Audio.Driver {
	case "auto", "ebiten", "oto", "none":
	case "":
		c.Audio.Driver = "auto"
	default:
		return &ConfigError{Field: "audio.driver", Value: c.Audio.Driver, Err: errors.New("unknown audio driver")}
	}

	if c.Emulation.FrameRate <= 0 {
		c.Emulation.FrameRate = 60.0988
	}

	if c.Emulation.SaveStateSlots <= 0 {
		c.Emulation.SaveStateSlots = 10
	}

	return nil
}

// Apply pushes the process-wide settings into effect: the log level and
// echo, and the directories the emulator writes to
func (c *Config) Apply() error {
	level, err := logger.ParseLevel(c.Debug.LogLevel)
	if err != nil {
		return &ConfigError{Field: "debug.log_level", Value: c.Debug.LogLevel, Err: err}
	}
	logger.SetLevel(level)
	if c.Debug.LogEcho {
		logger.SetEcho(os.Stderr)
	} else {
		logger.SetEcho(nil)
	}
	return c.createDirectories()
}

// createDirectories creates required directories
func (c *Config) createDirectories() error {
	dirs := []string{
		c.Paths.SaveData,
		c.Paths.SaveStates,
		c.Paths.Screenshots,
		c.Paths.Logs,
	}

	for _, dir := range dirs {
		if dir != "" {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return fmt.Errorf("failed to create directory %s: %w", dir, err)
			}
		}
	}

	return nil
}

// Bindings returns the mapping as button name to key name pairs.
// Unbound buttons are left out.
func (k KeyMapping) Bindings() map[string]string {
	all := map[string]string{
		"up": k.Up, "down": k.Down, "left": k.Left, "right": k.Right,
		"a": k.A, "b": k.B, "start": k.Start, "select": k.Select,
	}
	for button, key := range all {
		if strings.TrimSpace(key) == "" {
			delete(all, button)
		}
	}
	return all
}

// KeyMap parses the mapping into controller bindings
func (k KeyMapping) KeyMap() (input.Bindings, error) {
	return input.ParseBindings(k.Bindings())
}

// GraphicsConfig builds the presentation settings
func (c *Config) GraphicsConfig() (graphics.Config, error) {
	p1, err := c.Input.Player1Keys.KeyMap()
	if err != nil {
		return graphics.Config{}, &ConfigError{Field: "input.player1_keys", Value: c.Input.Player1Keys, Err: err}
	}
	p2, err := c.Input.Player2Keys.KeyMap()
	if err != nil {
		return graphics.Config{}, &ConfigError{Field: "input.player2_keys", Value: c.Input.Player2Keys, Err: err}
	}
	return graphics.Config{
		WindowTitle: "nesemu",
		Scale:       c.Window.Scale,
		Fullscreen:  c.Window.Fullscreen,
		VSync:       c.Video.VSync,
		Filter:      c.Video.Filter,
		Brightness:  c.Video.Brightness,
		Contrast:    c.Video.Contrast,
		Saturation:  c.Video.Saturation,
		Bindings:    [2]input.Bindings{p1, p2},
		ShowOverlay: c.Video.ShowOverlay || c.Debug.ShowFPS,
	}, nil
}

// GetWindowResolution returns the window resolution based on scale
func (c *Config) GetWindowResolution() (int, int) {
	return 256 * c.Window.Scale, 240 * c.Window.Scale
}

// IsLoaded returns whether the configuration was loaded from file
func (c *Config) IsLoaded() bool {
	return c.loaded
}

// GetConfigPath returns the path to the config file
func (c *Config) GetConfigPath() string {
	return c.configPath
}

// Clone creates a deep copy of the configuration
func (c *Config) Clone() *Config {
	data, err := json.Marshal(c)
	if err != nil {
		return NewConfig()
	}

	clone := &Config{}
	if err := json.Unmarshal(data, clone); err != nil {
		return NewConfig()
	}

	clone.configPath = c.configPath
	clone.loaded = c.loaded
	return clone
}

// GetDefaultConfigPath returns the default configuration file path
func GetDefaultConfigPath() string {
	return "./config/nesemu.json"
}

// ConfigError represents configuration-related errors
type ConfigError struct {
	Field string
	Value interface{}
	Err   error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config error in field '%s' with value '%v': %v", e.Field, e.Value, e.Err)
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}
