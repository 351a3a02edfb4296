package app

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestNewConfigIsValid(t *testing.T) {
	c := NewConfig()
	if err := c.validate(); err != nil {
		t.Fatalf("default config: %v", err)
	}
	gc, err := c.GraphicsConfig()
	if err != nil {
		t.Fatalf("GraphicsConfig: %v", err)
	}
	for i, km := range gc.Bindings {
		if len(km) != 8 {
			t.Errorf("player %d has %d bindings", i+1, len(km))
		}
	}
	if w, h := c.GetWindowResolution(); w != 768 || h != 720 {
		t.Errorf("window %dx%d", w, h)
	}
}

func TestLoadFromFileCreatesDefault(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config", "nesemu.json")

	c := NewConfig()
	if err := c.LoadFromFile(path); err != nil {
		t.Fatalf("LoadFromFile: %v", err)
	}
	if c.IsLoaded() {
		t.Error("a freshly written default counts as loaded")
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("default config not written: %v", err)
	}

	again := NewConfig()
	again.Audio.SampleRate = 22050
	if err := again.LoadFromFile(path); err != nil {
		t.Fatalf("LoadFromFile: %v", err)
	}
	if !again.IsLoaded() || again.GetConfigPath() != path {
		t.Errorf("loaded=%v path=%q", again.IsLoaded(), again.GetConfigPath())
	}
	if again.Audio.SampleRate != 44100 {
		t.Errorf("sample rate %d not read from file", again.Audio.SampleRate)
	}
}

func TestLoadFromFileBadJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.json")
	if err := os.WriteFile(path, []byte("{\"video\": "), 0644); err != nil {
		t.Fatal(err)
	}
	if err := NewConfig().LoadFromFile(path); err == nil {
		t.Error("truncated JSON loaded without error")
	}
}

func TestValidateClamps(t *testing.T) {
	c := NewConfig()
	c.Window.Scale = 0
	c.Video.Brightness = 9
	c.Video.Filter = "cubic"
	c.Audio.SampleRate = 10
	c.Audio.Driver = ""
	c.Emulation.FrameRate = -1
	c.Emulation.SaveStateSlots = 0

	if err := c.validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}
	if c.Window.Scale != 1 || c.Video.Brightness != 1 || c.Video.Filter != "nearest" {
		t.Errorf("video not clamped: scale %d brightness %v filter %s", c.Window.Scale, c.Video.Brightness, c.Video.Filter)
	}
	if c.Audio.SampleRate != 44100 || c.Audio.Driver != "auto" {
		t.Errorf("audio not clamped: %d Hz driver %q", c.Audio.SampleRate, c.Audio.Driver)
	}
	if c.Emulation.FrameRate <= 0 || c.Emulation.SaveStateSlots != 10 {
		t.Errorf("emulation not clamped: %v fps %d slots", c.Emulation.FrameRate, c.Emulation.SaveStateSlots)
	}
}

func TestValidateRejects(t *testing.T) {
	tests := []struct {
		field  string
		modify func(c *Config)
	}{
		{"video.backend", func(c *Config) { c.Video.Backend = "sdl2" }},
		{"debug.log_level", func(c *Config) { c.Debug.LogLevel = "LOUD" }},
		{"audio.driver", func(c *Config) { c.Audio.Driver = "alsa" }},
	}
	for _, tt := range tests {
		t.Run(tt.field, func(t *testing.T) {
			c := NewConfig()
			tt.modify(c)
			err := c.validate()
			var ce *ConfigError
			if !errors.As(err, &ce) {
				t.Fatalf("validate() = %v, want a ConfigError", err)
			}
			if ce.Field != tt.field {
				t.Errorf("error names field %q", ce.Field)
			}
		})
	}
}

func TestKeyMappingSkipsUnbound(t *testing.T) {
	km := NewConfig().Input.Player1Keys
	km.Select = ""
	if b := km.Bindings(); len(b) != 7 {
		t.Errorf("%d bindings with select unbound", len(b))
	}
	parsed, err := km.KeyMap()
	if err != nil || len(parsed) != 7 {
		t.Errorf("KeyMap() = %d keys, %v", len(parsed), err)
	}
}

func TestCloneIsIndependent(t *testing.T) {
	c := NewConfig()
	c.Debug.Watchpoints = []uint16{0x0010}
	clone := c.Clone()
	clone.Debug.Watchpoints[0] = 0x0020
	clone.Audio.SampleRate = 48000
	if c.Debug.Watchpoints[0] != 0x0010 || c.Audio.SampleRate != 44100 {
		t.Error("changing the clone changed the original")
	}
}

func TestApplyCreatesDirectories(t *testing.T) {
	dir := t.TempDir()
	c := NewConfig()
	c.Paths = PathsConfig{
		SaveData:    filepath.Join(dir, "saves"),
		SaveStates:  filepath.Join(dir, "states"),
		Screenshots: filepath.Join(dir, "shots"),
		Logs:        filepath.Join(dir, "logs"),
	}
	if err := c.Apply(); err != nil {
		t.Fatalf("Apply: %v", err)
	}
	for _, d := range []string{c.Paths.SaveData, c.Paths.SaveStates, c.Paths.Screenshots, c.Paths.Logs} {
		if fi, err := os.Stat(d); err != nil || !fi.IsDir() {
			t.Errorf("%s not created: %v", d, err)
		}
	}
}
