package graphics

import (
	"bytes"
	"errors"
	"strings"
	"testing"
)

func newWindow(t *testing.T, b Backend) Window {
	t.Helper()
	if err := b.Initialize(Config{Brightness: 1, Contrast: 1, Saturation: 1}); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	w, err := b.CreateWindow("test", 256, 240)
	if err != nil {
		t.Fatalf("CreateWindow: %v", err)
	}
	return w
}

func TestCreateBackend(t *testing.T) {
	for _, name := range []BackendType{BackendHeadless, BackendTerminal} {
		b, err := CreateBackend(name)
		if err != nil || b == nil {
			t.Errorf("CreateBackend(%q) = %v, %v", name, b, err)
		}
	}
	if _, err := CreateBackend("sdl2"); err == nil {
		t.Error("an unknown backend was created")
	}
}

func TestHeadlessRunStopsAfterMaxFrames(t *testing.T) {
	w := newWindow(t, NewHeadlessBackend()).(*HeadlessWindow)
	w.SetMaxFrames(5)

	var frame Frame
	calls := 0
	w.SetUpdateFunc(func() error {
		calls++
		frame[0] = uint8(calls)
		return w.RenderFrame(&frame)
	})
	if err := w.Run(); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if calls != 5 || w.GetFrameCount() != 5 {
		t.Errorf("%d updates, %d frames", calls, w.GetFrameCount())
	}
	if w.LastFrame()[0] != 5 {
		t.Errorf("last frame starts with %d", w.LastFrame()[0])
	}
	if !w.ShouldClose() {
		t.Error("window should be closed")
	}
}

func TestHeadlessRunErrors(t *testing.T) {
	w := newWindow(t, NewHeadlessBackend())
	w.SetUpdateFunc(func() error { return ErrQuit })
	if err := w.Run(); err != nil {
		t.Errorf("ErrQuit should end Run cleanly, got %v", err)
	}

	w = newWindow(t, NewHeadlessBackend())
	boom := errors.New("boom")
	w.SetUpdateFunc(func() error { return boom })
	if err := w.Run(); !errors.Is(err, boom) {
		t.Errorf("Run() = %v, want boom", err)
	}
}

func TestHeadlessFrameHook(t *testing.T) {
	w := newWindow(t, NewHeadlessBackend()).(*HeadlessWindow)
	var seen []int
	w.SetFrameHook(func(n int, _ *Frame) error {
		seen = append(seen, n)
		return nil
	})
	var frame Frame
	for i := 0; i < 3; i++ {
		if err := w.RenderFrame(&frame); err != nil {
			t.Fatal(err)
		}
	}
	if len(seen) != 3 || seen[2] != 3 {
		t.Errorf("hook saw %v", seen)
	}
}

func TestTerminalRendersEverySixthFrame(t *testing.T) {
	var out bytes.Buffer
	w := newWindow(t, NewTerminalBackendTo(&out))

	var frame Frame
	frame[0], frame[1], frame[2] = 1, 2, 3
	if err := w.RenderFrame(&frame); err != nil {
		t.Fatal(err)
	}
	first := out.String()
	if !strings.Contains(first, "\033[38;2;1;2;3m") {
		t.Fatalf("top-left pixel color missing from %q", first[:80])
	}
	if rows := strings.Count(first, "\n"); rows != 30 {
		t.Errorf("drew %d rows, want 30", rows)
	}

	for i := 0; i < 5; i++ {
		w.RenderFrame(&frame)
	}
	if out.Len() != len(first) {
		t.Error("frames two to six should be skipped")
	}
	w.RenderFrame(&frame)
	if out.Len() != 2*len(first) {
		t.Error("frame seven should be drawn")
	}
}
