//go:build !headless

package graphics

import (
	"testing"

	"github.com/hajimehoshi/ebiten/v2"

	"nesemu/internal/input"
)

func TestKeyMap_Poll(t *testing.T) {
	km := DefaultKeyMap()
	held := map[ebiten.Key]bool{ebiten.KeyX: true, ebiten.KeyArrowLeft: true, ebiten.KeyArrowRight: true, ebiten.KeyArrowUp: true}
	got := km.Poll(func(k ebiten.Key) bool { return held[k] })
	if got != uint8(input.ButtonA|input.ButtonUp) {
		t.Errorf("Poll = %08b, want A+Up with left/right cancelled", got)
	}
}

func TestNewKeyMap(t *testing.T) {
	km, err := NewKeyMap(input.Bindings{input.ButtonA: "k", input.ButtonStart: "space"})
	if err != nil {
		t.Fatalf("NewKeyMap: %v", err)
	}
	if km[ebiten.KeyK] != input.ButtonA || km[ebiten.KeySpace] != input.ButtonStart {
		t.Errorf("unexpected map %v", km)
	}
	if err := ValidateBindings(input.Bindings{input.ButtonA: "NoSuchKey"}); err == nil {
		t.Error("unknown key should fail")
	}
}

func TestInitializeResolvesBindings(t *testing.T) {
	b := &EbitengineBackend{}
	if err := b.Initialize(Config{Bindings: [2]input.Bindings{nil, {input.ButtonB: "q"}}}); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	if len(b.keyMaps[0]) != 8 {
		t.Errorf("player one has %d keys, want the defaults", len(b.keyMaps[0]))
	}
	if b.keyMaps[1][ebiten.KeyQ] != input.ButtonB {
		t.Errorf("player two map %v", b.keyMaps[1])
	}

	bad := &EbitengineBackend{}
	if err := bad.Initialize(Config{Bindings: [2]input.Bindings{{input.ButtonA: "Enterr"}}}); err == nil {
		t.Error("unknown key name should fail Initialize")
	}
}
