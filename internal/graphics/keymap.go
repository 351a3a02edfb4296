//go:build !headless

package graphics

import (
	"fmt"

	"github.com/hajimehoshi/ebiten/v2"

	"nesemu/internal/input"
)

// KeyMap maps keyboard keys to controller buttons
type KeyMap map[ebiten.Key]input.Button

// DefaultKeyMap returns the bindings for player one
func DefaultKeyMap() KeyMap {
	return KeyMap{
		ebiten.KeyX:          input.ButtonA,
		ebiten.KeyZ:          input.ButtonB,
		ebiten.KeyShiftRight: input.ButtonSelect,
		ebiten.KeyEnter:      input.ButtonStart,
		ebiten.KeyArrowUp:    input.ButtonUp,
		ebiten.KeyArrowDown:  input.ButtonDown,
		ebiten.KeyArrowLeft:  input.ButtonLeft,
		ebiten.KeyArrowRight: input.ButtonRight,
	}
}

// NewKeyMap resolves the key names of b
func NewKeyMap(b input.Bindings) (KeyMap, error) {
	km := KeyMap{}
	for button, name := range b {
		var k ebiten.Key
		if err := k.UnmarshalText([]byte(name)); err != nil {
			return nil, fmt.Errorf("unknown key %q", name)
		}
		km[k] = button
	}
	return km, nil
}

// ValidateBindings reports a key name the window frontend cannot resolve
func ValidateBindings(b input.Bindings) error {
	_, err := NewKeyMap(b)
	return err
}

// Poll returns the button byte for the keys pressed reports as held
func (km KeyMap) Poll(pressed func(ebiten.Key) bool) uint8 {
	var buttons uint8
	for k, b := range km {
		if pressed(k) {
			buttons |= uint8(b)
		}
	}
	return input.CancelOpposites(buttons)
}
