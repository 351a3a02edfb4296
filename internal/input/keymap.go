package input

import (
	"fmt"
	"strings"
)

// Bindings maps controller buttons to key names as they appear in the
// configuration file. Resolving the names to keys is up to the frontend.
type Bindings map[Button]string

var buttonNames = map[string]Button{
	"a": ButtonA, "b": ButtonB, "select": ButtonSelect, "start": ButtonStart,
	"up": ButtonUp, "down": ButtonDown, "left": ButtonLeft, "right": ButtonRight,
}

// ParseBindings builds Bindings from button name to key name pairs.
// Buttons bound to an empty key are left out.
func ParseBindings(pairs map[string]string) (Bindings, error) {
	b := Bindings{}
	for button, key := range pairs {
		id, ok := buttonNames[strings.ToLower(button)]
		if !ok {
			return nil, fmt.Errorf("unknown button %q", button)
		}
		if key = strings.TrimSpace(key); key != "" {
			b[id] = key
		}
	}
	return b, nil
}

// CancelOpposites releases both directions of an axis when both are held,
// since the hardware pad cannot press them together
func CancelOpposites(buttons uint8) uint8 {
	if buttons&uint8(ButtonUp|ButtonDown) == uint8(ButtonUp|ButtonDown) {
		buttons &^= uint8(ButtonUp | ButtonDown)
	}
	if buttons&uint8(ButtonLeft|ButtonRight) == uint8(ButtonLeft|ButtonRight) {
		buttons &^= uint8(ButtonLeft | ButtonRight)
	}
	return buttons
}
