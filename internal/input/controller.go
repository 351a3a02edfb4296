// Package input implements controller handling for the NES.
package input

import (
	"log"
)

// Button represents NES controller buttons, in the order the shift
// register reports them
type Button uint8

const (
	ButtonA Button = 1 << iota
	ButtonB
	ButtonSelect
	ButtonStart
	ButtonUp
	ButtonDown
	ButtonLeft
	ButtonRight
)

// Convenience constants for shorter names
const (
	A      = ButtonA
	B      = ButtonB
	Select = ButtonSelect
	Start  = ButtonStart
	Up     = ButtonUp
	Down   = ButtonDown
	Left   = ButtonLeft
	Right  = ButtonRight
)

// Controller is a standard controller: a parallel-in serial-out shift
// register latched by the strobe line. Fields are exported for save-states.
type Controller struct {
	Buttons uint8
	Shift   uint8
	Strobe  bool

	debug bool
}

// New creates a new Controller instance
func New() *Controller {
	return &Controller{}
}

// SetButton sets the state of one button
func (c *Controller) SetButton(button Button, pressed bool) {
	if pressed {
		c.Buttons |= uint8(button)
	} else {
		c.Buttons &^= uint8(button)
	}
	c.latch()
}

// SetButtons replaces every button state at once
func (c *Controller) SetButtons(buttons uint8) {
	if c.debug && buttons != c.Buttons {
		log.Printf("[INPUT] buttons %08b -> %08b", c.Buttons, buttons)
	}
	c.Buttons = buttons
	c.latch()
}

// IsPressed returns true if the button is currently pressed
func (c *Controller) IsPressed(button Button) bool {
	return c.Buttons&uint8(button) != 0
}

// latch reloads the shift register while strobe is high
func (c *Controller) latch() {
	if c.Strobe {
		c.Shift = c.Buttons
	}
}

// Write drives the strobe line from bit 0 of a $4016 write
func (c *Controller) Write(value uint8) {
	c.Strobe = value&1 != 0
	c.latch()
}

// Read returns the next button bit in bit 0. While strobe is high it keeps
// returning A. After eight reads the register is empty and reads return 1.
func (c *Controller) Read() uint8 {
	c.latch()
	bit := c.Shift & 1
	c.Shift = c.Shift>>1 | 0x80
	return bit
}

// Dump returns what Read would without shifting
func (c *Controller) Dump() uint8 {
	if c.Strobe {
		return c.Buttons & 1
	}
	return c.Shift & 1
}

// Reset releases every button and clears the register
func (c *Controller) Reset() {
	c.Buttons = 0
	c.Shift = 0
	c.Strobe = false
}

// EnableDebug enables debug logging for this controller
func (c *Controller) EnableDebug(enable bool) {
	c.debug = enable
}

// Ports are the two controller ports at $4016 and $4017
type Ports struct {
	Controllers [2]Controller
}

// NewPorts creates two empty controller ports
func NewPorts() *Ports {
	return &Ports{}
}

// Reset resets both controllers
func (p *Ports) Reset() {
	p.Controllers[0].Reset()
	p.Controllers[1].Reset()
}

// SetButtons sets the buttons of one player (0 or 1)
func (p *Ports) SetButtons(player int, buttons uint8) {
	if player < 0 || player > 1 {
		return
	}
	p.Controllers[player].SetButtons(buttons)
}

// Read reads the data bits of a port. Only bit 0 is driven; the caller
// fills the rest from open bus.
func (p *Ports) Read(address uint16) uint8 {
	switch address {
	case 0x4016:
		return p.Controllers[0].Read()
	case 0x4017:
		return p.Controllers[1].Read()
	}
	return 0
}

// Dump reads a port without side effects
func (p *Ports) Dump(address uint16) uint8 {
	switch address {
	case 0x4016:
		return p.Controllers[0].Dump()
	case 0x4017:
		return p.Controllers[1].Dump()
	}
	return 0
}

// Write handles $4016. Both ports share the strobe line.
func (p *Ports) Write(address uint16, value uint8) {
	if address != 0x4016 {
		return
	}
	p.Controllers[0].Write(value)
	p.Controllers[1].Write(value)
}
