package apu

// Envelope generates the decaying volume of the pulse and noise channels. It
// reads its settings from the channel control register: bit 5 loops, bit 4
// selects constant volume, the low nibble is the volume or divider period.
type Envelope struct {
	Start   bool
	Divider uint8
	Decay   uint8
}

// Restart is triggered by a write to the channel's length register
func (e *Envelope) Restart() {
	e.Start = true
}

// Clock runs one quarter-frame tick
func (e *Envelope) Clock(control uint8) {
	period := control & 0x0F
	if e.Start {
		e.Start = false
		e.Decay = 15
		e.Divider = period
		return
	}
	if e.Divider > 0 {
		e.Divider--
		return
	}
	e.Divider = period
	if e.Decay > 0 {
		e.Decay--
	} else if control&0x20 != 0 {
		e.Decay = 15
	}
}

// Output returns the current volume, 0-15
func (e *Envelope) Output(control uint8) uint8 {
	if control&0x10 != 0 {
		return control & 0x0F
	}
	return e.Decay
}
