package apu

// Length counter lookup table
var lengthTable = [32]uint8{
	10, 254, 20, 2, 40, 4, 80, 6,
	160, 8, 60, 10, 14, 12, 26, 14,
	12, 16, 24, 18, 48, 20, 96, 22,
	192, 24, 72, 26, 16, 28, 32, 30,
}

// Length is the length counter shared by the pulse, triangle and noise channels
type Length struct {
	Counter uint8
	Halt    bool
	// Enabled mirrors the channel bit in $4015
	Enabled bool
	// Inhibit marks a reload in the current cycle. A reload of a stopped
	// counter beats a half-frame clock in that cycle; a reload of a running
	// counter loses to it, and Previous is what the clock then decrements.
	Inhibit  bool
	Previous uint8
	// Halt writes take effect one clock late
	HaltPending bool
	HaltNext    bool
}

// Load reloads the counter from the 5-bit code, when the channel is enabled
func (l *Length) Load(code uint8) {
	if !l.Enabled {
		return
	}
	if !l.Inhibit {
		l.Previous = l.Counter
	}
	l.Counter = lengthTable[code&0x1F]
	l.Inhibit = true
}

// SetHalt schedules a change of the halt flag
func (l *Length) SetHalt(h bool) {
	l.HaltPending = true
	l.HaltNext = h
}

// applyHalt commits a scheduled halt change and drops the reload inhibit
func (l *Length) applyHalt() {
	if l.HaltPending {
		l.Halt = l.HaltNext
		l.HaltPending = false
	}
	l.Inhibit = false
}

// Clock is the half-frame decrement
func (l *Length) Clock() {
	if l.Inhibit {
		if l.Previous == 0 {
			return
		}
		l.Counter = l.Previous
		l.Inhibit = false
	}
	if l.Counter > 0 && !l.Halt {
		l.Counter--
	}
}

// Running reports a non-zero counter
func (l *Length) Running() bool {
	return l.Counter != 0
}

// Enable sets the $4015 bit; disabling clears the counter
func (l *Length) Enable(on bool) {
	l.Enabled = on
	if !on {
		l.Counter = 0
		l.Previous = 0
		l.Inhibit = false
	}
}
