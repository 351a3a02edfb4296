package apu

// Triangle wave sequence (32 steps)
var triangleTable = [32]uint8{
	15, 14, 13, 12, 11, 10, 9, 8, 7, 6, 5, 4, 3, 2, 1, 0,
	0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15,
}

// Triangle is the triangle channel. Its timer runs at the cpu rate and a
// linear counter takes the place of the envelope.
type Triangle struct {
	// $4008-$400B
	Registers [4]uint8
	Length    Length
	Linear    uint8
	// LinearReload is set by $400B and held while the control bit is set
	LinearReload bool
	Timer        uint16
	Step         uint8
}

// Period returns the 11-bit timer period
func (t *Triangle) Period() uint16 {
	return uint16(t.Registers[2]) | uint16(t.Registers[3]&7)<<8
}

func (t *Triangle) write(reg uint16, value uint8) {
	t.Registers[reg&3] = value
	switch reg & 3 {
	case 0:
		t.Length.SetHalt(value&0x80 != 0)
	case 3:
		t.Length.Load(value >> 3)
		t.LinearReload = true
	}
}

// Cycle implements Channel
func (t *Triangle) Cycle() {
	if t.Timer > 0 {
		t.Timer--
		return
	}
	t.Timer = t.Period()
	if t.Linear > 0 && t.Length.Running() {
		t.Step = (t.Step + 1) & 0x1F
	}
}

// ClockQuarter implements Channel, running the linear counter
func (t *Triangle) ClockQuarter() {
	if t.LinearReload {
		t.Linear = t.Registers[0] & 0x7F
	} else if t.Linear > 0 {
		t.Linear--
	}
	if t.Registers[0]&0x80 == 0 {
		t.LinearReload = false
	}
}

// ClockHalf implements Channel
func (t *Triangle) ClockHalf() {
	t.Length.Clock()
}

// Audio implements Channel
func (t *Triangle) Audio() float32 {
	return float32(triangleTable[t.Step]) / 255
}
