package apu

// Noise period table (NTSC)
var noisePeriodTable = [16]uint16{
	4, 8, 16, 32, 64, 96, 128, 160,
	202, 254, 380, 508, 762, 1016, 2034, 4068,
}

// Noise is the pseudo-random noise channel
type Noise struct {
	// $400C-$400F
	Registers [4]uint8
	Length    Length
	Envelope  Envelope
	Timer     uint16
	// 15-bit linear feedback shift register
	Shift uint16
}

func newNoise() Noise {
	return Noise{Shift: 1}
}

func (n *Noise) write(reg uint16, value uint8) {
	n.Registers[reg&3] = value
	switch reg & 3 {
	case 0:
		n.Length.SetHalt(value&0x20 != 0)
	case 3:
		n.Length.Load(value >> 3)
		n.Envelope.Restart()
	}
}

// Cycle implements Channel
func (n *Noise) Cycle() {
	if n.Timer > 0 {
		n.Timer--
		return
	}
	n.Timer = noisePeriodTable[n.Registers[2]&0x0F] - 1

	tap := uint16(1)
	if n.Registers[2]&0x80 != 0 {
		tap = 6
	}
	feedback := (n.Shift ^ n.Shift>>tap) & 1
	n.Shift = (n.Shift&0x7FFF | feedback<<15) >> 1
}

// ClockQuarter implements Channel
func (n *Noise) ClockQuarter() {
	n.Envelope.Clock(n.Registers[0])
}

// ClockHalf implements Channel
func (n *Noise) ClockHalf() {
	n.Length.Clock()
}

// Audio implements Channel
func (n *Noise) Audio() float32 {
	if n.Shift&1 != 0 || !n.Length.Running() {
		return 0
	}
	return float32(n.Envelope.Output(n.Registers[0])) / 255
}
