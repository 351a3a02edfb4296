package apu

// Duty cycle lookup table (8 steps each)
var dutyTable = [4][8]uint8{
	{0, 1, 0, 0, 0, 0, 0, 0}, // 12.5%
	{0, 1, 1, 0, 0, 0, 0, 0}, // 25%
	{0, 1, 1, 1, 1, 0, 0, 0}, // 50%
	{1, 0, 0, 1, 1, 1, 1, 1}, // 75% (25% negated)
}

// Square is one of the two pulse channels
type Square struct {
	// $4000-$4003 or $4004-$4007
	Registers [4]uint8
	Length    Length
	Envelope  Envelope
	Sweep     Sweep
	Timer     uint16
	Step      uint8
}

func newSquare(onesComplement bool) Square {
	return Square{Sweep: Sweep{OnesComplement: onesComplement}}
}

// Period returns the 11-bit timer period
func (s *Square) Period() uint16 {
	return uint16(s.Registers[2]) | uint16(s.Registers[3]&7)<<8
}

func (s *Square) setPeriod(p uint16) {
	s.Registers[2] = uint8(p)
	s.Registers[3] = s.Registers[3]&0xF8 | uint8(p>>8)&7
}

func (s *Square) write(reg uint16, value uint8) {
	s.Registers[reg&3] = value
	switch reg & 3 {
	case 0:
		s.Length.SetHalt(value&0x20 != 0)
	case 1:
		s.Sweep.Reload = true
	case 3:
		s.Length.Load(value >> 3)
		s.Envelope.Restart()
		s.Step = 0
	}
}

// Cycle implements Channel
func (s *Square) Cycle() {
	if s.Timer > 0 {
		s.Timer--
		return
	}
	s.Timer = s.Period()
	s.Step = (s.Step + 1) & 7
}

// ClockQuarter implements Channel
func (s *Square) ClockQuarter() {
	s.Envelope.Clock(s.Registers[0])
}

// ClockHalf implements Channel
func (s *Square) ClockHalf() {
	s.Length.Clock()
	s.setPeriod(s.Sweep.Clock(s.Registers[1], s.Period()))
}

// Audio implements Channel
func (s *Square) Audio() float32 {
	if !s.Length.Running() || s.Sweep.Muted(s.Registers[1], s.Period()) {
		return 0
	}
	if dutyTable[s.Registers[0]>>6][s.Step] == 0 {
		return 0
	}
	return float32(s.Envelope.Output(s.Registers[0])) / 255
}
