package apu

// Sweep bends the period of a pulse channel. Pulse 1 negates with ones'
// complement arithmetic and pulse 2 with twos' complement, so the same
// settings give slightly different targets on the two channels.
type Sweep struct {
	OnesComplement bool
	Counter        uint8
	Reload         bool
}

// target computes the period the sweep is heading for
func (s *Sweep) target(control uint8, period uint16) uint16 {
	delta := period >> (control & 7)
	if control&0x08 == 0 {
		return period + delta
	}
	if s.OnesComplement {
		return period - delta - 1
	}
	return period - delta
}

// Muted reports whether the sweep silences the channel. Only an adding
// sweep can overflow; in negate mode a zero shift wraps the target, which
// must not count.
func (s *Sweep) Muted(control uint8, period uint16) bool {
	if period < 8 {
		return true
	}
	return control&0x08 == 0 && s.target(control, period) > 0x7FF
}

// Clock runs one half-frame tick and returns the new period
func (s *Sweep) Clock(control uint8, period uint16) uint16 {
	enabled := control&0x80 != 0
	shift := control & 7
	if s.Counter == 0 && enabled && shift != 0 && !s.Muted(control, period) {
		period = s.target(control, period)
	}
	if s.Counter == 0 || s.Reload {
		s.Counter = (control >> 4) & 7
		s.Reload = false
	} else {
		s.Counter--
	}
	return period
}
