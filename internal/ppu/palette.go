package ppu

import (
	"math"
)

// RGB is one palette colour
type RGB [3]uint8

// Palette is the NTSC palette without colour emphasis
var Palette = GeneratePalette(0)

// palettes holds one palette per combination of the PPUMASK emphasis bits
var palettes = func() (out [8][64]RGB) {
	for e := range out {
		out[e] = GeneratePalette(uint8(e))
	}
	return out
}()

// Composite signal levels of the 2C02, relative to the sync tip
var signalLevels = [8]float64{
	0.350, 0.518, 0.962, 1.550, // low
	1.094, 1.506, 1.962, 1.962, // high
}

const (
	signalBlack = 0.518
	signalWhite = 1.962
	emphasisAtt = 0.746
)

// inPhase reports whether the square wave for colour hue is high during
// subcarrier phase p (twelve phases per cycle)
func inPhase(p, hue int) bool {
	return (hue+p+8)%12 < 6
}

// GeneratePalette builds the 64 colour palette by decoding the composite
// signal the PPU would emit for each colour as YIQ. emphasis holds the
// PPUMASK red, green and blue emphasis bits in bits 0-2.
func GeneratePalette(emphasis uint8) [64]RGB {
	var out [64]RGB
	for c := 0; c < 64; c++ {
		hue := c & 0x0F
		level := (c >> 4) & 3
		if hue >= 0x0E {
			continue
		}

		lo := signalLevels[level]
		hi := signalLevels[level+4]
		if hue == 0 {
			lo = hi
		}
		if hue > 0x0C {
			hi = lo
		}

		var y, i, q float64
		for p := 0; p < 12; p++ {
			spot := lo
			if inPhase(p, hue) {
				spot = hi
			}
			if (emphasis&1 != 0 && inPhase(p, 0x0C)) ||
				(emphasis&2 != 0 && inPhase(p, 0x04)) ||
				(emphasis&4 != 0 && inPhase(p, 0x08)) {
				spot *= emphasisAtt
			}
			v := (spot - signalBlack) / (signalWhite - signalBlack)
			angle := math.Pi * float64(p) / 6
			y += v
			i += v * math.Cos(angle)
			q += v * math.Sin(angle)
		}
		y /= 12
		i /= 12
		q /= 12

		out[c] = RGB{
			toChannel(y + 0.946882*i + 0.623557*q),
			toChannel(y - 0.274788*i - 0.635691*q),
			toChannel(y - 1.108545*i + 1.709007*q),
		}
	}
	return out
}

// toChannel applies gamma correction from the NTSC 2.2 curve to a 1.8
// display and scales to a byte
func toChannel(f float64) uint8 {
	if f <= 0 {
		return 0
	}
	f = math.Pow(f, 2.2/1.8)
	if f >= 1 {
		return 255
	}
	return uint8(f*255 + 0.5)
}
