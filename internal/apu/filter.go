package apu

import "math"

// ButterworthQ is the quality factor of a maximally flat second-order filter
const ButterworthQ = 0.70710678

// Biquad is a second-order IIR filter in direct form 1
type Biquad struct {
	B0, B1, B2 float32
	A1, A2     float32
	X1, X2     float32
	Y1, Y2     float32
}

// NewLowPass designs a low-pass biquad with the audio EQ cookbook formulas.
// fs is the rate Run is called at and f0 the cutoff frequency.
func NewLowPass(fs, f0, q float64) *Biquad {
	w0 := 2 * math.Pi * f0 / fs
	cos, sin := math.Cos(w0), math.Sin(w0)
	alpha := sin / (2 * q)
	a0 := 1 + alpha
	return &Biquad{
		B0: float32((1 - cos) / 2 / a0),
		B1: float32((1 - cos) / a0),
		B2: float32((1 - cos) / 2 / a0),
		A1: float32(-2 * cos / a0),
		A2: float32((1 - alpha) / a0),
	}
}

// Run filters one sample
func (b *Biquad) Run(x float32) float32 {
	y := b.B0*x + b.B1*b.X1 + b.B2*b.X2 - b.A1*b.Y1 - b.A2*b.Y2
	b.X2, b.X1 = b.X1, x
	b.Y2, b.Y1 = b.Y1, y
	return y
}

// Reset clears the filter history
func (b *Biquad) Reset() {
	b.X1, b.X2, b.Y1, b.Y2 = 0, 0, 0, 0
}
