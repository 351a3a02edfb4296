// Package apu implements the Audio Processing Unit for the NES.
package apu

import "math"

// CPUFrequency is the NTSC cpu clock, the rate ClockSlow is called at
const CPUFrequency = 21.47727e6 / 12

// Channel is the capability set shared by the five sound generators
type Channel interface {
	// Cycle advances the channel timer
	Cycle()
	// Audio returns the current level, 0-1
	Audio() float32
	// ClockQuarter runs the envelope or linear counter
	ClockQuarter()
	// ClockHalf runs the length counter and sweep
	ClockHalf()
}

var (
	_ Channel = (*Square)(nil)
	_ Channel = (*Triangle)(nil)
	_ Channel = (*Noise)(nil)
	_ Channel = (*DMC)(nil)
)

// APU represents the NES Audio Processing Unit. Fields are exported so the
// whole unit can be captured in a save state.
type APU struct {
	// APU channels
	Pulse1   Square
	Pulse2   Square
	Triangle Triangle
	Noise    Noise
	DMC      DMC

	// Registers holds the last value written to $4000-$4017
	Registers [24]uint8

	// Clock divides the cpu clock by two for everything but the triangle
	Clock bool
	// Status holds the $4015 enables in bits 0-4 and the frame IRQ in bit 6
	Status uint8
	// FrameControl is the last $4017 write: bit 7 selects 5-step, bit 6 inhibits the IRQ
	FrameControl uint8

	// Frame sequencer
	Sequencer      uint32
	SequencerReset uint8
	QuarterClocks  uint64
	HalfClocks     uint64

	// Audio generation
	SampleRate int
	Filter     *Biquad
	Producer   Producer

	// Timing
	Cycles uint64
}

// New creates a new APU instance
func New() *APU {
	return &APU{
		Pulse1: newSquare(true),
		Pulse2: newSquare(false),
		Noise:  newNoise(),
		DMC:    newDMC(),
	}
}

// Reset resets the APU the way the console reset line does. Channel
// counters survive; the frame sequencer restarts after its usual delay.
func (apu *APU) Reset() {
	apu.Status = 0
	apu.Pulse1.Length.Enable(false)
	apu.Pulse2.Length.Enable(false)
	apu.Triangle.Length.Enable(false)
	apu.Noise.Length.Enable(false)
	apu.DMC.enable(false)
	apu.SequencerReset = 2
	if apu.Filter != nil {
		apu.Filter.Reset()
	}
}

// SetSampleRate configures the output rate. The low-pass cutoff sits below
// the new Nyquist frequency. A rate of zero disables sample production.
func (apu *APU) SetSampleRate(rate int) {
	apu.SampleRate = rate
	if rate <= 0 {
		apu.Filter = nil
		apu.Producer = Producer{}
		return
	}
	cutoff := math.Min(float64(rate)/2.2, 20000)
	apu.Filter = NewLowPass(CPUFrequency, cutoff, ButterworthQ)
	apu.Producer = NewProducer(CPUFrequency, float64(rate))
}

// GetSampleRate returns the current sample rate
func (apu *APU) GetSampleRate() int {
	return apu.SampleRate
}

// IRQ returns the level of the apu interrupt line
func (apu *APU) IRQ() bool {
	return apu.Status&0x40 != 0 && apu.FrameControl&0x40 == 0 || apu.DMC.InterruptFlag
}

// GetFrameIRQ returns the frame counter IRQ flag
func (apu *APU) GetFrameIRQ() bool {
	return apu.Status&0x40 != 0
}

// GetDMCIRQ returns the DMC IRQ flag
func (apu *APU) GetDMCIRQ() bool {
	return apu.DMC.InterruptFlag
}

// DMA returns the pending DMC sample fetch, if any
func (apu *APU) DMA() (uint16, bool) {
	return apu.DMC.DMARequest, apu.DMC.DMAPending
}

// ProvideDMAResponse completes a DMC sample fetch with the byte the cpu read
func (apu *APU) ProvideDMAResponse(value uint8) {
	apu.DMC.provide(value)
}

// ClockSlow advances the APU by one cpu cycle. Samples go to sink, which
// may be nil when nobody listens.
func (apu *APU) ClockSlow(sink Sink) {
	apu.Cycles++

	if apu.SequencerReset > 0 {
		apu.SequencerReset--
		if apu.SequencerReset == 0 {
			apu.Sequencer = 0
		}
	}
	if apu.Clock {
		apu.ClockFrameSequencer()
	} else {
		apu.holdFrameIRQ()
	}

	apu.Pulse1.Length.applyHalt()
	apu.Pulse2.Length.applyHalt()
	apu.Triangle.Length.applyHalt()
	apu.Noise.Length.applyHalt()

	apu.DMC.dmaCycle()
	if apu.Clock {
		apu.Pulse1.Cycle()
		apu.Pulse2.Cycle()
		apu.Noise.Cycle()
		apu.DMC.Cycle()
	}
	apu.Clock = !apu.Clock
	apu.Triangle.Cycle()

	if sink != nil && apu.Filter != nil {
		apu.Producer.Feed(sink, apu.buildSample())
	}
}

// buildSample mixes the channels and runs the low-pass filter
func (apu *APU) buildSample() float32 {
	mix := apu.Pulse1.Audio() +
		apu.Pulse2.Audio() +
		apu.Triangle.Audio() +
		apu.Noise.Audio() +
		apu.DMC.Audio()
	out := apu.Filter.Run(mix / 5)
	return min(max(out, 0), 1)
}

// ClockFrameSequencer advances the frame sequencer by one apu cycle
func (apu *APU) ClockFrameSequencer() {
	apu.Sequencer++
	if apu.FrameControl&0x80 == 0 {
		// 4-step mode
		switch apu.Sequencer {
		case 3728, 11185:
			apu.quarterFrame()
		case 7456:
			apu.quarterFrame()
			apu.halfFrame()
		case 14914:
			apu.setFrameIRQ()
			apu.quarterFrame()
			apu.halfFrame()
		case 14915:
			apu.setFrameIRQ()
			apu.Sequencer = 0
		}
		return
	}
	// 5-step mode
	switch apu.Sequencer {
	case 3728, 11185:
		apu.quarterFrame()
	case 7456, 18640:
		apu.quarterFrame()
		apu.halfFrame()
	case 18641:
		apu.Sequencer = 0
	}
}

// holdFrameIRQ runs on the phase between sequencer clocks. The frame IRQ
// flag is raised on every cpu cycle from step 14914 until the wrap, so an
// acknowledge in between does not stick.
func (apu *APU) holdFrameIRQ() {
	if apu.FrameControl&0x80 == 0 && apu.Sequencer == 14914 {
		apu.setFrameIRQ()
	}
}

func (apu *APU) setFrameIRQ() {
	if apu.FrameControl&0x40 == 0 {
		apu.Status |= 0x40
	}
}

// quarterFrame clocks envelopes and the triangle linear counter
func (apu *APU) quarterFrame() {
	apu.QuarterClocks++
	apu.Pulse1.ClockQuarter()
	apu.Pulse2.ClockQuarter()
	apu.Triangle.ClockQuarter()
	apu.Noise.ClockQuarter()
}

// halfFrame clocks length counters and sweep units
func (apu *APU) halfFrame() {
	apu.HalfClocks++
	apu.Pulse1.ClockHalf()
	apu.Pulse2.ClockHalf()
	apu.Triangle.ClockHalf()
	apu.Noise.ClockHalf()
}

// WriteRegister writes to an APU register, $4000-$4017
func (apu *APU) WriteRegister(address uint16, value uint8) {
	reg := address & 0x1F
	if reg >= uint16(len(apu.Registers)) {
		return
	}
	apu.Registers[reg] = value

	switch {
	case reg < 0x04:
		apu.Pulse1.write(reg, value)
	case reg < 0x08:
		apu.Pulse2.write(reg, value)
	case reg < 0x0C:
		apu.Triangle.write(reg, value)
	case reg < 0x10:
		apu.Noise.write(reg, value)
	case reg < 0x14:
		apu.DMC.write(reg, value)
	case reg == 0x15:
		apu.writeChannelEnable(value)
	case reg == 0x17:
		apu.writeFrameCounter(value)
	}
}

// writeChannelEnable handles $4015
func (apu *APU) writeChannelEnable(value uint8) {
	apu.Status = apu.Status&0x60 | value&0x1F
	apu.Pulse1.Length.Enable(value&0x01 != 0)
	apu.Pulse2.Length.Enable(value&0x02 != 0)
	apu.Triangle.Length.Enable(value&0x04 != 0)
	apu.Noise.Length.Enable(value&0x08 != 0)
	apu.DMC.enable(value&0x10 != 0)
}

// writeFrameCounter handles $4017
func (apu *APU) writeFrameCounter(value uint8) {
	apu.SequencerReset = 2
	apu.FrameControl = value
	if value&0x80 != 0 {
		apu.quarterFrame()
		apu.halfFrame()
	}
	if value&0x40 != 0 {
		apu.Status &^= 0x40
	}
}

// Dump returns what a read of $4015 would, without side effects
func (apu *APU) Dump() uint8 {
	status := apu.Status & 0x40
	if apu.DMC.InterruptFlag {
		status |= 0x80
	}
	if apu.Pulse1.Length.Running() {
		status |= 0x01
	}
	if apu.Pulse2.Length.Running() {
		status |= 0x02
	}
	if apu.Triangle.Length.Running() {
		status |= 0x04
	}
	if apu.Noise.Length.Running() {
		status |= 0x08
	}
	if apu.DMC.Length > 0 {
		status |= 0x10
	}
	return status
}

// ReadStatus reads the APU status register ($4015). Reading clears the
// frame IRQ flag.
func (apu *APU) ReadStatus() uint8 {
	status := apu.Dump()
	apu.Status &^= 0x40
	return status
}

// GetChannelOutput returns the current level of a channel, in the order
// pulse 1, pulse 2, triangle, noise, dmc
func (apu *APU) GetChannelOutput(channel int) float32 {
	switch channel {
	case 0:
		return apu.Pulse1.Audio()
	case 1:
		return apu.Pulse2.Audio()
	case 2:
		return apu.Triangle.Audio()
	case 3:
		return apu.Noise.Audio()
	case 4:
		return apu.DMC.Audio()
	}
	return 0
}

// IsChannelEnabled reports the $4015 enable bit of a channel
func (apu *APU) IsChannelEnabled(channel int) bool {
	if channel < 0 || channel > 4 {
		return false
	}
	return apu.Status&(1<<channel) != 0
}
