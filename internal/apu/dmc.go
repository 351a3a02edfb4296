package apu

// DMC rate table (NTSC), in cpu cycles per output bit
var dmcRateTable = [16]uint16{
	428, 380, 340, 320, 286, 254, 226, 214,
	190, 160, 142, 128, 106, 84, 72, 54,
}

// DMC is the delta modulation channel. It plays 1-bit delta samples fetched
// from cartridge space by DMA; the cpu services the fetch and hands the byte
// back through ProvideDMAResponse.
type DMC struct {
	// $4010-$4013
	Registers        [4]uint8
	InterruptFlag    bool
	InterruptEnable  bool
	Loop             bool
	Rate             uint16
	RateCounter      uint16
	BitCounter       uint8
	ProgrammedLength uint16
	Length           uint16
	SampleBuffer     uint8
	SampleFull       bool
	ShiftRegister    uint8
	Address          uint16
	DMARequest       uint16
	DMAPending       bool
	Playing          bool
	Silence          bool
	Output           uint8
}

func newDMC() DMC {
	return DMC{Rate: dmcRateTable[0]/2 - 1, Silence: true}
}

func (d *DMC) write(reg uint16, value uint8) {
	d.Registers[reg&3] = value
	switch reg & 3 {
	case 0:
		d.InterruptFlag = false
		d.Rate = dmcRateTable[value&0x0F]/2 - 1
		d.InterruptEnable = value&0x80 != 0
		d.Loop = value&0x40 != 0
	case 1:
		d.Output = value & 0x7F
	case 2:
		d.Address = 0xC000 + uint16(value)*64
	case 3:
		d.ProgrammedLength = uint16(value)*16 + 1
	}
}

// enable handles the DMC bit of a $4015 write
func (d *DMC) enable(on bool) {
	switch {
	case !on:
		d.Length = 0
	case d.Length == 0:
		d.ProgrammedLength = uint16(d.Registers[3])*16 + 1
		d.Length = d.ProgrammedLength
		d.Playing = true
	}
	d.InterruptFlag = false
}

// dmaCycle raises a fetch request when the sample buffer has drained
func (d *DMC) dmaCycle() {
	if !d.SampleFull && !d.DMAPending && d.Length > 0 {
		d.DMARequest = d.Address | 0x8000
		d.DMAPending = true
		d.Length--
	}
}

func (d *DMC) provide(value uint8) {
	d.DMAPending = false
	d.SampleBuffer = value
	d.SampleFull = true

	d.Address++
	if d.Address == 0 {
		d.Address = 0x8000
	}

	if d.Length == 0 {
		if d.Loop {
			d.Length = d.ProgrammedLength
		} else if d.InterruptEnable {
			d.InterruptFlag = true
		}
	}
}

// Cycle implements Channel
func (d *DMC) Cycle() {
	if d.RateCounter > 0 {
		d.RateCounter--
		return
	}
	d.RateCounter = d.Rate

	if !d.Silence && d.Playing {
		if d.ShiftRegister&1 != 0 {
			if d.Output <= 125 {
				d.Output += 2
			}
		} else if d.Output >= 2 {
			d.Output -= 2
		}
		d.ShiftRegister >>= 1
	}

	if d.BitCounter < 7 {
		d.BitCounter++
		return
	}
	d.BitCounter = 0
	d.Silence = !d.SampleFull
	if d.SampleFull {
		d.ShiftRegister = d.SampleBuffer
		d.SampleFull = false
	} else {
		d.Playing = false
	}
	if d.Length == 0 {
		d.Playing = false
	}
}

// ClockQuarter implements Channel; the DMC has no envelope
func (d *DMC) ClockQuarter() {}

// ClockHalf implements Channel; the DMC has no length counter
func (d *DMC) ClockHalf() {}

// Audio implements Channel
func (d *DMC) Audio() float32 {
	return float32(d.Output) / 255
}
