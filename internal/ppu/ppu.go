// Package ppu implements the NES Picture Processing Unit (2C02) one dot at a
// time. Every VRAM access goes through a two-phase bus cycle so cartridge
// hardware watching the PPU address lines sees the same sequence as on a
// real console.
package ppu

import (
	"math/rand/v2"
)

// Frame geometry
const (
	Width  = 256
	Height = 240

	dotsPerLine    = 341
	linesPerFrame  = 262
	preRenderLine  = 261
	vblankLine     = 241
	DotsPerFrame   = dotsPerLine * linesPerFrame
	startupCycles  = 29658
	openBusRefresh = 893420
)

// PPUCTRL bits
const (
	ctrlIncrement32    = 0x04
	ctrlSpriteTable    = 0x08
	ctrlBackgroundTbl  = 0x10
	ctrlSpriteSize16   = 0x20
	ctrlGenerateNMI    = 0x80
	maskGreyscale      = 0x01
	maskBackgroundLeft = 0x02
	maskSpritesLeft    = 0x04
	maskBackground     = 0x08
	maskSprites        = 0x10
	statusOverflow     = 0x20
	statusSprite0Hit   = 0x40
	statusVBlank       = 0x80
)

// Bus is the PPU side of the motherboard. PPUCycle1 drives the address
// lines, and the next call to PPUCycle2Read or PPUCycle2Write completes the
// access. Palette RAM lives inside the PPU on real hardware and is reached
// without a bus cycle.
type Bus interface {
	PPUCycle1(addr uint16)
	PPUCycle2Read() uint8
	PPUCycle2Write(value uint8)
	PaletteRead(addr uint16) uint8
	PaletteWrite(addr uint16, value uint8)
}

// EvalMode is the state of the sprite evaluation machine
type EvalMode uint8

const (
	EvalNormal EvalMode = iota
	EvalCopySprite
	EvalSprites8
	EvalDone
)

// Sprite is one entry of the eight loaded for the current scanline. Low and
// High already have horizontal flip applied.
type Sprite struct {
	Y, Tile, Attr, X uint8
	Low, High        uint8
}

// PPU state. Fields are exported so a save-state can encode them.
type PPU struct {
	Registers [8]uint8

	Scanline uint16
	Dot      uint16
	OddFrame bool

	// loopy registers
	V, T   uint16
	FineX  uint8
	Toggle bool

	// Background pipeline
	NametableByte uint8
	AttrLatch     uint8
	PatternLow    uint8
	PatternHigh   uint8
	ShiftLow      uint16
	ShiftHigh     uint16
	AttrShiftLow  uint16
	AttrShiftHigh uint16

	// Sprites
	OAM           [256]uint8
	SecondaryOAM  [32]uint8
	OAMAddr       uint8
	OAMData       uint8
	SecondaryAddr uint8
	Eval          EvalMode
	Sprite0Next   bool
	Sprite0Line   bool
	Sprites       [8]Sprite
	SpriteCount   uint8

	// CPU access to VRAM waits for an idle bus slot
	PendingRead      bool
	PendingReadAddr  uint16
	PendingWrite     bool
	PendingWriteData uint8
	ReadBuffer       uint8
	Cycle1Done       bool

	// LastCPUData is the register open bus latch. The low five bits and the
	// high three bits decay separately.
	LastCPUData    uint8
	LastCPUCounter [2]uint32

	WriteIgnore uint16
	VBlankClear bool
	NMILine     bool
	FrameDone   bool
	FrameNumber uint64
	Cycles      uint64

	Frame [Width * Height * 3]uint8
}

// New creates a PPU with cleared state positioned at the top of a frame
func New() *PPU {
	return &PPU{}
}

// PowerOn randomises the parts of the chip that hold garbage at power-up
func (p *PPU) PowerOn(rng *rand.Rand) {
	*p = PPU{}
	if rng == nil {
		return
	}
	p.Registers[2] = uint8(rng.Uint32()) &^ statusSprite0Hit
	for i := range p.OAM {
		p.OAM[i] = uint8(rng.Uint32())
	}
	for i := range p.SecondaryOAM {
		p.SecondaryOAM[i] = uint8(rng.Uint32())
	}
}

// Reset emulates the console reset line. Only power-on restarts the
// warm-up period.
func (p *PPU) Reset() {
	p.Registers[0] = 0
	p.Registers[1] = 0
	p.Toggle = false
	p.ReadBuffer = 0
	p.OddFrame = false
	p.NMILine = false
}

// IRQ returns the NMI output line: vblank set with NMI generation enabled
func (p *PPU) IRQ() bool {
	return p.NMILine
}

// FrameEnd reports whether a frame completed since the last call
func (p *PPU) FrameEnd() bool {
	done := p.FrameDone
	p.FrameDone = false
	return done
}

// FrameBuffer returns the RGB frame, three bytes per pixel
func (p *PPU) FrameBuffer() *[Width * Height * 3]uint8 {
	return &p.Frame
}

// VRAMAddress returns the current loopy v register
func (p *PPU) VRAMAddress() uint16 {
	return p.V
}

func (p *PPU) renderingEnabled() bool {
	return p.Registers[1]&(maskBackground|maskSprites) != 0
}

func (p *PPU) spriteHeight() int {
	if p.Registers[0]&ctrlSpriteSize16 != 0 {
		return 16
	}
	return 8
}

func (p *PPU) decayOpenBus() {
	for i := range p.LastCPUCounter {
		if p.LastCPUCounter[i] > 0 {
			p.LastCPUCounter[i]--
		}
	}
	if p.LastCPUCounter[0] == 0 {
		p.LastCPUData &= 0xE0
	}
	if p.LastCPUCounter[1] == 0 {
		p.LastCPUData &= 0x1F
	}
}

// Cycle runs one dot
func (p *PPU) Cycle(bus Bus) {
	p.Cycles++
	if p.WriteIgnore < startupCycles {
		p.WriteIgnore++
	}
	p.decayOpenBus()

	rendering := p.renderingEnabled()
	switch {
	case p.Scanline < Height:
		if rendering {
			p.evaluateSprites()
		}
		if p.Dot >= 1 && p.Dot <= Width {
			p.renderPixel(bus, rendering)
		}
		if rendering {
			p.renderingCycle(bus)
		} else {
			p.idleCycle(bus)
		}
	case p.Scanline == preRenderLine:
		if p.Dot == 1 {
			p.Registers[2] &^= statusVBlank | statusSprite0Hit | statusOverflow
		}
		if rendering {
			p.renderingCycle(bus)
		} else {
			p.idleCycle(bus)
		}
	default:
		if p.Scanline == vblankLine && p.Dot == 1 {
			p.Registers[2] |= statusVBlank
			p.FrameDone = true
			p.FrameNumber++
		}
		p.idleCycle(bus)
	}

	p.advance(rendering)

	// a status read on the same dot as the vblank set wins
	if p.VBlankClear {
		p.VBlankClear = false
		p.Registers[2] &^= statusVBlank
	}
	p.NMILine = p.Registers[2]&statusVBlank != 0 && p.Registers[0]&ctrlGenerateNMI != 0
}

func (p *PPU) advance(rendering bool) {
	p.Dot++
	if p.Dot < dotsPerLine {
		return
	}
	p.Dot = 0
	p.Scanline++
	if p.Scanline == linesPerFrame {
		p.Scanline = 0
		p.OddFrame = !p.OddFrame
		// the idle dot of the first line is skipped on odd rendered frames
		if p.OddFrame && rendering {
			p.Dot = 1
		}
	}
}

// idleCycle services a pending CPU access to VRAM
func (p *PPU) idleCycle(bus Bus) {
	if !p.Cycle1Done {
		switch {
		case p.PendingWrite:
			bus.PPUCycle1(p.V & 0x3FFF)
			p.Cycle1Done = true
		case p.PendingRead:
			bus.PPUCycle1(p.PendingReadAddr)
			p.Cycle1Done = true
		}
		return
	}

	p.Cycle1Done = false
	switch {
	case p.PendingWrite:
		bus.PPUCycle2Write(p.PendingWriteData)
		p.PendingWrite = false
		p.incrementAddress()
	case p.PendingRead:
		p.ReadBuffer = bus.PPUCycle2Read()
		p.PendingRead = false
	}
}

func (p *PPU) incrementAddress() {
	if p.Registers[0]&ctrlIncrement32 != 0 {
		p.V += 32
	} else {
		p.V++
	}
	p.V &= 0x7FFF
}

// incrementX moves coarse X to the next tile, wrapping into the next
// horizontal nametable
func (p *PPU) incrementX() {
	if p.V&0x001F == 31 {
		p.V &^= 0x001F
		p.V ^= 0x0400
	} else {
		p.V++
	}
}

// incrementY moves fine Y down one row, carrying into coarse Y
func (p *PPU) incrementY() {
	if p.V&0x7000 != 0x7000 {
		p.V += 0x1000
		return
	}
	p.V &^= 0x7000
	y := (p.V & 0x03E0) >> 5
	switch y {
	case 29:
		y = 0
		p.V ^= 0x0800
	case 31:
		y = 0
	default:
		y++
	}
	p.V = (p.V &^ 0x03E0) | y<<5
}

func (p *PPU) copyX() {
	p.V = (p.V &^ 0x041F) | (p.T & 0x041F)
}

func (p *PPU) copyY() {
	p.V = (p.V &^ 0x7BE0) | (p.T & 0x7BE0)
}
