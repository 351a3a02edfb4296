// Package memory implements the NES motherboard: work RAM, nametable VRAM,
// palette RAM and the address decoding that connects the CPU and PPU
// buses to the chips and the cartridge.
package memory

import (
	"math/rand/v2"

	"nesemu/internal/ppu"
)

// PPUInterface defines the CPU-visible PPU register file
type PPUInterface interface {
	ReadRegister(addr uint16, bus ppu.Bus) uint8
	WriteRegister(addr uint16, value uint8, bus ppu.Bus)
	Dump(addr uint16, bus ppu.Bus) uint8
}

// APUInterface defines the interface for APU register access
type APUInterface interface {
	WriteRegister(address uint16, value uint8)
	ReadStatus() uint8
	Dump() uint8
}

// InputInterface defines the interface for the controller ports
type InputInterface interface {
	Read(address uint16) uint8
	Dump(address uint16) uint8
	Write(address uint16, value uint8)
}

// CartridgeInterface defines the interface for cartridge access. Reads
// report false when the cartridge leaves the data bus floating.
type CartridgeInterface interface {
	MemoryDump(addr uint16) (uint8, bool)
	MemoryRead(addr uint16) (uint8, bool)
	MemoryWrite(addr uint16, value uint8)
	MemoryNop()
	MemorySnoop(addr uint16, value uint8)
	PPUCycle1(addr uint16) (a10 bool, vramDisable bool)
	PPUCycleRead() uint8
	PPUCycleWrite(value uint8)
	PPUPeek(addr uint16) (a10 bool, vramDisable bool, value uint8, ok bool)
}

// Motherboard holds the console memories. Exported fields are part of a
// save-state; the attached chips are not.
type Motherboard struct {
	RAM     [0x800]uint8
	VRAM    [0x800]uint8
	Palette [32]uint8

	// LastCPUData is the value left on the CPU data bus
	LastCPUData uint8

	// Latched by the address half of a PPU bus cycle
	VRAMSelected bool
	VRAMIndex    uint16

	OAMDMAPage    uint8
	OAMDMAPending bool

	ppu   PPUInterface
	apu   APUInterface
	input InputInterface
	cart  CartridgeInterface
}

// New creates a motherboard wired to the given chips
func New(p PPUInterface, a APUInterface, in InputInterface) *Motherboard {
	return &Motherboard{ppu: p, apu: a, input: in}
}

// SetCartridge inserts a cartridge. nil removes it.
func (m *Motherboard) SetCartridge(cart CartridgeInterface) {
	m.cart = cart
}

// Restore copies the exported state of s, as decoded from a save-state.
// The attached chips and cartridge stay connected.
func (m *Motherboard) Restore(s *Motherboard) {
	p, a, in, cart := m.ppu, m.apu, m.input, m.cart
	*m = *s
	m.ppu, m.apu, m.input, m.cart = p, a, in, cart
}

// PowerOn fills the memories with the garbage real SRAM powers up with
func (m *Motherboard) PowerOn(rng *rand.Rand) {
	m.LastCPUData = 0
	m.VRAMSelected = false
	m.VRAMIndex = 0
	m.OAMDMAPending = false
	if rng == nil {
		m.RAM = [0x800]uint8{}
		m.VRAM = [0x800]uint8{}
		m.Palette = [32]uint8{}
		return
	}
	for i := range m.RAM {
		m.RAM[i] = uint8(rng.Uint32())
	}
	for i := range m.VRAM {
		m.VRAM[i] = uint8(rng.Uint32())
	}
	for i := range m.Palette {
		m.Palette[i] = uint8(rng.Uint32()) & 0x3F
	}
}

func (m *Motherboard) nop() {
	if m.cart != nil {
		m.cart.MemoryNop()
	}
}

// Read performs a CPU read cycle
func (m *Motherboard) Read(address uint16) uint8 {
	value := m.LastCPUData

	switch {
	case address < 0x2000:
		value = m.RAM[address&0x07FF]
		m.nop()

	case address < 0x4000:
		value = m.ppu.ReadRegister(address&7, m)
		m.nop()

	case address == 0x4015:
		value = m.apu.ReadStatus() | (m.LastCPUData & 0x20)
		m.nop()

	case address == 0x4016 || address == 0x4017:
		value = (m.input.Read(address) & 0x1F) | (m.LastCPUData & 0xE0)
		m.nop()

	case address < 0x4020:
		// write-only APU registers and the disabled test mode range
		m.nop()
		return value

	default:
		if m.cart == nil {
			return value
		}
		v, ok := m.cart.MemoryRead(address)
		if !ok {
			return value
		}
		value = v
	}

	m.LastCPUData = value
	return value
}

// Write performs a CPU write cycle
func (m *Motherboard) Write(address uint16, value uint8) {
	m.LastCPUData = value

	switch {
	case address < 0x2000:
		m.RAM[address&0x07FF] = value
		m.nop()

	case address < 0x4000:
		m.ppu.WriteRegister(address&7, value, m)
		if m.cart != nil {
			m.cart.MemorySnoop(address, value)
		}

	case address == 0x4014:
		m.OAMDMAPage = value
		m.OAMDMAPending = true
		m.nop()

	case address == 0x4016:
		m.input.Write(address, value)
		m.nop()

	case address < 0x4018:
		m.apu.WriteRegister(address, value)
		m.nop()

	case address < 0x4020:
		m.nop()

	default:
		if m.cart != nil {
			m.cart.MemoryWrite(address, value)
		}
	}
}

// OAMDMA returns and clears a pending $4014 request
func (m *Motherboard) OAMDMA() (uint8, bool) {
	if !m.OAMDMAPending {
		return 0, false
	}
	m.OAMDMAPending = false
	return m.OAMDMAPage, true
}

// MemoryDump reads CPU address space without side effects. It reports
// false where a read would return open bus.
func (m *Motherboard) MemoryDump(address uint16) (uint8, bool) {
	switch {
	case address < 0x2000:
		return m.RAM[address&0x07FF], true
	case address < 0x4000:
		return m.ppu.Dump(address&7, m), true
	case address == 0x4015:
		return m.apu.Dump() | (m.LastCPUData & 0x20), true
	case address == 0x4016 || address == 0x4017:
		return (m.input.Dump(address) & 0x1F) | (m.LastCPUData & 0xE0), true
	case address < 0x4020:
		return 0, false
	}
	if m.cart == nil {
		return 0, false
	}
	return m.cart.MemoryDump(address)
}

func paletteIndex(address uint16) uint16 {
	index := address & 0x1F
	// sprite backdrop entries alias the background ones
	if index&0x13 == 0x10 {
		index &^= 0x10
	}
	return index
}

// nametableIndex maps a PPU address to internal VRAM using the A10 line
// the cartridge chose
func nametableIndex(address uint16, a10 bool) uint16 {
	index := address & 0x3FF
	if a10 {
		index |= 0x400
	}
	return index
}

// PPUCycle1 implements ppu.Bus
func (m *Motherboard) PPUCycle1(address uint16) {
	address &= 0x3FFF
	a10 := address&0x400 != 0
	disable := false
	if m.cart != nil {
		a10, disable = m.cart.PPUCycle1(address)
	}
	m.VRAMSelected = address >= 0x2000 && !disable
	if m.VRAMSelected {
		m.VRAMIndex = nametableIndex(address, a10)
	}
}

// PPUCycle2Read implements ppu.Bus
func (m *Motherboard) PPUCycle2Read() uint8 {
	if m.VRAMSelected {
		return m.VRAM[m.VRAMIndex]
	}
	if m.cart != nil {
		return m.cart.PPUCycleRead()
	}
	return 0
}

// PPUCycle2Write implements ppu.Bus
func (m *Motherboard) PPUCycle2Write(value uint8) {
	if m.VRAMSelected {
		m.VRAM[m.VRAMIndex] = value
		return
	}
	if m.cart != nil {
		m.cart.PPUCycleWrite(value)
	}
}

// PaletteRead implements ppu.Bus
func (m *Motherboard) PaletteRead(address uint16) uint8 {
	return m.Palette[paletteIndex(address)]
}

// PaletteWrite implements ppu.Bus
func (m *Motherboard) PaletteWrite(address uint16, value uint8) {
	m.Palette[paletteIndex(address)] = value & 0x3F
}

// PPUPeek reads PPU address space without side effects
func (m *Motherboard) PPUPeek(address uint16) uint8 {
	address &= 0x3FFF
	if address >= 0x3F00 {
		return m.PaletteRead(address)
	}
	if m.cart == nil {
		if address >= 0x2000 {
			return m.VRAM[nametableIndex(address, address&0x400 != 0)]
		}
		return 0
	}
	a10, disable, value, ok := m.cart.PPUPeek(address)
	if address >= 0x2000 && !disable {
		return m.VRAM[nametableIndex(address, a10)]
	}
	if ok {
		return value
	}
	return 0
}
