package cartridge

// Mapper001 implements MMC1 (mapper 1)
// Registers are loaded serially through a 5-bit shift register. Writes on
// consecutive cpu cycles are ignored, which matters for read-modify-write
// instructions that write twice.
type Mapper001 struct {
	Shift       uint8
	ShiftCount  uint8
	ShiftLocked bool
	// Control, chr bank 0, chr bank 1, prg bank
	Registers  [4]uint8
	PPUAddress uint16
}

// NewMapper001 creates a new MMC1 mapper
func NewMapper001(d *Data) *Mapper001 {
	return &Mapper001{Registers: [4]uint8{0x0C, 0, 0, 0}}
}

func (m *Mapper001) prgOffset(d *Data, addr uint16) uint32 {
	bank := uint32(m.Registers[3] & 0x0F)
	last := uint32(len(d.Nonvolatile.PRGROM)/0x4000) - 1
	switch (m.Registers[0] >> 2) & 3 {
	case 0, 1:
		return (bank&0x0E)<<14 | uint32(addr&0x7FFF)
	case 2:
		if addr < 0xC000 {
			return uint32(addr & 0x3FFF)
		}
		return bank<<14 | uint32(addr&0x3FFF)
	default:
		if addr < 0xC000 {
			return bank<<14 | uint32(addr&0x3FFF)
		}
		return last<<14 | uint32(addr&0x3FFF)
	}
}

func (m *Mapper001) chrOffset(addr uint16) uint32 {
	if m.Registers[0]&0x10 != 0 {
		if addr < 0x1000 {
			return uint32(m.Registers[1]&0x1F)<<12 | uint32(addr&0x0FFF)
		}
		return uint32(m.Registers[2]&0x1F)<<12 | uint32(addr&0x0FFF)
	}
	return uint32(m.Registers[1]&0x1E)<<12 | uint32(addr&0x1FFF)
}

func (m *Mapper001) a10(addr uint16) bool {
	control := m.Registers[0]
	switch control & 3 {
	case 0, 1:
		return control&1 != 0
	case 2:
		return addr&(1<<10) != 0
	default:
		return addr&(1<<11) != 0
	}
}

// MemoryCycleDump implements Mapper
func (m *Mapper001) MemoryCycleDump(d *Data, addr uint16) (uint8, bool) {
	switch {
	case addr >= 0x8000:
		return prgByte(d, m.prgOffset(d, addr)), true
	case addr >= 0x6000:
		if m.Registers[3]&0x10 != 0 {
			return 0, false
		}
		return prgRAMRead(d, addr)
	}
	return 0, false
}

// MemoryCycleRead implements Mapper
func (m *Mapper001) MemoryCycleRead(d *Data, addr uint16) (uint8, bool) {
	m.ShiftLocked = false
	return m.MemoryCycleDump(d, addr)
}

// MemoryCycleNop implements Mapper
func (m *Mapper001) MemoryCycleNop() {
	m.ShiftLocked = false
}

// MemoryCycleWrite implements Mapper
func (m *Mapper001) MemoryCycleWrite(d *Data, addr uint16, value uint8) {
	if addr < 0x8000 {
		m.ShiftLocked = false
		if addr >= 0x6000 && m.Registers[3]&0x10 == 0 {
			prgRAMWrite(d, addr, value)
		}
		return
	}
	if m.ShiftLocked {
		return
	}
	m.ShiftLocked = true

	if value&0x80 != 0 {
		m.Shift = 0
		m.ShiftCount = 0
		m.Registers[0] |= 0x0C
		return
	}

	m.Shift = m.Shift>>1 | (value&1)<<4
	m.ShiftCount++
	if m.ShiftCount == 5 {
		m.Registers[(addr>>13)&3] = m.Shift
		m.Shift = 0
		m.ShiftCount = 0
	}
}

// PPUMemoryCycleAddress implements Mapper
func (m *Mapper001) PPUMemoryCycleAddress(addr uint16) (bool, bool) {
	m.PPUAddress = addr
	return m.a10(addr), false
}

// PPUMemoryCycleRead implements Mapper
func (m *Mapper001) PPUMemoryCycleRead(d *Data) (uint8, bool) {
	if m.PPUAddress >= 0x2000 {
		return 0, false
	}
	return chrByte(d, m.chrOffset(m.PPUAddress))
}

// PPUMemoryCycleWrite implements Mapper
func (m *Mapper001) PPUMemoryCycleWrite(d *Data, value uint8) {
	if m.PPUAddress < 0x2000 {
		chrWrite(d, m.chrOffset(m.PPUAddress), value)
	}
}

// PPUPeekAddress implements Mapper
func (m *Mapper001) PPUPeekAddress(d *Data, addr uint16) (bool, bool, uint8, bool) {
	if addr >= 0x2000 {
		return m.a10(addr), false, 0, false
	}
	v, ok := chrByte(d, m.chrOffset(addr))
	return m.a10(addr), false, v, ok
}

// IRQ implements Mapper
func (m *Mapper001) IRQ() bool { return false }

// ROMByteHack implements Mapper
func (m *Mapper001) ROMByteHack(d *Data, addr uint32, value uint8) {
	romByteHack(d, addr, value)
}

// CartridgeRegisters implements Mapper
func (m *Mapper001) CartridgeRegisters() []Register {
	return []Register{
		{Name: "Control", Value: m.Registers[0]},
		{Name: "CHR0", Value: m.Registers[1]},
		{Name: "CHR1", Value: m.Registers[2]},
		{Name: "PRG", Value: m.Registers[3]},
		{Name: "Shift", Value: m.Shift},
		{Name: "Count", Value: m.ShiftCount},
	}
}
