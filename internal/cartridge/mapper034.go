package cartridge

// Mapper034 implements mapper 34, covering two boards. BNROM switches 32KB
// of PRG through writes to $8000-$FFFF. NINA-001, recognised by more than
// 8KB of CHR-ROM, uses $7FFD-$7FFF for PRG and two 4KB CHR banks.
type Mapper034 struct {
	MirrorVertical bool
	NINA           bool
	Bank           uint8
	CHRBanks       [2]uint8
	PPUAddress     uint16
}

// NewMapper034 creates a new mapper 34
func NewMapper034(d *Data) *Mapper034 {
	return &Mapper034{
		MirrorVertical: d.Volatile.MirrorVertical,
		NINA:           len(d.Nonvolatile.CHRROM) > 0x2000,
		CHRBanks:       [2]uint8{0, 1},
	}
}

func (m *Mapper034) chrOffset(addr uint16) uint32 {
	if !m.NINA {
		return uint32(addr & 0x1FFF)
	}
	return uint32(m.CHRBanks[(addr>>12)&1])<<12 | uint32(addr&0x0FFF)
}

// MemoryCycleDump implements Mapper
func (m *Mapper034) MemoryCycleDump(d *Data, addr uint16) (uint8, bool) {
	switch {
	case addr >= 0x8000:
		return prgByte(d, uint32(m.Bank)<<15|uint32(addr&0x7FFF)), true
	case addr >= 0x6000:
		return prgRAMRead(d, addr)
	}
	return 0, false
}

// MemoryCycleRead implements Mapper
func (m *Mapper034) MemoryCycleRead(d *Data, addr uint16) (uint8, bool) {
	return m.MemoryCycleDump(d, addr)
}

// MemoryCycleWrite implements Mapper
func (m *Mapper034) MemoryCycleWrite(d *Data, addr uint16, value uint8) {
	switch {
	case addr >= 0x8000:
		if !m.NINA {
			m.Bank = value
		}
	case m.NINA && addr == 0x7FFD:
		m.Bank = value & 1
		prgRAMWrite(d, addr, value)
	case m.NINA && addr == 0x7FFE:
		m.CHRBanks[0] = value & 0x0F
		prgRAMWrite(d, addr, value)
	case m.NINA && addr == 0x7FFF:
		m.CHRBanks[1] = value & 0x0F
		prgRAMWrite(d, addr, value)
	case addr >= 0x6000:
		prgRAMWrite(d, addr, value)
	}
}

// MemoryCycleNop implements Mapper
func (m *Mapper034) MemoryCycleNop() {}

// PPUMemoryCycleAddress implements Mapper
func (m *Mapper034) PPUMemoryCycleAddress(addr uint16) (bool, bool) {
	m.PPUAddress = addr
	return mirrorA10(m.MirrorVertical, addr), false
}

// PPUMemoryCycleRead implements Mapper
func (m *Mapper034) PPUMemoryCycleRead(d *Data) (uint8, bool) {
	if m.PPUAddress >= 0x2000 {
		return 0, false
	}
	return chrByte(d, m.chrOffset(m.PPUAddress))
}

// PPUMemoryCycleWrite implements Mapper
func (m *Mapper034) PPUMemoryCycleWrite(d *Data, value uint8) {
	if m.PPUAddress < 0x2000 {
		chrWrite(d, m.chrOffset(m.PPUAddress), value)
	}
}

// PPUPeekAddress implements Mapper
func (m *Mapper034) PPUPeekAddress(d *Data, addr uint16) (bool, bool, uint8, bool) {
	a10 := mirrorA10(m.MirrorVertical, addr)
	if addr >= 0x2000 {
		return a10, false, 0, false
	}
	v, ok := chrByte(d, m.chrOffset(addr))
	return a10, false, v, ok
}

// IRQ implements Mapper
func (m *Mapper034) IRQ() bool { return false }

// ROMByteHack implements Mapper
func (m *Mapper034) ROMByteHack(d *Data, addr uint32, value uint8) {
	romByteHack(d, addr, value)
}

// CartridgeRegisters implements Mapper
func (m *Mapper034) CartridgeRegisters() []Register {
	return []Register{
		{Name: "Mirror", Value: boolByte(m.MirrorVertical)},
		{Name: "Mapper", Value: 34},
		{Name: "PRG BANK", Value: m.Bank},
		{Name: "CHR0", Value: m.CHRBanks[0]},
		{Name: "CHR1", Value: m.CHRBanks[1]},
	}
}
