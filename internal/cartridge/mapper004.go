package cartridge

// a12LowCycles is how many consecutive ppu address cycles A12 must stay low
// before a rising edge clocks the scanline counter. It filters out the
// short drops between sprite pattern fetches.
const a12LowCycles = 3

// Mapper004 implements MMC3 (mapper 4)
// 8KB PRG banks, 1KB/2KB CHR banks, programmable mirroring and a scanline
// counter clocked by rising edges of ppu address line A12.
type Mapper004 struct {
	BankSelect uint8
	Banks      [8]uint8
	Mirroring  uint8
	RAMProtect uint8

	IRQLatch   uint8
	IRQCounter uint8
	IRQReload  bool
	IRQEnabled bool
	IRQPending bool

	A12Low     uint8
	PPUAddress uint16
	FourScreen bool
}

// NewMapper004 creates a new MMC3 mapper
func NewMapper004(d *Data) *Mapper004 {
	m := &Mapper004{FourScreen: d.Volatile.FourScreen}
	if m.FourScreen && len(d.Volatile.NametableRAM) != 0x1000 {
		d.Volatile.NametableRAM = make([]uint8, 0x1000)
	}
	if !d.Volatile.MirrorVertical {
		m.Mirroring = 1
	}
	return m
}

func (m *Mapper004) prgOffset(d *Data, addr uint16) uint32 {
	count := uint32(len(d.Nonvolatile.PRGROM) / 0x2000)
	secondLast := count - 2
	last := count - 1
	var bank uint32
	swap := m.BankSelect&0x40 != 0
	switch (addr >> 13) & 3 {
	case 0:
		if swap {
			bank = secondLast
		} else {
			bank = uint32(m.Banks[6])
		}
	case 1:
		bank = uint32(m.Banks[7])
	case 2:
		if swap {
			bank = uint32(m.Banks[6])
		} else {
			bank = secondLast
		}
	default:
		bank = last
	}
	return bank<<13 | uint32(addr&0x1FFF)
}

func (m *Mapper004) chrOffset(addr uint16) uint32 {
	if m.BankSelect&0x80 != 0 {
		addr ^= 0x1000
	}
	var bank uint32
	switch {
	case addr < 0x0800:
		bank = uint32(m.Banks[0]&0xFE) | uint32(addr>>10)&1
	case addr < 0x1000:
		bank = uint32(m.Banks[1]&0xFE) | uint32(addr>>10)&1
	default:
		bank = uint32(m.Banks[2+(addr-0x1000)>>10])
	}
	return bank<<10 | uint32(addr&0x03FF)
}

func (m *Mapper004) a10(addr uint16) bool {
	return mirrorA10(m.Mirroring&1 == 0, addr)
}

// clockScanline runs the irq counter on a filtered A12 rising edge
func (m *Mapper004) clockScanline() {
	if m.IRQCounter == 0 || m.IRQReload {
		m.IRQCounter = m.IRQLatch
		m.IRQReload = false
	} else {
		m.IRQCounter--
	}
	if m.IRQCounter == 0 && m.IRQEnabled {
		m.IRQPending = true
	}
}

// MemoryCycleDump implements Mapper
func (m *Mapper004) MemoryCycleDump(d *Data, addr uint16) (uint8, bool) {
	switch {
	case addr >= 0x8000:
		return prgByte(d, m.prgOffset(d, addr)), true
	case addr >= 0x6000:
		return prgRAMRead(d, addr)
	}
	return 0, false
}

// MemoryCycleRead implements Mapper
func (m *Mapper004) MemoryCycleRead(d *Data, addr uint16) (uint8, bool) {
	return m.MemoryCycleDump(d, addr)
}

// MemoryCycleWrite implements Mapper
func (m *Mapper004) MemoryCycleWrite(d *Data, addr uint16, value uint8) {
	if addr < 0x8000 {
		if addr >= 0x6000 && m.RAMProtect&0x40 == 0 {
			prgRAMWrite(d, addr, value)
		}
		return
	}

	odd := addr&1 != 0
	switch addr & 0xE000 {
	case 0x8000:
		if odd {
			m.Banks[m.BankSelect&7] = value
		} else {
			m.BankSelect = value
		}
	case 0xA000:
		if odd {
			m.RAMProtect = value
		} else {
			m.Mirroring = value & 1
		}
	case 0xC000:
		if odd {
			m.IRQCounter = 0
			m.IRQReload = true
		} else {
			m.IRQLatch = value
		}
	case 0xE000:
		if odd {
			m.IRQEnabled = true
		} else {
			m.IRQEnabled = false
			m.IRQPending = false
		}
	}
}

// MemoryCycleNop implements Mapper
func (m *Mapper004) MemoryCycleNop() {}

// PPUMemoryCycleAddress implements Mapper
func (m *Mapper004) PPUMemoryCycleAddress(addr uint16) (bool, bool) {
	m.PPUAddress = addr
	if addr&0x1000 != 0 {
		if m.A12Low >= a12LowCycles {
			m.clockScanline()
		}
		m.A12Low = 0
	} else if m.A12Low < 0xFF {
		m.A12Low++
	}
	return m.a10(addr), m.FourScreen && addr >= 0x2000
}

// PPUMemoryCycleRead implements Mapper
func (m *Mapper004) PPUMemoryCycleRead(d *Data) (uint8, bool) {
	if m.PPUAddress >= 0x2000 {
		if m.FourScreen {
			return d.Volatile.NametableRAM[m.PPUAddress&0x0FFF], true
		}
		return 0, false
	}
	return chrByte(d, m.chrOffset(m.PPUAddress))
}

// PPUMemoryCycleWrite implements Mapper
func (m *Mapper004) PPUMemoryCycleWrite(d *Data, value uint8) {
	switch {
	case m.PPUAddress < 0x2000:
		chrWrite(d, m.chrOffset(m.PPUAddress), value)
	case m.FourScreen:
		d.Volatile.NametableRAM[m.PPUAddress&0x0FFF] = value
	}
}

// PPUPeekAddress implements Mapper
func (m *Mapper004) PPUPeekAddress(d *Data, addr uint16) (bool, bool, uint8, bool) {
	if addr >= 0x2000 {
		if m.FourScreen {
			return false, true, d.Volatile.NametableRAM[addr&0x0FFF], true
		}
		return m.a10(addr), false, 0, false
	}
	v, ok := chrByte(d, m.chrOffset(addr))
	return m.a10(addr), false, v, ok
}

// IRQ implements Mapper
func (m *Mapper004) IRQ() bool {
	return m.IRQPending
}

// ROMByteHack implements Mapper
func (m *Mapper004) ROMByteHack(d *Data, addr uint32, value uint8) {
	romByteHack(d, addr, value)
}

// CartridgeRegisters implements Mapper
func (m *Mapper004) CartridgeRegisters() []Register {
	regs := []Register{
		{Name: "Select", Value: m.BankSelect},
		{Name: "Mirror", Value: m.Mirroring},
		{Name: "Protect", Value: m.RAMProtect},
	}
	names := [8]string{"R0", "R1", "R2", "R3", "R4", "R5", "R6", "R7"}
	for i, v := range m.Banks {
		regs = append(regs, Register{Name: names[i], Value: v})
	}
	return append(regs,
		Register{Name: "IRQ Latch", Value: m.IRQLatch},
		Register{Name: "IRQ Counter", Value: m.IRQCounter},
		Register{Name: "IRQ Enable", Value: boolByte(m.IRQEnabled)},
	)
}
