package cartridge

// Sources for a nametable fetch latched by the ppu
const (
	ntConsole uint8 = iota
	ntExRAM
	ntFill
	ntExAttribute
)

// Ppu fetch windows after a detected scanline start. The first 128 fetches
// are background tiles and the next 32 are sprite patterns.
const (
	mmc5SpriteFirst = 129
	mmc5SpriteLast  = 160
)

// Mapper005 implements MMC5 (mapper 5)
// Four PRG banking modes with ROM or RAM in every window but the last,
// separate sprite and background CHR sets for 8x16 sprites, 1KB of
// expansion RAM usable as a nametable or as per-tile attributes, and a
// scanline irq found by watching the ppu fetch pattern.
type Mapper005 struct {
	PRGMode    uint8
	CHRMode    uint8
	RAMProtect [2]uint8
	ExRAMMode  uint8
	NTMapping  uint8
	FillTile   uint8
	FillAttr   uint8
	// $5113-$5117
	PRGBanks [5]uint8
	// $5120-$512B, with the $5130 bits in place
	CHRBanks [12]uint16
	CHRUpper uint8
	LastSetB bool
	// $5200-$5202, the vertical split is not emulated
	Split [3]uint8

	IRQCompare uint8
	IRQEnabled bool
	IRQPending bool
	InFrame    bool
	Scanline   uint8

	MultiplierA uint8
	MultiplierB uint8
	ExRAM       [1024]uint8

	SpriteSize16 bool

	PPUAddress  uint16
	NTSource    uint8
	CHROffset   uint32
	LastAddress uint16
	HaveLast    bool
	Matches     uint8
	Fetches     uint8
	Idle        uint8
	ExTile      uint8
}

// NewMapper005 creates a new MMC5 mapper. Only $5117 has a defined
// power-on value; the rest start in the most common configuration.
func NewMapper005(d *Data) *Mapper005 {
	m := &Mapper005{PRGMode: 3, CHRMode: 3}
	for i := range m.PRGBanks {
		m.PRGBanks[i] = 0xFF
	}
	return m
}

// prgTarget resolves a cpu address to an offset in ROM or RAM
func (m *Mapper005) prgTarget(addr uint16) (uint32, bool) {
	if addr < 0x8000 {
		return uint32(m.PRGBanks[0]&0x07)<<13 | uint32(addr&0x1FFF), false
	}
	var reg int
	var bits uint32
	switch m.PRGMode & 3 {
	case 0:
		reg, bits = 4, 15
	case 1:
		reg, bits = 2, 14
		if addr >= 0xC000 {
			reg = 4
		}
	case 2:
		switch {
		case addr < 0xC000:
			reg, bits = 2, 14
		case addr < 0xE000:
			reg, bits = 3, 13
		default:
			reg, bits = 4, 13
		}
	default:
		reg, bits = 1+int(addr-0x8000)>>13, 13
	}
	v := m.PRGBanks[reg]
	rom := reg == 4 || v&0x80 != 0
	bank := uint32(v&0x7F) >> (bits - 13)
	if !rom {
		bank = uint32(v&0x07) >> (bits - 13)
	}
	return bank<<bits | uint32(addr)&(1<<bits-1), rom
}

func (m *Mapper005) ramWritable() bool {
	return m.RAMProtect[0]&3 == 2 && m.RAMProtect[1]&3 == 1
}

func mmc5RAMRead(d *Data, offset uint32) (uint8, bool) {
	ram := d.Volatile.PRGRAM
	if ram == nil || ram.Len() == 0 {
		return 0, false
	}
	return ram.Read(int(offset) % ram.Len()), true
}

func mmc5RAMWrite(d *Data, offset uint32, value uint8) {
	ram := d.Volatile.PRGRAM
	if ram == nil || ram.Len() == 0 {
		return
	}
	ram.Write(int(offset)%ram.Len(), value)
}

// spritePhase reports whether the ppu is fetching sprite patterns
func (m *Mapper005) spritePhase() bool {
	return m.InFrame && m.Fetches >= mmc5SpriteFirst && m.Fetches <= mmc5SpriteLast
}

// useSetA picks the CHR register set. 8x8 sprites always use set A.
// Outside rendering the last written set answers $2007.
func (m *Mapper005) useSetA() bool {
	switch {
	case !m.SpriteSize16:
		return true
	case m.InFrame:
		return m.spritePhase()
	default:
		return !m.LastSetB
	}
}

func (m *Mapper005) extendedAttributes() bool {
	return m.ExRAMMode == 1 && m.InFrame && !m.spritePhase()
}

func (m *Mapper005) chrOffset(addr uint16) uint32 {
	if m.extendedAttributes() {
		bank := uint32(m.ExTile&0x3F) | uint32(m.CHRUpper&3)<<6
		return bank<<12 | uint32(addr&0x0FFF)
	}
	setA := m.useSetA()
	reg := func(i uint16) uint32 {
		if setA {
			return uint32(m.CHRBanks[i])
		}
		return uint32(m.CHRBanks[8+i&3])
	}
	switch m.CHRMode & 3 {
	case 0:
		return reg(7)<<13 | uint32(addr&0x1FFF)
	case 1:
		return reg(3+4*(addr>>12))<<12 | uint32(addr&0x0FFF)
	case 2:
		return reg(1+2*(addr>>11))<<11 | uint32(addr&0x07FF)
	default:
		return reg(addr>>10)<<10 | uint32(addr&0x03FF)
	}
}

// nametable picks the source of a $2000-$3EFF fetch
func (m *Mapper005) nametable(addr uint16) (bool, uint8) {
	if addr&0x3FF >= 0x3C0 && m.extendedAttributes() {
		return false, ntExAttribute
	}
	switch (m.NTMapping >> ((addr >> 9) & 6)) & 3 {
	case 0:
		return false, ntConsole
	case 1:
		return true, ntConsole
	case 2:
		return false, ntExRAM
	default:
		return false, ntFill
	}
}

func (m *Mapper005) nametableByte(source uint8, addr uint16) uint8 {
	offset := addr & 0x3FF
	switch source {
	case ntExRAM:
		if m.ExRAMMode <= 1 {
			return m.ExRAM[offset]
		}
		return 0
	case ntFill:
		if offset >= 0x3C0 {
			return (m.FillAttr & 3) * 0x55
		}
		return m.FillTile
	case ntExAttribute:
		return (m.ExTile >> 6) * 0x55
	}
	return 0
}

// watchFetch finds scanline starts: the two unused nametable fetches at
// the end of a line and the first one of the next line share an address.
func (m *Mapper005) watchFetch(addr uint16) {
	if addr >= 0x2000 && addr < 0x3000 && m.HaveLast && addr == m.LastAddress {
		m.Matches++
		if m.Matches == 2 {
			m.newScanline()
		}
	} else {
		m.Matches = 0
	}
	m.LastAddress, m.HaveLast = addr, true
	if m.Fetches < 0xFF {
		m.Fetches++
	}
}

func (m *Mapper005) newScanline() {
	if !m.InFrame {
		m.InFrame = true
		m.Scanline = 0
		m.IRQPending = false
	} else {
		m.Scanline++
		if m.IRQCompare != 0 && m.Scanline == m.IRQCompare {
			m.IRQPending = true
		}
	}
	m.Fetches = 0
}

func (m *Mapper005) leaveFrame() {
	m.InFrame = false
	m.HaveLast = false
	m.Matches = 0
}

// tick runs once per cpu cycle. The ppu not fetching for three cycles
// means rendering stopped.
func (m *Mapper005) tick() {
	if m.Idle < 3 {
		m.Idle++
		if m.Idle == 3 {
			m.leaveFrame()
		}
	}
}

func (m *Mapper005) status() uint8 {
	var v uint8
	if m.IRQPending {
		v |= 0x80
	}
	if m.InFrame {
		v |= 0x40
	}
	return v
}

// MemoryCycleDump implements Mapper
func (m *Mapper005) MemoryCycleDump(d *Data, addr uint16) (uint8, bool) {
	switch {
	case addr >= 0x6000:
		offset, rom := m.prgTarget(addr)
		if rom {
			return prgByte(d, offset), true
		}
		return mmc5RAMRead(d, offset)
	case addr >= 0x5C00:
		if m.ExRAMMode >= 2 {
			return m.ExRAM[addr&0x3FF], true
		}
	case addr == 0x5204:
		return m.status(), true
	case addr == 0x5205:
		return uint8(uint16(m.MultiplierA) * uint16(m.MultiplierB)), true
	case addr == 0x5206:
		return uint8(uint16(m.MultiplierA) * uint16(m.MultiplierB) >> 8), true
	}
	return 0, false
}

// MemoryCycleRead implements Mapper
func (m *Mapper005) MemoryCycleRead(d *Data, addr uint16) (uint8, bool) {
	m.tick()
	if addr == 0xFFFA || addr == 0xFFFB {
		// nmi vector fetch
		m.leaveFrame()
	}
	v, ok := m.MemoryCycleDump(d, addr)
	if addr == 0x5204 {
		m.IRQPending = false
	}
	return v, ok
}

// MemoryCycleWrite implements Mapper
func (m *Mapper005) MemoryCycleWrite(d *Data, addr uint16, value uint8) {
	m.tick()
	switch {
	case addr >= 0x6000:
		if offset, rom := m.prgTarget(addr); !rom && m.ramWritable() {
			mmc5RAMWrite(d, offset, value)
		}
	case addr >= 0x5C00:
		switch m.ExRAMMode {
		case 0, 1:
			if !m.InFrame {
				value = 0
			}
			m.ExRAM[addr&0x3FF] = value
		case 2:
			m.ExRAM[addr&0x3FF] = value
		}
	case addr >= 0x5200 && addr <= 0x5206:
		m.writeIRQRegister(addr, value)
	case addr >= 0x5100 && addr <= 0x5130:
		m.writeBankRegister(addr, value)
	}
}

func (m *Mapper005) writeBankRegister(addr uint16, value uint8) {
	switch {
	case addr == 0x5100:
		m.PRGMode = value & 3
	case addr == 0x5101:
		m.CHRMode = value & 3
	case addr == 0x5102 || addr == 0x5103:
		m.RAMProtect[addr-0x5102] = value & 3
	case addr == 0x5104:
		m.ExRAMMode = value & 3
	case addr == 0x5105:
		m.NTMapping = value
	case addr == 0x5106:
		m.FillTile = value
	case addr == 0x5107:
		m.FillAttr = value & 3
	case addr >= 0x5113 && addr <= 0x5117:
		m.PRGBanks[addr-0x5113] = value
	case addr >= 0x5120 && addr <= 0x512B:
		i := addr - 0x5120
		m.CHRBanks[i] = uint16(value) | uint16(m.CHRUpper&3)<<8
		m.LastSetB = i >= 8
	case addr == 0x5130:
		m.CHRUpper = value & 3
	}
}

func (m *Mapper005) writeIRQRegister(addr uint16, value uint8) {
	switch addr {
	case 0x5200, 0x5201, 0x5202:
		m.Split[addr-0x5200] = value
	case 0x5203:
		m.IRQCompare = value
	case 0x5204:
		m.IRQEnabled = value&0x80 != 0
	case 0x5205:
		m.MultiplierA = value
	case 0x5206:
		m.MultiplierB = value
	}
}

// MemoryCycleNop implements Mapper
func (m *Mapper005) MemoryCycleNop() {
	m.tick()
}

// MemoryCycleSnoop implements busWatcher. The chip decodes the ppu control
// and mask registers for the sprite size and the rendering enable.
func (m *Mapper005) MemoryCycleSnoop(addr uint16, value uint8) {
	switch addr & 0x2007 {
	case 0x2000:
		m.SpriteSize16 = value&0x20 != 0
	case 0x2001:
		if value&0x18 == 0 {
			m.leaveFrame()
		}
	}
}

// PPUMemoryCycleAddress implements Mapper
func (m *Mapper005) PPUMemoryCycleAddress(addr uint16) (bool, bool) {
	addr &= 0x3FFF
	m.PPUAddress = addr
	m.Idle = 0
	m.watchFetch(addr)
	if addr < 0x2000 {
		m.NTSource = ntConsole
		m.CHROffset = m.chrOffset(addr)
		return false, false
	}
	if m.ExRAMMode == 1 && addr&0x3FF < 0x3C0 && m.InFrame && !m.spritePhase() {
		m.ExTile = m.ExRAM[addr&0x3FF]
	}
	a10, source := m.nametable(addr)
	m.NTSource = source
	return a10, source != ntConsole
}

// PPUMemoryCycleRead implements Mapper
func (m *Mapper005) PPUMemoryCycleRead(d *Data) (uint8, bool) {
	if m.PPUAddress < 0x2000 {
		return chrByte(d, m.CHROffset)
	}
	if m.NTSource == ntConsole {
		return 0, false
	}
	return m.nametableByte(m.NTSource, m.PPUAddress), true
}

// PPUMemoryCycleWrite implements Mapper
func (m *Mapper005) PPUMemoryCycleWrite(d *Data, value uint8) {
	switch {
	case m.PPUAddress < 0x2000:
		chrWrite(d, m.CHROffset, value)
	case m.NTSource == ntExRAM && m.ExRAMMode <= 1:
		m.ExRAM[m.PPUAddress&0x3FF] = value
	}
}

// PPUPeekAddress implements Mapper
func (m *Mapper005) PPUPeekAddress(d *Data, addr uint16) (bool, bool, uint8, bool) {
	addr &= 0x3FFF
	if addr < 0x2000 {
		v, ok := chrByte(d, m.chrOffset(addr))
		return false, false, v, ok
	}
	a10, source := m.nametable(addr)
	if source == ntConsole {
		return a10, false, 0, false
	}
	return a10, true, m.nametableByte(source, addr), true
}

// IRQ implements Mapper
func (m *Mapper005) IRQ() bool {
	return m.IRQPending && m.IRQEnabled
}

// ROMByteHack implements Mapper
func (m *Mapper005) ROMByteHack(d *Data, addr uint32, value uint8) {
	romByteHack(d, addr, value)
}

// CartridgeRegisters implements Mapper
func (m *Mapper005) CartridgeRegisters() []Register {
	regs := []Register{
		{Name: "PRG Mode", Value: m.PRGMode},
		{Name: "CHR Mode", Value: m.CHRMode},
		{Name: "ExRAM Mode", Value: m.ExRAMMode},
		{Name: "Nametables", Value: m.NTMapping},
	}
	for i, v := range m.PRGBanks {
		regs = append(regs, Register{Name: "PRG" + string(rune('0'+i)), Value: v})
	}
	return append(regs,
		Register{Name: "CHR Upper", Value: m.CHRUpper},
		Register{Name: "IRQ Compare", Value: m.IRQCompare},
		Register{Name: "IRQ Status", Value: m.status()},
		Register{Name: "Scanline", Value: m.Scanline},
	)
}
