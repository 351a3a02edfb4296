package ppu

func (p *PPU) refreshOpenBus(low, high bool) {
	if low {
		p.LastCPUCounter[0] = openBusRefresh
	}
	if high {
		p.LastCPUCounter[1] = openBusRefresh
	}
}

// ReadRegister handles a CPU read of $2000-$2007. addr is the register
// index (0-7).
func (p *PPU) ReadRegister(addr uint16, bus Bus) uint8 {
	switch addr & 7 {
	case 2:
		v := (p.Registers[2] & 0xE0) | (p.LastCPUData & 0x1F)
		p.Toggle = false
		p.VBlankClear = true
		p.LastCPUData = v
		p.refreshOpenBus(false, true)
		return v
	case 4:
		v := p.oamRead()
		p.LastCPUData = v
		p.refreshOpenBus(true, true)
		return v
	case 7:
		return p.readData(bus)
	default:
		return p.LastCPUData
	}
}

// Dump reads a register without side effects
func (p *PPU) Dump(addr uint16, bus Bus) uint8 {
	switch addr & 7 {
	case 2:
		return (p.Registers[2] & 0xE0) | (p.LastCPUData & 0x1F)
	case 4:
		return p.oamRead()
	case 7:
		if p.V&0x3FFF >= 0x3F00 {
			return (p.LastCPUData & 0xC0) | bus.PaletteRead(p.V)
		}
		return p.ReadBuffer
	default:
		return p.LastCPUData
	}
}

func (p *PPU) oamRead() uint8 {
	v := p.OAM[p.OAMAddr]
	// attribute bytes have no storage for bits 2-4
	if p.OAMAddr&3 == 2 {
		v &= 0xE3
	}
	return v
}

// readData queues a VRAM read and returns the previous buffered byte.
// Palette reads return immediately while the buffer is refilled from the
// nametable underneath.
func (p *PPU) readData(bus Bus) uint8 {
	addr := p.V & 0x3FFF
	var v uint8
	if addr >= 0x3F00 {
		v = (p.LastCPUData & 0xC0) | (bus.PaletteRead(addr) & 0x3F)
		p.PendingReadAddr = addr & 0x2FFF
	} else {
		v = p.ReadBuffer
		p.PendingReadAddr = addr
	}
	p.PendingRead = true
	p.incrementAddress()
	p.LastCPUData = v
	p.refreshOpenBus(true, true)
	return v
}

// WriteRegister handles a CPU write to $2000-$2007
func (p *PPU) WriteRegister(addr uint16, value uint8, bus Bus) {
	p.LastCPUData = value
	p.refreshOpenBus(true, true)

	switch addr & 7 {
	case 0:
		if p.WriteIgnore < startupCycles {
			return
		}
		p.Registers[0] = value
		p.T = (p.T &^ 0x0C00) | uint16(value&0x03)<<10
	case 1:
		if p.WriteIgnore < startupCycles {
			return
		}
		p.Registers[1] = value
	case 2:
	case 3:
		p.OAMAddr = value
	case 4:
		p.OAM[p.OAMAddr] = value
		p.OAMAddr++
	case 5:
		if p.WriteIgnore < startupCycles {
			return
		}
		if !p.Toggle {
			p.T = (p.T &^ 0x001F) | uint16(value)>>3
			p.FineX = value & 7
		} else {
			p.T = (p.T & 0x0C1F) | uint16(value&7)<<12 | uint16(value&0xF8)<<2
		}
		p.Toggle = !p.Toggle
	case 6:
		if p.WriteIgnore < startupCycles {
			return
		}
		if !p.Toggle {
			p.Registers[6] = value
			p.T = (p.T & 0x00FF) | uint16(value&0x3F)<<8
		} else {
			p.T = (p.T & 0x7F00) | uint16(value)
			p.V = p.T
		}
		p.Toggle = !p.Toggle
	case 7:
		if p.V&0x3FFF >= 0x3F00 {
			bus.PaletteWrite(p.V&0x3FFF, value&0x3F)
			p.incrementAddress()
			return
		}
		p.PendingWrite = true
		p.PendingWriteData = value
	}
}
