package ppu

// renderingCycle drives the fetch pipeline on visible and pre-render lines.
// Each fetch spends two dots: one for the address and one for the data.
func (p *PPU) renderingCycle(bus Bus) {
	dot := p.Dot
	switch {
	case dot >= 1 && dot <= 256, dot >= 321 && dot <= 336:
		p.shiftBackground()
		p.backgroundFetch(bus, (dot-1)&7)
	case dot >= 257 && dot <= 320:
		p.spriteFetch(bus, dot-257)
	case dot >= 337:
		// unused nametable fetches
		if dot&1 == 1 {
			bus.PPUCycle1(0x2000 | p.V&0x0FFF)
		} else {
			bus.PPUCycle2Read()
		}
	}

	switch {
	case dot == 256:
		p.incrementY()
	case dot == 257:
		p.copyX()
	case p.Scanline == preRenderLine && dot >= 280 && dot <= 304:
		p.copyY()
	}
}

func (p *PPU) shiftBackground() {
	p.ShiftLow <<= 1
	p.ShiftHigh <<= 1
	p.AttrShiftLow <<= 1
	p.AttrShiftHigh <<= 1
}

func (p *PPU) reloadBackground() {
	p.ShiftLow = (p.ShiftLow & 0xFF00) | uint16(p.PatternLow)
	p.ShiftHigh = (p.ShiftHigh & 0xFF00) | uint16(p.PatternHigh)
	var lo, hi uint16
	if p.AttrLatch&1 != 0 {
		lo = 0xFF
	}
	if p.AttrLatch&2 != 0 {
		hi = 0xFF
	}
	p.AttrShiftLow = (p.AttrShiftLow & 0xFF00) | lo
	p.AttrShiftHigh = (p.AttrShiftHigh & 0xFF00) | hi
}

func (p *PPU) backgroundPatternAddr() uint16 {
	var base uint16
	if p.Registers[0]&ctrlBackgroundTbl != 0 {
		base = 0x1000
	}
	return base + uint16(p.NametableByte)<<4 + (p.V>>12)&7
}

func (p *PPU) backgroundFetch(bus Bus, phase uint16) {
	switch phase {
	case 0:
		bus.PPUCycle1(0x2000 | p.V&0x0FFF)
	case 1:
		p.NametableByte = bus.PPUCycle2Read()
	case 2:
		bus.PPUCycle1(0x23C0 | p.V&0x0C00 | (p.V>>4)&0x38 | (p.V>>2)&0x07)
	case 3:
		shift := (p.V>>4)&4 | p.V&2
		p.AttrLatch = (bus.PPUCycle2Read() >> shift) & 3
	case 4:
		bus.PPUCycle1(p.backgroundPatternAddr())
	case 5:
		p.PatternLow = bus.PPUCycle2Read()
	case 6:
		bus.PPUCycle1(p.backgroundPatternAddr() + 8)
	case 7:
		p.PatternHigh = bus.PPUCycle2Read()
		p.reloadBackground()
		p.incrementX()
	}
}

// evaluateSprites scans primary OAM for sprites on the current line and
// copies up to eight into secondary OAM for the next one
func (p *PPU) evaluateSprites() {
	dot := p.Dot
	switch {
	case dot >= 1 && dot <= 64:
		if dot&1 == 0 {
			p.SecondaryOAM[dot/2-1] = 0xFF
		}
		if dot == 64 {
			p.SecondaryAddr = 0
			p.Eval = EvalNormal
			p.Sprite0Next = false
		}
	case dot >= 65 && dot <= 256:
		if dot&1 == 1 {
			p.OAMData = p.OAM[p.OAMAddr]
			return
		}
		p.evaluateStep(dot == 66)
	}
}

func (p *PPU) inRange(y uint8) bool {
	diff := int(p.Scanline) - int(y)
	return diff >= 0 && diff < p.spriteHeight()
}

func (p *PPU) evaluateStep(first bool) {
	switch p.Eval {
	case EvalNormal:
		if p.inRange(p.OAMData) {
			p.SecondaryOAM[p.SecondaryAddr] = p.OAMData
			p.SecondaryAddr++
			p.OAMAddr++
			p.Eval = EvalCopySprite
			if first {
				p.Sprite0Next = true
			}
			return
		}
		p.OAMAddr += 4
		if p.OAMAddr < 4 {
			p.Eval = EvalDone
		}
	case EvalCopySprite:
		p.SecondaryOAM[p.SecondaryAddr] = p.OAMData
		p.SecondaryAddr++
		p.OAMAddr++
		if p.SecondaryAddr&3 != 0 {
			return
		}
		switch {
		case p.OAMAddr < 4:
			p.Eval = EvalDone
		case p.SecondaryAddr == 32:
			p.Eval = EvalSprites8
		default:
			p.Eval = EvalNormal
		}
	case EvalSprites8:
		if p.inRange(p.OAMData) {
			p.Registers[2] |= statusOverflow
			p.Eval = EvalDone
			return
		}
		p.OAMAddr += 4
		if p.OAMAddr < 4 {
			p.Eval = EvalDone
		}
	case EvalDone:
		p.OAMAddr += 4
	}
}

func (p *PPU) spritePatternAddr(s *Sprite) uint16 {
	row := uint16(p.Scanline) - uint16(s.Y)
	flipV := s.Attr&0x80 != 0
	if p.spriteHeight() == 16 {
		if flipV {
			row = 15 - row
		}
		table := uint16(s.Tile&1) << 12
		tile := uint16(s.Tile &^ 1)
		if row >= 8 {
			tile++
			row -= 8
		}
		return table + tile<<4 + row
	}
	if flipV {
		row = 7 - row
	}
	var table uint16
	if p.Registers[0]&ctrlSpriteTable != 0 {
		table = 0x1000
	}
	return table + uint16(s.Tile)<<4 + row&7
}

func reverseBits(b uint8) uint8 {
	b = (b&0xF0)>>4 | (b&0x0F)<<4
	b = (b&0xCC)>>2 | (b&0x33)<<2
	b = (b&0xAA)>>1 | (b&0x55)<<1
	return b
}

// spriteFetch loads the eight sprites for the next line during dots
// 257-320, two garbage nametable fetches and two pattern fetches each
func (p *PPU) spriteFetch(bus Bus, cycle uint16) {
	p.OAMAddr = 0
	if cycle == 0 {
		if p.Scanline == preRenderLine {
			p.SpriteCount = 0
			p.Sprite0Line = false
		} else {
			p.SpriteCount = p.SecondaryAddr / 4
			p.Sprite0Line = p.Sprite0Next
		}
	}

	i := cycle >> 3
	s := &p.Sprites[i]
	empty := uint8(i) >= p.SpriteCount
	switch cycle & 7 {
	case 0:
		if empty {
			*s = Sprite{Y: 0xFF, Tile: 0xFF, Attr: 0xFF, X: 0xFF}
		} else {
			s.Y = p.SecondaryOAM[i*4]
			s.Tile = p.SecondaryOAM[i*4+1]
			s.Attr = p.SecondaryOAM[i*4+2]
			s.X = p.SecondaryOAM[i*4+3]
		}
		bus.PPUCycle1(0x2000 | p.V&0x0FFF)
	case 2:
		bus.PPUCycle1(0x2000 | p.V&0x0FFF)
	case 1, 3:
		bus.PPUCycle2Read()
	case 4:
		bus.PPUCycle1(p.emptyOr(s, empty))
	case 5:
		s.Low = bus.PPUCycle2Read()
	case 6:
		bus.PPUCycle1(p.emptyOr(s, empty) + 8)
	case 7:
		s.High = bus.PPUCycle2Read()
		switch {
		case empty:
			s.Low, s.High = 0, 0
		case s.Attr&0x40 != 0:
			s.Low, s.High = reverseBits(s.Low), reverseBits(s.High)
		}
	}
}

// emptyOr returns the pattern address to drive for s. Empty slots still
// fetch tile $FF so mappers see the usual A12 pattern.
func (p *PPU) emptyOr(s *Sprite, empty bool) uint16 {
	if !empty {
		return p.spritePatternAddr(s)
	}
	if p.spriteHeight() == 16 {
		return 0x1000 + 0xFE<<4
	}
	var table uint16
	if p.Registers[0]&ctrlSpriteTable != 0 {
		table = 0x1000
	}
	return table + 0xFF<<4
}

// renderPixel outputs the pixel for the current dot
func (p *PPU) renderPixel(bus Bus, rendering bool) {
	x := int(p.Dot) - 1
	out := (int(p.Scanline)*Width + x) * 3

	var color uint8
	if !rendering {
		// the backdrop, or the palette entry v points at
		addr := uint16(0x3F00)
		if p.V&0x3FFF >= 0x3F00 {
			addr = p.V & 0x3FFF
		}
		color = bus.PaletteRead(addr)
	} else {
		color = bus.PaletteRead(0x3F00 | p.composePixel(x))
	}

	color &= 0x3F
	if p.Registers[1]&maskGreyscale != 0 {
		color &= 0x30
	}
	rgb := &palettes[p.Registers[1]>>5][color]
	p.Frame[out] = rgb[0]
	p.Frame[out+1] = rgb[1]
	p.Frame[out+2] = rgb[2]
}

// composePixel returns the palette index for pixel x, resolving sprite
// priority and sprite 0 hit
func (p *PPU) composePixel(x int) uint16 {
	mask := p.Registers[1]

	var bg uint16
	if mask&maskBackground != 0 && (x >= 8 || mask&maskBackgroundLeft != 0) {
		bit := 15 - uint16(p.FineX)
		lo := (p.ShiftLow >> bit) & 1
		hi := (p.ShiftHigh >> bit) & 1
		if pix := hi<<1 | lo; pix != 0 {
			pal := (p.AttrShiftHigh>>bit)&1<<1 | (p.AttrShiftLow>>bit)&1
			bg = pal<<2 | pix
		}
	}

	if mask&maskSprites == 0 || (x < 8 && mask&maskSpritesLeft == 0) {
		return bg
	}

	for i := 0; i < int(p.SpriteCount); i++ {
		s := &p.Sprites[i]
		off := x - int(s.X)
		if off < 0 || off > 7 {
			continue
		}
		bit := 7 - off
		pix := uint16((s.High>>bit)&1)<<1 | uint16((s.Low>>bit)&1)
		if pix == 0 {
			continue
		}
		if i == 0 && p.Sprite0Line && bg != 0 && x < 255 {
			p.Registers[2] |= statusSprite0Hit
		}
		if bg != 0 && s.Attr&0x20 != 0 {
			return bg
		}
		return 0x10 | uint16(s.Attr&3)<<2 | pix
	}
	return bg
}
