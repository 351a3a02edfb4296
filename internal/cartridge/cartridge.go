// Package cartridge implements ROM loading, cartridge storage and mapper emulation for NES cartridges.
package cartridge

import (
	"bytes"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"io"
	"log"
	"math/rand/v2"
	"os"
	"path/filepath"
)

// Format identifies the container a ROM was loaded from
type Format uint8

const (
	FormatINES1 Format = iota
	FormatINES2
)

func (f Format) String() string {
	if f == FormatINES2 {
		return "iNES 2.0"
	}
	return "iNES"
}

// MirrorMode represents the nametable mirroring wired on the board
type MirrorMode uint8

const (
	MirrorHorizontal MirrorMode = iota
	MirrorVertical
	MirrorFourScreen
)

func (m MirrorMode) String() string {
	switch m {
	case MirrorVertical:
		return "vertical"
	case MirrorFourScreen:
		return "four-screen"
	}
	return "horizontal"
}

// Nonvolatile holds the cartridge contents that never change while running.
// It is not part of a save state.
type Nonvolatile struct {
	Trainer []uint8
	PRGROM  []uint8
	CHRROM  []uint8
	InstROM []uint8
}

// Volatile holds the cartridge contents that the running game can change
type Volatile struct {
	PRGRAM        *Storage
	CHRRAM        []uint8
	BatteryBackup bool
	// True for vertical mirroring, false for horizontal
	MirrorVertical bool
	FourScreen     bool
	MapperID       uint16
	// Extra nametable memory on four-screen boards
	NametableRAM []uint8
}

// Data is everything a mapper may address. Mappers borrow it on every
// memory cycle and never keep a reference to it.
type Data struct {
	Nonvolatile Nonvolatile
	Volatile    Volatile
}

// CHR returns the character memory in use, either CHR-RAM or CHR-ROM
func (d *Data) CHR() []uint8 {
	if len(d.Volatile.CHRRAM) > 0 {
		return d.Volatile.CHRRAM
	}
	return d.Nonvolatile.CHRROM
}

// HasCHRRAM reports whether character memory is writable
func (d *Data) HasCHRRAM() bool {
	return len(d.Volatile.CHRRAM) > 0
}

// Cartridge represents a NES cartridge: its data plus the mapper driving it
type Cartridge struct {
	data     Data
	mapper   Mapper
	mapperID uint16
	format   Format
	hash     string
	save     string
	name     string
}

// iNES header structure
type iNESHeader struct {
	Magic      [4]uint8
	PRGROMSize uint8 // in 16KB units
	CHRROMSize uint8 // in 8KB units
	Flags6     uint8
	Flags7     uint8
	Flags8     uint8
	Flags9     uint8
	Flags10    uint8
	Padding    [5]uint8
}

func (h *iNESHeader) isINES2() bool {
	return h.Flags7&0x0C == 0x08
}

func (h *iNESHeader) isArchaic() bool {
	if h.Flags7&0x0C == 0x04 {
		return true
	}
	if h.Flags7&0x0C == 0 {
		for _, b := range h.Padding[1:] {
			if b != 0 {
				return true
			}
		}
	}
	return false
}

// LoadFromFile loads a cartridge from an iNES file. When the cartridge has a
// battery and saveDir is not empty, its PRG-RAM is made persistent in saveDir.
func LoadFromFile(filename, saveDir string) (*Cartridge, error) {
	contents, err := os.ReadFile(filename)
	if err != nil {
		return nil, newLoadError(ErrKindFS, err)
	}

	cart, err := LoadFromBytes(filename, contents)
	if err != nil {
		return nil, err
	}

	if cart.data.Volatile.BatteryBackup && saveDir != "" {
		path := filepath.Join(saveDir, cart.save+".prgram")
		if err := cart.data.Volatile.PRGRAM.MakePersistent(path); err != nil {
			log.Printf("[CARTRIDGE] battery ram for %s stays volatile: %v", cart.name, err)
		}
	}
	return cart, nil
}

// LoadFromReader loads a cartridge from an io.Reader
func LoadFromReader(name string, r io.Reader) (*Cartridge, error) {
	contents, err := io.ReadAll(r)
	if err != nil {
		return nil, newLoadError(ErrKindFS, err)
	}
	return LoadFromBytes(name, contents)
}

// LoadFromBytes parses a complete ROM image
func LoadFromBytes(name string, contents []byte) (*Cartridge, error) {
	if len(contents) < 16 {
		return nil, newLoadError(ErrKindMissingHeader, nil)
	}

	var header iNESHeader
	if err := binary.Read(bytes.NewReader(contents[:16]), binary.LittleEndian, &header); err != nil {
		return nil, newLoadError(ErrKindMissingHeader, err)
	}

	// Validate magic number
	if string(header.Magic[:]) != "NES\x1A" {
		return nil, newLoadError(ErrKindInvalidROM, nil)
	}

	var (
		cart *Cartridge
		err  error
	)
	switch {
	case header.isINES2():
		cart, err = loadINES2(&header, contents)
	case header.isArchaic():
		return nil, newLoadError(ErrKindInvalidROM, errArchaicHeader)
	default:
		cart, err = loadINES1(&header, contents)
	}
	if err != nil {
		return nil, err
	}

	sum := sha256.Sum256(contents)
	cart.hash = hex.EncodeToString(sum[:])
	cart.name = name
	cart.save = filepath.Base(name)
	return cart, nil
}

// reader walks the ROM image past the header
type reader struct {
	contents []byte
	offset   int
}

func (r *reader) take(n int) ([]uint8, error) {
	if n < 0 {
		return nil, newLoadError(ErrKindInvalidLength, errSizeRange)
	}
	if r.offset+n > len(r.contents) {
		return nil, newLoadError(ErrKindROMTooShort, nil)
	}
	out := make([]uint8, n)
	copy(out, r.contents[r.offset:r.offset+n])
	r.offset += n
	return out, nil
}

func loadINES1(h *iNESHeader, contents []byte) (*Cartridge, error) {
	if h.PRGROMSize == 0 {
		return nil, newLoadError(ErrKindInvalidLength, errZeroPRG)
	}

	r := &reader{contents: contents, offset: 16}
	data := Data{}

	if h.Flags6&0x04 != 0 {
		trainer, err := r.take(512)
		if err != nil {
			return nil, err
		}
		data.Nonvolatile.Trainer = trainer
	}

	prg, err := r.take(int(h.PRGROMSize) * 16384)
	if err != nil {
		return nil, err
	}
	data.Nonvolatile.PRGROM = prg

	if h.CHRROMSize != 0 {
		chr, err := r.take(int(h.CHRROMSize) * 8192)
		if err != nil {
			return nil, err
		}
		data.Nonvolatile.CHRROM = chr
	} else {
		data.Volatile.CHRRAM = make([]uint8, 8192)
	}

	if h.Flags7&0x02 != 0 {
		inst, err := r.take(8192)
		if err != nil {
			return nil, err
		}
		data.Nonvolatile.InstROM = inst
	}

	if r.offset != len(contents) {
		return nil, newLoadError(ErrKindROMTooLong, nil)
	}

	ramSize := 8192
	if h.Flags6&0x02 == 0 && h.Flags8 != 0 {
		ramSize = int(h.Flags8) * 8192
	}
	data.Volatile.PRGRAM = NewStorage(make([]uint8, ramSize))
	data.Volatile.BatteryBackup = h.Flags6&0x02 != 0
	data.Volatile.MirrorVertical = h.Flags6&0x01 != 0
	data.Volatile.FourScreen = h.Flags6&0x08 != 0

	id := uint16(h.Flags6>>4) | uint16(h.Flags7&0xF0)
	data.Volatile.MapperID = id
	return newCartridge(data, id, FormatINES1)
}

// romSize decodes the iNES 2.0 size fields, including the exponent-multiplier
// form. Exponents past 2^30 cannot describe a real image and give -1.
func romSize(lsb, msb uint8, unit int) int {
	if msb < 0x0F {
		return (int(lsb) | int(msb)<<8) * unit
	}
	exp := lsb >> 2
	if exp > 30 {
		return -1
	}
	mult := int(lsb&3)*2 + 1
	return (1 << exp) * mult
}

// shiftSize decodes the iNES 2.0 RAM size nibble, 64 << n bytes
func shiftSize(n uint8) int {
	if n == 0 {
		return 0
	}
	return 64 << n
}

func loadINES2(h *iNESHeader, contents []byte) (*Cartridge, error) {
	r := &reader{contents: contents, offset: 16}
	data := Data{}

	if h.Flags6&0x04 != 0 {
		trainer, err := r.take(512)
		if err != nil {
			return nil, err
		}
		data.Nonvolatile.Trainer = trainer
	}

	prgSize := romSize(h.PRGROMSize, h.Flags9&0x0F, 16384)
	if prgSize < 0 {
		return nil, newLoadError(ErrKindInvalidLength, errSizeRange)
	}
	if prgSize == 0 {
		return nil, newLoadError(ErrKindInvalidLength, errZeroPRG)
	}
	prg, err := r.take(prgSize)
	if err != nil {
		return nil, err
	}
	data.Nonvolatile.PRGROM = prg

	chrSize := romSize(h.CHRROMSize, h.Flags9>>4, 8192)
	if chrSize < 0 {
		return nil, newLoadError(ErrKindInvalidLength, errSizeRange)
	}
	if chrSize != 0 {
		chr, err := r.take(chrSize)
		if err != nil {
			return nil, err
		}
		data.Nonvolatile.CHRROM = chr
	}

	if r.offset < len(contents) {
		return nil, newLoadError(ErrKindROMTooLong, nil)
	}

	ramSize := shiftSize(h.Flags10&0x0F) + shiftSize(h.Flags10>>4)
	data.Volatile.PRGRAM = NewStorage(make([]uint8, ramSize))
	if chrSize == 0 {
		chrRAM := shiftSize(h.Padding[0] & 0x0F)
		if chrRAM == 0 {
			chrRAM = 8192
		}
		data.Volatile.CHRRAM = make([]uint8, chrRAM)
	}
	data.Volatile.BatteryBackup = h.Flags6&0x02 != 0
	data.Volatile.MirrorVertical = h.Flags6&0x01 != 0
	data.Volatile.FourScreen = h.Flags6&0x08 != 0

	id := uint16(h.Flags6>>4) | uint16(h.Flags7&0xF0) | uint16(h.Flags8&0x0F)<<8
	data.Volatile.MapperID = id
	return newCartridge(data, id, FormatINES2)
}

func newCartridge(data Data, id uint16, format Format) (*Cartridge, error) {
	cart := &Cartridge{
		data:     data,
		mapperID: id,
		format:   format,
	}
	mapper, err := createMapper(id, &cart.data)
	if err != nil {
		return nil, err
	}
	cart.mapper = mapper
	return cart, nil
}

// MapperID returns the mapper number from the header
func (c *Cartridge) MapperID() uint16 {
	return c.mapperID
}

// Format returns the container format of the loaded ROM
func (c *Cartridge) Format() Format {
	return c.format
}

// Hash returns the hex sha256 of the ROM image
func (c *Cartridge) Hash() string {
	return c.hash
}

// Name returns the file name the cartridge was loaded from
func (c *Cartridge) Name() string {
	return c.name
}

// SaveName returns the file name used for save states of this cartridge
func (c *Cartridge) SaveName() string {
	return c.save + ".save"
}

// Mirroring returns the mirroring wired in the header
func (c *Cartridge) Mirroring() MirrorMode {
	switch {
	case c.data.Volatile.FourScreen:
		return MirrorFourScreen
	case c.data.Volatile.MirrorVertical:
		return MirrorVertical
	}
	return MirrorHorizontal
}

// HasBattery reports whether PRG-RAM is battery backed
func (c *Cartridge) HasBattery() bool {
	return c.data.Volatile.BatteryBackup
}

// Data returns the cartridge data
func (c *Cartridge) Data() *Data {
	return &c.data
}

// Mapper returns the mapper instance
func (c *Cartridge) Mapper() Mapper {
	return c.mapper
}

// IRQ returns the mapper irq line
func (c *Cartridge) IRQ() bool {
	return c.mapper.IRQ()
}

// MemoryDump reads cartridge space without side effects
func (c *Cartridge) MemoryDump(addr uint16) (uint8, bool) {
	return c.mapper.MemoryCycleDump(&c.data, addr)
}

// MemoryRead drives a cpu read cycle
func (c *Cartridge) MemoryRead(addr uint16) (uint8, bool) {
	return c.mapper.MemoryCycleRead(&c.data, addr)
}

// MemoryWrite drives a cpu write cycle
func (c *Cartridge) MemoryWrite(addr uint16, value uint8) {
	c.mapper.MemoryCycleWrite(&c.data, addr, value)
}

// MemoryNop drives a cpu cycle that does not touch the cartridge
func (c *Cartridge) MemoryNop() {
	c.mapper.MemoryCycleNop()
}

// MemorySnoop drives a cpu write cycle aimed at a console register. The
// cartridge is not selected, but some mappers watch the bus anyway.
func (c *Cartridge) MemorySnoop(addr uint16, value uint8) {
	if w, ok := c.mapper.(busWatcher); ok {
		w.MemoryCycleSnoop(addr, value)
	}
	c.mapper.MemoryCycleNop()
}

// PPUCycle1 runs the address half of a ppu bus cycle. It returns A10 for the
// internal VRAM and whether the cartridge disables that VRAM.
func (c *Cartridge) PPUCycle1(addr uint16) (bool, bool) {
	return c.mapper.PPUMemoryCycleAddress(addr)
}

// PPUCycleRead runs the data half of a ppu read
func (c *Cartridge) PPUCycleRead() uint8 {
	if v, ok := c.mapper.PPUMemoryCycleRead(&c.data); ok {
		return v
	}
	// TODO: model the ppu data bus capacitance instead of a fixed value
	return 42
}

// PPUCycleWrite runs the data half of a ppu write
func (c *Cartridge) PPUCycleWrite(value uint8) {
	c.mapper.PPUMemoryCycleWrite(&c.data, value)
}

// PPUPeek reads ppu space without side effects
func (c *Cartridge) PPUPeek(addr uint16) (bool, bool, uint8, bool) {
	return c.mapper.PPUPeekAddress(&c.data, addr)
}

// Registers returns the mapper registers for debug displays
func (c *Cartridge) Registers() []Register {
	return c.mapper.CartridgeRegisters()
}

// ROMByteHack overwrites a byte of PRG-ROM
func (c *Cartridge) ROMByteHack(addr uint32, value uint8) {
	c.mapper.ROMByteHack(&c.data, addr, value)
}

// SetMapper replaces the mapper, used when restoring a save state
func (c *Cartridge) SetMapper(m Mapper) {
	c.mapper = m
}

// RestoreVolatile replaces the volatile data with a restored copy, keeping
// a persistent PRG-RAM backing in place.
func (c *Cartridge) RestoreVolatile(v Volatile) {
	if v.PRGRAM != nil && c.data.Volatile.PRGRAM != nil {
		c.data.Volatile.PRGRAM.Restore(v.PRGRAM.Bytes())
		v.PRGRAM = c.data.Volatile.PRGRAM
	}
	c.data.Volatile = v
}

// Scramble fills the cartridge RAM with garbage from rng, the way it comes
// up on real hardware. Battery backed PRG-RAM keeps its contents.
func (c *Cartridge) Scramble(rng *rand.Rand) {
	for i := range c.data.Volatile.CHRRAM {
		c.data.Volatile.CHRRAM[i] = uint8(rng.UintN(256))
	}
	ram := c.data.Volatile.PRGRAM
	if ram == nil || ram.Persistent() {
		return
	}
	for i := 0; i < ram.Len(); i++ {
		ram.Write(i, uint8(rng.UintN(256)))
	}
}

// Close releases the battery backed storage
func (c *Cartridge) Close() error {
	if c.data.Volatile.PRGRAM == nil {
		return nil
	}
	return c.data.Volatile.PRGRAM.Close()
}
