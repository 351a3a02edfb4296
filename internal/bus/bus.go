// Package bus runs an emulation session: it owns the chips, divides the
// master clock between them and delays the PPU's NMI line on its way to
// the CPU.
package bus

import (
	"fmt"
	"io"
	"log"
	"math/rand/v2"

	"nesemu/internal/apu"
	"nesemu/internal/cartridge"
	"nesemu/internal/cpu"
	"nesemu/internal/input"
	"nesemu/internal/memory"
	"nesemu/internal/ppu"
)

// Master clock divisors for NTSC
const (
	cpuDivider = 12
	ppuDivider = 4
)

// Config holds the session options
type Config struct {
	// SampleRate is the audio output rate. Zero disables sample production.
	SampleRate int
	// Seed drives the power-on garbage. The same seed and cartridge give
	// the same run.
	Seed uint64
	// Randomize fills RAM, OAM and the clock phases with garbage at power-on
	Randomize bool
}

// Bus connects all NES components together
type Bus struct {
	// Core components
	CPU   *cpu.CPU
	PPU   *ppu.PPU
	APU   *apu.APU
	Board *memory.Motherboard
	Input *input.Ports
	Cart  *cartridge.Cartridge

	// Clock divider phases
	CPUClock uint8
	PPUClock uint8

	// NMI is the PPU's NMI output over the last three PPU cycles. The CPU
	// sees the line asserted once all three agree.
	NMI     [3]bool
	PrevIRQ bool

	cfg  Config
	rng  *rand.Rand
	sink apu.Sink

	frameCount uint64

	// Memory monitoring for debugging
	watchpoints       map[uint16]uint8
	watchpointLogging bool
}

// New creates a powered-on console with no cartridge
func New(cfg Config) *Bus {
	b := &Bus{
		CPU:         cpu.New(),
		PPU:         ppu.New(),
		APU:         apu.New(),
		Input:       input.NewPorts(),
		cfg:         cfg,
		watchpoints: make(map[uint16]uint8),
	}
	b.Board = memory.New(b.PPU, b.APU, b.Input)
	b.PowerOn()
	return b
}

// LoadCartridge inserts cart and power cycles the console. nil removes the
// cartridge.
func (b *Bus) LoadCartridge(cart *cartridge.Cartridge) {
	b.Cart = cart
	if cart == nil {
		b.Board.SetCartridge(nil)
	} else {
		b.Board.SetCartridge(cart)
		log.Printf("[BUS] cartridge %s mapper %d hash %.12s", cart.Name(), cart.MapperID(), cart.Hash())
	}
	b.PowerOn()
}

// PowerOn puts every chip in its power-up state. With Randomize set the
// memories and clock phases start from seeded garbage.
func (b *Bus) PowerOn() {
	var rng *rand.Rand
	if b.cfg.Randomize {
		rng = rand.New(rand.NewPCG(b.cfg.Seed, b.cfg.Seed^0x9E3779B97F4A7C15))
	}
	b.rng = rng

	b.CPU.PowerOn()
	b.PPU.PowerOn(rng)
	b.Board.PowerOn(rng)
	if rng != nil && b.Cart != nil {
		b.Cart.Scramble(rng)
	}
	*b.APU = *apu.New()
	if b.cfg.SampleRate > 0 {
		b.APU.SetSampleRate(b.cfg.SampleRate)
	}
	b.Input.Reset()

	b.CPUClock, b.PPUClock = 0, 0
	if rng != nil {
		b.CPUClock = uint8(rng.IntN(cpuDivider))
		b.PPUClock = uint8(rng.IntN(ppuDivider))
	}
	b.NMI = [3]bool{}
	b.PrevIRQ = false
	b.frameCount = 0
}

// Reset presses the console reset button
func (b *Bus) Reset() {
	b.CPU.Reset()
	b.PPU.Reset()
	b.APU.Reset()
}

// CycleStep advances the master clock by one tick
func (b *Bus) CycleStep() {
	b.CPUClock++
	if b.CPUClock >= cpuDivider {
		b.CPUClock = 0
		nmi := b.NMI[0] && b.NMI[1] && b.NMI[2]
		if addr, ok := b.APU.DMA(); ok {
			b.CPU.RequestDMC(addr)
		}
		b.CPU.Cycle(b.Board, nmi, b.PrevIRQ)
		if v, ok := b.CPU.DMCResult(); ok {
			b.APU.ProvideDMAResponse(v)
		}
		b.PrevIRQ = b.APU.IRQ() || (b.Cart != nil && b.Cart.IRQ())
		b.APU.ClockSlow(b.sink)
	}

	b.PPUClock++
	if b.PPUClock >= ppuDivider {
		b.PPUClock = 0
		b.PPU.Cycle(b.Board)
		b.NMI[0] = b.NMI[1]
		b.NMI[1] = b.NMI[2]
		b.NMI[2] = b.PPU.IRQ()
	}
}

// CPUStep runs master ticks until the CPU has completed one more cycle
func (b *Bus) CPUStep() {
	start := b.CPU.Cycles
	for b.CPU.Cycles == start {
		b.CycleStep()
	}
}

// Step runs until the CPU reaches the next instruction boundary
func (b *Bus) Step() {
	b.CPUStep()
	for !b.CPU.AtBoundary() {
		b.CPUStep()
	}
}

// RunFrame runs until the PPU completes a frame
func (b *Bus) RunFrame() {
	for !b.PPU.FrameEnd() {
		b.CycleStep()
	}
	b.frameCount++
	if b.watchpointLogging {
		b.CheckMemoryWatchpoints()
	}
}

// Run executes the given number of frames
func (b *Bus) Run(frames int) {
	for i := 0; i < frames; i++ {
		b.RunFrame()
	}
}

// RunCycles executes the given number of CPU cycles
func (b *Bus) RunCycles(cycles uint64) {
	for i := uint64(0); i < cycles; i++ {
		b.CPUStep()
	}
}

// FrameBuffer returns the RGB frame, three bytes per pixel
func (b *Bus) FrameBuffer() *[ppu.Width * ppu.Height * 3]uint8 {
	return b.PPU.FrameBuffer()
}

// FrameCount returns the number of frames completed since power-on
func (b *Bus) FrameCount() uint64 {
	return b.frameCount
}

// SetAudioSink sets where APU samples go. nil drops them.
func (b *Bus) SetAudioSink(sink apu.Sink) {
	b.sink = sink
}

// SetSampleRate changes the audio output rate
func (b *Bus) SetSampleRate(rate int) {
	b.cfg.SampleRate = rate
	b.APU.SetSampleRate(rate)
}

// SampleRate returns the audio output rate
func (b *Bus) SampleRate() int {
	return b.APU.GetSampleRate()
}

// SetButtons sets the pressed buttons of controller 0 or 1
func (b *Bus) SetButtons(player int, buttons uint8) {
	b.Input.SetButtons(player, buttons)
}

// MemoryDump reads the CPU address space without side effects
func (b *Bus) MemoryDump(addr uint16) (uint8, bool) {
	return b.Board.MemoryDump(addr)
}

// PPUPeek reads the PPU address space without side effects
func (b *Bus) PPUPeek(addr uint16) uint8 {
	return b.Board.PPUPeek(addr)
}

// CPUState returns the CPU registers
func (b *Bus) CPUState() cpu.State {
	return b.CPU.State()
}

// PPUState is the PPU position for debugging
type PPUState struct {
	Scanline uint16
	Dot      uint16
	Frame    uint64
	V        uint16
	Ctrl     uint8
	Mask     uint8
	Status   uint8
}

func (s PPUState) String() string {
	return fmt.Sprintf("SL:%d DOT:%d FRAME:%d V:%04X CTRL:%02X MASK:%02X STATUS:%02X",
		s.Scanline, s.Dot, s.Frame, s.V, s.Ctrl, s.Mask, s.Status)
}

// PPUState returns the PPU position and control registers
func (b *Bus) PPUState() PPUState {
	return PPUState{
		Scanline: b.PPU.Scanline,
		Dot:      b.PPU.Dot,
		Frame:    b.PPU.FrameNumber,
		V:        b.PPU.VRAMAddress(),
		Ctrl:     b.PPU.Registers[0],
		Mask:     b.PPU.Registers[1],
		Status:   b.PPU.Registers[2],
	}
}

// SetTrace writes a line per executed instruction to w. nil stops tracing.
func (b *Bus) SetTrace(w io.Writer) {
	b.CPU.SetTrace(w)
}

// EnableCPUDebug turns on instruction logging and stuck loop detection
func (b *Bus) EnableCPUDebug(enable bool) {
	b.CPU.EnableDebugLogging(enable)
	b.CPU.EnableLoopDetection(enable)
}

// AddMemoryWatchpoint logs changes of the byte at address once per frame
func (b *Bus) AddMemoryWatchpoint(address uint16) {
	v, _ := b.MemoryDump(address)
	b.watchpoints[address] = v
}

// EnableWatchpointLogging turns watchpoint checks on or off
func (b *Bus) EnableWatchpointLogging(enabled bool) {
	b.watchpointLogging = enabled
}

// CheckMemoryWatchpoints logs every watched byte that changed since the
// last check
func (b *Bus) CheckMemoryWatchpoints() {
	for address, prev := range b.watchpoints {
		v, ok := b.MemoryDump(address)
		if !ok || v == prev {
			continue
		}
		log.Printf("[WATCH] frame %d $%04X: %02X -> %02X", b.frameCount, address, prev, v)
		b.watchpoints[address] = v
	}
}
