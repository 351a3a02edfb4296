// Package cpu implements the 6502 core of the NES 2A03. The processor is
// advanced one bus cycle at a time so that every read and write lands on
// the motherboard at the same point a real console would put it.
package cpu

import (
	"io"
	"log"
)

const (
	// Stack base address
	stackBase = 0x0100

	// Status register bit masks
	nFlagMask  = 0x80
	vFlagMask  = 0x40
	unusedMask = 0x20
	bFlagMask  = 0x10
	dFlagMask  = 0x08
	iFlagMask  = 0x04
	zFlagMask  = 0x02
	cFlagMask  = 0x01

	// Interrupt vectors
	nmiVector   = 0xFFFA
	resetVector = 0xFFFC
	irqVector   = 0xFFFE
)

// Sequences the BRK microcode can run
const (
	sequenceNone uint8 = iota
	sequenceInterrupt
	sequenceReset
)

// Bus is the CPU side of the motherboard
type Bus interface {
	Read(address uint16) uint8
	Write(address uint16, value uint8)
	// OAMDMA returns and clears a pending $4014 request
	OAMDMA() (page uint8, ok bool)
}

// Dumper is implemented by buses that can be read without side effects.
// The tracer uses it to show operand bytes.
type Dumper interface {
	MemoryDump(address uint16) (uint8, bool)
}

// CPU represents the 6502 processor used in the NES. Exported fields make
// up the save-state.
type CPU struct {
	// Registers
	A  uint8
	X  uint8
	Y  uint8
	SP uint8
	PC uint16

	// Status register flags
	C bool
	Z bool
	I bool
	D bool
	V bool
	N bool

	// Position inside the current instruction. Step 0 is the opcode fetch.
	Opcode   uint8
	Step     uint8
	Sequence uint8
	Address  uint16
	Pointer  uint16
	Data     uint8
	Crossed  bool
	Jammed   bool

	// Interrupt lines
	NMIPrevious   bool
	NMIPending    bool
	Poll          bool
	PrevPoll      bool
	TakeInterrupt bool
	ResetPending  bool

	// OAM DMA
	OAMActive  bool
	OAMHalt    bool
	OAMPage    uint8
	OAMIndex   uint16
	OAMLatched bool
	OAMData    uint8

	// DMC DMA
	DMCPending bool
	DMCAddress uint16
	DMCStall   uint8
	DMCValue   uint8
	DMCReady   bool

	Cycles uint64

	trace               io.Writer
	enableDebugLogging  bool
	enableLoopDetection bool
	lastPC              uint16
	pcStayCount         int
}

// New creates a CPU in the power-on state. The reset sequence runs on the
// first seven cycles.
func New() *CPU {
	cpu := &CPU{}
	cpu.PowerOn()
	return cpu
}

// PowerOn clears the registers and schedules a reset. The reset sequence
// takes SP from 0 to $FD.
func (cpu *CPU) PowerOn() {
	*cpu = CPU{
		trace:               cpu.trace,
		enableDebugLogging:  cpu.enableDebugLogging,
		enableLoopDetection: cpu.enableLoopDetection,
	}
	cpu.I = true
	cpu.ResetPending = true
}

// Restore copies the exported state of s, as decoded from a save-state.
// Trace and debug settings stay as they are.
func (cpu *CPU) Restore(s *CPU) {
	trace, debug, loops := cpu.trace, cpu.enableDebugLogging, cpu.enableLoopDetection
	*cpu = *s
	cpu.trace = trace
	cpu.enableDebugLogging = debug
	cpu.enableLoopDetection = loops
	cpu.lastPC = 0
	cpu.pcStayCount = 0
}

// Reset pulls the reset line. The instruction in flight is abandoned and
// the next seven cycles run the reset sequence, which decrements SP by
// three without writing and loads PC from $FFFC.
func (cpu *CPU) Reset() {
	cpu.Step = 0
	cpu.Sequence = sequenceNone
	cpu.Jammed = false
	cpu.TakeInterrupt = false
	cpu.NMIPending = false
	cpu.OAMActive = false
	cpu.OAMLatched = false
	cpu.DMCPending = false
	cpu.DMCReady = false
	cpu.DMCStall = 0
	cpu.ResetPending = true
}

// Cycle runs one CPU cycle. nmi is the NMI line as the CPU sees it and is
// edge detected; irq is level sensitive.
func (cpu *CPU) Cycle(bus Bus, nmi, irq bool) {
	if nmi && !cpu.NMIPrevious {
		cpu.NMIPending = true
	}
	cpu.NMIPrevious = nmi

	cpu.cycle(bus, irq)
	cpu.Cycles++
}

func (cpu *CPU) cycle(bus Bus, irq bool) {
	if page, ok := bus.OAMDMA(); ok {
		cpu.OAMActive = true
		cpu.OAMHalt = true
		cpu.OAMPage = page
		cpu.OAMIndex = 0
		cpu.OAMLatched = false
	}
	if cpu.OAMActive {
		cpu.oamDMACycle(bus)
		return
	}
	if cpu.DMCPending {
		cpu.dmcDMACycle(bus)
		return
	}
	if cpu.Jammed {
		bus.Read(0xFFFF)
		return
	}

	// Interrupts are sampled at the start of every cycle; the sample taken
	// at the start of an instruction's last cycle decides what comes next.
	cpu.PrevPoll = cpu.Poll
	cpu.Poll = cpu.NMIPending || (irq && !cpu.I)

	if cpu.Step == 0 {
		cpu.fetch(bus)
		return
	}
	cpu.execute(bus)
}

// fetch reads the next opcode, or starts an interrupt sequence in its
// place
func (cpu *CPU) fetch(bus Bus) {
	switch {
	case cpu.ResetPending:
		cpu.ResetPending = false
		cpu.Sequence = sequenceReset
		bus.Read(cpu.PC)
		cpu.Opcode = 0x00
	case cpu.TakeInterrupt:
		cpu.Sequence = sequenceInterrupt
		bus.Read(cpu.PC)
		cpu.Opcode = 0x00
	default:
		pc := cpu.PC
		cpu.Sequence = sequenceNone
		cpu.Opcode = bus.Read(pc)
		cpu.PC++
		if cpu.trace != nil {
			cpu.traceInstruction(cpu.trace, bus, pc)
		}
		if cpu.enableLoopDetection {
			cpu.detectInfiniteLoop(pc)
		}
		if cpu.enableDebugLogging {
			cpu.logInstruction(pc)
		}
	}
	cpu.TakeInterrupt = false
	cpu.Step = 1
}

// finish ends the current instruction
func (cpu *CPU) finish() {
	cpu.Step = 0
	cpu.TakeInterrupt = cpu.Poll
}

// RequestDMC asks for a DMC sample fetch. The CPU stalls for four cycles
// and reads address on the last of them. Requests made while one is in
// flight are ignored.
func (cpu *CPU) RequestDMC(address uint16) {
	if cpu.DMCPending || cpu.DMCReady {
		return
	}
	cpu.DMCPending = true
	cpu.DMCAddress = address
	cpu.DMCStall = 0
}

// DMCResult returns the byte of a completed DMC fetch, once
func (cpu *CPU) DMCResult() (uint8, bool) {
	if !cpu.DMCReady {
		return 0, false
	}
	cpu.DMCReady = false
	return cpu.DMCValue, true
}

func (cpu *CPU) dmcDMACycle(bus Bus) {
	if cpu.DMCStall < 3 {
		// halt, dummy and alignment cycles
		cpu.DMCStall++
		bus.Read(cpu.PC)
		return
	}
	cpu.dmcFetch(bus)
}

func (cpu *CPU) dmcFetch(bus Bus) {
	cpu.DMCValue = bus.Read(cpu.DMCAddress)
	cpu.DMCReady = true
	cpu.DMCPending = false
	cpu.DMCStall = 0
}

// oamDMACycle runs one cycle of a sprite DMA. Reads happen on odd cycles
// and writes to $2004 on even ones, so the transfer takes 513 cycles, or
// 514 when it has to wait a cycle for alignment. A DMC fetch steals a read
// slot and costs two extra cycles.
func (cpu *CPU) oamDMACycle(bus Bus) {
	get := cpu.Cycles&1 == 1
	switch {
	case cpu.OAMHalt:
		cpu.OAMHalt = false
		bus.Read(cpu.PC)
	case get && cpu.DMCPending:
		cpu.dmcFetch(bus)
	case get:
		cpu.OAMData = bus.Read(uint16(cpu.OAMPage)<<8 | cpu.OAMIndex)
		cpu.OAMLatched = true
	case cpu.OAMLatched:
		bus.Write(0x2004, cpu.OAMData)
		cpu.OAMLatched = false
		cpu.OAMIndex++
		if cpu.OAMIndex == 256 {
			cpu.OAMActive = false
		}
	default:
		bus.Read(cpu.PC)
	}
}

// Stack operations
func (cpu *CPU) push(bus Bus, value uint8) {
	bus.Write(stackBase|uint16(cpu.SP), value)
	cpu.SP--
}

func (cpu *CPU) pull(bus Bus) uint8 {
	cpu.SP++
	return bus.Read(stackBase | uint16(cpu.SP))
}

// peekStack is the dummy stack read 6502 instructions perform before
// pulling
func (cpu *CPU) peekStack(bus Bus) {
	bus.Read(stackBase | uint16(cpu.SP))
}

// fetchOperand reads the byte at PC and advances it
func (cpu *CPU) fetchOperand(bus Bus) uint8 {
	v := bus.Read(cpu.PC)
	cpu.PC++
	return v
}

// GetStatusByte returns the status register as a byte. Bit 5 reads as
// set; the B flag only exists on the stack.
func (cpu *CPU) GetStatusByte() uint8 {
	status := uint8(unusedMask)
	if cpu.N {
		status |= nFlagMask
	}
	if cpu.V {
		status |= vFlagMask
	}
	if cpu.D {
		status |= dFlagMask
	}
	if cpu.I {
		status |= iFlagMask
	}
	if cpu.Z {
		status |= zFlagMask
	}
	if cpu.C {
		status |= cFlagMask
	}
	return status
}

// SetStatusByte sets the status register from a byte
func (cpu *CPU) SetStatusByte(status uint8) {
	cpu.N = status&nFlagMask != 0
	cpu.V = status&vFlagMask != 0
	cpu.D = status&dFlagMask != 0
	cpu.I = status&iFlagMask != 0
	cpu.Z = status&zFlagMask != 0
	cpu.C = status&cFlagMask != 0
}

// AtBoundary reports whether the CPU sits between two instructions with
// no DMA in progress
func (cpu *CPU) AtBoundary() bool {
	return cpu.Step == 0 && !cpu.OAMActive && !cpu.DMCPending
}

// SetTrace writes one line per executed instruction to w. nil disables
// tracing.
func (cpu *CPU) SetTrace(w io.Writer) {
	cpu.trace = w
}

// EnableDebugLogging enables/disables per-instruction logging
func (cpu *CPU) EnableDebugLogging(enable bool) {
	cpu.enableDebugLogging = enable
}

// EnableLoopDetection enables/disables reporting of a PC that never moves
func (cpu *CPU) EnableLoopDetection(enable bool) {
	cpu.enableLoopDetection = enable
}

// detectInfiniteLoop reports when the CPU keeps fetching at the same PC
func (cpu *CPU) detectInfiniteLoop(pc uint16) {
	if pc != cpu.lastPC {
		cpu.pcStayCount = 0
		cpu.lastPC = pc
		return
	}
	cpu.pcStayCount++
	if cpu.pcStayCount == 100 || cpu.pcStayCount%100000 == 0 {
		log.Printf("[CPU_LOOP] CPU stuck at PC=$%04X opcode=$%02X for %d instructions",
			pc, cpu.Opcode, cpu.pcStayCount)
	}
}

func (cpu *CPU) logInstruction(pc uint16) {
	log.Printf("[CPU_DEBUG] PC=$%04X: %s ($%02X) | A=$%02X X=$%02X Y=$%02X SP=$%02X | %s",
		pc, instructions[cpu.Opcode].Name, cpu.Opcode, cpu.A, cpu.X, cpu.Y, cpu.SP, cpu.flagsString())
}

func (cpu *CPU) flagsString() string {
	const names = "NV-BDIZC"
	p := cpu.GetStatusByte()
	out := []byte("--------")
	for i := range out {
		if p&(0x80>>i) != 0 && i != 2 {
			out[i] = names[i]
		}
	}
	return string(out)
}
