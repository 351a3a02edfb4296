package cpu

import "strings"

// AddressingMode is how an instruction finds its operand
type AddressingMode int

const (
	Implied AddressingMode = iota
	Accumulator
	Immediate
	ZeroPage
	ZeroPageX
	ZeroPageY
	Relative
	Absolute
	AbsoluteX
	AbsoluteY
	Indirect
	IndexedIndirect // (zp,X)
	IndirectIndexed // (zp),Y
)

type accessKind uint8

const (
	kindNone accessKind = iota
	kindRead
	kindWrite
	kindModify
	kindJam
)

// Instruction describes one opcode. Exactly one of the behaviour fields is
// set, according to how the instruction uses the bus.
type Instruction struct {
	Name       string
	Mode       AddressingMode
	Unofficial bool

	kind    accessKind
	read    func(*CPU, uint8)
	write   func(*CPU) uint8
	modify  func(*CPU, uint8) uint8
	implied func(*CPU)
	branch  func(*CPU) bool
	special func(*CPU, Bus, uint8)
}

// Bytes returns the encoded length of the instruction
func (in *Instruction) Bytes() int {
	switch in.Mode {
	case Implied, Accumulator:
		return 1
	case Absolute, AbsoluteX, AbsoluteY, Indirect:
		return 3
	}
	return 2
}

// Lookup returns the instruction for an opcode
func Lookup(opcode uint8) *Instruction {
	return &instructions[opcode]
}

var instructions [256]Instruction

type modes map[uint8]AddressingMode

func define(name string, ops modes, in Instruction) {
	in.Unofficial = strings.HasPrefix(name, "*")
	in.Name = strings.TrimPrefix(name, "*")
	for code, mode := range ops {
		in.Mode = mode
		instructions[code] = in
	}
}

func reads(name string, fn func(*CPU, uint8), ops modes) {
	define(name, ops, Instruction{kind: kindRead, read: fn})
}

func writes(name string, fn func(*CPU) uint8, ops modes) {
	define(name, ops, Instruction{kind: kindWrite, write: fn})
}

func modifies(name string, fn func(*CPU, uint8) uint8, ops modes) {
	define(name, ops, Instruction{kind: kindModify, modify: fn})
}

func implied(name string, fn func(*CPU), codes ...uint8) {
	for _, code := range codes {
		define(name, modes{code: Implied}, Instruction{implied: fn})
	}
}

func accumulator(name string, code uint8, fn func(*CPU, uint8) uint8) {
	define(name, modes{code: Accumulator}, Instruction{implied: func(cpu *CPU) {
		cpu.A = fn(cpu, cpu.A)
	}})
}

func branch(name string, code uint8, cond func(*CPU) bool) {
	define(name, modes{code: Relative}, Instruction{branch: cond})
}

func special(name string, code uint8, mode AddressingMode, fn func(*CPU, Bus, uint8)) {
	define(name, modes{code: mode}, Instruction{special: fn})
}

// Operand layouts shared by the ALU groups
var (
	aluModes = modes{0x09: Immediate, 0x05: ZeroPage, 0x15: ZeroPageX, 0x0D: Absolute,
		0x1D: AbsoluteX, 0x19: AbsoluteY, 0x01: IndexedIndirect, 0x11: IndirectIndexed}
	rmwModes = modes{0x06: ZeroPage, 0x16: ZeroPageX, 0x0E: Absolute, 0x1E: AbsoluteX}
	comboModes = modes{0x07: ZeroPage, 0x17: ZeroPageX, 0x0F: Absolute, 0x1F: AbsoluteX,
		0x1B: AbsoluteY, 0x03: IndexedIndirect, 0x13: IndirectIndexed}
)

// column shifts a group layout to another column of the opcode matrix
func column(base modes, offset uint8) modes {
	out := modes{}
	for code, mode := range base {
		out[code+offset] = mode
	}
	return out
}

func init() {
	for i := range instructions {
		instructions[i] = Instruction{Name: "JAM", Mode: Implied, Unofficial: true, kind: kindJam}
	}

	// Loads and stores
	reads("LDA", (*CPU).lda, column(aluModes, 0xA0))
	reads("LDX", (*CPU).ldx, modes{0xA2: Immediate, 0xA6: ZeroPage, 0xB6: ZeroPageY, 0xAE: Absolute, 0xBE: AbsoluteY})
	reads("LDY", (*CPU).ldy, modes{0xA0: Immediate, 0xA4: ZeroPage, 0xB4: ZeroPageX, 0xAC: Absolute, 0xBC: AbsoluteX})
	sta := column(aluModes, 0x80)
	delete(sta, 0x89)
	writes("STA", func(cpu *CPU) uint8 { return cpu.A }, sta)
	writes("STX", func(cpu *CPU) uint8 { return cpu.X }, modes{0x86: ZeroPage, 0x96: ZeroPageY, 0x8E: Absolute})
	writes("STY", func(cpu *CPU) uint8 { return cpu.Y }, modes{0x84: ZeroPage, 0x94: ZeroPageX, 0x8C: Absolute})

	// Arithmetic and logic
	reads("ORA", (*CPU).ora, aluModes)
	reads("AND", (*CPU).and, column(aluModes, 0x20))
	reads("EOR", (*CPU).eor, column(aluModes, 0x40))
	reads("ADC", (*CPU).adc, column(aluModes, 0x60))
	reads("CMP", (*CPU).cmp, column(aluModes, 0xC0))
	reads("SBC", (*CPU).sbc, column(aluModes, 0xE0))
	reads("CPX", (*CPU).cpx, modes{0xE0: Immediate, 0xE4: ZeroPage, 0xEC: Absolute})
	reads("CPY", (*CPU).cpy, modes{0xC0: Immediate, 0xC4: ZeroPage, 0xCC: Absolute})
	reads("BIT", (*CPU).bit, modes{0x24: ZeroPage, 0x2C: Absolute})

	// Read-modify-write
	modifies("ASL", (*CPU).asl, rmwModes)
	modifies("ROL", (*CPU).rol, column(rmwModes, 0x20))
	modifies("LSR", (*CPU).lsr, column(rmwModes, 0x40))
	modifies("ROR", (*CPU).ror, column(rmwModes, 0x60))
	modifies("DEC", (*CPU).dec, column(rmwModes, 0xC0))
	modifies("INC", (*CPU).inc, column(rmwModes, 0xE0))
	accumulator("ASL", 0x0A, (*CPU).asl)
	accumulator("ROL", 0x2A, (*CPU).rol)
	accumulator("LSR", 0x4A, (*CPU).lsr)
	accumulator("ROR", 0x6A, (*CPU).ror)

	// Register operations
	implied("NOP", func(*CPU) {}, 0xEA)
	implied("CLC", func(cpu *CPU) { cpu.C = false }, 0x18)
	implied("SEC", func(cpu *CPU) { cpu.C = true }, 0x38)
	implied("CLI", func(cpu *CPU) { cpu.I = false }, 0x58)
	implied("SEI", func(cpu *CPU) { cpu.I = true }, 0x78)
	implied("CLV", func(cpu *CPU) { cpu.V = false }, 0xB8)
	implied("CLD", func(cpu *CPU) { cpu.D = false }, 0xD8)
	implied("SED", func(cpu *CPU) { cpu.D = true }, 0xF8)
	implied("TAX", func(cpu *CPU) { cpu.X = cpu.A; cpu.setZN(cpu.X) }, 0xAA)
	implied("TXA", func(cpu *CPU) { cpu.A = cpu.X; cpu.setZN(cpu.A) }, 0x8A)
	implied("TAY", func(cpu *CPU) { cpu.Y = cpu.A; cpu.setZN(cpu.Y) }, 0xA8)
	implied("TYA", func(cpu *CPU) { cpu.A = cpu.Y; cpu.setZN(cpu.A) }, 0x98)
	implied("TSX", func(cpu *CPU) { cpu.X = cpu.SP; cpu.setZN(cpu.X) }, 0xBA)
	implied("TXS", func(cpu *CPU) { cpu.SP = cpu.X }, 0x9A)
	implied("INX", func(cpu *CPU) { cpu.X++; cpu.setZN(cpu.X) }, 0xE8)
	implied("DEX", func(cpu *CPU) { cpu.X--; cpu.setZN(cpu.X) }, 0xCA)
	implied("INY", func(cpu *CPU) { cpu.Y++; cpu.setZN(cpu.Y) }, 0xC8)
	implied("DEY", func(cpu *CPU) { cpu.Y--; cpu.setZN(cpu.Y) }, 0x88)

	// Flow control
	define("BRK", modes{0x00: Implied}, Instruction{})
	special("JSR", 0x20, Absolute, jsr)
	special("RTI", 0x40, Implied, rti)
	special("RTS", 0x60, Implied, rts)
	special("PHP", 0x08, Implied, php)
	special("PLP", 0x28, Implied, plp)
	special("PHA", 0x48, Implied, pha)
	special("PLA", 0x68, Implied, pla)
	special("JMP", 0x4C, Absolute, jmpAbsolute)
	special("JMP", 0x6C, Indirect, jmpIndirect)
	branch("BPL", 0x10, func(cpu *CPU) bool { return !cpu.N })
	branch("BMI", 0x30, func(cpu *CPU) bool { return cpu.N })
	branch("BVC", 0x50, func(cpu *CPU) bool { return !cpu.V })
	branch("BVS", 0x70, func(cpu *CPU) bool { return cpu.V })
	branch("BCC", 0x90, func(cpu *CPU) bool { return !cpu.C })
	branch("BCS", 0xB0, func(cpu *CPU) bool { return cpu.C })
	branch("BNE", 0xD0, func(cpu *CPU) bool { return !cpu.Z })
	branch("BEQ", 0xF0, func(cpu *CPU) bool { return cpu.Z })

	// Unofficial opcodes
	implied("*NOP", func(*CPU) {}, 0x1A, 0x3A, 0x5A, 0x7A, 0xDA, 0xFA)
	reads("*NOP", func(*CPU, uint8) {}, modes{
		0x80: Immediate, 0x82: Immediate, 0x89: Immediate, 0xC2: Immediate, 0xE2: Immediate,
		0x04: ZeroPage, 0x44: ZeroPage, 0x64: ZeroPage,
		0x14: ZeroPageX, 0x34: ZeroPageX, 0x54: ZeroPageX, 0x74: ZeroPageX, 0xD4: ZeroPageX, 0xF4: ZeroPageX,
		0x0C: Absolute,
		0x1C: AbsoluteX, 0x3C: AbsoluteX, 0x5C: AbsoluteX, 0x7C: AbsoluteX, 0xDC: AbsoluteX, 0xFC: AbsoluteX,
	})
	reads("*SBC", (*CPU).sbc, modes{0xEB: Immediate})
	reads("*LAX", (*CPU).lax, modes{0xA7: ZeroPage, 0xB7: ZeroPageY, 0xAF: Absolute,
		0xBF: AbsoluteY, 0xA3: IndexedIndirect, 0xB3: IndirectIndexed})
	writes("*SAX", func(cpu *CPU) uint8 { return cpu.A & cpu.X },
		modes{0x87: ZeroPage, 0x97: ZeroPageY, 0x8F: Absolute, 0x83: IndexedIndirect})
	modifies("*SLO", (*CPU).slo, comboModes)
	modifies("*RLA", (*CPU).rla, column(comboModes, 0x20))
	modifies("*SRE", (*CPU).sre, column(comboModes, 0x40))
	modifies("*RRA", (*CPU).rra, column(comboModes, 0x60))
	modifies("*DCP", (*CPU).dcp, column(comboModes, 0xC0))
	modifies("*ISB", (*CPU).isb, column(comboModes, 0xE0))
	reads("*ANC", (*CPU).anc, modes{0x0B: Immediate, 0x2B: Immediate})
	reads("*ALR", (*CPU).alr, modes{0x4B: Immediate})
	reads("*ARR", (*CPU).arr, modes{0x6B: Immediate})
	reads("*SBX", (*CPU).sbx, modes{0xCB: Immediate})
	reads("*LAS", (*CPU).las, modes{0xBB: AbsoluteY})

	// The analog ones. Magic constant and high byte behaviour follow what
	// most consoles do.
	reads("*ANE", func(cpu *CPU, v uint8) { cpu.A = (cpu.A | 0xEE) & cpu.X & v; cpu.setZN(cpu.A) }, modes{0x8B: Immediate})
	reads("*LXA", func(cpu *CPU, v uint8) { cpu.A = (cpu.A | 0xEE) & v; cpu.X = cpu.A; cpu.setZN(cpu.A) }, modes{0xAB: Immediate})
	writes("*SHA", func(cpu *CPU) uint8 { return cpu.storeHigh(cpu.A & cpu.X) }, modes{0x9F: AbsoluteY, 0x93: IndirectIndexed})
	writes("*SHX", func(cpu *CPU) uint8 { return cpu.storeHigh(cpu.X) }, modes{0x9E: AbsoluteY})
	writes("*SHY", func(cpu *CPU) uint8 { return cpu.storeHigh(cpu.Y) }, modes{0x9C: AbsoluteX})
	writes("*TAS", func(cpu *CPU) uint8 { cpu.SP = cpu.A & cpu.X; return cpu.storeHigh(cpu.SP) }, modes{0x9B: AbsoluteY})
}

// setZN sets Zero and Negative flags based on value
func (cpu *CPU) setZN(value uint8) {
	cpu.Z = value == 0
	cpu.N = value&nFlagMask != 0
}

func (cpu *CPU) lda(v uint8) { cpu.A = v; cpu.setZN(v) }
func (cpu *CPU) ldx(v uint8) { cpu.X = v; cpu.setZN(v) }
func (cpu *CPU) ldy(v uint8) { cpu.Y = v; cpu.setZN(v) }
func (cpu *CPU) lax(v uint8) { cpu.A = v; cpu.X = v; cpu.setZN(v) }

func (cpu *CPU) ora(v uint8) { cpu.A |= v; cpu.setZN(cpu.A) }
func (cpu *CPU) and(v uint8) { cpu.A &= v; cpu.setZN(cpu.A) }
func (cpu *CPU) eor(v uint8) { cpu.A ^= v; cpu.setZN(cpu.A) }

// adc adds with carry. Decimal mode is not wired on the 2A03.
func (cpu *CPU) adc(value uint8) {
	carry := uint16(0)
	if cpu.C {
		carry = 1
	}
	result := uint16(cpu.A) + uint16(value) + carry

	// overflow occurs when the sign of the result differs from both inputs
	cpu.V = (cpu.A^uint8(result))&(value^uint8(result))&0x80 != 0
	cpu.C = result > 0xFF
	cpu.A = uint8(result)
	cpu.setZN(cpu.A)
}

func (cpu *CPU) sbc(value uint8) {
	cpu.adc(^value)
}

func (cpu *CPU) compare(register, value uint8) {
	cpu.C = register >= value
	cpu.setZN(register - value)
}

func (cpu *CPU) cmp(v uint8) { cpu.compare(cpu.A, v) }
func (cpu *CPU) cpx(v uint8) { cpu.compare(cpu.X, v) }
func (cpu *CPU) cpy(v uint8) { cpu.compare(cpu.Y, v) }

func (cpu *CPU) bit(value uint8) {
	cpu.Z = cpu.A&value == 0
	cpu.V = value&vFlagMask != 0
	cpu.N = value&nFlagMask != 0
}

func (cpu *CPU) asl(value uint8) uint8 {
	cpu.C = value&0x80 != 0
	value <<= 1
	cpu.setZN(value)
	return value
}

func (cpu *CPU) lsr(value uint8) uint8 {
	cpu.C = value&0x01 != 0
	value >>= 1
	cpu.setZN(value)
	return value
}

func (cpu *CPU) rol(value uint8) uint8 {
	oldCarry := cpu.C
	cpu.C = value&0x80 != 0
	value <<= 1
	if oldCarry {
		value |= 0x01
	}
	cpu.setZN(value)
	return value
}

func (cpu *CPU) ror(value uint8) uint8 {
	oldCarry := cpu.C
	cpu.C = value&0x01 != 0
	value >>= 1
	if oldCarry {
		value |= 0x80
	}
	cpu.setZN(value)
	return value
}

func (cpu *CPU) inc(v uint8) uint8 { v++; cpu.setZN(v); return v }
func (cpu *CPU) dec(v uint8) uint8 { v--; cpu.setZN(v); return v }

func (cpu *CPU) slo(v uint8) uint8 { v = cpu.asl(v); cpu.ora(v); return v }
func (cpu *CPU) rla(v uint8) uint8 { v = cpu.rol(v); cpu.and(v); return v }
func (cpu *CPU) sre(v uint8) uint8 { v = cpu.lsr(v); cpu.eor(v); return v }
func (cpu *CPU) rra(v uint8) uint8 { v = cpu.ror(v); cpu.adc(v); return v }
func (cpu *CPU) dcp(v uint8) uint8 { v--; cpu.cmp(v); return v }
func (cpu *CPU) isb(v uint8) uint8 { v++; cpu.sbc(v); return v }

func (cpu *CPU) anc(v uint8) {
	cpu.and(v)
	cpu.C = cpu.N
}

func (cpu *CPU) alr(v uint8) {
	cpu.A = cpu.lsr(cpu.A & v)
}

func (cpu *CPU) arr(v uint8) {
	cpu.A &= v
	cpu.A >>= 1
	if cpu.C {
		cpu.A |= 0x80
	}
	cpu.setZN(cpu.A)
	cpu.C = cpu.A&0x40 != 0
	cpu.V = (cpu.A>>6^cpu.A>>5)&1 != 0
}

func (cpu *CPU) sbx(v uint8) {
	ax := cpu.A & cpu.X
	cpu.C = ax >= v
	cpu.X = ax - v
	cpu.setZN(cpu.X)
}

func (cpu *CPU) las(v uint8) {
	v &= cpu.SP
	cpu.A, cpu.X, cpu.SP = v, v, v
	cpu.setZN(v)
}

// storeHigh ands a value with the high byte of the base address plus one.
// When indexing crossed a page the result also replaces the high byte of
// the target.
func (cpu *CPU) storeHigh(v uint8) uint8 {
	v &= uint8(cpu.Pointer>>8) + 1
	if cpu.Crossed {
		cpu.Address = uint16(v)<<8 | cpu.Address&0x00FF
	}
	return v
}
