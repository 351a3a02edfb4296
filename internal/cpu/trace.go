package cpu

import (
	"fmt"
	"io"
	"strings"
)

// State is a snapshot of the programmer visible registers
type State struct {
	PC     uint16
	A      uint8
	X      uint8
	Y      uint8
	P      uint8
	SP     uint8
	Cycles uint64
}

func (s State) String() string {
	return fmt.Sprintf("PC:%04X A:%02X X:%02X Y:%02X P:%02X SP:%02X CYC:%d",
		s.PC, s.A, s.X, s.Y, s.P, s.SP, s.Cycles)
}

// State returns the registers. Between instructions (see AtBoundary) this
// is the architectural state; mid-instruction PC may already point past
// operand bytes.
func (cpu *CPU) State() State {
	return State{
		PC:     cpu.PC,
		A:      cpu.A,
		X:      cpu.X,
		Y:      cpu.Y,
		P:      cpu.GetStatusByte(),
		SP:     cpu.SP,
		Cycles: cpu.Cycles,
	}
}

// Disassemble formats the instruction at pc. ok is false when the bus
// could not supply every byte.
func Disassemble(d Dumper, pc uint16) (bytes string, asm string, ok bool) {
	opcode, ok := d.MemoryDump(pc)
	if !ok {
		return "", "???", false
	}
	in := Lookup(opcode)
	raw := []uint8{opcode}
	for i := 1; i < in.Bytes(); i++ {
		v, vok := d.MemoryDump(pc + uint16(i))
		ok = ok && vok
		raw = append(raw, v)
	}

	hex := make([]string, len(raw))
	for i, v := range raw {
		hex[i] = fmt.Sprintf("%02X", v)
	}
	bytes = strings.Join(hex, " ")

	var operand uint16
	if len(raw) > 1 {
		operand = uint16(raw[1])
	}
	if len(raw) > 2 {
		operand |= uint16(raw[2]) << 8
	}

	var arg string
	switch in.Mode {
	case Accumulator:
		arg = "A"
	case Immediate:
		arg = fmt.Sprintf("#$%02X", operand)
	case ZeroPage:
		arg = fmt.Sprintf("$%02X", operand)
	case ZeroPageX:
		arg = fmt.Sprintf("$%02X,X", operand)
	case ZeroPageY:
		arg = fmt.Sprintf("$%02X,Y", operand)
	case Relative:
		arg = fmt.Sprintf("$%04X", pc+2+uint16(int8(operand)))
	case Absolute:
		arg = fmt.Sprintf("$%04X", operand)
	case AbsoluteX:
		arg = fmt.Sprintf("$%04X,X", operand)
	case AbsoluteY:
		arg = fmt.Sprintf("$%04X,Y", operand)
	case Indirect:
		arg = fmt.Sprintf("($%04X)", operand)
	case IndexedIndirect:
		arg = fmt.Sprintf("($%02X,X)", operand)
	case IndirectIndexed:
		arg = fmt.Sprintf("($%02X),Y", operand)
	}

	asm = in.Name
	if arg != "" {
		asm += " " + arg
	}
	return bytes, asm, ok
}

// traceInstruction writes a nestest style line for the instruction whose
// opcode was just fetched from pc. Registers still hold their values from
// before the instruction.
func (cpu *CPU) traceInstruction(w io.Writer, bus Bus, pc uint16) {
	bytes := fmt.Sprintf("%02X", cpu.Opcode)
	asm := instructions[cpu.Opcode].Name
	if d, ok := bus.(Dumper); ok {
		bytes, asm, _ = Disassemble(d, pc)
	}
	mark := ' '
	if instructions[cpu.Opcode].Unofficial {
		mark = '*'
	}
	fmt.Fprintf(w, "%04X  %-8s %c%-31s A:%02X X:%02X Y:%02X P:%02X SP:%02X CYC:%d\n",
		pc, bytes, mark, asm, cpu.A, cpu.X, cpu.Y, cpu.GetStatusByte(), cpu.SP, cpu.Cycles)
}
