package cpu

// Cycles spent computing the effective address, per addressing mode. The
// last of them for the indexed modes is the read of the possibly wrong
// address before the high byte is fixed up.
var addressCycles = [...]uint8{
	Immediate:       0,
	ZeroPage:        1,
	ZeroPageX:       2,
	ZeroPageY:       2,
	Absolute:        2,
	AbsoluteX:       3,
	AbsoluteY:       3,
	IndexedIndirect: 4,
	IndirectIndexed: 4,
}

// execute runs cycle Step of the current instruction
func (cpu *CPU) execute(bus Bus) {
	t := cpu.Step
	cpu.Step++

	if cpu.Opcode == 0x00 {
		cpu.brk(bus, t)
		return
	}

	in := &instructions[cpu.Opcode]
	switch {
	case in.special != nil:
		in.special(cpu, bus, t)
	case in.branch != nil:
		cpu.branchCycle(bus, t, in.branch)
	case in.implied != nil:
		bus.Read(cpu.PC)
		in.implied(cpu)
		cpu.finish()
	case in.kind == kindJam:
		bus.Read(cpu.PC)
		cpu.Jammed = true
		cpu.Step = 0
	default:
		n := addressCycles[in.Mode]
		if t <= n {
			cpu.address(bus, t, in)
			return
		}
		cpu.access(bus, t-n, in)
	}
}

// address runs one effective address cycle
func (cpu *CPU) address(bus Bus, t uint8, in *Instruction) {
	switch in.Mode {
	case ZeroPage:
		cpu.Address = uint16(cpu.fetchOperand(bus))

	case ZeroPageX, ZeroPageY:
		switch t {
		case 1:
			cpu.Address = uint16(cpu.fetchOperand(bus))
		case 2:
			bus.Read(cpu.Address)
			cpu.Address = uint16(uint8(cpu.Address) + cpu.index(in.Mode))
		}

	case Absolute:
		switch t {
		case 1:
			cpu.Address = uint16(cpu.fetchOperand(bus))
		case 2:
			cpu.Address |= uint16(cpu.fetchOperand(bus)) << 8
		}

	case AbsoluteX, AbsoluteY:
		switch t {
		case 1:
			cpu.Address = uint16(cpu.fetchOperand(bus))
		case 2:
			cpu.Address |= uint16(cpu.fetchOperand(bus)) << 8
			cpu.indexAddress(cpu.index(in.Mode))
		case 3:
			cpu.fixup(bus, in)
		}

	case IndexedIndirect:
		switch t {
		case 1:
			cpu.Pointer = uint16(cpu.fetchOperand(bus))
		case 2:
			bus.Read(cpu.Pointer)
			cpu.Pointer = uint16(uint8(cpu.Pointer) + cpu.X)
		case 3:
			cpu.Address = uint16(bus.Read(cpu.Pointer))
		case 4:
			cpu.Address |= uint16(bus.Read(uint16(uint8(cpu.Pointer)+1))) << 8
		}

	case IndirectIndexed:
		switch t {
		case 1:
			cpu.Pointer = uint16(cpu.fetchOperand(bus))
		case 2:
			cpu.Address = uint16(bus.Read(cpu.Pointer))
		case 3:
			cpu.Address |= uint16(bus.Read(uint16(uint8(cpu.Pointer)+1))) << 8
			cpu.indexAddress(cpu.Y)
		case 4:
			cpu.fixup(bus, in)
		}
	}
}

func (cpu *CPU) index(mode AddressingMode) uint8 {
	if mode == ZeroPageY || mode == AbsoluteY {
		return cpu.Y
	}
	return cpu.X
}

// indexAddress adds an index to the base in Address, keeping the base in
// Pointer for the fixup cycle
func (cpu *CPU) indexAddress(i uint8) {
	cpu.Pointer = cpu.Address
	cpu.Address += uint16(i)
	cpu.Crossed = cpu.Pointer&0xFF00 != cpu.Address&0xFF00
}

// fixup reads the address formed before the carry reached the high byte.
// When no page was crossed a read instruction is already done.
func (cpu *CPU) fixup(bus Bus, in *Instruction) {
	v := bus.Read(cpu.Pointer&0xFF00 | cpu.Address&0x00FF)
	if in.kind == kindRead && !cpu.Crossed {
		in.read(cpu, v)
		cpu.finish()
	}
}

// access runs the data cycles once the address is known
func (cpu *CPU) access(bus Bus, n uint8, in *Instruction) {
	switch in.kind {
	case kindRead:
		if in.Mode == Immediate {
			cpu.Address = cpu.PC
			cpu.PC++
		}
		in.read(cpu, bus.Read(cpu.Address))
		cpu.finish()

	case kindWrite:
		v := in.write(cpu)
		bus.Write(cpu.Address, v)
		cpu.finish()

	case kindModify:
		switch n {
		case 1:
			cpu.Data = bus.Read(cpu.Address)
		case 2:
			// the unmodified value is written back first
			bus.Write(cpu.Address, cpu.Data)
			cpu.Data = in.modify(cpu, cpu.Data)
		case 3:
			bus.Write(cpu.Address, cpu.Data)
			cpu.finish()
		}
	}
}

// brk runs BRK and the hardware interrupt and reset sequences, which share
// the same seven cycles
func (cpu *CPU) brk(bus Bus, t uint8) {
	reset := cpu.Sequence == sequenceReset
	switch t {
	case 1:
		bus.Read(cpu.PC)
		if cpu.Sequence == sequenceNone {
			cpu.PC++
		}
	case 2:
		cpu.stackCycle(bus, uint8(cpu.PC>>8), reset)
	case 3:
		cpu.stackCycle(bus, uint8(cpu.PC), reset)
	case 4:
		p := cpu.GetStatusByte()
		if cpu.Sequence == sequenceNone {
			p |= bFlagMask
		}
		cpu.stackCycle(bus, p, reset)
		// an NMI arriving by now takes over the vector
		switch {
		case reset:
			cpu.Address = resetVector
		case cpu.NMIPending:
			cpu.NMIPending = false
			cpu.Address = nmiVector
		default:
			cpu.Address = irqVector
		}
	case 5:
		cpu.PC = uint16(bus.Read(cpu.Address))
		cpu.I = true
	case 6:
		cpu.PC |= uint16(bus.Read(cpu.Address+1)) << 8
		cpu.Sequence = sequenceNone
		cpu.Step = 0
		cpu.TakeInterrupt = false
	}
}

// stackCycle pushes a byte, or during reset performs the read the reset
// line turns it into
func (cpu *CPU) stackCycle(bus Bus, value uint8, reset bool) {
	if reset {
		cpu.peekStack(bus)
		cpu.SP--
		return
	}
	cpu.push(bus, value)
}

// branchCycle runs a relative branch. A taken branch that stays on its page
// does not sample interrupts on its last cycle.
func (cpu *CPU) branchCycle(bus Bus, t uint8, cond func(*CPU) bool) {
	switch t {
	case 1:
		offset := cpu.fetchOperand(bus)
		if !cond(cpu) {
			cpu.finish()
			return
		}
		cpu.Address = cpu.PC + uint16(int8(offset))
	case 2:
		bus.Read(cpu.PC)
		if cpu.Address&0xFF00 == cpu.PC&0xFF00 {
			cpu.PC = cpu.Address
			cpu.Poll = cpu.PrevPoll
			cpu.finish()
			return
		}
		cpu.PC = cpu.PC&0xFF00 | cpu.Address&0x00FF
	case 3:
		bus.Read(cpu.PC)
		cpu.PC = cpu.Address
		cpu.finish()
	}
}

func jsr(cpu *CPU, bus Bus, t uint8) {
	switch t {
	case 1:
		cpu.Address = uint16(cpu.fetchOperand(bus))
	case 2:
		cpu.peekStack(bus)
	case 3:
		cpu.push(bus, uint8(cpu.PC>>8))
	case 4:
		cpu.push(bus, uint8(cpu.PC))
	case 5:
		cpu.Address |= uint16(bus.Read(cpu.PC)) << 8
		cpu.PC = cpu.Address
		cpu.finish()
	}
}

func rts(cpu *CPU, bus Bus, t uint8) {
	switch t {
	case 1:
		bus.Read(cpu.PC)
	case 2:
		cpu.peekStack(bus)
	case 3:
		cpu.Address = uint16(cpu.pull(bus))
	case 4:
		cpu.Address |= uint16(cpu.pull(bus)) << 8
	case 5:
		bus.Read(cpu.Address)
		cpu.PC = cpu.Address + 1
		cpu.finish()
	}
}

func rti(cpu *CPU, bus Bus, t uint8) {
	switch t {
	case 1:
		bus.Read(cpu.PC)
	case 2:
		cpu.peekStack(bus)
	case 3:
		cpu.SetStatusByte(cpu.pull(bus))
	case 4:
		cpu.Address = uint16(cpu.pull(bus))
	case 5:
		cpu.Address |= uint16(cpu.pull(bus)) << 8
		cpu.PC = cpu.Address
		cpu.finish()
	}
}

func pha(cpu *CPU, bus Bus, t uint8) {
	switch t {
	case 1:
		bus.Read(cpu.PC)
	case 2:
		cpu.push(bus, cpu.A)
		cpu.finish()
	}
}

func php(cpu *CPU, bus Bus, t uint8) {
	switch t {
	case 1:
		bus.Read(cpu.PC)
	case 2:
		cpu.push(bus, cpu.GetStatusByte()|bFlagMask)
		cpu.finish()
	}
}

func pla(cpu *CPU, bus Bus, t uint8) {
	switch t {
	case 1:
		bus.Read(cpu.PC)
	case 2:
		cpu.peekStack(bus)
	case 3:
		cpu.A = cpu.pull(bus)
		cpu.setZN(cpu.A)
		cpu.finish()
	}
}

func plp(cpu *CPU, bus Bus, t uint8) {
	switch t {
	case 1:
		bus.Read(cpu.PC)
	case 2:
		cpu.peekStack(bus)
	case 3:
		cpu.SetStatusByte(cpu.pull(bus))
		cpu.finish()
	}
}

func jmpAbsolute(cpu *CPU, bus Bus, t uint8) {
	switch t {
	case 1:
		cpu.Address = uint16(cpu.fetchOperand(bus))
	case 2:
		cpu.Address |= uint16(cpu.fetchOperand(bus)) << 8
		cpu.PC = cpu.Address
		cpu.finish()
	}
}

// jmpIndirect keeps the 6502 bug of not carrying into the pointer's high
// byte
func jmpIndirect(cpu *CPU, bus Bus, t uint8) {
	switch t {
	case 1:
		cpu.Pointer = uint16(cpu.fetchOperand(bus))
	case 2:
		cpu.Pointer |= uint16(cpu.fetchOperand(bus)) << 8
	case 3:
		cpu.Address = uint16(bus.Read(cpu.Pointer))
	case 4:
		hi := cpu.Pointer&0xFF00 | uint16(uint8(cpu.Pointer)+1)
		cpu.Address |= uint16(bus.Read(hi)) << 8
		cpu.PC = cpu.Address
		cpu.finish()
	}
}
