package vm

import (
	"github.com/xyproto/lcc/internal/asmerr"
	"github.com/xyproto/lcc/internal/isa"
)

// execute decodes and runs one instruction word (§4.3 field layouts
// mirrored from internal/isa's Encode* functions, §4.6 steps 2-7).
func (m *Machine) execute(ir uint16) error {
	switch isa.Decode(ir) {
	case isa.OpBR:
		return m.execBR(ir)
	case isa.OpADD:
		return m.execALU(ir, isa.OpADD)
	case isa.OpAND:
		return m.execALU(ir, isa.OpAND)
	case isa.OpSUB:
		return m.execALU(ir, isa.OpSUB)
	case isa.OpLD:
		return m.execLD(ir)
	case isa.OpST:
		return m.execST(ir)
	case isa.OpBL:
		return m.execBL(ir)
	case isa.OpLDR:
		return m.execLDR(ir)
	case isa.OpSTR:
		return m.execSTR(ir)
	case isa.OpCMP:
		return m.execCMP(ir)
	case isa.OpNOT:
		return m.execNOT(ir)
	case isa.OpMISC:
		return m.execMISC(ir)
	case isa.OpJMP:
		return m.execJMP(ir)
	case isa.OpMVI:
		return m.execMVI(ir)
	case isa.OpLEA:
		return m.execLEA(ir)
	case isa.OpTRAP:
		return m.execTRAP(ir)
	default:
		return asmerr.AtAddress(asmerr.Runtime, int(m.PC), "unreachable opcode decode")
	}
}

// execBR evaluates `br{cc} LABEL` against the current flags (§4.6
// step 4).
func (m *Machine) execBR(ir uint16) error {
	cc := isa.CC((ir >> 9) & 0x7)
	off := isa.SignExtend(ir&0x1FF, 9)
	if m.condTaken(cc) {
		m.PC = uint16(int32(m.PC)+int32(off)) & 0xFFFF
	}
	return nil
}

func (m *Machine) condTaken(cc isa.CC) bool {
	f := m.Flags
	switch cc {
	case isa.CCZ:
		return f.Z
	case isa.CCNZ:
		return !f.Z
	case isa.CCN:
		return f.N
	case isa.CCP:
		return !f.N && !f.Z
	case isa.CCLT:
		return f.N != f.V
	case isa.CCGT:
		return !f.Z && f.N == f.V
	case isa.CCC:
		return f.C
	case isa.CCAL:
		return true
	default:
		return false
	}
}

// execALU covers add/and/sub, mirroring isa.EncodeALUReg/EncodeALUImm's
// DR(3)|SR1(3)|mode(1)|{SR2 or sext(imm5)} layout.
func (m *Machine) execALU(ir uint16, op isa.Op) error {
	dr := (ir >> 9) & 0x7
	sr1 := (ir >> 6) & 0x7
	mode := (ir >> 5) & 0x1

	a := m.Regs[sr1]
	var b uint16
	if mode == 1 {
		b = uint16(isa.SignExtend(ir&0x1F, 5))
	} else {
		b = m.Regs[ir&0x7]
	}

	var result uint16
	carry, overflow := false, false
	switch op {
	case isa.OpADD:
		sum := uint32(a) + uint32(b)
		result = uint16(sum)
		carry = sum>>16 != 0
		sa, sb := int32(int16(a)), int32(int16(b))
		signedSum := sa + sb
		overflow = signedSum < -32768 || signedSum > 32767
	case isa.OpSUB:
		diff := uint32(a) - uint32(b)
		result = uint16(diff)
		carry = a >= b
		sa, sb := int32(int16(a)), int32(int16(b))
		signedDiff := sa - sb
		overflow = signedDiff < -32768 || signedDiff > 32767
	case isa.OpAND:
		result = a & b
	}

	m.Regs[dr] = result
	m.setNZ(result)
	if op != isa.OpAND {
		m.Flags.C = carry
		m.Flags.V = overflow
	}
	return nil
}

func (m *Machine) execLD(ir uint16) error {
	dr := (ir >> 9) & 0x7
	off := isa.SignExtend(ir&0x1FF, 9)
	addr := uint16(int32(m.PC)+int32(off)) & 0xFFFF
	m.Regs[dr] = m.Mem[addr]
	m.setNZ(m.Regs[dr])
	return nil
}

func (m *Machine) execST(ir uint16) error {
	sr := (ir >> 9) & 0x7
	off := isa.SignExtend(ir&0x1FF, 9)
	addr := uint16(int32(m.PC)+int32(off)) & 0xFFFF
	m.Mem[addr] = m.Regs[sr]
	return nil
}

// execBL covers both `bl LABEL` (bit11=1) and `blr/jsrr` (bit11=0),
// per §4.3's shared opcode-4 layout.
func (m *Machine) execBL(ir uint16) error {
	m.Regs[isa.LR] = m.PC
	if ir&0x0800 != 0 {
		off := isa.SignExtend(ir&0x7FF, 11)
		m.PC = uint16(int32(m.PC)+int32(off)) & 0xFFFF
		return nil
	}
	br := (ir >> 6) & 0x7
	off := isa.SignExtend(ir&0x3F, 6)
	m.PC = uint16(int32(m.Regs[br])+int32(off)) & 0xFFFF
	return nil
}

func (m *Machine) execLDR(ir uint16) error {
	dr := (ir >> 9) & 0x7
	br := (ir >> 6) & 0x7
	off := isa.SignExtend(ir&0x3F, 6)
	addr := uint16(int32(m.Regs[br])+int32(off)) & 0xFFFF
	m.Regs[dr] = m.Mem[addr]
	m.setNZ(m.Regs[dr])
	return nil
}

func (m *Machine) execSTR(ir uint16) error {
	sr := (ir >> 9) & 0x7
	br := (ir >> 6) & 0x7
	off := isa.SignExtend(ir&0x3F, 6)
	addr := uint16(int32(m.Regs[br])+int32(off)) & 0xFFFF
	m.Mem[addr] = m.Regs[sr]
	return nil
}

// execCMP mirrors isa.EncodeCMPReg/EncodeCMPImm's SR1(3)|mode(1)|{SR2
// or sext(imm5)} layout (no destination register).
func (m *Machine) execCMP(ir uint16) error {
	sr1 := (ir >> 6) & 0x7
	mode := (ir >> 5) & 0x1
	a := m.Regs[sr1]
	var b uint16
	if mode == 1 {
		b = uint16(isa.SignExtend(ir&0x1F, 5))
	} else {
		b = m.Regs[ir&0x7]
	}
	diff := uint32(a) - uint32(b)
	result := uint16(diff)
	m.setNZ(result)
	m.Flags.C = a >= b
	sa, sb := int32(int16(a)), int32(int16(b))
	signedDiff := sa - sb
	m.Flags.V = signedDiff < -32768 || signedDiff > 32767
	return nil
}

func (m *Machine) execNOT(ir uint16) error {
	dr := (ir >> 9) & 0x7
	sr := (ir >> 6) & 0x7
	m.Regs[dr] = ^m.Regs[sr]
	m.setNZ(m.Regs[dr])
	return nil
}

func (m *Machine) execJMP(ir uint16) error {
	br := (ir >> 6) & 0x7
	off := isa.SignExtend(ir&0x3F, 6)
	m.PC = uint16(int32(m.Regs[br])+int32(off)) & 0xFFFF
	return nil
}

func (m *Machine) execMVI(ir uint16) error {
	dr := (ir >> 9) & 0x7
	imm := isa.SignExtend(ir&0x1FF, 9)
	m.Regs[dr] = uint16(imm)
	m.setNZ(m.Regs[dr])
	return nil
}

func (m *Machine) execLEA(ir uint16) error {
	dr := (ir >> 9) & 0x7
	off := isa.SignExtend(ir&0x1FF, 9)
	m.Regs[dr] = uint16(int32(m.PC)+int32(off)) & 0xFFFF
	m.setNZ(m.Regs[dr])
	return nil
}

func (m *Machine) execTRAP(ir uint16) error {
	dr := uint8((ir >> 8) & 0x7)
	vec := uint8(ir & 0xFF)
	if m.Dispatcher == nil {
		return asmerr.AtAddress(asmerr.Runtime, int(m.PC), "trap vector 0x%02X: no trap dispatcher configured", vec)
	}
	if err := m.Dispatcher.Dispatch(m, vec, dr); err != nil {
		return err
	}
	if vec == isa.TrapHalt {
		m.Running = false
	}
	return nil
}

// execMISC dispatches the extended opcode field of a MISC (0xA)
// instruction, mirroring isa.EncodeMISC's SR_DR(3)|SR1(3)|eopcode(6)
// layout.
func (m *Machine) execMISC(ir uint16) error {
	drsr := (ir >> 9) & 0x7
	sr1 := (ir >> 6) & 0x7
	eop := isa.Eop(ir & 0x3F)

	switch eop {
	case isa.EopPush:
		m.Regs[isa.SP]--
		m.Mem[m.Regs[isa.SP]] = m.Regs[drsr]
		return nil
	case isa.EopPop:
		m.Regs[drsr] = m.Mem[m.Regs[isa.SP]]
		m.Regs[isa.SP]++
		m.setNZ(m.Regs[drsr])
		return nil
	}

	shift := m.Regs[sr1] & 0xF
	switch eop {
	case isa.EopSRL:
		m.Regs[drsr] = m.Regs[drsr] >> shift
	case isa.EopSRA:
		m.Regs[drsr] = uint16(int16(m.Regs[drsr]) >> shift)
	case isa.EopSLL:
		m.Regs[drsr] = m.Regs[drsr] << shift
	case isa.EopROL:
		v := m.Regs[drsr]
		s := shift % 16
		m.Regs[drsr] = v<<s | v>>(16-s)
	case isa.EopROR:
		v := m.Regs[drsr]
		s := shift % 16
		m.Regs[drsr] = v>>s | v<<(16-s)
	case isa.EopMUL:
		m.Regs[drsr] = m.Regs[drsr] * m.Regs[sr1]
	case isa.EopDIV:
		if m.Regs[sr1] == 0 {
			return asmerr.AtAddress(asmerr.Runtime, int(m.PC), "Floating point exception")
		}
		m.Regs[drsr] = uint16(int16(m.Regs[drsr]) / int16(m.Regs[sr1]))
	case isa.EopREM:
		if m.Regs[sr1] == 0 {
			return asmerr.AtAddress(asmerr.Runtime, int(m.PC), "Floating point exception")
		}
		m.Regs[drsr] = uint16(int16(m.Regs[drsr]) % int16(m.Regs[sr1]))
	case isa.EopOR:
		m.Regs[drsr] |= m.Regs[sr1]
	case isa.EopXOR:
		m.Regs[drsr] ^= m.Regs[sr1]
	case isa.EopMVR:
		m.Regs[drsr] = m.Regs[sr1]
	case isa.EopSEXT:
		m.Regs[drsr] = uint16(int16(int8(m.Regs[sr1] & 0xFF)))
	default:
		return asmerr.AtAddress(asmerr.Runtime, int(m.PC), "invalid extended opcode 0x%02X", eop)
	}
	m.setNZ(m.Regs[drsr])
	return nil
}
