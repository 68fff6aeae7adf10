package isa

// This file packs each instruction shape from §4.3 into its 16-bit
// word. Every Encode* function returns ok=false when a field does not
// fit; callers (internal/assembler) are responsible for turning that
// into an asmerr.Error naming the offending label and slot width.

func word(op Op, low12 uint16) uint16 {
	return uint16(op)<<12 | (low12 & 0x0FFF)
}

// EncodeBR packs `br{cc} LABEL`: ccc(3) | pcoffset9(9).
func EncodeBR(cc CC, pcoffset9 int32) (uint16, bool) {
	off, ok := FitsSigned(pcoffset9, 9)
	if !ok {
		return 0, false
	}
	return word(OpBR, uint16(cc)<<9|off), true
}

// EncodeALUReg packs the register-operand form of add/and/sub:
// DR(3)|SR1(3)|0|SR2(3).
func EncodeALUReg(op Op, dr, sr1, sr2 uint8) uint16 {
	return word(op, uint16(dr&7)<<9|uint16(sr1&7)<<6|uint16(sr2&7))
}

// EncodeALUImm packs the immediate form of add/and/sub:
// DR(3)|SR1(3)|1|sext(imm5).
func EncodeALUImm(op Op, dr, sr1 uint8, imm5 int32) (uint16, bool) {
	imm, ok := FitsSigned(imm5, 5)
	if !ok {
		return 0, false
	}
	return word(op, uint16(dr&7)<<9|uint16(sr1&7)<<6|1<<5|imm), true
}

// EncodeLD packs `ld DR, LABEL`: DR(3)|pcoffset9(9).
func EncodeLD(dr uint8, pcoffset9 int32) (uint16, bool) {
	off, ok := FitsSigned(pcoffset9, 9)
	if !ok {
		return 0, false
	}
	return word(OpLD, uint16(dr&7)<<9|off), true
}

// EncodeST packs `st SR, LABEL`: SR(3)|pcoffset9(9).
func EncodeST(sr uint8, pcoffset9 int32) (uint16, bool) {
	off, ok := FitsSigned(pcoffset9, 9)
	if !ok {
		return 0, false
	}
	return word(OpST, uint16(sr&7)<<9|off), true
}

// EncodeBL packs `bl LABEL`: 1|pcoffset11(11).
func EncodeBL(pcoffset11 int32) (uint16, bool) {
	off, ok := FitsSigned(pcoffset11, 11)
	if !ok {
		return 0, false
	}
	return word(OpBL, 1<<11|off), true
}

// EncodeBLR packs `blr BR[,off6]` / `jsrr`: 0|BR(3)|offset6(6).
func EncodeBLR(br uint8, off6 int32) (uint16, bool) {
	off, ok := FitsSigned(off6, 6)
	if !ok {
		return 0, false
	}
	return word(OpBL, uint16(br&7)<<6|off), true
}

// EncodeLDR packs `ldr DR, BR, off6`: DR(3)|BR(3)|sext(off6).
func EncodeLDR(dr, br uint8, off6 int32) (uint16, bool) {
	off, ok := FitsSigned(off6, 6)
	if !ok {
		return 0, false
	}
	return word(OpLDR, uint16(dr&7)<<9|uint16(br&7)<<6|off), true
}

// EncodeSTR packs `str SR, BR, off6`: SR(3)|BR(3)|sext(off6).
func EncodeSTR(sr, br uint8, off6 int32) (uint16, bool) {
	off, ok := FitsSigned(off6, 6)
	if !ok {
		return 0, false
	}
	return word(OpSTR, uint16(sr&7)<<9|uint16(br&7)<<6|off), true
}

// EncodeCMPReg packs `cmp SR1, SR2`: 000|SR1(3)|0|SR2(3).
func EncodeCMPReg(sr1, sr2 uint8) uint16 {
	return word(OpCMP, uint16(sr1&7)<<6|uint16(sr2&7))
}

// EncodeCMPImm packs `cmp SR1, imm5`: 000|SR1(3)|1|sext(imm5).
func EncodeCMPImm(sr1 uint8, imm5 int32) (uint16, bool) {
	imm, ok := FitsSigned(imm5, 5)
	if !ok {
		return 0, false
	}
	return word(OpCMP, uint16(sr1&7)<<6|1<<5|imm), true
}

// EncodeNOT packs `not DR, SR`: DR(3)|SR(3)|111111.
func EncodeNOT(dr, sr uint8) uint16 {
	return word(OpNOT, uint16(dr&7)<<9|uint16(sr&7)<<6|0x3F)
}

// EncodeMISC packs any opcode-0xA instruction: SR_DR(3)|SR1(3)|eopcode(6).
// SR1 is ignored (encoded as 0) for unary eopcodes.
func EncodeMISC(eop Eop, drsr, sr1 uint8) uint16 {
	if UnaryEop(eop) {
		sr1 = 0
	}
	return word(OpMISC, uint16(drsr&7)<<9|uint16(sr1&7)<<6|uint16(eop&0x3F))
}

// EncodeJMP packs `jmp BR[,off6]` / `ret`: 000|BR(3)|sext(off6).
func EncodeJMP(br uint8, off6 int32) (uint16, bool) {
	off, ok := FitsSigned(off6, 6)
	if !ok {
		return 0, false
	}
	return word(OpJMP, uint16(br&7)<<6|off), true
}

// EncodeRET packs `ret`, the BR=lr, off6=0 special case of jmp.
func EncodeRET() uint16 {
	w, _ := EncodeJMP(LR, 0)
	return w
}

// EncodeMVI packs `mvi DR, imm9`: DR(3)|sext(imm9).
func EncodeMVI(dr uint8, imm9 int32) (uint16, bool) {
	imm, ok := FitsSigned(imm9, 9)
	if !ok {
		return 0, false
	}
	return word(OpMVI, uint16(dr&7)<<9|imm), true
}

// EncodeLEA packs `lea DR, LABEL`: DR(3)|pcoffset9(9).
func EncodeLEA(dr uint8, pcoffset9 int32) (uint16, bool) {
	off, ok := FitsSigned(pcoffset9, 9)
	if !ok {
		return 0, false
	}
	return word(OpLEA, uint16(dr&7)<<9|off), true
}

// EncodeTRAP packs `trap DR, vec8`: DR(3)|trapvec8(8).
func EncodeTRAP(dr uint8, vec8 uint8) uint16 {
	return word(OpTRAP, uint16(dr&7)<<8|uint16(vec8))
}
