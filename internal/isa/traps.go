package isa

// Trap vectors, §4.7.
const (
	TrapHalt  uint8 = 0x00
	TrapNL    uint8 = 0x01
	TrapDOUT  uint8 = 0x02
	TrapUDOUT uint8 = 0x03
	TrapHOUT  uint8 = 0x04
	TrapAOUT  uint8 = 0x05
	TrapSOUT  uint8 = 0x06
	TrapDIN   uint8 = 0x07
	TrapHIN   uint8 = 0x08
	TrapAIN   uint8 = 0x09
	TrapSIN   uint8 = 0x0A
	TrapM     uint8 = 0x0B
	TrapR     uint8 = 0x0C
	TrapS     uint8 = 0x0D
	TrapBP    uint8 = 0x0E
)

// LCC+ trap vectors (§9), handled only by the extended dispatcher.
const (
	TrapCls       uint8 = 0x0F
	TrapSleep     uint8 = 0x10
	TrapNBAin     uint8 = 0x11
	TrapCursor    uint8 = 0x12
	TrapSeed      uint8 = 0x13
	TrapMillis    uint8 = 0x14
	TrapResetCurs uint8 = 0x15
)

// TrapName maps a vector to its mnemonic name, used by listings and the
// disassembler.
var TrapName = map[uint8]string{
	TrapHalt: "halt", TrapNL: "nl", TrapDOUT: "dout", TrapUDOUT: "udout",
	TrapHOUT: "hout", TrapAOUT: "aout", TrapSOUT: "sout", TrapDIN: "din",
	TrapHIN: "hin", TrapAIN: "ain", TrapSIN: "sin", TrapM: "m",
	TrapR: "r", TrapS: "s", TrapBP: "bp",
	TrapCls: "cls", TrapSleep: "sleep", TrapNBAin: "nbain",
	TrapCursor: "cursor", TrapSeed: "seed", TrapMillis: "millis",
	TrapResetCurs: "resetcurs",
}

// trapMnemonicVec maps a named-trap pseudo-mnemonic (§8 demoA: "dout
// r0; nl; halt") to its vector. HasOperand is false for the traps that
// take no register (halt, nl). The dump traps (m, r, s) and bp have no
// pseudo-mnemonic here and are reached only through `trap DR, vec8`.
var trapMnemonicVec = map[string]uint8{
	"halt": TrapHalt, "nl": TrapNL, "dout": TrapDOUT, "udout": TrapUDOUT,
	"hout": TrapHOUT, "aout": TrapAOUT, "sout": TrapSOUT, "din": TrapDIN,
	"hin": TrapHIN, "ain": TrapAIN, "sin": TrapSIN,
}

// trapMnemonicHasOperand lists which named-trap mnemonics take a
// register operand.
var trapMnemonicHasOperand = map[string]bool{
	"dout": true, "udout": true, "hout": true, "aout": true, "sout": true,
	"din": true, "hin": true, "ain": true, "sin": true,
}

// LookupTrapMnemonic resolves a named-trap pseudo-mnemonic to its
// vector and whether it expects a register operand.
func LookupTrapMnemonic(name string) (vec uint8, hasOperand, ok bool) {
	v, found := trapMnemonicVec[name]
	return v, trapMnemonicHasOperand[name], found
}
