package isa

import "testing"

func TestEncodeALURegAdd(t *testing.T) {
	w := EncodeALUReg(OpADD, 0, 1, 2)
	// 0001 000 001 0 010
	want := uint16(0x1042)
	if w != want {
		t.Fatalf("ADD r0,r1,r2: got 0x%04X, want 0x%04X", w, want)
	}
}

func TestEncodeALUImmRange(t *testing.T) {
	if _, ok := EncodeALUImm(OpADD, 0, 1, 15); !ok {
		t.Fatalf("imm5=15 should fit")
	}
	if _, ok := EncodeALUImm(OpADD, 0, 1, 16); ok {
		t.Fatalf("imm5=16 should not fit in signed 5 bits")
	}
	if _, ok := EncodeALUImm(OpADD, 0, 1, -16); !ok {
		t.Fatalf("imm5=-16 should fit")
	}
	if _, ok := EncodeALUImm(OpADD, 0, 1, -17); ok {
		t.Fatalf("imm5=-17 should not fit")
	}
}

func TestEncodeBRRange(t *testing.T) {
	if _, ok := EncodeBR(CCAL, 255); !ok {
		t.Fatalf("pcoffset9=255 should fit")
	}
	if _, ok := EncodeBR(CCAL, 256); ok {
		t.Fatalf("pcoffset9=256 should not fit in signed 9 bits")
	}
}

func TestEncodeBLRange(t *testing.T) {
	if _, ok := EncodeBL(1023); !ok {
		t.Fatalf("pcoffset11=1023 should fit")
	}
	if _, ok := EncodeBL(1024); ok {
		t.Fatalf("pcoffset11=1024 should not fit in signed 11 bits")
	}
}

func TestEncodeRET(t *testing.T) {
	w := EncodeRET()
	if Decode(w) != OpJMP {
		t.Fatalf("ret should decode as JMP opcode")
	}
	br := uint8((w >> 6) & 0x7)
	if br != LR {
		t.Fatalf("ret should target lr, got r%d", br)
	}
	if SignExtend(w&0x3F, 6) != 0 {
		t.Fatalf("ret should carry a zero offset")
	}
}

func TestEncodeMISCUnaryZeroesSR1(t *testing.T) {
	w := EncodeMISC(EopPush, 3, 5)
	sr1 := (w >> 6) & 0x7
	if sr1 != 0 {
		t.Fatalf("push should ignore sr1, got %d", sr1)
	}
}

func TestSignExtend(t *testing.T) {
	if got := SignExtend(0x1F, 5); got != -1 {
		t.Fatalf("sign-extend 0b11111/5 = -1, got %d", got)
	}
	if got := SignExtend(0x0F, 5); got != 15 {
		t.Fatalf("sign-extend 0b01111/5 = 15, got %d", got)
	}
}
