package inst

import "testing"

func encodeR(opcode, f3, f7, rd, rs1, rs2 uint32) uint32 {
	return f7<<25 | rs2<<20 | rs1<<15 | f3<<12 | rd<<7 | opcode
}

func encodeI(opcode, f3, rd, rs1 uint32, imm int32) uint32 {
	return uint32(imm)<<20&0xfff00000 | rs1<<15 | f3<<12 | rd<<7 | opcode
}

func encodeS(f3, rs1, rs2 uint32, imm int32) uint32 {
	u := uint32(imm)
	return (u>>5)<<25 | rs2<<20 | rs1<<15 | f3<<12 | (u&0x1f)<<7 | opcodeStore
}

func encodeB(f3, rs1, rs2 uint32, imm int32) uint32 {
	u := uint32(imm)
	b12 := (u >> 12) & 1
	b11 := (u >> 11) & 1
	b10_5 := (u >> 5) & 0x3f
	b4_1 := (u >> 1) & 0xf
	return b12<<31 | b10_5<<25 | rs2<<20 | rs1<<15 | f3<<12 | b4_1<<8 | b11<<7 | opcodeBranch
}

func encodeU(opcode, rd uint32, imm int32) uint32 {
	return uint32(imm)&0xfffff000 | rd<<7 | opcode
}

func encodeJ(rd uint32, imm int32) uint32 {
	u := uint32(imm)
	b20 := (u >> 20) & 1
	b19_12 := (u >> 12) & 0xff
	b11 := (u >> 11) & 1
	b10_1 := (u >> 1) & 0x3ff
	return b20<<31 | b10_1<<21 | b11<<20 | b19_12<<12 | rd<<7 | opcodeJAL
}

func TestDecodeADD(t *testing.T) {
	word := encodeR(opcodeOp, 0x0, 0x00, 1, 2, 3)
	r, ok := DecodeBinary(word, 0x1000)
	if !ok || r.Op != OpADD || r.Dest != 1 || r.Src1 != 2 || r.Src2 != 3 {
		t.Fatalf("decode ADD: %+v ok=%v", r, ok)
	}
}

func TestDecodeSUBvsADD(t *testing.T) {
	word := encodeR(opcodeOp, 0x0, 0x20, 1, 2, 3)
	r, ok := DecodeBinary(word, 0)
	if !ok || r.Op != OpSUB {
		t.Fatalf("expected SUB got %+v ok=%v", r, ok)
	}
}

func TestDecodeADDI(t *testing.T) {
	word := encodeI(opcodeOpImm, 0x0, 5, 6, -1)
	r, ok := DecodeBinary(word, 0)
	if !ok || r.Op != OpADDI || r.Imm != -1 || r.Dest != 5 || r.Src1 != 6 {
		t.Fatalf("decode ADDI: %+v ok=%v", r, ok)
	}
}

func TestDecodeSRAIvsSRLI(t *testing.T) {
	sraiWord := uint32(0x20)<<25 | 3<<20 | 1<<15 | 0x5<<12 | 2<<7 | opcodeOpImm
	r, ok := DecodeBinary(sraiWord, 0)
	if !ok || r.Op != OpSRAI || r.Imm != 3 {
		t.Fatalf("decode SRAI: %+v ok=%v", r, ok)
	}
	srliWord := 3<<20 | uint32(1)<<15 | 0x5<<12 | 2<<7 | opcodeOpImm
	r2, ok := DecodeBinary(srliWord, 0)
	if !ok || r2.Op != OpSRLI {
		t.Fatalf("decode SRLI: %+v ok=%v", r2, ok)
	}
}

func TestDecodeLUIandAUIPC(t *testing.T) {
	lui := encodeU(opcodeLUI, 7, 0x12345000)
	r, ok := DecodeBinary(lui, 0)
	if !ok || r.Op != OpLUI || r.Dest != 7 || r.Imm != 0x12345000 {
		t.Fatalf("decode LUI: %+v ok=%v", r, ok)
	}
	auipc := encodeU(opcodeAUIPC, 8, 0x1000)
	r2, ok := DecodeBinary(auipc, 0x100)
	if !ok || r2.Op != OpAUIPC || r2.Dest != 8 {
		t.Fatalf("decode AUIPC: %+v ok=%v", r2, ok)
	}
}

func TestDecodeJAL(t *testing.T) {
	word := encodeJ(1, 16)
	r, ok := DecodeBinary(word, 0x1000)
	if !ok || r.Op != OpJAL || r.Dest != 1 || r.Imm != 16 || !r.Flags.IsJump {
		t.Fatalf("decode JAL: %+v ok=%v", r, ok)
	}
}

func TestDecodeJALR(t *testing.T) {
	word := encodeI(opcodeJALR, 0x0, 1, 2, 4)
	r, ok := DecodeBinary(word, 0)
	if !ok || r.Op != OpJALR || r.Dest != 1 || r.Src1 != 2 || r.Imm != 4 {
		t.Fatalf("decode JALR: %+v ok=%v", r, ok)
	}
}

func TestDecodeBEQNegativeOffset(t *testing.T) {
	word := encodeB(0x0, 1, 2, -8)
	r, ok := DecodeBinary(word, 0)
	if !ok || r.Op != OpBEQ || r.Pred != PredEQ || r.Imm != -8 {
		t.Fatalf("decode BEQ: %+v ok=%v", r, ok)
	}
}

func TestDecodeLoadsAndStores(t *testing.T) {
	lw := encodeI(opcodeLoad, 0x2, 3, 4, 12)
	r, ok := DecodeBinary(lw, 0)
	if !ok || r.Op != OpLW || !r.Flags.IsLoad || r.Imm != 12 {
		t.Fatalf("decode LW: %+v ok=%v", r, ok)
	}
	sw := encodeS(0x2, 4, 5, -4)
	r2, ok := DecodeBinary(sw, 0)
	if !ok || r2.Op != OpSW || !r2.Flags.IsStore || r2.Imm != -4 || r2.Src1 != 4 || r2.Src2 != 5 {
		t.Fatalf("decode SW: %+v ok=%v", r2, ok)
	}
}

func TestDecodeSystemOps(t *testing.T) {
	ecall := uint32(0x000)<<20 | opcodeSystem
	r, ok := DecodeBinary(ecall, 0)
	if !ok || r.Op != OpECALL {
		t.Fatalf("decode ECALL: %+v ok=%v", r, ok)
	}
	ebreak := uint32(0x001)<<20 | opcodeSystem
	r2, ok := DecodeBinary(ebreak, 0)
	if !ok || r2.Op != OpEBREAK {
		t.Fatalf("decode EBREAK: %+v ok=%v", r2, ok)
	}
	mret := uint32(0x302)<<20 | opcodeSystem
	r3, ok := DecodeBinary(mret, 0)
	if !ok || r3.Op != OpMRET {
		t.Fatalf("decode MRET: %+v ok=%v", r3, ok)
	}
}

func TestDecodeCSRRegisterForm(t *testing.T) {
	word := encodeI(opcodeSystem, 0x1, 5, 6, 0x300)
	r, ok := DecodeBinary(word, 0)
	if !ok || r.Op != OpCSRRW || !r.Flags.IsCSR || r.Imm != 0x300 || r.Dest != 5 || r.Src1 != 6 {
		t.Fatalf("decode CSRRW: %+v ok=%v", r, ok)
	}
}

func TestDecodeCSRImmediateForm(t *testing.T) {
	word := uint32(0x300)<<20 | 17<<15 | 0x5<<12 | 5<<7 | opcodeSystem
	r, ok := DecodeBinary(word, 0)
	if !ok || r.Op != OpCSRRWI || r.Zimm != 17 || r.Imm != 0x300 || r.Src1 != RegNone {
		t.Fatalf("decode CSRRWI: %+v ok=%v", r, ok)
	}
}

func TestDecodeUnrecognizedOpcodeRejected(t *testing.T) {
	_, ok := DecodeBinary(0x7F, 0)
	if ok {
		t.Error("expected unrecognized opcode to be rejected")
	}
}
