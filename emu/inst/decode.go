package inst

// Binary decoding of the standard RV32I R/I/S/B/U/J instruction formats
// (field layouts per the RISC-V unprivileged spec), grounded on the
// field-extraction-function idiom used by bassosimone-risc32's
// DecodeOpcode/DecodeRA/DecodeRB family: one small shift-and-mask
// function per field, composed by a dispatch switch on opcode+funct3
// (+funct7 where needed).

func bits(v uint32, hi, lo uint) uint32 {
	return (v >> lo) & ((1 << (hi - lo + 1)) - 1)
}

func signExtend32(v uint32, bit uint) int32 {
	shift := 31 - bit
	return int32(v<<shift) >> shift
}

func opcode(ci uint32) uint32  { return bits(ci, 6, 0) }
func rd(ci uint32) uint32      { return bits(ci, 11, 7) }
func funct3(ci uint32) uint32  { return bits(ci, 14, 12) }
func rs1(ci uint32) uint32     { return bits(ci, 19, 15) }
func rs2(ci uint32) uint32     { return bits(ci, 24, 20) }
func funct7(ci uint32) uint32  { return bits(ci, 31, 25) }

func immI(ci uint32) int32 {
	return signExtend32(bits(ci, 31, 20), 11)
}

func immS(ci uint32) int32 {
	v := bits(ci, 31, 25)<<5 | bits(ci, 11, 7)
	return signExtend32(v, 11)
}

func immB(ci uint32) int32 {
	v := bits(ci, 31, 31)<<12 | bits(ci, 7, 7)<<11 | bits(ci, 30, 25)<<5 | bits(ci, 11, 8)<<1
	return signExtend32(v, 12)
}

func immU(ci uint32) int32 {
	return int32(bits(ci, 31, 12) << 12)
}

func immJ(ci uint32) int32 {
	v := bits(ci, 31, 31)<<20 | bits(ci, 19, 12)<<12 | bits(ci, 20, 20)<<11 | bits(ci, 30, 21)<<1
	return signExtend32(v, 20)
}

const (
	opcodeLoad    = 0x03
	opcodeOpImm   = 0x13
	opcodeAUIPC   = 0x17
	opcodeStore   = 0x23
	opcodeOp      = 0x33
	opcodeLUI     = 0x37
	opcodeBranch  = 0x63
	opcodeJALR    = 0x67
	opcodeJAL     = 0x6F
	opcodeSystem  = 0x73
	opcodeMiscMem = 0x0F
)

// DecodeBinary decodes a 32-bit little-endian RISC-V instruction word
// into a Record with PC set to the instruction's originating address.
// It returns ok=false for an encoding outside the recognized RV32I +
// MRET set; the caller treats that as a structural ingress error, not
// a simulator fault.
func DecodeBinary(word, pc uint32) (Record, bool) {
	r := Record{PC: pc, Dest: RegNone, Src1: RegNone, Src2: RegNone}

	op := opcode(word)
	f3 := funct3(word)
	f7 := funct7(word)

	switch op {
	case opcodeOp:
		r.Dest = int(rd(word))
		r.Src1 = int(rs1(word))
		r.Src2 = int(rs2(word))
		switch {
		case f3 == 0x0 && f7 == 0x00:
			r.Op = OpADD
		case f3 == 0x0 && f7 == 0x20:
			r.Op = OpSUB
		case f3 == 0x1:
			r.Op = OpSLL
		case f3 == 0x2:
			r.Op = OpSLT
		case f3 == 0x3:
			r.Op = OpSLTU
		case f3 == 0x4:
			r.Op = OpXOR
		case f3 == 0x5 && f7 == 0x00:
			r.Op = OpSRL
		case f3 == 0x5 && f7 == 0x20:
			r.Op = OpSRA
		case f3 == 0x6:
			r.Op = OpOR
		case f3 == 0x7:
			r.Op = OpAND
		default:
			return Record{}, false
		}

	case opcodeOpImm:
		r.Dest = int(rd(word))
		r.Src1 = int(rs1(word))
		r.Imm = immI(word)
		switch f3 {
		case 0x0:
			r.Op = OpADDI
		case 0x2:
			r.Op = OpSLTI
		case 0x3:
			r.Op = OpSLTIU
		case 0x4:
			r.Op = OpXORI
		case 0x6:
			r.Op = OpORI
		case 0x7:
			r.Op = OpANDI
		case 0x1:
			r.Op = OpSLLI
			r.Imm = int32(bits(word, 24, 20))
		case 0x5:
			if f7 == 0x20 {
				r.Op = OpSRAI
			} else {
				r.Op = OpSRLI
			}
			r.Imm = int32(bits(word, 24, 20))
		default:
			return Record{}, false
		}

	case opcodeLUI:
		r.Op = OpLUI
		r.Dest = int(rd(word))
		r.Imm = immU(word)

	case opcodeAUIPC:
		r.Op = OpAUIPC
		r.Dest = int(rd(word))
		r.Imm = immU(word)

	case opcodeJAL:
		r.Op = OpJAL
		r.Dest = int(rd(word))
		r.Imm = immJ(word)
		r.Flags.IsJump = true

	case opcodeJALR:
		if f3 != 0x0 {
			return Record{}, false
		}
		r.Op = OpJALR
		r.Dest = int(rd(word))
		r.Src1 = int(rs1(word))
		r.Imm = immI(word)
		r.Flags.IsJump = true

	case opcodeBranch:
		r.Src1 = int(rs1(word))
		r.Src2 = int(rs2(word))
		r.Imm = immB(word)
		r.Flags.IsBranch = true
		switch f3 {
		case 0x0:
			r.Op, r.Pred = OpBEQ, PredEQ
		case 0x1:
			r.Op, r.Pred = OpBNE, PredNE
		case 0x4:
			r.Op, r.Pred = OpBLT, PredLT
		case 0x5:
			r.Op, r.Pred = OpBGE, PredGE
		case 0x6:
			r.Op, r.Pred = OpBLTU, PredLTU
		case 0x7:
			r.Op, r.Pred = OpBGEU, PredGEU
		default:
			return Record{}, false
		}

	case opcodeLoad:
		r.Dest = int(rd(word))
		r.Src1 = int(rs1(word))
		r.Imm = immI(word)
		r.Flags.IsLoad = true
		switch f3 {
		case 0x0:
			r.Op = OpLB
		case 0x1:
			r.Op = OpLH
		case 0x2:
			r.Op = OpLW
		case 0x4:
			r.Op = OpLBU
		case 0x5:
			r.Op = OpLHU
		default:
			return Record{}, false
		}

	case opcodeStore:
		r.Src1 = int(rs1(word))
		r.Src2 = int(rs2(word))
		r.Imm = immS(word)
		r.Flags.IsStore = true
		switch f3 {
		case 0x0:
			r.Op = OpSB
		case 0x1:
			r.Op = OpSH
		case 0x2:
			r.Op = OpSW
		default:
			return Record{}, false
		}

	case opcodeMiscMem:
		switch f3 {
		case 0x0:
			r.Op = OpFENCE
		case 0x1:
			r.Op = OpFENCEI
		default:
			return Record{}, false
		}

	case opcodeSystem:
		imm := bits(word, 31, 20)
		switch f3 {
		case 0x0:
			switch imm {
			case 0x000:
				r.Op = OpECALL
			case 0x001:
				r.Op = OpEBREAK
			case 0x302:
				r.Op = OpMRET
			default:
				return Record{}, false
			}
			r.Flags.IsSystem = true
		case 0x1, 0x2, 0x3, 0x5, 0x6, 0x7:
			r.Dest = int(rd(word))
			r.Flags.IsCSR = true
			r.Imm = int32(imm)
			switch f3 {
			case 0x1:
				r.Op, r.Src1 = OpCSRRW, int(rs1(word))
			case 0x2:
				r.Op, r.Src1 = OpCSRRS, int(rs1(word))
			case 0x3:
				r.Op, r.Src1 = OpCSRRC, int(rs1(word))
			case 0x5:
				r.Op = OpCSRRWI
				r.Zimm = rs1(word)
			case 0x6:
				r.Op = OpCSRRSI
				r.Zimm = rs1(word)
			case 0x7:
				r.Op = OpCSRRCI
				r.Zimm = rs1(word)
			}
		default:
			return Record{}, false
		}

	default:
		return Record{}, false
	}

	return r, true
}
