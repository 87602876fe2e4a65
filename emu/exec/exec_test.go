package exec

import (
	"testing"

	"github.com/rv32pipe/rv32pipe/emu/inst"
)

func regs(vals map[int]uint32) func(int) uint32 {
	return func(idx int) uint32 {
		if idx == 0 {
			return 0
		}
		return vals[idx]
	}
}

func TestADD(t *testing.T) {
	r := inst.Record{Op: inst.OpADD, Src1: 1, Src2: 2, Dest: 3}
	out := Execute(r, regs(map[int]uint32{1: 5, 2: 7}))
	if out.Result.Kind != inst.ResultArithmetic || out.Result.Value != 12 {
		t.Fatalf("got %+v", out.Result)
	}
}

func TestSUBWraps(t *testing.T) {
	r := inst.Record{Op: inst.OpSUB, Src1: 1, Src2: 2}
	out := Execute(r, regs(map[int]uint32{1: 0, 2: 1}))
	if out.Result.Value != 0xffffffff {
		t.Errorf("got %#x expected %#x", out.Result.Value, 0xffffffff)
	}
}

func TestSRAPreservesSign(t *testing.T) {
	r := inst.Record{Op: inst.OpSRA, Src1: 1, Src2: 2}
	out := Execute(r, regs(map[int]uint32{1: 0x80000000, 2: 4}))
	if out.Result.Value != 0xF8000000 {
		t.Errorf("got %#x expected %#x", out.Result.Value, 0xF8000000)
	}
}

func TestSRLDoesNotPreserveSign(t *testing.T) {
	r := inst.Record{Op: inst.OpSRL, Src1: 1, Src2: 2}
	out := Execute(r, regs(map[int]uint32{1: 0x80000000, 2: 4}))
	if out.Result.Value != 0x08000000 {
		t.Errorf("got %#x expected %#x", out.Result.Value, 0x08000000)
	}
}

func TestSLTSignedVsSLTUUnsigned(t *testing.T) {
	vals := map[int]uint32{1: 0xffffffff, 2: 1} // -1 vs 1
	slt := Execute(inst.Record{Op: inst.OpSLT, Src1: 1, Src2: 2}, regs(vals))
	if slt.Result.Value != 1 {
		t.Errorf("SLT(-1,1) got %d expected 1", slt.Result.Value)
	}
	sltu := Execute(inst.Record{Op: inst.OpSLTU, Src1: 1, Src2: 2}, regs(vals))
	if sltu.Result.Value != 0 {
		t.Errorf("SLTU(0xffffffff,1) got %d expected 0", sltu.Result.Value)
	}
}

func TestLUI(t *testing.T) {
	r := inst.Record{Op: inst.OpLUI, Imm: 0x12345000}
	out := Execute(r, regs(nil))
	if out.Result.Value != 0x12345000 {
		t.Errorf("got %#x", out.Result.Value)
	}
}

func TestAUIPCUsesProducingPC(t *testing.T) {
	r := inst.Record{Op: inst.OpAUIPC, PC: 0x1000, Imm: 0x2000}
	out := Execute(r, regs(nil))
	if out.Result.Value != 0x3000 {
		t.Errorf("got %#x expected %#x", out.Result.Value, 0x3000)
	}
}

func TestLoadDescriptor(t *testing.T) {
	r := inst.Record{Op: inst.OpLB, Src1: 1, Imm: 4}
	out := Execute(r, regs(map[int]uint32{1: 0x100}))
	if out.Result.Kind != inst.ResultLoad || out.Result.Addr != 0x104 || out.Result.Width != 1 || !out.Result.Signed {
		t.Fatalf("got %+v", out.Result)
	}
}

// Execute computes only the store's effective address; the data
// operand (Src2) is read later, in the Memory stage, not here.
func TestStoreDescriptor(t *testing.T) {
	r := inst.Record{Op: inst.OpSW, Src1: 1, Src2: 2, Imm: -4}
	out := Execute(r, regs(map[int]uint32{1: 0x100, 2: 0xdeadbeef}))
	if out.Result.Kind != inst.ResultStore || out.Result.Addr != 0xFC || out.Result.Width != 4 {
		t.Fatalf("got %+v", out.Result)
	}
}

func TestBranchTaken(t *testing.T) {
	r := inst.Record{Op: inst.OpBEQ, Pred: inst.PredEQ, Src1: 1, Src2: 2, PC: 0x100, Imm: 8}
	out := Execute(r, regs(map[int]uint32{1: 5, 2: 5}))
	if !out.Result.BranchTaken || out.Result.Target != 0x108 {
		t.Fatalf("got %+v", out.Result)
	}
}

func TestBranchNotTaken(t *testing.T) {
	r := inst.Record{Op: inst.OpBLT, Pred: inst.PredLT, Src1: 1, Src2: 2}
	out := Execute(r, regs(map[int]uint32{1: 5, 2: 2}))
	if out.Result.BranchTaken {
		t.Error("expected branch not taken")
	}
}

func TestJALLinkAndTarget(t *testing.T) {
	r := inst.Record{Op: inst.OpJAL, PC: 0x1000, Imm: 16}
	out := Execute(r, regs(nil))
	if out.Result.Target != 0x1010 || out.Result.LinkValue != 0x1004 {
		t.Fatalf("got %+v", out.Result)
	}
}

func TestJALRMasksBit0(t *testing.T) {
	r := inst.Record{Op: inst.OpJALR, Src1: 1, Imm: 3, PC: 0x2000}
	out := Execute(r, regs(map[int]uint32{1: 0x100}))
	if out.Result.Target != 0x102 {
		t.Errorf("got %#x expected %#x", out.Result.Target, 0x102)
	}
	if out.Result.LinkValue != 0x2004 {
		t.Errorf("link got %#x expected %#x", out.Result.LinkValue, 0x2004)
	}
}

func TestECALLAndEBREAKDescriptors(t *testing.T) {
	e := Execute(inst.Record{Op: inst.OpECALL}, regs(nil))
	if e.Result.Kind != inst.ResultTrap || e.Result.Cause != CauseEcallM {
		t.Fatalf("ECALL got %+v", e.Result)
	}
	b := Execute(inst.Record{Op: inst.OpEBREAK}, regs(nil))
	if b.Result.Kind != inst.ResultTrap || b.Result.Cause != CauseBreakpoint {
		t.Fatalf("EBREAK got %+v", b.Result)
	}
}

func TestMRETSentinel(t *testing.T) {
	m := Execute(inst.Record{Op: inst.OpMRET}, regs(nil))
	if !IsMret(m.Result) {
		t.Fatal("expected MRET sentinel")
	}
}

func TestCSRRWAlwaysWritesEvenFromR0(t *testing.T) {
	r := inst.Record{Op: inst.OpCSRRW, Src1: 0, Imm: 0x300}
	out := Execute(r, regs(nil))
	if out.Result.Suppress {
		t.Error("CSRRW must never suppress the write, even from R0")
	}
}

func TestCSRRSFromR0Suppresses(t *testing.T) {
	r := inst.Record{Op: inst.OpCSRRS, Src1: 0, Imm: 0x300}
	out := Execute(r, regs(nil))
	if !out.Result.Suppress {
		t.Error("CSRRS with source R0 should suppress the write")
	}
}

func TestCSRRCIZeroImmSuppresses(t *testing.T) {
	r := inst.Record{Op: inst.OpCSRRCI, Zimm: 0, Imm: 0x300}
	out := Execute(r, regs(nil))
	if !out.Result.Suppress {
		t.Error("CSRRCI with zimm=0 should suppress the write")
	}
}

func TestCSRRWIZeroImmStillWrites(t *testing.T) {
	r := inst.Record{Op: inst.OpCSRRWI, Zimm: 0, Imm: 0x300}
	out := Execute(r, regs(nil))
	if out.Result.Suppress {
		t.Error("CSRRWI must never suppress, even with zimm=0")
	}
}

func TestFenceIsNoop(t *testing.T) {
	out := Execute(inst.Record{Op: inst.OpFENCE}, regs(nil))
	if out.Result.Kind != inst.ResultNone {
		t.Errorf("expected ResultNone got %+v", out.Result)
	}
}

func TestBubblePassesThroughUnmodified(t *testing.T) {
	b := inst.Bubble()
	out := Execute(b, regs(nil))
	if out.Result.Kind != inst.ResultNone {
		t.Errorf("bubble must not acquire a result: %+v", out.Result)
	}
}
