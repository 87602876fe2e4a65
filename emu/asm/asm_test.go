package asm

import (
	"testing"

	"github.com/rv32pipe/rv32pipe/emu/inst"
)

func TestAssembleBackToBackRAWChain(t *testing.T) {
	prog, err := Assemble(`
		addi x2, x1, 1
		addi x3, x2, 1
		addi x4, x3, 1
	`, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(prog) != 3 {
		t.Fatalf("got %d instructions, expected 3", len(prog))
	}
	if prog[0].Op != inst.OpADDI || prog[0].Dest != 2 || prog[0].Src1 != 1 || prog[0].Imm != 1 {
		t.Errorf("prog[0] got %+v", prog[0])
	}
	if prog[2].PC != 8 {
		t.Errorf("prog[2].PC got %d expected 8", prog[2].PC)
	}
}

func TestAssembleLabelsResolveToPCRelativeOffsets(t *testing.T) {
	prog, err := Assemble(`
		addi x1, x0, 5
		addi x2, x0, 5
	loop:
		beq x1, x2, done
		addi x3, x0, 99
	done:
		addi x4, x0, 7
	`, 0)
	if err != nil {
		t.Fatal(err)
	}
	// beq is at PC=8, done: is at PC=16, offset = 16-8 = 8.
	beq := prog[2]
	if beq.Op != inst.OpBEQ || beq.Imm != 8 {
		t.Errorf("beq got op=%v imm=%d, expected BEQ imm=8", beq.Op, beq.Imm)
	}
}

func TestAssembleCommentsAndBlankLinesIgnored(t *testing.T) {
	prog, err := Assemble("\n# comment\n  ; also a comment\nadd x1, x2, x3 # trailing\n\n", 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(prog) != 1 || prog[0].Op != inst.OpADD {
		t.Fatalf("got %+v", prog)
	}
}

func TestAssembleUnknownMnemonicIsError(t *testing.T) {
	_, err := Assemble("bogus x1, x2, x3\n", 0)
	if err == nil {
		t.Fatal("expected an error")
	}
}

func TestAssembleNamedRegisters(t *testing.T) {
	prog, err := Assemble("add ra, sp, zero\n", 0)
	if err != nil {
		t.Fatal(err)
	}
	if prog[0].Dest != 1 || prog[0].Src1 != 2 || prog[0].Src2 != 0 {
		t.Errorf("got %+v", prog[0])
	}
}

func TestAssembleLoadStoreOffsetForm(t *testing.T) {
	prog, err := Assemble(`
		lw x1, 8(x2)
		sw x1, 12(x2)
	`, 0)
	if err != nil {
		t.Fatal(err)
	}
	_ = prog
}

func TestAssembleCSRInstructions(t *testing.T) {
	prog, err := Assemble(`
		csrrw x1, 0x300, x2
		csrrwi x3, 0x300, 17
	`, 0)
	if err != nil {
		t.Fatal(err)
	}
	if prog[0].Op != inst.OpCSRRW || prog[0].Imm != 0x300 {
		t.Errorf("csrrw got %+v", prog[0])
	}
	if prog[1].Op != inst.OpCSRRWI || prog[1].Zimm != 17 {
		t.Errorf("csrrwi got %+v", prog[1])
	}
}

func TestAssemblePseudoInstructions(t *testing.T) {
	prog, err := Assemble(`
		nop
		li x5, 42
		mv x6, x5
		j done
	done:
		ret
	`, 0)
	if err != nil {
		t.Fatal(err)
	}
	if prog[0].Op != inst.OpADDI || prog[0].Dest != 0 {
		t.Errorf("nop got %+v", prog[0])
	}
	if prog[1].Op != inst.OpADDI || prog[1].Dest != 5 || prog[1].Imm != 42 {
		t.Errorf("li got %+v", prog[1])
	}
	if prog[3].Op != inst.OpJAL {
		t.Errorf("j got %+v", prog[3])
	}
	if prog[4].Op != inst.OpJALR || prog[4].Src1 != 1 {
		t.Errorf("ret got %+v", prog[4])
	}
}
