/*
 * rv32pipe - RV32I text assembler
 *
 * Copyright 2024, Richard Cornwell
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in
 * all copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 *
 */

// Package asm assembles a line-oriented RV32I mnemonic program directly
// into a []inst.Record for the assembly ingress path (pipeline.AssemblyFetcher),
// never through a byte encoding: there is no machine-code round trip
// because the pipeline consumes decoded records, not raw words. This
// mirrors the two-pass shape of bassosimone-risc32's assembler (collect
// labels across the whole program, then resolve operands against the
// table) adapted from a channel-fed streaming lexer/parser to a
// synchronous line scanner, since a single assembly source is a batch
// input with no reason to stream.
package asm

import (
	"bufio"
	"fmt"
	"strconv"
	"strings"

	"github.com/rv32pipe/rv32pipe/emu/inst"
)

// Error reports the source line a parse or resolution failure occurred on.
type Error struct {
	Line int
	Msg  string
}

func (e *Error) Error() string {
	return fmt.Sprintf("line %d: %s", e.Line, e.Msg)
}

// Assemble parses src (one instruction per line, "label:" lines and
// "#"/";" comments allowed) into a program located starting at base,
// resolving branch/jump labels to PC-relative immediates.
func Assemble(src string, base uint32) ([]inst.Record, error) {
	lines := strings.Split(src, "\n")

	type rawLine struct {
		lineno int
		text   string
	}
	var raw []rawLine
	labels := make(map[string]uint32)

	pc := base
	for i, text := range lines {
		text = stripComment(text)
		text = strings.TrimSpace(text)
		if text == "" {
			continue
		}
		if i := strings.Index(text, ":"); i >= 0 {
			label := strings.TrimSpace(text[:i])
			if label != "" && !strings.ContainsAny(label, " \t") {
				labels[label] = pc
				text = strings.TrimSpace(text[i+1:])
			}
		}
		if text == "" {
			continue
		}
		raw = append(raw, rawLine{lineno: i + 1, text: text})
		pc += 4
	}

	prog := make([]inst.Record, len(raw))
	pc = base
	for idx, rl := range raw {
		r, err := parseLine(rl.text, pc, labels)
		if err != nil {
			return nil, &Error{Line: rl.lineno, Msg: err.Error()}
		}
		r.PC = pc
		prog[idx] = r
		pc += 4
	}
	return prog, nil
}

func stripComment(line string) string {
	if i := strings.IndexAny(line, "#;"); i >= 0 {
		return line[:i]
	}
	return line
}

// AssembleReader is a convenience wrapper over Assemble for callers
// already holding a bufio.Reader.
func AssembleReader(r *bufio.Reader, base uint32) ([]inst.Record, error) {
	var b strings.Builder
	for {
		line, err := r.ReadString('\n')
		b.WriteString(line)
		if err != nil {
			break
		}
	}
	return Assemble(b.String(), base)
}

func parseLine(text string, pc uint32, labels map[string]uint32) (inst.Record, error) {
	fields := tokenize(text)
	if len(fields) == 0 {
		return inst.Record{}, fmt.Errorf("empty instruction")
	}
	mnemonic := strings.ToUpper(fields[0])
	ops := fields[1:]

	if r, ok, err := expandPseudo(mnemonic, ops, pc, labels); ok {
		return r, err
	}

	form, ok := mnemonicTable[mnemonic]
	if !ok {
		return inst.Record{}, fmt.Errorf("unknown mnemonic %q", fields[0])
	}
	return form(ops, pc, labels)
}

// tokenize splits an instruction line into fields, treating commas and
// parens as separators so both "lw rd, imm, rs1" and the more familiar
// "lw rd, imm(rs1)" offset syntax tokenize identically.
func tokenize(text string) []string {
	text = strings.Map(func(r rune) rune {
		switch r {
		case ',', '(', ')':
			return ' '
		}
		return r
	}, text)
	return strings.Fields(text)
}

func expandPseudo(mnemonic string, ops []string, pc uint32, labels map[string]uint32) (inst.Record, bool, error) {
	switch mnemonic {
	case "NOP":
		r, err := formI([]string{"x0", "x0", "0"}, pc, labels)
		return r, true, err
	case "MV":
		if len(ops) != 2 {
			return inst.Record{}, true, fmt.Errorf("MV expects 2 operands")
		}
		r, err := formI([]string{ops[0], ops[1], "0"}, pc, labels)
		return r, true, err
	case "J":
		if len(ops) != 1 {
			return inst.Record{}, true, fmt.Errorf("J expects 1 operand")
		}
		r, err := formJ([]string{"x0", ops[0]}, pc, labels)
		return r, true, err
	case "RET":
		r, err := formI2Imm("x0", "x1", 0, pc)
		r.Op = inst.OpJALR
		r.Flags = inst.Flags{IsJump: true}
		return r, true, err
	case "LI":
		if len(ops) != 2 {
			return inst.Record{}, true, fmt.Errorf("LI expects 2 operands")
		}
		r, err := formI([]string{ops[0], "x0", ops[1]}, pc, labels)
		return r, true, err
	}
	return inst.Record{}, false, nil
}

func reg(name string) (int, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	switch name {
	case "zero":
		return 0, nil
	case "ra":
		return 1, nil
	case "sp":
		return 2, nil
	}
	if strings.HasPrefix(name, "x") {
		n, err := strconv.Atoi(name[1:])
		if err != nil || n < 0 || n > 31 {
			return 0, fmt.Errorf("bad register %q", name)
		}
		return n, nil
	}
	return 0, fmt.Errorf("bad register %q", name)
}

func imm(s string, labels map[string]uint32, pc uint32, pcRelative bool) (int32, error) {
	if target, ok := labels[s]; ok {
		if pcRelative {
			return int32(target) - int32(pc), nil
		}
		return int32(target), nil
	}
	n, err := strconv.ParseInt(s, 0, 64)
	if err != nil {
		return 0, fmt.Errorf("bad immediate/label %q", s)
	}
	return int32(n), nil
}

type formFunc func(ops []string, pc uint32, labels map[string]uint32) (inst.Record, error)

func formR(op inst.Op) formFunc {
	return func(ops []string, pc uint32, labels map[string]uint32) (inst.Record, error) {
		if len(ops) != 3 {
			return inst.Record{}, fmt.Errorf("expects rd, rs1, rs2")
		}
		rd, err := reg(ops[0])
		if err != nil {
			return inst.Record{}, err
		}
		rs1, err := reg(ops[1])
		if err != nil {
			return inst.Record{}, err
		}
		rs2, err := reg(ops[2])
		if err != nil {
			return inst.Record{}, err
		}
		return inst.Record{Op: op, Dest: rd, Src1: rs1, Src2: rs2}, nil
	}
}

func formI(ops []string, pc uint32, labels map[string]uint32) (inst.Record, error) {
	if len(ops) != 3 {
		return inst.Record{}, fmt.Errorf("expects rd, rs1, imm")
	}
	rd, err := reg(ops[0])
	if err != nil {
		return inst.Record{}, err
	}
	rs1, err := reg(ops[1])
	if err != nil {
		return inst.Record{}, err
	}
	n, err := imm(ops[2], labels, pc, false)
	if err != nil {
		return inst.Record{}, err
	}
	return inst.Record{Op: inst.OpADDI, Dest: rd, Src1: rs1, Src2: inst.RegNone, Imm: n}, nil
}

func formI2Imm(rdName, rs1Name string, n int32, pc uint32) (inst.Record, error) {
	rd, err := reg(rdName)
	if err != nil {
		return inst.Record{}, err
	}
	rs1, err := reg(rs1Name)
	if err != nil {
		return inst.Record{}, err
	}
	return inst.Record{Dest: rd, Src1: rs1, Src2: inst.RegNone, Imm: n}, nil
}

func formIOp(op inst.Op) formFunc {
	return func(ops []string, pc uint32, labels map[string]uint32) (inst.Record, error) {
		if len(ops) != 3 {
			return inst.Record{}, fmt.Errorf("expects rd, rs1, imm")
		}
		rd, err := reg(ops[0])
		if err != nil {
			return inst.Record{}, err
		}
		rs1, err := reg(ops[1])
		if err != nil {
			return inst.Record{}, err
		}
		n, err := imm(ops[2], labels, pc, false)
		if err != nil {
			return inst.Record{}, err
		}
		return inst.Record{Op: op, Dest: rd, Src1: rs1, Src2: inst.RegNone, Imm: n}, nil
	}
}

func formU(op inst.Op) formFunc {
	return func(ops []string, pc uint32, labels map[string]uint32) (inst.Record, error) {
		if len(ops) != 2 {
			return inst.Record{}, fmt.Errorf("expects rd, imm")
		}
		rd, err := reg(ops[0])
		if err != nil {
			return inst.Record{}, err
		}
		n, err := imm(ops[1], labels, pc, false)
		if err != nil {
			return inst.Record{}, err
		}
		return inst.Record{Op: op, Dest: rd, Src1: inst.RegNone, Src2: inst.RegNone, Imm: n}, nil
	}
}

func formJ(ops []string, pc uint32, labels map[string]uint32) (inst.Record, error) {
	if len(ops) != 2 {
		return inst.Record{}, fmt.Errorf("expects rd, target")
	}
	rd, err := reg(ops[0])
	if err != nil {
		return inst.Record{}, err
	}
	n, err := imm(ops[1], labels, pc, true)
	if err != nil {
		return inst.Record{}, err
	}
	return inst.Record{Op: inst.OpJAL, Dest: rd, Src1: inst.RegNone, Src2: inst.RegNone, Imm: n, Flags: inst.Flags{IsJump: true}}, nil
}

func formJALR(ops []string, pc uint32, labels map[string]uint32) (inst.Record, error) {
	if len(ops) != 3 {
		return inst.Record{}, fmt.Errorf("expects rd, rs1, imm")
	}
	rd, err := reg(ops[0])
	if err != nil {
		return inst.Record{}, err
	}
	rs1, err := reg(ops[1])
	if err != nil {
		return inst.Record{}, err
	}
	n, err := imm(ops[2], labels, pc, false)
	if err != nil {
		return inst.Record{}, err
	}
	return inst.Record{Op: inst.OpJALR, Dest: rd, Src1: rs1, Src2: inst.RegNone, Imm: n, Flags: inst.Flags{IsJump: true}}, nil
}

func formB(op inst.Op, pred inst.BranchPred) formFunc {
	return func(ops []string, pc uint32, labels map[string]uint32) (inst.Record, error) {
		if len(ops) != 3 {
			return inst.Record{}, fmt.Errorf("expects rs1, rs2, target")
		}
		rs1, err := reg(ops[0])
		if err != nil {
			return inst.Record{}, err
		}
		rs2, err := reg(ops[1])
		if err != nil {
			return inst.Record{}, err
		}
		n, err := imm(ops[2], labels, pc, true)
		if err != nil {
			return inst.Record{}, err
		}
		return inst.Record{Op: op, Dest: inst.RegNone, Src1: rs1, Src2: rs2, Imm: n, Pred: pred, Flags: inst.Flags{IsBranch: true}}, nil
	}
}

func formLoad(op inst.Op) formFunc {
	return func(ops []string, pc uint32, labels map[string]uint32) (inst.Record, error) {
		if len(ops) != 3 {
			return inst.Record{}, fmt.Errorf("expects rd, imm, rs1")
		}
		rd, err := reg(ops[0])
		if err != nil {
			return inst.Record{}, err
		}
		n, err := imm(ops[1], labels, pc, false)
		if err != nil {
			return inst.Record{}, err
		}
		rs1, err := reg(ops[2])
		if err != nil {
			return inst.Record{}, err
		}
		return inst.Record{Op: op, Dest: rd, Src1: rs1, Src2: inst.RegNone, Imm: n, Flags: inst.Flags{IsLoad: true}}, nil
	}
}

func formStore(op inst.Op) formFunc {
	return func(ops []string, pc uint32, labels map[string]uint32) (inst.Record, error) {
		if len(ops) != 3 {
			return inst.Record{}, fmt.Errorf("expects rs2, imm, rs1")
		}
		rs2, err := reg(ops[0])
		if err != nil {
			return inst.Record{}, err
		}
		n, err := imm(ops[1], labels, pc, false)
		if err != nil {
			return inst.Record{}, err
		}
		rs1, err := reg(ops[2])
		if err != nil {
			return inst.Record{}, err
		}
		return inst.Record{Op: op, Dest: inst.RegNone, Src1: rs1, Src2: rs2, Imm: n, Flags: inst.Flags{IsStore: true}}, nil
	}
}

func formSystem(op inst.Op) formFunc {
	return func(ops []string, pc uint32, labels map[string]uint32) (inst.Record, error) {
		return inst.Record{Op: op, Dest: inst.RegNone, Src1: inst.RegNone, Src2: inst.RegNone, Flags: inst.Flags{IsSystem: true}}, nil
	}
}

func formCSRReg(op inst.Op) formFunc {
	return func(ops []string, pc uint32, labels map[string]uint32) (inst.Record, error) {
		if len(ops) != 3 {
			return inst.Record{}, fmt.Errorf("expects rd, csr, rs1")
		}
		rd, err := reg(ops[0])
		if err != nil {
			return inst.Record{}, err
		}
		addr, err := imm(ops[1], labels, pc, false)
		if err != nil {
			return inst.Record{}, err
		}
		rs1, err := reg(ops[2])
		if err != nil {
			return inst.Record{}, err
		}
		return inst.Record{Op: op, Dest: rd, Src1: rs1, Src2: inst.RegNone, Imm: addr, Flags: inst.Flags{IsCSR: true}}, nil
	}
}

func formCSRImm(op inst.Op) formFunc {
	return func(ops []string, pc uint32, labels map[string]uint32) (inst.Record, error) {
		if len(ops) != 3 {
			return inst.Record{}, fmt.Errorf("expects rd, csr, zimm")
		}
		rd, err := reg(ops[0])
		if err != nil {
			return inst.Record{}, err
		}
		addr, err := imm(ops[1], labels, pc, false)
		if err != nil {
			return inst.Record{}, err
		}
		z, err := strconv.ParseUint(ops[2], 0, 5)
		if err != nil {
			return inst.Record{}, fmt.Errorf("bad zimm %q", ops[2])
		}
		return inst.Record{Op: op, Dest: rd, Src1: inst.RegNone, Src2: inst.RegNone, Imm: addr, Zimm: uint32(z), Flags: inst.Flags{IsCSR: true}}, nil
	}
}

var mnemonicTable = map[string]formFunc{
	"ADD": formR(inst.OpADD), "SUB": formR(inst.OpSUB), "SLL": formR(inst.OpSLL),
	"SLT": formR(inst.OpSLT), "SLTU": formR(inst.OpSLTU), "XOR": formR(inst.OpXOR),
	"SRL": formR(inst.OpSRL), "SRA": formR(inst.OpSRA), "OR": formR(inst.OpOR), "AND": formR(inst.OpAND),

	"ADDI": formIOp(inst.OpADDI), "SLTI": formIOp(inst.OpSLTI), "SLTIU": formIOp(inst.OpSLTIU),
	"XORI": formIOp(inst.OpXORI), "ORI": formIOp(inst.OpORI), "ANDI": formIOp(inst.OpANDI),
	"SLLI": formIOp(inst.OpSLLI), "SRLI": formIOp(inst.OpSRLI), "SRAI": formIOp(inst.OpSRAI),

	"LUI": formU(inst.OpLUI), "AUIPC": formU(inst.OpAUIPC),

	"JAL":  formJ,
	"JALR": formJALR,

	"BEQ": formB(inst.OpBEQ, inst.PredEQ), "BNE": formB(inst.OpBNE, inst.PredNE),
	"BLT": formB(inst.OpBLT, inst.PredLT), "BGE": formB(inst.OpBGE, inst.PredGE),
	"BLTU": formB(inst.OpBLTU, inst.PredLTU), "BGEU": formB(inst.OpBGEU, inst.PredGEU),

	"LB": formLoad(inst.OpLB), "LH": formLoad(inst.OpLH), "LW": formLoad(inst.OpLW),
	"LBU": formLoad(inst.OpLBU), "LHU": formLoad(inst.OpLHU),

	"SB": formStore(inst.OpSB), "SH": formStore(inst.OpSH), "SW": formStore(inst.OpSW),

	"FENCE":  formSystem(inst.OpFENCE),
	"FENCEI": formSystem(inst.OpFENCEI),
	"ECALL":  formSystem(inst.OpECALL),
	"EBREAK": formSystem(inst.OpEBREAK),
	"MRET":   formSystem(inst.OpMRET),

	"CSRRW": formCSRReg(inst.OpCSRRW), "CSRRS": formCSRReg(inst.OpCSRRS), "CSRRC": formCSRReg(inst.OpCSRRC),
	"CSRRWI": formCSRImm(inst.OpCSRRWI), "CSRRSI": formCSRImm(inst.OpCSRRSI), "CSRRCI": formCSRImm(inst.OpCSRRCI),
}
