/*
 * rv32pipe - Integer register file
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

// Package rf implements the 32-register RV32I integer register file and
// the program counter.
package rf

// NumRegs is the number of integer registers, R0..R31.
const NumRegs = 32

// File holds the 32 integer registers plus the program counter. The zero
// value is a valid, all-zero register file.
type File struct {
	regs [NumRegs]uint32
	pc   uint32
}

// New returns an initialized, all-zero register file.
func New() *File {
	return &File{}
}

// Read returns the value of register idx. R0 always reads as zero.
func (f *File) Read(idx uint32) uint32 {
	if idx == 0 {
		return 0
	}
	return f.regs[idx&0x1f]
}

// Write stores val into register idx. Writes to R0 are silently discarded.
func (f *File) Write(idx uint32, val uint32) {
	if idx == 0 {
		return
	}
	f.regs[idx&0x1f] = val
}

// PC returns the current program counter.
func (f *File) PC() uint32 {
	return f.pc
}

// SetPC overwrites the program counter, used by fetch advance and by
// flush/trap redirection.
func (f *File) SetPC(pc uint32) {
	f.pc = pc
}

// Snapshot copies out all 32 register values for inspection (REPL, test
// harness, completion record).
func (f *File) Snapshot() [NumRegs]uint32 {
	return f.regs
}
