/*
 * rv32pipe - ELF32 image loader
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

// Package elfload loads a 32-bit RISC-V ELF executable's PT_LOAD segments
// into the simulator's byte memory for the binary ingress path, using
// stdlib debug/elf the way tinyrange-cc's asm/*/elf.go files drive the
// same package for their ELF emission side; here the direction is
// reversed (read an ELF in, rather than synthesize one), but the
// package and its Prog/Symbol types are the same stdlib surface.
package elfload

import (
	"debug/elf"
	"fmt"
	"io"

	"github.com/rv32pipe/rv32pipe/emu/mem"
)

// Image is the outcome of a successful load: where execution begins and
// the address one past the highest byte written, for a binary Fetcher's
// Limit.
type Image struct {
	Entry   uint32
	HighAddr uint32
}

// Load reads an ELF32 RISC-V executable from r and seeds m with every
// PT_LOAD segment's file contents, zero-filling the tail when MemSize
// exceeds FileSize (the .bss case).
func Load(r io.ReaderAt, m *mem.Memory) (Image, error) {
	f, err := elf.NewFile(r)
	if err != nil {
		return Image{}, fmt.Errorf("elfload: %w", err)
	}
	defer f.Close()

	if f.Class != elf.ELFCLASS32 {
		return Image{}, fmt.Errorf("elfload: only ELFCLASS32 is supported, got %v", f.Class)
	}
	if f.Machine != elf.EM_RISCV {
		return Image{}, fmt.Errorf("elfload: expected EM_RISCV, got %v", f.Machine)
	}

	var high uint32
	loaded := false
	for _, prog := range f.Progs {
		if prog.Type != elf.PT_LOAD {
			continue
		}
		data := make([]byte, prog.Filesz)
		if _, err := prog.ReadAt(data, 0); err != nil && err != io.EOF {
			return Image{}, fmt.Errorf("elfload: reading segment at %#x: %w", prog.Vaddr, err)
		}
		m.StoreRange(uint32(prog.Vaddr), data)

		if prog.Memsz > prog.Filesz {
			m.StoreRange(uint32(prog.Vaddr)+uint32(prog.Filesz), make([]byte, prog.Memsz-prog.Filesz))
		}

		loaded = true
		top := uint32(prog.Vaddr + prog.Memsz)
		if top > high {
			high = top
		}
	}
	if !loaded {
		return Image{}, fmt.Errorf("elfload: no PT_LOAD segments found")
	}

	return Image{Entry: uint32(f.Entry), HighAddr: high}, nil
}
