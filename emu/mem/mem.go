/*
 * rv32pipe - Byte memory with peripheral aperture dispatch
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

// Package mem implements the flat byte-addressable store consumed by the
// Memory pipeline stage, with aperture-based dispatch to memory-mapped
// peripherals (UART, CLINT). Addresses are sparse: unlike the teacher's
// fixed [4M]uint32 array (S/370's address space tops out at 16M words),
// this core's peripherals sit at 0x0200_0000 and 0x1000_0000, so the
// backing store is a byte map rather than a flat array — same
// uninitialized-reads-as-zero contract, adapted to a sparser address space.
package mem

// Peripheral is implemented by memory-mapped devices reachable through an
// aperture registered with Memory.
type Peripheral interface {
	Load(offset uint32, width int) uint32
	Store(offset uint32, width int, val uint32)
}

type aperture struct {
	base uint32
	size uint32
	dev  Peripheral
}

func (a aperture) contains(addr uint32) bool {
	return addr >= a.base && addr < a.base+a.size
}

// Memory is the byte-addressable store plus its registered peripheral
// apertures.
type Memory struct {
	bytes     map[uint32]byte
	apertures []aperture
}

// New returns an empty memory with no peripherals registered.
func New() *Memory {
	return &Memory{bytes: make(map[uint32]byte)}
}

// MapPeripheral registers dev to handle all accesses in [base, base+size).
func (m *Memory) MapPeripheral(base, size uint32, dev Peripheral) {
	m.apertures = append(m.apertures, aperture{base: base, size: size, dev: dev})
}

func (m *Memory) findAperture(addr uint32) (aperture, bool) {
	for _, a := range m.apertures {
		if a.contains(addr) {
			return a, true
		}
	}
	return aperture{}, false
}

func (m *Memory) readByte(addr uint32) byte {
	return m.bytes[addr]
}

func (m *Memory) writeByte(addr uint32, v byte) {
	m.bytes[addr] = v
}

// Load reads a width-byte (1, 2, or 4) little-endian value at addr.
// signed sign-extends narrower-than-word loads from the MSB of the
// loaded width; otherwise the result is zero-extended. Addresses inside
// a registered peripheral aperture are routed to that peripheral instead
// of the byte store.
func (m *Memory) Load(addr uint32, width int, signed bool) uint32 {
	if a, ok := m.findAperture(addr); ok {
		v := a.dev.Load(addr-a.base, width)
		if signed {
			return signExtend(v, width)
		}
		return v
	}

	var v uint32
	for i := 0; i < width; i++ {
		v |= uint32(m.readByte(addr+uint32(i))) << (8 * i)
	}
	if signed {
		return signExtend(v, width)
	}
	return v
}

// Store writes the low width bytes of val little-endian at addr. Stores
// inside a registered peripheral aperture are routed to that peripheral
// and never land in the byte store.
func (m *Memory) Store(addr uint32, width int, val uint32) {
	if a, ok := m.findAperture(addr); ok {
		a.dev.Store(addr-a.base, width, val)
		return
	}
	for i := 0; i < width; i++ {
		m.writeByte(addr+uint32(i), byte(val>>(8*i)))
	}
}

func signExtend(v uint32, width int) uint32 {
	bits := width * 8
	shift := 32 - bits
	return uint32(int32(v<<shift) >> shift)
}

// LoadRange returns a copy of bytes [start, start+length) for inspection
// (REPL "mem" command, completion-record snapshot, test harness). Reads
// of addresses within a registered peripheral aperture are skipped —
// the snapshot reflects only plain backing storage.
func (m *Memory) LoadRange(start, length uint32) []byte {
	out := make([]byte, length)
	for i := uint32(0); i < length; i++ {
		addr := start + i
		if _, ok := m.findAperture(addr); ok {
			continue
		}
		out[i] = m.readByte(addr)
	}
	return out
}

// StoreRange seeds a contiguous run of bytes starting at addr, used by
// the ELF loader.
func (m *Memory) StoreRange(addr uint32, data []byte) {
	for i, b := range data {
		m.writeByte(addr+uint32(i), b)
	}
}
