/*
 * rv32pipe - Memory-mapped byte-output device (UART)
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

// Package uart implements the write-only byte-output peripheral at the
// fixed aperture [0x10000000, 0x10000007].
package uart

// Base is the physical base address of the UART aperture.
const Base = 0x10000000

// Size is the aperture size in bytes.
const Size = 0x8

const (
	offTXData = 0x0 // store: low byte emitted to the output stream.
	offStatus = 0x4 // load: 1 = ready, always.
)

// Device captures bytes written by the guest program to the TX register.
type Device struct {
	out []byte
}

// New returns an empty UART device.
func New() *Device {
	return &Device{}
}

// Load implements mem.Peripheral. Offset 4 (status) always reads ready (1);
// any other offset in the aperture reads 0.
func (d *Device) Load(offset uint32, width int) uint32 {
	if offset == offStatus {
		return 1
	}
	return 0
}

// Store implements mem.Peripheral. A store to offset 0 emits the low byte
// of val to the output stream; stores elsewhere in the aperture are ignored.
func (d *Device) Store(offset uint32, width int, val uint32) {
	if offset == offTXData {
		d.out = append(d.out, byte(val))
	}
}

// Output returns the bytes emitted so far, in emission order.
func (d *Device) Output() []byte {
	return d.out
}
