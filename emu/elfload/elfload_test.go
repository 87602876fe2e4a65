package elfload

import (
	"bytes"
	"debug/elf"
	"encoding/binary"
	"testing"

	"github.com/rv32pipe/rv32pipe/emu/mem"
)

// buildELF32 assembles a minimal single-PT_LOAD 32-bit RISC-V ELF image
// with the given entry point, load address, and code bytes.
func buildELF32(t *testing.T, entry, vaddr uint32, code []byte) []byte {
	t.Helper()
	const ehsize = 52
	const phsize = 32

	buf := make([]byte, ehsize+phsize+len(code))

	buf[0], buf[1], buf[2], buf[3] = 0x7f, 'E', 'L', 'F'
	buf[4] = 1 // ELFCLASS32
	buf[5] = 1 // little-endian
	buf[6] = 1 // EV_CURRENT

	le := binary.LittleEndian
	le.PutUint16(buf[16:], uint16(elf.ET_EXEC))
	le.PutUint16(buf[18:], uint16(elf.EM_RISCV))
	le.PutUint32(buf[20:], uint32(elf.EV_CURRENT))
	le.PutUint32(buf[24:], entry)
	le.PutUint32(buf[28:], ehsize) // e_phoff
	le.PutUint32(buf[32:], 0)      // e_shoff
	le.PutUint32(buf[36:], 0)      // e_flags
	le.PutUint16(buf[40:], ehsize)
	le.PutUint16(buf[42:], phsize)
	le.PutUint16(buf[44:], 1) // e_phnum
	le.PutUint16(buf[46:], 0)
	le.PutUint16(buf[48:], 0)
	le.PutUint16(buf[50:], 0)

	ph := buf[ehsize : ehsize+phsize]
	le.PutUint32(ph[0:], uint32(elf.PT_LOAD))
	le.PutUint32(ph[4:], ehsize+phsize) // p_offset
	le.PutUint32(ph[8:], vaddr)
	le.PutUint32(ph[12:], vaddr)
	le.PutUint32(ph[16:], uint32(len(code))) // p_filesz
	le.PutUint32(ph[20:], uint32(len(code))) // p_memsz
	le.PutUint32(ph[24:], uint32(elf.PF_R|elf.PF_X))
	le.PutUint32(ph[28:], 4)

	copy(buf[ehsize+phsize:], code)
	return buf
}

func TestLoadSeedsMemoryAtVaddr(t *testing.T) {
	code := []byte{0x13, 0x00, 0x00, 0x00} // ADDI x0, x0, 0
	raw := buildELF32(t, 0x1000, 0x1000, code)

	m := mem.New()
	img, err := Load(bytes.NewReader(raw), m)
	if err != nil {
		t.Fatal(err)
	}
	if img.Entry != 0x1000 {
		t.Errorf("entry got %#x expected 0x1000", img.Entry)
	}
	got := m.LoadRange(0x1000, 4)
	if !bytes.Equal(got, code) {
		t.Errorf("memory got %x expected %x", got, code)
	}
}

func TestLoadRejectsWrongMachine(t *testing.T) {
	raw := buildELF32(t, 0, 0, []byte{0, 0, 0, 0})
	binary.LittleEndian.PutUint16(raw[18:], uint16(elf.EM_X86_64))

	m := mem.New()
	if _, err := Load(bytes.NewReader(raw), m); err == nil {
		t.Fatal("expected an error for a non-RISCV machine")
	}
}
