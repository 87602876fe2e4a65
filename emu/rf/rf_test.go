package rf

import "testing"

func TestReadZeroAlwaysZero(t *testing.T) {
	f := New()
	f.Write(0, 5)
	if r := f.Read(0); r != 0 {
		t.Errorf("R0 write not suppressed, got %d expected 0", r)
	}
}

func TestWriteRead(t *testing.T) {
	f := New()
	for i := uint32(1); i < NumRegs; i++ {
		f.Write(i, i*7)
	}
	for i := uint32(1); i < NumRegs; i++ {
		if r := f.Read(i); r != i*7 {
			t.Errorf("R%d got %d expected %d", i, r, i*7)
		}
	}
}

func TestAddiR0ThenAddR1(t *testing.T) {
	// ADDI R0, R0, 5 ; ADD R1, R0, R0 always yields R1 = 0.
	f := New()
	f.Write(0, f.Read(0)+5)
	f.Write(1, f.Read(0)+f.Read(0))
	if r := f.Read(1); r != 0 {
		t.Errorf("R1 got %d expected 0", r)
	}
}

func TestPC(t *testing.T) {
	f := New()
	if f.PC() != 0 {
		t.Errorf("initial PC got %d expected 0", f.PC())
	}
	f.SetPC(0x1000)
	if f.PC() != 0x1000 {
		t.Errorf("PC got %#x expected %#x", f.PC(), 0x1000)
	}
}

func TestSnapshot(t *testing.T) {
	f := New()
	f.Write(3, 42)
	snap := f.Snapshot()
	if snap[3] != 42 {
		t.Errorf("snapshot R3 got %d expected 42", snap[3])
	}
	// Mutating the file after the snapshot must not alter the copy.
	f.Write(3, 99)
	if snap[3] != 42 {
		t.Errorf("snapshot mutated after copy, got %d", snap[3])
	}
}
