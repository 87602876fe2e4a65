package clint

import (
	"testing"

	"github.com/rv32pipe/rv32pipe/emu/csr"
	"github.com/rv32pipe/rv32pipe/emu/intc"
)

func newFixture(scale uint64) (*Device, *intc.Controller) {
	b := csr.New()
	ic := intc.New(b)
	return New(ic, scale), ic
}

func TestCompareMatchAssertsTimerPending(t *testing.T) {
	d, ic := newFixture(1)
	d.Store(offMtimecmpLow, 4, 100)

	for i := 0; i < 99; i++ {
		d.Tick()
	}
	if ic.IsPending(intc.Timer) {
		t.Fatal("timer should not be pending before mtime reaches mtimecmp")
	}
	d.Tick() // mtime becomes 100
	if !ic.IsPending(intc.Timer) {
		t.Error("timer should be pending once mtime >= mtimecmp")
	}
}

func TestWritingLargerMtimecmpClearsPending(t *testing.T) {
	d, ic := newFixture(1)
	d.Store(offMtimecmpLow, 4, 5)
	for i := 0; i < 10; i++ {
		d.Tick()
	}
	if !ic.IsPending(intc.Timer) {
		t.Fatal("expected timer pending")
	}
	d.Store(offMtimecmpLow, 4, 1000)
	if ic.IsPending(intc.Timer) {
		t.Error("raising mtimecmp above mtime should clear pending")
	}
}

func TestMsipLine(t *testing.T) {
	d, ic := newFixture(1)
	d.Store(offMsip, 4, 1)
	if !ic.IsPending(intc.Software) {
		t.Error("msip bit0=1 should assert software-pending")
	}
	if d.Load(offMsip, 4) != 1 {
		t.Errorf("msip load got %d expected 1", d.Load(offMsip, 4))
	}
	d.Store(offMsip, 4, 0)
	if ic.IsPending(intc.Software) {
		t.Error("msip bit0=0 should clear software-pending")
	}
}

func TestScaleFactor(t *testing.T) {
	d, _ := newFixture(4)
	for i := 0; i < 3; i++ {
		d.Tick()
	}
	if d.MTime() != 0 {
		t.Errorf("mtime got %d expected 0 before scale boundary", d.MTime())
	}
	d.Tick()
	if d.MTime() != 1 {
		t.Errorf("mtime got %d expected 1 at scale boundary", d.MTime())
	}
}

func Test64BitMtimeReadback(t *testing.T) {
	d, _ := newFixture(1)
	d.mtime = 0x100000002
	if d.Load(offMtimeLow, 4) != 2 {
		t.Errorf("low got %#x expected 2", d.Load(offMtimeLow, 4))
	}
	if d.Load(offMtimeHigh, 4) != 1 {
		t.Errorf("high got %#x expected 1", d.Load(offMtimeHigh, 4))
	}
}

func TestMonotonicMtime(t *testing.T) {
	d, _ := newFixture(1)
	var prev uint64
	for i := 0; i < 50; i++ {
		d.Tick()
		if d.MTime() < prev {
			t.Fatal("mtime must be monotonically non-decreasing")
		}
		prev = d.MTime()
	}
}
