package uart

import "testing"

func TestStoreEmitsByte(t *testing.T) {
	d := New()
	d.Store(offTXData, 1, 'H')
	d.Store(offTXData, 1, 'i')
	if out := string(d.Output()); out != "Hi" {
		t.Errorf("output got %q expected %q", out, "Hi")
	}
}

func TestStoreIgnoresOtherOffsets(t *testing.T) {
	d := New()
	d.Store(offStatus, 1, 'x')
	if len(d.Output()) != 0 {
		t.Errorf("expected no output, got %q", d.Output())
	}
}

func TestLoadStatusReady(t *testing.T) {
	d := New()
	if v := d.Load(offStatus, 1); v != 1 {
		t.Errorf("status got %d expected 1", v)
	}
}

func TestLoadOtherOffsetZero(t *testing.T) {
	d := New()
	if v := d.Load(offTXData, 1); v != 0 {
		t.Errorf("load of TX register got %d expected 0", v)
	}
}
