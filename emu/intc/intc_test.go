package intc

import (
	"testing"

	"github.com/rv32pipe/rv32pipe/emu/csr"
)

func newController() (*Controller, *csr.Bank) {
	b := csr.New()
	return New(b), b
}

func TestDeliverableRequiresGlobalEnable(t *testing.T) {
	c, _ := newController()
	c.SetPending(Timer)
	c.Enable(Timer)
	if _, ok := c.Deliverable(); ok {
		t.Error("should not be deliverable with global MIE clear")
	}
	c.SetGlobalEnable(true)
	if bit, ok := c.Deliverable(); !ok || bit != Timer {
		t.Errorf("got (%d,%v) expected (%d,true)", bit, ok, Timer)
	}
}

func TestPriorityOrder(t *testing.T) {
	c, _ := newController()
	c.SetGlobalEnable(true)
	c.SetPending(Timer)
	c.Enable(Timer)
	c.SetPending(Software)
	c.Enable(Software)
	if bit, _ := c.Deliverable(); bit != Software {
		t.Errorf("software should outrank timer, got %d", bit)
	}
	c.SetPending(External)
	c.Enable(External)
	if bit, _ := c.Deliverable(); bit != External {
		t.Errorf("external should outrank all, got %d", bit)
	}
}

func TestNotPendingOrNotEnabledNotDeliverable(t *testing.T) {
	c, _ := newController()
	c.SetGlobalEnable(true)
	c.SetPending(Timer)
	if _, ok := c.Deliverable(); ok {
		t.Error("should not be deliverable without mie enable")
	}
	c.ClearPending(Timer)
	c.Enable(Timer)
	if _, ok := c.Deliverable(); ok {
		t.Error("should not be deliverable without pending")
	}
}

func TestLevelTriggeredSurvivesAcknowledge(t *testing.T) {
	c, _ := newController()
	c.SetPending(Timer)
	c.Acknowledge(Timer)
	if !c.IsPending(Timer) {
		t.Error("level-triggered line must not clear on acknowledge")
	}
}

func TestEdgeTriggeredClearsOnAcknowledge(t *testing.T) {
	c, _ := newController()
	c.SetEdgeTriggered(Software, true)
	c.SetPending(Software)
	c.Acknowledge(Software)
	if c.IsPending(Software) {
		t.Error("edge-triggered line must clear on acknowledge")
	}
}

func TestEnableDisable(t *testing.T) {
	c, _ := newController()
	c.Enable(External)
	if !c.IsEnabled(External) {
		t.Error("external should be enabled")
	}
	c.Disable(External)
	if c.IsEnabled(External) {
		t.Error("external should be disabled")
	}
}
