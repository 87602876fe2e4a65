package event

import "testing"

func TestScheduleFiresAtCorrectTick(t *testing.T) {
	l := NewList()
	fired := false
	l.Schedule("a", 5, func() { fired = true })

	l.Advance(4)
	if fired {
		t.Fatal("fired too early")
	}
	l.Advance(1)
	if !fired {
		t.Fatal("did not fire at scheduled tick")
	}
}

func TestImmediateFireForNonPositiveDelay(t *testing.T) {
	l := NewList()
	fired := false
	l.Schedule("a", 0, func() { fired = true })
	if !fired {
		t.Fatal("delay<=0 must fire synchronously")
	}
	if l.Pending() {
		t.Error("synchronous fire must not leave a pending node")
	}
}

func TestMultipleEventsFireInOrder(t *testing.T) {
	l := NewList()
	var order []string
	l.Schedule("first", 3, func() { order = append(order, "first") })
	l.Schedule("second", 5, func() { order = append(order, "second") })

	l.Advance(3)
	l.Advance(2)

	if len(order) != 2 || order[0] != "first" || order[1] != "second" {
		t.Fatalf("got %v", order)
	}
}

func TestCancelRemovesEvent(t *testing.T) {
	l := NewList()
	fired := false
	l.Schedule("sw-irq", 10, func() { fired = true })
	l.Cancel("sw-irq")
	l.Advance(10)
	if fired {
		t.Error("cancelled event must not fire")
	}
}

func TestCancelPreservesLaterEventTiming(t *testing.T) {
	l := NewList()
	var secondFiredAt int
	tick := 0
	l.Schedule("first", 3, func() {})
	l.Schedule("second", 8, func() { secondFiredAt = tick })

	l.Cancel("first")
	for i := 0; i < 8; i++ {
		tick++
		l.Advance(1)
	}
	if secondFiredAt != 8 {
		t.Errorf("second event fired at tick %d expected 8", secondFiredAt)
	}
}

func TestPendingReflectsListState(t *testing.T) {
	l := NewList()
	if l.Pending() {
		t.Error("new list should have nothing pending")
	}
	l.Schedule("x", 1, func() {})
	if !l.Pending() {
		t.Error("expected a pending event")
	}
	l.Advance(1)
	if l.Pending() {
		t.Error("expected list to be drained")
	}
}
