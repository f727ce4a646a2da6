package notify

import "testing"

func TestSubscribeNotify(t *testing.T) {
	var h Hub
	var order []int

	h.Subscribe(func() { order = append(order, 1) })
	h.Subscribe(func() { order = append(order, 2) })
	h.Notify()

	if len(order) != 2 || order[0] != 1 || order[1] != 2 {
		t.Errorf("order = %v, want [1 2]", order)
	}
}

func TestUnsubscribe(t *testing.T) {
	var h Hub
	calls := 0
	stop := h.Subscribe(func() { calls++ })

	h.Notify()
	stop()
	stop()
	h.Notify()

	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
	if h.Len() != 0 {
		t.Errorf("Len = %d, want 0", h.Len())
	}
}

func TestUnsubscribeDuringNotify(t *testing.T) {
	var h Hub
	var stop func()
	calls := 0
	stop = h.Subscribe(func() {
		calls++
		stop()
	})

	h.Notify()
	h.Notify()

	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}
