package hostbus

import (
	"testing"
	"time"
)

func TestRecorder_WaitFor(t *testing.T) {
	r := NewRecorder()

	go func() {
		time.Sleep(20 * time.Millisecond)
		r.Emit("a", nil)
		r.Emit("b", nil)
	}()

	ok := r.WaitFor(time.Second, func(evs []Event) bool { return len(evs) == 2 })
	if !ok {
		t.Fatal("WaitFor() timed out")
	}
	names := r.Names()
	if names[0] != "a" || names[1] != "b" {
		t.Errorf("Names() = %v", names)
	}
}

func TestRecorder_WaitFor_Timeout(t *testing.T) {
	r := NewRecorder()
	if r.WaitFor(20*time.Millisecond, func(evs []Event) bool { return len(evs) > 0 }) {
		t.Error("WaitFor() should report false on timeout")
	}
}
