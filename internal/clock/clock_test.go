package clock

import (
	"testing"
	"time"
)

func TestFakeAdvanceFiresDueTimersInOrder(t *testing.T) {
	f := NewFake()
	var fired []int

	f.AfterFunc(2*time.Second, func() { fired = append(fired, 2) })
	f.AfterFunc(1*time.Second, func() { fired = append(fired, 1) })
	f.AfterFunc(5*time.Second, func() { fired = append(fired, 5) })

	f.Advance(3 * time.Second)

	if len(fired) != 2 || fired[0] != 1 || fired[1] != 2 {
		t.Fatalf("expected timers 1 then 2, got %v", fired)
	}

	f.Advance(2 * time.Second)
	if len(fired) != 3 || fired[2] != 5 {
		t.Fatalf("expected final timer, got %v", fired)
	}
}

func TestFakeStoppedTimerDoesNotFire(t *testing.T) {
	f := NewFake()
	fired := false

	timer := f.AfterFunc(time.Second, func() { fired = true })
	if !timer.Stop() {
		t.Fatal("Stop should report cancellation")
	}
	f.Advance(2 * time.Second)

	if fired {
		t.Error("stopped timer must not fire")
	}
	if timer.Stop() {
		t.Error("second Stop should report no-op")
	}
}

func TestFakeCallbackMaySchedule(t *testing.T) {
	f := NewFake()
	var fired []string

	f.AfterFunc(time.Second, func() {
		fired = append(fired, "outer")
		f.AfterFunc(time.Second, func() { fired = append(fired, "inner") })
	})

	f.Advance(2 * time.Second)

	if len(fired) != 2 || fired[1] != "inner" {
		t.Fatalf("expected chained timer to fire within the advance, got %v", fired)
	}
}

func TestFakeNowTracksAdvance(t *testing.T) {
	f := NewFake()
	start := f.Now()
	f.Advance(42 * time.Second)
	if got := f.Now().Sub(start); got != 42*time.Second {
		t.Errorf("expected clock moved 42s, got %v", got)
	}
}
