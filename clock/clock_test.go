package clock

import (
	"testing"
	"time"
)

var epoch = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

func TestFakeAfterFuncOrder(t *testing.T) {
	c := Fake(epoch)
	var got []string
	c.AfterFunc(1500*time.Millisecond, func() { got = append(got, "load") })
	c.AfterFunc(500*time.Millisecond, func() { got = append(got, "submit") })
	c.AfterFunc(1000*time.Millisecond, func() { got = append(got, "click") })

	c.Advance(999 * time.Millisecond)
	if len(got) != 1 || got[0] != "submit" {
		t.Fatalf("after 999ms: got %v, want [submit]", got)
	}
	c.Advance(time.Second)
	want := []string{"submit", "click", "load"}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("fire %d: got %q, want %q", i, got[i], want[i])
		}
	}
	if c.Pending() != 0 {
		t.Errorf("pending: got %d, want 0", c.Pending())
	}
}

func TestFakeTimerStop(t *testing.T) {
	c := Fake(epoch)
	fired := false
	tm := c.AfterFunc(time.Second, func() { fired = true })
	if !tm.Stop() {
		t.Fatal("Stop on armed timer returned false")
	}
	c.Advance(2 * time.Second)
	if fired {
		t.Error("stopped timer fired")
	}
	if tm.Stop() {
		t.Error("second Stop returned true")
	}
}

func TestFakeTicker(t *testing.T) {
	c := Fake(epoch)
	tk := c.NewTicker(100 * time.Millisecond)
	defer tk.Stop()

	c.Advance(100 * time.Millisecond)
	select {
	case at := <-tk.C:
		if !at.Equal(epoch.Add(100 * time.Millisecond)) {
			t.Errorf("tick at %v, want %v", at, epoch.Add(100*time.Millisecond))
		}
	default:
		t.Fatal("no tick after one interval")
	}

	tk.Stop()
	c.Advance(time.Second)
	select {
	case <-tk.C:
		t.Error("tick after Stop")
	default:
	}
}

func TestFakeNow(t *testing.T) {
	c := Fake(epoch)
	c.Advance(24 * time.Hour)
	if got := c.Now(); !got.Equal(epoch.Add(24 * time.Hour)) {
		t.Errorf("got %v, want %v", got, epoch.Add(24*time.Hour))
	}
}
