package engine

import (
	"testing"
	"time"
)

func TestStepCadence(t *testing.T) {
	e := NewEngine()
	var ticks, hours, days int
	var order []string
	e.OnTick = func(uint64) { ticks++; order = append(order, "tick") }
	e.OnHour = func(uint64) { hours++; order = append(order, "hour") }
	e.OnDay = func(uint64) { days++; order = append(order, "day") }

	for i := 0; i < TicksPerDay; i++ {
		e.step()
	}

	if ticks != TicksPerDay || hours != 24 || days != 1 {
		t.Errorf("expected %d/24/1 callbacks, got %d/%d/%d", TicksPerDay, ticks, hours, days)
	}
	last := order[len(order)-3:]
	if last[0] != "tick" || last[1] != "hour" || last[2] != "day" {
		t.Errorf("expected tick, hour, day order, got %v", last)
	}
	if e.Tick() != TicksPerDay {
		t.Errorf("expected tick %d, got %d", TicksPerDay, e.Tick())
	}
}

func TestSetTickResumes(t *testing.T) {
	e := NewEngine()
	e.SetTick(TicksPerHour - 1)
	fired := uint64(0)
	e.OnHour = func(tick uint64) { fired = tick }

	e.step()
	if fired != TicksPerHour {
		t.Errorf("expected OnHour at tick %d, got %d", TicksPerHour, fired)
	}
}

func TestSetSpeed(t *testing.T) {
	e := NewEngine()
	e.SetSpeed(4)
	if got := e.Speed(); got != 4 {
		t.Errorf("expected 4, got %v", got)
	}
	e.SetSpeed(-1)
	if got := e.Speed(); got != 0 {
		t.Errorf("expected negative speed to pause, got %v", got)
	}
}

func TestRunStop(t *testing.T) {
	e := NewEngine()
	e.Interval = time.Millisecond
	reached := make(chan struct{})
	e.OnTick = func(tick uint64) {
		if tick == 5 {
			close(reached)
		}
	}

	done := make(chan struct{})
	go func() {
		e.Run()
		close(done)
	}()

	select {
	case <-reached:
	case <-time.After(5 * time.Second):
		t.Fatal("engine did not reach tick 5")
	}
	e.Stop()
	e.Stop()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("engine did not stop")
	}
	if e.Running() {
		t.Error("expected engine not running after Stop")
	}
}

func TestStopWhilePaused(t *testing.T) {
	e := NewEngine()
	e.SetSpeed(0)
	done := make(chan struct{})
	go func() {
		e.Run()
		close(done)
	}()
	e.Stop()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("paused engine did not stop")
	}
	if e.Tick() != 0 {
		t.Errorf("expected no ticks while paused, got %d", e.Tick())
	}
}

func TestSimTime(t *testing.T) {
	tests := []struct {
		tick uint64
		want string
	}{
		{0, "Day 1, 0:00"},
		{65, "Day 1, 1:05"},
		{TicksPerDay*2 + 14*60 + 5, "Day 3, 14:05"},
	}
	for _, tt := range tests {
		if got := SimTime(tt.tick); got != tt.want {
			t.Errorf("SimTime(%d): expected %q, got %q", tt.tick, tt.want, got)
		}
	}
}
