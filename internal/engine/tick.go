// Package engine provides the tick loop that drives the shop economy.
package engine

import (
	"fmt"
	"log/slog"
	"math"
	"sync"
	"sync/atomic"
	"time"
)

// One tick is one game minute.
const (
	TicksPerHour = 60
	TicksPerDay  = 1440
)

// Engine drives the game clock forward. Callbacks run on the Run goroutine
// in the order OnTick, OnHour, OnDay.
type Engine struct {
	Interval time.Duration // base tick interval at speed 1

	// Callbacks, set before Run.
	OnTick func(tick uint64)
	OnHour func(tick uint64)
	OnDay  func(tick uint64)

	tick    atomic.Uint64
	running atomic.Bool

	mu    sync.Mutex
	speed float64
	stop  chan struct{}
}

// NewEngine creates an engine at tick 0, speed 1, one tick per second.
func NewEngine() *Engine {
	return &Engine{
		Interval: time.Second,
		speed:    1,
		stop:     make(chan struct{}),
	}
}

// Tick is the last tick processed.
func (e *Engine) Tick() uint64 { return e.tick.Load() }

// SetTick resumes the clock from a saved tick. Call before Run.
func (e *Engine) SetTick(t uint64) { e.tick.Store(t) }

// Speed is the clock multiplier; 0 means paused.
func (e *Engine) Speed() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.speed
}

// SetSpeed changes the multiplier. Negative or non-finite values pause.
func (e *Engine) SetSpeed(s float64) {
	if s < 0 || math.IsNaN(s) || math.IsInf(s, 0) {
		s = 0
	}
	e.mu.Lock()
	e.speed = s
	e.mu.Unlock()
	slog.Info("engine speed changed", "speed", s)
}

// Running reports whether Run is looping.
func (e *Engine) Running() bool { return e.running.Load() }

// Run starts the loop. Blocks until Stop is called.
func (e *Engine) Run() {
	e.running.Store(true)
	defer e.running.Store(false)
	slog.Info("engine started", "tick", e.Tick(), "speed", e.Speed())

	for {
		speed := e.Speed()
		if speed <= 0 {
			// Paused.
			if e.sleep(100 * time.Millisecond) {
				break
			}
			continue
		}

		start := time.Now()
		e.step()

		target := time.Duration(float64(e.Interval) / speed)
		if elapsed := time.Since(start); elapsed < target {
			if e.sleep(target - elapsed) {
				break
			}
		} else if e.stopped() {
			break
		}
	}

	slog.Info("engine stopped", "tick", e.Tick())
}

// Stop halts the loop after the current tick. Safe to call more than once.
func (e *Engine) Stop() {
	e.mu.Lock()
	defer e.mu.Unlock()
	select {
	case <-e.stop:
	default:
		close(e.stop)
	}
}

func (e *Engine) stopped() bool {
	select {
	case <-e.stop:
		return true
	default:
		return false
	}
}

// sleep waits for d and reports whether Stop was called meanwhile.
func (e *Engine) sleep(d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-e.stop:
		return true
	case <-t.C:
		return false
	}
}

// step advances the clock by one tick.
func (e *Engine) step() {
	tick := e.tick.Add(1)

	if e.OnTick != nil {
		e.OnTick(tick)
	}
	if tick%TicksPerHour == 0 && e.OnHour != nil {
		e.OnHour(tick)
	}
	if tick%TicksPerDay == 0 && e.OnDay != nil {
		e.OnDay(tick)
	}
}

// SimTime formats a tick as game time, e.g. "Day 3, 14:05".
func SimTime(tick uint64) string {
	minutes := tick % 60
	hours := (tick / TicksPerHour) % 24
	days := tick/TicksPerDay + 1
	return fmt.Sprintf("Day %d, %d:%02d", days, hours, minutes)
}
