package economy

import (
	"fmt"
	"log/slog"
	"strings"
)

// RestockMode selects how restock timers are kept.
type RestockMode uint8

const (
	// RestockPerShop keeps one timer per shop type, each with its own rate.
	RestockPerShop RestockMode = iota
	// RestockGlobal keeps a single timer that restocks every shop type.
	RestockGlobal
)

func (m RestockMode) String() string {
	switch m {
	case RestockPerShop:
		return "shop"
	case RestockGlobal:
		return "global"
	default:
		return "unknown"
	}
}

// ParseRestockMode accepts "shop" or "global".
func ParseRestockMode(s string) (RestockMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "shop":
		return RestockPerShop, nil
	case "global":
		return RestockGlobal, nil
	default:
		return 0, fmt.Errorf("restock mode %q: want shop or global", s)
	}
}

// Scheduler owns the restock timers. Each timer counts ticks in
// [0, threshold) and restocks its shop type when it reaches the threshold.
// Like Ledger it is not safe for concurrent use.
type Scheduler struct {
	catalog    *Catalog
	ledger     *Ledger
	vars       VariableStore
	mode       RestockMode
	globalRate int

	timers map[string]*restockTimer
	global restockTimer
}

type restockTimer struct {
	ticks int
}

// NewScheduler creates a zeroed timer for every configured shop type.
// globalRate is only used in RestockGlobal mode and is floored at 1.
func NewScheduler(c *Catalog, l *Ledger, vars VariableStore, mode RestockMode, globalRate int) *Scheduler {
	s := &Scheduler{
		catalog:    c,
		ledger:     l,
		vars:       vars,
		mode:       mode,
		globalRate: max(1, globalRate),
		timers:     make(map[string]*restockTimer, c.Len()),
	}
	for _, name := range c.Names() {
		s.timers[name] = &restockTimer{}
	}
	return s
}

// Mode reports the timer mode.
func (s *Scheduler) Mode() RestockMode { return s.mode }

// Ensure creates a zero timer for a configured shop type that has none yet.
func (s *Scheduler) Ensure(shop string) {
	if _, ok := s.timers[shop]; ok {
		return
	}
	if _, ok := s.catalog.Get(shop); ok {
		s.timers[shop] = &restockTimer{}
	}
}

// Timer returns the current tick count of a shop type's timer.
func (s *Scheduler) Timer(shop string) int {
	if t, ok := s.timers[shop]; ok {
		return t.ticks
	}
	return 0
}

// SetTimer restores a shop type's timer. Negative values become 0.
func (s *Scheduler) SetTimer(shop string, ticks int) {
	if t, ok := s.timers[shop]; ok {
		t.ticks = max(0, ticks)
	}
}

// GlobalTimer returns the single timer used in RestockGlobal mode.
func (s *Scheduler) GlobalTimer() int { return s.global.ticks }

// SetGlobalTimer restores the global timer.
func (s *Scheduler) SetGlobalTimer(ticks int) { s.global.ticks = max(0, ticks) }

// Threshold is the effective restock interval of a shop type: the bound
// override variable when it holds a positive value, else the restock rate.
func (s *Scheduler) Threshold(st *ShopType) float64 {
	if st.RestockTimerVar > 0 && s.vars != nil {
		if v := s.vars.Value(st.RestockTimerVar); v > 0 && finite(v) {
			return v
		}
	}
	return float64(st.RestockRate)
}

// Advance moves a shop type's timer forward by one tick. When the timer
// reaches its threshold the shop type is restocked and the timer resets to
// 0. It reports whether a restock happened and the units it added.
func (s *Scheduler) Advance(shop string) (bool, int) {
	t, ok := s.timers[shop]
	if !ok {
		return false, 0
	}
	st, ok := s.catalog.Get(shop)
	if !ok {
		return false, 0
	}
	t.ticks++
	if float64(t.ticks) < s.Threshold(st) {
		return false, 0
	}
	t.ticks = 0
	return true, s.Restock(shop)
}

// AdvanceGlobal moves the global timer forward by one tick and reports
// whether it crossed the global rate. The caller restocks every shop type.
func (s *Scheduler) AdvanceGlobal() bool {
	s.global.ticks++
	if s.global.ticks < s.globalRate {
		return false
	}
	s.global.ticks = 0
	return true
}

// Restock replenishes one shop type scaled by its restock modifier,
// without touching its timer. It returns the units added.
func (s *Scheduler) Restock(shop string) int {
	st, ok := s.catalog.Get(shop)
	if !ok {
		return 0
	}
	modifier := s.RestockModifier(st)
	added := s.ledger.Restock(shop, modifier)
	slog.Debug("shop restocked", "shop", shop, "modifier", modifier, "units", added)
	return added
}

// RestockModifier reads the shop type's restock multiplier. An unbound or
// unset variable (0, NaN, Inf) means 1.
func (s *Scheduler) RestockModifier(st *ShopType) float64 {
	if st.RestockModifierVar <= 0 || s.vars == nil {
		return 1
	}
	v := s.vars.Value(st.RestockModifierVar)
	if v == 0 || !finite(v) {
		return 1
	}
	return v
}
