package economy

import (
	"encoding/json"
	"testing"

	"pgregory.net/rapid"
)

func TestRestoreMissingState(t *testing.T) {
	e, _ := newTestEconomy(t, Options{})
	e.ledger.Set("General", 1, 2)
	e.sched.SetTimer("General", 2)

	e.Restore(State{})

	if got := e.Stock("General", 1); got != 10 {
		t.Errorf("expected base stock 10, got %d", got)
	}
	if got := e.Timer("General"); got != 0 {
		t.Errorf("expected timer 0, got %d", got)
	}
}

func TestRestorePartialState(t *testing.T) {
	e, _ := newTestEconomy(t, Options{})

	e.Restore(State{Shops: map[string]ShopState{
		"General": {Timer: 1, Stock: map[int]int{1: 3, 99: 5}},
		"Tavern":  {Timer: 4, Stock: map[int]int{1: 1}},
	}})

	if got := e.Stock("General", 1); got != 3 {
		t.Errorf("expected saved stock 3, got %d", got)
	}
	if got := e.Stock("General", 2); got != 4 {
		t.Errorf("expected unsaved item at base stock 4, got %d", got)
	}
	if got := e.Timer("General"); got != 1 {
		t.Errorf("expected saved timer 1, got %d", got)
	}
	if got := e.Stock("Blacksmith", 7); got != 10 {
		t.Errorf("expected unsaved shop at base stock, got %d", got)
	}

	snap := e.Snapshot()
	if _, ok := snap.Shops["Tavern"]; ok {
		t.Error("expected unknown shop type to be dropped")
	}
	if _, ok := snap.Shops["General"].Stock[99]; ok {
		t.Error("expected unknown item to be dropped")
	}
}

func TestSnapshotRoundTrip(t *testing.T) {
	c := mustCatalog(t, sampleRaw())
	rapid.Check(t, func(t *rapid.T) {
		src := New(c, nil, Options{})
		for _, name := range c.Names() {
			st, _ := c.Get(name)
			src.sched.SetTimer(name, rapid.IntRange(0, st.RestockRate-1).Draw(t, name+" timer"))
			for _, it := range st.Items {
				src.ledger.Set(name, it.ID, rapid.IntRange(0, 500).Draw(t, name+" stock"))
			}
		}
		src.sched.SetGlobalTimer(rapid.IntRange(0, 10).Draw(t, "global"))

		data, err := json.Marshal(src.Snapshot())
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		var s State
		if err := json.Unmarshal(data, &s); err != nil {
			t.Fatalf("unmarshal: %v", err)
		}

		dst := New(c, nil, Options{})
		dst.Restore(s)
		for _, name := range c.Names() {
			st, _ := c.Get(name)
			if dst.Timer(name) != src.Timer(name) {
				t.Fatalf("%s timer: expected %d, got %d", name, src.Timer(name), dst.Timer(name))
			}
			for _, it := range st.Items {
				if dst.Stock(name, it.ID) != src.Stock(name, it.ID) {
					t.Fatalf("%s item %d: expected %d, got %d", name, it.ID, src.Stock(name, it.ID), dst.Stock(name, it.ID))
				}
			}
		}
		if dst.sched.GlobalTimer() != src.sched.GlobalTimer() {
			t.Fatalf("global timer: expected %d, got %d", src.sched.GlobalTimer(), dst.sched.GlobalTimer())
		}
	})
}
