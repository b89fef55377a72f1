package economy

import "log/slog"

// State is the persisted economy: per shop type its restock timer and the
// stock of each item. It is plain data the host can snapshot in any format.
type State struct {
	Shops       map[string]ShopState `json:"shops"`
	GlobalTimer int                  `json:"global_timer,omitempty"`
}

// ShopState is one shop type's persisted ledger and timer.
type ShopState struct {
	Timer int         `json:"timer"`
	Stock map[int]int `json:"stock"`
}

// Snapshot copies the current ledger and timers.
func (e *Economy) Snapshot() State {
	s := State{Shops: make(map[string]ShopState, e.catalog.Len())}
	for _, name := range e.catalog.Names() {
		e.withShop(name, func(st *ShopType) {
			ss := ShopState{
				Timer: e.sched.Timer(name),
				Stock: make(map[int]int, len(st.Items)),
			}
			for _, it := range st.Items {
				ss.Stock[it.ID] = e.ledger.Stock(name, it.ID)
			}
			s.Shops[name] = ss
		})
	}
	e.globalMu.Lock()
	s.GlobalTimer = e.sched.GlobalTimer()
	e.globalMu.Unlock()
	return s
}

// Restore loads a snapshot. Shop types and items missing from it start at
// base stock with a zero timer, so saves made before a shop type existed
// still load. Entries the catalog no longer has are dropped.
func (e *Economy) Restore(s State) {
	for name := range s.Shops {
		if _, ok := e.catalog.Get(name); !ok {
			slog.Warn("dropping saved state of unknown shop type", "shop", name)
		}
	}

	for _, name := range e.catalog.Names() {
		saved, found := s.Shops[name]
		e.withShop(name, func(st *ShopType) {
			e.sched.SetTimer(name, saved.Timer)
			for _, it := range st.Items {
				v, ok := saved.Stock[it.ID]
				if !found || !ok {
					v = it.BaseStock
				}
				e.ledger.Set(name, it.ID, v)
			}
			for id := range saved.Stock {
				if _, ok := st.Item(id); !ok {
					slog.Warn("dropping saved stock of unknown item", "shop", name, "item", id)
				}
			}
		})
	}

	e.globalMu.Lock()
	e.sched.SetGlobalTimer(s.GlobalTimer)
	e.globalMu.Unlock()
}
