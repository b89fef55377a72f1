package economy

import (
	"log/slog"
	"sync"
	"sync/atomic"
)

// Options tune an Economy.
type Options struct {
	Mode       RestockMode
	GlobalRate int // ticks between restocks in RestockGlobal mode
}

// Economy is the context object tying catalog, ledger, restock timers and
// the host's variable store together. Each shop type's stock and timer sit
// behind their own mutex; operations on different shop types never contend.
type Economy struct {
	catalog *Catalog
	ledger  *Ledger
	sched   *Scheduler
	vars    VariableStore

	locks    map[string]*sync.Mutex
	globalMu sync.Mutex

	selMu    sync.Mutex
	selected string

	lastTick atomic.Uint64
	trades   atomic.Int64
	restocks atomic.Int64
	journal  journal
}

// New builds an Economy with every item at base stock and every timer at 0.
func New(c *Catalog, vars VariableStore, opts Options) *Economy {
	if c == nil {
		c = &Catalog{types: map[string]*ShopType{}}
	}
	if vars == nil {
		vars = NewMemoryStore()
	}
	l := NewLedger(c)
	e := &Economy{
		catalog: c,
		ledger:  l,
		sched:   NewScheduler(c, l, vars, opts.Mode, opts.GlobalRate),
		vars:    vars,
		locks:   make(map[string]*sync.Mutex, c.Len()),
	}
	for _, name := range c.Names() {
		e.locks[name] = &sync.Mutex{}
	}
	return e
}

// Catalog returns the loaded configuration.
func (e *Economy) Catalog() *Catalog { return e.catalog }

// Vars returns the host variable store the economy reads and writes.
func (e *Economy) Vars() VariableStore { return e.vars }

// Mode reports the restock timer mode.
func (e *Economy) Mode() RestockMode { return e.sched.Mode() }

// LastTick is the most recent tick passed to Tick.
func (e *Economy) LastTick() uint64 { return e.lastTick.Load() }

// withShop runs fn holding the shop type's lock. Unknown names have no
// state to guard and fn is not called.
func (e *Economy) withShop(name string, fn func(st *ShopType)) bool {
	mu, ok := e.locks[name]
	if !ok {
		return false
	}
	st, _ := e.catalog.Get(name)
	mu.Lock()
	defer mu.Unlock()
	fn(st)
	return true
}

// Tick advances restock timers by one tick. The host calls it once at the
// start of every tick, before any trade of that tick. It returns the number
// of shop types restocked.
func (e *Economy) Tick(tick uint64) int {
	e.lastTick.Store(tick)

	if e.sched.Mode() == RestockGlobal {
		e.globalMu.Lock()
		fired := e.sched.AdvanceGlobal()
		e.globalMu.Unlock()
		if !fired {
			return 0
		}
		return e.RestockAll()
	}

	restocked := 0
	for _, name := range e.catalog.Names() {
		var (
			fired bool
			added int
		)
		e.withShop(name, func(st *ShopType) {
			fired, added = e.sched.Advance(name)
		})
		if fired {
			restocked++
			e.restocks.Add(1)
			e.journal.record(Event{Tick: tick, Kind: EventRestock, Shop: name, Quantity: added})
		}
	}
	return restocked
}

// RestockAll replenishes every shop type immediately. Timers are left as
// they are. This backs the RestockShops command.
func (e *Economy) RestockAll() int {
	tick := e.lastTick.Load()
	n := 0
	for _, name := range e.catalog.Names() {
		var added int
		e.withShop(name, func(st *ShopType) {
			added = e.sched.Restock(name)
		})
		n++
		e.restocks.Add(1)
		e.journal.record(Event{Tick: tick, Kind: EventRestock, Shop: name, Quantity: added})
	}
	slog.Info("all shops restocked", "shops", n, "tick", tick)
	return n
}

// Stock reads the current stock of an item, 0 if unknown.
func (e *Economy) Stock(shop string, itemID int) int {
	var v int
	e.withShop(shop, func(*ShopType) {
		v = e.ledger.Stock(shop, itemID)
	})
	return v
}

// Timer reads a shop type's restock timer.
func (e *Economy) Timer(shop string) int {
	var v int
	e.withShop(shop, func(*ShopType) {
		v = e.sched.Timer(shop)
	})
	return v
}

// SetShopType selects the shop type for the next session.
func (e *Economy) SetShopType(name string) {
	e.selMu.Lock()
	e.selected = name
	e.selMu.Unlock()
}

// SelectedShopType returns the pending selection, empty if none.
func (e *Economy) SelectedShopType() string {
	e.selMu.Lock()
	defer e.selMu.Unlock()
	return e.selected
}

// ResolveShopType maps a requested name onto a configured shop type,
// falling back to DefaultShopType. The second result is false when neither
// is configured.
func (e *Economy) ResolveShopType(name string) (string, bool) {
	if name == "" {
		name = DefaultShopType
	}
	if _, ok := e.catalog.Get(name); ok {
		return name, true
	}
	if name != DefaultShopType {
		slog.Warn("unknown shop type, using default", "shop", name, "default", DefaultShopType)
		if _, ok := e.catalog.Get(DefaultShopType); ok {
			return DefaultShopType, true
		}
	}
	return DefaultShopType, false
}

// Stats summarizes activity since start.
type Stats struct {
	Shops    int    `json:"shops"`
	Trades   int64  `json:"trades"`
	Restocks int64  `json:"restocks"`
	LastTick uint64 `json:"last_tick"`
	Mode     string `json:"restock_mode"`
	Dropped  uint64 `json:"dropped_events"`
}

func (e *Economy) Stats() Stats {
	return Stats{
		Shops:    e.catalog.Len(),
		Trades:   e.trades.Load(),
		Restocks: e.restocks.Load(),
		LastTick: e.lastTick.Load(),
		Mode:     e.sched.Mode().String(),
		Dropped:  e.journal.droppedCount(),
	}
}

// Events returns up to limit of the most recent journal entries.
func (e *Economy) Events(limit int) []Event {
	return e.journal.recent(limit)
}

// DrainEvents returns journal entries recorded since the last drain, for
// the host to persist.
func (e *Economy) DrainEvents() []Event {
	return e.journal.drain()
}

// ShopView is a read-only listing of a shop type priced at each item's
// configured price.
type ShopView struct {
	Name        string  `json:"name"`
	Timer       int     `json:"timer"`
	Threshold   float64 `json:"threshold"`
	RestockRate int     `json:"restock_rate"`
	Items       []Quote `json:"items"`
}

// View prices every item of a shop type.
func (e *Economy) View(shop string) (ShopView, bool) {
	var v ShopView
	ok := e.withShop(shop, func(st *ShopType) {
		v = ShopView{
			Name:        st.Name,
			Timer:       e.sched.Timer(shop),
			Threshold:   e.sched.Threshold(st),
			RestockRate: st.RestockRate,
			Items:       make([]Quote, 0, len(st.Items)),
		}
		for _, it := range st.Items {
			v.Items = append(v.Items, QuoteItem(st, e.vars, it.ID, it.Price, e.ledger.Stock(shop, it.ID)))
		}
	})
	return v, ok
}
