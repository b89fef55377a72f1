package economy

import (
	"math"

	"github.com/google/uuid"
)

// economicPowerRate is the share of each purchase's value added to the
// shop type's economic power signal.
const economicPowerRate = 0.01

// adder is implemented by stores that can increment a value atomically.
type adder interface {
	AddValue(key int, delta float64) float64
}

// AddValue increments a value and returns the result.
func (s *MemoryStore) AddValue(key int, delta float64) float64 {
	if key <= 0 {
		return 0
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] += delta
	return s.values[key]
}

// Session is one trading session bound to a shop type. Currency and the
// player's inventory belong to the host: trades return a receipt the host
// applies.
type Session struct {
	ID   string
	Shop string

	bound bool
	econ  *Economy
}

// Trade is the receipt of a buy or sell. A zero Quantity means nothing
// happened.
type Trade struct {
	Kind      EventKind `json:"kind"`
	Shop      string    `json:"shop"`
	ItemID    int       `json:"item_id"`
	Quantity  int       `json:"quantity"`
	UnitPrice int       `json:"unit_price"`
	Total     int       `json:"total"`
	Stock     int       `json:"stock"` // after the trade
	EventID   string    `json:"event_id,omitempty"`
}

// PrepareSession binds a session to the selected shop type, or to
// DefaultShopType when nothing usable was selected, and makes sure its
// restock timer exists. A session bound to no configured shop type quotes
// every item at its base price and trades nothing.
func (e *Economy) PrepareSession() *Session {
	return e.OpenSession(e.SelectedShopType())
}

// OpenSession binds a session to the named shop type without going through
// the selection, falling back to DefaultShopType like PrepareSession.
// Concurrent callers such as API handlers use it.
func (e *Economy) OpenSession(shop string) *Session {
	name, ok := e.ResolveShopType(shop)
	if ok {
		e.withShop(name, func(*ShopType) {
			e.sched.Ensure(name)
		})
	}
	return &Session{ID: uuid.NewString(), Shop: name, bound: ok, econ: e}
}

// Bound reports whether the session found a configured shop type.
func (s *Session) Bound() bool { return s.bound }

// Quote prices one item at the host-supplied base price.
func (s *Session) Quote(itemID, basePrice int) Quote {
	q := QuoteItem(nil, nil, itemID, basePrice, 0)
	s.econ.withShop(s.Shop, func(st *ShopType) {
		q = QuoteItem(st, s.econ.vars, itemID, basePrice, s.econ.ledger.Stock(s.Shop, itemID))
	})
	return q
}

// Items lists the shop's goods in display order, priced at their
// configured prices.
func (s *Session) Items() []Quote {
	v, _ := s.econ.View(s.Shop)
	return v.Items
}

// Buy sells qty units to the player. Stock drops by qty (never below 0),
// the shop's economic power grows by 1% of the purchase value and the
// item's demand is set to how depleted it now is, in percent.
func (s *Session) Buy(itemID, basePrice, qty int) Trade {
	var t Trade
	s.econ.withShop(s.Shop, func(st *ShopType) {
		it, ok := st.Item(itemID)
		if !ok || qty < 1 {
			return
		}
		vars := s.econ.vars
		price := BuyPrice(basePrice, s.econ.ledger.Stock(s.Shop, itemID), ReadSignals(vars, st, it))
		remaining := s.econ.ledger.Adjust(s.Shop, itemID, -qty)

		if st.EconomicPowerVar > 0 {
			addValue(vars, st.EconomicPowerVar, float64(price)*float64(qty)*economicPowerRate)
		}
		if it.DemandVar > 0 && it.BaseStock > 0 {
			vars.SetValue(it.DemandVar, Demand(it.BaseStock, remaining))
		}

		t = Trade{Kind: EventBuy, Shop: s.Shop, ItemID: itemID, Quantity: qty,
			UnitPrice: price, Total: tradeTotal(price, qty), Stock: remaining}
	})
	return s.econ.settle(t)
}

// Sell buys qty units from the player. Demand and economic power are not
// touched by sales.
func (s *Session) Sell(itemID, basePrice, qty int) Trade {
	var t Trade
	s.econ.withShop(s.Shop, func(st *ShopType) {
		it, ok := st.Item(itemID)
		if !ok || qty < 1 {
			return
		}
		stock := s.econ.ledger.Stock(s.Shop, itemID)
		price := SellPrice(basePrice, stock, it.BaseStock, ReadSignals(s.econ.vars, st, it))
		remaining := s.econ.ledger.Adjust(s.Shop, itemID, qty)

		t = Trade{Kind: EventSell, Shop: s.Shop, ItemID: itemID, Quantity: qty,
			UnitPrice: price, Total: tradeTotal(price, qty), Stock: remaining}
	})
	return s.econ.settle(t)
}

// Close ends the session and clears the shop type selection.
func (s *Session) Close() {
	s.econ.SetShopType("")
}

// Demand is the depletion of an item in percent of its base stock, within
// [0, 100].
func Demand(baseStock, remaining int) float64 {
	if baseStock <= 0 {
		return 0
	}
	d := 100 * float64(baseStock-remaining) / float64(baseStock)
	return math.Max(0, math.Min(100, d))
}

func (e *Economy) settle(t Trade) Trade {
	if t.Quantity == 0 {
		return t
	}
	e.trades.Add(1)
	ev := e.journal.record(Event{
		Tick:     e.lastTick.Load(),
		Kind:     t.Kind,
		Shop:     t.Shop,
		ItemID:   t.ItemID,
		Quantity: t.Quantity,
		Price:    t.UnitPrice,
	})
	t.EventID = ev.ID
	return t
}

// tradeTotal is price × qty, saturating at the price cap.
func tradeTotal(price, qty int) int {
	return toPrice(float64(price) * float64(qty))
}

func addValue(vars VariableStore, key int, delta float64) {
	if a, ok := vars.(adder); ok {
		a.AddValue(key, delta)
		return
	}
	vars.SetValue(key, vars.Value(key)+delta)
}
