package economy

import "math"

// Ledger owns the current stock of every (shop type, item) pair. Stock never
// goes below zero and has no upper bound. A Ledger is not safe for
// concurrent use; Economy serializes access per shop type.
type Ledger struct {
	catalog *Catalog
	stock   map[string]map[int]int
}

// NewLedger initializes every configured item at its base stock.
func NewLedger(c *Catalog) *Ledger {
	l := &Ledger{catalog: c, stock: make(map[string]map[int]int, c.Len())}
	for _, name := range c.Names() {
		st, _ := c.Get(name)
		items := make(map[int]int, len(st.Items))
		for _, it := range st.Items {
			items[it.ID] = it.BaseStock
		}
		l.stock[name] = items
	}
	return l
}

// Stock returns the current stock, or 0 for an unknown pair.
func (l *Ledger) Stock(shop string, itemID int) int {
	return l.stock[shop][itemID]
}

// Adjust applies delta to the stock, clamping at zero and saturating at
// math.MaxInt, and returns the new value. Unknown pairs are left alone and report 0.
func (l *Ledger) Adjust(shop string, itemID, delta int) int {
	items, ok := l.stock[shop]
	if !ok {
		return 0
	}
	cur, ok := items[itemID]
	if !ok {
		return 0
	}
	var next int
	if delta > 0 && cur > math.MaxInt-delta {
		next = math.MaxInt
	} else {
		next = max(0, cur+delta)
	}
	items[itemID] = next
	return next
}

// Set overwrites the stock of a known pair, clamping at zero.
func (l *Ledger) Set(shop string, itemID, value int) {
	items, ok := l.stock[shop]
	if !ok {
		return
	}
	if _, ok := items[itemID]; ok {
		items[itemID] = max(0, value)
	}
}

// Restock adds round(baseStock × restockAmount% × modifier) to every item of
// the shop type. It returns the total units added.
func (l *Ledger) Restock(shop string, modifier float64) int {
	st, ok := l.catalog.Get(shop)
	if !ok {
		return 0
	}
	added := 0
	for _, it := range st.Items {
		amount := RestockAmount(it.BaseStock, st.RestockAmount, modifier)
		before := l.Stock(shop, it.ID)
		added += l.Adjust(shop, it.ID, amount) - before
	}
	return added
}

// RestockAmount is the per-item increment of one restock cycle.
func RestockAmount(baseStock, percent int, modifier float64) int {
	if !finite(modifier) {
		modifier = 1
	}
	n := roundHalfUp(float64(baseStock) * (float64(percent) / 100) * modifier)
	return int(math.Max(-maxPrice, math.Min(n, maxPrice)))
}
