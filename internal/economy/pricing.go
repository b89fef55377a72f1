package economy

import "math"

// maxPrice caps quotes so extreme signals cannot overflow an int.
const maxPrice = 1 << 53

// Signals are the external multipliers read for one quote.
type Signals struct {
	Demand         float64 `json:"demand"`
	EconomicPower  float64 `json:"economic_power"`
	EventModifiers float64 `json:"event_modifiers"`
}

// NeutralSignals leaves base prices scaled only by stock.
func NeutralSignals() Signals {
	return Signals{Demand: 1, EconomicPower: 1, EventModifiers: 1}
}

// normalized replaces each missing (zero or non-finite) signal with 1.
func (s Signals) normalized() Signals {
	fix := func(v float64) float64 {
		if v == 0 || !finite(v) {
			return 1
		}
		return v
	}
	return Signals{
		Demand:         fix(s.Demand),
		EconomicPower:  fix(s.EconomicPower),
		EventModifiers: fix(s.EventModifiers),
	}
}

// ReadSignals resolves the variables bound to an item of a shop type.
func ReadSignals(vars VariableStore, st *ShopType, it Item) Signals {
	s := Signals{Demand: signal(vars, it.DemandVar)}
	if st != nil {
		s.EconomicPower = signal(vars, st.EconomicPowerVar)
		s.EventModifiers = signal(vars, st.EventModifiersVar)
	}
	return s.normalized()
}

// StockModifier rises from 1 towards 11 as stock runs out.
func StockModifier(stock int) float64 {
	return 1 + 10/float64(max(0, stock)+1)
}

// InverseStockModifier rises as stock falls below base stock. The
// denominator is floored at 1 because stock may exceed base stock after
// restocking.
func InverseStockModifier(stock, baseStock int) float64 {
	d := max(1, baseStock-max(0, stock)+1)
	return 1 + 10/float64(d)
}

// BuyPrice is what the shop charges the player for one unit.
func BuyPrice(basePrice, stock int, s Signals) int {
	s = s.normalized()
	p := float64(basePrice) * (s.Demand + s.EconomicPower) * s.EventModifiers * StockModifier(stock)
	return toPrice(p)
}

// SellPrice is what the shop pays the player for one unit. It never exceeds
// BuyPrice for the same inputs, so an instant buy-then-sell cannot profit.
func SellPrice(basePrice, stock, baseStock int, s Signals) int {
	s = s.normalized()
	location := math.Max(1, s.Demand+s.EconomicPower)
	p := float64(basePrice) * (1 / location) * s.EventModifiers * InverseStockModifier(stock, baseStock)
	return min(toPrice(p), BuyPrice(basePrice, stock, s))
}

// Quote is a priced item as shown to the player.
type Quote struct {
	ItemID  int     `json:"item_id"`
	Stock   int     `json:"stock"`
	Buy     int     `json:"buy"`
	Sell    int     `json:"sell"`
	Known   bool    `json:"known"`
	Signals Signals `json:"signals"`
}

// QuoteItem prices an item of a shop type at the given stock. Items not
// configured for the shop are quoted at their base price with stock 0.
func QuoteItem(st *ShopType, vars VariableStore, itemID, basePrice, stock int) Quote {
	it, ok := st.Item(itemID)
	if !ok {
		p := max(0, basePrice)
		return Quote{ItemID: itemID, Buy: p, Sell: p, Signals: NeutralSignals()}
	}
	s := ReadSignals(vars, st, it)
	return Quote{
		ItemID:  itemID,
		Stock:   stock,
		Buy:     BuyPrice(basePrice, stock, s),
		Sell:    SellPrice(basePrice, stock, it.BaseStock, s),
		Known:   true,
		Signals: s,
	}
}

func toPrice(p float64) int {
	if math.IsNaN(p) || p <= 0 {
		return 0
	}
	return int(math.Min(roundHalfUp(p), maxPrice))
}

// roundHalfUp rounds .5 towards positive infinity.
func roundHalfUp(x float64) float64 {
	return math.Floor(x + 0.5)
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
