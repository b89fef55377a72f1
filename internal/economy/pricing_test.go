package economy

import (
	"math"
	"testing"

	"pgregory.net/rapid"
)

func TestBuyPriceScenarios(t *testing.T) {
	tests := []struct {
		name  string
		base  int
		stock int
		sig   Signals
		want  int
	}{
		{"full stock", 100, 10, NeutralSignals(), 382},
		{"sold out", 100, 0, NeutralSignals(), 2200},
		{"missing signals default to 1", 100, 10, Signals{}, 382},
		{"demand only", 100, 10, Signals{Demand: 3}, 764},
		{"event sale", 100, 10, Signals{Demand: 1, EconomicPower: 1, EventModifiers: 0.5}, 191},
		{"NaN signal", 100, 0, Signals{Demand: math.NaN(), EconomicPower: 1, EventModifiers: 1}, 2200},
		{"negative signals clamp to 0", 100, 5, Signals{Demand: -5, EconomicPower: 1, EventModifiers: 1}, 0},
		{"negative stock treated as 0", 100, -4, NeutralSignals(), 2200},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := BuyPrice(tt.base, tt.stock, tt.sig); got != tt.want {
				t.Errorf("expected %d, got %d", tt.want, got)
			}
		})
	}
}

func TestSellPrice(t *testing.T) {
	// Full stock: 100 * 1/2 * (1 + 10/1) = 550, capped by buy price 382.
	if got := SellPrice(100, 10, 10, NeutralSignals()); got != 382 {
		t.Errorf("expected sell capped at 382, got %d", got)
	}
	// Half stock: 100 * 1/2 * (1 + 10/6) = 133.3.
	if got := SellPrice(100, 5, 10, NeutralSignals()); got != 133 {
		t.Errorf("expected 133, got %d", got)
	}
	// Overstocked after restock: denominator floored at 1, no negative price.
	if got := SellPrice(100, 25, 10, NeutralSignals()); got < 0 || got > BuyPrice(100, 25, NeutralSignals()) {
		t.Errorf("expected overstocked sell price within [0, buy], got %d", got)
	}
	// Location signals below 1 are floored at 1 in the sell denominator
	// (266.7), which leaves the buy price (53.3) as the cap.
	if got := SellPrice(100, 5, 10, Signals{Demand: 0.1, EconomicPower: 0.1, EventModifiers: 1}); got != 53 {
		t.Errorf("expected 53, got %d", got)
	}
}

func TestModifiers(t *testing.T) {
	if got := StockModifier(10); math.Abs(got-(1+10.0/11)) > 1e-12 {
		t.Errorf("expected 1.909..., got %f", got)
	}
	if got := StockModifier(0); got != 11 {
		t.Errorf("expected 11, got %f", got)
	}
	if got := InverseStockModifier(30, 10); got != 11 {
		t.Errorf("expected floored denominator to give 11, got %f", got)
	}
	if got := InverseStockModifier(0, 10); math.Abs(got-(1+10.0/11)) > 1e-12 {
		t.Errorf("expected 1+10/11, got %f", got)
	}
}

func TestQuoteUnknownItem(t *testing.T) {
	c := mustCatalog(t, sampleRaw())
	st, _ := c.Get("General")

	q := QuoteItem(st, NewMemoryStore(), 404, 75, 0)
	if q.Known {
		t.Error("expected unknown item")
	}
	if q.Buy != 75 || q.Sell != 75 || q.Stock != 0 {
		t.Errorf("expected base price fallback, got %+v", q)
	}
}

func TestReadSignalsPerSignalDefault(t *testing.T) {
	c := mustCatalog(t, sampleRaw())
	st, _ := c.Get("General")
	it, _ := st.Item(1)

	vars := NewMemoryStore()
	vars.SetValue(1, 4) // economic power
	vars.SetValue(3, 0) // demand explicitly zero

	s := ReadSignals(vars, st, it)
	if s.Demand != 1 || s.EconomicPower != 4 || s.EventModifiers != 1 {
		t.Errorf("expected {1 4 1}, got %+v", s)
	}
}

func genSignals() *rapid.Generator[Signals] {
	return rapid.Custom(func(t *rapid.T) Signals {
		return Signals{
			Demand:         rapid.Float64Range(-10, 200).Draw(t, "demand"),
			EconomicPower:  rapid.Float64Range(-10, 1e4).Draw(t, "economicPower"),
			EventModifiers: rapid.Float64Range(-2, 5).Draw(t, "eventModifiers"),
		}
	})
}

func TestPricesNonNegative(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		base := rapid.IntRange(0, 100000).Draw(t, "base")
		stock := rapid.IntRange(0, 10000).Draw(t, "stock")
		baseStock := rapid.IntRange(0, 10000).Draw(t, "baseStock")
		sig := genSignals().Draw(t, "signals")

		if p := BuyPrice(base, stock, sig); p < 0 {
			t.Fatalf("negative buy price %d", p)
		}
		if p := SellPrice(base, stock, baseStock, sig); p < 0 {
			t.Fatalf("negative sell price %d", p)
		}
	})
}

func TestSellNeverExceedsBuy(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		base := rapid.IntRange(0, 100000).Draw(t, "base")
		stock := rapid.IntRange(0, 10000).Draw(t, "stock")
		baseStock := rapid.IntRange(0, 10000).Draw(t, "baseStock")
		sig := genSignals().Draw(t, "signals")

		buy := BuyPrice(base, stock, sig)
		sell := SellPrice(base, stock, baseStock, sig)
		if sell > buy {
			t.Fatalf("sell %d exceeds buy %d", sell, buy)
		}
	})
}
