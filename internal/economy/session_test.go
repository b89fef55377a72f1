package economy_test

import (
	"errors"
	"math"
	"sync"
	"testing"

	"go.uber.org/mock/gomock"

	"github.com/talgya/caravan-market/internal/economy"
	"github.com/talgya/caravan-market/internal/economy/mocks"
)

func testCatalog(t *testing.T) *economy.Catalog {
	t.Helper()
	c, err := economy.LoadCatalog([]economy.RawShopType{
		{
			Name:  "General",
			Items: []economy.RawItem{{ID: "1", BaseStock: "10", DemandVar: "3", Price: "100"}},
		},
		{
			Name:              "Blacksmith",
			RestockRate:       "1",
			RestockAmount:     "30",
			EconomicPowerVar:  "5",
			EventModifiersVar: "6",
			Items:             []economy.RawItem{{ID: "7", BaseStock: "10", DemandVar: "7", Price: "200"}},
		},
	})
	if err != nil {
		t.Fatalf("load catalog: %v", err)
	}
	return c
}

func TestBuyUpdatesSignals(t *testing.T) {
	ctrl := gomock.NewController(t)
	vars := mocks.NewMockVariableStore(ctrl)

	vars.EXPECT().Value(gomock.Any()).Return(float64(0)).AnyTimes()
	// 5 units at 382: economic power grows by 1% of 1910.
	vars.EXPECT().SetValue(5, float64(382*5)*0.01)
	// Half the base stock left: demand 50%.
	vars.EXPECT().SetValue(7, 50.0)

	e := economy.New(testCatalog(t), vars, economy.Options{})
	if err := e.Exec("SetShopType Blacksmith"); err != nil {
		t.Fatalf("exec: %v", err)
	}
	s := e.PrepareSession()
	if s.Shop != "Blacksmith" || !s.Bound() {
		t.Fatalf("expected a bound Blacksmith session, got %q bound=%v", s.Shop, s.Bound())
	}

	tr := s.Buy(7, 100, 5)
	if tr.UnitPrice != 382 || tr.Total != 1910 {
		t.Errorf("expected 5 x 382 = 1910, got %d x %d = %d", tr.Quantity, tr.UnitPrice, tr.Total)
	}
	if tr.Stock != 5 || e.Stock("Blacksmith", 7) != 5 {
		t.Errorf("expected 5 left, got %d", e.Stock("Blacksmith", 7))
	}
	if tr.EventID == "" {
		t.Error("expected the trade to be journaled")
	}
}

func TestSellLeavesSignals(t *testing.T) {
	ctrl := gomock.NewController(t)
	vars := mocks.NewMockVariableStore(ctrl)

	vars.EXPECT().Value(gomock.Any()).Return(float64(0)).AnyTimes()
	vars.EXPECT().SetValue(gomock.Any(), gomock.Any()).Times(0)

	e := economy.New(testCatalog(t), vars, economy.Options{})
	e.SetShopType("Blacksmith")
	s := e.PrepareSession()

	// Full stock: sell is capped by the buy price.
	tr := s.Sell(7, 100, 2)
	if tr.UnitPrice != 382 || tr.Quantity != 2 {
		t.Errorf("expected 2 sold at 382, got %+v", tr)
	}
	if got := e.Stock("Blacksmith", 7); got != 12 {
		t.Errorf("expected stock above base after sale, got %d", got)
	}
}

func TestBuyClampsDemand(t *testing.T) {
	vars := economy.NewMemoryStore()
	e := economy.New(testCatalog(t), vars, economy.Options{})
	s := e.PrepareSession()

	s.Sell(1, 100, 10) // 20 in stock
	s.Buy(1, 100, 1)
	if got := vars.Value(3); got != 0 {
		t.Errorf("expected demand floored at 0 while overstocked, got %v", got)
	}

	s.Buy(1, 100, 50)
	if got := vars.Value(3); got != 100 {
		t.Errorf("expected demand 100 once sold out, got %v", got)
	}
	if got := e.Stock("General", 1); got != 0 {
		t.Errorf("expected stock clamped at 0, got %d", got)
	}
}

func TestEconomicPowerAccumulates(t *testing.T) {
	vars := economy.NewMemoryStore()
	e := economy.New(testCatalog(t), vars, economy.Options{})
	e.SetShopType("Blacksmith")
	s := e.PrepareSession()

	s.Buy(7, 100, 1) // 382 at full stock
	first := vars.Value(5)
	if math.Abs(first-3.82) > 1e-9 {
		t.Fatalf("expected economic power 3.82, got %v", first)
	}
	// Demand (10%) and economic power now both raise the next price.
	tr := s.Buy(7, 100, 1)
	if tr.UnitPrice <= 382 {
		t.Errorf("expected the next unit to cost more, got %d", tr.UnitPrice)
	}
	if got := vars.Value(5); got <= first {
		t.Errorf("expected economic power to keep growing, got %v", got)
	}
}

func TestPrepareSessionFallsBack(t *testing.T) {
	e := economy.New(testCatalog(t), nil, economy.Options{})

	e.SetShopType("Tavern")
	s := e.PrepareSession()
	if s.Shop != economy.DefaultShopType || !s.Bound() {
		t.Errorf("expected fallback to General, got %q bound=%v", s.Shop, s.Bound())
	}

	s.Close()
	if got := e.SelectedShopType(); got != "" {
		t.Errorf("expected selection cleared, got %q", got)
	}
	if s := e.PrepareSession(); s.Shop != economy.DefaultShopType {
		t.Errorf("expected General without a selection, got %q", s.Shop)
	}
}

func TestUnboundSession(t *testing.T) {
	c, err := economy.LoadCatalog([]economy.RawShopType{{Name: "Blacksmith", Items: []economy.RawItem{{ID: "7"}}}})
	if err != nil {
		t.Fatal(err)
	}
	e := economy.New(c, nil, economy.Options{})
	e.SetShopType("Tavern")
	s := e.PrepareSession()

	if s.Bound() {
		t.Fatal("expected no shop type to bind")
	}
	if q := s.Quote(7, 40); q.Buy != 40 || q.Sell != 40 {
		t.Errorf("expected base price quotes, got %+v", q)
	}
	if tr := s.Buy(7, 40, 1); tr.Quantity != 0 {
		t.Errorf("expected no trade, got %+v", tr)
	}
}

func TestTradeNoOps(t *testing.T) {
	e := economy.New(testCatalog(t), nil, economy.Options{})
	s := e.PrepareSession()

	if tr := s.Buy(404, 100, 1); tr.Quantity != 0 {
		t.Errorf("expected unknown item to trade nothing, got %+v", tr)
	}
	if tr := s.Sell(1, 100, 0); tr.Quantity != 0 {
		t.Errorf("expected zero quantity to trade nothing, got %+v", tr)
	}
	if got := e.Stats().Trades; got != 0 {
		t.Errorf("expected no trades counted, got %d", got)
	}
	if got := len(e.Events(0)); got != 0 {
		t.Errorf("expected an empty journal, got %d", got)
	}
}

func TestSessionItems(t *testing.T) {
	e := economy.New(testCatalog(t), nil, economy.Options{})
	e.SetShopType("Blacksmith")
	items := e.PrepareSession().Items()

	if len(items) != 1 || items[0].ItemID != 7 || !items[0].Known {
		t.Fatalf("expected item 7, got %+v", items)
	}
	// 200 * (1 + 1) * (1 + 10/11)
	if items[0].Buy != 764 {
		t.Errorf("expected 764, got %d", items[0].Buy)
	}
}

func TestExec(t *testing.T) {
	e := economy.New(testCatalog(t), nil, economy.Options{})

	if err := e.Exec("SetShopType Traveling  Merchant"); err != nil {
		t.Fatal(err)
	}
	if got := e.SelectedShopType(); got != "Traveling Merchant" {
		t.Errorf("expected multi-word name, got %q", got)
	}

	e.PrepareSession().Buy(1, 100, 4)
	if err := e.Exec("RestockShops"); err != nil {
		t.Fatal(err)
	}
	if got := e.Stock("General", 1); got != 9 {
		t.Errorf("expected 6 + 3 after restock, got %d", got)
	}

	tests := []struct {
		line string
		want error
	}{
		{"", economy.ErrUnknownCommand},
		{"OpenShop", economy.ErrUnknownCommand},
		{"SetShopType", economy.ErrMissingArgument},
	}
	for _, tt := range tests {
		if err := e.Exec(tt.line); !errors.Is(err, tt.want) {
			t.Errorf("Exec(%q): expected %v, got %v", tt.line, tt.want, err)
		}
	}
}

func TestEventsDrain(t *testing.T) {
	e := economy.New(testCatalog(t), nil, economy.Options{})
	s := e.PrepareSession()
	s.Buy(1, 100, 1)
	s.Sell(1, 100, 1)

	got := e.DrainEvents()
	if len(got) != 2 || got[0].Kind != economy.EventBuy || got[1].Kind != economy.EventSell {
		t.Fatalf("expected buy then sell, got %+v", got)
	}
	if again := e.DrainEvents(); len(again) != 0 {
		t.Errorf("expected nothing pending, got %d", len(again))
	}
	if recent := e.Events(1); len(recent) != 1 || recent[0].Kind != economy.EventSell {
		t.Errorf("expected the newest event, got %+v", recent)
	}
}

func TestTradeTotalsSaturate(t *testing.T) {
	vars := economy.NewMemoryStore()
	e := economy.New(testCatalog(t), vars, economy.Options{})

	buy := e.OpenSession("Blacksmith").Buy(7, 100, math.MaxInt/100)
	if buy.UnitPrice != 382 || buy.Total != 1<<53 {
		t.Errorf("expected total capped at 2^53, got %d x %d = %d", buy.Quantity, buy.UnitPrice, buy.Total)
	}
	if got := vars.Value(5); got <= 0 {
		t.Errorf("expected economic power to grow, got %v", got)
	}
	if got := e.Stock("Blacksmith", 7); got != 0 {
		t.Errorf("expected stock 0, got %d", got)
	}

	e = economy.New(testCatalog(t), economy.NewMemoryStore(), economy.Options{})
	sell := e.OpenSession("Blacksmith").Sell(7, 100, math.MaxInt)
	if sell.Stock != math.MaxInt || e.Stock("Blacksmith", 7) != math.MaxInt {
		t.Errorf("expected stock to saturate at MaxInt, got %d", sell.Stock)
	}
	if sell.Total != 1<<53 {
		t.Errorf("expected total capped at 2^53, got %d", sell.Total)
	}
}

func TestConcurrentTradesAndTicks(t *testing.T) {
	const (
		ticks   = 20
		buyers  = 5  // 2 buys each: never more than the base stock of 10
		sellers = 10 // 4 sells each
	)
	e := economy.New(testCatalog(t), economy.NewMemoryStore(), economy.Options{})
	shops := map[string]int{"General": 1, "Blacksmith": 7}

	var wg sync.WaitGroup
	for shop, item := range shops {
		for i := 0; i < buyers; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				s := e.OpenSession(shop)
				for j := 0; j < 2; j++ {
					if tr := s.Buy(item, 100, 1); tr.Stock < 0 {
						t.Errorf("%s: negative stock %d", shop, tr.Stock)
					}
				}
			}()
		}
		for i := 0; i < sellers; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				s := e.OpenSession(shop)
				for j := 0; j < 4; j++ {
					s.Sell(item, 100, 1)
				}
			}()
		}
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		for tick := uint64(1); tick <= ticks; tick++ {
			e.Tick(tick)
		}
	}()

	done := make(chan struct{})
	var snaps sync.WaitGroup
	snaps.Add(1)
	go func() {
		defer snaps.Done()
		for {
			select {
			case <-done:
				return
			default:
			}
			for shop, ss := range e.Snapshot().Shops {
				for id, n := range ss.Stock {
					if n < 0 {
						t.Errorf("%s item %d: negative stock %d in snapshot", shop, id, n)
					}
				}
			}
		}
	}()

	wg.Wait()
	close(done)
	snaps.Wait()

	// Both shop types restock 3 units every tick at rate 1.
	want := 10 - buyers*2 + sellers*4 + ticks*3
	for shop, item := range shops {
		if got := e.Stock(shop, item); got != want {
			t.Errorf("%s: expected stock %d, got %d", shop, want, got)
		}
	}
	if got := e.Stats().Trades; got != int64(len(shops)*(buyers*2+sellers*4)) {
		t.Errorf("expected every trade counted, got %d", got)
	}
}
