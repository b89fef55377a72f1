// Package economy implements the caravan shop economy: per-location catalogs,
// a stock ledger mutated by trades, scarcity-driven buy/sell pricing and the
// restock timers advanced once per game tick.
package economy

import (
	"errors"
	"math"
	"strconv"
	"strings"
)

// DefaultShopType is used when no shop type was selected, or the selected
// one is not configured.
const DefaultShopType = "General"

// Designer defaults for fields left empty in the catalog.
const (
	defaultRestockRate       = 1
	defaultRestockAmount     = 30
	defaultEconomicPowerVar  = 1
	defaultEventModifiersVar = 2
	defaultBaseStock         = 10
	defaultDemandVar         = 3
)

// RawItem is one designer-authored item record. All fields are uncoerced
// strings; empty means "use the default".
type RawItem struct {
	ID        string `json:"id"`
	BaseStock string `json:"baseStock"`
	DemandVar string `json:"demandVar"`
	Price     string `json:"price"`
}

// RawShopType is one designer-authored shop type record.
type RawShopType struct {
	Name               string    `json:"name"`
	Items              []RawItem `json:"items"`
	RestockRate        string    `json:"restockRate"`
	RestockAmount      string    `json:"restockAmount"`
	EconomicPowerVar   string    `json:"economicPowerVar"`
	EventModifiersVar  string    `json:"eventModifiersVar"`
	RestockTimerVar    string    `json:"restockTimerVar"`
	RestockModifierVar string    `json:"restockModifierVar"`
}

// Item is the immutable configuration of one purchasable item.
type Item struct {
	ID        int `json:"id"`
	BaseStock int `json:"base_stock"` // nominal full stock
	DemandVar int `json:"demand_var"`
	Price     int `json:"price"` // host item-database price, 0 if the host supplies it
}

// ShopType is the immutable configuration of one named catalog entry.
type ShopType struct {
	Name               string `json:"name"`
	Items              []Item `json:"items"` // display order
	RestockRate        int    `json:"restock_rate"`
	RestockAmount      int    `json:"restock_amount"` // percent of base stock per restock
	EconomicPowerVar   int    `json:"economic_power_var"`
	EventModifiersVar  int    `json:"event_modifiers_var"`
	RestockTimerVar    int    `json:"restock_timer_var,omitempty"`
	RestockModifierVar int    `json:"restock_modifier_var,omitempty"`

	index map[int]int
}

// Item returns the configured item with the given id.
func (st *ShopType) Item(id int) (Item, bool) {
	if st == nil {
		return Item{}, false
	}
	i, ok := st.index[id]
	if !ok {
		return Item{}, false
	}
	return st.Items[i], true
}

// Catalog holds every successfully loaded shop type.
type Catalog struct {
	types map[string]*ShopType
	order []string
}

// Get looks up a shop type by name.
func (c *Catalog) Get(name string) (*ShopType, bool) {
	if c == nil {
		return nil, false
	}
	st, ok := c.types[name]
	return st, ok
}

// Names returns shop type names in load order.
func (c *Catalog) Names() []string {
	if c == nil {
		return nil
	}
	out := make([]string, len(c.order))
	copy(out, c.order)
	return out
}

// Len returns the number of loaded shop types.
func (c *Catalog) Len() int {
	if c == nil {
		return 0
	}
	return len(c.order)
}

// LoadCatalog coerces designer records into a Catalog. A record that fails
// validation is left out and reported as a *ConfigError; the returned
// catalog always holds every valid record, and the error joins all failures.
func LoadCatalog(raw []RawShopType) (*Catalog, error) {
	c := &Catalog{types: make(map[string]*ShopType, len(raw))}
	var errs []error

	for _, r := range raw {
		st, err := parseShopType(r)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if _, dup := c.types[st.Name]; dup {
			errs = append(errs, &ConfigError{Shop: st.Name, Field: "name", Reason: "is duplicated"})
			continue
		}
		c.types[st.Name] = st
		c.order = append(c.order, st.Name)
	}

	return c, errors.Join(errs...)
}

func parseShopType(r RawShopType) (*ShopType, error) {
	name := strings.TrimSpace(r.Name)
	if name == "" {
		return nil, &ConfigError{Field: "name", Reason: "is empty"}
	}

	st := &ShopType{Name: name, index: make(map[int]int, len(r.Items))}
	fields := []struct {
		field string
		raw   string
		def   int
		min   int
		dst   *int
	}{
		{"restockRate", r.RestockRate, defaultRestockRate, 1, &st.RestockRate},
		{"restockAmount", r.RestockAmount, defaultRestockAmount, 0, &st.RestockAmount},
		{"economicPowerVar", r.EconomicPowerVar, defaultEconomicPowerVar, 0, &st.EconomicPowerVar},
		{"eventModifiersVar", r.EventModifiersVar, defaultEventModifiersVar, 0, &st.EventModifiersVar},
		{"restockTimerVar", r.RestockTimerVar, 0, 0, &st.RestockTimerVar},
		{"restockModifierVar", r.RestockModifierVar, 0, 0, &st.RestockModifierVar},
	}
	for _, f := range fields {
		v, err := parseInt(f.raw, f.def, false)
		if err != nil {
			return nil, &ConfigError{Shop: name, Field: f.field, Reason: err.Error()}
		}
		if v < f.min {
			return nil, &ConfigError{Shop: name, Field: f.field, Reason: "must be at least " + strconv.Itoa(f.min)}
		}
		*f.dst = v
	}
	if st.RestockAmount > 100 {
		return nil, &ConfigError{Shop: name, Field: "restockAmount", Reason: "must be at most 100"}
	}

	for _, ri := range r.Items {
		it, err := parseItem(name, ri)
		if err != nil {
			return nil, err
		}
		if _, dup := st.index[it.ID]; dup {
			return nil, &ConfigError{Shop: name, Item: ri.ID, Field: "id", Reason: "is duplicated"}
		}
		st.index[it.ID] = len(st.Items)
		st.Items = append(st.Items, it)
	}

	return st, nil
}

func parseItem(shop string, ri RawItem) (Item, error) {
	var it Item
	fields := []struct {
		field    string
		raw      string
		def      int
		required bool
		dst      *int
	}{
		{"id", ri.ID, 0, true, &it.ID},
		{"baseStock", ri.BaseStock, defaultBaseStock, false, &it.BaseStock},
		{"demandVar", ri.DemandVar, defaultDemandVar, false, &it.DemandVar},
		{"price", ri.Price, 0, false, &it.Price},
	}
	for _, f := range fields {
		v, err := parseInt(f.raw, f.def, f.required)
		if err != nil {
			return Item{}, &ConfigError{Shop: shop, Item: ri.ID, Field: f.field, Reason: err.Error()}
		}
		if v < 0 {
			return Item{}, &ConfigError{Shop: shop, Item: ri.ID, Field: f.field, Reason: "must not be negative"}
		}
		*f.dst = v
	}
	return it, nil
}

var (
	errRequired   = errors.New("is required")
	errNotNumeric = errors.New("is not numeric")
	errNotInteger = errors.New("is not a whole number")
)

// parseInt coerces a designer string to an integer. Integral float spellings
// such as "10.0" are accepted; NaN, infinities and fractions are not.
func parseInt(raw string, def int, required bool) (int, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		if required {
			return 0, errRequired
		}
		return def, nil
	}
	if v, err := strconv.Atoi(s); err == nil {
		return v, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, errNotNumeric
	}
	if f != math.Trunc(f) || math.Abs(f) > math.MaxInt32 {
		return 0, errNotInteger
	}
	return int(f), nil
}
