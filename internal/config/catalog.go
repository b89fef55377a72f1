package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/invopop/jsonschema"
	"gopkg.in/yaml.v3"

	"github.com/talgya/caravan-market/internal/economy"
)

// Scalar is a designer-entered value that may be written as a string or a
// number. It keeps the raw text; the economy package coerces it.
type Scalar string

func (s *Scalar) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: expected a scalar", value.Line)
	}
	if value.ShortTag() == "!!null" {
		*s = ""
		return nil
	}
	*s = Scalar(value.Value)
	return nil
}

func (s *Scalar) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case bytes.Equal(data, []byte("null")):
		*s = ""
		return nil
	case len(data) > 0 && data[0] == '"':
		var str string
		if err := json.Unmarshal(data, &str); err != nil {
			return err
		}
		*s = Scalar(str)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("expected a string or number, got %s", data)
	}
	*s = Scalar(n.String())
	return nil
}

func (Scalar) JSONSchema() *jsonschema.Schema {
	return &jsonschema.Schema{
		OneOf: []*jsonschema.Schema{
			{Type: "integer"},
			{Type: "string", Pattern: `^\s*[0-9]*(\.0*)?\s*$`},
		},
	}
}

// ItemDoc is one item entry of a catalog file.
type ItemDoc struct {
	ID        Scalar `yaml:"id" json:"id" jsonschema:"title=Item id,description=Host item database id,required"`
	BaseStock Scalar `yaml:"baseStock,omitempty" json:"baseStock,omitempty" jsonschema:"title=Base stock,description=Nominal full stock (default 10)"`
	DemandVar Scalar `yaml:"demandVar,omitempty" json:"demandVar,omitempty" jsonschema:"title=Demand variable,description=Variable key holding this item's demand (default 3)"`
	Price     Scalar `yaml:"price,omitempty" json:"price,omitempty" jsonschema:"title=Base price,description=Price used by the demo host and API listings"`
}

// ShopTypeDoc is one shop type entry of a catalog file.
type ShopTypeDoc struct {
	Name               string    `yaml:"name" json:"name" jsonschema:"title=Shop type name,minLength=1,required"`
	Items              []ItemDoc `yaml:"items" json:"items" jsonschema:"description=Items in display order"`
	RestockRate        Scalar    `yaml:"restockRate,omitempty" json:"restockRate,omitempty" jsonschema:"description=Ticks between restocks (default 1)"`
	RestockAmount      Scalar    `yaml:"restockAmount,omitempty" json:"restockAmount,omitempty" jsonschema:"description=Percent of base stock added per restock (default 30)"`
	EconomicPowerVar   Scalar    `yaml:"economicPowerVar,omitempty" json:"economicPowerVar,omitempty" jsonschema:"description=Variable key of the economic power signal (default 1)"`
	EventModifiersVar  Scalar    `yaml:"eventModifiersVar,omitempty" json:"eventModifiersVar,omitempty" jsonschema:"description=Variable key of the event modifier signal (default 2)"`
	RestockTimerVar    Scalar    `yaml:"restockTimerVar,omitempty" json:"restockTimerVar,omitempty" jsonschema:"description=Variable key overriding the restock rate when positive"`
	RestockModifierVar Scalar    `yaml:"restockModifierVar,omitempty" json:"restockModifierVar,omitempty" jsonschema:"description=Variable key scaling the restock amount"`
}

// DriftDoc makes the host wobble one variable around 1 over time.
type DriftDoc struct {
	Var       int     `yaml:"var" json:"var" jsonschema:"description=Variable key to drive,minimum=1,required"`
	Amplitude float64 `yaml:"amplitude" json:"amplitude" jsonschema:"description=Maximum deviation from 1,minimum=0"`
	Frequency float64 `yaml:"frequency" json:"frequency" jsonschema:"description=Noise samples per tick,minimum=0"`
}

// CatalogFile is the designer-authored catalog document.
type CatalogFile struct {
	ShopTypes []ShopTypeDoc `yaml:"shop_types" json:"shop_types" jsonschema:"required"`
	Drift     []DriftDoc    `yaml:"drift,omitempty" json:"drift,omitempty"`
}

// Raw converts the document into uncoerced economy records.
func (f *CatalogFile) Raw() []economy.RawShopType {
	out := make([]economy.RawShopType, 0, len(f.ShopTypes))
	for _, d := range f.ShopTypes {
		rs := economy.RawShopType{
			Name:               d.Name,
			Items:              make([]economy.RawItem, 0, len(d.Items)),
			RestockRate:        string(d.RestockRate),
			RestockAmount:      string(d.RestockAmount),
			EconomicPowerVar:   string(d.EconomicPowerVar),
			EventModifiersVar:  string(d.EventModifiersVar),
			RestockTimerVar:    string(d.RestockTimerVar),
			RestockModifierVar: string(d.RestockModifierVar),
		}
		for _, it := range d.Items {
			rs.Items = append(rs.Items, economy.RawItem{
				ID:        string(it.ID),
				BaseStock: string(it.BaseStock),
				DemandVar: string(it.DemandVar),
				Price:     string(it.Price),
			})
		}
		out = append(out, rs)
	}
	return out
}

// ParseCatalogFile decodes a catalog document. format is "yaml" or "json".
func ParseCatalogFile(data []byte, format string) (*CatalogFile, error) {
	var f CatalogFile
	switch format {
	case "yaml", "yml":
		if err := yaml.Unmarshal(data, &f); err != nil {
			return nil, fmt.Errorf("decode yaml catalog: %w", err)
		}
	case "json":
		if err := json.Unmarshal(data, &f); err != nil {
			return nil, fmt.Errorf("decode json catalog: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported catalog format %q", format)
	}
	return &f, nil
}

// LoadCatalogFile reads a catalog file, picking the decoder by extension,
// and loads it. The returned catalog holds every valid shop type even when
// the error reports rejected records.
func LoadCatalogFile(path string) (*economy.Catalog, *CatalogFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("read catalog: %w", err)
	}
	f, err := ParseCatalogFile(data, strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), "."))
	if err != nil {
		return nil, nil, err
	}

	var errs []error
	for i, d := range f.Drift {
		if d.Var <= 0 {
			errs = append(errs, fmt.Errorf("drift entry %d: var must be positive", i))
		}
	}
	c, err := economy.LoadCatalog(f.Raw())
	if err != nil {
		errs = append(errs, err)
	}
	return c, f, errors.Join(errs...)
}
