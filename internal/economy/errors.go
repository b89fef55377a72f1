package economy

import (
	"errors"
	"fmt"
)

var (
	ErrUnknownCommand  = errors.New("unknown shop command")
	ErrMissingArgument = errors.New("missing command argument")
)

// ConfigError describes a malformed catalog record. The shop type it names
// is left out of the catalog.
type ConfigError struct {
	Shop   string
	Item   string // raw item id, empty for shop-level fields
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	shop := e.Shop
	if shop == "" {
		shop = "<unnamed>"
	}
	if e.Item != "" {
		return fmt.Sprintf("shop %q item %q: %s %s", shop, e.Item, e.Field, e.Reason)
	}
	return fmt.Sprintf("shop %q: %s %s", shop, e.Field, e.Reason)
}
