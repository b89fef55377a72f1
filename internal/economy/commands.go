package economy

import (
	"fmt"
	"strings"
)

// Host command names.
const (
	CmdSetShopType  = "SetShopType"
	CmdRestockShops = "RestockShops"
)

// Exec runs one host command line, e.g. "SetShopType Blacksmith" or
// "RestockShops". Shop type names may contain spaces.
func (e *Economy) Exec(line string) error {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return fmt.Errorf("%w: empty command", ErrUnknownCommand)
	}

	switch fields[0] {
	case CmdSetShopType:
		if len(fields) < 2 {
			return fmt.Errorf("%s: %w", CmdSetShopType, ErrMissingArgument)
		}
		e.SetShopType(strings.Join(fields[1:], " "))
		return nil
	case CmdRestockShops:
		e.RestockAll()
		return nil
	default:
		return fmt.Errorf("%w: %q", ErrUnknownCommand, fields[0])
	}
}
