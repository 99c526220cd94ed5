package tokensale

import (
	"github.com/holiman/uint256"

	"github.com/xraph/tokensale/types"
)

// Re-export common types for convenience so users don't have to import types package.

// Entity is re-exported from types package.
type Entity = types.Entity

// Re-export amount helpers
var (
	Zero        = types.Zero
	Units       = types.Units
	Whole       = types.Whole
	FormatUnits = types.FormatUnits
	ParseUnits  = types.ParseUnits
)

// Re-export Entity constructor
var NewEntity = types.NewEntity

// PriceFor returns the TokenOutPrice at which one whole output token costs
// inputPerOutput whole input tokens, expressed in input units.
func PriceFor(inputPerOutput uint64, inputDecimals uint8) *uint256.Int {
	return types.Whole(inputPerOutput, inputDecimals)
}
