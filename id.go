package tokensale

import "github.com/xraph/tokensale/id"

// ID is the identifier type for sales and journaled events.
type ID = id.ID
