// Package group tracks output commitments per group (DAO) identifier.
package group

import (
	"github.com/holiman/uint256"

	"github.com/xraph/tokensale/types"
)

// Commitment is the output amount bought by voters of one group.
type Commitment struct {
	GroupID uint8        `json:"group_id"`
	Amount  *uint256.Int `json:"amount"`
}

// Clone returns a deep copy.
func (c *Commitment) Clone() *Commitment {
	if c == nil {
		return nil
	}
	return &Commitment{GroupID: c.GroupID, Amount: types.Clone(c.Amount)}
}
