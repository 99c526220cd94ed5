// Package account holds per-buyer entitlements.
package account

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"github.com/xraph/tokensale/types"
)

// Entitlement is one buyer's claim on the output asset.
type Entitlement struct {
	types.Entity
	Account      common.Address `json:"account"`
	BoughtAmount *uint256.Int   `json:"bought_amount"`
	HasClaimed   bool           `json:"has_claimed"`

	// VotedGroup is fixed by the first purchase.
	VotedGroup uint8 `json:"voted_group"`
}

// IsZero reports whether nothing was bought.
func (e *Entitlement) IsZero() bool {
	return e == nil || e.BoughtAmount == nil || e.BoughtAmount.IsZero()
}

// Clone returns a deep copy.
func (e *Entitlement) Clone() *Entitlement {
	if e == nil {
		return nil
	}
	out := *e
	out.BoughtAmount = types.Clone(e.BoughtAmount)
	return &out
}

// ListOpts pages through entitlements ordered by account address.
type ListOpts struct {
	// ClaimedOnly and UnclaimedOnly are mutually exclusive filters.
	ClaimedOnly   bool
	UnclaimedOnly bool
	Limit         int
	Offset        int
}
