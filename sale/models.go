// Package sale holds the sale configuration, running totals and the persisted
// sale state record.
package sale

import (
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"github.com/xraph/tokensale/id"
	"github.com/xraph/tokensale/types"
)

// Config is the administrator-controlled sale configuration.
type Config struct {
	OutputAsset   common.Address `json:"output_asset"`
	InputAsset    common.Address `json:"input_asset"`
	SaleStart     time.Time      `json:"sale_start"`
	SaleDuration  time.Duration  `json:"sale_duration"`
	TokenOutPrice *uint256.Int   `json:"token_out_price"`
	SaleRecipient common.Address `json:"sale_recipient"`
	InputLimit    *uint256.Int   `json:"input_limit"`

	// Whitelist reports whether a whitelist oracle is configured. The oracle
	// handle itself lives on the ledger.
	Whitelist bool `json:"whitelist"`
}

// End is the first instant at which the sale window is closed.
func (c Config) End() time.Time {
	return c.SaleStart.Add(c.SaleDuration)
}

// Clone returns a deep copy.
func (c Config) Clone() Config {
	c.TokenOutPrice = types.Clone(c.TokenOutPrice)
	c.InputLimit = types.Clone(c.InputLimit)
	return c
}

// Totals are the aggregate sale counters.
type Totals struct {
	TotalIn         *uint256.Int `json:"total_in"`
	TotalOutBought  *uint256.Int `json:"total_out_bought"`
	TotalOutClaimed *uint256.Int `json:"total_out_claimed"`
}

// NewTotals returns zeroed totals.
func NewTotals() Totals {
	return Totals{
		TotalIn:         types.Zero(),
		TotalOutBought:  types.Zero(),
		TotalOutClaimed: types.Zero(),
	}
}

// Clone returns a deep copy with nil counters read as zero.
func (t Totals) Clone() Totals {
	return Totals{
		TotalIn:         types.Clone(t.TotalIn),
		TotalOutBought:  types.Clone(t.TotalOutBought),
		TotalOutClaimed: types.Clone(t.TotalOutClaimed),
	}
}

// Outstanding is the output amount bought but not yet claimed.
func (t Totals) Outstanding() *uint256.Int {
	return types.SubFloor(types.Clone(t.TotalOutBought), types.Clone(t.TotalOutClaimed))
}

// State is the persisted singleton record of one sale.
type State struct {
	types.Entity
	ID          id.SaleID `json:"id"`
	Config      Config    `json:"config"`
	Totals      Totals    `json:"totals"`
	Initialized bool      `json:"initialized"`
	Finalized   bool      `json:"finalized"`

	// EventSeq is the sequence number of the last journaled event.
	EventSeq uint64 `json:"event_seq"`
}

// Clone returns a deep copy.
func (s *State) Clone() *State {
	if s == nil {
		return nil
	}
	out := *s
	out.Config = s.Config.Clone()
	out.Totals = s.Totals.Clone()
	return &out
}
