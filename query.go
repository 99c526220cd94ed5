package tokensale

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"github.com/xraph/tokensale/account"
	"github.com/xraph/tokensale/event"
	"github.com/xraph/tokensale/group"
	"github.com/xraph/tokensale/sale"
	"github.com/xraph/tokensale/types"
)

// GetAmountOut quotes the output bought by amountIn at the current price.
func (l *Ledger) GetAmountOut(amountIn *uint256.Int) (*uint256.Int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.requireInitialized(); err != nil {
		return nil, err
	}
	return l.amountOutLocked(types.Clone(amountIn))
}

// GetInputLimitLeft is how much input the cap still admits.
func (l *Ledger) GetInputLimitLeft() *uint256.Int {
	l.mu.Lock()
	defer l.mu.Unlock()

	if !l.state.Initialized {
		return types.Zero()
	}
	return types.SubFloor(types.Clone(l.state.Config.InputLimit), types.Clone(l.state.Totals.TotalIn))
}

// SaleEnded reports whether the window has elapsed or the cap is reached.
func (l *Ledger) SaleEnded() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.saleEndedLocked()
}

func (l *Ledger) saleEndedLocked() bool {
	if !l.state.Initialized {
		return false
	}
	cfg := l.state.Config
	if !l.now().Before(cfg.End()) {
		return true
	}
	return !l.state.Totals.TotalIn.Lt(cfg.InputLimit)
}

// Config returns a copy of the sale configuration.
func (l *Ledger) Config() sale.Config {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state.Config.Clone()
}

// Totals returns a copy of the running totals.
func (l *Ledger) Totals() sale.Totals {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state.Totals.Clone()
}

// State returns a copy of the whole sale record.
func (l *Ledger) State() *sale.State {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state.Clone()
}

// Initialized reports whether Initialize has succeeded.
func (l *Ledger) Initialized() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state.Initialized
}

// Finalized reports whether claiming is open.
func (l *Ledger) Finalized() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state.Finalized
}

// Paused reports the pause gate.
func (l *Ledger) Paused() bool {
	return l.pause.IsPaused()
}

// Owner returns the current owner, or the zero address when the access
// control does not expose one.
func (l *Ledger) Owner() common.Address {
	l.mu.Lock()
	defer l.mu.Unlock()
	if ot, ok := l.access.(interface{ Owner() common.Address }); ok {
		return ot.Owner()
	}
	return common.Address{}
}

// Entitlement returns the caller's record. Accounts that never bought get a
// zero record.
func (l *Ledger) Entitlement(acct common.Address) *account.Entitlement {
	l.mu.Lock()
	defer l.mu.Unlock()
	if e, ok := l.entitlements[acct]; ok {
		return e.Clone()
	}
	return &account.Entitlement{Account: acct, BoughtAmount: types.Zero()}
}

// GroupCommitment is the output bought by voters of groupID.
func (l *Ledger) GroupCommitment(groupID uint8) *uint256.Int {
	l.mu.Lock()
	defer l.mu.Unlock()
	if c, ok := l.commitments[groupID]; ok {
		return types.Clone(c.Amount)
	}
	return types.Zero()
}

// ListEntitlements pages through persisted entitlements.
func (l *Ledger) ListEntitlements(ctx context.Context, opts account.ListOpts) ([]*account.Entitlement, error) {
	return l.store.ListEntitlements(ctx, opts)
}

// ListGroupCommitments returns every persisted group commitment.
func (l *Ledger) ListGroupCommitments(ctx context.Context) ([]*group.Commitment, error) {
	return l.store.ListCommitments(ctx)
}

// Events reads the persisted event journal.
func (l *Ledger) Events(ctx context.Context, opts event.QueryOpts) ([]*event.Record, error) {
	return l.store.ListEvents(ctx, opts)
}
