package tokensale

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"github.com/xraph/tokensale/account"
	"github.com/xraph/tokensale/asset"
	"github.com/xraph/tokensale/event"
	"github.com/xraph/tokensale/store"
	"github.com/xraph/tokensale/types"
)

// Claim pays out the caller's whole entitlement once the sale is finalized.
// An account can claim at most once.
func (l *Ledger) Claim(ctx context.Context, caller common.Address) (*uint256.Int, error) {
	l.mu.Lock()
	amount, out, err := l.claimLocked(ctx, caller)
	l.mu.Unlock()

	if err != nil {
		l.rejected(ctx, "claim", err)
		return nil, err
	}
	l.dispatch(ctx, out)
	return amount, nil
}

func (l *Ledger) claimLocked(ctx context.Context, caller common.Address) (*uint256.Int, *outcome, error) {
	if err := l.requireInitialized(); err != nil {
		return nil, nil, err
	}
	if l.pause.IsPaused() {
		return nil, nil, ErrPaused
	}
	if !l.state.Finalized {
		return nil, nil, ErrNotFinalized
	}
	ent := l.entitlements[caller]
	if ent != nil && ent.HasClaimed {
		return nil, nil, ErrAlreadyClaimed
	}
	if ent.IsZero() {
		return nil, nil, ErrNothingToClaim
	}

	amount := types.Clone(ent.BoughtAmount)
	claimed, overflow := types.AddChecked(l.state.Totals.TotalOutClaimed, amount)
	if overflow {
		return nil, nil, ErrAmountOverflow
	}

	if err := l.outputAsset.Transfer(ctx, l.address, caller, types.Clone(amount)); err != nil {
		return nil, nil, transferErr("pay claim", err)
	}

	now := l.now()
	ent.HasClaimed = true
	ent.Touch(now)
	l.state.Totals.TotalOutClaimed = claimed

	l.logger.Debug("entitlement claimed",
		"claimer", caller.Hex(),
		"amount", types.FormatAmount(amount),
	)

	out := l.applyLocked(ctx, "claim", &store.Batch{
		Entitlements: []*account.Entitlement{ent.Clone()},
	}, event.Claim{Claimer: caller, Amount: types.Clone(amount)})
	return amount, out, nil
}

// Finalize closes the sale for good and opens claiming. The sale must have
// ended and the ledger must hold enough output to cover every entitlement.
func (l *Ledger) Finalize(ctx context.Context, caller common.Address) error {
	l.mu.Lock()
	out, err := l.finalizeLocked(ctx, caller)
	l.mu.Unlock()

	if err != nil {
		return err
	}
	l.dispatch(ctx, out)
	return nil
}

func (l *Ledger) finalizeLocked(ctx context.Context, caller common.Address) (*outcome, error) {
	if err := l.requireOwner(caller); err != nil {
		return nil, err
	}
	if err := l.requireInitialized(); err != nil {
		return nil, err
	}
	if l.state.Finalized {
		return nil, ErrAlreadyFinalized
	}
	if !l.saleEndedLocked() {
		return nil, ErrNotEnded
	}

	reserve, err := l.outputAsset.BalanceOf(ctx, l.address)
	if err != nil {
		return nil, fmt.Errorf("tokensale: read output reserve: %w", err)
	}
	totals := l.state.Totals
	if reserve.Lt(totals.TotalOutBought) {
		return nil, fmt.Errorf("%w: holds %s, owes %s", ErrInsufficientReserve,
			types.FormatAmount(reserve), types.FormatAmount(totals.TotalOutBought))
	}

	l.state.Finalized = true

	l.logger.Info("sale finalized",
		"sale_id", l.state.ID.String(),
		"total_in", types.FormatAmount(totals.TotalIn),
		"total_out_bought", types.FormatAmount(totals.TotalOutBought),
	)

	return l.applyLocked(ctx, "finalize", &store.Batch{}, event.Finalized{
		TotalIn:        types.Clone(totals.TotalIn),
		TotalOutBought: types.Clone(totals.TotalOutBought),
	}), nil
}

// Sweep sends the caller (the owner) whatever the ledger holds of asset a beyond
// what it still owes buyers. For the output asset that is the balance less
// the unclaimed entitlements; for any other asset it is the full balance.
func (l *Ledger) Sweep(ctx context.Context, caller common.Address, a asset.Asset) (*uint256.Int, error) {
	l.mu.Lock()
	amount, out, err := l.sweepLocked(ctx, caller, a)
	l.mu.Unlock()

	if err != nil {
		l.rejected(ctx, "sweep", err)
		return nil, err
	}
	l.dispatch(ctx, out)
	return amount, nil
}

func (l *Ledger) sweepLocked(ctx context.Context, caller common.Address, a asset.Asset) (*uint256.Int, *outcome, error) {
	if err := l.requireOwner(caller); err != nil {
		return nil, nil, err
	}
	if err := l.requireInitialized(); err != nil {
		return nil, nil, err
	}
	if a == nil {
		return nil, nil, invalid("asset", "must not be nil")
	}

	balance, err := a.BalanceOf(ctx, l.address)
	if err != nil {
		return nil, nil, fmt.Errorf("tokensale: read sweep balance: %w", err)
	}
	amount := types.Clone(balance)
	if a.Address() == l.state.Config.OutputAsset {
		amount = types.SubFloor(amount, l.state.Totals.Outstanding())
	}
	if amount.IsZero() {
		return nil, nil, ErrNothingToSweep
	}

	if err := a.Transfer(ctx, l.address, caller, types.Clone(amount)); err != nil {
		return nil, nil, transferErr("sweep", err)
	}

	l.logger.Info("tokens swept",
		"asset", a.Address().Hex(),
		"recipient", caller.Hex(),
		"amount", types.FormatAmount(amount),
	)

	out := l.applyLocked(ctx, "sweep", &store.Batch{}, event.Swept{
		Asset:     a.Address(),
		Recipient: caller,
		Amount:    types.Clone(amount),
	})
	return amount, out, nil
}
