package tokensale

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"github.com/xraph/tokensale/account"
	"github.com/xraph/tokensale/event"
	"github.com/xraph/tokensale/group"
	"github.com/xraph/tokensale/store"
	"github.com/xraph/tokensale/types"
)

// Buy spends amountIn of the input asset on behalf of caller and records the
// output amount it buys. The input is moved straight to the sale recipient.
// The first purchase fixes the group the caller votes for.
func (l *Ledger) Buy(ctx context.Context, caller common.Address, amountIn *uint256.Int, groupID uint8, proof []common.Hash) (*uint256.Int, error) {
	l.mu.Lock()
	amountOut, out, err := l.buyLocked(ctx, caller, amountIn, groupID, proof)
	l.mu.Unlock()

	if err != nil {
		l.logger.Debug("purchase rejected",
			"buyer", caller.Hex(),
			"amount_in", types.FormatAmount(amountIn),
			"group_id", groupID,
			"error", err,
		)
		l.plugins.EmitPurchaseRejected(ctx, caller, types.Clone(amountIn), err)
		l.rejected(ctx, "buy", err)
		return nil, err
	}

	l.dispatch(ctx, out)
	return amountOut, nil
}

func (l *Ledger) buyLocked(ctx context.Context, caller common.Address, amountIn *uint256.Int, groupID uint8, proof []common.Hash) (*uint256.Int, *outcome, error) {
	if err := l.requireInitialized(); err != nil {
		return nil, nil, err
	}

	cfg := l.state.Config
	totals := l.state.Totals
	now := l.now()

	if now.Before(cfg.SaleStart) {
		return nil, nil, ErrNotStarted
	}
	if !now.Before(cfg.End()) {
		return nil, nil, ErrSaleEnded
	}
	if amountIn == nil || amountIn.IsZero() {
		return nil, nil, ErrZeroAmount
	}
	newTotalIn, overflow := types.AddChecked(totals.TotalIn, amountIn)
	if overflow || newTotalIn.Gt(cfg.InputLimit) {
		return nil, nil, ErrCapExceeded
	}
	if l.pause.IsPaused() {
		return nil, nil, ErrPaused
	}
	if l.whitelist != nil {
		ok, err := l.whitelist.Authorized(ctx, caller, proof)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: whitelist: %w", ErrNotAuthorized, err)
		}
		if !ok {
			return nil, nil, ErrNotAuthorized
		}
	}

	ent := l.entitlements[caller]
	if !ent.IsZero() && ent.VotedGroup != groupID {
		return nil, nil, ErrGroupMismatch
	}

	amountOut, err := l.amountOutLocked(amountIn)
	if err != nil {
		return nil, nil, err
	}

	var bought *uint256.Int
	if ent == nil {
		bought = types.Clone(amountOut)
	} else if bought, overflow = types.AddChecked(ent.BoughtAmount, amountOut); overflow {
		return nil, nil, ErrAmountOverflow
	}
	newTotalOut, overflow := types.AddChecked(totals.TotalOutBought, amountOut)
	if overflow {
		return nil, nil, ErrAmountOverflow
	}
	committed := types.Zero()
	if c, ok := l.commitments[groupID]; ok {
		committed = types.Clone(c.Amount)
	}
	committed.Add(committed, amountOut)

	// Every check has passed; the transfer is the last thing that can fail.
	if err := l.inputAsset.TransferFrom(ctx, l.address, caller, cfg.SaleRecipient, types.Clone(amountIn)); err != nil {
		return nil, nil, transferErr("collect input", err)
	}

	if ent == nil {
		ent = &account.Entitlement{
			Entity:  types.NewEntity(now),
			Account: caller,
		}
		l.entitlements[caller] = ent
	} else {
		ent.Touch(now)
	}
	if ent.IsZero() {
		ent.VotedGroup = groupID
	}
	ent.BoughtAmount = bought

	commitment := &group.Commitment{GroupID: groupID, Amount: committed}
	l.commitments[groupID] = commitment

	l.state.Totals.TotalIn = newTotalIn
	l.state.Totals.TotalOutBought = newTotalOut

	l.logger.Debug("purchase accepted",
		"buyer", caller.Hex(),
		"group_id", groupID,
		"amount_in", types.FormatAmount(amountIn),
		"amount_out", types.FormatAmount(amountOut),
		"total_in", types.FormatAmount(newTotalIn),
	)

	out := l.applyLocked(ctx, "buy", &store.Batch{
		Entitlements: []*account.Entitlement{ent.Clone()},
		Commitments:  []*group.Commitment{commitment.Clone()},
	}, event.Sale{
		Buyer:     caller,
		GroupID:   groupID,
		AmountIn:  types.Clone(amountIn),
		AmountOut: types.Clone(amountOut),
	})
	return types.Clone(amountOut), out, nil
}

// amountOutLocked is floor(in * 10^outputDecimals / price).
func (l *Ledger) amountOutLocked(amountIn *uint256.Int) (*uint256.Int, error) {
	scale, err := types.Pow10(l.outputAsset.Decimals())
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrAmountOverflow, err)
	}
	out, overflow := types.MulDiv(amountIn, scale, l.state.Config.TokenOutPrice)
	if overflow {
		return nil, ErrAmountOverflow
	}
	return out, nil
}
