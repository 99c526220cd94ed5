package tokensale

import (
	"context"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"github.com/xraph/tokensale/asset"
	"github.com/xraph/tokensale/event"
	"github.com/xraph/tokensale/sale"
	"github.com/xraph/tokensale/store"
	"github.com/xraph/tokensale/types"
)

// InitParams configures a sale.
type InitParams struct {
	OutputAsset   asset.Asset
	InputAsset    asset.Asset
	SaleStart     time.Time
	SaleDuration  time.Duration
	TokenOutPrice *uint256.Int
	SaleRecipient common.Address
	InputLimit    *uint256.Int

	// Whitelist is optional; nil lets every account buy.
	Whitelist Whitelist
}

// Initialize configures the sale. It runs once per ledger.
func (l *Ledger) Initialize(ctx context.Context, caller common.Address, p InitParams) error {
	return l.run(ctx, "initialize", func() (*outcome, error) {
		if err := l.requireOwner(caller); err != nil {
			return nil, err
		}
		if l.state.Initialized {
			return nil, ErrAlreadyInitialized
		}
		if err := l.validateInit(p); err != nil {
			return nil, err
		}

		cfg := sale.Config{
			OutputAsset:   p.OutputAsset.Address(),
			InputAsset:    p.InputAsset.Address(),
			SaleStart:     p.SaleStart.UTC(),
			SaleDuration:  p.SaleDuration,
			TokenOutPrice: types.Clone(p.TokenOutPrice),
			SaleRecipient: p.SaleRecipient,
			InputLimit:    types.Clone(p.InputLimit),
			Whitelist:     p.Whitelist != nil,
		}

		l.state.Config = cfg
		l.state.Totals = sale.NewTotals()
		l.state.Initialized = true
		l.outputAsset = p.OutputAsset
		l.inputAsset = p.InputAsset
		l.whitelist = p.Whitelist
		l.assets[cfg.OutputAsset] = p.OutputAsset
		l.assets[cfg.InputAsset] = p.InputAsset

		l.logger.Info("sale initialized",
			"sale_id", l.state.ID.String(),
			"output_asset", cfg.OutputAsset.Hex(),
			"input_asset", cfg.InputAsset.Hex(),
			"sale_start", cfg.SaleStart,
			"sale_end", cfg.End(),
			"token_out_price", types.FormatAmount(cfg.TokenOutPrice),
			"input_limit", types.FormatAmount(cfg.InputLimit),
			"whitelist", cfg.Whitelist,
		)

		return l.applyLocked(ctx, "initialize", &store.Batch{}, event.Initialized{
			OutputAsset:   cfg.OutputAsset,
			InputAsset:    cfg.InputAsset,
			SaleStart:     cfg.SaleStart,
			SaleDuration:  cfg.SaleDuration,
			TokenOutPrice: types.Clone(cfg.TokenOutPrice),
			SaleRecipient: cfg.SaleRecipient,
			InputLimit:    types.Clone(cfg.InputLimit),
			Whitelist:     cfg.Whitelist,
		}), nil
	})
}

func (l *Ledger) validateInit(p InitParams) error {
	var errs MultiError
	if l.address == (common.Address{}) {
		errs.Add(invalid("address", "ledger custody address is not set"))
	}
	if p.OutputAsset == nil {
		errs.Add(invalid("output_asset", "must not be nil"))
	} else if p.OutputAsset.Decimals() > types.MaxDecimals {
		errs.Add(invalid("output_asset", fmt.Sprintf("decimals %d exceed %d", p.OutputAsset.Decimals(), types.MaxDecimals)))
	}
	if p.InputAsset == nil {
		errs.Add(invalid("input_asset", "must not be nil"))
	}
	if p.SaleStart.Before(l.now()) {
		errs.Add(invalid("sale_start", "may not be in the past"))
	}
	if p.SaleDuration <= 0 {
		errs.Add(invalid("sale_duration", "must be positive"))
	}
	if p.TokenOutPrice == nil || p.TokenOutPrice.IsZero() {
		errs.Add(invalid("token_out_price", "must be positive"))
	}
	if p.SaleRecipient == (common.Address{}) {
		errs.Add(invalid("sale_recipient", "must not be the zero address"))
	}
	if p.InputLimit == nil {
		errs.Add(invalid("input_limit", "must be set"))
	}
	if p.Whitelist != nil && isNilHandle(p.Whitelist) {
		errs.Add(invalid("whitelist", "typed nil handle; pass nil to disable"))
	}
	return errs.ErrOrNil()
}

// SetSaleStart moves the start of the sale window.
func (l *Ledger) SetSaleStart(ctx context.Context, caller common.Address, start time.Time) error {
	return l.run(ctx, "set_sale_start", func() (*outcome, error) {
		if err := l.requireAdmin(caller); err != nil {
			return nil, err
		}
		if start.Before(l.now()) {
			return nil, invalid("sale_start", "may not be in the past")
		}
		if l.state.Finalized {
			return nil, ErrAlreadyFinalized
		}
		start = start.UTC()
		l.state.Config.SaleStart = start
		return l.applyLocked(ctx, "set_sale_start", &store.Batch{}, event.SaleStartUpdated{SaleStart: start}), nil
	})
}

// SetSaleDuration changes the length of the sale window.
func (l *Ledger) SetSaleDuration(ctx context.Context, caller common.Address, d time.Duration) error {
	return l.run(ctx, "set_sale_duration", func() (*outcome, error) {
		if err := l.requireAdmin(caller); err != nil {
			return nil, err
		}
		if d <= 0 {
			return nil, invalid("sale_duration", "must be positive")
		}
		if l.state.Finalized {
			return nil, ErrAlreadyFinalized
		}
		l.state.Config.SaleDuration = d
		return l.applyLocked(ctx, "set_sale_duration", &store.Batch{}, event.SaleDurationUpdated{SaleDuration: d}), nil
	})
}

// SetTokenOutPrice changes the price of one whole output token in input
// units. It only affects purchases made afterwards.
func (l *Ledger) SetTokenOutPrice(ctx context.Context, caller common.Address, price *uint256.Int) error {
	return l.run(ctx, "set_token_out_price", func() (*outcome, error) {
		if err := l.requireAdmin(caller); err != nil {
			return nil, err
		}
		if price == nil || price.IsZero() {
			return nil, invalid("token_out_price", "must be positive")
		}
		l.state.Config.TokenOutPrice = types.Clone(price)
		return l.applyLocked(ctx, "set_token_out_price", &store.Batch{},
			event.TokenOutPriceUpdated{TokenOutPrice: types.Clone(price)}), nil
	})
}

// SetSaleRecipient changes where purchase proceeds go.
func (l *Ledger) SetSaleRecipient(ctx context.Context, caller common.Address, recipient common.Address) error {
	return l.run(ctx, "set_sale_recipient", func() (*outcome, error) {
		if err := l.requireAdmin(caller); err != nil {
			return nil, err
		}
		if recipient == (common.Address{}) {
			return nil, invalid("sale_recipient", "must not be the zero address")
		}
		l.state.Config.SaleRecipient = recipient
		return l.applyLocked(ctx, "set_sale_recipient", &store.Batch{},
			event.SaleRecipientUpdated{Recipient: recipient}), nil
	})
}

// SetWhitelist installs a whitelist oracle. Passing nil removes it; a typed
// nil handle is rejected.
func (l *Ledger) SetWhitelist(ctx context.Context, caller common.Address, w Whitelist) error {
	return l.run(ctx, "set_whitelist", func() (*outcome, error) {
		if err := l.requireAdmin(caller); err != nil {
			return nil, err
		}
		if w != nil && isNilHandle(w) {
			return nil, invalid("whitelist", "typed nil handle; pass nil to disable")
		}
		l.whitelist = w
		l.state.Config.Whitelist = w != nil
		return l.applyLocked(ctx, "set_whitelist", &store.Batch{},
			event.WhitelistUpdated{Enabled: w != nil}), nil
	})
}

// SetInputLimit changes the cap on cumulative input. A limit below what was
// already raised ends the sale.
func (l *Ledger) SetInputLimit(ctx context.Context, caller common.Address, limit *uint256.Int) error {
	return l.run(ctx, "set_input_limit", func() (*outcome, error) {
		if err := l.requireAdmin(caller); err != nil {
			return nil, err
		}
		if limit == nil {
			return nil, invalid("input_limit", "must be set")
		}
		if l.state.Finalized {
			return nil, ErrAlreadyFinalized
		}
		l.state.Config.InputLimit = types.Clone(limit)
		return l.applyLocked(ctx, "set_input_limit", &store.Batch{},
			event.InputLimitUpdated{InputLimit: types.Clone(limit)}), nil
	})
}

// Pause stops purchases and claims.
func (l *Ledger) Pause(ctx context.Context, caller common.Address) error {
	return l.run(ctx, "pause", func() (*outcome, error) {
		if err := l.requireOwner(caller); err != nil {
			return nil, err
		}
		if l.pause.IsPaused() {
			return nil, ErrPaused
		}
		if err := l.pause.Pause(); err != nil {
			return nil, fmt.Errorf("tokensale: pause: %w", err)
		}
		l.logger.Info("sale paused", "account", caller.Hex())
		return l.applyLocked(ctx, "pause", &store.Batch{}, event.Paused{Account: caller}), nil
	})
}

// Unpause resumes purchases and claims.
func (l *Ledger) Unpause(ctx context.Context, caller common.Address) error {
	return l.run(ctx, "unpause", func() (*outcome, error) {
		if err := l.requireOwner(caller); err != nil {
			return nil, err
		}
		if !l.pause.IsPaused() {
			return nil, ErrNotPaused
		}
		if err := l.pause.Unpause(); err != nil {
			return nil, fmt.Errorf("tokensale: unpause: %w", err)
		}
		l.logger.Info("sale unpaused", "account", caller.Hex())
		return l.applyLocked(ctx, "unpause", &store.Batch{}, event.Unpaused{Account: caller}), nil
	})
}

// TransferOwnership hands administration to next. The access control must
// implement OwnershipTransferer.
func (l *Ledger) TransferOwnership(ctx context.Context, caller common.Address, next common.Address) error {
	return l.run(ctx, "transfer_ownership", func() (*outcome, error) {
		if err := l.requireOwner(caller); err != nil {
			return nil, err
		}
		if next == (common.Address{}) {
			return nil, invalid("owner", "must not be the zero address")
		}
		ot, ok := l.access.(OwnershipTransferer)
		if !ok {
			return nil, invalid("owner", "access control does not support ownership transfer")
		}
		prev := ot.Owner()
		if err := ot.TransferOwnership(next); err != nil {
			return nil, fmt.Errorf("tokensale: transfer ownership: %w", err)
		}
		l.logger.Info("ownership transferred", "previous_owner", prev.Hex(), "new_owner", next.Hex())
		return l.applyLocked(ctx, "transfer_ownership", &store.Batch{},
			event.OwnershipTransferred{PreviousOwner: prev, NewOwner: next}), nil
	})
}

// run executes fn under the mutex and dispatches its outcome afterwards.
func (l *Ledger) run(ctx context.Context, op string, fn func() (*outcome, error)) error {
	l.mu.Lock()
	out, err := fn()
	l.mu.Unlock()

	if err != nil {
		l.logger.Debug("operation rejected", "op", op, "error", err)
		return err
	}
	l.dispatch(ctx, out)
	return nil
}

func (l *Ledger) requireAdmin(caller common.Address) error {
	if err := l.requireOwner(caller); err != nil {
		return err
	}
	return l.requireInitialized()
}
