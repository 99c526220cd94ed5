// Package plugin provides an extensible plugin system for the sale ledger.
// Plugins hook into sale lifecycle events to extend functionality; they
// observe state changes and never alter them.
package plugin

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"github.com/xraph/tokensale/event"
)

// Plugin is the base interface that all plugins must implement.
type Plugin interface {
	Name() string
}

// ──────────────────────────────────────────────────
// Lifecycle hooks
// ──────────────────────────────────────────────────

// OnInit is called when the ledger starts.
type OnInit interface {
	Plugin
	OnInit(ctx context.Context, ledger any) error
}

// OnShutdown is called when the ledger stops.
type OnShutdown interface {
	Plugin
	OnShutdown(ctx context.Context) error
}

// ──────────────────────────────────────────────────
// Sale lifecycle hooks
// ──────────────────────────────────────────────────

// OnSaleInitialized is called once the sale has been configured.
type OnSaleInitialized interface {
	Plugin
	OnSaleInitialized(ctx context.Context, evt event.Initialized) error
}

// OnSaleFinalized is called when claims open.
type OnSaleFinalized interface {
	Plugin
	OnSaleFinalized(ctx context.Context, evt event.Finalized) error
}

// OnConfigUpdated is called after any administrative setter succeeds.
type OnConfigUpdated interface {
	Plugin
	OnConfigUpdated(ctx context.Context, evt event.Event) error
}

// OnPauseChanged is called when the pause gate is engaged or released.
type OnPauseChanged interface {
	Plugin
	OnPauseChanged(ctx context.Context, paused bool, by common.Address) error
}

// OnOwnershipTransferred is called after an owner change.
type OnOwnershipTransferred interface {
	Plugin
	OnOwnershipTransferred(ctx context.Context, evt event.OwnershipTransferred) error
}

// ──────────────────────────────────────────────────
// Admission hooks
// ──────────────────────────────────────────────────

// OnPurchase is called for every accepted purchase.
type OnPurchase interface {
	Plugin
	OnPurchase(ctx context.Context, evt event.Sale) error
}

// OnPurchaseRejected is called when a purchase fails any check or its
// input transfer fails.
type OnPurchaseRejected interface {
	Plugin
	OnPurchaseRejected(ctx context.Context, buyer common.Address, amountIn *uint256.Int, reason error) error
}

// ──────────────────────────────────────────────────
// Settlement hooks
// ──────────────────────────────────────────────────

// OnClaim is called when a buyer redeems their entitlement.
type OnClaim interface {
	Plugin
	OnClaim(ctx context.Context, evt event.Claim) error
}

// OnSwept is called when surplus tokens are swept.
type OnSwept interface {
	Plugin
	OnSwept(ctx context.Context, evt event.Swept) error
}

// ──────────────────────────────────────────────────
// Journal hooks
// ──────────────────────────────────────────────────

// OnEvent receives every journaled event record, in sequence order.
type OnEvent interface {
	Plugin
	OnEvent(ctx context.Context, rec *event.Record) error
}

// OnTransferFailed is called when an asset transfer fails during a
// purchase, claim or sweep. The operation is rejected and state is
// unchanged.
type OnTransferFailed interface {
	Plugin
	OnTransferFailed(ctx context.Context, op string, err error) error
}

// OnPersistFailed is called when a state change was applied in memory but
// could not be written to the store.
type OnPersistFailed interface {
	Plugin
	OnPersistFailed(ctx context.Context, op string, err error) error
}
