// Package audithook bridges sale lifecycle events to an audit trail backend.
//
// It defines a local Recorder interface so the package does not import an
// audit backend directly. Callers inject a RecorderFunc adapter at wiring
// time.
package audithook

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"github.com/xraph/tokensale/event"
	"github.com/xraph/tokensale/plugin"
	"github.com/xraph/tokensale/types"
)

// Compile-time interface checks.
var (
	_ plugin.Plugin                 = (*Extension)(nil)
	_ plugin.OnSaleInitialized      = (*Extension)(nil)
	_ plugin.OnSaleFinalized        = (*Extension)(nil)
	_ plugin.OnConfigUpdated        = (*Extension)(nil)
	_ plugin.OnPauseChanged         = (*Extension)(nil)
	_ plugin.OnOwnershipTransferred = (*Extension)(nil)
	_ plugin.OnPurchase             = (*Extension)(nil)
	_ plugin.OnPurchaseRejected     = (*Extension)(nil)
	_ plugin.OnClaim                = (*Extension)(nil)
	_ plugin.OnSwept                = (*Extension)(nil)
	_ plugin.OnTransferFailed       = (*Extension)(nil)
	_ plugin.OnPersistFailed        = (*Extension)(nil)
)

// Recorder is the interface that audit backends must implement.
type Recorder interface {
	Record(ctx context.Context, event *AuditEvent) error
}

// AuditEvent is a local representation of an audit event.
type AuditEvent struct {
	Action     string         `json:"action"`
	Resource   string         `json:"resource"`
	Category   string         `json:"category"`
	ResourceID string         `json:"resource_id,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty"`
	Outcome    string         `json:"outcome"`
	Severity   string         `json:"severity"`
	Reason     string         `json:"reason,omitempty"`
}

// RecorderFunc is an adapter to use a plain function as a Recorder.
type RecorderFunc func(ctx context.Context, event *AuditEvent) error

// Record implements Recorder.
func (f RecorderFunc) Record(ctx context.Context, event *AuditEvent) error {
	return f(ctx, event)
}

// Extension bridges sale lifecycle events to an audit trail backend.
type Extension struct {
	recorder Recorder
	enabled  map[string]bool // nil = all enabled
	logger   *slog.Logger
}

// New creates an Extension that emits audit events through the provided Recorder.
func New(r Recorder, opts ...Option) *Extension {
	e := &Extension{
		recorder: r,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Name implements plugin.Plugin.
func (e *Extension) Name() string { return "audit-hook" }

// ──────────────────────────────────────────────────
// Sale lifecycle hooks
// ──────────────────────────────────────────────────

// OnSaleInitialized implements plugin.OnSaleInitialized.
func (e *Extension) OnSaleInitialized(ctx context.Context, evt event.Initialized) error {
	return e.record(ctx, ActionSaleInitialized, SeverityInfo, OutcomeSuccess,
		ResourceSale, "", CategoryAdmin, nil,
		"output_asset", evt.OutputAsset.Hex(),
		"input_asset", evt.InputAsset.Hex(),
		"sale_start", evt.SaleStart,
		"sale_duration", evt.SaleDuration.String(),
		"token_out_price", types.FormatAmount(evt.TokenOutPrice),
		"input_limit", types.FormatAmount(evt.InputLimit),
		"whitelist", evt.Whitelist,
	)
}

// OnSaleFinalized implements plugin.OnSaleFinalized.
func (e *Extension) OnSaleFinalized(ctx context.Context, evt event.Finalized) error {
	return e.record(ctx, ActionSaleFinalized, SeverityInfo, OutcomeSuccess,
		ResourceSale, "", CategoryAdmin, nil,
		"total_in", types.FormatAmount(evt.TotalIn),
		"total_out_bought", types.FormatAmount(evt.TotalOutBought),
	)
}

// OnConfigUpdated implements plugin.OnConfigUpdated.
func (e *Extension) OnConfigUpdated(ctx context.Context, evt event.Event) error {
	kv := []any{"event", string(evt.Type())}
	for k, v := range evt.Attributes() {
		kv = append(kv, k, v)
	}
	return e.record(ctx, ActionConfigUpdated, SeverityInfo, OutcomeSuccess,
		ResourceSale, "", CategoryAdmin, nil, kv...)
}

// OnPauseChanged implements plugin.OnPauseChanged.
func (e *Extension) OnPauseChanged(ctx context.Context, paused bool, by common.Address) error {
	action, severity := ActionSaleUnpaused, SeverityInfo
	if paused {
		action, severity = ActionSalePaused, SeverityWarning
	}
	return e.record(ctx, action, severity, OutcomeSuccess,
		ResourceSale, "", CategoryAdmin, nil,
		"account", by.Hex(),
	)
}

// OnOwnershipTransferred implements plugin.OnOwnershipTransferred.
func (e *Extension) OnOwnershipTransferred(ctx context.Context, evt event.OwnershipTransferred) error {
	return e.record(ctx, ActionOwnerChanged, SeverityWarning, OutcomeSuccess,
		ResourceSale, "", CategoryAccess, nil,
		"previous_owner", evt.PreviousOwner.Hex(),
		"new_owner", evt.NewOwner.Hex(),
	)
}

// ──────────────────────────────────────────────────
// Purchase hooks
// ──────────────────────────────────────────────────

// OnPurchase implements plugin.OnPurchase.
func (e *Extension) OnPurchase(ctx context.Context, evt event.Sale) error {
	return e.record(ctx, ActionPurchase, SeverityInfo, OutcomeSuccess,
		ResourceEntitlement, evt.Buyer.Hex(), CategoryAdmission, nil,
		"group_id", evt.GroupID,
		"amount_in", types.FormatAmount(evt.AmountIn),
		"amount_out", types.FormatAmount(evt.AmountOut),
	)
}

// OnPurchaseRejected implements plugin.OnPurchaseRejected.
func (e *Extension) OnPurchaseRejected(ctx context.Context, buyer common.Address, amountIn *uint256.Int, reason error) error {
	return e.record(ctx, ActionPurchaseRejected, SeverityWarning, OutcomeFailure,
		ResourceEntitlement, buyer.Hex(), CategoryAdmission, reason,
		"amount_in", types.FormatAmount(amountIn),
	)
}

// ──────────────────────────────────────────────────
// Settlement hooks
// ──────────────────────────────────────────────────

// OnClaim implements plugin.OnClaim.
func (e *Extension) OnClaim(ctx context.Context, evt event.Claim) error {
	return e.record(ctx, ActionClaim, SeverityInfo, OutcomeSuccess,
		ResourceEntitlement, evt.Claimer.Hex(), CategorySettlement, nil,
		"amount", types.FormatAmount(evt.Amount),
	)
}

// OnSwept implements plugin.OnSwept.
func (e *Extension) OnSwept(ctx context.Context, evt event.Swept) error {
	return e.record(ctx, ActionSweep, SeverityWarning, OutcomeSuccess,
		ResourceAsset, evt.Asset.Hex(), CategorySettlement, nil,
		"recipient", evt.Recipient.Hex(),
		"amount", types.FormatAmount(evt.Amount),
	)
}

// OnTransferFailed implements plugin.OnTransferFailed.
func (e *Extension) OnTransferFailed(ctx context.Context, op string, err error) error {
	return e.record(ctx, ActionTransferFailed, SeverityError, OutcomeFailure,
		ResourceAsset, "", CategorySettlement, err,
		"op", op,
	)
}

// OnPersistFailed implements plugin.OnPersistFailed.
func (e *Extension) OnPersistFailed(ctx context.Context, op string, err error) error {
	return e.record(ctx, ActionPersistFailed, SeverityCritical, OutcomeFailure,
		ResourceStore, "", CategoryStorage, err,
		"op", op,
	)
}

// ──────────────────────────────────────────────────
// Internal helpers
// ──────────────────────────────────────────────────

// record builds and sends an audit event if the action is enabled.
func (e *Extension) record(
	ctx context.Context,
	action, severity, outcome string,
	resource, resourceID, category string,
	err error,
	kvPairs ...any,
) error {
	if e.enabled != nil && !e.enabled[action] {
		return nil
	}

	meta := make(map[string]any, len(kvPairs)/2+1)
	for i := 0; i+1 < len(kvPairs); i += 2 {
		key, ok := kvPairs[i].(string)
		if !ok {
			key = fmt.Sprintf("%v", kvPairs[i])
		}
		meta[key] = kvPairs[i+1]
	}

	var reason string
	if err != nil {
		reason = err.Error()
		meta["error"] = err.Error()
	}

	evt := &AuditEvent{
		Action:     action,
		Resource:   resource,
		Category:   category,
		ResourceID: resourceID,
		Metadata:   meta,
		Outcome:    outcome,
		Severity:   severity,
		Reason:     reason,
	}

	if recErr := e.recorder.Record(ctx, evt); recErr != nil {
		e.logger.Warn("audit_hook: failed to record audit event",
			"action", action,
			"resource_id", resourceID,
			"error", recErr,
		)
	}
	return nil
}
