// Package observability provides a metrics extension for the sale ledger
// that records lifecycle event counts through a MetricFactory.
package observability

import (
	"context"
	"errors"
	"strconv"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"github.com/xraph/tokensale"
	"github.com/xraph/tokensale/event"
	"github.com/xraph/tokensale/plugin"
)

// Ensure MetricsExtension implements required interfaces.
var (
	_ plugin.Plugin             = (*MetricsExtension)(nil)
	_ plugin.OnInit             = (*MetricsExtension)(nil)
	_ plugin.OnSaleInitialized  = (*MetricsExtension)(nil)
	_ plugin.OnSaleFinalized    = (*MetricsExtension)(nil)
	_ plugin.OnConfigUpdated    = (*MetricsExtension)(nil)
	_ plugin.OnPauseChanged     = (*MetricsExtension)(nil)
	_ plugin.OnPurchase         = (*MetricsExtension)(nil)
	_ plugin.OnPurchaseRejected = (*MetricsExtension)(nil)
	_ plugin.OnClaim            = (*MetricsExtension)(nil)
	_ plugin.OnSwept            = (*MetricsExtension)(nil)
	_ plugin.OnTransferFailed   = (*MetricsExtension)(nil)
	_ plugin.OnPersistFailed    = (*MetricsExtension)(nil)
)

// Counter interface for metric counters.
type Counter interface {
	Inc()
	Add(float64)
}

// Histogram interface for metric histograms.
type Histogram interface {
	Observe(float64)
}

// MetricFactory creates metrics.
type MetricFactory interface {
	Counter(name string) Counter
	Histogram(name string) Histogram
}

// MetricsExtension records sale lifecycle metrics.
// Register it as a ledger plugin to track purchases and settlement.
type MetricsExtension struct {
	factory MetricFactory

	// Lifecycle metrics
	SaleInitialized Counter
	SaleFinalized   Counter
	ConfigUpdated   Counter
	Paused          Counter
	Unpaused        Counter

	// Admission metrics
	Purchases         Counter
	PurchasesRejected Counter
	CapRejections     Counter
	AuthRejections    Counter
	AmountIn          Histogram
	AmountOut         Histogram

	// Settlement metrics
	Claims        Counter
	ClaimedAmount Histogram
	Sweeps        Counter

	// Error metrics
	TransferErrors Counter
	StoreErrors    Counter
}

// NewMetricsExtension creates a MetricsExtension with the provided MetricFactory.
func NewMetricsExtension(factory MetricFactory) *MetricsExtension {
	return &MetricsExtension{
		factory: factory,

		// Lifecycle metrics
		SaleInitialized: factory.Counter("tokensale.sale.initialized"),
		SaleFinalized:   factory.Counter("tokensale.sale.finalized"),
		ConfigUpdated:   factory.Counter("tokensale.config.updated"),
		Paused:          factory.Counter("tokensale.sale.paused"),
		Unpaused:        factory.Counter("tokensale.sale.unpaused"),

		// Admission metrics
		Purchases:         factory.Counter("tokensale.purchase.accepted"),
		PurchasesRejected: factory.Counter("tokensale.purchase.rejected"),
		CapRejections:     factory.Counter("tokensale.purchase.cap_exceeded"),
		AuthRejections:    factory.Counter("tokensale.purchase.not_authorized"),
		AmountIn:          factory.Histogram("tokensale.purchase.amount_in"),
		AmountOut:         factory.Histogram("tokensale.purchase.amount_out"),

		// Settlement metrics
		Claims:        factory.Counter("tokensale.claim.completed"),
		ClaimedAmount: factory.Histogram("tokensale.claim.amount"),
		Sweeps:        factory.Counter("tokensale.sweep.completed"),

		// Error metrics
		TransferErrors: factory.Counter("tokensale.transfer.errors"),
		StoreErrors:    factory.Counter("tokensale.store.errors"),
	}
}

// Name implements plugin.Plugin.
func (m *MetricsExtension) Name() string { return "observability-metrics" }

// OnInit implements plugin.OnInit.
func (m *MetricsExtension) OnInit(_ context.Context, _ any) error {
	return nil
}

// ──────────────────────────────────────────────────
// Sale lifecycle hooks
// ──────────────────────────────────────────────────

// OnSaleInitialized implements plugin.OnSaleInitialized.
func (m *MetricsExtension) OnSaleInitialized(_ context.Context, _ event.Initialized) error {
	m.SaleInitialized.Inc()
	return nil
}

// OnSaleFinalized implements plugin.OnSaleFinalized.
func (m *MetricsExtension) OnSaleFinalized(_ context.Context, _ event.Finalized) error {
	m.SaleFinalized.Inc()
	return nil
}

// OnConfigUpdated implements plugin.OnConfigUpdated.
func (m *MetricsExtension) OnConfigUpdated(_ context.Context, _ event.Event) error {
	m.ConfigUpdated.Inc()
	return nil
}

// OnPauseChanged implements plugin.OnPauseChanged.
func (m *MetricsExtension) OnPauseChanged(_ context.Context, paused bool, _ common.Address) error {
	if paused {
		m.Paused.Inc()
	} else {
		m.Unpaused.Inc()
	}
	return nil
}

// ──────────────────────────────────────────────────
// Admission hooks
// ──────────────────────────────────────────────────

// OnPurchase implements plugin.OnPurchase.
func (m *MetricsExtension) OnPurchase(_ context.Context, evt event.Sale) error {
	m.Purchases.Inc()
	m.AmountIn.Observe(amountValue(evt.AmountIn))
	m.AmountOut.Observe(amountValue(evt.AmountOut))
	return nil
}

// OnPurchaseRejected implements plugin.OnPurchaseRejected.
func (m *MetricsExtension) OnPurchaseRejected(_ context.Context, _ common.Address, _ *uint256.Int, reason error) error {
	m.PurchasesRejected.Inc()
	switch {
	case errors.Is(reason, tokensale.ErrCapExceeded):
		m.CapRejections.Inc()
	case errors.Is(reason, tokensale.ErrNotAuthorized):
		m.AuthRejections.Inc()
	}
	return nil
}

// ──────────────────────────────────────────────────
// Settlement hooks
// ──────────────────────────────────────────────────

// OnClaim implements plugin.OnClaim.
func (m *MetricsExtension) OnClaim(_ context.Context, evt event.Claim) error {
	m.Claims.Inc()
	m.ClaimedAmount.Observe(amountValue(evt.Amount))
	return nil
}

// OnSwept implements plugin.OnSwept.
func (m *MetricsExtension) OnSwept(_ context.Context, _ event.Swept) error {
	m.Sweeps.Inc()
	return nil
}

// OnTransferFailed implements plugin.OnTransferFailed. It counts failed
// transfers of purchases, claims and sweeps alike.
func (m *MetricsExtension) OnTransferFailed(_ context.Context, _ string, _ error) error {
	m.TransferErrors.Inc()
	return nil
}

// OnPersistFailed implements plugin.OnPersistFailed.
func (m *MetricsExtension) OnPersistFailed(_ context.Context, _ string, _ error) error {
	m.StoreErrors.Inc()
	return nil
}

// amountValue converts base units to a float for histograms. Precision loss
// above 2^53 is acceptable for metrics.
func amountValue(x *uint256.Int) float64 {
	if x == nil {
		return 0
	}
	f, err := strconv.ParseFloat(x.Dec(), 64)
	if err != nil {
		return 0
	}
	return f
}
