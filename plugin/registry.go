package plugin

import (
	"context"
	"fmt"
	"log/slog"
	"reflect"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"github.com/xraph/tokensale/event"
)

// DefaultTimeout bounds a single plugin hook call.
const DefaultTimeout = 5 * time.Second

// Registry manages all registered plugins and provides efficient dispatch.
// Hook implementations are discovered once at registration.
type Registry struct {
	mu      sync.RWMutex
	plugins []Plugin
	logger  *slog.Logger
	timeout time.Duration

	// Type-cached plugin lists for efficient dispatch
	onInit                 []OnInit
	onShutdown             []OnShutdown
	onSaleInitialized      []OnSaleInitialized
	onSaleFinalized        []OnSaleFinalized
	onConfigUpdated        []OnConfigUpdated
	onPauseChanged         []OnPauseChanged
	onOwnershipTransferred []OnOwnershipTransferred
	onPurchase             []OnPurchase
	onPurchaseRejected     []OnPurchaseRejected
	onClaim                []OnClaim
	onSwept                []OnSwept
	onEvent                []OnEvent
	onTransferFailed       []OnTransferFailed
	onPersistFailed        []OnPersistFailed
}

// NewRegistry creates a new plugin registry.
func NewRegistry() *Registry {
	return &Registry{
		logger:  slog.Default(),
		timeout: DefaultTimeout,
	}
}

// WithLogger sets the logger for the registry.
func (r *Registry) WithLogger(logger *slog.Logger) *Registry {
	r.logger = logger
	return r
}

// WithTimeout bounds each hook call. Non-positive values keep the default.
func (r *Registry) WithTimeout(d time.Duration) *Registry {
	if d > 0 {
		r.timeout = d
	}
	return r
}

// Register adds a plugin to the registry and caches its interfaces.
func (r *Registry) Register(p Plugin) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.plugins {
		if existing.Name() == p.Name() {
			return fmt.Errorf("plugin: duplicate registration: %s", p.Name())
		}
	}

	r.plugins = append(r.plugins, p)

	if v, ok := p.(OnInit); ok {
		r.onInit = append(r.onInit, v)
	}
	if v, ok := p.(OnShutdown); ok {
		r.onShutdown = append(r.onShutdown, v)
	}
	if v, ok := p.(OnSaleInitialized); ok {
		r.onSaleInitialized = append(r.onSaleInitialized, v)
	}
	if v, ok := p.(OnSaleFinalized); ok {
		r.onSaleFinalized = append(r.onSaleFinalized, v)
	}
	if v, ok := p.(OnConfigUpdated); ok {
		r.onConfigUpdated = append(r.onConfigUpdated, v)
	}
	if v, ok := p.(OnPauseChanged); ok {
		r.onPauseChanged = append(r.onPauseChanged, v)
	}
	if v, ok := p.(OnOwnershipTransferred); ok {
		r.onOwnershipTransferred = append(r.onOwnershipTransferred, v)
	}
	if v, ok := p.(OnPurchase); ok {
		r.onPurchase = append(r.onPurchase, v)
	}
	if v, ok := p.(OnPurchaseRejected); ok {
		r.onPurchaseRejected = append(r.onPurchaseRejected, v)
	}
	if v, ok := p.(OnClaim); ok {
		r.onClaim = append(r.onClaim, v)
	}
	if v, ok := p.(OnSwept); ok {
		r.onSwept = append(r.onSwept, v)
	}
	if v, ok := p.(OnEvent); ok {
		r.onEvent = append(r.onEvent, v)
	}
	if v, ok := p.(OnTransferFailed); ok {
		r.onTransferFailed = append(r.onTransferFailed, v)
	}
	if v, ok := p.(OnPersistFailed); ok {
		r.onPersistFailed = append(r.onPersistFailed, v)
	}

	r.logger.Info("plugin registered",
		"name", p.Name(),
		"interfaces", implementedInterfaces(p),
	)

	return nil
}

var hookTypes = []struct {
	name string
	typ  reflect.Type
}{
	{"OnInit", reflect.TypeOf((*OnInit)(nil)).Elem()},
	{"OnShutdown", reflect.TypeOf((*OnShutdown)(nil)).Elem()},
	{"OnSaleInitialized", reflect.TypeOf((*OnSaleInitialized)(nil)).Elem()},
	{"OnSaleFinalized", reflect.TypeOf((*OnSaleFinalized)(nil)).Elem()},
	{"OnConfigUpdated", reflect.TypeOf((*OnConfigUpdated)(nil)).Elem()},
	{"OnPauseChanged", reflect.TypeOf((*OnPauseChanged)(nil)).Elem()},
	{"OnOwnershipTransferred", reflect.TypeOf((*OnOwnershipTransferred)(nil)).Elem()},
	{"OnPurchase", reflect.TypeOf((*OnPurchase)(nil)).Elem()},
	{"OnPurchaseRejected", reflect.TypeOf((*OnPurchaseRejected)(nil)).Elem()},
	{"OnClaim", reflect.TypeOf((*OnClaim)(nil)).Elem()},
	{"OnSwept", reflect.TypeOf((*OnSwept)(nil)).Elem()},
	{"OnEvent", reflect.TypeOf((*OnEvent)(nil)).Elem()},
	{"OnTransferFailed", reflect.TypeOf((*OnTransferFailed)(nil)).Elem()},
	{"OnPersistFailed", reflect.TypeOf((*OnPersistFailed)(nil)).Elem()},
}

// implementedInterfaces returns the hook names a plugin implements.
func implementedInterfaces(p Plugin) []string {
	var names []string
	v := reflect.TypeOf(p)
	for _, h := range hookTypes {
		if v.Implements(h.typ) {
			names = append(names, h.name)
		}
	}
	return names
}

// Get returns a plugin by name.
func (r *Registry) Get(name string) Plugin {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, p := range r.plugins {
		if p.Name() == name {
			return p
		}
	}
	return nil
}

// List returns all registered plugins.
func (r *Registry) List() []Plugin {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]Plugin, len(r.plugins))
	copy(result, r.plugins)
	return result
}

// Count returns the number of registered plugins.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.plugins)
}

// ──────────────────────────────────────────────────
// Event emission methods
// ──────────────────────────────────────────────────

// EmitInit calls OnInit for all plugins that implement it.
func (r *Registry) EmitInit(ctx context.Context, ledger any) {
	r.mu.RLock()
	plugins := r.onInit
	r.mu.RUnlock()

	for _, p := range plugins {
		r.call(ctx, "OnInit", p.Name(), func() error { return p.OnInit(ctx, ledger) })
	}
}

// EmitShutdown calls OnShutdown for all plugins that implement it.
func (r *Registry) EmitShutdown(ctx context.Context) {
	r.mu.RLock()
	plugins := r.onShutdown
	r.mu.RUnlock()

	for _, p := range plugins {
		r.call(ctx, "OnShutdown", p.Name(), func() error { return p.OnShutdown(ctx) })
	}
}

// EmitEvent routes one journaled event to the typed hooks and then to every
// OnEvent plugin.
func (r *Registry) EmitEvent(ctx context.Context, e event.Event, rec *event.Record) {
	r.mu.RLock()
	var (
		onSaleInitialized      = r.onSaleInitialized
		onPurchase             = r.onPurchase
		onClaim                = r.onClaim
		onSaleFinalized        = r.onSaleFinalized
		onSwept                = r.onSwept
		onPauseChanged         = r.onPauseChanged
		onOwnershipTransferred = r.onOwnershipTransferred
		onConfigUpdated        = r.onConfigUpdated
		onEvent                = r.onEvent
	)
	r.mu.RUnlock()

	switch evt := e.(type) {
	case event.Initialized:
		for _, p := range onSaleInitialized {
			r.call(ctx, "OnSaleInitialized", p.Name(), func() error { return p.OnSaleInitialized(ctx, evt) })
		}
	case event.Sale:
		for _, p := range onPurchase {
			r.call(ctx, "OnPurchase", p.Name(), func() error { return p.OnPurchase(ctx, evt) })
		}
	case event.Claim:
		for _, p := range onClaim {
			r.call(ctx, "OnClaim", p.Name(), func() error { return p.OnClaim(ctx, evt) })
		}
	case event.Finalized:
		for _, p := range onSaleFinalized {
			r.call(ctx, "OnSaleFinalized", p.Name(), func() error { return p.OnSaleFinalized(ctx, evt) })
		}
	case event.Swept:
		for _, p := range onSwept {
			r.call(ctx, "OnSwept", p.Name(), func() error { return p.OnSwept(ctx, evt) })
		}
	case event.Paused:
		for _, p := range onPauseChanged {
			r.call(ctx, "OnPauseChanged", p.Name(), func() error { return p.OnPauseChanged(ctx, true, evt.Account) })
		}
	case event.Unpaused:
		for _, p := range onPauseChanged {
			r.call(ctx, "OnPauseChanged", p.Name(), func() error { return p.OnPauseChanged(ctx, false, evt.Account) })
		}
	case event.OwnershipTransferred:
		for _, p := range onOwnershipTransferred {
			r.call(ctx, "OnOwnershipTransferred", p.Name(), func() error { return p.OnOwnershipTransferred(ctx, evt) })
		}
	default:
		for _, p := range onConfigUpdated {
			r.call(ctx, "OnConfigUpdated", p.Name(), func() error { return p.OnConfigUpdated(ctx, e) })
		}
	}

	if rec == nil {
		return
	}
	for _, p := range onEvent {
		r.call(ctx, "OnEvent", p.Name(), func() error { return p.OnEvent(ctx, rec) })
	}
}

// EmitPurchaseRejected reports a rejected purchase.
func (r *Registry) EmitPurchaseRejected(ctx context.Context, buyer common.Address, amountIn *uint256.Int, reason error) {
	r.mu.RLock()
	plugins := r.onPurchaseRejected
	r.mu.RUnlock()

	for _, p := range plugins {
		r.call(ctx, "OnPurchaseRejected", p.Name(), func() error {
			return p.OnPurchaseRejected(ctx, buyer, amountIn, reason)
		})
	}
}

// EmitTransferFailed reports an asset transfer that failed and rejected op.
func (r *Registry) EmitTransferFailed(ctx context.Context, op string, err error) {
	r.mu.RLock()
	plugins := r.onTransferFailed
	r.mu.RUnlock()

	for _, p := range plugins {
		r.call(ctx, "OnTransferFailed", p.Name(), func() error { return p.OnTransferFailed(ctx, op, err) })
	}
}

// EmitPersistFailed reports a store write that failed after the state
// change was applied.
func (r *Registry) EmitPersistFailed(ctx context.Context, op string, err error) {
	r.mu.RLock()
	plugins := r.onPersistFailed
	r.mu.RUnlock()

	for _, p := range plugins {
		r.call(ctx, "OnPersistFailed", p.Name(), func() error { return p.OnPersistFailed(ctx, op, err) })
	}
}

// call runs one hook and logs its failure.
func (r *Registry) call(ctx context.Context, hook, pluginName string, fn func() error) {
	if err := r.callWithTimeout(ctx, pluginName, fn); err != nil {
		r.logger.Warn("plugin "+hook+" failed",
			"plugin", pluginName,
			"error", err,
		)
	}
}

// callWithTimeout calls a plugin function with a timeout.
// Plugins never block the sale pipeline past the registry timeout.
func (r *Registry) callWithTimeout(ctx context.Context, pluginName string, fn func() error) error {
	done := make(chan error, 1)

	go func() {
		done <- fn()
	}()

	timer := time.NewTimer(r.timeout)
	defer timer.Stop()

	select {
	case err := <-done:
		return err
	case <-timer.C:
		return fmt.Errorf("plugin timeout: %s", pluginName)
	case <-ctx.Done():
		return ctx.Err()
	}
}
