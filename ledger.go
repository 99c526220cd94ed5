package tokensale

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"reflect"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/xraph/tokensale/access"
	"github.com/xraph/tokensale/account"
	"github.com/xraph/tokensale/asset"
	"github.com/xraph/tokensale/event"
	"github.com/xraph/tokensale/group"
	"github.com/xraph/tokensale/id"
	"github.com/xraph/tokensale/plugin"
	"github.com/xraph/tokensale/sale"
	"github.com/xraph/tokensale/store"
	"github.com/xraph/tokensale/types"
)

// Whitelist decides whether an account may buy. A nil Whitelist on the
// ledger means every account may buy.
type Whitelist interface {
	Authorized(ctx context.Context, account common.Address, proof []common.Hash) (bool, error)
}

// AccessControl decides who may run administrative operations.
type AccessControl interface {
	IsOwner(caller common.Address) bool
}

// OwnershipTransferer is implemented by access controls that support
// handing ownership to another account.
type OwnershipTransferer interface {
	Owner() common.Address
	TransferOwnership(next common.Address) error
}

// PauseGate is the switch consulted by purchases and claims.
type PauseGate interface {
	IsPaused() bool
	Pause() error
	Unpause() error
}

// Ledger is the sale engine. Every public operation is serialized on one
// mutex; external calls happen inside the critical section before any state
// changes, and plugins run after it is released.
type Ledger struct {
	mu sync.Mutex

	store   store.Store
	plugins *plugin.Registry
	logger  *slog.Logger
	now     func() time.Time

	address     common.Address
	access      AccessControl
	pause       PauseGate
	assets      asset.Set
	autoMigrate bool

	state        *sale.State
	outputAsset  asset.Asset
	inputAsset   asset.Asset
	whitelist    Whitelist
	entitlements map[common.Address]*account.Entitlement
	commitments  map[uint8]*group.Commitment

	// dirty is set when a commit failed; the next commit writes a full
	// snapshot together with every unpersisted event.
	dirty   bool
	pending []*event.Record
}

// New creates a new Ledger instance.
func New(s store.Store, opts ...Option) *Ledger {
	l := &Ledger{
		store:        s,
		plugins:      plugin.NewRegistry(),
		logger:       slog.Default(),
		now:          time.Now,
		access:       access.NewOwnable(common.Address{}),
		pause:        access.NewPausable(),
		assets:       asset.Set{},
		autoMigrate:  true,
		entitlements: make(map[common.Address]*account.Entitlement),
		commitments:  make(map[uint8]*group.Commitment),
	}

	for _, opt := range opts {
		opt(l)
	}

	l.state = l.freshState()
	return l
}

// Option configures a Ledger instance.
type Option func(*Ledger)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(l *Ledger) {
		l.logger = logger
		l.plugins.WithLogger(logger)
	}
}

// WithPlugin registers a plugin.
func WithPlugin(p plugin.Plugin) Option {
	return func(l *Ledger) {
		_ = l.plugins.Register(p) //nolint:errcheck // best-effort plugin registration during init
	}
}

// WithPluginTimeout bounds each plugin hook call.
func WithPluginTimeout(d time.Duration) Option {
	return func(l *Ledger) {
		l.plugins.WithTimeout(d)
	}
}

// WithClock overrides the time source. Intended for tests.
func WithClock(now func() time.Time) Option {
	return func(l *Ledger) {
		if now != nil {
			l.now = now
		}
	}
}

// WithAddress sets the custody address the ledger holds output tokens at
// and spends buyer allowances as.
func WithAddress(addr common.Address) Option {
	return func(l *Ledger) {
		l.address = addr
	}
}

// WithOwner installs an access.Ownable held by owner.
func WithOwner(owner common.Address) Option {
	return func(l *Ledger) {
		l.access = access.NewOwnable(owner)
	}
}

// WithAccessControl replaces the access control.
func WithAccessControl(ac AccessControl) Option {
	return func(l *Ledger) {
		if ac != nil {
			l.access = ac
		}
	}
}

// WithPauseGate replaces the pause gate.
func WithPauseGate(g PauseGate) Option {
	return func(l *Ledger) {
		if g != nil {
			l.pause = g
		}
	}
}

// WithAssets registers asset handles so a persisted sale can be restored
// on Start.
func WithAssets(assets ...asset.Asset) Option {
	return func(l *Ledger) {
		for addr, a := range asset.NewSet(assets...) {
			l.assets[addr] = a
		}
	}
}

// WithWhitelist supplies the whitelist handle of a persisted sale that was
// initialized with one.
func WithWhitelist(w Whitelist) Option {
	return func(l *Ledger) {
		if !isNilHandle(w) {
			l.whitelist = w
		}
	}
}

// WithAutoMigrate controls whether Start runs store migrations.
func WithAutoMigrate(enabled bool) Option {
	return func(l *Ledger) {
		l.autoMigrate = enabled
	}
}

// Start migrates the store, restores any persisted sale and notifies
// plugins.
func (l *Ledger) Start(ctx context.Context) error {
	if l.autoMigrate {
		if err := l.store.Migrate(ctx); err != nil {
			return err
		}
	}

	if err := l.restore(ctx); err != nil {
		return err
	}

	l.plugins.EmitInit(ctx, l)

	l.mu.Lock()
	st := l.state
	l.logger.Info("tokensale started",
		"sale_id", st.ID.String(),
		"address", l.address.Hex(),
		"initialized", st.Initialized,
		"finalized", st.Finalized,
		"entitlements", len(l.entitlements),
	)
	l.mu.Unlock()

	return nil
}

// Stop flushes unpersisted changes and closes the store.
func (l *Ledger) Stop() error {
	ctx := context.Background()

	var errs MultiError
	errs.Add(l.Flush(ctx))

	l.plugins.EmitShutdown(ctx)

	errs.Add(l.store.Close())
	return errs.ErrOrNil()
}

// Plugins returns the plugin registry.
func (l *Ledger) Plugins() *plugin.Registry { return l.plugins }

// Store returns the underlying store.
func (l *Ledger) Store() store.Store { return l.store }

// Address returns the custody address.
func (l *Ledger) Address() common.Address { return l.address }

// Flush retries persistence after an earlier commit failure. It is a no-op
// when nothing is outstanding.
func (l *Ledger) Flush(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if !l.dirty && len(l.pending) == 0 {
		return nil
	}
	return l.persistLocked(ctx, &store.Batch{})
}

// Dirty reports whether in-memory state is ahead of the store.
func (l *Ledger) Dirty() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.dirty
}

func (l *Ledger) freshState() *sale.State {
	return &sale.State{
		Entity: types.NewEntity(l.now()),
		ID:     id.NewSaleID(),
		Totals: sale.NewTotals(),
	}
}

// restore loads a persisted sale into memory.
func (l *Ledger) restore(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	st, err := l.store.GetState(ctx)
	if IsNotFound(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("tokensale: load state: %w", err)
	}

	ents, err := l.store.ListEntitlements(ctx, account.ListOpts{})
	if err != nil {
		return fmt.Errorf("tokensale: load entitlements: %w", err)
	}
	commits, err := l.store.ListCommitments(ctx)
	if err != nil {
		return fmt.Errorf("tokensale: load commitments: %w", err)
	}

	if st.Initialized {
		out, ok := l.assets.Lookup(st.Config.OutputAsset)
		if !ok {
			return fmt.Errorf("%w: output asset %s", ErrUnknownAsset, st.Config.OutputAsset.Hex())
		}
		in, ok := l.assets.Lookup(st.Config.InputAsset)
		if !ok {
			return fmt.Errorf("%w: input asset %s", ErrUnknownAsset, st.Config.InputAsset.Hex())
		}
		if st.Config.Whitelist && l.whitelist == nil {
			return invalid("whitelist", "persisted sale requires a whitelist handle")
		}
		if !st.Config.Whitelist {
			l.whitelist = nil
		}
		l.outputAsset, l.inputAsset = out, in
	}

	l.state = st
	l.entitlements = make(map[common.Address]*account.Entitlement, len(ents))
	for _, e := range ents {
		l.entitlements[e.Account] = e
	}
	l.commitments = make(map[uint8]*group.Commitment, len(commits))
	for _, c := range commits {
		l.commitments[c.GroupID] = c
	}
	return nil
}

// ──────────────────────────────────────────────────
// Persistence and dispatch
// ──────────────────────────────────────────────────

// emission is one event paired with its journal record.
type emission struct {
	evt event.Event
	rec *event.Record
}

// outcome is what a locked operation hands to the unlocked dispatcher.
type outcome struct {
	op         string
	emitted    []emission
	persistErr error
}

// applyLocked journals events, persists the batch and returns what must be
// dispatched once the mutex is released. Persistence failures are logged and
// recorded on the outcome; the in-memory state stays authoritative.
func (l *Ledger) applyLocked(ctx context.Context, op string, b *store.Batch, events ...event.Event) *outcome {
	now := l.now()
	out := &outcome{op: op}

	for _, e := range events {
		l.state.EventSeq++
		rec := event.NewRecord(l.state.EventSeq, e, now)
		l.pending = append(l.pending, rec)
		out.emitted = append(out.emitted, emission{evt: e, rec: rec})
	}
	l.state.Touch(now)

	if err := l.persistLocked(ctx, b); err != nil {
		out.persistErr = err
	}
	return out
}

func (l *Ledger) persistLocked(ctx context.Context, b *store.Batch) error {
	if l.dirty {
		b = l.snapshotLocked()
	}
	b.State = l.state.Clone()
	b.Events = l.pending

	if err := l.store.Commit(ctx, b); err != nil {
		l.dirty = true
		l.logger.Error("tokensale: persist failed, state kept in memory",
			"error", err,
			"pending_events", len(l.pending),
		)
		return err
	}
	l.dirty = false
	l.pending = nil
	return nil
}

func (l *Ledger) snapshotLocked() *store.Batch {
	b := &store.Batch{
		Entitlements: make([]*account.Entitlement, 0, len(l.entitlements)),
		Commitments:  make([]*group.Commitment, 0, len(l.commitments)),
	}
	for _, e := range l.entitlements {
		b.Entitlements = append(b.Entitlements, e.Clone())
	}
	for _, c := range l.commitments {
		b.Commitments = append(b.Commitments, c.Clone())
	}
	return b
}

// dispatch notifies plugins. Called without the mutex held.
func (l *Ledger) dispatch(ctx context.Context, out *outcome) {
	if out == nil {
		return
	}
	if out.persistErr != nil {
		l.plugins.EmitPersistFailed(ctx, out.op, out.persistErr)
	}
	for _, em := range out.emitted {
		l.plugins.EmitEvent(ctx, em.evt, em.rec)
	}
}

// ──────────────────────────────────────────────────
// Guards
// ──────────────────────────────────────────────────

func (l *Ledger) requireOwner(caller common.Address) error {
	if !l.access.IsOwner(caller) {
		return ErrUnauthorized
	}
	return nil
}

func (l *Ledger) requireInitialized() error {
	if !l.state.Initialized {
		return ErrNotInitialized
	}
	return nil
}

// isNilHandle reports a nil interface or an interface holding a nil
// pointer, map, slice, func or channel.
func isNilHandle(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Ptr, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan, reflect.Interface:
		return rv.IsNil()
	default:
		return false
	}
}

// rejected notifies plugins of a transfer failure behind a rejected op.
func (l *Ledger) rejected(ctx context.Context, op string, err error) {
	if errors.Is(err, ErrTransferFailed) {
		l.logger.Warn("asset transfer failed", "op", op, "error", err)
		l.plugins.EmitTransferFailed(ctx, op, err)
	}
}

// transferErr wraps a collaborator failure so callers can match both the
// sale sentinel and the underlying cause.
func transferErr(op string, err error) error {
	if errors.Is(err, ErrTransferFailed) {
		return err
	}
	return fmt.Errorf("%w: %s: %w", ErrTransferFailed, op, err)
}
