package tokensale_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"

	"github.com/xraph/tokensale"
	"github.com/xraph/tokensale/asset/memtoken"
	"github.com/xraph/tokensale/event"
	"github.com/xraph/tokensale/store/memory"
	"github.com/xraph/tokensale/types"
)

const (
	outDecimals = 18
	inDecimals  = 6
)

var (
	saleAddr = common.HexToAddress("0x5a1e00000000000000000000000000000000005a")
	owner    = common.HexToAddress("0x0000000000000000000000000000000000000001")
	treasury = common.HexToAddress("0x7ea5000000000000000000000000000000007ea5")
	alice    = common.HexToAddress("0xa11ce00000000000000000000000000000000a11")
	bob      = common.HexToAddress("0xb0b0000000000000000000000000000000000b0b")
	carol    = common.HexToAddress("0xca10100000000000000000000000000000000ca1")
	mallory  = common.HexToAddress("0x3a11000000000000000000000000000000003a11")

	epoch = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
)

// in is n whole input tokens.
func in(n uint64) *uint256.Int { return types.Whole(n, inDecimals) }

// out is n whole output tokens.
func out(n uint64) *uint256.Int { return types.Whole(n, outDecimals) }

type fixture struct {
	ctx    context.Context
	now    time.Time
	store  *memory.Store
	outTok *memtoken.Token
	inTok  *memtoken.Token
	rec    *recorder
	ledger *tokensale.Ledger
}

func newFixture(t *testing.T, opts ...tokensale.Option) *fixture {
	t.Helper()

	f := &fixture{
		ctx:    context.Background(),
		now:    epoch,
		store:  memory.New(),
		outTok: memtoken.New(common.HexToAddress("0x00000000000000000000000000000000000000aa"), "OUT", outDecimals),
		inTok:  memtoken.New(common.HexToAddress("0x00000000000000000000000000000000000000bb"), "USDC", inDecimals),
		rec:    &recorder{},
	}

	base := []tokensale.Option{
		tokensale.WithAddress(saleAddr),
		tokensale.WithOwner(owner),
		tokensale.WithClock(f.clock),
		tokensale.WithPlugin(f.rec),
	}
	f.ledger = tokensale.New(f.store, append(base, opts...)...)
	require.NoError(t, f.ledger.Start(f.ctx))
	return f
}

func (f *fixture) clock() time.Time { return f.now }

// params is a 1 USDC per token sale opening in an hour for a day, capped at
// 1000 USDC.
func (f *fixture) params() tokensale.InitParams {
	return tokensale.InitParams{
		OutputAsset:   f.outTok,
		InputAsset:    f.inTok,
		SaleStart:     f.now.Add(time.Hour),
		SaleDuration:  24 * time.Hour,
		TokenOutPrice: tokensale.PriceFor(1, inDecimals),
		SaleRecipient: treasury,
		InputLimit:    in(1000),
	}
}

func (f *fixture) initialize(t *testing.T, mutate ...func(*tokensale.InitParams)) {
	t.Helper()
	p := f.params()
	for _, m := range mutate {
		m(&p)
	}
	require.NoError(t, f.ledger.Initialize(f.ctx, owner, p))
}

// open initializes the sale and moves the clock into the window.
func (f *fixture) open(t *testing.T, mutate ...func(*tokensale.InitParams)) {
	t.Helper()
	f.initialize(t, mutate...)
	f.now = f.ledger.Config().SaleStart
}

func (f *fixture) closeWindow() {
	f.now = f.ledger.Config().End()
}

// fund mints input to acct and approves the ledger for all of it.
func (f *fixture) fund(t *testing.T, acct common.Address, amount *uint256.Int) {
	t.Helper()
	require.NoError(t, f.inTok.Mint(acct, amount))
	f.inTok.Approve(acct, saleAddr, amount)
}

func (f *fixture) buy(t *testing.T, acct common.Address, amount *uint256.Int, groupID uint8) *uint256.Int {
	t.Helper()
	f.fund(t, acct, amount)
	got, err := f.ledger.Buy(f.ctx, acct, amount, groupID, nil)
	require.NoError(t, err)
	return got
}

// finalize deposits the reserve, closes the window and finalizes.
func (f *fixture) finalize(t *testing.T) {
	t.Helper()
	require.NoError(t, f.outTok.Mint(saleAddr, f.ledger.Totals().TotalOutBought))
	f.closeWindow()
	require.NoError(t, f.ledger.Finalize(f.ctx, owner))
}

func (f *fixture) balance(t *testing.T, tok *memtoken.Token, acct common.Address) *uint256.Int {
	t.Helper()
	b, err := tok.BalanceOf(f.ctx, acct)
	require.NoError(t, err)
	return b
}

func (f *fixture) eventTypes(t *testing.T) []event.Type {
	t.Helper()
	recs, err := f.ledger.Events(f.ctx, event.QueryOpts{})
	require.NoError(t, err)
	kinds := make([]event.Type, len(recs))
	for i, r := range recs {
		kinds[i] = r.Type
	}
	return kinds
}

// seen is what a recorder observed.
type seen struct {
	started       bool
	purchases     []event.Sale
	rejected      []error
	claims        []event.Claim
	finalized     int
	configUpdates []event.Type
	pauses        []bool
	records       []*event.Record
	persistFailed []string
	transferFail  []string
}

// recorder is a plugin that remembers what it saw.
type recorder struct {
	mu sync.Mutex
	s  seen
}

func (r *recorder) Name() string { return "recorder" }

func (r *recorder) OnInit(_ context.Context, _ any) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.s.started = true
	return nil
}

func (r *recorder) OnPurchase(_ context.Context, e event.Sale) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.s.purchases = append(r.s.purchases, e)
	return nil
}

func (r *recorder) OnPurchaseRejected(_ context.Context, _ common.Address, _ *uint256.Int, reason error) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.s.rejected = append(r.s.rejected, reason)
	return nil
}

func (r *recorder) OnClaim(_ context.Context, e event.Claim) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.s.claims = append(r.s.claims, e)
	return nil
}

func (r *recorder) OnSaleFinalized(_ context.Context, _ event.Finalized) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.s.finalized++
	return nil
}

func (r *recorder) OnConfigUpdated(_ context.Context, e event.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.s.configUpdates = append(r.s.configUpdates, e.Type())
	return nil
}

func (r *recorder) OnPauseChanged(_ context.Context, paused bool, _ common.Address) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.s.pauses = append(r.s.pauses, paused)
	return nil
}

func (r *recorder) OnEvent(_ context.Context, rec *event.Record) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.s.records = append(r.s.records, rec)
	return nil
}

func (r *recorder) OnPersistFailed(_ context.Context, op string, _ error) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.s.persistFailed = append(r.s.persistFailed, op)
	return nil
}

func (r *recorder) OnTransferFailed(_ context.Context, op string, _ error) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.s.transferFail = append(r.s.transferFail, op)
	return nil
}

func (r *recorder) snapshot() seen {
	r.mu.Lock()
	defer r.mu.Unlock()
	return seen{
		started:       r.s.started,
		purchases:     append([]event.Sale(nil), r.s.purchases...),
		rejected:      append([]error(nil), r.s.rejected...),
		claims:        append([]event.Claim(nil), r.s.claims...),
		finalized:     r.s.finalized,
		configUpdates: append([]event.Type(nil), r.s.configUpdates...),
		pauses:        append([]bool(nil), r.s.pauses...),
		records:       append([]*event.Record(nil), r.s.records...),
		persistFailed: append([]string(nil), r.s.persistFailed...),
		transferFail:  append([]string(nil), r.s.transferFail...),
	}
}
