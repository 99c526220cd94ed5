package memory_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xraph/tokensale"
	"github.com/xraph/tokensale/account"
	"github.com/xraph/tokensale/event"
	"github.com/xraph/tokensale/group"
	"github.com/xraph/tokensale/id"
	"github.com/xraph/tokensale/sale"
	"github.com/xraph/tokensale/store"
	"github.com/xraph/tokensale/store/memory"
)

func TestStateRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := memory.New()

	_, err := s.GetState(ctx)
	require.True(t, tokensale.IsNotFound(err))

	st := &sale.State{
		ID:          id.NewSaleID(),
		Config:      sale.Config{TokenOutPrice: uint256.NewInt(5), InputLimit: uint256.NewInt(100)},
		Totals:      sale.NewTotals(),
		Initialized: true,
	}
	require.NoError(t, s.SaveState(ctx, st))

	// Mutating the caller's copy must not leak into the store.
	st.Totals.TotalIn.SetUint64(99)

	got, err := s.GetState(ctx)
	require.NoError(t, err)
	assert.True(t, got.Totals.TotalIn.IsZero())
	assert.Equal(t, uint64(5), got.Config.TokenOutPrice.Uint64())
}

func TestListEntitlementsOrderAndFilters(t *testing.T) {
	ctx := context.Background()
	s := memory.New()

	addrs := []common.Address{
		common.HexToAddress("0x03"),
		common.HexToAddress("0x01"),
		common.HexToAddress("0x02"),
	}
	for i, a := range addrs {
		require.NoError(t, s.PutEntitlement(ctx, &account.Entitlement{
			Account:      a,
			BoughtAmount: uint256.NewInt(uint64(i + 1)),
			HasClaimed:   i == 0,
		}))
	}

	all, err := s.ListEntitlements(ctx, account.ListOpts{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, common.HexToAddress("0x01"), all[0].Account)
	assert.Equal(t, common.HexToAddress("0x03"), all[2].Account)

	claimed, _ := s.ListEntitlements(ctx, account.ListOpts{ClaimedOnly: true})
	require.Len(t, claimed, 1)
	assert.Equal(t, common.HexToAddress("0x03"), claimed[0].Account)

	unclaimed, _ := s.ListEntitlements(ctx, account.ListOpts{UnclaimedOnly: true, Limit: 1, Offset: 1})
	require.Len(t, unclaimed, 1)
	assert.Equal(t, common.HexToAddress("0x02"), unclaimed[0].Account)
}

func TestCommitmentsSortedByGroup(t *testing.T) {
	ctx := context.Background()
	s := memory.New()
	for _, g := range []uint8{7, 0, 3} {
		require.NoError(t, s.PutCommitment(ctx, &group.Commitment{GroupID: g, Amount: uint256.NewInt(uint64(g))}))
	}
	list, err := s.ListCommitments(ctx)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, []uint8{0, 3, 7}, []uint8{list[0].GroupID, list[1].GroupID, list[2].GroupID})

	_, err = s.GetCommitment(ctx, 9)
	require.ErrorIs(t, err, tokensale.ErrNotFound)
}

func TestEventsIdempotentAndFiltered(t *testing.T) {
	ctx := context.Background()
	s := memory.New()
	at := time.Now()

	r1 := event.NewRecord(1, event.Paused{}, at)
	r2 := event.NewRecord(2, event.Unpaused{}, at)
	r3 := event.NewRecord(3, event.Paused{}, at)
	require.NoError(t, s.AppendEvents(ctx, []*event.Record{r1, r2}))
	require.NoError(t, s.AppendEvents(ctx, []*event.Record{r2, r3}))

	all, err := s.ListEvents(ctx, event.QueryOpts{})
	require.NoError(t, err)
	require.Len(t, all, 3)

	paused, _ := s.ListEvents(ctx, event.QueryOpts{Type: event.TypePaused})
	assert.Len(t, paused, 2)

	after, _ := s.ListEvents(ctx, event.QueryOpts{AfterSeq: 1, Limit: 1})
	require.Len(t, after, 1)
	assert.Equal(t, uint64(2), after[0].Sequence)
}

func TestCommitAndFailure(t *testing.T) {
	ctx := context.Background()
	s := memory.New()
	buyer := common.HexToAddress("0xb0b")

	boom := errors.New("disk full")
	s.FailNextCommit(boom)

	b := &store.Batch{
		State:        &sale.State{Totals: sale.NewTotals(), EventSeq: 1},
		Entitlements: []*account.Entitlement{{Account: buyer, BoughtAmount: uint256.NewInt(4)}},
		Commitments:  []*group.Commitment{{GroupID: 1, Amount: uint256.NewInt(4)}},
		Events:       []*event.Record{event.NewRecord(1, event.Paused{}, time.Now())},
	}
	require.ErrorIs(t, s.Commit(ctx, b), boom)
	_, err := s.GetState(ctx)
	require.ErrorIs(t, err, tokensale.ErrNotFound)

	require.NoError(t, s.Commit(ctx, b))
	got, err := s.GetEntitlement(ctx, buyer)
	require.NoError(t, err)
	assert.Equal(t, uint64(4), got.BoughtAmount.Uint64())
	st, err := s.GetState(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), st.EventSeq)
}

func TestClosed(t *testing.T) {
	ctx := context.Background()
	s := memory.New()
	require.NoError(t, s.Ping(ctx))
	require.NoError(t, s.Close())

	require.ErrorIs(t, s.Ping(ctx), tokensale.ErrStoreClosed)
	_, err := s.GetState(ctx)
	require.ErrorIs(t, err, tokensale.ErrStoreClosed)
	require.ErrorIs(t, s.Commit(ctx, &store.Batch{}), tokensale.ErrStoreClosed)
}
