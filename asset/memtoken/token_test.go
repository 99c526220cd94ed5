package memtoken_test

import (
	"context"
	"errors"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xraph/tokensale/asset"
	"github.com/xraph/tokensale/asset/memtoken"
)

var (
	alice = common.HexToAddress("0xa11ce")
	bob   = common.HexToAddress("0xb0b")
	sale  = common.HexToAddress("0x5a1e")
)

func TestMintAndTransfer(t *testing.T) {
	ctx := context.Background()
	tok := memtoken.New(common.HexToAddress("0x1"), "USDC", 6)

	require.NoError(t, tok.Mint(alice, uint256.NewInt(100)))
	require.NoError(t, tok.Transfer(ctx, alice, bob, uint256.NewInt(40)))

	bal, err := tok.BalanceOf(ctx, alice)
	require.NoError(t, err)
	assert.Equal(t, uint64(60), bal.Uint64())
	bal, _ = tok.BalanceOf(ctx, bob)
	assert.Equal(t, uint64(40), bal.Uint64())
	assert.Equal(t, uint64(100), tok.TotalSupply().Uint64())
	assert.Len(t, tok.Transfers(), 1)
}

func TestTransferIsAllOrNothing(t *testing.T) {
	ctx := context.Background()
	tok := memtoken.New(common.HexToAddress("0x1"), "USDC", 6)
	require.NoError(t, tok.Mint(alice, uint256.NewInt(10)))

	err := tok.Transfer(ctx, alice, bob, uint256.NewInt(11))
	require.ErrorIs(t, err, asset.ErrInsufficientBalance)

	bal, _ := tok.BalanceOf(ctx, alice)
	assert.Equal(t, uint64(10), bal.Uint64())
	assert.Empty(t, tok.Transfers())

	require.ErrorIs(t, tok.Transfer(ctx, alice, common.Address{}, uint256.NewInt(1)), asset.ErrZeroAddress)
}

func TestTransferFromSpendsAllowance(t *testing.T) {
	ctx := context.Background()
	tok := memtoken.New(common.HexToAddress("0x1"), "USDC", 6)
	require.NoError(t, tok.Mint(alice, uint256.NewInt(100)))

	err := tok.TransferFrom(ctx, sale, alice, bob, uint256.NewInt(5))
	require.ErrorIs(t, err, asset.ErrInsufficientAllowance)

	tok.Approve(alice, sale, uint256.NewInt(50))
	require.NoError(t, tok.TransferFrom(ctx, sale, alice, bob, uint256.NewInt(30)))
	assert.Equal(t, uint64(20), tok.Allowance(alice, sale).Uint64())

	bal, _ := tok.BalanceOf(ctx, bob)
	assert.Equal(t, uint64(30), bal.Uint64())
}

func TestFailNext(t *testing.T) {
	ctx := context.Background()
	tok := memtoken.New(common.HexToAddress("0x1"), "CTDL", 18)
	require.NoError(t, tok.Mint(alice, uint256.NewInt(10)))

	boom := errors.New("boom")
	tok.FailNext(boom)
	require.ErrorIs(t, tok.Transfer(ctx, alice, bob, uint256.NewInt(1)), boom)
	require.NoError(t, tok.Transfer(ctx, alice, bob, uint256.NewInt(1)))
}

func TestSetLookup(t *testing.T) {
	a := memtoken.New(common.HexToAddress("0x1"), "A", 6)
	b := memtoken.New(common.HexToAddress("0x2"), "B", 18)
	set := asset.NewSet(a, b, nil)

	got, ok := set.Lookup(common.HexToAddress("0x2"))
	require.True(t, ok)
	assert.Equal(t, uint8(18), got.Decimals())

	_, ok = set.Lookup(common.HexToAddress("0x3"))
	assert.False(t, ok)
}
