package whitelist_test

import (
	"context"
	"errors"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xraph/tokensale/whitelist"
)

var (
	buyer = common.HexToAddress("0xb0b")
	rando = common.HexToAddress("0x4a4d0")
)

func TestZeroRootIsOpen(t *testing.T) {
	gl := whitelist.NewGuestList()
	ok, err := gl.Authorized(context.Background(), rando, nil)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestNilGuestListAdmitsNobody(t *testing.T) {
	var gl *whitelist.GuestList
	ok, err := gl.Authorized(context.Background(), buyer, nil)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestExplicitGuests(t *testing.T) {
	ctx := context.Background()
	gl := whitelist.NewGuestList()
	gl.SetGuestRoot(common.BigToHash(common.Big1))
	require.NoError(t, gl.SetGuests([]common.Address{buyer}, []bool{true}))

	ok, _ := gl.Authorized(ctx, buyer, nil)
	assert.True(t, ok)
	ok, _ = gl.Authorized(ctx, rando, nil)
	assert.False(t, ok)

	require.NoError(t, gl.SetGuests([]common.Address{buyer}, []bool{false}))
	assert.False(t, gl.IsGuest(buyer))

	err := gl.SetGuests([]common.Address{buyer}, nil)
	require.ErrorIs(t, err, whitelist.ErrLengthMismatch)
}

func TestMerkleProof(t *testing.T) {
	ctx := context.Background()
	accounts := []common.Address{
		common.HexToAddress("0x01"),
		common.HexToAddress("0x02"),
		common.HexToAddress("0x03"),
		common.HexToAddress("0x04"),
		common.HexToAddress("0x05"),
	}
	leaves := make([]common.Hash, len(accounts))
	for i, a := range accounts {
		leaves[i] = whitelist.Leaf(a)
	}

	gl := whitelist.NewGuestList()
	gl.SetGuestRoot(whitelist.Root(leaves))

	for i, a := range accounts {
		ok, err := gl.Authorized(ctx, a, whitelist.Proof(leaves, i))
		require.NoError(t, err)
		assert.True(t, ok, "account %d", i)
	}

	ok, _ := gl.Authorized(ctx, rando, whitelist.Proof(leaves, 0))
	assert.False(t, ok)
	ok, _ = gl.Authorized(ctx, accounts[1], whitelist.Proof(leaves, 0))
	assert.False(t, ok)
}

func TestFunc(t *testing.T) {
	boom := errors.New("oracle down")
	f := whitelist.Func(func(context.Context, common.Address, []common.Hash) (bool, error) {
		return false, boom
	})
	_, err := f.Authorized(context.Background(), buyer, nil)
	require.ErrorIs(t, err, boom)
}
