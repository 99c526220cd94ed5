// Package asset defines the fungible-asset capability the sale ledger moves
// value through. Implementations are all-or-nothing: a call either moves the
// full amount or returns an error and moves nothing.
package asset

import (
	"context"
	"errors"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

var (
	ErrInsufficientBalance   = errors.New("asset: insufficient balance")
	ErrInsufficientAllowance = errors.New("asset: insufficient allowance")
	ErrZeroAddress           = errors.New("asset: zero address")
)

// Asset is a fungible token the ledger can query and move.
type Asset interface {
	// Address identifies the asset. Sweep and event payloads refer to it.
	Address() common.Address

	// Decimals is the number of base-unit decimal places of one whole token.
	Decimals() uint8

	BalanceOf(ctx context.Context, account common.Address) (*uint256.Int, error)

	// Transfer moves amount from the holder "from" to "to". The ledger only
	// calls it with from set to its own custody address.
	Transfer(ctx context.Context, from, to common.Address, amount *uint256.Int) error

	// TransferFrom moves amount from "from" to "to" using an allowance that
	// "from" granted to spender.
	TransferFrom(ctx context.Context, spender, from, to common.Address, amount *uint256.Int) error
}

// Set maps asset addresses to handles.
type Set map[common.Address]Asset

// NewSet indexes the given assets by address. Nil entries are skipped.
func NewSet(assets ...Asset) Set {
	s := make(Set, len(assets))
	for _, a := range assets {
		if a != nil {
			s[a.Address()] = a
		}
	}
	return s
}

// Lookup returns the asset registered at addr.
func (s Set) Lookup(addr common.Address) (Asset, bool) {
	a, ok := s[addr]
	return a, ok
}
