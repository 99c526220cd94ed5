// Package whitelist provides reference whitelist oracles for the sale ledger.
//
// A GuestList authorizes an account when it was added explicitly with
// SetGuests, or when it presents a Merkle proof against the configured guest
// root. A zero guest root opens the list to everyone.
package whitelist

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// ErrLengthMismatch is returned by SetGuests when the slices differ in length.
var ErrLengthMismatch = errors.New("whitelist: accounts and approvals differ in length")

// Func adapts a plain function to the ledger's whitelist interface.
type Func func(ctx context.Context, account common.Address, proof []common.Hash) (bool, error)

// Authorized calls f.
func (f Func) Authorized(ctx context.Context, account common.Address, proof []common.Hash) (bool, error) {
	return f(ctx, account, proof)
}

// GuestList is an explicit guest set plus an optional Merkle root.
type GuestList struct {
	mu     sync.RWMutex
	guests map[common.Address]bool
	root   common.Hash
}

// NewGuestList returns a list with no guests and a zero root.
func NewGuestList() *GuestList {
	return &GuestList{guests: make(map[common.Address]bool)}
}

// SetGuests sets or clears the approval of each account.
func (g *GuestList) SetGuests(accounts []common.Address, approved []bool) error {
	if len(accounts) != len(approved) {
		return fmt.Errorf("%w: %d != %d", ErrLengthMismatch, len(accounts), len(approved))
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	for i, a := range accounts {
		if approved[i] {
			g.guests[a] = true
		} else {
			delete(g.guests, a)
		}
	}
	return nil
}

// SetGuestRoot replaces the Merkle root. The zero hash opens the list.
func (g *GuestList) SetGuestRoot(root common.Hash) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.root = root
}

// GuestRoot returns the current Merkle root.
func (g *GuestList) GuestRoot() common.Hash {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.root
}

// IsGuest reports explicit membership only.
func (g *GuestList) IsGuest(account common.Address) bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.guests[account]
}

// Authorized implements the ledger whitelist interface. A nil list admits
// nobody.
func (g *GuestList) Authorized(_ context.Context, account common.Address, proof []common.Hash) (bool, error) {
	if g == nil {
		return false, nil
	}
	g.mu.RLock()
	defer g.mu.RUnlock()

	if g.guests[account] {
		return true, nil
	}
	if g.root == (common.Hash{}) {
		return true, nil
	}
	return Verify(proof, g.root, Leaf(account)), nil
}

// Leaf is the Merkle leaf for account: keccak256 of its 20 address bytes.
func Leaf(account common.Address) common.Hash {
	return crypto.Keccak256Hash(account.Bytes())
}

// Verify folds proof into leaf with sorted-pair keccak256 hashing and
// compares the result to root.
func Verify(proof []common.Hash, root, leaf common.Hash) bool {
	computed := leaf
	for _, sibling := range proof {
		computed = hashPair(computed, sibling)
	}
	return computed == root
}

// Root computes the sorted-pair Merkle root over leaves. An odd node is
// promoted unchanged to the next level.
func Root(leaves []common.Hash) common.Hash {
	if len(leaves) == 0 {
		return common.Hash{}
	}
	level := append([]common.Hash(nil), leaves...)
	for len(level) > 1 {
		next := make([]common.Hash, 0, (len(level)+1)/2)
		for i := 0; i < len(level); i += 2 {
			if i+1 == len(level) {
				next = append(next, level[i])
				continue
			}
			next = append(next, hashPair(level[i], level[i+1]))
		}
		level = next
	}
	return level[0]
}

// Proof returns the sibling path for leaves[index] matching Root.
func Proof(leaves []common.Hash, index int) []common.Hash {
	if index < 0 || index >= len(leaves) {
		return nil
	}
	var path []common.Hash
	level := append([]common.Hash(nil), leaves...)
	for len(level) > 1 {
		sibling := index ^ 1
		if sibling < len(level) {
			path = append(path, level[sibling])
		}
		next := make([]common.Hash, 0, (len(level)+1)/2)
		for i := 0; i < len(level); i += 2 {
			if i+1 == len(level) {
				next = append(next, level[i])
				continue
			}
			next = append(next, hashPair(level[i], level[i+1]))
		}
		level = next
		index /= 2
	}
	return path
}

func hashPair(a, b common.Hash) common.Hash {
	if bytes.Compare(a[:], b[:]) > 0 {
		a, b = b, a
	}
	return crypto.Keccak256Hash(a[:], b[:])
}
