// Package access provides the reference owner check and pause switch the sale
// ledger consults before administrative and user operations.
package access

import (
	"errors"
	"sync"
	"sync/atomic"

	"github.com/ethereum/go-ethereum/common"
)

var (
	ErrZeroOwner     = errors.New("access: new owner is the zero address")
	ErrAlreadyPaused = errors.New("access: already paused")
	ErrNotPaused     = errors.New("access: not paused")
)

// Ownable grants administrative rights to a single owner address.
type Ownable struct {
	mu    sync.RWMutex
	owner common.Address
}

// NewOwnable creates an Ownable held by owner.
func NewOwnable(owner common.Address) *Ownable {
	return &Ownable{owner: owner}
}

// Owner returns the current owner.
func (o *Ownable) Owner() common.Address {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.owner
}

// IsOwner reports whether caller is the current owner. The zero address is
// never an owner.
func (o *Ownable) IsOwner(caller common.Address) bool {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return caller != (common.Address{}) && caller == o.owner
}

// TransferOwnership hands ownership to next. The caller check is the
// ledger's responsibility.
func (o *Ownable) TransferOwnership(next common.Address) error {
	if next == (common.Address{}) {
		return ErrZeroOwner
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	o.owner = next
	return nil
}

// Pausable is a process-local pause switch.
type Pausable struct {
	paused atomic.Bool
}

// NewPausable returns an unpaused switch.
func NewPausable() *Pausable { return &Pausable{} }

// IsPaused reports whether the switch is engaged.
func (p *Pausable) IsPaused() bool { return p.paused.Load() }

// Pause engages the switch.
func (p *Pausable) Pause() error {
	if !p.paused.CompareAndSwap(false, true) {
		return ErrAlreadyPaused
	}
	return nil
}

// Unpause releases the switch.
func (p *Pausable) Unpause() error {
	if !p.paused.CompareAndSwap(true, false) {
		return ErrNotPaused
	}
	return nil
}
