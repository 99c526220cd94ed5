// Package store defines the unified persistence interface for a sale.
package store

import (
	"context"

	"github.com/ethereum/go-ethereum/common"

	"github.com/xraph/tokensale/account"
	"github.com/xraph/tokensale/event"
	"github.com/xraph/tokensale/group"
	"github.com/xraph/tokensale/sale"
)

// Batch is the unit of persistence for one ledger operation. Every field
// holds absolute values, so writing the same batch twice is harmless.
type Batch struct {
	State        *sale.State
	Entitlements []*account.Entitlement
	Commitments  []*group.Commitment
	Events       []*event.Record
}

// Empty reports whether the batch carries nothing.
func (b *Batch) Empty() bool {
	return b == nil || (b.State == nil && len(b.Entitlements) == 0 && len(b.Commitments) == 0 && len(b.Events) == 0)
}

// Store is the unified storage interface for sale entities. Methods are
// declared explicitly rather than embedded so backends show one surface.
type Store interface {
	// Sale state
	GetState(ctx context.Context) (*sale.State, error)
	SaveState(ctx context.Context, s *sale.State) error

	// Entitlements
	GetEntitlement(ctx context.Context, acct common.Address) (*account.Entitlement, error)
	PutEntitlement(ctx context.Context, e *account.Entitlement) error
	ListEntitlements(ctx context.Context, opts account.ListOpts) ([]*account.Entitlement, error)

	// Group commitments
	GetCommitment(ctx context.Context, groupID uint8) (*group.Commitment, error)
	PutCommitment(ctx context.Context, c *group.Commitment) error
	ListCommitments(ctx context.Context) ([]*group.Commitment, error)

	// Event journal. Appending a record whose ID already exists is a no-op.
	AppendEvents(ctx context.Context, records []*event.Record) error
	ListEvents(ctx context.Context, opts event.QueryOpts) ([]*event.Record, error)

	// Commit writes entitlements, commitments and events before the state
	// record, so a reader never sees totals ahead of their components.
	Commit(ctx context.Context, b *Batch) error

	// Core methods
	Migrate(ctx context.Context) error
	Ping(ctx context.Context) error
	Close() error
}

// Compile-time checks that the unified interface covers each entity store.
var (
	_ sale.Store    = Store(nil)
	_ account.Store = Store(nil)
	_ group.Store   = Store(nil)
	_ event.Store   = Store(nil)
)

// CommitSequential implements Commit on top of the per-entity methods for
// backends without a native multi-write.
func CommitSequential(ctx context.Context, s Store, b *Batch) error {
	if b.Empty() {
		return nil
	}
	for _, e := range b.Entitlements {
		if err := s.PutEntitlement(ctx, e); err != nil {
			return err
		}
	}
	for _, c := range b.Commitments {
		if err := s.PutCommitment(ctx, c); err != nil {
			return err
		}
	}
	if len(b.Events) > 0 {
		if err := s.AppendEvents(ctx, b.Events); err != nil {
			return err
		}
	}
	if b.State != nil {
		return s.SaveState(ctx, b.State)
	}
	return nil
}
