// Package memory is an in-process sale store backed by maps. It is safe for
// concurrent use and intended for tests and single-process deployments.
package memory

import (
	"bytes"
	"context"
	"sort"
	"sync"

	"github.com/ethereum/go-ethereum/common"

	"github.com/xraph/tokensale"
	"github.com/xraph/tokensale/account"
	"github.com/xraph/tokensale/event"
	"github.com/xraph/tokensale/group"
	"github.com/xraph/tokensale/sale"
	"github.com/xraph/tokensale/store"
)

// Compile-time interface check.
var _ store.Store = (*Store)(nil)

type Store struct {
	mu     sync.RWMutex
	closed bool

	state        *sale.State
	entitlements map[common.Address]*account.Entitlement
	commitments  map[uint8]*group.Commitment
	events       []*event.Record
	eventIDs     map[string]struct{}

	// failCommit, when set, is returned by the next Commit.
	failCommit error
}

func New() *Store {
	return &Store{
		entitlements: make(map[common.Address]*account.Entitlement),
		commitments:  make(map[uint8]*group.Commitment),
		eventIDs:     make(map[string]struct{}),
	}
}

// FailNextCommit makes the next Commit return err without writing.
func (s *Store) FailNextCommit(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failCommit = err
}

// Sale state

func (s *Store) GetState(_ context.Context) (*sale.State, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, tokensale.ErrStoreClosed
	}
	if s.state == nil {
		return nil, tokensale.ErrNotFound
	}
	return s.state.Clone(), nil
}

func (s *Store) SaveState(_ context.Context, st *sale.State) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return tokensale.ErrStoreClosed
	}
	s.state = st.Clone()
	return nil
}

// Entitlements

func (s *Store) GetEntitlement(_ context.Context, acct common.Address) (*account.Entitlement, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, tokensale.ErrStoreClosed
	}
	if e, ok := s.entitlements[acct]; ok {
		return e.Clone(), nil
	}
	return nil, tokensale.ErrNotFound
}

func (s *Store) PutEntitlement(_ context.Context, e *account.Entitlement) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return tokensale.ErrStoreClosed
	}
	s.entitlements[e.Account] = e.Clone()
	return nil
}

func (s *Store) ListEntitlements(_ context.Context, opts account.ListOpts) ([]*account.Entitlement, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, tokensale.ErrStoreClosed
	}

	var result []*account.Entitlement
	for _, e := range s.entitlements {
		if opts.ClaimedOnly && !e.HasClaimed {
			continue
		}
		if opts.UnclaimedOnly && e.HasClaimed {
			continue
		}
		result = append(result, e.Clone())
	}
	sort.Slice(result, func(i, j int) bool {
		return bytes.Compare(result[i].Account[:], result[j].Account[:]) < 0
	})
	return page(result, opts.Offset, opts.Limit), nil
}

// Group commitments

func (s *Store) GetCommitment(_ context.Context, groupID uint8) (*group.Commitment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, tokensale.ErrStoreClosed
	}
	if c, ok := s.commitments[groupID]; ok {
		return c.Clone(), nil
	}
	return nil, tokensale.ErrNotFound
}

func (s *Store) PutCommitment(_ context.Context, c *group.Commitment) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return tokensale.ErrStoreClosed
	}
	s.commitments[c.GroupID] = c.Clone()
	return nil
}

func (s *Store) ListCommitments(_ context.Context) ([]*group.Commitment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, tokensale.ErrStoreClosed
	}
	result := make([]*group.Commitment, 0, len(s.commitments))
	for _, c := range s.commitments {
		result = append(result, c.Clone())
	}
	sort.Slice(result, func(i, j int) bool { return result[i].GroupID < result[j].GroupID })
	return result, nil
}

// Event journal

func (s *Store) AppendEvents(_ context.Context, records []*event.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return tokensale.ErrStoreClosed
	}
	s.appendLocked(records)
	return nil
}

func (s *Store) appendLocked(records []*event.Record) {
	for _, r := range records {
		key := r.ID.String()
		if _, dup := s.eventIDs[key]; dup {
			continue
		}
		s.eventIDs[key] = struct{}{}
		cp := *r
		s.events = append(s.events, &cp)
	}
	sort.SliceStable(s.events, func(i, j int) bool { return s.events[i].Sequence < s.events[j].Sequence })
}

func (s *Store) ListEvents(_ context.Context, opts event.QueryOpts) ([]*event.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, tokensale.ErrStoreClosed
	}

	var result []*event.Record
	for _, r := range s.events {
		if r.Sequence <= opts.AfterSeq {
			continue
		}
		if opts.Type != "" && r.Type != opts.Type {
			continue
		}
		cp := *r
		result = append(result, &cp)
	}
	return page(result, opts.Offset, opts.Limit), nil
}

// Commit applies the whole batch under one lock.
func (s *Store) Commit(_ context.Context, b *store.Batch) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return tokensale.ErrStoreClosed
	}
	if err := s.failCommit; err != nil {
		s.failCommit = nil
		return err
	}
	if b.Empty() {
		return nil
	}
	for _, e := range b.Entitlements {
		s.entitlements[e.Account] = e.Clone()
	}
	for _, c := range b.Commitments {
		s.commitments[c.GroupID] = c.Clone()
	}
	s.appendLocked(b.Events)
	if b.State != nil {
		s.state = b.State.Clone()
	}
	return nil
}

// Lifecycle

func (s *Store) Migrate(_ context.Context) error {
	return nil // No migration needed for memory store
}

func (s *Store) Ping(_ context.Context) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return tokensale.ErrStoreClosed
	}
	return nil
}

func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

func page[T any](items []T, offset, limit int) []T {
	if offset > 0 {
		if offset >= len(items) {
			return nil
		}
		items = items[offset:]
	}
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}
