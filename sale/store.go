package sale

import "context"

// Store persists the sale state record. A store holds exactly one sale.
type Store interface {
	// GetState returns the stored state or an error matching
	// tokensale.ErrNotFound when nothing was saved yet.
	GetState(ctx context.Context) (*State, error)
	SaveState(ctx context.Context, s *State) error
}
