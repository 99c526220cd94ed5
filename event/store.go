package event

import "context"

// Store persists the event journal.
type Store interface {
	AppendEvents(ctx context.Context, records []*Record) error
	ListEvents(ctx context.Context, opts QueryOpts) ([]*Record, error)
}
