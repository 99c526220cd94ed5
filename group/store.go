package group

import "context"

// Store persists group commitments.
type Store interface {
	GetCommitment(ctx context.Context, groupID uint8) (*Commitment, error)
	PutCommitment(ctx context.Context, c *Commitment) error
	// ListCommitments returns every commitment ordered by group ID.
	ListCommitments(ctx context.Context) ([]*Commitment, error)
}
