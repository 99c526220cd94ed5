package account

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
)

// Store persists entitlements keyed by account.
type Store interface {
	GetEntitlement(ctx context.Context, account common.Address) (*Entitlement, error)
	PutEntitlement(ctx context.Context, e *Entitlement) error
	ListEntitlements(ctx context.Context, opts ListOpts) ([]*Entitlement, error)
}
