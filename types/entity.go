// Package types provides common types used across the sale ledger.
package types

import "time"

// Entity carries creation and modification timestamps.
// Embed this in persisted domain types.
type Entity struct {
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewEntity creates an Entity stamped with now.
func NewEntity(now time.Time) Entity {
	now = now.UTC()
	return Entity{
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Touch sets UpdatedAt to now.
func (e *Entity) Touch(now time.Time) {
	e.UpdatedAt = now.UTC()
}

// IsZero reports whether the entity was never stamped.
func (e Entity) IsZero() bool {
	return e.CreatedAt.IsZero() && e.UpdatedAt.IsZero()
}
