package eventstore

import (
	"context"
	"time"
)

// Transition is one recorded workflow status change.
type Transition struct {
	ID         int64
	Key        string
	FromStatus string
	ToStatus   string
	Actor      string
	OccurredAt time.Time
}

// Store is an append-only audit log of workflow transitions.
type Store interface {
	// Append records a transition for an entry key.
	Append(ctx context.Context, key, from, to, actor string) error

	// ByKey returns all transitions for one entry key, oldest first.
	ByKey(ctx context.Context, key string) ([]Transition, error)

	// Range returns transitions recorded within [start, end], oldest first.
	Range(ctx context.Context, start, end time.Time) ([]Transition, error)

	Close() error
}
