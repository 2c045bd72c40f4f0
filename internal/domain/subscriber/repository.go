package subscriber

import (
	"context"
)

// Repository maps group identifiers to the Telegram users subscribed to them.
// Registrations are appended in order and never deduplicated.
type Repository interface {
	// Register appends subscriberID to the group and persists the change
	// before returning.
	Register(ctx context.Context, group string, subscriberID int64) error
	// Groups lists every group with at least one registration.
	Groups(ctx context.Context) ([]string, error)
	// SubscribersOf returns the registrations of group, empty when unknown.
	SubscribersOf(ctx context.Context, group string) ([]int64, error)
}
