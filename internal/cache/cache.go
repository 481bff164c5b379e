package cache

import "context"

// DispatchGuard records which sessions have already had their webhook
// dispatched, keeping delivery at-most-once across restarts.
type DispatchGuard interface {
	// FirstDispatch returns true exactly once per notification id.
	FirstDispatch(ctx context.Context, notificationID string) (bool, error)
}
