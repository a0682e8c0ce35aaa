package engine

import "github.com/google/uuid"

// newOrderID returns a short id that ties an order's log lines together.
func newOrderID() string {
	return uuid.NewString()[:8]
}
