package notify

import (
	"context"
	"errors"

	"github.com/hammamikhairi/ottobar/internal/domain"
)

// Compile-time interface check.
var _ domain.Notifier = Tee(nil)

// Tee fans every message out to all of its notifiers. A failing notifier
// does not stop the others; their errors are joined.
type Tee []domain.Notifier

// Notify delivers message to every notifier.
func (t Tee) Notify(ctx context.Context, message string) error {
	var errs []error
	for _, n := range t {
		if err := n.Notify(ctx, message); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// NotifyUrgent delivers message to every notifier as urgent.
func (t Tee) NotifyUrgent(ctx context.Context, message string) error {
	var errs []error
	for _, n := range t {
		if err := n.NotifyUrgent(ctx, message); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
