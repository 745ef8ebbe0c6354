package services

import (
	"context"
	"errors"

	"github.com/chachabrian/kwikliner/internal/models"
	"github.com/chachabrian/kwikliner/internal/negotiation"
)

// MultiNotifier delivers a notice through every notifier it holds. A failing
// notifier does not stop the others.
type MultiNotifier []negotiation.Notifier

func (m MultiNotifier) Notify(ctx context.Context, driverID string, notice models.Notice) error {
	var errs []error
	for _, n := range m {
		if err := n.Notify(ctx, driverID, notice); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
