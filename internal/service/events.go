package service

import (
	"context"
	"time"

	"oink_ledger/internal/domain"
)

// EventPublisher receives committed balance changes. Implementations must
// not block the caller for long and must not fail the mutation.
type EventPublisher interface {
	Publish(ctx context.Context, ev domain.BalanceEvent)
}

type noopPublisher struct{}

func (noopPublisher) Publish(context.Context, domain.BalanceEvent) {}

func publishChanges(ctx context.Context, p EventPublisher, changes ...*domain.BalanceChange) {
	now := time.Now().UTC()
	for _, c := range changes {
		if c == nil {
			continue
		}
		p.Publish(ctx, domain.BalanceEvent{
			FID:     c.FID,
			Balance: c.Balance,
			Change:  c.Change,
			Reason:  c.Reason,
			At:      now,
		})
	}
}
