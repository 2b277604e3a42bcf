// Package reputation streams successful transfers to the reputation
// pipeline. Delivery is best effort: the ledger never blocks on, or fails
// because of, the broker.
package reputation

import (
	"context"
	"time"

	"sentinelguard/pkg/domain"
)

// Event is the wire payload for one executed transfer.
type Event struct {
	From       domain.Address `json:"from"`
	To         domain.Address `json:"to"`
	Amount     domain.Amount  `json:"amount"`
	OccurredAt time.Time      `json:"occurred_at"`
}

// NopNotifier discards every event. Used when no broker is configured.
type NopNotifier struct{}

func (NopNotifier) TransferExecuted(context.Context, domain.Address, domain.Address, domain.Amount) {
}

func (NopNotifier) Close() {}
