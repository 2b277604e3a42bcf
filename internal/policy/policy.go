// Package policy defines the transfer policy port and its fail-closed
// dispatcher. Implementations are swappable at runtime; the core never
// trusts them to behave.
package policy

//go:generate mockgen -source=policy.go -destination=mocks/mocks.go -package=mocks

import (
	"context"

	"sentinelguard/pkg/domain"
)

// TransferPolicy is consulted on every peer-to-peer value movement while
// enforcement is active. Returning nil allows the transfer; returning an
// error denies it. Implementations must be side-effect-free from the core's
// perspective.
type TransferPolicy interface {
	ValidateTransfer(ctx context.Context, from, to domain.Address, amount domain.Amount) error
}
