package domainerrors

import (
	"fmt"

	"sentinelguard/pkg/domain"
)

// SupplyCapExceededError reports a mint that would breach the supply cap.
// It is parameterized for diagnosability: Requested is the amount the caller
// asked to mint, Cap the configured ceiling.
type SupplyCapExceededError struct {
	Requested domain.Amount
	Cap       domain.Amount
}

func (e *SupplyCapExceededError) Error() string {
	return fmt.Sprintf("supply cap exceeded: requested %s, cap %s", e.Requested, e.Cap)
}

// SupplyCapExceeded wraps the parameterized error with its code.
func SupplyCapExceeded(requested, cap domain.Amount) error {
	return Wrap(&SupplyCapExceededError{Requested: requested, Cap: cap},
		CodeSupplyCapExceeded, "mint exceeds supply cap")
}

// InsufficientBalanceError reports a debit larger than the available balance.
type InsufficientBalanceError struct {
	Account   domain.Address
	Requested domain.Amount
	Available domain.Amount
}

func (e *InsufficientBalanceError) Error() string {
	return fmt.Sprintf("insufficient balance for %s: requested %s, available %s",
		e.Account, e.Requested, e.Available)
}

// InsufficientBalance wraps the parameterized error with its code.
func InsufficientBalance(account domain.Address, requested, available domain.Amount) error {
	return Wrap(&InsufficientBalanceError{Account: account, Requested: requested, Available: available},
		CodeInsufficientBalance, "debit exceeds balance")
}
