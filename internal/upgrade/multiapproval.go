package upgrade

import (
	"context"
	"fmt"
	"sync"

	"sentinelguard/internal/ledger"
	"sentinelguard/pkg/domain"
	dErrors "sentinelguard/pkg/domainerrors"
)

// MultiApprovalAuthorizer approves an upgrade once enough designated
// approvers have signed off on the proposal. Proposal state lives in the
// shared storage block, so open proposals survive a logic swap.
type MultiApprovalAuthorizer struct {
	mu        sync.Mutex
	block     *ledger.StorageBlock
	approvers map[domain.Address]struct{}
	threshold int

	// nonceByImpl indexes open proposals so ValidateUpgrade can find the
	// proposal for the implementation being executed.
	nonceByImpl map[domain.Address]uint64
}

func NewMultiApproval(block *ledger.StorageBlock, approvers []domain.Address, threshold int) (*MultiApprovalAuthorizer, error) {
	if block == nil {
		return nil, fmt.Errorf("storage block is required")
	}
	if threshold < 1 {
		return nil, fmt.Errorf("threshold must be at least 1")
	}
	if len(approvers) < threshold {
		return nil, fmt.Errorf("need at least %d approvers, got %d", threshold, len(approvers))
	}
	set := make(map[domain.Address]struct{}, len(approvers))
	for _, a := range approvers {
		set[a] = struct{}{}
	}
	// Rebuild the implementation index from proposals already in the block.
	idx := make(map[domain.Address]uint64)
	for nonce, impl := range block.PendingUpgrades() {
		idx[impl] = nonce
	}
	return &MultiApprovalAuthorizer{
		block:       block,
		approvers:   set,
		threshold:   threshold,
		nonceByImpl: idx,
	}, nil
}

// Propose opens a proposal for an implementation and returns its nonce.
// Only designated approvers may propose.
func (a *MultiApprovalAuthorizer) Propose(ctx context.Context, proposer, impl domain.Address) (uint64, error) {
	if impl.IsZero() {
		return 0, dErrors.New(dErrors.CodeBadRequest, "implementation address is required")
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	if _, ok := a.approvers[proposer]; !ok {
		return 0, dErrors.Newf(dErrors.CodeUnauthorized, "%s is not a designated approver", proposer)
	}
	if nonce, ok := a.nonceByImpl[impl]; ok {
		return nonce, nil
	}
	nonce := a.block.NextUpgradeNonce()
	a.block.SetPendingUpgrade(nonce, impl)
	a.nonceByImpl[impl] = nonce
	return nonce, nil
}

// Approve records an approval on an open proposal and returns the running
// approval count. Approving twice counts once.
func (a *MultiApprovalAuthorizer) Approve(ctx context.Context, approver domain.Address, nonce uint64) (int, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if _, ok := a.approvers[approver]; !ok {
		return 0, dErrors.Newf(dErrors.CodeUnauthorized, "%s is not a designated approver", approver)
	}
	count, ok := a.block.Approve(nonce, approver)
	if !ok {
		return 0, dErrors.Newf(dErrors.CodeNotFound, "no open proposal with nonce %d", nonce)
	}
	return count, nil
}

// ValidateUpgrade passes when the implementation has an open proposal with
// enough approvals, then consumes the proposal so it cannot authorize a
// second swap.
func (a *MultiApprovalAuthorizer) ValidateUpgrade(ctx context.Context, proposer, newImpl domain.Address) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	nonce, ok := a.nonceByImpl[newImpl]
	if !ok {
		return fmt.Errorf("no proposal for implementation %q", newImpl)
	}
	if count := a.block.ApprovalCount(nonce); count < a.threshold {
		return fmt.Errorf("proposal %d has %d of %d required approvals", nonce, count, a.threshold)
	}
	a.block.ClearPendingUpgrade(nonce)
	delete(a.nonceByImpl, newImpl)
	return nil
}
