package ledger

import (
	"crypto/sha256"
	"sort"
	"sync"

	"sentinelguard/pkg/domain"
)

// StorageBlock is the versioned state block behind a namespaced slot. Fields
// are only ever appended across layout versions; nothing is reordered or
// removed, so a logic swap never reinterprets old state. All access goes
// through methods; the internal lock lets the ledger service and the upgrade
// manager share the block safely.
type StorageBlock struct {
	mu sync.Mutex

	policyAddress     domain.Address
	upgradeAuthorizer domain.Address
	enforcementActive bool
	emergencyHalt     bool
	supplyCap         domain.Amount
	totalSupply       domain.Amount
	exempt            map[domain.Address]struct{}
	upgradeNonce      uint64
	pendingUpgrades   map[uint64]domain.Address
	approvals         map[uint64]map[domain.Address]struct{}
	lastActionHash    [32]byte
}

func NewStorageBlock() *StorageBlock {
	return &StorageBlock{
		exempt:          make(map[domain.Address]struct{}),
		pendingUpgrades: make(map[uint64]domain.Address),
		approvals:       make(map[uint64]map[domain.Address]struct{}),
	}
}

func (b *StorageBlock) Halted() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.emergencyHalt
}

func (b *StorageBlock) SetHalted(halted bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.emergencyHalt = halted
}

func (b *StorageBlock) EnforcementActive() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.enforcementActive
}

func (b *StorageBlock) SetEnforcementActive(active bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.enforcementActive = active
}

func (b *StorageBlock) PolicyAddress() domain.Address {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.policyAddress
}

func (b *StorageBlock) SetPolicyAddress(addr domain.Address) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.policyAddress = addr
}

func (b *StorageBlock) AuthorizerAddress() domain.Address {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.upgradeAuthorizer
}

func (b *StorageBlock) SetAuthorizerAddress(addr domain.Address) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.upgradeAuthorizer = addr
}

func (b *StorageBlock) SupplyCap() domain.Amount {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.supplyCap
}

func (b *StorageBlock) SetSupplyCap(cap domain.Amount) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.supplyCap = cap
}

func (b *StorageBlock) TotalSupply() domain.Amount {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.totalSupply
}

func (b *StorageBlock) SetTotalSupply(supply domain.Amount) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.totalSupply = supply
}

func (b *StorageBlock) IsExempt(account domain.Address) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	_, ok := b.exempt[account]
	return ok
}

func (b *StorageBlock) AddExempt(account domain.Address) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.exempt[account] = struct{}{}
}

func (b *StorageBlock) RemoveExempt(account domain.Address) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.exempt, account)
}

func (b *StorageBlock) Exemptions() []domain.Address {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]domain.Address, 0, len(b.exempt))
	for account := range b.exempt {
		out = append(out, account)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// NextUpgradeNonce consumes and returns the next proposal nonce.
func (b *StorageBlock) NextUpgradeNonce() uint64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.upgradeNonce++
	return b.upgradeNonce
}

func (b *StorageBlock) UpgradeNonce() uint64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.upgradeNonce
}

func (b *StorageBlock) SetPendingUpgrade(nonce uint64, impl domain.Address) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.pendingUpgrades[nonce] = impl
	if b.approvals[nonce] == nil {
		b.approvals[nonce] = make(map[domain.Address]struct{})
	}
}

func (b *StorageBlock) PendingUpgrade(nonce uint64) (domain.Address, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	impl, ok := b.pendingUpgrades[nonce]
	return impl, ok
}

// Approve records an approval for a pending proposal and returns the new
// approval count. Approving twice is idempotent.
func (b *StorageBlock) Approve(nonce uint64, approver domain.Address) (int, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.pendingUpgrades[nonce]; !ok {
		return 0, false
	}
	b.approvals[nonce][approver] = struct{}{}
	return len(b.approvals[nonce]), true
}

func (b *StorageBlock) ApprovalCount(nonce uint64) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.approvals[nonce])
}

// ClearPendingUpgrade drops a consumed or abandoned proposal.
func (b *StorageBlock) ClearPendingUpgrade(nonce uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.pendingUpgrades, nonce)
	delete(b.approvals, nonce)
}

// PendingUpgrades returns a copy of the open proposals.
func (b *StorageBlock) PendingUpgrades() map[uint64]domain.Address {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make(map[uint64]domain.Address, len(b.pendingUpgrades))
	for nonce, impl := range b.pendingUpgrades {
		out[nonce] = impl
	}
	return out
}

// RecordAction folds a privileged action key into the rolling action hash.
func (b *StorageBlock) RecordAction(key string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	h := sha256.New()
	h.Write(b.lastActionHash[:])
	h.Write([]byte(key))
	copy(b.lastActionHash[:], h.Sum(nil))
}

func (b *StorageBlock) LastActionHash() [32]byte {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.lastActionHash
}
