// Package ledger implements the value-transfer core: the namespaced storage
// block, the balance ledger, mint/burn under the supply cap, policy-gated
// transfers, and the emergency halt switch.
package ledger

import (
	"crypto/sha256"
	"encoding/hex"
	"sync"
)

// DefaultNamespace is the storage namespace for the core block. The version
// suffix changes only when the layout itself changes, never per logic release.
const DefaultNamespace = "sentinelguard.storage.core.v1"

// SlotID is the fixed, collision-resistant address of a storage block.
type SlotID [32]byte

func (s SlotID) String() string { return hex.EncodeToString(s[:]) }

// ResolveSlot derives the slot for a namespace. The low-order byte is masked
// to zero so the derived slot can never collide with small sequential slots.
// Resolution is pure: two logic versions requesting the same namespace always
// land on the same slot.
func ResolveSlot(namespace string) SlotID {
	h := sha256.Sum256([]byte(namespace))
	h[31] = 0
	return SlotID(h)
}

// Registry maps slots to live storage blocks. Attaching to an occupied slot
// returns the existing block untouched, which is what makes a logic swap safe:
// the new version sees the old bytes, not a fresh block.
type Registry struct {
	mu     sync.Mutex
	blocks map[SlotID]*StorageBlock
}

func NewRegistry() *Registry {
	return &Registry{blocks: make(map[SlotID]*StorageBlock)}
}

// Attach resolves the namespace and returns the block at that slot, creating
// an empty one on first attach.
func (r *Registry) Attach(namespace string) *StorageBlock {
	slot := ResolveSlot(namespace)

	r.mu.Lock()
	defer r.mu.Unlock()
	if block, ok := r.blocks[slot]; ok {
		return block
	}
	block := NewStorageBlock()
	r.blocks[slot] = block
	return block
}
