package ledger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveSlot_DeterministicAndMasked(t *testing.T) {
	a := ResolveSlot(DefaultNamespace)
	b := ResolveSlot(DefaultNamespace)
	assert.Equal(t, a, b)

	// The low-order byte is always masked off.
	assert.Equal(t, byte(0), a[31])
	assert.Equal(t, byte(0), ResolveSlot("some.other.namespace")[31])
}

func TestResolveSlot_NamespacesDoNotCollide(t *testing.T) {
	assert.NotEqual(t, ResolveSlot("sentinelguard.storage.core.v1"), ResolveSlot("sentinelguard.storage.core.v2"))
}

func TestRegistry_AttachReturnsExistingBlock(t *testing.T) {
	reg := NewRegistry()

	first := reg.Attach(DefaultNamespace)
	require.NotNil(t, first)
	first.SetHalted(true)

	// A second attach, as after a logic upgrade, sees the same bytes.
	second := reg.Attach(DefaultNamespace)
	assert.Same(t, first, second)
	assert.True(t, second.Halted())

	other := reg.Attach("sentinelguard.storage.experimental.v1")
	assert.NotSame(t, first, other)
	assert.False(t, other.Halted())
}

func TestStorageBlock_ActionHashChains(t *testing.T) {
	block := NewStorageBlock()
	empty := block.LastActionHash()

	block.RecordAction("mint/a/b/1")
	afterOne := block.LastActionHash()
	assert.NotEqual(t, empty, afterOne)

	block.RecordAction("mint/a/b/1")
	assert.NotEqual(t, afterOne, block.LastActionHash(), "same action must extend the chain, not repeat it")
}
