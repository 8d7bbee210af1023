package boundary

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deeedob/clap-rci/descriptor"
	"github.com/deeedob/clap-rci/registry"
)

// indexOfKind is plain Go (no cgo types in its signature), so it is
// exercised directly here; the //export functions around it are left
// to integration testing against a real host, the same boundary the
// teacher's own cgo-adjacent code (plugin/grpc's C-ABI-facing pieces)
// draws around its trampoline layer.
func TestIndexOfKind_FindsRegisteredKindAtItsEnumerationPosition(t *testing.T) {
	reg := registry.Default()
	kindID := "boundary.test.index-of-kind"
	d := descriptor.NewBuilder(kindID).WithName("Index Test").Build()
	require.NoError(t, reg.RegisterKind(d, func(registry.HostHandle) (registry.Instance, error) {
		return nil, nil
	}))

	idx := indexOfKind(kindID)
	require.GreaterOrEqual(t, idx, 0)

	got, ok := reg.FindDescriptorByIndex(idx)
	require.True(t, ok)
	assert.Equal(t, kindID, got.ID())
}

func TestIndexOfKind_UnknownKindReturnsNegativeOne(t *testing.T) {
	assert.Equal(t, -1, indexOfKind("boundary.test.does-not-exist"))
}
