package registry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deeedob/clap-rci/descriptor"
)

type fakeInstance struct{ id uint64 }

func (f *fakeInstance) InstanceID() uint64 { return f.id }

func TestRegistry_RegisterAndFindDescriptor(t *testing.T) {
	r := New()
	d1 := descriptor.NewBuilder("ex.kind.a").WithName("A").Build()

	require.NoError(t, r.RegisterKind(d1, func(HostHandle) (Instance, error) { return nil, nil }))
	got, ok := r.FindDescriptorByID("ex.kind.a")
	require.True(t, ok)
	assert.True(t, got.Equal(d1))
}

func TestRegistry_DuplicateIDRejected(t *testing.T) {
	r := New()
	d := descriptor.NewBuilder("dup").Build()
	factory := func(HostHandle) (Instance, error) { return &fakeInstance{id: 1}, nil }

	require.NoError(t, r.RegisterKind(d, factory))
	err := r.RegisterKind(d, factory)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrDuplicateID)
}

func TestRegistry_InitFalseWithoutKinds(t *testing.T) {
	r := New()
	assert.False(t, r.Init("/usr/lib/clap"))
}

func TestRegistry_InitTrueAfterRegistration(t *testing.T) {
	r := New()
	require.NoError(t, r.RegisterKind(descriptor.NewBuilder("k").Build(), func(HostHandle) (Instance, error) { return nil, nil }))
	assert.True(t, r.Init("/usr/lib/clap"))
	assert.Equal(t, "/usr/lib/clap", r.Path())
}

// Property 4: for every registered kind, FindDescriptorByID returns
// that kind's descriptor, and FindDescriptorByIndex over [0, EntrySize)
// enumerates each kind exactly once.
func TestRegistry_Property4_FindDescriptorEnumeration(t *testing.T) {
	r := New()
	ids := []string{"k1", "k2", "k3"}
	for _, id := range ids {
		d := descriptor.NewBuilder(id).Build()
		require.NoError(t, r.RegisterKind(d, func(HostHandle) (Instance, error) { return nil, nil }))
	}

	for _, id := range ids {
		d, ok := r.FindDescriptorByID(id)
		require.True(t, ok)
		assert.Equal(t, id, d.ID())
	}

	seen := make(map[string]bool)
	require.Equal(t, len(ids), r.EntrySize())
	for i := 0; i < r.EntrySize(); i++ {
		d, ok := r.FindDescriptorByIndex(i)
		require.True(t, ok)
		assert.False(t, seen[d.ID()], "each kind must be enumerated exactly once")
		seen[d.ID()] = true
	}
	assert.Len(t, seen, len(ids))
}

func TestRegistry_CreateInvokesFactory(t *testing.T) {
	r := New()
	want := &fakeInstance{id: 42}
	require.NoError(t, r.RegisterKind(descriptor.NewBuilder("k").Build(), func(HostHandle) (Instance, error) {
		return want, nil
	}))

	got, err := r.Create(nil, "k")
	require.NoError(t, err)
	assert.Same(t, Instance(want), got)
}

func TestRegistry_CreateUnknownKindErrors(t *testing.T) {
	r := New()
	_, err := r.Create(nil, "missing")
	assert.Error(t, err)
}

// Property 5: emplace/instance/destroy round trip.
func TestInstances_Property5_EmplaceInstanceDestroy(t *testing.T) {
	table := newInstances()
	inst := &fakeInstance{id: 7}

	table.Emplace("kind", inst)
	got, ok := table.Instance(7)
	require.True(t, ok)
	assert.Same(t, Instance(inst), got)

	removed := table.Destroy("kind", inst)
	assert.True(t, removed)

	_, ok = table.Instance(7)
	assert.False(t, ok, "back-reference must not resolve after destroy")
}

func TestInstances_DestroyUnknownReturnsFalse(t *testing.T) {
	table := newInstances()
	assert.False(t, table.Destroy("kind", &fakeInstance{id: 1}))
}

func TestInstances_AllReturnsEveryLiveInstance(t *testing.T) {
	table := newInstances()
	table.Emplace("a", &fakeInstance{id: 1})
	table.Emplace("a", &fakeInstance{id: 2})
	table.Emplace("b", &fakeInstance{id: 3})

	all := table.All()
	assert.Len(t, all, 3)
}

func TestRegistry_DeinitPanicsWithLiveInstances(t *testing.T) {
	r := New()
	r.Instances().Emplace("k", &fakeInstance{id: 1})
	assert.Panics(t, func() { r.Deinit() })
}

func TestRegistry_DeinitClearsPath(t *testing.T) {
	r := New()
	require.NoError(t, r.RegisterKind(descriptor.NewBuilder("k").Build(), func(HostHandle) (Instance, error) { return nil, nil }))
	r.Init("/path")
	r.Deinit()
	assert.Equal(t, "", r.Path())
}
