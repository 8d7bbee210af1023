package coreplugin

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deeedob/clap-rci/descriptor"
	"github.com/deeedob/clap-rci/reactor"
	"github.com/deeedob/clap-rci/wire"
)

type fakeStream struct {
	mu  sync.Mutex
	out []*wire.OutboundMessage
}

func (f *fakeStream) Send(msg *wire.OutboundMessage) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.out = append(f.out, msg)
	return nil
}

func (f *fakeStream) Recv() (*wire.InboundMessage, error) {
	select {}
}

func newTestPlugin(t *testing.T, notify func()) *CorePlugin {
	t.Helper()
	d := descriptor.NewBuilder("ex.kind").WithName("Example").Build()
	return New("ex.kind", d, nil, Hooks{}, notify, nil)
}

func TestCorePlugin_InstanceIDsAreUniquePerInstance(t *testing.T) {
	a := newTestPlugin(t, nil)
	b := newTestPlugin(t, nil)
	assert.NotZero(t, a.InstanceID())
	assert.NotZero(t, b.InstanceID())
	assert.NotEqual(t, a.InstanceID(), b.InstanceID())
}

func TestCorePlugin_PushEventDroppedWithNoClients(t *testing.T) {
	p := newTestPlugin(t, nil)
	assert.False(t, p.pushEvent(wire.OutboundMessage{Kind: wire.OutboundLifecycle, Lifecycle: wire.Reset}))
}

// Scenario S3: a single NoteOn event processed while a client is
// attached is observed by that client exactly once.
func TestCorePlugin_S3_SessionOpenAndNote(t *testing.T) {
	var notified int
	p := newTestPlugin(t, func() { notified++ })

	stream := &fakeStream{}
	r := reactor.New(context.Background(), p, stream, nil)
	p.AttachClient(r)

	block := &ProcessBlock{
		Notes: []wire.NoteEvent{
			{Kind: wire.NoteOn, NoteID: 1, PortIndex: 0, Channel: 0, Key: 60, Velocity: 0.5},
		},
	}
	require.NoError(t, p.Process(block))
	assert.Equal(t, 1, notified)

	var drained []wire.OutboundMessage
	p.DrainOutbound(func(m *wire.OutboundMessage) { drained = append(drained, *m) })
	require.Len(t, drained, 1)
	assert.Equal(t, wire.OutboundNote, drained[0].Kind)
	assert.Equal(t, wire.NoteOn, drained[0].Note.Kind)
	assert.Equal(t, int32(1), drained[0].Note.NoteID)
	assert.InDelta(t, 0.5, drained[0].Note.Velocity, 0)
}

func TestCorePlugin_ActivateDeactivateTogglesActiveAndEmitsLifecycle(t *testing.T) {
	p := newTestPlugin(t, nil)
	stream := &fakeStream{}
	r := reactor.New(context.Background(), p, stream, nil)
	p.AttachClient(r)

	require.NoError(t, p.Activate(48000, 64, 512))
	assert.True(t, p.IsActive())

	p.Deactivate()
	assert.False(t, p.IsActive())

	var kinds []wire.LifecycleKind
	p.DrainOutbound(func(m *wire.OutboundMessage) { kinds = append(kinds, m.Lifecycle) })
	require.Len(t, kinds, 2)
	assert.Equal(t, wire.Activate, kinds[0])
	assert.Equal(t, wire.Deactivate, kinds[1])
}

func TestCorePlugin_NotePortSettersFailOnceActive(t *testing.T) {
	p := newTestPlugin(t, nil)
	assert.True(t, p.WithNotePortIn(NotePortInfo{PortIndex: 0}))

	require.NoError(t, p.Activate(48000, 64, 512))
	assert.False(t, p.WithNotePortIn(NotePortInfo{PortIndex: 1}))
}

func TestCorePlugin_GetExtensionNotePortsRequiresOptIn(t *testing.T) {
	p := newTestPlugin(t, nil)
	_, ok := p.GetExtension("note-ports")
	assert.False(t, ok)

	p.WithNotePortOut(NotePortInfo{PortIndex: 0})
	view, ok := p.GetExtension("note-ports")
	assert.True(t, ok)
	assert.Len(t, view, 1)
}

// Shared-ownership teardown: a reactor attached to an instance keeps
// the instance's refcount alive even after Destroy+Release from the
// owning side; the instance is only torn down once every attached
// reactor has also released.
func TestCorePlugin_RefcountSurvivesUntilEveryClientDetaches(t *testing.T) {
	var removed int
	var mu sync.Mutex
	p := New("ex.kind", descriptor.NewBuilder("ex.kind").Build(), nil, Hooks{}, nil, func(*CorePlugin) {
		mu.Lock()
		removed++
		mu.Unlock()
	})

	stream := &fakeStream{}
	r := reactor.New(context.Background(), p, stream, nil)
	p.AttachClient(r)

	p.Destroy()
	p.Release() // drop the registry's own reference

	mu.Lock()
	stillLive := removed == 0
	mu.Unlock()
	assert.True(t, stillLive, "instance must not be removed while a client is still attached")

	_, ok := p.DetachClient(r)
	assert.True(t, ok)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 1, removed)
}

func TestCorePlugin_AttachDetachClientCount(t *testing.T) {
	p := newTestPlugin(t, nil)
	stream := &fakeStream{}
	r := reactor.New(context.Background(), p, stream, nil)

	assert.Equal(t, 1, p.AttachClient(r))
	assert.Equal(t, 1, p.ClientCount())

	remaining, removed := p.DetachClient(r)
	assert.True(t, removed)
	assert.Equal(t, 0, remaining)
}
