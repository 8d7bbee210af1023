package coreplugin

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deeedob/clap-rci/wire"
)

// The inbound ring exists for hosts that prefer to drain client
// requests on the audio thread instead of reacting to them immediately
// (see PushInbound's doc comment); it is otherwise untouched by the
// reactor's direct-dispatch path, so it gets its own push/drain test.
func TestCorePlugin_PushInboundDrainInboundPreservesFIFOOrder(t *testing.T) {
	p := newTestPlugin(t, nil)

	require.True(t, p.PushInbound(wire.InboundMessage{Kind: wire.RequestRestart}))
	require.True(t, p.PushInbound(wire.InboundMessage{Kind: wire.RequestProcess}))
	require.True(t, p.PushInbound(wire.InboundMessage{Kind: wire.EnableTransportEvents}))

	var got []wire.InboundKind
	p.DrainInbound(func(msg *wire.InboundMessage) {
		got = append(got, msg.Kind)
	})

	assert.Equal(t, []wire.InboundKind{
		wire.RequestRestart,
		wire.RequestProcess,
		wire.EnableTransportEvents,
	}, got)
}

func TestCorePlugin_DrainInboundOnEmptyRingInvokesNothing(t *testing.T) {
	p := newTestPlugin(t, nil)

	calls := 0
	p.DrainInbound(func(*wire.InboundMessage) { calls++ })
	assert.Zero(t, calls)
}
