package reactor

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/deeedob/clap-rci/wire"
)

type fakeStream struct {
	ctx context.Context

	inbound chan *wire.InboundMessage

	mu  sync.Mutex
	out []*wire.OutboundMessage
	sent chan struct{}
}

func newFakeStream(ctx context.Context) *fakeStream {
	return &fakeStream{ctx: ctx, inbound: make(chan *wire.InboundMessage, 8), sent: make(chan struct{}, 64)}
}

func (f *fakeStream) Send(msg *wire.OutboundMessage) error {
	f.mu.Lock()
	f.out = append(f.out, msg)
	f.mu.Unlock()
	f.sent <- struct{}{}
	return nil
}

func (f *fakeStream) Recv() (*wire.InboundMessage, error) {
	select {
	case m, ok := <-f.inbound:
		if !ok {
			return nil, errors.New("closed")
		}
		return m, nil
	case <-f.ctx.Done():
		return nil, f.ctx.Err()
	}
}

func (f *fakeStream) sentCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.out)
}

type fakeControl struct {
	mu                    sync.Mutex
	restarts, processes   int
	wantsTransportHistory []bool
}

func (c *fakeControl) HostRequestRestart() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.restarts++
}

func (c *fakeControl) HostRequestProcess() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.processes++
}

func (c *fakeControl) SetWantsTransport(enabled bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.wantsTransportHistory = append(c.wantsTransportHistory, enabled)
}

func TestReactor_DispatchesInboundMessagesByKind(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	stream := newFakeStream(ctx)
	control := &fakeControl{}
	var doneCalled bool
	r := New(ctx, control, stream, func(*Reactor) { doneCalled = true })

	runDone := make(chan error, 1)
	go func() { runDone <- r.Run() }()

	stream.inbound <- &wire.InboundMessage{Kind: wire.RequestRestart}
	stream.inbound <- &wire.InboundMessage{Kind: wire.RequestProcess}
	stream.inbound <- &wire.InboundMessage{Kind: wire.EnableTransportEvents}
	stream.inbound <- &wire.InboundMessage{Kind: wire.DisableTransportEvents}

	require.Eventually(t, func() bool {
		control.mu.Lock()
		defer control.mu.Unlock()
		return control.restarts == 1 && control.processes == 1 && len(control.wantsTransportHistory) == 2
	}, time.Second, time.Millisecond)

	cancel()
	<-runDone
	assert.True(t, doneCalled)
}

// Property 6: number of on_write_done(true) calls (here, successful
// Send calls) equals the number of StartSharedWrite calls at steady
// state.
func TestReactor_Property6_EveryEnqueuedWriteIsDelivered(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	stream := newFakeStream(ctx)
	control := &fakeControl{}
	r := New(ctx, control, stream, nil)

	go r.Run()

	const n = 50
	for i := 0; i < n; i++ {
		r.StartSharedWrite(&wire.OutboundMessage{Kind: wire.OutboundLifecycle, Lifecycle: wire.Reset})
	}

	for i := 0; i < n; i++ {
		select {
		case <-stream.sent:
		case <-time.After(time.Second):
			t.Fatalf("timed out waiting for write %d/%d", i+1, n)
		}
	}
	assert.Equal(t, n, stream.sentCount())
}

func TestReactor_OnDoneCalledExactlyOnce(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	stream := newFakeStream(ctx)
	control := &fakeControl{}
	var calls int
	var mu sync.Mutex
	r := New(ctx, control, stream, func(*Reactor) {
		mu.Lock()
		calls++
		mu.Unlock()
	})

	runDone := make(chan error, 1)
	go func() { runDone <- r.Run() }()

	r.TryCancel()
	<-runDone
	r.TryCancel() // idempotent: must not double-fire onDone

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 1, calls)
}

func TestReactor_CancelledSessionFinishesWithCancelledStatus(t *testing.T) {
	ctx := context.Background()
	stream := newFakeStream(context.Background())
	control := &fakeControl{}
	r := New(ctx, control, stream, nil)

	runDone := make(chan error, 1)
	go func() { runDone <- r.Run() }()

	r.TryCancel()
	err := <-runDone
	require.Error(t, err)
	assert.Equal(t, codes.Canceled, status.Code(err))
}
