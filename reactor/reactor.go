// Package reactor implements the per-client bidirectional streaming
// session of spec.md §4.6: one EventStreamReactor per connected client,
// reading inbound requests, serializing outbound writes, and honoring
// cancellation.
//
// Reactor talks to its transport only through the small Stream
// interface; its one gRPC dependency is the status code Run returns for
// a cancelled session (codes.Canceled). Serialization and the network
// transport are the out-of-scope external collaborators named in
// spec.md §1.
// The rpc/service packages adapt a real bidi-stream RPC handler into a
// Stream and a PluginControl.
package reactor

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/deeedob/clap-rci/logger"
	"github.com/deeedob/clap-rci/wire"
)

// Stream is the minimal bidi-stream surface a Reactor needs. Recv
// blocks until the next inbound message, an error, or stream closure
// (io.EOF wrapped as a plain error is treated as an orderly close).
// Send delivers one outbound message and blocks until it is flushed to
// the transport, matching a single-outstanding-write RPC stream.
type Stream interface {
	Send(*wire.OutboundMessage) error
	Recv() (*wire.InboundMessage, error)
}

// PluginControl is the subset of CorePlugin behavior a Reactor can
// invoke when it dispatches an inbound message (spec.md §4.6's
// on_read_done). Defined here, not imported from coreplugin, so that
// coreplugin can depend on reactor without a cycle back.
type PluginControl interface {
	HostRequestRestart()
	HostRequestProcess()
	SetWantsTransport(enabled bool)
}

// Reactor is one client's bidirectional streaming session.
type Reactor struct {
	ID string

	control PluginControl
	stream  Stream

	ctx    context.Context
	cancel context.CancelFunc

	mu     sync.Mutex
	buffer []*wire.OutboundMessage

	wake chan struct{}

	doneOnce sync.Once
	onDone   func(*Reactor)

	log *zap.SugaredLogger
}

// New builds a Reactor bound to control and stream. onDone is invoked
// exactly once, from whichever path first drives the session to
// completion (read error, write error, or explicit cancel), so the
// owner can remove the reactor from its client set.
func New(parent context.Context, control PluginControl, stream Stream, onDone func(*Reactor)) *Reactor {
	ctx, cancel := context.WithCancel(parent)
	id := uuid.NewString()
	return &Reactor{
		ID:      id,
		control: control,
		stream:  stream,
		ctx:     ctx,
		cancel:  cancel,
		wake:    make(chan struct{}, 1),
		onDone:  onDone,
		log:     logger.With("session", id),
	}
}

// Run drives the session to completion. It starts the write loop and a
// read loop (on_open, then on_read_done's dispatch-then-read-again
// cycle), and returns as soon as either the read loop ends on its own
// (client half-close or transport error: finish OK) or the session is
// cancelled via TryCancel (finish CANCELLED). In the cancellation case
// Run does not wait for the read goroutine to unblock: in a real bidi
// RPC, returning from the handler tears down the transport stream,
// which is what actually frees a Recv call parked waiting on the
// client — mirroring spec.md §4.6's on_cancel -> on_done path.
func (r *Reactor) Run() error {
	r.log.Debug("session opened")

	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		r.writeLoop()
	}()

	readErr := make(chan error, 1)
	go func() { readErr <- r.readLoop() }()

	var result error
	select {
	case result = <-readErr:
	case <-r.ctx.Done():
		result = status.Error(codes.Canceled, "session cancelled")
	}

	r.cancel() // ensure the write loop wakes and exits too
	<-writerDone

	r.onDoneOnce()
	return result
}

// readLoop implements on_read_done's dispatch-then-read-again cycle.
func (r *Reactor) readLoop() error {
	for {
		msg, err := r.stream.Recv()
		if err != nil {
			return nil // orderly close (e.g. client half-close): finish OK
		}

		switch msg.Kind {
		case wire.RequestRestart:
			r.control.HostRequestRestart()
		case wire.RequestProcess:
			r.control.HostRequestProcess()
		case wire.EnableTransportEvents:
			r.control.SetWantsTransport(true)
		case wire.DisableTransportEvents:
			r.control.SetWantsTransport(false)
		}
	}
}

// StartSharedWrite enqueues msg for delivery, matching spec.md §4.6:
// msg is always appended to the outbound buffer and the session's write
// loop is woken; that loop sends buffered messages one at a time, in
// order, so at most one write is outstanding. Safe to call
// concurrently from the queue-draining worker fanning out to many
// reactors at once.
func (r *Reactor) StartSharedWrite(msg *wire.OutboundMessage) {
	r.mu.Lock()
	r.buffer = append(r.buffer, msg)
	r.mu.Unlock()

	select {
	case r.wake <- struct{}{}:
	default:
	}
}

// writeLoop is the session's sole writer, honoring the "only one
// outstanding write per session" transport constraint by construction:
// it never calls stream.Send concurrently with itself.
func (r *Reactor) writeLoop() {
	for {
		msg, ok := r.nextMessage()
		if !ok {
			select {
			case <-r.wake:
				continue
			case <-r.ctx.Done():
				return
			}
		}

		if err := r.stream.Send(msg); err != nil {
			r.log.Debugw("write failed, finishing session", "error", err)
			r.cancel()
			return
		}
	}
}

func (r *Reactor) nextMessage() (*wire.OutboundMessage, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.buffer) == 0 {
		return nil, false
	}
	msg := r.buffer[0]
	r.buffer = r.buffer[1:]
	return msg, true
}

// TryCancel triggers transport-level cancellation, the server-initiated
// counterpart to a client half-close (spec.md §4.6's try_cancel).
func (r *Reactor) TryCancel() {
	r.cancel()
}

func (r *Reactor) onDoneOnce() {
	r.doneOnce.Do(func() {
		r.log.Debug("session done")
		if r.onDone != nil {
			r.onDone(r)
		}
	})
}
