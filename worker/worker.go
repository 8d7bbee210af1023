// Package worker implements the single shared queue-draining thread of
// spec.md §4.8: one goroutine, process-wide, that wakes whenever any
// instance pushes to its outbound ring and fans every drained message
// out to that instance's attached clients.
package worker

import (
	"context"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/deeedob/clap-rci/logger"
	"github.com/deeedob/clap-rci/wire"
)

// Pumpable is the surface a live plugin instance exposes to the
// worker: its outbound ring drain and its current client set.
// coreplugin.CorePlugin implements this structurally; worker does not
// import coreplugin to avoid a cycle.
type Pumpable interface {
	InstanceID() uint64
	DrainOutbound(send func(*wire.OutboundMessage))
	Clients() []ClientSink
}

// ClientSink is the minimal surface needed to fan one message out to
// an attached session.
type ClientSink interface {
	StartSharedWrite(*wire.OutboundMessage)
}

// InstanceSource supplies the live-instance snapshot the worker walks
// each wake cycle. registry.Instances structurally satisfies this once
// its Instance values are asserted to Pumpable; the concrete wiring
// (instanceSource) lives in the demo host's serve command, keeping
// worker free of a registry import.
type InstanceSource interface {
	All() []Pumpable
}

// Worker is the process-wide queue-draining goroutine.
type Worker struct {
	source InstanceSource
	log    *zap.SugaredLogger

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup

	ready   chan struct{}
	isReady atomic.Bool

	lifecycleMu sync.Mutex
	connected   int64
}

// New builds a Worker that drains instances returned by source on each
// wake cycle.
func New(source InstanceSource) *Worker {
	return &Worker{
		source: source,
		log:    logger.With("component", "worker"),
		ready:  make(chan struct{}, 1),
	}
}

// Start spawns the draining goroutine if not already running. Returns
// false if it was already running, per spec.md §4.8.
func (w *Worker) Start() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.running {
		return false
	}

	ctx, cancel := context.WithCancel(context.Background())
	w.cancel = cancel
	w.running = true

	w.wg.Add(1)
	go w.loop(ctx)

	w.log.Debug("worker started")
	return true
}

// Stop requests cooperative shutdown and waits for the goroutine to
// exit. Returns false if the worker was not running, per spec.md §4.8.
func (w *Worker) Stop() bool {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return false
	}
	cancel := w.cancel
	w.running = false
	w.mu.Unlock()

	cancel()
	w.wg.Wait()
	w.log.Debug("worker stopped")
	return true
}

// TryNotify is the coalescing wake signal: it CASes the ready flag from
// false to true and, only on that transition, pushes onto the wake
// channel. Called from the audio and main threads on every push; must
// never block and never allocate. A capacity-1 channel plus an
// idempotent non-blocking send is the Go analog of a "CAS a flag, then
// signal a condition variable" pairing.
func (w *Worker) TryNotify() bool {
	if !w.isReady.CompareAndSwap(false, true) {
		return false
	}
	select {
	case w.ready <- struct{}{}:
	default:
	}
	return true
}

// OnClientConnected increments the process-wide connected-client
// counter and starts the worker if this was the first client across
// every instance (spec.md §4.8). The counter transition and the
// resulting Start/Stop are serialized under lifecycleMu so a connect
// racing a disconnect can never leave the counter and the worker's
// running state out of sync (e.g. a last-client disconnect pausing to
// call Stop while a new connect's Start sees the worker still "running"
// and no-ops).
func (w *Worker) OnClientConnected() {
	w.lifecycleMu.Lock()
	defer w.lifecycleMu.Unlock()
	w.connected++
	if w.connected == 1 {
		w.Start()
	}
}

// OnClientDisconnected decrements the process-wide connected-client
// counter and stops the worker once the last client across every
// instance has gone, per spec.md §4.8. See OnClientConnected for why
// the decrement and the Stop call share lifecycleMu.
func (w *Worker) OnClientDisconnected() {
	w.lifecycleMu.Lock()
	defer w.lifecycleMu.Unlock()
	w.connected--
	if w.connected == 0 {
		w.Stop()
	}
}

// ConnectedClients reports the current process-wide connected-client
// count.
func (w *Worker) ConnectedClients() int64 {
	w.lifecycleMu.Lock()
	defer w.lifecycleMu.Unlock()
	return w.connected
}

func (w *Worker) loop(ctx context.Context) {
	defer w.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.ready:
			w.isReady.Store(false)
			w.drainAll()
		}
	}
}

func (w *Worker) drainAll() {
	for _, inst := range w.source.All() {
		clients := inst.Clients()
		if len(clients) == 0 {
			continue
		}
		inst.DrainOutbound(func(msg *wire.OutboundMessage) {
			for _, c := range clients {
				c.StartSharedWrite(msg)
			}
		})
	}
}
