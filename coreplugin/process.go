package coreplugin

import (
	"github.com/deeedob/clap-rci/wire"
	"github.com/deeedob/clap-rci/worker"
)

// pushEvent enqueues msg onto the outbound ring and wakes the shared
// worker. If no client is attached the push is dropped; the emptiness
// check takes the clientsMu lock (see DESIGN.md for why this is
// deliberately stricter than a lock-free check would be), so a push can
// wait briefly while another goroutine holds that lock; beyond it, it
// never blocks and never allocates beyond the ring's own fixed storage.
func (p *CorePlugin) pushEvent(msg wire.OutboundMessage) bool {
	p.clientsMu.Lock()
	empty := len(p.clients) == 0
	p.clientsMu.Unlock()
	if empty {
		return false
	}

	p.outbound.Push(msg)
	if p.notifyQueueReady != nil {
		p.notifyQueueReady()
	}
	return true
}

func (p *CorePlugin) pushLifecycle(kind wire.LifecycleKind) {
	p.pushEvent(wire.OutboundMessage{Kind: wire.OutboundLifecycle, Lifecycle: kind})
}

// Process adapts the host's process(block) callback: it updates the
// transport watcher (if wanted), translates every note/MIDI input event
// into its outbound wire variant and pushes it, then delegates to the
// user hook, per spec.md §4.5's table.
func (p *CorePlugin) Process(block *ProcessBlock) error {
	if block.Transport != nil && p.WantsTransport() {
		if p.watcher.Update(*block.Transport) {
			p.pushEvent(wire.OutboundMessage{Kind: wire.OutboundTransport, Transport: p.watcher.Message()})
		}
	}

	for _, n := range block.Notes {
		p.pushEvent(wire.OutboundMessage{Kind: wire.OutboundNote, Note: n})
	}
	for i := range block.MIDI {
		p.pushEvent(wire.OutboundMessage{Kind: wire.OutboundMIDI, MIDI: block.MIDI[i]})
	}

	if p.hooks.OnProcess != nil {
		return p.hooks.OnProcess(block)
	}
	return nil
}

// GetExtension adapts get_extension("note-ports"): it returns the
// configured note-port view iff the instance opted in by registering
// at least one port, per spec.md §4.5.
func (p *CorePlugin) GetExtension(id string) (any, bool) {
	if id != "note-ports" {
		return nil, false
	}
	ports := p.NotePorts()
	if len(ports) == 0 {
		return nil, false
	}
	return ports, true
}

// DrainOutbound dequeues every currently-available outbound message and
// invokes send for each, in FIFO order. Satisfies worker.Pumpable; the
// shared QueueWorker calls this once per wake cycle for every live
// instance that has at least one client attached (spec.md §4.8).
func (p *CorePlugin) DrainOutbound(send func(*wire.OutboundMessage)) {
	var msg wire.OutboundMessage
	for p.outbound.Pop(&msg) {
		m := msg
		send(&m)
	}
}

// Clients returns a snapshot of the reactors currently attached, the
// fan-out target set the worker writes each drained message to.
// Satisfies worker.Pumpable.
func (p *CorePlugin) Clients() []worker.ClientSink {
	p.clientsMu.Lock()
	defer p.clientsMu.Unlock()
	out := make([]worker.ClientSink, 0, len(p.clients))
	for r := range p.clients {
		out = append(out, r)
	}
	return out
}

// PushInbound enqueues a raw client->plugin message onto the inbound
// ring. The reactor's read loop dispatches inbound requests directly
// into CorePlugin's control methods (spec.md §4.6), so this ring is not
// on that path; it exists per the data model of spec.md §3 for hosts
// that prefer to drain client requests on the audio thread instead of
// reacting to them immediately.
func (p *CorePlugin) PushInbound(msg wire.InboundMessage) bool {
	return p.inbound.Push(msg)
}

// DrainInbound dequeues every currently-available inbound message,
// invoking recv for each in FIFO order. See PushInbound.
func (p *CorePlugin) DrainInbound(recv func(*wire.InboundMessage)) {
	var msg wire.InboundMessage
	for p.inbound.Pop(&msg) {
		m := msg
		recv(&m)
	}
}
