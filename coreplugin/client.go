package coreplugin

import "github.com/deeedob/clap-rci/reactor"

// AttachClient registers r in this instance's client set, retaining a
// shared reference to the instance's state for as long as r is
// attached (spec.md §4.9's "registers it with the instance, taking the
// client-set lock"). Returns the number of clients now attached.
func (p *CorePlugin) AttachClient(r *reactor.Reactor) int {
	p.Retain()
	p.clientsMu.Lock()
	p.clients[r] = struct{}{}
	n := len(p.clients)
	p.clientsMu.Unlock()
	return n
}

// DetachClient removes r from this instance's client set and releases
// the reference AttachClient took. Returns the number of clients
// remaining attached and whether r was actually present.
func (p *CorePlugin) DetachClient(r *reactor.Reactor) (remaining int, removed bool) {
	p.clientsMu.Lock()
	if _, ok := p.clients[r]; ok {
		delete(p.clients, r)
		removed = true
	}
	remaining = len(p.clients)
	p.clientsMu.Unlock()

	if removed {
		p.Release()
	}
	return remaining, removed
}

// ClientCount reports how many reactors are currently attached.
func (p *CorePlugin) ClientCount() int {
	p.clientsMu.Lock()
	defer p.clientsMu.Unlock()
	return len(p.clients)
}

// cancelAllClients triggers transport-level cancellation on every
// attached session, part of Destroy's contract (spec.md §4.5).
func (p *CorePlugin) cancelAllClients() {
	p.clientsMu.Lock()
	snapshot := make([]*reactor.Reactor, 0, len(p.clients))
	for r := range p.clients {
		snapshot = append(snapshot, r)
	}
	p.clientsMu.Unlock()

	for _, r := range snapshot {
		r.TryCancel()
	}
}
