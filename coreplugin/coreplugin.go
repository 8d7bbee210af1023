// Package coreplugin implements CorePlugin, the per-instance adapter
// that turns host ABI callbacks into events pushed through the bounded
// rings, per spec.md §3/§4.5.
//
// CorePlugin owns no transport or RPC concerns directly: it pushes onto
// a bounded outbound ring and lets the shared worker (package worker)
// drain it. Reactor sessions control it through the narrow
// reactor.PluginControl interface; CorePlugin in turn keeps its
// attached sessions as *reactor.Reactor values in its client set.
package coreplugin

import (
	"sync"
	"sync/atomic"
	"unsafe"

	"go.uber.org/zap"

	"github.com/deeedob/clap-rci/descriptor"
	"github.com/deeedob/clap-rci/internal/ring"
	"github.com/deeedob/clap-rci/logger"
	"github.com/deeedob/clap-rci/reactor"
	"github.com/deeedob/clap-rci/transport"
	"github.com/deeedob/clap-rci/wire"
)

// ringCapacity is the fixed capacity of both the outbound and inbound
// rings, per spec.md §3.
const ringCapacity = 256

// HostHandle is opaque to this package; it is whatever the plugin ABI
// adapter uses to call back into the host (request_restart,
// request_process, and so on).
type HostHandle any

// Hooks are the user-supplied per-kind callbacks invoked alongside each
// host ABI adaptation (spec.md §4.5's "user hook"). A nil hook behaves
// as a default success / no-op.
type Hooks struct {
	OnInit            func() error
	OnDestroy         func()
	OnActivate        func(sampleRate float64, minFrames, maxFrames uint32) error
	OnDeactivate      func()
	OnStartProcessing func() error
	OnStopProcessing  func()
	OnReset           func()
	OnProcess         func(block *ProcessBlock) error
}

// NotePortInfo describes one note port exposed through
// get_extension("note-ports").
type NotePortInfo struct {
	PortIndex      int16
	IsInput        bool
	SupportsNoteID bool
}

// ProcessBlock is process()'s per-callback input: the host's current
// transport record (nil if the host didn't supply one this block) and
// the input events carried in the core event space.
type ProcessBlock struct {
	Transport *wire.TransportRecord
	Notes     []wire.NoteEvent
	MIDI      []wire.MIDIEvent
}

// CorePlugin is one live instance of a registered plugin kind. It
// implements registry.Instance, reactor.PluginControl, and
// worker.Pumpable structurally, without those packages importing this
// one.
type CorePlugin struct {
	instanceID uint64
	descriptor *descriptor.Descriptor
	kindID     string
	host       HostHandle
	hooks      Hooks

	mu         sync.Mutex
	active     bool
	processing bool
	sampleRate float64
	minFrames  uint32
	maxFrames  uint32
	notePorts  []NotePortInfo

	wantsTransport atomic.Bool
	watcher        *transport.Watcher

	outbound *ring.Ring[wire.OutboundMessage]
	inbound  *ring.Ring[wire.InboundMessage]

	clientsMu sync.Mutex
	clients   map[*reactor.Reactor]struct{}

	// refcount tracks shared ownership of this instance's state across
	// CorePlugin itself and every attached Reactor (spec.md §4.5's "the
	// reactor's message outlasts the instance's logical destroy"). The
	// last releaser is the one that actually removes the instance from
	// the registry's instance table; Destroy itself never removes it.
	refcount atomic.Int32
	released atomic.Bool
	onRemove func(*CorePlugin)

	notifyQueueReady func()

	log *zap.SugaredLogger
}

// New builds a CorePlugin for kindID/desc bound to host, with
// notifyQueueReady wired to the shared worker's TryNotify and onRemove
// wired to remove the instance from the registry's instance table
// exactly once. instance_id is derived from the CorePlugin's own heap
// address via the bit-mixing finalizer of spec.md §3, guaranteeing
// uniqueness for as long as this value is alive.
func New(kindID string, desc *descriptor.Descriptor, host HostHandle, hooks Hooks, notifyQueueReady func(), onRemove func(*CorePlugin)) *CorePlugin {
	p := &CorePlugin{
		descriptor:       desc,
		kindID:           kindID,
		host:             host,
		hooks:            hooks,
		watcher:          transport.New(),
		outbound:         ring.New[wire.OutboundMessage](ringCapacity),
		inbound:          ring.New[wire.InboundMessage](ringCapacity),
		clients:          make(map[*reactor.Reactor]struct{}),
		notifyQueueReady: notifyQueueReady,
		onRemove:         onRemove,
	}
	p.instanceID = mix(uint64(uintptr(unsafe.Pointer(p))))
	p.refcount.Store(1) // the registry's own reference
	p.log = logger.With("instance", p.instanceID, "kind", kindID)
	p.log.Debug("instance created")
	return p
}

// mix is the MurmurHash3-style bit-mixing finalizer named in spec.md
// §3: it spreads a single already-unique value (a pointer) evenly
// across all 64 bits so callers can use a subset of those bits while
// keeping collisions rare.
func mix(h uint64) uint64 {
	h ^= h >> 33
	h *= 0xff51afd7ed558ccd
	h ^= h >> 33
	h *= 0xc4ceb9fe1a85ec53
	h ^= h >> 33
	return h
}

// InstanceID satisfies registry.Instance.
func (p *CorePlugin) InstanceID() uint64 { return p.instanceID }

// KindID returns the id of the plugin kind this instance was created
// from.
func (p *CorePlugin) KindID() string { return p.kindID }

// Descriptor returns the kind's immutable descriptor.
func (p *CorePlugin) Descriptor() *descriptor.Descriptor { return p.descriptor }

// Retain increments the shared refcount. Called when a Reactor attaches
// itself to this instance's client set.
func (p *CorePlugin) Retain() {
	p.refcount.Add(1)
}

// Release decrements the shared refcount; the releaser that brings it
// to zero removes the instance from the registry exactly once (spec.md
// §9's pimpl note — see DESIGN.md).
func (p *CorePlugin) Release() {
	if p.refcount.Add(-1) == 0 {
		if p.released.CompareAndSwap(false, true) && p.onRemove != nil {
			p.onRemove(p)
		}
	}
}

// Init adapts the host's init callback.
func (p *CorePlugin) Init() error {
	if p.hooks.OnInit != nil {
		return p.hooks.OnInit()
	}
	return nil
}

// Destroy adapts the host's destroy callback: user hook, then cancel
// every attached client session. Removal from the instance table
// happens via Release, which the caller (typically the boundary
// factory glue) must invoke after Destroy to drop the registry's own
// reference.
func (p *CorePlugin) Destroy() {
	if p.hooks.OnDestroy != nil {
		p.hooks.OnDestroy()
	}
	p.cancelAllClients()
	p.log.Debug("instance destroyed")
}

// Activate adapts the host's activate callback.
func (p *CorePlugin) Activate(sampleRate float64, minFrames, maxFrames uint32) error {
	p.mu.Lock()
	p.sampleRate, p.minFrames, p.maxFrames = sampleRate, minFrames, maxFrames
	p.active = true
	p.mu.Unlock()

	var err error
	if p.hooks.OnActivate != nil {
		err = p.hooks.OnActivate(sampleRate, minFrames, maxFrames)
	}
	p.pushLifecycle(wire.Activate)
	return err
}

// Deactivate adapts the host's deactivate callback.
func (p *CorePlugin) Deactivate() {
	p.mu.Lock()
	p.active = false
	p.mu.Unlock()

	if p.hooks.OnDeactivate != nil {
		p.hooks.OnDeactivate()
	}
	p.pushLifecycle(wire.Deactivate)
}

// StartProcessing adapts the host's start_processing callback.
func (p *CorePlugin) StartProcessing() error {
	p.mu.Lock()
	p.processing = true
	p.mu.Unlock()

	var err error
	if p.hooks.OnStartProcessing != nil {
		err = p.hooks.OnStartProcessing()
	}
	p.pushLifecycle(wire.StartProcessing)
	return err
}

// StopProcessing adapts the host's stop_processing callback.
func (p *CorePlugin) StopProcessing() {
	p.mu.Lock()
	p.processing = false
	p.mu.Unlock()

	if p.hooks.OnStopProcessing != nil {
		p.hooks.OnStopProcessing()
	}
	p.pushLifecycle(wire.StopProcessing)
}

// Reset adapts the host's reset callback.
func (p *CorePlugin) Reset() {
	if p.hooks.OnReset != nil {
		p.hooks.OnReset()
	}
	p.pushLifecycle(wire.Reset)
}

// IsActive reports whether the instance is currently activated.
func (p *CorePlugin) IsActive() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.active
}

// WithNotePortIn registers an input note port. Fails (returns false)
// once the instance is active, per spec.md §4.5.
func (p *CorePlugin) WithNotePortIn(info NotePortInfo) bool {
	return p.addNotePort(info, true)
}

// WithNotePortOut registers an output note port. Fails (returns false)
// once the instance is active, per spec.md §4.5.
func (p *CorePlugin) WithNotePortOut(info NotePortInfo) bool {
	return p.addNotePort(info, false)
}

func (p *CorePlugin) addNotePort(info NotePortInfo, isInput bool) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.active {
		return false
	}
	info.IsInput = isInput
	p.notePorts = append(p.notePorts, info)
	return true
}

// NotePorts returns a snapshot of the configured note ports, the view
// get_extension("note-ports") is built from.
func (p *CorePlugin) NotePorts() []NotePortInfo {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]NotePortInfo, len(p.notePorts))
	copy(out, p.notePorts)
	return out
}

// SetWantsTransport toggles whether process() watches the host
// transport record for this instance. Race-tolerant by design (spec.md
// §4.5): readers use an atomic load, so a toggle mid-block is observed
// no later than the following block.
func (p *CorePlugin) SetWantsTransport(enabled bool) {
	p.wantsTransport.Store(enabled)
}

// WantsTransport reports the current transport-watching toggle.
func (p *CorePlugin) WantsTransport() bool {
	return p.wantsTransport.Load()
}

// HostRequestRestart adapts a client's RequestRestart message into the
// host's request_restart callback. Satisfies reactor.PluginControl.
func (p *CorePlugin) HostRequestRestart() {
	if rh, ok := p.host.(interface{ RequestRestart() }); ok {
		rh.RequestRestart()
	}
}

// HostRequestProcess adapts a client's RequestProcess message into the
// host's request_process callback. Satisfies reactor.PluginControl.
func (p *CorePlugin) HostRequestProcess() {
	if rh, ok := p.host.(interface{ RequestProcess() }); ok {
		rh.RequestProcess()
	}
}
