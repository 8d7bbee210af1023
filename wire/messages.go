// Package wire defines the message schema that crosses the plugin
// instance boundary: outbound (plugin -> clients) and inbound
// (clients -> plugin) messages, and the transport-record delta
// sub-messages, per spec.md §3 and §6.
//
// Outbound messages are deliberately flat, fixed-size structs rather
// than an interface-based sum type: they live as payloads inside
// internal/ring cells on the audio thread's hot path, where an
// interface value (a heap-escaping pointer) would violate the
// no-allocation contract. A Kind tag plus inline fields for every
// variant keeps the whole thing a value type.
package wire

// OutboundKind discriminates the variant carried by an OutboundMessage.
type OutboundKind uint8

const (
	OutboundLifecycle OutboundKind = iota
	OutboundNote
	OutboundMIDI
	OutboundTransport
)

// LifecycleKind enumerates the plugin lifecycle transitions that are
// mirrored to clients.
type LifecycleKind uint8

const (
	Activate LifecycleKind = iota
	Deactivate
	StartProcessing
	StopProcessing
	Reset
)

// NoteKind enumerates note-event variants.
type NoteKind uint8

const (
	NoteOn NoteKind = iota
	NoteOff
	NoteChoke
	NoteEnd
)

// NoteEvent mirrors a CLAP note event.
type NoteEvent struct {
	Kind      NoteKind
	NoteID    int32
	PortIndex int16
	Channel   int16
	Key       int16
	Velocity  float64
}

// midiMaxBytes bounds a MIDIEvent's raw payload so the whole OutboundMessage
// stays a fixed-size, stack-allocatable value for the ring. 255 bytes
// comfortably covers MIDI1 (3 bytes) and the overwhelming majority of
// SysEx/MIDI2 traffic seen in practice; an oversized payload is
// truncated rather than causing the audio thread to allocate.
const midiMaxBytes = 255

// MIDIEvent carries a raw MIDI1, SysEx, or MIDI2 payload. Which of the
// three it is follows from byte-length convention, as spec.md §6 notes:
// callers distinguish by Len, i.e. len(Bytes()) (3 for MIDI1, 16 for
// MIDI2, anything else is SysEx).
type MIDIEvent struct {
	PortIndex int16
	Len       uint8
	Data      [midiMaxBytes]byte
}

// Bytes returns the event's payload as a slice, truncated to the
// length actually captured.
func (m *MIDIEvent) Bytes() []byte {
	n := int(m.Len)
	if n > len(m.Data) {
		n = len(m.Data)
	}
	return m.Data[:n]
}

// SetBytes copies data into the event, truncating to midiMaxBytes.
func (m *MIDIEvent) SetBytes(data []byte) {
	n := copy(m.Data[:], data)
	m.Len = uint8(n)
}

// TransportField discriminates which part of a TransportDelta changed.
type TransportField uint8

const (
	FieldFlags TransportField = iota
	FieldPosition
	FieldTempo
	FieldLoop
	FieldTimeSig
	FieldAll
)

// TransportPosition is the song-position sub-message.
type TransportPosition struct {
	Beats   float64
	Seconds float64
}

// TransportTempo is the tempo sub-message.
type TransportTempo struct {
	Value     float64
	Increment float64
}

// TransportLoop is the loop sub-message.
type TransportLoop struct {
	StartBeats   float64
	EndBeats     float64
	StartSeconds float64
	EndSeconds   float64
}

// TransportTimeSig is the time-signature sub-message.
type TransportTimeSig struct {
	Numerator   int32
	Denominator int32
}

// TransportDelta is the envelope emitted by transport.Watcher.Update.
// Field carries which group(s) changed; when Field == FieldAll every
// sub-message plus Flags is populated, otherwise only the one named
// sub-message (or, for FieldFlags, only Flags) is meaningful.
type TransportDelta struct {
	Field    TransportField
	Flags    uint32
	Position TransportPosition
	Tempo    TransportTempo
	Loop     TransportLoop
	TimeSig  TransportTimeSig
}

// OutboundMessage is the tagged union pushed onto a CorePlugin's
// outbound ring and fanned out to every connected client.
type OutboundMessage struct {
	Kind      OutboundKind
	Lifecycle LifecycleKind
	Note      NoteEvent
	MIDI      MIDIEvent
	Transport TransportDelta
}

// InboundKind discriminates the variant carried by an InboundMessage.
type InboundKind uint8

const (
	RequestRestart InboundKind = iota
	RequestProcess
	EnableTransportEvents
	DisableTransportEvents
)

// InboundMessage is a client->plugin request, per spec.md §3/§6.
type InboundMessage struct {
	Kind InboundKind
}

// TransportRecord is the host's time/tempo record as described in
// spec.md §3, the input to transport.Watcher.Update.
type TransportRecord struct {
	Flags              uint32
	PositionBeats      float64
	PositionSeconds    float64
	Tempo              float64
	TempoIncrement     float64
	LoopStartBeats     float64
	LoopEndBeats       float64
	LoopStartSeconds   float64
	LoopEndSeconds     float64
	TimeSigNumerator   int32
	TimeSigDenominator int32
}
