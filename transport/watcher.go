// Package transport implements the TransportWatcher delta engine of
// spec.md §4.4: it detects which fields of the host's transport record
// changed since the last tick and emits a minimal delta message.
package transport

import "github.com/deeedob/clap-rci/wire"

const (
	bitFlags uint8 = 1 << iota
	bitPosition
	bitTempo
	bitLoop
	bitTimeSig
)

// Watcher tracks the last-seen transport record and computes minimal
// deltas on each Update call.
type Watcher struct {
	last    wire.TransportRecord
	message wire.TransportDelta
}

// New returns a Watcher whose last-seen record is the zero record, so
// an Update with an all-zero record reports no change (matching the
// original's mCurrent{} baseline and property 3: update returns true
// iff at least one field differs from the prior state).
func New() *Watcher {
	return &Watcher{}
}

// Update compares rec against the last-seen record, returning true and
// populating Message() iff at least one of the five groups (flags,
// position, tempo, loop, time-signature) differs.
func (w *Watcher) Update(rec wire.TransportRecord) bool {
	var bits uint8
	if rec.Flags != w.last.Flags {
		bits |= bitFlags
	}
	if rec.PositionBeats != w.last.PositionBeats || rec.PositionSeconds != w.last.PositionSeconds {
		bits |= bitPosition
	}
	if rec.Tempo != w.last.Tempo || rec.TempoIncrement != w.last.TempoIncrement {
		bits |= bitTempo
	}
	if rec.LoopStartBeats != w.last.LoopStartBeats ||
		rec.LoopEndBeats != w.last.LoopEndBeats ||
		rec.LoopStartSeconds != w.last.LoopStartSeconds ||
		rec.LoopEndSeconds != w.last.LoopEndSeconds {
		bits |= bitLoop
	}
	if rec.TimeSigNumerator != w.last.TimeSigNumerator || rec.TimeSigDenominator != w.last.TimeSigDenominator {
		bits |= bitTimeSig
	}

	w.last = rec

	if bits == 0 {
		return false
	}

	w.message = buildDelta(bits, rec)
	return true
}

// Message returns the delta built by the most recent Update call that
// returned true. Its contents are undefined before the first such call.
func (w *Watcher) Message() wire.TransportDelta {
	return w.message
}

func buildDelta(bits uint8, rec wire.TransportRecord) wire.TransportDelta {
	position := wire.TransportPosition{Beats: rec.PositionBeats, Seconds: rec.PositionSeconds}
	tempo := wire.TransportTempo{Value: rec.Tempo, Increment: rec.TempoIncrement}
	loop := wire.TransportLoop{
		StartBeats:   rec.LoopStartBeats,
		EndBeats:     rec.LoopEndBeats,
		StartSeconds: rec.LoopStartSeconds,
		EndSeconds:   rec.LoopEndSeconds,
	}
	timeSig := wire.TransportTimeSig{Numerator: rec.TimeSigNumerator, Denominator: rec.TimeSigDenominator}

	// popcount > 1 -> collapse to the transport_all envelope.
	if popcount(bits) > 1 {
		return wire.TransportDelta{
			Field:    wire.FieldAll,
			Flags:    rec.Flags,
			Position: position,
			Tempo:    tempo,
			Loop:     loop,
			TimeSig:  timeSig,
		}
	}

	switch bits {
	case bitFlags:
		return wire.TransportDelta{Field: wire.FieldFlags, Flags: rec.Flags}
	case bitPosition:
		return wire.TransportDelta{Field: wire.FieldPosition, Position: position}
	case bitTempo:
		return wire.TransportDelta{Field: wire.FieldTempo, Tempo: tempo}
	case bitLoop:
		return wire.TransportDelta{Field: wire.FieldLoop, Loop: loop}
	case bitTimeSig:
		return wire.TransportDelta{Field: wire.FieldTimeSig, TimeSig: timeSig}
	default:
		// unreachable given the exhaustive bit set above
		return wire.TransportDelta{}
	}
}

func popcount(b uint8) int {
	n := 0
	for b != 0 {
		n += int(b & 1)
		b >>= 1
	}
	return n
}
