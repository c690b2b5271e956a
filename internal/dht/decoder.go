package dht

// Protocol timing constants, in microseconds. The sensor holds the line high
// for roughly 76µs per 0 bit and 120µs per 1 bit; [minPulse, maxPulse] is the
// tolerance band around those, and anything longer than startGap is the idle
// gap between the host trigger pulse and the sensor response.
const (
	startGap  = 10000
	minPulse  = 60
	oneSplit  = 100
	maxPulse  = 150
	frameBits = 40
)

// Decoder reconstructs 40-bit frames from a stream of rising-edge tick
// timestamps. Ticks are a wrapping 32-bit microsecond counter; the interval
// between consecutive rising edges is the only information used.
//
// Decoder is not safe for concurrent use. Sensor serializes access to it.
type Decoder struct {
	// inFrame is true once a start gap has been seen and bits are being
	// accumulated.
	inFrame bool
	// bits counts data bits. It starts at -2 because the first two intervals
	// after the start gap end the sensor-response and start-of-transmission
	// pulses, not data bits.
	bits int
	// code accumulates the 40-bit frame, most significant bit first.
	code uint64

	lastEdgeTick uint32

	// onFrame is invoked with the completed 40-bit frame. Partial
	// accumulations from an aborted frame are never delivered.
	onFrame func(code uint64)
}

// NewDecoder creates a Decoder that calls onFrame for each completed frame.
func NewDecoder(onFrame func(code uint64)) *Decoder {
	return &Decoder{onFrame: onFrame}
}

// OnRisingEdge advances the state machine with a rising edge seen at the
// given tick. An interval longer than the start gap (re)starts a frame,
// silently discarding any frame in progress. An interval outside the valid
// pulse band mid-frame aborts the frame; no error is raised, the pending
// read simply times out.
func (d *Decoder) OnRisingEdge(tick uint32) {
	interval := tickDiff(d.lastEdgeTick, tick)
	d.lastEdgeTick = tick

	if interval > startGap {
		d.inFrame = true
		d.bits = -2
		d.code = 0
		return
	}
	if !d.inFrame {
		return
	}

	d.bits++
	if d.bits >= 1 {
		d.code <<= 1
		if interval >= minPulse && interval <= maxPulse {
			if interval > oneSplit {
				d.code |= 1
			}
		} else {
			// Timing violation: line noise or a non-conforming device.
			// Abort rather than guess.
			d.inFrame = false
		}
	}

	if d.inFrame && d.bits == frameBits {
		d.onFrame(d.code)
		d.inFrame = false
	}
}

// tickDiff returns the number of ticks from earlier to later on the wrapping
// 32-bit counter. Unsigned subtraction gives the correct distance across a
// wraparound.
func tickDiff(earlier, later uint32) uint32 {
	return later - earlier
}
