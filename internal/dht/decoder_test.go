package dht

import (
	"testing"
)

// frameFromBytes assembles a 40-bit frame word from the checksum byte b0 and
// data bytes b1..b4. b0 is the least significant byte of the word.
func frameFromBytes(b0, b1, b2, b3, b4 byte) uint64 {
	return uint64(b4)<<32 | uint64(b3)<<24 | uint64(b2)<<16 | uint64(b1)<<8 | uint64(b0)
}

// checksummed assembles a frame with a correct checksum for the data bytes.
func checksummed(b1, b2, b3, b4 byte) uint64 {
	return frameFromBytes(b1+b2+b3+b4, b1, b2, b3, b4)
}

// frameIntervals returns the rising-edge intervals that encode the given
// frame: a start gap, the two non-data slots (sensor response and
// start-of-transmission), then one interval per bit, most significant first.
func frameIntervals(frame uint64) []uint32 {
	intervals := []uint32{15000, 80, 80}
	for i := frameBits - 1; i >= 0; i-- {
		if frame>>uint(i)&1 == 1 {
			intervals = append(intervals, 120)
		} else {
			intervals = append(intervals, 76)
		}
	}
	return intervals
}

// feed drives the decoder with consecutive intervals starting at the given
// tick, returning the final tick.
func feed(d *Decoder, start uint32, intervals []uint32) uint32 {
	tick := start
	for _, iv := range intervals {
		tick += iv
		d.OnRisingEdge(tick)
	}
	return tick
}

func TestDecoderReconstructsFrame(t *testing.T) {
	frames := []uint64{
		checksummed(0x90, 0x81, 0xF4, 0x01), // -40.0C / 50.0%
		checksummed(0x00, 0x00, 0x00, 0x00),
		checksummed(0xFF, 0xFF, 0xFF, 0xFF),
		checksummed(0x2C, 0x01, 0x8A, 0x02), // 30.0C / 65.0%
	}

	for _, want := range frames {
		var got []uint64
		d := NewDecoder(func(code uint64) { got = append(got, code) })

		feed(d, 100, frameIntervals(want))

		if len(got) != 1 {
			t.Fatalf("frame %#x: expected 1 completed frame, got %d", want, len(got))
		}
		if got[0] != want {
			t.Errorf("expected frame %#x, got %#x", want, got[0])
		}
		if d.inFrame {
			t.Error("decoder should leave the frame after completion")
		}
	}
}

func TestDecoderDiscardSlotsAreNotValidated(t *testing.T) {
	// The two intervals after the start gap end non-data pulses. Their widths
	// are not classified, so out-of-band values there must not abort.
	want := checksummed(0x55, 0x02, 0xAA, 0x01)
	intervals := frameIntervals(want)
	intervals[1] = 55  // below the data band
	intervals[2] = 170 // above the data band

	var got []uint64
	d := NewDecoder(func(code uint64) { got = append(got, code) })
	feed(d, 100, intervals)

	if len(got) != 1 {
		t.Fatalf("expected 1 completed frame, got %d", len(got))
	}
	if got[0] != want {
		t.Errorf("expected frame %#x, got %#x", want, got[0])
	}
}

func TestDecoderAbortsOnInvalidPulse(t *testing.T) {
	frame := checksummed(0x12, 0x01, 0x34, 0x02)
	intervals := frameIntervals(frame)
	intervals[10] = 200 // mid-frame timing violation

	var completed int
	d := NewDecoder(func(uint64) { completed++ })
	tick := feed(d, 100, intervals)

	if completed != 0 {
		t.Fatalf("aborted frame must not be emitted, got %d completions", completed)
	}
	if d.inFrame {
		t.Error("expected inFrame=false after timing violation")
	}

	// A later start gap begins a fresh frame that completes normally.
	var got []uint64
	d.onFrame = func(code uint64) { got = append(got, code) }
	feed(d, tick, frameIntervals(frame))

	if len(got) != 1 {
		t.Fatalf("expected recovery frame after new start gap, got %d", len(got))
	}
	if got[0] != frame {
		t.Errorf("expected frame %#x, got %#x", frame, got[0])
	}
}

func TestDecoderIgnoresEdgesBeforeStartGap(t *testing.T) {
	var completed int
	d := NewDecoder(func(uint64) { completed++ })

	// Data-width intervals with no preceding start gap accumulate nothing.
	tick := uint32(50)
	for i := 0; i < 50; i++ {
		tick += 80
		d.OnRisingEdge(tick)
	}

	if completed != 0 {
		t.Errorf("expected no frames, got %d", completed)
	}
	if d.inFrame {
		t.Error("decoder should not be in a frame without a start gap")
	}
}

func TestDecoderShortInterval(t *testing.T) {
	// 30us is below the valid band: abort, same as a too-long pulse.
	intervals := frameIntervals(checksummed(1, 2, 3, 4))
	intervals[5] = 30

	var completed int
	d := NewDecoder(func(uint64) { completed++ })
	feed(d, 100, intervals)

	if completed != 0 {
		t.Errorf("expected no frames, got %d", completed)
	}
}

func TestDecoderTickWraparound(t *testing.T) {
	// The tick counter wraps at 2^32. A frame spanning the wrap point must
	// decode identically.
	want := checksummed(0x90, 0x81, 0xF4, 0x01)
	var got []uint64
	d := NewDecoder(func(code uint64) { got = append(got, code) })

	// Start close enough to the wrap point that data bits straddle it:
	// the start gap (15000us) plus roughly 20 data bits crosses zero.
	start := uint32(0xFFFFFFFF) - 17000
	feed(d, start, frameIntervals(want))

	if len(got) != 1 {
		t.Fatalf("expected 1 completed frame across wraparound, got %d", len(got))
	}
	if got[0] != want {
		t.Errorf("expected frame %#x, got %#x", want, got[0])
	}
}

func TestTickDiff(t *testing.T) {
	tests := []struct {
		name           string
		earlier, later uint32
		want           uint32
	}{
		{"simple", 100, 180, 80},
		{"zero", 500, 500, 0},
		{"wraparound", 0xFFFFFFD8, 0x28, 80},
		{"wraparound large", 0xFFFFF000, 0x1000, 0x2000},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tickDiff(tt.earlier, tt.later); got != tt.want {
				t.Errorf("tickDiff(%#x, %#x) = %d, want %d", tt.earlier, tt.later, got, tt.want)
			}
		})
	}
}

func TestDecoderRestartMidFrame(t *testing.T) {
	// A start gap arriving mid-frame silently discards the partial frame and
	// starts over.
	first := checksummed(0x01, 0x02, 0x03, 0x04)
	second := checksummed(0xAA, 0x05, 0xBB, 0x06)

	var got []uint64
	d := NewDecoder(func(code uint64) { got = append(got, code) })

	// Only the first 20 intervals of the first frame, then a fresh start.
	tick := feed(d, 100, frameIntervals(first)[:20])
	feed(d, tick, frameIntervals(second))

	if len(got) != 1 {
		t.Fatalf("expected exactly 1 frame, got %d", len(got))
	}
	if got[0] != second {
		t.Errorf("expected frame %#x, got %#x", second, got[0])
	}
}
