// Package reassemble turns a stream of raw captured frames into a sequence
// of application-layer message metadata, buffering partial TCP payloads
// across frames. It is a framer, not a TCP stack: it does not reorder by
// sequence number, detect retransmissions, or reassemble across IP
// fragmentation.
package reassemble

import (
	"errors"

	"github.com/vahor/dofuscap/internal/frame"
	"github.com/vahor/dofuscap/internal/message"
)

// Stats are cumulative counters, read through Reassembler.Stats.
type Stats struct {
	FramesAcrossChunks int // frames whose bytes spanned more than one Feed call
	BufferResets       int
	LargestBuffer      int
}

// Reassembler accumulates TCP payload bytes across capture chunks and
// yields every complete application frame it can decode from the current
// buffer on each Feed call.
type Reassembler struct {
	buf   []byte
	stats Stats
}

// New returns an empty Reassembler.
func New() *Reassembler {
	return &Reassembler{}
}

// Stats returns a snapshot of the cumulative counters.
func (r *Reassembler) Stats() Stats {
	return r.stats
}

// Feed appends one captured raw frame's TCP payload to the buffer and
// decodes as many complete application frames as are currently available.
//
// Each successful decode drops that frame's bytes from the buffer, and
// decoding repeats until the buffer is drained or a decode fails. Invalid
// resets the buffer; Incomplete keeps the remaining bytes for the next
// chunk and is the only state that accumulates.
func (r *Reassembler) Feed(raw []byte) ([]*message.Metadata, error) {
	hdr, err := frame.Parse(raw)
	if err != nil {
		var missing *frame.ErrMissingHeader
		if errors.As(err, &missing) {
			// Not enough bytes to even find the TCP payload; nothing to
			// buffer yet.
			return nil, nil
		}
		r.reset()
		return nil, err
	}

	r.buf = append(r.buf, hdr.Body...)
	if len(r.buf) > r.stats.LargestBuffer {
		r.stats.LargestBuffer = len(r.buf)
	}

	var out []*message.Metadata
	startedWithBuffered := len(r.buf) > len(hdr.Body)

	for len(r.buf) > 0 {
		meta, err := message.Decode(r.buf)
		switch {
		case err == nil:
			if startedWithBuffered {
				// Only the first frame decoded here can include bytes
				// carried over from an earlier Feed call.
				r.stats.FramesAcrossChunks++
				startedWithBuffered = false
			}
			out = append(out, meta)
			r.buf = r.buf[meta.Consumed:]
			continue
		case errors.Is(err, message.ErrIncomplete):
			return out, nil
		case errors.Is(err, message.ErrInvalid):
			r.reset()
			return out, nil
		default:
			r.reset()
			return out, err
		}
	}

	// Buffer fully drained: nothing left to carry forward.
	r.buf = nil
	return out, nil
}

func (r *Reassembler) reset() {
	r.buf = nil
	r.stats.BufferResets++
}
