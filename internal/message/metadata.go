// Package message decodes the application-layer frame header (id,
// length-width flag, length) out of a TCP payload and slices the message
// body from it.
package message

import (
	"encoding/binary"
	"errors"
)

// ErrInvalid indicates the payload is too short to even hold a header; the
// reassembler treats this as unrecoverable and resets its buffer.
var ErrInvalid = errors.New("message: invalid payload")

// ErrIncomplete indicates the payload holds a header but not yet the full
// body; the reassembler retains its buffer and waits for more bytes.
var ErrIncomplete = errors.New("message: incomplete payload")

// Metadata is the result of splitting a TCP payload into an application
// message id and its body.
type Metadata struct {
	ID   uint16
	Size uint16
	Data []byte
	// Consumed is the number of bytes of the input payload this metadata
	// occupies (header + body); callers that loop over multiple frames in
	// one payload advance by this amount.
	Consumed int
}

// Decode splits a TCP payload into a Metadata header and body slice.
//
// Wire format: header(u16 BE) = (id << 2) | sizeType; sizeType in {0,1,2,3}
// is the byte-width of the following big-endian length field; body is
// length bytes.
func Decode(payload []byte) (*Metadata, error) {
	if len(payload) < 3 {
		return nil, ErrInvalid
	}

	header := binary.BigEndian.Uint16(payload[0:2])
	id := header >> 2
	sizeType := int(header & 0b11)

	contentStart := 2 + sizeType
	if len(payload) < contentStart {
		return nil, ErrIncomplete
	}

	var size uint32
	for _, b := range payload[2:contentStart] {
		size = size<<8 | uint32(b)
	}

	if len(payload) < contentStart+int(size) {
		return nil, ErrIncomplete
	}

	return &Metadata{
		ID:       id,
		Size:     uint16(size),
		Data:     payload[contentStart : contentStart+int(size)],
		Consumed: contentStart + int(size),
	}, nil
}
