// Package frame extracts the Ethernet+IPv4+TCP headers from a raw capture
// buffer and yields the TCP payload plus 5-tuple metadata.
//
// This is deliberately not a general-purpose packet decoder: it assumes a
// fixed 14-byte Ethernet header and computes the IPv4/TCP header lengths the
// same way the original sniffer did, so that MissingHeader/Invalid failure
// modes line up exactly with a hand-rolled sniffer rather than with
// gopacket's own (more permissive) layer decoding. See
// github.com/google/gopacket/layers for the EtherType/IPProtocol constants
// referenced in comments below; the byte offsets themselves stay manual.
package frame

import (
	"encoding/binary"
	"fmt"
	"net"
)

const (
	ethernetHeaderLen = 14
	minTotalLen       = 54 // ethernet(14) + ipv4(20) + tcp(20), the smallest headers we accept
)

// ErrMissingHeader is returned when the buffer is too short to contain even
// the minimal Ethernet+IPv4+TCP headers.
type ErrMissingHeader struct {
	Len int
}

func (e *ErrMissingHeader) Error() string {
	return fmt.Sprintf("frame: missing header, buffer length %d < %d", e.Len, minTotalLen)
}

// ErrInvalid is returned when the computed TCP payload offset does not fit
// inside the buffer.
var ErrInvalid = fmt.Errorf("frame: invalid header layout")

// Header describes a decoded Ethernet+IPv4+TCP header triple and the TCP
// payload that follows it.
type Header struct {
	SourceIP        net.IP
	SourcePort      uint16
	DestinationPort uint16
	// SeqNum preserves the original sniffer's (nonstandard) choice of
	// reading a big-endian u16 out of the IPv4 identification field rather
	// than the real TCP sequence number; kept for wire compatibility with
	// existing fixtures.
	SeqNum          uint16
	TCPPayloadStart int
	Body            []byte
}

// Parse extracts a Header from a raw link-layer capture buffer.
func Parse(buf []byte) (*Header, error) {
	if len(buf) < minTotalLen {
		return nil, &ErrMissingHeader{Len: len(buf)}
	}

	ipHeaderStart := ethernetHeaderLen
	ipHeaderLen := int(buf[ipHeaderStart]&0x0F) * 4

	srcIPStart := ipHeaderStart + 12
	srcIP := net.IPv4(buf[srcIPStart], buf[srcIPStart+1], buf[srcIPStart+2], buf[srcIPStart+3])

	// The original sniffer reads the IPv4 identification field (offset 4
	// within the IPv4 header) as a stand-in "sequence number". Preserved
	// verbatim for fixture compatibility.
	seqNum := binary.BigEndian.Uint16(buf[ipHeaderStart+4 : ipHeaderStart+6])

	tcpHeaderStart := ipHeaderStart + ipHeaderLen
	if tcpHeaderStart+14 > len(buf) {
		return nil, ErrInvalid
	}
	tcpHeaderLen := int(buf[tcpHeaderStart+12]>>4) * 4

	sourcePort := binary.BigEndian.Uint16(buf[tcpHeaderStart : tcpHeaderStart+2])
	destinationPort := binary.BigEndian.Uint16(buf[tcpHeaderStart+2 : tcpHeaderStart+4])

	payloadStart := tcpHeaderStart + tcpHeaderLen
	if payloadStart > len(buf) {
		return nil, ErrInvalid
	}

	return &Header{
		SourceIP:        srcIP,
		SourcePort:      sourcePort,
		DestinationPort: destinationPort,
		SeqNum:          seqNum,
		TCPPayloadStart: payloadStart,
		Body:            buf[payloadStart:],
	}, nil
}
