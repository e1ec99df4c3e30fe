// Package pcap reads and writes classic pcap captures, just enough to pull
// DHCP datagrams out of a capture and to wrap crafted DHCP payloads into
// frames that standard capture tools can open.
package pcap

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"time"
)

// LinkType describes the framing of each packet in a capture.
type LinkType uint32

// The two link types this package understands.
const (
	LinkEthernet LinkType = 1
	LinkRaw      LinkType = 101
)

const (
	fileHeaderLen   = 24
	recordHeaderLen = 16

	magicMicros = 0xa1b2c3d4
	magicNanos  = 0xa1b23c4d

	snapLen = 65535
)

// Packet is one captured packet and its metadata.
type Packet struct {
	Timestamp time.Time
	// Length is the packet's original length on the wire, which may
	// exceed len(Bytes) if the capture was truncated.
	Length int
	Bytes  []byte
}

// Reader extracts packets from a pcap stream.
type Reader struct {
	LinkType LinkType

	r     io.Reader
	order binary.ByteOrder
	nanos bool
}

// NewReader reads the pcap file header from r and returns a Reader for the
// records that follow. Both byte orders and both timestamp resolutions are
// accepted.
func NewReader(r io.Reader) (*Reader, error) {
	var hdr [fileHeaderLen]byte
	if _, err := io.ReadFull(r, hdr[:]); err != nil {
		return nil, fmt.Errorf("reading pcap file header: %w", err)
	}

	ret := &Reader{r: r, order: binary.LittleEndian}
	switch binary.LittleEndian.Uint32(hdr[0:4]) {
	case magicMicros:
	case magicNanos:
		ret.nanos = true
	default:
		// The magic did not read as little-endian, try the other way.
		switch binary.BigEndian.Uint32(hdr[0:4]) {
		case magicMicros:
			ret.order = binary.BigEndian
		case magicNanos:
			ret.order = binary.BigEndian
			ret.nanos = true
		default:
			return nil, errors.New("not a pcap file (bad magic)")
		}
	}

	major := ret.order.Uint16(hdr[4:6])
	minor := ret.order.Uint16(hdr[6:8])
	if major != 2 || minor != 4 {
		return nil, fmt.Errorf("unsupported pcap version %d.%d", major, minor)
	}
	ret.LinkType = LinkType(ret.order.Uint32(hdr[20:24]))

	return ret, nil
}

// Next returns the next packet, or io.EOF at the clean end of the stream.
func (r *Reader) Next() (*Packet, error) {
	var hdr [recordHeaderLen]byte
	if _, err := io.ReadFull(r.r, hdr[:]); err != nil {
		if errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, errors.New("truncated pcap record header")
		}
		return nil, err
	}

	sec := r.order.Uint32(hdr[0:4])
	sub := r.order.Uint32(hdr[4:8])
	capLen := r.order.Uint32(hdr[8:12])
	origLen := r.order.Uint32(hdr[12:16])

	bs := make([]byte, capLen)
	if _, err := io.ReadFull(r.r, bs); err != nil {
		return nil, fmt.Errorf("reading %d byte pcap record: %w", capLen, err)
	}

	nsec := int64(sub)
	if !r.nanos {
		nsec *= 1000
	}
	return &Packet{
		Timestamp: time.Unix(int64(sec), nsec),
		Length:    int(origLen),
		Bytes:     bs,
	}, nil
}

// DHCPPayloads reads a whole capture and returns the UDP payloads of all
// packets going to or from the DHCP ports (67/68), in capture order.
// Non-UDP and non-DHCP traffic is skipped silently.
func DHCPPayloads(r io.Reader) ([][]byte, error) {
	rd, err := NewReader(r)
	if err != nil {
		return nil, err
	}
	if rd.LinkType != LinkEthernet && rd.LinkType != LinkRaw {
		return nil, fmt.Errorf("unsupported link type %d", rd.LinkType)
	}

	var ret [][]byte
	for {
		pkt, err := rd.Next()
		if errors.Is(err, io.EOF) {
			return ret, nil
		}
		if err != nil {
			return nil, err
		}
		payload, src, dst, ok := udpPayload(rd.LinkType, pkt.Bytes)
		if !ok {
			continue
		}
		if src != 67 && src != 68 && dst != 67 && dst != 68 {
			continue
		}
		ret = append(ret, payload)
	}
}

// udpPayload strips the link, IPv4 and UDP headers from a captured frame.
func udpPayload(lt LinkType, bs []byte) (payload []byte, srcPort, dstPort uint16, ok bool) {
	if lt == LinkEthernet {
		if len(bs) < ethHeaderLen {
			return nil, 0, 0, false
		}
		if binary.BigEndian.Uint16(bs[12:14]) != etherTypeIPv4 {
			return nil, 0, 0, false
		}
		bs = bs[ethHeaderLen:]
	}

	if len(bs) < ipHeaderLen || bs[0]>>4 != 4 {
		return nil, 0, 0, false
	}
	ihl := int(bs[0]&0x0f) * 4
	if ihl < ipHeaderLen || len(bs) < ihl {
		return nil, 0, 0, false
	}
	if bs[9] != protoUDP {
		return nil, 0, 0, false
	}
	bs = bs[ihl:]

	if len(bs) < udpHeaderLen {
		return nil, 0, 0, false
	}
	srcPort = binary.BigEndian.Uint16(bs[0:2])
	dstPort = binary.BigEndian.Uint16(bs[2:4])
	return bs[udpHeaderLen:], srcPort, dstPort, true
}
