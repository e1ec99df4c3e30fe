package pcap

import (
	"encoding/binary"
	"io"
	"net"
	"time"
)

const (
	ethHeaderLen  = 14
	ipHeaderLen   = 20
	udpHeaderLen  = 8
	etherTypeIPv4 = 0x0800
	protoUDP      = 17
)

// Frame describes the addressing of a crafted DHCP datagram. Zero values
// get sensible broadcast defaults: an all-ones destination MAC, 0.0.0.0 as
// source and 255.255.255.255 as destination address.
type Frame struct {
	SrcMAC, DstMAC   net.HardwareAddr
	SrcIP, DstIP     net.IP
	SrcPort, DstPort uint16
	Timestamp        time.Time
}

// Writer appends DHCP payloads as Ethernet/IPv4/UDP frames to an Ethernet
// pcap stream.
type Writer struct {
	w             io.Writer
	headerWritten bool
}

// NewWriter returns a Writer emitting to w. The pcap file header is
// written lazily on the first Put.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: w}
}

func (w *Writer) fileHeader() error {
	var hdr [fileHeaderLen]byte
	binary.LittleEndian.PutUint32(hdr[0:4], magicNanos)
	binary.LittleEndian.PutUint16(hdr[4:6], 2)
	binary.LittleEndian.PutUint16(hdr[6:8], 4)
	binary.LittleEndian.PutUint32(hdr[16:20], snapLen)
	binary.LittleEndian.PutUint32(hdr[20:24], uint32(LinkEthernet))
	if _, err := w.w.Write(hdr[:]); err != nil {
		return err
	}
	w.headerWritten = true
	return nil
}

// Put encapsulates payload per f and appends it as one pcap record.
func (w *Writer) Put(f Frame, payload []byte) error {
	if !w.headerWritten {
		if err := w.fileHeader(); err != nil {
			return err
		}
	}

	frame := encapsulate(f, payload)
	ts := f.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}

	var hdr [recordHeaderLen]byte
	binary.LittleEndian.PutUint32(hdr[0:4], uint32(ts.Unix()))
	binary.LittleEndian.PutUint32(hdr[4:8], uint32(ts.Nanosecond()))
	binary.LittleEndian.PutUint32(hdr[8:12], uint32(len(frame)))
	binary.LittleEndian.PutUint32(hdr[12:16], uint32(len(frame)))
	if _, err := w.w.Write(hdr[:]); err != nil {
		return err
	}
	_, err := w.w.Write(frame)
	return err
}

// encapsulate wraps payload into Ethernet, IPv4 and UDP headers. The UDP
// checksum is left zero, which IPv4 permits; the IPv4 header checksum is
// filled in.
func encapsulate(f Frame, payload []byte) []byte {
	udpLen := udpHeaderLen + len(payload)
	ipLen := ipHeaderLen + udpLen
	frame := make([]byte, ethHeaderLen+ipLen)

	dstMAC := f.DstMAC
	if dstMAC == nil {
		dstMAC = net.HardwareAddr{0xff, 0xff, 0xff, 0xff, 0xff, 0xff}
	}
	copy(frame[0:6], dstMAC)
	copy(frame[6:12], f.SrcMAC)
	binary.BigEndian.PutUint16(frame[12:14], etherTypeIPv4)

	ip := frame[ethHeaderLen:]
	ip[0] = 0x45 // version 4, 20 byte header
	binary.BigEndian.PutUint16(ip[2:4], uint16(ipLen))
	ip[8] = 64 // TTL
	ip[9] = protoUDP
	copy(ip[12:16], ip4OrZero(f.SrcIP))
	copy(ip[16:20], ip4OrBroadcast(f.DstIP))
	binary.BigEndian.PutUint16(ip[10:12], ipChecksum(ip[:ipHeaderLen]))

	udp := ip[ipHeaderLen:]
	binary.BigEndian.PutUint16(udp[0:2], f.SrcPort)
	binary.BigEndian.PutUint16(udp[2:4], f.DstPort)
	binary.BigEndian.PutUint16(udp[4:6], uint16(udpLen))
	copy(udp[udpHeaderLen:], payload)

	return frame
}

func ip4OrZero(ip net.IP) []byte {
	if v := ip.To4(); v != nil {
		return v
	}
	return []byte{0, 0, 0, 0}
}

func ip4OrBroadcast(ip net.IP) []byte {
	if v := ip.To4(); v != nil {
		return v
	}
	return []byte{255, 255, 255, 255}
}

// ipChecksum is the RFC 791 ones-complement header checksum. The checksum
// field itself must be zero when calling.
func ipChecksum(b []byte) uint16 {
	var sum uint32
	for i := 0; i+1 < len(b); i += 2 {
		sum += uint32(binary.BigEndian.Uint16(b[i : i+2]))
	}
	for sum>>16 != 0 {
		sum = sum&0xffff + sum>>16
	}
	return ^uint16(sum)
}
