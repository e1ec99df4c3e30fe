package pcap

import (
	"bytes"
	"encoding/binary"
	"net"
	"testing"
	"time"
)

func TestWriteReadRoundTrip(t *testing.T) {
	payload := []byte{0x01, 0x01, 0x06, 0x00, 0xde, 0xad, 0xbe, 0xef}
	frame := Frame{
		SrcMAC:    net.HardwareAddr{0x00, 0x11, 0x22, 0x33, 0x44, 0x55},
		SrcPort:   68,
		DstPort:   67,
		Timestamp: time.Unix(1600000000, 42),
	}

	var buf bytes.Buffer
	w := NewWriter(&buf)
	if err := w.Put(frame, payload); err != nil {
		t.Fatalf("writing record: %v", err)
	}
	if err := w.Put(frame, payload); err != nil {
		t.Fatalf("writing second record: %v", err)
	}

	got, err := DHCPPayloads(bytes.NewReader(buf.Bytes()))
	if err != nil {
		t.Fatalf("extracting DHCP payloads: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d payloads, want 2", len(got))
	}
	for i, p := range got {
		if !bytes.Equal(p, payload) {
			t.Errorf("payload #%d mutated by write-then-read: %x", i+1, p)
		}
	}
}

func TestReaderMetadata(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)
	ts := time.Unix(1600000000, 42)
	if err := w.Put(Frame{SrcPort: 67, DstPort: 68, Timestamp: ts}, []byte{0xab}); err != nil {
		t.Fatalf("writing record: %v", err)
	}

	r, err := NewReader(&buf)
	if err != nil {
		t.Fatalf("reading header: %v", err)
	}
	if r.LinkType != LinkEthernet {
		t.Errorf("link type = %d, want %d", r.LinkType, LinkEthernet)
	}

	pkt, err := r.Next()
	if err != nil {
		t.Fatalf("reading record: %v", err)
	}
	if !pkt.Timestamp.Equal(ts) {
		t.Errorf("timestamp = %v, want %v", pkt.Timestamp, ts)
	}
	if pkt.Length != len(pkt.Bytes) {
		t.Errorf("length = %d, want %d", pkt.Length, len(pkt.Bytes))
	}
	if pkt.Length != ethHeaderLen+ipHeaderLen+udpHeaderLen+1 {
		t.Errorf("frame is %d bytes, want %d", pkt.Length, ethHeaderLen+ipHeaderLen+udpHeaderLen+1)
	}
}

func TestNonDHCPTrafficFiltered(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)
	if err := w.Put(Frame{SrcPort: 5353, DstPort: 5353}, []byte{1, 2, 3}); err != nil {
		t.Fatalf("writing record: %v", err)
	}

	got, err := DHCPPayloads(&buf)
	if err != nil {
		t.Fatalf("extracting DHCP payloads: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("got %d payloads from non-DHCP traffic, want 0", len(got))
	}
}

func TestRawLinkType(t *testing.T) {
	// Handcraft a little-endian capture with a raw-IP link type.
	var buf bytes.Buffer
	var hdr [fileHeaderLen]byte
	binary.LittleEndian.PutUint32(hdr[0:4], magicMicros)
	binary.LittleEndian.PutUint16(hdr[4:6], 2)
	binary.LittleEndian.PutUint16(hdr[6:8], 4)
	binary.LittleEndian.PutUint32(hdr[20:24], uint32(LinkRaw))
	buf.Write(hdr[:])

	pkt := encapsulate(Frame{SrcPort: 68, DstPort: 67}, []byte{0x42})[ethHeaderLen:]
	var rec [recordHeaderLen]byte
	binary.LittleEndian.PutUint32(rec[8:12], uint32(len(pkt)))
	binary.LittleEndian.PutUint32(rec[12:16], uint32(len(pkt)))
	buf.Write(rec[:])
	buf.Write(pkt)

	got, err := DHCPPayloads(&buf)
	if err != nil {
		t.Fatalf("extracting DHCP payloads: %v", err)
	}
	if len(got) != 1 || !bytes.Equal(got[0], []byte{0x42}) {
		t.Fatalf("got %x, want a single 0x42 payload", got)
	}
}

func TestBadMagic(t *testing.T) {
	if _, err := NewReader(bytes.NewReader(make([]byte, fileHeaderLen))); err == nil {
		t.Fatal("expected an error for a zeroed file header")
	}
}

func TestIPChecksum(t *testing.T) {
	// Reference header from RFC 1071 material, checksum field zeroed.
	hdr := []byte{
		0x45, 0x00, 0x00, 0x73, 0x00, 0x00, 0x40, 0x00,
		0x40, 0x11, 0x00, 0x00, 0xc0, 0xa8, 0x00, 0x01,
		0xc0, 0xa8, 0x00, 0xc7,
	}
	if got := ipChecksum(hdr); got != 0xb861 {
		t.Fatalf("checksum = %#04x, want 0xb861", got)
	}
}
