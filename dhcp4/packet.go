package dhcp4

import (
	"bytes"
	"errors"
	"fmt"
	"net"
	"strings"
)

// Packet is an in-memory DHCPv4 packet: a value for each mandatory fixed
// field, plus whichever options are present.
//
// A Packet is either built up through SetField/SetOption (the factory
// constructors do this) or produced by Unmarshal from received bytes. Each
// Packet owns its maps exclusively, so distinct packets may be encoded and
// decoded concurrently without synchronization.
type Packet struct {
	fields  map[*Field]interface{}
	options map[*Option]interface{}
}

// New returns an empty packet. It is not valid until all mandatory fields
// have been set.
func New() *Packet {
	return &Packet{
		fields:  make(map[*Field]interface{}),
		options: make(map[*Option]interface{}),
	}
}

// Field returns the value of f, if set. Values have the Go type matching
// the field's kind (see pack/unpack).
func (p *Packet) Field(f *Field) (interface{}, bool) {
	v, ok := p.fields[f]
	return v, ok
}

// SetField sets f to value. The value must have the Go type matching the
// field's kind; a mismatch surfaces as an error from Marshal.
func (p *Packet) SetField(f *Field, value interface{}) {
	p.fields[f] = value
}

// Option returns the value of opt, if present.
func (p *Packet) Option(opt *Option) (interface{}, bool) {
	v, ok := p.options[opt]
	return v, ok
}

// SetOption sets opt to value.
func (p *Packet) SetOption(opt *Option, value interface{}) {
	p.options[opt] = value
}

// IsValid reports whether the packet carries all 13 mandatory fields and
// the correct magic cookie. Encoding is refused for invalid packets, and
// decoded packets must pass this check before being trusted.
func (p *Packet) IsValid() bool {
	for _, f := range PacketFields {
		if _, ok := p.fields[f]; !ok {
			log.Warnw("packet is missing mandatory field", "field", f.Name)
			return false
		}
	}
	cookie, _ := p.fields[FieldMagicCookie].(uint32)
	return cookie == MagicCookie
}

// MessageType returns the message type option, or MsgUnknown if the option
// is absent or out of range.
func (p *Packet) MessageType() MessageType {
	v, ok := p.options[OptMessageType]
	if !ok {
		return MsgUnknown
	}
	t, ok := v.(uint8)
	if !ok || MessageType(t) < MsgDiscover || MessageType(t) > MsgInform {
		return MsgUnknown
	}
	return MessageType(t)
}

// TransactionID returns the xid field, if set.
func (p *Packet) TransactionID() (uint32, bool) {
	v, ok := p.fields[FieldXID]
	if !ok {
		return 0, false
	}
	xid, ok := v.(uint32)
	return xid, ok
}

// HardwareAddr returns the client hardware address, trimmed to the hlen
// field when hlen is sane, or nil if chaddr is unset. The underlying
// chaddr buffer is always 16 bytes on the wire.
func (p *Packet) HardwareAddr() net.HardwareAddr {
	v, ok := p.fields[FieldClientHWAddr]
	if !ok {
		return nil
	}
	buf, ok := v.([]byte)
	if !ok {
		return nil
	}
	n := len(buf)
	if hlen, ok := p.fields[FieldHLen].(uint8); ok && int(hlen) > 0 && int(hlen) <= len(buf) {
		n = int(hlen)
	}
	return net.HardwareAddr(buf[:n])
}

// Unmarshal parses a received byte buffer into a Packet.
//
// Decoding is best-effort and never fails: a buffer too short to hold the
// fixed header yields an empty packet, unknown option tags are discarded,
// and malformed option payloads are skipped. All anomalies are logged.
// Callers must check IsValid before trusting the result.
func Unmarshal(bs []byte) *Packet {
	p := New()
	if len(bs) < optionsStart+1 {
		log.Errorw("buffer too short for a DHCP packet", "length", len(bs), "minimum", optionsStart+1)
		decodeAnomalies.WithLabelValues("short_buffer").Inc()
		return p
	}

	// Step 1 guarantees the buffer covers every field slice, the last
	// field ends exactly at the options start.
	for _, f := range PacketFields {
		v, err := unpack(f.Kind, bs[f.Offset:f.Offset+f.Size])
		if err != nil {
			log.Errorw("failed to unpack field", "field", f.Name, "error", err)
			continue
		}
		p.fields[f] = v
	}

	off := optionsStart
	for off < len(bs) && bs[off] != optEnd {
		tag := bs[off]
		off++
		if tag == optPad {
			continue
		}
		if off >= len(bs) {
			log.Warnw("option truncated before length byte", "tag", tag)
			decodeAnomalies.WithLabelValues("truncated_option").Inc()
			break
		}
		length := int(bs[off])
		off++
		if off+length > len(bs) {
			log.Warnw("option payload runs past end of buffer", "tag", tag, "length", length)
			decodeAnomalies.WithLabelValues("truncated_option").Inc()
			break
		}
		payload := bs[off : off+length]
		off += length

		opt := OptionByTag(tag)
		if opt == nil {
			log.Warnw("unsupported DHCP option, discarding", "tag", tag, "length", length)
			decodeAnomalies.WithLabelValues("unknown_option").Inc()
			continue
		}
		v, err := unpack(opt.Kind, payload)
		if err != nil {
			log.Warnw("malformed option payload, discarding", "option", opt.Name, "error", err)
			decodeAnomalies.WithLabelValues("bad_option").Inc()
			continue
		}
		if opt == OptParameterRequestList {
			log.Debugw("requested options", "tags", v)
		}
		// A repeated tag simply overwrites, last occurrence wins.
		p.options[opt] = v
	}

	packetsDecoded.WithLabelValues(p.MessageType().String()).Inc()
	return p
}

// Marshal serializes the packet into its wire representation.
//
// Fields are written in ascending offset order with zero-fill for the
// legacy BOOTP regions between them, options follow in catalog order, and
// the result is padded to MinPacketSize. An invalid packet is refused.
func (p *Packet) Marshal() ([]byte, error) {
	if !p.IsValid() {
		encodeRefusals.Inc()
		return nil, errors.New("packet is missing mandatory fields or the magic cookie")
	}

	var buf bytes.Buffer
	for _, f := range PacketFields {
		// Close the gap up to the field's declared offset. This is
		// where the 192 zero bytes of historic BOOTP padding between
		// chaddr and the magic cookie come from.
		for buf.Len() < f.Offset {
			buf.WriteByte(0)
		}
		bs, err := pack(f.Kind, p.fields[f])
		if err != nil {
			return nil, fmt.Errorf("packing field %s: %w", f.Name, err)
		}
		buf.Write(bs)
	}

	for _, opt := range PacketOptions {
		v, ok := p.options[opt]
		if !ok {
			continue
		}
		bs, err := pack(opt.Kind, v)
		if err != nil {
			return nil, fmt.Errorf("packing option %s: %w", opt.Name, err)
		}
		if len(bs) > 255 {
			return nil, fmt.Errorf("option %s payload is %d bytes, exceeds the 255 byte limit", opt.Name, len(bs))
		}
		buf.WriteByte(opt.Tag)
		buf.WriteByte(byte(len(bs)))
		buf.Write(bs)
	}

	buf.WriteByte(optEnd)
	for buf.Len() < MinPacketSize {
		buf.WriteByte(byte(optPad))
	}

	packetsEncoded.Inc()
	return buf.Bytes(), nil
}

// DebugString returns a human-readable dump of the packet.
func (p *Packet) DebugString() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s valid=%v\n", p.MessageType(), p.IsValid())
	b.WriteString("fields:\n")
	for _, f := range PacketFields {
		v, ok := p.fields[f]
		if !ok {
			fmt.Fprintf(&b, "  %s: <unset>\n", f.Name)
			continue
		}
		fmt.Fprintf(&b, "  %s: %s\n", f.Name, formatValue(f.Kind, v))
	}
	b.WriteString("options:\n")
	for _, opt := range PacketOptions {
		v, ok := p.options[opt]
		if !ok {
			continue
		}
		fmt.Fprintf(&b, "  %s (%d): %s\n", opt.Name, opt.Tag, formatValue(opt.Kind, v))
	}
	return b.String()
}

func formatValue(kind Kind, v interface{}) string {
	switch kind {
	case KindHardwareAddr:
		if hw, ok := v.([]byte); ok {
			return net.HardwareAddr(hw).String()
		}
	case KindIPList:
		if ips, ok := v.([]net.IP); ok {
			ss := make([]string, len(ips))
			for i, ip := range ips {
				ss[i] = ip.String()
			}
			return strings.Join(ss, ", ")
		}
	case KindBytes:
		if bs, ok := v.([]byte); ok {
			return fmt.Sprintf("%q", bs)
		}
	case KindUint32:
		if n, ok := v.(uint32); ok {
			return fmt.Sprintf("%d (0x%08x)", n, n)
		}
	}
	return fmt.Sprintf("%v", v)
}
