package dhcp4

import (
	"crypto/rand"
	"encoding/binary"
	"net"
)

// The factory constructors build fully populated, valid packets for the
// four common exchanges. The caller's hardware address (normally 6 bytes
// for ethernet) is zero-padded to the chaddr field's full declared width
// of 16 bytes.

// NewDiscovery builds a client DHCPDISCOVER with a random transaction id.
func NewDiscovery(hwAddr net.HardwareAddr) *Packet {
	p := newBase(OpRequest, randomXID(), hwAddr)
	p.SetOption(OptMessageType, uint8(MsgDiscover))
	return p
}

// NewOffer builds a server DHCPOFFER offering offeredIP to the client
// identified by hwAddr in the exchange xid.
func NewOffer(xid uint32, hwAddr net.HardwareAddr, offeredIP, serverIP net.IP) *Packet {
	p := newBase(OpReply, xid, hwAddr)
	p.SetField(FieldYourIP, offeredIP)
	p.SetField(FieldServerIP, serverIP)
	p.SetOption(OptMessageType, uint8(MsgOffer))
	return p
}

// NewRequest builds a client DHCPREQUEST, mirroring NewDiscovery but with
// the caller-supplied transaction id.
func NewRequest(xid uint32, hwAddr net.HardwareAddr) *Packet {
	p := newBase(OpRequest, xid, hwAddr)
	p.SetOption(OptMessageType, uint8(MsgRequest))
	return p
}

// NewAcknowledgement builds a server DHCPACK granting grantedIP.
func NewAcknowledgement(xid uint32, hwAddr net.HardwareAddr, grantedIP, serverIP net.IP) *Packet {
	p := newBase(OpReply, xid, hwAddr)
	p.SetField(FieldYourIP, grantedIP)
	p.SetField(FieldServerIP, serverIP)
	p.SetOption(OptMessageType, uint8(MsgAck))
	return p
}

// newBase fills in every mandatory field with the defaults shared by all
// four exchanges: ethernet hardware addressing, no relaying, zeroed
// addresses and the magic cookie.
func newBase(op uint8, xid uint32, hwAddr net.HardwareAddr) *Packet {
	p := New()
	p.SetField(FieldOp, op)
	p.SetField(FieldHType, HTypeEthernet)
	p.SetField(FieldHLen, HLenEthernet)
	p.SetField(FieldHops, uint8(0))
	p.SetField(FieldXID, xid)
	p.SetField(FieldSecs, uint16(0))
	p.SetField(FieldFlags, uint16(0))
	p.SetField(FieldClientIP, net.IPv4zero)
	p.SetField(FieldYourIP, net.IPv4zero)
	p.SetField(FieldServerIP, net.IPv4zero)
	p.SetField(FieldGatewayIP, net.IPv4zero)
	p.SetField(FieldClientHWAddr, padHardwareAddr(hwAddr))
	p.SetField(FieldMagicCookie, MagicCookie)
	return p
}

func padHardwareAddr(hwAddr net.HardwareAddr) []byte {
	buf := make([]byte, hardwareAddrSize)
	copy(buf, hwAddr)
	return buf
}

func randomXID() uint32 {
	var b [4]byte
	if _, err := rand.Read(b[:]); err != nil {
		// crypto/rand does not fail on any supported platform
		panic(err)
	}
	return binary.BigEndian.Uint32(b[:])
}
