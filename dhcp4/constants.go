package dhcp4

import "fmt"

// Wire constants from RFC 2131/2132.
const (
	// MinPacketSize is the historic minimum size of an encoded packet.
	// RFC 2131 never quite says packets must be this big, but every
	// implementation assumes it. Encoded packets are zero-padded up to
	// this floor; larger packets are never truncated.
	MinPacketSize = 300

	// MagicCookie separates DHCP packets from plain BOOTP framing. It
	// sits at offset 236, directly before the options region.
	MagicCookie uint32 = 0x63825363

	// OpRequest and OpReply are the two values of the op field.
	OpRequest uint8 = 1
	OpReply   uint8 = 2

	// HTypeEthernet and HLenEthernet describe 10mb ethernet hardware
	// addresses, the only kind this codec's factories produce.
	HTypeEthernet uint8 = 1
	HLenEthernet  uint8 = 6

	// optionsStart is the offset of the first option tag, right after
	// the magic cookie.
	optionsStart = 236 + 4

	// hardwareAddrSize is the declared width of the chaddr field.
	hardwareAddrSize = 16

	// optPad and optEnd are the two structural option tags. Neither
	// carries a length byte or payload, so they are not part of the
	// option catalog.
	optPad uint8 = 0
	optEnd uint8 = 255
)

// MessageType is the value of the dhcp_message_type option (RFC 2132 §9.6).
type MessageType int

const (
	MsgDiscover MessageType = 1
	MsgOffer    MessageType = 2
	MsgRequest  MessageType = 3
	MsgDecline  MessageType = 4
	MsgAck      MessageType = 5
	MsgNak      MessageType = 6
	MsgRelease  MessageType = 7
	MsgInform   MessageType = 8

	// MsgUnknown is reported when the message-type option is absent or
	// carries a value outside the RFC 2132 range. Callers always get an
	// explicit sentinel, never a missing value.
	MsgUnknown MessageType = -1
)

func (m MessageType) String() string {
	switch m {
	case MsgDiscover:
		return "DHCPDISCOVER"
	case MsgOffer:
		return "DHCPOFFER"
	case MsgRequest:
		return "DHCPREQUEST"
	case MsgDecline:
		return "DHCPDECLINE"
	case MsgAck:
		return "DHCPACK"
	case MsgNak:
		return "DHCPNAK"
	case MsgRelease:
		return "DHCPRELEASE"
	case MsgInform:
		return "DHCPINFORM"
	case MsgUnknown:
		return "UNKNOWN"
	default:
		return fmt.Sprintf("MessageType(%d)", int(m))
	}
}

// DefaultParameterRequestList is the set of option tags a client asks for
// when the caller does not specify its own: requested IP, lease time,
// server id, subnet mask, routers, dns servers and host name.
var DefaultParameterRequestList = []byte{
	OptRequestedIP.Tag,
	OptLeaseTime.Tag,
	OptServerId.Tag,
	OptSubnetMask.Tag,
	OptRouters.Tag,
	OptDNSServers.Tag,
	OptHostName.Tag,
}
