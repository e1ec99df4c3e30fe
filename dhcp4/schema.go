// Package dhcp4 encodes and decodes DHCPv4 packets (RFC 2131/2132).
//
// The wire format is described by two static tables: PacketFields, the 13
// fixed-offset header fields every packet must carry, and PacketOptions,
// the catalog of tagged variable-length options understood by this codec.
// Both tables are read-only after initialization and safe for concurrent
// use.
package dhcp4

import (
	"encoding/binary"
	"fmt"
	"net"
)

// Kind is the wire encoding of a field or option value.
type Kind int

const (
	// KindUint8 is a big-endian unsigned integer of 1 byte.
	KindUint8 Kind = iota
	// KindUint16 is a big-endian unsigned integer of 2 bytes.
	KindUint16
	// KindUint32 is a big-endian unsigned integer of 4 bytes.
	KindUint32
	// KindHardwareAddr is the fixed 16-byte client hardware address
	// buffer. Values must be pre-padded to the full 16 bytes.
	KindHardwareAddr
	// KindIP is a single IPv4 address as 4 network-order octets.
	KindIP
	// KindIPList is a concatenation of IPv4 addresses, 4 octets each,
	// order-preserving.
	KindIPList
	// KindBytes is an opaque byte blob, passed through unmodified.
	KindBytes
	// KindByteList is a list of single-byte values, e.g. the parameter
	// request list.
	KindByteList
)

// Field is a mandatory fixed-position header element.
type Field struct {
	Name   string
	Offset int
	Size   int
	Kind   Kind
}

// Option is a tagged variable-length header element that may or may not be
// present in a packet.
type Option struct {
	Name string
	Tag  uint8
	Kind Kind
}

// The complete fixed DHCP/BOOTP header layout up to the magic cookie. The
// sname/file regions (offsets 44-235) are legacy BOOTP space and are
// zero-filled on encode.
var (
	FieldOp           = &Field{Name: "op", Offset: 0, Size: 1, Kind: KindUint8}
	FieldHType        = &Field{Name: "htype", Offset: 1, Size: 1, Kind: KindUint8}
	FieldHLen         = &Field{Name: "hlen", Offset: 2, Size: 1, Kind: KindUint8}
	FieldHops         = &Field{Name: "hops", Offset: 3, Size: 1, Kind: KindUint8}
	FieldXID          = &Field{Name: "xid", Offset: 4, Size: 4, Kind: KindUint32}
	FieldSecs         = &Field{Name: "secs", Offset: 8, Size: 2, Kind: KindUint16}
	FieldFlags        = &Field{Name: "flags", Offset: 10, Size: 2, Kind: KindUint16}
	FieldClientIP     = &Field{Name: "ciaddr", Offset: 12, Size: 4, Kind: KindIP}
	FieldYourIP       = &Field{Name: "yiaddr", Offset: 16, Size: 4, Kind: KindIP}
	FieldServerIP     = &Field{Name: "siaddr", Offset: 20, Size: 4, Kind: KindIP}
	FieldGatewayIP    = &Field{Name: "giaddr", Offset: 24, Size: 4, Kind: KindIP}
	FieldClientHWAddr = &Field{Name: "chaddr", Offset: 28, Size: 16, Kind: KindHardwareAddr}
	FieldMagicCookie  = &Field{Name: "magic_cookie", Offset: 236, Size: 4, Kind: KindUint32}
)

// PacketFields lists all mandatory fields in ascending offset order.
var PacketFields = []*Field{
	FieldOp,
	FieldHType,
	FieldHLen,
	FieldHops,
	FieldXID,
	FieldSecs,
	FieldFlags,
	FieldClientIP,
	FieldYourIP,
	FieldServerIP,
	FieldGatewayIP,
	FieldClientHWAddr,
	FieldMagicCookie,
}

var (
	OptSubnetMask           = &Option{Name: "subnet_mask", Tag: 1, Kind: KindIP}
	OptTimeOffset           = &Option{Name: "time_offset", Tag: 2, Kind: KindUint32}
	OptRouters              = &Option{Name: "routers", Tag: 3, Kind: KindIPList}
	OptTimeServers          = &Option{Name: "time_servers", Tag: 4, Kind: KindIPList}
	OptNameServers          = &Option{Name: "name_servers", Tag: 5, Kind: KindIPList}
	OptDNSServers           = &Option{Name: "dns_servers", Tag: 6, Kind: KindIPList}
	OptLogServers           = &Option{Name: "log_servers", Tag: 7, Kind: KindIPList}
	OptCookieServers        = &Option{Name: "cookie_servers", Tag: 8, Kind: KindIPList}
	OptLPRServers           = &Option{Name: "lpr_servers", Tag: 9, Kind: KindIPList}
	OptImpressServers       = &Option{Name: "impress_servers", Tag: 10, Kind: KindIPList}
	OptResourceLocServers   = &Option{Name: "resource_loc_servers", Tag: 11, Kind: KindIPList}
	OptHostName             = &Option{Name: "host_name", Tag: 12, Kind: KindBytes}
	OptBootFileSize         = &Option{Name: "boot_file_size", Tag: 13, Kind: KindUint16}
	OptMeritDumpFile        = &Option{Name: "merit_dump_file", Tag: 14, Kind: KindBytes}
	OptDomainName           = &Option{Name: "domain_name", Tag: 15, Kind: KindBytes}
	OptSwapServer           = &Option{Name: "swap_server", Tag: 16, Kind: KindIP}
	OptRootPath             = &Option{Name: "root_path", Tag: 17, Kind: KindBytes}
	OptExtensions           = &Option{Name: "extensions", Tag: 18, Kind: KindBytes}
	OptRequestedIP          = &Option{Name: "requested_ip", Tag: 50, Kind: KindIP}
	OptLeaseTime            = &Option{Name: "ip_lease_time", Tag: 51, Kind: KindUint32}
	OptOverload             = &Option{Name: "option_overload", Tag: 52, Kind: KindUint8}
	OptMessageType          = &Option{Name: "dhcp_message_type", Tag: 53, Kind: KindUint8}
	OptServerId             = &Option{Name: "server_id", Tag: 54, Kind: KindIP}
	OptParameterRequestList = &Option{Name: "parameter_request_list", Tag: 55, Kind: KindByteList}
	OptMessage              = &Option{Name: "message", Tag: 56, Kind: KindBytes}
	OptMaxMessageSize       = &Option{Name: "max_dhcp_message_size", Tag: 57, Kind: KindUint16}
	OptRenewalTime          = &Option{Name: "renewal_t1_time_value", Tag: 58, Kind: KindUint32}
	OptRebindingTime        = &Option{Name: "rebinding_t2_time_value", Tag: 59, Kind: KindUint32}
	OptVendorId             = &Option{Name: "vendor_id", Tag: 60, Kind: KindBytes}
	OptClientId             = &Option{Name: "client_id", Tag: 61, Kind: KindBytes}
	OptTFTPServerName       = &Option{Name: "tftp_server_name", Tag: 66, Kind: KindBytes}
	OptBootfileName         = &Option{Name: "bootfile_name", Tag: 67, Kind: KindBytes}
)

// PacketOptions is the option catalog. Options are always serialized in
// this order, regardless of the order they were set in, because some
// clients depend on specific option adjacency (e.g. option 1 following
// option 3).
var PacketOptions = []*Option{
	OptTimeOffset,
	OptRouters,
	OptSubnetMask,
	OptTimeServers,
	OptNameServers,
	OptDNSServers,
	OptLogServers,
	OptCookieServers,
	OptLPRServers,
	OptImpressServers,
	OptResourceLocServers,
	OptHostName,
	OptBootFileSize,
	OptMeritDumpFile,
	OptSwapServer,
	OptDomainName,
	OptRootPath,
	OptExtensions,
	OptRequestedIP,
	OptLeaseTime,
	OptOverload,
	OptMessageType,
	OptServerId,
	OptParameterRequestList,
	OptMessage,
	OptMaxMessageSize,
	OptRenewalTime,
	OptRebindingTime,
	OptVendorId,
	OptClientId,
	OptTFTPServerName,
	OptBootfileName,
}

// OptionByTag returns the catalog entry for tag, or nil if the tag is not
// part of the catalog. The catalog is small and fixed, a linear scan is
// fine.
func OptionByTag(tag uint8) *Option {
	for _, opt := range PacketOptions {
		if opt.Tag == tag {
			return opt
		}
	}
	return nil
}

// pack serializes a typed value according to kind. The value must be the
// Go type matching the kind (uint8/uint16/uint32, net.IP, []net.IP or
// []byte); anything else is the caller's bug and reported as an error.
func pack(kind Kind, value interface{}) ([]byte, error) {
	switch kind {
	case KindUint8:
		n, ok := value.(uint8)
		if !ok {
			return nil, fmt.Errorf("expected uint8, got %T", value)
		}
		return []byte{n}, nil
	case KindUint16:
		n, ok := value.(uint16)
		if !ok {
			return nil, fmt.Errorf("expected uint16, got %T", value)
		}
		bs := make([]byte, 2)
		binary.BigEndian.PutUint16(bs, n)
		return bs, nil
	case KindUint32:
		n, ok := value.(uint32)
		if !ok {
			return nil, fmt.Errorf("expected uint32, got %T", value)
		}
		bs := make([]byte, 4)
		binary.BigEndian.PutUint32(bs, n)
		return bs, nil
	case KindHardwareAddr:
		hw, ok := value.([]byte)
		if !ok {
			return nil, fmt.Errorf("expected []byte, got %T", value)
		}
		if len(hw) != hardwareAddrSize {
			return nil, fmt.Errorf("hardware address buffer is %d bytes, must be padded to %d", len(hw), hardwareAddrSize)
		}
		return hw, nil
	case KindIP:
		ip, ok := value.(net.IP)
		if !ok {
			return nil, fmt.Errorf("expected net.IP, got %T", value)
		}
		ip4 := ip.To4()
		if ip4 == nil {
			return nil, fmt.Errorf("%q is not an IPv4 address", ip)
		}
		return ip4, nil
	case KindIPList:
		ips, ok := value.([]net.IP)
		if !ok {
			return nil, fmt.Errorf("expected []net.IP, got %T", value)
		}
		bs := make([]byte, 0, 4*len(ips))
		for _, ip := range ips {
			ip4 := ip.To4()
			if ip4 == nil {
				return nil, fmt.Errorf("%q is not an IPv4 address", ip)
			}
			bs = append(bs, ip4...)
		}
		return bs, nil
	case KindBytes, KindByteList:
		bs, ok := value.([]byte)
		if !ok {
			return nil, fmt.Errorf("expected []byte, got %T", value)
		}
		return bs, nil
	default:
		return nil, fmt.Errorf("unknown encoding kind %d", kind)
	}
}

// unpack deserializes bs according to kind, returning the typed value.
func unpack(kind Kind, bs []byte) (interface{}, error) {
	switch kind {
	case KindUint8:
		if len(bs) != 1 {
			return nil, fmt.Errorf("need 1 byte, got %d", len(bs))
		}
		return bs[0], nil
	case KindUint16:
		if len(bs) != 2 {
			return nil, fmt.Errorf("need 2 bytes, got %d", len(bs))
		}
		return binary.BigEndian.Uint16(bs), nil
	case KindUint32:
		if len(bs) != 4 {
			return nil, fmt.Errorf("need 4 bytes, got %d", len(bs))
		}
		return binary.BigEndian.Uint32(bs), nil
	case KindHardwareAddr:
		if len(bs) != hardwareAddrSize {
			return nil, fmt.Errorf("need %d bytes, got %d", hardwareAddrSize, len(bs))
		}
		hw := make([]byte, hardwareAddrSize)
		copy(hw, bs)
		return hw, nil
	case KindIP:
		if len(bs) != 4 {
			return nil, fmt.Errorf("need 4 bytes, got %d", len(bs))
		}
		ip := make(net.IP, 4)
		copy(ip, bs)
		return ip, nil
	case KindIPList:
		if len(bs)%4 != 0 {
			return nil, fmt.Errorf("length %d is not a multiple of 4", len(bs))
		}
		ips := make([]net.IP, 0, len(bs)/4)
		for i := 0; i < len(bs); i += 4 {
			ip := make(net.IP, 4)
			copy(ip, bs[i:i+4])
			ips = append(ips, ip)
		}
		return ips, nil
	case KindBytes, KindByteList:
		out := make([]byte, len(bs))
		copy(out, bs)
		return out, nil
	default:
		return nil, fmt.Errorf("unknown encoding kind %d", kind)
	}
}
