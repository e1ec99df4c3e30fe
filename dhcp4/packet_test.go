package dhcp4

import (
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testMAC = net.HardwareAddr{0x00, 0x11, 0x22, 0x33, 0x44, 0x55}

// optionTagOrder walks the options region of an encoded packet and returns
// the tags in wire order.
func optionTagOrder(t *testing.T, bs []byte) []uint8 {
	t.Helper()
	require.GreaterOrEqual(t, len(bs), optionsStart+1)

	var tags []uint8
	off := optionsStart
	for off < len(bs) && bs[off] != optEnd {
		tag := bs[off]
		off++
		if tag == optPad {
			continue
		}
		require.Less(t, off, len(bs), "option %d has no length byte", tag)
		length := int(bs[off])
		off += 1 + length
		tags = append(tags, tag)
	}
	return tags
}

func TestDiscoveryRoundTrip(t *testing.T) {
	p := NewDiscovery(testMAC)
	p.SetField(FieldXID, uint32(0xdeadbeef))

	bs, err := p.Marshal()
	require.NoError(t, err)

	assert.GreaterOrEqual(t, len(bs), MinPacketSize)
	// The transaction id sits at a fixed offset, big-endian.
	assert.Equal(t, []byte{0xde, 0xad, 0xbe, 0xef}, bs[4:8])
	// The legacy BOOTP sname/file regions are zero-filled.
	for i := 44; i < 236; i++ {
		require.Zerof(t, bs[i], "byte %d of the BOOTP gap is not zero", i)
	}

	got := Unmarshal(bs)
	require.True(t, got.IsValid())
	assert.Equal(t, MsgDiscover, got.MessageType())

	xid, ok := got.TransactionID()
	require.True(t, ok)
	assert.Equal(t, uint32(0xdeadbeef), xid)

	assert.Equal(t, testMAC, got.HardwareAddr())

	// Every mandatory field survives the trip.
	op, _ := got.Field(FieldOp)
	assert.Equal(t, OpRequest, op)
	htype, _ := got.Field(FieldHType)
	assert.Equal(t, HTypeEthernet, htype)
	ciaddr, _ := got.Field(FieldClientIP)
	assert.Equal(t, "0.0.0.0", ciaddr.(net.IP).String())
	cookie, _ := got.Field(FieldMagicCookie)
	assert.Equal(t, MagicCookie, cookie)
}

func TestOfferRoundTripWithOptions(t *testing.T) {
	p := NewOffer(0x12345678, testMAC, net.ParseIP("192.168.0.17"), net.ParseIP("192.168.0.1"))
	p.SetOption(OptSubnetMask, net.ParseIP("255.255.255.0"))
	p.SetOption(OptLeaseTime, uint32(3600))
	p.SetOption(OptDNSServers, []net.IP{net.ParseIP("8.8.8.8"), net.ParseIP("8.8.4.4")})

	bs, err := p.Marshal()
	require.NoError(t, err)

	got := Unmarshal(bs)
	require.True(t, got.IsValid())
	assert.Equal(t, MsgOffer, got.MessageType())

	yiaddr, _ := got.Field(FieldYourIP)
	assert.Equal(t, "192.168.0.17", yiaddr.(net.IP).String())
	siaddr, _ := got.Field(FieldServerIP)
	assert.Equal(t, "192.168.0.1", siaddr.(net.IP).String())

	mask, ok := got.Option(OptSubnetMask)
	require.True(t, ok)
	assert.Equal(t, "255.255.255.0", mask.(net.IP).String())

	lease, ok := got.Option(OptLeaseTime)
	require.True(t, ok)
	assert.Equal(t, uint32(3600), lease)

	dns, ok := got.Option(OptDNSServers)
	require.True(t, ok)
	require.Len(t, dns.([]net.IP), 2)
	assert.Equal(t, "8.8.8.8", dns.([]net.IP)[0].String())
	assert.Equal(t, "8.8.4.4", dns.([]net.IP)[1].String())

	// Decoding must not invent options that were never set.
	_, ok = got.Option(OptHostName)
	assert.False(t, ok)
}

func TestOptionCatalogOrdering(t *testing.T) {
	// Options go out in catalog order regardless of insertion order.
	// Routers (3) precede the subnet mask (1) in the catalog because
	// some clients require option 1 to follow option 3.
	p := NewRequest(1, testMAC)
	p.SetOption(OptSubnetMask, net.ParseIP("255.255.255.0"))
	p.SetOption(OptRouters, []net.IP{net.ParseIP("10.0.0.1")})

	bs, err := p.Marshal()
	require.NoError(t, err)

	tags := optionTagOrder(t, bs)
	require.Contains(t, tags, OptRouters.Tag)
	require.Contains(t, tags, OptSubnetMask.Tag)
	var routersIdx, maskIdx int
	for i, tag := range tags {
		switch tag {
		case OptRouters.Tag:
			routersIdx = i
		case OptSubnetMask.Tag:
			maskIdx = i
		}
	}
	assert.Less(t, routersIdx, maskIdx, "routers must be serialized before the subnet mask")
}

func TestUnknownOptionTolerated(t *testing.T) {
	p := NewDiscovery(testMAC)
	bs, err := p.Marshal()
	require.NoError(t, err)

	// Rebuild the options region with an undefined option 99 in front.
	raw := append([]byte{}, bs[:optionsStart]...)
	raw = append(raw, 99, 3, 0xca, 0xfe, 0x42)
	raw = append(raw, OptMessageType.Tag, 1, byte(MsgDiscover))
	raw = append(raw, optEnd)

	got := Unmarshal(raw)
	assert.True(t, got.IsValid())
	assert.Equal(t, MsgDiscover, got.MessageType())
	assert.Len(t, got.options, 1, "the unknown option must be discarded")
}

func TestMalformedOptionPayloadTolerated(t *testing.T) {
	p := NewDiscovery(testMAC)
	bs, err := p.Marshal()
	require.NoError(t, err)

	// A lease time of 3 bytes cannot be unpacked as uint32 and must be
	// dropped without aborting the rest of the region.
	raw := append([]byte{}, bs[:optionsStart]...)
	raw = append(raw, OptLeaseTime.Tag, 3, 1, 2, 3)
	raw = append(raw, OptMessageType.Tag, 1, byte(MsgDiscover))
	raw = append(raw, optEnd)

	got := Unmarshal(raw)
	assert.True(t, got.IsValid())
	assert.Equal(t, MsgDiscover, got.MessageType())
	_, ok := got.Option(OptLeaseTime)
	assert.False(t, ok)
}

func TestDuplicateOptionLastWins(t *testing.T) {
	p := NewDiscovery(testMAC)
	bs, err := p.Marshal()
	require.NoError(t, err)

	raw := append([]byte{}, bs[:optionsStart]...)
	raw = append(raw, OptLeaseTime.Tag, 4, 0, 0, 0, 1)
	raw = append(raw, OptLeaseTime.Tag, 4, 0, 0, 0, 2)
	raw = append(raw, optEnd)

	got := Unmarshal(raw)
	lease, ok := got.Option(OptLeaseTime)
	require.True(t, ok)
	assert.Equal(t, uint32(2), lease)
}

func TestPadBytesSkipped(t *testing.T) {
	p := NewDiscovery(testMAC)
	bs, err := p.Marshal()
	require.NoError(t, err)

	raw := append([]byte{}, bs[:optionsStart]...)
	raw = append(raw, optPad, optPad, optPad)
	raw = append(raw, OptMessageType.Tag, 1, byte(MsgOffer))
	raw = append(raw, optEnd)

	got := Unmarshal(raw)
	assert.Equal(t, MsgOffer, got.MessageType())
}

func TestTruncatedBuffer(t *testing.T) {
	got := Unmarshal(make([]byte, 100))
	assert.False(t, got.IsValid())
	assert.Empty(t, got.fields)
	assert.Empty(t, got.options)
	assert.Equal(t, MsgUnknown, got.MessageType())

	_, ok := got.TransactionID()
	assert.False(t, ok)
	assert.Nil(t, got.HardwareAddr())
}

func TestMarshalRefusesInvalidPacket(t *testing.T) {
	p := New()
	_, err := p.Marshal()
	assert.Error(t, err)

	// All fields set but a wrong cookie is still invalid.
	p = NewDiscovery(testMAC)
	p.SetField(FieldMagicCookie, uint32(0x12345678))
	_, err = p.Marshal()
	assert.Error(t, err)
}

func TestMarshalRejectsMistypedValue(t *testing.T) {
	p := NewDiscovery(testMAC)
	p.SetOption(OptLeaseTime, "3600")
	_, err := p.Marshal()
	assert.Error(t, err)
}

func TestValidityIsIdempotent(t *testing.T) {
	p := NewDiscovery(testMAC)
	require.True(t, p.IsValid())

	p.SetField(FieldXID, uint32(7))
	assert.True(t, p.IsValid())
	p.SetField(FieldXID, uint32(7))
	assert.True(t, p.IsValid())
	assert.True(t, p.IsValid())
}

func TestMessageTypeSentinel(t *testing.T) {
	p := NewDiscovery(testMAC)
	assert.Equal(t, MsgDiscover, p.MessageType())

	p = New()
	assert.Equal(t, MsgUnknown, p.MessageType())

	p.SetOption(OptMessageType, uint8(42))
	assert.Equal(t, MsgUnknown, p.MessageType())
}

func TestMinimumSizeIsAFloorNotACap(t *testing.T) {
	p := NewDiscovery(testMAC)
	// Blow well past 300 bytes with a big blob.
	p.SetOption(OptBootfileName, make([]byte, 200))

	bs, err := p.Marshal()
	require.NoError(t, err)
	assert.Greater(t, len(bs), MinPacketSize)

	got := Unmarshal(bs)
	name, ok := got.Option(OptBootfileName)
	require.True(t, ok)
	assert.Len(t, name.([]byte), 200)
}

func TestOversizedOptionRejected(t *testing.T) {
	p := NewDiscovery(testMAC)
	p.SetOption(OptBootfileName, make([]byte, 256))
	_, err := p.Marshal()
	assert.Error(t, err)
}

func TestDebugString(t *testing.T) {
	p := NewDiscovery(testMAC)
	p.SetField(FieldXID, uint32(0xdeadbeef))
	s := p.DebugString()
	assert.Contains(t, s, "DHCPDISCOVER")
	assert.Contains(t, s, "00:11:22:33:44:55")
	assert.Contains(t, s, "0xdeadbeef")
}
