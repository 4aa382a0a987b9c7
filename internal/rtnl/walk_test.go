package rtnl

import (
	"net"
	"testing"

	"github.com/mdlayher/netlink"
	"github.com/mdlayher/netlink/nlenc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"

	"grimm.is/spring/internal/errors"
)

func linkMessage(t *testing.T, index int32, name string) []byte {
	t.Helper()
	ae := netlink.NewAttributeEncoder()
	ae.Uint32(unix.IFLA_MTU, 1500)
	ae.String(unix.IFLA_IFNAME, name)
	attrs, err := ae.Encode()
	require.NoError(t, err)

	m := NewMessage(unix.RTM_NEWLINK, netlink.Multi, IfInfomsg{Index: index, Flags: unix.IFF_UP}.MarshalBinary(), attrs)
	b, err := m.MarshalBinary()
	require.NoError(t, err)
	return b
}

func doneMessage(t *testing.T) []byte {
	t.Helper()
	b, err := NewMessage(netlink.Done, netlink.Multi, make([]byte, 4), nil).MarshalBinary()
	require.NoError(t, err)
	return b
}

func errorMessage(t *testing.T, code int32) []byte {
	t.Helper()
	body := make([]byte, 4+HeaderLen)
	nlenc.PutInt32(body[0:4], code)
	b, err := NewMessage(netlink.Error, 0, body, nil).MarshalBinary()
	require.NoError(t, err)
	return b
}

func concat(parts ...[]byte) []byte {
	var b []byte
	for _, p := range parts {
		b = append(b, p...)
	}
	return b
}

func TestWalkLinksUntilDone(t *testing.T) {
	buf := concat(linkMessage(t, 1, "lo"), linkMessage(t, 2, "eth0"), doneMessage(t))

	var links []Link
	done, err := Walk(buf, func(m netlink.Message) bool {
		l, ok, err := DecodeLink(m)
		require.NoError(t, err)
		if ok {
			links = append(links, l)
		}
		return true
	})
	require.NoError(t, err)
	assert.True(t, done)
	require.Len(t, links, 2)
	assert.Equal(t, Link{Index: 1, Name: "lo", Flags: unix.IFF_UP, MTU: 1500}, links[0])
	assert.Equal(t, "eth0", links[1].Name)
}

func TestWalkStopsWhenCallbackDeclines(t *testing.T) {
	buf := concat(linkMessage(t, 1, "lo"), linkMessage(t, 2, "eth0"), doneMessage(t))

	calls := 0
	done, err := Walk(buf, func(netlink.Message) bool {
		calls++
		return false
	})
	require.NoError(t, err)
	assert.False(t, done)
	assert.Equal(t, 1, calls)
}

func TestWalkWithoutDone(t *testing.T) {
	done, err := Walk(linkMessage(t, 1, "lo"), func(netlink.Message) bool { return true })
	require.NoError(t, err)
	assert.False(t, done)
}

func TestWalkKernelError(t *testing.T) {
	buf := concat(linkMessage(t, 1, "lo"), errorMessage(t, -int32(unix.EPERM)))

	done, err := Walk(buf, func(netlink.Message) bool { return true })
	assert.True(t, done)
	require.Error(t, err)
	assert.True(t, errors.IsKind(err, errors.KindParse))
	assert.ErrorIs(t, err, unix.EPERM)
}

func TestWalkAck(t *testing.T) {
	done, err := Walk(errorMessage(t, 0), func(netlink.Message) bool {
		t.Fatal("ack must not reach the callback")
		return true
	})
	assert.True(t, done)
	assert.NoError(t, err)
}

func TestWalkTruncated(t *testing.T) {
	buf := linkMessage(t, 1, "lo")

	_, err := Walk(buf[:len(buf)-4], func(netlink.Message) bool { return true })
	assert.True(t, errors.IsKind(err, errors.KindParse))

	bad := make([]byte, HeaderLen)
	nlenc.PutUint32(bad[0:4], 8)
	_, err = Walk(bad, func(netlink.Message) bool { return true })
	assert.True(t, errors.IsKind(err, errors.KindParse))
}

func TestParseAttributesDropsHighTypes(t *testing.T) {
	ae := netlink.NewAttributeEncoder()
	ae.String(unix.IFLA_IFNAME, "eth0")
	ae.Uint32(200, 1)
	attrs, err := ae.Encode()
	require.NoError(t, err)

	tb, err := ParseAttributes(attrs, linkAttrMax)
	require.NoError(t, err)
	assert.Len(t, tb, 1)
	_, ok := tb[200]
	assert.False(t, ok)

	_, err = ParseAttributes([]byte{0xff, 0x00, 0x01}, linkAttrMax)
	assert.True(t, errors.IsKind(err, errors.KindParse))
}

func TestDecodeLinkTruncatesLongNames(t *testing.T) {
	b := linkMessage(t, 9, "averyveryverylongname")
	m := netlink.Message{Header: decodeHeader(b), Data: b[HeaderLen:]}

	l, ok, err := DecodeLink(m)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "averyveryverylo", l.Name)
	assert.Len(t, l.Name, IfNameSize-1)
}

func TestDecodeLinkIgnoresOtherTypes(t *testing.T) {
	_, ok, err := DecodeLink(netlink.Message{Header: netlink.Header{Type: unix.RTM_NEWADDR}})
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestIfReq(t *testing.T) {
	r := NewIfReq("a-very-long-interface-name")
	assert.Equal(t, "a-very-long-int", r.Name())

	r = NewIfReqIndex(42)
	assert.Equal(t, int32(42), r.Index())
	assert.Empty(t, r.Name())

	r.SetName("eth1")
	r.SetInet4(net.IPv4(10, 1, 2, 3))
	assert.Equal(t, "eth1", r.Name())
	assert.Equal(t, uint16(unix.AF_INET), r.Family())
	assert.Equal(t, "10.1.2.3", r.Inet4().String())

	mac, _ := net.ParseMAC("02:00:00:aa:bb:cc")
	r.SetHardwareAddr(mac)
	assert.Equal(t, mac, r.HardwareAddr())

	r.SetInt32(1500)
	assert.Equal(t, uint32(1500), r.MTU())
}

func TestRouteEntry(t *testing.T) {
	e := NewRouteEntry(net.IPv4(10, 0, 0, 0), net.IPv4(255, 0, 0, 0), net.IPv4(192, 168, 1, 1), "eth0")
	assert.True(t, e.HasGateway())
	assert.Equal(t, uint16(unix.RTF_UP|unix.RTF_GATEWAY), e.Flags)
	assert.Equal(t, "10.0.0.0", e.Dst.IP().String())
	assert.Equal(t, "255.0.0.0", e.Genmask.IP().String())
	assert.Equal(t, "192.168.1.1", e.Gateway.IP().String())
	assert.Equal(t, "eth0", e.Device())

	e = NewRouteEntry(net.IPv4(10, 0, 0, 0), net.IPv4(255, 0, 0, 0), nil, "eth0")
	assert.False(t, e.HasGateway())
	assert.Zero(t, e.Flags)
}
