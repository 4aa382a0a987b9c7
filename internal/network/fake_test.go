package network

import (
	"context"
	"net"
	"sync"
	"testing"

	"github.com/mdlayher/netlink"
	"github.com/mdlayher/netlink/nlenc"
	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"

	"grimm.is/spring/internal/errors"
	"grimm.is/spring/internal/rtnl"
)

// fakeLink is one interface in the fake kernel's table.
type fakeLink struct {
	index int32
	name  string
	ipv4  net.IP
	mask  net.IP
	mac   net.HardwareAddr
	mtu   uint32
	flags uint16
}

// fakeKernel stands in for both socket families. It answers legacy ioctls
// from its link table, applies RTM_NEWLINK renames and MTU changes it is
// sent, and serves queued replies to Recv.
type fakeKernel struct {
	mu sync.Mutex

	links   []*fakeLink
	replies [][]byte

	routeDials   int
	controlDials int
	closed       int
	sent         [][]byte
	routes       []routeCall
	routeErr     error
	sendErr      error
}

type routeCall struct {
	req   uint
	entry rtnl.RouteEntry
}

func newFakeKernel(links ...*fakeLink) *fakeKernel {
	return &fakeKernel{links: links}
}

func (k *fakeKernel) manager(opts Options) *Manager {
	return NewManagerWithDeps(new(MockNetlinker), k, new(MockDriverInspector), opts)
}

func (k *fakeKernel) dials() int {
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.routeDials + k.controlDials
}

func (k *fakeKernel) byName(name string) *fakeLink {
	for _, l := range k.links {
		if l.name == name {
			return l
		}
	}
	return nil
}

func (k *fakeKernel) byIndex(index int32) *fakeLink {
	for _, l := range k.links {
		if l.index == index {
			return l
		}
	}
	return nil
}

func (k *fakeKernel) DialRoute() (rtnl.Conn, error) {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.routeDials++
	return &fakeRouteConn{k: k}, nil
}

func (k *fakeKernel) DialControl(family int) (rtnl.ControlConn, error) {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.controlDials++
	return &fakeControlConn{k: k}, nil
}

type fakeRouteConn struct {
	k *fakeKernel
}

func (c *fakeRouteConn) Send(ctx context.Context, b []byte) error {
	c.k.mu.Lock()
	defer c.k.mu.Unlock()
	if c.k.sendErr != nil {
		return c.k.sendErr
	}
	c.k.sent = append(c.k.sent, append([]byte(nil), b...))
	c.k.apply(b)
	return nil
}

func (c *fakeRouteConn) Recv(ctx context.Context, b []byte) (int, error) {
	c.k.mu.Lock()
	defer c.k.mu.Unlock()
	if len(c.k.replies) == 0 {
		return 0, errors.New(errors.KindRecv, "no reply queued")
	}
	next := c.k.replies[0]
	c.k.replies = c.k.replies[1:]
	return copy(b, next), nil
}

func (c *fakeRouteConn) Close() error {
	c.k.mu.Lock()
	defer c.k.mu.Unlock()
	c.k.closed++
	return nil
}

// apply mimics the kernel acting on an RTM_NEWLINK request.
func (k *fakeKernel) apply(b []byte) {
	if nlenc.Uint16(b[4:6]) != unix.RTM_NEWLINK {
		return
	}
	body := b[rtnl.HeaderLen:]
	info, err := rtnl.UnmarshalIfInfomsg(body)
	if err != nil {
		return
	}
	l := k.byIndex(info.Index)
	if l == nil {
		return
	}
	tb, err := rtnl.ParseAttributes(body[rtnl.IfInfomsgLen:], 64)
	if err != nil {
		return
	}
	if name, ok := tb.String(unix.IFLA_IFNAME); ok {
		l.name = name
	}
	if a, ok := tb[unix.IFLA_MTU]; ok {
		l.mtu = nlenc.Uint32(a.Data)
	}
}

type fakeControlConn struct {
	k *fakeKernel
}

func (c *fakeControlConn) IfreqIoctl(req uint, r *rtnl.IfReq) error {
	c.k.mu.Lock()
	defer c.k.mu.Unlock()

	if req == unix.SIOCGIFNAME {
		l := c.k.byIndex(r.Index())
		if l == nil {
			return unix.ENODEV
		}
		r.SetName(l.name)
		return nil
	}

	l := c.k.byName(r.Name())
	if l == nil {
		return unix.ENODEV
	}
	switch req {
	case unix.SIOCGIFINDEX:
		r.SetInt32(l.index)
	case unix.SIOCGIFADDR:
		if l.ipv4 == nil {
			return unix.EADDRNOTAVAIL
		}
		r.SetInet4(l.ipv4)
	case unix.SIOCGIFNETMASK:
		r.SetInet4(l.mask)
	case unix.SIOCGIFMTU:
		r.SetInt32(int32(l.mtu))
	case unix.SIOCGIFHWADDR:
		r.SetHardwareAddr(l.mac)
	case unix.SIOCGIFFLAGS:
		r.SetFlags(l.flags)
	default:
		return unix.EINVAL
	}
	return nil
}

func (c *fakeControlConn) RouteIoctl(req uint, e *rtnl.RouteEntry) error {
	c.k.mu.Lock()
	defer c.k.mu.Unlock()
	if c.k.routeErr != nil {
		return c.k.routeErr
	}
	if c.k.byName(e.Device()) == nil {
		return unix.ENODEV
	}
	c.k.routes = append(c.k.routes, routeCall{req: req, entry: *e})
	return nil
}

func (c *fakeControlConn) Close() error {
	c.k.mu.Lock()
	defer c.k.mu.Unlock()
	c.k.closed++
	return nil
}

// dumpReply builds one reply buffer describing links, optionally terminated
// by a done marker.
func dumpReply(t *testing.T, done bool, links ...*fakeLink) []byte {
	t.Helper()
	var buf []byte
	for _, l := range links {
		ae := netlink.NewAttributeEncoder()
		ae.String(unix.IFLA_IFNAME, l.name)
		attrs, err := ae.Encode()
		require.NoError(t, err)

		b, err := rtnl.NewMessage(unix.RTM_NEWLINK, netlink.Multi,
			rtnl.IfInfomsg{Index: l.index}.MarshalBinary(), attrs).MarshalBinary()
		require.NoError(t, err)
		buf = append(buf, b...)
	}
	if done {
		b, err := rtnl.NewMessage(netlink.Done, netlink.Multi, make([]byte, 4), nil).MarshalBinary()
		require.NoError(t, err)
		buf = append(buf, b...)
	}
	return buf
}

// errorReply builds an NLMSG_ERROR carrying -errno (0 for an ack).
func errorReply(t *testing.T, errno unix.Errno) []byte {
	t.Helper()
	body := make([]byte, 4+rtnl.HeaderLen)
	nlenc.PutInt32(body[0:4], -int32(errno))
	b, err := rtnl.NewMessage(netlink.Error, 0, body, nil).MarshalBinary()
	require.NoError(t, err)
	return b
}

func testLinks() []*fakeLink {
	return []*fakeLink{
		{index: 1, name: "lo", ipv4: net.IPv4(127, 0, 0, 1), mask: net.IPv4(255, 0, 0, 0), mtu: 65536, flags: unix.IFF_UP | unix.IFF_LOOPBACK},
		{index: 2, name: "eth0", ipv4: net.IPv4(192, 168, 1, 1), mask: net.IPv4(255, 255, 255, 0),
			mac: net.HardwareAddr{0x02, 0xAB, 0xCD, 0x00, 0x00, 0x01}, mtu: 1500, flags: unix.IFF_UP | unix.IFF_BROADCAST},
		{index: 3, name: "wlan0", mtu: 1500},
	}
}
