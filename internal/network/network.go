package network

import (
	"time"

	"github.com/vishvananda/netlink"
)

// Netlinker abstracts the vishvananda/netlink address dump used for IPv6
// lookups so tests can substitute a mock. A nil link dumps every interface.
type Netlinker interface {
	AddrList(link netlink.Link, family int) ([]netlink.Addr, error)
}

// DriverInspector reports the kernel driver bound to an interface.
type DriverInspector interface {
	DriverName(iface string) (string, error)
}

// Options tune the kernel messaging path.
type Options struct {
	// Acknowledge sets NLM_F_ACK on mutations and waits for the kernel's
	// reply. Off by default: mutations are submitted and not confirmed.
	Acknowledge bool

	// RecvBuffer is the size of the single receive buffer. Zero means
	// rtnl.RecvBufferSize.
	RecvBuffer int

	// FollowMultipart keeps reading dump replies until the done marker
	// instead of stopping after one buffer.
	FollowMultipart bool

	// Timeout bounds each messaging round-trip. Zero means no deadline.
	Timeout time.Duration

	// SocketOpened, when set, is called with "route" or "control" every
	// time a kernel socket is created.
	SocketOpened func(kind string)
}

// Interface is one (index, name) pair from an enumeration.
type Interface struct {
	Index int32
	Name  string
}

// MaxInterfaces is the default enumeration cap.
const MaxInterfaces = 128
