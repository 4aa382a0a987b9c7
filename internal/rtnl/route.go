package rtnl

import (
	"net"
	"unsafe"

	"github.com/mdlayher/netlink/nlenc"
	"golang.org/x/sys/unix"
)

// sockaddr is a struct sockaddr holding an AF_INET address.
type sockaddr [16]byte

func inet4Sockaddr(ip net.IP) sockaddr {
	var sa sockaddr
	nlenc.PutUint16(sa[0:2], unix.AF_INET)
	copy(sa[4:8], ip.To4())
	return sa
}

// IP returns sin_addr.
func (sa sockaddr) IP() net.IP {
	ip := make(net.IP, net.IPv4len)
	copy(ip, sa[4:8])
	return ip
}

// RouteEntry mirrors struct rtentry field for field so it can be handed to
// SIOCADDRT/SIOCDELRT directly.
type RouteEntry struct {
	pad1    uintptr
	Dst     sockaddr
	Gateway sockaddr
	Genmask sockaddr
	Flags   uint16
	pad2    int16
	pad3    uintptr
	pad4    uintptr
	Metric  int16
	dev     *byte
	MTU     uintptr
	Window  uintptr
	IRTT    uint16
}

// NewRouteEntry builds the record for an IPv4 route. A nil gateway leaves
// rt_gateway empty and RTF_GATEWAY clear.
func NewRouteEntry(dst, mask, gateway net.IP, dev string) *RouteEntry {
	e := &RouteEntry{
		Dst:     inet4Sockaddr(dst),
		Genmask: inet4Sockaddr(mask),
	}
	if gateway != nil {
		e.Gateway = inet4Sockaddr(gateway)
		e.Flags = unix.RTF_UP | unix.RTF_GATEWAY
	}

	name := make([]byte, IfNameSize)
	copy(name[:IfNameSize-1], dev)
	e.dev = &name[0]
	return e
}

// HasGateway reports whether RTF_GATEWAY is set.
func (e *RouteEntry) HasGateway() bool {
	return e.Flags&unix.RTF_GATEWAY != 0
}

// Device returns rt_dev.
func (e *RouteEntry) Device() string {
	if e.dev == nil {
		return ""
	}
	return cString(unsafe.Slice(e.dev, IfNameSize))
}
