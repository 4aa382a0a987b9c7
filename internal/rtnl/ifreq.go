package rtnl

import (
	"net"

	"github.com/mdlayher/netlink/nlenc"
	"golang.org/x/sys/unix"
)

// IfNameSize is the kernel limit for interface names, terminator included.
const IfNameSize = unix.IFNAMSIZ

// ifreqSize covers struct ifreq on every supported architecture.
const ifreqSize = 40

// Offsets into the ifr_ifru union.
const (
	ifruOffset    = IfNameSize
	sockaddrData  = ifruOffset + 2 // sa_data / sin_port
	sockaddrInet4 = ifruOffset + 4 // sin_addr
)

// IfReq is a zero-initialised struct ifreq.
type IfReq [ifreqSize]byte

// NewIfReq returns a record naming the interface, truncated to IfNameSize-1.
func NewIfReq(name string) *IfReq {
	var r IfReq
	copy(r[:IfNameSize-1], name)
	return &r
}

// NewIfReqIndex returns a record carrying only an interface index (SIOCGIFNAME).
func NewIfReqIndex(index int32) *IfReq {
	var r IfReq
	nlenc.PutInt32(r[ifruOffset:ifruOffset+4], index)
	return &r
}

// Name returns ifr_name.
func (r *IfReq) Name() string {
	return cString(r[:IfNameSize])
}

// Index returns ifr_ifindex.
func (r *IfReq) Index() int32 {
	return nlenc.Int32(r[ifruOffset : ifruOffset+4])
}

// MTU returns ifr_mtu.
func (r *IfReq) MTU() uint32 {
	return uint32(nlenc.Int32(r[ifruOffset : ifruOffset+4]))
}

// Flags returns ifr_flags.
func (r *IfReq) Flags() uint16 {
	return nlenc.Uint16(r[ifruOffset : ifruOffset+2])
}

// Family returns the sa_family of the sockaddr in the union.
func (r *IfReq) Family() uint16 {
	return nlenc.Uint16(r[ifruOffset : ifruOffset+2])
}

// Inet4 returns sin_addr of ifr_addr / ifr_netmask.
func (r *IfReq) Inet4() net.IP {
	ip := make(net.IP, net.IPv4len)
	copy(ip, r[sockaddrInet4:sockaddrInet4+net.IPv4len])
	return ip
}

// HardwareAddr returns the first six bytes of ifr_hwaddr.sa_data.
func (r *IfReq) HardwareAddr() net.HardwareAddr {
	mac := make(net.HardwareAddr, 6)
	copy(mac, r[sockaddrData:sockaddrData+6])
	return mac
}

// SetInet4 fills the union with an AF_INET sockaddr. Used by tests standing
// in for the kernel.
func (r *IfReq) SetInet4(ip net.IP) {
	nlenc.PutUint16(r[ifruOffset:ifruOffset+2], unix.AF_INET)
	copy(r[sockaddrInet4:sockaddrInet4+net.IPv4len], ip.To4())
}

// SetHardwareAddr fills ifr_hwaddr with an ARPHRD_ETHER sockaddr.
func (r *IfReq) SetHardwareAddr(mac net.HardwareAddr) {
	nlenc.PutUint16(r[ifruOffset:ifruOffset+2], unix.ARPHRD_ETHER)
	copy(r[sockaddrData:sockaddrData+6], mac)
}

// SetInt32 fills the first union word (index, mtu).
func (r *IfReq) SetInt32(v int32) {
	nlenc.PutInt32(r[ifruOffset:ifruOffset+4], v)
}

// SetFlags fills ifr_flags.
func (r *IfReq) SetFlags(v uint16) {
	nlenc.PutUint16(r[ifruOffset:ifruOffset+2], v)
}

// SetName overwrites ifr_name.
func (r *IfReq) SetName(name string) {
	clear(r[:IfNameSize])
	copy(r[:IfNameSize-1], name)
}
