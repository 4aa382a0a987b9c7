// Package rtnl is the kernel boundary of the control service.
//
// # Overview
//
// It builds and parses the two wire formats the engines speak:
//
//   - rtnetlink datagrams: a 16 byte header, a family payload (ifinfomsg,
//     ifaddrmsg, ndmsg) and 4-byte aligned TLV attributes
//   - legacy fixed-size records: struct ifreq for SIOCGIF* queries and
//     struct rtentry for SIOCADDRT/SIOCDELRT
//
// Header and attribute framing reuse github.com/mdlayher/netlink types so the
// encoded bytes match what the kernel (and every other netlink client) expects.
//
// # Sockets
//
// Nothing here keeps a socket open between calls. A [Dialer] hands out a fresh
// [Conn] (AF_NETLINK) or [ControlConn] (AF_INET/AF_INET6 datagram) per
// operation and the caller closes it before returning. Tests substitute a fake
// Dialer to capture the exact bytes and count socket creation.
//
// # Decoding
//
// [Walk] consumes a receive buffer message by message, validating each
// declared length, stopping at NLMSG_DONE and turning NLMSG_ERROR into a
// parse error carrying the kernel errno. [ParseAttributes] builds the
// type→attribute table for one message.
package rtnl
