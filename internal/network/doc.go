// Package network queries and mutates Linux network interfaces.
//
// A [Manager] exposes three groups of operations:
//
//   - Queries: name/index resolution, IPv4 address, netmask, MTU, MAC and
//     flags via legacy SIOCGIF* ioctls; IPv6 addresses from one
//     github.com/vishvananda/netlink address dump filtered by index;
//     driver name via ethtool.
//   - Mutations: link state, rename, MTU, flags, delete, addresses and
//     neighbour entries as single rtnetlink requests, plus IPv4 routes via
//     SIOCADDRT/SIOCDELRT.
//   - Enumeration: an RTM_GETLINK dump returning (index, name) pairs.
//
// The manager holds no interface state. Every call resolves names against
// the kernel and opens a private socket that is closed before it returns.
//
// Mutations are submitted without waiting for a reply unless
// [Options.Acknowledge] is set, in which case the kernel's NLMSG_ERROR
// verdict is read and surfaced.
//
// # Example
//
//	mgr := network.NewManager(network.Options{Acknowledge: true})
//	if _, err := mgr.SetMTU(ctx, "eth0", 1400); err != nil {
//	    return err
//	}
//	mtu, err := mgr.MTU(ctx, "eth0")
package network
