package network

import (
	"context"
	"net"
	"net/netip"

	"golang.org/x/sys/unix"

	"grimm.is/spring/internal/errors"
	"grimm.is/spring/internal/rtnl"
)

// Outcome records how much of a mutation the kernel confirmed.
type Outcome int

const (
	// Submitted means the request was sent and no reply was read.
	Submitted Outcome = iota + 1
	// Acknowledged means the kernel accepted the request.
	Acknowledged
)

func (o Outcome) String() string {
	switch o {
	case Submitted:
		return "submitted"
	case Acknowledged:
		return "acknowledged"
	default:
		return "unknown"
	}
}

// Result is returned by every mutation.
type Result struct {
	Outcome  Outcome
	Sequence uint32
}

// parseIPv4 accepts dotted-quad IPv4 only.
func parseIPv4(s string) (net.IP, error) {
	addr, err := netip.ParseAddr(s)
	if err != nil || !addr.Is4() {
		return nil, errors.Attr(errors.Errorf(errors.KindAddressFormat, "invalid IPv4 address %q", s), "address", s)
	}
	b := addr.As4()
	return net.IPv4(b[0], b[1], b[2], b[3]).To4(), nil
}

func parseMAC(s string) (net.HardwareAddr, error) {
	mac, err := net.ParseMAC(s)
	if err != nil || len(mac) != 6 {
		return nil, errors.Attr(errors.Errorf(errors.KindAddressFormat, "invalid MAC address %q", s), "mac", s)
	}
	return mac, nil
}

// submit encodes req, sends it on a fresh route socket and, when
// acknowledgements are enabled, reads exactly one reply.
func (m *Manager) submit(ctx context.Context, name string, req rtnl.MutationRequest) (Result, error) {
	req.Sequence = m.nextSeq()
	req.Acknowledge = m.opts.Acknowledge

	msg, err := req.Message()
	if err != nil {
		return Result{}, err
	}
	b, err := rtnl.Encode(msg)
	if err != nil {
		return Result{}, err
	}

	ctx, cancel := m.withDeadline(ctx)
	defer cancel()

	c, err := m.dialRoute()
	if err != nil {
		return Result{}, err
	}
	defer c.Close()

	if err := c.Send(ctx, b); err != nil {
		return Result{}, errors.Attr(err, "iface", name)
	}
	m.logger.Debug("mutation submitted", "command", req.Command.String(), "iface", name, "index", req.Index, "seq", req.Sequence)

	if !req.Acknowledge {
		return Result{Outcome: Submitted, Sequence: req.Sequence}, nil
	}

	buf := make([]byte, m.opts.RecvBuffer)
	n, err := c.Recv(ctx, buf)
	if err != nil {
		return Result{}, errors.Attr(err, "iface", name)
	}
	if err := rtnl.CheckAck(buf[:n]); err != nil {
		return Result{}, errors.Attr(errors.Attr(err, "iface", name), "command", req.Command.String())
	}
	return Result{Outcome: Acknowledged, Sequence: req.Sequence}, nil
}

// mutateLink re-resolves name to the kernel's current index and submits one
// link-level request.
func (m *Manager) mutateLink(ctx context.Context, name string, req rtnl.MutationRequest) (Result, error) {
	index, err := m.InterfaceIndex(ctx, name)
	if err != nil {
		return Result{}, err
	}
	req.Index = index
	return m.submit(ctx, name, req)
}

// SetState sets or clears IFF_UP.
func (m *Manager) SetState(ctx context.Context, name string, up bool) (Result, error) {
	return m.mutateLink(ctx, name, rtnl.MutationRequest{Command: rtnl.CmdSetState, Up: up})
}

// SetLinkState sets or clears IFF_RUNNING.
func (m *Manager) SetLinkState(ctx context.Context, name string, up bool) (Result, error) {
	return m.mutateLink(ctx, name, rtnl.MutationRequest{Command: rtnl.CmdSetLinkState, Up: up})
}

// Rename requests a new name for the interface.
func (m *Manager) Rename(ctx context.Context, name, newName string) (Result, error) {
	if err := validateName(newName); err != nil {
		return Result{}, err
	}
	return m.mutateLink(ctx, name, rtnl.MutationRequest{Command: rtnl.CmdRename, Name: newName})
}

// SetMTU requests a new MTU.
func (m *Manager) SetMTU(ctx context.Context, name string, mtu uint32) (Result, error) {
	return m.mutateLink(ctx, name, rtnl.MutationRequest{Command: rtnl.CmdSetMTU, MTU: mtu})
}

// SetFlags sets the bits in set and clears the bits in clear.
func (m *Manager) SetFlags(ctx context.Context, name string, set, clear uint32) (Result, error) {
	return m.mutateLink(ctx, name, rtnl.MutationRequest{Command: rtnl.CmdSetFlags, SetFlags: set, ClearFlags: clear})
}

// Delete removes the link.
func (m *Manager) Delete(ctx context.Context, name string) (Result, error) {
	return m.mutateLink(ctx, name, rtnl.MutationRequest{Command: rtnl.CmdDelete})
}

// SetIPv4 requests an IPv4 address on the interface.
func (m *Manager) SetIPv4(ctx context.Context, name, addr string) (Result, error) {
	ip, err := parseIPv4(addr)
	if err != nil {
		return Result{}, err
	}
	return m.mutateLink(ctx, name, rtnl.MutationRequest{Command: rtnl.CmdSetIPv4, Address: ip.String()})
}

// SetBroadcast requests a broadcast address on the interface.
func (m *Manager) SetBroadcast(ctx context.Context, name, addr string) (Result, error) {
	ip, err := parseIPv4(addr)
	if err != nil {
		return Result{}, err
	}
	return m.mutateLink(ctx, name, rtnl.MutationRequest{Command: rtnl.CmdSetBroadcast, Address: ip.String()})
}

// SetNetmask requests a netmask; the prefix length is derived from it.
func (m *Manager) SetNetmask(ctx context.Context, name, mask string) (Result, error) {
	ip, err := parseIPv4(mask)
	if err != nil {
		return Result{}, err
	}
	ones, bits := net.IPMask(ip).Size()
	if bits == 0 {
		return Result{}, errors.Attr(errors.Errorf(errors.KindAddressFormat, "netmask %q is not contiguous", mask), "address", mask)
	}
	return m.mutateLink(ctx, name, rtnl.MutationRequest{
		Command:   rtnl.CmdSetNetmask,
		Address:   ip.String(),
		Prefixlen: uint8(ones),
	})
}

// AddNeighbor installs a permanent neighbour entry for ip on the interface.
func (m *Manager) AddNeighbor(ctx context.Context, name, ip, mac string) (Result, error) {
	addr, err := parseIPv4(ip)
	if err != nil {
		return Result{}, err
	}
	hw, err := parseMAC(mac)
	if err != nil {
		return Result{}, err
	}
	return m.mutateLink(ctx, name, rtnl.MutationRequest{
		Command: rtnl.CmdAddNeighbor,
		Address: addr.String(),
		MAC:     hw.String(),
	})
}

// AddRoute installs an IPv4 gateway route via SIOCADDRT.
func (m *Manager) AddRoute(ctx context.Context, dest, netmask, gateway, dev string) (Result, error) {
	dst, err := parseIPv4(dest)
	if err != nil {
		return Result{}, err
	}
	mask, err := parseIPv4(netmask)
	if err != nil {
		return Result{}, err
	}
	gw, err := parseIPv4(gateway)
	if err != nil {
		return Result{}, err
	}
	if err := validateName(dev); err != nil {
		return Result{}, err
	}
	return m.routeIoctl(ctx, unix.SIOCADDRT, rtnl.NewRouteEntry(dst, mask, gw, dev), dev)
}

// DeleteRoute removes an IPv4 route via SIOCDELRT.
func (m *Manager) DeleteRoute(ctx context.Context, dest, netmask, dev string) (Result, error) {
	dst, err := parseIPv4(dest)
	if err != nil {
		return Result{}, err
	}
	mask, err := parseIPv4(netmask)
	if err != nil {
		return Result{}, err
	}
	if err := validateName(dev); err != nil {
		return Result{}, err
	}
	return m.routeIoctl(ctx, unix.SIOCDELRT, rtnl.NewRouteEntry(dst, mask, nil, dev), dev)
}

// routeIoctl issues one route record. The ioctl returns the kernel's verdict,
// so a nil error is an acknowledgement.
func (m *Manager) routeIoctl(ctx context.Context, req uint, e *rtnl.RouteEntry, dev string) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, errors.Wrap(err, errors.KindUnavailable, "operation cancelled")
	}

	c, err := m.dialControl(unix.AF_INET)
	if err != nil {
		return Result{}, err
	}
	defer c.Close()

	if err := c.RouteIoctl(req, e); err != nil {
		return Result{}, ioctlError(err, dev)
	}
	m.logger.Debug("route updated", "dst", e.Dst.IP(), "genmask", e.Genmask.IP(), "gateway", e.HasGateway(), "dev", dev)
	return Result{Outcome: Acknowledged}, nil
}
