package network

import (
	"context"
	"strconv"

	"github.com/vishvananda/netlink"
	"golang.org/x/sys/unix"

	"grimm.is/spring/internal/errors"
	"grimm.is/spring/internal/rtnl"
)

// validateName rejects names the kernel could never match. It runs before
// any socket is opened.
func validateName(name string) error {
	if name == "" {
		return errors.New(errors.KindArgument, "interface name is empty")
	}
	if len(name) > rtnl.IfNameSize-1 {
		return errors.Attr(
			errors.Errorf(errors.KindArgument, "interface name %q exceeds %d bytes", name, rtnl.IfNameSize-1),
			"iface", name)
	}
	return nil
}

func validateIndex(index int32) error {
	if index <= 0 {
		return errors.Errorf(errors.KindArgument, "invalid interface index %d", index)
	}
	return nil
}

// ifreq performs one legacy ioctl on a private datagram socket.
func (m *Manager) ifreq(ctx context.Context, req uint, r *rtnl.IfReq, label string) error {
	if err := ctx.Err(); err != nil {
		return errors.Wrap(err, errors.KindUnavailable, "operation cancelled")
	}

	c, err := m.dialControl(unix.AF_INET)
	if err != nil {
		return err
	}
	defer c.Close()

	if err := c.IfreqIoctl(req, r); err != nil {
		return ioctlError(err, label)
	}
	return nil
}

// ioctlError classifies a legacy ioctl failure.
func ioctlError(err error, label string) error {
	var errno unix.Errno
	if errors.As(err, &errno) {
		switch errno {
		case unix.ENODEV, unix.ENXIO:
			return errors.Attr(errors.Wrapf(err, errors.KindNotFound, "no such interface %s", label), "iface", label)
		case unix.EADDRNOTAVAIL:
			return errors.Attr(errors.Wrapf(err, errors.KindNotFound, "no address assigned to %s", label), "iface", label)
		}
	}
	return errors.Attr(errors.Wrapf(err, errors.KindIoctl, "ioctl failed for %s", label), "iface", label)
}

// InterfaceName resolves a kernel index to its current name (SIOCGIFNAME).
func (m *Manager) InterfaceName(ctx context.Context, index int32) (string, error) {
	if err := validateIndex(index); err != nil {
		return "", err
	}
	r := rtnl.NewIfReqIndex(index)
	if err := m.ifreq(ctx, unix.SIOCGIFNAME, r, "index "+strconv.Itoa(int(index))); err != nil {
		return "", err
	}
	return r.Name(), nil
}

// InterfaceIndex resolves a name to its current kernel index (SIOCGIFINDEX).
func (m *Manager) InterfaceIndex(ctx context.Context, name string) (int32, error) {
	if err := validateName(name); err != nil {
		return 0, err
	}
	r := rtnl.NewIfReq(name)
	if err := m.ifreq(ctx, unix.SIOCGIFINDEX, r, name); err != nil {
		return 0, err
	}
	return r.Index(), nil
}

// IPv4 returns the primary IPv4 address of name in dotted-quad form.
func (m *Manager) IPv4(ctx context.Context, name string) (string, error) {
	if err := validateName(name); err != nil {
		return "", err
	}
	r := rtnl.NewIfReq(name)
	if err := m.ifreq(ctx, unix.SIOCGIFADDR, r, name); err != nil {
		return "", err
	}
	return r.Inet4().String(), nil
}

// Netmask returns the IPv4 netmask of name in dotted-quad form.
func (m *Manager) Netmask(ctx context.Context, name string) (string, error) {
	if err := validateName(name); err != nil {
		return "", err
	}
	r := rtnl.NewIfReq(name)
	if err := m.ifreq(ctx, unix.SIOCGIFNETMASK, r, name); err != nil {
		return "", err
	}
	return r.Inet4().String(), nil
}

// MTU returns the MTU of name.
func (m *Manager) MTU(ctx context.Context, name string) (uint32, error) {
	if err := validateName(name); err != nil {
		return 0, err
	}
	r := rtnl.NewIfReq(name)
	if err := m.ifreq(ctx, unix.SIOCGIFMTU, r, name); err != nil {
		return 0, err
	}
	return r.MTU(), nil
}

// MAC returns the hardware address of name as lowercase aa:bb:cc:dd:ee:ff.
func (m *Manager) MAC(ctx context.Context, name string) (string, error) {
	if err := validateName(name); err != nil {
		return "", err
	}
	r := rtnl.NewIfReq(name)
	if err := m.ifreq(ctx, unix.SIOCGIFHWADDR, r, name); err != nil {
		return "", err
	}
	return r.HardwareAddr().String(), nil
}

// Flags returns the IFF_* flag set of name.
func (m *Manager) Flags(ctx context.Context, name string) (uint32, error) {
	if err := validateName(name); err != nil {
		return 0, err
	}
	r := rtnl.NewIfReq(name)
	if err := m.ifreq(ctx, unix.SIOCGIFFLAGS, r, name); err != nil {
		return 0, err
	}
	return uint32(r.Flags()), nil
}

// IPv6 returns the first IPv6 address found on name. The name is resolved
// with the legacy index query, then one address dump is filtered by index.
func (m *Manager) IPv6(ctx context.Context, name string) (string, error) {
	index, err := m.InterfaceIndex(ctx, name)
	if err != nil {
		return "", err
	}
	return m.firstIPv6(ctx, index, name)
}

// IPv6ByIndex returns the first IPv6 address found on the interface with
// the given kernel index.
func (m *Manager) IPv6ByIndex(ctx context.Context, index int32) (string, error) {
	if err := validateIndex(index); err != nil {
		return "", err
	}
	return m.firstIPv6(ctx, index, "index "+strconv.Itoa(int(index)))
}

// firstIPv6 scans a single IPv6 address dump for an entry on index.
func (m *Manager) firstIPv6(ctx context.Context, index int32, label string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", errors.Wrap(err, errors.KindUnavailable, "operation cancelled")
	}

	if m.opts.SocketOpened != nil {
		m.opts.SocketOpened("route")
	}
	addrs, err := m.nl.AddrList(nil, netlink.FAMILY_V6)
	if err != nil {
		if errors.GetKind(err) != errors.KindUnknown {
			return "", err
		}
		return "", errors.Attr(errors.Wrapf(err, errors.KindRecv, "address dump failed for %s", label), "iface", label)
	}
	for _, a := range addrs {
		if a.LinkIndex == int(index) && a.IPNet != nil && a.IP.To4() == nil {
			return a.IP.String(), nil
		}
	}
	return "", errors.Attr(errors.Errorf(errors.KindNotFound, "no IPv6 address on %s", label), "iface", label)
}

// Driver returns the kernel driver bound to name.
func (m *Manager) Driver(ctx context.Context, name string) (string, error) {
	if err := validateName(name); err != nil {
		return "", err
	}
	if err := ctx.Err(); err != nil {
		return "", errors.Wrap(err, errors.KindUnavailable, "operation cancelled")
	}

	driver, err := m.driver.DriverName(name)
	if err != nil {
		var errno unix.Errno
		if errors.As(err, &errno) && (errno == unix.ENODEV || errno == unix.ENXIO) {
			return "", errors.Attr(errors.Wrapf(err, errors.KindNotFound, "no such interface %s", name), "iface", name)
		}
		return "", err
	}
	return driver, nil
}
