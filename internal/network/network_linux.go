//go:build linux
// +build linux

package network

import (
	"github.com/safchain/ethtool"
	"github.com/vishvananda/netlink"

	"grimm.is/spring/internal/errors"
)

// RealNetlinker is a concrete implementation of Netlinker that uses the actual netlink package.
type RealNetlinker struct{}

// AddrList retrieves a list of addresses for a link.
func (r *RealNetlinker) AddrList(link netlink.Link, family int) ([]netlink.Addr, error) {
	return netlink.AddrList(link, family)
}

// EthtoolInspector reads driver names through a fresh ethtool handle per call.
type EthtoolInspector struct{}

// DriverName returns the driver reported by ETHTOOL_GDRVINFO.
func (EthtoolInspector) DriverName(iface string) (string, error) {
	h, err := ethtool.NewEthtool()
	if err != nil {
		return "", errors.Wrap(err, errors.KindSocket, "failed to open ethtool handle")
	}
	defer h.Close()

	info, err := h.DriverInfo(iface)
	if err != nil {
		return "", errors.Wrapf(err, errors.KindIoctl, "ethtool DriverInfo failed for %s", iface)
	}
	return info.Driver, nil
}
