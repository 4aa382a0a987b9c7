//go:build !linux
// +build !linux

package network

import (
	"github.com/vishvananda/netlink"

	"grimm.is/spring/internal/errors"
)

// RealNetlinker is a stub implementation of Netlinker.
type RealNetlinker struct{}

func (r *RealNetlinker) AddrList(link netlink.Link, family int) ([]netlink.Addr, error) {
	return nil, errors.New(errors.KindUnavailable, "AddrList not supported on this platform")
}

// EthtoolInspector is a stub; ethtool is Linux-only.
type EthtoolInspector struct{}

func (EthtoolInspector) DriverName(iface string) (string, error) {
	return "", errors.New(errors.KindUnavailable, "ethtool not supported on this platform")
}
