package dispatch

import (
	"context"

	"grimm.is/spring/internal/network"
)

// Backend is the set of interface operations the dispatcher routes to.
// *network.Manager implements it.
type Backend interface {
	InterfaceName(ctx context.Context, index int32) (string, error)
	InterfaceIndex(ctx context.Context, name string) (int32, error)
	IPv4(ctx context.Context, name string) (string, error)
	Netmask(ctx context.Context, name string) (string, error)
	MTU(ctx context.Context, name string) (uint32, error)
	MAC(ctx context.Context, name string) (string, error)
	Flags(ctx context.Context, name string) (uint32, error)
	IPv6(ctx context.Context, name string) (string, error)
	IPv6ByIndex(ctx context.Context, index int32) (string, error)
	Driver(ctx context.Context, name string) (string, error)

	SetState(ctx context.Context, name string, up bool) (network.Result, error)
	SetLinkState(ctx context.Context, name string, up bool) (network.Result, error)
	Rename(ctx context.Context, name, newName string) (network.Result, error)
	SetMTU(ctx context.Context, name string, mtu uint32) (network.Result, error)
	SetFlags(ctx context.Context, name string, set, clear uint32) (network.Result, error)
	Delete(ctx context.Context, name string) (network.Result, error)
	SetIPv4(ctx context.Context, name, addr string) (network.Result, error)
	SetBroadcast(ctx context.Context, name, addr string) (network.Result, error)
	SetNetmask(ctx context.Context, name, mask string) (network.Result, error)
	AddNeighbor(ctx context.Context, name, ip, mac string) (network.Result, error)
	AddRoute(ctx context.Context, dest, netmask, gateway, dev string) (network.Result, error)
	DeleteRoute(ctx context.Context, dest, netmask, dev string) (network.Result, error)

	ListInterfaces(ctx context.Context, max int) ([]network.Interface, error)
}

var _ Backend = (*network.Manager)(nil)
