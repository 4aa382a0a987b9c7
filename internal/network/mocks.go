package network

import (
	"github.com/stretchr/testify/mock"
	"github.com/vishvananda/netlink"
)

// MockNetlinker is a mock implementation of the Netlinker interface.
type MockNetlinker struct {
	mock.Mock
}

func (m *MockNetlinker) AddrList(link netlink.Link, family int) ([]netlink.Addr, error) {
	args := m.Called(link, family)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]netlink.Addr), args.Error(1)
}

// MockDriverInspector is a mock implementation of DriverInspector.
type MockDriverInspector struct {
	mock.Mock
}

func (m *MockDriverInspector) DriverName(iface string) (string, error) {
	args := m.Called(iface)
	return args.String(0), args.Error(1)
}
