package dispatch

import (
	"context"

	"github.com/stretchr/testify/mock"

	"grimm.is/spring/internal/network"
)

// MockBackend is a mock implementation of Backend. Contexts are not
// recorded.
type MockBackend struct {
	mock.Mock
}

func (m *MockBackend) result(args mock.Arguments) (network.Result, error) {
	if r, ok := args.Get(0).(network.Result); ok {
		return r, args.Error(1)
	}
	return network.Result{}, args.Error(1)
}

func (m *MockBackend) InterfaceName(_ context.Context, index int32) (string, error) {
	args := m.Called(index)
	return args.String(0), args.Error(1)
}

func (m *MockBackend) InterfaceIndex(_ context.Context, name string) (int32, error) {
	args := m.Called(name)
	return args.Get(0).(int32), args.Error(1)
}

func (m *MockBackend) IPv4(_ context.Context, name string) (string, error) {
	args := m.Called(name)
	return args.String(0), args.Error(1)
}

func (m *MockBackend) Netmask(_ context.Context, name string) (string, error) {
	args := m.Called(name)
	return args.String(0), args.Error(1)
}

func (m *MockBackend) MTU(_ context.Context, name string) (uint32, error) {
	args := m.Called(name)
	return args.Get(0).(uint32), args.Error(1)
}

func (m *MockBackend) MAC(_ context.Context, name string) (string, error) {
	args := m.Called(name)
	return args.String(0), args.Error(1)
}

func (m *MockBackend) Flags(_ context.Context, name string) (uint32, error) {
	args := m.Called(name)
	return args.Get(0).(uint32), args.Error(1)
}

func (m *MockBackend) IPv6(_ context.Context, name string) (string, error) {
	args := m.Called(name)
	return args.String(0), args.Error(1)
}

func (m *MockBackend) IPv6ByIndex(_ context.Context, index int32) (string, error) {
	args := m.Called(index)
	return args.String(0), args.Error(1)
}

func (m *MockBackend) Driver(_ context.Context, name string) (string, error) {
	args := m.Called(name)
	return args.String(0), args.Error(1)
}

func (m *MockBackend) SetState(_ context.Context, name string, up bool) (network.Result, error) {
	return m.result(m.Called(name, up))
}

func (m *MockBackend) SetLinkState(_ context.Context, name string, up bool) (network.Result, error) {
	return m.result(m.Called(name, up))
}

func (m *MockBackend) Rename(_ context.Context, name, newName string) (network.Result, error) {
	return m.result(m.Called(name, newName))
}

func (m *MockBackend) SetMTU(_ context.Context, name string, mtu uint32) (network.Result, error) {
	return m.result(m.Called(name, mtu))
}

func (m *MockBackend) SetFlags(_ context.Context, name string, set, clear uint32) (network.Result, error) {
	return m.result(m.Called(name, set, clear))
}

func (m *MockBackend) Delete(_ context.Context, name string) (network.Result, error) {
	return m.result(m.Called(name))
}

func (m *MockBackend) SetIPv4(_ context.Context, name, addr string) (network.Result, error) {
	return m.result(m.Called(name, addr))
}

func (m *MockBackend) SetBroadcast(_ context.Context, name, addr string) (network.Result, error) {
	return m.result(m.Called(name, addr))
}

func (m *MockBackend) SetNetmask(_ context.Context, name, mask string) (network.Result, error) {
	return m.result(m.Called(name, mask))
}

func (m *MockBackend) AddNeighbor(_ context.Context, name, ip, mac string) (network.Result, error) {
	return m.result(m.Called(name, ip, mac))
}

func (m *MockBackend) AddRoute(_ context.Context, dest, netmask, gateway, dev string) (network.Result, error) {
	return m.result(m.Called(dest, netmask, gateway, dev))
}

func (m *MockBackend) DeleteRoute(_ context.Context, dest, netmask, dev string) (network.Result, error) {
	return m.result(m.Called(dest, netmask, dev))
}

func (m *MockBackend) ListInterfaces(_ context.Context, max int) ([]network.Interface, error) {
	args := m.Called(max)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]network.Interface), args.Error(1)
}
