package network

import (
	"context"
	"sync/atomic"

	"grimm.is/spring/internal/clock"
	"grimm.is/spring/internal/logging"
	"grimm.is/spring/internal/rtnl"
)

// Manager performs interface queries, mutations and enumeration. It keeps no
// interface state: names and indexes are resolved against the kernel on
// every call, and every call opens and closes its own socket.
type Manager struct {
	nl     Netlinker
	dialer rtnl.Dialer
	driver DriverInspector
	opts   Options
	seq    atomic.Uint32
	logger *logging.Logger
}

// NewManager creates a manager backed by real kernel sockets.
func NewManager(opts Options) *Manager {
	return NewManagerWithDeps(&RealNetlinker{}, rtnl.SystemDialer{}, EthtoolInspector{}, opts)
}

// NewManagerWithDeps creates a new manager with injected dependencies.
func NewManagerWithDeps(nl Netlinker, dialer rtnl.Dialer, driver DriverInspector, opts Options) *Manager {
	if opts.RecvBuffer <= 0 {
		opts.RecvBuffer = rtnl.RecvBufferSize
	}
	m := &Manager{
		nl:     nl,
		dialer: dialer,
		driver: driver,
		opts:   opts,
		logger: logging.WithComponent("network"),
	}
	m.seq.Store(uint32(clock.Now().Unix()))
	return m
}

// Options returns the effective options.
func (m *Manager) Options() Options {
	return m.opts
}

func (m *Manager) nextSeq() uint32 {
	return m.seq.Add(1)
}

func (m *Manager) dialRoute() (rtnl.Conn, error) {
	c, err := m.dialer.DialRoute()
	if err != nil {
		return nil, err
	}
	if m.opts.SocketOpened != nil {
		m.opts.SocketOpened("route")
	}
	return c, nil
}

func (m *Manager) dialControl(family int) (rtnl.ControlConn, error) {
	c, err := m.dialer.DialControl(family)
	if err != nil {
		return nil, err
	}
	if m.opts.SocketOpened != nil {
		m.opts.SocketOpened("control")
	}
	return c, nil
}

// withDeadline applies the configured messaging timeout, if any.
func (m *Manager) withDeadline(ctx context.Context) (context.Context, context.CancelFunc) {
	if m.opts.Timeout > 0 {
		return context.WithTimeout(ctx, m.opts.Timeout)
	}
	return ctx, func() {}
}
