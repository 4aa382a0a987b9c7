//go:build linux
// +build linux

package rtnl

import (
	"context"
	"runtime"
	"unsafe"

	"github.com/mdlayher/socket"
	"golang.org/x/sys/unix"

	"grimm.is/spring/internal/errors"
)

// SystemDialer opens real kernel sockets.
type SystemDialer struct{}

// DialRoute opens and binds an AF_NETLINK/NETLINK_ROUTE socket.
func (SystemDialer) DialRoute() (Conn, error) {
	c, err := socket.Socket(unix.AF_NETLINK, unix.SOCK_RAW, unix.NETLINK_ROUTE, "rtnetlink", nil)
	if err != nil {
		return nil, errors.Wrap(err, errors.KindSocket, "socket creation failed")
	}
	if err := c.Bind(&unix.SockaddrNetlink{Family: unix.AF_NETLINK}); err != nil {
		c.Close()
		return nil, errors.Wrap(err, errors.KindSocket, "failed to bind socket")
	}
	return &routeConn{c: c}, nil
}

// DialControl opens a datagram socket of the given family for ioctl calls.
func (SystemDialer) DialControl(family int) (ControlConn, error) {
	fd, err := unix.Socket(family, unix.SOCK_DGRAM|unix.SOCK_CLOEXEC, 0)
	if err != nil {
		return nil, errors.Wrap(err, errors.KindSocket, "socket creation failed")
	}
	return &controlConn{fd: fd}, nil
}

type routeConn struct {
	c *socket.Conn
}

func (r *routeConn) Send(ctx context.Context, b []byte) error {
	if _, err := r.c.Sendmsg(ctx, b, nil, &unix.SockaddrNetlink{Family: unix.AF_NETLINK}, 0); err != nil {
		return errors.Wrap(err, errors.KindSend, "failed to send netlink message")
	}
	return nil
}

func (r *routeConn) Recv(ctx context.Context, b []byte) (int, error) {
	n, _, _, _, err := r.c.Recvmsg(ctx, b, nil, 0)
	if err != nil {
		return 0, errors.Wrap(err, errors.KindRecv, "failed to receive netlink message")
	}
	return n, nil
}

func (r *routeConn) Close() error {
	return r.c.Close()
}

type controlConn struct {
	fd int
}

func (c *controlConn) ioctl(req uint, arg unsafe.Pointer) error {
	_, _, errno := unix.Syscall(unix.SYS_IOCTL, uintptr(c.fd), uintptr(req), uintptr(arg))
	if errno != 0 {
		return errno
	}
	return nil
}

func (c *controlConn) IfreqIoctl(req uint, r *IfReq) error {
	err := c.ioctl(req, unsafe.Pointer(&r[0]))
	runtime.KeepAlive(r)
	return err
}

func (c *controlConn) RouteIoctl(req uint, e *RouteEntry) error {
	err := c.ioctl(req, unsafe.Pointer(e))
	runtime.KeepAlive(e)
	return err
}

func (c *controlConn) Close() error {
	return unix.Close(c.fd)
}
