//go:build !linux
// +build !linux

package rtnl

import "grimm.is/spring/internal/errors"

// SystemDialer is a stub; kernel sockets are only available on Linux.
type SystemDialer struct{}

func (SystemDialer) DialRoute() (Conn, error) {
	return nil, errors.New(errors.KindUnavailable, "rtnetlink not supported on this platform")
}

func (SystemDialer) DialControl(family int) (ControlConn, error) {
	return nil, errors.New(errors.KindUnavailable, "interface ioctls not supported on this platform")
}
