package rtnl

import "context"

// RecvBufferSize is the default size of the single receive buffer used for
// dump replies.
const RecvBufferSize = 8192

// Conn is an rtnetlink socket owned by exactly one operation.
type Conn interface {
	Send(ctx context.Context, b []byte) error
	Recv(ctx context.Context, b []byte) (int, error)
	Close() error
}

// ControlConn is a datagram socket used for legacy ioctl records.
type ControlConn interface {
	IfreqIoctl(req uint, r *IfReq) error
	RouteIoctl(req uint, e *RouteEntry) error
	Close() error
}

// Dialer creates fresh kernel sockets. Implementations must not pool or
// share sockets between calls.
type Dialer interface {
	DialRoute() (Conn, error)
	DialControl(family int) (ControlConn, error)
}
