package network

import (
	"context"

	"github.com/mdlayher/netlink"

	"grimm.is/spring/internal/errors"
	"grimm.is/spring/internal/rtnl"
)

// ListInterfaces dumps all links and returns up to max (index, name) pairs in
// the order the kernel reported them. Links without a name attribute are
// skipped and not counted.
//
// One receive buffer is read unless FollowMultipart is set, so a dump larger
// than RecvBuffer is truncated. An error marker anywhere in the reply fails
// the whole call with no partial result.
func (m *Manager) ListInterfaces(ctx context.Context, max int) ([]Interface, error) {
	if max <= 0 {
		return nil, errors.Errorf(errors.KindArgument, "max interfaces must be positive, got %d", max)
	}

	b, err := rtnl.Encode(rtnl.DumpLinksRequest(m.nextSeq()))
	if err != nil {
		return nil, err
	}

	ctx, cancel := m.withDeadline(ctx)
	defer cancel()

	c, err := m.dialRoute()
	if err != nil {
		return nil, err
	}
	defer c.Close()

	if err := c.Send(ctx, b); err != nil {
		return nil, err
	}

	var (
		list      []Interface
		decodeErr error
		buf       = make([]byte, m.opts.RecvBuffer)
	)
	for {
		n, err := c.Recv(ctx, buf)
		if err != nil {
			return nil, err
		}

		done, err := rtnl.Walk(buf[:n], func(msg netlink.Message) bool {
			l, ok, err := rtnl.DecodeLink(msg)
			if err != nil {
				decodeErr = err
				return false
			}
			if ok {
				list = append(list, Interface{Index: l.Index, Name: l.Name})
			}
			return len(list) < max
		})
		if err != nil {
			return nil, err
		}
		if decodeErr != nil {
			return nil, decodeErr
		}
		if done || len(list) >= max || !m.opts.FollowMultipart {
			break
		}
	}

	m.logger.Debug("links enumerated", "count", len(list), "max", max)
	return list, nil
}

// InterfaceCount returns the number of links in one dump, capped at
// MaxInterfaces.
func (m *Manager) InterfaceCount(ctx context.Context) (int, error) {
	list, err := m.ListInterfaces(ctx, MaxInterfaces)
	if err != nil {
		return 0, err
	}
	return len(list), nil
}
