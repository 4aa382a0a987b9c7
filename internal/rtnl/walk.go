package rtnl

import (
	"github.com/mdlayher/netlink"
	"github.com/mdlayher/netlink/nlenc"
	"golang.org/x/sys/unix"

	"grimm.is/spring/internal/errors"
)

// Walk decodes the messages in b in order and hands each data message to fn.
//
// It returns done=true once an NLMSG_DONE marker or a zero-errno NLMSG_ERROR
// (an acknowledgement) has been consumed. A non-zero NLMSG_ERROR is returned
// as a KindParse error wrapping the kernel errno. fn returning false stops the
// walk early with done=false. Trailing bytes shorter than a header are ignored.
func Walk(b []byte, fn func(m netlink.Message) bool) (done bool, err error) {
	for len(b) >= HeaderLen {
		h := decodeHeader(b)
		if h.Length < HeaderLen || int(h.Length) > len(b) {
			return false, errors.Errorf(errors.KindParse,
				"malformed netlink message: declared length %d, %d bytes remaining", h.Length, len(b))
		}

		m := netlink.Message{Header: h, Data: b[HeaderLen:h.Length]}
		switch h.Type {
		case netlink.Done:
			return true, nil
		case netlink.Error:
			return true, decodeError(m)
		}

		if !fn(m) {
			return false, nil
		}

		next := Align(int(h.Length))
		if next >= len(b) {
			break
		}
		b = b[next:]
	}
	return false, nil
}

// decodeError turns an NLMSG_ERROR body into nil (ack) or a parse error.
func decodeError(m netlink.Message) error {
	if len(m.Data) < 4 {
		return errors.Errorf(errors.KindParse, "netlink error message truncated: %d bytes", len(m.Data))
	}
	code := nlenc.Int32(m.Data[0:4])
	if code == 0 {
		return nil
	}
	return errors.Wrap(unix.Errno(-code), errors.KindParse, "netlink response error")
}

// CheckAck validates a reply that must consist of one acknowledgement.
func CheckAck(b []byte) error {
	done, err := Walk(b, func(netlink.Message) bool { return true })
	if err != nil {
		return err
	}
	if !done {
		return errors.New(errors.KindParse, "reply carried no acknowledgement")
	}
	return nil
}
