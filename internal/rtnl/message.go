package rtnl

import (
	"github.com/mdlayher/netlink"
	"github.com/mdlayher/netlink/nlenc"

	"grimm.is/spring/internal/errors"
)

// Fixed sizes of the rtnetlink wire structures.
const (
	HeaderLen     = 16 // struct nlmsghdr
	IfInfomsgLen  = 16 // struct ifinfomsg
	IfAddrmsgLen  = 8  // struct ifaddrmsg
	NdMsgLen      = 12 // struct ndmsg
	AttrHeaderLen = 4  // struct rtattr
)

const alignTo = 4

// Align rounds n up to the netlink 4-byte boundary.
func Align(n int) int {
	return (n + alignTo - 1) &^ (alignTo - 1)
}

// IfInfomsg is the link message payload.
type IfInfomsg struct {
	Family uint8
	Type   uint16
	Index  int32
	Flags  uint32
	Change uint32
}

// MarshalBinary encodes the payload in native byte order.
func (m IfInfomsg) MarshalBinary() []byte {
	b := make([]byte, IfInfomsgLen)
	b[0] = m.Family
	nlenc.PutUint16(b[2:4], m.Type)
	nlenc.PutInt32(b[4:8], m.Index)
	nlenc.PutUint32(b[8:12], m.Flags)
	nlenc.PutUint32(b[12:16], m.Change)
	return b
}

// UnmarshalIfInfomsg decodes the leading ifinfomsg of a link message body.
func UnmarshalIfInfomsg(b []byte) (IfInfomsg, error) {
	if len(b) < IfInfomsgLen {
		return IfInfomsg{}, errors.Errorf(errors.KindParse, "link message too short: %d bytes", len(b))
	}
	return IfInfomsg{
		Family: b[0],
		Type:   nlenc.Uint16(b[2:4]),
		Index:  nlenc.Int32(b[4:8]),
		Flags:  nlenc.Uint32(b[8:12]),
		Change: nlenc.Uint32(b[12:16]),
	}, nil
}

// IfAddrmsg is the address message payload.
type IfAddrmsg struct {
	Family    uint8
	Prefixlen uint8
	Flags     uint8
	Scope     uint8
	Index     uint32
}

// MarshalBinary encodes the payload in native byte order.
func (m IfAddrmsg) MarshalBinary() []byte {
	b := make([]byte, IfAddrmsgLen)
	b[0] = m.Family
	b[1] = m.Prefixlen
	b[2] = m.Flags
	b[3] = m.Scope
	nlenc.PutUint32(b[4:8], m.Index)
	return b
}

// NdMsg is the neighbour message payload.
type NdMsg struct {
	Family uint8
	Index  int32
	State  uint16
	Flags  uint8
	Type   uint8
}

// MarshalBinary encodes the payload in native byte order.
func (m NdMsg) MarshalBinary() []byte {
	b := make([]byte, NdMsgLen)
	b[0] = m.Family
	nlenc.PutInt32(b[4:8], m.Index)
	nlenc.PutUint16(b[8:10], m.State)
	b[10] = m.Flags
	b[11] = m.Type
	return b
}

// NewMessage assembles a request from a family payload and encoded attributes.
// The header length is the exact serialized size; payloads and attributes are
// already multiples of four so no trailing padding is added.
func NewMessage(typ netlink.HeaderType, flags netlink.HeaderFlags, payload, attrs []byte) netlink.Message {
	data := make([]byte, 0, len(payload)+len(attrs))
	data = append(data, payload...)
	data = append(data, attrs...)

	return netlink.Message{
		Header: netlink.Header{
			Length: uint32(Align(HeaderLen + len(data))),
			Type:   typ,
			Flags:  flags,
		},
		Data: data,
	}
}

// Encode serializes a message, filling the header from m.Header.
func Encode(m netlink.Message) ([]byte, error) {
	if int(m.Header.Length) != Align(HeaderLen+len(m.Data)) {
		return nil, errors.Errorf(errors.KindInternal,
			"message length %d does not match serialized size %d", m.Header.Length, HeaderLen+len(m.Data))
	}
	b, err := m.MarshalBinary()
	if err != nil {
		return nil, errors.Wrap(err, errors.KindInternal, "failed to encode netlink message")
	}
	return b, nil
}

// decodeHeader reads a nlmsghdr from the first HeaderLen bytes of b.
func decodeHeader(b []byte) netlink.Header {
	return netlink.Header{
		Length:   nlenc.Uint32(b[0:4]),
		Type:     netlink.HeaderType(nlenc.Uint16(b[4:6])),
		Flags:    netlink.HeaderFlags(nlenc.Uint16(b[6:8])),
		Sequence: nlenc.Uint32(b[8:12]),
		PID:      nlenc.Uint32(b[12:16]),
	}
}
