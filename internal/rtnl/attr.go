package rtnl

import (
	"github.com/mdlayher/netlink"

	"grimm.is/spring/internal/errors"
)

// attrTypeMask strips NLA_F_NESTED and NLA_F_NET_BYTEORDER from a type.
const attrTypeMask = 0x3fff

// AttributeTable maps an attribute type to the last entry of that type.
type AttributeTable map[uint16]netlink.Attribute

// ParseAttributes scans b sequentially and indexes every attribute whose type
// is at most max. Higher types are dropped without error.
func ParseAttributes(b []byte, max uint16) (AttributeTable, error) {
	attrs, err := netlink.UnmarshalAttributes(b)
	if err != nil {
		return nil, errors.Wrap(err, errors.KindParse, "malformed attribute list")
	}

	tb := make(AttributeTable, len(attrs))
	for _, a := range attrs {
		typ := a.Type & attrTypeMask
		if typ > max {
			continue
		}
		a.Type = typ
		tb[typ] = a
	}
	return tb, nil
}

// String returns a NUL-terminated string attribute without its terminator.
func (tb AttributeTable) String(typ uint16) (string, bool) {
	a, ok := tb[typ]
	if !ok {
		return "", false
	}
	return cString(a.Data), true
}

// cString returns the bytes of b up to the first NUL.
func cString(b []byte) string {
	for i, c := range b {
		if c == 0 {
			return string(b[:i])
		}
	}
	return string(b)
}
