package rtnl

import (
	"github.com/mdlayher/netlink"
	"github.com/mdlayher/netlink/nlenc"
	"golang.org/x/sys/unix"
)

// linkAttrMax bounds the IFLA_* types we index; anything newer is ignored.
const linkAttrMax = 64

// Link is one entry from a link dump.
type Link struct {
	Index int32
	Name  string
	Flags uint32
	MTU   uint32
}

// DecodeLink extracts a Link from an RTM_NEWLINK message. ok is false for
// messages of any other type or links without an IFLA_IFNAME.
func DecodeLink(m netlink.Message) (l Link, ok bool, err error) {
	if m.Header.Type != unix.RTM_NEWLINK {
		return Link{}, false, nil
	}

	info, err := UnmarshalIfInfomsg(m.Data)
	if err != nil {
		return Link{}, false, err
	}
	tb, err := ParseAttributes(m.Data[IfInfomsgLen:], linkAttrMax)
	if err != nil {
		return Link{}, false, err
	}

	name, ok := tb.String(unix.IFLA_IFNAME)
	if !ok {
		return Link{}, false, nil
	}
	if len(name) > IfNameSize-1 {
		name = name[:IfNameSize-1]
	}

	l = Link{Index: info.Index, Name: name, Flags: info.Flags}
	if a, ok := tb[unix.IFLA_MTU]; ok && len(a.Data) >= 4 {
		l.MTU = nlenc.Uint32(a.Data[:4])
	}
	return l, true, nil
}
