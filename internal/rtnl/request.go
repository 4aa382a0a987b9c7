package rtnl

import (
	"github.com/mdlayher/netlink"
	"golang.org/x/sys/unix"

	"grimm.is/spring/internal/errors"
)

// Command identifies the kind of mutation carried by a MutationRequest.
type Command int

const (
	CmdSetState Command = iota + 1
	CmdRename
	CmdSetMTU
	CmdSetIPv4
	CmdSetFlags
	CmdDelete
	CmdSetLinkState
	CmdSetBroadcast
	CmdSetNetmask
	CmdAddNeighbor
)

func (c Command) String() string {
	switch c {
	case CmdSetState:
		return "set_state"
	case CmdRename:
		return "rename"
	case CmdSetMTU:
		return "set_mtu"
	case CmdSetIPv4:
		return "set_ipv4"
	case CmdSetFlags:
		return "set_flags"
	case CmdDelete:
		return "delete"
	case CmdSetLinkState:
		return "set_link_state"
	case CmdSetBroadcast:
		return "set_broadcast"
	case CmdSetNetmask:
		return "set_netmask"
	case CmdAddNeighbor:
		return "add_neighbor"
	default:
		return "unknown"
	}
}

// MutationRequest is a resolved mutation: the interface reference has already
// been turned into a kernel index and address strings have been validated.
type MutationRequest struct {
	Command Command
	Index   int32

	Up         bool   // SetState, SetLinkState
	Name       string // Rename
	MTU        uint32 // SetMTU
	Address    string // SetIPv4, SetBroadcast, SetNetmask, AddNeighbor
	Prefixlen  uint8  // SetNetmask
	MAC        string // AddNeighbor
	SetFlags   uint32 // SetFlags
	ClearFlags uint32 // SetFlags

	Acknowledge bool
	Sequence    uint32
}

// Message builds the single rtnetlink request for r.
func (r MutationRequest) Message() (netlink.Message, error) {
	flags := netlink.Request
	if r.Acknowledge {
		flags |= netlink.Acknowledge
	}

	var (
		typ     netlink.HeaderType
		payload []byte
		ae      = netlink.NewAttributeEncoder()
	)

	link := IfInfomsg{Family: unix.AF_UNSPEC, Index: r.Index}
	addr := IfAddrmsg{Family: unix.AF_INET, Index: uint32(r.Index)}

	switch r.Command {
	case CmdSetState:
		typ = unix.RTM_NEWLINK
		link.Change = unix.IFF_UP
		if r.Up {
			link.Flags = unix.IFF_UP
		}
		payload = link.MarshalBinary()
	case CmdSetLinkState:
		typ = unix.RTM_NEWLINK
		link.Change = unix.IFF_RUNNING
		if r.Up {
			link.Flags = unix.IFF_RUNNING
		}
		payload = link.MarshalBinary()
	case CmdRename:
		typ = unix.RTM_NEWLINK
		payload = link.MarshalBinary()
		ae.String(unix.IFLA_IFNAME, r.Name)
	case CmdSetMTU:
		typ = unix.RTM_NEWLINK
		payload = link.MarshalBinary()
		ae.Uint32(unix.IFLA_MTU, r.MTU)
	case CmdSetFlags:
		typ = unix.RTM_NEWLINK
		link.Flags = r.SetFlags &^ r.ClearFlags
		link.Change = r.SetFlags | r.ClearFlags
		payload = link.MarshalBinary()
	case CmdDelete:
		typ = unix.RTM_DELLINK
		payload = link.MarshalBinary()
	case CmdSetIPv4:
		typ = unix.RTM_NEWADDR
		payload = addr.MarshalBinary()
		ae.String(unix.IFA_LOCAL, r.Address)
	case CmdSetBroadcast:
		typ = unix.RTM_NEWADDR
		payload = addr.MarshalBinary()
		ae.String(unix.IFA_BROADCAST, r.Address)
	case CmdSetNetmask:
		typ = unix.RTM_NEWADDR
		addr.Prefixlen = r.Prefixlen
		payload = addr.MarshalBinary()
		ae.String(unix.IFA_ADDRESS, r.Address)
	case CmdAddNeighbor:
		typ = unix.RTM_NEWNEIGH
		payload = NdMsg{
			Family: unix.AF_INET,
			Index:  r.Index,
			State:  unix.NUD_PERMANENT,
		}.MarshalBinary()
		ae.String(unix.NDA_DST, r.Address+" "+r.MAC)
	default:
		return netlink.Message{}, errors.Errorf(errors.KindInternal, "unknown mutation command %d", r.Command)
	}

	attrs, err := ae.Encode()
	if err != nil {
		return netlink.Message{}, errors.Wrapf(err, errors.KindInternal, "failed to encode %s attributes", r.Command)
	}

	m := NewMessage(typ, flags, payload, attrs)
	m.Header.Sequence = r.Sequence
	return m, nil
}

// DumpLinksRequest asks the kernel for every link.
func DumpLinksRequest(seq uint32) netlink.Message {
	m := NewMessage(unix.RTM_GETLINK, netlink.Request|netlink.Dump,
		IfInfomsg{Family: unix.AF_UNSPEC}.MarshalBinary(), nil)
	m.Header.Sequence = seq
	return m
}
