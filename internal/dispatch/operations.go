package dispatch

import (
	"context"
	"math"
	"strings"

	"grimm.is/spring/internal/errors"
	"grimm.is/spring/internal/network"
)

// Param describes one positional parameter.
type Param struct {
	Name string
	Type Type
	// Default, when set, makes this and every later parameter optional.
	Default *Value
}

// Operation is one named entry in the dispatch table.
type Operation struct {
	Name    string
	Params  []Param
	Returns Type
	Mutates bool
	Help    string

	run func(ctx context.Context, b Backend, args []Value) (Value, error)
}

// Signature renders the operation as name(param type, ...) -> type.
func (op *Operation) Signature() string {
	var b strings.Builder
	b.WriteString(op.Name)
	b.WriteByte('(')
	for i, p := range op.Params {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(p.Name)
		b.WriteByte(' ')
		b.WriteString(p.Type.String())
		if p.Default != nil {
			b.WriteString(" = ")
			b.WriteString(p.Default.String())
		}
	}
	b.WriteString(") -> ")
	b.WriteString(op.Returns.String())
	return b.String()
}

// Bind checks args against the parameter list without calling anything
// and returns them with defaults filled in.
func (op *Operation) Bind(args []Value) ([]Value, error) {
	return bind(op, args)
}

func (op *Operation) required() int {
	for i, p := range op.Params {
		if p.Default != nil {
			return i
		}
	}
	return len(op.Params)
}

func str(name string) Param { return Param{Name: name, Type: TypeString} }
func num(name string) Param { return Param{Name: name, Type: TypeInt} }

func index32(op string, v Value) (int32, error) {
	if v.Int < math.MinInt32 || v.Int > math.MaxInt32 {
		return 0, errors.Attr(errors.Errorf(errors.KindArgument, "%s: index %d out of range", op, v.Int), "operation", op)
	}
	return int32(v.Int), nil
}

func uint32Arg(op, name string, v Value) (uint32, error) {
	if v.Int < 0 || v.Int > math.MaxUint32 {
		return 0, errors.Attr(errors.Errorf(errors.KindArgument, "%s: %s %d out of range", op, name, v.Int), "operation", op)
	}
	return uint32(v.Int), nil
}

func outcome(r network.Result, err error) (Value, error) {
	if err != nil {
		return Nil, err
	}
	return String(r.Outcome.String()), nil
}

func stringResult(s string, err error) (Value, error) {
	if err != nil {
		return Nil, err
	}
	return String(s), nil
}

func uintResult(n uint32, err error) (Value, error) {
	if err != nil {
		return Nil, err
	}
	return Int(int64(n)), nil
}

func indexResult(n int32, err error) (Value, error) {
	if err != nil {
		return Nil, err
	}
	return Int(int64(n)), nil
}

func query(name, help string, fn func(b Backend, ctx context.Context, iface string) (string, error)) *Operation {
	return &Operation{
		Name:    name,
		Params:  []Param{str("ifname")},
		Returns: TypeString,
		Help:    help,
		run: func(ctx context.Context, b Backend, a []Value) (Value, error) {
			return stringResult(fn(b, ctx, a[0].Str))
		},
	}
}

func addressMutation(name, param, help string, fn func(b Backend, ctx context.Context, iface, addr string) (network.Result, error)) *Operation {
	return &Operation{
		Name:    name,
		Params:  []Param{str("ifname"), str(param)},
		Returns: TypeString,
		Mutates: true,
		Help:    help,
		run: func(ctx context.Context, b Backend, a []Value) (Value, error) {
			return outcome(fn(b, ctx, a[0].Str, a[1].Str))
		},
	}
}

func stateMutation(name, help string, fn func(b Backend, ctx context.Context, iface string, up bool) (network.Result, error)) *Operation {
	return &Operation{
		Name:    name,
		Params:  []Param{str("ifname"), num("state")},
		Returns: TypeString,
		Mutates: true,
		Help:    help,
		run: func(ctx context.Context, b Backend, a []Value) (Value, error) {
			return outcome(fn(b, ctx, a[0].Str, a[1].Int != 0))
		},
	}
}

// operations returns the dispatch table in registration order.
func operations() []*Operation {
	maxDefault := Int(network.MaxInterfaces)

	return []*Operation{
		{
			Name:    "add_route",
			Params:  []Param{str("dest"), str("netmask"), str("gateway"), str("dev")},
			Returns: TypeString,
			Mutates: true,
			Help:    "Add an IPv4 gateway route",
			run: func(ctx context.Context, b Backend, a []Value) (Value, error) {
				return outcome(b.AddRoute(ctx, a[0].Str, a[1].Str, a[2].Str, a[3].Str))
			},
		},
		{
			Name:    "delete_route",
			Params:  []Param{str("dest"), str("netmask"), str("dev")},
			Returns: TypeString,
			Mutates: true,
			Help:    "Delete an IPv4 route",
			run: func(ctx context.Context, b Backend, a []Value) (Value, error) {
				return outcome(b.DeleteRoute(ctx, a[0].Str, a[1].Str, a[2].Str))
			},
		},
		{
			Name:    "get_ifname_from_idx",
			Params:  []Param{num("index")},
			Returns: TypeString,
			Help:    "Resolve an interface index to its name",
			run: func(ctx context.Context, b Backend, a []Value) (Value, error) {
				idx, err := index32("get_ifname_from_idx", a[0])
				if err != nil {
					return Nil, err
				}
				return stringResult(b.InterfaceName(ctx, idx))
			},
		},
		query("get_if_ipv4", "IPv4 address of an interface", Backend.IPv4),
		query("get_netmask", "IPv4 netmask of an interface", Backend.Netmask),
		{
			Name:    "get_mtu",
			Params:  []Param{str("ifname")},
			Returns: TypeInt,
			Help:    "MTU of an interface",
			run: func(ctx context.Context, b Backend, a []Value) (Value, error) {
				return uintResult(b.MTU(ctx, a[0].Str))
			},
		},
		query("get_mac_addr", "Hardware address of an interface", Backend.MAC),
		{
			Name:    "get_if_idx",
			Params:  []Param{str("ifname")},
			Returns: TypeInt,
			Help:    "Resolve an interface name to its index",
			run: func(ctx context.Context, b Backend, a []Value) (Value, error) {
				return indexResult(b.InterfaceIndex(ctx, a[0].Str))
			},
		},
		query("get_if_ipv6", "First IPv6 address of an interface", Backend.IPv6),
		{
			Name:    "get_if_ipv6_from_idx",
			Params:  []Param{num("index")},
			Returns: TypeString,
			Help:    "First IPv6 address of the interface with the given index",
			run: func(ctx context.Context, b Backend, a []Value) (Value, error) {
				idx, err := index32("get_if_ipv6_from_idx", a[0])
				if err != nil {
					return Nil, err
				}
				return stringResult(b.IPv6ByIndex(ctx, idx))
			},
		},
		query("get_if_ipv6_from_name", "First IPv6 address of an interface", Backend.IPv6),
		{
			Name:    "get_if_flags",
			Params:  []Param{str("ifname")},
			Returns: TypeInt,
			Help:    "IFF_* flags of an interface",
			run: func(ctx context.Context, b Backend, a []Value) (Value, error) {
				return uintResult(b.Flags(ctx, a[0].Str))
			},
		},
		query("get_if_driver", "Kernel driver bound to an interface", Backend.Driver),
		stateMutation("set_interface_state", "Bring an interface up (non-zero) or down", Backend.SetState),
		addressMutation("rename_interface", "newname", "Rename an interface", Backend.Rename),
		{
			Name:    "set_interface_mtu",
			Params:  []Param{str("ifname"), num("mtu")},
			Returns: TypeString,
			Mutates: true,
			Help:    "Set the MTU of an interface",
			run: func(ctx context.Context, b Backend, a []Value) (Value, error) {
				mtu, err := uint32Arg("set_interface_mtu", "mtu", a[1])
				if err != nil {
					return Nil, err
				}
				return outcome(b.SetMTU(ctx, a[0].Str, mtu))
			},
		},
		addressMutation("set_interface_ip", "ip", "Assign an IPv4 address", Backend.SetIPv4),
		{
			Name:    "set_interface_flags",
			Params:  []Param{str("ifname"), num("set"), num("clear")},
			Returns: TypeString,
			Mutates: true,
			Help:    "Set and clear IFF_* flag bits",
			run: func(ctx context.Context, b Backend, a []Value) (Value, error) {
				set, err := uint32Arg("set_interface_flags", "set", a[1])
				if err != nil {
					return Nil, err
				}
				clear, err := uint32Arg("set_interface_flags", "clear", a[2])
				if err != nil {
					return Nil, err
				}
				return outcome(b.SetFlags(ctx, a[0].Str, set, clear))
			},
		},
		{
			Name:    "delete_interface",
			Params:  []Param{str("ifname")},
			Returns: TypeString,
			Mutates: true,
			Help:    "Delete an interface",
			run: func(ctx context.Context, b Backend, a []Value) (Value, error) {
				return outcome(b.Delete(ctx, a[0].Str))
			},
		},
		stateMutation("set_link_state", "Set (non-zero) or clear the running flag", Backend.SetLinkState),
		addressMutation("set_broadcast_address", "broadcast", "Assign an IPv4 broadcast address", Backend.SetBroadcast),
		addressMutation("set_subnet_mask", "netmask", "Assign an IPv4 netmask", Backend.SetNetmask),
		{
			Name:    "add_arp_entry",
			Params:  []Param{str("ifname"), str("ip"), str("mac")},
			Returns: TypeString,
			Mutates: true,
			Help:    "Add a permanent neighbour entry",
			run: func(ctx context.Context, b Backend, a []Value) (Value, error) {
				return outcome(b.AddNeighbor(ctx, a[0].Str, a[1].Str, a[2].Str))
			},
		},
		{
			Name:    "list_interfaces",
			Params:  []Param{{Name: "max", Type: TypeInt, Default: &maxDefault}},
			Returns: TypeList,
			Help:    "List (index, name) pairs from a link dump",
			run: func(ctx context.Context, b Backend, a []Value) (Value, error) {
				if a[0].Int <= 0 || a[0].Int > math.MaxInt32 {
					return Nil, errors.Attr(errors.Errorf(errors.KindArgument, "list_interfaces: max %d out of range", a[0].Int), "operation", "list_interfaces")
				}
				l, err := b.ListInterfaces(ctx, int(a[0].Int))
				if err != nil {
					return Nil, err
				}
				return List(l), nil
			},
		},
	}
}
