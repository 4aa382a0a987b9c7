package dispatch

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"grimm.is/spring/internal/errors"
	"grimm.is/spring/internal/metrics"
	"grimm.is/spring/internal/network"
)

var submitted = network.Result{Outcome: network.Submitted, Sequence: 7}

func TestOperationTable(t *testing.T) {
	d := New(new(MockBackend), nil)

	var names []string
	for _, op := range d.Operations() {
		names = append(names, op.Name)
	}
	assert.Equal(t, []string{
		"add_route", "delete_route", "get_ifname_from_idx", "get_if_ipv4", "get_netmask",
		"get_mtu", "get_mac_addr", "get_if_idx", "get_if_ipv6", "get_if_ipv6_from_idx",
		"get_if_ipv6_from_name", "get_if_flags", "get_if_driver", "set_interface_state",
		"rename_interface", "set_interface_mtu", "set_interface_ip", "set_interface_flags",
		"delete_interface", "set_link_state", "set_broadcast_address", "set_subnet_mask",
		"add_arp_entry", "list_interfaces",
	}, names)

	op, ok := d.Lookup("add_route")
	require.True(t, ok)
	assert.Equal(t, "add_route(dest string, netmask string, gateway string, dev string) -> string", op.Signature())
	assert.True(t, op.Mutates)

	op, ok = d.Lookup("list_interfaces")
	require.True(t, ok)
	assert.Equal(t, "list_interfaces(max int = 128) -> list", op.Signature())
	assert.False(t, op.Mutates)
}

func TestCallQueries(t *testing.T) {
	b := new(MockBackend)
	d := New(b, metrics.Get())
	ctx := context.Background()

	b.On("MTU", "eth0").Return(uint32(1500), nil).Once()
	v, err := d.Call(ctx, "get_mtu", []Value{String("eth0")})
	require.NoError(t, err)
	assert.Equal(t, Int(1500), v)

	b.On("InterfaceName", int32(2)).Return("eth0", nil).Once()
	v, err = d.Call(ctx, "get_ifname_from_idx", []Value{Int(2)})
	require.NoError(t, err)
	assert.Equal(t, String("eth0"), v)

	b.On("IPv6", "eth0").Return("2001:db8::1", nil).Twice()
	v, err = d.Call(ctx, "get_if_ipv6", []Value{String("eth0")})
	require.NoError(t, err)
	assert.Equal(t, "2001:db8::1", v.Str)
	_, err = d.Call(ctx, "get_if_ipv6_from_name", []Value{String("eth0")})
	require.NoError(t, err)

	b.AssertExpectations(t)
}

func TestCallMutations(t *testing.T) {
	b := new(MockBackend)
	d := New(b, nil)
	ctx := context.Background()

	b.On("SetState", "eth0", true).Return(submitted, nil).Once()
	v, err := d.Call(ctx, "set_interface_state", []Value{String("eth0"), Int(5)})
	require.NoError(t, err)
	assert.Equal(t, String("submitted"), v)

	b.On("SetLinkState", "eth0", false).Return(submitted, nil).Once()
	_, err = d.Call(ctx, "set_link_state", []Value{String("eth0"), Int(0)})
	require.NoError(t, err)

	b.On("AddRoute", "192.168.1.0", "255.255.255.0", "192.168.1.1", "eth0").
		Return(network.Result{Outcome: network.Acknowledged}, nil).Once()
	v, err = d.Call(ctx, "add_route", []Value{
		String("192.168.1.0"), String("255.255.255.0"), String("192.168.1.1"), String("eth0"),
	})
	require.NoError(t, err)
	assert.Equal(t, "acknowledged", v.Str)

	b.On("AddNeighbor", "eth0", "10.0.0.2", "aa:bb:cc:dd:ee:ff").Return(submitted, nil).Once()
	_, err = d.Call(ctx, "add_arp_entry", []Value{String("eth0"), String("10.0.0.2"), String("aa:bb:cc:dd:ee:ff")})
	require.NoError(t, err)

	b.AssertExpectations(t)
}

func TestArgumentErrorsBeforeBackend(t *testing.T) {
	b := new(MockBackend)
	d := New(b, metrics.Get())
	ctx := context.Background()

	cases := map[string]struct {
		op   string
		args []Value
	}{
		"too few":          {"get_mtu", nil},
		"too many":         {"get_mtu", []Value{String("eth0"), String("eth1")}},
		"wrong type":       {"get_mtu", []Value{Int(1)}},
		"string for int":   {"set_interface_mtu", []Value{String("eth0"), String("1400")}},
		"negative mtu":     {"set_interface_mtu", []Value{String("eth0"), Int(-1)}},
		"index overflow":   {"get_ifname_from_idx", []Value{Int(1 << 40)}},
		"flag overflow":    {"set_interface_flags", []Value{String("eth0"), Int(1 << 33), Int(0)}},
		"zero max":         {"list_interfaces", []Value{Int(0)}},
		"list to route":    {"add_route", []Value{List(nil), String(""), String(""), String("")}},
		"unknown":          {"reboot", nil},
		"delete_route arg": {"delete_route", []Value{String("a"), String("b")}},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := d.Call(ctx, tc.op, tc.args)
			require.Error(t, err)
			assert.True(t, errors.IsKind(err, errors.KindArgument), "got %v", err)
		})
	}
	b.AssertNotCalled(t, "MTU")
	b.AssertExpectations(t)
}

func TestBackendErrorKeepsKind(t *testing.T) {
	b := new(MockBackend)
	d := New(b, nil)

	b.On("SetIPv4", "eth0", "not-an-ip").
		Return(network.Result{}, errors.New(errors.KindAddressFormat, "invalid IPv4 address")).Once()

	v, err := d.Call(context.Background(), "set_interface_ip", []Value{String("eth0"), String("not-an-ip")})
	assert.Equal(t, Nil, v)
	assert.True(t, errors.IsKind(err, errors.KindAddressFormat))
	b.AssertExpectations(t)
}

func TestListInterfacesDefault(t *testing.T) {
	b := new(MockBackend)
	d := New(b, nil)

	list := []network.Interface{{Index: 1, Name: "lo"}, {Index: 2, Name: "eth0"}}
	b.On("ListInterfaces", network.MaxInterfaces).Return(list, nil).Once()
	b.On("ListInterfaces", 1).Return(list[:1], nil).Once()

	v, err := d.Call(context.Background(), "list_interfaces", nil)
	require.NoError(t, err)
	assert.Equal(t, TypeList, v.Type)
	assert.Equal(t, "1\tlo\n2\teth0", v.String())

	v, err = d.Call(context.Background(), "list_interfaces", []Value{Int(1)})
	require.NoError(t, err)
	assert.Len(t, v.List, 1)

	b.AssertExpectations(t)
}

func TestCallStrings(t *testing.T) {
	b := new(MockBackend)
	d := New(b, nil)
	ctx := context.Background()

	b.On("SetFlags", "eth0", uint32(0x1003), uint32(0)).Return(submitted, nil).Once()
	_, err := d.CallStrings(ctx, "set_interface_flags", []string{"eth0", "0x1003", "0"})
	require.NoError(t, err)

	b.On("SetMTU", "eth0", uint32(1400)).Return(submitted, nil).Once()
	_, err = d.CallStrings(ctx, "set_interface_mtu", []string{"eth0", "1400"})
	require.NoError(t, err)

	_, err = d.CallStrings(ctx, "set_interface_mtu", []string{"eth0", "big"})
	assert.True(t, errors.IsKind(err, errors.KindArgument))
	assert.Equal(t, "mtu", errors.GetAttributes(err)["param"])

	_, err = d.CallStrings(ctx, "get_mtu", []string{"eth0", "extra"})
	assert.True(t, errors.IsKind(err, errors.KindArgument))

	_, err = d.CallStrings(ctx, "nope", nil)
	assert.True(t, errors.IsKind(err, errors.KindArgument))

	b.AssertExpectations(t)
}
