package ctlplane

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/zclconf/go-cty/cty"

	"grimm.is/spring/internal/clock"
	"grimm.is/spring/internal/config"
	"grimm.is/spring/internal/dispatch"
	"grimm.is/spring/internal/errors"
	"grimm.is/spring/internal/network"
	"grimm.is/spring/internal/phase"
)

type harness struct {
	cancel  context.CancelFunc
	clock   *clock.MockClock
	backend *dispatch.MockBackend
	store   *config.Store
	server  *Server
	client  *Client
	socket  string
}

func startServer(t *testing.T) *harness {
	t.Helper()

	dir, err := os.MkdirTemp("", "spring-ctl")
	require.NoError(t, err)
	t.Cleanup(func() { os.RemoveAll(dir) })
	socket := filepath.Join(dir, "ctl.sock")

	b := new(dispatch.MockBackend)
	d := dispatch.New(b, nil)
	runner := phase.NewRunner(d, []config.Phase{{
		Name: "boot",
		Steps: []config.Step{
			{Operation: "set_interface_mtu", Args: cty.TupleVal([]cty.Value{cty.StringVal("eth0"), cty.NumberIntVal(1400)})},
		},
	}, {
		Name: "bringup",
		Steps: []config.Step{
			{Operation: "set_interface_mtu", Args: cty.TupleVal([]cty.Value{cty.StringVal("eth0"), cty.NumberIntVal(1400)})},
			{Operation: "set_interface_state", Args: cty.TupleVal([]cty.Value{cty.StringVal("eth0"), cty.NumberIntVal(1)})},
		},
	}}, nil)
	store := config.NewStore(map[string]string{config.DebugEnableKey: "0"})

	clk := clock.NewMockClock(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))
	srv := NewServer(d, runner, store)
	srv.SetClock(clk)
	srv.SetConfigInfo("/etc/spring/spring.hcl", network.Options{Acknowledge: true, RecvBuffer: 4096})

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	require.NoError(t, srv.Start(ctx, socket))

	fi, err := os.Stat(socket)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0666), fi.Mode().Perm())

	c, err := NewClient(socket)
	require.NoError(t, err)
	t.Cleanup(func() { c.Close() })

	return &harness{cancel: cancel, clock: clk, backend: b, store: store, server: srv, client: c, socket: socket}
}

func TestCall(t *testing.T) {
	h := startServer(t)
	h.backend.On("MTU", "eth0").Return(uint32(1500), nil).Once()

	v, err := h.client.Call("get_mtu", dispatch.String("eth0"))
	require.NoError(t, err)
	assert.Equal(t, dispatch.TypeInt, v.Type)
	assert.Equal(t, int64(1500), v.Int)

	h.backend.AssertExpectations(t)
}

func TestCallStrings(t *testing.T) {
	h := startServer(t)
	h.backend.On("SetMTU", "eth0", uint32(1400)).
		Return(network.Result{Outcome: network.Submitted, Sequence: 7}, nil).Once()

	v, err := h.client.CallStrings("set_interface_mtu", []string{"eth0", "1400"})
	require.NoError(t, err)
	assert.Equal(t, "submitted", v.Str)

	h.backend.AssertExpectations(t)
}

func TestCallListDefaultsMax(t *testing.T) {
	h := startServer(t)
	h.backend.On("ListInterfaces", network.MaxInterfaces).
		Return([]network.Interface{{Index: 1, Name: "lo"}, {Index: 2, Name: "eth0"}}, nil).Once()

	v, err := h.client.CallStrings("list_interfaces", nil)
	require.NoError(t, err)
	require.Equal(t, dispatch.TypeList, v.Type)
	assert.Equal(t, "1\tlo\n2\teth0", v.String())
}

func TestCallPreservesErrorKind(t *testing.T) {
	h := startServer(t)
	h.backend.On("IPv4", "eth9").
		Return("", errors.New(errors.KindNotFound, "no such device")).Once()

	_, err := h.client.Call("get_if_ipv4", dispatch.String("eth9"))
	require.Error(t, err)
	assert.True(t, errors.IsKind(err, errors.KindNotFound))

	_, err = h.client.Call("no_such_operation")
	assert.True(t, errors.IsKind(err, errors.KindArgument))

	_, err = h.client.CallStrings("get_mtu", []string{"eth0", "extra"})
	assert.True(t, errors.IsKind(err, errors.KindArgument))
}

func TestListOperations(t *testing.T) {
	h := startServer(t)

	ops, err := h.client.ListOperations()
	require.NoError(t, err)
	require.NotEmpty(t, ops)
	assert.Equal(t, "add_route", ops[0].Name)
	assert.True(t, ops[0].Mutates)

	last := ops[len(ops)-1]
	assert.Equal(t, "list_interfaces", last.Name)
	assert.Equal(t, "list_interfaces(max int = 128) -> list", last.Signature)
}

func TestGetStatus(t *testing.T) {
	h := startServer(t)
	h.clock.Advance(90 * time.Second)

	st, err := h.client.GetStatus()
	require.NoError(t, err)
	assert.True(t, st.Running)
	assert.Equal(t, os.Getpid(), st.PID)
	assert.Equal(t, h.socket, st.Socket)
	assert.Equal(t, "/etc/spring/spring.hcl", st.ConfigFile)
	assert.True(t, st.Acknowledge)
	assert.Equal(t, 4096, st.RecvBuffer)
	assert.Equal(t, []string{"boot", "bringup"}, st.Phases)
	assert.Equal(t, 90*time.Second, st.Uptime)
}

func TestRunPhase(t *testing.T) {
	h := startServer(t)
	h.backend.On("SetMTU", "eth0", uint32(1400)).
		Return(network.Result{Outcome: network.Submitted}, nil).Once()

	rep, err := h.client.RunPhase("boot")
	require.NoError(t, err)
	require.Len(t, rep.Steps, 1)
	assert.Equal(t, "submitted", rep.Steps[0].Result.Str)

	_, err = h.client.RunPhase("shutdown")
	assert.True(t, errors.IsKind(err, errors.KindNotFound))
}

func TestOptions(t *testing.T) {
	h := startServer(t)

	v, set, err := h.client.GetOption(config.DebugEnableKey)
	require.NoError(t, err)
	assert.True(t, set)
	assert.Equal(t, "0", v)

	require.NoError(t, h.client.SetOption(config.DebugEnableKey+"=on"))
	assert.True(t, h.store.GetBoolOption(config.DebugEnableKey))

	assert.Error(t, h.client.SetOption("missing-equals"))

	_, set, err = h.client.GetOption("unknown.key")
	require.NoError(t, err)
	assert.False(t, set)

	all, err := h.client.ListOptions()
	require.NoError(t, err)
	assert.Equal(t, map[string]string{config.DebugEnableKey: "on"}, all)
}

func TestClientReconnects(t *testing.T) {
	h := startServer(t)
	h.backend.On("MTU", "eth0").Return(uint32(1500), nil).Twice()

	_, err := h.client.Call("get_mtu", dispatch.String("eth0"))
	require.NoError(t, err)

	// Drop the underlying connection; the next call must redial.
	h.client.mu.RLock()
	h.client.client.Close()
	h.client.mu.RUnlock()

	v, err := h.client.Call("get_mtu", dispatch.String("eth0"))
	require.NoError(t, err)
	assert.Equal(t, int64(1500), v.Int)
}

func TestServerStopsOnCancel(t *testing.T) {
	dir, err := os.MkdirTemp("", "spring-ctl")
	require.NoError(t, err)
	defer os.RemoveAll(dir)
	socket := filepath.Join(dir, "ctl.sock")

	srv := NewServer(dispatch.New(new(dispatch.MockBackend), nil), nil, config.NewStore(nil))
	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, srv.Start(ctx, socket))
	cancel()

	assert.Eventually(t, func() bool {
		c, err := NewClient(socket)
		if err == nil {
			c.Close()
			return false
		}
		return errors.IsKind(err, errors.KindUnavailable)
	}, 2*time.Second, 10*time.Millisecond)
}

func TestCallAfterShutdownOnOpenConnection(t *testing.T) {
	h := startServer(t)
	h.backend.On("MTU", "eth0").Return(uint32(1500), nil).Once()

	_, err := h.client.Call("get_mtu", dispatch.String("eth0"))
	require.NoError(t, err)

	h.cancel()

	_, err = h.client.Call("get_mtu", dispatch.String("eth0"))
	require.Error(t, err)
	assert.True(t, errors.IsKind(err, errors.KindUnavailable), "got %v", err)
	h.backend.AssertNumberOfCalls(t, "MTU", 1)
}

func TestShutdownStopsPhaseInFlight(t *testing.T) {
	h := startServer(t)
	h.backend.On("SetMTU", "eth0", uint32(1400)).
		Return(network.Result{Outcome: network.Submitted}, nil).
		Run(func(mock.Arguments) { h.cancel() }).Once()

	_, err := h.client.RunPhase("bringup")
	require.Error(t, err)
	assert.True(t, errors.IsKind(err, errors.KindUnavailable), "got %v", err)

	h.server.Wait()
	h.backend.AssertExpectations(t)
	h.backend.AssertNotCalled(t, "SetState", "eth0", true)
}

func TestServeContextBeforeStart(t *testing.T) {
	srv := NewServer(dispatch.New(new(dispatch.MockBackend), nil), nil, config.NewStore(nil))

	var reply RunPhaseReply
	err := srv.RunPhase(&RunPhaseArgs{Name: "boot"}, &reply)
	assert.True(t, errors.IsKind(err, errors.KindInternal))
}
