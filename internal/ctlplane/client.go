package ctlplane

import (
	"errors"
	"fmt"
	"net/rpc"
	"strings"
	"sync"

	"github.com/google/uuid"

	"grimm.is/spring/internal/dispatch"
	serr "grimm.is/spring/internal/errors"
	"grimm.is/spring/internal/phase"
)

// Client is the RPC client for the control socket.
type Client struct {
	path   string
	client *rpc.Client
	mu     sync.RWMutex
}

// NewClient connects to the control socket at path. An empty path uses
// GetSocketPath().
func NewClient(path string) (*Client, error) {
	if path == "" {
		path = GetSocketPath()
	}
	client, err := rpc.Dial("unix", path)
	if err != nil {
		return nil, serr.Wrapf(err, serr.KindUnavailable, "failed to connect to control socket at %s", path)
	}
	return &Client{path: path, client: client}, nil
}

// Close closes the RPC connection
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.client != nil {
		return c.client.Close()
	}
	return nil
}

// call wraps the RPC call with reconnection logic
func (c *Client) call(serviceMethod string, args any, reply any) error {
	c.mu.RLock()
	client := c.client
	c.mu.RUnlock()

	if client == nil {
		if err := c.reconnect(nil); err != nil {
			return err
		}
		c.mu.RLock()
		client = c.client
		c.mu.RUnlock()
	}

	err := client.Call(serviceMethod, args, reply)
	if err == nil {
		return nil
	}

	if errors.Is(err, rpc.ErrShutdown) || isNetworkError(err) {
		// Pass the failed client so concurrent callers reconnect once.
		if recErr := c.reconnect(client); recErr != nil {
			return fmt.Errorf("RPC call failed (%v) and reconnection failed: %w", err, recErr)
		}

		c.mu.RLock()
		client = c.client
		c.mu.RUnlock()
		return client.Call(serviceMethod, args, reply)
	}

	return err
}

func (c *Client) reconnect(oldClient *rpc.Client) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.client != oldClient && c.client != nil {
		return nil
	}

	if c.client != nil {
		c.client.Close()
	}

	client, err := rpc.Dial("unix", c.path)
	if err != nil {
		return serr.Wrap(err, serr.KindUnavailable, "failed to reconnect to control socket")
	}

	c.client = client
	return nil
}

func isNetworkError(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "connection is shut down") ||
		strings.Contains(msg, "broken pipe") ||
		strings.Contains(msg, "connection reset by peer") ||
		strings.Contains(msg, "bad file descriptor") ||
		strings.Contains(msg, "unexpected EOF") ||
		strings.Contains(msg, "use of closed network connection")
}

// remoteError rebuilds a kinded error carried in a reply.
func remoteError(kind, msg string) error {
	if msg == "" {
		return nil
	}
	return serr.New(serr.ParseKind(kind), msg)
}

// Call invokes an operation with typed arguments.
func (c *Client) Call(operation string, args ...dispatch.Value) (dispatch.Value, error) {
	return c.invoke(&CallArgs{Operation: operation, Args: args})
}

// CallStrings invokes an operation with string words that the daemon
// parses against the operation's parameter types.
func (c *Client) CallStrings(operation string, words []string) (dispatch.Value, error) {
	return c.invoke(&CallArgs{Operation: operation, Words: words})
}

func (c *Client) invoke(args *CallArgs) (dispatch.Value, error) {
	args.RequestID = uuid.NewString()
	var reply CallReply
	if err := c.call("Server.Call", args, &reply); err != nil {
		return dispatch.Nil, err
	}
	if err := remoteError(reply.ErrorKind, reply.Error); err != nil {
		return dispatch.Nil, err
	}
	return reply.Result, nil
}

// ListOperations returns the daemon's dispatch table.
func (c *Client) ListOperations() ([]OperationInfo, error) {
	var reply ListOperationsReply
	if err := c.call("Server.ListOperations", &Empty{}, &reply); err != nil {
		return nil, err
	}
	return reply.Operations, nil
}

// GetStatus returns the current daemon status
func (c *Client) GetStatus() (*Status, error) {
	var reply GetStatusReply
	if err := c.call("Server.GetStatus", &Empty{}, &reply); err != nil {
		return nil, err
	}
	return &reply.Status, nil
}

// RunPhase runs a configured phase and returns its report.
func (c *Client) RunPhase(name string) (*phase.Report, error) {
	var reply RunPhaseReply
	if err := c.call("Server.RunPhase", &RunPhaseArgs{RequestID: uuid.NewString(), Name: name}, &reply); err != nil {
		return nil, err
	}
	return &reply.Report, remoteError(reply.ErrorKind, reply.Error)
}

// GetOption reads one runtime option.
func (c *Client) GetOption(key string) (string, bool, error) {
	var reply GetOptionReply
	if err := c.call("Server.GetOption", &GetOptionArgs{Key: key}, &reply); err != nil {
		return "", false, err
	}
	return reply.Value, reply.Set, nil
}

// SetOption applies a "key=value" assignment.
func (c *Client) SetOption(assignment string) error {
	return c.call("Server.SetOption", &SetOptionArgs{Assignment: assignment}, &Empty{})
}

// ListOptions returns every runtime option.
func (c *Client) ListOptions() (map[string]string, error) {
	var reply ListOptionsReply
	if err := c.call("Server.ListOptions", &Empty{}, &reply); err != nil {
		return nil, err
	}
	return reply.Options, nil
}
