package ctlplane

import (
	"context"
	"errors"
	"net"
	"net/rpc"
	"os"
	"sync"
	"time"

	"grimm.is/spring/internal/brand"
	"grimm.is/spring/internal/clock"
	"grimm.is/spring/internal/config"
	"grimm.is/spring/internal/dispatch"
	serr "grimm.is/spring/internal/errors"
	"grimm.is/spring/internal/logging"
	"grimm.is/spring/internal/metrics"
	"grimm.is/spring/internal/network"
	"grimm.is/spring/internal/phase"
)

// Server is the control socket RPC server.
type Server struct {
	dispatcher *dispatch.Dispatcher
	runner     *phase.Runner
	store      *config.Store

	metrics  *metrics.Registry
	watchdog *metrics.Collector
	logger   *logging.Logger

	configFile string
	kernel     network.Options
	clock      clock.Clock
	startedAt  time.Time

	rpc      *rpc.Server
	mu       sync.Mutex
	ctx      context.Context
	listener net.Listener
	socket   string
	conns    map[net.Conn]struct{}
	stopped  bool
	serving  sync.WaitGroup
}

// NewServer creates a new control plane server
func NewServer(d *dispatch.Dispatcher, runner *phase.Runner, store *config.Store) *Server {
	return &Server{
		dispatcher: d,
		runner:     runner,
		store:      store,
		logger:     logging.WithComponent("ctlplane"),
		clock:      &clock.RealClock{},
		startedAt:  clock.Now(),
	}
}

// SetClock replaces the time source used for status uptime. It resets the
// start time to clk's current time.
func (s *Server) SetClock(clk clock.Clock) {
	s.clock = clk
	s.startedAt = clk.Now()
}

// SetMetrics injects the metrics registry
func (s *Server) SetMetrics(reg *metrics.Registry) {
	s.metrics = reg
}

// SetWatchdog injects the watchdog whose last sample is reported by GetStatus
func (s *Server) SetWatchdog(c *metrics.Collector) {
	s.watchdog = c
}

// SetConfigInfo records the configuration reported by GetStatus
func (s *Server) SetConfigInfo(configFile string, kernel network.Options) {
	s.configFile = configFile
	s.kernel = kernel
}

func (s *Server) count(method string) {
	if s.metrics != nil {
		s.metrics.RecordControlCall(method)
	}
}

// serveContext returns the context passed to Start, or Background before
// Start.
func (s *Server) serveContext() context.Context {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ctx == nil {
		return context.Background()
	}
	return s.ctx
}

func stoppedError(err error) error {
	return serr.Wrap(err, serr.KindUnavailable, "control plane is shutting down")
}

// Call invokes one dispatch operation.
func (s *Server) Call(args *CallArgs, reply *CallReply) error {
	s.count("Call")
	reply.RequestID = args.RequestID

	ctx := s.serveContext()
	var (
		v   dispatch.Value
		err error
	)
	if cerr := ctx.Err(); cerr != nil {
		err = stoppedError(cerr)
	} else if len(args.Words) > 0 {
		v, err = s.dispatcher.CallStrings(ctx, args.Operation, args.Words)
	} else {
		v, err = s.dispatcher.Call(ctx, args.Operation, args.Args)
	}

	log := s.logger.WithFields(map[string]any{"request_id": args.RequestID, "operation": args.Operation})
	if err != nil {
		reply.ErrorKind = serr.GetKind(err).String()
		reply.Error = err.Error()
		log.Debug("call failed", "kind", reply.ErrorKind, "error", err)
		return nil
	}
	reply.Result = v
	log.Debug("call done")
	return nil
}

// ListOperations returns the dispatch table.
func (s *Server) ListOperations(args *Empty, reply *ListOperationsReply) error {
	s.count("ListOperations")
	for _, op := range s.dispatcher.Operations() {
		reply.Operations = append(reply.Operations, OperationInfo{
			Name:      op.Name,
			Signature: op.Signature(),
			Help:      op.Help,
			Mutates:   op.Mutates,
		})
	}
	return nil
}

// GetStatus returns the current daemon status
func (s *Server) GetStatus(args *Empty, reply *GetStatusReply) error {
	s.count("GetStatus")
	st := Status{
		Running:         true,
		Version:         brand.Version,
		PID:             os.Getpid(),
		StartedAt:       s.startedAt,
		Uptime:          s.clock.Since(s.startedAt),
		ConfigFile:      s.configFile,
		Acknowledge:     s.kernel.Acknowledge,
		RecvBuffer:      s.kernel.RecvBuffer,
		FollowMultipart: s.kernel.FollowMultipart,
		Timeout:         s.kernel.Timeout,
	}
	s.mu.Lock()
	st.Socket = s.socket
	s.mu.Unlock()
	if s.runner != nil {
		st.Phases = s.runner.Names()
	}
	if s.watchdog != nil {
		st.Watchdog = s.watchdog.Snapshot()
	}
	reply.Status = st
	return nil
}

// RunPhase runs a configured phase synchronously.
func (s *Server) RunPhase(args *RunPhaseArgs, reply *RunPhaseReply) error {
	s.count("RunPhase")
	if s.runner == nil {
		return serr.New(serr.KindInternal, "phase runner not initialized")
	}
	ctx := s.serveContext()
	if err := ctx.Err(); err != nil {
		err = stoppedError(err)
		reply.ErrorKind = serr.GetKind(err).String()
		reply.Error = err.Error()
		return nil
	}
	rep, err := s.runner.Run(ctx, args.Name)
	if rep != nil {
		reply.Report = *rep
	}
	if err != nil {
		reply.ErrorKind = serr.GetKind(err).String()
		reply.Error = err.Error()
	}
	s.logger.Info("phase run via control socket", "request_id", args.RequestID, "phase", args.Name, "error", reply.Error)
	return nil
}

// GetOption reads one option from the store.
func (s *Server) GetOption(args *GetOptionArgs, reply *GetOptionReply) error {
	s.count("GetOption")
	reply.Value, reply.Set = s.store.GetOption(args.Key)
	return nil
}

// SetOption applies a "key=value" assignment to the store.
func (s *Server) SetOption(args *SetOptionArgs, reply *Empty) error {
	s.count("SetOption")
	if err := s.store.SetOption(args.Assignment); err != nil {
		return err
	}
	s.logger.Audit("set_option", args.Assignment, nil)
	return nil
}

// ListOptions returns every option.
func (s *Server) ListOptions(args *Empty, reply *ListOptionsReply) error {
	s.count("ListOptions")
	reply.Options = make(map[string]string)
	for _, k := range s.store.Keys() {
		reply.Options[k], _ = s.store.GetOption(k)
	}
	return nil
}

// Start listens on path and serves until ctx is cancelled. It returns once
// the socket is bound.
func (s *Server) Start(ctx context.Context, path string) error {
	// Remove a stale socket left by a previous run
	os.Remove(path)

	listener, err := net.Listen("unix", path)
	if err != nil {
		return serr.Wrapf(err, serr.KindSocket, "failed to listen on %s", path)
	}

	// Any local user may issue operations.
	if err := os.Chmod(path, 0666); err != nil {
		listener.Close()
		return serr.Wrap(err, serr.KindSocket, "failed to set socket permissions")
	}

	s.mu.Lock()
	s.socket = path
	s.mu.Unlock()
	return s.StartWithListener(ctx, listener)
}

// StartWithListener serves on an existing listener until ctx is cancelled.
// Operations run under ctx; cancelling it closes the listener and every
// accepted connection.
func (s *Server) StartWithListener(ctx context.Context, listener net.Listener) error {
	s.rpc = rpc.NewServer()
	if err := s.rpc.Register(s); err != nil {
		return serr.Wrap(err, serr.KindInternal, "failed to register RPC service")
	}

	s.mu.Lock()
	s.ctx = ctx
	s.listener = listener
	s.conns = make(map[net.Conn]struct{})
	s.stopped = false
	s.mu.Unlock()

	s.logger.Info("Control plane listening", "addr", listener.Addr().String())

	go func() {
		<-ctx.Done()
		// Listener first so a client cannot redial once its connection drops.
		listener.Close()
		s.closeConns()
	}()

	go func() {
		for {
			conn, err := listener.Accept()
			if err != nil {
				// If the listener is closed, we exit
				if errors.Is(err, net.ErrClosed) {
					s.logger.Info("Control plane stopped")
					return
				}
				s.logger.Warn("Accept error", "error", err)
				return
			}
			if !s.track(conn) {
				conn.Close()
				continue
			}
			go func() {
				defer s.untrack(conn)
				defer func() {
					if r := recover(); r != nil {
						s.logger.Error("RPC connection handler panicked", "panic", r)
					}
				}()
				s.rpc.ServeConn(conn)
			}()
		}
	}()

	return nil
}

func (s *Server) track(conn net.Conn) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return false
	}
	s.conns[conn] = struct{}{}
	s.serving.Add(1)
	return true
}

func (s *Server) untrack(conn net.Conn) {
	s.mu.Lock()
	delete(s.conns, conn)
	s.mu.Unlock()
	s.serving.Done()
}

// Wait stops accepting new connections and blocks until every accepted
// connection, including its in-flight calls, has finished. Call it after
// the serve context is cancelled.
func (s *Server) Wait() {
	s.mu.Lock()
	s.stopped = true
	s.mu.Unlock()
	s.serving.Wait()
}

func (s *Server) closeConns() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopped = true
	for conn := range s.conns {
		conn.Close()
		delete(s.conns, conn)
	}
}

// Addr returns the listening address, or nil before Start.
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}
