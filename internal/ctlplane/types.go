package ctlplane

import (
	"time"

	"grimm.is/spring/internal/brand"
	"grimm.is/spring/internal/dispatch"
	"grimm.is/spring/internal/metrics"
	"grimm.is/spring/internal/phase"
)

// GetSocketPath returns the path to the control plane socket.
// This uses brand.GetSocketPath() which supports environment overrides.
func GetSocketPath() string {
	return brand.GetSocketPath()
}

// Empty is used for methods with no arguments.
type Empty struct{}

// CallArgs names an operation and its arguments. When Words is non-empty
// the server parses it against the operation's parameter types and
// ignores Args.
type CallArgs struct {
	RequestID string
	Operation string
	Args      []dispatch.Value
	Words     []string
}

// CallReply carries either a result or a kinded error.
type CallReply struct {
	RequestID string
	Result    dispatch.Value
	ErrorKind string
	Error     string
}

// OperationInfo describes one dispatch table entry.
type OperationInfo struct {
	Name      string
	Signature string
	Help      string
	Mutates   bool
}

// ListOperationsReply lists the dispatch table.
type ListOperationsReply struct {
	Operations []OperationInfo
}

// Status describes the running daemon.
type Status struct {
	Running    bool
	Version    string
	PID        int
	StartedAt  time.Time
	Uptime     time.Duration
	ConfigFile string
	Socket     string

	Acknowledge     bool
	RecvBuffer      int
	FollowMultipart bool
	Timeout         time.Duration

	Phases   []string
	Watchdog metrics.Snapshot
}

// GetStatusReply returns the daemon status.
type GetStatusReply struct {
	Status Status
}

// RunPhaseArgs names a configured phase.
type RunPhaseArgs struct {
	RequestID string
	Name      string
}

// RunPhaseReply carries the phase report and, if the phase failed, the
// error that stopped it.
type RunPhaseReply struct {
	Report    phase.Report
	ErrorKind string
	Error     string
}

// GetOptionArgs names an option.
type GetOptionArgs struct {
	Key string
}

// GetOptionReply returns an option value.
type GetOptionReply struct {
	Value string
	Set   bool
}

// SetOptionArgs carries a "key=value" assignment.
type SetOptionArgs struct {
	Assignment string
}

// ListOptionsReply returns every option.
type ListOptionsReply struct {
	Options map[string]string
}
