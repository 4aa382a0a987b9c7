package config

import (
	"time"

	"github.com/zclconf/go-cty/cty"
)

// CurrentSchemaVersion defines the current schema version of the configuration.
const CurrentSchemaVersion = "1.0"

// Config is the top-level daemon configuration.
type Config struct {
	// Schema version; empty means CurrentSchemaVersion.
	SchemaVersion string `hcl:"schema_version,optional"`

	LogLevel string `hcl:"log_level,optional"`

	Control  *ControlConfig  `hcl:"control,block"`
	Kernel   *KernelConfig   `hcl:"kernel,block"`
	Watchdog *WatchdogConfig `hcl:"watchdog,block"`
	Metrics  *MetricsConfig  `hcl:"metrics,block"`

	// Options seeds the option store read by GetOption/GetBoolOption.
	Options map[string]string `hcl:"options,optional"`

	Phases    []Phase  `hcl:"phase,block"`
	RunPhases []string `hcl:"run_phases,optional"`
}

// ControlConfig configures the control socket.
type ControlConfig struct {
	// Socket path; empty means brand.GetSocketPath().
	Socket string `hcl:"socket,optional"`
}

// KernelConfig tunes kernel messaging.
type KernelConfig struct {
	Acknowledge     bool   `hcl:"acknowledge,optional"`
	RecvBuffer      int    `hcl:"recv_buffer,optional"`
	FollowMultipart bool   `hcl:"follow_multipart,optional"`
	Timeout         string `hcl:"timeout,optional"` // e.g. "2s"; empty means none
}

// WatchdogConfig configures the periodic sampler.
type WatchdogConfig struct {
	Interval string `hcl:"interval,optional"` // default "1s"
}

// MetricsConfig configures the Prometheus listener.
type MetricsConfig struct {
	// Listen address such as "127.0.0.1:9109"; empty disables the listener.
	Listen string `hcl:"listen,optional"`
}

// Phase is a named sequence of operations.
type Phase struct {
	Name            string `hcl:"name,label"`
	ContinueOnError bool   `hcl:"continue_on_error,optional"`
	Steps           []Step `hcl:"step,block"`
}

// Step calls one operation. Args is a tuple or list of strings and
// numbers, passed positionally.
type Step struct {
	Operation string    `hcl:"operation,label"`
	Args      cty.Value `hcl:"args,optional"`
}

// Phase returns the named phase.
func (c *Config) Phase(name string) (*Phase, bool) {
	for i := range c.Phases {
		if c.Phases[i].Name == name {
			return &c.Phases[i], true
		}
	}
	return nil, false
}

// KernelTimeout returns the parsed kernel timeout, zero when unset.
func (c *Config) KernelTimeout() time.Duration {
	if c.Kernel == nil || c.Kernel.Timeout == "" {
		return 0
	}
	d, _ := time.ParseDuration(c.Kernel.Timeout)
	return d
}

// WatchdogInterval returns the parsed watchdog interval, one second when
// unset.
func (c *Config) WatchdogInterval() time.Duration {
	if c.Watchdog == nil || c.Watchdog.Interval == "" {
		return time.Second
	}
	d, err := time.ParseDuration(c.Watchdog.Interval)
	if err != nil || d <= 0 {
		return time.Second
	}
	return d
}

// Default returns the configuration used when no file exists.
func Default() *Config {
	return &Config{
		SchemaVersion: CurrentSchemaVersion,
		Control:       &ControlConfig{},
		Kernel:        &KernelConfig{},
		Watchdog:      &WatchdogConfig{},
		Metrics:       &MetricsConfig{},
		Options:       map[string]string{},
	}
}
