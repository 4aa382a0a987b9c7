package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
)

// LoadFile loads a config file (HCL or JSON). A missing file yields
// Default().
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Default(), nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".hcl":
		return LoadHCL(data, path)
	case ".json":
		return LoadJSON(data, path)
	default:
		// Try HCL first, fall back to JSON
		cfg, err := LoadHCL(data, path)
		if err != nil {
			return LoadJSON(data, path)
		}
		return cfg, nil
	}
}

// LoadHCL loads config from HCL native syntax.
func LoadHCL(data []byte, filename string) (*Config, error) {
	file, diags := hclparse.NewParser().ParseHCL(data, filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("HCL parse error: %s", diags.Error())
	}
	return decode(file)
}

// LoadJSON loads config from the JSON form of the same schema.
func LoadJSON(data []byte, filename string) (*Config, error) {
	file, diags := hclparse.NewParser().ParseJSON(data, filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("JSON parse error: %s", diags.Error())
	}
	return decode(file)
}

func decode(file *hcl.File) (*Config, error) {
	var cfg Config
	if diags := gohcl.DecodeBody(file.Body, nil, &cfg); diags.HasErrors() {
		return nil, fmt.Errorf("HCL decode error: %s", diags.Error())
	}
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.SchemaVersion == "" {
		c.SchemaVersion = CurrentSchemaVersion
	}
	if c.Control == nil {
		c.Control = &ControlConfig{}
	}
	if c.Kernel == nil {
		c.Kernel = &KernelConfig{}
	}
	if c.Watchdog == nil {
		c.Watchdog = &WatchdogConfig{}
	}
	if c.Metrics == nil {
		c.Metrics = &MetricsConfig{}
	}
	if c.Options == nil {
		c.Options = map[string]string{}
	}
}

// Validate checks values the schema cannot express.
func (c *Config) Validate() error {
	if major, _, _ := strings.Cut(c.SchemaVersion, "."); major != "1" {
		return fmt.Errorf("unsupported config schema version %s (supported: %s)", c.SchemaVersion, CurrentSchemaVersion)
	}
	if c.Kernel != nil {
		if c.Kernel.RecvBuffer < 0 {
			return fmt.Errorf("kernel.recv_buffer must not be negative, got %d", c.Kernel.RecvBuffer)
		}
		if c.Kernel.Timeout != "" {
			if d, err := time.ParseDuration(c.Kernel.Timeout); err != nil || d < 0 {
				return fmt.Errorf("invalid kernel.timeout %q", c.Kernel.Timeout)
			}
		}
	}
	if c.Watchdog != nil && c.Watchdog.Interval != "" {
		if d, err := time.ParseDuration(c.Watchdog.Interval); err != nil || d <= 0 {
			return fmt.Errorf("invalid watchdog.interval %q", c.Watchdog.Interval)
		}
	}

	seen := make(map[string]bool, len(c.Phases))
	for _, p := range c.Phases {
		if seen[p.Name] {
			return fmt.Errorf("duplicate phase %q", p.Name)
		}
		seen[p.Name] = true
		for i, s := range p.Steps {
			if !s.Args.IsNull() && !s.Args.Type().IsTupleType() && !s.Args.Type().IsListType() {
				return fmt.Errorf("phase %q step %d (%s): args must be a list", p.Name, i+1, s.Operation)
			}
		}
	}
	for _, name := range c.RunPhases {
		if !seen[name] {
			return fmt.Errorf("run_phases references unknown phase %q", name)
		}
	}
	return nil
}
