package cmd

import (
	"fmt"
	"io"
	"text/tabwriter"

	"grimm.is/spring/internal/brand"
	"grimm.is/spring/internal/config"
	"grimm.is/spring/internal/dispatch"
	"grimm.is/spring/internal/phase"
)

// RunCheck validates the configuration file syntax and semantics without
// touching the kernel.
func RunCheck(out io.Writer, configFile string, verbose bool) error {
	if len(configFile) == 0 {
		return fmt.Errorf("usage: %s check [-v] <config-file>\nExample: %s check -v %s", brand.BinaryName, brand.BinaryName, brand.GetConfigPath())
	}

	cfg, err := config.LoadFile(configFile)
	if err != nil {
		return fmt.Errorf("configuration invalid: %w", err)
	}

	d := dispatch.New(nil, nil)
	runner := phase.NewRunner(d, cfg.Phases, nil)
	if err := runner.Validate(); err != nil {
		return fmt.Errorf("configuration invalid: %w", err)
	}

	Printer.Fprintf(out, "Configuration valid!\n")
	Printer.Fprintf(out, "Schema Version: %s\n", cfg.SchemaVersion)
	Printer.Fprintf(out, "Phases: %d\n", len(cfg.Phases))
	Printer.Fprintf(out, "Options: %d\n", len(cfg.Options))

	if verbose {
		Printer.Fprintln(out)
		printSummary(out, cfg, d)
	}
	return nil
}

func printSummary(out io.Writer, cfg *config.Config, d *dispatch.Dispatcher) {
	w := tabwriter.NewWriter(out, 0, 0, 3, ' ', 0)

	Printer.Fprintln(w, "PHASE\tSTEP\tCALL\tON ERROR")
	for _, p := range cfg.Phases {
		onError := "stop"
		if p.ContinueOnError {
			onError = "continue"
		}
		for i, s := range p.Steps {
			args, _ := phase.ConvertArgs(s.Args)
			Printer.Fprintf(w, "%s\t%d\t%s\t%s\n", p.Name, i+1, describeCall(d, s.Operation, args), onError)
		}
	}
	w.Flush()

	if len(cfg.RunPhases) > 0 {
		Printer.Fprintf(out, "\nRun at startup: %v\n", cfg.RunPhases)
	}
	Printer.Fprintf(out, "Kernel: acknowledge=%t follow_multipart=%t recv_buffer=%d timeout=%s\n",
		cfg.Kernel.Acknowledge, cfg.Kernel.FollowMultipart, cfg.Kernel.RecvBuffer, cfg.KernelTimeout())
	Printer.Fprintf(out, "Watchdog interval: %s\n", cfg.WatchdogInterval())
	if cfg.Metrics.Listen != "" {
		Printer.Fprintf(out, "Metrics: %s\n", cfg.Metrics.Listen)
	}
}

// describeCall renders a step the way it will be called, defaults included.
func describeCall(d *dispatch.Dispatcher, name string, args []dispatch.Value) string {
	op, ok := d.Lookup(name)
	if !ok {
		return name + "(?)"
	}
	bound, err := op.Bind(args)
	if err != nil {
		return name + "(?)"
	}
	s := name + "("
	for i, v := range bound {
		if i > 0 {
			s += ", "
		}
		if v.Type == dispatch.TypeString {
			s += fmt.Sprintf("%q", v.Str)
		} else {
			s += v.String()
		}
	}
	return s + ")"
}
