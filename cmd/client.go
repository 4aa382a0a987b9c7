package cmd

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"text/tabwriter"

	"grimm.is/spring/internal/brand"
	"grimm.is/spring/internal/ctlplane"
)

func connect(socketPath string) (*ctlplane.Client, error) {
	client, err := ctlplane.NewClient(socketPath)
	if err != nil {
		return nil, fmt.Errorf("%w\nIs the daemon running? Start with: %s run", err, brand.BinaryName)
	}
	return client, nil
}

// RunCall sends one operation to the daemon and prints its result.
func RunCall(socketPath, operation string, words []string) error {
	client, err := connect(socketPath)
	if err != nil {
		return err
	}
	defer client.Close()

	v, err := client.CallStrings(operation, words)
	if err != nil {
		return err
	}
	Printer.Println(v.String())
	return nil
}

// RunOps prints the daemon's operation table.
func RunOps(socketPath string, verbose bool) error {
	client, err := connect(socketPath)
	if err != nil {
		return err
	}
	defer client.Close()

	ops, err := client.ListOperations()
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
	for _, op := range ops {
		kind := "query"
		if op.Mutates {
			kind = "mutate"
		}
		if verbose {
			Printer.Fprintf(w, "%s\t%s\t%s\n", op.Signature, kind, op.Help)
		} else {
			Printer.Fprintf(w, "%s\t%s\n", op.Name, kind)
		}
	}
	return w.Flush()
}

// RunPhase asks the daemon to run a configured phase and prints the report.
func RunPhase(socketPath, name string) error {
	client, err := connect(socketPath)
	if err != nil {
		return err
	}
	defer client.Close()

	rep, runErr := client.RunPhase(name)
	if rep != nil {
		w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
		Printer.Fprintln(w, "STEP\tOPERATION\tRESULT")
		for i, s := range rep.Steps {
			result := s.Result.String()
			if s.Error != "" {
				result = "error (" + s.ErrorKind + "): " + s.Error
			}
			Printer.Fprintf(w, "%d\t%s\t%s\n", i+1, s.Operation, result)
		}
		w.Flush()
		if rep.Failed > 0 {
			Printer.Printf("%d step(s) failed\n", rep.Failed)
		}
	}
	return runErr
}

// RunStatus queries the daemon for current status and prints it
func RunStatus(socketPath string) error {
	client, err := connect(socketPath)
	if err != nil {
		return err
	}
	defer client.Close()

	status, err := client.GetStatus()
	if err != nil {
		return fmt.Errorf("failed to get status: %w", err)
	}

	Printer.Printf("=== %s Status ===\n", brand.Name)
	Printer.Println()
	if status.Running {
		Printer.Println("Status:     RUNNING")
	} else {
		Printer.Println("Status:     STOPPED")
	}
	Printer.Printf("Version:    %s\n", status.Version)
	Printer.Printf("PID:        %d\n", status.PID)
	Printer.Printf("Uptime:     %s\n", status.Uptime)
	Printer.Printf("Config:     %s\n", status.ConfigFile)
	Printer.Printf("Socket:     %s\n", status.Socket)
	Printer.Println()
	Printer.Printf("Acknowledge:      %t\n", status.Acknowledge)
	Printer.Printf("Follow multipart: %t\n", status.FollowMultipart)
	Printer.Printf("Receive buffer:   %d\n", status.RecvBuffer)
	if status.Timeout > 0 {
		Printer.Printf("Kernel timeout:   %s\n", status.Timeout)
	}
	Printer.Println()
	Printer.Println("Watchdog:")
	Printer.Printf("  System uptime: %s\n", status.Watchdog.Uptime)
	Printer.Printf("  Interfaces:    %d\n", status.Watchdog.Interfaces)
	Printer.Printf("  Samples:       %d (%d failed)\n", status.Watchdog.Samples, status.Watchdog.Failures)
	if len(status.Phases) > 0 {
		Printer.Println()
		Printer.Println("Phases:")
		for _, p := range status.Phases {
			Printer.Printf("  %s\n", p)
		}
	}
	return nil
}

// RunOption reads, sets, or lists runtime options. With no arguments it
// lists every option; "key" prints one; "key=value" sets it.
func RunOption(socketPath string, args []string) error {
	client, err := connect(socketPath)
	if err != nil {
		return err
	}
	defer client.Close()

	switch {
	case len(args) == 0:
		opts, err := client.ListOptions()
		if err != nil {
			return err
		}
		keys := make([]string, 0, len(opts))
		for k := range opts {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			Printer.Printf("%s=%s\n", k, opts[k])
		}
		return nil
	case len(args) > 1:
		return fmt.Errorf("usage: %s option [key | key=value]", brand.BinaryName)
	}

	if strings.Contains(args[0], "=") {
		return client.SetOption(args[0])
	}
	v, set, err := client.GetOption(args[0])
	if err != nil {
		return err
	}
	if !set {
		return fmt.Errorf("option %q is not set", args[0])
	}
	Printer.Println(v)
	return nil
}
