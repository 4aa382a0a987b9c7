package main

import (
	"flag"
	"os"

	"grimm.is/spring/cmd"
	"grimm.is/spring/internal/brand"
	"grimm.is/spring/internal/i18n"
)

var printer = i18n.NewCLIPrinter()

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "run", "daemon":
		runFlags := flag.NewFlagSet("run", flag.ExitOnError)
		configFile := runFlags.String("config", brand.GetConfigPath(), "Configuration file")
		runFlags.StringVar(configFile, "c", brand.GetConfigPath(), "Configuration file (short)")
		socket := runFlags.String("socket", "", "Control socket path (overrides config)")
		runFlags.Parse(os.Args[2:])

		if err := cmd.RunDaemon(*configFile, *socket); err != nil {
			printer.Fprintf(os.Stderr, "Daemon failed: %v\n", err)
			os.Exit(1)
		}

	case "call":
		callFlags := flag.NewFlagSet("call", flag.ExitOnError)
		socket := callFlags.String("socket", "", "Control socket path")
		callFlags.Parse(os.Args[2:])

		if callFlags.NArg() < 1 {
			printer.Fprintf(os.Stderr, "Usage: %s call <operation> [args...]\n", brand.BinaryName)
			os.Exit(1)
		}
		if err := cmd.RunCall(*socket, callFlags.Arg(0), callFlags.Args()[1:]); err != nil {
			printer.Fprintf(os.Stderr, "%v\n", err)
			os.Exit(1)
		}

	case "ops":
		opsFlags := flag.NewFlagSet("ops", flag.ExitOnError)
		socket := opsFlags.String("socket", "", "Control socket path")
		verbose := opsFlags.Bool("verbose", false, "Show signatures and help")
		opsFlags.BoolVar(verbose, "v", false, "Show signatures and help (short)")
		opsFlags.Parse(os.Args[2:])

		if err := cmd.RunOps(*socket, *verbose); err != nil {
			printer.Fprintf(os.Stderr, "%v\n", err)
			os.Exit(1)
		}

	case "phase":
		phaseFlags := flag.NewFlagSet("phase", flag.ExitOnError)
		socket := phaseFlags.String("socket", "", "Control socket path")
		phaseFlags.Parse(os.Args[2:])

		if phaseFlags.NArg() != 1 {
			printer.Fprintf(os.Stderr, "Usage: %s phase <name>\n", brand.BinaryName)
			os.Exit(1)
		}
		if err := cmd.RunPhase(*socket, phaseFlags.Arg(0)); err != nil {
			printer.Fprintf(os.Stderr, "Phase failed: %v\n", err)
			os.Exit(1)
		}

	case "option":
		optionFlags := flag.NewFlagSet("option", flag.ExitOnError)
		socket := optionFlags.String("socket", "", "Control socket path")
		optionFlags.Parse(os.Args[2:])

		if err := cmd.RunOption(*socket, optionFlags.Args()); err != nil {
			printer.Fprintf(os.Stderr, "%v\n", err)
			os.Exit(1)
		}

	case "status":
		statusFlags := flag.NewFlagSet("status", flag.ExitOnError)
		socket := statusFlags.String("socket", "", "Control socket path")
		statusFlags.Parse(os.Args[2:])

		if err := cmd.RunStatus(*socket); err != nil {
			printer.Fprintf(os.Stderr, "%v\n", err)
			os.Exit(1)
		}

	case "check":
		checkFlags := flag.NewFlagSet("check", flag.ExitOnError)
		verbose := checkFlags.Bool("verbose", false, "Verbose output")
		checkFlags.BoolVar(verbose, "v", false, "Verbose output (short)")
		checkFlags.Parse(os.Args[2:])

		configFile := brand.GetConfigPath()
		if len(checkFlags.Args()) > 0 {
			configFile = checkFlags.Arg(0)
		}

		if err := cmd.RunCheck(os.Stdout, configFile, *verbose); err != nil {
			printer.Fprintf(os.Stderr, "Check failed: %v\n", err)
			os.Exit(1)
		}

	case "version", "--version", "-V":
		printer.Printf("%s %s (%s)\n", brand.BinaryName, brand.Version, brand.GitCommit)

	case "help", "--help", "-h":
		printUsage()

	default:
		printer.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	printer.Printf(`%s - %s

Usage:
  %s <command> [options]

Daemon:
  run       Run %s in the foreground (alias: daemon)
            Options: --config (-c) <file>, --socket <path>

Client Commands:
  call      Call one operation: call <operation> [args...]
  ops       List operations
            Options: --verbose (-v)
  phase     Run a configured phase: phase <name>
  option    Show options, read one (key) or set one (key=value)
  status    Show daemon status

Utility Commands:
  check     Validate configuration file
            Options: --verbose (-v)
  version   Print version

Client commands accept --socket <path> (default %s).

Examples:
  %s run -c %s
  %s call get_mtu eth0
  %s call set_interface_mtu eth0 1400
  %s call list_interfaces 16
  %s option spring.debug.enable=1
  %s check -v %s
`,
		brand.Name, brand.Description,
		brand.BinaryName, brand.DaemonName,
		brand.GetSocketPath(),
		brand.BinaryName, brand.GetConfigPath(),
		brand.BinaryName, brand.BinaryName, brand.BinaryName, brand.BinaryName,
		brand.BinaryName, brand.GetConfigPath(),
	)
}
