package cmd

import "grimm.is/spring/internal/i18n"

// Printer is the locale-aware printer for CLI output.
var Printer = i18n.NewCLIPrinter()
