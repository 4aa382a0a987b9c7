// Package config loads the daemon configuration and holds the live option
// store.
//
// The file is HCL (or the JSON form of the same schema):
//
//	log_level = "info"
//
//	control { socket = "/tmp/springd.sock" }
//
//	kernel {
//	  acknowledge      = false
//	  recv_buffer      = 8192
//	  follow_multipart = false
//	  timeout          = "2s"
//	}
//
//	watchdog { interval = "1s" }
//	metrics  { listen = "127.0.0.1:9109" }
//
//	options = {
//	  "spring.debug.enable" = "1"
//	}
//
//	phase "boot" {
//	  continue_on_error = true
//	  step "set_interface_mtu" { args = ["eth0", 1400] }
//	  step "set_interface_state" { args = ["eth0", 1] }
//	}
//
//	run_phases = ["boot"]
//
// A missing file is not an error: [LoadFile] returns [Default].
package config
