//go:build !linux

package clock

import "time"

// Uptime returns the time since process start on platforms without sysinfo(2).
func Uptime() time.Duration {
	return Since(processStart)
}
