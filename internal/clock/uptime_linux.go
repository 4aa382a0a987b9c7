//go:build linux

package clock

import (
	"time"

	"golang.org/x/sys/unix"
)

// Uptime returns the time since boot as reported by sysinfo(2).
func Uptime() time.Duration {
	var info unix.Sysinfo_t
	if err := unix.Sysinfo(&info); err != nil {
		return Since(processStart)
	}
	return time.Duration(info.Uptime) * time.Second
}
