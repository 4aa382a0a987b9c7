package testutil

import (
	"os"
	"testing"

	"grimm.is/spring/internal/brand"
)

// VMEnv is the environment variable that enables tests needing real kernel
// interfaces and CAP_NET_ADMIN.
var VMEnv = brand.ConfigEnvPrefix + "_VM_TEST"

// RequireVM skips the test unless VMEnv is set.
func RequireVM(t *testing.T) {
	t.Helper()
	if os.Getenv(VMEnv) == "" {
		t.Skipf("Skipping test: requires %s environment", VMEnv)
	}
}
