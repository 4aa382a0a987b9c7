package brand

import (
	"testing"
)

func TestGet(t *testing.T) {
	b := Get()
	if b.Name == "" {
		t.Error("Brand name should not be empty")
	}
	if Version == "" {
		t.Error("Global Version should be initialized (to dev default)")
	}
	if LowerName != "spring" {
		t.Errorf("LowerName = %q, want spring", LowerName)
	}
}

func TestGetDirectories(t *testing.T) {
	t.Setenv(ConfigEnvPrefix+"_PREFIX", "")
	t.Setenv(ConfigEnvPrefix+"_CONFIG_DIR", "")
	t.Setenv(ConfigEnvPrefix+"_RUN_DIR", "")

	if GetConfigDir() != DefaultConfigDir {
		t.Errorf("Expected default config dir %s, got %s", DefaultConfigDir, GetConfigDir())
	}
	if GetRunDir() != DefaultRunDir {
		t.Errorf("Expected default run dir %s, got %s", DefaultRunDir, GetRunDir())
	}
	if GetSocketPath() != "/tmp/springd.sock" {
		t.Errorf("Expected /tmp/springd.sock, got %s", GetSocketPath())
	}
	if GetDebugLogPath() != "/tmp/spring" {
		t.Errorf("Expected /tmp/spring, got %s", GetDebugLogPath())
	}

	// Prefix
	t.Setenv(ConfigEnvPrefix+"_PREFIX", "/tmp/spring-test")
	if GetConfigDir() != "/tmp/spring-test/config" {
		t.Errorf("Expected prefix config dir, got %s", GetConfigDir())
	}
	if GetSocketPath() != "/tmp/spring-test/run/springd.sock" {
		t.Errorf("Expected prefix socket path, got %s", GetSocketPath())
	}
	if GetConfigPath() != "/tmp/spring-test/config/spring.hcl" {
		t.Errorf("Expected prefix config path, got %s", GetConfigPath())
	}

	// Direct override wins over the prefix
	t.Setenv(ConfigEnvPrefix+"_CONFIG_DIR", "/custom/config")
	if GetConfigDir() != "/custom/config" {
		t.Errorf("Expected custom config dir, got %s", GetConfigDir())
	}
}
