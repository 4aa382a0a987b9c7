// Package brand provides centralized naming and path constants.
//
// The identity is loaded from brand.json at compile time via go:embed so
// packaging scripts can read the same file.
package brand

import (
	_ "embed"
	"encoding/json"
	"os"
	"path/filepath"
)

//go:embed brand.json
var brandJSON []byte

// Brand holds all branding information
type Brand struct {
	Name             string `json:"name"`
	LowerName        string `json:"lowerName"`
	Description      string `json:"description"`
	ConfigEnvPrefix  string `json:"configEnvPrefix"`
	DefaultConfigDir string `json:"defaultConfigDir"`
	DefaultRunDir    string `json:"defaultRunDir"`
	SocketName       string `json:"socketName"`
	BinaryName       string `json:"binaryName"`
	DaemonName       string `json:"daemonName"`
	ConfigFileName   string `json:"configFileName"`
	DebugLogPath     string `json:"debugLogPath"`
}

var b Brand

func init() {
	if err := json.Unmarshal(brandJSON, &b); err != nil {
		panic("failed to parse brand.json: " + err.Error())
	}

	Name = b.Name
	LowerName = b.LowerName
	Description = b.Description
	ConfigEnvPrefix = b.ConfigEnvPrefix
	DefaultConfigDir = b.DefaultConfigDir
	DefaultRunDir = b.DefaultRunDir
	SocketName = b.SocketName
	BinaryName = b.BinaryName
	DaemonName = b.DaemonName
	ConfigFileName = b.ConfigFileName
	DebugLogPath = b.DebugLogPath
}

var (
	Name             string
	LowerName        string
	Description      string
	ConfigEnvPrefix  string
	DefaultConfigDir string
	DefaultRunDir    string
	SocketName       string
	BinaryName       string
	DaemonName       string
	ConfigFileName   string
	DebugLogPath     string

	// Version is set at build time via -ldflags
	Version   = "dev"
	GitCommit = "unknown"
)

// Get returns the full Brand struct
func Get() Brand {
	return b
}

// GetConfigDir returns the config directory, checking env vars first.
// Priority: SPRING_CONFIG_DIR > SPRING_PREFIX/config > DefaultConfigDir
func GetConfigDir() string {
	if dir := os.Getenv(ConfigEnvPrefix + "_CONFIG_DIR"); dir != "" {
		return dir
	}
	if prefix := os.Getenv(ConfigEnvPrefix + "_PREFIX"); prefix != "" {
		return filepath.Join(prefix, "config")
	}
	return DefaultConfigDir
}

// GetRunDir returns the runtime directory for the control socket.
// Priority: SPRING_RUN_DIR > SPRING_PREFIX/run > DefaultRunDir
func GetRunDir() string {
	if dir := os.Getenv(ConfigEnvPrefix + "_RUN_DIR"); dir != "" {
		return dir
	}
	if prefix := os.Getenv(ConfigEnvPrefix + "_PREFIX"); prefix != "" {
		return filepath.Join(prefix, "run")
	}
	return DefaultRunDir
}

// GetSocketPath returns the full path to the control socket,
// /tmp/springd.sock by default.
func GetSocketPath() string {
	return filepath.Join(GetRunDir(), SocketName)
}

// GetConfigPath returns the default configuration file path.
func GetConfigPath() string {
	return filepath.Join(GetConfigDir(), ConfigFileName)
}

// GetDebugLogPath returns the debug log file. SPRING_PREFIX relocates it
// under the prefix so tests never touch /tmp/spring.
func GetDebugLogPath() string {
	if prefix := os.Getenv(ConfigEnvPrefix + "_PREFIX"); prefix != "" {
		return filepath.Join(prefix, filepath.Base(DebugLogPath))
	}
	return DebugLogPath
}
