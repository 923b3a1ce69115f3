package util

import (
	"crypto/sha256"
	"encoding/hex"
	"os"
	"path/filepath"
	"runtime"
)

const (
	AppDir     = "pgrid"
	ConfigFile = "config.toml"
	StateDir   = "states"
	LogFile    = "pgrid.log"
)

// ConfigDir returns the per-user configuration directory for pgrid.
func ConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, AppDir)
	}
	home, _ := os.UserHomeDir()
	switch runtime.GOOS {
	case "darwin":
		return filepath.Join(home, "Library", "Application Support", AppDir)
	case "windows":
		if appData := os.Getenv("APPDATA"); appData != "" {
			return filepath.Join(appData, AppDir)
		}
		return filepath.Join(home, "AppData", "Roaming", AppDir)
	default:
		return filepath.Join(home, ".config", AppDir)
	}
}

// DataDir returns the directory that holds saved search states.
func DataDir() string {
	if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
		return filepath.Join(xdg, AppDir)
	}
	if runtime.GOOS != "linux" {
		return ConfigDir()
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".local", "share", AppDir)
}

// SourceKey returns a stable key for a data source. Files are keyed by
// absolute path, everything else (queries) by the given string.
func SourceKey(source string) string {
	if abs, err := filepath.Abs(source); err == nil {
		if _, statErr := os.Stat(abs); statErr == nil {
			source = abs
		}
	}
	return HashPath(source)
}

// HashPath generates a short hash of a path.
func HashPath(path string) string {
	h := sha256.Sum256([]byte(path))
	return hex.EncodeToString(h[:8])
}
