// Package config resolves ragprompt's configuration directory and file.
package config

import (
	"os"
	"path/filepath"
	"runtime"
)

const appName = "ragprompt"

// Dir returns the ragprompt configuration directory.
//
// Resolution:
//   - $RAGPROMPT_CONFIG_HOME if set
//   - $XDG_CONFIG_HOME/ragprompt if set
//   - %AppData%/ragprompt on Windows
//   - ~/.config/ragprompt on macOS and Linux
func Dir() string {
	if dir := os.Getenv("RAGPROMPT_CONFIG_HOME"); dir != "" {
		return dir
	}

	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, appName)
	}

	if runtime.GOOS == "windows" {
		if appData := os.Getenv("APPDATA"); appData != "" {
			return filepath.Join(appData, appName)
		}
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", appName)
}

// DefaultPath returns the path of config.yaml inside Dir, or "" when no
// directory can be determined.
func DefaultPath() string {
	dir := Dir()
	if dir == "" {
		return ""
	}
	return filepath.Join(dir, "config.yaml")
}
