package config

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"unicode"
)

// appDataDir returns the default data directory of the app following the
// conventions of the running os.
func appDataDir(appName string) string {
	if appName == "" || appName == "." {
		return "."
	}
	appName = strings.TrimPrefix(appName, ".")
	appNameUpper := string(unicode.ToUpper(rune(appName[0]))) + appName[1:]
	appNameLower := "." + appName

	homeDir, err := os.UserHomeDir()
	if err != nil || homeDir == "" {
		homeDir = "."
	}

	switch runtime.GOOS {
	case "windows":
		if appData := os.Getenv("LOCALAPPDATA"); appData != "" {
			return filepath.Join(appData, appNameUpper)
		}
		return filepath.Join(homeDir, appNameUpper)
	case "darwin":
		return filepath.Join(homeDir, "Library", "Application Support", appNameUpper)
	case "plan9":
		return filepath.Join(homeDir, appName)
	default:
		return filepath.Join(homeDir, appNameLower)
	}
}
