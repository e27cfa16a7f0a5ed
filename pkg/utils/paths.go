package utils

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
)

// DefaultDataPath 返回各平台下默认的本地数据库位置
func DefaultDataPath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "mindfulme.db"
	}

	switch runtime.GOOS {
	case "windows":
		return filepath.Join(homeDir, "AppData", "Roaming", "mindfulme", "mindfulme.db")
	case "darwin":
		return filepath.Join(homeDir, "Library", "Application Support", "mindfulme", "mindfulme.db")
	default:
		return filepath.Join(homeDir, ".local", "share", "mindfulme", "mindfulme.db")
	}
}

// ResolveDataPath expands "~/", makes the path absolute and creates its
// directory. An empty path selects DefaultDataPath.
func ResolveDataPath(provided string) (string, error) {
	target := provided
	if target == "" {
		target = DefaultDataPath()
	}

	if strings.HasPrefix(target, "~/") {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("expand %q: %w", target, err)
		}
		target = filepath.Join(homeDir, target[2:])
	}

	abs, err := filepath.Abs(target)
	if err != nil {
		return "", fmt.Errorf("resolve %q: %w", target, err)
	}

	if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
		return "", fmt.Errorf("create data directory: %w", err)
	}
	return abs, nil
}
