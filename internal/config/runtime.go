package config

import (
	"os"
	"path/filepath"
)

func GetRuntimePath() string {
	return resolveRuntime(os.Getenv("TUSKQA_RUNTIME_PATH"))
}

func resolveRuntime(path string) string {
	if path == "" {
		path = ".tuskqa"
	}

	if !filepath.IsAbs(path) {
		home, _ := os.UserHomeDir()
		path = filepath.Join(home, path)
	}
	return path
}
