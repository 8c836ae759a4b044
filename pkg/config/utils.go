package config

import (
	"fmt"
	"os"
	"path/filepath"
)

// defaultEnvFile is loaded when Load is called without paths.
const defaultEnvFile = ".env"

// findEnvFile resolves the env file passed to Load or --env-file.
// A path with a directory component is used as given. A bare file name is
// looked up in the working directory and then in each parent, so commands
// run from a subdirectory still pick up the project .env.
func findEnvFile(name string) (string, error) {
	if name == "" {
		name = defaultEnvFile
	}

	if filepath.IsAbs(name) || filepath.Base(name) != name {
		if _, err := os.Stat(name); err != nil {
			return "", fmt.Errorf("env file %s: %w", name, err)
		}
		return name, nil
	}

	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}
	for {
		candidate := filepath.Join(dir, name)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("env file %s: %w", name, os.ErrNotExist)
		}
		dir = parent
	}
}

func maskValue(key string) string {
	if len(key) <= 6 {
		return "****"
	}
	return key[:2] + "****" + key[len(key)-4:]
}
