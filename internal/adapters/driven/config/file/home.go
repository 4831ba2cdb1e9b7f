package file

import (
	"fmt"
	"os"
	"path/filepath"
)

// HomeEnv overrides the base directory for config, prompts and manual data.
const HomeEnv = "MANUALQA_HOME"

// HomeDir returns $MANUALQA_HOME, or ~/.manualqa when unset.
func HomeDir() (string, error) {
	if dir := os.Getenv(HomeEnv); dir != "" {
		return dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("get home directory: %w", err)
	}
	return filepath.Join(home, ".manualqa"), nil
}
