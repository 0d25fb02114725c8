package capture

import (
	"fmt"
	"os/exec"
)

// FindRuntime locates a capture tool binary in PATH.
func FindRuntime(runtime string) (string, error) {
	binPath, err := exec.LookPath(runtime)
	if err != nil {
		return "", fmt.Errorf("failed to find binary %q: %w", runtime, err)
	}
	return binPath, nil
}
