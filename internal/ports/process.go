package ports

import (
	"bytes"
	"context"
	"os/exec"
)

// OSProcessRunner runs commands via sh -c, wrapping exec.CommandContext
// with buffered combined output capture.
type OSProcessRunner struct{}

func (OSProcessRunner) Run(ctx context.Context, dir, shellCommand string) (string, int, error) {
	cmd := exec.CommandContext(ctx, "sh", "-c", shellCommand)
	cmd.Dir = dir

	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out

	err := cmd.Run()
	exitCode := 0
	if err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			exitCode = exitErr.ExitCode()
		} else {
			return out.String(), -1, err
		}
	}
	return out.String(), exitCode, nil
}
