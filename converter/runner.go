package converter

import (
	"bytes"
	"context"
	"io"
	"os/exec"
)

// CommandRunner executes external programs, it is replaced in tests.
type CommandRunner interface {
	Run(ctx context.Context, name string, args ...string) (stdout, stderr []byte, err error)
}

// ExecRunner runs programs with os/exec. When Output is set everything
// program writes is also copied there as it comes.
type ExecRunner struct {
	Output io.Writer
}

func (r *ExecRunner) Run(ctx context.Context, name string, args ...string) ([]byte, []byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)

	var stdout, stderr bytes.Buffer
	if r.Output != nil {
		cmd.Stdout = io.MultiWriter(&stdout, r.Output)
		cmd.Stderr = io.MultiWriter(&stderr, r.Output)
	} else {
		cmd.Stdout = &stdout
		cmd.Stderr = &stderr
	}

	err := cmd.Run()
	return stdout.Bytes(), stderr.Bytes(), err
}
