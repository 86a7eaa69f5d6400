package bench

import (
	"context"
	"errors"
	"io"
	"os/exec"
)

// Command returns a TaskFunc that runs argv once per iteration, discarding
// its output. The command inherits ctx, so cancellation kills the process.
func Command(argv []string) TaskFunc {
	return func(ctx context.Context) error {
		if len(argv) == 0 {
			return errors.New("empty command")
		}
		cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
		cmd.Stdout = io.Discard
		cmd.Stderr = io.Discard
		return cmd.Run()
	}
}
