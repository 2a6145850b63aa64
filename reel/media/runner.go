// Package media encodes segment clips and joins them with an external ffmpeg binary.
package media

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/go-kratos/kratos/v2/log"
)

// Runner runs one external command to completion.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) error
}

// ExecRunner runs commands with os/exec. A failing command's stderr tail is part of the error.
type ExecRunner struct {
	log *log.Helper
}

func NewExecRunner(logger log.Logger) *ExecRunner {
	if logger == nil {
		logger = log.DefaultLogger
	}
	return &ExecRunner{log: log.NewHelper(log.With(logger, "module", "reel/media"))}
}

func (r *ExecRunner) Run(ctx context.Context, name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	start := time.Now()
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("%s %s: %w: %s", name, strings.Join(args, " "), err, tail(stderr.String(), 800))
	}
	if r.log != nil {
		r.log.Debugw("msg", "command ok", "cmd", name+" "+strings.Join(args, " "), "took", time.Since(start).Round(time.Millisecond).String())
	}
	return nil
}

func tail(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) <= n {
		return s
	}
	return "…" + s[len(s)-n:]
}
