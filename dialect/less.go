package dialect

import (
	"bytes"
	"context"
	"errors"
	"os"
	"os/exec"
	"strings"

	"go.uber.org/zap"
)

// LessEngine compiles .less sources by running the lessc compiler as a
// subprocess, feeding source on stdin and reading CSS from stdout.
type LessEngine struct {
	binPath string
	log     *zap.Logger
}

// NewLessEngine creates a less engine around the given compiler binary.
func NewLessEngine(binPath string, log *zap.Logger) *LessEngine {
	if log == nil {
		log = zap.NewNop()
	}
	return &LessEngine{binPath: binPath, log: log.Named("less")}
}

func (e *LessEngine) Name() string {
	return "less"
}

func (e *LessEngine) Compile(ctx context.Context, source string, opts Options) (string, error) {
	// inline script evaluation is always on, matching how build tooling
	// invokes less
	args := []string{"--js"}
	if len(opts.IncludePaths) > 0 {
		args = append(args, "--include-path="+strings.Join(opts.IncludePaths, string(os.PathListSeparator)))
	}
	args = append(args, "-")

	return runCompiler(ctx, e.binPath, args, opts.BasePath, source, e.log)
}

// runCompiler executes a stdin/stdout stylesheet compiler. Compiler stderr
// becomes the error diagnostic verbatim.
func runCompiler(ctx context.Context, bin string, args []string, dir, source string, log *zap.Logger) (string, error) {
	cmd := exec.CommandContext(ctx, bin, args...)
	cmd.Dir = dir
	cmd.Stdin = strings.NewReader(source)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	log.Debug("Running compiler", zap.String("bin", bin), zap.Strings("args", args))
	if err := cmd.Run(); err != nil {
		if msg := strings.TrimSpace(stderr.String()); len(msg) > 0 {
			return "", errors.New(msg)
		}
		return "", err
	}
	return stdout.String(), nil
}
