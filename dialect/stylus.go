package dialect

import (
	"context"

	"go.uber.org/zap"
)

// StylusEngine compiles .styl/.stylus sources by running the stylus compiler
// as a subprocess.
type StylusEngine struct {
	binPath string
	log     *zap.Logger
}

// NewStylusEngine creates a stylus engine around the given compiler binary.
func NewStylusEngine(binPath string, log *zap.Logger) *StylusEngine {
	if log == nil {
		log = zap.NewNop()
	}
	return &StylusEngine{binPath: binPath, log: log.Named("stylus")}
}

func (e *StylusEngine) Name() string {
	return "stylus"
}

func (e *StylusEngine) Compile(ctx context.Context, source string, opts Options) (string, error) {
	// url() references are resolved by the engine default resolver, no
	// custom resolver is installed
	args := []string{"--print", "--resolve-url"}
	for _, p := range opts.IncludePaths {
		args = append(args, "--include", p)
	}

	return runCompiler(ctx, e.binPath, args, opts.BasePath, source, e.log)
}
