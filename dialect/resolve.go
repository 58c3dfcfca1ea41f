package dialect

import (
	"os"
	"os/exec"

	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// SassCompiler identifies which sass compiler variant the startup probe
// resolved. The probe runs once, before any job - render dispatch itself
// stays free of fallback logic.
type SassCompiler int

const (
	// SassCompilerNone - no compiler was found, sass dialects are
	// unavailable.
	SassCompilerNone SassCompiler = iota
	// SassCompilerPinned - the locally pinned compiler binary from
	// configuration.
	SassCompilerPinned
	// SassCompilerDefault - the sass binary found on PATH.
	SassCompilerDefault
)

func (c SassCompiler) String() string {
	switch c {
	case SassCompilerPinned:
		return "pinned"
	case SassCompilerDefault:
		return "default"
	default:
		return "none"
	}
}

// EnginePaths carries configured compiler locations. Empty fields fall back
// to PATH lookup by conventional binary name.
type EnginePaths struct {
	DartSass string // locally pinned dart-sass binary
	Sass     string // default sass binary
	Lessc    string
	Stylus   string
}

// ProbeSassCompiler checks compiler availability and picks the variant to
// use: the pinned binary when present, the default one otherwise. Absence of
// the pinned binary is a compatibility shim situation, not an error - it is
// logged and ignored.
func ProbeSassCompiler(paths EnginePaths, log *zap.Logger) (SassCompiler, string) {
	if len(paths.DartSass) > 0 {
		if fi, err := os.Stat(paths.DartSass); err == nil && fi.Mode().IsRegular() {
			return SassCompilerPinned, paths.DartSass
		}
		log.Debug("Pinned sass compiler not found, falling back", zap.String("path", paths.DartSass))
	}
	bin := paths.Sass
	if len(bin) == 0 {
		bin = "sass"
	}
	if found, err := exec.LookPath(bin); err == nil {
		return SassCompilerDefault, found
	}
	return SassCompilerNone, ""
}

// ResolveEngines probes all compiler binaries and builds the engine set.
// Missing compilers leave the corresponding engine nil - the dialect then
// fails at render time with a missing engine error. Returned closer shuts
// down engines owning external processes.
func ResolveEngines(paths EnginePaths, log *zap.Logger) (Engines, func() error) {
	if log == nil {
		log = zap.NewNop()
	}

	var (
		engines Engines
		closers []func() error
	)

	variant, bin := ProbeSassCompiler(paths, log)
	if variant == SassCompilerNone {
		log.Warn("No sass compiler available, .sass/.scss sources cannot be rendered")
	} else {
		log.Debug("Resolved sass compiler", zap.Stringer("variant", variant), zap.String("bin", bin))
		if engine, err := NewSassEngine(bin, log); err != nil {
			log.Warn("Unable to start sass compiler", zap.String("bin", bin), zap.Error(err))
		} else {
			engines.Sass = engine
			closers = append(closers, engine.Close)
		}
	}

	if bin, ok := lookupBinary(paths.Lessc, "lessc"); ok {
		engines.Less = NewLessEngine(bin, log)
	} else {
		log.Debug("No less compiler available")
	}

	if bin, ok := lookupBinary(paths.Stylus, "stylus"); ok {
		engines.Stylus = NewStylusEngine(bin, log)
	} else {
		log.Debug("No stylus compiler available")
	}

	return engines, func() (err error) {
		for _, c := range closers {
			err = multierr.Append(err, c())
		}
		return
	}
}

func lookupBinary(configured, name string) (string, bool) {
	if len(configured) > 0 {
		if fi, err := os.Stat(configured); err == nil && fi.Mode().IsRegular() {
			return configured, true
		}
		return "", false
	}
	if found, err := exec.LookPath(name); err == nil {
		return found, true
	}
	return "", false
}
