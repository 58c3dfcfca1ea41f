// Package dialect renders stylesheet sources into plain CSS. The rendering
// strategy is selected by file extension; preprocessor engines are external
// collaborators behind the Engine interface so they can be substituted per
// job in tests.
package dialect

import (
	"context"
	"errors"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"golang.org/x/text/encoding/ianaindex"
)

// packageDir is appended to the stylus search path list so that
// package-relative imports resolve the same way node tooling does.
const packageDir = "node_modules"

// Options describe one engine invocation.
type Options struct {
	// FilePath is the absolute path of the source being compiled, used for
	// import resolution and diagnostics only - source text is always passed
	// in directly.
	FilePath string
	// BasePath is the resolution root.
	BasePath string
	// IncludePaths are additional search paths, order preserved.
	IncludePaths []string
	// Indented selects the indented (.sass) syntax where the engine supports
	// both.
	Indented bool
}

// Engine compiles preprocessor source text into plain CSS.
type Engine interface {
	Name() string
	Compile(ctx context.Context, source string, opts Options) (string, error)
}

// FileReader reads stylesheet source text. Separated out so tests can feed
// sources without touching the file system.
type FileReader func(path string) (string, error)

// NewFileReader returns a FileReader decoding the given IANA charset. Empty
// charset name means the source is used as is (UTF-8).
func NewFileReader(charset string) (FileReader, error) {
	if len(charset) == 0 {
		return func(path string) (string, error) {
			data, err := os.ReadFile(path)
			return string(data), err
		}, nil
	}
	enc, err := ianaindex.IANA.Encoding(charset)
	if err != nil {
		return nil, err
	}
	if enc == nil {
		return nil, errors.New("charset has no decoder: " + charset)
	}
	return func(path string) (string, error) {
		data, err := os.ReadFile(path)
		if err != nil {
			return "", err
		}
		decoded, err := enc.NewDecoder().Bytes(data)
		if err != nil {
			return "", err
		}
		return string(decoded), nil
	}, nil
}

// Engines holds resolved dialect engines. A nil engine means the dialect is
// unavailable and rendering it fails with a missing engine error.
type Engines struct {
	Sass   Engine
	Less   Engine
	Stylus Engine
}

// Renderer selects a rendering strategy by file extension and produces plain
// CSS text.
type Renderer struct {
	engines Engines
	read    FileReader
	log     *zap.Logger
}

// NewRenderer creates a renderer over resolved engines. Nil reader falls back
// to plain file reads.
func NewRenderer(engines Engines, read FileReader, log *zap.Logger) *Renderer {
	if log == nil {
		log = zap.NewNop()
	}
	if read == nil {
		read, _ = NewFileReader("")
	}
	return &Renderer{engines: engines, read: read, log: log.Named("render")}
}

var errMissingEngine = errors.New("no engine available for dialect")

// Render reads the source file and compiles it to plain CSS. Dispatch is by
// exact, case-sensitive extension; anything unrecognized (including .css)
// passes through unchanged.
func (r *Renderer) Render(ctx context.Context, filePath, basePath string, includePaths []string) (string, error) {
	source, err := r.read(filePath)
	if err != nil {
		return "", renderError(filePath, "", err)
	}

	opts := Options{
		FilePath:     filePath,
		BasePath:     basePath,
		IncludePaths: includePaths,
	}

	var engine Engine
	switch filepath.Ext(filePath) {
	case ".sass":
		engine = r.engines.Sass
		opts.Indented = true
	case ".scss":
		engine = r.engines.Sass
	case ".less":
		engine = r.engines.Less
	case ".styl", ".stylus":
		engine = r.engines.Stylus
		// search path list order matters: resolution root first, then the
		// working directory, then user paths, package directory last
		opts.IncludePaths = stylusSearchPaths(basePath, includePaths)
	default:
		r.log.Debug("Passing source through unchanged", zap.String("file", filePath))
		return source, nil
	}

	if engine == nil {
		return "", renderError(filePath, filepath.Ext(filePath), errMissingEngine)
	}

	r.log.Debug("Rendering", zap.String("file", filePath), zap.String("engine", engine.Name()))
	rendered, err := engine.Compile(ctx, source, opts)
	if err != nil {
		return "", renderError(filePath, engine.Name(), err)
	}
	return rendered, nil
}

func stylusSearchPaths(basePath string, includePaths []string) []string {
	paths := make([]string, 0, len(includePaths)+3)
	paths = append(paths, basePath, ".")
	paths = append(paths, includePaths...)
	return append(paths, packageDir)
}
