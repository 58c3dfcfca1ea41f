package dialect

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	godartsass "github.com/bep/godartsass/v2"
	"go.uber.org/zap"
)

// SassEngine compiles .scss/.sass sources through the dart-sass embedded
// protocol. One engine (and one compiler process) is shared by all jobs of a
// worker; the underlying client serializes access.
type SassEngine struct {
	transpiler *godartsass.Transpiler
	log        *zap.Logger
}

// NewSassEngine starts a dart-sass compiler process using the given binary.
func NewSassEngine(binPath string, log *zap.Logger) (*SassEngine, error) {
	if log == nil {
		log = zap.NewNop()
	}
	log = log.Named("sass")

	transpiler, err := godartsass.Start(godartsass.Options{
		DartSassEmbeddedFilename: binPath,
		LogEventHandler: func(e godartsass.LogEvent) {
			log.Debug("Compiler message", zap.String("message", e.Message))
		},
	})
	if err != nil {
		return nil, fmt.Errorf("unable to start sass compiler (%s): %w", binPath, err)
	}
	return &SassEngine{transpiler: transpiler, log: log}, nil
}

func (e *SassEngine) Name() string {
	return "sass"
}

// Close shuts the compiler process down. Engine is unusable afterwards.
func (e *SassEngine) Close() error {
	return e.transpiler.Close()
}

func (e *SassEngine) Compile(ctx context.Context, source string, opts Options) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	syntax := godartsass.SourceSyntaxSCSS
	if opts.Indented {
		syntax = godartsass.SourceSyntaxSASS
	}

	res, err := e.transpiler.Execute(godartsass.Args{
		Source:       source,
		URL:          pathToFileURL(opts.FilePath),
		SourceSyntax: syntax,
		OutputStyle:  godartsass.OutputStyleExpanded,
		IncludePaths: opts.IncludePaths,
		ImportResolver: &tildeResolver{
			includePaths: opts.IncludePaths,
			log:          e.log,
		},
	})
	if err != nil {
		return "", err
	}
	return res.CSS, nil
}

// tildeResolver resolves tilde-prefixed (package-relative) imports against
// the include path list. Everything else is left to the engine's own
// filesystem importer.
type tildeResolver struct {
	includePaths []string
	log          *zap.Logger
}

func (t *tildeResolver) CanonicalizeURL(url string) (string, error) {
	if !strings.HasPrefix(url, "~") {
		// not ours - empty string hands resolution back to the engine
		return "", nil
	}

	rel := strings.TrimPrefix(url, "~")
	for _, dir := range t.includePaths {
		for _, name := range importCandidates(rel) {
			path := filepath.Join(dir, name)
			if fi, err := os.Stat(path); err == nil && fi.Mode().IsRegular() {
				abs, err := filepath.Abs(path)
				if err != nil {
					return "", err
				}
				t.log.Debug("Resolved package import", zap.String("import", url), zap.String("path", abs))
				return pathToFileURL(abs), nil
			}
		}
	}
	return "", fmt.Errorf("unable to resolve package import (%s)", url)
}

func (t *tildeResolver) Load(url string) (godartsass.Import, error) {
	data, err := os.ReadFile(fileURLToPath(url))
	if err != nil {
		return godartsass.Import{}, err
	}

	syntax := godartsass.SourceSyntaxSCSS
	switch filepath.Ext(url) {
	case ".sass":
		syntax = godartsass.SourceSyntaxSASS
	case ".css":
		syntax = godartsass.SourceSyntaxCSS
	}
	return godartsass.Import{Content: string(data), SourceSyntax: syntax}, nil
}

// importCandidates lists file names an import reference may point to, in
// sass resolution order: exact name, then partials, then extension variants.
func importCandidates(rel string) []string {
	if ext := filepath.Ext(rel); ext == ".scss" || ext == ".sass" || ext == ".css" {
		return []string{rel, partialName(rel)}
	}
	return []string{
		rel + ".scss",
		partialName(rel + ".scss"),
		rel + ".sass",
		partialName(rel + ".sass"),
		rel + ".css",
		rel,
	}
}

func partialName(rel string) string {
	dir, name := filepath.Split(rel)
	return filepath.Join(dir, "_"+name)
}

func pathToFileURL(path string) string {
	return "file://" + filepath.ToSlash(path)
}

func fileURLToPath(url string) string {
	return filepath.FromSlash(strings.TrimPrefix(url, "file://"))
}
