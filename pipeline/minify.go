package pipeline

import (
	"context"

	minify "github.com/tdewolff/minify/v2"
	mincss "github.com/tdewolff/minify/v2/css"
	"go.uber.org/zap"
)

// MinifyOptions is the configuration handed to the minification transform.
type MinifyOptions struct {
	// Precision limits the number of significant digits kept in numeric
	// values, 0 keeps all.
	Precision int
	// KeepCSS2 restricts minification to CSS2-compatible output.
	KeepCSS2 bool
	// OptimizeSVG enables minification of embedded SVG content. Forced off
	// in every assembled chain: rewritten SVG renders differently across
	// browsers.
	OptimizeSVG bool
	// FoldCalc enables folding of calc() expressions into computed values.
	// Forced off in every assembled chain: folding is known to change
	// behavior in some browsers.
	FoldCalc bool
}

func defaultMinifyOptions() MinifyOptions {
	return MinifyOptions{
		Precision:   0,
		KeepCSS2:    false,
		OptimizeSVG: false,
		FoldCalc:    false,
	}
}

// minifier compresses the final CSS with a default optimization profile.
type minifier struct {
	Options MinifyOptions
	log     *zap.Logger
}

func newMinifier(opts MinifyOptions, log *zap.Logger) *minifier {
	return &minifier{Options: opts, log: log.Named("minify")}
}

func (m *minifier) Name() string {
	return "minify"
}

func (m *minifier) Transform(_ context.Context, job *TransformJob) error {
	// The underlying library performs neither SVG rewriting nor calc()
	// folding, which is exactly the profile OptimizeSVG=false/FoldCalc=false
	// demand. The fields stay in the options so the policy is stated in
	// configuration rather than implied.
	runner := minify.New()
	runner.Add("text/css", &mincss.Minifier{
		Precision: m.Options.Precision,
		KeepCSS2:  m.Options.KeepCSS2,
	})

	out, err := runner.Bytes("text/css", job.CSS)
	if err != nil {
		return err
	}

	m.log.Debug("Minified", zap.Int("in", len(job.CSS)), zap.Int("out", len(out)))
	job.CSS = out
	return nil
}
