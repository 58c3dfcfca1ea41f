// Package pipeline runs rendered CSS through a fixed, ordered chain of
// transforms: URL rewriting, browser compatibility preset, minification. The
// chain is assembled per job and never reordered.
package pipeline

import (
	"context"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/gstvribs/ng-packagr/common"
	"github.com/gstvribs/ng-packagr/css"
)

// Plugin is one CSS-to-CSS transform in the chain.
type Plugin interface {
	Name() string
	Transform(ctx context.Context, job *TransformJob) error
}

// TransformJob carries CSS text and bookkeeping through the chain. From and
// To are virtual paths used for diagnostics and reference rebasing only -
// no file I/O happens against them.
type TransformJob struct {
	From string
	To   string
	CSS  []byte

	warnings []string
}

// Warn records a non-fatal diagnostic. Order of detection is preserved,
// duplicates are kept.
func (j *TransformJob) Warn(msg string) {
	j.warnings = append(j.warnings, msg)
}

// Result is the pipeline output: final CSS plus accumulated warnings.
type Result struct {
	CSS      string
	Warnings []string
}

// Pipeline optimizes rendered CSS for a set of target browsers.
type Pipeline struct {
	rewriter *css.Rewriter
	log      *zap.Logger
}

// New creates an optimization pipeline.
func New(log *zap.Logger) *Pipeline {
	if log == nil {
		log = zap.NewNop()
	}
	log = log.Named("optimize")
	return &Pipeline{rewriter: css.NewRewriter(log), log: log}
}

// Assemble builds the plugin chain for one job. Exposed separately so the
// chain composition rules are directly checkable.
func (p *Pipeline) Assemble(filePath string, targets []string, urlMode common.CSSURLMode) []Plugin {
	chain := make([]Plugin, 0, 3)
	if urlMode != common.CSSURLModeNone {
		chain = append(chain, newURLRewriter(p.rewriter, urlMode, p.log))
	}
	chain = append(chain, newPreset(p.rewriter, targets, p.log))
	return append(chain, newMinifier(defaultMinifyOptions(), p.log))
}

// Optimize runs the chain over rendered CSS. Any transform failure aborts
// the job with an OptimizeError; warnings are collected in detection order.
func (p *Pipeline) Optimize(ctx context.Context, filePath, cssText string, targets []string, urlMode common.CSSURLMode) (*Result, error) {
	job := &TransformJob{
		From: filePath,
		To:   replaceExt(filePath, ".css"),
		CSS:  []byte(cssText),
	}

	for _, plugin := range p.Assemble(filePath, targets, urlMode) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		p.log.Debug("Applying transform", zap.String("plugin", plugin.Name()), zap.String("file", filePath))
		if err := plugin.Transform(ctx, job); err != nil {
			return nil, &OptimizeError{Plugin: plugin.Name(), Err: err}
		}
	}

	return &Result{CSS: string(job.CSS), Warnings: job.warnings}, nil
}

func replaceExt(path, ext string) string {
	return strings.TrimSuffix(path, filepath.Ext(path)) + ext
}
