package pipeline

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/gstvribs/ng-packagr/css"
)

// properties that still need vendor-prefixed duplicates somewhere in the
// supported browser matrix
var prefixedProperties = map[string][]string{
	"appearance":           {prefixWebkit, prefixMoz},
	"backdrop-filter":      {prefixWebkit},
	"box-decoration-break": {prefixWebkit},
	"clip-path":            {prefixWebkit},
	"hyphens":              {prefixWebkit, prefixMS},
	"mask":                 {prefixWebkit},
	"mask-image":           {prefixWebkit},
	"mask-size":            {prefixWebkit},
	"print-color-adjust":   {prefixWebkit},
	"tab-size":             {prefixMoz},
	"text-size-adjust":     {prefixWebkit, prefixMS},
	"user-select":          {prefixWebkit, prefixMoz, prefixMS},
}

// value keywords needing a prefixed duplicate of the whole declaration
var prefixedValues = map[string]map[string][]string{
	"position": {"sticky": {prefixWebkit}},
	"width":    {"fit-content": {prefixMoz}},
	"height":   {"fit-content": {prefixMoz}},
}

// preset applies target-browser-aware compatibility transforms. Feature
// tier is fixed; automatic vendor prefixing is always enabled and driven by
// the job's browser support list.
type preset struct {
	targets  []string
	rewriter *css.Rewriter
	log      *zap.Logger
}

func newPreset(rw *css.Rewriter, targets []string, log *zap.Logger) *preset {
	return &preset{targets: targets, rewriter: rw, log: log.Named("preset")}
}

func (p *preset) Name() string {
	return "preset"
}

func (p *preset) Transform(_ context.Context, job *TransformJob) error {
	targets, unknown := ParseTargets(p.targets)
	for _, u := range unknown {
		job.Warn("unknown browser target: " + u)
	}

	out, err := p.rewriter.Rewrite(job.CSS, css.Hooks{
		Declaration: func(property, value string) []css.Declaration {
			return prefixDeclarations(targets, property, value)
		},
	})
	if err != nil {
		return err
	}
	job.CSS = out
	return nil
}

// prefixDeclarations returns vendor-prefixed duplicates to emit before the
// original declaration. Output order is the fixed prefix order of the
// tables above, so repeated runs produce identical text.
func prefixDeclarations(targets Targets, property, value string) []css.Declaration {
	var out []css.Declaration

	prop := strings.ToLower(property)
	if strings.HasPrefix(prop, "-") {
		// already prefixed by the author, leave alone
		return nil
	}

	for _, vendor := range prefixedProperties[prop] {
		if targets.Active(vendor) {
			out = append(out, css.Declaration{Property: vendor + property, Value: value})
		}
	}

	if byValue, ok := prefixedValues[prop]; ok {
		keyword := strings.ToLower(value)
		for _, vendor := range byValue[keyword] {
			if targets.Active(vendor) {
				out = append(out, css.Declaration{Property: property, Value: vendor + value})
			}
		}
	}
	return out
}
