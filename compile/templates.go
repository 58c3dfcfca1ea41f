package compile

import (
	"bytes"
	"path/filepath"
	"strings"
	"text/template"

	sprig "github.com/go-task/slim-sprig/v3"

	"github.com/gstvribs/ng-packagr/config"
)

// Values holds variables we make available for output name template
// expansion.
type Values struct {
	Name   string // source file name without extension
	Ext    string // source extension without the dot
	Source string // source file name as given
}

func buildValues(src string) Values {
	base := filepath.Base(src)
	ext := filepath.Ext(base)
	return Values{
		Name:   strings.TrimSuffix(base, ext),
		Ext:    strings.TrimPrefix(ext, "."),
		Source: src,
	}
}

// expandOutputName produces the destination file name from the configured
// template. Result is always cleaned up to be a valid file name.
func expandOutputName(tmplText string, v Values) (string, error) {
	tmpl, err := template.New(string(config.OutputNameTemplateFieldName)).Funcs(sprig.FuncMap()).Parse(tmplText)
	if err != nil {
		return "", err
	}

	buf := new(bytes.Buffer)
	if err := tmpl.Execute(buf, v); err != nil {
		return "", err
	}

	name := config.CleanFileName(strings.TrimSpace(buf.String()))
	if !strings.HasSuffix(name, ".css") {
		name += ".css"
	}
	return name, nil
}
