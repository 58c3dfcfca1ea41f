package dialect

import "fmt"

// RenderError is returned when a stylesheet cannot be turned into plain CSS:
// malformed source, unresolved import or a missing engine. The underlying
// engine diagnostic is preserved verbatim.
type RenderError struct {
	File   string
	Engine string
	Err    error
}

func (e *RenderError) Error() string {
	if e.Engine != "" {
		return fmt.Sprintf("unable to render %s with %s: %v", e.File, e.Engine, e.Err)
	}
	return fmt.Sprintf("unable to render %s: %v", e.File, e.Err)
}

func (e *RenderError) Unwrap() error {
	return e.Err
}

func renderError(file, engine string, err error) *RenderError {
	return &RenderError{File: file, Engine: engine, Err: err}
}
