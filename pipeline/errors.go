package pipeline

import "fmt"

// OptimizeError is returned when a transform in the chain fails. The failing
// plugin name and its diagnostic are preserved; there is no partial output.
type OptimizeError struct {
	Plugin string
	Err    error
}

func (e *OptimizeError) Error() string {
	return fmt.Sprintf("optimization failed in %s: %v", e.Plugin, e.Err)
}

func (e *OptimizeError) Unwrap() error {
	return e.Err
}
