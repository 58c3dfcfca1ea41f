package worker

import "fmt"

// ProtocolError indicates the job protocol itself was violated: malformed
// job message, endpoint reuse, or a broken reply transport.
type ProtocolError struct {
	Reason string
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("job protocol violation: %s", e.Reason)
}

func protocolError(format string, args ...any) *ProtocolError {
	return &ProtocolError{Reason: fmt.Sprintf(format, args...)}
}
