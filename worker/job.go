// Package worker implements the stylesheet compile job protocol: a
// single-job endpoint renders and optimizes one stylesheet, posts the result
// over a reply channel and then signals a completion cell the host is
// blocked on. Post-then-signal ordering is the linchpin of the design - the
// host's wait must never return before the reply is observable.
package worker

import (
	"github.com/google/uuid"

	"github.com/gstvribs/ng-packagr/common"
)

// Job describes one unit of work: compile and optimize exactly one
// stylesheet file, once. It is created by the host, never mutated, and owned
// by the job for its entire lifetime.
type Job struct {
	ID uuid.UUID
	// FilePath is the absolute path to the source stylesheet.
	FilePath string
	// BasePath is the resolution root for stylus-family lookups.
	BasePath string
	// StyleIncludePaths are additional search paths, order preserved.
	StyleIncludePaths []string
	// BrowserslistData are target browser identifiers.
	BrowserslistData []string
	// CSSURL selects the url() rewriting mode.
	CSSURL common.CSSURLMode
}

// Reply is posted to the host exactly once per job: either the final CSS
// plus non-fatal warnings, or the error that aborted the job. After posting
// the worker retains no reference to it.
type Reply struct {
	CSS      string
	Warnings []string
	Err      error
}
