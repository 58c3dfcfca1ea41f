// Package common holds enums shared between configuration, CLI and the
// compile pipeline. Separate package so that config does not need to import
// any of the processing code.
package common

import (
	"fmt"
	"strings"
)

// CSSURLMode specifies how url() references in optimized stylesheets are
// treated. The set is closed - it mirrors what the URL rewriting transform is
// able to do.
type CSSURLMode int

const (
	// CSSURLModeNone leaves url() references untouched, rewriting transform
	// is not part of the chain at all.
	CSSURLModeNone CSSURLMode = iota
	// CSSURLModeInline embeds referenced assets as data URIs.
	CSSURLModeInline
	// CSSURLModeRebase rewrites relative references against the output
	// location.
	CSSURLModeRebase
)

var cssURLModeNames = []string{"none", "inline", "rebase-relative"}

func (m CSSURLMode) String() string {
	if m < CSSURLModeNone || int(m) >= len(cssURLModeNames) {
		// this should never happen
		panic("unsupported css url mode requested")
	}
	return cssURLModeNames[m]
}

// CSSURLModeNames returns all valid mode names for usage strings.
func CSSURLModeNames() []string {
	names := make([]string, len(cssURLModeNames))
	copy(names, cssURLModeNames)
	return names
}

// ParseCSSURLMode converts textual mode name to CSSURLMode.
func ParseCSSURLMode(name string) (CSSURLMode, error) {
	for i, n := range cssURLModeNames {
		if strings.EqualFold(name, n) {
			return CSSURLMode(i), nil
		}
	}
	return CSSURLModeNone, fmt.Errorf("unknown css url mode (%s)", name)
}

// MarshalYAML implements yaml.Marshaler.
func (m CSSURLMode) MarshalYAML() (any, error) {
	return m.String(), nil
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (m *CSSURLMode) UnmarshalYAML(unmarshal func(any) error) error {
	var name string
	if err := unmarshal(&name); err != nil {
		return err
	}
	if len(name) == 0 {
		*m = CSSURLModeNone
		return nil
	}
	mode, err := ParseCSSURLMode(name)
	if err != nil {
		return err
	}
	*m = mode
	return nil
}
