package pipeline

import (
	"strings"
)

// Vendor prefix identifiers.
const (
	prefixWebkit = "-webkit-"
	prefixMoz    = "-moz-"
	prefixMS     = "-ms-"
)

// browser identifier -> vendor prefix family
var browserVendors = map[string]string{
	"chrome":      prefixWebkit,
	"and_chr":     prefixWebkit,
	"safari":      prefixWebkit,
	"ios_saf":     prefixWebkit,
	"opera":       prefixWebkit,
	"op_mob":      prefixWebkit,
	"android":     prefixWebkit,
	"samsung":     prefixWebkit,
	"edge":        prefixMS,
	"ie":          prefixMS,
	"ie_mob":      prefixMS,
	"firefox":     prefixMoz,
	"and_ff":      prefixMoz,
	"firefoxesr":  prefixMoz,
	"kaios":       prefixMoz,
	"baidu":       prefixWebkit,
	"and_qq":      prefixWebkit,
	"and_uc":      prefixWebkit,
	"bb":          prefixWebkit,
	"electron":    prefixWebkit,
	"node":        prefixWebkit,
	"operamini":   prefixWebkit,
	"op_mini":     prefixWebkit,
	"explorermob": prefixMS,
	"explorer":    prefixMS,
}

// Targets is the vendor prefix demand derived from a browser support list.
type Targets struct {
	vendors map[string]bool
}

// Active reports whether the given vendor prefix is demanded by any target.
func (t Targets) Active(prefix string) bool {
	return t.vendors[prefix]
}

func allVendors() map[string]bool {
	return map[string]bool{prefixWebkit: true, prefixMoz: true, prefixMS: true}
}

// ParseTargets interprets browserslist-style browser identifiers. Entries
// are expected in resolved form ("chrome 120", "ie 11"); a few common query
// forms are tolerated. Unrecognized entries are returned for the caller to
// surface as warnings, in input order.
func ParseTargets(entries []string) (Targets, []string) {
	t := Targets{vendors: make(map[string]bool)}
	var unknown []string

	if len(entries) == 0 {
		// with no support matrix be generous - every vendor gets prefixes
		t.vendors = allVendors()
		return t, nil
	}

	for _, raw := range entries {
		entry := strings.ToLower(strings.TrimSpace(raw))
		if len(entry) == 0 {
			continue
		}

		fields := strings.Fields(entry)
		switch {
		case entry == "defaults" || strings.Contains(entry, "%"):
			for v := range allVendors() {
				t.vendors[v] = true
			}
		case fields[0] == "last" && strings.HasSuffix(entry, "versions"):
			// "last N versions" or "last N <browser> versions"
			if len(fields) == 4 {
				if v, ok := browserVendors[fields[2]]; ok {
					t.vendors[v] = true
					continue
				}
				unknown = append(unknown, raw)
				continue
			}
			for v := range allVendors() {
				t.vendors[v] = true
			}
		case len(fields) == 2:
			if v, ok := browserVendors[fields[0]]; ok {
				t.vendors[v] = true
				continue
			}
			unknown = append(unknown, raw)
		default:
			unknown = append(unknown, raw)
		}
	}
	return t, unknown
}
