package search_index

import (
	"strconv"
	"strings"
)

// highlightSpec is one entry of the "field-N" highlight convention.
type highlightSpec struct {
	Field string
	Max   int
}

// parseHighlightFields splits "paragraphs-3" into field and cap. Entries
// without a numeric suffix have no cap (Max == 0).
func parseHighlightFields(fields []string) []highlightSpec {
	specs := make([]highlightSpec, 0, len(fields))
	for _, f := range fields {
		spec := highlightSpec{Field: f}
		if i := strings.LastIndexByte(f, '-'); i > 0 {
			if n, err := strconv.Atoi(f[i+1:]); err == nil && n > 0 {
				spec = highlightSpec{Field: f[:i], Max: n}
			}
		}
		specs = append(specs, spec)
	}
	return specs
}

func highlightFieldNames(specs []highlightSpec) []string {
	names := make([]string, len(specs))
	for i, s := range specs {
		names[i] = s.Field
	}
	return names
}

func capFragments(fragments []string, max int) []string {
	if max > 0 && len(fragments) > max {
		return fragments[:max]
	}
	return fragments
}

func truncateBody(b []byte) string {
	const limit = 512
	if len(b) > limit {
		return string(b[:limit])
	}
	return string(b)
}
