package treedraw

import (
	"regexp"
	"sort"
	"strings"
)

// Dimensions returns the number of axes of a "z:y:x" variable expression.
// Scope-resolution tokens ("::") do not separate axes.
func Dimensions(variable string) int {
	return strings.Count(variable, ":") - 2*strings.Count(variable, "::") + 1
}

// Axes splits a "z:y:x" variable expression and returns the expressions in
// x, y, z order.
func Axes(variable string) []string {
	var (
		axes []string
		beg  int
	)
	for i := 0; i < len(variable); i++ {
		if variable[i] != ':' {
			continue
		}
		if i+1 < len(variable) && variable[i+1] == ':' {
			i++
			continue
		}
		axes = append(axes, strings.TrimSpace(variable[beg:i]))
		beg = i + 1
	}
	axes = append(axes, strings.TrimSpace(variable[beg:]))

	for i, j := 0, len(axes)-1; i < j; i, j = i+1, j-1 {
		axes[i], axes[j] = axes[j], axes[i]
	}
	return axes
}

var (
	reIdent = regexp.MustCompile(`\b[a-zA-Z_]\w*\b`)
	reFunc  = regexp.MustCompile(`\b([a-zA-Z_]\w*)\(`)
)

// Identifiers returns the sorted identifiers referenced by the expressions,
// function names excluded. It is a lexical scan: keywords and constants are
// returned too and are expected to be filtered against the tree's branches.
func Identifiers(exprs ...string) []string {
	var (
		funcs = make(map[string]bool)
		set   = make(map[string]bool)
	)
	for _, e := range exprs {
		for _, m := range reFunc.FindAllStringSubmatch(e, -1) {
			funcs[m[1]] = true
		}
	}
	for _, e := range exprs {
		for _, id := range reIdent.FindAllString(e, -1) {
			if !funcs[id] {
				set[id] = true
			}
		}
	}

	ids := make([]string, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
