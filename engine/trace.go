package engine

import (
	"fmt"
	"sort"
	"strings"

	"github.com/nathoo/econcore/types"
)

// TraceLines describes what a Step or Fire did beyond its output: the
// effects it applied, the events it emitted and whether state changed.
func TraceLines(r types.Result) []string {
	var lines []string
	if n := len(r.Effects); n > 0 {
		lines = append(lines, fmt.Sprintf("[trace] Effects: %d", n))
		for _, e := range r.Effects {
			lines = append(lines, "[trace]   "+e.Type+" "+sortedPairs(e.Params))
		}
	}
	if n := len(r.Events); n > 0 {
		lines = append(lines, fmt.Sprintf("[trace] Events: %d", n))
		for _, ev := range r.Events {
			lines = append(lines, "[trace]   "+ev.Type+" "+sortedPairs(ev.Data))
		}
	}
	if r.Mutated {
		lines = append(lines, "[trace] state changed")
	}
	return lines
}

// sortedPairs renders m as {k=v ...} in key order so traces are stable.
func sortedPairs(m map[string]any) string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var b strings.Builder
	b.WriteByte('{')
	for i, k := range keys {
		if i > 0 {
			b.WriteByte(' ')
		}
		fmt.Fprintf(&b, "%s=%v", k, m[k])
	}
	b.WriteByte('}')
	return b.String()
}
