package rules

import (
	"github.com/nathoo/econcore/types"
)

// Select returns the handlers registered for ev.Type whose conditions all
// pass, in declaration order.
func Select(handlers []types.EventHandler, ev types.Event, v View) []types.EventHandler {
	var matched []types.EventHandler
	for _, h := range handlers {
		if h.EventType != ev.Type {
			continue
		}
		if !EvalAllConditions(h.Conditions, ev, v) {
			continue
		}
		matched = append(matched, h)
	}
	return matched
}
