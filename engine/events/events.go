// Package events implements single-pass event handler dispatch.
// Event handlers produce effects but never trigger further handlers.
package events

import (
	"github.com/nathoo/econcore/engine/rules"
	"github.com/nathoo/econcore/types"
)

// Dispatch evaluates every handler against ev before any effect runs and
// returns the effects of the matching handlers, in declaration order.
func Dispatch(ev types.Event, handlers []types.EventHandler, v rules.View) []types.Effect {
	var result []types.Effect
	for _, h := range rules.Select(handlers, ev, v) {
		result = append(result, h.Effects...)
	}
	return result
}
