// Package tui provides the Bubble Tea console for econcore: a scrolling
// command log, a balance status bar, and input history.
package tui

import "strings"

// History keeps the commands each player typed so /as switches recall
// along with the active player. Only the newest limit commands per
// player are kept.
type History struct {
	byPlayer map[string][]string
	player   string
	limit    int
	pos      int // index being recalled; len(current) when editing fresh input
}

// NewHistory returns an empty history holding up to limit commands per player.
func NewHistory(limit int) *History {
	return &History{byPlayer: make(map[string][]string), limit: max(limit, 1)}
}

// SetPlayer switches recall to name's commands.
func (h *History) SetPlayer(name string) {
	h.player = name
	h.ResetCursor()
}

func (h *History) current() []string {
	return h.byPlayer[h.player]
}

// Push records line for the active player. Repeats of the latest command
// and the "again" shorthands are not recorded. Push always ends recall.
func (h *History) Push(line string) {
	defer h.ResetCursor()
	if line == "" || isRepeat(line) {
		return
	}
	cmds := h.current()
	if n := len(cmds); n > 0 && cmds[n-1] == line {
		return
	}
	cmds = append(cmds, line)
	if over := len(cmds) - h.limit; over > 0 {
		cmds = append([]string(nil), cmds[over:]...)
	}
	h.byPlayer[h.player] = cmds
}

// Prev steps back to an older command, stopping at the oldest.
func (h *History) Prev() (string, bool) {
	cmds := h.current()
	if len(cmds) == 0 {
		return "", false
	}
	h.pos = max(min(h.pos, len(cmds))-1, 0)
	return cmds[h.pos], true
}

// Next steps toward the newest command. It reports false once recall
// moves past the newest entry back to fresh input.
func (h *History) Next() (string, bool) {
	cmds := h.current()
	if h.pos >= len(cmds) {
		return "", false
	}
	h.pos++
	if h.pos == len(cmds) {
		return "", false
	}
	return cmds[h.pos], true
}

// ResetCursor leaves recall and returns to fresh input.
func (h *History) ResetCursor() {
	h.pos = len(h.current())
}

// Len reports how many commands are stored for the active player.
func (h *History) Len() int {
	return len(h.current())
}

func isRepeat(line string) bool {
	return strings.EqualFold(line, "again") || strings.EqualFold(line, "g")
}
