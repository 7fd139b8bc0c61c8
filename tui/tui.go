package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/nathoo/econcore/engine"
	"github.com/nathoo/econcore/engine/admin"
	"github.com/nathoo/econcore/engine/ledger"
	"github.com/nathoo/econcore/types"
)

// rawLine is one log entry kept unstyled; wrapping depends on the
// terminal width and is redone on every resize.
type rawLine struct {
	text     string
	kind     lineKind
	isInput  bool // the player's own command
	isSystem bool // console output rather than engine output
}

// Model is the Bubble Tea model for the econcore console.
type Model struct {
	ctx    context.Context
	engine *engine.Engine
	admin  *admin.Admin
	player string

	viewport viewport.Model
	input    textinput.Model
	history  *History

	rawLines []rawLine // accumulated output lines (unstyled, for re-wrapping)

	width    int
	height   int
	ready    bool
	trace    bool
	quitting bool
	lastCmd  string
}

// outputMsg carries output from the engine into the Update loop.
type outputMsg struct {
	input    string   // echoed player input (empty for the join greeting)
	lines    []string // output lines
	isSystem bool     // true for meta-command output
}

// New creates a TUI model for player. adm may be nil to disable /admin.
func New(ctx context.Context, eng *engine.Engine, adm *admin.Admin, player string) Model {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.Focus()
	ti.CharLimit = 256
	ti.PromptStyle = styleInputPrompt

	h := NewHistory(100)
	h.SetPlayer(player)
	return Model{
		ctx:     ctx,
		engine:  eng,
		admin:   adm,
		player:  player,
		input:   ti,
		history: h,
	}
}

// Run starts the Bubble Tea program and blocks until the player quits or
// ctx is cancelled.
func Run(ctx context.Context, eng *engine.Engine, adm *admin.Admin, player string) error {
	m := New(ctx, eng, adm, player)
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	return err
}

// Init fires player_join and shows the balance.
func (m Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.joinOutput())
}

func (m Model) joinOutput() tea.Cmd {
	eng, player := m.engine, m.player
	return func() tea.Msg {
		lines := []string{"econcore: type 'help' for commands, /help for console commands.", ""}
		lines = append(lines, eng.Fire(types.Event{Type: "player_join", Player: player}).Output...)
		lines = append(lines, eng.Step(player, "balance").Output...)
		return outputMsg{lines: lines}
	}
}

// Update handles messages (key presses, window resize, engine output).
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m = m.resize(msg.Width, msg.Height)
	case tea.KeyMsg:
		if next, cmd, done := m.handleKey(msg); done {
			return next, cmd
		}
	case outputMsg:
		m = m.appendOutput(msg)
	}

	var inputCmd tea.Cmd
	m.input, inputCmd = m.input.Update(msg)
	return m, inputCmd
}

// resize fits the log above the status bar and input line.
func (m Model) resize(width, height int) Model {
	m.width, m.height = width, height
	logHeight := max(height-2, 1)
	if m.ready {
		m.viewport.Width, m.viewport.Height = width, logHeight
	} else {
		m.viewport = viewport.New(width, logHeight)
		m.viewport.KeyMap = viewportKeyMap()
		m.ready = true
	}
	m.refreshViewport()
	return m
}

// handleKey consumes keys the console owns. Everything else goes to the
// text input.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd, bool) {
	switch msg.String() {
	case "ctrl+c":
		m.quitting = true
		return m, tea.Quit, true
	case "enter":
		next, cmd := m.handleEnter()
		return next, cmd, true
	case "up":
		if line, ok := m.history.Prev(); ok {
			m.recall(line)
		}
		return m, nil, true
	case "down":
		line, ok := m.history.Next()
		if !ok {
			m.history.ResetCursor()
		}
		m.recall(line)
		return m, nil, true
	case "pgup", "pgdown":
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd, true
	}
	return m, nil, false
}

func (m *Model) recall(line string) {
	m.input.SetValue(line)
	m.input.CursorEnd()
}

// handleEnter processes the submitted input line.
func (m Model) handleEnter() (tea.Model, tea.Cmd) {
	input := strings.TrimSpace(m.input.Value())
	m.input.SetValue("")
	if input == "" {
		return m, nil
	}

	m.history.Push(input)

	lower := strings.ToLower(input)
	if lower == "again" || lower == "g" {
		if m.lastCmd == "" {
			m = m.appendOutput(outputMsg{input: input, lines: []string{"Nothing to repeat."}, isSystem: true})
			return m, nil
		}
		input = m.lastCmd
	} else {
		m.lastCmd = input
	}

	if strings.HasPrefix(input, "/") {
		if output, handled, quit := m.handleMeta(input); handled {
			m = m.appendOutput(outputMsg{input: input, lines: output, isSystem: true})
			if quit {
				m.quitting = true
				return m, tea.Quit
			}
			return m, nil
		}
	}

	result := m.engine.Step(m.player, input)
	output := result.Output
	if m.trace {
		output = append(output, engine.TraceLines(result)...)
	}
	m = m.appendOutput(outputMsg{input: input, lines: output})
	return m, nil
}

// appendOutput adds lines to the log and refreshes the viewport.
func (m Model) appendOutput(msg outputMsg) Model {
	if msg.input != "" {
		m.rawLines = append(m.rawLines, rawLine{text: "> " + msg.input, isInput: true})
	}
	for _, line := range msg.lines {
		rl := rawLine{text: line, isSystem: msg.isSystem}
		if !msg.isSystem {
			rl.kind = classifyLine(line)
		}
		m.rawLines = append(m.rawLines, rl)
	}
	m.rawLines = append(m.rawLines, rawLine{})
	m.refreshViewport()
	return m
}

// refreshViewport re-wraps and re-styles all raw lines at the current width.
func (m *Model) refreshViewport() {
	if !m.ready {
		return
	}
	width := max(m.width, 10)

	var styled []string
	for _, rl := range m.rawLines {
		if rl.text == "" {
			styled = append(styled, "")
			continue
		}
		styled = append(styled, rl.render(wordWrap(rl.text, width)))
	}
	m.viewport.SetContent(strings.Join(styled, "\n"))
	m.viewport.GotoBottom()
}

// wordWrap wraps text at word boundaries. Lines that already fit, such as
// aligned statement rows, are left untouched.
func wordWrap(text string, width int) string {
	if width <= 0 || len(text) <= width {
		return text
	}

	var b strings.Builder
	lineLen := 0
	for i, word := range strings.Fields(text) {
		switch {
		case i == 0:
			lineLen = len(word)
		case lineLen+1+len(word) > width:
			b.WriteString("\n")
			lineLen = len(word)
		default:
			b.WriteString(" ")
			lineLen += 1 + len(word)
		}
		b.WriteString(word)
	}
	return b.String()
}

// View renders the layout: viewport, status bar, input.
func (m Model) View() string {
	if m.quitting {
		return ""
	}
	if !m.ready {
		return "Loading..."
	}
	return m.viewport.View() + "\n" + m.renderStatusBar() + "\n" + m.input.View()
}

// handleMeta dispatches meta-commands. Unrecognized slash input falls
// through to the engine as a chat command.
func (m *Model) handleMeta(input string) (out []string, handled, quit bool) {
	parts := strings.Fields(input)
	cmd, args := strings.ToLower(parts[0]), parts[1:]

	switch cmd {
	case "/quit", "/exit":
		return []string{"Goodbye."}, true, true

	case "/save":
		if err := m.engine.Save(m.ctx); err != nil {
			return []string{"Save failed: " + ledger.Message(err)}, true, false
		}
		return []string{"Economy saved."}, true, false

	case "/load":
		if err := m.engine.Load(m.ctx); err != nil {
			return []string{"Load failed: " + ledger.Message(err)}, true, false
		}
		return []string{"Economy reloaded."}, true, false

	case "/as":
		if len(args) == 0 {
			return []string{"Usage: /as <player>"}, true, false
		}
		m.player = args[0]
		m.lastCmd = ""
		m.history.SetPlayer(m.player)
		out = []string{"Now playing as " + m.player + "."}
		out = append(out, m.engine.Fire(types.Event{Type: "player_join", Player: m.player}).Output...)
		return out, true, false

	case "/tag":
		if len(args) == 0 {
			return []string{"Usage: /tag <tag>"}, true, false
		}
		m.engine.AddTag(m.player, args[0])
		return []string{fmt.Sprintf("Tagged %s with %q.", m.player, args[0])}, true, false

	case "/event":
		if len(args) == 0 {
			return []string{"Usage: /event <type>"}, true, false
		}
		return m.engine.Fire(types.Event{Type: args[0], Player: m.player}).Output, true, false

	case "/admin":
		if m.admin == nil {
			return []string{"Admin commands are disabled."}, true, false
		}
		return m.admin.Run(m.ctx, args), true, false

	case "/help":
		return helpLines(), true, false

	case "/trace":
		m.trace = !m.trace
		if m.trace {
			return []string{"Trace output enabled."}, true, false
		}
		return []string{"Trace output disabled."}, true, false
	}
	return nil, false, false
}

func helpLines() []string {
	return []string{
		"Console:",
		"  /as <player>    Switch player",
		"  /tag <tag>      Tag yourself for scripted handlers",
		"  /event <type>   Fire a host event",
		"  /save, /load    Write or reload every subsystem",
		"  /admin <cmd>    Admin commands (/admin for the list)",
		"  /trace          Toggle trace output",
		"  /quit           Exit",
		"  again (g)       Repeat your last command",
		"",
		"Type 'help' for economy commands.",
		"Navigation: PgUp/PgDn to scroll, Up/Down for command history",
	}
}

// viewportKeyMap scrolls the log by page only. Up and Down belong to
// command recall.
func viewportKeyMap() viewport.KeyMap {
	page := func(k string) key.Binding { return key.NewBinding(key.WithKeys(k)) }
	off := key.NewBinding(key.WithDisabled())
	return viewport.KeyMap{
		PageDown:     page("pgdown"),
		PageUp:       page("pgup"),
		HalfPageDown: page("ctrl+d"),
		HalfPageUp:   page("ctrl+u"),
		Up:           off,
		Down:         off,
	}
}
