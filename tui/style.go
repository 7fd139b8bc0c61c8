package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/nathoo/econcore/engine/ledger"
)

// ANSI 256 palette.
const (
	colorBarBg  = lipgloss.Color("236")
	colorBarFg  = lipgloss.Color("252")
	colorGold   = lipgloss.Color("220")
	colorGreen  = lipgloss.Color("34")
	colorGain   = lipgloss.Color("42")
	colorLoss   = lipgloss.Color("196")
	colorMuted  = lipgloss.Color("243")
	colorFaint  = lipgloss.Color("240")
	colorBright = lipgloss.Color("255")
)

var (
	styleStatusBar   = lipgloss.NewStyle().Background(colorBarBg).Foreground(colorBarFg).Bold(true)
	styleStatusMoney = styleStatusBar.Foreground(colorGold)
	styleInputPrompt = lipgloss.NewStyle().Foreground(colorGreen)
	stylePlayerInput = styleInputPrompt
)

// lineKind groups engine output lines that share a style.
type lineKind int

const (
	kindPlain lineKind = iota
	kindHeader
	kindSuccess
	kindSystem
	kindError
	kindTrace
)

var kindStyles = map[lineKind]lipgloss.Style{
	kindPlain:   lipgloss.NewStyle().Foreground(colorBright),
	kindHeader:  lipgloss.NewStyle().Bold(true).Underline(true),
	kindSuccess: lipgloss.NewStyle().Foreground(colorGain),
	kindSystem:  lipgloss.NewStyle().Foreground(colorMuted),
	kindError:   lipgloss.NewStyle().Foreground(colorLoss),
	kindTrace:   lipgloss.NewStyle().Foreground(colorFaint),
}

// Confirmations of a completed money movement start with one of these.
var successPrefixes = []string{
	"Sold ", "Bought ", "Paid ", "You paid ", "Deposited ", "Withdrew ",
	"Transferred ", "Invested ", "Loan approved", "Loan paid off",
	"Investment closed", "Your account is now", "Shop ",
}

func classifyLine(line string) lineKind {
	switch {
	case strings.HasPrefix(line, "[trace]"):
		return kindTrace
	case strings.HasPrefix(line, "[") && strings.HasSuffix(line, "]"):
		return kindSystem
	case ledger.IsMessage(line),
		strings.HasPrefix(line, "Unknown command"),
		strings.HasPrefix(line, "Usage: "):
		return kindError
	case strings.HasSuffix(line, ":"):
		return kindHeader
	}
	for _, p := range successPrefixes {
		if strings.HasPrefix(line, p) {
			return kindSuccess
		}
	}
	return kindPlain
}

// render styles one raw log line.
func (rl rawLine) render(wrapped string) string {
	switch {
	case rl.isInput:
		return stylePlayerInput.Render(wrapped)
	case rl.isSystem:
		return kindStyles[kindSystem].Render("[" + wrapped + "]")
	}
	return kindStyles[rl.kind].Render(wrapped)
}
