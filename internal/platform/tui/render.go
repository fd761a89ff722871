package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/vovakirdan/tui-scratch/internal/betting"
	"github.com/vovakirdan/tui-scratch/internal/core"
)

// colorStyles maps core.Color to lipgloss styles.
var colorStyles = map[core.Color]lipgloss.Style{
	core.ColorDefault:      lipgloss.NewStyle(),
	core.ColorGray:         lipgloss.NewStyle().Foreground(lipgloss.Color("245")),
	core.ColorWhite:        lipgloss.NewStyle().Foreground(lipgloss.Color("7")),
	core.ColorYellow:       lipgloss.NewStyle().Foreground(lipgloss.Color("3")),
	core.ColorCyan:         lipgloss.NewStyle().Foreground(lipgloss.Color("6")),
	core.ColorMagenta:      lipgloss.NewStyle().Foreground(lipgloss.Color("5")),
	core.ColorBrightGreen:  lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Bold(true),
	core.ColorBrightYellow: lipgloss.NewStyle().Foreground(lipgloss.Color("11")).Bold(true),
}

var (
	panelStyle    = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("240")).Padding(0, 1).Width(34)
	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("229"))
	labelStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	enabledStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("229")).Background(lipgloss.Color("57")).Padding(0, 1)
	disabledStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("240")).Padding(0, 1)
	winStyle      = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("10"))
	lostStyle     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("9"))
	helpStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

// RenderScreen converts a Screen buffer to a styled string for display.
// Groups adjacent cells with the same color to minimize ANSI escape sequences.
func RenderScreen(s *core.Screen) string {
	var sb strings.Builder
	sb.Grow(s.Width()*s.Height()*2 + s.Height())

	for y := range s.Height() {
		if y > 0 {
			sb.WriteRune('\n')
		}

		x := 0
		for x < s.Width() {
			startColor := s.GetCell(x, y).Color

			var run strings.Builder
			for x < s.Width() {
				cell := s.GetCell(x, y)
				if cell.Color != startColor {
					break
				}
				run.WriteRune(cell.Rune)
				x++
			}

			style, ok := colorStyles[startColor]
			if !ok {
				style = colorStyles[core.ColorDefault]
			}
			sb.WriteString(style.Render(run.String()))
		}
	}
	return sb.String()
}

// button renders a panel button as enabled or disabled.
func button(label string, enabled bool) string {
	if enabled {
		return enabledStyle.Render(label)
	}
	return disabledStyle.Render(label)
}

func betButtonLabel(m betting.BetButtonMode) string {
	switch m {
	case betting.BetButtonScratch:
		return "Scratch"
	case betting.BetButtonCashout:
		return "Cashout"
	default:
		return "Bet"
	}
}

func autoButtonLabel(c betting.Controls) string {
	switch {
	case c.AutoStopPending, c.AutoMode == betting.AutoButtonFinish:
		return "Finishing..."
	case c.AutoMode == betting.AutoButtonStop:
		return "Stop Autobet"
	default:
		return "Start Autobet"
	}
}

func strategyLabel(s betting.Strategy) string {
	if s.Mode == betting.StrategyIncrease {
		return fmt.Sprintf("+%g%%", s.Value)
	}
	return "reset"
}

// RenderPanel draws the control panel for a controls snapshot.
func RenderPanel(c betting.Controls, cue string) string {
	var b strings.Builder

	source := "demo"
	if !c.Demo {
		source = "live"
	}
	b.WriteString(titleStyle.Render(fmt.Sprintf("SCRATCH CARDS  [%s · %s]", c.Mode, source)))
	b.WriteString("\n\n")

	row := func(label, value string) {
		b.WriteString(labelStyle.Render(fmt.Sprintf("%-14s", label)))
		b.WriteString(value)
		b.WriteString("\n")
	}
	row("Bet", betting.FormatAmount(c.BetValue))
	row("Mines", fmt.Sprintf("%d / %d", c.Mines, c.MaxMines))
	if c.Mode == core.ModeAuto {
		bets := "∞"
		if c.NumberOfBets > 0 {
			bets = fmt.Sprintf("%d (left %d)", c.NumberOfBets, c.RemainingBets)
		}
		row("Bets", bets)
		row("On win", strategyLabel(c.OnWin))
		row("On loss", strategyLabel(c.OnLoss))
		row("Stop profit", betting.FormatAmount(c.StopOnProfit))
		row("Stop loss", betting.FormatAmount(c.StopOnLoss))
	}
	row("Multiplier", fmt.Sprintf("%.2fx", c.ProfitMultiplier))
	row("Total profit", c.TotalProfit)
	anim := "off"
	if c.Animations {
		anim = "on"
	}
	row("Animations", anim)
	b.WriteString("\n")

	if c.Mode == core.ModeManual {
		b.WriteString(button(betButtonLabel(c.BetMode), c.BetClickable || c.BetMode == betting.BetButtonCashout))
		b.WriteString(" ")
		b.WriteString(button("Random", c.RandomClickable))
		b.WriteString(" ")
		b.WriteString(button("Cashout", c.CashoutAvailable))
	} else {
		b.WriteString(button(autoButtonLabel(c), c.AutoClickable))
	}
	b.WriteString("\n\n")

	switch c.BetResult {
	case core.ResultWin:
		b.WriteString(winStyle.Render("WIN"))
	case core.ResultLost:
		b.WriteString(lostStyle.Render("NO LUCK"))
	default:
		b.WriteString(labelStyle.Render("place a bet"))
	}
	if cue != "" {
		b.WriteString(labelStyle.Render("  ♪ " + cue))
	}

	return panelStyle.Render(b.String())
}
